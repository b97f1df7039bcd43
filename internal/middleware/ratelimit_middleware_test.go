package middleware

import "testing"

func TestInvalidAuthRateLimiter(t *testing.T) {
	rl := NewInvalidAuthRateLimiter()
	ip := "203.0.113.9"

	for i := 0; i < 5; i++ {
		if !rl.Allow(ip) {
			t.Fatalf("attempt %d blocked too early", i+1)
		}
	}
	if rl.Allow(ip) {
		t.Fatalf("sixth attempt within the window should be blocked")
	}
	if !rl.Blocked(ip) {
		t.Fatalf("Blocked should report exhaustion")
	}

	// Other IPs are unaffected.
	if rl.Blocked("198.51.100.1") {
		t.Fatalf("fresh IP reported blocked")
	}

	rl.Reset(ip)
	if rl.Blocked(ip) {
		t.Fatalf("reset IP still blocked")
	}
	if !rl.Allow(ip) {
		t.Fatalf("reset IP should be allowed")
	}
}
