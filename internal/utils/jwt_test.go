package utils

import (
	"strings"
	"testing"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateJWT(42, "admin1", "admin")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ValidateJWT(token)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("unexpected user id %d", claims.UserID)
	}
	if claims.Username != "admin1" || claims.Role != "admin" {
		t.Fatalf("claims not preserved: %+v", claims)
	}
}

func TestValidateJWTRejectsTampering(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateJWT(42, "admin1", "admin")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + ".AAAA"
	if _, err := ValidateJWT(tampered); err == nil {
		t.Fatalf("tampered token validated")
	}
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	SetJWTSecret("secret-one")
	token, err := GenerateJWT(1, "u", "buyer")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	SetJWTSecret("secret-two")
	if _, err := ValidateJWT(token); err == nil {
		t.Fatalf("token signed with old secret validated")
	}
}
