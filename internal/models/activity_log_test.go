package models

import "testing"

func TestActionTypeHighRisk(t *testing.T) {
	high := []ActionType{ActionDelete, ActionBan, ActionRefund, ActionPermission}
	for _, a := range high {
		if !a.HighRisk() {
			t.Fatalf("%s should be high risk", a)
		}
	}

	low := []ActionType{ActionLogin, ActionLogout, ActionCreate, ActionUpdate,
		ActionApprove, ActionReject, ActionUnban, ActionVerify, ActionExport, ActionSettings}
	for _, a := range low {
		if a.HighRisk() {
			t.Fatalf("%s should not be high risk", a)
		}
	}
}

func TestNewDeviceInfo(t *testing.T) {
	d := NewDeviceInfo("203.0.113.9", "Mozilla/5.0 (X11; Linux x86_64)")
	if d.IP != "203.0.113.9" {
		t.Fatalf("ip not captured")
	}
	if d.Browser != "Mozilla/5.0" {
		t.Fatalf("browser token wrong: %s", d.Browser)
	}

	empty := NewDeviceInfo("", "")
	if empty.Browser != "" {
		t.Fatalf("empty user agent produced browser %q", empty.Browser)
	}
}
