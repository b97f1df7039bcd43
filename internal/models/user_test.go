package models

import "testing"

func TestCanSuperAdminBypassesPermissionSet(t *testing.T) {
	u := &User{Role: RoleSuperAdmin, IsAdminActive: true, AdminPermissions: PermissionSet{}}

	for _, p := range AllPermissions {
		if !u.Can(p) {
			t.Fatalf("super admin denied %s", p)
		}
	}
	if !u.Can(PermissionManageAdmins) {
		t.Fatalf("super admin denied manage_admins")
	}
}

func TestCanDeniesByDefault(t *testing.T) {
	u := &User{Role: RoleAdmin, IsAdminActive: true, AdminPermissions: PermissionSet{}}

	if u.Can(PermissionManageUsers) {
		t.Fatalf("admin without grant passed manage_users")
	}
	if u.Can(Permission("made_up_permission")) {
		t.Fatalf("unknown permission key passed")
	}
}

func TestCanManageAdminsNeverGrantable(t *testing.T) {
	u := &User{
		Role:             RoleAdmin,
		IsAdminActive:    true,
		AdminPermissions: PermissionSet{PermissionManageAdmins: true},
	}

	if u.Can(PermissionManageAdmins) {
		t.Fatalf("limited admin passed manage_admins despite stored bit")
	}
}

func TestCanRequiresActiveAdmin(t *testing.T) {
	u := &User{
		Role:             RoleAdmin,
		IsAdminActive:    false,
		AdminPermissions: PermissionSet{PermissionManageUsers: true},
	}
	if u.Can(PermissionManageUsers) {
		t.Fatalf("deactivated admin passed permission check")
	}

	buyer := &User{Role: RoleBuyer, AdminPermissions: PermissionSet{PermissionManageUsers: true}}
	if buyer.Can(PermissionManageUsers) {
		t.Fatalf("non-admin role passed permission check")
	}
}

func TestCanGrantedBit(t *testing.T) {
	u := &User{
		Role:             RoleAdmin,
		IsAdminActive:    true,
		AdminPermissions: PermissionSet{PermissionViewLogs: true},
	}

	if !u.Can(PermissionViewLogs) {
		t.Fatalf("granted bit denied")
	}
	if u.Can(PermissionDeleteData) {
		t.Fatalf("ungranted bit passed")
	}
}

func TestPermissionRequestable(t *testing.T) {
	if PermissionManageAdmins.Requestable() {
		t.Fatalf("manage_admins must not be requestable")
	}
	if !PermissionManagePayments.Requestable() {
		t.Fatalf("manage_payments should be requestable")
	}
	if Permission("bogus").Requestable() {
		t.Fatalf("unknown permission should not be requestable")
	}
}

func TestPermissionSetGrantMerges(t *testing.T) {
	var s PermissionSet
	s.Grant(PermissionViewLogs)
	s.Grant(PermissionExportData)

	if !s.Has(PermissionViewLogs) || !s.Has(PermissionExportData) {
		t.Fatalf("granted bits missing: %v", s)
	}
	if s.Has(PermissionDeleteData) {
		t.Fatalf("ungranted bit set")
	}
}

func TestPermissionSetScanEmpty(t *testing.T) {
	var s PermissionSet
	if err := s.Scan([]byte(`{}`)); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if s.Has(PermissionManageUsers) {
		t.Fatalf("empty set reported a grant")
	}

	var fromNil PermissionSet
	if err := fromNil.Scan(nil); err != nil {
		t.Fatalf("Scan nil: %v", err)
	}
	if fromNil == nil {
		t.Fatalf("Scan nil should produce empty set")
	}
}
