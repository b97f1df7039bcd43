package cache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gharsewa/estate_api/internal/models"
)

func TestSessionSnapshotCan(t *testing.T) {
	snap := &SessionSnapshot{
		UserID:        9,
		Role:          models.RoleAdmin,
		IsAdminActive: true,
		Permissions:   models.PermissionSet{models.PermissionManageUsers: true},
		CachedAt:      time.Now(),
	}

	if !snap.Can(models.PermissionManageUsers) {
		t.Fatalf("granted bit denied")
	}
	if snap.Can(models.PermissionManagePayments) {
		t.Fatalf("ungranted bit passed")
	}
	if snap.Can(models.PermissionManageAdmins) {
		t.Fatalf("manage_admins passed for limited admin")
	}
}

func TestSessionSnapshotIsPointInTime(t *testing.T) {
	// Mutating the live permission set after capture must not change what
	// the session sees.
	user := &models.User{
		ID:               9,
		Role:             models.RoleAdmin,
		IsAdminActive:    true,
		AdminPermissions: models.PermissionSet{},
	}

	data, err := json.Marshal(&SessionSnapshot{
		UserID:        user.ID,
		Role:          user.Role,
		IsAdminActive: user.IsAdminActive,
		Permissions:   user.AdminPermissions,
		CachedAt:      time.Now(),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	user.AdminPermissions.Grant(models.PermissionManagePayments)

	var snap SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.Can(models.PermissionManagePayments) {
		t.Fatalf("snapshot observed a grant made after capture")
	}
}

func TestSessionSnapshotSuperAdmin(t *testing.T) {
	snap := &SessionSnapshot{
		UserID:        1,
		Role:          models.RoleSuperAdmin,
		IsAdminActive: true,
		Permissions:   models.PermissionSet{},
	}
	if !snap.Can(models.PermissionDeleteData) {
		t.Fatalf("super admin snapshot denied")
	}
}
