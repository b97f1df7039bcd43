package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Role classifies an account. Exactly one role per account.
type Role string

const (
	RoleBuyer      Role = "buyer"
	RoleBroker     Role = "broker"
	RoleAgent      Role = "agent"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleBroker, RoleAgent, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsAdminRole reports whether the role is one of the two admin tiers.
func (r Role) IsAdminRole() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Permission is one named, independently grantable administrative privilege.
type Permission string

const (
	PermissionManageUsers      Permission = "manage_users"
	PermissionManageProperties Permission = "manage_properties"
	PermissionManagePayments   Permission = "manage_payments"
	PermissionManagePremium    Permission = "manage_premium"
	PermissionManageAdmins     Permission = "manage_admins"
	PermissionSystemSettings   Permission = "system_settings"
	PermissionViewLogs         Permission = "view_logs"
	PermissionDeleteData       Permission = "delete_data"
	PermissionExportData       Permission = "export_data"
	PermissionManageContent    Permission = "manage_content"
)

// AllPermissions lists every grantable permission in display order.
var AllPermissions = []Permission{
	PermissionManageUsers,
	PermissionManageProperties,
	PermissionManagePayments,
	PermissionManagePremium,
	PermissionSystemSettings,
	PermissionViewLogs,
	PermissionDeleteData,
	PermissionExportData,
	PermissionManageContent,
}

// Valid reports whether the permission is a known key. manage_admins is a
// known key but is never stored or requestable; it is tied to the
// super_admin role.
func (p Permission) Valid() bool {
	if p == PermissionManageAdmins {
		return true
	}
	for _, known := range AllPermissions {
		if p == known {
			return true
		}
	}
	return false
}

// Requestable reports whether the permission can be asked for through the
// permission-request workflow.
func (p Permission) Requestable() bool {
	return p != PermissionManageAdmins && p.Valid()
}

// PermissionSet stores per-admin permission grants as a JSONB object of
// permission name to boolean. Missing keys read as false.
type PermissionSet map[Permission]bool

// Has returns the stored bit for a permission; unknown or missing keys are false.
func (s PermissionSet) Has(p Permission) bool {
	return s != nil && s[p]
}

// Grant sets a permission bit, allocating the map if needed. Other bits are
// untouched (merge semantics).
func (s *PermissionSet) Grant(p Permission) {
	if *s == nil {
		*s = make(PermissionSet)
	}
	(*s)[p] = true
}

// Value implements driver.Valuer, serializing the set as JSONB.
func (s PermissionSet) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB columns.
func (s *PermissionSet) Scan(src interface{}) error {
	if src == nil {
		*s = PermissionSet{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported type for PermissionSet: %T", src)
	}
	if len(b) == 0 {
		*s = PermissionSet{}
		return nil
	}
	return json.Unmarshal(b, s)
}

// User represents a marketplace account of any role.
type User struct {
	ID           int     `db:"id" json:"id"`
	Username     string  `db:"username" json:"username"`
	Email        string  `db:"email" json:"email"`
	PasswordHash string  `db:"password_hash" json:"-"`
	PhoneNumber  *string `db:"phone_number" json:"phoneNumber,omitempty"`
	Role         Role    `db:"role" json:"role"`

	IsActive         bool       `db:"is_active" json:"isActive"`
	IsVerified       bool       `db:"is_verified" json:"isVerified"`
	VerificationDate *time.Time `db:"verification_date" json:"verificationDate,omitempty"`

	// Profile
	CompanyName   *string `db:"company_name" json:"companyName,omitempty"`
	LicenseNumber *string `db:"license_number" json:"licenseNumber,omitempty"`
	Bio           *string `db:"bio" json:"bio,omitempty"`

	// Admin roles only
	IsAdminActive    bool          `db:"is_admin_active" json:"isAdminActive"`
	AdminPermissions PermissionSet `db:"admin_permissions" json:"adminPermissions,omitempty"`

	// Activity tracking
	LastLoginIP *string `db:"last_login_ip" json:"-"`
	LoginCount  int     `db:"login_count" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// IsSuperAdmin reports whether the account is an active super admin.
func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin && u.IsAdminActive
}

// IsNormalAdmin reports whether the account is an active limited admin.
func (u *User) IsNormalAdmin() bool {
	return u.Role == RoleAdmin && u.IsAdminActive
}

// Can is the authorization gate: it decides whether the account may exercise
// a capability. Super admins always pass, regardless of the stored
// permission set. manage_admins is never granted via the set. Everything
// else requires an active admin account holding the bit. Unknown keys deny.
func (u *User) Can(p Permission) bool {
	if u.Role == RoleSuperAdmin {
		return true
	}
	if p == PermissionManageAdmins {
		return false
	}
	if u.Role == RoleAdmin && u.IsAdminActive {
		return u.AdminPermissions.Has(p)
	}
	return false
}
