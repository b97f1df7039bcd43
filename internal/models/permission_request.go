package models

import "time"

// RequestStatus is the lifecycle state of a permission request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// PermissionRequest is a limited admin's ask for one permission bit. At most
// one pending request per (admin, permission) exists at a time; resolved
// requests may be re-submitted.
type PermissionRequest struct {
	ID                int        `db:"id" json:"id"`
	RequestingAdminID int        `db:"requesting_admin_id" json:"requestingAdminId"`
	PermissionType    Permission `db:"permission_type" json:"permissionType"`

	Reason        string `db:"reason" json:"reason"`
	Justification string `db:"justification" json:"justification"`

	Status      RequestStatus `db:"status" json:"status"`
	RequestedAt time.Time     `db:"requested_at" json:"requestedAt"`
	ReviewedAt  *time.Time    `db:"reviewed_at" json:"reviewedAt,omitempty"`
	ReviewedBy  *int          `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewNotes *string       `db:"review_notes" json:"reviewNotes,omitempty"`
	GrantedAt   *time.Time    `db:"granted_at" json:"grantedAt,omitempty"`
}
