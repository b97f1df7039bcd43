package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/gharsewa/estate_api/internal/models"
)

// PermissionRequestRepository handles data access for permission requests.
type PermissionRequestRepository struct {
	db *sqlx.DB
}

// NewPermissionRequestRepository creates a new PermissionRequestRepository.
func NewPermissionRequestRepository(db *sqlx.DB) *PermissionRequestRepository {
	return &PermissionRequestRepository{db: db}
}

const requestColumns = `
	id, requesting_admin_id, permission_type, reason, justification,
	status, requested_at, reviewed_at, reviewed_by, review_notes, granted_at`

// Create inserts a new request in pending status. The partial unique index
// on (requesting_admin_id, permission_type) WHERE status = 'pending' rejects
// a second simultaneous pending request at the storage level.
func (r *PermissionRequestRepository) Create(req *models.PermissionRequest) error {
	const q = `
		INSERT INTO admin_permission_requests (
			requesting_admin_id, permission_type, reason, justification, status
		) VALUES ($1,$2,$3,$4,'pending')
		RETURNING id, status, requested_at`

	return r.db.QueryRow(q,
		req.RequestingAdminID, req.PermissionType, req.Reason, req.Justification,
	).Scan(&req.ID, &req.Status, &req.RequestedAt)
}

// GetByID returns a request by primary key.
func (r *PermissionRequestRepository) GetByID(id int) (*models.PermissionRequest, error) {
	var req models.PermissionRequest
	err := r.db.Get(&req, `SELECT `+requestColumns+` FROM admin_permission_requests WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// HasPending reports whether the admin already has a pending request for the permission.
func (r *PermissionRequestRepository) HasPending(adminID int, permission models.Permission) (bool, error) {
	var exists bool
	err := r.db.Get(&exists, `
		SELECT EXISTS (
			SELECT 1 FROM admin_permission_requests
			WHERE requesting_admin_id = $1 AND permission_type = $2 AND status = 'pending'
		)`, adminID, permission)
	return exists, err
}

// ListPending returns all pending requests, newest first.
func (r *PermissionRequestRepository) ListPending() ([]*models.PermissionRequest, error) {
	reqs := []*models.PermissionRequest{}
	err := r.db.Select(&reqs, `
		SELECT `+requestColumns+` FROM admin_permission_requests
		WHERE status = 'pending'
		ORDER BY requested_at DESC`)
	return reqs, err
}

// ListRecentResolved returns the most recently resolved requests.
func (r *PermissionRequestRepository) ListRecentResolved(limit int) ([]*models.PermissionRequest, error) {
	reqs := []*models.PermissionRequest{}
	err := r.db.Select(&reqs, `
		SELECT `+requestColumns+` FROM admin_permission_requests
		WHERE status IN ('approved', 'rejected')
		ORDER BY reviewed_at DESC LIMIT $1`, limit)
	return reqs, err
}

// CountPending returns the number of pending requests for dashboard stats.
func (r *PermissionRequestRepository) CountPending() (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM admin_permission_requests WHERE status = 'pending'`)
	return n, err
}

// Approve resolves a pending request and merges the granted bit into the
// target admin's permission set, both in one transaction. The request update
// is a compare-and-set on status = 'pending' so a request is resolved at
// most once. Returns the transitioned count (0 when not pending).
func (r *PermissionRequestRepository) Approve(id, reviewerID int) (int, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var adminID int
	var permission models.Permission
	err = tx.QueryRow(`
		UPDATE admin_permission_requests SET
			status = 'approved',
			reviewed_at = NOW(),
			reviewed_by = $2,
			granted_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING requesting_admin_id, permission_type`, id, reviewerID,
	).Scan(&adminID, &permission)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	// Merge, not replace: other bits stay untouched.
	_, err = tx.Exec(`
		UPDATE users SET
			admin_permissions = admin_permissions || jsonb_build_object($2::text, true),
			updated_at = NOW()
		WHERE id = $1`, adminID, permission)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return 1, nil
}

// Reject resolves a pending request without touching any permission set.
// Returns the transitioned count (0 when not pending).
func (r *PermissionRequestRepository) Reject(id, reviewerID int, notes string) (int, error) {
	res, err := r.db.Exec(`
		UPDATE admin_permission_requests SET
			status = 'rejected',
			reviewed_at = NOW(),
			reviewed_by = $2,
			review_notes = $3
		WHERE id = $1 AND status = 'pending'`, id, reviewerID, notes)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
