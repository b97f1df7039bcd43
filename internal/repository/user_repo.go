package repository

import (
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gharsewa/estate_api/internal/models"
)

// UserRepository handles data access for accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	id, username, email, password_hash, phone_number, role,
	is_active, is_verified, verification_date,
	company_name, license_number, bio,
	is_admin_active, admin_permissions,
	last_login_ip, login_count, created_at, updated_at`

// Create inserts a new account row.
func (r *UserRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (
			username, email, password_hash, phone_number, role,
			is_active, is_verified, verification_date,
			company_name, license_number, bio,
			is_admin_active, admin_permissions
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRow(q,
		user.Username, user.Email, user.PasswordHash, user.PhoneNumber, user.Role,
		user.IsActive, user.IsVerified, user.VerificationDate,
		user.CompanyName, user.LicenseNumber, user.Bio,
		user.IsAdminActive, user.AdminPermissions,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

// GetByID returns an account by primary key.
func (r *UserRepository) GetByID(id int) (*models.User, error) {
	var user models.User
	err := r.db.Get(&user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername returns an account by unique handle.
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.db.Get(&user, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// RecordLogin updates login tracking fields after a successful login.
func (r *UserRepository) RecordLogin(id int, ip string) error {
	const q = `
		UPDATE users SET
			last_login_ip = $2,
			login_count = login_count + 1,
			updated_at = NOW()
		WHERE id = $1`
	_, err := r.db.Exec(q, id, ip)
	return err
}

// SetActive flips the account activation gate.
func (r *UserRepository) SetActive(id int, active bool) (int64, error) {
	res, err := r.db.Exec(`UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Verify marks the account verified and stamps the verification date.
func (r *UserRepository) Verify(id int) (int64, error) {
	const q = `
		UPDATE users SET
			is_verified = TRUE,
			verification_date = NOW(),
			updated_at = NOW()
		WHERE id = $1 AND is_verified = FALSE`
	res, err := r.db.Exec(q, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// BulkSetActive flips activation for a set of accounts, returning the count updated.
func (r *UserRepository) BulkSetActive(ids []int, active bool) (int64, error) {
	res, err := r.db.Exec(
		`UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = ANY($1)`,
		pq.Array(ids), active,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// BulkVerify verifies a set of accounts, returning the count updated.
func (r *UserRepository) BulkVerify(ids []int) (int64, error) {
	const q = `
		UPDATE users SET
			is_verified = TRUE,
			verification_date = NOW(),
			updated_at = NOW()
		WHERE id = ANY($1) AND is_verified = FALSE`
	res, err := r.db.Exec(q, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListActiveAdminIDs returns the ids of every active admin account,
// super admins included. Used to fan notifications out to the admin team.
func (r *UserRepository) ListActiveAdminIDs() ([]int, error) {
	ids := []int{}
	err := r.db.Select(&ids, `
		SELECT id FROM users
		WHERE role IN ('admin', 'super_admin') AND is_admin_active = TRUE
		ORDER BY id`)
	return ids, err
}

// CountByRole returns the number of accounts per role for dashboard stats.
func (r *UserRepository) CountByRole() (map[models.Role]int, error) {
	rows, err := r.db.Query(`SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.Role]int)
	for rows.Next() {
		var role models.Role
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		counts[role] = n
	}
	return counts, rows.Err()
}
