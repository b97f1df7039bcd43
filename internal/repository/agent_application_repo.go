package repository

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gharsewa/estate_api/internal/models"
)

// AgentApplicationRepository handles data access for agent applications.
type AgentApplicationRepository struct {
	db *sqlx.DB
}

// NewAgentApplicationRepository creates a new AgentApplicationRepository.
func NewAgentApplicationRepository(db *sqlx.DB) *AgentApplicationRepository {
	return &AgentApplicationRepository{db: db}
}

const applicationColumns = `
	id, applicant_id, company_name, license_number, license_expiry,
	years_experience, bio, specializations, contact_phone, contact_email,
	license_document_url, id_document_url, business_registration_url,
	document_match_score, status, submitted_at, reviewed_at, reviewed_by,
	admin_feedback, requested_documents`

// Create inserts a new application row in pending status.
func (r *AgentApplicationRepository) Create(app *models.AgentApplication) error {
	const q = `
		INSERT INTO agent_applications (
			applicant_id, company_name, license_number, license_expiry,
			years_experience, bio, specializations, contact_phone, contact_email,
			license_document_url, id_document_url, business_registration_url, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,'pending')
		RETURNING id, status, submitted_at`

	return r.db.QueryRow(q,
		app.ApplicantID, app.CompanyName, app.LicenseNumber, app.LicenseExpiry,
		app.YearsExperience, app.Bio, app.Specializations, app.ContactPhone, app.ContactEmail,
		app.LicenseDocumentURL, app.IDDocumentURL, app.BusinessRegistrationURL,
	).Scan(&app.ID, &app.Status, &app.SubmittedAt)
}

// GetByID returns an application by primary key.
func (r *AgentApplicationRepository) GetByID(id int) (*models.AgentApplication, error) {
	var app models.AgentApplication
	err := r.db.Get(&app, `SELECT `+applicationColumns+` FROM agent_applications WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// GetByApplicantID returns the one application linked to an account, if any.
func (r *AgentApplicationRepository) GetByApplicantID(applicantID int) (*models.AgentApplication, error) {
	var app models.AgentApplication
	err := r.db.Get(&app, `SELECT `+applicationColumns+` FROM agent_applications WHERE applicant_id = $1`, applicantID)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// List returns applications, optionally filtered by status, newest first.
func (r *AgentApplicationRepository) List(status models.ApplicationStatus, limit, offset int) ([]*models.AgentApplication, error) {
	apps := []*models.AgentApplication{}
	var err error
	if status != "" {
		err = r.db.Select(&apps, `
			SELECT `+applicationColumns+` FROM agent_applications
			WHERE status = $1
			ORDER BY submitted_at DESC LIMIT $2 OFFSET $3`, status, limit, offset)
	} else {
		err = r.db.Select(&apps, `
			SELECT `+applicationColumns+` FROM agent_applications
			ORDER BY submitted_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	}
	return apps, err
}

// Count returns the number of applications, optionally filtered by status.
func (r *AgentApplicationRepository) Count(status models.ApplicationStatus) (int, error) {
	var n int
	var err error
	if status != "" {
		err = r.db.Get(&n, `SELECT COUNT(*) FROM agent_applications WHERE status = $1`, status)
	} else {
		err = r.db.Get(&n, `SELECT COUNT(*) FROM agent_applications`)
	}
	return n, err
}

// Review applies a decision to one application and cascades the account
// mutation in the same transaction. The status update is a compare-and-set
// over the decision's eligible statuses, so a racing second reviewer sees
// zero affected rows and no cascade runs twice. Returns the number of
// applications transitioned (0 or 1).
func (r *AgentApplicationRepository) Review(id int, decision models.ReviewDecision, reviewerID int, notes string) (int, error) {
	eligible := statusStrings(decision.EligibleStatuses())

	tx, err := r.db.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var applicantID int
	err = tx.QueryRow(reviewUpdateQuery(decision),
		id, decision.TargetStatus(), reviewerID, notes, pq.Array(eligible),
	).Scan(&applicantID)
	if err == sql.ErrNoRows {
		// Not in an eligible state: terminal no-op, nothing to commit.
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	if cascade := cascadeQuery(decision); cascade != "" {
		if _, err := tx.Exec(cascade, applicantID); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return 1, nil
}

// BulkReview applies a decision to every eligible application in the set,
// cascading the linked accounts, all in one transaction. Entries not in an
// eligible state are skipped silently. Returns the count transitioned.
func (r *AgentApplicationRepository) BulkReview(ids []int, decision models.ReviewDecision, reviewerID int, notes string) (int, error) {
	eligible := statusStrings(decision.EligibleStatuses())

	tx, err := r.db.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rows, err := tx.Query(bulkReviewUpdateQuery(decision),
		pq.Array(ids), decision.TargetStatus(), reviewerID, notes, pq.Array(eligible),
	)
	if err != nil {
		return 0, err
	}
	applicants := []int{}
	for rows.Next() {
		var applicantID int
		if err := rows.Scan(&applicantID); err != nil {
			rows.Close()
			return 0, err
		}
		applicants = append(applicants, applicantID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if len(applicants) == 0 {
		return 0, nil
	}

	if cascade := bulkCascadeQuery(decision); cascade != "" {
		if _, err := tx.Exec(cascade, pq.Array(applicants)); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(applicants), nil
}

// SetDocumentMatchScore stores the automated document identity check result.
func (r *AgentApplicationRepository) SetDocumentMatchScore(id int, score float64) error {
	_, err := r.db.Exec(`UPDATE agent_applications SET document_match_score = $2 WHERE id = $1`, id, score)
	return err
}

// ListStale returns applications sitting unreviewed since before the cutoff.
func (r *AgentApplicationRepository) ListStale(cutoff time.Time) ([]*models.AgentApplication, error) {
	apps := []*models.AgentApplication{}
	err := r.db.Select(&apps, `
		SELECT `+applicationColumns+` FROM agent_applications
		WHERE status IN ('pending', 'under_review') AND submitted_at < $1
		ORDER BY submitted_at ASC`, cutoff)
	return apps, err
}

// ListExpiredLicenses returns approved applications whose license has lapsed.
func (r *AgentApplicationRepository) ListExpiredLicenses(asOf time.Time) ([]*models.AgentApplication, error) {
	apps := []*models.AgentApplication{}
	err := r.db.Select(&apps, `
		SELECT `+applicationColumns+` FROM agent_applications
		WHERE status = 'approved' AND license_expiry < $1
		ORDER BY license_expiry ASC`, asOf)
	return apps, err
}

// reviewUpdateQuery builds the compare-and-set UPDATE for a single review.
// The notes column depends on the decision: rejection feedback goes to
// admin_feedback, needs_info requests go to requested_documents.
func reviewUpdateQuery(decision models.ReviewDecision) string {
	return `
		UPDATE agent_applications SET
			status = $2,
			reviewed_at = NOW(),
			reviewed_by = $3,
			` + notesColumn(decision) + ` = $4
		WHERE id = $1 AND status = ANY($5)
		RETURNING applicant_id`
}

func bulkReviewUpdateQuery(decision models.ReviewDecision) string {
	return `
		UPDATE agent_applications SET
			status = $2,
			reviewed_at = NOW(),
			reviewed_by = $3,
			` + notesColumn(decision) + ` = $4
		WHERE id = ANY($1) AND status = ANY($5)
		RETURNING applicant_id`
}

func notesColumn(decision models.ReviewDecision) string {
	if decision == models.DecisionNeedsInfo {
		return "requested_documents"
	}
	return "admin_feedback"
}

// cascadeQuery returns the account mutation coupled to the decision, or ""
// when the decision leaves the account untouched.
func cascadeQuery(decision models.ReviewDecision) string {
	switch decision {
	case models.DecisionApprove:
		return `
			UPDATE users SET
				is_active = TRUE,
				is_verified = TRUE,
				verification_date = NOW(),
				updated_at = NOW()
			WHERE id = $1`
	case models.DecisionReject, models.DecisionNeedsInfo:
		return `
			UPDATE users SET
				is_active = FALSE,
				is_verified = FALSE,
				updated_at = NOW()
			WHERE id = $1`
	}
	return ""
}

func bulkCascadeQuery(decision models.ReviewDecision) string {
	switch decision {
	case models.DecisionApprove:
		return `
			UPDATE users SET
				is_active = TRUE,
				is_verified = TRUE,
				verification_date = NOW(),
				updated_at = NOW()
			WHERE id = ANY($1)`
	case models.DecisionReject, models.DecisionNeedsInfo:
		return `
			UPDATE users SET
				is_active = FALSE,
				is_verified = FALSE,
				updated_at = NOW()
			WHERE id = ANY($1)`
	}
	return ""
}

func statusStrings(statuses []models.ApplicationStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
