package models

import "time"

// ApplicationStatus is the agent application review state.
type ApplicationStatus string

const (
	ApplicationPending     ApplicationStatus = "pending"
	ApplicationUnderReview ApplicationStatus = "under_review"
	ApplicationApproved    ApplicationStatus = "approved"
	ApplicationRejected    ApplicationStatus = "rejected"
	ApplicationNeedsInfo   ApplicationStatus = "needs_info"
)

// Valid reports whether the status is one of the known values.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationUnderReview, ApplicationApproved,
		ApplicationRejected, ApplicationNeedsInfo:
		return true
	}
	return false
}

// ReviewDecision is the transition a reviewer applies to an application.
type ReviewDecision string

const (
	DecisionUnderReview ReviewDecision = "under_review"
	DecisionApprove     ReviewDecision = "approve"
	DecisionReject      ReviewDecision = "reject"
	DecisionNeedsInfo   ReviewDecision = "needs_info"
)

// EligibleStatuses returns the set of statuses the decision may transition
// from. Applications outside the set are skipped, not errored.
func (d ReviewDecision) EligibleStatuses() []ApplicationStatus {
	switch d {
	case DecisionApprove, DecisionReject:
		return []ApplicationStatus{ApplicationPending, ApplicationUnderReview, ApplicationNeedsInfo}
	case DecisionNeedsInfo:
		return []ApplicationStatus{ApplicationPending, ApplicationUnderReview}
	case DecisionUnderReview:
		return []ApplicationStatus{ApplicationPending}
	}
	return nil
}

// TargetStatus returns the status the decision transitions to.
func (d ReviewDecision) TargetStatus() ApplicationStatus {
	switch d {
	case DecisionApprove:
		return ApplicationApproved
	case DecisionReject:
		return ApplicationRejected
	case DecisionNeedsInfo:
		return ApplicationNeedsInfo
	case DecisionUnderReview:
		return ApplicationUnderReview
	}
	return ""
}

// Valid reports whether the decision is one of the known transitions.
func (d ReviewDecision) Valid() bool {
	return d.TargetStatus() != ""
}

// AgentApplication is the one-to-one vetting record for an account with the
// agent role. The account stays locked (inactive, unverified) until the
// application is approved.
type AgentApplication struct {
	ID          int `db:"id" json:"id"`
	ApplicantID int `db:"applicant_id" json:"applicantId"`

	// Professional information
	CompanyName     string    `db:"company_name" json:"companyName"`
	LicenseNumber   string    `db:"license_number" json:"licenseNumber"`
	LicenseExpiry   time.Time `db:"license_expiry" json:"licenseExpiry"`
	YearsExperience int       `db:"years_experience" json:"yearsExperience"`
	Bio             string    `db:"bio" json:"bio"`
	Specializations *string   `db:"specializations" json:"specializations,omitempty"`
	ContactPhone    string    `db:"contact_phone" json:"contactPhone"`
	ContactEmail    string    `db:"contact_email" json:"contactEmail"`

	// Document references (opaque storage URLs)
	LicenseDocumentURL      string  `db:"license_document_url" json:"licenseDocumentUrl"`
	IDDocumentURL           string  `db:"id_document_url" json:"idDocumentUrl"`
	BusinessRegistrationURL *string `db:"business_registration_url" json:"businessRegistrationUrl,omitempty"`

	// Optional automated document identity check result (0-100 similarity).
	DocumentMatchScore *float64 `db:"document_match_score" json:"documentMatchScore,omitempty"`

	// Review process
	Status             ApplicationStatus `db:"status" json:"status"`
	SubmittedAt        time.Time         `db:"submitted_at" json:"submittedAt"`
	ReviewedAt         *time.Time        `db:"reviewed_at" json:"reviewedAt,omitempty"`
	ReviewedBy         *int              `db:"reviewed_by" json:"reviewedBy,omitempty"`
	AdminFeedback      *string           `db:"admin_feedback" json:"adminFeedback,omitempty"`
	RequestedDocuments *string           `db:"requested_documents" json:"requestedDocuments,omitempty"`
}
