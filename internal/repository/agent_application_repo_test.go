package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/gharsewa/estate_api/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestReviewApproveCascadesAccount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAgentApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE agent_applications SET").
		WithArgs(7, models.ApplicationApproved, 3, "looks good", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"applicant_id"}).AddRow(42))
	mock.ExpectExec("UPDATE users SET").
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	affected, err := repo.Review(7, models.DecisionApprove, 3, "looks good")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 affected, got %d", affected)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReviewRejectCascadesLockout(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAgentApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE agent_applications SET").
		WithArgs(7, models.ApplicationRejected, 3, "license invalid", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"applicant_id"}).AddRow(42))
	// rejection forces the account inactive and unverified
	mock.ExpectExec("UPDATE users SET").
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	affected, err := repo.Review(7, models.DecisionReject, 3, "license invalid")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 affected, got %d", affected)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReviewTerminalStateIsNoOp(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAgentApplicationRepository(db)

	// The compare-and-set matches no row: already approved or rejected.
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE agent_applications SET").
		WithArgs(7, models.ApplicationApproved, 3, "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"applicant_id"}))
	mock.ExpectRollback()

	affected, err := repo.Review(7, models.DecisionApprove, 3, "")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected 0 affected for terminal state, got %d", affected)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReviewUnderReviewSkipsCascade(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAgentApplicationRepository(db)

	// under_review touches only the application; no account mutation runs.
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE agent_applications SET").
		WithArgs(7, models.ApplicationUnderReview, 3, "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"applicant_id"}).AddRow(42))
	mock.ExpectCommit()

	affected, err := repo.Review(7, models.DecisionUnderReview, 3, "")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 affected, got %d", affected)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBulkReviewCountsOnlyEligible(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAgentApplicationRepository(db)

	// Three requested, one already approved: only two transition, and only
	// their accounts cascade.
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE agent_applications SET").
		WithArgs(sqlmock.AnyArg(), models.ApplicationApproved, 3, "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"applicant_id"}).AddRow(42).AddRow(43))
	mock.ExpectExec("UPDATE users SET").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	affected, err := repo.BulkReview([]int{7, 8, 9}, models.DecisionApprove, 3, "")
	if err != nil {
		t.Fatalf("BulkReview: %v", err)
	}
	if affected != 2 {
		t.Fatalf("expected 2 affected, got %d", affected)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBulkReviewAllIneligible(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAgentApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE agent_applications SET").
		WithArgs(sqlmock.AnyArg(), models.ApplicationApproved, 3, "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"applicant_id"}))
	mock.ExpectRollback()

	affected, err := repo.BulkReview([]int{7, 8}, models.DecisionApprove, 3, "")
	if err != nil {
		t.Fatalf("BulkReview: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected 0 affected, got %d", affected)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
