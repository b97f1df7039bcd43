package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/gharsewa/estate_api/internal/models"
)

func TestApproveMergesGrantedBit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPermissionRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE admin_permission_requests SET").
		WithArgs(5, 1).
		WillReturnRows(sqlmock.NewRows([]string{"requesting_admin_id", "permission_type"}).
			AddRow(9, string(models.PermissionManagePayments)))
	mock.ExpectExec("UPDATE users SET").
		WithArgs(9, models.PermissionManagePayments).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	affected, err := repo.Approve(5, 1)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 affected, got %d", affected)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApproveResolvedRequestIsNoOp(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPermissionRequestRepository(db)

	// Second approver loses the compare-and-set: no merge runs.
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE admin_permission_requests SET").
		WithArgs(5, 2).
		WillReturnRows(sqlmock.NewRows([]string{"requesting_admin_id", "permission_type"}))
	mock.ExpectRollback()

	affected, err := repo.Approve(5, 2)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected 0 affected for resolved request, got %d", affected)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRejectLeavesPermissionsUntouched(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPermissionRequestRepository(db)

	// Single statement, no transaction, no users update.
	mock.ExpectExec("UPDATE admin_permission_requests SET").
		WithArgs(5, 1, "not needed for your duties").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Reject(5, 1, "not needed for your duties")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 affected, got %d", affected)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestHasPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPermissionRequestRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(9, models.PermissionManagePayments).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	pending, err := repo.HasPending(9, models.PermissionManagePayments)
	if err != nil {
		t.Fatalf("HasPending: %v", err)
	}
	if !pending {
		t.Fatalf("expected pending request")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
