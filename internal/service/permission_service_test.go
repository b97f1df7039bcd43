package service

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/gharsewa/estate_api/internal/models"
	"github.com/gharsewa/estate_api/internal/repository"
	"github.com/gharsewa/estate_api/internal/utils"
)

func newPermissionService(t *testing.T) (*PermissionService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sdb := sqlx.NewDb(db, "sqlmock")
	requestRepo := repository.NewPermissionRequestRepository(sdb)
	userRepo := repository.NewUserRepository(sdb)
	// Approve/Reject paths that need audit and notifications are exercised
	// against the repositories directly; Submit never touches either.
	return NewPermissionService(requestRepo, userRepo, nil, nil), mock
}

func adminRow(role models.Role, perms string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userCols).AddRow(
		9, "admin1", "admin1@example.com", "x", nil, string(role),
		true, true, nil,
		nil, nil, nil,
		true, []byte(perms),
		nil, 0, now, now,
	)
}

func TestSubmitRejectsManageAdmins(t *testing.T) {
	svc, _ := newPermissionService(t)

	_, err := svc.Submit(&RequestParams{
		AdminID:       9,
		Permission:    models.PermissionManageAdmins,
		Reason:        "r",
		Justification: "j",
	})
	if !errors.Is(err, utils.ErrInvalidPermission) {
		t.Fatalf("expected ErrInvalidPermission, got %v", err)
	}
}

func TestSubmitRejectsUnknownPermission(t *testing.T) {
	svc, _ := newPermissionService(t)

	_, err := svc.Submit(&RequestParams{
		AdminID:       9,
		Permission:    models.Permission("made_up"),
		Reason:        "r",
		Justification: "j",
	})
	if !errors.Is(err, utils.ErrInvalidPermission) {
		t.Fatalf("expected ErrInvalidPermission, got %v", err)
	}
}

func TestSubmitSuperAdminAlreadyGranted(t *testing.T) {
	svc, mock := newPermissionService(t)
	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(9).
		WillReturnRows(adminRow(models.RoleSuperAdmin, `{}`))

	_, err := svc.Submit(&RequestParams{
		AdminID:       9,
		Permission:    models.PermissionManagePayments,
		Reason:        "r",
		Justification: "j",
	})
	if !errors.Is(err, utils.ErrAlreadyGranted) {
		t.Fatalf("expected ErrAlreadyGranted, got %v", err)
	}
}

func TestSubmitHeldBitAlreadyGranted(t *testing.T) {
	svc, mock := newPermissionService(t)
	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(9).
		WillReturnRows(adminRow(models.RoleAdmin, `{"manage_payments": true}`))

	_, err := svc.Submit(&RequestParams{
		AdminID:       9,
		Permission:    models.PermissionManagePayments,
		Reason:        "r",
		Justification: "j",
	})
	if !errors.Is(err, utils.ErrAlreadyGranted) {
		t.Fatalf("expected ErrAlreadyGranted, got %v", err)
	}
}

func TestSubmitDuplicatePending(t *testing.T) {
	svc, mock := newPermissionService(t)
	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(9).
		WillReturnRows(adminRow(models.RoleAdmin, `{}`))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(9, models.PermissionManagePayments).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := svc.Submit(&RequestParams{
		AdminID:       9,
		Permission:    models.PermissionManagePayments,
		Reason:        "r",
		Justification: "j",
	})
	if !errors.Is(err, utils.ErrAlreadyPending) {
		t.Fatalf("expected ErrAlreadyPending, got %v", err)
	}
}

func TestSubmitCreatesPendingRequest(t *testing.T) {
	svc, mock := newPermissionService(t)
	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(9).
		WillReturnRows(adminRow(models.RoleAdmin, `{}`))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(9, models.PermissionManagePayments).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO admin_permission_requests").
		WithArgs(9, models.PermissionManagePayments, "refund season", "support tickets piling up").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "requested_at"}).
			AddRow(3, "pending", time.Now()))

	req, err := svc.Submit(&RequestParams{
		AdminID:       9,
		Permission:    models.PermissionManagePayments,
		Reason:        "refund season",
		Justification: "support tickets piling up",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if req.Status != models.RequestPending {
		t.Fatalf("expected pending status, got %s", req.Status)
	}
}

func TestAvailablePermissionsExcludesHeldAndPending(t *testing.T) {
	svc, mock := newPermissionService(t)
	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(9).
		WillReturnRows(adminRow(models.RoleAdmin, `{"manage_users": true}`))

	// One pending request for view_logs; everything else clear.
	for _, p := range models.AllPermissions {
		if p == models.PermissionManageUsers {
			continue // held, not queried
		}
		pending := p == models.PermissionViewLogs
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(9, p).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(pending))
	}

	available, err := svc.AvailablePermissions(9)
	if err != nil {
		t.Fatalf("AvailablePermissions: %v", err)
	}

	for _, p := range available {
		if p == models.PermissionManageUsers {
			t.Fatalf("held permission listed as available")
		}
		if p == models.PermissionViewLogs {
			t.Fatalf("pending permission listed as available")
		}
		if p == models.PermissionManageAdmins {
			t.Fatalf("manage_admins listed as available")
		}
	}
	if len(available) != len(models.AllPermissions)-2 {
		t.Fatalf("expected %d available, got %d", len(models.AllPermissions)-2, len(available))
	}
}
