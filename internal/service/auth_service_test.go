package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/gharsewa/estate_api/internal/models"
	"github.com/gharsewa/estate_api/internal/repository"
	"github.com/gharsewa/estate_api/internal/utils"
)

var userCols = []string{
	"id", "username", "email", "password_hash", "phone_number", "role",
	"is_active", "is_verified", "verification_date",
	"company_name", "license_number", "bio",
	"is_admin_active", "admin_permissions",
	"last_login_ip", "login_count", "created_at", "updated_at",
}

var appCols = []string{
	"id", "applicant_id", "company_name", "license_number", "license_expiry",
	"years_experience", "bio", "specializations", "contact_phone", "contact_email",
	"license_document_url", "id_document_url", "business_registration_url",
	"document_match_score", "status", "submitted_at", "reviewed_at", "reviewed_by",
	"admin_feedback", "requested_documents",
}

func newAuthService(t *testing.T) (*AuthService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sdb := sqlx.NewDb(db, "sqlmock")
	userRepo := repository.NewUserRepository(sdb)
	appRepo := repository.NewAgentApplicationRepository(sdb)
	// Session cache and audit are only touched on admin logins, which these
	// tests do not exercise.
	return NewAuthService(userRepo, appRepo, nil, nil), mock
}

func userRow(hash string, role models.Role, active, verified bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userCols).AddRow(
		1, "ram", "ram@example.com", hash, nil, string(role),
		active, verified, nil,
		nil, nil, nil,
		false, []byte(`{}`),
		nil, 0, now, now,
	)
}

func appRow(status models.ApplicationStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(appCols).AddRow(
		10, 1, "Ram Realty", "LIC-100", now.AddDate(1, 0, 0),
		3, "bio", nil, "+9779800000000", "ram@example.com",
		"https://docs.example/license.jpg", "https://docs.example/id.jpg", nil,
		nil, string(status), now, nil, nil,
		nil, nil,
	)
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(h)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, mock := newAuthService(t)
	mock.ExpectQuery("FROM users WHERE username").
		WithArgs("ram").
		WillReturnRows(userRow(hashFor(t, "correct"), models.RoleBuyer, true, true))

	_, _, err := svc.Login(context.Background(), "ram", "wrong", "127.0.0.1")
	if !errors.Is(err, utils.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginAgentWithoutApplication(t *testing.T) {
	svc, mock := newAuthService(t)
	hash := hashFor(t, "secret123")
	mock.ExpectQuery("FROM users WHERE username").
		WithArgs("ram").
		WillReturnRows(userRow(hash, models.RoleAgent, false, false))
	mock.ExpectQuery("FROM agent_applications WHERE applicant_id").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(appCols))

	_, _, err := svc.Login(context.Background(), "ram", "secret123", "127.0.0.1")
	if !errors.Is(err, utils.ErrApplicationMissing) {
		t.Fatalf("expected ErrApplicationMissing, got %v", err)
	}
}

func TestLoginAgentGateByStatus(t *testing.T) {
	cases := []struct {
		status models.ApplicationStatus
		want   error
	}{
		{models.ApplicationPending, utils.ErrApplicationPending},
		{models.ApplicationUnderReview, utils.ErrApplicationPending},
		{models.ApplicationNeedsInfo, utils.ErrApplicationNeedsInfo},
		{models.ApplicationRejected, utils.ErrApplicationRejected},
	}

	for _, tc := range cases {
		svc, mock := newAuthService(t)
		hash := hashFor(t, "secret123")
		mock.ExpectQuery("FROM users WHERE username").
			WithArgs("ram").
			WillReturnRows(userRow(hash, models.RoleAgent, false, false))
		mock.ExpectQuery("FROM agent_applications WHERE applicant_id").
			WithArgs(1).
			WillReturnRows(appRow(tc.status))

		_, _, err := svc.Login(context.Background(), "ram", "secret123", "127.0.0.1")
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %s: expected %v, got %v", tc.status, tc.want, err)
		}
	}
}

func TestLoginAgentApprovedButLocked(t *testing.T) {
	// Approved application with an account still locked (for example, banned
	// after approval) must not authenticate.
	svc, mock := newAuthService(t)
	hash := hashFor(t, "secret123")
	mock.ExpectQuery("FROM users WHERE username").
		WithArgs("ram").
		WillReturnRows(userRow(hash, models.RoleAgent, false, true))
	mock.ExpectQuery("FROM agent_applications WHERE applicant_id").
		WithArgs(1).
		WillReturnRows(appRow(models.ApplicationApproved))

	_, _, err := svc.Login(context.Background(), "ram", "secret123", "127.0.0.1")
	if !errors.Is(err, utils.ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestLoginApprovedAgent(t *testing.T) {
	utils.SetJWTSecret("test-secret")
	svc, mock := newAuthService(t)
	hash := hashFor(t, "secret123")
	mock.ExpectQuery("FROM users WHERE username").
		WithArgs("ram").
		WillReturnRows(userRow(hash, models.RoleAgent, true, true))
	mock.ExpectQuery("FROM agent_applications WHERE applicant_id").
		WithArgs(1).
		WillReturnRows(appRow(models.ApplicationApproved))
	mock.ExpectExec("UPDATE users SET").
		WithArgs(1, "127.0.0.1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	token, user, err := svc.Login(context.Background(), "ram", "secret123", "127.0.0.1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}
	if user.Role != models.RoleAgent {
		t.Fatalf("unexpected role %s", user.Role)
	}
}

func TestLoginInactiveBuyer(t *testing.T) {
	svc, mock := newAuthService(t)
	hash := hashFor(t, "secret123")
	mock.ExpectQuery("FROM users WHERE username").
		WithArgs("ram").
		WillReturnRows(userRow(hash, models.RoleBuyer, false, true))

	_, _, err := svc.Login(context.Background(), "ram", "secret123", "127.0.0.1")
	if !errors.Is(err, utils.ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestRegisterRejectsAdminRoles(t *testing.T) {
	svc, _ := newAuthService(t)

	for _, role := range []string{"admin", "super_admin", "bogus"} {
		_, err := svc.Register(&RegisterRequest{
			Username: "eve", Email: "eve@example.com", Password: "secret123", Role: role,
		})
		if !errors.Is(err, utils.ErrInvalidRole) {
			t.Fatalf("role %s: expected ErrInvalidRole, got %v", role, err)
		}
	}
}

func TestRegisterAgentStartsLocked(t *testing.T) {
	svc, mock := newAuthService(t)

	mock.ExpectQuery("FROM users WHERE username").
		WithArgs("ram").
		WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("ram", "ram@example.com", sqlmock.AnyArg(), nil, "agent",
			false, false, nil, nil, nil, nil, false, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(1, time.Now(), time.Now()))

	user, err := svc.Register(&RegisterRequest{
		Username: "ram", Email: "ram@example.com", Password: "secret123", Role: "agent",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.IsActive || user.IsVerified {
		t.Fatalf("agent account should start locked: active=%v verified=%v", user.IsActive, user.IsVerified)
	}
}

func TestRegisterBuyerActivatedImmediately(t *testing.T) {
	svc, mock := newAuthService(t)

	mock.ExpectQuery("FROM users WHERE username").
		WithArgs("sita").
		WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("sita", "sita@example.com", sqlmock.AnyArg(), nil, "buyer",
			true, true, sqlmock.AnyArg(), nil, nil, nil, false, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(2, time.Now(), time.Now()))

	user, err := svc.Register(&RegisterRequest{
		Username: "sita", Email: "sita@example.com", Password: "secret123", Role: "buyer",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !user.IsActive || !user.IsVerified || user.VerificationDate == nil {
		t.Fatalf("buyer account should be active and verified on creation")
	}
}
