package service

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/gharsewa/estate_api/internal/models"
	"github.com/gharsewa/estate_api/internal/repository"
)

func newActivityService(t *testing.T) (*ActivityService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewActivityService(repository.NewActivityLogRepository(sqlx.NewDb(db, "sqlmock"))), mock
}

func TestRecordDerivesHighRisk(t *testing.T) {
	svc, mock := newActivityService(t)

	// Caller passes HighRisk=false; ban is flagged anyway.
	mock.ExpectQuery("INSERT INTO admin_activity_logs").
		WithArgs(9, models.ActionBan, "Banned account #42", nil, nil,
			"203.0.113.9", sqlmock.AnyArg(), sqlmock.AnyArg(), true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "timestamp"}).AddRow(1, time.Now()))

	entry, err := svc.Record(&RecordParams{
		ActorID:     9,
		ActionType:  models.ActionBan,
		Description: "Banned account #42",
		IPAddress:   "203.0.113.9",
		HighRisk:    false,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !entry.IsHighRisk {
		t.Fatalf("ban entry not flagged high risk")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordKeepsLowRiskUnflagged(t *testing.T) {
	svc, mock := newActivityService(t)

	mock.ExpectQuery("INSERT INTO admin_activity_logs").
		WithArgs(9, models.ActionApprove, "Approved agent application #7", nil, nil,
			"203.0.113.9", sqlmock.AnyArg(), sqlmock.AnyArg(), false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "timestamp"}).AddRow(2, time.Now()))

	entry, err := svc.Record(&RecordParams{
		ActorID:     9,
		ActionType:  models.ActionApprove,
		Description: "Approved agent application #7",
		IPAddress:   "203.0.113.9",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if entry.IsHighRisk {
		t.Fatalf("approve entry flagged high risk")
	}
}

func TestRecordRejectsUnknownActionType(t *testing.T) {
	svc, _ := newActivityService(t)

	if _, err := svc.Record(&RecordParams{
		ActorID:     9,
		ActionType:  models.ActionType("made_up"),
		Description: "x",
	}); err == nil {
		t.Fatalf("unknown action type accepted")
	}
}

func TestExportCSVIncludesHeaderAndAudit(t *testing.T) {
	svc, mock := newActivityService(t)

	ts := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	cols := []string{
		"id", "admin_id", "action_type", "description", "target_model", "target_id",
		"ip_address", "user_agent", "device_info", "timestamp", "is_high_risk",
	}
	mock.ExpectQuery("FROM admin_activity_logs ORDER BY timestamp").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			1, 9, "ban", "Banned account #42", nil, nil,
			"203.0.113.9", nil, []byte(`{}`), ts, true,
		))
	// The export itself is audited.
	mock.ExpectQuery("INSERT INTO admin_activity_logs").
		WillReturnRows(sqlmock.NewRows([]string{"id", "timestamp"}).AddRow(2, time.Now()))

	data, err := svc.ExportCSV(&repository.LogFilter{}, 9, "203.0.113.9", "test-agent")
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	out := string(data)
	if len(out) == 0 {
		t.Fatalf("empty export")
	}
	if out[:2] != "id" {
		t.Fatalf("missing header row: %q", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
