package testutil

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/household"
	"github.com/trezcool/ecolage/core/ledger"
	logsvc "github.com/trezcool/ecolage/services/logger"
	"github.com/trezcool/ecolage/storage/database"
)

// NewConfig returns the environment's config, forced into test mode with in-memory storage.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true
	conf.Storage = core.StorageMemory
	conf.Locale = "fr"
	conf.Currency = "EUR"
	conf.Location = time.UTC
	return conf
}

// NewLogger returns a silent logger.
func NewLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)
	return logger
}

// SpyLogger records messages by level.
type SpyLogger struct {
	mu   sync.Mutex
	logs map[string][]string
}

var _ core.Logger = (*SpyLogger)(nil)

func NewSpyLogger() *SpyLogger {
	return &SpyLogger{logs: make(map[string][]string)}
}

func (l *SpyLogger) record(level, msg string) {
	l.mu.Lock()
	l.logs[level] = append(l.logs[level], msg)
	l.mu.Unlock()
}

// Messages returns the messages logged at `level` (debug, info, warn, error, fatal), oldest first.
func (l *SpyLogger) Messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.logs[level]...)
}

func (l *SpyLogger) Debug(msg string, _ ...interface{}) { l.record("debug", msg) }
func (l *SpyLogger) Info(msg string, _ ...interface{})  { l.record("info", msg) }
func (l *SpyLogger) Warn(msg string, _ ...interface{})  { l.record("warn", msg) }
func (l *SpyLogger) Error(msg string, _ ...interface{}) { l.record("error", msg) }
func (l *SpyLogger) Fatal(msg string, _ ...interface{}) { l.record("fatal", msg) }

// PrepareDB opens a migrated SQLite database private to the test.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate", filepath.Join(t.TempDir(), "test.db"))
	db, err := sqlx.Open(database.DialectSQLite, dsn)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db.DB, database.DialectSQLite); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateHousehold(t *testing.T, repo household.Repository, firstName, lastName, phone, email string, createdAt ...time.Time) household.Household {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	h, err := repo.CreateHousehold(context.Background(), household.Household{
		ID:        core.NewID(),
		FirstName: firstName,
		LastName:  lastName,
		Phone:     phone,
		Email:     email,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateHousehold() failed: %v", err)
	}
	return h
}

func CreateStudent(t *testing.T, repo household.Repository, householdID, firstName, lastName, class string, createdAt ...time.Time) household.Student {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	s, err := repo.CreateStudent(context.Background(), household.Student{
		ID:          core.NewID(),
		FirstName:   firstName,
		LastName:    lastName,
		Class:       class,
		HouseholdID: householdID,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

// Inst builds an installment of `amount` (e.g. "150.00") due on `due` (YYYY-MM-DD).
func Inst(due, amount string) ledger.NewInstallment {
	return ledger.NewInstallment{DueDate: core.MustParseDate(due), Amount: core.MustParseMoney(amount)}
}

// CreateFeePlan stores a fee plan with pending installments, bypassing the ledger service.
func CreateFeePlan(t *testing.T, repo ledger.Repository, studentID string, insts []ledger.NewInstallment, createdAt ...time.Time) ledger.FeePlan {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	fp := ledger.FeePlan{
		ID:         core.NewID(),
		StudentID:  studentID,
		SchoolYear: "2025-2026",
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	}
	for _, ni := range insts {
		fp.TotalAmount += ni.Amount
		fp.Installments = append(fp.Installments, ledger.Installment{
			ID:      core.NewID(),
			DueDate: ni.DueDate,
			Amount:  ni.Amount,
			Status:  ledger.StatusPending,
		})
	}
	fp, err := repo.CreateFeePlan(context.Background(), fp)
	if err != nil {
		t.Fatalf("CreateFeePlan() failed: %v", err)
	}
	return fp
}

// PayInstallment marks an installment as paid at `paidAt`.
func PayInstallment(t *testing.T, repo ledger.Repository, fp ledger.FeePlan, index int, paidAt time.Time) ledger.FeePlan {
	t.Helper()

	fp, err := repo.MarkInstallmentPaid(context.Background(), fp.ID, fp.Installments[index].ID, paidAt)
	if err != nil {
		t.Fatalf("PayInstallment() failed: %v", err)
	}
	return fp
}

// MockNow sets core.NowFunc to return `now` until the test ends.
func MockNow(t *testing.T, now time.Time) {
	t.Helper()

	prev := core.NowFunc
	core.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { core.NowFunc = prev })
}
