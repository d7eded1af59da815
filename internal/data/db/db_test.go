package db

import (
	"path/filepath"
	"testing"

	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
)

func TestDSNEscapesPassword(t *testing.T) {
	cfg := Config{
		PostgresHost:     "db",
		PostgresPort:     "5432",
		PostgresUser:     "app",
		PostgresPassword: "p@ss/word",
		PostgresName:     "ethixlearn",
	}
	want := "postgres://app:p%40ss%2Fword@db:5432/ethixlearn?sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Fatalf("dsn: want=%q got=%q", want, got)
	}
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	log := logger.Nop()
	db, err := Open(Config{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "test.db")}, log)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })

	// Twice, to show it is idempotent.
	for i := 0; i < 2; i++ {
		if err := Migrate(db, log); err != nil {
			t.Fatalf("Migrate #%d: %v", i+1, err)
		}
	}
	for _, m := range types.Models() {
		if !db.Migrator().HasTable(m) {
			t.Fatalf("missing table for %T", m)
		}
	}
	if !db.Migrator().HasIndex("xapi_statement", "idx_xapi_statement_enrollment_time") {
		t.Fatalf("missing statement read index")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "mysql"}, logger.Nop()); err == nil {
		t.Fatalf("expected an error for an unknown driver")
	}
}
