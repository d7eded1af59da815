package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
)

// Migrate creates or updates every table plus the indexes the read paths
// depend on. Safe to run repeatedly.
func Migrate(db *gorm.DB, log *logger.Logger) error {
	log.Info("Auto migrating tables...")
	if err := db.AutoMigrate(types.Models()...); err != nil {
		log.Error("Auto migration failed", "error", err)
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := EnsureReadIndexes(db); err != nil {
		log.Error("Index migration failed", "error", err)
		return err
	}
	return nil
}

// EnsureReadIndexes adds composite indexes gorm tags cannot express. The
// statements are valid on both Postgres and SQLite.
func EnsureReadIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{
			"idx_xapi_statement_enrollment_time",
			`CREATE INDEX IF NOT EXISTS idx_xapi_statement_enrollment_time ON xapi_statement (enrollment_id, occurred_at DESC)`,
		},
		{
			"idx_progress_snapshot_enrollment_time",
			`CREATE INDEX IF NOT EXISTS idx_progress_snapshot_enrollment_time ON progress_snapshot (enrollment_id, recorded_at)`,
		},
		{
			"idx_enrollment_user_created",
			`CREATE INDEX IF NOT EXISTS idx_enrollment_user_created ON enrollment (user_id, created_at DESC)`,
		},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
