package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(domain.Models()...)
}

// EnsureIndexes adds the postgres-only indexes that gorm tags cannot express.
func EnsureIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != DriverPostgres {
		return nil
	}
	// Leaderboard scan order.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_xp_ledger_rank
		ON xp_ledger (total_xp DESC, created_at ASC, id ASC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_xp_ledger_rank: %w", err)
	}
	// Owner course listing.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_course_owner_created
		ON course (owner_id, created_at DESC)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_course_owner_created: %w", err)
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...", "driver", s.driver)
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureIndexes(s.db); err != nil {
		s.log.Error("Index migration failed", "error", err)
		return err
	}
	return nil
}
