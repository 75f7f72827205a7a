package gamification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SourceManual          = "manual"
	SourceLessonComplete  = "lesson_complete"
	SourceQuizComplete    = "quiz_complete"
	SourceStreakBonus     = "streak_bonus"
	SourceAchievement     = "achievement"
	SourceAdminCorrection = "admin_correction"
)

// XPEvent is the append-only audit row written for every accepted XP change.
type XPEvent struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	LedgerID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"ledger_id"`
	UserID      string         `gorm:"column:user_id;not null;index" json:"user_id"`
	Amount      int64          `gorm:"column:amount;not null" json:"amount"`
	Source      string         `gorm:"column:source;not null;index" json:"source"`
	SourceID    string         `gorm:"column:source_id;index" json:"source_id,omitempty"`
	LevelBefore int            `gorm:"column:level_before;not null" json:"level_before"`
	LevelAfter  int            `gorm:"column:level_after;not null" json:"level_after"`
	Metadata    datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
}

func (XPEvent) TableName() string { return "xp_event" }

func (e *XPEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
