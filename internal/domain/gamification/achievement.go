package gamification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Achievement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LedgerID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_achievement_ledger_name,priority:1" json:"ledger_id"`
	UserID      string    `gorm:"column:user_id;not null;index" json:"user_id"`
	Name        string    `gorm:"column:name;not null;uniqueIndex:idx_achievement_ledger_name,priority:2" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	XPReward    int64     `gorm:"column:xp_reward;not null;default:0" json:"xp_reward"`
	EarnedAt    time.Time `gorm:"column:earned_at;not null" json:"earned_at"`
}

func (Achievement) TableName() string { return "achievement" }

func (a *Achievement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
