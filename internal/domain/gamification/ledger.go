package gamification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// XPLedger is the per-user progression record. CurrentLevel and XPToNextLevel are derived from
// TotalXP and rewritten on every XP change.
type XPLedger struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string    `gorm:"column:user_id;not null;uniqueIndex" json:"user_id"`

	TotalXP       int64 `gorm:"column:total_xp;not null;default:0;index" json:"total_xp"`
	CurrentLevel  int   `gorm:"column:current_level;not null;default:1" json:"current_level"`
	XPToNextLevel int64 `gorm:"column:xp_to_next_level;not null;default:100" json:"xp_to_next_level"`

	StreakCurrent    int        `gorm:"column:streak_current;not null;default:0" json:"streak_current"`
	StreakLongest    int        `gorm:"column:streak_longest;not null;default:0" json:"streak_longest"`
	LastActivityDate *time.Time `gorm:"column:last_activity_date" json:"last_activity_date,omitempty"`

	Achievements []Achievement `gorm:"foreignKey:LedgerID;references:ID" json:"achievements"`

	Version   int       `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (XPLedger) TableName() string { return "xp_ledger" }

func (l *XPLedger) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// HasAchievement reports whether name was already earned. Names compare exactly.
func (l *XPLedger) HasAchievement(name string) bool {
	for _, a := range l.Achievements {
		if a.Name == name {
			return true
		}
	}
	return false
}
