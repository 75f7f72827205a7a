package gamification

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/platform/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type AchievementRepo interface {
	Create(dbc dbctx.Context, row *types.Achievement) (*types.Achievement, error)
	ListByLedgerID(dbc dbctx.Context, ledgerID uuid.UUID) ([]*types.Achievement, error)
}

type achievementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAchievementRepo(db *gorm.DB, baseLog *logger.Logger) AchievementRepo {
	return &achievementRepo{db: db, log: baseLog.With("repo", "AchievementRepo")}
}

func (r *achievementRepo) Create(dbc dbctx.Context, row *types.Achievement) (*types.Achievement, error) {
	if row == nil || row.LedgerID == uuid.Nil {
		return nil, fmt.Errorf("missing ledger_id")
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *achievementRepo) ListByLedgerID(dbc dbctx.Context, ledgerID uuid.UUID) ([]*types.Achievement, error) {
	if ledgerID == uuid.Nil {
		return []*types.Achievement{}, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Achievement
	if err := t.WithContext(dbc.Ctx).
		Where("ledger_id = ?", ledgerID).
		Order("earned_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
