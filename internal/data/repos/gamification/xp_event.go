package gamification

import (
	"strings"

	"gorm.io/gorm"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/platform/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type XPEventRepo interface {
	Create(dbc dbctx.Context, rows []*types.XPEvent) ([]*types.XPEvent, error)
	ListByUserID(dbc dbctx.Context, userID string, limit int) ([]*types.XPEvent, error)
}

type xpEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewXPEventRepo(db *gorm.DB, baseLog *logger.Logger) XPEventRepo {
	return &xpEventRepo{db: db, log: baseLog.With("repo", "XPEventRepo")}
}

func (r *xpEventRepo) Create(dbc dbctx.Context, rows []*types.XPEvent) ([]*types.XPEvent, error) {
	if len(rows) == 0 {
		return []*types.XPEvent{}, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByUserID returns the newest events first.
func (r *xpEventRepo) ListByUserID(dbc dbctx.Context, userID string, limit int) ([]*types.XPEvent, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return []*types.XPEvent{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.XPEvent
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
