package gamification

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/platform/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type XPLedgerRepo interface {
	GetByUserID(dbc dbctx.Context, userID string) (*types.XPLedger, error)
	GetOrCreate(dbc dbctx.Context, userID string) (*types.XPLedger, error)
	LockByUserID(dbc dbctx.Context, userID string) (*types.XPLedger, error)
	ListTop(dbc dbctx.Context, limit, offset int) ([]*types.XPLedger, error)
	RankOf(dbc dbctx.Context, userID string) (int, error)
	ListUserIDsAfter(dbc dbctx.Context, afterUserID string, limit int) ([]string, error)
}

type xpLedgerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewXPLedgerRepo(db *gorm.DB, baseLog *logger.Logger) XPLedgerRepo {
	repoLog := baseLog.With("repo", "XPLedgerRepo")
	return &xpLedgerRepo{db: db, log: repoLog}
}

func preloadAchievements(db *gorm.DB) *gorm.DB {
	return db.Order("earned_at ASC").Order("id ASC")
}

// GetByUserID returns (nil, nil) when the user has no ledger yet.
func (r *xpLedgerRepo) GetByUserID(dbc dbctx.Context, userID string) (*types.XPLedger, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("missing user_id")
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var rows []*types.XPLedger
	if err := t.WithContext(dbc.Ctx).
		Preload("Achievements", preloadAchievements).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// GetOrCreate inserts an empty ledger when none exists. Concurrent creators race on the unique
// user_id index; the loser's insert is a no-op and both read the same row.
func (r *xpLedgerRepo) GetOrCreate(dbc dbctx.Context, userID string) (*types.XPLedger, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("missing user_id")
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	fresh := &types.XPLedger{UserID: userID, CurrentLevel: 1, XPToNextLevel: 100}
	if err := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(fresh).Error; err != nil {
		return nil, err
	}
	out, err := r.GetByUserID(dbctx.Context{Ctx: dbc.Ctx, Tx: t}, userID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return out, nil
}

func (r *xpLedgerRepo) LockByUserID(dbc dbctx.Context, userID string) (*types.XPLedger, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("missing user_id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByUserID requires dbc.Tx")
	}
	var out types.XPLedger
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Take(&out).Error; err != nil {
		return nil, err
	}
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Scopes(preloadAchievements).
		Where("ledger_id = ?", out.ID).
		Find(&out.Achievements).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTop returns ledgers in leaderboard order: total_xp desc, then creation order, then id.
func (r *xpLedgerRepo) ListTop(dbc dbctx.Context, limit, offset int) ([]*types.XPLedger, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.XPLedger
	if err := t.WithContext(dbc.Ctx).
		Model(&types.XPLedger{}).
		Order("total_xp DESC").
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// RankOf is the 1-based leaderboard position of userID, or gorm.ErrRecordNotFound.
func (r *xpLedgerRepo) RankOf(dbc dbctx.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, fmt.Errorf("missing user_id")
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var self types.XPLedger
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Take(&self).Error; err != nil {
		return 0, err
	}
	var ahead int64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.XPLedger{}).
		Where(
			"total_xp > ? OR (total_xp = ? AND created_at < ?) OR (total_xp = ? AND created_at = ? AND id < ?)",
			self.TotalXP,
			self.TotalXP, self.CreatedAt,
			self.TotalXP, self.CreatedAt, self.ID,
		).
		Count(&ahead).Error; err != nil {
		return 0, err
	}
	return int(ahead) + 1, nil
}

// ListUserIDsAfter pages through every ledger owner in user_id order.
func (r *xpLedgerRepo) ListUserIDsAfter(dbc dbctx.Context, afterUserID string, limit int) ([]string, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []string
	if err := t.WithContext(dbc.Ctx).
		Model(&types.XPLedger{}).
		Where("user_id > ?", afterUserID).
		Order("user_id ASC").
		Limit(limit).
		Pluck("user_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
