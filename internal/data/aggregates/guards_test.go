package aggregates

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/coursecraft-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursecraft-backend/internal/domain/gamification"
	"github.com/yungbote/coursecraft-backend/internal/platform/dbctx"
)

func TestRequireVersionMatch(t *testing.T) {
	if err := RequireVersionMatch(3, 3); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireVersionMatch(2, 3); err == nil {
		t.Fatalf("expected conflict error")
	}
}

func TestRequireCASSuccess(t *testing.T) {
	if err := RequireCASSuccess(true, "ok"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireCASSuccess(false, "stale"); err == nil {
		t.Fatalf("expected conflict error")
	}
}

func TestUpdateByVersionRejectsStaleVersion(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	l := testutil.SeedLedger(t, ctx, tx, testutil.UserID("cas"), 10, time.Now())
	guard := NewCASGuard(db)
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	table := gamification.XPLedger{}.TableName()

	ok, err := guard.UpdateByVersion(dbc, table, l.ID, 0, map[string]any{"total_xp": 20})
	if err != nil || !ok {
		t.Fatalf("first update: ok=%v err=%v", ok, err)
	}
	ok, err = guard.UpdateByVersion(dbc, table, l.ID, 0, map[string]any{"total_xp": 30})
	if err != nil || ok {
		t.Fatalf("stale update should not apply: ok=%v err=%v", ok, err)
	}
	var got gamification.XPLedger
	if err := tx.First(&got, "id = ?", l.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.TotalXP != 20 || got.Version != 1 {
		t.Fatalf("unexpected row: total=%d version=%d", got.TotalXP, got.Version)
	}
}
