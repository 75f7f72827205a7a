package gamification

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursecraft-backend/internal/platform/dbctx"
)

func TestXPLedgerRepoGetOrCreateIsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewXPLedgerRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	userID := testutil.UserID("ledger")

	if got, err := repo.GetByUserID(dbc, userID); err != nil || got != nil {
		t.Fatalf("GetByUserID before create: got=%v err=%v", got, err)
	}
	first, err := repo.GetOrCreate(dbc, userID)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if first.TotalXP != 0 || first.CurrentLevel != 1 || first.XPToNextLevel != 100 {
		t.Fatalf("unexpected fresh ledger: %+v", first)
	}
	second, err := repo.GetOrCreate(dbc, userID)
	if err != nil {
		t.Fatalf("GetOrCreate again: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same ledger, got %s and %s", first.ID, second.ID)
	}
	locked, err := repo.LockByUserID(dbc, userID)
	if err != nil || locked.ID != first.ID {
		t.Fatalf("LockByUserID: got=%v err=%v", locked, err)
	}
	if _, err := repo.LockByUserID(dbctx.Context{Ctx: ctx}, userID); err == nil {
		t.Fatalf("LockByUserID without tx should fail")
	}
}

func TestXPLedgerRepoLeaderboardOrderAndRank(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewXPLedgerRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := testutil.SeedLedger(t, ctx, tx, testutil.UserID("a"), 300, base)
	b := testutil.SeedLedger(t, ctx, tx, testutil.UserID("b"), 100, base.Add(time.Minute))
	c := testutil.SeedLedger(t, ctx, tx, testutil.UserID("c"), 500, base.Add(2*time.Minute))
	seeded := map[string]bool{a.UserID: true, b.UserID: true, c.UserID: true}

	rows, err := repo.ListTop(dbc, 100, 0)
	if err != nil {
		t.Fatalf("ListTop: %v", err)
	}
	var order []int64
	for _, r := range rows {
		if seeded[r.UserID] {
			order = append(order, r.TotalXP)
		}
	}
	if len(order) != 3 || order[0] != 500 || order[1] != 300 || order[2] != 100 {
		t.Fatalf("unexpected order: %v", order)
	}

	rankC, err := repo.RankOf(dbc, c.UserID)
	if err != nil {
		t.Fatalf("RankOf(c): %v", err)
	}
	rankB, err := repo.RankOf(dbc, b.UserID)
	if err != nil {
		t.Fatalf("RankOf(b): %v", err)
	}
	if rankB-rankC != 2 {
		t.Fatalf("expected b two places behind c: c=%d b=%d", rankC, rankB)
	}
	if tx.Dialector.Name() == "sqlite" && rankB != 3 {
		t.Fatalf("expected rank 3 for the 100 xp user, got %d", rankB)
	}

	if _, err := repo.RankOf(dbc, testutil.UserID("missing")); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("RankOf missing: expected not found, got %v", err)
	}
}

func TestXPLedgerRepoRankTiesUseCreationOrder(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewXPLedgerRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	late := testutil.SeedLedger(t, ctx, tx, testutil.UserID("late"), 7777, base.Add(time.Hour))
	early := testutil.SeedLedger(t, ctx, tx, testutil.UserID("early"), 7777, base)

	rEarly, err := repo.RankOf(dbc, early.UserID)
	if err != nil {
		t.Fatalf("RankOf early: %v", err)
	}
	rLate, err := repo.RankOf(dbc, late.UserID)
	if err != nil {
		t.Fatalf("RankOf late: %v", err)
	}
	if rLate != rEarly+1 {
		t.Fatalf("tie break: early=%d late=%d", rEarly, rLate)
	}
}

func TestXPLedgerRepoListUserIDsAfter(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewXPLedgerRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	now := time.Now().UTC()
	testutil.SeedLedger(t, ctx, tx, "zz_page_1", 1, now)
	testutil.SeedLedger(t, ctx, tx, "zz_page_2", 2, now)
	testutil.SeedLedger(t, ctx, tx, "zz_page_3", 3, now)

	ids, err := repo.ListUserIDsAfter(dbc, "zz_page_1", 10)
	if err != nil {
		t.Fatalf("ListUserIDsAfter: %v", err)
	}
	if len(ids) < 2 || ids[0] != "zz_page_2" || ids[1] != "zz_page_3" {
		t.Fatalf("unexpected page: %v", ids)
	}
}
