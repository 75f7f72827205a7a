package progression

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/coursecraft-backend/internal/domain/gamification"
)

func TestRankLedgersOrdersByXP(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ledgers := []*gamification.XPLedger{
		{ID: uuid.New(), UserID: "a", TotalXP: 300, CreatedAt: base},
		{ID: uuid.New(), UserID: "b", TotalXP: 100, CreatedAt: base.Add(time.Minute)},
		{ID: uuid.New(), UserID: "c", TotalXP: 500, CreatedAt: base.Add(2 * time.Minute)},
	}
	got := RankLedgers(ledgers, 0)
	want := []struct {
		user string
		xp   int64
	}{{"c", 500}, {"a", 300}, {"b", 100}}
	for i, w := range want {
		if got[i].UserID != w.user || got[i].TotalXP != w.xp || got[i].Rank != i+1 {
			t.Fatalf("position %d: got=%+v want=%+v", i, got[i], w)
		}
	}
}

func TestRankLedgersStableTies(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ledgers := []*gamification.XPLedger{
		{ID: uuid.New(), UserID: "late", TotalXP: 200, CreatedAt: base.Add(time.Hour)},
		{ID: uuid.New(), UserID: "early", TotalXP: 200, CreatedAt: base},
		nil,
	}
	got := RankLedgers(ledgers, 10)
	if len(got) != 2 || got[0].UserID != "early" || got[0].Rank != 11 || got[1].Rank != 12 {
		t.Fatalf("unexpected tie order: %+v", got)
	}
}
