package progression

import (
	"sort"

	"github.com/yungbote/coursecraft-backend/internal/domain/gamification"
)

type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	UserID       string `json:"user_id"`
	TotalXP      int64  `json:"total_xp"`
	CurrentLevel int    `json:"current_level"`
}

// RankLedgers orders ledgers by TotalXP descending, keeping creation order (then id) for ties,
// and assigns 1-based ranks starting at offset+1.
func RankLedgers(ledgers []*gamification.XPLedger, offset int) []LeaderboardEntry {
	sorted := make([]*gamification.XPLedger, 0, len(ledgers))
	for _, l := range ledgers {
		if l != nil {
			sorted = append(sorted, l)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.TotalXP != b.TotalXP {
			return a.TotalXP > b.TotalXP
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	out := make([]LeaderboardEntry, len(sorted))
	for i, l := range sorted {
		out[i] = LeaderboardEntry{
			Rank:         offset + i + 1,
			UserID:       l.UserID,
			TotalXP:      l.TotalXP,
			CurrentLevel: l.CurrentLevel,
		}
	}
	return out
}
