package services

import (
	"github.com/yungbote/coursecraft-backend/internal/events"
	"github.com/yungbote/coursecraft-backend/internal/progression"
)

func xpEvents(userID string, res *progression.XPResult) []events.Event {
	if res == nil || res.Amount == 0 {
		return nil
	}
	out := []events.Event{{
		Type:   events.XPAwarded,
		UserID: userID,
		Data: map[string]any{
			"amount":   res.Amount,
			"source":   res.Source,
			"sourceId": res.SourceID,
			"totalXP":  res.TotalXP,
		},
	}}
	if res.LeveledUp {
		out = append(out, events.Event{
			Type:   events.LevelUp,
			UserID: userID,
			Data: map[string]any{
				"previousLevel": res.PreviousLevel,
				"newLevel":      res.NewLevel,
				"totalXP":       res.TotalXP,
			},
		})
	}
	return out
}

func streakEvent(userID string, u progression.StreakUpdate, bonus int64) []events.Event {
	if !u.Continued {
		return nil
	}
	return []events.Event{{
		Type:   events.StreakUpdated,
		UserID: userID,
		Data: map[string]any{
			"currentStreak": u.Current,
			"longestStreak": u.Longest,
			"wasReset":      u.WasReset,
			"bonusXP":       bonus,
		},
	}}
}

func (s *xpService) observe(res *progression.XPResult) {
	if res != nil {
		s.metrics.ObserveXP(res.Source, res.Amount, res.LeveledUp)
	}
}
