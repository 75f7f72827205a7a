package progression

import (
	"time"

	"github.com/yungbote/coursecraft-backend/internal/domain/gamification"
)

// StreakUpdate is the outcome of recording one day of activity.
//
// Continued keeps the legacy meaning: it is false only for a repeated same-day call. A streak that
// broke and restarted at 1 reports Continued=true together with WasReset=true.
type StreakUpdate struct {
	Continued bool `json:"continued"`
	WasReset  bool `json:"was_reset"`
	Current   int  `json:"current"`
	Longest   int  `json:"longest"`
}

// CivilDay maps t to midnight UTC of its calendar date in t's own location.
func CivilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// storedDay reads a persisted activity date. It is written as UTC midnight, but drivers may scan
// timestamptz into the server's local zone, so the date is taken in UTC.
func storedDay(t time.Time) time.Time {
	return CivilDay(t.UTC())
}

func daysBetween(stored, today time.Time) int {
	return int(CivilDay(today).Sub(storedDay(stored)).Hours() / 24)
}

// UpdateStreak records activity on today's date. The caller picks the timezone by passing
// today in the desired location.
func UpdateStreak(l *gamification.XPLedger, today time.Time) StreakUpdate {
	day := CivilDay(today)
	out := StreakUpdate{}

	switch {
	case l.LastActivityDate == nil:
		l.StreakCurrent = 1
		out.Continued = true
	default:
		gap := daysBetween(*l.LastActivityDate, day)
		switch {
		case gap <= 0:
			// Same day, or a clock that moved backwards: nothing to record.
			if l.StreakLongest < l.StreakCurrent {
				l.StreakLongest = l.StreakCurrent
			}
			out.Current = l.StreakCurrent
			out.Longest = l.StreakLongest
			return out
		case gap == 1:
			l.StreakCurrent++
			out.Continued = true
		default:
			l.StreakCurrent = 1
			out.Continued = true
			out.WasReset = true
		}
	}

	if l.StreakCurrent > l.StreakLongest {
		l.StreakLongest = l.StreakCurrent
	}
	l.LastActivityDate = &day
	out.Current = l.StreakCurrent
	out.Longest = l.StreakLongest
	return out
}

// StreakBonus is the XP granted for an extended streak, capped by policy.
func StreakBonus(cfg Config, u StreakUpdate) int64 {
	if !u.Continued || u.WasReset || u.Current <= 1 {
		return 0
	}
	bonus := int64(u.Current) * cfg.StreakBonusPerDay
	if bonus > cfg.StreakBonusCap {
		bonus = cfg.StreakBonusCap
	}
	return bonus
}
