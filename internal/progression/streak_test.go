package progression

import (
	"testing"
	"time"

	"github.com/yungbote/coursecraft-backend/internal/domain/gamification"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 15, 4, 5, 0, time.UTC)
}

func TestUpdateStreakTransitions(t *testing.T) {
	l := &gamification.XPLedger{}

	u := UpdateStreak(l, day(2026, 3, 1))
	if !u.Continued || u.WasReset || u.Current != 1 || u.Longest != 1 {
		t.Fatalf("first activity: %+v", u)
	}

	u = UpdateStreak(l, day(2026, 3, 2))
	if !u.Continued || u.WasReset || u.Current != 2 || u.Longest != 2 {
		t.Fatalf("next day: %+v", u)
	}

	u = UpdateStreak(l, day(2026, 3, 2).Add(3*time.Hour))
	if u.Continued || u.Current != 2 {
		t.Fatalf("same day should be a no-op: %+v", u)
	}

	u = UpdateStreak(l, day(2026, 3, 6))
	if !u.Continued || !u.WasReset || u.Current != 1 || u.Longest != 2 {
		t.Fatalf("gap should reset: %+v", u)
	}
	if l.LastActivityDate == nil || !l.LastActivityDate.Equal(time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("last activity not updated: %v", l.LastActivityDate)
	}
	if l.StreakCurrent > l.StreakLongest {
		t.Fatalf("current must not exceed longest: %d > %d", l.StreakCurrent, l.StreakLongest)
	}
}

func TestUpdateStreakSameDayTwice(t *testing.T) {
	l := &gamification.XPLedger{}
	first := UpdateStreak(l, day(2026, 5, 10))
	second := UpdateStreak(l, day(2026, 5, 10))
	if !first.Continued {
		t.Fatalf("first call should count: %+v", first)
	}
	if second.Continued || second.Current != first.Current {
		t.Fatalf("second call on same day: %+v (first %+v)", second, first)
	}
}

func TestUpdateStreakStoredDateInLocalZone(t *testing.T) {
	newYork := time.FixedZone("EST", -5*3600)
	l := &gamification.XPLedger{}
	UpdateStreak(l, day(2026, 3, 10))

	// A reload can hand back the stored UTC midnight in the server zone (the 9th, 19:00 EST).
	reloaded := l.LastActivityDate.In(newYork)
	l.LastActivityDate = &reloaded

	u := UpdateStreak(l, day(2026, 3, 11))
	if !u.Continued || u.WasReset || u.Current != 2 || u.Longest != 2 {
		t.Fatalf("consecutive day after reload: %+v", u)
	}

	reloaded = l.LastActivityDate.In(newYork)
	l.LastActivityDate = &reloaded
	if u := UpdateStreak(l, day(2026, 3, 11)); u.Continued || u.Current != 2 {
		t.Fatalf("same day after reload should be a no-op: %+v", u)
	}
}

func TestUpdateStreakUsesCallerLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	l := &gamification.XPLedger{}
	// 23:30 UTC on the 1st is already the 2nd in Tokyo.
	UpdateStreak(l, time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC).In(tokyo))
	u := UpdateStreak(l, time.Date(2026, 1, 1, 23, 30, 0, 0, time.UTC).In(tokyo))
	if !u.Continued || u.Current != 2 {
		t.Fatalf("expected next civil day in caller location: %+v", u)
	}
}

func TestStreakBonus(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		name string
		in   StreakUpdate
		want int64
	}{
		{"first day", StreakUpdate{Continued: true, Current: 1}, 0},
		{"same day", StreakUpdate{Continued: false, Current: 4}, 0},
		{"reset", StreakUpdate{Continued: true, WasReset: true, Current: 1}, 0},
		{"day two", StreakUpdate{Continued: true, Current: 2}, 10},
		{"day three", StreakUpdate{Continued: true, Current: 3}, 15},
		{"capped", StreakUpdate{Continued: true, Current: 40}, cfg.StreakBonusCap},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StreakBonus(cfg, tc.in); got != tc.want {
				t.Fatalf("got=%d want=%d", got, tc.want)
			}
		})
	}
}
