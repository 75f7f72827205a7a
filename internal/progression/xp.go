package progression

import (
	"fmt"
	"math"
	"strings"

	"github.com/yungbote/coursecraft-backend/internal/domain/gamification"
)

// XPResult describes a single ledger XP mutation.
type XPResult struct {
	Amount        int64  `json:"amount"`
	Source        string `json:"source"`
	SourceID      string `json:"source_id,omitempty"`
	LeveledUp     bool   `json:"leveled_up"`
	PreviousLevel int    `json:"previous_level"`
	NewLevel      int    `json:"new_level"`
	TotalXP       int64  `json:"total_xp"`
	XPToNextLevel int64  `json:"xp_to_next_level"`
}

// Recompute rewrites the derived level fields from TotalXP.
func Recompute(l *gamification.XPLedger) {
	l.CurrentLevel, l.XPToNextLevel = LevelForXP(l.TotalXP)
}

// AddXP adds a positive amount to the ledger and recomputes its level. source is an audit tag and
// does not affect the arithmetic. The ledger is untouched when amount <= 0 or when the total would
// overflow.
func AddXP(l *gamification.XPLedger, amount int64, source, sourceID string) (XPResult, error) {
	if amount <= 0 {
		return XPResult{}, fmt.Errorf("add %d xp: %w", amount, ErrInvalidAmount)
	}
	if l.TotalXP > 0 && amount > math.MaxInt64-l.TotalXP {
		return XPResult{}, fmt.Errorf("add %d xp to %d overflows: %w", amount, l.TotalXP, ErrInvalidAmount)
	}
	source = strings.TrimSpace(source)
	if source == "" {
		source = gamification.SourceManual
	}
	before, _ := LevelForXP(l.TotalXP)
	l.TotalXP += amount
	Recompute(l)
	return XPResult{
		Amount:        amount,
		Source:        source,
		SourceID:      strings.TrimSpace(sourceID),
		LeveledUp:     l.CurrentLevel > before,
		PreviousLevel: before,
		NewLevel:      l.CurrentLevel,
		TotalXP:       l.TotalXP,
		XPToNextLevel: l.XPToNextLevel,
	}, nil
}

// SetXP is the administrative correction path; it may lower TotalXP.
func SetXP(l *gamification.XPLedger, total int64) (XPResult, error) {
	if total < 0 {
		return XPResult{}, fmt.Errorf("set xp to %d: %w", total, ErrInvalidAmount)
	}
	before := l.CurrentLevel
	delta := total - l.TotalXP
	l.TotalXP = total
	Recompute(l)
	return XPResult{
		Amount:        delta,
		Source:        gamification.SourceAdminCorrection,
		LeveledUp:     l.CurrentLevel > before,
		PreviousLevel: before,
		NewLevel:      l.CurrentLevel,
		TotalXP:       l.TotalXP,
		XPToNextLevel: l.XPToNextLevel,
	}, nil
}
