package gamification

import "errors"

var (
	ErrLedgerNotFound     = errors.New("xp ledger not found")
	ErrAchievementExists  = errors.New("achievement already earned")
	ErrInvalidAchievement = errors.New("invalid achievement")
)
