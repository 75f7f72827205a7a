// Package events carries progression notifications to whatever transports are configured.
package events

import (
	"context"
	"time"
)

type Type string

const (
	XPAwarded         Type = "xp.awarded"
	LevelUp           Type = "level.up"
	AchievementEarned Type = "achievement.earned"
	ChapterCompleted  Type = "chapter.completed"
	StreakUpdated     Type = "streak.updated"
)

type Event struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	UserID     string         `json:"userId"`
	OccurredAt time.Time      `json:"occurredAt"`
	Data       map[string]any `json:"data,omitempty"`
}

// Publisher delivers events after the originating transaction committed.
type Publisher interface {
	Publish(ctx context.Context, evs ...Event) error
	Close() error
}
