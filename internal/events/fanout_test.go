package events

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

func TestEmitterFansOutAndStamps(t *testing.T) {
	a, b := &Recorder{}, &Recorder{Err: errors.New("broker down")}
	em := NewEmitter(logger.Nop(), a, nil, b)

	em.Emit(context.Background(), Event{Type: XPAwarded, UserID: "u1"}, Event{Type: LevelUp, UserID: "u1"})

	for _, r := range []*Recorder{a, b} {
		got := r.Events()
		if len(got) != 2 {
			t.Fatalf("events = %d, want 2", len(got))
		}
		if got[0].ID == "" || got[0].OccurredAt.IsZero() {
			t.Fatalf("event not stamped: %+v", got[0])
		}
	}
	if a.Types()[1] != LevelUp {
		t.Fatalf("types = %v", a.Types())
	}
}

func TestEmitterSurvivesCanceledRequest(t *testing.T) {
	r := &Recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewEmitter(logger.Nop(), r).Emit(ctx, Event{Type: StreakUpdated})
	if len(r.Events()) != 1 {
		t.Fatalf("event dropped on canceled context")
	}
}

func TestNilEmitterIsNoop(t *testing.T) {
	var em *Emitter
	em.Emit(context.Background(), Event{Type: XPAwarded})
	if err := em.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
