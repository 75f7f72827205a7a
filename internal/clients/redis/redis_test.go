package redis

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursecraft-backend/internal/events"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	return Config{Addr: addr}
}

func TestLockerSerializesAcrossHolders(t *testing.T) {
	cfg := testConfig(t)
	rdb, err := Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })

	prefix := "test:" + uuid.NewString() + ":"
	a := NewLocker(rdb, LockerConfig{Prefix: prefix, Poll: 5 * time.Millisecond}, logger.Nop())
	b := NewLocker(rdb, LockerConfig{Prefix: prefix, Poll: 5 * time.Millisecond}, logger.Nop())

	unlock, err := a.Lock(context.Background(), "ledger:u1")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := b.Lock(ctx, "ledger:u1"); err == nil {
		t.Fatalf("second holder acquired a held key")
	}
	unlock()
	unlock2, err := b.Lock(context.Background(), "ledger:u1", "course:c1")
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	unlock2()
}

func TestEventPublisherRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	rdb, err := Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })

	channel := "test-events-" + uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	got := []events.Event{}
	recv := make(chan struct{}, 1)
	if err := Subscribe(ctx, rdb, channel, logger.Nop(), func(ev events.Event) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
		recv <- struct{}{}
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	pub := NewEventPublisher(rdb, channel, false, logger.Nop())
	if err := pub.Publish(ctx, events.Event{ID: "e1", Type: events.LevelUp, UserID: "u1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case <-recv:
	case <-time.After(2 * time.Second):
		t.Fatalf("event not received")
	}
	mu.Lock()
	defer mu.Unlock()
	if got[0].Type != events.LevelUp || got[0].UserID != "u1" {
		t.Fatalf("event = %+v", got[0])
	}
}
