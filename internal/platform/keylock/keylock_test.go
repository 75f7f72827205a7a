package keylock

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNormalizeSortsAndDedupes(t *testing.T) {
	got := Normalize([]string{"ledger:u1", " course:c1 ", "", "ledger:u1"})
	if len(got) != 2 || got[0] != "course:c1" || got[1] != "ledger:u1" {
		t.Fatalf("unexpected keys: %#v", got)
	}
}

func TestLocalLockSerializesSameKey(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "ledger:u1")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(2 * time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected exclusive access, saw %d concurrent holders", maxSeen)
	}
}

func TestLocalLockHonorsContext(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "course:c1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "course:c1", "ledger:u1"); err == nil {
		t.Fatalf("expected context error while key is held")
	}

	// ledger:u1 must have been released by the failed call.
	u2, err := l.Lock(context.Background(), "ledger:u1")
	if err != nil {
		t.Fatalf("ledger key should be free: %v", err)
	}
	u2()
}
