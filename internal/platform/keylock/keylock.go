// Package keylock serializes mutations that share a logical key (a user's ledger, a course).
package keylock

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Unlock releases every key acquired by a single Lock call.
type Unlock func()

type Locker interface {
	// Lock blocks until all keys are held or ctx is done. Keys are acquired in sorted order.
	Lock(ctx context.Context, keys ...string) (Unlock, error)
}

// Normalize trims, dedupes and sorts keys so multi-key callers never deadlock each other.
func Normalize(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type entry struct {
	sem  chan struct{}
	refs int
}

type localLocker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewLocal returns an in-process Locker.
func NewLocal() Locker {
	return &localLocker{entries: map[string]*entry{}}
}

func (l *localLocker) acquireEntry(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entries[key]
	if e == nil {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *localLocker) releaseEntry(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

func (l *localLocker) Lock(ctx context.Context, keys ...string) (Unlock, error) {
	keys = Normalize(keys)
	held := make([]func(), 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
	}
	for _, key := range keys {
		key := key
		e := l.acquireEntry(key)
		select {
		case e.sem <- struct{}{}:
			held = append(held, func() {
				<-e.sem
				l.releaseEntry(key, e)
			})
		case <-ctx.Done():
			l.releaseEntry(key, e)
			release()
			return nil, ctx.Err()
		}
	}
	var once sync.Once
	return func() { once.Do(release) }, nil
}
