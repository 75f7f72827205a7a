package testutil

import (
	"sync"
	"time"

	"github.com/yungbote/coursecraft-backend/internal/data/aggregates"
)

// HooksRecorder captures aggregate hook signals in tests.
type HooksRecorder struct {
	mu sync.Mutex

	statuses  map[string][]string
	conflicts map[string]int
	retries   map[string]int
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) init() {
	if h.statuses == nil {
		h.statuses = map[string][]string{}
		h.conflicts = map[string]int{}
		h.retries = map[string]int{}
	}
}

func (h *HooksRecorder) ObserveOperation(name, status string, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.init()
	h.statuses[name] = append(h.statuses[name], status)
}

func (h *HooksRecorder) IncConflict(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.init()
	h.conflicts[name]++
}

func (h *HooksRecorder) IncRetry(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.init()
	h.retries[name]++
}

// Statuses returns the recorded outcome of every call to op, in call order.
func (h *HooksRecorder) Statuses(op string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.statuses[op]...)
}

func (h *HooksRecorder) Conflicts(op string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conflicts[op]
}

func (h *HooksRecorder) Retries(op string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.retries[op]
}
