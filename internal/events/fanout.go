package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

// Emitter stamps events and hands them to every publisher. Failures are logged and never
// returned; progression writes have already committed when it runs.
type Emitter struct {
	pubs    []Publisher
	log     *logger.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewEmitter(baseLog *logger.Logger, pubs ...Publisher) *Emitter {
	kept := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			kept = append(kept, p)
		}
	}
	return &Emitter{
		pubs:    kept,
		log:     baseLog.With("service", "EventEmitter"),
		timeout: 3 * time.Second,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (e *Emitter) Emit(ctx context.Context, evs ...Event) {
	if e == nil || len(e.pubs) == 0 || len(evs) == 0 {
		return
	}
	for i := range evs {
		if evs[i].ID == "" {
			evs[i].ID = uuid.NewString()
		}
		if evs[i].OccurredAt.IsZero() {
			evs[i].OccurredAt = e.now()
		}
	}
	// Detach from request cancellation so a client disconnect does not drop events.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, p := range e.pubs {
		wg.Add(1)
		go func(p Publisher) {
			defer wg.Done()
			if err := p.Publish(pctx, evs...); err != nil {
				e.log.Warn("event publish failed", "events", len(evs), "first_type", string(evs[0].Type), "error", err)
			}
		}(p)
	}
	wg.Wait()
}

func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	var errs []error
	for _, p := range e.pubs {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type logPublisher struct {
	log *logger.Logger
}

// NewLogPublisher records events at debug level. It is used when no broker is configured.
func NewLogPublisher(baseLog *logger.Logger) Publisher {
	return &logPublisher{log: baseLog.With("publisher", "log")}
}

func (p *logPublisher) Publish(_ context.Context, evs ...Event) error {
	for _, ev := range evs {
		p.log.Debug("progression event", "type", string(ev.Type), "user_id", ev.UserID, "data", ev.Data)
	}
	return nil
}

func (p *logPublisher) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, evs ...Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evs...)
	return r.Err
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types lists recorded event types in publish order.
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}
