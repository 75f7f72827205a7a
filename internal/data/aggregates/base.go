package aggregates

import (
	"context"
	"strings"
	"time"

	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/platform/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/keylock"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"gorm.io/gorm"
)

const (
	DefaultMaxRetries = 3
	retryBackoff      = 15 * time.Millisecond
)

type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
	Locker   keylock.Locker
	// MaxRetries bounds re-runs after a conflict or transient failure. Zero means DefaultMaxRetries.
	MaxRetries int
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.CASGuard.db == nil {
		d.CASGuard = NewCASGuard(d.DB)
	}
	if d.Locker == nil {
		d.Locker = keylock.NewLocal()
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.MaxRetries <= 0 {
		d.MaxRetries = DefaultMaxRetries
	}
	return d
}

func LedgerKey(userID string) string { return domainagg.LedgerLockPrefix + strings.TrimSpace(userID) }

func CourseKey(id string) string { return domainagg.CourseLockPrefix + strings.TrimSpace(id) }

// executeContractWrite is executeWrite for an aggregate: keys outside the contract's lock
// namespaces are rejected before anything is locked.
func executeContractWrite(ctx context.Context, deps BaseDeps, contract domainagg.Contract, op string, keys []string, fn func(dbc dbctx.Context) error) error {
	if err := contract.CheckKeys(keys); err != nil {
		return domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return executeWrite(ctx, deps, op, keys, fn)
}

// executeWrite serializes on keys, then runs fn in a transaction. fn must re-read everything it
// depends on, since it can run more than once.
func executeWrite(ctx context.Context, deps BaseDeps, op string, keys []string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}

	var mapped error
	unlock, err := deps.Locker.Lock(ctx, keys...)
	if err != nil {
		mapped = MapError(op, err)
	} else {
		defer unlock()
		for attempt := 0; ; attempt++ {
			mapped = MapError(op, deps.Runner.InTx(ctx, fn))
			if mapped == nil || !isRetriable(mapped) || attempt >= deps.MaxRetries || ctx.Err() != nil {
				break
			}
			deps.Hooks.IncRetry(op)
			deps.Log.Debug("Retrying aggregate write", "op", op, "attempt", attempt+1, "error", mapped)
			if !sleepCtx(ctx, time.Duration(attempt+1)*retryBackoff) {
				break
			}
		}
	}

	status := "success"
	if mapped != nil {
		status = aggregateErrorStatus(mapped)
		if domainagg.IsCode(mapped, domainagg.CodeConflict) {
			deps.Hooks.IncConflict(op)
		}
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domainagg.CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(domainagg.CodeOf(MapError("aggregate.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}
