package aggregates

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/platform/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/keylock"
)

func TestExecuteWriteObservesSuccessStatus(t *testing.T) {
	hooks := &spyHooks{}
	err := executeWrite(context.Background(), BaseDeps{
		Runner: spyTxRunner{},
		Hooks:  hooks,
	}, "aggregate.test.success", nil, func(_ dbctx.Context) error { return nil })
	if err != nil {
		t.Fatalf("executeWrite success: %v", err)
	}
	if len(hooks.Operations) != 1 || hooks.Operations[0].Status != "success" {
		t.Fatalf("unexpected operations: %+v", hooks.Operations)
	}
}

func TestExecuteContractWriteRejectsForeignKeys(t *testing.T) {
	hooks := &spyHooks{}
	calls := 0
	deps := BaseDeps{Runner: spyTxRunner{}, Hooks: hooks}
	err := executeContractWrite(context.Background(), deps, domainagg.CourseAggregateContract,
		"aggregate.test.scope", []string{CourseKey("c1"), LedgerKey("u1")}, func(_ dbctx.Context) error {
			calls++
			return nil
		})
	if !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("expected internal code, got=%v", err)
	}
	if calls != 0 || len(hooks.Operations) != 0 {
		t.Fatalf("out-of-scope write must not run: calls=%d ops=%+v", calls, hooks.Operations)
	}

	err = executeContractWrite(context.Background(), deps, domainagg.ProgressionAggregateContract,
		"aggregate.test.scope", []string{CourseKey("c1"), LedgerKey("u1")}, func(_ dbctx.Context) error {
			calls++
			return nil
		})
	if err != nil || calls != 1 {
		t.Fatalf("in-scope write: err=%v calls=%d", err, calls)
	}
}

func TestExecuteWriteDoesNotRetryValidation(t *testing.T) {
	hooks := &spyHooks{}
	calls := 0
	err := executeWrite(context.Background(), BaseDeps{
		Runner: spyTxRunner{},
		Hooks:  hooks,
	}, "aggregate.test.validation", nil, func(_ dbctx.Context) error {
		calls++
		return ValidationError("bad input")
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation code, got=%v", err)
	}
	if calls != 1 || len(hooks.Retries) != 0 {
		t.Fatalf("validation must not retry: calls=%d retries=%v", calls, hooks.Retries)
	}
}

func TestExecuteWriteRetriesConflictsUpToLimit(t *testing.T) {
	hooks := &spyHooks{}
	calls := 0
	err := executeWrite(context.Background(), BaseDeps{
		Runner:     spyTxRunner{},
		Hooks:      hooks,
		MaxRetries: 2,
	}, "aggregate.test.conflict", nil, func(_ dbctx.Context) error {
		calls++
		return ConflictError("stale version")
	})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict code, got=%v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 1 try + 2 retries, got %d calls", calls)
	}
	if len(hooks.Retries) != 2 || len(hooks.Conflicts) != 1 {
		t.Fatalf("hooks: retries=%v conflicts=%v", hooks.Retries, hooks.Conflicts)
	}
	if len(hooks.Operations) != 1 || hooks.Operations[0].Status != string(domainagg.CodeConflict) {
		t.Fatalf("unexpected op status: %+v", hooks.Operations)
	}
}

func TestExecuteWriteRecoversAfterTransientFailure(t *testing.T) {
	hooks := &spyHooks{}
	calls := 0
	err := executeWrite(context.Background(), BaseDeps{
		Runner: spyTxRunner{},
		Hooks:  hooks,
	}, "aggregate.test.retry", nil, func(_ dbctx.Context) error {
		calls++
		if calls == 1 {
			return RetryableError("temporary lock timeout")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if calls != 2 || len(hooks.Retries) != 1 || len(hooks.Conflicts) != 0 {
		t.Fatalf("calls=%d retries=%v conflicts=%v", calls, hooks.Retries, hooks.Conflicts)
	}
	if hooks.Operations[0].Status != "success" {
		t.Fatalf("unexpected status: %+v", hooks.Operations)
	}
}

func TestExecuteWriteSerializesOnKeys(t *testing.T) {
	deps := BaseDeps{Runner: spyTxRunner{}, Locker: keylock.NewLocal()}
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
			_ = executeWrite(context.Background(), deps, "aggregate.test.lock", []string{LedgerKey("u1")}, func(_ dbctx.Context) error {
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
				return nil
			})
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected serialized bodies, saw %d concurrent", maxSeen)
	}
}

func TestExecuteWriteReportsLockTimeout(t *testing.T) {
	locker := keylock.NewLocal()
	unlock, err := locker.Lock(context.Background(), "course:c1")
	if err != nil {
		t.Fatalf("pre-lock: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	ran := false
	err = executeWrite(ctx, BaseDeps{Runner: spyTxRunner{}, Locker: locker}, "aggregate.test.timeout", []string{"course:c1"}, func(_ dbctx.Context) error {
		ran = true
		return nil
	})
	if ran || !domainagg.IsCode(err, domainagg.CodeRetryable) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected retryable deadline error without running body: ran=%v err=%v", ran, err)
	}
}

func TestAggregateErrorStatus(t *testing.T) {
	if got := aggregateErrorStatus(nil); got != "success" {
		t.Fatalf("nil status: want=success got=%s", got)
	}
	if got := aggregateErrorStatus(InvariantError("x")); got != string(domainagg.CodeInvariantViolation) {
		t.Fatalf("invariant status: got=%s", got)
	}
	if got := aggregateErrorStatus(ConflictError("x")); got != string(domainagg.CodeConflict) {
		t.Fatalf("conflict status: got=%s", got)
	}
	if got := aggregateErrorStatus(context.DeadlineExceeded); got != string(domainagg.CodeRetryable) {
		t.Fatalf("deadline status: got=%s", got)
	}
}

type spyTxRunner struct{}

func (spyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(dbctx.Context{Ctx: ctx})
}

type spyHooks struct {
	mu         sync.Mutex
	Operations []spyOperation
	Conflicts  []string
	Retries    []string
}

type spyOperation struct {
	Name   string
	Status string
}

func (h *spyHooks) ObserveOperation(name, status string, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Operations = append(h.Operations, spyOperation{Name: name, Status: status})
}

func (h *spyHooks) IncConflict(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Conflicts = append(h.Conflicts, name)
}

func (h *spyHooks) IncRetry(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Retries = append(h.Retries, name)
}
