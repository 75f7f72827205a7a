package testutil

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/data/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/platform/dbctx"
)

// InjectedTxRunner runs aggregate bodies in real transactions and can force a rollback after the
// body succeeded, as if the commit itself had failed.
type InjectedTxRunner struct {
	DB *gorm.DB

	mu sync.Mutex

	FailBegin  error
	FailCommit error
	// FailTimes limits how many commits fail before the runner behaves normally. Zero fails every commit.
	FailTimes int

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
	failed        int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	failBegin := r.FailBegin
	failCommit := r.FailCommit
	if failCommit != nil && r.FailTimes > 0 && r.failed >= r.FailTimes {
		failCommit = nil
	}
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if fn != nil {
			if err := fn(dbctx.Context{Ctx: ctx, Tx: tx}); err != nil {
				return err
			}
		}
		return failCommit
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.RollbackCalls++
		if failCommit != nil && err == failCommit {
			r.failed++
		}
		return err
	}
	r.CommitCalls++
	return nil
}
