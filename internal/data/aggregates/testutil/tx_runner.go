package testutil

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	"github.com/ethixlearn/ethixlearn-backend/internal/data/aggregates"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/dbctx"
)

var errForcedRollback = errors.New("forced rollback")

// InjectedTxRunner runs each body in a real transaction on DB and can force
// the outcome after the body has run. With a nil DB bodies run without a
// transaction.
type InjectedTxRunner struct {
	DB *gorm.DB

	// FailCommit rolls back every transaction and returns this error.
	FailCommit error
	// LostAck commits the transaction and then returns this error, as when
	// the connection drops before the commit is acknowledged.
	LostAck error

	mu        sync.Mutex
	Begins    int
	Commits   int
	Rollbacks int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.Begins++
	forced := r.FailCommit
	lostAck := r.LostAck
	r.mu.Unlock()

	run := func(dbc dbctx.Context) error {
		if fn != nil {
			if err := fn(dbc); err != nil {
				return err
			}
		}
		if forced != nil {
			return errForcedRollback
		}
		return nil
	}

	var err error
	if r.DB == nil {
		err = run(dbctx.Context{Ctx: ctx})
	} else {
		err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return run(dbctx.Context{Ctx: ctx, Tx: tx})
		})
	}
	if errors.Is(err, errForcedRollback) {
		err = forced
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.Rollbacks++
		return err
	}
	r.Commits++
	return lostAck
}
