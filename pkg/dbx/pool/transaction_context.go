package pool

import (
	"context"
	"fmt"

	"github.com/marcodd23/go-micro-dbpool/pkg/dbx"
	"github.com/marcodd23/go-micro-dbpool/pkg/errorx"
)

// TxState is the lifecycle state of a TransactionContext.
type TxState int

const (
	TxInit TxState = iota
	TxActive
	TxCommitted
	TxRolledBack
	TxReleased
)

func (s TxState) String() string {
	switch s {
	case TxInit:
		return "INIT"
	case TxActive:
		return "ACTIVE"
	case TxCommitted:
		return "COMMITTED"
	case TxRolledBack:
		return "ROLLED_BACK"
	case TxReleased:
		return "RELEASED"
	default:
		return fmt.Sprintf("TxState(%d)", int(s))
	}
}

// txKey marks a context as running inside a transaction of one pool.
type txKey struct {
	pool *Pool
}

// TransactionContext is a transaction-scoped acquisition. The transaction is opened on
// BeginTransaction and committed or rolled back by End, which then releases the connection.
type TransactionContext struct {
	id    int64
	pool  *Pool
	conn  *Conn
	ctx   context.Context
	state TxState
}

// BeginTransaction acquires a connection and starts a transaction on it.
//
// It fails with errorx.ErrNestedTransaction when ctx already belongs to an active
// transaction of this pool. A failed BEGIN discards the connection and is reported as a
// *errorx.TransactionError.
func (p *Pool) BeginTransaction(ctx context.Context) (*TransactionContext, error) {
	if outer, ok := ctx.Value(txKey{pool: p}).(*TransactionContext); ok && outer.state == TxActive {
		return nil, errorx.ErrNestedTransaction
	}

	conn, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	tc := &TransactionContext{id: dbx.GenerateRandomInt64Id(), pool: p, conn: conn, state: TxInit}

	if err := conn.begin(ctx); err != nil {
		p.Release(conn, false)
		tc.state = TxReleased

		return nil, errorx.NewTransactionError(errorx.TxBegin, err)
	}

	tc.state = TxActive
	tc.ctx = context.WithValue(ctx, txKey{pool: p}, tc)
	p.logger.LogDebug(ctx, fmt.Sprintf("Transaction %d started on connection %s", tc.id, conn.ID()))

	return tc, nil
}

// Transaction runs fn inside a transaction.
//
// The transaction is committed when fn returns nil and rolled back when fn returns an error
// or panics; the connection is released in every case. The error of fn is returned, with a
// rollback failure attached to it. A panic is re-raised after the rollback.
func (p *Pool) Transaction(ctx context.Context, fn func(ctx context.Context, conn *Conn) error) error {
	tc, err := p.BeginTransaction(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			tc.abort(fmt.Errorf("panic in transaction: %v", r))
			panic(r)
		}
	}()

	return tc.End(fn(tc.ctx, tc.conn))
}

// ID identifies the transaction in log lines.
func (tc *TransactionContext) ID() int64 {
	return tc.id
}

// Conn returns the connection the transaction runs on.
func (tc *TransactionContext) Conn() *Conn {
	return tc.conn
}

// Context returns a context marked as belonging to this transaction. Opening another
// transaction of the same pool with it fails with errorx.ErrNestedTransaction.
func (tc *TransactionContext) Context() context.Context {
	return tc.ctx
}

// State returns the current lifecycle state.
func (tc *TransactionContext) State() TxState {
	return tc.state
}

// End finishes the transaction with the error the scope exits with: nil commits, anything
// else rolls back. The connection is then released, and discarded if COMMIT or ROLLBACK
// failed or the session was lost.
func (tc *TransactionContext) End(err error) error {
	if tc.state != TxActive {
		return errorx.ErrConnReleased
	}

	if err == nil {
		return tc.commit()
	}

	return tc.abort(err)
}

func (tc *TransactionContext) commit() error {
	if err := tc.conn.commit(tc.ctx); err != nil {
		txErr := errorx.NewTransactionError(errorx.TxCommit, err)
		tc.pool.logger.LogError(tc.ctx, fmt.Sprintf("Commit of transaction %d failed on connection %s", tc.id, tc.conn.ID()), err)

		if rbErr := tc.rollback(); rbErr != nil {
			tc.pool.logger.LogError(tc.ctx, fmt.Sprintf("Rollback of transaction %d after failed commit failed", tc.id), rbErr)
		}

		tc.state = TxRolledBack
		tc.release(false)

		return txErr
	}

	tc.state = TxCommitted

	return tc.release(true)
}

func (tc *TransactionContext) abort(cause error) error {
	healthy := !errorx.IsConnectionLost(cause)

	if rbErr := tc.rollback(); rbErr != nil {
		tc.pool.logger.LogError(tc.ctx, fmt.Sprintf("Rollback of transaction %d failed on connection %s", tc.id, tc.conn.ID()), rbErr)
		cause = errorx.NewRollbackError(rbErr, cause)
		healthy = false
	}

	tc.state = TxRolledBack
	tc.release(healthy)

	return cause
}

// rollback must run even when the scope context is already canceled.
func (tc *TransactionContext) rollback() error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(tc.ctx), tc.pool.checkTimeout())
	defer cancel()

	return tc.conn.rollback(ctx)
}

func (tc *TransactionContext) release(healthy bool) error {
	err := tc.pool.Release(tc.conn, healthy)
	tc.state = TxReleased

	return err
}
