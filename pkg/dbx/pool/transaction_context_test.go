package pool_test

import (
	"context"
	"errors"
	"testing"

	"github.com/marcodd23/go-micro-dbpool/pkg/dbx/pool"
	"github.com/marcodd23/go-micro-dbpool/pkg/errorx"
	"github.com/stretchr/testify/require"
)

func TestTransactionCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	p, dialer := newTestPool(t, testConfig(1))

	err := p.Transaction(ctx, func(ctx context.Context, conn *pool.Conn) error {
		require.True(t, conn.InTransaction())
		_, err := conn.Exec(ctx, "INSERT INTO t VALUES (1)")
		return err
	})
	require.NoError(t, err)

	begins, commits, rollbacks := dialer.Session(0).Counts()
	require.Equal(t, 1, begins)
	require.Equal(t, 1, commits)
	require.Equal(t, 0, rollbacks)
	require.Equal(t, 1, p.Stats().Idle)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	p, dialer := newTestPool(t, testConfig(1))

	err := p.Transaction(ctx, func(ctx context.Context, conn *pool.Conn) error {
		return errBoom
	})
	require.Equal(t, errBoom, err)

	_, commits, rollbacks := dialer.Session(0).Counts()
	require.Equal(t, 0, commits)
	require.Equal(t, 1, rollbacks)
	require.False(t, dialer.Session(0).Closed())
	require.Equal(t, 1, p.Stats().Idle)
}

func TestTransactionRollbackFailureKeepsOriginalError(t *testing.T) {
	ctx := context.Background()
	p, dialer := newTestPool(t, testConfig(1))

	rbErr := errors.New("rollback lost")

	err := p.Transaction(ctx, func(ctx context.Context, conn *pool.Conn) error {
		dialer.Session(0).set(func(s *MockSession) { s.rollbackErr = rbErr })
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)
	require.ErrorIs(t, err, rbErr)

	var txErr *errorx.TransactionError
	require.True(t, errors.As(err, &txErr))
	require.Equal(t, errorx.TxRollback, txErr.Op)
	require.Equal(t, errBoom, txErr.Cause)

	require.True(t, dialer.Session(0).Closed())
	require.Equal(t, 0, p.Stats().Idle)
}

func TestTransactionCommitFailure(t *testing.T) {
	ctx := context.Background()
	p, dialer := newTestPool(t, testConfig(1))

	err := p.Transaction(ctx, func(ctx context.Context, conn *pool.Conn) error {
		dialer.Session(0).set(func(s *MockSession) { s.commitErr = errBoom })
		return nil
	})

	var txErr *errorx.TransactionError
	require.True(t, errors.As(err, &txErr))
	require.Equal(t, errorx.TxCommit, txErr.Op)
	require.ErrorIs(t, err, errBoom)

	_, _, rollbacks := dialer.Session(0).Counts()
	require.Equal(t, 1, rollbacks)
	require.True(t, dialer.Session(0).Closed())
}

func TestTransactionBeginFailure(t *testing.T) {
	ctx := context.Background()
	p, dialer := newTestPool(t, testConfig(1))

	conn, err := p.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.Release())
	dialer.Session(0).set(func(s *MockSession) { s.beginErr = errBoom })

	called := false
	err = p.Transaction(ctx, func(ctx context.Context, conn *pool.Conn) error {
		called = true
		return nil
	})
	require.False(t, called)

	var txErr *errorx.TransactionError
	require.True(t, errors.As(err, &txErr))
	require.Equal(t, errorx.TxBegin, txErr.Op)
	require.True(t, dialer.Session(0).Closed())

	stats := p.Stats()
	require.Equal(t, 0, stats.InUse)
	require.Equal(t, 0, stats.Idle)
}

func TestTransactionRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	p, dialer := newTestPool(t, testConfig(1))

	require.PanicsWithValue(t, "kaboom", func() {
		_ = p.Transaction(ctx, func(ctx context.Context, conn *pool.Conn) error {
			panic("kaboom")
		})
	})

	_, commits, rollbacks := dialer.Session(0).Counts()
	require.Equal(t, 0, commits)
	require.Equal(t, 1, rollbacks)
	require.Equal(t, 0, p.Stats().InUse)
}

func TestNestedTransactionIsRejected(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPool(t, testConfig(2))
	other, _ := newTestPool(t, testConfig(1))

	err := p.Transaction(ctx, func(ctx context.Context, conn *pool.Conn) error {
		innerErr := p.Transaction(ctx, func(ctx context.Context, conn *pool.Conn) error {
			return nil
		})
		require.ErrorIs(t, innerErr, errorx.ErrNestedTransaction)

		// another pool is a different database, not a nested transaction
		return other.Transaction(ctx, func(ctx context.Context, conn *pool.Conn) error {
			return nil
		})
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), p.Stats().TotalCreated)
}

func TestTransactionContextStates(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPool(t, testConfig(1))

	tc, err := p.BeginTransaction(ctx)
	require.NoError(t, err)
	require.Equal(t, pool.TxActive, tc.State())
	require.True(t, tc.Conn().InTransaction())

	require.NoError(t, tc.End(nil))
	require.Equal(t, pool.TxReleased, tc.State())
	require.ErrorIs(t, tc.End(nil), errorx.ErrConnReleased)

	// the context of an ended transaction no longer blocks new ones
	tc2, err := p.BeginTransaction(tc.Context())
	require.NoError(t, err)
	require.Positive(t, tc2.ID())
	require.NotEqual(t, tc.ID(), tc2.ID())
	require.ErrorIs(t, tc2.End(errBoom), errBoom)

	require.Equal(t, "ROLLED_BACK", pool.TxRolledBack.String())
	require.Equal(t, "INIT", pool.TxInit.String())
}
