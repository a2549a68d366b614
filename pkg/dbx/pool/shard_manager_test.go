package pool_test

import (
	"context"
	"testing"

	"github.com/marcodd23/go-micro-dbpool/pkg/dbx/pool"
	"github.com/marcodd23/go-micro-dbpool/pkg/errorx"
	"github.com/stretchr/testify/require"
)

func TestShardManager(t *testing.T) {
	ctx := context.Background()

	master, _ := newTestPool(t, testConfig(2))
	replica, _ := newTestPool(t, testConfig(1))
	other, _ := newTestPool(t, testConfig(1))

	sm := pool.NewShardManager()
	sm.Add("MAIN_DB", pool.MasterReplica{Master: master, Replica: replica})
	sm.Add("AUDIT_DB", pool.MasterReplica{Master: other})

	p, err := sm.Master("MAIN_DB")
	require.NoError(t, err)
	require.Same(t, master, p)

	p, err = sm.Replica("MAIN_DB")
	require.NoError(t, err)
	require.Same(t, replica, p)

	p, err = sm.Replica("AUDIT_DB")
	require.NoError(t, err)
	require.Same(t, other, p)

	_, err = sm.Master("MISSING")
	require.Error(t, err)

	stats := sm.Stats()
	require.Len(t, stats, 3)
	require.Equal(t, 2, stats["MAIN_DB"].Capacity)
	require.Equal(t, 1, stats["MAIN_DB/replica"].Capacity)

	require.NoError(t, sm.Shutdown(ctx))

	_, err = master.Acquire(ctx)
	require.ErrorIs(t, err, errorx.ErrPoolClosed)
	_, err = other.Acquire(ctx)
	require.ErrorIs(t, err, errorx.ErrPoolClosed)
}

func TestShardManagerPing(t *testing.T) {
	ctx := context.Background()

	master, _ := newTestPool(t, testConfig(1))
	replica, replicaDialer := newTestPool(t, testConfig(1))
	replicaDialer.SetDialErr(errBoom)

	sm := pool.NewShardManager()
	sm.Add("MAIN_DB", pool.MasterReplica{Master: master, Replica: replica})

	result := sm.Ping(ctx)
	require.Len(t, result, 2)
	require.NoError(t, result["MAIN_DB"])
	require.ErrorIs(t, result["MAIN_DB/replica"], errBoom)

	// the checked connection went back to the pool
	require.Equal(t, 1, master.Stats().Idle)
	require.Equal(t, 0, replica.Stats().Opening)
}

func TestPoolPingReplacesDeadIdleConnection(t *testing.T) {
	ctx := context.Background()
	p, dialer := newTestPool(t, testConfig(1))

	require.NoError(t, p.Ping(ctx))
	require.Equal(t, 1, p.Stats().Idle)

	dialer.Session(0).set(func(s *MockSession) { s.pingErr = errBoom })

	require.NoError(t, p.Ping(ctx))
	require.True(t, dialer.Session(0).Closed())
	require.Equal(t, int64(2), p.Stats().TotalCreated)
	require.Equal(t, int64(1), p.Stats().TotalDiscarded)
	require.Equal(t, 1, p.Stats().Idle)
}
