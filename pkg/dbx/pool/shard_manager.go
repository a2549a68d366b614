package pool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/marcodd23/go-micro-dbpool/pkg/dbx"
	"github.com/marcodd23/go-micro-dbpool/pkg/errorx"
)

// MasterReplica holds the pools of one shard: a Master pool and an optional Replica pool.
// ShardManager only looks pools up; which pool a statement runs on is up to the caller.
type MasterReplica struct {
	Master  *Pool
	Replica *Pool
}

// ShardManager keeps the connection pools of an application, one MasterReplica per DbShard.
type ShardManager struct {
	mu     sync.RWMutex
	shards map[dbx.DbShard]MasterReplica
}

// NewShardManager is a constructor that ensures the inner map is always initialized.
func NewShardManager() *ShardManager {
	return &ShardManager{
		shards: make(map[dbx.DbShard]MasterReplica),
	}
}

// Add registers the pools of a shard, replacing any previous registration.
func (sm *ShardManager) Add(shard dbx.DbShard, pools MasterReplica) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.shards[shard] = pools
}

// Master returns the write pool of shard.
func (sm *ShardManager) Master(shard dbx.DbShard) (*Pool, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	pools, ok := sm.shards[shard]
	if !ok || pools.Master == nil {
		return nil, errorx.NewDatabaseError("unknown database shard %s", shard)
	}

	return pools.Master, nil
}

// Replica returns the read pool of shard, falling back to the master when the shard has no
// replica.
func (sm *ShardManager) Replica(shard dbx.DbShard) (*Pool, error) {
	sm.mu.RLock()
	pools, ok := sm.shards[shard]
	sm.mu.RUnlock()

	if ok && pools.Replica != nil {
		return pools.Replica, nil
	}

	return sm.Master(shard)
}

// Stats returns the statistics of every registered pool, keyed by "<shard>" for masters and
// "<shard>/replica" for replicas.
func (sm *ShardManager) Stats() map[string]Stats {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	stats := make(map[string]Stats, len(sm.shards))
	for shard, pools := range sm.shards {
		if pools.Master != nil {
			stats[string(shard)] = pools.Master.Stats()
		}
		if pools.Replica != nil {
			stats[string(shard)+"/replica"] = pools.Replica.Stats()
		}
	}

	return stats
}

// Ping checks one connection of every registered pool, keyed like Stats. A nil value
// means the pool answered.
func (sm *ShardManager) Ping(ctx context.Context) map[string]error {
	shards, pools := sm.sorted()

	result := make(map[string]error, len(shards))
	for i, mr := range pools {
		if mr.Master != nil {
			result[string(shards[i])] = mr.Master.Ping(ctx)
		}
		if mr.Replica != nil {
			result[string(shards[i])+"/replica"] = mr.Replica.Ping(ctx)
		}
	}

	return result
}

// Shutdown shuts every registered pool down, in shard name order, and returns the
// errors of all of them.
func (sm *ShardManager) Shutdown(ctx context.Context) error {
	shards, pools := sm.sorted()

	var errs []error
	for i, mr := range pools {
		for _, p := range []*Pool{mr.Master, mr.Replica} {
			if p == nil {
				continue
			}
			if err := p.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("shard %s: %w", shards[i], err))
			}
		}
	}

	return errors.Join(errs...)
}

func (sm *ShardManager) sorted() ([]dbx.DbShard, []MasterReplica) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	shards := make([]dbx.DbShard, 0, len(sm.shards))
	for shard := range sm.shards {
		shards = append(shards, shard)
	}
	sort.Slice(shards, func(i, j int) bool { return shards[i] < shards[j] })

	pools := make([]MasterReplica, len(shards))
	for i, shard := range shards {
		pools[i] = sm.shards[shard]
	}

	return shards, pools
}
