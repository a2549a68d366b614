package pool

import (
	"context"
	"time"
)

// Stats is a snapshot of the pool state and counters.
type Stats struct {
	Capacity       int           `json:"capacity"`
	Idle           int           `json:"idle"`
	InUse          int           `json:"inUse"`
	Opening        int           `json:"opening"`
	Waiting        int           `json:"waiting"`
	TotalCreated   int64         `json:"totalCreated"`
	TotalDiscarded int64         `json:"totalDiscarded"`
	WaitCount      int64         `json:"waitCount"`
	WaitDuration   time.Duration `json:"waitDuration"`
	Timeouts       int64         `json:"timeouts"`
	Closed         bool          `json:"closed"`
}

// Stats returns a consistent snapshot of the pool.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		Capacity:       p.capacity,
		Idle:           len(p.idle),
		InUse:          len(p.inUse),
		Opening:        p.opening,
		Waiting:        len(p.waiters),
		TotalCreated:   p.totalCreated,
		TotalDiscarded: p.totalDiscarded,
		WaitCount:      p.waitCount,
		WaitDuration:   p.waitDuration,
		Timeouts:       p.timeouts,
		Closed:         p.closed,
	}
}

// Ping acquires a connection, checks it with the driver and releases it. A connection
// failing the check is discarded.
func (p *Pool) Ping(ctx context.Context) error {
	return p.Connect(ctx, func(ctx context.Context, conn *Conn) error {
		return conn.pc.ping(ctx)
	})
}
