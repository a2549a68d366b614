// Package pool implements a bounded, goroutine-safe pool of database connections with
// scoped acquisition (ConnectionContext) and transaction-scoped acquisition
// (TransactionContext).
//
// Connections are created lazily up to the configured PoolSize. When the pool is exhausted
// Acquire blocks, waiters are served in FIFO order and a released connection is handed
// directly to the oldest waiter. Idle connections are verified with a ping before being
// handed out and transparently replaced when found dead.
package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marcodd23/go-micro-dbpool/pkg/dbx"
	"github.com/marcodd23/go-micro-dbpool/pkg/errorx"
	"github.com/marcodd23/go-micro-dbpool/pkg/logx"
	"github.com/marcodd23/go-micro-dbpool/pkg/validator"
	"github.com/pkg/errors"
)

const defaultCheckTimeout = 5 * time.Second

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger used by the pool. Defaults to logx.GetLogger().
func WithLogger(logger logx.Logger) Option {
	return func(p *Pool) {
		p.logger = logger
	}
}

// WithClock overrides the time source, used for idle-time accounting.
func WithClock(now func() time.Time) Option {
	return func(p *Pool) {
		p.now = now
	}
}

// grant is what a waiter receives: a lease on a connection handed over by a release,
// a reserved slot to dial into (conn == nil), or an error.
type grant struct {
	conn *Conn
	err  error
}

type waiter struct {
	ready chan grant
}

// Pool is a bounded pool of database connections.
//
// Invariants, guarded by mu: len(idle)+len(inUse)+opening <= capacity, and a session is
// never both idle and in use. A session in inUse is leased to exactly one Conn, the only
// handle Release accepts for it.
type Pool struct {
	cfg      dbx.ConnConfig
	dialer   dbx.Dialer
	logger   logx.Logger
	now      func() time.Time
	capacity int

	mu      sync.Mutex
	idle    []*pooledConn
	inUse   map[*pooledConn]*Conn
	opening int
	waiters []*waiter
	closed  bool
	drained chan struct{}

	totalCreated   int64
	totalDiscarded int64
	waitCount      int64
	waitDuration   time.Duration
	timeouts       int64
}

// New creates a pool for the given configuration. Connections are opened on demand,
// except for cfg.MinIdle connections which are opened before New returns.
func New(ctx context.Context, cfg dbx.ConnConfig, dialer dbx.Dialer, opts ...Option) (*Pool, error) {
	if err := validator.NewValidator().Validate(cfg); err != nil {
		return nil, errorx.NewDatabaseErrorWrapper(err, "invalid connection pool configuration")
	}

	if dialer == nil {
		return nil, errorx.NewDatabaseError("invalid connection pool configuration: nil dialer")
	}

	p := &Pool{
		cfg:      cfg,
		dialer:   dialer,
		logger:   logx.GetLogger(),
		now:      time.Now,
		capacity: int(cfg.PoolSize),
		inUse:    make(map[*pooledConn]*Conn),
		drained:  make(chan struct{}),
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := p.warmUp(ctx); err != nil {
		p.closeAll(ctx, p.takeIdle())
		return nil, err
	}

	p.logger.LogInfo(ctx, fmt.Sprintf("Created new Connection Pool: DB=%s, HOST=%s, SIZE=%d",
		cfg.DBName, cfg.Address(), cfg.PoolSize))

	return p, nil
}

func (p *Pool) warmUp(ctx context.Context) error {
	for i := int32(0); i < p.cfg.MinIdle; i++ {
		p.mu.Lock()
		p.opening++
		p.mu.Unlock()

		pc, err := p.dial(ctx)

		p.mu.Lock()
		p.opening--
		if err == nil {
			p.idle = append(p.idle, pc)
		}
		p.mu.Unlock()

		if err != nil {
			return err
		}
	}

	return nil
}

// Config returns the pool configuration.
func (p *Pool) Config() dbx.ConnConfig {
	return p.cfg
}

// Acquire returns a connection exclusively owned by the caller, blocking while the pool is
// exhausted. The wait is bounded by ctx and by the configured AcquireTimeout, if any; when
// the deadline passes Acquire fails with *errorx.PoolExhaustedError.
//
// The connection must be given back with Release (or Conn.Release).
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	if p.cfg.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.AcquireTimeout)
		defer cancel()
	}

	return p.acquire(ctx, false)
}

// AcquireTimeout is Acquire with an explicit timeout replacing the configured one.
// A timeout <= 0 never blocks: it fails with *errorx.PoolExhaustedError right away when no
// connection can be handed out.
func (p *Pool) AcquireTimeout(ctx context.Context, timeout time.Duration) (*Conn, error) {
	if timeout <= 0 {
		return p.acquire(ctx, true)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return p.acquire(ctx, false)
}

func (p *Pool) acquire(ctx context.Context, noWait bool) (*Conn, error) {
	start := p.now()

	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return nil, errorx.ErrPoolClosed
	}

	if n := len(p.idle); n > 0 {
		pc := p.idle[n-1]
		p.idle = p.idle[:n-1]
		conn := p.leaseLocked(pc)
		p.mu.Unlock()

		return p.verify(ctx, conn)
	}

	if len(p.inUse)+p.opening < p.capacity {
		p.opening++
		p.mu.Unlock()

		return p.openReserved(ctx)
	}

	if noWait {
		p.timeouts++
		p.mu.Unlock()
		return nil, errorx.NewPoolExhaustedError(p.capacity, 0, nil)
	}

	w := &waiter{ready: make(chan grant, 1)}
	p.waiters = append(p.waiters, w)
	p.waitCount++
	p.mu.Unlock()

	g, err := p.wait(ctx, w, start)
	if err != nil {
		return nil, err
	}

	if g.err != nil {
		return nil, g.err
	}

	if g.conn == nil {
		return p.openReserved(ctx)
	}

	return p.verify(ctx, g.conn)
}

// leaseLocked hands pc out under a new Conn.
func (p *Pool) leaseLocked(pc *pooledConn) *Conn {
	conn := &Conn{pool: p, pc: pc}
	p.inUse[pc] = conn

	return conn
}

// verify checks a reused session before handing out its lease. A session failing the
// check is closed and a new one is dialed into the same slot, so the caller never loses
// its place to a waiter.
func (p *Pool) verify(ctx context.Context, conn *Conn) (*Conn, error) {
	if p.checkIdle(ctx, conn.pc) {
		return conn, nil
	}

	conn.released.Store(true)

	p.mu.Lock()
	delete(p.inUse, conn.pc)
	p.totalDiscarded++
	p.opening++
	p.mu.Unlock()

	conn.pc.close(ctx)

	return p.openReserved(ctx)
}

// wait blocks until w is granted or ctx ends. A grant that raced with the deadline is
// passed on to the next waiter so no connection or slot is lost.
func (p *Pool) wait(ctx context.Context, w *waiter, start time.Time) (grant, error) {
	select {
	case g := <-w.ready:
		p.mu.Lock()
		p.waitDuration += p.now().Sub(start)
		p.mu.Unlock()

		return g, nil
	case <-ctx.Done():
	}

	p.mu.Lock()

	waited := p.now().Sub(start)
	p.waitDuration += waited
	p.timeouts++

	var orphan *pooledConn

	if !p.removeWaiterLocked(w) {
		g := <-w.ready
		switch {
		case g.err != nil:
			p.mu.Unlock()
			return grant{}, g.err
		case g.conn != nil && p.closed:
			g.conn.released.Store(true)
			orphan = g.conn.pc
			delete(p.inUse, orphan)
			p.totalDiscarded++
			p.checkDrainedLocked()
		case g.conn != nil:
			g.conn.released.Store(true)
			p.handBackLocked(g.conn.pc)
		default:
			p.opening--
			p.freeSlotLocked()
		}
	}

	p.mu.Unlock()

	if orphan != nil {
		orphan.close(ctx)
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		return grant{}, ctx.Err()
	}

	p.logger.LogWarning(ctx, fmt.Sprintf("Connection pool exhausted: no connection available after %s", waited))

	return grant{}, errorx.NewPoolExhaustedError(p.capacity, waited, ctx.Err())
}

func (p *Pool) removeWaiterLocked(w *waiter) bool {
	for i, candidate := range p.waiters {
		if candidate == w {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return true
		}
	}

	return false
}

func (p *Pool) popWaiterLocked() *waiter {
	if len(p.waiters) == 0 {
		return nil
	}

	w := p.waiters[0]
	p.waiters[0] = nil
	p.waiters = p.waiters[1:]

	return w
}

// handBackLocked leases a healthy in-use session to the oldest waiter, or parks it as idle.
func (p *Pool) handBackLocked(pc *pooledConn) {
	if w := p.popWaiterLocked(); w != nil {
		w.ready <- grant{conn: p.leaseLocked(pc)}
		return
	}

	delete(p.inUse, pc)
	p.idle = append(p.idle, pc)
}

// freeSlotLocked is called whenever capacity is given back. The slot is reserved for the
// oldest waiter, which will dial a new connection.
func (p *Pool) freeSlotLocked() {
	if p.closed {
		p.checkDrainedLocked()
		return
	}

	if w := p.popWaiterLocked(); w != nil {
		p.opening++
		w.ready <- grant{}
	}
}

// openReserved dials a connection into a slot already counted in p.opening.
func (p *Pool) openReserved(ctx context.Context) (*Conn, error) {
	pc, err := p.dial(ctx)

	p.mu.Lock()
	p.opening--

	if err != nil {
		p.freeSlotLocked()
		p.mu.Unlock()

		return nil, err
	}

	if p.closed {
		p.totalDiscarded++
		p.checkDrainedLocked()
		p.mu.Unlock()

		pc.close(ctx)

		return nil, errorx.ErrPoolClosed
	}

	conn := p.leaseLocked(pc)
	p.mu.Unlock()

	return conn, nil
}

func (p *Pool) dial(ctx context.Context) (*pooledConn, error) {
	dialCtx := ctx
	if p.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, p.cfg.ConnectTimeout)
		defer cancel()
	}

	session, err := p.dialer.Dial(dialCtx, p.cfg)
	if err != nil {
		p.logger.LogError(ctx, fmt.Sprintf("Cannot connect to database %s on %s", p.cfg.DBName, p.cfg.Address()), err)

		var connErr *errorx.ConnectionError
		if errors.As(err, &connErr) {
			return nil, connErr
		}

		return nil, errorx.NewConnectionError(err, p.cfg.Address(), p.cfg.DBName)
	}

	pc := newPooledConn(p, session)

	p.mu.Lock()
	p.totalCreated++
	p.mu.Unlock()

	p.logger.LogDebug(ctx, fmt.Sprintf("Created new connection %s", pc.id))

	return pc, nil
}

// checkIdle verifies a connection about to be handed out.
func (p *Pool) checkIdle(ctx context.Context, pc *pooledConn) bool {
	if !pc.alive.Load() {
		return false
	}

	p.mu.Lock()
	lastUsedAt := pc.lastUsedAt
	p.mu.Unlock()

	if p.cfg.MaxIdleTime > 0 && p.now().Sub(lastUsedAt) > p.cfg.MaxIdleTime {
		p.logger.LogDebug(ctx, fmt.Sprintf("Connection %s exceeded max idle time, recycling", pc.id))
		return false
	}

	checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.checkTimeout())
	defer cancel()

	if err := pc.ping(checkCtx); err != nil {
		p.logger.LogWarning(ctx, fmt.Sprintf("Idle connection %s failed ping, replacing it", pc.id), err)
		return false
	}

	return true
}

func (p *Pool) checkTimeout() time.Duration {
	if p.cfg.ConnectTimeout > 0 {
		return p.cfg.ConnectTimeout
	}

	return defaultCheckTimeout
}

// Release gives a connection back to the pool. A healthy connection is handed to the oldest
// waiter or parked as idle; an unhealthy one is closed and its slot freed.
//
// Releasing a Conn that is not the current lease of an in-use session of this pool, for
// instance a Conn released before, returns errorx.ErrNotInUse.
// A connection still inside a transaction is never reused.
func (p *Pool) Release(conn *Conn, healthy bool) error {
	if conn == nil || conn.pool != p {
		return errorx.ErrNotInUse
	}

	pc := conn.pc

	p.mu.Lock()

	if lease, ok := p.inUse[pc]; !ok || lease != conn {
		p.mu.Unlock()
		return errorx.ErrNotInUse
	}

	conn.released.Store(true)
	pc.lastUsedAt = p.now()
	healthy = healthy && pc.alive.Load() && !pc.inTx && !p.closed

	if healthy {
		p.handBackLocked(pc)
		p.mu.Unlock()

		return nil
	}

	delete(p.inUse, pc)
	p.totalDiscarded++
	p.freeSlotLocked()
	p.mu.Unlock()

	pc.close(context.Background())
	p.logger.LogDebug(context.Background(), fmt.Sprintf("Discarded connection %s", pc.id))

	return nil
}

// Shutdown closes the pool. New acquisitions fail with errorx.ErrPoolClosed, blocked
// waiters are woken with the same error and idle connections are closed right away.
// Shutdown then waits for in-use connections to be released, closing each one as it comes
// back. If ctx ends first the remaining sessions are closed forcibly and ctx.Err() is
// returned. Shutdown is idempotent.
//
// A forced close does not wait for statements in flight: it may run concurrently with the
// owner still using the session, and the owner then sees the driver's error for a closed
// connection. Give ctx enough time for owners to release when that matters.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()

	if !p.closed {
		p.closed = true
		for _, w := range p.waiters {
			w.ready <- grant{err: errorx.ErrPoolClosed}
		}
		p.waiters = nil
		p.logger.LogInfo(ctx, fmt.Sprintf("Shutting down Connection Pool: DB=%s, in use=%d", p.cfg.DBName, len(p.inUse)))
	}

	idle := p.takeIdleLocked()
	p.checkDrainedLocked()
	p.mu.Unlock()

	p.closeAll(ctx, idle)

	select {
	case <-p.drained:
		p.logger.LogInfo(ctx, "DB Connection Pool Successfully Closed!")
		return nil
	case <-ctx.Done():
	}

	p.mu.Lock()
	busy := make([]*pooledConn, 0, len(p.inUse))
	for pc := range p.inUse {
		busy = append(busy, pc)
	}
	p.mu.Unlock()

	p.logger.LogWarning(ctx, fmt.Sprintf("Forcibly closing %d in-use connections", len(busy)), ctx.Err())
	p.closeAll(context.WithoutCancel(ctx), busy)

	return ctx.Err()
}

func (p *Pool) takeIdle() []*pooledConn {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.takeIdleLocked()
}

func (p *Pool) takeIdleLocked() []*pooledConn {
	idle := p.idle
	p.idle = nil
	p.totalDiscarded += int64(len(idle))

	return idle
}

func (p *Pool) closeAll(ctx context.Context, conns []*pooledConn) {
	for _, pc := range conns {
		pc.close(ctx)
	}
}

func (p *Pool) checkDrainedLocked() {
	if !p.closed || len(p.inUse) > 0 || p.opening > 0 {
		return
	}

	select {
	case <-p.drained:
	default:
		close(p.drained)
	}
}
