package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/marcodd23/go-micro-dbpool/pkg/dbx"
	"github.com/marcodd23/go-micro-dbpool/pkg/errorx"
	"github.com/pkg/errors"
)

// pooledConn is one database session owned by the pool. It outlives the Conn leases
// handed out on it.
type pooledConn struct {
	id        uuid.UUID
	session   dbx.Session
	createdAt time.Time

	// guarded by pool.mu
	lastUsedAt time.Time

	// owner-only
	inTx bool

	alive     atomic.Bool
	closeOnce sync.Once
}

func newPooledConn(p *Pool, session dbx.Session) *pooledConn {
	now := p.now()
	pc := &pooledConn{
		id:         uuid.New(),
		session:    session,
		createdAt:  now,
		lastUsedAt: now,
	}
	pc.alive.Store(true)

	return pc
}

// Conn is a lease on a pooled database session. Every acquisition returns a new Conn,
// owned by a single caller until Release; it must not be shared between goroutines.
// A released Conn stays unusable even after its session is handed to another caller.
type Conn struct {
	pool     *Pool
	pc       *pooledConn
	released atomic.Bool
}

// ID returns the connection identifier, stable for the lifetime of the session.
func (c *Conn) ID() uuid.UUID {
	return c.pc.id
}

// CreatedAt returns when the underlying session was opened.
func (c *Conn) CreatedAt() time.Time {
	return c.pc.createdAt
}

// Alive reports whether the session is still considered usable.
func (c *Conn) Alive() bool {
	return c.pc.alive.Load()
}

// InTransaction reports whether a transaction is open on this connection.
func (c *Conn) InTransaction() bool {
	return c.pc.inTx
}

// Query runs a statement returning rows, in the order produced by the database.
func (c *Conn) Query(ctx context.Context, query string, args ...any) ([]dbx.Row, error) {
	if c.released.Load() {
		return nil, errorx.ErrConnReleased
	}

	rows, err := c.pc.session.Query(ctx, query, args...)
	if err != nil {
		return nil, c.queryError(err, query)
	}

	return rows, nil
}

// QueryOne runs a statement expected to return at most one row. found is false when the
// statement returned no rows; more than one row is an error.
func (c *Conn) QueryOne(ctx context.Context, query string, args ...any) (row dbx.Row, found bool, err error) {
	rows, err := c.Query(ctx, query, args...)
	if err != nil {
		return dbx.Row{}, false, err
	}

	switch len(rows) {
	case 0:
		return dbx.Row{}, false, nil
	case 1:
		return rows[0], true, nil
	default:
		return dbx.Row{}, false, errorx.NewQueryError(
			errors.Errorf("multiple rows returned (%d) for a single row query", len(rows)), query, false)
	}
}

// Exec runs a statement and returns the number of affected rows.
func (c *Conn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if c.released.Load() {
		return 0, errorx.ErrConnReleased
	}

	affected, err := c.pc.session.Exec(ctx, query, args...)
	if err != nil {
		return 0, c.queryError(err, query)
	}

	return affected, nil
}

// ExecBatch executes every statement of batch and returns the total of affected rows.
// Drivers without batch support fail with an error.
func (c *Conn) ExecBatch(ctx context.Context, batch *dbx.Batch) (int64, error) {
	if c.released.Load() {
		return 0, errorx.ErrConnReleased
	}

	bs, ok := c.pc.session.(dbx.BatchSession)
	if !ok {
		return 0, errors.Errorf("driver session %T does not support batches", c.pc.session)
	}

	affected, err := bs.ExecBatch(ctx, batch)
	if err != nil {
		return 0, c.queryError(err, "batch")
	}

	return affected, nil
}

// CopyFrom bulk loads rows into tableName. It makes Conn a dbx.Copier.
func (c *Conn) CopyFrom(ctx context.Context, tableName string, columns []string, rows [][]any) (int64, error) {
	if c.released.Load() {
		return 0, errorx.ErrConnReleased
	}

	copier, ok := c.pc.session.(dbx.Copier)
	if !ok {
		return 0, errors.Errorf("driver session %T does not support bulk copy", c.pc.session)
	}

	copied, err := copier.CopyFrom(ctx, tableName, columns, rows)
	if err != nil {
		return 0, c.queryError(err, "COPY "+tableName)
	}

	return copied, nil
}

// Session returns the driver session backing the connection, for driver specific features.
// It must not be used after the connection is released.
func (c *Conn) Session() dbx.Session {
	return c.pc.session
}

// Ping checks that the session is alive. A failed ping marks the connection dead, so it is
// discarded on release.
func (c *Conn) Ping(ctx context.Context) bool {
	if c.released.Load() {
		return false
	}

	return c.pc.ping(ctx) == nil
}

// Release gives the connection back to its pool, healthy unless it was found dead.
func (c *Conn) Release() error {
	return c.pool.Release(c, c.Alive())
}

// Close closes the underlying session. The connection still has to be released, and will
// be discarded by the pool.
func (c *Conn) Close() error {
	if c.released.Load() {
		return errorx.ErrConnReleased
	}

	return c.pc.close(context.Background())
}

func (pc *pooledConn) ping(ctx context.Context) error {
	if err := pc.session.Ping(ctx); err != nil {
		pc.alive.Store(false)
		return err
	}

	return nil
}

func (c *Conn) queryError(err error, query string) error {
	var queryErr *errorx.QueryError
	if !errors.As(err, &queryErr) {
		queryErr = errorx.NewQueryError(err, query, false)
	}

	if queryErr.ConnectionLost() {
		c.pc.alive.Store(false)
	}

	return queryErr
}

func (c *Conn) begin(ctx context.Context) error {
	if c.released.Load() {
		return errorx.ErrConnReleased
	}

	if c.pc.inTx {
		return errorx.ErrNestedTransaction
	}

	if err := c.pc.session.Begin(ctx); err != nil {
		return err
	}

	c.pc.inTx = true

	return nil
}

func (c *Conn) commit(ctx context.Context) error {
	err := c.pc.session.Commit(ctx)
	if err == nil {
		c.pc.inTx = false
	}

	return err
}

// rollback always leaves the connection outside the transaction: a failed rollback makes
// the session unusable.
func (c *Conn) rollback(ctx context.Context) error {
	err := c.pc.session.Rollback(ctx)
	c.pc.inTx = false
	if err != nil {
		c.pc.alive.Store(false)
	}

	return err
}

func (pc *pooledConn) close(ctx context.Context) error {
	var err error

	pc.closeOnce.Do(func() {
		pc.alive.Store(false)

		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultCheckTimeout)
		defer cancel()

		err = pc.session.Close(closeCtx)
	})

	return err
}
