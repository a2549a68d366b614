package pool

import (
	"context"

	"github.com/marcodd23/go-micro-dbpool/pkg/errorx"
	"github.com/pkg/errors"
)

// ConnectionContext is a scoped acquisition: the connection is taken on BeginConnect and
// always given back by End.
type ConnectionContext struct {
	pool  *Pool
	conn  *Conn
	ctx   context.Context
	ended bool
}

// BeginConnect acquires a connection and opens a scope around it. The caller must call End
// exactly once, passing the error the scope is exiting with.
func (p *Pool) BeginConnect(ctx context.Context) (*ConnectionContext, error) {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	return &ConnectionContext{pool: p, conn: conn, ctx: ctx}, nil
}

// Connect runs fn with a connection held for its whole duration.
//
// The connection is released when fn returns or panics. It is released as healthy when fn
// succeeds or fails with a plain query error; any other error, a panic or a lost connection
// make the pool discard it. The error of fn is returned unchanged.
func (p *Pool) Connect(ctx context.Context, fn func(ctx context.Context, conn *Conn) error) error {
	cc, err := p.BeginConnect(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			cc.release(false)
			panic(r)
		}
	}()

	return cc.End(fn(cc.ctx, cc.conn))
}

// Conn returns the connection held by the scope.
func (cc *ConnectionContext) Conn() *Conn {
	return cc.conn
}

// Context returns the context the scope was opened with.
func (cc *ConnectionContext) Context() context.Context {
	return cc.ctx
}

// End closes the scope and releases the connection. err is the error the scope exits with:
// it decides whether the connection is reused and it is returned as is. Without a scope
// error End reports a release failure, if any.
func (cc *ConnectionContext) End(err error) error {
	if cc.ended {
		return errorx.ErrConnReleased
	}

	relErr := cc.release(reusableAfter(err))
	if err != nil {
		return err
	}

	return relErr
}

func (cc *ConnectionContext) release(healthy bool) error {
	cc.ended = true
	return cc.pool.Release(cc.conn, healthy)
}

// reusableAfter reports whether a connection may go back to the idle set after a scope
// exited with err.
func reusableAfter(err error) bool {
	if err == nil {
		return true
	}

	var queryErr *errorx.QueryError
	if errors.As(err, &queryErr) {
		return !queryErr.ConnectionLost()
	}

	return false
}
