package dbx

import (
	"context"
)

// Session is one live session with the database, as provided by a driver.
//
// A Session is never used by two goroutines at once: the pool hands it to a single owner.
// Query and Exec failures are returned as *errorx.QueryError, flagged as connection lost when
// the session can no longer be used.
type Session interface {
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	// Ping must be cheap and free of side effects.
	Ping(ctx context.Context) error
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Close(ctx context.Context) error
}

// Dialer opens new sessions.
type Dialer interface {
	Dial(ctx context.Context, cfg ConnConfig) (Session, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, cfg ConnConfig) (Session, error)

// Dial calls f(ctx, cfg).
func (f DialerFunc) Dial(ctx context.Context, cfg ConnConfig) (Session, error) {
	return f(ctx, cfg)
}
