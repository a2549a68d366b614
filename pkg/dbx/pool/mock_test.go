//nolint:all
package pool_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marcodd23/go-micro-dbpool/pkg/dbx"
	"github.com/marcodd23/go-micro-dbpool/pkg/errorx"
)

var errBoom = errors.New("boom")

// MockDialer - mock a dbx.Dialer, keeping track of every session it opened.
type MockDialer struct {
	mu       sync.Mutex
	sessions []*MockSession
	dialErr  error

	open    atomic.Int32
	maxOpen atomic.Int32
}

func (d *MockDialer) Dial(ctx context.Context, cfg dbx.ConnConfig) (dbx.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dialErr != nil {
		return nil, d.dialErr
	}

	s := &MockSession{dialer: d}
	s.rows = []dbx.Row{dbx.NewRow([]string{"n"}, []any{int64(1)})}
	d.sessions = append(d.sessions, s)

	n := d.open.Add(1)
	for {
		cur := d.maxOpen.Load()
		if n <= cur || d.maxOpen.CompareAndSwap(cur, n) {
			break
		}
	}

	return s, nil
}

func (d *MockDialer) SetDialErr(err error) {
	d.mu.Lock()
	d.dialErr = err
	d.mu.Unlock()
}

func (d *MockDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.sessions)
}

func (d *MockDialer) Session(i int) *MockSession {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.sessions[i]
}

// MockSession - mock a dbx.Session with injectable failures.
type MockSession struct {
	dialer *MockDialer

	mu          sync.Mutex
	rows        []dbx.Row
	queryErr    error
	pingErr     error
	pingStarted chan struct{}
	pingGate    chan struct{}
	beginErr    error
	commitErr   error
	rollbackErr error

	begins    int
	commits   int
	rollbacks int
	closed    bool
}

func (s *MockSession) Query(ctx context.Context, query string, args ...any) ([]dbx.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queryErr != nil {
		return nil, s.queryErr
	}

	return s.rows, nil
}

func (s *MockSession) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queryErr != nil {
		return 0, s.queryErr
	}

	return 1, nil
}

// Ping blocks on pingGate when set, after signalling pingStarted.
func (s *MockSession) Ping(ctx context.Context) error {
	s.mu.Lock()
	started, gate := s.pingStarted, s.pingGate
	s.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}

	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pingErr
}

func (s *MockSession) Begin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.beginErr != nil {
		return s.beginErr
	}
	s.begins++

	return nil
}

func (s *MockSession) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.commitErr != nil {
		return s.commitErr
	}
	s.commits++

	return nil
}

func (s *MockSession) Rollback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollbacks++

	return s.rollbackErr
}

func (s *MockSession) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		s.dialer.open.Add(-1)
	}

	return nil
}

func (s *MockSession) set(fn func(s *MockSession)) {
	s.mu.Lock()
	fn(s)
	s.mu.Unlock()
}

func (s *MockSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

func (s *MockSession) Counts() (begins, commits, rollbacks int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.begins, s.commits, s.rollbacks
}

// MockClock - a settable time source.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewMockClock() *MockClock {
	return &MockClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testConfig(size int32) dbx.ConnConfig {
	return dbx.ConnConfig{
		Driver:   dbx.DriverPostgres,
		Host:     "localhost",
		Port:     5432,
		DBName:   "test",
		User:     "test",
		PoolSize: size,
	}
}

func lostQueryErr() error {
	return errorx.NewQueryError(errBoom, "SELECT 1", true)
}
