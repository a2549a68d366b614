package pgxdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/marcodd23/go-micro-dbpool/pkg/dbx"
	"github.com/marcodd23/go-micro-dbpool/pkg/errorx"
	"github.com/pkg/errors"
)

//###################################
//#       PostgreSQL Session        #
//###################################

// Session - one pgx connection.
// It Implements dbx.Session.
type Session struct {
	conn *pgx.Conn
	tx   pgx.Tx
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *Session) querier() querier {
	if s.tx != nil {
		return s.tx
	}

	return s.conn
}

// Conn returns the underlying pgx connection, for pgx specific features (COPY, batches).
func (s *Session) Conn() *pgx.Conn {
	return s.conn
}

// Query executes a SQL query and collects every row.
//
// The query may be the name of a prepared statement registered on the Dialer.
func (s *Session) Query(ctx context.Context, query string, args ...any) ([]dbx.Row, error) {
	rows, err := s.querier().Query(ctx, query, args...)
	if err != nil {
		return nil, s.classify(err, query)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	var result []dbx.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, s.classify(err, query)
		}

		for i := range values {
			values[i] = normalize(values[i])
		}

		result = append(result, dbx.NewRow(columns, values))
	}

	if err := rows.Err(); err != nil {
		return nil, s.classify(err, query)
	}

	return result, nil
}

// Exec executes a statement and returns the number of affected rows.
func (s *Session) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := s.querier().Exec(ctx, query, args...)
	if err != nil {
		return 0, s.classify(err, query)
	}

	return tag.RowsAffected(), nil
}

// Ping checks the connection with an empty round trip.
func (s *Session) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Begin starts a transaction.
func (s *Session) Begin(ctx context.Context) error {
	if s.tx != nil {
		return errorx.ErrNestedTransaction
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "error starting transaction")
	}

	s.tx = tx

	return nil
}

// Commit commits the open transaction.
func (s *Session) Commit(ctx context.Context) error {
	if s.tx == nil {
		return errors.New("commit without an open transaction")
	}

	err := s.tx.Commit(ctx)
	s.tx = nil

	return errors.Wrap(err, "error during transaction commit")
}

// Rollback aborts the open transaction.
func (s *Session) Rollback(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}

	err := s.tx.Rollback(ctx)
	s.tx = nil

	return errors.Wrap(err, "error rolling back transaction")
}

// Close terminates the connection.
func (s *Session) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

// classify turns a pgx error into a QueryError. Server errors leave the connection usable,
// except connection exceptions (class 08) and server shutdowns (57P0x).
func (s *Session) classify(err error, query string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		lost := strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P0")
		return errorx.NewQueryError(err, query, lost || s.conn.IsClosed())
	}

	return errorx.NewQueryError(err, query, s.conn.IsClosed())
}

// normalize maps pgx types without a dbx.Value kind to plain values.
func normalize(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(x).String()
	case map[string]any, []any:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	default:
		return v
	}
}
