// Package sqldb adapts database/sql drivers to dbx sessions.
//
// A Session pins exactly one driver connection (a *sql.DB limited to one connection, and
// the *sql.Conn taken from it): pooling is done by pkg/dbx/pool, never by database/sql.
package sqldb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/marcodd23/go-micro-dbpool/pkg/dbx"
	"github.com/marcodd23/go-micro-dbpool/pkg/errorx"
	"github.com/pkg/errors"
)

// Options tune a Session for a specific driver.
type Options struct {
	// IsConnectionLost reports driver specific errors that leave the session unusable.
	// Network errors, driver.ErrBadConn and sql.ErrConnDone are always considered lost.
	IsConnectionLost func(err error) bool

	// InitStatements run once on every new session.
	InitStatements []string
}

// Session - one database/sql connection.
// It Implements dbx.Session.
type Session struct {
	db   *sql.DB
	conn *sql.Conn
	tx   *sql.Tx
	opts Options
}

// Open opens a single-connection session through connector.
func Open(ctx context.Context, connector driver.Connector, opts Options) (*Session, error) {
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Session{db: db, conn: conn, opts: opts}

	for _, stmt := range opts.InitStatements {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			_ = s.Close(ctx)
			return nil, errors.Wrapf(err, "session init statement %q", stmt)
		}
	}

	return s, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Session) querier() querier {
	if s.tx != nil {
		return s.tx
	}

	return s.conn
}

// Query executes a SQL query and collects every row.
func (s *Session) Query(ctx context.Context, query string, args ...any) ([]dbx.Row, error) {
	rows, err := s.querier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.classify(err, query)
	}
	defer rows.Close()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, s.classify(err, query)
	}

	columns := make([]string, len(columnTypes))
	typeNames := make([]string, len(columnTypes))
	for i, ct := range columnTypes {
		columns[i] = ct.Name()
		typeNames[i] = strings.ToUpper(ct.DatabaseTypeName())
	}

	var result []dbx.Row
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, s.classify(err, query)
		}

		for i := range values {
			values[i] = normalize(values[i], typeNames[i])
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
	res, err := s.querier().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, s.classify(err, query)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, s.classify(errors.Wrap(err, "error reading affected rows"), query)
	}

	return affected, nil
}

// Ping checks the connection.
func (s *Session) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Begin starts a transaction.
func (s *Session) Begin(ctx context.Context) error {
	if s.tx != nil {
		return errorx.ErrNestedTransaction
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "error starting transaction")
	}

	s.tx = tx

	return nil
}

// Commit commits the open transaction.
func (s *Session) Commit(_ context.Context) error {
	if s.tx == nil {
		return errors.New("commit without an open transaction")
	}

	err := s.tx.Commit()
	s.tx = nil

	return errors.Wrap(err, "error during transaction commit")
}

// Rollback aborts the open transaction. A transaction database/sql already rolled back
// (its context ended) is not an error.
func (s *Session) Rollback(_ context.Context) error {
	if s.tx == nil {
		return nil
	}

	err := s.tx.Rollback()
	s.tx = nil

	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}

	return errors.Wrap(err, "error rolling back transaction")
}

// Close releases the connection and its single-connection *sql.DB.
func (s *Session) Close(_ context.Context) error {
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}

	connErr := s.conn.Close()
	dbErr := s.db.Close()

	if connErr != nil && !errors.Is(connErr, sql.ErrConnDone) {
		return connErr
	}

	return dbErr
}

// ExecBatch executes the statements one after the other.
func (s *Session) ExecBatch(ctx context.Context, batch *dbx.Batch) (int64, error) {
	if batch == nil {
		return 0, nil
	}

	var total int64
	for i, q := range batch.Queries() {
		affected, err := s.Exec(ctx, q.Query, q.Arguments...)
		if err != nil {
			return 0, errors.WithMessagef(err, "batch statement %d", i)
		}
		total += affected
	}

	return total, nil
}

const copyChunkSize = 100

// CopyFrom inserts rows with multi-row INSERT statements.
func (s *Session) CopyFrom(ctx context.Context, tableName string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, errors.New("no columns to insert")
	}

	tuple := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"
	prefix := "INSERT INTO " + tableName + " (" + strings.Join(columns, ", ") + ") VALUES "

	var total int64
	for start := 0; start < len(rows); start += copyChunkSize {
		end := min(start+copyChunkSize, len(rows))

		tuples := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*len(columns))
		for _, row := range rows[start:end] {
			if len(row) != len(columns) {
				return 0, errors.Errorf("row has %d values, expected %d", len(row), len(columns))
			}
			tuples = append(tuples, tuple)
			args = append(args, row...)
		}

		affected, err := s.Exec(ctx, prefix+strings.Join(tuples, ", "), args...)
		if err != nil {
			return 0, err
		}
		total += affected
	}

	return total, nil
}

func (s *Session) classify(err error, query string) error {
	return errorx.NewQueryError(err, query, s.isConnectionLost(err))
}

func (s *Session) isConnectionLost(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return s.opts.IsConnectionLost != nil && s.opts.IsConnectionLost(err)
}

// normalize turns the raw bytes some drivers return for every column into a value of the
// column's database type.
func normalize(v any, typeName string) any {
	raw, ok := v.([]byte)
	if !ok {
		return v
	}

	switch {
	case isIntegerType(typeName):
		if strings.HasPrefix(typeName, "UNSIGNED") {
			if u, err := strconv.ParseUint(string(raw), 10, 64); err == nil {
				return u
			}
		} else if i, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			return i
		}
	case isFloatType(typeName):
		if f, err := strconv.ParseFloat(string(raw), 64); err == nil {
			return f
		}
	case isBinaryType(typeName):
		return raw
	}

	return string(raw)
}

func isIntegerType(typeName string) bool {
	switch strings.TrimPrefix(typeName, "UNSIGNED ") {
	case "INT", "INTEGER", "TINYINT", "SMALLINT", "MEDIUMINT", "BIGINT", "YEAR":
		return true
	default:
		return false
	}
}

func isFloatType(typeName string) bool {
	switch typeName {
	case "DECIMAL", "NUMERIC", "FLOAT", "DOUBLE", "REAL":
		return true
	default:
		return false
	}
}

func isBinaryType(typeName string) bool {
	return strings.Contains(typeName, "BLOB") || strings.Contains(typeName, "BINARY") || typeName == "BIT" || typeName == ""
}
