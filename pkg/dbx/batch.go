package dbx

import (
	"context"
)

// QueuedQuery is one statement of a Batch.
type QueuedQuery struct {
	Query     string
	Arguments []any
}

// Batch is a list of SQL statements sent to the database together.
//
// Drivers able to pipeline statements (pgx) send the whole batch in a single round trip,
// the others execute the statements one after the other on the same session.
//
// Example Usage:
//
//	batch := dbx.NewEmptyBatch()
//	batch.Queue("INSERT INTO users (name, email) VALUES ($1, $2)", "John Doe", "john@example.com")
//	batch.Queue("UPDATE users SET last_login = now() WHERE id = $1", userID)
//
//	rowsAffected, err := conn.ExecBatch(ctx, batch)
type Batch struct {
	queries []QueuedQuery
}

// NewEmptyBatch creates a new, empty batch for queuing SQL statements.
func NewEmptyBatch() *Batch {
	return &Batch{}
}

// Queue adds a SQL statement to the batch with the given query and arguments.
func (b *Batch) Queue(query string, arguments ...any) {
	b.queries = append(b.queries, QueuedQuery{Query: query, Arguments: arguments})
}

// Len returns the number of SQL statements queued in the batch.
func (b *Batch) Len() int {
	return len(b.queries)
}

// Queries returns the queued statements in order.
func (b *Batch) Queries() []QueuedQuery {
	return b.queries
}

// BatchSession is implemented by sessions that execute a Batch.
type BatchSession interface {
	ExecBatch(ctx context.Context, batch *Batch) (int64, error)
}

// Copier bulk loads rows into a table. tableName may be qualified with the schema.
type Copier interface {
	CopyFrom(ctx context.Context, tableName string, columns []string, rows [][]any) (int64, error)
}
