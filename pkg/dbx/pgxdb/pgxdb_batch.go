package pgxdb

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/marcodd23/go-micro-dbpool/pkg/dbx"
	"github.com/pkg/errors"
)

//###################################
//#       Postgres BATCH / COPY     #
//###################################

// ExecBatch sends every queued statement in a single round trip and returns the total of
// affected rows. Inside a transaction the batch runs within it.
func (s *Session) ExecBatch(ctx context.Context, batch *dbx.Batch) (int64, error) {
	if batch == nil || batch.Len() == 0 {
		return 0, nil
	}

	pgxBatch := &pgx.Batch{}
	for _, q := range batch.Queries() {
		pgxBatch.Queue(q.Query, q.Arguments...)
	}

	var results pgx.BatchResults
	if s.tx != nil {
		results = s.tx.SendBatch(ctx, pgxBatch)
	} else {
		results = s.conn.SendBatch(ctx, pgxBatch)
	}

	var total int64
	for i, q := range batch.Queries() {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return 0, s.classify(errors.Wrapf(err, "batch statement %d", i), q.Query)
		}
		total += tag.RowsAffected()
	}

	if err := results.Close(); err != nil {
		return 0, s.classify(err, "batch")
	}

	return total, nil
}

// CopyFrom loads rows with the COPY protocol.
func (s *Session) CopyFrom(ctx context.Context, tableName string, columns []string, rows [][]any) (int64, error) {
	identifier, err := splitTableName(tableName)
	if err != nil {
		return 0, err
	}

	var rowCount int64
	if s.tx != nil {
		rowCount, err = s.tx.CopyFrom(ctx, identifier, columns, pgx.CopyFromRows(rows))
	} else {
		rowCount, err = s.conn.CopyFrom(ctx, identifier, columns, pgx.CopyFromRows(rows))
	}

	if err != nil {
		return 0, s.classify(err, "COPY "+tableName)
	}

	return rowCount, nil
}

func splitTableName(tableName string) (pgx.Identifier, error) {
	parts := strings.Split(tableName, ".")
	switch len(parts) {
	case 1:
		// Only the table name is provided, assume the default schema
		return pgx.Identifier{parts[0]}, nil
	case 2:
		return pgx.Identifier{parts[0], parts[1]}, nil
	default:
		return nil, errors.Errorf("Invalid table name format: %s", tableName)
	}
}
