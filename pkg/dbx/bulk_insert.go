package dbx

import (
	"context"

	"github.com/pkg/errors"
)

// BulkInsertEntitiesWithTags inserts a slice of structs into a table.
//
// The column names are derived from the `db` tags of the first entity and every entity is
// converted with ToRow(), which must return the values in the same order. Fields with
// `db:"-"` or without a `db` tag are skipped.
//
// Arguments:
//   - ctx: The context for the query execution.
//   - copier: Where the rows are loaded, typically a pooled connection.
//   - tableName: The name of the table into which data will be inserted (CASE SENSITIVE).
//   - entities: The rows to be inserted.
//
// Returns:
//   - int64: The number of rows successfully inserted.
//   - error: Any error encountered during the bulk insert.
func BulkInsertEntitiesWithTags[T RowConvertibleEntity](ctx context.Context, copier Copier, tableName string, entities []T) (int64, error) {
	if len(entities) == 0 {
		return 0, errors.New("no entities to insert")
	}

	columnNames, err := DeriveColumnNamesFromTags(entities[0], "db")
	if err != nil {
		return 0, errors.Wrap(err, "error deriving column names")
	}

	rows := make([][]any, len(entities))
	for i, entity := range entities {
		rows[i] = entity.ToRow()
	}

	rowCount, err := copier.CopyFrom(ctx, tableName, columnNames, rows)
	if err != nil {
		return 0, errors.Wrap(err, "bulk insert error")
	}

	return rowCount, nil
}
