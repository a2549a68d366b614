package dbx_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/marcodd23/go-micro-dbpool/pkg/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Define a struct matching the ACCOUNT table schema
type TestStruct struct {
	ID        int64      `db:"id"`
	Owner     string     `db:"owner"`
	Balance   float64    `db:"balance"`
	IsActive  bool       `db:"is_active"`
	Nickname  *string    `db:"nickname"`
	OpenedAt  time.Time  `db:"opened_at"`
	ClosedAt  *time.Time `db:"closed_at"`
	Raw       dbx.Value  `db:"raw"`
	Ignored   string     `db:"-"`
	untracked string     `db:"untracked"`
}

func TestDeriveColumnNamesFromTags(t *testing.T) {
	// Call DeriveColumnNamesFromTags with the TestStruct
	columns, err := dbx.DeriveColumnNamesFromTags(TestStruct{}, "db")

	// Expected column names from the `db` tags
	expectedColumns := []string{
		"id",
		"owner",
		"balance",
		"is_active",
		"nickname",
		"opened_at",
		"closed_at",
		"raw",
	}

	// Assert that there were no errors
	assert.NoError(t, err)

	// Assert that the columns are as expected
	assert.True(t, reflect.DeepEqual(expectedColumns, columns), "Expected %v but got %v", expectedColumns, columns)

	_, err = dbx.DeriveColumnNamesFromTags(42, "db")
	assert.Error(t, err)
}

func TestScanRow(t *testing.T) {
	opened := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	row := dbx.NewRow(
		[]string{"id", "owner", "balance", "is_active", "nickname", "opened_at", "closed_at", "raw", "extra"},
		[]any{int64(7), []byte("alice"), 12.5, int64(1), "ally", opened, nil, "x", "ignored"},
	)

	item, err := dbx.ScanRow[TestStruct](row, "db")
	require.NoError(t, err)

	require.Equal(t, int64(7), item.ID)
	require.Equal(t, "alice", item.Owner)
	require.Equal(t, 12.5, item.Balance)
	require.True(t, item.IsActive)
	require.NotNil(t, item.Nickname)
	require.Equal(t, "ally", *item.Nickname)
	require.Equal(t, opened, item.OpenedAt)
	require.Nil(t, item.ClosedAt)
	require.Equal(t, dbx.KindString, item.Raw.Kind())
	require.Empty(t, item.Ignored)
}

func TestScanRowConversionError(t *testing.T) {
	row := dbx.NewRow([]string{"opened_at"}, []any{"yesterday"})

	_, err := dbx.ScanRow[TestStruct](row, "db")
	require.Error(t, err)
	require.Contains(t, err.Error(), "opened_at")
}

func TestScanRows(t *testing.T) {
	rows := []dbx.Row{
		dbx.NewRow([]string{"id", "owner"}, []any{int64(1), "a"}),
		dbx.NewRow([]string{"id", "owner"}, []any{int64(2), "b"}),
	}

	items, err := dbx.ScanRows[TestStruct](rows, "db")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "b", items[1].Owner)
}

func TestGenerateRandomInt64Id(t *testing.T) {
	first := dbx.GenerateRandomInt64Id()
	second := dbx.GenerateRandomInt64Id()

	require.Positive(t, first)
	require.Positive(t, second)
	require.NotEqual(t, first, second)
}
