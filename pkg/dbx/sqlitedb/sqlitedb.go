// Package sqlitedb opens SQLite sessions with github.com/mattn/go-sqlite3.
//
// dbx.ConnConfig.DBName is the database file. Each session is a separate SQLite
// connection to that file, so ":memory:" gives every session its own empty database.
package sqlitedb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/marcodd23/go-micro-dbpool/pkg/dbx"
	"github.com/marcodd23/go-micro-dbpool/pkg/dbx/sqldb"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

func defaultParams() map[string]string {
	return map[string]string{
		"_busy_timeout": "5000",
		"_foreign_keys": "on",
		"_txlock":       "immediate",
	}
}

// NewDialer - creates a SQLite dialer.
func NewDialer() *sqldb.Dialer {
	return sqldb.NewDialer(NewConnector, sqldb.Options{IsConnectionLost: IsConnectionLost})
}

// NewConnector - database/sql connector for cfg.
func NewConnector(cfg dbx.ConnConfig) (driver.Connector, error) {
	if cfg.DBName == "" {
		return nil, errors.New("sqlite database file is EMPTY")
	}

	return &connector{dsn: DSN(cfg), driver: &sqlite3.SQLiteDriver{}}, nil
}

// DSN - builds the go-sqlite3 DSN: busy timeout, foreign keys and immediate transactions by
// default, overridable through cfg.Params.
func DSN(cfg dbx.ConnConfig) string {
	params := defaultParams()
	for key, value := range cfg.Params {
		params[key] = value
	}

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	query := make([]string, 0, len(keys))
	for _, key := range keys {
		query = append(query, url.QueryEscape(key)+"="+url.QueryEscape(params[key]))
	}

	return fmt.Sprintf("file:%s?%s", cfg.DBName, strings.Join(query, "&"))
}

// IsConnectionLost reports SQLite errors that leave the session unusable.
func IsConnectionLost(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrCantOpen || sqliteErr.Code == sqlite3.ErrIoErr ||
			sqliteErr.Code == sqlite3.ErrCorrupt || sqliteErr.Code == sqlite3.ErrNotADB
	}

	return false
}

// connector opens go-sqlite3 connections for a fixed DSN; the driver has no connector of
// its own.
type connector struct {
	dsn    string
	driver *sqlite3.SQLiteDriver
}

func (c *connector) Connect(_ context.Context) (driver.Conn, error) {
	return c.driver.Open(c.dsn)
}

func (c *connector) Driver() driver.Driver {
	return c.driver
}
