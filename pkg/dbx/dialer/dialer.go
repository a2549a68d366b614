// Package dialer picks the dbx.Dialer matching ConnConfig.Driver.
package dialer

import (
	"context"

	"github.com/marcodd23/go-micro-dbpool/pkg/dbx"
	"github.com/marcodd23/go-micro-dbpool/pkg/dbx/mysqldb"
	"github.com/marcodd23/go-micro-dbpool/pkg/dbx/pgxdb"
	"github.com/marcodd23/go-micro-dbpool/pkg/dbx/pool"
	"github.com/marcodd23/go-micro-dbpool/pkg/dbx/sqlitedb"
	"github.com/marcodd23/go-micro-dbpool/pkg/errorx"
)

// ForDriver returns the dialer of the named driver. An empty name selects PostgreSQL.
// Prepared statements are only supported by PostgreSQL and are ignored by the other drivers.
func ForDriver(driver string, preparedStatements ...dbx.PreparedStatement) (dbx.Dialer, error) {
	switch driver {
	case dbx.DriverPostgres, "":
		return pgxdb.NewDialer(preparedStatements...), nil
	case dbx.DriverMySQL:
		return mysqldb.NewDialer(), nil
	case dbx.DriverSQLite:
		return sqlitedb.NewDialer(), nil
	default:
		return nil, errorx.NewDatabaseError("unsupported database driver '%s'", driver)
	}
}

// NewPool creates a connection pool for cfg with the dialer of cfg.Driver.
func NewPool(ctx context.Context, cfg dbx.ConnConfig, preparedStatements []dbx.PreparedStatement, opts ...pool.Option) (*pool.Pool, error) {
	d, err := ForDriver(cfg.Driver, preparedStatements...)
	if err != nil {
		return nil, err
	}

	return pool.New(ctx, cfg, d, opts...)
}
