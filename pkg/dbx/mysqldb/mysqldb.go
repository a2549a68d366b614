// Package mysqldb opens MySQL sessions with github.com/go-sql-driver/mysql.
//
// Every session is set up for UTC, utf8mb4 and the TRADITIONAL sql mode, with autocommit on.
// Each of them can be overridden through dbx.ConnConfig.Params (time_zone, charset,
// sql_mode, autocommit), and any other entry is sent as a session variable.
package mysqldb

import (
	"database/sql/driver"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/marcodd23/go-micro-dbpool/pkg/dbx"
	"github.com/marcodd23/go-micro-dbpool/pkg/dbx/sqldb"
	"github.com/pkg/errors"
)

const defaultPort = 3306

// server error numbers after which the session is gone
const (
	erServerShutdown   = 1053
	erConnectionKilled = 1927
)

func defaultParams() map[string]string {
	return map[string]string{
		"charset":    "utf8mb4",
		"time_zone":  "'+00:00'",
		"sql_mode":   "'TRADITIONAL'",
		"autocommit": "1",
	}
}

// NewDialer - creates a MySQL dialer.
func NewDialer() *sqldb.Dialer {
	return sqldb.NewDialer(NewConnector, sqldb.Options{IsConnectionLost: IsConnectionLost})
}

// NewConnector - database/sql connector for cfg.
func NewConnector(cfg dbx.ConnConfig) (driver.Connector, error) {
	return mysql.NewConnector(Config(cfg))
}

// Config - translates cfg into the driver configuration. A host containing '/' is used as
// a unix socket path.
func Config(cfg dbx.ConnConfig) *mysql.Config {
	mcfg := mysql.NewConfig()
	mcfg.User = cfg.User
	mcfg.Passwd = cfg.Password
	mcfg.DBName = cfg.DBName
	mcfg.ParseTime = true
	mcfg.Loc = time.UTC
	mcfg.Timeout = cfg.ConnectTimeout

	if cfg.IsUnixSocket() {
		mcfg.Net = "unix"
		mcfg.Addr = cfg.Host
	} else {
		port := int(cfg.Port)
		if port == 0 {
			port = defaultPort
		}
		mcfg.Net = "tcp"
		mcfg.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	}

	mcfg.Params = defaultParams()
	for key, value := range cfg.Params {
		mcfg.Params[key] = quoteParam(key, value)
	}

	return mcfg
}

func quoteParam(key, value string) string {
	switch key {
	case "time_zone", "sql_mode":
		if !strings.HasPrefix(value, "'") {
			return "'" + value + "'"
		}
	}

	return value
}

// IsConnectionLost reports MySQL errors that leave the session unusable.
func IsConnectionLost(err error) bool {
	if errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == erServerShutdown || myErr.Number == erConnectionKilled
	}

	return false
}
