package dbx

import (
	"fmt"
	"strings"
	"time"
)

// Supported driver names.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// ConnConfig represents the already resolved configuration of a connection pool.
//
// Host may be a unix socket path (any value containing '/'), in which case Port is ignored.
// For SQLite, DBName is the database file path.
type ConnConfig struct {
	Driver         string `validate:"omitempty,oneof=postgres mysql sqlite"`
	Host           string `validate:"required_unless=Driver sqlite"`
	Port           int32  `validate:"gte=0,lte=65535"`
	DBName         string `validate:"required"`
	User           string `validate:"required_unless=Driver sqlite"`
	Password       string
	PoolSize       int32         `validate:"gt=0"`
	MinIdle        int32         `validate:"gte=0,ltefield=PoolSize"`
	AcquireTimeout time.Duration `validate:"gte=0"`
	MaxIdleTime    time.Duration `validate:"gte=0"`
	ConnectTimeout time.Duration `validate:"gte=0"`
	Params         map[string]string
}

// IsUnixSocket reports whether Host points to a unix socket.
func (c ConnConfig) IsUnixSocket() bool {
	return strings.Contains(c.Host, "/")
}

// Address returns host:port, or the socket path for unix sockets.
func (c ConnConfig) Address() string {
	if c.IsUnixSocket() {
		return c.Host
	}

	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// String describes the target without credentials.
func (c ConnConfig) String() string {
	return fmt.Sprintf("%s://%s@%s/%s", c.Driver, c.User, c.Address(), c.DBName)
}
