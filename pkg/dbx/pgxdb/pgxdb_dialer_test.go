package pgxdb

import (
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/marcodd23/go-micro-dbpool/pkg/dbx"
	"github.com/stretchr/testify/require"
)

func TestCreateConnectionConfiguration(t *testing.T) {
	cfg := dbx.ConnConfig{
		Driver:         dbx.DriverPostgres,
		Host:           "db.local",
		Port:           6543,
		DBName:         "orders",
		User:           "svc",
		Password:       "secret",
		PoolSize:       4,
		ConnectTimeout: 3 * time.Second,
		Params:         map[string]string{"application_name": "orders-api"},
	}

	connConfig, err := createConnectionConfiguration(cfg)
	require.NoError(t, err)
	require.Equal(t, "db.local", connConfig.Host)
	require.Equal(t, uint16(6543), connConfig.Port)
	require.Equal(t, "orders", connConfig.Database)
	require.Equal(t, "svc", connConfig.User)
	require.Equal(t, "secret", connConfig.Password)
	require.Equal(t, 3*time.Second, connConfig.ConnectTimeout)
	require.Equal(t, "orders-api", connConfig.RuntimeParams["application_name"])
}

func TestCreateConnectionConfigurationUnixSocket(t *testing.T) {
	cfg := dbx.ConnConfig{Host: "/cloudsql/project:region:instance", DBName: "orders", User: "svc", PoolSize: 1}

	connConfig, err := createConnectionConfiguration(cfg)
	require.NoError(t, err)
	require.Equal(t, "/cloudsql/project:region:instance", connConfig.Host)
}

func TestCreateConnectionConfigurationRequiresNameAndUser(t *testing.T) {
	_, err := createConnectionConfiguration(dbx.ConnConfig{Host: "h", User: "u"})
	require.Error(t, err)

	_, err = createConnectionConfiguration(dbx.ConnConfig{Host: "h", DBName: "d"})
	require.Error(t, err)
}

func TestSplitTableName(t *testing.T) {
	id, err := splitTableName("event_log")
	require.NoError(t, err)
	require.Equal(t, pgx.Identifier{"event_log"}, id)

	id, err = splitTableName("public.event_log")
	require.NoError(t, err)
	require.Equal(t, pgx.Identifier{"public", "event_log"}, id)

	_, err = splitTableName("a.b.c")
	require.Error(t, err)
}

func TestNormalize(t *testing.T) {
	u := uuid.New()
	require.Equal(t, u.String(), normalize([16]byte(u)))

	require.JSONEq(t, `{"a":[1,2]}`, normalize(map[string]any{"a": []any{1, 2}}).(string))

	num := pgtype.Numeric{Int: big.NewInt(12345), Exp: -2, Valid: true}
	require.InDelta(t, 123.45, normalize(num), 1e-9)

	require.Equal(t, int32(7), normalize(int32(7)))
}
