package postgres

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/marcodd23/go-micro-dbpool/pkg/dbx"
	"github.com/marcodd23/go-micro-dbpool/pkg/dbx/pgxdb"
	"github.com/marcodd23/go-micro-dbpool/pkg/dbx/pool"
	"github.com/marcodd23/go-micro-dbpool/pkg/logx"
	"github.com/marcodd23/go-micro-dbpool/test"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresContainerImage = "docker.io/postgres:16-alpine"
	postgresContainerPort  = "5432/tcp"

	MainDbName     = "main-db"
	MainDbUser     = "postgres"
	MainDbPassword = "password"

	defaultInitScript = "test/testcontainer/postgres/init_schema.sql"
)

// PostgresContainer represents the postgres Container type used in the module.
type PostgresContainer struct {
	Container      *postgres.PostgresContainer
	MappedPort     nat.Port
	Host           string
	DbName         string
	DbUser         string
	DbPassword     string
	DbShard        dbx.DbShard
	PrepStatements []dbx.PreparedStatement
}

const TestSnapshotId = "test-snapshot"

// StartPostgresContainer - starts a postgres container initialised with the default schema.
func StartPostgresContainer(ctx context.Context, t *testing.T, preparesStatements []dbx.PreparedStatement) *PostgresContainer {
	return StartPostgresContainerWithInitScript(ctx, t, defaultInitScript, preparesStatements)
}

// StartPostgresContainerWithInitScript - starts a postgres container running initScriptPath
// (relative to the project root) at startup.
func StartPostgresContainerWithInitScript(ctx context.Context, t *testing.T, initScriptPath string, preparesStatements []dbx.PreparedStatement) *PostgresContainer {
	test.ConfigTestRootPath()

	pg, err := postgres.Run(ctx,
		postgresContainerImage,
		postgres.WithInitScripts(filepath.Clean(initScriptPath)),
		postgres.WithDatabase(MainDbName),
		postgres.WithUsername(MainDbUser),
		postgres.WithPassword(MainDbPassword),
		postgres.WithSQLDriver("pgx"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(10*time.Second)),
	)

	require.NoError(t, err)
	require.NotNil(t, pg)

	mappedPort, err := pg.MappedPort(ctx, postgresContainerPort)
	require.NoError(t, err)

	host, err := pg.Host(ctx)
	require.NoError(t, err)

	log.Printf("Postgres running at %s:%s", host, mappedPort.Port())

	// Create a snapshot of the database to restore later
	err = pg.Snapshot(ctx, postgres.WithSnapshotName(TestSnapshotId))
	require.NoError(t, err)

	return &PostgresContainer{
		Container:      pg,
		MappedPort:     mappedPort,
		Host:           host,
		DbName:         MainDbName,
		DbUser:         MainDbUser,
		DbPassword:     MainDbPassword,
		DbShard:        "MAIN_DB",
		PrepStatements: preparesStatements,
	}
}

// ConnConfig - the pool configuration pointing at the container.
func (c *PostgresContainer) ConnConfig(poolSize int32) dbx.ConnConfig {
	return dbx.ConnConfig{
		Driver:         dbx.DriverPostgres,
		Host:           c.Host,
		Port:           int32(c.MappedPort.Int()),
		DBName:         c.DbName,
		User:           c.DbUser,
		Password:       c.DbPassword,
		PoolSize:       poolSize,
		AcquireTimeout: 5 * time.Second,
		ConnectTimeout: 5 * time.Second,
	}
}

// Restore - restores the database to the snapshot taken at startup.
func (c *PostgresContainer) Restore(ctx context.Context, t *testing.T) {
	require.NoError(t, c.Container.Restore(ctx, postgres.WithSnapshotName(TestSnapshotId)))
}

func (c *PostgresContainer) StopContainer(ctx context.Context, t *testing.T) error {
	logx.GetLogger().LogInfo(ctx, "Terminating the Container ....")

	timeout := time.Second * 3

	err := c.Container.Stop(ctx, &timeout)
	if err != nil {
		require.NoError(t, err, fmt.Sprintf("error stopping the Container %v", err))
		return err
	}

	return nil
}

// SetupDatabasePools - one connection pool per container, registered under its shard.
func SetupDatabasePools(ctx context.Context, t *testing.T, poolSize int32, containers ...*PostgresContainer) *pool.ShardManager {
	shardManager := pool.NewShardManager()

	for _, container := range containers {
		p, err := pool.New(ctx, container.ConnConfig(poolSize), pgxdb.NewDialer(container.PrepStatements...))
		require.NoError(t, err)

		shardManager.Add(container.DbShard, pool.MasterReplica{Master: p})
	}

	return shardManager
}
