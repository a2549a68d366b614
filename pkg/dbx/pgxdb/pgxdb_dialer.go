package pgxdb

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/marcodd23/go-micro-dbpool/pkg/dbx"
	"github.com/marcodd23/go-micro-dbpool/pkg/errorx"
	"github.com/marcodd23/go-micro-dbpool/pkg/logx"
)

//###################################
//#        PostgreSQL Dialer        #
//###################################

// Dialer opens PostgreSQL sessions with pgx.
// It Implements dbx.Dialer.
//
// Every new session prepares the registered statements, so they can be executed by name
// on any pooled connection.
type Dialer struct {
	preparedStatements []dbx.PreparedStatement
}

// NewDialer - creates a PostgreSQL dialer preparing the given statements on each new session.
func NewDialer(preparedStatements ...dbx.PreparedStatement) *Dialer {
	return &Dialer{preparedStatements: preparedStatements}
}

// Dial opens a new session to the configured database.
func (d *Dialer) Dial(ctx context.Context, cfg dbx.ConnConfig) (dbx.Session, error) {
	connConfig, err := createConnectionConfiguration(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		return nil, errorx.NewConnectionError(err, cfg.Address(), cfg.DBName)
	}

	if err := setupPreparedStatements(ctx, conn, d.preparedStatements...); err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}

	return &Session{conn: conn}, nil
}

func createConnectionConfiguration(dbConf dbx.ConnConfig) (*pgx.ConnConfig, error) {
	connConfig, err := pgx.ParseConfig("")
	if err != nil {
		return nil, errorx.NewDatabaseErrorWrapper(err, "Error creating Connection ConnConfig")
	}

	if dbConf.DBName == "" {
		return nil, errorx.NewDatabaseError("Error creating Connection ConnConfig: DB_Name is EMPTY")
	}

	if dbConf.User == "" {
		return nil, errorx.NewDatabaseError("Error creating Connection ConnConfig: DB_User is EMPTY")
	}

	connConfig.Database = dbConf.DBName
	connConfig.User = dbConf.User
	connConfig.Password = dbConf.Password
	connConfig.ConnectTimeout = dbConf.ConnectTimeout

	if dbConf.IsUnixSocket() {
		// pgx treats a host starting with '/' as the directory holding the socket
		logx.GetLogger().LogDebug(context.TODO(), fmt.Sprintf("Connecting to DB through unix socket %s", dbConf.Host))
		connConfig.Host = dbConf.Host
	} else {
		logx.GetLogger().LogDebug(context.TODO(), fmt.Sprintf("Connecting to DB on HOST:%s and PORT:%d",
			dbConf.Host,
			uint16(dbConf.Port)))
		connConfig.Host = dbConf.Host
		if dbConf.Port > 0 {
			connConfig.Port = uint16(dbConf.Port)
		}
	}

	for key, value := range dbConf.Params {
		connConfig.RuntimeParams[key] = value
	}

	return connConfig, nil
}

func setupPreparedStatements(ctx context.Context, conn *pgx.Conn, preparesStatements ...dbx.PreparedStatement) error {
	for _, stmt := range preparesStatements {
		_, err := conn.Prepare(ctx, stmt.GetName(), stmt.GetQuery())
		if err != nil {
			return errorx.NewDatabaseErrorWrapper(err, "Failed to prepare statement '%s'", stmt.GetName())
		}
	}

	return nil
}
