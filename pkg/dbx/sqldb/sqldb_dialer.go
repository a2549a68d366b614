package sqldb

import (
	"context"
	"database/sql/driver"

	"github.com/marcodd23/go-micro-dbpool/pkg/dbx"
	"github.com/marcodd23/go-micro-dbpool/pkg/errorx"
)

// ConnectorFunc builds the database/sql connector for a configuration.
type ConnectorFunc func(cfg dbx.ConnConfig) (driver.Connector, error)

// Dialer opens database/sql sessions.
// It Implements dbx.Dialer.
type Dialer struct {
	connector ConnectorFunc
	opts      Options
}

// NewDialer - creates a Dialer from a connector factory.
func NewDialer(connector ConnectorFunc, opts Options) *Dialer {
	return &Dialer{connector: connector, opts: opts}
}

// Dial opens a new session.
func (d *Dialer) Dial(ctx context.Context, cfg dbx.ConnConfig) (dbx.Session, error) {
	connector, err := d.connector(cfg)
	if err != nil {
		return nil, errorx.NewDatabaseErrorWrapper(err, "Error creating connector for %s", cfg.String())
	}

	session, err := Open(ctx, connector, d.opts)
	if err != nil {
		return nil, errorx.NewConnectionError(err, cfg.Address(), cfg.DBName)
	}

	return session, nil
}
