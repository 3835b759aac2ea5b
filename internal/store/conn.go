// Package store persists normalized patient records into the per-hospital
// PostgreSQL databases.
package store

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/fmed-ingest/internal/config"
	"github.com/JonMunkholm/fmed-ingest/internal/core"
)

// Tx is the subset of pgx.Tx the loader uses.
type Tx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Conn is one open connection to a partition database.
type Conn interface {
	Begin(ctx context.Context) (Tx, error)
	Close(ctx context.Context) error
}

// Connector opens a connection to the database backing a partition.
type Connector interface {
	Connect(ctx context.Context, partition core.Partition) (Conn, error)
}

// PgConnector connects with pgx using fixed host credentials and a
// partition-derived database name.
type PgConnector struct {
	cfg config.DatabaseConfig
}

// NewPgConnector returns a connector for cfg.
func NewPgConnector(cfg config.DatabaseConfig) *PgConnector {
	return &PgConnector{cfg: cfg}
}

// DatabaseName returns the database name for partition.
func (c *PgConnector) DatabaseName(partition core.Partition) string {
	return fmt.Sprintf(c.cfg.NameTemplate, int(partition))
}

// DSN builds the connection URL for partition.
func (c *PgConnector) DSN(partition core.Partition) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port)),
		Path:   "/" + c.DatabaseName(partition),
	}
	if c.cfg.Password != "" {
		u.User = url.UserPassword(c.cfg.User, c.cfg.Password)
	} else {
		u.User = url.User(c.cfg.User)
	}

	q := url.Values{}
	q.Set("sslmode", c.cfg.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Connect opens a single connection; callers close it when the load ends.
func (c *PgConnector) Connect(ctx context.Context, partition core.Partition) (Conn, error) {
	connCfg, err := pgx.ParseConfig(c.DSN(partition))
	if err != nil {
		return nil, fmt.Errorf("parse connection config: %w", err)
	}
	connCfg.ConnectTimeout = c.cfg.ConnectTimeout

	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", c.DatabaseName(partition), err)
	}
	return pgConn{conn: conn}, nil
}

type pgConn struct {
	conn *pgx.Conn
}

func (p pgConn) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (p pgConn) Close(ctx context.Context) error {
	return p.conn.Close(ctx)
}
