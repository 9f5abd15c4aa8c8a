// Package driver
package driver

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPool is the slice of pgxpool.Pool the repositories depend on. Kept
// narrow enough that a mock pool satisfies it in tests.
type PostgresPool interface {
	// BeginTx starts a new transaction and returns a Tx.
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)

	// Exec executes an SQL command and returns the command tag.
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)

	// Query executes an SQL query and returns the resulting rows.
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)

	// QueryRow executes an SQL query and returns a single row.
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row

	// Ping verifies the connection to the database is still alive.
	Ping(ctx context.Context) error

	// Close closes the pool and all its connections.
	Close()
}

// Querier is the query surface shared by a pool and an open transaction.
// Repository methods accept an optional transaction and fall back to the pool.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// maxOpenDbConn defines the maximum number of open database connections.
const maxOpenDbConn = 10

// maxDbLifetime is the maximum lifetime of a database connection in the pool.
const maxDbLifetime = 5 * time.Minute

// ConnectSQL connects to the Postgres server and returns the connection pool.
func ConnectSQL(dsn string) (PostgresPool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	config.MaxConns = int32(maxOpenDbConn)
	config.MaxConnLifetime = maxDbLifetime

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	if err = testDB(pool); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// testDB pings the database to verify the connection
func testDB(p *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return p.Ping(ctx)
}
