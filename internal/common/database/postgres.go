package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"school-pickup/internal/common/config"
	apperrors "school-pickup/internal/common/errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresClient owns the connection pool. DB is the raw handle, X the sqlx view of it.
type PostgresClient struct {
	DB *sql.DB
	X  *sqlx.DB
}

// NewPostgres opens a pool with the configured limits. It does not ping.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return WrapPostgres(db), nil
}

// WrapPostgres adapts an existing *sql.DB, e.g. one created by sqlmock.
func WrapPostgres(db *sql.DB) *PostgresClient {
	return &PostgresClient{DB: db, X: sqlx.NewDb(db, "postgres")}
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return apperrors.NewDatabaseConnectionFailedError(err)
	}
	return nil
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// WithTx runs fn inside a transaction, rolling back when fn fails.
func (c *PostgresClient) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := c.X.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
