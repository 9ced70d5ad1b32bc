package database

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"incident-assistant/internal/common/config"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// SQLClient wraps the helpdesk SQL database, MySQL or PostgreSQL.
type SQLClient struct {
	DB     *sqlx.DB
	Driver string
}

// NewSQL opens the database selected by cfg.Driver. The connection is lazy;
// call Ping to verify it.
func NewSQL(cfg config.DatabaseConfig) (*SQLClient, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		return NewMySQL(cfg.MySQL)
	case config.DriverPostgres:
		return NewPostgres(cfg.Postgres)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewSQLFromDB wraps an existing handle, e.g. one from sqlmock.
func NewSQLFromDB(db *sql.DB, driver string) *SQLClient {
	return &SQLClient{DB: sqlx.NewDb(db, driver), Driver: driver}
}

func configurePool(db *sqlx.DB, maxOpen, maxIdle int) {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
}

func (c *SQLClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *SQLClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

func (c *SQLClient) GetDB() *sqlx.DB {
	return c.DB
}

// IsDuplicateKey reports whether err is a unique constraint violation from
// either supported driver.
func IsDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	if stderrors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
