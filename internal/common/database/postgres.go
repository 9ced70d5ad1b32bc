package database

import (
	"fmt"

	"incident-assistant/internal/common/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func NewPostgres(cfg config.PostgresConfig) (*SQLClient, error) {
	db, err := sqlx.Open(config.DriverPostgres, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	configurePool(db, cfg.MaxConnections, cfg.MaxIdle)

	return &SQLClient{DB: db, Driver: config.DriverPostgres}, nil
}
