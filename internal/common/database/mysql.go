package database

import (
	"fmt"
	"net"
	"strconv"

	"incident-assistant/internal/common/config"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

func NewMySQL(cfg config.MySQLConfig) (*SQLClient, error) {
	db, err := sqlx.Open(config.DriverMySQL, MySQLDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}

	configurePool(db, cfg.MaxConnections, cfg.MaxIdle)

	return &SQLClient{DB: db, Driver: config.DriverMySQL}, nil
}

// MySQLDSN builds a go-sql-driver DSN. ParseTime is on so DATETIME columns
// scan into time.Time; MultiStatements lets goose run whole migration files.
func MySQLDSN(cfg config.MySQLConfig) string {
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	c.DBName = cfg.Database
	c.ParseTime = true
	c.MultiStatements = true
	return c.FormatDSN()
}
