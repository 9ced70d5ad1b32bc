package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"

	"incident-assistant/internal/common/config"
	"incident-assistant/internal/common/logger"
)

//go:embed migrations/mysql/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

func init() {
	goose.SetBaseFS(migrationsFS)
}

// migrationDir returns the embedded directory for a driver name.
func migrationDir(driver string) (string, error) {
	switch driver {
	case config.DriverMySQL, config.DriverPostgres:
		return "migrations/" + driver, nil
	default:
		return "", fmt.Errorf("no migrations for driver %q", driver)
	}
}

// Migrations lists the embedded migration files for driver.
func Migrations(driver string) ([]string, error) {
	dir, err := migrationDir(driver)
	if err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Migrate applies all pending migrations for driver. Pass a nil logger to
// silence goose.
func Migrate(ctx context.Context, db *sql.DB, driver string, log logger.Logger) error {
	dir, err := migrationDir(driver)
	if err != nil {
		return err
	}
	if err := goose.SetDialect(driver); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if log == nil {
		goose.SetLogger(goose.NopLogger())
	} else {
		goose.SetLogger(gooseLogger{log})
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

type gooseLogger struct {
	log logger.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), nil)
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), nil)
}
