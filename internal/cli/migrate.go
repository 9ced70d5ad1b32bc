package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"incident-assistant/internal/common/config"
	"incident-assistant/internal/common/database"
	"incident-assistant/internal/store"
)

func migrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the knowledge base and incident tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			zapLog, log := newLogger(cfg.Logging, "")
			defer func() { _ = zapLog.Sync() }()

			if err := config.ValidateForStore(cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			sqlClient, err := database.NewSQL(cfg.Database)
			if err != nil {
				return err
			}
			defer func() { _ = sqlClient.Close() }()

			ctx := cmd.Context()
			if err := sqlClient.Ping(ctx); err != nil {
				return fmt.Errorf("connect to %s: %w", cfg.Database.Driver, err)
			}
			if err := store.Migrate(ctx, sqlClient.GetDB().DB, cfg.Database.Driver, log); err != nil {
				return err
			}
			log.Info("Migrations applied", map[string]interface{}{"driver": cfg.Database.Driver})
			return nil
		},
	}
}
