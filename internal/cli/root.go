// Package cli implements the assistant command: the MCP tool server, the
// interactive chat agent and schema migrations.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"incident-assistant/internal/common/config"
	"incident-assistant/internal/common/logger"
)

// Version is stamped at build time.
var Version = "dev"

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "assistant",
		Short:        "IT incident assistant: MCP tool server and chat agent",
		Version:      Version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default configs/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	cmd.AddCommand(
		serveCmd(opts),
		chatCmd(opts),
		migrateCmd(opts),
	)
	return cmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, nil
}

// newLogger builds the zap logger for cfg, writing to output instead of the
// configured destination when output is set.
func newLogger(cfg config.LoggingConfig, output string) (*zap.Logger, logger.Logger) {
	if output == "" {
		output = cfg.Output
	}
	z := logger.New(cfg.Level, cfg.Format, output)
	return z, logger.NewZapAdapter(z)
}
