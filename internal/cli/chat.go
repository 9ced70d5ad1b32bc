package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"incident-assistant/internal/agent"
	"incident-assistant/internal/common/config"
	"incident-assistant/internal/common/logger"
	mcpserver "incident-assistant/internal/mcp"
	"incident-assistant/internal/ui"
	llmsynthesis "incident-assistant/internal/workers/ai-conversation/llm-synthesis"
)

func chatCmd(root *rootOptions) *cobra.Command {
	var (
		mcpURL    string
		inProcess bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive incident assistant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			// Logs share the terminal with the conversation.
			if root.logLevel == "" {
				cfg.Logging.Level = "warn"
			}
			zapLog, log := newLogger(cfg.Logging, "stderr")
			defer func() { _ = zapLog.Sync() }()

			ctx := cmd.Context()
			var tools *agent.MCPClient
			if inProcess {
				var closeFn func()
				tools, closeFn, err = dialInProcess(ctx, cfg, log)
				if err != nil {
					return err
				}
				defer closeFn()
			} else {
				if mcpURL == "" {
					mcpURL = cfg.MCP.ClientURL()
				}
				tools, err = agent.Dial(ctx, mcpURL, Version)
				if err != nil {
					return fmt.Errorf("connect to MCP server at %s: %w", mcpURL, err)
				}
			}
			defer func() { _ = tools.Close() }()

			llm, err := llmsynthesis.NewHandler(llmsynthesis.HandlerOptions{AppConfig: cfg, Logger: log})
			if err != nil {
				return err
			}

			a, err := agent.New(agent.Options{
				Tools:          tools,
				Summarizer:     llm.Service(),
				Prompter:       ui.NewPrompter(),
				Renderer:       ui.NewConsole(os.Stdout),
				Logger:         log,
				SupportAddress: cfg.Notifications.SupportAddress,
				NotifyTool:     notifyTool(cfg),
			})
			if err != nil {
				return err
			}
			return a.Chat(ctx)
		},
	}

	cmd.Flags().StringVar(&mcpURL, "mcp-url", "", "MCP server URL (default mcp.url or http://mcp.host:mcp.port/mcp)")
	cmd.Flags().BoolVar(&inProcess, "in-process", false, "run the tools in this process instead of dialing an MCP server")
	return cmd
}

// dialInProcess opens the store and serves the tools to the agent without a
// network hop.
func dialInProcess(ctx context.Context, cfg *config.Config, log logger.Logger) (*agent.MCPClient, func(), error) {
	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	tools, err := newTools(ctx, cfg, b.store, log)
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	srv, err := mcpserver.New(tools, mcpserver.WithLogger(log), mcpserver.WithVersion(Version))
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	c, err := agent.DialInProcess(ctx, srv.MCPServer(), Version)
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	return c, b.Close, nil
}

// notifyTool picks email_send when a real provider is configured.
func notifyTool(cfg *config.Config) string {
	if cfg.Notifications.Email.Provider == config.EmailProviderMock {
		return mcpserver.ToolEmailSendMock
	}
	return mcpserver.ToolEmailSend
}
