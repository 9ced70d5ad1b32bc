package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"incident-assistant/internal/common/config"
	"incident-assistant/internal/common/logger"
	"incident-assistant/internal/common/observability"
	mcpserver "incident-assistant/internal/mcp"
)

func serveCmd(root *rootOptions) *cobra.Command {
	var (
		transport string
		addr      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the helpdesk MCP tool server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkTransport(transport); err != nil {
				return err
			}
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if transport != "" {
				cfg.MCP.Transport = transport
			}
			if addr == "" {
				addr = cfg.MCP.Addr()
			}

			// stdout belongs to the protocol on stdio.
			output := ""
			if cfg.MCP.Transport == config.TransportStdio {
				output = "stderr"
			}
			zapLog, log := newLogger(cfg.Logging, output)
			defer func() { _ = zapLog.Sync() }()

			return runServe(cmd.Context(), cfg, addr, log)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "", "MCP transport: http or stdio (default mcp.transport)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address for the http transport (default mcp.host:mcp.port)")
	return cmd
}

func checkTransport(t string) error {
	switch t {
	case "", config.TransportHTTP, config.TransportStdio:
		return nil
	}
	return fmt.Errorf("unsupported transport %q: use %s or %s", t, config.TransportHTTP, config.TransportStdio)
}

func runServe(ctx context.Context, cfg *config.Config, addr string, log logger.Logger) error {
	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	tools, err := newTools(ctx, cfg, b.store, log)
	if err != nil {
		return err
	}

	tracing, err := observability.NewTracing(cfg.Tracing, mcpserver.ServerName)
	if err != nil {
		return err
	}
	obs, err := observability.New(mcpserver.ServerName, prometheus.DefaultRegisterer, tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Observability shutdown failed", nil)
		}
	}()

	if side := healthAddr(cfg, addr); side != "" {
		hs, _, err := startHealthServer(side, newHealthRouter(b.ready), log)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = hs.Shutdown(shutdownCtx)
		}()
	}

	srv, err := mcpserver.New(tools,
		mcpserver.WithLogger(log),
		mcpserver.WithObservability(obs),
		mcpserver.WithVersion(Version),
	)
	if err != nil {
		return err
	}

	log.Info("Starting MCP server", map[string]interface{}{
		"transport":     cfg.MCP.Transport,
		"emailProvider": cfg.Notifications.Email.Provider,
	})

	if cfg.MCP.Transport == config.TransportStdio {
		return srv.ServeStdio(ctx)
	}
	return srv.ServeHTTP(ctx, addr, newRouter(srv.HTTPHandler(), cfg.MCP.Path, b.ready))
}

// newRouter mounts the MCP endpoint at path next to the health, readiness
// and metrics endpoints.
func newRouter(mcpHandler http.Handler, path string, ready func(context.Context) error) http.Handler {
	r := newHealthRouter(ready)
	r.Handle(path, mcpHandler)
	return r
}

func newHealthRouter(ready func(context.Context) error) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", "")
	})
	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		if err := ready(req.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "unavailable", err.Error())
			return
		}
		writeStatus(w, http.StatusOK, "ready", "")
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// healthAddr returns where the standalone health and metrics server
// listens, or "" when it is disabled or the http transport already serves
// those endpoints on the same address.
func healthAddr(cfg *config.Config, mcpAddr string) string {
	if !cfg.Metrics.Enabled {
		return ""
	}
	if cfg.MCP.Transport == config.TransportHTTP && cfg.Metrics.Address == mcpAddr {
		return ""
	}
	return cfg.Metrics.Address
}

func startHealthServer(addr string, handler http.Handler, log logger.Logger) (*http.Server, net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Health/Metrics server failed", nil)
		}
	}()
	log.Info("Health/Metrics server listening", map[string]interface{}{"address": ln.Addr().String()})
	return srv, ln.Addr(), nil
}

func writeStatus(w http.ResponseWriter, code int, status, detail string) {
	body := map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if detail != "" {
		body["error"] = detail
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
