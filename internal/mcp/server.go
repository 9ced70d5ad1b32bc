// Package mcp exposes the helpdesk tools over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"incident-assistant/internal/common/logger"
	"incident-assistant/internal/common/observability"
	emailsend "incident-assistant/internal/workers/communication/email-send"
	createincident "incident-assistant/internal/workers/incident/create-incident"
	searchincidents "incident-assistant/internal/workers/incident/search-incidents"
	searchknowledgebase "incident-assistant/internal/workers/knowledge/search-knowledge-base"
)

const (
	ServerName    = "helpdesk-mcp"
	serverVersion = "1.0.0"

	// DefaultPath is where the Streamable HTTP transport listens.
	DefaultPath = "/mcp"
)

// Executor runs one tool operation. The worker handlers satisfy it.
type Executor[I, O any] interface {
	Execute(ctx context.Context, input *I) (*O, error)
}

// Tools are the operations served by the MCP server. All four are required.
type Tools struct {
	Knowledge Executor[searchknowledgebase.Input, searchknowledgebase.Output]
	Incidents Executor[searchincidents.Input, searchincidents.Output]
	Create    Executor[createincident.Input, createincident.Output]
	// MockEmail backs email_send_mock and must never deliver mail.
	MockEmail Executor[emailsend.Input, emailsend.Output]
	// Email backs email_send through the configured provider. Nil leaves
	// email_send unregistered.
	Email Executor[emailsend.Input, emailsend.Output]

	// EmailProvider names the provider behind Email.
	EmailProvider string
}

func (t Tools) validate() error {
	switch {
	case t.Knowledge == nil:
		return errors.New("knowledge search tool is required")
	case t.Incidents == nil:
		return errors.New("incident search tool is required")
	case t.Create == nil:
		return errors.New("create incident tool is required")
	case t.MockEmail == nil:
		return errors.New("mock email tool is required")
	}
	return nil
}

// Server wraps an MCP server and the tools it dispatches to.
type Server struct {
	mcp     *mcpsrv.MCPServer
	tools   Tools
	logger  logger.Logger
	obs     *observability.Observability
	tracing *observability.Tracing
	version string
}

type Option func(*Server)

func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObservability records every tool call on o and traces it with o's
// tracer.
func WithObservability(o *observability.Observability) Option {
	return func(s *Server) {
		s.obs = o
	}
}

func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// New creates the MCP server with all tools registered. It does not listen
// until one of the Serve* methods is called.
func New(tools Tools, opts ...Option) (*Server, error) {
	if err := tools.validate(); err != nil {
		return nil, fmt.Errorf("mcp: %w", err)
	}

	s := &Server{
		tools:   tools,
		logger:  logger.NewNoOpLogger(),
		version: serverVersion,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tracing = s.obs.Tracing()
	if s.tracing == nil {
		s.tracing = observability.NoopTracing(ServerName)
	}

	s.mcp = mcpsrv.NewMCPServer(
		ServerName,
		s.version,
		mcpsrv.WithToolCapabilities(false),
		mcpsrv.WithInstructions(instructions),
	)
	for _, t := range s.serverTools() {
		s.mcp.AddTool(t.Tool, t.Handler)
	}
	return s, nil
}

const instructions = `You are connected to the helpdesk MCP server.

Tools let you search the IT knowledge base and past incidents by keywords
from a short description, open new incidents and notify the support team by
email. Search results are ordered newest first.`

// MCPServer returns the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *mcpsrv.MCPServer {
	return s.mcp
}

// HTTPHandler returns the Streamable HTTP handler, for mounting on a router.
func (s *Server) HTTPHandler() http.Handler {
	return mcpsrv.NewStreamableHTTPServer(s.mcp)
}

// ServeStdio runs the server over stdin/stdout until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.serveStdio(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serveStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	srv := mcpsrv.NewStdioServer(s.mcp)
	s.logger.Info("MCP server listening on stdio", nil)
	if err := srv.Listen(ctx, in, out); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("mcp stdio server: %w", err)
	}
	return nil
}

// ServeHTTP serves handler (normally a router with the MCP endpoint mounted)
// on addr until ctx is cancelled.
func (s *Server) ServeHTTP(ctx context.Context, addr string, handler http.Handler) error {
	if handler == nil {
		mux := http.NewServeMux()
		mux.Handle(DefaultPath, s.HTTPHandler())
		handler = mux
	}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("MCP server listening on http", map[string]interface{}{"addr": addr})

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("mcp http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("MCP server shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("mcp http server shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// resultErr wraps an error in a CallToolResult with IsError set.
func resultErr(err error) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(err.Error())},
		IsError: true,
	}
}

// resultStructured returns v as structured content with its JSON encoding
// as the text fallback.
func resultStructured(v any) *mcplib.CallToolResult {
	return mcplib.NewToolResultStructuredOnly(v)
}
