package mcp

import (
	"context"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"incident-assistant/internal/common/errors"
	"incident-assistant/internal/common/metrics"
	"incident-assistant/internal/common/observability"
	"incident-assistant/internal/store"
	emailsend "incident-assistant/internal/workers/communication/email-send"
	createincident "incident-assistant/internal/workers/incident/create-incident"
	searchincidents "incident-assistant/internal/workers/incident/search-incidents"
	searchknowledgebase "incident-assistant/internal/workers/knowledge/search-knowledge-base"
)

// Tool names.
const (
	ToolSearchKnowledgeBase = "search_knowledge_base"
	ToolSearchIncidents     = "search_incidents"
	ToolCreateIncident      = "create_incident"
	ToolEmailSendMock       = "email_send_mock"
	ToolEmailSend           = "email_send"
)

func (s *Server) serverTools() []mcpsrv.ServerTool {
	tools := []mcpsrv.ServerTool{
		s.toolSearchKnowledgeBase(),
		s.toolSearchIncidents(),
		s.toolCreateIncident(),
		s.toolEmailSend(ToolEmailSendMock, "Simulates sending an email notification (mock only).", s.tools.MockEmail),
	}
	if s.tools.Email != nil {
		tools = append(tools, s.toolEmailSend(ToolEmailSend,
			"Sends an email notification through the configured provider ("+s.tools.EmailProvider+").", s.tools.Email))
	}
	return tools
}

func searchParams() []mcplib.ToolOption {
	return []mcplib.ToolOption{
		mcplib.WithString("short_description_contains",
			mcplib.Description("Free-text issue description. Stopwords are dropped and the remaining keywords are OR-matched."),
		),
		mcplib.WithNumber("limit",
			mcplib.Description("Maximum number of rows to return."),
			mcplib.DefaultNumber(store.DefaultLimit),
			mcplib.Min(0),
			mcplib.Max(store.MaxLimit),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	}
}

func (s *Server) toolSearchKnowledgeBase() mcpsrv.ServerTool {
	opts := append([]mcplib.ToolOption{
		mcplib.WithDescription("Search Knowledge Base articles using meaningful keywords."),
	}, searchParams()...)
	return mcpsrv.ServerTool{
		Tool:    mcplib.NewTool(ToolSearchKnowledgeBase, opts...),
		Handler: handle(s, ToolSearchKnowledgeBase, searchknowledgebase.ParseInput, s.tools.Knowledge),
	}
}

func (s *Server) toolSearchIncidents() mcpsrv.ServerTool {
	opts := append([]mcplib.ToolOption{
		mcplib.WithDescription("Search Incident records using meaningful keywords."),
	}, searchParams()...)
	return mcpsrv.ServerTool{
		Tool:    mcplib.NewTool(ToolSearchIncidents, opts...),
		Handler: handle(s, ToolSearchIncidents, searchincidents.ParseInput, s.tools.Incidents),
	}
}

func (s *Server) toolCreateIncident() mcpsrv.ServerTool {
	tool := mcplib.NewTool(ToolCreateIncident,
		mcplib.WithDescription("Insert a new incident record into the incident database."),
		mcplib.WithString("number",
			mcplib.Description("Unique incident number, e.g. INC20240101120000."),
			mcplib.Required(),
		),
		mcplib.WithString("opened",
			mcplib.Description("When the incident was opened, ISO-8601 (RFC 3339 or without zone)."),
			mcplib.Required(),
		),
		mcplib.WithString("short_description", mcplib.Required()),
		mcplib.WithString("description", mcplib.Required()),
		mcplib.WithString("state",
			mcplib.Enum(store.IncidentStates...),
			mcplib.DefaultString(store.StateNew),
		),
		mcplib.WithString("assigned_to",
			mcplib.Description("Assignee; omit or leave empty for unassigned."),
		),
		mcplib.WithDestructiveHintAnnotation(false),
		mcplib.WithIdempotentHintAnnotation(false),
	)
	return mcpsrv.ServerTool{
		Tool:    tool,
		Handler: handle(s, ToolCreateIncident, createincident.ParseInput, s.tools.Create),
	}
}

func (s *Server) toolEmailSend(name, description string, exec Executor[emailsend.Input, emailsend.Output]) mcpsrv.ServerTool {
	tool := mcplib.NewTool(name,
		mcplib.WithDescription(description),
		mcplib.WithArray("to",
			mcplib.Description("Recipient addresses."),
			mcplib.WithStringItems(),
			mcplib.Required(),
		),
		mcplib.WithString("subject", mcplib.Required()),
		mcplib.WithString("body", mcplib.Required()),
		mcplib.WithArray("cc", mcplib.WithStringItems()),
		mcplib.WithArray("bcc", mcplib.WithStringItems()),
	)
	return mcpsrv.ServerTool{
		Tool:    tool,
		Handler: handle(s, name, emailsend.ParseInput, exec),
	}
}

// handle adapts a worker operation to an MCP tool handler. Failures become
// IsError results so the caller sees them as tool output.
func handle[I, O any](
	s *Server,
	name string,
	parse func(map[string]interface{}) (*I, error),
	exec Executor[I, O],
) mcpsrv.ToolHandlerFunc {
	return func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		start := time.Now()
		ctx, span := s.tracing.StartSpan(ctx, "mcp.tool", map[string]string{"tool": name})

		out, err := invoke(ctx, req.GetArguments(), parse, exec)

		observability.EndSpan(span, err)
		s.record(ctx, name, err, time.Since(start))

		if err != nil {
			s.logger.WithError(err).Warn("Tool call failed", map[string]interface{}{
				"tool":      name,
				"errorCode": string(errors.Normalize(err).Code),
			})
			return resultErr(err), nil
		}
		s.logger.Debug("Tool call completed", map[string]interface{}{
			"tool":     name,
			"duration": time.Since(start).String(),
		})
		return resultStructured(out), nil
	}
}

func invoke[I, O any](
	ctx context.Context,
	args map[string]any,
	parse func(map[string]interface{}) (*I, error),
	exec Executor[I, O],
) (*O, error) {
	input, err := parse(args)
	if err != nil {
		return nil, err
	}
	return exec.Execute(ctx, input)
}

func (s *Server) record(ctx context.Context, tool string, err error, d time.Duration) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	metrics.ToolCalls.WithLabelValues(tool, status).Inc()
	metrics.ToolCallDuration.WithLabelValues(tool).Observe(d.Seconds())
	s.obs.Record(ctx, tool, status, d)
}
