package agent

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"incident-assistant/internal/common/errors"
)

const clientName = "helpdesk-assistant"

// ToolCaller invokes MCP tools by name.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (*mcplib.CallToolResult, error)
}

// MCPClient is a ToolCaller over an initialized mcp-go client session.
type MCPClient struct {
	c *client.Client
}

// Dial connects to a Streamable HTTP MCP server at url.
func Dial(ctx context.Context, url, version string) (*MCPClient, error) {
	c, err := client.NewStreamableHttpClient(url)
	if err != nil {
		return nil, fmt.Errorf("create mcp client for %s: %w", url, err)
	}
	return start(ctx, c, version)
}

// DialInProcess connects to srv without a network transport.
func DialInProcess(ctx context.Context, srv *mcpsrv.MCPServer, version string) (*MCPClient, error) {
	c, err := client.NewInProcessClient(srv)
	if err != nil {
		return nil, fmt.Errorf("create in-process mcp client: %w", err)
	}
	return start(ctx, c, version)
}

func start(ctx context.Context, c *client.Client, version string) (*MCPClient, error) {
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("start mcp client: %w", err)
	}

	req := mcplib.InitializeRequest{}
	req.Params.ProtocolVersion = mcplib.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcplib.Implementation{Name: clientName, Version: version}
	if _, err := c.Initialize(ctx, req); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialize mcp session: %w", err)
	}
	return &MCPClient{c: c}, nil
}

func (m *MCPClient) CallTool(ctx context.Context, name string, args map[string]any) (*mcplib.CallToolResult, error) {
	req := mcplib.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return m.c.CallTool(ctx, req)
}

func (m *MCPClient) Close() error {
	return m.c.Close()
}

// callTool invokes name and decodes its structured result (or, failing
// that, its JSON text content) into T.
func callTool[T any](ctx context.Context, tc ToolCaller, name string, args map[string]any) (*T, error) {
	res, err := tc.CallTool(ctx, name, args)
	if err != nil {
		return nil, errors.NewToolCallFailedError(name, err)
	}
	if res == nil {
		return nil, errors.NewToolCallFailedError(name, stderrors.New("empty result"))
	}
	if res.IsError {
		return nil, errors.NewToolCallFailedError(name, stderrors.New(resultText(res)))
	}

	var raw []byte
	if res.StructuredContent != nil {
		raw, err = json.Marshal(res.StructuredContent)
		if err != nil {
			return nil, errors.NewToolCallFailedError(name, fmt.Errorf("encode structured content: %w", err))
		}
	} else {
		raw = []byte(resultText(res))
	}

	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, errors.NewToolCallFailedError(name, fmt.Errorf("decode result: %w", err))
	}
	return out, nil
}

func resultText(res *mcplib.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if tc, ok := mcplib.AsTextContent(c); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
