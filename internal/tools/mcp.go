package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"mosaic/internal/config"
	"mosaic/internal/llm"
)

// mcpCallTimeout bounds a single bridged tool invocation.
const mcpCallTimeout = 30 * time.Second

// mcpClient abstracts the MCP client for testability.
type mcpClient interface {
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

type mcpServerConn struct {
	name   string
	client mcpClient
}

// MCPBridge is the protocol-bridged tool source: it connects to the
// configured MCP servers and surfaces their tools in the registry
// under mcp_<server>_<tool> names.
type MCPBridge struct {
	servers []mcpServerConn
}

func NewMCPBridge(ctx context.Context, servers []config.MCPServer) (*MCPBridge, error) {
	b := &MCPBridge{}
	for _, srv := range servers {
		conn, err := b.connect(ctx, srv)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("mcp server %q: %w", srv.Name, err)
		}
		b.servers = append(b.servers, *conn)
	}
	return b, nil
}

func newMCPBridgeWithClients(servers []mcpServerConn) *MCPBridge {
	return &MCPBridge{servers: servers}
}

func (b *MCPBridge) connect(ctx context.Context, srv config.MCPServer) (*mcpServerConn, error) {
	var c mcpClient
	var err error

	switch srv.Transport {
	case "stdio":
		c, err = mcpclient.NewStdioMCPClient(srv.Command, envSlice(srv.Env), srv.Args...)
		if err != nil {
			return nil, fmt.Errorf("create stdio client: %w", err)
		}
	case "http":
		t, tErr := transport.NewStreamableHTTP(srv.URL)
		if tErr != nil {
			return nil, fmt.Errorf("create http transport: %w", tErr)
		}
		httpClient := mcpclient.NewClient(t)
		if err = httpClient.Start(ctx); err != nil {
			return nil, fmt.Errorf("start http client: %w", err)
		}
		c = httpClient
	default:
		return nil, fmt.Errorf("unsupported transport %q", srv.Transport)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "mosaic",
		Version: "1.0.0",
	}

	if ic, ok := c.(interface {
		Initialize(ctx context.Context, request mcp.InitializeRequest) (*mcp.InitializeResult, error)
	}); ok {
		if _, err = ic.Initialize(ctx, initReq); err != nil {
			c.Close()
			return nil, fmt.Errorf("initialize: %w", err)
		}
	}

	slog.Info("mcp server connected", "name", srv.Name, "transport", srv.Transport)
	return &mcpServerConn{name: srv.Name, client: c}, nil
}

func (b *MCPBridge) Category() Category { return CategoryBridged }

// Discover lists tools from every connected server. A server that
// fails discovery is skipped with a warning; Discover only errors when
// every server fails.
func (b *MCPBridge) Discover(ctx context.Context) ([]Tool, error) {
	if len(b.servers) == 0 {
		return nil, nil
	}

	var out []Tool
	var errs []string
	succeeded := 0

	for _, srv := range b.servers {
		result, err := srv.client.ListTools(ctx, mcp.ListToolsRequest{})
		if err != nil {
			slog.Warn("mcp server discovery failed, skipping", "server", srv.name, "error", err)
			errs = append(errs, fmt.Sprintf("%s: %v", srv.name, err))
			continue
		}
		for _, t := range result.Tools {
			out = append(out, newMCPTool(srv.name, srv.client, t))
		}
		slog.Info("mcp tools discovered", "server", srv.name, "count", len(result.Tools))
		succeeded++
	}

	if succeeded == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("all mcp servers failed discovery: %s", strings.Join(errs, "; "))
	}
	return out, nil
}

// Close shuts down all server connections.
func (b *MCPBridge) Close() {
	for _, srv := range b.servers {
		if err := srv.client.Close(); err != nil {
			slog.Warn("mcp server close error", "server", srv.name, "error", err)
		}
	}
}

// mcpTool adapts one discovered MCP tool to the registry interface.
type mcpTool struct {
	serverName string
	client     mcpClient
	def        mcp.Tool
	fullName   string
}

func newMCPTool(serverName string, client mcpClient, def mcp.Tool) *mcpTool {
	return &mcpTool{
		serverName: serverName,
		client:     client,
		def:        def,
		fullName:   fmt.Sprintf("mcp_%s_%s", mcpName(serverName), mcpName(def.Name)),
	}
}

func (t *mcpTool) Name() string { return t.fullName }

func (t *mcpTool) Description() string {
	if t.def.Description != "" {
		return t.def.Description
	}
	return fmt.Sprintf("MCP tool %q from server %q", t.def.Name, t.serverName)
}

func (t *mcpTool) Schema() llm.ParameterSchema {
	schema := llm.ParameterSchema{
		Type:       "object",
		Properties: map[string]llm.Property{},
		Required:   t.def.InputSchema.Required,
	}
	for name, raw := range t.def.InputSchema.Properties {
		prop := llm.Property{Type: "string"}
		if m, ok := raw.(map[string]any); ok {
			if typ, ok := m["type"].(string); ok {
				prop.Type = typ
			}
			if desc, ok := m["description"].(string); ok {
				prop.Description = desc
			}
		}
		schema.Properties[name] = prop
	}
	return schema
}

func (t *mcpTool) Execute(ctx context.Context, input string) (string, error) {
	var args map[string]any
	if input != "" && input != "null" {
		if err := json.Unmarshal([]byte(input), &args); err != nil {
			return "", fmt.Errorf("parsing mcp arguments: %w", err)
		}
	}

	callReq := mcp.CallToolRequest{}
	callReq.Params.Name = t.def.Name
	callReq.Params.Arguments = args

	callCtx, cancel := context.WithTimeout(ctx, mcpCallTimeout)
	defer cancel()

	result, err := t.client.CallTool(callCtx, callReq)
	if err != nil {
		return "", fmt.Errorf("mcp call %s: %w", t.def.Name, err)
	}

	content := extractMCPContent(result)
	if result.IsError {
		return "", fmt.Errorf("mcp tool %s: %s", t.def.Name, content)
	}
	return content, nil
}

func extractMCPContent(result *mcp.CallToolResult) string {
	var parts []string
	for _, c := range result.Content {
		switch v := c.(type) {
		case mcp.TextContent:
			parts = append(parts, v.Text)
		case *mcp.TextContent:
			parts = append(parts, v.Text)
		default:
			if data, err := json.Marshal(v); err == nil {
				parts = append(parts, string(data))
			}
		}
	}
	return strings.Join(parts, "\n")
}

// mcpName replaces characters that aren't valid in tool names.
func mcpName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func envSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
