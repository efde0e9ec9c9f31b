// Package mcp exposes tools from Model Context Protocol servers as llm
// tools.
//
// MCP servers declare arbitrary JSON Schemas for their tool inputs.
// Those schemas are handed to the call pipeline as-is; the pipeline
// rewrites them into the strict dialect per call and restores any
// sanitized enum values inside tool-call arguments before execution,
// so MCP servers always receive the values they declared.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/i2y/bridle/llm"
)

// Client is a connected session with an MCP server.
type Client struct {
	session *mcp.ClientSession
	timeout time.Duration
}

// Option configures the MCP client.
type Option func(*clientConfig)

type clientConfig struct {
	timeout time.Duration
}

// WithTimeout bounds the execution time of a single tool call.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// NewStdioClient starts command as a subprocess and speaks MCP to it
// over stdin and stdout.
//
// Example:
//
//	client, err := mcp.NewStdioClient(ctx, "./my-mcp-server", nil)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	tools, err := client.Tools(ctx)
func NewStdioClient(ctx context.Context, command string, args []string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "bridle",
		Version: "0.1.0",
	}, nil)

	transport := &mcp.CommandTransport{
		Command: exec.Command(command, args...),
	}

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to MCP server: %w", err)
	}

	return &Client{
		session: session,
		timeout: cfg.timeout,
	}, nil
}

// Tools lists the server's tools as llm Tools, ready to pass to
// llm.WithTools.
func (c *Client) Tools(ctx context.Context) ([]llm.Tool, error) {
	result, err := c.session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return nil, fmt.Errorf("listing MCP tools: %w", err)
	}

	tools := make([]llm.Tool, 0, len(result.Tools))
	for _, def := range result.Tools {
		tools = append(tools, &serverTool{client: c, def: def})
	}
	return tools, nil
}

// Close terminates the session and the server subprocess.
func (c *Client) Close() error {
	return c.session.Close()
}

// serverTool adapts one MCP tool definition to the llm.Tool interface.
type serverTool struct {
	client *Client
	def    *mcp.Tool
}

func (t *serverTool) Name() string { return t.def.Name }

func (t *serverTool) Description() string { return t.def.Description }

// Parameters returns the server-declared input schema unchanged. The
// call pipeline strictifies it alongside every other tool schema.
func (t *serverTool) Parameters() *jsonschema.Schema {
	raw, err := json.Marshal(t.def.InputSchema)
	if err != nil {
		return &jsonschema.Schema{Type: "object"}
	}

	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return &jsonschema.Schema{Type: "object"}
	}
	return &schema
}

// Execute forwards a tool call to the MCP server. Arguments arriving
// from a model response have already had sanitized values restored.
func (t *serverTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, t.client.timeout)
	defer cancel()

	var arguments map[string]any
	if err := json.Unmarshal(args, &arguments); err != nil {
		return nil, fmt.Errorf("parsing arguments: %w", err)
	}

	result, err := t.client.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      t.def.Name,
		Arguments: arguments,
	})
	if err != nil {
		return nil, fmt.Errorf("calling MCP tool: %w", err)
	}

	text := flattenContent(result.Content)
	if result.IsError {
		return nil, fmt.Errorf("MCP tool error: %s", text)
	}
	return text, nil
}

// flattenContent renders a tool result as a single string. Text items
// pass through, other content kinds become short placeholders, and
// items are joined with newlines.
func flattenContent(content []mcp.Content) string {
	var parts []string
	for _, c := range content {
		switch item := c.(type) {
		case *mcp.TextContent:
			parts = append(parts, item.Text)
		case *mcp.ImageContent:
			parts = append(parts, fmt.Sprintf("[Image: %s, %d bytes]", item.MIMEType, len(item.Data)))
		case *mcp.EmbeddedResource:
			if item.Resource != nil {
				parts = append(parts, fmt.Sprintf("[Resource: %s]", item.Resource.URI))
			} else {
				parts = append(parts, "[Resource: embedded]")
			}
		}
	}
	return strings.Join(parts, "\n")
}

// ToolsFromMCP connects to an MCP server, lists its tools, and returns
// them together with a cleanup function that shuts the session down.
//
// Example:
//
//	tools, cleanup, err := mcp.ToolsFromMCP(ctx, "./my-mcp-server", nil)
//	if err != nil {
//	    return err
//	}
//	defer cleanup()
//
//	resp, err := llm.Call(ctx, "Help me", llm.WithTools(tools...))
func ToolsFromMCP(ctx context.Context, command string, args []string, opts ...Option) ([]llm.Tool, func() error, error) {
	client, err := NewStdioClient(ctx, command, args, opts...)
	if err != nil {
		return nil, nil, err
	}

	tools, err := client.Tools(ctx)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	return tools, client.Close, nil
}
