package domain

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/fpt/editagent/pkg/message"
	mcpapi "github.com/mark3labs/mcp-go/mcp"
)

// MCPClient represents an MCP (Model Context Protocol) client connection
type MCPClient interface {
	Start(ctx context.Context) error
	Close() error

	ListTools(ctx context.Context, request mcpapi.ListToolsRequest) (*mcpapi.ListToolsResult, error)
	CallTool(ctx context.Context, request mcpapi.CallToolRequest) (*mcpapi.CallToolResult, error)
}

// MCPServerConfig represents configuration for connecting to an MCP server
type MCPServerConfig struct {
	Name    string `json:"name" yaml:"name" toml:"name"`
	Enabled bool   `json:"enabled" yaml:"enabled" toml:"enabled"`

	Type    MCPServerType `json:"type" yaml:"type" toml:"type"` // stdio, sse
	Command string        `json:"command,omitempty" yaml:"command,omitempty" toml:"command,omitempty"`
	Args    []string      `json:"args,omitempty" yaml:"args,omitempty" toml:"args,omitempty"`
	Env     []string      `json:"env,omitempty" yaml:"env,omitempty" toml:"env,omitempty"`
	URL     string        `json:"url,omitempty" yaml:"url,omitempty" toml:"url,omitempty"` // For SSE servers

	// If specified, only these tools are exposed
	AllowedTools []string `json:"allowed_tools,omitempty" yaml:"allowed_tools,omitempty" toml:"allowed_tools,omitempty"`
}

// Allows reports whether the tool passes the AllowedTools filter.
func (c MCPServerConfig) Allows(tool string) bool {
	return len(c.AllowedTools) == 0 || slices.Contains(c.AllowedTools, tool)
}

// MCPServerType represents the type of MCP server connection
type MCPServerType string

const (
	MCPServerTypeStdio MCPServerType = "stdio"
	MCPServerTypeSSE   MCPServerType = "sse"
)

// MCPToolAdapter adapts a tool of a connected MCP server to message.Tool
type MCPToolAdapter struct {
	mcpTool    mcpapi.Tool
	serverName string
	client     MCPClient
}

func NewMCPToolAdapter(mcpTool mcpapi.Tool, serverName string, client MCPClient) *MCPToolAdapter {
	return &MCPToolAdapter{mcpTool: mcpTool, serverName: serverName, client: client}
}

func (a *MCPToolAdapter) RawName() message.ToolName {
	return message.ToolName(a.mcpTool.Name)
}

// Name returns the raw tool name; clashes are resolved by the tool manager.
func (a *MCPToolAdapter) Name() message.ToolName {
	return message.ToolName(a.mcpTool.Name)
}

func (a *MCPToolAdapter) ServerName() string {
	return a.serverName
}

// Description returns the tool description with server context
func (a *MCPToolAdapter) Description() message.ToolDescription {
	return message.ToolDescription(fmt.Sprintf("[%s] %s", a.serverName, a.mcpTool.Description))
}

// Arguments converts the MCP input schema, in stable name order.
func (a *MCPToolAdapter) Arguments() []message.ToolArgument {
	props := a.mcpTool.InputSchema.Properties
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	args := make([]message.ToolArgument, 0, len(names))
	for _, name := range names {
		schema, _ := props[name].(map[string]any)
		arg := message.ToolArgument{
			Name:     message.ToolName(name),
			Type:     "string",
			Required: slices.Contains(a.mcpTool.InputSchema.Required, name),
		}
		extra := map[string]any{}
		for k, v := range schema {
			switch k {
			case "type":
				if s, ok := v.(string); ok {
					arg.Type = s
				}
			case "description":
				if s, ok := v.(string); ok {
					arg.Description = message.ToolDescription(s)
				}
			default:
				extra[k] = v
			}
		}
		if len(extra) > 0 {
			arg.Properties = extra
		}
		args = append(args, arg)
	}
	return args
}

// Handler returns a handler function that calls the MCP tool
func (a *MCPToolAdapter) Handler() message.ToolHandler {
	return func(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
		request := mcpapi.CallToolRequest{
			Params: mcpapi.CallToolParams{
				Name:      a.mcpTool.Name,
				Arguments: map[string]any(args),
			},
		}

		result, err := a.client.CallTool(ctx, request)
		if err != nil {
			return message.NewToolResultError(err.Error()), nil
		}

		text := ExtractMCPText(result)
		if result.IsError {
			if text == "" {
				text = "Error: Tool execution failed"
			}
			return message.NewToolResultError(text), nil
		}
		return message.NewToolResultText(text), nil
	}
}

// ExtractMCPText joins the text parts of a tool result. Non-text parts are summarized.
func ExtractMCPText(result *mcpapi.CallToolResult) string {
	if result == nil {
		return ""
	}
	parts := make([]string, 0, len(result.Content))
	for _, content := range result.Content {
		if tc, ok := mcpapi.AsTextContent(content); ok {
			parts = append(parts, tc.Text)
			continue
		}
		if tc, ok := content.(*mcpapi.TextContent); ok {
			parts = append(parts, tc.Text)
			continue
		}
		parts = append(parts, fmt.Sprintf("[%T content omitted]", content))
	}
	return strings.Join(parts, "\n")
}
