package mcp

import (
	"context"

	"github.com/fpt/editagent/pkg/agent/domain"
	pkgLogger "github.com/fpt/editagent/pkg/logger"
	"github.com/mark3labs/mcp-go/client"
	mcpapi "github.com/mark3labs/mcp-go/mcp"
	"github.com/pkg/errors"
)

func logger() *pkgLogger.Logger { return pkgLogger.NewComponentLogger("mcp-client") }

// ClientName and ClientVersion are announced during the MCP handshake.
const (
	ClientName    = "editagent"
	ClientVersion = "0.1.0"
)

// MCPClientWrapper wraps the mcp-go client to implement domain.MCPClient
type MCPClientWrapper struct {
	client *client.Client
	config domain.MCPServerConfig
}

// NewMCPClient creates a new MCP client based on the server configuration
func NewMCPClient(config domain.MCPServerConfig) (*MCPClientWrapper, error) {
	var (
		mcpClient *client.Client
		err       error
	)

	switch config.Type {
	case domain.MCPServerTypeStdio, "":
		if config.Command == "" {
			return nil, errors.Errorf("command is required for stdio MCP server %s", config.Name)
		}
		mcpClient, err = client.NewStdioMCPClient(config.Command, config.Env, config.Args...)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create stdio MCP client")
		}

	case domain.MCPServerTypeSSE:
		if config.URL == "" {
			return nil, errors.Errorf("URL is required for SSE MCP server %s", config.Name)
		}
		mcpClient, err = client.NewSSEMCPClient(config.URL)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create SSE MCP client")
		}

	default:
		return nil, errors.Errorf("unsupported MCP server type: %s", config.Type)
	}

	return &MCPClientWrapper{client: mcpClient, config: config}, nil
}

// Start connects and performs the initialize handshake
func (w *MCPClientWrapper) Start(ctx context.Context) error {
	if err := w.client.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start MCP client")
	}

	initRequest := mcpapi.InitializeRequest{
		Params: mcpapi.InitializeParams{
			ProtocolVersion: mcpapi.LATEST_PROTOCOL_VERSION,
			ClientInfo: mcpapi.Implementation{
				Name:    ClientName,
				Version: ClientVersion,
			},
		},
	}
	if _, err := w.client.Initialize(ctx, initRequest); err != nil {
		return errors.Wrap(err, "failed to initialize MCP client")
	}

	logger().InfoWithIntention(pkgLogger.IntentionSuccess, "Connected to MCP server", "server", w.config.Name)
	return nil
}

func (w *MCPClientWrapper) Close() error {
	return w.client.Close()
}

func (w *MCPClientWrapper) ListTools(ctx context.Context, request mcpapi.ListToolsRequest) (*mcpapi.ListToolsResult, error) {
	return w.client.ListTools(ctx, request)
}

func (w *MCPClientWrapper) CallTool(ctx context.Context, request mcpapi.CallToolRequest) (*mcpapi.CallToolResult, error) {
	return w.client.CallTool(ctx, request)
}

func (w *MCPClientWrapper) Config() domain.MCPServerConfig {
	return w.config
}
