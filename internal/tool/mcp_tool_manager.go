package tool

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fpt/editagent/pkg/agent/domain"
	"github.com/fpt/editagent/pkg/agent/mcp"
	pkgLogger "github.com/fpt/editagent/pkg/logger"
	"github.com/fpt/editagent/pkg/message"
	mcpapi "github.com/mark3labs/mcp-go/mcp"
	"github.com/pkg/errors"
)

// MCPClientFactory opens a client for a server configuration.
type MCPClientFactory func(config domain.MCPServerConfig) (domain.MCPClient, error)

func defaultMCPClientFactory(config domain.MCPServerConfig) (domain.MCPClient, error) {
	client, err := mcp.NewMCPClient(config)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// MCPToolManager exposes the tools of connected MCP servers.
type MCPToolManager struct {
	newClient MCPClientFactory

	mu       sync.RWMutex
	tools    map[message.ToolName]message.Tool
	servers  map[string]domain.MCPClient
	mcpTools map[string][]message.Tool // serverName -> tools
}

var _ domain.ToolManager = (*MCPToolManager)(nil)

// NewMCPToolManager creates a manager that connects with mcp-go clients.
func NewMCPToolManager() *MCPToolManager {
	return NewMCPToolManagerWithFactory(defaultMCPClientFactory)
}

func NewMCPToolManagerWithFactory(factory MCPClientFactory) *MCPToolManager {
	return &MCPToolManager{
		newClient: factory,
		tools:     make(map[message.ToolName]message.Tool),
		servers:   make(map[string]domain.MCPClient),
		mcpTools:  make(map[string][]message.Tool),
	}
}

// AddServer connects to an MCP server and loads its tools
func (m *MCPToolManager) AddServer(ctx context.Context, config domain.MCPServerConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.servers[config.Name]; exists {
		return errors.Errorf("server %s already exists", config.Name)
	}

	client, err := m.newClient(config)
	if err != nil {
		return errors.Wrapf(err, "failed to create MCP client for %s", config.Name)
	}
	if err := client.Start(ctx); err != nil {
		_ = client.Close()
		return errors.Wrapf(err, "failed to start MCP server %s", config.Name)
	}
	m.servers[config.Name] = client

	result, err := client.ListTools(ctx, mcpapi.ListToolsRequest{})
	if err != nil {
		logger().Warn("Failed to list tools from MCP server", "server", config.Name, "error", err)
		return nil
	}

	tools := make([]message.Tool, 0, len(result.Tools))
	filtered := 0
	for _, mcpTool := range result.Tools {
		if !config.Allows(mcpTool.Name) {
			filtered++
			continue
		}
		adapter := domain.NewMCPToolAdapter(mcpTool, config.Name, client)
		if _, clash := m.tools[adapter.Name()]; clash {
			logger().Warn("MCP tool name already registered, skipping", "server", config.Name, "tool", adapter.Name())
			continue
		}
		m.tools[adapter.Name()] = adapter
		tools = append(tools, adapter)
	}
	m.mcpTools[config.Name] = tools

	logger().InfoWithIntention(pkgLogger.IntentionTool, "MCP tools loaded",
		"server", config.Name, "count", len(tools), "filtered", filtered)
	return nil
}

// RemoveServer closes a server connection and drops its tools
func (m *MCPToolManager) RemoveServer(serverName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, exists := m.servers[serverName]
	if !exists {
		return errors.Errorf("server %s not found", serverName)
	}
	for _, tool := range m.mcpTools[serverName] {
		delete(m.tools, tool.Name())
	}
	delete(m.mcpTools, serverName)
	delete(m.servers, serverName)
	return client.Close()
}

// ListServers returns the names of connected servers, sorted
func (m *MCPToolManager) ListServers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	servers := make([]string, 0, len(m.servers))
	for name := range m.servers {
		servers = append(servers, name)
	}
	sort.Strings(servers)
	return servers
}

// Close disconnects every server.
func (m *MCPToolManager) Close() {
	for _, name := range m.ListServers() {
		if err := m.RemoveServer(name); err != nil {
			logger().Warn("Error closing MCP server connection", "server", name, "error", err)
		}
	}
}

func (m *MCPToolManager) RegisterTool(name message.ToolName, description message.ToolDescription, arguments []message.ToolArgument, handler message.ToolHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tools[name] = &registeredTool{name: name, description: description, arguments: arguments, handler: handler}
}

// GetTools returns a snapshot of the available tools
func (m *MCPToolManager) GetTools() map[message.ToolName]message.Tool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tools := make(map[message.ToolName]message.Tool, len(m.tools))
	for name, tool := range m.tools {
		tools[name] = tool
	}
	return tools
}

func (m *MCPToolManager) CallTool(ctx context.Context, name message.ToolName, args message.ToolArgumentValues) (message.ToolResult, error) {
	m.mu.RLock()
	tool, exists := m.tools[name]
	m.mu.RUnlock()
	if !exists {
		return message.NewToolResultError(fmt.Sprintf("tool '%s' not found", name)), nil
	}
	return tool.Handler()(ctx, args)
}
