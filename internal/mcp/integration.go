package mcp

import (
	"context"

	"github.com/pkg/errors"

	"github.com/fpt/editagent/internal/config"
	"github.com/fpt/editagent/internal/tool"
	"github.com/fpt/editagent/pkg/agent/domain"
	pkgLogger "github.com/fpt/editagent/pkg/logger"
)

// logger resolves against the current default so SetGlobal applies.
func logger() *pkgLogger.Logger { return pkgLogger.NewComponentLogger("mcp-integration") }

// Integration connects the configured external tool servers.
type Integration struct {
	toolManager *tool.MCPToolManager
}

// NewIntegration creates a new MCP integration
func NewIntegration() *Integration {
	return NewIntegrationWithManager(tool.NewMCPToolManager())
}

func NewIntegrationWithManager(manager *tool.MCPToolManager) *Integration {
	return &Integration{toolManager: manager}
}

// GetToolManager returns the tool manager holding the servers' tools
func (i *Integration) GetToolManager() domain.ToolManager {
	return i.toolManager
}

// AddServer validates and connects one server.
func (i *Integration) AddServer(ctx context.Context, serverConfig domain.MCPServerConfig) error {
	if err := config.ValidateMCPServerConfig(serverConfig); err != nil {
		return errors.Wrap(err, "invalid server configuration")
	}
	if err := i.toolManager.AddServer(ctx, serverConfig); err != nil {
		return errors.Wrap(err, "failed to add MCP server")
	}
	return nil
}

// ConnectServers connects every enabled server. Failures are logged and
// skipped; the number of connected servers is returned.
func (i *Integration) ConnectServers(ctx context.Context, servers []domain.MCPServerConfig) int {
	connected := 0
	for _, serverConfig := range servers {
		if !serverConfig.Enabled {
			continue
		}
		if err := i.AddServer(ctx, serverConfig); err != nil {
			logger().WarnWithIntention(pkgLogger.IntentionWarning, "Skipping MCP server",
				"server", serverConfig.Name, "error", err)
			continue
		}
		connected++
	}
	return connected
}

// ListServers returns a list of connected MCP servers
func (i *Integration) ListServers() []string {
	return i.toolManager.ListServers()
}

// Close closes all MCP server connections
func (i *Integration) Close() error {
	i.toolManager.Close()
	return nil
}

// GetStats returns statistics about the MCP integration
func (i *Integration) GetStats() MCPStats {
	servers := i.toolManager.ListServers()
	return MCPStats{
		ConnectedServers: len(servers),
		TotalTools:       len(i.toolManager.GetTools()),
		ServerNames:      servers,
	}
}

// MCPStats represents statistics about the MCP integration
type MCPStats struct {
	ConnectedServers int      `json:"connectedServers"`
	TotalTools       int      `json:"totalTools"`
	ServerNames      []string `json:"serverNames"`
}
