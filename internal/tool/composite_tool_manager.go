package tool

import (
	"context"
	"fmt"

	"github.com/fpt/editagent/pkg/agent/domain"
	"github.com/fpt/editagent/pkg/message"
)

// CompositeToolManager combines multiple tool managers into one.
// On a name clash the manager listed first wins.
type CompositeToolManager struct {
	managers []domain.ToolManager
	toolsMap map[message.ToolName]message.Tool
}

// NewCompositeToolManager creates a new composite tool manager from multiple managers
func NewCompositeToolManager(managers ...domain.ToolManager) *CompositeToolManager {
	composite := &CompositeToolManager{managers: managers}
	composite.Refresh()
	return composite
}

// Refresh rebuilds the unified tool map, e.g. after an MCP server was added.
func (c *CompositeToolManager) Refresh() {
	toolsMap := make(map[message.ToolName]message.Tool)
	for _, manager := range c.managers {
		for name, tool := range manager.GetTools() {
			if _, taken := toolsMap[name]; taken {
				logger().Warn("Tool name already registered, skipping", "tool", name)
				continue
			}
			toolsMap[name] = tool
		}
	}
	c.toolsMap = toolsMap
}

func (c *CompositeToolManager) GetTool(name message.ToolName) (message.Tool, bool) {
	tool, exists := c.toolsMap[name]
	return tool, exists
}

func (c *CompositeToolManager) GetTools() map[message.ToolName]message.Tool {
	return c.toolsMap
}

func (c *CompositeToolManager) CallTool(ctx context.Context, name message.ToolName, args message.ToolArgumentValues) (message.ToolResult, error) {
	tool, exists := c.toolsMap[name]
	if !exists {
		return message.NewToolResultError(fmt.Sprintf("tool %s not found", name)), nil
	}
	return tool.Handler()(ctx, args)
}

// RegisterTool is not supported on composite managers since tools should be registered on the underlying managers
func (c *CompositeToolManager) RegisterTool(name message.ToolName, description message.ToolDescription, args []message.ToolArgument, handler message.ToolHandler) {
	panic("RegisterTool not supported on CompositeToolManager - register on underlying managers instead")
}
