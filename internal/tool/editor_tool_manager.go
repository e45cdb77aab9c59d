package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/fpt/editagent/internal/editor"
	"github.com/fpt/editagent/pkg/agent/domain"
	"github.com/fpt/editagent/pkg/message"
)

// EditorToolManager exposes the file editor as the single str_replace_editor tool.
type EditorToolManager struct {
	dispatcher *editor.Dispatcher
	tools      map[message.ToolName]message.Tool
}

var _ domain.ToolManager = (*EditorToolManager)(nil)

func NewEditorToolManager(dispatcher *editor.Dispatcher) *EditorToolManager {
	m := &EditorToolManager{
		dispatcher: dispatcher,
		tools:      make(map[message.ToolName]message.Tool),
	}
	m.RegisterTool(editor.ToolName, editor.ToolDescription, editor.ToolArguments(), m.handleEditor)
	return m
}

func (m *EditorToolManager) RegisterTool(name message.ToolName, description message.ToolDescription, args []message.ToolArgument, handler message.ToolHandler) {
	m.tools[name] = &registeredTool{name: name, description: description, arguments: args, handler: handler}
}

func (m *EditorToolManager) GetTools() map[message.ToolName]message.Tool {
	return m.tools
}

func (m *EditorToolManager) CallTool(ctx context.Context, name message.ToolName, args message.ToolArgumentValues) (message.ToolResult, error) {
	tool, exists := m.tools[name]
	if !exists {
		return message.NewToolResultError(fmt.Sprintf("tool %s not found", name)), nil
	}
	return tool.Handler()(ctx, args)
}

// Backups lists the paths that currently have an undo snapshot.
func (m *EditorToolManager) Backups() []string {
	return m.dispatcher.Engine().Backups().Paths()
}

// handleEditor forwards to the dispatcher. Editor failures are plain text the
// model can act on, so they are marked as errors but never returned as Go errors.
func (m *EditorToolManager) handleEditor(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	command, _ := args["command"].(string)
	out := m.dispatcher.Dispatch(ctx, command, map[string]any(args))

	if strings.HasPrefix(out, "Error") {
		return message.NewToolResultError(out), nil
	}
	if out == "" {
		// providers reject empty tool results
		out = "(empty file)"
	}
	return message.NewToolResultText(out), nil
}
