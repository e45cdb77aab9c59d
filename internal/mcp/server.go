package mcp

import (
	"context"
	"io"
	"log"
	"strings"

	mcpapi "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fpt/editagent/internal/editor"
)

// ServerName is announced to MCP clients.
const ServerName = "editagent-editor"

// NewEditorServer serves the dispatcher as the str_replace_editor tool with
// the same input schema the agent declares to models.
func NewEditorServer(dispatcher *editor.Dispatcher, version string) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	tool := mcpapi.NewToolWithRawSchema(editor.ToolName, editor.ToolDescription, editor.InputSchemaJSON())
	s.AddTool(tool, EditorToolHandler(dispatcher))
	return s
}

// EditorToolHandler runs one tool call through the dispatcher. Dispatcher
// failures are returned as IsError results, never as protocol errors.
func EditorToolHandler(dispatcher *editor.Dispatcher) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcpapi.CallToolRequest) (*mcpapi.CallToolResult, error) {
		args := request.GetArguments()
		command, _ := args["command"].(string)

		out := dispatcher.Dispatch(ctx, command, args)
		if strings.HasPrefix(out, "Error") {
			return mcpapi.NewToolResultError(out), nil
		}
		return mcpapi.NewToolResultText(out), nil
	}
}

// ServeStdio runs the server on the given streams until ctx is done or the
// input closes. Protocol errors go to errLog.
func ServeStdio(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer, errLog *log.Logger) error {
	stdio := server.NewStdioServer(s)
	if errLog != nil {
		stdio.SetErrorLogger(errLog)
	}
	return stdio.Listen(ctx, in, out)
}
