package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/fpt/editagent/pkg/agent/domain"
	"github.com/fpt/editagent/pkg/message"
	mcpapi "github.com/mark3labs/mcp-go/mcp"
)

type fakeMCPClient struct {
	tools    []mcpapi.Tool
	startErr error
	closed   bool
	calls    []mcpapi.CallToolRequest
}

func (f *fakeMCPClient) Start(context.Context) error { return f.startErr }
func (f *fakeMCPClient) Close() error {
	f.closed = true
	return nil
}
func (f *fakeMCPClient) ListTools(context.Context, mcpapi.ListToolsRequest) (*mcpapi.ListToolsResult, error) {
	return &mcpapi.ListToolsResult{Tools: f.tools}, nil
}
func (f *fakeMCPClient) CallTool(_ context.Context, req mcpapi.CallToolRequest) (*mcpapi.CallToolResult, error) {
	f.calls = append(f.calls, req)
	if req.Params.Name == "fail" {
		return mcpapi.NewToolResultError("it failed"), nil
	}
	return mcpapi.NewToolResultText("pong"), nil
}

func TestMCPToolManager_AddServer(t *testing.T) {
	fake := &fakeMCPClient{tools: []mcpapi.Tool{
		mcpapi.NewTool("ping", mcpapi.WithDescription("Ping"), mcpapi.WithString("host", mcpapi.Required(), mcpapi.Description("Target host"))),
		mcpapi.NewTool("fail"),
		mcpapi.NewTool("hidden"),
	}}
	m := NewMCPToolManagerWithFactory(func(domain.MCPServerConfig) (domain.MCPClient, error) { return fake, nil })
	ctx := context.Background()

	err := m.AddServer(ctx, domain.MCPServerConfig{Name: "net", Type: domain.MCPServerTypeStdio, Command: "net-mcp", AllowedTools: []string{"ping", "fail"}})
	if err != nil {
		t.Fatalf("AddServer: %v", err)
	}

	tools := m.GetTools()
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools after filtering, got %d", len(tools))
	}
	ping := tools["ping"]
	if ping.Description() != "[net] Ping" {
		t.Errorf("description = %q", ping.Description())
	}
	args := ping.Arguments()
	if len(args) != 1 || args[0].Name != "host" || !args[0].Required || args[0].Description != "Target host" {
		t.Errorf("arguments = %+v", args)
	}

	res, err := m.CallTool(ctx, "ping", message.ToolArgumentValues{"host": "example.com"})
	if err != nil || res.Text != "pong" {
		t.Errorf("CallTool ping = %+v, %v", res, err)
	}
	if got := fake.calls[0].GetArguments()["host"]; got != "example.com" {
		t.Errorf("forwarded args = %v", fake.calls[0].Params.Arguments)
	}

	res, _ = m.CallTool(ctx, "fail", nil)
	if !res.IsError() || res.Error != "it failed" {
		t.Errorf("CallTool fail = %+v", res)
	}

	if err := m.AddServer(ctx, domain.MCPServerConfig{Name: "net"}); err == nil {
		t.Error("duplicate server should fail")
	}

	m.Close()
	if !fake.closed || len(m.GetTools()) != 0 || len(m.ListServers()) != 0 {
		t.Error("Close should drop servers and tools")
	}
}

func TestMCPToolManager_StartFailure(t *testing.T) {
	fake := &fakeMCPClient{startErr: errors.New("no such binary")}
	m := NewMCPToolManagerWithFactory(func(domain.MCPServerConfig) (domain.MCPClient, error) { return fake, nil })

	if err := m.AddServer(context.Background(), domain.MCPServerConfig{Name: "broken"}); err == nil {
		t.Fatal("expected error")
	}
	if !fake.closed {
		t.Error("client should be closed after a failed start")
	}
	if len(m.ListServers()) != 0 {
		t.Error("failed server must not be listed")
	}
}
