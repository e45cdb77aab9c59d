package ollama

import (
	"testing"

	"github.com/ollama/ollama/api"

	"github.com/fpt/editagent/pkg/message"
)

func TestToOllamaMessagesMergesParallelCalls(t *testing.T) {
	msgs := toOllamaMessages([]message.Message{
		message.NewSystemMessage("sys"),
		message.NewUserMessage("view a and b"),
		message.NewToolCallMessage("str_replace_editor", message.ToolArgumentValues{"command": "view", "path": "a"}),
		message.NewToolCallMessage("str_replace_editor", message.ToolArgumentValues{"command": "view", "path": "b"}),
		message.NewToolResultMessage("x", "str_replace_editor", "a", false),
		message.NewToolResultMessage("y", "str_replace_editor", "b", false),
	})

	roles := []string{"system", "user", "assistant", "tool", "tool"}
	if len(msgs) != len(roles) {
		t.Fatalf("Expected %d messages, got %d", len(roles), len(msgs))
	}
	for i, role := range roles {
		if msgs[i].Role != role {
			t.Errorf("message %d role = %q, want %q", i, msgs[i].Role, role)
		}
	}
	if n := len(msgs[2].ToolCalls); n != 2 {
		t.Errorf("Expected 2 merged tool calls, got %d", n)
	}
}

func TestToDomainMessageFromOllama(t *testing.T) {
	tests := []struct {
		name string
		msg  api.Message
		want message.MessageType
	}{
		{"text", api.Message{Role: "assistant", Content: "done"}, message.MessageTypeAssistant},
		{"one call", api.Message{ToolCalls: []api.ToolCall{{Function: api.ToolCallFunction{Name: "str_replace_editor"}}}}, message.MessageTypeToolCall},
		{"batch", api.Message{ToolCalls: []api.ToolCall{
			{Function: api.ToolCallFunction{Name: "str_replace_editor"}},
			{Function: api.ToolCallFunction{Name: "str_replace_editor"}},
		}}, message.MessageTypeToolCallBatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toDomainMessageFromOllama(tt.msg).Type(); got != tt.want {
				t.Errorf("type = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsToolCapableModel(t *testing.T) {
	tests := map[string]bool{
		"gpt-oss:20b":       true,
		"qwen3-coder:30b":   true,
		"gemma3:4b":         false,
		"some-new-model:7b": true,
	}
	for model, want := range tests {
		if got := IsToolCapableModel(model); got != want {
			t.Errorf("IsToolCapableModel(%q) = %v, want %v", model, got, want)
		}
	}
	if GetModelContextWindow("qwen3-coder:30b") != 256000 {
		t.Error("qwen3-coder should match before qwen3")
	}
	if GetModelContextWindow("unknown") != 0 {
		t.Error("unknown model should report 0")
	}
}
