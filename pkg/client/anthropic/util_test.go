package anthropic

import (
	"encoding/json"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/fpt/editagent/pkg/agent/domain"
	"github.com/fpt/editagent/pkg/message"
)

func TestSanitizeToolNameForAnthropic(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"mcp tool with dot", "serverA.tree_dir", "serverA_tree_dir"},
		{"double underscores", "mcp__serverB__analyze-openapi-spec", "mcp_serverB_analyze-openapi-spec"},
		{"colons", "server:tool:action", "server_tool_action"},
		{"spaces and slashes", "git/log tail", "git_log_tail"},
		{"editor", "str_replace_editor", "str_replace_editor"},
		{"hyphens preserved", "tool-with-hyphens", "tool-with-hyphens"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizeToolNameForAnthropic(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeToolNameForAnthropic(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestConvertToolChoiceToAnthropic(t *testing.T) {
	if got := convertToolChoiceToAnthropic(domain.NewToolChoiceAuto()); got.OfAuto == nil {
		t.Error("auto: expected OfAuto")
	}
	if got := convertToolChoiceToAnthropic(domain.NewToolChoiceAny()); got.OfAny == nil {
		t.Error("any: expected OfAny")
	}
	if got := convertToolChoiceToAnthropic(domain.NewToolChoiceNone()); got.OfNone == nil {
		t.Error("none: expected OfNone")
	}
	got := convertToolChoiceToAnthropic(domain.NewToolChoiceTool("srv.grep"))
	if got.OfTool == nil || got.OfTool.Name != "srv_grep" {
		t.Errorf("tool: got %+v", got.OfTool)
	}
}

// Mock tool implementation for testing
type mockTool struct {
	name        string
	description string
	args        []message.ToolArgument
}

func (m *mockTool) RawName() message.ToolName { return message.ToolName(m.name) }
func (m *mockTool) Name() message.ToolName    { return message.ToolName(m.name) }
func (m *mockTool) Description() message.ToolDescription {
	return message.ToolDescription(m.description)
}
func (m *mockTool) Arguments() []message.ToolArgument { return m.args }
func (m *mockTool) Handler() message.ToolHandler      { return nil }

func editorAndGrepTools() map[message.ToolName]message.Tool {
	return map[message.ToolName]message.Tool{
		"str_replace_editor": &mockTool{
			name:        "str_replace_editor",
			description: "Edit files",
			args: []message.ToolArgument{
				{Name: "command", Type: "string", Required: true, Properties: map[string]any{"enum": []string{"view", "create"}}},
				{Name: "path", Type: "string", Required: true},
			},
		},
		"srv.grep": &mockTool{
			name:        "srv.grep",
			description: "Search files",
			args:        []message.ToolArgument{{Name: "pattern", Type: "string", Required: true}},
		},
	}
}

func TestConvertToolsToAnthropic(t *testing.T) {
	t.Run("native editor", func(t *testing.T) {
		tools, names := convertToolsToAnthropic(editorAndGrepTools(), true)
		if len(tools) != 2 {
			t.Fatalf("Expected 2 tools, got %d", len(tools))
		}
		// sorted: srv.grep before str_replace_editor
		if tools[0].OfTool == nil || tools[0].OfTool.Name != "srv_grep" {
			t.Errorf("first tool = %+v, want custom srv_grep", tools[0].OfTool)
		}
		if tools[1].OfTextEditor20250124 == nil {
			t.Fatal("editor should be declared as the built-in text editor tool")
		}
		if names["srv_grep"] != "srv.grep" || names["str_replace_editor"] != "str_replace_editor" {
			t.Errorf("name map = %v", names)
		}
	})

	t.Run("custom editor", func(t *testing.T) {
		tools, _ := convertToolsToAnthropic(editorAndGrepTools(), false)
		editor := tools[1].OfTool
		if editor == nil {
			t.Fatal("editor should be a custom tool")
		}
		if editor.Name != "str_replace_editor" {
			t.Errorf("name = %q", editor.Name)
		}
		props, ok := editor.InputSchema.Properties.(map[string]any)
		if !ok {
			t.Fatalf("properties type %T", editor.InputSchema.Properties)
		}
		command := props["command"].(map[string]any)
		if _, ok := command["enum"]; !ok {
			t.Error("enum keyword not merged into command property")
		}
		if len(editor.InputSchema.Required) != 2 {
			t.Errorf("required = %v", editor.InputSchema.Required)
		}
	})
}

func TestToAnthropicMessages(t *testing.T) {
	tests := []struct {
		name          string
		inputMessages []message.Message
		validate      func(t *testing.T, result []anthropic.MessageParam, system []anthropic.TextBlockParam)
	}{
		{
			name: "system message goes to the system prompt",
			inputMessages: []message.Message{
				message.NewSystemMessage("You edit files."),
				message.NewUserMessage("Hello"),
			},
			validate: func(t *testing.T, result []anthropic.MessageParam, system []anthropic.TextBlockParam) {
				if len(system) != 1 || system[0].Text != "You edit files." {
					t.Errorf("system = %+v", system)
				}
				if len(result) != 1 || result[0].Role != anthropic.MessageParamRoleUser {
					t.Errorf("Expected a single user message, got %d", len(result))
				}
			},
		},
		{
			name: "parallel tool calls share turns",
			inputMessages: []message.Message{
				message.NewUserMessage("view a and b"),
				message.NewToolCallMessageWithID("toolu_a", "str_replace_editor", message.ToolArgumentValues{"command": "view", "path": "a"}),
				message.NewToolCallMessageWithID("toolu_b", "str_replace_editor", message.ToolArgumentValues{"command": "view", "path": "b"}),
				message.NewToolResultMessage("toolu_a", "str_replace_editor", "     1\ta\n", false),
				message.NewToolResultMessage("toolu_b", "str_replace_editor", "Error: The path b does not exist", true),
				message.NewAssistantMessage("a exists, b does not"),
			},
			validate: func(t *testing.T, result []anthropic.MessageParam, system []anthropic.TextBlockParam) {
				roles := []anthropic.MessageParamRole{
					anthropic.MessageParamRoleUser,
					anthropic.MessageParamRoleAssistant,
					anthropic.MessageParamRoleUser,
					anthropic.MessageParamRoleAssistant,
				}
				if len(result) != len(roles) {
					t.Fatalf("Expected %d messages, got %d", len(roles), len(result))
				}
				for i, role := range roles {
					if result[i].Role != role {
						t.Errorf("Message %d: Expected role '%s', got '%s'", i, role, result[i].Role)
					}
				}
				if n := len(result[1].Content); n != 2 {
					t.Fatalf("Expected 2 tool_use blocks, got %d", n)
				}
				if use := result[1].Content[0].OfToolUse; use == nil || use.ID != "toolu_a" {
					t.Errorf("first tool_use = %+v", use)
				}
				if n := len(result[2].Content); n != 2 {
					t.Fatalf("Expected 2 tool_result blocks, got %d", n)
				}
				res := result[2].Content[1].OfToolResult
				if res == nil || res.ToolUseID != "toolu_b" {
					t.Fatalf("second tool_result = %+v", res)
				}
				if !res.IsError.Value {
					t.Error("error result should set is_error")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, system := toAnthropicMessages(tt.inputMessages)
			tt.validate(t, result, system)
		})
	}
}

func TestFromAnthropicContent(t *testing.T) {
	decode := func(t *testing.T, raw string) []anthropic.ContentBlockUnion {
		t.Helper()
		var blocks []anthropic.ContentBlockUnion
		if err := json.Unmarshal([]byte(raw), &blocks); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return blocks
	}

	t.Run("text", func(t *testing.T) {
		msg, err := fromAnthropicContent(decode(t, `[{"type":"text","text":"Done."}]`), nil)
		if err != nil {
			t.Fatal(err)
		}
		if msg.Type() != message.MessageTypeAssistant || msg.Content() != "Done." {
			t.Errorf("got %v %q", msg.Type(), msg.Content())
		}
	})

	t.Run("single tool call keeps id and maps name", func(t *testing.T) {
		raw := `[{"type":"tool_use","id":"toolu_1","name":"srv_grep","input":{"pattern":"TODO"}}]`
		msg, err := fromAnthropicContent(decode(t, raw), map[string]message.ToolName{"srv_grep": "srv.grep"})
		if err != nil {
			t.Fatal(err)
		}
		call, ok := msg.(*message.ToolCallMessage)
		if !ok {
			t.Fatalf("got %T", msg)
		}
		if call.ID() != "toolu_1" || call.ToolName() != "srv.grep" || call.ToolArguments()["pattern"] != "TODO" {
			t.Errorf("call = %s %s %v", call.ID(), call.ToolName(), call.ToolArguments())
		}
	})

	t.Run("batch", func(t *testing.T) {
		raw := `[
			{"type":"tool_use","id":"t1","name":"str_replace_editor","input":{"command":"view","path":"a"}},
			{"type":"tool_use","id":"t2","name":"str_replace_editor","input":{"command":"view","path":"b"}}
		]`
		msg, err := fromAnthropicContent(decode(t, raw), nil)
		if err != nil {
			t.Fatal(err)
		}
		batch, ok := msg.(*message.ToolCallBatchMessage)
		if !ok {
			t.Fatalf("got %T", msg)
		}
		if len(batch.Calls()) != 2 || batch.Calls()[1].ID() != "t2" {
			t.Errorf("calls = %v", batch.Calls())
		}
	})
}

func TestGetAnthropicModel(t *testing.T) {
	if got := getAnthropicModel(""); got != anthropic.ModelClaudeSonnet4_5 {
		t.Errorf("default model = %s", got)
	}
	if got := getAnthropicModel("claude-opus-4-5"); got != "claude-opus-4-5" {
		t.Errorf("explicit model = %s", got)
	}
}
