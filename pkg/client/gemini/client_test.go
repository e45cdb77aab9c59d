package gemini

import (
	"context"
	"testing"

	"google.golang.org/genai"

	"github.com/fpt/editagent/pkg/agent/domain"
	"github.com/fpt/editagent/pkg/message"
)

type stubTool struct {
	name message.ToolName
	args []message.ToolArgument
}

func (s stubTool) RawName() message.ToolName            { return s.name }
func (s stubTool) Name() message.ToolName               { return s.name }
func (s stubTool) Description() message.ToolDescription { return "stub" }
func (s stubTool) Arguments() []message.ToolArgument    { return s.args }
func (s stubTool) Handler() message.ToolHandler {
	return func(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
		return message.NewToolResultText("ok"), nil
	}
}

func TestGetGeminiModel(t *testing.T) {
	tests := map[string]string{
		"":                 modelGemini25Flash,
		"pro":              modelGemini25Pro,
		"lite":             modelGemini25FlashLite,
		"gemini-2.0-flash": "gemini-2.0-flash",
		"gpt-4o":           modelGemini25Flash,
	}
	for in, want := range tests {
		if got := getGeminiModel(in); got != want {
			t.Errorf("getGeminiModel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToGeminiContentsGroupsCallsAndResults(t *testing.T) {
	contents, system := toGeminiContents([]message.Message{
		message.NewSystemMessage("be careful"),
		message.NewUserMessage("view a and b"),
		message.NewToolCallMessage("str_replace_editor", message.ToolArgumentValues{"command": "view", "path": "a"}),
		message.NewToolCallMessage("str_replace_editor", message.ToolArgumentValues{"command": "view", "path": "b"}),
		message.NewToolResultMessage("x", "str_replace_editor", "a", false),
		message.NewToolResultMessage("y", "str_replace_editor", "Error: missing", true),
		message.NewAssistantMessage("done"),
	})

	if system == nil || len(system.Parts) != 1 || system.Parts[0].Text != "be careful" {
		t.Fatalf("unexpected system instruction: %+v", system)
	}

	roles := []string{genai.RoleUser, genai.RoleModel, genai.RoleUser, genai.RoleModel}
	if len(contents) != len(roles) {
		t.Fatalf("Expected %d contents, got %d", len(roles), len(contents))
	}
	for i, role := range roles {
		if contents[i].Role != role {
			t.Errorf("content %d role = %q, want %q", i, contents[i].Role, role)
		}
	}
	if n := len(contents[1].Parts); n != 2 {
		t.Errorf("Expected 2 function calls in one turn, got %d", n)
	}
	results := contents[2].Parts
	if len(results) != 2 || results[0].FunctionResponse == nil {
		t.Fatalf("Expected 2 function responses, got %+v", results)
	}
	if _, ok := results[1].FunctionResponse.Response["error"]; !ok {
		t.Errorf("error result should use the error key, got %v", results[1].FunctionResponse.Response)
	}
}

func TestFromGeminiContent(t *testing.T) {
	tests := []struct {
		name    string
		parts   []*genai.Part
		want    message.MessageType
		wantErr bool
	}{
		{"text", []*genai.Part{{Text: "thinking", Thought: true}, {Text: "done"}}, message.MessageTypeAssistant, false},
		{"one call", []*genai.Part{genai.NewPartFromFunctionCall("str_replace_editor", map[string]any{"command": "view"})}, message.MessageTypeToolCall, false},
		{"batch", []*genai.Part{
			genai.NewPartFromFunctionCall("str_replace_editor", nil),
			genai.NewPartFromFunctionCall("str_replace_editor", nil),
		}, message.MessageTypeToolCallBatch, false},
		{"empty", []*genai.Part{{Text: "only thought", Thought: true}}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := fromGeminiContent(&genai.Content{Parts: tt.parts, Role: genai.RoleModel})
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if msg.Type() != tt.want {
				t.Errorf("type = %v, want %v", msg.Type(), tt.want)
			}
		})
	}
}

func TestFunctionCallIDIsKept(t *testing.T) {
	part := genai.NewPartFromFunctionCall("str_replace_editor", map[string]any{"command": "view"})
	part.FunctionCall.ID = "call-7"
	msg, err := fromGeminiContent(&genai.Content{Parts: []*genai.Part{part}})
	if err != nil {
		t.Fatal(err)
	}
	if msg.ID() != "call-7" {
		t.Errorf("ID = %q, want call-7", msg.ID())
	}
}

func TestConvertToolsToGemini(t *testing.T) {
	tools := map[message.ToolName]message.Tool{
		"b_tool": stubTool{name: "b_tool"},
		"a_tool": stubTool{name: "a_tool", args: []message.ToolArgument{
			{Name: "command", Type: "string", Required: true, Properties: map[string]any{"enum": []any{"view", "create"}}},
			{Name: "view_range", Type: "array", Properties: map[string]any{"items": map[string]any{"type": "integer"}}},
		}},
	}

	got := convertToolsToGemini(tools)
	if len(got) != 1 || len(got[0].FunctionDeclarations) != 2 {
		t.Fatalf("Expected one tool with 2 declarations, got %+v", got)
	}
	decl := got[0].FunctionDeclarations[0]
	if decl.Name != "a_tool" {
		t.Errorf("declarations should be sorted, first = %q", decl.Name)
	}
	if enum := decl.Parameters.Properties["command"].Enum; len(enum) != 2 {
		t.Errorf("Expected enum to carry over, got %v", enum)
	}
	if items := decl.Parameters.Properties["view_range"].Items; items == nil || items.Type != genai.TypeInteger {
		t.Errorf("Expected integer items, got %+v", items)
	}
	if len(decl.Parameters.Required) != 1 {
		t.Errorf("Expected 1 required arg, got %v", decl.Parameters.Required)
	}
}

func TestConvertToolChoiceToGemini(t *testing.T) {
	tools := []*genai.Tool{{FunctionDeclarations: []*genai.FunctionDeclaration{{Name: "x"}}}}

	tests := []struct {
		choice domain.ToolChoice
		mode   genai.FunctionCallingConfigMode
	}{
		{domain.NewToolChoiceAuto(), genai.FunctionCallingConfigModeAuto},
		{domain.ToolChoice{Type: domain.ToolChoiceNone}, genai.FunctionCallingConfigModeNone},
		{domain.ToolChoice{Type: domain.ToolChoiceAny}, genai.FunctionCallingConfigModeAny},
		{domain.ToolChoice{Type: domain.ToolChoiceTool, Name: "x"}, genai.FunctionCallingConfigModeAny},
	}
	for _, tt := range tests {
		cfg := convertToolChoiceToGemini(tt.choice, tools)
		if cfg.FunctionCallingConfig.Mode != tt.mode {
			t.Errorf("%v: mode = %v, want %v", tt.choice.Type, cfg.FunctionCallingConfig.Mode, tt.mode)
		}
	}
	if convertToolChoiceToGemini(domain.NewToolChoiceAuto(), nil) != nil {
		t.Error("Expected nil config without tools")
	}
}
