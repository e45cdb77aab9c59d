package anthropic

import (
	"sort"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/fpt/editagent/pkg/agent/domain"
	"github.com/fpt/editagent/pkg/message"
)

// editorToolName is the fixed name of Anthropic's built-in text editor tool.
const editorToolName = "str_replace_editor"

// getAnthropicModel maps empty or legacy aliases to a current model.
func getAnthropicModel(model string) anthropic.Model {
	switch model {
	case "":
		return anthropic.ModelClaudeSonnet4_5
	case "claude-sonnet-4-20250514", "claude-3-7-sonnet-latest":
		return anthropic.ModelClaudeSonnet4_5
	case "claude-3-5-haiku-latest":
		return anthropic.ModelClaudeHaiku4_5
	}
	return anthropic.Model(model)
}

// getModelContextWindow returns a conservative approximation of the
// model's input token capacity, for utilization reporting only.
func getModelContextWindow(model string) int {
	return 200000
}

// convertToolChoiceToAnthropic converts domain ToolChoice to Anthropic format
func convertToolChoiceToAnthropic(toolChoice domain.ToolChoice) anthropic.ToolChoiceUnionParam {
	switch toolChoice.Type {
	case domain.ToolChoiceAny:
		return anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}
	case domain.ToolChoiceTool:
		return anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: sanitizeToolNameForAnthropic(string(toolChoice.Name))},
		}
	case domain.ToolChoiceNone:
		return anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
	default:
		return anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
	}
}

// sanitizeToolNameForAnthropic ensures tool names comply with Anthropic's pattern '^[a-zA-Z0-9_-]{1,128}$'
func sanitizeToolNameForAnthropic(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	sanitized := b.String()
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	if len(sanitized) > 128 {
		sanitized = sanitized[:128]
	}
	return sanitized
}

// convertToolsToAnthropic converts domain tools to Anthropic format and
// returns the mapping from the names sent to the API back to tool names.
// When native is set, a tool named str_replace_editor is declared as the
// built-in text_editor_20250124 tool, whose schema Anthropic supplies.
// The last tool carries cache_control so the whole list is cached.
func convertToolsToAnthropic(tools map[message.ToolName]message.Tool, native bool) ([]anthropic.ToolUnionParam, map[string]message.ToolName) {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, string(name))
	}
	sort.Strings(names)

	anthropicTools := make([]anthropic.ToolUnionParam, 0, len(names))
	nameMap := make(map[string]message.ToolName, len(names))
	for _, name := range names {
		tool := tools[message.ToolName(name)]

		if native && name == editorToolName {
			anthropicTools = append(anthropicTools, anthropic.ToolUnionParam{
				OfTextEditor20250124: &anthropic.ToolTextEditor20250124Param{},
			})
			nameMap[editorToolName] = tool.Name()
			continue
		}

		properties := make(map[string]any)
		var required []string
		for _, arg := range tool.Arguments() {
			properties[string(arg.Name)] = convertArgumentToAnthropicProperty(arg)
			if arg.Required {
				required = append(required, string(arg.Name))
			}
		}

		apiName := sanitizeToolNameForAnthropic(name)
		nameMap[apiName] = tool.Name()
		anthropicTools = append(anthropicTools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        apiName,
				Description: anthropic.String(tool.Description().String()),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: properties,
					Required:   required,
				},
			},
		})
	}

	if len(anthropicTools) > 0 {
		last := &anthropicTools[len(anthropicTools)-1]
		switch {
		case last.OfTool != nil:
			last.OfTool.CacheControl = anthropic.NewCacheControlEphemeralParam()
		case last.OfTextEditor20250124 != nil:
			last.OfTextEditor20250124.CacheControl = anthropic.NewCacheControlEphemeralParam()
		}
	}

	return anthropicTools, nameMap
}

// convertArgumentToAnthropicProperty converts a ToolArgument to a JSON schema
// property; extra keywords in Properties are merged in.
func convertArgumentToAnthropicProperty(arg message.ToolArgument) map[string]any {
	property := map[string]any{
		"type":        arg.Type,
		"description": arg.Description.String(),
	}
	for k, v := range arg.Properties {
		property[k] = v
	}
	return property
}

// toAnthropicMessages converts neutral messages to Anthropic format. System
// messages are returned separately. Consecutive tool calls share one
// assistant turn and consecutive tool results share one user turn, as the
// API requires for parallel tool use.
func toAnthropicMessages(messages []message.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var (
		anthropicMessages []anthropic.MessageParam
		system            []anthropic.TextBlockParam
		pending           []anthropic.ContentBlockParamUnion
		pendingRole       anthropic.MessageParamRole
	)

	flush := func() {
		if len(pending) == 0 {
			return
		}
		if pendingRole == anthropic.MessageParamRoleAssistant {
			anthropicMessages = append(anthropicMessages, anthropic.NewAssistantMessage(pending...))
		} else {
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(pending...))
		}
		pending = nil
	}
	push := func(role anthropic.MessageParamRole, block anthropic.ContentBlockParamUnion) {
		if pendingRole != role {
			flush()
		}
		pendingRole = role
		pending = append(pending, block)
	}

	for _, msg := range messages {
		switch msg.Type() {
		case message.MessageTypeSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content()})
		case message.MessageTypeUser:
			flush()
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content())))
		case message.MessageTypeAssistant:
			flush()
			if msg.Content() == "" {
				continue
			}
			anthropicMessages = append(anthropicMessages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content())))
		case message.MessageTypeToolCall:
			if call, ok := msg.(*message.ToolCallMessage); ok {
				push(anthropic.MessageParamRoleAssistant, anthropic.NewToolUseBlock(
					call.ID(),
					map[string]any(call.ToolArguments()),
					apiToolName(call.ToolName()),
				))
			}
		case message.MessageTypeToolResult:
			if result, ok := msg.(*message.ToolResultMessage); ok {
				push(anthropic.MessageParamRoleUser, anthropic.NewToolResultBlock(result.CallID(), result.Result, result.IsError))
			}
		}
	}
	flush()

	if len(system) > 0 {
		system[len(system)-1].CacheControl = anthropic.NewCacheControlEphemeralParam()
	}
	return anthropicMessages, system
}

func apiToolName(name message.ToolName) string {
	if name == editorToolName {
		return editorToolName
	}
	return sanitizeToolNameForAnthropic(string(name))
}
