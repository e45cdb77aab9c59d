package ollama

import (
	"sort"

	"github.com/ollama/ollama/api"

	pkgLogger "github.com/fpt/editagent/pkg/logger"
	"github.com/fpt/editagent/pkg/message"
)

func logger() *pkgLogger.Logger { return pkgLogger.NewComponentLogger("ollama") }

const (
	roleSystem    = "system"
	roleAssistant = "assistant"
	roleTool      = "tool"
)

// toDomainMessageFromOllama converts a final Ollama API message to our domain message.
// Ollama does not return call ids, so fresh ones are generated.
func toDomainMessageFromOllama(msg api.Message) message.Message {
	switch len(msg.ToolCalls) {
	case 0:
		return message.NewAssistantMessage(msg.Content)
	case 1:
		tc := msg.ToolCalls[0]
		return message.NewToolCallMessage(message.ToolName(tc.Function.Name), message.ToolArgumentValues(tc.Function.Arguments))
	default:
		calls := make([]*message.ToolCallMessage, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			calls = append(calls, message.NewToolCallMessage(message.ToolName(tc.Function.Name), message.ToolArgumentValues(tc.Function.Arguments)))
		}
		return message.NewToolCallBatch(calls)
	}
}

// toOllamaMessages converts neutral messages to Ollama format. Consecutive
// tool calls are merged into one assistant message.
func toOllamaMessages(messages []message.Message) []api.Message {
	var ollamaMessages []api.Message

	for _, msg := range messages {
		switch msg.Type() {
		case message.MessageTypeUser, message.MessageTypeAssistant, message.MessageTypeSystem:
			ollamaMessages = append(ollamaMessages, api.Message{
				Role:    msg.Type().String(),
				Content: msg.Content(),
			})
		case message.MessageTypeToolCall:
			call, ok := msg.(*message.ToolCallMessage)
			if !ok {
				continue
			}
			toolCall := api.ToolCall{
				Function: api.ToolCallFunction{
					Name:      string(call.ToolName()),
					Arguments: api.ToolCallFunctionArguments(call.ToolArguments()),
				},
			}
			if n := len(ollamaMessages); n > 0 && ollamaMessages[n-1].Role == roleAssistant && len(ollamaMessages[n-1].ToolCalls) > 0 {
				ollamaMessages[n-1].ToolCalls = append(ollamaMessages[n-1].ToolCalls, toolCall)
				continue
			}
			ollamaMessages = append(ollamaMessages, api.Message{
				Role:      roleAssistant,
				ToolCalls: []api.ToolCall{toolCall},
			})
		case message.MessageTypeToolResult:
			if result, ok := msg.(*message.ToolResultMessage); ok {
				ollamaMessages = append(ollamaMessages, api.Message{
					Role:    roleTool,
					Content: result.Result,
				})
			}
		}
	}

	return ollamaMessages
}

// convertToOllamaTools converts domain tools to Ollama API tool format, in name order.
func convertToOllamaTools(tools map[message.ToolName]message.Tool) api.Tools {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, string(name))
	}
	sort.Strings(names)

	var ollamaTools api.Tools
	for _, name := range names {
		tool := tools[message.ToolName(name)]

		properties := make(map[string]api.ToolProperty)
		var required []string
		for _, arg := range tool.Arguments() {
			prop := api.ToolProperty{
				Type:        api.PropertyType{arg.Type},
				Description: string(arg.Description),
			}
			if enum, ok := arg.Properties["enum"].([]any); ok {
				prop.Enum = enum
			}
			properties[string(arg.Name)] = prop
			if arg.Required {
				required = append(required, string(arg.Name))
			}
		}

		ollamaTools = append(ollamaTools, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        name,
				Description: tool.Description().String(),
				Parameters: api.ToolFunctionParameters{
					Type:       "object",
					Properties: properties,
					Required:   required,
				},
			},
		})
	}

	logger().DebugWithIntention(pkgLogger.IntentionDebug, "Prepared Ollama tools", "count", len(ollamaTools))
	return ollamaTools
}

// addToolUsageSystemMessage prepends an instruction to the conversation.
func addToolUsageSystemMessage(messages []api.Message, systemContent string) []api.Message {
	return append([]api.Message{{Role: roleSystem, Content: systemContent}}, messages...)
}
