package compatible

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"github.com/fpt/editagent/pkg/agent/domain"
	"github.com/fpt/editagent/pkg/message"
)

// toChatMessages converts the transcript. Consecutive tool calls are merged
// into one assistant message; each result becomes a tool message keyed by
// call id.
func toChatMessages(msgs []message.Message) []openai.ChatCompletionMessage {
	var out []openai.ChatCompletionMessage
	for _, msg := range msgs {
		switch m := msg.(type) {
		case *message.ToolCallMessage:
			call := openai.ToolCall{
				ID:   m.ID(),
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      string(m.ToolName()),
					Arguments: m.ToolArguments().JSON(),
				},
			}
			if n := len(out); n > 0 && out[n-1].Role == openai.ChatMessageRoleAssistant && len(out[n-1].ToolCalls) > 0 {
				out[n-1].ToolCalls = append(out[n-1].ToolCalls, call)
				continue
			}
			out = append(out, openai.ChatCompletionMessage{
				Role:      openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{call},
			})
		case *message.ToolResultMessage:
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    m.Result,
				Name:       string(m.ToolName),
				ToolCallID: m.CallID(),
			})
		case *message.ToolCallBatchMessage:
			continue
		default:
			switch msg.Type() {
			case message.MessageTypeSystem:
				out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: msg.Content()})
			case message.MessageTypeUser:
				out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: msg.Content()})
			case message.MessageTypeAssistant:
				if msg.Content() != "" {
					out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: msg.Content()})
				}
			}
		}
	}
	return out
}

// fromChatMessage turns the first choice into an answer or tool calls.
func fromChatMessage(msg openai.ChatCompletionMessage) (message.Message, error) {
	if len(msg.ToolCalls) > 0 {
		calls := make([]*message.ToolCallMessage, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			args, err := message.ParseToolArguments(tc.Function.Arguments)
			if err != nil {
				args = message.ToolArgumentValues{}
			}
			name := message.ToolName(tc.Function.Name)
			if tc.ID != "" {
				calls = append(calls, message.NewToolCallMessageWithID(tc.ID, name, args))
			} else {
				calls = append(calls, message.NewToolCallMessage(name, args))
			}
		}
		if len(calls) == 1 {
			return calls[0], nil
		}
		return message.NewToolCallBatch(calls), nil
	}

	if strings.TrimSpace(msg.Content) == "" {
		return nil, errors.New("empty response from chat completion")
	}
	return message.NewAssistantMessage(msg.Content), nil
}

// convertTools declares every tool as a function, in name order.
func convertTools(tools map[message.ToolName]message.Tool) []openai.Tool {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, string(name))
	}
	sort.Strings(names)

	defs := make([]openai.Tool, 0, len(names))
	for _, name := range names {
		tool := tools[message.ToolName(name)]
		properties := make(map[string]any)
		required := []string{}
		for _, arg := range tool.Arguments() {
			property := map[string]any{
				"type":        arg.Type,
				"description": arg.Description.String(),
			}
			if arg.Type == "" {
				property["type"] = "string"
			}
			for k, v := range arg.Properties {
				property[k] = v
			}
			properties[string(arg.Name)] = property
			if arg.Required {
				required = append(required, string(arg.Name))
			}
		}

		defs = append(defs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        name,
				Description: tool.Description().String(),
				Parameters: map[string]any{
					"type":       "object",
					"properties": properties,
					"required":   required,
				},
			},
		})
	}
	return defs
}

func convertToolChoice(toolChoice domain.ToolChoice) any {
	switch toolChoice.Type {
	case domain.ToolChoiceAny:
		return "required"
	case domain.ToolChoiceTool:
		return openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: string(toolChoice.Name)},
		}
	case domain.ToolChoiceNone:
		return "none"
	default:
		return "auto"
	}
}
