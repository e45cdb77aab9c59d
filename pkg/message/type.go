package message

import "time"

// TokenUsage holds token usage information for a message
type TokenUsage struct {
	InputTokens  int // Tokens consumed for input (prompt + context)
	OutputTokens int // Tokens generated in response
	TotalTokens  int // Total tokens (input + output)
	CachedTokens int // Input tokens served from the provider's prompt cache
}

// Add returns the element-wise sum of u and o.
func (u TokenUsage) Add(o TokenUsage) TokenUsage {
	return TokenUsage{
		InputTokens:  u.InputTokens + o.InputTokens,
		OutputTokens: u.OutputTokens + o.OutputTokens,
		TotalTokens:  u.TotalTokens + o.TotalTokens,
		CachedTokens: u.CachedTokens + o.CachedTokens,
	}
}

type MessageType int

const (
	MessageTypeUser MessageType = iota
	MessageTypeAssistant
	MessageTypeSystem
	MessageTypeToolCall
	MessageTypeToolCallBatch
	MessageTypeToolResult
)

func (m MessageType) String() string {
	switch m {
	case MessageTypeUser:
		return "user"
	case MessageTypeAssistant:
		return "assistant"
	case MessageTypeSystem:
		return "system"
	case MessageTypeToolCall:
		return "tool_call"
	case MessageTypeToolCallBatch:
		return "tool_call_batch"
	case MessageTypeToolResult:
		return "tool_result"
	default:
		return "unknown"
	}
}

// Message is the provider-neutral unit of conversation history.
type Message interface {
	ID() string
	Type() MessageType
	Content() string
	Timestamp() time.Time

	// String returns a debug representation
	String() string
	// TruncatedString returns a one-line preview for the history listing
	TruncatedString() string

	TokenUsage() TokenUsage
	SetTokenUsage(usage TokenUsage)

	Metadata() map[string]any
}
