package state

import (
	"github.com/fpt/editagent/pkg/agent/domain"
	"github.com/fpt/editagent/pkg/message"
)

// MessageState is the in-memory conversation history of one session.
// It is never persisted; undo backups live in the editor, not here.
type MessageState struct {
	Messages []message.Message
	Metadata map[string]any
}

var _ domain.State = (*MessageState)(nil)

// NewMessageState creates a new message state (in-memory only)
func NewMessageState() *MessageState {
	return &MessageState{
		Messages: make([]message.Message, 0),
		Metadata: make(map[string]any),
	}
}

func (c *MessageState) GetMessages() []message.Message {
	return c.Messages
}

// AddMessage adds a message to the context
func (c *MessageState) AddMessage(msg message.Message) {
	c.Messages = append(c.Messages, msg)
}

// GetLastMessage returns the last message in the context
func (c *MessageState) GetLastMessage() message.Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// Clear clears all messages from the context
func (c *MessageState) Clear() {
	c.Messages = make([]message.Message, 0)
}

// GetTotalTokenUsage sums the usage recorded on every message.
func (c *MessageState) GetTotalTokenUsage() message.TokenUsage {
	var total message.TokenUsage
	for _, msg := range c.Messages {
		total = total.Add(msg.TokenUsage())
	}
	return total
}

// DropDanglingToolCalls removes tool calls that never received a result,
// which happens when a turn is cancelled between a call and its execution.
// Providers reject a history containing them. Returns the number removed.
func (c *MessageState) DropDanglingToolCalls() int {
	answered := make(map[string]bool)
	for _, msg := range c.Messages {
		if msg.Type() == message.MessageTypeToolResult {
			answered[msg.ID()] = true
		}
	}

	kept := make([]message.Message, 0, len(c.Messages))
	removed := 0
	for _, msg := range c.Messages {
		if msg.Type() == message.MessageTypeToolCall && !answered[msg.ID()] {
			removed++
			continue
		}
		kept = append(kept, msg)
	}
	if removed > 0 {
		c.Messages = kept
	}
	return removed
}

// GetValidConversationHistory returns at most maxMessages recent messages,
// keeping tool call/result pairs together so the window never starts with
// an orphaned result.
func (c *MessageState) GetValidConversationHistory(maxMessages int) []message.Message {
	if len(c.Messages) == 0 || maxMessages <= 0 {
		return nil
	}

	start := len(c.Messages) - maxMessages
	if start < 0 {
		start = 0
	}
	// A window starting at a result would lose its call; move past it.
	for start < len(c.Messages) && c.Messages[start].Type() == message.MessageTypeToolResult {
		start++
	}

	window := c.Messages[start:]
	calls := make(map[string]bool)
	results := make(map[string]bool)
	for _, msg := range window {
		switch msg.Type() {
		case message.MessageTypeToolCall:
			calls[msg.ID()] = true
		case message.MessageTypeToolResult:
			results[msg.ID()] = true
		}
	}

	valid := make([]message.Message, 0, len(window))
	for _, msg := range window {
		switch msg.Type() {
		case message.MessageTypeToolCall:
			if !results[msg.ID()] {
				continue
			}
		case message.MessageTypeToolResult:
			if !calls[msg.ID()] {
				continue
			}
		}
		valid = append(valid, msg)
	}
	return valid
}
