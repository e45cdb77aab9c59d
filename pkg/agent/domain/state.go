package domain

import (
	"github.com/fpt/editagent/pkg/message"
)

// State is the conversation history of one agent session.
type State interface {
	GetMessages() []message.Message
	AddMessage(msg message.Message)
	GetLastMessage() message.Message
	Clear()
	// GetTotalTokenUsage sums the usage recorded on every message
	GetTotalTokenUsage() message.TokenUsage
}
