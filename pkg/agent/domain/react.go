package domain

import (
	"context"

	"github.com/fpt/editagent/pkg/message"
)

// ReAct runs the model/tool loop for one user turn at a time.
type ReAct interface {
	// Run appends prompt to the history and loops until the model answers without tools
	Run(ctx context.Context, prompt string) (message.Message, error)
	GetLastMessage() message.Message
	GetMessages() []message.Message
	ClearHistory()
	GetConversationSummary() string
}
