package domain

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/fpt/editagent/pkg/message"
)

var ErrInvalidClientType = errors.New("invalid client type for tool calling")

// LLM represents the base language model interface for basic chat functionality
type LLM interface {
	// Chat sends the conversation to the model and returns its reply
	Chat(ctx context.Context, messages []message.Message) (message.Message, error)
	// ModelID returns a stable identifier for the underlying model
	ModelID() string
}

// ToolCallingLLM extends LLM with tool calling capabilities.
// A reply is a *message.ChatMessage (final answer), a *message.ToolCallMessage
// or a *message.ToolCallBatchMessage.
type ToolCallingLLM interface {
	LLM

	// SetToolManager sets the tool manager for this client
	SetToolManager(toolManager ToolManager)

	// ChatWithToolChoice sends the conversation with tool choice control
	ChatWithToolChoice(ctx context.Context, messages []message.Message, toolChoice ToolChoice) (message.Message, error)
}

// ClientOptions configures a provider client. Zero values select the
// provider defaults.
type ClientOptions struct {
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature *float64
	Timeout     time.Duration
	MaxRetries  int
	// NativeEditorTool declares the editor as the provider's built-in text
	// editor tool where one exists (Anthropic).
	NativeEditorTool bool
}
