package domain

import (
	"github.com/fpt/editagent/pkg/message"
)

// TokenUsageProvider is an optional extension that LLM clients can implement
// to expose token accounting information from the most recent API call.
// It returns (message.TokenUsage{}, false) when the backend reported nothing.
type TokenUsageProvider interface {
	LastTokenUsage() (message.TokenUsage, bool)
}

// ContextWindowProvider is an optional extension exposing the model's maximum
// input token capacity. Implementations return a conservative best-known value.
type ContextWindowProvider interface {
	MaxContextTokens() int
}
