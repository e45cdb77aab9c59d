package openai

import (
	"strings"

	"github.com/openai/openai-go/v2/shared"
)

// Model constants
const (
	modelGPT5      = "gpt-5"
	modelGPT5Mini  = "gpt-5-mini"
	modelGPT5Nano  = "gpt-5-nano"
	modelGPT4o     = shared.ChatModelGPT4o
	modelGPT4oMini = shared.ChatModelGPT4oMini
)

// getOpenAIModel returns the model to request; empty selects gpt-5-mini.
func getOpenAIModel(model string) string {
	if model == "" {
		return modelGPT5Mini
	}
	return model
}

type ModelCapabilities struct {
	SupportsThinking bool // reasoning models take ReasoningEffort and reject temperature
	// MaxTokens configures default max output tokens (per-generation limit)
	MaxTokens int
	// MaxContextWindow is the model's approximate input context window size
	MaxContextWindow int
}

var modelCapabilities = map[string]ModelCapabilities{
	modelGPT5:      {SupportsThinking: true, MaxTokens: 16384, MaxContextWindow: 400000},
	modelGPT5Mini:  {SupportsThinking: true, MaxTokens: 16384, MaxContextWindow: 400000},
	modelGPT5Nano:  {SupportsThinking: true, MaxTokens: 8192, MaxContextWindow: 400000},
	modelGPT4o:     {SupportsThinking: false, MaxTokens: 8192, MaxContextWindow: 128000},
	modelGPT4oMini: {SupportsThinking: false, MaxTokens: 4096, MaxContextWindow: 128000},
}

// getModelCapabilities returns the capabilities of a specific OpenAI model.
// Unknown o-series and gpt-5 variants are treated as reasoning models.
func getModelCapabilities(model string) ModelCapabilities {
	if caps, ok := modelCapabilities[model]; ok {
		return caps
	}
	if strings.HasPrefix(model, "gpt-5") || strings.HasPrefix(model, "o1") ||
		strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") {
		return ModelCapabilities{SupportsThinking: true, MaxTokens: 16384, MaxContextWindow: 200000}
	}
	return ModelCapabilities{MaxTokens: 8192, MaxContextWindow: 128000}
}
