package client

import (
	"fmt"

	"github.com/fpt/editagent/internal/config"
	"github.com/fpt/editagent/pkg/agent/domain"
	"github.com/fpt/editagent/pkg/client/anthropic"
	"github.com/fpt/editagent/pkg/client/compatible"
	"github.com/fpt/editagent/pkg/client/gemini"
	"github.com/fpt/editagent/pkg/client/ollama"
	"github.com/fpt/editagent/pkg/client/openai"
)

// NewLLMClient creates a tool calling client based on settings.
func NewLLMClient(settings config.LLMSettings) (domain.ToolCallingLLM, error) {
	opts := ClientOptions(settings)

	switch settings.Backend {
	case config.BackendAnthropic, "claude":
		return anthropic.NewAnthropicClient(opts)
	case config.BackendOpenAI:
		return openai.NewOpenAIClient(opts)
	case config.BackendGemini:
		return gemini.NewGeminiClient(opts)
	case config.BackendOllama:
		return ollama.NewOllamaClient(opts)
	case config.BackendCompatible:
		return compatible.NewCompatibleClient(opts)
	default:
		return nil, fmt.Errorf("unsupported LLM backend: %s", settings.Backend)
	}
}

// ClientOptions maps LLM settings onto provider options. The API key is read
// from the configured environment variable.
func ClientOptions(settings config.LLMSettings) domain.ClientOptions {
	return domain.ClientOptions{
		Model:            settings.Model,
		APIKey:           settings.APIKey(),
		BaseURL:          settings.BaseURL,
		MaxTokens:        settings.MaxTokens,
		Temperature:      settings.Temperature,
		Timeout:          settings.Timeout(),
		MaxRetries:       settings.MaxRetries,
		NativeEditorTool: settings.NativeEditorTool,
	}
}

// NewClientWithToolManager attaches the tool manager to a client.
func NewClientWithToolManager(client domain.LLM, toolManager domain.ToolManager) (domain.ToolCallingLLM, error) {
	toolCallingClient, ok := client.(domain.ToolCallingLLM)
	if !ok {
		return nil, fmt.Errorf("%w: %T", domain.ErrInvalidClientType, client)
	}
	toolCallingClient.SetToolManager(toolManager)
	return toolCallingClient, nil
}
