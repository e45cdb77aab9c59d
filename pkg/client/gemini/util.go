package gemini

import "strings"

// Gemini 2.5 models
// https://ai.google.dev/gemini-api/docs/models

const (
	modelGemini25Pro       = "gemini-2.5-pro"
	modelGemini25Flash     = "gemini-2.5-flash"
	modelGemini25FlashLite = "gemini-2.5-flash-lite"
)

// getGeminiModel resolves short aliases. Other gemini-* names pass through;
// anything else falls back to Flash.
func getGeminiModel(model string) string {
	switch model {
	case "gemini-pro", "pro":
		return modelGemini25Pro
	case "", "gemini-flash", "flash":
		return modelGemini25Flash
	case "gemini-2.5-lite", "gemini-lite", "lite":
		return modelGemini25FlashLite
	}
	if strings.HasPrefix(model, "gemini-") {
		return model
	}
	return modelGemini25Flash
}

// ModelCapabilities represents the limits of a Gemini model
type ModelCapabilities struct {
	MaxTokens        int
	MaxContextWindow int
}

func getModelCapabilities(model string) ModelCapabilities {
	switch {
	case strings.HasPrefix(model, "gemini-2.5"), strings.HasPrefix(model, "gemini-3"):
		return ModelCapabilities{MaxTokens: 65536, MaxContextWindow: 1048576}
	case strings.HasPrefix(model, "gemini-2.0"):
		return ModelCapabilities{MaxTokens: 8192, MaxContextWindow: 1048576}
	default:
		return ModelCapabilities{MaxTokens: 8192, MaxContextWindow: 32768}
	}
}
