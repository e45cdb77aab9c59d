package ollama

import "strings"

type OllamaModel struct {
	Name string `json:"name"`

	// Tool indicates whether the model supports native tool calling
	Tool bool `json:"tool"`

	// Context indicates the context length of the model
	Context int `json:"context"`
}

// Known models, from https://ollama.com/search. Entries are matched by
// substring, so "qwen3" covers every qwen3 tag.
var ollamaModels = []OllamaModel{
	{Name: "gpt-oss", Tool: true, Context: 128000},
	{Name: "qwen3-coder", Tool: true, Context: 256000},
	{Name: "qwen3", Tool: true, Context: 40960},
	{Name: "qwen2.5-coder", Tool: true, Context: 32768},
	{Name: "llama3.1", Tool: true, Context: 128000},
	{Name: "mistral", Tool: true, Context: 32768},
	{Name: "gemma3", Tool: false, Context: 8192},
}

func lookupModel(model string) (OllamaModel, bool) {
	modelLower := strings.ToLower(model)
	for _, ollamaModel := range ollamaModels {
		if strings.Contains(modelLower, ollamaModel.Name) {
			return ollamaModel, true
		}
	}
	return OllamaModel{}, false
}

// IsToolCapableModel reports whether tools should be sent to the model.
// Unknown models are assumed capable; the server rejects the request otherwise.
func IsToolCapableModel(model string) bool {
	if m, ok := lookupModel(model); ok {
		return m.Tool
	}
	return true
}

// IsModelInKnownList checks if a model is in our known models list
func IsModelInKnownList(model string) bool {
	_, ok := lookupModel(model)
	return ok
}

// GetModelContextWindow returns the known context window for a model.
// If the model isn't in the known list, returns 0 to indicate unknown.
func GetModelContextWindow(model string) int {
	m, _ := lookupModel(model)
	return m.Context
}
