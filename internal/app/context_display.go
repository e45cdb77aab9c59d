package app

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/tiktoken-go/tokenizer"

	"github.com/fpt/editagent/pkg/agent/domain"
	"github.com/fpt/editagent/pkg/message"
)

// perMessageOverhead approximates the role and framing tokens providers add.
const perMessageOverhead = 4

var (
	codec     tokenizer.Codec
	codecOnce sync.Once
	codecErr  error
)

// getCodec returns cl100k_base, close enough for every supported backend.
func getCodec() (tokenizer.Codec, error) {
	codecOnce.Do(func() {
		codec, codecErr = tokenizer.Get(tokenizer.Cl100kBase)
	})
	return codec, codecErr
}

// EstimateTokens counts text tokens, falling back to four bytes per token.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	if c, err := getCodec(); err == nil {
		if ids, _, err := c.Encode(text); err == nil {
			return len(ids)
		}
	}
	return int(math.Ceil(float64(len(text)) / 4.0))
}

// ContextDisplay handles context window usage visualization
type ContextDisplay struct{}

func NewContextDisplay() *ContextDisplay {
	return &ContextDisplay{}
}

// CalculateUsageDetails estimates how much of the model's window the history fills.
func (cd *ContextDisplay) CalculateUsageDetails(messageState domain.State, llmClient domain.LLM) (currentTokens, maxTokens, percentage int) {
	messages := messageState.GetMessages()
	if len(messages) == 0 {
		return 0, 0, 0
	}

	for _, msg := range messages {
		currentTokens += estimateMessageTokens(msg)
	}

	maxTokens = estimateContextWindow(llmClient)
	if maxTokens <= 0 {
		return 0, 0, 0
	}

	percentage = int(math.Round(float64(currentTokens) * 100.0 / float64(maxTokens)))
	if percentage > 100 {
		percentage = 100
	}
	return currentTokens, maxTokens, percentage
}

func estimateMessageTokens(msg message.Message) int {
	text := msg.Content()
	switch m := msg.(type) {
	case *message.ToolCallMessage:
		text = string(m.ToolName()) + " " + m.ToolArguments().JSON()
	case *message.ToolResultMessage:
		text = m.Result
	}
	return EstimateTokens(text) + perMessageOverhead
}

// estimateContextWindow asks the client first and falls back to a
// conservative window.
func estimateContextWindow(llmClient domain.LLM) int {
	if p, ok := llmClient.(domain.ContextWindowProvider); ok {
		if n := p.MaxContextTokens(); n > 0 {
			return n
		}
	}
	return 32000
}

// FormatContextUsage creates a right-aligned context usage line.
func (cd *ContextDisplay) FormatContextUsage(currentTokens, maxTokens, percentage int, terminalWidth int, colored bool) string {
	text := fmt.Sprintf("Context: %d/%d (%d%%)", currentTokens, maxTokens, percentage)

	padding := terminalWidth - runeLen(text)
	if padding < 0 {
		padding = 0
	}
	var color lipgloss.TerminalColor
	switch {
	case percentage < 50:
		color = dimColor
	case percentage < 80:
		color = accentColor
	default:
		color = errorColor
	}
	return strings.Repeat(" ", padding) + paint(colored, color, text)
}

// ShowContextUsage returns the status line for the current history, or "" when empty.
func (cd *ContextDisplay) ShowContextUsage(messageState domain.State, llmClient domain.LLM, colored bool) string {
	currentTokens, maxTokens, percentage := cd.CalculateUsageDetails(messageState, llmClient)
	if maxTokens == 0 {
		return ""
	}
	return cd.FormatContextUsage(currentTokens, maxTokens, percentage, TerminalWidth(), colored)
}

// FormatTokenUsage renders the provider-reported usage of the last call.
func FormatTokenUsage(llmClient domain.LLM) string {
	provider, ok := llmClient.(domain.TokenUsageProvider)
	if !ok {
		return ""
	}
	usage, ok := provider.LastTokenUsage()
	if !ok {
		return ""
	}
	return fmt.Sprintf("[usage] input=%d output=%d total=%d cached=%d",
		usage.InputTokens, usage.OutputTokens, usage.TotalTokens, usage.CachedTokens)
}
