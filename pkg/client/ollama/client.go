package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/pkg/errors"

	"github.com/fpt/editagent/pkg/agent/domain"
	"github.com/fpt/editagent/pkg/message"
)

const (
	defaultTemperature = 0.1
	defaultMaxTokens   = 4096
	defaultModel       = "gpt-oss:20b"
)

// OllamaClient implements domain.ToolCallingLLM for a local Ollama server.
type OllamaClient struct {
	client      *api.Client
	model       string
	maxTokens   int
	temperature float64
	toolManager domain.ToolManager

	lastUsage message.TokenUsage
}

var (
	_ domain.ToolCallingLLM        = (*OllamaClient)(nil)
	_ domain.TokenUsageProvider    = (*OllamaClient)(nil)
	_ domain.ContextWindowProvider = (*OllamaClient)(nil)
)

// NewOllamaClient connects to BaseURL, or to OLLAMA_HOST when it is empty.
func NewOllamaClient(opts domain.ClientOptions) (*OllamaClient, error) {
	var (
		client *api.Client
		err    error
	)
	if opts.BaseURL != "" {
		base, perr := url.Parse(opts.BaseURL)
		if perr != nil {
			return nil, errors.Wrapf(perr, "invalid Ollama base URL %q", opts.BaseURL)
		}
		client = api.NewClient(base, &http.Client{Timeout: opts.Timeout})
	} else {
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, errors.Wrap(err, "failed to create Ollama client")
		}
	}

	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := defaultTemperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}

	return &OllamaClient{
		client:      client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}, nil
}

// SetToolManager sets the tool manager for native tool calling
func (c *OllamaClient) SetToolManager(toolManager domain.ToolManager) {
	c.toolManager = toolManager
}

// ModelID returns the configured model.
func (c *OllamaClient) ModelID() string { return c.model }

// ContextWindowProvider implementation
func (c *OllamaClient) MaxContextTokens() int {
	return GetModelContextWindow(c.model)
}

// TokenUsageProvider implementation
func (c *OllamaClient) LastTokenUsage() (message.TokenUsage, bool) {
	if c.lastUsage.TotalTokens != 0 {
		return c.lastUsage, true
	}
	return message.TokenUsage{}, false
}

// Chat sends the conversation with tool choice auto when tools are set.
func (c *OllamaClient) Chat(ctx context.Context, messages []message.Message) (message.Message, error) {
	return c.ChatWithToolChoice(ctx, messages, domain.NewToolChoiceAuto())
}

// ChatWithToolChoice sends a message to Ollama. Ollama has no tool_choice
// parameter, so Any and Tool are expressed as a system instruction.
func (c *OllamaClient) ChatWithToolChoice(ctx context.Context, messages []message.Message, toolChoice domain.ToolChoice) (message.Message, error) {
	ollamaMessages := toOllamaMessages(messages)

	chatRequest := &api.ChatRequest{
		Model:    c.model,
		Messages: ollamaMessages,
		Options: map[string]any{
			"temperature": c.temperature,
			"num_predict": c.maxTokens,
		},
	}

	if IsToolCapableModel(c.model) && c.toolManager != nil && toolChoice.Type != domain.ToolChoiceNone {
		if tools := convertToOllamaTools(c.toolManager.GetTools()); len(tools) > 0 {
			chatRequest.Tools = tools
			switch toolChoice.Type {
			case domain.ToolChoiceAny:
				chatRequest.Messages = addToolUsageSystemMessage(ollamaMessages, "You MUST use at least one of the available tools. Do not answer without using a tool.")
			case domain.ToolChoiceTool:
				chatRequest.Messages = addToolUsageSystemMessage(ollamaMessages, fmt.Sprintf("You MUST use the '%s' tool. Do not answer without using it.", toolChoice.Name))
			}
		}
	}

	result, err := c.chat(ctx, chatRequest)
	if err != nil {
		return nil, err
	}
	return toDomainMessageFromOllama(result), nil
}

// chat accumulates the streamed reply. Thinking tokens are discarded.
func (c *OllamaClient) chat(ctx context.Context, chatRequest *api.ChatRequest) (api.Message, error) {
	var result api.Message
	var contentBuilder strings.Builder

	err := c.client.Chat(ctx, chatRequest, func(resp api.ChatResponse) error {
		contentBuilder.WriteString(resp.Message.Content)
		if len(resp.Message.ToolCalls) > 0 {
			result.ToolCalls = append(result.ToolCalls, resp.Message.ToolCalls...)
		}
		if resp.Done {
			// prompt_eval_count and eval_count may be zero when the backend doesn't supply them.
			c.lastUsage = message.TokenUsage{
				InputTokens:  int(resp.PromptEvalCount),
				OutputTokens: int(resp.EvalCount),
				TotalTokens:  int(resp.PromptEvalCount + resp.EvalCount),
			}
			result.Role = resp.Message.Role
		}
		return nil
	})
	if err != nil {
		return api.Message{}, errors.Wrap(err, "ollama chat error")
	}

	result.Content = contentBuilder.String()
	return result, nil
}
