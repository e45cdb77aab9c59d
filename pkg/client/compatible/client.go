package compatible

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	pkgerrors "github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"github.com/fpt/editagent/pkg/agent/domain"
	"github.com/fpt/editagent/pkg/logger"
	"github.com/fpt/editagent/pkg/message"
)

const (
	defaultMaxTokens    = 4096
	defaultContextSize  = 128000
	defaultRetryBackoff = time.Second
)

// chatCompleter is the part of *openai.Client the backend uses.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// CompatibleClient talks Chat Completions to any OpenAI-compatible gateway
// (LiteLLM, vLLM, LM Studio).
type CompatibleClient struct {
	client      chatCompleter
	model       string
	maxTokens   int
	temperature *float64
	maxRetries  int
	backoff     time.Duration
	toolManager domain.ToolManager

	lastUsage message.TokenUsage
	logger    *logger.Logger
}

var (
	_ domain.ToolCallingLLM        = (*CompatibleClient)(nil)
	_ domain.TokenUsageProvider    = (*CompatibleClient)(nil)
	_ domain.ContextWindowProvider = (*CompatibleClient)(nil)
)

// NewCompatibleClient creates a client. A base URL and a model are required;
// the API key falls back to OPENAI_API_KEY and may be empty for local servers.
func NewCompatibleClient(opts domain.ClientOptions) (*CompatibleClient, error) {
	if opts.BaseURL == "" {
		return nil, pkgerrors.New("compatible backend requires base_url")
	}
	if opts.Model == "" {
		return nil, pkgerrors.New("compatible backend requires a model")
	}

	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = opts.BaseURL
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}

	return newClient(openai.NewClientWithConfig(cfg), opts), nil
}

func newClient(completer chatCompleter, opts domain.ClientOptions) *CompatibleClient {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &CompatibleClient{
		client:      completer,
		model:       opts.Model,
		maxTokens:   maxTokens,
		temperature: opts.Temperature,
		maxRetries:  opts.MaxRetries,
		backoff:     defaultRetryBackoff,
		logger:      logger.NewComponentLogger("compatible"),
	}
}

func (c *CompatibleClient) ModelID() string       { return c.model }
func (c *CompatibleClient) MaxContextTokens() int { return defaultContextSize }

func (c *CompatibleClient) LastTokenUsage() (message.TokenUsage, bool) {
	if c.lastUsage.TotalTokens != 0 {
		return c.lastUsage, true
	}
	return message.TokenUsage{}, false
}

// SetToolManager sets the tool manager for function calling
func (c *CompatibleClient) SetToolManager(toolManager domain.ToolManager) {
	c.toolManager = toolManager
}

// Chat sends the conversation with tool choice auto.
func (c *CompatibleClient) Chat(ctx context.Context, messages []message.Message) (message.Message, error) {
	return c.ChatWithToolChoice(ctx, messages, domain.NewToolChoiceAuto())
}

// ChatWithToolChoice sends one Chat Completions request, retrying
// transient failures.
func (c *CompatibleClient) ChatWithToolChoice(ctx context.Context, messages []message.Message, toolChoice domain.ToolChoice) (message.Message, error) {
	req := openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  toChatMessages(messages),
		MaxTokens: c.maxTokens,
	}
	if c.temperature != nil {
		req.Temperature = float32(*c.temperature)
	}
	if c.toolManager != nil && toolChoice.Type != domain.ToolChoiceNone {
		if tools := convertTools(c.toolManager.GetTools()); len(tools) > 0 {
			req.Tools = tools
			req.ToolChoice = convertToolChoice(toolChoice)
		}
	}

	resp, err := c.createWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}

	c.lastUsage = message.TokenUsage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}

	if len(resp.Choices) == 0 {
		return nil, pkgerrors.New("no choices in chat completion response")
	}
	return fromChatMessage(resp.Choices[0].Message)
}

// createWithRetry retries transient failures up to maxRetries times with
// exponential backoff starting at c.backoff.
func (c *CompatibleClient) createWithRetry(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.backoff
	policy.MaxElapsedTime = 0

	var resp openai.ChatCompletionResponse
	operation := func() error {
		var err error
		resp, err = c.client.CreateChatCompletion(ctx, req)
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			return backoff.Permanent(ctx.Err())
		case !isRetryable(err):
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("Retrying chat completion", "wait", wait, "error", err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(max(c.maxRetries, 0))), ctx)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		if ctx.Err() != nil {
			return openai.ChatCompletionResponse{}, ctx.Err()
		}
		return openai.ChatCompletionResponse{}, pkgerrors.Wrap(err, "chat completion failed")
	}
	return resp, nil
}

// isRetryable reports transport failures, 429 and 5xx responses.
func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	return true
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
