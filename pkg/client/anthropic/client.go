package anthropic

import (
	"context"
	"encoding/json"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"

	"github.com/fpt/editagent/pkg/agent/domain"
	pkgLogger "github.com/fpt/editagent/pkg/logger"
	"github.com/fpt/editagent/pkg/message"
)

const (
	defaultMaxTokens = 8192
)

func logger() *pkgLogger.Logger { return pkgLogger.NewComponentLogger("anthropic") }

// AnthropicClient handles communication with Claude models.
// Implements domain.ToolCallingLLM.
type AnthropicClient struct {
	client      *anthropic.Client
	model       string
	maxTokens   int
	temperature *float64
	native      bool
	toolManager domain.ToolManager

	lastUsage message.TokenUsage
}

var (
	_ domain.ToolCallingLLM        = (*AnthropicClient)(nil)
	_ domain.TokenUsageProvider    = (*AnthropicClient)(nil)
	_ domain.ContextWindowProvider = (*AnthropicClient)(nil)
)

// NewAnthropicClient creates a client. The API key falls back to ANTHROPIC_API_KEY.
func NewAnthropicClient(opts domain.ClientOptions) (*AnthropicClient, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY environment variable not set")
	}

	requestOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if opts.BaseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.MaxRetries > 0 {
		requestOpts = append(requestOpts, option.WithMaxRetries(opts.MaxRetries))
	}
	if opts.Timeout > 0 {
		requestOpts = append(requestOpts, option.WithRequestTimeout(opts.Timeout))
	}
	client := anthropic.NewClient(requestOpts...)

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &AnthropicClient{
		client:      &client,
		model:       string(getAnthropicModel(opts.Model)),
		maxTokens:   maxTokens,
		temperature: opts.Temperature,
		native:      opts.NativeEditorTool,
	}, nil
}

// ModelID returns the configured model.
func (c *AnthropicClient) ModelID() string { return c.model }

// ContextWindowProvider implementation
func (c *AnthropicClient) MaxContextTokens() int {
	return getModelContextWindow(c.model)
}

// TokenUsageProvider implementation (populated from Message.Usage when available)
func (c *AnthropicClient) LastTokenUsage() (message.TokenUsage, bool) {
	if c.lastUsage.TotalTokens != 0 {
		return c.lastUsage, true
	}
	return message.TokenUsage{}, false
}

// SetToolManager sets the tool manager for dynamic tool definitions
func (c *AnthropicClient) SetToolManager(toolManager domain.ToolManager) {
	c.toolManager = toolManager
}

// Chat sends the conversation with tool choice auto when tools are set.
func (c *AnthropicClient) Chat(ctx context.Context, messages []message.Message) (message.Message, error) {
	return c.ChatWithToolChoice(ctx, messages, domain.NewToolChoiceAuto())
}

// ChatWithToolChoice sends a message to Claude with tool choice control
func (c *AnthropicClient) ChatWithToolChoice(ctx context.Context, messages []message.Message, toolChoice domain.ToolChoice) (message.Message, error) {
	anthropicMessages, system := toAnthropicMessages(messages)

	var (
		tools   []anthropic.ToolUnionParam
		nameMap map[string]message.ToolName
	)
	if c.toolManager != nil {
		tools, nameMap = convertToolsToAnthropic(c.toolManager.GetTools(), c.native)
	}

	params := anthropic.MessageNewParams{
		MaxTokens: int64(c.maxTokens),
		Messages:  anthropicMessages,
		Model:     anthropic.Model(c.model),
		System:    system,
		Tools:     tools,
	}
	if c.temperature != nil {
		params.Temperature = anthropic.Float(*c.temperature)
	}
	if len(tools) > 0 {
		params.ToolChoice = convertToolChoiceToAnthropic(toolChoice)
	}

	return c.chatWithStreaming(ctx, params, nameMap)
}

// chatWithStreaming streams the reply and accumulates it into one message.
func (c *AnthropicClient) chatWithStreaming(ctx context.Context, params anthropic.MessageNewParams, nameMap map[string]message.ToolName) (message.Message, error) {
	stream := c.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	var acc anthropic.Message
	for stream.Next() {
		if err := acc.Accumulate(stream.Current()); err != nil {
			return nil, errors.Wrap(err, "failed to accumulate streaming event")
		}
	}
	if err := stream.Err(); err != nil {
		return nil, errors.Wrap(err, "anthropic streaming error")
	}

	// CacheReadInputTokens: tokens served from cache.
	c.lastUsage = message.TokenUsage{
		InputTokens:  int(acc.Usage.InputTokens),
		OutputTokens: int(acc.Usage.OutputTokens),
		TotalTokens:  int(acc.Usage.InputTokens + acc.Usage.OutputTokens),
		CachedTokens: int(acc.Usage.CacheReadInputTokens),
	}

	if len(acc.Content) == 0 {
		return nil, errors.New("no content in accumulated Anthropic message")
	}
	return fromAnthropicContent(acc.Content, nameMap)
}

// fromAnthropicContent turns response blocks into a chat message, a single
// tool call or a batch of tool calls. Provider tool_use ids are kept so the
// results can be matched on the next request.
func fromAnthropicContent(blocks []anthropic.ContentBlockUnion, nameMap map[string]message.ToolName) (message.Message, error) {
	var (
		content string
		calls   []*message.ToolCallMessage
	)
	for _, block := range blocks {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			content += variant.Text
		case anthropic.ToolUseBlock:
			args := make(map[string]any)
			if len(variant.Input) > 0 {
				if err := json.Unmarshal(variant.Input, &args); err != nil {
					return nil, errors.Wrapf(err, "failed to parse arguments of tool %s", variant.Name)
				}
			}
			name, ok := nameMap[variant.Name]
			if !ok {
				name = message.ToolName(variant.Name)
			}
			calls = append(calls, message.NewToolCallMessageWithID(variant.ID, name, message.ToolArgumentValues(args)))
		}
	}

	switch len(calls) {
	case 0:
		return message.NewAssistantMessage(content), nil
	case 1:
		if content != "" {
			logger().Debug("Dropping text preceding tool call", "text", content)
		}
		return calls[0], nil
	default:
		return message.NewToolCallBatch(calls), nil
	}
}
