package openai

import (
	"context"
	"os"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/responses"
	"github.com/openai/openai-go/v2/shared"
	"github.com/pkg/errors"

	"github.com/fpt/editagent/pkg/agent/domain"
	"github.com/fpt/editagent/pkg/message"
)

const defaultReasoningEffort = shared.ReasoningEffortLow

// OpenAIClient implements domain.ToolCallingLLM on the Responses API.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature *float64
	toolManager domain.ToolManager

	lastUsage message.TokenUsage
}

var (
	_ domain.ToolCallingLLM        = (*OpenAIClient)(nil)
	_ domain.TokenUsageProvider    = (*OpenAIClient)(nil)
	_ domain.ContextWindowProvider = (*OpenAIClient)(nil)
)

// NewOpenAIClient creates a client. The API key falls back to OPENAI_API_KEY
// and the base URL to OPENAI_BASE_URL (Azure OpenAI and proxies).
func NewOpenAIClient(opts domain.ClientOptions) (*OpenAIClient, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	requestOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if baseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(baseURL))
	}
	if opts.MaxRetries > 0 {
		requestOpts = append(requestOpts, option.WithMaxRetries(opts.MaxRetries))
	}
	if opts.Timeout > 0 {
		requestOpts = append(requestOpts, option.WithRequestTimeout(opts.Timeout))
	}
	client := openai.NewClient(requestOpts...)

	model := getOpenAIModel(opts.Model)
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = getModelCapabilities(model).MaxTokens
	}

	return &OpenAIClient{
		client:      &client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: opts.Temperature,
	}, nil
}

// ModelID returns the configured model.
func (c *OpenAIClient) ModelID() string { return c.model }

// ContextWindowProvider implementation
func (c *OpenAIClient) MaxContextTokens() int {
	if caps := getModelCapabilities(c.model); caps.MaxContextWindow > 0 {
		return caps.MaxContextWindow
	}
	return 128000
}

// TokenUsageProvider implementation (best-effort; populated when available)
func (c *OpenAIClient) LastTokenUsage() (message.TokenUsage, bool) {
	if c.lastUsage.TotalTokens != 0 {
		return c.lastUsage, true
	}
	return message.TokenUsage{}, false
}

// SetToolManager implements ToolCallingLLM interface
func (c *OpenAIClient) SetToolManager(toolManager domain.ToolManager) {
	c.toolManager = toolManager
}

// Chat sends the conversation with tool choice auto when tools are set.
func (c *OpenAIClient) Chat(ctx context.Context, messages []message.Message) (message.Message, error) {
	return c.ChatWithToolChoice(ctx, messages, domain.NewToolChoiceAuto())
}

// ChatWithToolChoice implements ToolCallingLLM interface with native OpenAI tool calling
func (c *OpenAIClient) ChatWithToolChoice(ctx context.Context, messages []message.Message, toolChoice domain.ToolChoice) (message.Message, error) {
	params := responses.ResponseNewParams{
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: convertMessagesToResponsesInputItems(messages),
		},
		Model: shared.ChatModel(c.model),
	}
	if c.maxTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(c.maxTokens))
	}

	caps := getModelCapabilities(c.model)
	if caps.SupportsThinking {
		params.Reasoning = shared.ReasoningParam{Effort: defaultReasoningEffort}
	} else if c.temperature != nil {
		// Reasoning models reject temperature.
		params.Temperature = openai.Float(*c.temperature)
	}

	if c.toolManager != nil {
		if tools := convertTools(c.toolManager.GetTools()); len(tools) > 0 {
			params.Tools = tools
			params.ToolChoice = convertToolChoice(toolChoice)
		}
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "Responses API call failed")
	}

	if resp.Usage.JSON.TotalTokens.Valid() {
		c.lastUsage = message.TokenUsage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
			TotalTokens:  int(resp.Usage.TotalTokens),
			CachedTokens: int(resp.Usage.InputTokensDetails.CachedTokens),
		}
	}

	var toolCalls []*message.ToolCallMessage
	for _, outputItem := range resp.Output {
		if call, ok := outputItem.AsAny().(responses.ResponseFunctionToolCall); ok && call.Name != "" {
			toolCalls = append(toolCalls, message.NewToolCallMessageWithID(
				call.CallID,
				message.ToolName(call.Name),
				convertOpenAIArgsToToolArgs(call.Arguments),
			))
		}
	}

	switch len(toolCalls) {
	case 0:
	case 1:
		return toolCalls[0], nil
	default:
		return message.NewToolCallBatch(toolCalls), nil
	}

	text := resp.OutputText()
	if text == "" {
		return nil, errors.New("empty response from Responses API")
	}
	return message.NewAssistantMessage(text), nil
}

// convertMessagesToResponsesInputItems converts internal messages to structured input items for Responses API
func convertMessagesToResponsesInputItems(messages []message.Message) responses.ResponseInputParam {
	var inputItems responses.ResponseInputParam

	for _, msg := range messages {
		switch msg.Type() {
		case message.MessageTypeUser:
			inputItems = append(inputItems, responses.ResponseInputItemParamOfMessage(msg.Content(), responses.EasyInputMessageRoleUser))
		case message.MessageTypeAssistant:
			if msg.Content() == "" {
				continue
			}
			inputItems = append(inputItems, responses.ResponseInputItemParamOfMessage(msg.Content(), responses.EasyInputMessageRoleAssistant))
		case message.MessageTypeSystem:
			inputItems = append(inputItems, responses.ResponseInputItemParamOfMessage(msg.Content(), responses.EasyInputMessageRoleSystem))
		case message.MessageTypeToolCall:
			if call, ok := msg.(*message.ToolCallMessage); ok {
				inputItems = append(inputItems, responses.ResponseInputItemParamOfFunctionCall(
					call.ToolArguments().JSON(),
					call.ID(),
					call.ToolName().String(),
				))
			}
		case message.MessageTypeToolResult:
			if result, ok := msg.(*message.ToolResultMessage); ok {
				inputItems = append(inputItems, responses.ResponseInputItemParamOfFunctionCallOutput(
					result.CallID(),
					result.Result,
				))
			}
		}
	}

	return inputItems
}
