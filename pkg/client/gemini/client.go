package gemini

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/fpt/editagent/pkg/agent/domain"
	"github.com/fpt/editagent/pkg/logger"
	"github.com/fpt/editagent/pkg/message"
)

const defaultMaxTokens = 8192

// GeminiClient implements domain.ToolCallingLLM on the Gemini API.
type GeminiClient struct {
	client      *genai.Client
	model       string
	maxTokens   int
	temperature *float64
	toolManager domain.ToolManager

	lastUsage message.TokenUsage
	logger    *logger.Logger
}

var (
	_ domain.ToolCallingLLM        = (*GeminiClient)(nil)
	_ domain.TokenUsageProvider    = (*GeminiClient)(nil)
	_ domain.ContextWindowProvider = (*GeminiClient)(nil)
)

// NewGeminiClient creates a client. The API key falls back to GEMINI_API_KEY.
func NewGeminiClient(opts domain.ClientOptions) (*GeminiClient, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable not set")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions.BaseURL = opts.BaseURL
	}
	if opts.Timeout > 0 {
		cfg.HTTPOptions.Timeout = genai.Ptr(opts.Timeout)
	}

	client, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Gemini client")
	}

	model := getGeminiModel(opts.Model)
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if limit := getModelCapabilities(model).MaxTokens; maxTokens > limit {
		maxTokens = limit
	}

	return &GeminiClient{
		client:      client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: opts.Temperature,
		logger:      logger.NewComponentLogger("gemini"),
	}, nil
}

func (c *GeminiClient) ModelID() string { return c.model }

func (c *GeminiClient) MaxContextTokens() int {
	return getModelCapabilities(c.model).MaxContextWindow
}

func (c *GeminiClient) LastTokenUsage() (message.TokenUsage, bool) {
	if c.lastUsage.TotalTokens != 0 {
		return c.lastUsage, true
	}
	return message.TokenUsage{}, false
}

// SetToolManager sets the tool manager for native function calling
func (c *GeminiClient) SetToolManager(toolManager domain.ToolManager) {
	c.toolManager = toolManager
}

// Chat sends the conversation with tool choice auto.
func (c *GeminiClient) Chat(ctx context.Context, messages []message.Message) (message.Message, error) {
	return c.ChatWithToolChoice(ctx, messages, domain.NewToolChoiceAuto())
}

// ChatWithToolChoice sends the conversation with native function declarations.
func (c *GeminiClient) ChatWithToolChoice(ctx context.Context, messages []message.Message, toolChoice domain.ToolChoice) (message.Message, error) {
	contents, systemInstruction := toGeminiContents(messages)

	config := &genai.GenerateContentConfig{
		MaxOutputTokens:   int32(c.maxTokens),
		SystemInstruction: systemInstruction,
	}
	if c.temperature != nil {
		config.Temperature = genai.Ptr(float32(*c.temperature))
	}
	if c.toolManager != nil {
		if tools := convertToolsToGemini(c.toolManager.GetTools()); len(tools) > 0 {
			config.Tools = tools
			config.ToolConfig = convertToolChoiceToGemini(toolChoice, tools)
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, errors.Wrap(err, "Gemini API call failed")
	}

	if resp.UsageMetadata != nil {
		c.lastUsage = message.TokenUsage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
		}
		c.logger.Debug("Gemini usage",
			"input", c.lastUsage.InputTokens, "output", c.lastUsage.OutputTokens, "model", c.model)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("no response from Gemini")
	}
	return fromGeminiContent(resp.Candidates[0].Content)
}

// fromGeminiContent turns a candidate into a final answer or tool calls.
// Thought parts are skipped.
func fromGeminiContent(content *genai.Content) (message.Message, error) {
	var (
		calls []*message.ToolCallMessage
		text  strings.Builder
	)
	for _, part := range content.Parts {
		switch {
		case part.FunctionCall != nil:
			args := message.ToolArgumentValues(part.FunctionCall.Args)
			if args == nil {
				args = message.ToolArgumentValues{}
			}
			name := message.ToolName(part.FunctionCall.Name)
			if part.FunctionCall.ID != "" {
				calls = append(calls, message.NewToolCallMessageWithID(part.FunctionCall.ID, name, args))
			} else {
				calls = append(calls, message.NewToolCallMessage(name, args))
			}
		case part.Text != "" && !part.Thought:
			text.WriteString(part.Text)
		}
	}

	switch {
	case len(calls) == 1:
		return calls[0], nil
	case len(calls) > 1:
		return message.NewToolCallBatch(calls), nil
	}
	if text.Len() == 0 {
		return nil, errors.New("empty response from Gemini")
	}
	return message.NewAssistantMessage(text.String()), nil
}
