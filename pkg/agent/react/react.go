package react

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/fpt/editagent/pkg/agent/domain"
	"github.com/fpt/editagent/pkg/agent/events"
	pkgLogger "github.com/fpt/editagent/pkg/logger"
	"github.com/fpt/editagent/pkg/message"
)

// ReAct drives the model/tool loop: the model either answers, ending the
// turn, or asks for tools whose results are fed back on the next iteration.
type ReAct struct {
	llmClient     domain.LLM
	state         domain.State
	toolManager   domain.ToolManager
	maxIterations int
	eventEmitter  *events.SimpleEventEmitter
}

var _ domain.ReAct = (*ReAct)(nil)

func reactLogger() *pkgLogger.Logger { return pkgLogger.NewComponentLogger("react") }

// danglingCallDropper is implemented by states that can repair a history
// interrupted between a tool call and its result.
type danglingCallDropper interface {
	DropDanglingToolCalls() int
}

func NewReAct(llmClient domain.LLM, toolManager domain.ToolManager, sharedState domain.State, maxIterations int) (*ReAct, events.EventEmitter) {
	if maxIterations <= 0 {
		maxIterations = 1
	}
	eventEmitter := events.NewSimpleEventEmitter()
	r := &ReAct{
		llmClient:     llmClient,
		toolManager:   toolManager,
		state:         sharedState,
		maxIterations: maxIterations,
		eventEmitter:  eventEmitter,
	}
	if toolClient, ok := llmClient.(domain.ToolCallingLLM); ok && toolManager != nil {
		toolClient.SetToolManager(toolManager)
	}
	return r, eventEmitter
}

// GetLastMessage returns the last message in the conversation without exposing state
func (r *ReAct) GetLastMessage() message.Message {
	return r.state.GetLastMessage()
}

func (r *ReAct) GetMessages() []message.Message {
	return r.state.GetMessages()
}

// ClearHistory clears the conversation history without exposing state
func (r *ReAct) ClearHistory() {
	r.state.Clear()
}

// GetConversationSummary returns a short digest of the last few exchanges.
func (r *ReAct) GetConversationSummary() string {
	messages := r.state.GetMessages()
	if len(messages) == 0 {
		return "This is the start of a new conversation."
	}

	var summary strings.Builder
	summary.WriteString("Recent conversation:\n")

	start := 0
	if len(messages) > 6 {
		start = len(messages) - 6
	}
	for _, msg := range messages[start:] {
		switch msg.Type() {
		case message.MessageTypeUser:
			fmt.Fprintf(&summary, "User: %s\n", msg.Content())
		case message.MessageTypeAssistant:
			content := msg.Content()
			content = message.TruncateBytes(content, 100)
			fmt.Fprintf(&summary, "Assistant: %s\n", content)
		case message.MessageTypeToolCall:
			fmt.Fprintf(&summary, "Tool: %s\n", msg.TruncatedString())
		}
	}
	return summary.String()
}

// Run appends the user prompt and loops until the model answers without
// requesting tools, the context is cancelled, or maxIterations is exhausted.
func (r *ReAct) Run(ctx context.Context, input string) (message.Message, error) {
	r.state.AddMessage(message.NewUserMessage(input))

	msg, err := r.runInternal(ctx)
	if err != nil {
		if dropper, ok := r.state.(danglingCallDropper); ok {
			if n := dropper.DropDanglingToolCalls(); n > 0 {
				reactLogger().DebugWithIntention(pkgLogger.IntentionDebug, "Dropped unanswered tool calls", "count", n)
			}
		}
		r.eventEmitter.EmitEvent(events.EventTypeError, events.ErrorData{Error: err, Context: "run"})
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to run internal processing")
	}
	return msg, nil
}

func (r *ReAct) runInternal(ctx context.Context) (message.Message, error) {
	for iter := 0; iter < r.maxIterations; iter++ {
		select {
		case <-ctx.Done():
			reactLogger().InfoWithIntention(pkgLogger.IntentionCancel, "Operation cancelled by user. History preserved.")
			return nil, ctx.Err()
		default:
		}

		resp, err := r.chat(ctx, r.state.GetMessages())
		if err != nil {
			if ctx.Err() != nil {
				reactLogger().InfoWithIntention(pkgLogger.IntentionCancel, "Operation cancelled by user during LLM call. History preserved.")
				return nil, ctx.Err()
			}
			return nil, errors.Wrap(err, "failed to get response from LLM client")
		}

		r.annotateUsage(resp)

		done, err := r.processResponse(ctx, iter, resp)
		if err != nil {
			return nil, err
		}
		if done {
			return resp, nil
		}
	}

	return nil, fmt.Errorf("exceeded maximum loop limit (%d) without a valid response", r.maxIterations)
}

// chat uses tool calling when tools are registered, plain chat otherwise.
func (r *ReAct) chat(ctx context.Context, messages []message.Message) (message.Message, error) {
	if r.toolManager != nil && len(r.toolManager.GetTools()) > 0 {
		if toolClient, ok := r.llmClient.(domain.ToolCallingLLM); ok {
			return toolClient.ChatWithToolChoice(ctx, messages, domain.NewToolChoiceAuto())
		}
	}
	return r.llmClient.Chat(ctx, messages)
}

// annotateUsage attaches the usage of the last API call to the model's reply.
func (r *ReAct) annotateUsage(resp message.Message) {
	usageProvider, ok := r.llmClient.(domain.TokenUsageProvider)
	if !ok {
		return
	}
	usage, ok := usageProvider.LastTokenUsage()
	if !ok {
		return
	}
	if batch, isBatch := resp.(*message.ToolCallBatchMessage); isBatch {
		// Usage is recorded once, on the first call of the batch.
		if calls := batch.Calls(); len(calls) > 0 {
			calls[0].SetTokenUsage(usage)
		}
		return
	}
	resp.SetTokenUsage(usage)
}

// processResponse records resp and runs any tools it requests. It reports
// true when resp is a final answer.
func (r *ReAct) processResponse(ctx context.Context, iter int, resp message.Message) (bool, error) {
	switch resp := resp.(type) {
	case *message.ChatMessage:
		r.state.AddMessage(resp)
		r.eventEmitter.Emit(events.AgentEvent{
			Type:      events.EventTypeResponse,
			Data:      events.ResponseData{Message: resp},
			Iteration: &events.IterationInfo{Current: iter, Maximum: r.maxIterations},
		})
		return true, nil

	case *message.ToolCallMessage:
		return false, r.runToolCalls(ctx, iter, []*message.ToolCallMessage{resp})

	case *message.ToolCallBatchMessage:
		return false, r.runToolCalls(ctx, iter, resp.Calls())

	default:
		return false, fmt.Errorf("unexpected response type: %T", resp)
	}
}

// runToolCalls records every call of one model turn before any result, so
// that providers which group calls and results per turn see them adjacent.
func (r *ReAct) runToolCalls(ctx context.Context, iter int, calls []*message.ToolCallMessage) error {
	for _, call := range calls {
		r.state.AddMessage(call)
	}

	for _, call := range calls {
		select {
		case <-ctx.Done():
			reactLogger().InfoWithIntention(pkgLogger.IntentionCancel, "Operation cancelled by user during tool execution. History preserved.")
			return ctx.Err()
		default:
		}

		r.eventEmitter.Emit(events.AgentEvent{
			Type: events.EventTypeToolCallStart,
			Data: events.ToolCallStartData{
				ToolName:  string(call.ToolName()),
				Arguments: summarizeToolArgs(call.ToolArguments()),
				CallID:    call.ID(),
			},
			Iteration: &events.IterationInfo{Current: iter, Maximum: r.maxIterations},
		})

		started := time.Now()
		result := r.handleToolCall(ctx, call)
		r.state.AddMessage(result)

		r.eventEmitter.EmitEvent(events.EventTypeToolResult, events.ToolResultData{
			ToolName: string(call.ToolName()),
			CallID:   call.ID(),
			Content:  strings.TrimRight(result.Result, "\n"),
			IsError:  result.IsError,
			Duration: time.Since(started),
		})
	}
	return nil
}

// handleToolCall never fails: tool errors become error results the model can read.
func (r *ReAct) handleToolCall(ctx context.Context, call *message.ToolCallMessage) *message.ToolResultMessage {
	if r.toolManager == nil {
		return message.NewToolResultMessage(call.ID(), call.ToolName(), fmt.Sprintf("Tool not found: %s", call.ToolName()), true)
	}

	toolResult, err := r.toolManager.CallTool(ctx, call.ToolName(), call.ToolArguments())
	if err != nil {
		return message.NewToolResultMessage(call.ID(), call.ToolName(), fmt.Sprintf("Tool execution failed: %v", err), true)
	}
	return message.NewToolResultMessage(call.ID(), call.ToolName(), toolResult.Content(), toolResult.IsError())
}

// summarizeToolArgs produces a log-friendly copy of tool arguments with long
// strings (file bodies, replacement text) shortened.
func summarizeToolArgs(args message.ToolArgumentValues) message.ToolArgumentValues {
	const (
		maxStringLen  = 120
		maxArrayItems = 8
	)

	out := make(message.ToolArgumentValues, len(args))
	for k, v := range args {
		switch t := v.(type) {
		case string:
			if len(t) > maxStringLen {
				t = message.TruncateBytes(t, maxStringLen-3)
			}
			out[k] = t
		case []any:
			if len(t) > maxArrayItems {
				trimmed := append([]any(nil), t[:maxArrayItems]...)
				out[k] = append(trimmed, fmt.Sprintf("…+%d more", len(t)-maxArrayItems))
				continue
			}
			out[k] = t
		default:
			out[k] = t
		}
	}
	return out
}
