package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/fpt/editagent/internal/config"
	"github.com/fpt/editagent/internal/tool"
	"github.com/fpt/editagent/pkg/agent/domain"
	"github.com/fpt/editagent/pkg/agent/events"
	"github.com/fpt/editagent/pkg/agent/react"
	"github.com/fpt/editagent/pkg/agent/state"
	pkgLogger "github.com/fpt/editagent/pkg/logger"
	"github.com/fpt/editagent/pkg/message"
)

// Agent runs conversation turns against the editor tool and any external
// tool servers. History survives across turns until ClearHistory.
type Agent struct {
	llmClient   domain.ToolCallingLLM
	toolManager *tool.CompositeToolManager
	editor      *tool.EditorToolManager
	sharedState domain.State
	workingDir  string
	settings    *config.Settings
	sessionID   string
	logger      *pkgLogger.Logger
	out         io.Writer
	colored     bool
}

// NewAgent wires the editor tool first so its name always wins a clash with
// an external server's tool.
func NewAgent(llmClient domain.ToolCallingLLM, workingDir string, editorManager *tool.EditorToolManager, external []domain.ToolManager, settings *config.Settings, logger *pkgLogger.Logger, out io.Writer) *Agent {
	if settings == nil {
		settings = config.GetDefaultSettings()
	}
	if logger == nil {
		logger = pkgLogger.Default
	}
	managers := append([]domain.ToolManager{editorManager}, external...)
	sessionID := uuid.NewString()

	return &Agent{
		llmClient:   llmClient,
		toolManager: tool.NewCompositeToolManager(managers...),
		editor:      editorManager,
		sharedState: state.NewMessageState(),
		workingDir:  workingDir,
		settings:    settings,
		sessionID:   sessionID,
		logger:      logger.WithComponent("agent").WithSession(sessionID),
		out:         out,
	}
}

// SetColored toggles ANSI styling of tool progress lines.
func (a *Agent) SetColored(colored bool) { a.colored = colored }

func (a *Agent) SessionID() string  { return a.sessionID }
func (a *Agent) WorkingDir() string { return a.workingDir }

// Invoke runs one user turn to completion.
func (a *Agent) Invoke(ctx context.Context, userInput string) (message.Message, error) {
	if strings.TrimSpace(userInput) == "" {
		return nil, errors.New("empty request")
	}
	a.ensureSystemPrompt()

	reactClient, eventEmitter := react.NewReAct(a.llmClient, a.toolManager, a.sharedState, a.maxIterations())
	a.setupEventHandlers(eventEmitter)

	a.logger.DebugWithIntention(pkgLogger.IntentionStatus, "Starting turn",
		"model", a.llmClient.ModelID(), "tools", len(a.toolManager.GetTools()))

	result, err := reactClient.Run(ctx, userInput)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(err, "action execution failed")
	}
	return result, nil
}

func (a *Agent) maxIterations() int {
	if a.settings.Agent.MaxIterations > 0 {
		return a.settings.Agent.MaxIterations
	}
	return config.DefaultAgentMaxIterations
}

// ensureSystemPrompt opens every fresh history, including one emptied by
// ClearHistory, with the system prompt.
func (a *Agent) ensureSystemPrompt() {
	if len(a.sharedState.GetMessages()) > 0 {
		return
	}
	prompt := BuildSystemPrompt(a.workingDir, a.settings.Agent.SystemPrompt)
	a.sharedState.AddMessage(message.NewSystemMessage(prompt))
}

// ClearHistory resets the conversation. Undo snapshots are kept.
func (a *Agent) ClearHistory() {
	a.sharedState.Clear()
}

// Backups lists the files that undo_edit can currently restore.
func (a *Agent) Backups() []string {
	return a.editor.Backups()
}

// ToolNames lists the tools offered to the model, sorted.
func (a *Agent) ToolNames() []string {
	tools := a.toolManager.GetTools()
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}

// GetConversationPreview returns a formatted preview of the last few messages.
func (a *Agent) GetConversationPreview(maxMessages int) string {
	messages := a.sharedState.GetMessages()
	if len(messages) == 0 {
		return ""
	}

	startIdx := 0
	if len(messages) > maxMessages {
		startIdx = len(messages) - maxMessages
	}

	var preview strings.Builder
	preview.WriteString("Previous Conversation:\n")
	preview.WriteString(strings.Repeat("-", 50) + "\n")

	written := 0
	for _, msg := range messages[startIdx:] {
		truncated := msg.TruncatedString()
		if truncated == "" {
			continue
		}
		if written > 0 {
			preview.WriteString("\n")
		}
		written++
		preview.WriteString(truncated + "\n")
	}
	if written == 0 {
		return ""
	}

	preview.WriteString(strings.Repeat("-", 50) + "\n")
	return preview.String()
}

// GetMessageState returns the shared message state for context calculations.
func (a *Agent) GetMessageState() domain.State {
	return a.sharedState
}

// GetLLMClient returns the LLM client for context window estimation.
func (a *Agent) GetLLMClient() domain.LLM {
	return a.llmClient
}

// OutWriter returns the writer used for tool progress lines.
func (a *Agent) OutWriter() io.Writer {
	if a.out != nil {
		return a.out
	}
	return os.Stdout
}

// setupEventHandlers prints tool activity as it happens.
func (a *Agent) setupEventHandlers(emitter events.EventEmitter) {
	emitter.AddHandler(func(event events.AgentEvent) {
		writer := a.OutWriter()

		switch event.Type {
		case events.EventTypeToolCallStart:
			if data, ok := event.Data.(events.ToolCallStartData); ok {
				fmt.Fprintln(writer, paint(a.colored, accentColor, formatToolCall(data)))
			}

		case events.EventTypeToolResult:
			if data, ok := event.Data.(events.ToolResultData); ok {
				a.logger.DebugWithIntention(pkgLogger.IntentionTool, "Tool finished",
					"tool", data.ToolName, "is_error", data.IsError, "duration", data.Duration)
				writeToolResult(writer, data, a.colored)
			}

		case events.EventTypeError:
			if data, ok := event.Data.(events.ErrorData); ok {
				if errors.Is(data.Error, context.Canceled) {
					return
				}
				a.logger.Debug("Turn failed", "context", data.Context, "error", data.Error)
			}
		}
	})
}

// formatToolCall renders "<tool> <command> <path>" for editor calls and
// "<tool> {args}" for anything else.
func formatToolCall(data events.ToolCallStartData) string {
	command, _ := data.Arguments["command"].(string)
	path, _ := data.Arguments["path"].(string)
	if command != "" && path != "" {
		return fmt.Sprintf("● %s %s %s", data.ToolName, command, path)
	}
	return fmt.Sprintf("● %s %v", data.ToolName, map[string]any(data.Arguments))
}

// writeToolResult prints the tail of a tool result, five lines at most.
func writeToolResult(w io.Writer, data events.ToolResultData, colored bool) {
	if data.Content == "" {
		fmt.Fprintln(w, "  (no output)")
		return
	}
	lines := strings.Split(data.Content, "\n")
	if data.IsError {
		for _, line := range lines {
			fmt.Fprintln(w, paint(colored, errorColor, "  "+line))
		}
		return
	}

	const maxLines = 5
	if len(lines) > maxLines {
		fmt.Fprintf(w, "  ...(%d more lines)\n", len(lines)-maxLines)
		lines = lines[len(lines)-maxLines:]
	}
	for _, line := range lines {
		fmt.Fprintln(w, paint(colored, dimColor, "  "+truncateRunes(line, 80)))
	}
}
