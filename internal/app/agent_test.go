package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fpt/editagent/internal/config"
	"github.com/fpt/editagent/internal/editor"
	"github.com/fpt/editagent/internal/infra"
	"github.com/fpt/editagent/internal/tool"
	"github.com/fpt/editagent/pkg/agent/domain"
	"github.com/fpt/editagent/pkg/message"
)

// scriptedLLM replays a fixed list of replies and records what it was sent.
type scriptedLLM struct {
	replies     []message.Message
	calls       int
	seen        [][]message.Message
	toolManager domain.ToolManager
}

func (s *scriptedLLM) Chat(ctx context.Context, messages []message.Message) (message.Message, error) {
	return s.ChatWithToolChoice(ctx, messages, domain.NewToolChoiceAuto())
}

func (s *scriptedLLM) ChatWithToolChoice(ctx context.Context, messages []message.Message, _ domain.ToolChoice) (message.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.seen = append(s.seen, append([]message.Message(nil), messages...))
	if s.calls >= len(s.replies) {
		return message.NewAssistantMessage("done"), nil
	}
	reply := s.replies[s.calls]
	s.calls++
	return reply, nil
}

func (s *scriptedLLM) SetToolManager(tm domain.ToolManager) { s.toolManager = tm }
func (s *scriptedLLM) ModelID() string                      { return "scripted" }

func newTestAgent(t *testing.T, llm *scriptedLLM) (*Agent, string, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	engine := editor.NewEngine(infra.NewOSFilesystemRepository(), editor.NewBackupStore(), dir)
	dispatcher := editor.NewDispatcher(engine, editor.ParseOptions{}, nil)
	out := &bytes.Buffer{}
	a := NewAgent(llm, dir, tool.NewEditorToolManager(dispatcher), nil, config.GetDefaultSettings(), nil, out)
	return a, dir, out
}

func editorCall(id string, args message.ToolArgumentValues) *message.ToolCallMessage {
	return message.NewToolCallMessageWithID(id, editor.ToolName, args)
}

func TestInvokeRunsEditorCalls(t *testing.T) {
	llm := &scriptedLLM{replies: []message.Message{
		editorCall("call_1", message.ToolArgumentValues{"command": "create", "path": "notes.txt", "file_text": "hello world\n"}),
		editorCall("call_2", message.ToolArgumentValues{"command": "str_replace", "path": "notes.txt", "old_str": "world", "new_str": "gopher"}),
		message.NewAssistantMessage("Renamed world to gopher."),
	}}
	a, dir, out := newTestAgent(t, llm)

	resp, err := a.Invoke(context.Background(), "say hello to the gopher")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if resp.Content() != "Renamed world to gopher." {
		t.Errorf("response = %q", resp.Content())
	}

	data, err := os.ReadFile(filepath.Join(dir, "notes.txt"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello gopher\n" {
		t.Errorf("file = %q", data)
	}

	if got := a.Backups(); len(got) != 1 || got[0] != "notes.txt" {
		t.Errorf("Backups() = %v, want [notes.txt]", got)
	}

	progress := out.String()
	for _, want := range []string{"str_replace_editor create notes.txt", "Successfully created file: notes.txt", "str_replace_editor str_replace notes.txt"} {
		if !strings.Contains(progress, want) {
			t.Errorf("progress output missing %q:\n%s", want, progress)
		}
	}
	if llm.toolManager == nil {
		t.Error("tool manager was not handed to the client")
	}
}

func TestInvokeSendsSystemPromptFirst(t *testing.T) {
	llm := &scriptedLLM{}
	a, dir, _ := newTestAgent(t, llm)

	if _, err := a.Invoke(context.Background(), "hi"); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	first := llm.seen[0]
	if len(first) != 2 {
		t.Fatalf("first request has %d messages, want 2", len(first))
	}
	if first[0].Type() != message.MessageTypeSystem {
		t.Fatalf("first message type = %v, want system", first[0].Type())
	}
	if !strings.Contains(first[0].Content(), dir) {
		t.Errorf("system prompt does not mention the working directory")
	}
	if first[1].Type() != message.MessageTypeUser || first[1].Content() != "hi" {
		t.Errorf("second message = %v %q", first[1].Type(), first[1].Content())
	}

	// a second turn must not repeat the system prompt
	if _, err := a.Invoke(context.Background(), "again"); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	systems := 0
	for _, m := range llm.seen[1] {
		if m.Type() == message.MessageTypeSystem {
			systems++
		}
	}
	if systems != 1 {
		t.Errorf("system messages in second turn = %d, want 1", systems)
	}
}

func TestClearHistoryKeepsBackups(t *testing.T) {
	llm := &scriptedLLM{replies: []message.Message{
		editorCall("c1", message.ToolArgumentValues{"command": "create", "path": "a.txt", "file_text": "one\n"}),
		editorCall("c2", message.ToolArgumentValues{"command": "insert", "path": "a.txt", "insert_line": 1, "new_str": "two"}),
		message.NewAssistantMessage("ok"),
	}}
	a, _, _ := newTestAgent(t, llm)

	if _, err := a.Invoke(context.Background(), "edit"); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	a.ClearHistory()

	if n := len(a.GetMessageState().GetMessages()); n != 0 {
		t.Errorf("messages after clear = %d", n)
	}
	if got := a.Backups(); len(got) != 1 {
		t.Errorf("Backups() after clear = %v", got)
	}

	if _, err := a.Invoke(context.Background(), "next"); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	last := llm.seen[len(llm.seen)-1]
	if last[0].Type() != message.MessageTypeSystem {
		t.Error("system prompt missing after clear")
	}
}

func TestInvokeRejectsEmptyInput(t *testing.T) {
	a, _, _ := newTestAgent(t, &scriptedLLM{})
	if _, err := a.Invoke(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestInvokeHonorsCancellation(t *testing.T) {
	a, _, _ := newTestAgent(t, &scriptedLLM{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Invoke(ctx, "anything")
	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestInvokeStopsAtMaxIterations(t *testing.T) {
	replies := make([]message.Message, 0, 5)
	for i := 0; i < 5; i++ {
		replies = append(replies, editorCall("", message.ToolArgumentValues{"command": "view", "path": "."}))
	}
	llm := &scriptedLLM{replies: replies}
	a, _, _ := newTestAgent(t, llm)
	a.settings.Agent.MaxIterations = 2

	_, err := a.Invoke(context.Background(), "loop forever")
	if err == nil || !strings.Contains(err.Error(), "exceeded maximum loop limit (2)") {
		t.Fatalf("err = %v", err)
	}
}

func TestGetConversationPreview(t *testing.T) {
	a, _, _ := newTestAgent(t, &scriptedLLM{replies: []message.Message{message.NewAssistantMessage("sure")}})
	if got := a.GetConversationPreview(10); got != "" {
		t.Errorf("empty preview = %q", got)
	}
	if _, err := a.Invoke(context.Background(), "question"); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	got := a.GetConversationPreview(10)
	if !strings.Contains(got, "You: question") || !strings.Contains(got, "Assistant: sure") {
		t.Errorf("preview = %q", got)
	}
}

func TestSlashCommands(t *testing.T) {
	tests := []struct {
		input    string
		wantExit bool
		wantOut  string
	}{
		{"/backups", false, "No edits to undo."},
		{"/history", false, "No conversation history."},
		{"/clear", false, "Conversation history cleared."},
		{"/tools", false, "str_replace_editor"},
		{"/help", false, "Interactive Commands"},
		{"/nope", false, "Unknown command: /nope"},
		{"exit", true, "Goodbye!"},
		{"/quit", true, "Goodbye!"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			a, _, out := newTestAgent(t, &scriptedLLM{})
			if !isSlashCommand(tt.input) {
				t.Fatalf("isSlashCommand(%q) = false", tt.input)
			}
			if got := handleSlashCommand(tt.input, a); got != tt.wantExit {
				t.Errorf("exit = %v, want %v", got, tt.wantExit)
			}
			if !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("output %q does not contain %q", out.String(), tt.wantOut)
			}
		})
	}

	if isSlashCommand("fix the typo") {
		t.Error("plain request treated as command")
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	got := BuildSystemPrompt("/work", "")
	for _, want := range []string{"view", "create", "str_replace", "insert", "undo_edit", "/work"} {
		if !strings.Contains(got, want) {
			t.Errorf("default prompt missing %q", want)
		}
	}

	if got := BuildSystemPrompt("/work", "Edit files in {{workingDir}}."); got != "Edit files in /work." {
		t.Errorf("override = %q", got)
	}
}
