package editor

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fpt/editagent/internal/infra"
	pkgLogger "github.com/fpt/editagent/pkg/logger"
)

func newTestDispatcher(t *testing.T, opts ParseOptions) (*Dispatcher, string, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	var logs bytes.Buffer
	log := pkgLogger.New(pkgLogger.Options{Level: pkgLogger.LogLevelInfo, Console: &logs, LogFile: "-"})
	engine := NewEngine(infra.NewOSFilesystemRepository(), NewBackupStore(), dir)
	return NewDispatcher(engine, opts, log), dir, &logs
}

func TestDispatch_Session(t *testing.T) {
	d, dir, logs := newTestDispatcher(t, ParseOptions{})
	ctx := context.Background()

	steps := []struct {
		command string
		params  map[string]any
		want    string
	}{
		{"create", map[string]any{"path": "notes.txt", "file_text": "alpha\nbeta\ngamma\n"}, "Successfully created file: notes.txt"},
		{"create", map[string]any{"path": "notes.txt", "file_text": "x"}, "Error: File already exists: notes.txt"},
		{"str_replace", map[string]any{"path": "notes.txt", "old_str": "beta", "new_str": "BETA"}, "Successfully replaced text at exactly one location."},
		{"insert", map[string]any{"path": "notes.txt", "insert_line": float64(3), "new_str": "delta"}, "Successfully inserted text at line 3."},
		{"view", map[string]any{"path": "notes.txt", "view_range": []any{float64(2), float64(-1)}}, "2: BETA\n3: gamma\n4: delta\n"},
		{"insert", map[string]any{"path": "notes.txt", "insert_line": float64(9), "new_str": "x"}, "Error: Line number 9 exceeds file length (4)"},
		{"undo_edit", map[string]any{"path": "notes.txt"}, "Successfully restored notes.txt to previous state."},
		{"view", map[string]any{"path": "notes.txt"}, "1: alpha\n2: beta\n3: gamma\n"},
		{"undo_edit", map[string]any{"path": "notes.txt"}, "Error: No backup found for notes.txt"},
		{"rename", map[string]any{"path": "notes.txt"}, "Error: Unknown command 'rename'"},
		{"view", map[string]any{"path": "ghost.txt"}, "Error: File not found: ghost.txt"},
	}

	for i, step := range steps {
		if got := d.Dispatch(ctx, step.command, step.params); got != step.want {
			t.Fatalf("step %d (%s): got %q, want %q", i, step.command, got, step.want)
		}
	}

	if got, _ := os.ReadFile(filepath.Join(dir, "notes.txt")); string(got) != "alpha\nbeta\ngamma\n" {
		t.Errorf("final content = %q", got)
	}
	if !strings.Contains(logs.String(), "str_replace notes.txt") {
		t.Errorf("operation log missing str_replace line:\n%s", logs.String())
	}
}

func TestDispatch_StrictInsertLine(t *testing.T) {
	d, dir, _ := newTestDispatcher(t, ParseOptions{StrictInsertLine: true})
	writeFile(t, filepath.Join(dir, "a.txt"), "one\n")

	got := d.Dispatch(context.Background(), "insert", map[string]any{"path": "a.txt", "new_str": "zero"})
	if got != "Error: Invalid parameters for insert: insert_line is required" {
		t.Errorf("got %q", got)
	}
	if d.Engine().Backups().Len() != 0 {
		t.Error("rejected request must not capture a backup")
	}
}

// panicFS panics on read to exercise the dispatcher's recovery.
type panicFS struct{ deniedFS }

func (panicFS) Stat(context.Context, string) (os.FileInfo, error) { panic("disk on fire") }

func TestDispatch_RecoversPanics(t *testing.T) {
	d := NewDispatcher(NewEngine(panicFS{}, nil, "/work"), ParseOptions{}, nil)

	got := d.Dispatch(context.Background(), "view", map[string]any{"path": "a.txt"})
	if got != "Error executing view: disk on fire" {
		t.Errorf("got %q", got)
	}

	// the lock is released after a panic
	got = d.Dispatch(context.Background(), "undo_edit", map[string]any{"path": "a.txt"})
	if got != "Error: No backup found for a.txt" {
		t.Errorf("got %q", got)
	}
}

func TestDispatcher_Execute(t *testing.T) {
	d, _, _ := newTestDispatcher(t, ParseOptions{})
	_, err := d.Execute(context.Background(), UndoEditRequest{Path: "x"})
	if !IsKind(err, KindNoBackup) {
		t.Errorf("expected NoBackup, got %v", err)
	}
}
