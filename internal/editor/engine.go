package editor

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/fpt/editagent/internal/repository"
	"github.com/pkg/errors"
)

const (
	defaultFileMode fs.FileMode = 0o644
	defaultDirMode  fs.FileMode = 0o755
)

// Engine applies editor requests to the filesystem.
type Engine struct {
	fs      repository.FilesystemRepository
	backups *BackupStore
	workDir string
}

// NewEngine returns an engine resolving relative paths against workDir
// (the process working directory when empty).
func NewEngine(fsRepo repository.FilesystemRepository, backups *BackupStore, workDir string) *Engine {
	if backups == nil {
		backups = NewBackupStore()
	}
	return &Engine{fs: fsRepo, backups: backups, workDir: workDir}
}

// Backups exposes the store the engine captures into.
func (e *Engine) Backups() *BackupStore {
	return e.backups
}

// Resolve returns the cleaned absolute path used for I/O and as the backup key.
func (e *Engine) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	if e.workDir != "" {
		return filepath.Join(e.workDir, path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Execute routes a typed request to its operation.
func (e *Engine) Execute(ctx context.Context, req Request) (string, error) {
	switch r := req.(type) {
	case ViewRequest:
		return e.View(ctx, r)
	case CreateRequest:
		return e.Create(ctx, r)
	case StrReplaceRequest:
		return e.StrReplace(ctx, r)
	case InsertRequest:
		return e.Insert(ctx, r)
	case UndoEditRequest:
		return e.UndoEdit(ctx, r)
	default:
		return "", &OperationError{Kind: KindUnknownCommand, Name: fmt.Sprintf("%T", req)}
	}
}

// View renders the file, or the requested line range, with "N: " prefixes.
func (e *Engine) View(ctx context.Context, req ViewRequest) (string, error) {
	content, _, err := e.readText(ctx, CommandView, req.Path)
	if err != nil {
		return "", err
	}

	lines := splitLines(content)
	start, end := 1, len(lines)
	if req.Range != nil {
		start = max(1, req.Range.Start)
		if req.Range.End != -1 {
			end = min(req.Range.End, len(lines))
		}
	}

	var b strings.Builder
	for n := start; n <= end; n++ {
		fmt.Fprintf(&b, "%d: %s", n, lines[n-1])
	}
	return b.String(), nil
}

// Create writes a new file, creating parent directories. Existing files are never overwritten.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (string, error) {
	path := e.Resolve(req.Path)

	exists, err := e.fs.Exists(ctx, path)
	if err != nil {
		return "", classify(CommandCreate, req.Path, err)
	}
	if exists {
		return "", &OperationError{Kind: KindAlreadyExists, Command: CommandCreate, Path: req.Path}
	}

	if err := e.fs.MkdirAll(ctx, filepath.Dir(path), defaultDirMode); err != nil {
		return "", classify(CommandCreate, req.Path, err)
	}
	if err := e.fs.CreateFile(ctx, path, []byte(req.FileText), defaultFileMode); err != nil {
		return "", classify(CommandCreate, req.Path, err)
	}
	return fmt.Sprintf("Successfully created file: %s", req.Path), nil
}

// StrReplace replaces OldStr only when it occurs exactly once.
func (e *Engine) StrReplace(ctx context.Context, req StrReplaceRequest) (string, error) {
	content, mode, err := e.readText(ctx, CommandStrReplace, req.Path)
	if err != nil {
		return "", err
	}
	e.capture(req.Path, content)

	switch count := strings.Count(content, req.OldStr); {
	case count == 0:
		return "", &OperationError{Kind: KindNoMatch, Command: CommandStrReplace, Path: req.Path}
	case count > 1:
		return "", &OperationError{Kind: KindAmbiguousMatch, Command: CommandStrReplace, Path: req.Path, Matches: count}
	}

	updated := strings.Replace(content, req.OldStr, req.NewStr, 1)
	if err := e.fs.WriteFile(ctx, e.Resolve(req.Path), []byte(updated), mode); err != nil {
		return "", classify(CommandStrReplace, req.Path, err)
	}
	return "Successfully replaced text at exactly one location.", nil
}

// Insert places NewStr after InsertLine existing lines.
func (e *Engine) Insert(ctx context.Context, req InsertRequest) (string, error) {
	content, mode, err := e.readText(ctx, CommandInsert, req.Path)
	if err != nil {
		return "", err
	}
	e.capture(req.Path, content)

	lines := splitLines(content)
	if req.InsertLine < 0 || req.InsertLine > len(lines) {
		return "", &OperationError{
			Kind:    KindOutOfRange,
			Command: CommandInsert,
			Path:    req.Path,
			Line:    req.InsertLine,
			Total:   len(lines),
		}
	}

	text := req.NewStr
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	var b strings.Builder
	b.Grow(len(content) + len(text) + 1)
	for _, line := range lines[:req.InsertLine] {
		b.WriteString(line)
	}
	if req.InsertLine > 0 && !strings.HasSuffix(lines[req.InsertLine-1], "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(text)
	for _, line := range lines[req.InsertLine:] {
		b.WriteString(line)
	}

	if err := e.fs.WriteFile(ctx, e.Resolve(req.Path), []byte(b.String()), mode); err != nil {
		return "", classify(CommandInsert, req.Path, err)
	}
	return fmt.Sprintf("Successfully inserted text at line %d.", req.InsertLine), nil
}

// UndoEdit restores the snapshot taken before the first edit since the last undo.
func (e *Engine) UndoEdit(ctx context.Context, req UndoEditRequest) (string, error) {
	path := e.Resolve(req.Path)
	snapshot, ok := e.backups.Get(path)
	if !ok {
		return "", &OperationError{Kind: KindNoBackup, Command: CommandUndoEdit, Path: req.Path}
	}

	mode := defaultFileMode
	if info, err := e.fs.Stat(ctx, path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := e.fs.WriteFile(ctx, path, snapshot, mode); err != nil {
		return "", classify(CommandUndoEdit, req.Path, err)
	}
	e.backups.Drop(path)
	return fmt.Sprintf("Successfully restored %s to previous state.", req.Path), nil
}

func (e *Engine) capture(displayPath, content string) {
	e.backups.Capture(e.Resolve(displayPath), []byte(content))
}

// readText loads a regular UTF-8 file and returns its content and permission bits.
func (e *Engine) readText(ctx context.Context, cmd Command, displayPath string) (string, fs.FileMode, error) {
	path := e.Resolve(displayPath)

	info, err := e.fs.Stat(ctx, path)
	if err != nil {
		return "", 0, classify(cmd, displayPath, err)
	}
	if info.IsDir() {
		return "", 0, generic(cmd, displayPath, errors.Errorf("%s is a directory", displayPath))
	}

	data, err := e.fs.ReadFile(ctx, path)
	if err != nil {
		return "", 0, classify(cmd, displayPath, err)
	}
	if !utf8.Valid(data) {
		return "", 0, generic(cmd, displayPath, errors.Errorf("%s is not valid UTF-8 text", displayPath))
	}
	return string(data), info.Mode().Perm(), nil
}

// splitLines splits after each "\n", keeping terminators. A trailing fragment
// without newline is its own line; empty content has zero lines.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
