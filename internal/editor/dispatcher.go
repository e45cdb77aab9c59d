package editor

import (
	"context"
	"fmt"
	"sync"

	pkgLogger "github.com/fpt/editagent/pkg/logger"
)

// ToolName is the name the editor tool is exposed under to models and MCP clients.
const ToolName = "str_replace_editor"

// Dispatcher turns raw tool calls into engine requests and flattens every
// outcome into the text handed back to the model.
type Dispatcher struct {
	engine *Engine
	opts   ParseOptions
	logger *pkgLogger.Logger
	mu     sync.Mutex
}

// NewDispatcher returns a dispatcher over engine. A nil logger disables the operation log.
func NewDispatcher(engine *Engine, opts ParseOptions, logger *pkgLogger.Logger) *Dispatcher {
	return &Dispatcher{engine: engine, opts: opts, logger: logger}
}

// Engine returns the underlying engine.
func (d *Dispatcher) Engine() *Engine {
	return d.engine
}

// Dispatch runs one tool call. It never returns an error and never panics;
// failures come back as "Error..." strings.
func (d *Dispatcher) Dispatch(ctx context.Context, command string, params map[string]any) (result string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			result = fmt.Sprintf("Error executing %s: %v", command, r)
			d.logFailure(command, result)
		}
	}()

	req, err := ParseRequest(command, params, d.opts)
	if err != nil {
		d.logFailure(command, err.Error())
		return err.Error()
	}

	out, err := d.execute(ctx, req)
	if err != nil {
		return err.Error()
	}
	return out
}

// Execute runs an already parsed request under the dispatcher lock.
func (d *Dispatcher) Execute(ctx context.Context, req Request) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.execute(ctx, req)
}

func (d *Dispatcher) execute(ctx context.Context, req Request) (string, error) {
	d.announce(req)

	out, err := d.engine.Execute(ctx, req)
	if err != nil {
		if d.logger != nil {
			d.logger.Debug("editor operation failed",
				"command", string(req.Command()), "path", req.Target(), "kind", KindOf(err).String(), "error", fmt.Sprintf("%+v", err))
		}
		return "", err
	}
	if d.logger != nil && req.Command() == CommandUndoEdit {
		d.logger.DebugWithIntention(pkgLogger.IntentionUndo, "Restored from backup", "path", req.Target())
	}
	return out, nil
}

// announce logs the command and target before execution. Logging problems are swallowed.
func (d *Dispatcher) announce(req Request) {
	if d.logger == nil {
		return
	}
	defer func() { _ = recover() }()
	d.logger.InfoWithIntention(pkgLogger.IntentionTool, fmt.Sprintf("%s %s", req.Command(), req.Target()))
}

func (d *Dispatcher) logFailure(command, msg string) {
	if d.logger == nil {
		return
	}
	defer func() { _ = recover() }()
	d.logger.Debug("editor request rejected", "command", command, "result", msg)
}
