package editor

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Command names one of the editor operations.
type Command string

const (
	CommandView       Command = "view"
	CommandCreate     Command = "create"
	CommandStrReplace Command = "str_replace"
	CommandInsert     Command = "insert"
	CommandUndoEdit   Command = "undo_edit"
)

// Commands lists every supported command in documentation order.
var Commands = []Command{CommandView, CommandCreate, CommandStrReplace, CommandInsert, CommandUndoEdit}

// Request is a validated editor request. The set of implementations is closed.
type Request interface {
	Command() Command
	Target() string
	isRequest()
}

// ViewRange is a 1-indexed inclusive line range. End == -1 means end of file.
type ViewRange struct {
	Start int
	End   int
}

type ViewRequest struct {
	Path  string
	Range *ViewRange
}

type CreateRequest struct {
	Path     string
	FileText string
}

type StrReplaceRequest struct {
	Path   string
	OldStr string
	NewStr string
}

// InsertRequest inserts NewStr after InsertLine existing lines; 0 prepends.
type InsertRequest struct {
	Path       string
	InsertLine int
	NewStr     string
}

type UndoEditRequest struct {
	Path string
}

func (ViewRequest) Command() Command       { return CommandView }
func (CreateRequest) Command() Command     { return CommandCreate }
func (StrReplaceRequest) Command() Command { return CommandStrReplace }
func (InsertRequest) Command() Command     { return CommandInsert }
func (UndoEditRequest) Command() Command   { return CommandUndoEdit }

func (r ViewRequest) Target() string       { return r.Path }
func (r CreateRequest) Target() string     { return r.Path }
func (r StrReplaceRequest) Target() string { return r.Path }
func (r InsertRequest) Target() string     { return r.Path }
func (r UndoEditRequest) Target() string   { return r.Path }

func (ViewRequest) isRequest()       {}
func (CreateRequest) isRequest()     {}
func (StrReplaceRequest) isRequest() {}
func (InsertRequest) isRequest()     {}
func (UndoEditRequest) isRequest()   {}

// ParseOptions tunes request validation.
type ParseOptions struct {
	// StrictInsertLine rejects insert requests without insert_line instead of
	// treating the missing value as 0.
	StrictInsertLine bool
}

// ParseRequest validates a raw parameter bag into a typed Request.
// Failures are *OperationError with KindUnknownCommand or KindMalformed.
func ParseRequest(command string, params map[string]any, opts ParseOptions) (Request, error) {
	cmd := Command(command)
	p := paramBag{cmd: cmd, values: params}

	switch cmd {
	case CommandView, CommandCreate, CommandStrReplace, CommandInsert, CommandUndoEdit:
	default:
		return nil, &OperationError{Kind: KindUnknownCommand, Command: cmd, Name: command}
	}

	path, err := p.requiredString("path", false)
	if err != nil {
		return nil, err
	}

	switch cmd {
	case CommandView:
		req := ViewRequest{Path: path}
		rng, err := p.viewRange()
		if err != nil {
			return nil, err
		}
		req.Range = rng
		return req, nil

	case CommandCreate:
		text, err := p.requiredString("file_text", true)
		if err != nil {
			return nil, err
		}
		return CreateRequest{Path: path, FileText: text}, nil

	case CommandStrReplace:
		oldStr, err := p.requiredString("old_str", false)
		if err != nil {
			return nil, err
		}
		newStr, _, err := p.optionalString("new_str")
		if err != nil {
			return nil, err
		}
		return StrReplaceRequest{Path: path, OldStr: oldStr, NewStr: newStr}, nil

	case CommandInsert:
		line, ok, err := p.optionalInt("insert_line")
		if err != nil {
			return nil, err
		}
		if !ok && opts.StrictInsertLine {
			return nil, malformed(cmd, "insert_line is required")
		}
		newStr, err := p.requiredString("new_str", true)
		if err != nil {
			return nil, err
		}
		return InsertRequest{Path: path, InsertLine: line, NewStr: newStr}, nil

	default: // CommandUndoEdit
		return UndoEditRequest{Path: path}, nil
	}
}

type paramBag struct {
	cmd    Command
	values map[string]any
}

func (p paramBag) optionalString(key string) (string, bool, error) {
	v, ok := p.values[key]
	if !ok || v == nil {
		return "", false, nil
	}
	s, isString := v.(string)
	if !isString {
		return "", false, malformed(p.cmd, "%s must be a string, got %T", key, v)
	}
	return s, true, nil
}

func (p paramBag) requiredString(key string, allowEmpty bool) (string, error) {
	s, ok, err := p.optionalString(key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", malformed(p.cmd, "%s is required", key)
	}
	if !allowEmpty && s == "" {
		return "", malformed(p.cmd, "%s must not be empty", key)
	}
	return s, nil
}

func (p paramBag) optionalInt(key string) (int, bool, error) {
	v, ok := p.values[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	n, err := toInt(v)
	if err != nil {
		return 0, false, malformed(p.cmd, "%s: %v", key, err)
	}
	return n, true, nil
}

func (p paramBag) viewRange() (*ViewRange, error) {
	v, ok := p.values["view_range"]
	if !ok || v == nil {
		return nil, nil
	}

	var items []any
	switch r := v.(type) {
	case []any:
		items = r
	case []int:
		for _, n := range r {
			items = append(items, n)
		}
	case []float64:
		for _, n := range r {
			items = append(items, n)
		}
	default:
		return nil, malformed(p.cmd, "view_range must be a list of two integers, got %T", v)
	}
	if len(items) != 2 {
		return nil, malformed(p.cmd, "view_range must have exactly two elements, got %d", len(items))
	}

	start, err := toInt(items[0])
	if err != nil {
		return nil, malformed(p.cmd, "view_range start: %v", err)
	}
	end, err := toInt(items[1])
	if err != nil {
		return nil, malformed(p.cmd, "view_range end: %v", err)
	}
	if end != -1 && end < max(1, start) {
		return nil, malformed(p.cmd, "view_range end must be -1 or >= start, got [%d, %d]", start, end)
	}
	return &ViewRange{Start: start, End: end}, nil
}

// toInt accepts the numeric shapes produced by the various JSON decoders in use.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n.String())
		}
		return floatToInt(f)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func floatToInt(f float64) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("expected integer, got %v", f)
	}
	if f >= math.MaxInt || f < math.MinInt {
		return 0, fmt.Errorf("%v is out of range", f)
	}
	return int(f), nil
}
