package editor

import (
	"errors"
	"fmt"
	"io/fs"

	pkgerrors "github.com/pkg/errors"
)

// ErrorKind classifies why an editor operation failed.
type ErrorKind int

const (
	KindGeneric ErrorKind = iota
	KindNotFound
	KindAlreadyExists
	KindPermissionDenied
	KindNoMatch
	KindAmbiguousMatch
	KindOutOfRange
	KindNoBackup
	KindUnknownCommand
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindPermissionDenied:
		return "permission_denied"
	case KindNoMatch:
		return "no_match"
	case KindAmbiguousMatch:
		return "ambiguous_match"
	case KindOutOfRange:
		return "out_of_range"
	case KindNoBackup:
		return "no_backup"
	case KindUnknownCommand:
		return "unknown_command"
	case KindMalformed:
		return "malformed"
	default:
		return "generic"
	}
}

// OperationError is the only error type returned by the engine and the request parser.
// Its Error() text is what the model sees.
type OperationError struct {
	Kind    ErrorKind
	Command Command
	Path    string

	// Kind specific details
	Line    int    // OutOfRange
	Total   int    // OutOfRange
	Matches int    // AmbiguousMatch
	Name    string // UnknownCommand
	Detail  string // Malformed

	Err error
}

func (e *OperationError) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("Error: File not found: %s", e.Path)
	case KindAlreadyExists:
		return fmt.Sprintf("Error: File already exists: %s", e.Path)
	case KindPermissionDenied:
		if e.Command == CommandCreate {
			return fmt.Sprintf("Error: Permission denied when creating %s", e.Path)
		}
		return fmt.Sprintf("Error: Permission denied when accessing %s", e.Path)
	case KindNoMatch:
		return fmt.Sprintf("Error: Text not found in %s", e.Path)
	case KindAmbiguousMatch:
		return fmt.Sprintf("Error: Multiple matches (%d) found in %s", e.Matches, e.Path)
	case KindOutOfRange:
		return fmt.Sprintf("Error: Line number %d exceeds file length (%d)", e.Line, e.Total)
	case KindNoBackup:
		return fmt.Sprintf("Error: No backup found for %s", e.Path)
	case KindUnknownCommand:
		return fmt.Sprintf("Error: Unknown command '%s'", e.Name)
	case KindMalformed:
		return fmt.Sprintf("Error: Invalid parameters for %s: %s", e.Command, e.Detail)
	}

	cause := "unknown failure"
	if e.Err != nil {
		cause = pkgerrors.Cause(e.Err).Error()
	}
	return fmt.Sprintf("Error %s: %s", genericVerb(e.Command), cause)
}

func (e *OperationError) Unwrap() error { return e.Err }

func genericVerb(c Command) string {
	switch c {
	case CommandView:
		return "viewing file"
	case CommandCreate:
		return "creating file"
	case CommandStrReplace:
		return "replacing text"
	case CommandInsert:
		return "inserting text"
	case CommandUndoEdit:
		return "undoing edit"
	default:
		return "executing " + string(c)
	}
}

// KindOf returns the ErrorKind carried by err, or KindGeneric.
func KindOf(err error) ErrorKind {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return KindGeneric
}

// IsKind reports whether err is an OperationError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var opErr *OperationError
	return errors.As(err, &opErr) && opErr.Kind == kind
}

// classify turns a filesystem error into an OperationError for cmd on path.
func classify(cmd Command, path string, err error) *OperationError {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &OperationError{Kind: KindNotFound, Command: cmd, Path: path, Err: pkgerrors.WithStack(err)}
	case errors.Is(err, fs.ErrPermission):
		return &OperationError{Kind: KindPermissionDenied, Command: cmd, Path: path, Err: pkgerrors.WithStack(err)}
	case errors.Is(err, fs.ErrExist):
		return &OperationError{Kind: KindAlreadyExists, Command: cmd, Path: path, Err: pkgerrors.WithStack(err)}
	default:
		return generic(cmd, path, err)
	}
}

func generic(cmd Command, path string, err error) *OperationError {
	return &OperationError{Kind: KindGeneric, Command: cmd, Path: path, Err: pkgerrors.WithStack(err)}
}

func malformed(cmd Command, format string, args ...any) *OperationError {
	return &OperationError{Kind: KindMalformed, Command: cmd, Detail: fmt.Sprintf(format, args...)}
}
