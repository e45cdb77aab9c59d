package message

import (
	"context"
)

type ToolName string
type ToolDescription string
type ToolArgumentValues map[string]any

// ToolHandler executes a tool call.
type ToolHandler func(ctx context.Context, args ToolArgumentValues) (ToolResult, error)

// ToolResult represents the result of a tool execution
type ToolResult struct {
	Text  string // Text content of the result
	Error string // Error message (if any)
}

// NewToolResultText creates a tool result with only text content
func NewToolResultText(text string) ToolResult {
	return ToolResult{Text: text}
}

// NewToolResultError creates a tool result with an error
func NewToolResultError(errorMsg string) ToolResult {
	return ToolResult{Error: errorMsg}
}

// IsError reports whether the result carries an error.
func (r ToolResult) IsError() bool {
	return r.Error != ""
}

// Content returns the text shown to the model.
func (r ToolResult) Content() string {
	if r.Error != "" {
		return r.Error
	}
	return r.Text
}

func (t ToolName) String() string {
	return string(t)
}

func (t ToolDescription) String() string {
	return string(t)
}

// Tool represents a tool definition
type Tool interface {
	RawName() ToolName
	Name() ToolName
	Description() ToolDescription
	Arguments() []ToolArgument
	Handler() ToolHandler
}

type ToolArgument struct {
	Name        ToolName
	Description ToolDescription
	Required    bool
	Type        string
	// Properties holds extra JSON schema keywords merged into the property
	// (enum, items, minItems, ...).
	Properties map[string]any `json:"properties,omitempty"`
}
