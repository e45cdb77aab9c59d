package message

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ToolCallMessage is a model request to run one tool.
// Its ID is the provider call id that the matching result must echo.
type ToolCallMessage struct {
	ChatMessage
	name      ToolName
	arguments ToolArgumentValues
}

// NewToolCallMessage creates a tool call with a generated call id
func NewToolCallMessage(toolName ToolName, toolArgs ToolArgumentValues) *ToolCallMessage {
	return NewToolCallMessageWithID("", toolName, toolArgs)
}

// NewToolCallMessageWithID creates a tool call carrying the provider's call id.
// An empty id gets a generated one.
func NewToolCallMessageWithID(id string, toolName ToolName, toolArgs ToolArgumentValues) *ToolCallMessage {
	if id == "" {
		id = "call_" + uuid.NewString()
	}
	if toolArgs == nil {
		toolArgs = ToolArgumentValues{}
	}
	return &ToolCallMessage{
		ChatMessage: ChatMessage{
			id:        id,
			typ:       MessageTypeToolCall,
			content:   fmt.Sprintf("Calling tool: %s with args: %s", toolName, toolArgs.JSON()),
			timestamp: time.Now(),
		},
		name:      toolName,
		arguments: toolArgs,
	}
}

func (c *ToolCallMessage) ToolName() ToolName {
	return c.name
}

func (c *ToolCallMessage) ToolArguments() ToolArgumentValues {
	return c.arguments
}

func (c *ToolCallMessage) TruncatedString() string {
	if cmd, ok := c.arguments["command"].(string); ok {
		path, _ := c.arguments["path"].(string)
		return fmt.Sprintf("🔧 %s %s %s", c.name, cmd, path)
	}
	return fmt.Sprintf("🔧 Used tool: %s", c.name)
}

// ToolCallBatchMessage holds the tool calls of a single assistant turn.
type ToolCallBatchMessage struct {
	ChatMessage
	calls []*ToolCallMessage
}

// NewToolCallBatch creates a batch message from individual tool calls
func NewToolCallBatch(calls []*ToolCallMessage) *ToolCallBatchMessage {
	return &ToolCallBatchMessage{
		ChatMessage: ChatMessage{
			id:        generateMessageID(),
			typ:       MessageTypeToolCallBatch,
			content:   fmt.Sprintf("batch: %d tool calls", len(calls)),
			timestamp: time.Now(),
		},
		calls: calls,
	}
}

func (b *ToolCallBatchMessage) Calls() []*ToolCallMessage { return b.calls }

func (b *ToolCallBatchMessage) TruncatedString() string {
	return fmt.Sprintf("🔧 Used %d tools (batch)", len(b.calls))
}

// ToolResultMessage carries a tool outcome back to the model, keyed by call id.
type ToolResultMessage struct {
	ChatMessage
	ToolName ToolName
	Result   string
	IsError  bool
}

// NewToolResultMessage creates a result for the call with the given id.
func NewToolResultMessage(callID string, toolName ToolName, result string, isError bool) *ToolResultMessage {
	return &ToolResultMessage{
		ChatMessage: ChatMessage{
			id:        callID,
			typ:       MessageTypeToolResult,
			content:   result,
			timestamp: time.Now(),
		},
		ToolName: toolName,
		Result:   result,
		IsError:  isError,
	}
}

// CallID returns the id of the call this result answers.
func (t *ToolResultMessage) CallID() string { return t.id }

func (t *ToolResultMessage) TruncatedString() string {
	return "   ↳ " + truncate(t.Result, 100)
}

// JSON encodes the arguments, falling back to "{}".
func (v ToolArgumentValues) JSON() string {
	if len(v) == 0 {
		return "{}"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// ParseToolArguments decodes a provider's JSON argument string.
// An empty string yields empty arguments.
func ParseToolArguments(raw string) (ToolArgumentValues, error) {
	args := ToolArgumentValues{}
	if raw == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	return args, nil
}
