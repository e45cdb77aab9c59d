package events

import (
	"sync"
	"time"

	"github.com/fpt/editagent/pkg/message"
)

// EventType represents different types of agent events
type EventType string

const (
	EventTypeToolCallStart EventType = "tool_call_start"
	EventTypeToolResult    EventType = "tool_result"
	EventTypeResponse      EventType = "response"
	EventTypeError         EventType = "error"
)

// AgentEvent represents a structured event from the agent
type AgentEvent struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`

	Iteration *IterationInfo `json:"iteration,omitempty"`
}

// IterationInfo contains iteration context for events
type IterationInfo struct {
	Current int `json:"current"` // 0-based
	Maximum int `json:"maximum"`
}

// ToolCallStartData contains information about a tool call starting
type ToolCallStartData struct {
	ToolName  string                     `json:"tool_name"`
	Arguments message.ToolArgumentValues `json:"arguments"`
	CallID    string                     `json:"call_id,omitempty"`
}

// ToolResultData contains tool execution results
type ToolResultData struct {
	ToolName string        `json:"tool_name"`
	CallID   string        `json:"call_id,omitempty"`
	Content  string        `json:"content"`
	IsError  bool          `json:"is_error"`
	Duration time.Duration `json:"duration"`
}

// ResponseData contains the final agent response
type ResponseData struct {
	Message message.Message `json:"message"`
}

// ErrorData contains error information
type ErrorData struct {
	Error   error  `json:"error"`
	Context string `json:"context,omitempty"`
}

// EventHandler is a function that processes agent events
type EventHandler func(event AgentEvent)

// EventEmitter provides methods for emitting agent events
type EventEmitter interface {
	EmitEvent(eventType EventType, data any)
	Emit(event AgentEvent)
	AddHandler(handler EventHandler)
}

// SimpleEventEmitter delivers events synchronously, in registration order.
type SimpleEventEmitter struct {
	mu       sync.RWMutex
	handlers []EventHandler
}

// NewSimpleEventEmitter creates a new simple event emitter
func NewSimpleEventEmitter() *SimpleEventEmitter {
	return &SimpleEventEmitter{}
}

// EmitEvent stamps and emits an event without iteration context.
func (e *SimpleEventEmitter) EmitEvent(eventType EventType, data any) {
	e.Emit(AgentEvent{Type: eventType, Timestamp: time.Now(), Data: data})
}

// Emit delivers a prepared event to all handlers.
func (e *SimpleEventEmitter) Emit(event AgentEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	e.mu.RLock()
	handlers := append([]EventHandler(nil), e.handlers...)
	e.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// AddHandler adds an event handler
func (e *SimpleEventEmitter) AddHandler(handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
}
