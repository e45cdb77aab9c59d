package message

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChatMessage is a plain text message from the user, the assistant or the system.
type ChatMessage struct {
	id         string
	typ        MessageType
	content    string
	timestamp  time.Time
	metadata   map[string]any
	tokenUsage TokenUsage
}

// NewChatMessage creates a new chat message with current timestamp
func NewChatMessage(msgType MessageType, content string) *ChatMessage {
	return &ChatMessage{
		id:        generateMessageID(),
		typ:       msgType,
		content:   content,
		timestamp: time.Now(),
	}
}

func NewUserMessage(content string) *ChatMessage {
	return NewChatMessage(MessageTypeUser, content)
}

func NewAssistantMessage(content string) *ChatMessage {
	return NewChatMessage(MessageTypeAssistant, content)
}

func NewSystemMessage(content string) *ChatMessage {
	return NewChatMessage(MessageTypeSystem, content)
}

func (c *ChatMessage) ID() string           { return c.id }
func (c *ChatMessage) Type() MessageType    { return c.typ }
func (c *ChatMessage) Content() string      { return c.content }
func (c *ChatMessage) Timestamp() time.Time { return c.timestamp }

func (c *ChatMessage) String() string {
	tokensInfo := ""
	if c.tokenUsage.TotalTokens > 0 {
		tokensInfo = fmt.Sprintf(", Tokens: %d (in:%d out:%d)",
			c.tokenUsage.TotalTokens, c.tokenUsage.InputTokens, c.tokenUsage.OutputTokens)
	}
	return fmt.Sprintf("Message(ID: %s, Type: %s, Content: %q, Timestamp: %s%s)",
		c.id, c.typ, c.content, c.timestamp.Format(time.RFC3339), tokensInfo)
}

func (c *ChatMessage) TokenUsage() TokenUsage { return c.tokenUsage }

func (c *ChatMessage) SetTokenUsage(usage TokenUsage) {
	c.tokenUsage = usage
}

// Metadata returns the metadata map for the message
func (c *ChatMessage) Metadata() map[string]any {
	if c.metadata == nil {
		return make(map[string]any)
	}
	return c.metadata
}

// SetMetadata sets a key-value pair in the metadata map
func (c *ChatMessage) SetMetadata(key string, value any) {
	if c.metadata == nil {
		c.metadata = make(map[string]any)
	}
	c.metadata[key] = value
}

func (c *ChatMessage) TruncatedString() string {
	switch c.typ {
	case MessageTypeUser:
		return "👤 You: " + truncate(c.content, 150)
	case MessageTypeAssistant:
		return "🤖 Assistant: " + truncate(c.content, 200)
	case MessageTypeSystem:
		return ""
	default:
		return fmt.Sprintf("[%s] %s", c.typ, truncate(c.content, 100))
	}
}

// truncate returns the first line of s, cut to at most n bytes on a rune boundary.
// "..." marks dropped content.
func truncate(s string, n int) string {
	first, rest, multiline := strings.Cut(s, "\n")
	if len(first) > n {
		return TruncateBytes(first, n)
	}
	if multiline && strings.TrimSpace(rest) != "" {
		return first + "..."
	}
	return first
}

// TruncateBytes cuts s to at most n bytes without splitting a rune and
// appends "..." when anything was dropped.
func TruncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := max(n, 0)
	for cut > 0 && !utf8RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }

func generateMessageID() string {
	return "msg_" + uuid.NewString()
}
