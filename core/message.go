package core

import "context"

// MessageType classifies the intent of a message an agent produces.
type MessageType string

// Message intents understood by the persona agents.
const (
	MessageGreeting     MessageType = "greeting"
	MessageQuestion     MessageType = "question"
	MessageResponse     MessageType = "response"
	MessageError        MessageType = "error"
	MessageConfirmation MessageType = "confirmation"
	MessageInstruction  MessageType = "instruction"
)

// Message is one formatted utterance exchanged in a conversation.
type Message struct {
	Sender   string         `json:"sender"`
	Text     string         `json:"text"`
	Type     MessageType    `json:"message_type"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// AgentContext carries everything an agent needs to format a response:
// the session identity, optional raw user text, the symbolic message intent
// and a free-form metadata map (response mode, question type, match data...).
type AgentContext struct {
	SessionID   string
	UserInput   string
	MessageType MessageType
	Metadata    map[string]any
}

// Meta returns a metadata value with a fallback default.
func (c AgentContext) Meta(key string, def any) any {
	if c.Metadata == nil {
		return def
	}
	if v, ok := c.Metadata[key]; ok {
		return v
	}
	return def
}

// MetaString returns a string metadata value, or def when absent or not a string.
func (c AgentContext) MetaString(key, def string) string {
	if s, ok := c.Meta(key, def).(string); ok {
		return s
	}
	return def
}

// Agent formats conversation messages for one persona. Agents perform no flow
// control and never mutate session state; they select and fill templates,
// optionally calling the text generator for free-form passages.
type Agent interface {
	// Name returns the persona's human-readable name.
	Name() string
	// Respond produces the messages for the given context.
	Respond(ctx context.Context, ac AgentContext) ([]Message, error)
}
