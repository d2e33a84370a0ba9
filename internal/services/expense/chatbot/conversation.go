package chatbot

import "sync"

// MaxConversationMessages bounds how many messages a Conversation keeps.
const MaxConversationMessages = 50

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role Role
	Text string
}

// Conversation is a bounded chat history safe for concurrent use. Once full,
// the oldest messages are dropped.
type Conversation struct {
	mu       sync.Mutex
	messages []Message
	limit    int
}

// NewConversation returns an empty history holding at most limit messages.
// A non-positive limit uses MaxConversationMessages.
func NewConversation(limit int) *Conversation {
	if limit <= 0 {
		limit = MaxConversationMessages
	}
	return &Conversation{limit: limit}
}

// Append records messages in order.
func (c *Conversation) Append(messages ...Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, messages...)
	if overflow := len(c.messages) - c.limit; overflow > 0 {
		c.messages = append([]Message(nil), c.messages[overflow:]...)
	}
}

// Messages returns a copy of the history, oldest first.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]Message(nil), c.messages...)
}

// Len returns the number of retained messages.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.messages)
}
