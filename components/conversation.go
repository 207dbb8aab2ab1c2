package components

import (
	"sync"

	"github.com/quantfold/finagent/schema"
)

// Conversation manages the append-only message history of one
// orchestration run.
//
// Invariants: insertion order is chronological order and is never
// reordered; at most one system message exists and, when present, it is
// always the first element. A Conversation is owned by a single run;
// the lock only guards against misuse, not a sharing contract.
type Conversation struct {
	// history is the ordered list of messages
	history []Message
	// turnID is the ID of the current turn
	turnID string
	// systemPrimed marks whether the system instruction has been injected
	systemPrimed bool
	// mtx sync lock
	mtx *sync.RWMutex
}

// NewConversation initializes an empty Conversation.
func NewConversation() *Conversation {
	return &Conversation{
		history: make([]Message, 0, 8),
		mtx:     new(sync.RWMutex),
	}
}

// NewConversationWithHistory seeds a Conversation with prior turns for
// continuity. Seed order is preserved. If the seed already starts with a
// system message the conversation counts as primed.
func NewConversationWithHistory(seed []Message) *Conversation {
	c := &Conversation{
		history: make([]Message, len(seed), len(seed)+8),
		mtx:     new(sync.RWMutex),
	}
	copy(c.history, seed)
	if len(seed) > 0 && seed[0].Role() == SystemRole {
		c.systemPrimed = true
	}
	return c
}

// Prime injects the system instruction at position 0. It is a no-op when
// the conversation has already been primed, so repeated calls never
// produce a second system message. Returns whether the message was
// inserted.
func (c *Conversation) Prime(instruction string) bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.systemPrimed {
		return false
	}
	msg := NewMessage(SystemRole, schema.String(instruction))
	c.history = append([]Message{*msg}, c.history...)
	c.systemPrimed = true
	return true
}

// SystemPrimed reports whether the system instruction has been injected.
func (c *Conversation) SystemPrimed() bool {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.systemPrimed
}

// TurnID returns the current turn ID
func (c *Conversation) TurnID() string {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.turnID
}

// NewTurn starts a new turn by generating a fresh turn ID.
func (c *Conversation) NewTurn() string {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.turnID = NewTurnID()
	return c.turnID
}

// Append adds a message to the history, stamping it with the current
// turn ID. Messages are never edited or removed afterwards.
func (c *Conversation) Append(msg *Message) *Message {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	msg.SetTurnID(c.turnID)
	c.history = append(c.history, *msg)
	return msg
}

// AppendNew builds and appends a message in one step.
func (c *Conversation) AppendNew(role MessageRole, content schema.Schema) *Message {
	return c.Append(NewMessage(role, content))
}

// History returns a copy of the ordered message history.
func (c *Conversation) History() []Message {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	history := make([]Message, len(c.history))
	copy(history, c.history)
	return history
}

// LastMessage returns the most recent message, or nil when empty.
func (c *Conversation) LastMessage() *Message {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	if len(c.history) == 0 {
		return nil
	}
	msg := c.history[len(c.history)-1]
	return &msg
}

// MessageCount returns the number of messages in the history.
func (c *Conversation) MessageCount() int {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return len(c.history)
}
