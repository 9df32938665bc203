package chat

import "github.com/google/uuid"

// Session owns the ordered, append-only message history of one UI session.
// One interaction runs at a time within a session, so Session itself does
// no locking; cross-session isolation comes from separate instances.
type Session struct {
	ID       string
	messages []Message
}

// NewSession creates an empty session with a fresh ID.
func NewSession() *Session {
	return &Session{ID: uuid.NewString()}
}

// AppendUser appends a user message wrapping text in a single text block.
func (s *Session) AppendUser(text string) {
	s.messages = append(s.messages, NewUserMessage(text))
}

// AppendAssistant appends an assistant message wrapping text in a single text block.
func (s *Session) AppendAssistant(text string) {
	s.messages = append(s.messages, NewAssistantMessage(text))
}

// RollbackLast removes the most recently appended message. It is used to
// undo a pending user message when the agent call fails, so history never
// keeps an orphaned question. Returns false on an empty session.
func (s *Session) RollbackLast() bool {
	if len(s.messages) == 0 {
		return false
	}
	s.messages = s.messages[:len(s.messages)-1]
	return true
}

// Reset clears the history.
func (s *Session) Reset() {
	s.messages = nil
}

// Len returns the number of messages in the session.
func (s *Session) Len() int {
	return len(s.messages)
}

// Messages returns a copy of the full history in chronological order.
func (s *Session) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Recent returns a copy of the last n messages (all of them when n exceeds
// the history length). It does not mutate the session.
func (s *Session) Recent(n int) []Message {
	if n <= 0 {
		return nil
	}
	if n > len(s.messages) {
		n = len(s.messages)
	}
	out := make([]Message, n)
	copy(out, s.messages[len(s.messages)-n:])
	return out
}
