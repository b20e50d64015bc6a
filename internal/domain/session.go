package domain

import (
	"strings"
	"time"
)

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationSession is the unit of chat continuity. Sessions are owned by
// the conversation manager; everything else holds them by id.
type ConversationSession struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Turns     []Turn    `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// CustomTitle is set once the user renames the session; auto-titling
	// never runs again after that.
	CustomTitle bool `json:"custom_title"`
	// Persisted tracks whether the session has a saved record.
	Persisted bool `json:"-"`
}

// Append adds a turn and keeps the timestamp ordering invariant: a turn never
// sorts before the one already at the tail.
func (s *ConversationSession) Append(role Role, content string, at time.Time) {
	if n := len(s.Turns); n > 0 && at.Before(s.Turns[n-1].Timestamp) {
		at = s.Turns[n-1].Timestamp
	}
	s.Turns = append(s.Turns, Turn{Role: role, Content: content, Timestamp: at})
	s.UpdatedAt = at
}

// FirstUserTurn returns the content of the earliest user turn.
func (s *ConversationSession) FirstUserTurn() string {
	for _, t := range s.Turns {
		if t.Role == RoleUser {
			return t.Content
		}
	}
	return ""
}

const titleMaxRunes = 50

// DeriveTitle builds a display title from the first user turn, stripping the
// "Original text to <op>:" framing that transform-seeded chats start with.
// Falls back to a timestamp title for an empty session. The derivation is
// deterministic so regenerating before the turn limit is reached cannot
// flip-flop the title.
func (s *ConversationSession) DeriveTitle(now time.Time) string {
	first := s.FirstUserTurn()
	if strings.Contains(first, "Original text to") {
		if _, rest, ok := strings.Cut(first, ":\n\n"); ok {
			first = rest
		}
	}
	first = strings.TrimSpace(first)
	if first == "" {
		return "Chat " + now.Format("2006-01-02 15:04")
	}
	runes := []rune(first)
	if len(runes) <= titleMaxRunes {
		return first
	}
	return string(runes[:titleMaxRunes]) + "..."
}

// TailTranscript renders the last window turns as a plain-text transcript in
// the "User:/Assistant:" form sent to the capability on continuations.
func (s *ConversationSession) TailTranscript(window int) string {
	turns := s.Turns
	if window > 0 && len(turns) > window {
		turns = turns[len(turns)-window:]
	}
	var b strings.Builder
	for _, t := range turns {
		switch t.Role {
		case RoleUser:
			b.WriteString("User: ")
		case RoleAssistant:
			b.WriteString("Assistant: ")
		}
		b.WriteString(t.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}
