// Package surface renders chat sessions and operation menus on the
// terminal the daemon was started from.
package surface

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/scribeapp/scribe/internal/domain"
	"github.com/scribeapp/scribe/internal/ports"
)

// Console prints session events to a single writer. A mutex serializes
// writes because deliveries arrive from the routing goroutine while the
// picker owns the same terminal.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole creates a console surface writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// OpenSession announces a session and replays its turns.
func (c *Console) OpenSession(session domain.ConversationSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\n=== %s (%s) ===\n", session.Title, shortID(session.ID))
	for _, turn := range session.Turns {
		c.printTurn(turn)
	}
}

// AppendTurn prints one new turn for the session.
func (c *Console) AppendTurn(sessionID string, turn domain.Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printTurn(turn)
}

// ShowError prints a failure notice without touching the transcript.
func (c *Console) ShowError(sessionID string, kind domain.ErrorKind, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\n[%s] %s\n", kind, message)
}

func (c *Console) printTurn(turn domain.Turn) {
	label := "You"
	if turn.Role == domain.RoleAssistant {
		label = "Assistant"
	}
	fmt.Fprintf(c.out, "\n%s:\n%s\n", label, strings.TrimRight(turn.Content, "\n"))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

var _ ports.Surface = (*Console)(nil)
