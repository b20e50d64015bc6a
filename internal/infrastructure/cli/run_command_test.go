package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/scribeapp/scribe/internal/app"
	"github.com/scribeapp/scribe/internal/application/chat"
	"github.com/scribeapp/scribe/internal/domain"
	"github.com/scribeapp/scribe/internal/infrastructure/sessionstore"
	"github.com/scribeapp/scribe/internal/pkg/logger"
)

type recordingSurface struct {
	opened []domain.ConversationSession
}

func (s *recordingSurface) OpenSession(session domain.ConversationSession) {
	s.opened = append(s.opened, session)
}

func (s *recordingSurface) AppendTurn(string, domain.Turn)             {}
func (s *recordingSurface) ShowError(string, domain.ErrorKind, string) {}

func newRunFixture(t *testing.T) (*app.Container, *recordingSurface) {
	t.Helper()
	store, err := sessionstore.Open(filepath.Join(t.TempDir(), "chats.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	log := logger.NewStd(false)
	surf := &recordingSurface{}
	container := &app.Container{
		Chats:    chat.NewManager(store, domain.ChatSettings{HistoryWindow: 12, TitleTurnLimit: 4}, log),
		Sessions: store,
		Surface:  surf,
		Logger:   log,
	}
	return container, surf
}

func TestOpenCommandResumesSavedSession(t *testing.T) {
	container, surf := newRunFixture(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	saved := domain.ConversationSession{
		ID:        "3f2c8d10-aaaa-bbbb-cccc-000000000001",
		Title:     "Some text.",
		CreatedAt: now,
		UpdatedAt: now,
		Turns: []domain.Turn{
			{Role: domain.RoleUser, Content: "Original text to summarize:\n\nSome text.", Timestamp: now},
			{Role: domain.RoleAssistant, Content: "A concise summary.", Timestamp: now},
		},
	}
	if err := container.Sessions.Save(saved); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var active string
	out := &bytes.Buffer{}
	if done := handleChatLine(container, out, &active, "/open 3f2c8d10"); done {
		t.Fatal("handleChatLine() requested exit")
	}
	if active != saved.ID {
		t.Errorf("active session = %q, want %q", active, saved.ID)
	}
	if len(surf.opened) != 1 || surf.opened[0].ID != saved.ID {
		t.Fatalf("opened sessions = %+v", surf.opened)
	}
	if turns := surf.opened[0].Turns; len(turns) != 2 {
		t.Errorf("reopened turns = %d, want 2", len(turns))
	}
}

func TestOpenCommandUnknownSession(t *testing.T) {
	container, surf := newRunFixture(t)

	var active string
	out := &bytes.Buffer{}
	handleChatLine(container, out, &active, "/open deadbeef")

	if active != "" {
		t.Errorf("active session = %q, want empty", active)
	}
	if len(surf.opened) != 0 {
		t.Errorf("opened sessions = %+v", surf.opened)
	}
	if !strings.Contains(out.String(), "could not open session") {
		t.Errorf("output = %q", out.String())
	}
}

func TestOpenCommandWithoutArgumentPrintsUsage(t *testing.T) {
	container, _ := newRunFixture(t)

	var active string
	out := &bytes.Buffer{}
	handleChatLine(container, out, &active, "/open")

	if !strings.Contains(out.String(), "usage: /open") {
		t.Errorf("output = %q", out.String())
	}
}
