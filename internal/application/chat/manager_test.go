package chat

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/scribeapp/scribe/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{})        {}
func (nopLogger) Info(string, map[string]interface{})         {}
func (nopLogger) Warn(string, map[string]interface{})         {}
func (nopLogger) Error(string, error, map[string]interface{}) {}

type memRepo struct {
	mu       sync.Mutex
	saved    map[string]domain.ConversationSession
	saveErr  error
	saveDone chan string
}

func newMemRepo() *memRepo {
	return &memRepo{saved: make(map[string]domain.ConversationSession), saveDone: make(chan string, 8)}
}

func (r *memRepo) Save(s domain.ConversationSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved[s.ID] = s
	select {
	case r.saveDone <- s.ID:
	default:
	}
	return nil
}

func (r *memRepo) Get(id string) (domain.ConversationSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.saved[id]
	if !ok {
		return domain.ConversationSession{}, errors.New("not found")
	}
	return s, nil
}

func (r *memRepo) List() ([]domain.ConversationSession, error) { return nil, nil }
func (r *memRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.saved, id)
	return nil
}
func (r *memRepo) ExportJSON(string) error { return nil }

func newTestManager(repo *memRepo) *Manager {
	m := NewManager(repo, domain.ChatSettings{HistoryWindow: 12, TitleTurnLimit: 4}, nopLogger{})
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	var step time.Duration
	m.now = func() time.Time {
		step += time.Second
		return base.Add(step)
	}
	n := 0
	m.newID = func() string {
		n++
		return strings.Repeat("0", 35) + string(rune('a'+n-1))
	}
	return m
}

func TestStartSessionSeedsCapturedText(t *testing.T) {
	m := newTestManager(newMemRepo())
	session := m.StartSession("The quick brown fox.", "Summary")

	if len(session.Turns) != 1 {
		t.Fatalf("len(Turns) = %d, want 1", len(session.Turns))
	}
	want := "Original text to summary:\n\nThe quick brown fox."
	if session.Turns[0].Content != want {
		t.Errorf("seed turn = %q, want %q", session.Turns[0].Content, want)
	}
	if session.Title != "The quick brown fox." {
		t.Errorf("title = %q, want the stripped seed text", session.Title)
	}
}

func TestStartSessionEmptyCapture(t *testing.T) {
	m := newTestManager(newMemRepo())
	session := m.StartSession("", "Chat")

	if len(session.Turns) != 0 {
		t.Fatalf("empty capture should not seed a turn, got %d", len(session.Turns))
	}
	if !strings.HasPrefix(session.Title, "Chat ") {
		t.Errorf("title = %q, want timestamp fallback", session.Title)
	}
}

func TestAutoTitleStopsAtTurnLimit(t *testing.T) {
	m := newTestManager(newMemRepo())
	session := m.StartSession("", "Chat")

	if _, err := m.AppendUser(session.ID, "first question"); err != nil {
		t.Fatalf("AppendUser() error = %v", err)
	}
	got, _ := m.Get(session.ID)
	if got.Title != "first question" {
		t.Errorf("title = %q, want %q", got.Title, "first question")
	}

	m.AppendAssistant(session.ID, "answer one")
	m.AppendUser(session.ID, "second question")
	m.AppendAssistant(session.ID, "answer two")
	m.AppendUser(session.ID, "third question")

	got, _ = m.Get(session.ID)
	if got.Title != "first question" {
		t.Errorf("title changed after the turn limit: %q", got.Title)
	}
}

func TestRenameStopsAutoTitling(t *testing.T) {
	m := newTestManager(newMemRepo())
	session := m.StartSession("", "Chat")

	if err := m.Rename(session.ID, "My research"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	m.AppendUser(session.ID, "unrelated question")

	got, _ := m.Get(session.ID)
	if got.Title != "My research" {
		t.Errorf("title = %q, custom title must survive appends", got.Title)
	}
	if !got.CustomTitle {
		t.Error("CustomTitle not set")
	}
}

func TestContinuationPrompt(t *testing.T) {
	m := newTestManager(newMemRepo())
	session := m.StartSession("Some text.", "Summary")
	m.AppendAssistant(session.ID, "A summary.")

	prompt, err := m.ContinuationPrompt(session.ID, "Shorter please")
	if err != nil {
		t.Fatalf("ContinuationPrompt() error = %v", err)
	}
	if !strings.Contains(prompt, "User: Original text to summary:") {
		t.Errorf("prompt missing seed turn:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Assistant: A summary.") {
		t.Errorf("prompt missing assistant turn:\n%s", prompt)
	}
	if !strings.HasSuffix(prompt, "User: Shorter please\n\nAssistant:") {
		t.Errorf("prompt tail wrong:\n%s", prompt)
	}
}

func TestContinuationPromptWindowsHistory(t *testing.T) {
	m := newTestManager(newMemRepo())
	m.settings.HistoryWindow = 2
	session := m.StartSession("", "Chat")
	m.AppendUser(session.ID, "oldest")
	m.AppendAssistant(session.ID, "old answer")
	m.AppendUser(session.ID, "recent")
	m.AppendAssistant(session.ID, "recent answer")

	prompt, err := m.ContinuationPrompt(session.ID, "next")
	if err != nil {
		t.Fatalf("ContinuationPrompt() error = %v", err)
	}
	if strings.Contains(prompt, "oldest") {
		t.Errorf("prompt should drop turns beyond the window:\n%s", prompt)
	}
	if !strings.Contains(prompt, "User: recent") {
		t.Errorf("prompt missing recent turn:\n%s", prompt)
	}
}

func TestSaveAsyncPersistsSnapshot(t *testing.T) {
	repo := newMemRepo()
	m := newTestManager(repo)
	session := m.StartSession("Some text.", "Summary")

	done := make(chan error, 1)
	m.SaveAsync(session.ID, func(err error) { done <- err })

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("SaveAsync() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("SaveAsync() never completed")
	}

	saved, err := repo.Get(session.ID)
	if err != nil {
		t.Fatalf("repo.Get() error = %v", err)
	}
	if len(saved.Turns) != 1 {
		t.Errorf("saved turns = %d, want 1", len(saved.Turns))
	}
}

func TestSaveAsyncFailureIsPersistenceKind(t *testing.T) {
	repo := newMemRepo()
	repo.saveErr = errors.New("disk full")
	m := newTestManager(repo)
	session := m.StartSession("Some text.", "Summary")

	done := make(chan error, 1)
	m.SaveAsync(session.ID, func(err error) { done <- err })

	select {
	case err := <-done:
		if domain.KindOf(err) != domain.ErrKindPersistence {
			t.Errorf("KindOf(%v) = %q, want %q", err, domain.KindOf(err), domain.ErrKindPersistence)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("SaveAsync() never completed")
	}
}

func TestSaveAsyncUnknownSession(t *testing.T) {
	m := newTestManager(newMemRepo())
	done := make(chan error, 1)
	m.SaveAsync("missing", func(err error) { done <- err })

	select {
	case err := <-done:
		if err == nil {
			t.Error("SaveAsync(missing) should report an error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("SaveAsync() never completed")
	}
}

func TestLoadReplacesCachedCopy(t *testing.T) {
	repo := newMemRepo()
	m := newTestManager(repo)
	session := m.StartSession("Some text.", "Summary")

	done := make(chan error, 1)
	m.SaveAsync(session.ID, func(err error) { done <- err })
	<-done

	loaded, err := m.Load(session.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.ID != session.ID || !loaded.Persisted {
		t.Errorf("Load() = %+v", loaded)
	}
}
