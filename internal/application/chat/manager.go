// Package chat owns conversation sessions: creation, turn history,
// titling and persistence.
package chat

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scribeapp/scribe/internal/domain"
	"github.com/scribeapp/scribe/internal/ports"
)

// Manager holds live sessions in memory and persists them through the
// repository. The trigger goroutine and the interactive loop both reach the
// manager, so every entry point takes the mutex.
type Manager struct {
	repo     ports.SessionRepository
	settings domain.ChatSettings
	log      ports.Logger

	mu       sync.Mutex
	sessions map[string]*domain.ConversationSession

	now   func() time.Time
	newID func() string
}

// NewManager creates a session manager backed by repo.
func NewManager(repo ports.SessionRepository, settings domain.ChatSettings, log ports.Logger) *Manager {
	return &Manager{
		repo:     repo,
		settings: settings,
		log:      log,
		sessions: make(map[string]*domain.ConversationSession),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// StartSession opens a fresh session. When initialText is non-empty the
// session is seeded with a first user turn framing the captured text for
// opName, so follow-up questions keep the original text in scope.
func (m *Manager) StartSession(initialText, opName string) domain.ConversationSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	session := &domain.ConversationSession{
		ID:        m.newID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if strings.TrimSpace(initialText) != "" {
		seed := fmt.Sprintf("Original text to %s:\n\n%s", strings.ToLower(opName), initialText)
		session.Append(domain.RoleUser, seed, now)
	}
	session.Title = session.DeriveTitle(now)
	m.sessions[session.ID] = session
	return *session
}

// AppendUser records a user turn and re-derives the title while the session
// is still young.
func (m *Manager) AppendUser(id, content string) (domain.Turn, error) {
	return m.append(id, domain.RoleUser, content)
}

// AppendAssistant records an assistant turn.
func (m *Manager) AppendAssistant(id, content string) (domain.Turn, error) {
	return m.append(id, domain.RoleAssistant, content)
}

func (m *Manager) append(id string, role domain.Role, content string) (domain.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.lookupLocked(id)
	if err != nil {
		return domain.Turn{}, err
	}
	session.Append(role, content, m.now())
	m.maybeAutoTitleLocked(session)
	return session.Turns[len(session.Turns)-1], nil
}

// maybeAutoTitleLocked regenerates the title until the session outgrows the
// turn limit. A user-set title is never overwritten.
func (m *Manager) maybeAutoTitleLocked(session *domain.ConversationSession) {
	if session.CustomTitle {
		return
	}
	if limit := m.settings.TitleTurnLimit; limit > 0 && len(session.Turns) > limit {
		return
	}
	session.Title = session.DeriveTitle(m.now())
}

// Rename sets a user-chosen title; auto-titling stops for good.
func (m *Manager) Rename(id, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.lookupLocked(id)
	if err != nil {
		return err
	}
	session.Title = strings.TrimSpace(title)
	session.CustomTitle = true
	session.UpdatedAt = m.now()
	return nil
}

// Get returns a snapshot of the session.
func (m *Manager) Get(id string) (domain.ConversationSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.lookupLocked(id)
	if err != nil {
		return domain.ConversationSession{}, err
	}
	return *session, nil
}

// ContinuationPrompt renders the trailing transcript plus the new question
// in the form the capability expects for chat turns.
func (m *Manager) ContinuationPrompt(id, question string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.lookupLocked(id)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(session.TailTranscript(m.settings.HistoryWindow))
	b.WriteString("User: ")
	b.WriteString(question)
	b.WriteString("\n\nAssistant:")
	return b.String(), nil
}

// SaveAsync persists a snapshot of the session off the interactive path.
// done, when non-nil, receives the save result.
func (m *Manager) SaveAsync(id string, done func(error)) {
	m.mu.Lock()
	session, err := m.lookupLocked(id)
	var snapshot domain.ConversationSession
	if err == nil {
		session.Persisted = true
		snapshot = *session
		snapshot.Turns = append([]domain.Turn(nil), session.Turns...)
	}
	m.mu.Unlock()

	if err != nil {
		if done != nil {
			done(err)
		}
		return
	}
	go func() {
		err := m.repo.Save(snapshot)
		if err != nil {
			m.log.Error("session save failed", err, map[string]interface{}{"session": id})
			err = &domain.PersistenceError{Err: err}
		}
		if done != nil {
			done(err)
		}
	}()
}

// Load pulls a persisted session into memory, replacing any cached copy.
func (m *Manager) Load(id string) (domain.ConversationSession, error) {
	session, err := m.repo.Get(id)
	if err != nil {
		return domain.ConversationSession{}, err
	}
	m.mu.Lock()
	m.sessions[session.ID] = &session
	m.mu.Unlock()
	return session, nil
}

// Delete removes the session from memory and storage.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return m.repo.Delete(id)
}

func (m *Manager) lookupLocked(id string) (*domain.ConversationSession, error) {
	session, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unknown session %s", id)
	}
	return session, nil
}
