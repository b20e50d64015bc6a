// Package sessionstore persists conversation sessions in SQLite.
package sessionstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/scribeapp/scribe/internal/domain"
	"github.com/scribeapp/scribe/internal/pkg/filesystem"
	"github.com/scribeapp/scribe/internal/ports"
)

// Store keeps every session and its turns in a SQLite database. A save
// replaces the session's turn rows wholesale, which keeps the write path
// simple at the session sizes this tool sees.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// DefaultPath returns the database location under the application directory.
func DefaultPath() string {
	return filepath.Join(filesystem.AppDir(), "chats", "chats.db")
}

// Open creates (or opens) the session database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create session store directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	store := &Store{db: db, path: path}
	if err := store.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize session store: %w", err)
	}
	return store, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		title TEXT,
		custom_title INTEGER,
		created_at TEXT,
		updated_at TEXT
	);
	CREATE TABLE IF NOT EXISTS turns (
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		role TEXT,
		content TEXT,
		timestamp TEXT,
		PRIMARY KEY (session_id, seq)
	);`)
	return err
}

// Save upserts the session row and rewrites its turns.
func (s *Store) Save(session domain.ConversationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO sessions (id, title, custom_title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			custom_title = excluded.custom_title,
			updated_at = excluded.updated_at`,
		session.ID,
		session.Title,
		boolToInt(session.CustomTitle),
		session.CreatedAt.Format(time.RFC3339Nano),
		session.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM turns WHERE session_id = ?", session.ID); err != nil {
		return err
	}
	for i, turn := range session.Turns {
		_, err := tx.Exec(`INSERT INTO turns (session_id, seq, role, content, timestamp)
			VALUES (?, ?, ?, ?, ?)`,
			session.ID, i, string(turn.Role), turn.Content,
			turn.Timestamp.Format(time.RFC3339Nano))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Get loads one session with its turns in order.
func (s *Store) Get(id string) (domain.ConversationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var session domain.ConversationSession
	var customTitle int
	var createdAt, updatedAt string
	err := s.db.QueryRow(`SELECT id, title, custom_title, created_at, updated_at
		FROM sessions WHERE id = ?`, id).
		Scan(&session.ID, &session.Title, &customTitle, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return domain.ConversationSession{}, fmt.Errorf("session %s: %w", id, os.ErrNotExist)
	}
	if err != nil {
		return domain.ConversationSession{}, err
	}
	session.CustomTitle = customTitle == 1
	session.CreatedAt = parseTime(createdAt)
	session.UpdatedAt = parseTime(updatedAt)
	session.Persisted = true

	rows, err := s.db.Query(`SELECT role, content, timestamp FROM turns
		WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return domain.ConversationSession{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var turn domain.Turn
		var role, ts string
		if err := rows.Scan(&role, &turn.Content, &ts); err != nil {
			return domain.ConversationSession{}, err
		}
		turn.Role = domain.Role(role)
		turn.Timestamp = parseTime(ts)
		session.Turns = append(session.Turns, turn)
	}
	return session, rows.Err()
}

// List returns all sessions, newest activity first, turns included.
func (s *Store) List() ([]domain.ConversationSession, error) {
	s.mu.Lock()
	ids, err := s.listIDs()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	sessions := make([]domain.ConversationSession, 0, len(ids))
	for _, id := range ids {
		session, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (s *Store) listIDs() ([]string, error) {
	rows, err := s.db.Query("SELECT id FROM sessions ORDER BY datetime(updated_at) DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes a session and its turns.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec("DELETE FROM turns WHERE session_id = ?", id); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	return err
}

// ExportJSON writes every session as one JSON object per line.
func (s *Store) ExportJSON(dest string) error {
	sessions, err := s.List()
	if err != nil {
		return err
	}
	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer file.Close()
	for _, session := range sessions {
		b, err := json.Marshal(session)
		if err != nil {
			return err
		}
		if _, err := file.Write(append(b, '\n')); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the sqlite database path.
func (s *Store) Path() string {
	return s.path
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ports.SessionRepository = (*Store)(nil)
