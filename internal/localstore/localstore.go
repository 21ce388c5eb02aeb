// Package localstore is the small persisted key/value store behind the
// client: it holds the session bearer token and the navigator's active
// section between runs.
package localstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/projectpulse/gridcore/pkg/models"
)

const (
	keySessionToken  = "session_token"
	keyActiveSection = "active_section"
)

// Store wraps the sqlite settings database.
type Store struct {
	db *sql.DB
}

// Open creates the data directory and settings database if needed.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "gridcore.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(key string) (string, bool) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// Token returns the persisted session token, or "" when none is stored.
// This satisfies the sync client's TokenSource.
func (s *Store) Token() string {
	token, _ := s.get(keySessionToken)
	return token
}

// SetToken persists the session token.
func (s *Store) SetToken(token string) error {
	return s.set(keySessionToken, token)
}

// ClearToken removes the persisted token, the session-expiry response.
func (s *Store) ClearToken() error {
	_, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, keySessionToken)
	return err
}

// ActiveSection returns the persisted navigator section.
func (s *Store) ActiveSection() (models.Section, bool) {
	value, ok := s.get(keyActiveSection)
	if !ok {
		return "", false
	}
	return models.Section(value), true
}

// SetActiveSection persists the navigator section.
func (s *Store) SetActiveSection(section models.Section) error {
	return s.set(keyActiveSection, string(section))
}
