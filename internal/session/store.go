// ABOUTME: Durable session identity storage backed by SQLite
// ABOUTME: One namespaced key survives restarts; storage loss degrades to memory-only

package session

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// Namespace is the fixed key the session identity is stored under. It is
// the only durable client state.
const Namespace = "asghar_autos_session"

// Store holds the session identity: an opaque, user-chosen string that
// correlates all chat and verification state on the backend. The identity
// is kept in memory and mirrored to SQLite; if the database cannot be
// opened or written the store silently degrades to session-per-process.
type Store struct {
	mu      sync.Mutex
	current string
	db      *sql.DB
	logger  *slog.Logger
}

// Open creates a session store at the given database path. Open never
// fails: an unusable path yields a memory-only store.
func Open(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{logger: logger.With("component", "session")}

	db, err := openDatabase(path)
	if err != nil {
		s.logger.Warn("session storage unavailable, identity will not survive restarts",
			"path", path, "error", err)
		return s
	}
	s.db = db

	if err := s.loadCurrent(); err != nil {
		s.logger.Warn("reading persisted session identity", "error", err)
	}
	return s
}

// Get returns the current session identity, or empty if none is set.
func (s *Store) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set persists the identity and updates the in-memory value. Callers
// never observe a partial write: the memory value changes only after the
// durable write has been attempted, and a failed write still updates
// memory so the running session keeps working.
func (s *Store) Set(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		_, err := s.db.Exec(
			`INSERT INTO session_identity (namespace, identity) VALUES (?, ?)
			 ON CONFLICT(namespace) DO UPDATE SET identity = excluded.identity`,
			Namespace, id)
		if err != nil {
			s.logger.Warn("persisting session identity", "error", err)
		}
	}
	s.current = id
}

// Close releases the underlying database. Safe on a degraded store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) loadCurrent() error {
	row := s.db.QueryRow(`SELECT identity FROM session_identity WHERE namespace = ?`, Namespace)
	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}
	s.current = id
	return nil
}

func openDatabase(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL mode matches how the backend-side stores run; it also proves the
	// file is actually writable before we rely on it.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS session_identity (
		namespace TEXT PRIMARY KEY,
		identity  TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return db, nil
}
