// This file implements the SQLite-backed session store.
package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/itsmetohirr/JobFormBot/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists sessions in an SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite session store with the given DSN.
// The DSN is a file path; the containing directory is created if missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(cfg.DSN)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite session store ready", "path", cfg.DSN)

	return &SQLiteStore{db: db}, nil
}

// Get returns the stored session, or nil when none exists.
func (s *SQLiteStore) Get(chatID int64) (*models.ApplicationSession, error) {
	row := s.db.QueryRow(`SELECT current_step, answers, updated_at FROM form_sessions WHERE chat_id = ?`, chatID)
	return scanSession(row, chatID)
}

// Save upserts the session keyed by its conversation id.
func (s *SQLiteStore) Save(sess *models.ApplicationSession) error {
	answers, err := json.Marshal(sess.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers for chat %d: %w", sess.ChatID, err)
	}
	_, err = s.db.Exec(`INSERT INTO form_sessions (chat_id, current_step, answers, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET current_step = excluded.current_step, answers = excluded.answers, updated_at = excluded.updated_at`,
		sess.ChatID, string(sess.CurrentStep), string(answers), time.Now())
	if err != nil {
		slog.Error("SQLiteStore Save failed", "error", err, "chat_id", sess.ChatID)
		return fmt.Errorf("failed to save session for chat %d: %w", sess.ChatID, err)
	}
	slog.Debug("SQLiteStore Save succeeded", "chat_id", sess.ChatID, "step", sess.CurrentStep)
	return nil
}

// Clear removes the session for the conversation.
func (s *SQLiteStore) Clear(chatID int64) error {
	_, err := s.db.Exec(`DELETE FROM form_sessions WHERE chat_id = ?`, chatID)
	if err != nil {
		slog.Error("SQLiteStore Clear failed", "error", err, "chat_id", chatID)
		return fmt.Errorf("failed to clear session for chat %d: %w", chatID, err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSession decodes one session row, returning nil when the row is absent.
func scanSession(row rowScanner, chatID int64) (*models.ApplicationSession, error) {
	var (
		step      string
		answers   string
		updatedAt time.Time
	)
	err := row.Scan(&step, &answers, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session for chat %d: %w", chatID, err)
	}
	sess := models.NewSession(chatID)
	sess.CurrentStep = models.StepID(step)
	sess.UpdatedAt = updatedAt
	if answers != "" {
		if err := json.Unmarshal([]byte(answers), &sess.Answers); err != nil {
			return nil, fmt.Errorf("failed to decode answers for chat %d: %w", chatID, err)
		}
	}
	if sess.Answers == nil {
		sess.Answers = make(map[models.StepID]string)
	}
	return sess, nil
}
