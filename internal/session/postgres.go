// This file implements the PostgreSQL-backed session store.
package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/itsmetohirr/JobFormBot/internal/models"
	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists sessions in a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL session store with the given DSN.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open PostgreSQL connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("PostgreSQL ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("PostgreSQL session store ready")

	return &PostgresStore{db: db}, nil
}

// Get returns the stored session, or nil when none exists.
func (s *PostgresStore) Get(chatID int64) (*models.ApplicationSession, error) {
	row := s.db.QueryRow(`SELECT current_step, answers, updated_at FROM form_sessions WHERE chat_id = $1`, chatID)
	return scanSession(row, chatID)
}

// Save upserts the session keyed by its conversation id.
func (s *PostgresStore) Save(sess *models.ApplicationSession) error {
	answers, err := json.Marshal(sess.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers for chat %d: %w", sess.ChatID, err)
	}
	_, err = s.db.Exec(`INSERT INTO form_sessions (chat_id, current_step, answers, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (chat_id) DO UPDATE SET current_step = EXCLUDED.current_step, answers = EXCLUDED.answers, updated_at = EXCLUDED.updated_at`,
		sess.ChatID, string(sess.CurrentStep), string(answers), time.Now())
	if err != nil {
		slog.Error("PostgresStore Save failed", "error", err, "chat_id", sess.ChatID)
		return fmt.Errorf("failed to save session for chat %d: %w", sess.ChatID, err)
	}
	slog.Debug("PostgresStore Save succeeded", "chat_id", sess.ChatID, "step", sess.CurrentStep)
	return nil
}

// Clear removes the session for the conversation.
func (s *PostgresStore) Clear(chatID int64) error {
	_, err := s.db.Exec(`DELETE FROM form_sessions WHERE chat_id = $1`, chatID)
	if err != nil {
		slog.Error("PostgresStore Clear failed", "error", err, "chat_id", chatID)
		return fmt.Errorf("failed to clear session for chat %d: %w", chatID, err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
