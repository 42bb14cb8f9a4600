// Package session provides storage backends for per-conversation form
// sessions.
//
// It includes an in-memory store (default) and persistent SQLite and
// PostgreSQL backends so an in-progress form survives process restarts when
// a DSN is configured.
package session

import (
	"strings"

	"github.com/itsmetohirr/JobFormBot/internal/models"
)

// Store is the session store contract consumed by the transport and the
// finalizer. Get returns nil without error when no session exists for the
// conversation.
//
// A store hands out independent session copies; the caller owns the copy
// until it is saved back. Per-conversation serialization is the transport's
// responsibility.
type Store interface {
	Get(chatID int64) (*models.ApplicationSession, error)
	Save(s *models.ApplicationSession) error
	Clear(chatID int64) error
}

// Opts holds configuration options for store backends.
type Opts struct {
	// DSN is the database connection string (file path for SQLite).
	DSN string
}

// Option configures a store backend.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports "postgres" for PostgreSQL connection strings and
// "sqlite" otherwise (file paths).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// cloneSession returns an independent copy of a session.
func cloneSession(s *models.ApplicationSession) *models.ApplicationSession {
	out := *s
	out.Answers = make(map[models.StepID]string, len(s.Answers))
	for k, v := range s.Answers {
		out.Answers[k] = v
	}
	return &out
}
