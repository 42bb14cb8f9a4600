package session

import (
	"sync"
	"time"

	"github.com/itsmetohirr/JobFormBot/internal/models"
)

// InMemoryStore keeps sessions in process memory. It is the default backend
// and loses in-progress forms on restart.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*models.ApplicationSession
}

// NewInMemoryStore creates an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[int64]*models.ApplicationSession)}
}

// Get returns a copy of the stored session, or nil when none exists.
func (s *InMemoryStore) Get(chatID int64) (*models.ApplicationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.sessions[chatID]
	if !ok {
		return nil, nil
	}
	return cloneSession(stored), nil
}

// Save stores a copy of the session keyed by its conversation id.
func (s *InMemoryStore) Save(sess *models.ApplicationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := cloneSession(sess)
	stored.UpdatedAt = time.Now()
	s.sessions[sess.ChatID] = stored
	return nil
}

// Clear removes the session for the conversation, if any.
func (s *InMemoryStore) Clear(chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
	return nil
}
