package session

import (
	"errors"
	"sync"
	"time"
)

// Repository defines the concurrency-safe contract for tracking sessions.
type Repository interface {
	// Add stores a new session. ErrDuplicateSession is returned if the ID is
	// already taken.
	Add(s *Session) error

	// Get returns the session with the given ID.
	Get(id SessionID) (*Session, bool)

	// Remove deletes and returns the session with the given ID.
	Remove(id SessionID) (*Session, bool)

	// Idle removes and returns every session whose player has been inactive
	// since before cutoff.
	Idle(cutoff time.Time) []*Session

	// Drain removes and returns every session.
	Drain() []*Session

	// Count returns the number of open sessions. Used for metrics.
	Count() int
}

var (
	// ErrSessionNotFound is returned when a session ID is unknown.
	ErrSessionNotFound = errors.New("session not found")

	// ErrDuplicateSession is returned when adding a session whose ID is taken.
	ErrDuplicateSession = errors.New("session already exists")
)

// InMemoryRepository is a concurrency-safe implementation of Repository.
// It uses a Store for persistence; by default that is an InMemoryStore.
type InMemoryRepository struct {
	mu    sync.RWMutex
	store Store
}

// NewInMemoryRepository constructs a new repository with a default in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return NewInMemoryRepositoryWithStore(NewInMemoryStore())
}

// NewInMemoryRepositoryWithStore constructs a repository that uses the given Store.
func NewInMemoryRepositoryWithStore(store Store) *InMemoryRepository {
	return &InMemoryRepository{store: store}
}

// Add implements Repository.Add.
func (r *InMemoryRepository) Add(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store.GetSession(s.ID); exists {
		return ErrDuplicateSession
	}
	r.store.SetSession(s)
	return nil
}

// Get implements Repository.Get.
func (r *InMemoryRepository) Get(id SessionID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.GetSession(id)
}

// Remove implements Repository.Remove.
func (r *InMemoryRepository) Remove(id SessionID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.store.GetSession(id)
	if !ok {
		return nil, false
	}
	r.store.DeleteSession(id)
	return s, true
}

// Idle implements Repository.Idle.
func (r *InMemoryRepository) Idle(cutoff time.Time) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Session
	for _, id := range r.store.ListSessionIDs() {
		s, ok := r.store.GetSession(id)
		if !ok {
			continue
		}
		if s.Player.LastActive().Before(cutoff) {
			r.store.DeleteSession(id)
			out = append(out, s)
		}
	}
	return out
}

// Drain implements Repository.Drain.
func (r *InMemoryRepository) Drain() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.store.ListSessionIDs()
	out := make([]*Session, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.store.GetSession(id); ok {
			out = append(out, s)
		}
		r.store.DeleteSession(id)
	}
	return out
}

// Count implements Repository.Count.
func (r *InMemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.store.ListSessionIDs())
}
