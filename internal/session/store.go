package session

import (
	"sync"
	"time"
)

// Store maps user IDs to their single live session. The map itself is safe
// for concurrent use; logical ownership of any one session is still
// single-writer (the per-user dispatch worker).
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewStore creates an empty in-memory store. Nothing survives a restart.
func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]*Session),
	}
}

// Get returns the live session for a user, or nil.
func (st *Store) Get(userID int64) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[userID]
}

// Put installs a session for a user, replacing any prior one outright.
func (st *Store) Put(userID int64, s *Session) {
	st.mu.Lock()
	st.sessions[userID] = s
	st.mu.Unlock()
}

// Remove destroys a user's session. Removing an absent session is a no-op.
func (st *Store) Remove(userID int64) {
	st.mu.Lock()
	delete(st.sessions, userID)
	st.mu.Unlock()
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// SweepIdle removes sessions whose last activity is older than ttl and
// returns the affected user IDs. Sessions mid-download are exempt: the
// fetch is synchronous and tears the session down itself on completion.
func (st *Store) SweepIdle(ttl time.Duration) []int64 {
	if ttl <= 0 {
		return nil
	}

	cutoff := time.Now().Add(-ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	var evicted []int64
	for userID, s := range st.sessions {
		if s.Stage() == StageDownloading {
			continue
		}
		if s.IdleSince().Before(cutoff) {
			delete(st.sessions, userID)
			evicted = append(evicted, userID)
		}
	}
	return evicted
}
