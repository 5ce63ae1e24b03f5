package core

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionIdleTimeout is used when a registry is created with a
// non-positive idle timeout.
const DefaultSessionIdleTimeout = 2 * time.Hour

// Sessions maps session ids to their stores.
type Sessions struct {
	mu          sync.RWMutex
	stores      map[string]*Store
	idleTimeout time.Duration
	maxSessions int
}

// NewSessions creates a registry. maxSessions <= 0 means unlimited; when the
// limit is reached the least recently used session is evicted.
func NewSessions(idleTimeout time.Duration, maxSessions int) *Sessions {
	if idleTimeout <= 0 {
		idleTimeout = DefaultSessionIdleTimeout
	}
	return &Sessions{
		stores:      make(map[string]*Store),
		idleTimeout: idleTimeout,
		maxSessions: maxSessions,
	}
}

// Get returns the store for id.
func (r *Sessions) Get(id string) (*Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.stores[id]
	return st, ok
}

// Create starts a new session and returns its id.
func (r *Sessions) Create() (string, *Store) {
	id := uuid.NewString()
	st := NewStore()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxSessions > 0 && len(r.stores) >= r.maxSessions {
		r.evictOldestLocked()
	}
	r.stores[id] = st
	return id, st
}

// GetOrCreate returns the store for id, creating a new session when id is
// empty, malformed or unknown. created reports whether a new id was issued.
func (r *Sessions) GetOrCreate(id string) (string, *Store, bool) {
	if _, err := uuid.Parse(id); err == nil {
		if st, ok := r.Get(id); ok {
			return id, st, false
		}
	}
	newID, st := r.Create()
	return newID, st, true
}

// Delete drops a session.
func (r *Sessions) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, id)
}

// Len returns the number of live sessions.
func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores)
}

// Sweep removes sessions idle since before now minus the idle timeout and
// returns how many were removed.
func (r *Sessions) Sweep(now time.Time) int {
	cutoff := now.Add(-r.idleTimeout)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, st := range r.stores {
		if st.LastAccess().Before(cutoff) {
			delete(r.stores, id)
			removed++
		}
	}
	return removed
}

func (r *Sessions) evictOldestLocked() {
	type aged struct {
		id string
		at time.Time
	}
	all := make([]aged, 0, len(r.stores))
	for id, st := range r.stores {
		all = append(all, aged{id: id, at: st.LastAccess()})
	}
	if len(all) == 0 {
		return
	}
	sort.Slice(all, func(i, j int) bool { return all[i].at.Before(all[j].at) })
	delete(r.stores, all[0].id)
}
