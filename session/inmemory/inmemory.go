package inmemory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/juhapellotsalo/agentic-content-scout/internal/agent/core"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Store keeps threads as JSON snapshots so callers never share state with
// the store.
type Store struct {
	sessions map[string]entry
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
}

func NewInMemorySessionStore(ttl time.Duration) *Store {
	return &Store{sessions: make(map[string]entry), ttl: ttl, now: time.Now}
}

func (store *Store) Load(_ context.Context, threadID string) (*core.State, error) {
	store.mu.RLock()
	e, ok := store.sessions[threadID]
	store.mu.RUnlock()
	if !ok || store.expired(e) {
		return nil, nil
	}
	var st core.State
	if err := json.Unmarshal(e.data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (store *Store) Save(_ context.Context, st *core.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	store.sweep()
	e := entry{data: data}
	if store.ttl > 0 {
		e.expiresAt = store.now().Add(store.ttl)
	}
	store.sessions[st.ThreadID] = e
	return nil
}

func (store *Store) Delete(_ context.Context, threadID string) error {
	store.mu.Lock()
	delete(store.sessions, threadID)
	store.mu.Unlock()
	return nil
}

// Len counts live threads.
func (store *Store) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	n := 0
	for _, e := range store.sessions {
		if !store.expired(e) {
			n++
		}
	}
	return n
}

func (store *Store) Close() error { return nil }

func (store *Store) expired(e entry) bool {
	return !e.expiresAt.IsZero() && store.now().After(e.expiresAt)
}

// sweep drops expired threads. Callers hold the write lock.
func (store *Store) sweep() {
	for id, e := range store.sessions {
		if store.expired(e) {
			delete(store.sessions, id)
		}
	}
}
