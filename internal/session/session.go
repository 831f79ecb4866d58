package session

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/simp-lee/ruelucas/internal/collection"
	"github.com/simp-lee/ruelucas/internal/domain"
	"github.com/simp-lee/ruelucas/internal/editor"
)

// Session is the dashboard state of one browser: a screen state per list
// screen and an editor per modal. Screens never share state.
type Session struct {
	ID                string
	Reservations      *collection.Controller[domain.Reservation]
	Reviews           *collection.Controller[domain.Review]
	ReservationEditor *editor.Editor[domain.ReservationDraft]
	ReviewEditor      *editor.Editor[domain.ReviewDraft]

	closed atomic.Bool
}

// Close cancels in-flight loads and discards open drafts. Later calls do
// nothing.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	if s.Reservations != nil {
		s.Reservations.Close()
	}
	if s.Reviews != nil {
		s.Reviews.Close()
	}
	if s.ReservationEditor != nil {
		s.ReservationEditor.Close()
	}
	if s.ReviewEditor != nil {
		s.ReviewEditor.Close()
	}
}

// Closed reports whether the session was closed.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

// Factory builds the state of a fresh session.
type Factory func(id string) *Session

// Store keeps sessions in memory and evicts them after ttl of inactivity.
type Store struct {
	cache   *gocache.Cache
	ttl     time.Duration
	factory Factory
}

// NewStore creates a Store. Expired sessions are swept every cleanup interval
// and closed when evicted.
func NewStore(ttl, cleanup time.Duration, factory Factory) *Store {
	c := gocache.New(ttl, cleanup)
	c.OnEvicted(func(id string, v interface{}) {
		if s, ok := v.(*Session); ok {
			s.Close()
			slog.Debug("session evicted", slog.String("session_id", id))
		}
	})
	return &Store{cache: c, ttl: ttl, factory: factory}
}

// Get returns the session with the given id and extends its lifetime.
func (st *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	v, ok := st.cache.Get(id)
	if !ok {
		return nil, false
	}
	s := v.(*Session)
	st.cache.Set(id, s, st.ttl)
	// The sweep may have evicted and closed s between Get and Set; Set then
	// put it back. A closed session is never handed out.
	if s.Closed() {
		st.cache.Delete(id)
		return nil, false
	}
	return s, true
}

// Acquire returns the session with the given id, or a new session when id is
// empty or unknown. created reports whether a new session was made.
func (st *Store) Acquire(id string) (s *Session, created bool) {
	if s, ok := st.Get(id); ok {
		return s, false
	}
	for {
		id = uuid.NewString()
		s = st.factory(id)
		if err := st.cache.Add(id, s, st.ttl); err == nil {
			return s, true
		}
		s.Close()
	}
}

// Delete closes and forgets a session.
func (st *Store) Delete(id string) {
	st.cache.Delete(id)
}

// Len returns the number of live sessions, expired ones included until swept.
func (st *Store) Len() int {
	return st.cache.ItemCount()
}

// Close closes every session and empties the store.
func (st *Store) Close() {
	for id := range st.cache.Items() {
		st.cache.Delete(id)
	}
}
