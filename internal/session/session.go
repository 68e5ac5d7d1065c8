// Package session keeps per-viewer dashboard state in memory. Each viewer gets
// an independent cohort board; an idle session expires and its board is
// discarded, so a returning viewer starts again from page 1.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/linnemanlabs/go-core/xerrors"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/triageboard/internal/cohort"
)

// CookieName is the cookie carrying the session id.
const CookieName = "triageboard_session"

// Session is one viewer's state.
type Session struct {
	ID      string
	Board   *cohort.Store
	Created time.Time
}

type entry struct {
	sess     *Session
	lastSeen time.Time
}

// Hooks lets callers observe the session population.
type Hooks struct {
	OnCount func(n int)
}

// Store holds sessions in memory. Suitable for a single replica.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	ttl      time.Duration
	limit    int
	newBoard func() *cohort.Store
	hooks    Hooks
	now      func() time.Time
}

// New creates a Store whose sessions expire after ttl without use. At most
// limit sessions are held; creating one more evicts the least recently used.
// A limit of 0 or less means no cap. newBoard builds the cohort board of each
// new session.
func New(ttl time.Duration, limit int, newBoard func() *cohort.Store, hooks Hooks) *Store {
	if newBoard == nil {
		panic(xerrors.New("session store requires a board constructor"))
	}
	if ttl <= 0 {
		panic(xerrors.New("session ttl must be positive"))
	}
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		limit:    limit,
		newBoard: newBoard,
		hooks:    hooks,
		now:      time.Now,
	}
}

// Get returns the live session with the given id and marks it used. An expired
// session is removed and reported as missing.
func (s *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.Sub(e.lastSeen) > s.ttl {
		delete(s.sessions, id)
		s.report()
		return nil, false
	}
	e.lastSeen = now
	return e.sess, true
}

// Create starts a new session with a fresh board. When the store is full,
// expired sessions are dropped first and then the least recently used one.
func (s *Store) Create() *Session {
	now := s.now()
	sess := &Session{
		ID:      ulid.Make().String(),
		Board:   s.newBoard(),
		Created: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limit > 0 && len(s.sessions) >= s.limit {
		s.evict(now)
	}
	s.sessions[sess.ID] = &entry{sess: sess, lastSeen: now}
	s.report()
	return sess
}

// GetOrCreate returns the session for id, creating one when id is unknown or
// expired. created reports whether a new session was made.
func (s *Store) GetOrCreate(id string) (sess *Session, created bool) {
	if sess, ok := s.Get(id); ok {
		return sess, false
	}
	return s.Create(), true
}

// Sweep removes expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for id, e := range s.sessions {
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.sessions, id)
			n++
		}
	}
	if n > 0 {
		s.report()
	}
	return n
}

// evict makes room for one session. Must be called with mu held.
func (s *Store) evict(now time.Time) {
	var oldestID string
	var oldest time.Time
	for id, e := range s.sessions {
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.sessions, id)
			continue
		}
		if oldestID == "" || e.lastSeen.Before(oldest) {
			oldestID, oldest = id, e.lastSeen
		}
	}
	if len(s.sessions) >= s.limit && oldestID != "" {
		delete(s.sessions, oldestID)
	}
}

// Len returns the number of stored sessions, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}

// report must be called with mu held.
func (s *Store) report() {
	if s.hooks.OnCount != nil {
		s.hooks.OnCount(len(s.sessions))
	}
}
