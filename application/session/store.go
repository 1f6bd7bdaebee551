// Package session tracks the auth state of every browser session the
// application serves.
package session

import (
	"context"
	"sync"
	"time"
)

// State is the auth state of one browser session.
type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "loading"
	}
}

// Snapshot is a point-in-time view of a Store.
type Snapshot struct {
	State  State
	UserID string
	Email  string
}

// Authenticated reports whether the snapshot carries a signed-in user.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated
}

// Store holds the auth state of one browser session. It starts in Loading
// and leaves it on the first state change it receives.
type Store struct {
	mu       sync.Mutex
	snap     Snapshot
	subs     map[int]func(Snapshot)
	next     int
	settled  chan struct{}
	lastSeen time.Time

	// token is the session token the store was last resolved against.
	token     string
	expiresAt time.Time
}

// NewStore returns a store in the Loading state.
func NewStore() *Store {
	return &Store{
		snap:     Snapshot{State: StateLoading},
		subs:     make(map[int]func(Snapshot)),
		settled:  make(chan struct{}),
		lastSeen: time.Now(),
	}
}

// Current returns the current snapshot.
func (s *Store) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe registers fn for every later transition. Subscribers run
// synchronously on the goroutine that applies the transition.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Wait blocks until the store has left Loading or ctx is done.
func (s *Store) Wait(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	settled := s.settled
	s.mu.Unlock()

	select {
	case <-settled:
		return s.Current(), nil
	case <-ctx.Done():
		return s.Current(), ctx.Err()
	}
}

func (s *Store) signIn(userID, email, token string, expiresAt time.Time) {
	s.mu.Lock()
	s.token = token
	s.expiresAt = expiresAt
	s.mu.Unlock()
	s.apply(Snapshot{State: StateAuthenticated, UserID: userID, Email: email})
}

func (s *Store) signOut() {
	s.apply(Snapshot{State: StateAnonymous})
}

func (s *Store) apply(snap Snapshot) {
	s.mu.Lock()
	s.snap = snap
	select {
	case <-s.settled:
	default:
		close(s.settled)
	}
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// resolve marks the store as waiting on a restore of token. A settled store
// goes back to Loading so the gate waits for the new outcome.
func (s *Store) resolve(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expiresAt = time.Time{}
	if s.snap.State == StateLoading {
		return
	}
	s.snap = Snapshot{State: StateLoading}
	s.settled = make(chan struct{})
}

// stale reports whether a request carrying token can no longer use the
// state held by the store.
func (s *Store) stale(token string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.State != StateAuthenticated {
		return false
	}
	return token == "" || token != s.token || s.expiredLocked(now)
}

// expired reports whether the store holds a session whose token has expired.
func (s *Store) expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.State == StateAuthenticated && s.expiredLocked(now)
}

func (s *Store) expiredLocked(now time.Time) bool {
	return !s.expiresAt.IsZero() && !now.Before(s.expiresAt)
}

// sameToken reports whether token is the one the store was resolved against.
func (s *Store) sameToken(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token == token
}

func (s *Store) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Store) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}
