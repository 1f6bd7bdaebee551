package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"ideatracker/pkg/auth"
)

// AuthSource is the part of the auth provider the manager depends on.
type AuthSource interface {
	Restore(ctx context.Context, sessionID, token string)
	OnAuthStateChanged(fn auth.Listener) (unsubscribe func())
}

// Manager owns one Store per browser session and feeds them from the auth
// provider's state-change stream.
type Manager struct {
	provider       AuthSource
	logger         *zap.Logger
	restoreTimeout time.Duration
	now            func() time.Time

	mu          sync.Mutex
	stores      map[string]*Store
	unsubscribe func()
}

// NewManager creates a session manager. restoreTimeout bounds the provider
// call made to restore a persisted token.
func NewManager(provider AuthSource, restoreTimeout time.Duration, logger *zap.Logger) *Manager {
	if restoreTimeout <= 0 {
		restoreTimeout = 10 * time.Second
	}
	return &Manager{
		provider:       provider,
		logger:         logger,
		restoreTimeout: restoreTimeout,
		now:            time.Now,
		stores:         make(map[string]*Store),
	}
}

// Start subscribes to the provider. Calling Start twice is a no-op.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsubscribe != nil {
		return
	}
	m.unsubscribe = m.provider.OnAuthStateChanged(m.handle)
}

// Stop unsubscribes from the provider.
func (m *Manager) Stop() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Open returns the store of a browser session. A new store starts in
// Loading while the provider restores token in the background; without a
// token it is Anonymous right away. An existing store is resolved again when
// the request carries a different token, and signed out when the token is
// missing or past its expiry.
func (m *Manager) Open(sessionID, token string) *Store {
	m.mu.Lock()
	store, ok := m.stores[sessionID]
	if !ok {
		store = NewStore()
		m.stores[sessionID] = store
	}
	m.mu.Unlock()

	now := m.now()
	store.touch(now)
	switch {
	case !ok && token == "":
		store.signOut()
	case !ok, token != "" && !store.sameToken(token):
		store.resolve(token)
		go m.restore(sessionID, token)
	case store.stale(token, now):
		m.logger.Debug("Session token missing or expired", zap.String("session_id", sessionID))
		store.signOut()
	}
	return store
}

// Lookup returns the store of sessionID without creating one.
func (m *Manager) Lookup(sessionID string) (*Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	store, ok := m.stores[sessionID]
	return store, ok
}

func (m *Manager) restore(sessionID, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), m.restoreTimeout)
	defer cancel()
	m.provider.Restore(ctx, sessionID, token)
}

func (m *Manager) handle(change auth.StateChange) {
	if change.SessionID == "" {
		return
	}

	m.mu.Lock()
	store, ok := m.stores[change.SessionID]
	if !ok {
		store = NewStore()
		m.stores[change.SessionID] = store
	}
	m.mu.Unlock()

	if change.User != nil {
		store.signIn(change.User.ID, change.User.Email, change.Token, change.ExpiresAt)
		m.logger.Debug("Session authenticated",
			zap.String("session_id", change.SessionID),
			zap.String("user_id", change.User.ID))
		return
	}
	store.signOut()
	m.logger.Debug("Session anonymous", zap.String("session_id", change.SessionID))
}

// Sweep drops stores that have not been opened for idle, or whose session
// token has expired, and returns how many were removed.
func (m *Manager) Sweep(idle time.Duration) int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, store := range m.stores {
		if store.idleSince(now) > idle || store.expired(now) {
			delete(m.stores, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}
