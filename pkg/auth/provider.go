package auth

import (
	"context"
	"sync"
	"time"
)

// User is an authenticated principal as reported by a Provider.
type User struct {
	ID    string
	Email string
}

// Session is the result of a successful sign-in or sign-up.
type Session struct {
	Token     string
	User      User
	ExpiresAt time.Time
}

// StateChange is emitted whenever the auth state of a browser session
// settles. A nil User means the session is signed out. Token is the session
// token the user was signed in with; a zero ExpiresAt means the provider
// did not report an expiry.
type StateChange struct {
	SessionID string
	User      *User
	Token     string
	ExpiresAt time.Time
}

// Listener receives auth state changes.
type Listener func(StateChange)

// Provider is the auth collaborator behind the session gate.
type Provider interface {
	SignUp(ctx context.Context, sessionID, email, password string) (*Session, error)
	SignIn(ctx context.Context, sessionID, email, password string) (*Session, error)
	SignOut(ctx context.Context, sessionID string) error
	// Restore resolves a persisted token for sessionID and reports the
	// outcome through the state-change stream only.
	Restore(ctx context.Context, sessionID, token string)
	Verify(ctx context.Context, token string) (*User, error)
	OnAuthStateChanged(fn Listener) (unsubscribe func())
}

// notifier fans state changes out to listeners. Listeners are called
// synchronously on the emitting goroutine.
type notifier struct {
	mu        sync.RWMutex
	listeners map[int]Listener
	next      int
}

func newNotifier() *notifier {
	return &notifier{listeners: make(map[int]Listener)}
}

func (n *notifier) subscribe(fn Listener) func() {
	n.mu.Lock()
	id := n.next
	n.next++
	n.listeners[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
		})
	}
}

func (n *notifier) emit(change StateChange) {
	n.mu.RLock()
	listeners := make([]Listener, 0, len(n.listeners))
	for _, fn := range n.listeners {
		listeners = append(listeners, fn)
	}
	n.mu.RUnlock()

	for _, fn := range listeners {
		fn(change)
	}
}

func signedIn(sessionID string, user User, token string, expiresAt time.Time) StateChange {
	return StateChange{SessionID: sessionID, User: &user, Token: token, ExpiresAt: expiresAt}
}

func signedOut(sessionID string) StateChange {
	return StateChange{SessionID: sessionID}
}
