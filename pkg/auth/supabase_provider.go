package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	appErrors "ideatracker/pkg/errors"
)

// hostedAuth is the part of the Supabase auth API the provider calls.
type hostedAuth interface {
	signUp(email, password string) (*Session, error)
	signIn(email, password string) (*Session, error)
	getUser(token string) (*User, error)
	logout(token string) error
}

// SupabaseProvider delegates accounts and tokens to Supabase auth.
type SupabaseProvider struct {
	api    hostedAuth
	logger *zap.Logger
	events *notifier

	mu     sync.Mutex
	tokens map[string]string // session id -> access token
}

// NewSupabaseProvider connects to the Supabase project at url.
func NewSupabaseProvider(url, key string, logger *zap.Logger) (*SupabaseProvider, error) {
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, err
	}
	return newSupabaseProvider(&gotrueAuth{client: client}, logger), nil
}

func newSupabaseProvider(api hostedAuth, logger *zap.Logger) *SupabaseProvider {
	return &SupabaseProvider{
		api:    api,
		logger: logger,
		events: newNotifier(),
		tokens: make(map[string]string),
	}
}

func (p *SupabaseProvider) remember(sessionID, token string) {
	if sessionID == "" {
		return
	}
	p.mu.Lock()
	p.tokens[sessionID] = token
	p.mu.Unlock()
}

func (p *SupabaseProvider) forget(sessionID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	token := p.tokens[sessionID]
	delete(p.tokens, sessionID)
	return token
}

// SignUp creates a Supabase user. Projects that require email confirmation
// return no session; that is reported as a validation failure.
func (p *SupabaseProvider) SignUp(ctx context.Context, sessionID, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, appErrors.NewValidationError("email and password are required")
	}
	session, err := p.api.signUp(email, password)
	if err != nil {
		return nil, appErrors.AsNetwork("sign up failed", err)
	}
	if session.Token == "" {
		return nil, appErrors.NewValidationError("check your email to confirm the account, then log in")
	}
	p.remember(sessionID, session.Token)
	if sessionID != "" {
		p.events.emit(signedIn(sessionID, session.User, session.Token, session.ExpiresAt))
	}
	return session, nil
}

// SignIn exchanges email and password for a Supabase access token.
func (p *SupabaseProvider) SignIn(ctx context.Context, sessionID, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, appErrors.NewValidationError("email and password are required")
	}
	session, err := p.api.signIn(email, password)
	if err != nil {
		return nil, appErrors.NewUnauthorizedError("invalid email or password").WithCause(err)
	}
	p.remember(sessionID, session.Token)
	if sessionID != "" {
		p.events.emit(signedIn(sessionID, session.User, session.Token, session.ExpiresAt))
	}
	return session, nil
}

// SignOut logs the session's token out of Supabase. The session is reported
// signed out even when the remote logout fails.
func (p *SupabaseProvider) SignOut(ctx context.Context, sessionID string) error {
	token := p.forget(sessionID)
	p.events.emit(signedOut(sessionID))
	if token == "" {
		return nil
	}
	if err := p.api.logout(token); err != nil {
		return appErrors.AsNetwork("sign out failed", err)
	}
	return nil
}

// Restore asks Supabase who owns token and reports the result.
func (p *SupabaseProvider) Restore(ctx context.Context, sessionID, token string) {
	if token == "" {
		p.events.emit(signedOut(sessionID))
		return
	}
	user, err := p.api.getUser(token)
	if err != nil {
		p.logger.Debug("Supabase session not restored", zap.String("session_id", sessionID), zap.Error(err))
		p.events.emit(signedOut(sessionID))
		return
	}
	p.remember(sessionID, token)
	p.events.emit(signedIn(sessionID, *user, token, time.Time{}))
}

// Verify resolves a bearer token through Supabase.
func (p *SupabaseProvider) Verify(ctx context.Context, token string) (*User, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, appErrors.NewUnauthorizedError(ErrMissingToken.Error())
	}
	user, err := p.api.getUser(token)
	if err != nil {
		return nil, appErrors.NewUnauthorizedError(ErrInvalidToken.Error()).WithCause(err)
	}
	return user, nil
}

// OnAuthStateChanged subscribes fn to session state changes.
func (p *SupabaseProvider) OnAuthStateChanged(fn Listener) func() {
	return p.events.subscribe(fn)
}

// gotrueAuth adapts the gotrue client of supabase-go.
type gotrueAuth struct {
	client *supabase.Client
}

func (g *gotrueAuth) signUp(email, password string) (*Session, error) {
	resp, err := g.client.Auth.Signup(types.SignupRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:     resp.AccessToken,
		User:      User{ID: resp.ID.String(), Email: resp.Email},
		ExpiresAt: time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}, nil
}

func (g *gotrueAuth) signIn(email, password string) (*Session, error) {
	resp, err := g.client.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, errors.New("no access token in response")
	}
	return &Session{
		Token:     resp.AccessToken,
		User:      User{ID: resp.User.ID.String(), Email: resp.User.Email},
		ExpiresAt: time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}, nil
}

func (g *gotrueAuth) getUser(token string) (*User, error) {
	resp, err := g.client.Auth.WithToken(token).GetUser()
	if err != nil {
		return nil, err
	}
	return &User{ID: resp.ID.String(), Email: resp.Email}, nil
}

func (g *gotrueAuth) logout(token string) error {
	return g.client.Auth.WithToken(token).Logout()
}
