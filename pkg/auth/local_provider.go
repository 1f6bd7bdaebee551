package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	appErrors "ideatracker/pkg/errors"
	"ideatracker/pkg/utils"
)

// AccountStore is the key-path store accounts are kept in.
type AccountStore interface {
	Get(ctx context.Context, path string) ([]byte, bool, error)
	Set(ctx context.Context, path string, value []byte) error
}

type account struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	CreatedAt    string `json:"createdAt"`
}

type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// LocalProvider keeps accounts in the application's own store and issues
// HS256 session tokens.
type LocalProvider struct {
	store   AccountStore
	tokens  *JWTService
	limiter RateLimiter
	logger  *zap.Logger
	events  *notifier
	now     func() time.Time

	mu      sync.Mutex
	active  map[string]string    // session id -> jti
	revoked map[string]time.Time // jti -> token expiry
}

// NewLocalProvider creates a provider over store. limiter throttles sign-in
// attempts per email and may be nil.
func NewLocalProvider(store AccountStore, tokens *JWTService, limiter RateLimiter, logger *zap.Logger) *LocalProvider {
	return &LocalProvider{
		store:   store,
		tokens:  tokens,
		limiter: limiter,
		logger:  logger,
		events:  newNotifier(),
		now:     time.Now,
		active:  make(map[string]string),
		revoked: make(map[string]time.Time),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func accountPath(email string) string {
	sum := sha256.Sum256([]byte(normalizeEmail(email)))
	return "accounts/" + hex.EncodeToString(sum[:])
}

func (p *LocalProvider) lookup(ctx context.Context, email string) (*account, error) {
	raw, ok, err := p.store.Get(ctx, accountPath(email))
	if err != nil {
		return nil, appErrors.AsNetwork("account lookup failed", err)
	}
	if !ok {
		return nil, nil
	}
	var acc account
	if err := json.Unmarshal(raw, &acc); err != nil {
		return nil, appErrors.NewInternalError("account record is unreadable").WithCause(err)
	}
	return &acc, nil
}

// Register creates an account without signing anybody in.
func (p *LocalProvider) Register(ctx context.Context, email, password string) (*User, error) {
	creds := credentials{Email: normalizeEmail(email), Password: password}
	if err := utils.ValidateStruct(creds); err != nil {
		return nil, appErrors.NewValidationError(err.Error())
	}

	existing, err := p.lookup(ctx, creds.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, appErrors.NewConflictError("email already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to hash password").WithCause(err)
	}

	acc := account{
		ID:           uuid.NewString(),
		Email:        creds.Email,
		PasswordHash: string(hash),
		CreatedAt:    utils.FormatISO(p.now()),
	}
	raw, err := json.Marshal(acc)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to encode account").WithCause(err)
	}
	if err := p.store.Set(ctx, accountPath(acc.Email), raw); err != nil {
		return nil, appErrors.AsNetwork("account save failed", err)
	}

	p.logger.Info("Account registered", zap.String("user_id", acc.ID))
	return &User{ID: acc.ID, Email: acc.Email}, nil
}

// SignUp registers an account and signs the browser session in.
func (p *LocalProvider) SignUp(ctx context.Context, sessionID, email, password string) (*Session, error) {
	user, err := p.Register(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return p.issue(sessionID, *user)
}

// SignIn checks the password and signs the browser session in.
func (p *LocalProvider) SignIn(ctx context.Context, sessionID, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, appErrors.NewValidationError("email and password are required")
	}

	if p.limiter != nil {
		allowed, err := p.limiter.Allow(ctx, email)
		if err != nil {
			p.logger.Warn("Login rate limiter error", zap.Error(err))
		}
		if !allowed {
			return nil, appErrors.NewRateLimitError(p.loginLimit(), "minute")
		}
	}

	acc, err := p.lookup(ctx, email)
	if err != nil {
		return nil, err
	}
	if acc == nil || bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return nil, appErrors.NewUnauthorizedError("invalid email or password")
	}

	if p.limiter != nil {
		if err := p.limiter.Reset(ctx, email); err != nil {
			p.logger.Warn("Failed to reset login rate limit", zap.Error(err))
		}
	}
	return p.issue(sessionID, User{ID: acc.ID, Email: acc.Email})
}

func (p *LocalProvider) loginLimit() int {
	if kl, ok := p.limiter.(*KeyedLimiter); ok {
		return kl.Limit()
	}
	return 0
}

func (p *LocalProvider) issue(sessionID string, user User) (*Session, error) {
	token, claims, err := p.tokens.GenerateToken(user.ID, user.Email, sessionID)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to issue session token").WithCause(err)
	}

	if sessionID != "" {
		p.mu.Lock()
		p.active[sessionID] = claims.ID
		p.mu.Unlock()
		p.events.emit(signedIn(sessionID, user, token, claims.ExpiresAt.Time))
	}
	return &Session{Token: token, User: user, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// SignOut revokes the token of the session and reports it signed out.
func (p *LocalProvider) SignOut(ctx context.Context, sessionID string) error {
	p.mu.Lock()
	if jti, ok := p.active[sessionID]; ok {
		p.revoked[jti] = p.now().Add(p.tokens.TTL())
		delete(p.active, sessionID)
	}
	p.pruneRevokedLocked()
	p.mu.Unlock()

	p.events.emit(signedOut(sessionID))
	return nil
}

func (p *LocalProvider) pruneRevokedLocked() {
	now := p.now()
	for jti, until := range p.revoked {
		if now.After(until) {
			delete(p.revoked, jti)
		}
	}
}

func (p *LocalProvider) isRevoked(jti string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.revoked[jti]
	return ok
}

// Restore reports the session signed in when token is a live token issued
// to the same session, and signed out otherwise.
func (p *LocalProvider) Restore(ctx context.Context, sessionID, token string) {
	if token == "" {
		p.events.emit(signedOut(sessionID))
		return
	}

	claims, err := p.tokens.ValidateToken(token)
	if err != nil || claims.SessionID != sessionID || p.isRevoked(claims.ID) {
		if err != nil {
			p.logger.Debug("Session token rejected", zap.String("session_id", sessionID), zap.Error(err))
		}
		p.events.emit(signedOut(sessionID))
		return
	}

	p.mu.Lock()
	p.active[sessionID] = claims.ID
	p.mu.Unlock()
	p.events.emit(signedIn(sessionID, User{ID: claims.UserID, Email: claims.Email}, token, claims.ExpiresAt.Time))
}

// Verify validates a bearer token for the JSON API.
func (p *LocalProvider) Verify(ctx context.Context, token string) (*User, error) {
	claims, err := p.tokens.ValidateToken(token)
	if err != nil {
		return nil, appErrors.NewUnauthorizedError(err.Error())
	}
	if p.isRevoked(claims.ID) {
		return nil, appErrors.NewUnauthorizedError("token has been revoked")
	}
	return &User{ID: claims.UserID, Email: claims.Email}, nil
}

// OnAuthStateChanged subscribes fn to session state changes.
func (p *LocalProvider) OnAuthStateChanged(fn Listener) func() {
	return p.events.subscribe(fn)
}
