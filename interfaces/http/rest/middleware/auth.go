package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"ideatracker/pkg/auth"
	"ideatracker/pkg/common"
	pkgerrors "ideatracker/pkg/errors"
)

// TokenVerifier resolves a bearer token to its user.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.User, error)
}

// Authenticate validates bearer tokens on the JSON API and applies the per
// IP and per user rate limits.
func Authenticate(
	verifier TokenVerifier,
	ipLimiter *auth.KeyedLimiter,
	userLimiter *auth.KeyedLimiter,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)

			allowed, err := ipLimiter.Allow(r.Context(), clientIP)
			if err != nil {
				logger.Error("Rate limiter error", zap.Error(err))
			}
			if !allowed {
				errs.Handle(w, r, pkgerrors.NewRateLimitError(ipLimiter.Limit(), ipLimiter.Window()))
				return
			}

			token := extractToken(r)
			if token == "" {
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError("Missing authentication token"))
				return
			}

			user, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logger.Warn("Invalid token",
					zap.Error(err),
					zap.String("ip", clientIP),
					zap.String("path", r.URL.Path),
				)
				if !pkgerrors.IsAppError(err) {
					err = pkgerrors.NewUnauthorizedError("Invalid token")
				}
				errs.Handle(w, r, err)
				return
			}

			allowed, err = userLimiter.Allow(r.Context(), user.ID)
			if err != nil {
				logger.Error("User rate limiter error", zap.Error(err))
			}
			if !allowed {
				errs.Handle(w, r, pkgerrors.NewRateLimitError(userLimiter.Limit(), userLimiter.Window()))
				return
			}

			logger.Debug("Request authenticated",
				zap.String("user_id", user.ID),
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method),
			)

			ctx := common.WithUser(r.Context(), user.ID, user.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken reads the bearer token of the Authorization header
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(authHeader)
}

// getClientIP extracts the client IP address. chi's RealIP middleware has
// already folded X-Forwarded-For and X-Real-IP into RemoteAddr.
func getClientIP(r *http.Request) string {
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 && !strings.HasSuffix(addr, "]") {
		return addr[:idx]
	}
	return addr
}
