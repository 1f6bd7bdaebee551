package web

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ideatracker/application/session"
	"ideatracker/pkg/common"
)

const (
	sessionCookie = "ideas_sid"
	tokenCookie   = "ideas_token"

	sessionCookieMaxAge = 365 * 24 * time.Hour
)

type storeKey struct{}

// withSession makes sure the browser carries a session id, opens its store
// and puts the store into the request context.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if c, err := r.Cookie(sessionCookie); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				sid = c.Value
			}
		}
		if sid == "" {
			sid = uuid.NewString()
			http.SetCookie(w, h.cookie(sessionCookie, sid, time.Now().Add(sessionCookieMaxAge)))
		}

		token := ""
		if c, err := r.Cookie(tokenCookie); err == nil {
			token = c.Value
		}

		store := h.sessions.Open(sid, token)
		ctx := common.WithSessionID(r.Context(), sid)
		ctx = context.WithValue(ctx, storeKey{}, store)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// settle waits for the session store to leave Loading, up to the configured
// settle timeout.
func (h *Handler) settle(r *http.Request) session.Snapshot {
	store, ok := r.Context().Value(storeKey{}).(*session.Store)
	if !ok {
		return session.Snapshot{State: session.StateAnonymous}
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.settleTimeout)
	defer cancel()
	snap, _ := store.Wait(ctx)
	return snap
}

// requireAuth gates the idea pages. Nothing behind it runs until the session
// is known to be authenticated.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := h.settle(r)
		switch snap.State {
		case session.StateAuthenticated:
			ctx := common.WithUser(r.Context(), snap.UserID, snap.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		case session.StateAnonymous:
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		default:
			h.logger.Debug("Session still loading", zap.String("path", r.URL.Path))
			h.render(w, r, http.StatusOK, pageLoading, &pageData{Title: "Loading"})
		}
	})
}

// anonymousOnly sends signed in users from the login and signup pages home.
func (h *Handler) anonymousOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.settle(r).Authenticated() {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handler) clearCookie(w http.ResponseWriter, name string) {
	c := h.cookie(name, "", time.Unix(0, 0))
	c.MaxAge = -1
	http.SetCookie(w, c)
}
