package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ideatracker/application/session"
	"ideatracker/domain/core/entities"
	"ideatracker/domain/core/valueobjects"
	"ideatracker/pkg/auth"
	"ideatracker/pkg/common"
	pkgerrors "ideatracker/pkg/errors"
)

// IdeaService is what the pages need from the application layer.
type IdeaService interface {
	List(ctx context.Context, userID string, policy entities.SortPolicy) ([]*entities.Idea, error)
	Get(ctx context.Context, userID, ideaID string) (*entities.Idea, error)
	Create(ctx context.Context, userID string, buffer entities.Idea) (*entities.Idea, error)
	Update(ctx context.Context, userID, ideaID string, buffer entities.Idea) (*entities.Idea, error)
}

// Authenticator signs a browser session in and out.
type Authenticator interface {
	SignUp(ctx context.Context, sessionID, email, password string) (*auth.Session, error)
	SignIn(ctx context.Context, sessionID, email, password string) (*auth.Session, error)
	SignOut(ctx context.Context, sessionID string) error
}

// Options tunes the browser session handling.
type Options struct {
	SettleTimeout time.Duration
	SecureCookies bool
}

// Handler serves the server rendered pages.
type Handler struct {
	ideas         IdeaService
	authn         Authenticator
	sessions      *session.Manager
	renderer      *Renderer
	settleTimeout time.Duration
	secureCookies bool
	logger        *zap.Logger
}

// NewHandler creates the page handler.
func NewHandler(
	ideas IdeaService,
	authn Authenticator,
	sessions *session.Manager,
	renderer *Renderer,
	opts Options,
	logger *zap.Logger,
) *Handler {
	if opts.SettleTimeout <= 0 {
		opts.SettleTimeout = 2 * time.Second
	}
	return &Handler{
		ideas:         ideas,
		authn:         authn,
		sessions:      sessions,
		renderer:      renderer,
		settleTimeout: opts.SettleTimeout,
		secureCookies: opts.SecureCookies,
		logger:        logger,
	}
}

// Routes mounts the pages on r.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.withSession)

		r.Group(func(r chi.Router) {
			r.Use(h.anonymousOnly)
			r.Get("/login", h.loginPage)
			r.Post("/login", h.login)
			r.Get("/signup", h.signupPage)
			r.Post("/signup", h.signup)
		})

		r.Post("/logout", h.logout)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Get("/", h.list)
			r.Get("/new", h.newIdea)
			r.Post("/new", h.createIdea)
			r.Get("/idea/{id}", h.editIdea)
			r.Post("/idea/{id}", h.updateIdea)
		})
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	policy := entities.ParseSortPolicy(r.URL.Query().Get("sort"))
	data := h.page(r, "My Ideas")
	data.Sorts = sortOptions(policy)

	userID, _ := common.GetUserID(r.Context())
	ideas, err := h.ideas.List(r.Context(), userID, policy)
	if err != nil {
		h.logger.Warn("Failed to list ideas", zap.String("user_id", userID), zap.Error(err))
		data.Error = pkgerrors.UserMessage(err)
		h.render(w, r, statusOf(err), pageList, data)
		return
	}

	data.Ideas = newCards(ideas)
	h.render(w, r, http.StatusOK, pageList, data)
}

func (h *Handler) newIdea(w http.ResponseWriter, r *http.Request) {
	data := h.page(r, "New Idea")
	data.Form = newFormView("/new", *entities.NewIdea())
	h.render(w, r, http.StatusOK, pageForm, data)
}

func (h *Handler) createIdea(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.GetUserID(r.Context())
	buffer, err := readForm(r)
	if err == nil {
		_, err = h.ideas.Create(r.Context(), userID, buffer)
	}
	if err != nil {
		data := h.page(r, "New Idea")
		data.Error = pkgerrors.UserMessage(err)
		data.Form = newFormView("/new", buffer)
		h.render(w, r, statusOf(err), pageForm, data)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) editIdea(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	idea, err := h.ideas.Get(r.Context(), userID, id)
	if err != nil {
		data := h.page(r, "Edit Idea")
		data.Error = pkgerrors.UserMessage(err)
		h.render(w, r, statusOf(err), pageError, data)
		return
	}

	data := h.page(r, "Edit Idea")
	data.Form = newFormView("/idea/"+id, *idea)
	h.render(w, r, http.StatusOK, pageForm, data)
}

func (h *Handler) updateIdea(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	buffer, err := readForm(r)
	if err == nil {
		_, err = h.ideas.Update(r.Context(), userID, id, buffer)
	}
	if err != nil {
		buffer.ID = id
		data := h.page(r, "Edit Idea")
		data.Error = pkgerrors.UserMessage(err)
		data.Form = newFormView("/idea/"+id, buffer)
		h.render(w, r, statusOf(err), pageForm, data)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageLogin, &pageData{Title: "Login"})
}

func (h *Handler) signupPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageSignup, &pageData{Title: "Sign Up"})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, pageLogin, "Login", h.authn.SignIn)
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, pageSignup, "Sign Up", h.authn.SignUp)
}

type signInFunc func(ctx context.Context, sessionID, email, password string) (*auth.Session, error)

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request, page, title string, fn signInFunc) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, page, &pageData{Title: title, Error: "invalid form"})
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")
	sid, _ := common.GetSessionID(r.Context())

	sess, err := fn(r.Context(), sid, email, password)
	if err != nil {
		h.logger.Info("Authentication failed", zap.String("page", page), zap.Error(err))
		h.render(w, r, statusOf(err), page, &pageData{Title: title, Error: pkgerrors.UserMessage(err), Email: email})
		return
	}

	http.SetCookie(w, h.cookie(tokenCookie, sess.Token, sess.ExpiresAt))
	h.logger.Info("Session signed in", zap.String("user_id", sess.User.ID))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// logout always ends the browser session locally, even when the provider
// call fails.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sid, _ := common.GetSessionID(r.Context())
	if err := h.authn.SignOut(r.Context(), sid); err != nil {
		h.logger.Warn("Sign out failed", zap.String("session_id", sid), zap.Error(err))
	}
	h.clearCookie(w, tokenCookie)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) page(r *http.Request, title string) *pageData {
	_, ok := common.GetUserID(r.Context())
	return &pageData{
		Title: title,
		Nav:   navData{Authenticated: ok, Email: common.GetEmail(r.Context())},
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data *pageData) {
	if err := h.renderer.Render(w, status, page, data); err != nil {
		h.logger.Error("Failed to render page", zap.String("page", page), zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// readForm builds an edit buffer from the posted form. The buffer is
// returned even when it fails validation so the form can be shown again.
func readForm(r *http.Request) (entities.Idea, error) {
	buffer := *entities.NewIdea()
	if err := r.ParseForm(); err != nil {
		return buffer, pkgerrors.NewValidationError("invalid form")
	}
	buffer.Title = strings.TrimSpace(r.PostForm.Get("title"))
	buffer.Description = strings.TrimSpace(r.PostForm.Get("description"))
	buffer.Importance = valueobjects.ParseImportance(r.PostForm.Get("importance"))
	buffer.Status = valueobjects.Status(r.PostForm.Get("status"))
	buffer.Notes = r.PostForm.Get("notes")
	if color := strings.TrimSpace(r.PostForm.Get("color")); color != "" {
		buffer.Color = color
	}
	return buffer, buffer.Validate()
}

func statusOf(err error) int {
	if appErr := pkgerrors.GetAppError(err); appErr != nil && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
