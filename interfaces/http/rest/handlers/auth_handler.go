package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"ideatracker/pkg/auth"
	"ideatracker/pkg/common"
	pkgerrors "ideatracker/pkg/errors"
	"ideatracker/pkg/utils"
)

// SignInService issues sessions for email and password.
type SignInService interface {
	SignIn(ctx context.Context, sessionID, email, password string) (*auth.Session, error)
}

// AuthHandler issues bearer tokens for API clients
type AuthHandler struct {
	provider SignInService
	errs     *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(provider SignInService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{provider: provider, errs: errs, logger: logger}
}

// TokenRequest is the body of POST /auth/token
type TokenRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned on a successful sign-in
type TokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
}

// IssueToken handles POST /auth/token
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errs.Handle(w, r, pkgerrors.NewValidationError("Invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errs.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	session, err := h.provider.SignIn(r.Context(), "", req.Email, req.Password)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	h.logger.Info("API token issued", zap.String("user_id", session.User.ID))
	common.RespondJSON(w, r, http.StatusOK, TokenResponse{
		Token:     session.Token,
		TokenType: "Bearer",
		ExpiresAt: session.ExpiresAt,
		UserID:    session.User.ID,
		Email:     session.User.Email,
	})
}
