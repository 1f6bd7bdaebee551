package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ideatracker/domain/core/entities"
	"ideatracker/pkg/common"
	pkgerrors "ideatracker/pkg/errors"
)

// IdeaService is what the API needs from the application layer.
type IdeaService interface {
	List(ctx context.Context, userID string, policy entities.SortPolicy) ([]*entities.Idea, error)
	Get(ctx context.Context, userID, ideaID string) (*entities.Idea, error)
	Create(ctx context.Context, userID string, buffer entities.Idea) (*entities.Idea, error)
	Update(ctx context.Context, userID, ideaID string, buffer entities.Idea) (*entities.Idea, error)
}

// IdeaHandler handles idea-related HTTP requests
type IdeaHandler struct {
	ideas  IdeaService
	errs   *pkgerrors.ErrorHandler
	logger *zap.Logger
}

// NewIdeaHandler creates a new idea handler
func NewIdeaHandler(ideas IdeaService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *IdeaHandler {
	return &IdeaHandler{
		ideas:  ideas,
		errs:   errs,
		logger: logger,
	}
}

// ListIdeas handles GET /ideas?sort=createdAt|importance
func (h *IdeaHandler) ListIdeas(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		h.errs.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return
	}

	policy := entities.ParseSortPolicy(r.URL.Query().Get("sort"))
	ideas, err := h.ideas.List(r.Context(), userID, policy)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	common.RespondList(w, r, ideas, len(ideas))
}

// GetIdea handles GET /ideas/{ideaID}
func (h *IdeaHandler) GetIdea(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		h.errs.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return
	}

	idea, err := h.ideas.Get(r.Context(), userID, chi.URLParam(r, "ideaID"))
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, r, http.StatusOK, idea)
}

// CreateIdea handles POST /ideas
func (h *IdeaHandler) CreateIdea(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		h.errs.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return
	}

	buffer, err := decodeBuffer(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	saved, err := h.ideas.Create(r.Context(), userID, buffer)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	h.logger.Info("Idea created", zap.String("user_id", userID), zap.String("idea_id", saved.ID))
	w.Header().Set("Location", "/api/v1/ideas/"+saved.ID)
	common.RespondJSON(w, r, http.StatusCreated, saved)
}

// UpdateIdea handles PUT /ideas/{ideaID}. The body replaces the whole record.
func (h *IdeaHandler) UpdateIdea(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		h.errs.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return
	}

	buffer, err := decodeBuffer(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	saved, err := h.ideas.Update(r.Context(), userID, chi.URLParam(r, "ideaID"), buffer)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, r, http.StatusOK, saved)
}

// decodeBuffer reads an idea body on top of the blank edit buffer so that
// omitted fields take the form defaults.
func decodeBuffer(r *http.Request) (entities.Idea, error) {
	buffer := *entities.NewIdea()
	if err := json.NewDecoder(r.Body).Decode(&buffer); err != nil {
		return entities.Idea{}, pkgerrors.NewValidationError("Invalid request body: " + err.Error())
	}
	if err := buffer.Validate(); err != nil {
		return entities.Idea{}, err
	}
	return buffer, nil
}
