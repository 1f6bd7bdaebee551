package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ideatracker/application/ports"
	"ideatracker/application/queries"
	"ideatracker/application/queries/bus"
)

// GetIdeaHandler handles GetIdeaQuery. The result is a *entities.Idea.
type GetIdeaHandler struct {
	repo   ports.IdeaRepository
	logger *zap.Logger
}

// NewGetIdeaHandler creates a new get idea handler
func NewGetIdeaHandler(repo ports.IdeaRepository, logger *zap.Logger) *GetIdeaHandler {
	return &GetIdeaHandler{
		repo:   repo,
		logger: logger,
	}
}

// Handle implements bus.QueryHandler
func (h *GetIdeaHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetIdeaQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", q)
	}

	idea, err := h.repo.FetchOne(ctx, query.UserID, query.IdeaID)
	if err != nil {
		return nil, err
	}
	return idea, nil
}

// ListIdeasHandler handles ListIdeasQuery. The result is a []*entities.Idea in
// store order; callers must treat it as read-only since it may be cached.
type ListIdeasHandler struct {
	repo   ports.IdeaRepository
	logger *zap.Logger
}

// NewListIdeasHandler creates a new list ideas handler
func NewListIdeasHandler(repo ports.IdeaRepository, logger *zap.Logger) *ListIdeasHandler {
	return &ListIdeasHandler{
		repo:   repo,
		logger: logger,
	}
}

// Handle implements bus.QueryHandler
func (h *ListIdeasHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.ListIdeasQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", q)
	}

	ideas, err := h.repo.FetchAll(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("Listed ideas",
		zap.String("user_id", query.UserID),
		zap.Int("count", len(ideas)),
	)
	return ideas, nil
}
