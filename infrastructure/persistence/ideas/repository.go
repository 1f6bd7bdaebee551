package ideas

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"ideatracker/application/ports"
	"ideatracker/domain/core/entities"
	"ideatracker/infrastructure/persistence/keypath"
	pkgerrors "ideatracker/pkg/errors"
)

// Repository implements ports.IdeaRepository over a key-path store using
// users/{userId}/ideas/{ideaId}.
type Repository struct {
	store  ports.PathStore
	logger *zap.Logger
}

// NewRepository creates a new idea repository
func NewRepository(store ports.PathStore, logger *zap.Logger) *Repository {
	return &Repository{
		store:  store,
		logger: logger,
	}
}

// FetchOne implements ports.IdeaRepository
func (r *Repository) FetchOne(ctx context.Context, userID, ideaID string) (*entities.Idea, error) {
	path, err := keypath.Idea(userID, ideaID)
	if err != nil {
		// no record can live at an unaddressable path
		return nil, pkgerrors.NewNotFoundError("Idea")
	}

	data, found, err := r.store.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, pkgerrors.NewNotFoundError("Idea")
	}

	idea, err := decodeIdea(ideaID, data)
	if err != nil {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("stored idea %s is unreadable", ideaID)).WithCause(err)
	}
	return idea, nil
}

// FetchAll implements ports.IdeaRepository
func (r *Repository) FetchAll(ctx context.Context, userID string) ([]*entities.Idea, error) {
	path, err := keypath.Ideas(userID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	data, found, err := r.store.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if !found {
		return []*entities.Idea{}, nil
	}

	children, err := keypath.DecodeChildren(data)
	if err != nil {
		return nil, pkgerrors.NewInternalError("stored idea collection is unreadable").WithCause(err)
	}

	ideas := make([]*entities.Idea, 0, len(children))
	for _, child := range children {
		idea, err := decodeIdea(child.Key, child.Value)
		if err != nil {
			r.logger.Warn("Skipping unreadable idea",
				zap.String("user_id", userID),
				zap.String("idea_id", child.Key),
				zap.Error(err),
			)
			continue
		}
		ideas = append(ideas, idea)
	}
	return ideas, nil
}

// Save implements ports.IdeaRepository. The record is written as is; input
// validation happened before the call.
func (r *Repository) Save(ctx context.Context, userID string, idea *entities.Idea) (*entities.Idea, error) {
	if idea == nil || idea.ID == "" {
		return nil, pkgerrors.NewValidationError("idea ID is required")
	}
	path, err := keypath.Idea(userID, idea.ID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	data, err := json.Marshal(idea)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to encode idea").WithCause(err)
	}

	if err := r.store.Set(ctx, path, data); err != nil {
		return nil, err
	}

	r.logger.Debug("Saved idea",
		zap.String("user_id", userID),
		zap.String("idea_id", idea.ID),
	)
	return idea.Clone(), nil
}

// decodeIdea reads one stored record. The id always comes from the key.
func decodeIdea(key string, data []byte) (*entities.Idea, error) {
	var idea entities.Idea
	if err := json.Unmarshal(data, &idea); err != nil {
		return nil, err
	}
	idea.ID = key
	idea.Normalize()
	return &idea, nil
}
