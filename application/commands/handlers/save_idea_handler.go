package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ideatracker/application/commands"
	"ideatracker/application/commands/bus"
	"ideatracker/application/ports"
	"ideatracker/application/queries"
	"ideatracker/domain/core/valueobjects"
	"ideatracker/domain/events"
	"ideatracker/pkg/utils"
)

// SaveIdeaHandler handles SaveIdeaCommand. The result is the stored
// *entities.Idea.
type SaveIdeaHandler struct {
	repo      ports.IdeaRepository
	cache     ports.Cache
	publisher ports.EventPublisher
	ids       *valueobjects.IDGenerator
	now       func() time.Time
	logger    *zap.Logger
}

// NewSaveIdeaHandler creates a new save idea handler
func NewSaveIdeaHandler(
	repo ports.IdeaRepository,
	cache ports.Cache,
	publisher ports.EventPublisher,
	ids *valueobjects.IDGenerator,
	now func() time.Time,
	logger *zap.Logger,
) *SaveIdeaHandler {
	if now == nil {
		now = time.Now
	}
	return &SaveIdeaHandler{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		ids:       ids,
		now:       now,
		logger:    logger,
	}
}

// Handle implements bus.CommandHandler
func (h *SaveIdeaHandler) Handle(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.SaveIdeaCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", c)
	}

	record := cmd.Idea.Clone()
	now := h.now()

	if cmd.IsNew() {
		record.ID = h.ids.Next()
		record.CreatedAt = utils.FormatISO(now)
	} else {
		// createdAt always comes from the stored record
		existing, err := h.repo.FetchOne(ctx, cmd.UserID, cmd.IdeaID)
		if err != nil {
			return nil, err
		}
		record.ID = cmd.IdeaID
		record.CreatedAt = existing.CreatedAt
		if record.CreatedAt == "" {
			record.CreatedAt = utils.FormatISO(now)
		}
	}

	saved, err := h.repo.Save(ctx, cmd.UserID, record)
	if err != nil {
		return nil, err
	}

	h.invalidate(ctx, cmd.UserID, saved.ID)

	event := events.NewIdeaSaved(cmd.UserID, saved.ID, saved.Title, cmd.IsNew(), now)
	if err := h.publisher.Publish(ctx, event); err != nil {
		// the idea is already stored
		h.logger.Warn("Failed to publish idea event",
			zap.String("idea_id", saved.ID),
			zap.String("event_type", event.GetEventType()),
			zap.Error(err),
		)
	}

	return saved, nil
}

func (h *SaveIdeaHandler) invalidate(ctx context.Context, userID, ideaID string) {
	for _, key := range []string{queries.ListCacheKey(userID), queries.IdeaCacheKey(userID, ideaID)} {
		if err := h.cache.Delete(ctx, key); err != nil {
			h.logger.Warn("Failed to invalidate cache", zap.String("key", key), zap.Error(err))
		}
	}
}
