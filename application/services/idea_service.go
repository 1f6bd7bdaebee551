package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ideatracker/application/commands"
	"ideatracker/application/commands/bus"
	"ideatracker/application/queries"
	querybus "ideatracker/application/queries/bus"
	"ideatracker/domain/core/entities"
)

// IdeaService is the entry point the web views, the JSON API and the CLI
// share. Reads go through the query bus and its cache, writes through the
// command bus.
type IdeaService struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	logger     *zap.Logger
}

// NewIdeaService creates a new idea service
func NewIdeaService(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, logger *zap.Logger) *IdeaService {
	return &IdeaService{
		commandBus: commandBus,
		queryBus:   queryBus,
		logger:     logger,
	}
}

// List returns every idea of the user ordered by policy. The slice is a
// fresh copy; the records themselves are shared with the cache.
func (s *IdeaService) List(ctx context.Context, userID string, policy entities.SortPolicy) ([]*entities.Idea, error) {
	result, err := s.queryBus.Ask(ctx, queries.ListIdeasQuery{UserID: userID})
	if err != nil {
		return nil, err
	}
	ideas, ok := result.([]*entities.Idea)
	if !ok {
		return nil, fmt.Errorf("unexpected list result %T", result)
	}
	return entities.SortIdeas(ideas, policy), nil
}

// Get returns one idea of the user as an editable copy.
func (s *IdeaService) Get(ctx context.Context, userID, ideaID string) (*entities.Idea, error) {
	result, err := s.queryBus.Ask(ctx, queries.GetIdeaQuery{UserID: userID, IdeaID: ideaID})
	if err != nil {
		return nil, err
	}
	idea, ok := result.(*entities.Idea)
	if !ok {
		return nil, fmt.Errorf("unexpected get result %T", result)
	}
	return idea.Clone(), nil
}

// Create stores a new idea built from the edit buffer.
func (s *IdeaService) Create(ctx context.Context, userID string, buffer entities.Idea) (*entities.Idea, error) {
	return s.save(ctx, commands.SaveIdeaCommand{UserID: userID, Idea: buffer})
}

// Update overwrites the idea ideaID with the edit buffer.
func (s *IdeaService) Update(ctx context.Context, userID, ideaID string, buffer entities.Idea) (*entities.Idea, error) {
	return s.save(ctx, commands.SaveIdeaCommand{UserID: userID, IdeaID: ideaID, Idea: buffer})
}

func (s *IdeaService) save(ctx context.Context, cmd commands.SaveIdeaCommand) (*entities.Idea, error) {
	result, err := s.commandBus.SendWithResult(ctx, cmd)
	if err != nil {
		return nil, err
	}
	saved, ok := result.(*entities.Idea)
	if !ok {
		return nil, fmt.Errorf("unexpected save result %T", result)
	}
	return saved, nil
}
