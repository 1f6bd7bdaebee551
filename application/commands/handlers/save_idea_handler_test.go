package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ideatracker/application/commands"
	"ideatracker/application/commands/bus"
	"ideatracker/application/ports/mocks"
	"ideatracker/domain/core/entities"
	"ideatracker/domain/core/valueobjects"
	"ideatracker/domain/events"
	pkgerrors "ideatracker/pkg/errors"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	repo      *mocks.MockIdeaRepository
	cache     *mocks.MockCache
	publisher *mocks.MockEventPublisher
	bus       *bus.CommandBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:      new(mocks.MockIdeaRepository),
		cache:     new(mocks.MockCache),
		publisher: new(mocks.MockEventPublisher),
		bus:       bus.NewCommandBus(bus.LoggingMiddleware(zap.NewNop())),
	}
	h := NewSaveIdeaHandler(
		f.repo,
		f.cache,
		f.publisher,
		valueobjects.NewIDGenerator(func() time.Time { return fixedNow }),
		func() time.Time { return fixedNow },
		zap.NewNop(),
	)
	require.NoError(t, f.bus.Register(commands.SaveIdeaCommand{}, h))
	return f
}

func formIdea(title string) entities.Idea {
	i := entities.NewIdea()
	i.Title = title
	i.Description = "d"
	return *i
}

func TestSaveIdea_NewAssignsIDAndCreatedAt(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)

	f.repo.On("Save", ctx, "u1", mock.AnythingOfType("*entities.Idea")).
		Return(func(_ context.Context, _ string, i *entities.Idea) *entities.Idea { return i }, nil).Once()
	f.cache.On("Delete", ctx, "ideas:u1").Return(nil).Once()
	f.cache.On("Delete", ctx, "idea:u1:1714564800000").Return(nil).Once()
	f.publisher.On("Publish", ctx, mock.MatchedBy(func(e events.DomainEvent) bool {
		return e.GetEventType() == events.EventTypeIdeaCreated && e.GetAggregateID() == "1714564800000"
	})).Return(nil).Once()

	// Act
	result, err := f.bus.SendWithResult(ctx, commands.SaveIdeaCommand{UserID: "u1", Idea: formIdea("Build X")})

	// Assert
	require.NoError(t, err)
	saved := result.(*entities.Idea)
	assert.Equal(t, "1714564800000", saved.ID)
	assert.Equal(t, "2024-05-01T12:00:00.000Z", saved.CreatedAt)
	assert.Equal(t, "Build X", saved.Title)
	assert.Equal(t, valueobjects.ImportanceLow, saved.Importance)
	assert.Equal(t, valueobjects.StatusNew, saved.Status)
	assert.Equal(t, "#FFFFFF", saved.Color)
	f.repo.AssertExpectations(t)
	f.cache.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestSaveIdea_EditPreservesCreatedAt(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)

	stored := &entities.Idea{
		ID:          "42",
		Title:       "old",
		Description: "d",
		Importance:  1,
		Status:      valueobjects.StatusNew,
		Color:       "#FFFFFF",
		CreatedAt:   "2023-01-01T00:00:00.000Z",
	}
	f.repo.On("FetchOne", ctx, "u1", "42").Return(stored, nil).Once()
	f.repo.On("Save", ctx, "u1", mock.MatchedBy(func(i *entities.Idea) bool {
		return i.ID == "42" && i.CreatedAt == "2023-01-01T00:00:00.000Z" && i.Title == "new"
	})).Return(func(_ context.Context, _ string, i *entities.Idea) *entities.Idea { return i }, nil).Once()
	f.cache.On("Delete", ctx, mock.Anything).Return(nil).Twice()
	f.publisher.On("Publish", ctx, mock.Anything).Return(nil).Once()

	form := formIdea("new")
	form.CreatedAt = "1999-01-01T00:00:00.000Z" // ignored
	form.ID = "other"                           // ignored

	// Act
	result, err := f.bus.SendWithResult(ctx, commands.SaveIdeaCommand{UserID: "u1", IdeaID: "42", Idea: form})

	// Assert
	require.NoError(t, err)
	saved := result.(*entities.Idea)
	assert.Equal(t, "42", saved.ID)
	assert.Equal(t, "2023-01-01T00:00:00.000Z", saved.CreatedAt)
	f.repo.AssertExpectations(t)
}

func TestSaveIdea_EditMissingIdeaIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.repo.On("FetchOne", ctx, "u1", "404").Return(nil, pkgerrors.NewNotFoundError("Idea")).Once()

	_, err := f.bus.SendWithResult(ctx, commands.SaveIdeaCommand{UserID: "u1", IdeaID: "404", Idea: formIdea("x")})

	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	f.cache.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestSaveIdea_SaveFailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.repo.On("Save", ctx, "u1", mock.Anything).
		Return(nil, pkgerrors.NewNetworkError("store set failed", assert.AnError)).Once()

	_, err := f.bus.SendWithResult(ctx, commands.SaveIdeaCommand{UserID: "u1", Idea: formIdea("x")})

	require.Error(t, err)
	assert.True(t, pkgerrors.IsNetwork(err))
	f.cache.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestSaveIdea_PublishFailureDoesNotFailSave(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.repo.On("Save", ctx, "u1", mock.Anything).
		Return(func(_ context.Context, _ string, i *entities.Idea) *entities.Idea { return i }, nil).Once()
	f.cache.On("Delete", ctx, mock.Anything).Return(nil)
	f.publisher.On("Publish", ctx, mock.Anything).Return(assert.AnError).Once()

	_, err := f.bus.SendWithResult(ctx, commands.SaveIdeaCommand{UserID: "u1", Idea: formIdea("x")})

	assert.NoError(t, err)
}

func TestSaveIdea_InvalidInputNeverReachesRepository(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	bad := formIdea("")
	_, err := f.bus.SendWithResult(ctx, commands.SaveIdeaCommand{UserID: "u1", Idea: bad})

	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}
