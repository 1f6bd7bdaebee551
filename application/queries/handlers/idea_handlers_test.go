package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ideatracker/application/ports/mocks"
	"ideatracker/application/queries"
	"ideatracker/domain/core/entities"
	pkgerrors "ideatracker/pkg/errors"
)

func TestGetIdeaHandler(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockIdeaRepository)
	h := NewGetIdeaHandler(repo, zap.NewNop())

	want := &entities.Idea{ID: "1", Title: "t"}
	repo.On("FetchOne", ctx, "u1", "1").Return(want, nil).Once()
	repo.On("FetchOne", ctx, "u1", "2").Return(nil, pkgerrors.NewNotFoundError("Idea")).Once()

	got, err := h.Handle(ctx, queries.GetIdeaQuery{UserID: "u1", IdeaID: "1"})
	require.NoError(t, err)
	assert.Same(t, want, got)

	_, err = h.Handle(ctx, queries.GetIdeaQuery{UserID: "u1", IdeaID: "2"})
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = h.Handle(ctx, queries.ListIdeasQuery{UserID: "u1"})
	assert.Error(t, err)
}

func TestListIdeasHandler_Empty(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockIdeaRepository)
	h := NewListIdeasHandler(repo, zap.NewNop())

	repo.On("FetchAll", ctx, "u1").Return([]*entities.Idea{}, nil).Once()

	got, err := h.Handle(ctx, queries.ListIdeasQuery{UserID: "u1"})

	require.NoError(t, err)
	assert.Empty(t, got.([]*entities.Idea))
	repo.AssertExpectations(t)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "ideas:u1", queries.ListIdeasQuery{UserID: "u1"}.CacheKey())
	assert.Equal(t, "idea:u1:7", queries.GetIdeaQuery{UserID: "u1", IdeaID: "7"}.CacheKey())
	assert.NotEqual(t, queries.ListCacheKey("u1"), queries.IdeaCacheKey("u1", "all"))
}
