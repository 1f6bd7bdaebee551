package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ideatracker/application/commands"
	"ideatracker/application/commands/bus"
	cmdhandlers "ideatracker/application/commands/handlers"
	"ideatracker/application/queries"
	querybus "ideatracker/application/queries/bus"
	queryhandlers "ideatracker/application/queries/handlers"
	"ideatracker/domain/core/entities"
	"ideatracker/domain/core/valueobjects"
	"ideatracker/domain/events"
	"ideatracker/infrastructure/persistence/ideas"
	"ideatracker/infrastructure/persistence/memory"
	"ideatracker/pkg/observability"
	pkgerrors "ideatracker/pkg/errors"
)

type countingStore struct {
	*memory.PathStore
	mu   sync.Mutex
	gets int
}

func (s *countingStore) Get(ctx context.Context, path string) ([]byte, bool, error) {
	s.mu.Lock()
	s.gets++
	s.mu.Unlock()
	return s.PathStore.Get(ctx, path)
}

func (s *countingStore) reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

type mapCache struct {
	mu     sync.Mutex
	values map[string]interface{}
}

func (c *mapCache) Get(ctx context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *mapCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *mapCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}

func (c *mapCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = map[string]interface{}{}
	return nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, events.DomainEvent) error        { return nil }
func (nopPublisher) PublishBatch(context.Context, []events.DomainEvent) error { return nil }

func newService(t *testing.T, clock *time.Time) (*IdeaService, *countingStore) {
	t.Helper()
	logger := zap.NewNop()
	store := &countingStore{PathStore: memory.NewPathStore()}
	repo := ideas.NewRepository(store, logger)
	cache := &mapCache{values: map[string]interface{}{}}
	now := func() time.Time { return *clock }

	qb := querybus.NewQueryBus(querybus.CachingMiddleware(cache, time.Minute, observability.NopRecorder{}))
	require.NoError(t, qb.Register(queries.GetIdeaQuery{}, queryhandlers.NewGetIdeaHandler(repo, logger)))
	require.NoError(t, qb.Register(queries.ListIdeasQuery{}, queryhandlers.NewListIdeasHandler(repo, logger)))

	cb := bus.NewCommandBus()
	save := cmdhandlers.NewSaveIdeaHandler(repo, cache, nopPublisher{}, valueobjects.NewIDGenerator(now), now, logger)
	require.NoError(t, cb.Register(commands.SaveIdeaCommand{}, save))

	return NewIdeaService(cb, qb, logger), store
}

func buffer(title string, importance valueobjects.Importance) entities.Idea {
	i := entities.NewIdea()
	i.Title = title
	i.Description = title + " description"
	i.Importance = importance
	return *i
}

func TestIdeaService_CreateThenList(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newService(t, &clock)

	_, err := svc.Create(ctx, "u1", buffer("A", valueobjects.ImportanceLow))
	require.NoError(t, err)
	clock = clock.Add(time.Minute)
	_, err = svc.Create(ctx, "u1", buffer("B", valueobjects.ImportanceHigh))
	require.NoError(t, err)
	clock = clock.Add(time.Minute)
	_, err = svc.Create(ctx, "u1", buffer("C", valueobjects.ImportanceMedium))
	require.NoError(t, err)

	byDate, err := svc.List(ctx, "u1", entities.SortByCreatedAt)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "B", "A"}, titles(byDate))

	byImportance, err := svc.List(ctx, "u1", entities.SortByImportance)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "A"}, titles(byImportance))

	other, err := svc.List(ctx, "u2", entities.SortByCreatedAt)
	require.NoError(t, err)
	assert.Empty(t, other, "ideas are scoped to their owner")
}

func TestIdeaService_SortChangeDoesNotRefetch(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc, store := newService(t, &clock)
	_, err := svc.Create(ctx, "u1", buffer("A", valueobjects.ImportanceLow))
	require.NoError(t, err)

	_, err = svc.List(ctx, "u1", entities.SortByCreatedAt)
	require.NoError(t, err)
	reads := store.reads()

	_, err = svc.List(ctx, "u1", entities.SortByImportance)
	require.NoError(t, err)
	assert.Equal(t, reads, store.reads())
}

func TestIdeaService_UpdateKeepsCreatedAtAndInvalidates(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newService(t, &clock)

	created, err := svc.Create(ctx, "u1", buffer("Build X", valueobjects.ImportanceLow))
	require.NoError(t, err)
	listed, err := svc.List(ctx, "u1", entities.SortByCreatedAt)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	clock = clock.Add(time.Hour)
	edit, err := svc.Get(ctx, "u1", created.ID)
	require.NoError(t, err)
	edit.Status = valueobjects.StatusInProgress
	edit.CreatedAt = "1999-01-01T00:00:00.000Z"

	updated, err := svc.Update(ctx, "u1", created.ID, *edit)
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	listed, err = svc.List(ctx, "u1", entities.SortByCreatedAt)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, valueobjects.StatusInProgress, listed[0].Status, "list cache was invalidated")

	fetched, err := svc.Get(ctx, "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobjects.StatusInProgress, fetched.Status, "record cache was invalidated")
}

func TestIdeaService_GetIsNotServedTheCachedList(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newService(t, &clock)
	_, err := svc.Create(ctx, "u1", buffer("A", valueobjects.ImportanceLow))
	require.NoError(t, err)

	_, err = svc.List(ctx, "u1", entities.SortByCreatedAt)
	require.NoError(t, err)

	_, err = svc.Get(ctx, "u1", "all")
	assert.True(t, pkgerrors.IsNotFound(err), "got %v", err)
}

func TestIdeaService_Errors(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newService(t, &clock)

	_, err := svc.Get(ctx, "u1", "404")
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = svc.Update(ctx, "u1", "404", buffer("x", valueobjects.ImportanceLow))
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = svc.Create(ctx, "u1", buffer("", valueobjects.ImportanceLow))
	assert.True(t, pkgerrors.IsValidation(err))
}

func titles(list []*entities.Idea) []string {
	out := make([]string, len(list))
	for i, idea := range list {
		out[i] = idea.Title
	}
	return out
}
