package resilient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ideatracker/infrastructure/persistence/memory"
	pkgerrors "ideatracker/pkg/errors"
	"ideatracker/pkg/observability"
)

type failingStore struct {
	err   error
	calls int
}

func (f *failingStore) Get(ctx context.Context, path string) ([]byte, bool, error) {
	f.calls++
	return nil, false, f.err
}

func (f *failingStore) Set(ctx context.Context, path string, value []byte) error {
	f.calls++
	return f.err
}

func TestStore_PassesThrough(t *testing.T) {
	ctx := context.Background()
	s := New(memory.NewPathStore(), DefaultConfig("test"), observability.NopRecorder{}, zap.NewNop())

	require.NoError(t, s.Set(ctx, "users/u1/ideas/1", []byte(`{"title":"a"}`)))
	got, ok, err := s.Get(ctx, "users/u1/ideas/1")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"title":"a"}`, string(got))
}

func TestStore_ClassifiesFailuresAsNetwork(t *testing.T) {
	ctx := context.Background()
	inner := &failingStore{err: errors.New("permission denied")}
	s := New(inner, DefaultConfig("test"), observability.NopRecorder{}, zap.NewNop())

	_, _, err := s.Get(ctx, "users/u1/ideas")

	require.Error(t, err)
	assert.True(t, pkgerrors.IsNetwork(err))
	assert.Contains(t, pkgerrors.UserMessage(err), "permission denied")
}

func TestStore_InvalidPathIsValidation(t *testing.T) {
	inner := &failingStore{}
	s := New(inner, DefaultConfig("test"), observability.NopRecorder{}, zap.NewNop())

	err := s.Set(context.Background(), "users/u.1/ideas/1", []byte(`{}`))

	assert.True(t, pkgerrors.IsValidation(err))
	assert.Zero(t, inner.calls)
}

func TestStore_OpensAfterRepeatedFailures(t *testing.T) {
	ctx := context.Background()
	inner := &failingStore{err: errors.New("timeout")}
	cfg := DefaultConfig("test")
	cfg.MinRequests = 3
	cfg.FailureThreshold = 0.5
	cfg.Timeout = time.Hour
	s := New(inner, cfg, observability.NopRecorder{}, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, _, _ = s.Get(ctx, "a/b")
	}
	require.Equal(t, gobreaker.StateOpen, s.State())

	_, _, err := s.Get(ctx, "a/b")
	assert.True(t, pkgerrors.IsNetwork(err))
	assert.Equal(t, 3, inner.calls)
}

func TestStore_CancellationDoesNotTrip(t *testing.T) {
	inner := &failingStore{err: context.Canceled}
	cfg := DefaultConfig("test")
	cfg.MinRequests = 1
	s := New(inner, cfg, observability.NopRecorder{}, zap.NewNop())

	for i := 0; i < 5; i++ {
		_, _, err := s.Get(context.Background(), "a/b")
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, s.State())
}

func TestStore_CallTimeout(t *testing.T) {
	cfg := DefaultConfig("test")
	cfg.CallTimeout = time.Millisecond
	s := New(&slowStore{}, cfg, observability.NopRecorder{}, zap.NewNop())

	_, _, err := s.Get(context.Background(), "a/b")

	require.Error(t, err)
	assert.True(t, pkgerrors.IsNetwork(err))
}

type slowStore struct{}

func (slowStore) Get(ctx context.Context, path string) ([]byte, bool, error) {
	<-ctx.Done()
	return nil, false, ctx.Err()
}

func (slowStore) Set(ctx context.Context, path string, value []byte) error {
	<-ctx.Done()
	return ctx.Err()
}
