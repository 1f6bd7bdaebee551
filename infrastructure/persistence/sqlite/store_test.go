package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore opens a fresh database file under t.TempDir
func newTestStore(t *testing.T) *PathStore {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "ideas.db"))
	require.NoError(t, err, "failed to open test database")

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestPathStore_SchemaApplied(t *testing.T) {
	s := newTestStore(t)

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='nodes'").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestPathStore_LeafAndCollection(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Set(ctx, "users/u1/ideas/20", []byte(`{"title":"b"}`)))
	require.NoError(t, s.Set(ctx, "users/u1/ideas/3", []byte(`{"title":"a"}`)))
	require.NoError(t, s.Set(ctx, "users/u2/ideas/1", []byte(`{"title":"other"}`)))

	leaf, ok, err := s.Get(ctx, "users/u1/ideas/20")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"title":"b"}`, string(leaf))

	coll, ok, err := s.Get(ctx, "users/u1/ideas")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"3":{"title":"a"},"20":{"title":"b"}}`, string(coll))
}

func TestPathStore_OverwriteAndMissing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Set(ctx, "users/u1/ideas/1", []byte(`{"title":"a","notes":"n"}`)))
	require.NoError(t, s.Set(ctx, "users/u1/ideas/1", []byte(`{"title":"b"}`)))

	got, ok, err := s.Get(ctx, "users/u1/ideas/1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"title":"b"}`, string(got))

	_, ok, err = s.Get(ctx, "users/nobody/ideas")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPathStore_Persists(t *testing.T) {
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "ideas.db")

	s, err := Open(file)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "accounts/k", []byte(`{"email":"a@b.c"}`)))
	require.NoError(t, s.Close())

	reopened, err := Open(file)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok, err := reopened.Get(ctx, "accounts/k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"email":"a@b.c"}`, string(got))
}

func TestPathStore_RejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	assert.Error(t, s.Set(ctx, "users/u1", []byte(`{`)))
	assert.Error(t, s.Set(ctx, "users/u$1", []byte(`{}`)))
}
