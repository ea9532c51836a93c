package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginSurvivesReinit(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()

	store := NewStore(storage)
	require.NoError(t, store.Init(ctx))
	assert.False(t, store.Authenticated())

	require.NoError(t, store.Login(ctx, "a@b.com"))
	assert.True(t, store.Authenticated())

	raw, ok, _ := storage.GetItem(ctx, StorageKey)
	require.True(t, ok)
	assert.JSONEq(t, `{"email":"a@b.com"}`, raw)

	fresh := NewStore(storage)
	require.NoError(t, fresh.Init(ctx))
	assert.Equal(t, Snapshot{Authenticated: true, Identifier: "a@b.com"}, fresh.Snapshot())
}

func TestLogoutSurvivesReinit(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()

	store := NewStore(storage)
	require.NoError(t, store.Login(ctx, "a@b.com"))
	require.NoError(t, store.Logout(ctx))
	assert.False(t, store.Authenticated())
	assert.Empty(t, store.Identifier())

	fresh := NewStore(storage)
	require.NoError(t, fresh.Init(ctx))
	assert.False(t, fresh.Authenticated())

	_, ok, _ := storage.GetItem(ctx, StorageKey)
	assert.False(t, ok)
}

func TestMalformedDataIsClearedSilently(t *testing.T) {
	for _, raw := range []string{`{not json`, `"just a string"`, `{}`, `{"email":""}`} {
		t.Run(raw, func(t *testing.T) {
			ctx := context.Background()
			storage := NewMemoryStorage()
			require.NoError(t, storage.SetItem(ctx, StorageKey, raw))

			store := NewStore(storage)
			require.NoError(t, store.Init(ctx))

			assert.False(t, store.Authenticated())
			_, ok, _ := storage.GetItem(ctx, StorageKey)
			assert.False(t, ok, "malformed data should be removed")
		})
	}
}

type brokenStorage struct{ MemoryStorage }

func (b *brokenStorage) GetItem(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage down")
}

func TestInitReportsStorageFailure(t *testing.T) {
	store := NewStore(&brokenStorage{})

	err := store.Init(context.Background())

	require.Error(t, err)
	assert.False(t, store.Authenticated())
}
