package repository_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rongwang/finance-cockpit/internal/config"
	"github.com/rongwang/finance-cockpit/internal/repository"
	"github.com/rongwang/finance-cockpit/internal/session"
)

// compile-time check that a scoped repository is session storage
var _ session.Storage = (*repository.ClientStorage)(nil)

func exerciseRepository(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	alice := uuid.New().String()
	bob := uuid.New().String()

	_, ok, err := repo.GetItem(ctx, alice, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetItem(ctx, alice, "k", "v1"))
	require.NoError(t, repo.SetItem(ctx, alice, "k", "v2"))

	v, ok, err := repo.GetItem(ctx, alice, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)

	// other clients do not see the item
	_, ok, err = repo.GetItem(ctx, bob, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.RemoveItem(ctx, alice, "k"))
	_, ok, err = repo.GetItem(ctx, alice, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// removing twice is fine
	require.NoError(t, repo.RemoveItem(ctx, alice, "k"))

	// a session persisted through one scoped storage is restored through another
	store := session.NewStore(repository.ForClient(repo, alice))
	require.NoError(t, store.Login(ctx, "a@b.com"))

	restored := session.NewStore(repository.ForClient(repo, alice))
	require.NoError(t, restored.Init(ctx))
	assert.Equal(t, "a@b.com", restored.Identifier())

	other := session.NewStore(repository.ForClient(repo, bob))
	require.NoError(t, other.Init(ctx))
	assert.False(t, other.Authenticated())

	require.NoError(t, store.Logout(ctx))
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, repository.NewMemoryRepository())
}

func TestPostgresRepository(t *testing.T) {
	cfg := config.LoadConfig()
	if cfg.Database.TestDBName != "" {
		cfg.Database.DBName = cfg.Database.TestDBName
	}

	db, err := config.SetupDatabase(cfg)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	defer db.Close()

	exerciseRepository(t, repository.NewPostgresRepository(db))
}

func TestRedisRepository(t *testing.T) {
	cfg := config.LoadConfig()

	client, err := config.SetupRedis(context.Background(), cfg)
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	defer client.Close()

	exerciseRepository(t, repository.NewRedisRepository(client, "cockpit:test:"))
}
