package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-shop/services/shop-api/internal/repo"
	"ecommerce-shop/shared/pkg/models"
)

func TestInTx_RollbackOnError(t *testing.T) {
	m := New()
	m.PutProduct(models.Product{ID: "p1", Stock: 5})
	boom := errors.New("boom")

	err := m.InTx(context.Background(), func(ctx context.Context, tx repo.Store) error {
		ok, err := tx.Products().DecrementStock(ctx, "p1", 3)
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})

	assert.ErrorIs(t, err, boom)
	p, _ := m.Product("p1")
	assert.Equal(t, 5, p.Stock)
}

func TestInTx_Commit(t *testing.T) {
	m := New()
	m.PutProduct(models.Product{ID: "p1", Stock: 5})

	err := m.InTx(context.Background(), func(ctx context.Context, tx repo.Store) error {
		_, err := tx.Products().DecrementStock(ctx, "p1", 3)
		return err
	})

	require.NoError(t, err)
	p, _ := m.Product("p1")
	assert.Equal(t, 2, p.Stock)
}

func TestDecrementStock_Guard(t *testing.T) {
	m := New()
	m.PutProduct(models.Product{ID: "p1", Stock: 1})

	ok, err := m.Products().DecrementStock(context.Background(), "p1", 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteInactive_UsesLatestConnection(t *testing.T) {
	m := New()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	old := now.Add(-72 * time.Hour)
	recent := now.Add(-time.Hour)

	m.PutUser(models.User{ID: "stale", Email: "a@x", LastConnection: &old})
	m.PutUser(models.User{ID: "github-active", Email: "b@x", LastConnection: &old, LastConnectionGitHub: &recent})
	m.PutUser(models.User{ID: "fresh", Email: "c@x", LastConnection: &recent})

	gone, err := m.Users().DeleteInactive(context.Background(), now.Add(-48*time.Hour))
	require.NoError(t, err)
	require.Len(t, gone, 1)
	assert.Equal(t, "stale", gone[0].ID)

	_, ok := m.User("github-active")
	assert.True(t, ok)
}

func TestFail_InjectsError(t *testing.T) {
	m := New()
	boom := errors.New("db down")
	m.Fail[OpUsersGet] = boom

	_, err := m.Users().GetByID(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}
