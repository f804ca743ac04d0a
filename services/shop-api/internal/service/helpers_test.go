package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-shop/services/shop-api/internal/auth"
	"ecommerce-shop/services/shop-api/internal/repo/repotest"
	"ecommerce-shop/services/shop-api/internal/service"
	"ecommerce-shop/shared/pkg/apperr"
	"ecommerce-shop/shared/pkg/models"
)

const (
	userID  = "11111111-1111-4111-8111-111111111111"
	otherID = "22222222-2222-4222-8222-222222222222"
	missing = "99999999-9999-4999-8999-999999999999"

	prodA = "aaaaaaaa-0000-4000-8000-000000000001"
	prodB = "bbbbbbbb-0000-4000-8000-000000000002"
	prodC = "cccccccc-0000-4000-8000-000000000003"
)

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func ptr[T any](v T) *T { return &v }

func seedStore(t *testing.T) *repotest.MemStore {
	t.Helper()
	m := repotest.New()
	m.PutProduct(models.Product{ID: prodA, Code: "A-1", Title: "Mug", PriceCents: 1000, Stock: 10, Status: true})
	m.PutProduct(models.Product{ID: prodB, Code: "B-1", Title: "Pen", PriceCents: 500, Stock: 10, Status: true})
	m.PutProduct(models.Product{ID: prodC, Code: "C-1", Title: "Cap", PriceCents: 200, Stock: 10, Status: true})
	m.PutUser(models.User{
		ID: userID, FirstName: "Ana", LastName: "Diaz", Email: "ana@example.com", Age: 30,
		Role: models.RoleUser, Provider: models.ProviderLocal, CreatedAt: testNow,
	})
	m.PutUser(models.User{
		ID: otherID, FirstName: "Bo", LastName: "Lee", Email: "bo@example.com", Age: 40,
		Role: models.RoleUser, Provider: models.ProviderLocal, CreatedAt: testNow,
	})
	return m
}

func newCarts(m *repotest.MemStore) *service.CartService {
	return &service.CartService{Store: m, Log: zerolog.Nop(), Now: fixedNow}
}

func newCheckout(m *repotest.MemStore) *service.CheckoutService {
	return &service.CheckoutService{Store: m, Log: zerolog.Nop(), Now: fixedNow}
}

func newUsers(m *repotest.MemStore) *service.UserService {
	return &service.UserService{
		Store:         m,
		Log:           zerolog.Nop(),
		Tokens:        &auth.ResetTokens{Secret: []byte("test-secret"), TTL: time.Hour, Now: fixedNow},
		ResetURL:      "http://shop.test/reset",
		InactiveAfter: 48 * time.Hour,
		Now:           fixedNow,
	}
}

func requireAppErr(t *testing.T, err error, status int, code string) *apperr.Error {
	t.Helper()
	require.Error(t, err)
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae), "want *apperr.Error, got %T: %v", err, err)
	assert.Equal(t, code, ae.Code)
	assert.Equal(t, status, ae.Status)
	return ae
}

func mustUser(t *testing.T, m *repotest.MemStore, id string) models.User {
	t.Helper()
	u, ok := m.User(id)
	require.True(t, ok, "user %s not found", id)
	return u
}

func mustCart(t *testing.T, m *repotest.MemStore, userID string) models.Cart {
	t.Helper()
	u := mustUser(t, m, userID)
	require.NotEmpty(t, u.CartID, "user has no cart")
	c, ok := m.Cart(u.CartID)
	require.True(t, ok, "cart %s not found", u.CartID)
	return c
}

func stock(t *testing.T, m *repotest.MemStore, id string) int {
	t.Helper()
	p, ok := m.Product(id)
	require.True(t, ok)
	return p.Stock
}
