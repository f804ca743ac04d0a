package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-shop/services/shop-api/internal/repo/repotest"
	"ecommerce-shop/services/shop-api/internal/service"
	"ecommerce-shop/shared/pkg/models"
)

// Every path that writes the user row back must read it through
// GetForUpdate; a failing lock therefore aborts the write.
func TestUserWritesTakeRowLock(t *testing.T) {
	ctx := context.Background()
	cases := map[string]func(m *repotest.MemStore) error{
		"add products": func(m *repotest.MemStore) error {
			_, err := newCarts(m).AddProducts(ctx, userID, []service.AddItem{{ProductID: prodA, Quantity: 1}})
			return err
		},
		"remove product": func(m *repotest.MemStore) error {
			_, err := newCarts(m).RemoveProduct(ctx, userID, prodA)
			return err
		},
		"clear cart": func(m *repotest.MemStore) error {
			_, err := newCarts(m).ClearCart(ctx, userID)
			return err
		},
		"checkout": func(m *repotest.MemStore) error {
			_, err := newCheckout(m).Checkout(ctx, userID)
			return err
		},
		"update user": func(m *repotest.MemStore) error {
			in := service.UpdateUserInput{FirstName: "Ana", LastName: "Soto", Email: "ana@example.com", Age: ptr(31), Role: models.RoleUser}
			_, err := newUsers(m).Update(ctx, userID, in)
			return err
		},
		"delete user": func(m *repotest.MemStore) error {
			return newUsers(m).Delete(ctx, userID)
		},
		"change role": func(m *repotest.MemStore) error {
			_, err := newUsers(m).ChangeRole(ctx, userID, models.RoleUser)
			return err
		},
		"request password reset": func(m *repotest.MemStore) error {
			return newUsers(m).RequestPasswordReset(ctx, "ana@example.com")
		},
	}

	for name, call := range cases {
		t.Run(name, func(t *testing.T) {
			m := seedStore(t)
			fillCart(t, m, userID, service.AddItem{ProductID: prodA, Quantity: 1})
			before := mustUser(t, m, userID)
			events := len(m.OutboxEvents())

			boom := errors.New("lock timeout")
			m.Fail[repotest.OpUsersLock] = boom
			require.ErrorIs(t, call(m), boom)
			delete(m.Fail, repotest.OpUsersLock)

			after := mustUser(t, m, userID)
			assert.Equal(t, before, after)
			assert.Len(t, mustCart(t, m, userID).Items, 1)
			assert.Len(t, m.OutboxEvents(), events)
		})
	}
}

func TestAddProducts_FirstUseCreatesOneCart(t *testing.T) {
	m := seedStore(t)
	svc := newCarts(m)
	ctx := context.Background()

	_, err := svc.AddProducts(ctx, userID, []service.AddItem{{ProductID: prodA, Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.AddProducts(ctx, userID, []service.AddItem{{ProductID: prodB, Quantity: 1}})
	require.NoError(t, err)

	carts, err := m.Carts().List(ctx)
	require.NoError(t, err)
	require.Len(t, carts, 1)
	assert.Equal(t, mustUser(t, m, userID).CartID, carts[0].ID)
	assert.Len(t, carts[0].Items, 2)
}
