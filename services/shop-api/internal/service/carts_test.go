package service_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-shop/services/shop-api/internal/service"
	"ecommerce-shop/shared/pkg/apperr"
	"ecommerce-shop/shared/pkg/models"
)

func TestAddProducts_RejectsNonPositiveQuantity(t *testing.T) {
	for _, qty := range []int{0, -1, -50} {
		m := seedStore(t)
		_, err := newCarts(m).AddProducts(context.Background(), userID, []service.AddItem{{ProductID: prodA, Quantity: qty}})

		requireAppErr(t, err, http.StatusBadRequest, apperr.CodeValidation)
		assert.Empty(t, mustUser(t, m, userID).CartID, "qty %d must not create a cart", qty)
	}
}

func TestAddProducts_RejectsEmptyAndMalformed(t *testing.T) {
	m := seedStore(t)
	svc := newCarts(m)
	ctx := context.Background()

	_, err := svc.AddProducts(ctx, userID, nil)
	requireAppErr(t, err, http.StatusBadRequest, apperr.CodeValidation)

	_, err = svc.AddProducts(ctx, userID, []service.AddItem{{ProductID: "not-a-uuid", Quantity: 1}})
	requireAppErr(t, err, http.StatusBadRequest, apperr.CodeInvalidID)

	_, err = svc.AddProducts(ctx, "bad", []service.AddItem{{ProductID: prodA, Quantity: 1}})
	requireAppErr(t, err, http.StatusBadRequest, apperr.CodeInvalidID)
}

func TestAddProducts_ConsolidatesAndCreatesCartLazily(t *testing.T) {
	m := seedStore(t)

	cart, err := newCarts(m).AddProducts(context.Background(), userID, []service.AddItem{
		{ProductID: prodA, Quantity: 1},
		{ProductID: prodB, Quantity: 1},
		{ProductID: prodA, Quantity: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, []models.CartItem{{ProductID: prodA, Quantity: 3}, {ProductID: prodB, Quantity: 1}}, cart.Items)
	assert.Equal(t, int64(3*1000+500), cart.AmountCents)

	stored := mustCart(t, m, userID)
	assert.Equal(t, cart.ID, stored.ID)
	assert.Equal(t, cart.Items, stored.Items)
}

func TestAddProducts_AccumulatesExistingQuantity(t *testing.T) {
	m := seedStore(t)
	svc := newCarts(m)
	ctx := context.Background()

	_, err := svc.AddProducts(ctx, userID, []service.AddItem{{ProductID: prodA, Quantity: 4}})
	require.NoError(t, err)
	cart, err := svc.AddProducts(ctx, userID, []service.AddItem{{ProductID: prodA, Quantity: 5}})
	require.NoError(t, err)

	assert.Equal(t, []models.CartItem{{ProductID: prodA, Quantity: 9}}, cart.Items)
	assert.Equal(t, int64(9000), cart.AmountCents)
}

func TestAddProducts_ExceedingStockLeavesCartUnchanged(t *testing.T) {
	m := seedStore(t)
	svc := newCarts(m)
	ctx := context.Background()

	_, err := svc.AddProducts(ctx, userID, []service.AddItem{{ProductID: prodA, Quantity: 8}})
	require.NoError(t, err)
	before := mustCart(t, m, userID)

	_, err = svc.AddProducts(ctx, userID, []service.AddItem{
		{ProductID: prodB, Quantity: 1},
		{ProductID: prodA, Quantity: 3},
	})
	ae := requireAppErr(t, err, http.StatusBadRequest, apperr.CodeInsufficientStock)
	assert.Equal(t, prodA, ae.Meta["product_id"])

	assert.Equal(t, before, mustCart(t, m, userID))
}

func TestAddProducts_UnknownProductOrUser(t *testing.T) {
	m := seedStore(t)
	svc := newCarts(m)
	ctx := context.Background()

	_, err := svc.AddProducts(ctx, userID, []service.AddItem{{ProductID: missing, Quantity: 1}})
	requireAppErr(t, err, http.StatusNotFound, apperr.CodeProductNotFound)
	assert.Empty(t, mustUser(t, m, userID).CartID)

	_, err = svc.AddProducts(ctx, missing, []service.AddItem{{ProductID: prodA, Quantity: 1}})
	requireAppErr(t, err, http.StatusNotFound, apperr.CodeUserNotFound)
}

func TestRemoveProduct(t *testing.T) {
	m := seedStore(t)
	svc := newCarts(m)
	ctx := context.Background()

	_, err := svc.AddProducts(ctx, userID, []service.AddItem{{ProductID: prodA, Quantity: 2}, {ProductID: prodB, Quantity: 1}})
	require.NoError(t, err)

	_, err = svc.RemoveProduct(ctx, userID, prodC)
	requireAppErr(t, err, http.StatusNotFound, apperr.CodeItemNotInCart)

	_, err = svc.RemoveProduct(ctx, userID, "")
	requireAppErr(t, err, http.StatusBadRequest, apperr.CodeValidation)

	// price change between add and remove must not corrupt the total
	m.PutProduct(models.Product{ID: prodA, Code: "A-1", Title: "Mug", PriceCents: 1200, Stock: 10})

	cart, err := svc.RemoveProduct(ctx, userID, prodB)
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem{{ProductID: prodA, Quantity: 2}}, cart.Items)
	assert.Equal(t, int64(2400), cart.AmountCents)
}

func TestRemoveProduct_NoCart(t *testing.T) {
	m := seedStore(t)
	_, err := newCarts(m).RemoveProduct(context.Background(), userID, prodA)
	requireAppErr(t, err, http.StatusNotFound, apperr.CodeCartNotFound)
}

func TestClearCart(t *testing.T) {
	m := seedStore(t)
	svc := newCarts(m)
	ctx := context.Background()

	_, err := svc.ClearCart(ctx, userID)
	requireAppErr(t, err, http.StatusNotFound, apperr.CodeCartNotFound)

	added, err := svc.AddProducts(ctx, userID, []service.AddItem{{ProductID: prodA, Quantity: 2}})
	require.NoError(t, err)

	cart, err := svc.ClearCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, added.ID, cart.ID)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.AmountCents)

	stored := mustCart(t, m, userID)
	assert.Empty(t, stored.Items)
	assert.Zero(t, stored.AmountCents)
}

func TestShowCart(t *testing.T) {
	m := seedStore(t)
	svc := newCarts(m)
	ctx := context.Background()

	_, err := svc.AddProducts(ctx, userID, []service.AddItem{{ProductID: prodA, Quantity: 2}, {ProductID: prodB, Quantity: 1}})
	require.NoError(t, err)

	view, err := svc.ShowCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	assert.Equal(t, service.CartLine{
		ProductID: prodA, Title: "Mug", Code: "A-1", Quantity: 2, UnitPriceCents: 1000, SubtotalCents: 2000,
	}, view.Lines[0])
	assert.Equal(t, int64(2500), view.TotalCents)
}

func TestGetAndListCarts(t *testing.T) {
	m := seedStore(t)
	svc := newCarts(m)
	ctx := context.Background()

	carts, err := svc.ListCarts(ctx)
	require.NoError(t, err)
	assert.Empty(t, carts)

	added, err := svc.AddProducts(ctx, userID, []service.AddItem{{ProductID: prodC, Quantity: 1}})
	require.NoError(t, err)

	got, err := svc.GetCart(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, added.Items, got.Items)

	_, err = svc.GetCart(ctx, "xyz")
	requireAppErr(t, err, http.StatusBadRequest, apperr.CodeInvalidID)

	_, err = svc.GetCart(ctx, missing)
	requireAppErr(t, err, http.StatusNotFound, apperr.CodeCartNotFound)

	carts, err = svc.ListCarts(ctx)
	require.NoError(t, err)
	assert.Len(t, carts, 1)
}

func TestCartTotalMatchesLines(t *testing.T) {
	m := seedStore(t)
	svc := newCarts(m)
	ctx := context.Background()

	steps := [][]service.AddItem{
		{{ProductID: prodA, Quantity: 1}},
		{{ProductID: prodB, Quantity: 3}, {ProductID: prodC, Quantity: 2}},
		{{ProductID: prodA, Quantity: 2}},
	}
	for _, items := range steps {
		cart, err := svc.AddProducts(ctx, userID, items)
		require.NoError(t, err)

		var want int64
		for _, it := range cart.Items {
			p, _ := m.Product(it.ProductID)
			want += p.PriceCents * int64(it.Quantity)
		}
		assert.Equal(t, want, cart.AmountCents)
	}
}
