package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ecommerce-shop/services/shop-api/internal/metrics"
	"ecommerce-shop/services/shop-api/internal/repo"
	"ecommerce-shop/shared/pkg/apperr"
	"ecommerce-shop/shared/pkg/models"
)

type CheckoutService struct {
	Store repo.Store
	Log   zerolog.Logger
	Now   func() time.Time
}

// Checkout turns the user's cart into a ticket. Stock decrements, the
// ticket, the purchase event and the emptied cart commit together or not
// at all.
func (s *CheckoutService) Checkout(ctx context.Context, userID string) (*models.Ticket, error) {
	if err := checkID("user", userID); err != nil {
		return nil, err
	}

	var ticket *models.Ticket
	err := s.Store.InTx(ctx, func(ctx context.Context, tx repo.Store) error {
		u, err := lockUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if u.CartID == "" {
			return apperr.BadRequest(apperr.CodeEmptyCart, "user has no cart")
		}
		cart, err := userCart(ctx, tx, u, true)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return apperr.BadRequest(apperr.CodeEmptyCart, "cart is empty")
		}

		now := clock(s.Now)
		t := &models.Ticket{
			ID:             uuid.NewString(),
			Code:           uuid.NewString(),
			PurchaserEmail: u.Email,
			PurchasedAt:    now,
			Lines:          make([]models.TicketLine, 0, len(cart.Items)),
		}

		for _, it := range cart.Items {
			p, err := loadProduct(ctx, tx.Products(), it.ProductID)
			if err != nil {
				return err
			}
			ok, err := tx.Products().DecrementStock(ctx, p.ID, it.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock %s: %w", p.ID, err)
			}
			if !ok {
				return insufficientStock(p, it.Quantity)
			}
			sub := p.PriceCents * int64(it.Quantity)
			t.Lines = append(t.Lines, models.TicketLine{
				ProductID:      p.ID,
				Title:          p.Title,
				Quantity:       it.Quantity,
				UnitPriceCents: p.PriceCents,
				SubtotalCents:  sub,
			})
			t.AmountCents += sub
		}

		if err := tx.Tickets().Create(ctx, t); err != nil {
			return fmt.Errorf("create ticket: %w", err)
		}

		evt := models.NewPurchaseCompleted(t, u.FullName())
		if err := tx.Outbox().Enqueue(ctx, evt.ID, t.ID, evt.Type, evt); err != nil {
			return fmt.Errorf("enqueue %s: %w", evt.Type, err)
		}

		cart.Items = []models.CartItem{}
		cart.AmountCents = 0
		cart.UpdatedAt = now
		if err := tx.Carts().Save(ctx, cart); err != nil {
			return fmt.Errorf("empty cart: %w", err)
		}

		ticket = t
		return nil
	})
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues(checkoutResult(err)).Inc()
		return nil, err
	}

	metrics.CheckoutsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	metrics.CheckoutAmountCents.Observe(float64(ticket.AmountCents))
	s.Log.Info().
		Str("user_id", userID).
		Str("ticket_id", ticket.ID).
		Int64("amount_cents", ticket.AmountCents).
		Msg("checkout committed")
	return ticket, nil
}

func checkoutResult(err error) string {
	switch {
	case apperr.IsCode(err, apperr.CodeEmptyCart):
		return metrics.ResultEmptyCart
	case apperr.IsCode(err, apperr.CodeInsufficientStock):
		return metrics.ResultInsufficientStock
	}
	return metrics.ResultError
}
