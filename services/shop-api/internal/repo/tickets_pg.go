package repo

import (
	"context"
	"fmt"

	"ecommerce-shop/shared/pkg/models"
)

type TicketsPG struct {
	DB DBTX
}

func (r *TicketsPG) Create(ctx context.Context, t *models.Ticket) error {
	_, err := r.DB.Exec(ctx, `
		insert into tickets (id, code, amount_cents, purchaser_email, purchase_datetime)
		values ($1, $2, $3, $4, $5)
	`, t.ID, t.Code, t.AmountCents, t.PurchaserEmail, t.PurchasedAt)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}

	for i, l := range t.Lines {
		_, err := r.DB.Exec(ctx, `
			insert into ticket_lines (ticket_id, line_no, product_id, title, quantity, unit_price_cents, subtotal_cents)
			values ($1, $2, $3, $4, $5, $6, $7)
		`, t.ID, i+1, l.ProductID, l.Title, l.Quantity, l.UnitPriceCents, l.SubtotalCents)
		if err != nil {
			return fmt.Errorf("insert ticket line: %w", err)
		}
	}
	return nil
}
