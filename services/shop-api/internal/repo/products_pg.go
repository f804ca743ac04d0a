package repo

import (
	"context"

	"ecommerce-shop/shared/pkg/models"
)

type ProductsPG struct {
	DB DBTX
}

func (r *ProductsPG) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := r.DB.QueryRow(ctx, `
		select id, code, title, description, thumbnail, price_cents, stock, status
		from products where id = $1
	`, id).Scan(&p.ID, &p.Code, &p.Title, &p.Description, &p.Thumbnail, &p.PriceCents, &p.Stock, &p.Status)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// DecrementStock is a guarded update, so concurrent buyers of the same row
// are serialised by Postgres and stock never goes negative.
func (r *ProductsPG) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		update products set stock = stock - $2 where id = $1 and stock >= $2
	`, id, qty)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}
