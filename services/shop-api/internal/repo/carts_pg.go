package repo

import (
	"context"
	"fmt"

	"ecommerce-shop/shared/pkg/models"
)

type CartsPG struct {
	DB DBTX
}

func (r *CartsPG) Create(ctx context.Context, c *models.Cart) error {
	_, err := r.DB.Exec(ctx, `
		insert into carts (id, amount_cents, created_at, updated_at) values ($1, $2, $3, $3)
	`, c.ID, c.AmountCents, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert cart: %w", err)
	}
	return r.insertItems(ctx, c)
}

func (r *CartsPG) GetByID(ctx context.Context, id string) (*models.Cart, error) {
	return r.get(ctx, `select id, amount_cents, created_at, updated_at from carts where id = $1`, id)
}

func (r *CartsPG) GetForUpdate(ctx context.Context, id string) (*models.Cart, error) {
	return r.get(ctx, `select id, amount_cents, created_at, updated_at from carts where id = $1 for update`, id)
}

func (r *CartsPG) get(ctx context.Context, sql, id string) (*models.Cart, error) {
	var c models.Cart
	if err := r.DB.QueryRow(ctx, sql, id).Scan(&c.ID, &c.AmountCents, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	items, err := r.items(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Items = items
	return &c, nil
}

func (r *CartsPG) List(ctx context.Context) ([]models.Cart, error) {
	rows, err := r.DB.Query(ctx, `select id, amount_cents, created_at, updated_at from carts order by created_at`)
	if err != nil {
		return nil, err
	}
	var out []models.Cart
	for rows.Next() {
		var c models.Cart
		if err := rows.Scan(&c.ID, &c.AmountCents, &c.CreatedAt, &c.UpdatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Items, err = r.items(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Save replaces the cart's items and amount.
func (r *CartsPG) Save(ctx context.Context, c *models.Cart) error {
	ct, err := r.DB.Exec(ctx, `
		update carts set amount_cents = $2, updated_at = $3 where id = $1
	`, c.ID, c.AmountCents, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := r.DB.Exec(ctx, `delete from cart_items where cart_id = $1`, c.ID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	return r.insertItems(ctx, c)
}

func (r *CartsPG) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `delete from carts where id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CartsPG) insertItems(ctx context.Context, c *models.Cart) error {
	for i, it := range c.Items {
		if _, err := r.DB.Exec(ctx, `
			insert into cart_items (cart_id, product_id, quantity, position) values ($1, $2, $3, $4)
		`, c.ID, it.ProductID, it.Quantity, i); err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
	}
	return nil
}

func (r *CartsPG) items(ctx context.Context, cartID string) ([]models.CartItem, error) {
	rows, err := r.DB.Query(ctx, `
		select product_id, quantity from cart_items where cart_id = $1 order by position
	`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var it models.CartItem
		if err := rows.Scan(&it.ProductID, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
