package repo

import (
	"context"
	"errors"
	"time"

	"ecommerce-shop/shared/pkg/cache"
	"ecommerce-shop/shared/pkg/models"

	"github.com/rs/zerolog"
)

// ProductsCached is a Redis read-through cache over another Products.
// Redis errors fall back to the underlying store.
type ProductsCached struct {
	Next  Products
	Redis *cache.Redis
	TTL   time.Duration
	Log   zerolog.Logger
}

func ProductKey(id string) string { return "product:" + id }

func (r *ProductsCached) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := r.Redis.GetJSON(ctx, ProductKey(id), &p)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		r.Log.Warn().Err(err).Str("product_id", id).Msg("product cache read failed")
	}

	got, err := r.Next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.Redis.SetJSON(ctx, ProductKey(id), got, r.TTL); err != nil {
		r.Log.Warn().Err(err).Str("product_id", id).Msg("product cache backfill failed")
	}
	return got, nil
}

func (r *ProductsCached) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	ok, err := r.Next.DecrementStock(ctx, id, qty)
	if err != nil {
		return false, err
	}
	r.Invalidate(ctx, id)
	return ok, nil
}

func (r *ProductsCached) Invalidate(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, ProductKey(id))
	}
	if err := r.Redis.Delete(ctx, keys...); err != nil {
		r.Log.Warn().Err(err).Strs("product_ids", ids).Msg("product cache invalidation failed")
	}
}
