package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the pool-backed Store. Cache may be nil, in which case product
// reads always hit Postgres.
type PGStore struct {
	Pool  *pgxpool.Pool
	Cache *ProductsCached
}

func (s *PGStore) Users() Users     { return &UsersPG{DB: s.Pool} }
func (s *PGStore) Carts() Carts     { return &CartsPG{DB: s.Pool} }
func (s *PGStore) Tickets() Tickets { return &TicketsPG{DB: s.Pool} }
func (s *PGStore) Outbox() Outbox   { return &OutboxPG{DB: s.Pool} }

func (s *PGStore) Products() Products {
	if s.Cache != nil {
		return s.Cache
	}
	return &ProductsPG{DB: s.Pool}
}

func (s *PGStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ts := &txStore{tx: tx}
	if err := fn(ctx, ts); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if s.Cache != nil {
		s.Cache.Invalidate(ctx, ts.touched...)
	}
	return nil
}

// txStore reads products straight from the transaction and records which
// ones changed so their cache entries can be dropped after commit.
type txStore struct {
	tx      pgx.Tx
	touched []string
}

func (s *txStore) Users() Users       { return &UsersPG{DB: s.tx} }
func (s *txStore) Carts() Carts       { return &CartsPG{DB: s.tx} }
func (s *txStore) Tickets() Tickets   { return &TicketsPG{DB: s.tx} }
func (s *txStore) Outbox() Outbox     { return &OutboxPG{DB: s.tx} }
func (s *txStore) Products() Products { return &txProducts{ProductsPG: ProductsPG{DB: s.tx}, s: s} }

func (s *txStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return fn(ctx, s)
}

type txProducts struct {
	ProductsPG
	s *txStore
}

func (p *txProducts) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	ok, err := p.ProductsPG.DecrementStock(ctx, id, qty)
	if ok {
		p.s.touched = append(p.s.touched, id)
	}
	return ok, err
}
