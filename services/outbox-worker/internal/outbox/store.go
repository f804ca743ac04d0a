package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

type EventRow struct {
	ID          string
	AggregateID string
	EventType   string
	Payload     []byte
	Attempts    int
}

// Batch is the set of operations allowed on rows claimed by one tick.
type Batch interface {
	Claim(ctx context.Context, limit int) ([]EventRow, error)
	MarkSent(ctx context.Context, id string) error
	MarkDropped(ctx context.Context, id, reason string) error
	Reschedule(ctx context.Context, id string, next time.Time, lastErr string) error
}

type Store interface {
	// WithBatch runs fn in a transaction; claimed rows stay locked until it returns.
	WithBatch(ctx context.Context, fn func(ctx context.Context, b Batch) error) error
	CountPending(ctx context.Context) (int, error)
}

// DB is the part of *pgxpool.Pool the store needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGStore struct {
	DB DB
}

func (s *PGStore) WithBatch(ctx context.Context, fn func(ctx context.Context, b Batch) error) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &pgBatch{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PGStore) CountPending(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, `select count(*) from outbox_events where sent_at is null`).Scan(&n)
	return n, err
}

type pgBatch struct {
	tx pgx.Tx
}

func (b *pgBatch) Claim(ctx context.Context, limit int) ([]EventRow, error) {
	rows, err := b.tx.Query(ctx, `
		select id::text, aggregate_id::text, event_type, payload::text, attempts
		from outbox_events
		where sent_at is null and next_attempt_at <= now()
		order by created_at
		limit $1
		for update skip locked
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batch []EventRow
	for rows.Next() {
		var e EventRow
		var payloadText string
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &payloadText, &e.Attempts); err != nil {
			return nil, err
		}
		e.Payload = []byte(payloadText)
		batch = append(batch, e)
	}
	return batch, rows.Err()
}

func (b *pgBatch) MarkSent(ctx context.Context, id string) error {
	_, err := b.tx.Exec(ctx, `update outbox_events set sent_at=now(), last_error=null where id=$1`, id)
	return err
}

func (b *pgBatch) MarkDropped(ctx context.Context, id, reason string) error {
	_, err := b.tx.Exec(ctx, `update outbox_events set last_error=$2, sent_at=now() where id=$1`, id, reason)
	return err
}

func (b *pgBatch) Reschedule(ctx context.Context, id string, next time.Time, lastErr string) error {
	_, err := b.tx.Exec(ctx, `
		update outbox_events
		set attempts = attempts + 1,
		    next_attempt_at = $2,
		    last_error = $3
		where id = $1
	`, id, next, lastErr)
	return err
}
