package outbox

import (
	"context"
	"math"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"ecommerce-shop/services/outbox-worker/internal/metrics"
	"ecommerce-shop/shared/pkg/rabbit"
)

const (
	HeaderOutboxID    = "x-outbox-id"
	HeaderAggregateID = "x-aggregate-id"
)

// Runner relays committed outbox rows to the events exchange, one routing
// key per event type.
type Runner struct {
	Log   zerolog.Logger
	Store Store

	EventsPub rabbit.EventPublisher

	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	BackoffMax   time.Duration

	Now func() time.Time
}

func (r *Runner) Run(ctx context.Context) {
	t := time.NewTicker(r.PollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Log.Info().Msg("outbox runner stopped")
			return
		case <-t.C:
			if err := r.Tick(ctx); err != nil {
				r.Log.Error().Err(err).Msg("outbox tick failed")
			}
		}
	}
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Tick processes one batch.
func (r *Runner) Tick(ctx context.Context) error {
	r.updatePending(ctx)

	return r.Store.WithBatch(ctx, func(ctx context.Context, b Batch) error {
		batch, err := b.Claim(ctx, r.BatchSize)
		if err != nil {
			return err
		}

		for _, e := range batch {
			if e.Attempts >= r.MaxAttempts {
				if err := b.MarkDropped(ctx, e.ID, "max attempts reached"); err != nil {
					return err
				}
				metrics.OutboxDroppedTotal.Inc()
				r.Log.Warn().Str("event_id", e.ID).Str("type", e.EventType).Int("attempts", e.Attempts).Msg("outbox drop (max attempts), marked sent")
				continue
			}

			pubCtx, cancel := rabbit.WithTimeout(ctx)
			err := r.EventsPub.Publish(pubCtx, e.EventType, e.Payload, amqp.Table{
				HeaderOutboxID:        e.ID,
				HeaderAggregateID:     e.AggregateID,
				rabbit.HeaderAttempts: int32(0),
			})
			cancel()

			if err == nil {
				metrics.OutboxSentTotal.WithLabelValues(e.EventType).Inc()
				if err := b.MarkSent(ctx, e.ID); err != nil {
					return err
				}
				continue
			}

			metrics.OutboxPublishErrorsTotal.Inc()
			next := r.now().Add(backoff(e.Attempts+1, r.BackoffMax))
			if err2 := b.Reschedule(ctx, e.ID, next, err.Error()); err2 != nil {
				return err2
			}
			r.Log.Error().Err(err).Str("event_id", e.ID).Str("type", e.EventType).Int("attempts", e.Attempts+1).Time("next", next).Msg("publish failed -> retry scheduled")
		}
		return nil
	})
}

func (r *Runner) updatePending(ctx context.Context) {
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	n, err := r.Store.CountPending(ctx2)
	if err != nil {
		r.Log.Warn().Err(err).Msg("count pending failed")
		return
	}
	metrics.OutboxPending.Set(float64(n))
}

func backoff(attempt int, max time.Duration) time.Duration {
	sec := math.Pow(2, float64(attempt))
	d := time.Duration(sec) * time.Second
	if d > max {
		return max
	}
	if d < time.Second {
		return time.Second
	}
	return d
}
