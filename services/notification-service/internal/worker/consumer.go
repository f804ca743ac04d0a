package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"ecommerce-shop/services/notification-service/internal/mail"
	"ecommerce-shop/services/notification-service/internal/metrics"
	"ecommerce-shop/services/notification-service/internal/render"
	"ecommerce-shop/shared/pkg/models"
	"ecommerce-shop/shared/pkg/rabbit"
)

// Dedupe records event ids that were already handled.
type Dedupe interface {
	SetOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

type Consumer struct {
	Log    zerolog.Logger
	Mailer mail.Sender
	Dedupe Dedupe

	Service     string
	MaxAttempts int
	DedupeTTL   time.Duration
	SendTimeout time.Duration

	RetryPub rabbit.EventPublisher
	DLQPub   rabbit.EventPublisher
	DLQKey   string
}

func DedupeKey(eventID string) string { return "notif:" + eventID }

func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			c.Log.Info().Msg("notification consumer stopped")
			return
		case d, ok := <-deliveries:
			if !ok {
				c.Log.Info().Msg("deliveries closed")
				return
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var evt models.EventRaw
	if err := json.Unmarshal(d.Body, &evt); err != nil {
		c.Log.Error().Err(err).Str("rk", d.RoutingKey).Msg("bad json -> dlq")
		c.dlq(ctx, d, d.RoutingKey)
		return
	}
	if evt.ID == "" {
		c.Log.Error().Str("rk", d.RoutingKey).Msg("missing event id -> dlq")
		c.dlq(ctx, d, d.RoutingKey)
		return
	}
	log := c.Log.With().Str("event_id", evt.ID).Str("type", evt.Type).Logger()

	msg, err := render.Render(evt)
	if errors.Is(err, render.ErrUnknownType) {
		_ = d.Ack(false)
		metrics.NotificationsTotal.WithLabelValues(evt.Type, metrics.ResultSkipped).Inc()
		log.Debug().Msg("no template, skipped")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("render failed -> dlq")
		c.dlq(ctx, d, evt.Type)
		return
	}

	key := DedupeKey(evt.ID)
	first, err := c.Dedupe.SetOnce(ctx, key, c.DedupeTTL)
	if err != nil {
		log.Error().Err(err).Msg("dedupe check failed -> retry/dlq")
		c.retry(ctx, d, evt.Type)
		return
	}
	if !first {
		_ = d.Ack(false)
		metrics.NotificationsTotal.WithLabelValues(evt.Type, metrics.ResultDuplicate).Inc()
		log.Debug().Msg("duplicate event ignored")
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, c.SendTimeout)
	err = c.Mailer.Send(sendCtx, msg)
	cancel()
	if err != nil {
		// free the marker so the retried delivery is not taken for a duplicate
		if derr := c.Dedupe.Delete(ctx, key); derr != nil {
			log.Warn().Err(derr).Msg("dedupe marker cleanup failed")
		}
		log.Error().Err(err).Int32("attempts", rabbit.GetAttempts(d.Headers)).Msg("send failed -> retry/dlq")
		c.retry(ctx, d, evt.Type)
		return
	}

	_ = d.Ack(false)
	metrics.NotificationsTotal.WithLabelValues(evt.Type, metrics.ResultSent).Inc()
	log.Info().Msg("notification sent")
}

func (c *Consumer) retry(ctx context.Context, d amqp.Delivery, eventType string) {
	err := rabbit.RetryOrDLQ(ctx, d, c.Service, int32(c.MaxAttempts), c.RetryPub, c.DLQPub, c.DLQKey)
	c.count(eventType, err)
}

func (c *Consumer) dlq(ctx context.Context, d amqp.Delivery, eventType string) {
	err := rabbit.RetryOrDLQ(ctx, d, c.Service, 0, c.RetryPub, c.DLQPub, c.DLQKey)
	c.count(eventType, err)
}

func (c *Consumer) count(eventType string, err error) {
	switch {
	case errors.Is(err, rabbit.ErrRetryScheduled):
		metrics.NotificationsTotal.WithLabelValues(eventType, metrics.ResultRetry).Inc()
	case errors.Is(err, rabbit.ErrSentToDLQ):
		metrics.NotificationsTotal.WithLabelValues(eventType, metrics.ResultDLQ).Inc()
	default:
		c.Log.Error().Err(err).Str("type", eventType).Msg("retry publish failed, delivery requeued")
	}
}
