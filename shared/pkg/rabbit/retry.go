package rabbit

import (
	"context"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
)

const HeaderAttempts = "x-attempts"

var (
	ErrRetryScheduled = errors.New("scheduled retry")
	ErrSentToDLQ      = errors.New("max attempts reached, sent to dlq")
)

func GetAttempts(h amqp.Table) int32 {
	if h == nil {
		return 0
	}
	v, ok := h[HeaderAttempts]
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case int32:
		return t
	case int64:
		return int32(t)
	case int:
		return int32(t)
	case float64:
		return int32(t)
	default:
		return 0
	}
}

// RetryOrDLQ republishes d to the retry exchange under "<service>.<rk>" with
// attempts+1, or to the DLX under dlqRoutingKey once maxAttempts is reached.
// The original delivery is acked after a successful publish and requeued
// otherwise. The returned error tells the caller which path was taken.
func RetryOrDLQ(
	ctx context.Context,
	d amqp.Delivery,
	service string,
	maxAttempts int32,
	retryPub EventPublisher,
	dlqPub EventPublisher,
	dlqRoutingKey string,
) error {
	attempts := GetAttempts(d.Headers)

	pubCtx, cancel := WithTimeout(ctx)
	defer cancel()

	if attempts >= maxAttempts {
		if err := dlqPub.Publish(pubCtx, dlqRoutingKey, d.Body, amqp.Table{HeaderAttempts: attempts}); err != nil {
			_ = d.Nack(false, true)
			return err
		}
		_ = d.Ack(false)
		return ErrSentToDLQ
	}

	headers := amqp.Table{HeaderAttempts: attempts + 1}
	if err := retryPub.Publish(pubCtx, RetryKey(service, d.RoutingKey), d.Body, headers); err != nil {
		_ = d.Nack(false, true)
		return err
	}

	_ = d.Ack(false)
	return ErrRetryScheduled
}
