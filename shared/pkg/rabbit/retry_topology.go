package rabbit

import amqp "github.com/rabbitmq/amqp091-go"

// DeclareRetryQueue declares a parking queue bound to ExchangeRetry with
// "<service>.<routingKey>". Messages wait ttlMs and are dead-lettered back
// to ExchangeEvents under routingKey.
func DeclareRetryQueue(ch *amqp.Channel, service, routingKey string, ttlMs int) error {
	q, err := ch.QueueDeclare(RetryQueueName(service, routingKey), true, false, false, false, retryArgs(routingKey, ttlMs))
	if err != nil {
		return err
	}
	return ch.QueueBind(q.Name, RetryKey(service, routingKey), ExchangeRetry, false, nil)
}

func RetryKey(service, routingKey string) string {
	return service + "." + routingKey
}

func RetryQueueName(service, routingKey string) string {
	return service + ".retry." + routingKey
}

func retryArgs(routingKey string, ttlMs int) amqp.Table {
	return amqp.Table{
		"x-message-ttl":             ttlMs,
		"x-dead-letter-exchange":    ExchangeEvents,
		"x-dead-letter-routing-key": routingKey,
	}
}
