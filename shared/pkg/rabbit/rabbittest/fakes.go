// Package rabbittest holds in-memory stand-ins for broker interactions.
package rabbittest

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Acker records what happened to deliveries built with Delivery.
type Acker struct {
	mu       sync.Mutex
	Acked    int
	Nacked   int
	Requeued int
	Rejected int
}

func (a *Acker) Ack(uint64, bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Acked++
	return nil
}

func (a *Acker) Nack(_ uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Nacked++
	if requeue {
		a.Requeued++
	}
	return nil
}

func (a *Acker) Reject(_ uint64, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Rejected++
	if requeue {
		a.Requeued++
	}
	return nil
}

func Delivery(a *Acker, routingKey string, body []byte, headers amqp.Table) amqp.Delivery {
	return amqp.Delivery{
		Acknowledger: a,
		RoutingKey:   routingKey,
		Body:         body,
		Headers:      headers,
	}
}

type Published struct {
	RoutingKey string
	Body       []byte
	Headers    amqp.Table
}

// Publisher captures publishes; Err, when set, fails every call.
type Publisher struct {
	mu   sync.Mutex
	Err  error
	Msgs []Published
}

func (p *Publisher) Publish(_ context.Context, routingKey string, body []byte, headers amqp.Table) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Msgs = append(p.Msgs, Published{RoutingKey: routingKey, Body: body, Headers: headers})
	return nil
}

func (p *Publisher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Msgs)
}
