package repo

import (
	"context"
	"encoding/json"
)

// OutboxPG writes events into outbox_events on whatever DBTX it is bound to,
// so enqueueing inside a transaction commits the event with the business rows.
type OutboxPG struct {
	DB DBTX
}

func (o *OutboxPG) Enqueue(ctx context.Context, eventID, aggregateID, eventType string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	_, err = o.DB.Exec(ctx, `
		insert into outbox_events(
			id, aggregate_id, event_type, payload,
			attempts, next_attempt_at, created_at
		)
		values (
			$1::uuid, $2::uuid, $3, $4::jsonb,
			0, now(), now()
		)
	`, eventID, aggregateID, eventType, string(b))

	return err
}
