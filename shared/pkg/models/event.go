package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventPurchaseCompleted      = "purchase.completed"
	EventUserDeleted            = "user.deleted"
	EventUserInactiveDeleted    = "user.inactive_deleted"
	EventPasswordResetRequested = "user.password_reset_requested"
)

type Event[T any] struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Version int       `json:"version"`
	Time    time.Time `json:"time"`

	TraceID     string `json:"trace_id,omitempty"`
	AggregateID string `json:"aggregate_id"`

	Payload T `json:"payload"`
}

// EventRaw is used by consumers that dispatch on Type before decoding Payload.
type EventRaw = Event[json.RawMessage]

func newEvent[T any](eventType, aggregateID string, payload T) Event[T] {
	return Event[T]{
		ID:          uuid.NewString(),
		Type:        eventType,
		Version:     1,
		Time:        time.Now().UTC(),
		AggregateID: aggregateID,
		Payload:     payload,
	}
}

type PurchaseCompletedPayload struct {
	TicketCode  string       `json:"ticket_code"`
	Email       string       `json:"email"`
	Name        string       `json:"name"`
	AmountCents int64        `json:"amount_cents"`
	PurchasedAt time.Time    `json:"purchased_at"`
	Lines       []TicketLine `json:"lines"`
}

func NewPurchaseCompleted(t *Ticket, purchaserName string) Event[PurchaseCompletedPayload] {
	return newEvent(EventPurchaseCompleted, t.ID, PurchaseCompletedPayload{
		TicketCode:  t.Code,
		Email:       t.PurchaserEmail,
		Name:        purchaserName,
		AmountCents: t.AmountCents,
		PurchasedAt: t.PurchasedAt,
		Lines:       t.Lines,
	})
}

type UserDeletedPayload struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

const (
	DeleteReasonAdmin      = "admin"
	DeleteReasonInactivity = "inactivity"
)

func NewUserDeleted(u User) Event[UserDeletedPayload] {
	return newEvent(EventUserDeleted, u.ID, UserDeletedPayload{
		Email: u.Email, Name: u.FullName(), Reason: DeleteReasonAdmin,
	})
}

func NewUserInactiveDeleted(u User) Event[UserDeletedPayload] {
	return newEvent(EventUserInactiveDeleted, u.ID, UserDeletedPayload{
		Email: u.Email, Name: u.FullName(), Reason: DeleteReasonInactivity,
	})
}

type PasswordResetPayload struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewPasswordResetRequested(u User, link string, expires time.Time) Event[PasswordResetPayload] {
	return newEvent(EventPasswordResetRequested, u.ID, PasswordResetPayload{
		Email: u.Email, Name: u.FullName(), Link: link, ExpiresAt: expires,
	})
}
