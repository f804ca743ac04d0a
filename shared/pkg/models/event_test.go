package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPurchaseCompleted_Envelope(t *testing.T) {
	tk := &Ticket{
		ID:             "t1",
		Code:           "c1",
		AmountCents:    2500,
		PurchaserEmail: "a@b.c",
		PurchasedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Lines:          []TicketLine{{ProductID: "p1", Title: "mug", Quantity: 2, UnitPriceCents: 1000, SubtotalCents: 2000}},
	}

	evt := NewPurchaseCompleted(tk, "Ana Diaz")
	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, EventPurchaseCompleted, evt.Type)
	assert.Equal(t, 1, evt.Version)
	assert.Equal(t, "t1", evt.AggregateID)

	b, err := json.Marshal(evt)
	require.NoError(t, err)

	var raw EventRaw
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, evt.ID, raw.ID)

	var p PurchaseCompletedPayload
	require.NoError(t, json.Unmarshal(raw.Payload, &p))
	assert.Equal(t, "c1", p.TicketCode)
	assert.Equal(t, "Ana Diaz", p.Name)
	assert.Equal(t, int64(2500), p.AmountCents)
	assert.Len(t, p.Lines, 1)
}

func TestUserDeletedEvents_Reason(t *testing.T) {
	u := User{ID: "u1", Email: "x@y.z", FirstName: "Ana"}

	admin := NewUserDeleted(u)
	assert.Equal(t, EventUserDeleted, admin.Type)
	assert.Equal(t, DeleteReasonAdmin, admin.Payload.Reason)

	sweep := NewUserInactiveDeleted(u)
	assert.Equal(t, EventUserInactiveDeleted, sweep.Type)
	assert.Equal(t, DeleteReasonInactivity, sweep.Payload.Reason)
	assert.Equal(t, "Ana", sweep.Payload.Name)
	assert.NotEqual(t, admin.ID, sweep.ID)
}

func TestCart_FindAndClone(t *testing.T) {
	c := &Cart{ID: "c", Items: []CartItem{{ProductID: "a", Quantity: 1}, {ProductID: "b", Quantity: 2}}}

	i, ok := c.Find("b")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	_, ok = c.Find("z")
	assert.False(t, ok)

	cl := c.Clone()
	cl.Items[0].Quantity = 9
	assert.Equal(t, 1, c.Items[0].Quantity)
}

func TestUser_FullNameAndRole(t *testing.T) {
	assert.Equal(t, "Ana Diaz", User{FirstName: "Ana", LastName: "Diaz"}.FullName())
	assert.Equal(t, "Diaz", User{LastName: "Diaz"}.FullName())
	assert.Equal(t, "Ana", User{FirstName: "Ana"}.FullName())

	assert.True(t, RoleUser.Valid())
	assert.True(t, RolePremium.Valid())
	assert.False(t, Role("admin").Valid())
}
