// Package render turns shop events into plain-text emails.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ecommerce-shop/shared/pkg/models"
)

var ErrUnknownType = errors.New("no template for event type")

type Message struct {
	To      string
	Subject string
	Body    string
}

// Money formats integer cents as a two-decimal amount.
func Money(cents int64) string {
	return "$" + decimal.New(cents, -2).StringFixed(2)
}

func Render(evt models.EventRaw) (Message, error) {
	switch evt.Type {
	case models.EventPurchaseCompleted:
		var p models.PurchaseCompletedPayload
		if err := decode(evt, &p); err != nil {
			return Message{}, err
		}
		return purchase(p), nil
	case models.EventUserDeleted, models.EventUserInactiveDeleted:
		var p models.UserDeletedPayload
		if err := decode(evt, &p); err != nil {
			return Message{}, err
		}
		return accountDeleted(p), nil
	case models.EventPasswordResetRequested:
		var p models.PasswordResetPayload
		if err := decode(evt, &p); err != nil {
			return Message{}, err
		}
		return passwordReset(p), nil
	}
	return Message{}, fmt.Errorf("%w: %s", ErrUnknownType, evt.Type)
}

func decode(evt models.EventRaw, dst any) error {
	if err := json.Unmarshal(evt.Payload, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}
	return nil
}

func greeting(name string) string {
	if name == "" {
		return "Hello,"
	}
	return "Hello " + name + ","
}

func purchase(p models.PurchaseCompletedPayload) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nThanks for your purchase. Ticket %s\n\n", greeting(p.Name), p.TicketCode)
	for _, l := range p.Lines {
		fmt.Fprintf(&b, "  %d x %s @ %s = %s\n", l.Quantity, l.Title, Money(l.UnitPriceCents), Money(l.SubtotalCents))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", Money(p.AmountCents))
	fmt.Fprintf(&b, "Date: %s\n", p.PurchasedAt.UTC().Format("2006-01-02 15:04 MST"))
	return Message{To: p.Email, Subject: "Your purchase " + p.TicketCode, Body: b.String()}
}

func accountDeleted(p models.UserDeletedPayload) Message {
	reason := "at your request or by an administrator"
	if p.Reason == models.DeleteReasonInactivity {
		reason = "because it has been inactive"
	}
	body := fmt.Sprintf("%s\n\nYour account has been deleted %s.\nYou can register again at any time.\n", greeting(p.Name), reason)
	return Message{To: p.Email, Subject: "Your account was deleted", Body: body}
}

func passwordReset(p models.PasswordResetPayload) Message {
	body := fmt.Sprintf("%s\n\nUse the link below to choose a new password:\n\n%s\n\nThe link expires at %s.\n",
		greeting(p.Name), p.Link, p.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"))
	return Message{To: p.Email, Subject: "Reset your password", Body: body}
}
