package models

import "time"

type TicketLine struct {
	ProductID      string `json:"product_id"`
	Title          string `json:"title"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

type Ticket struct {
	ID             string       `json:"id"`
	Code           string       `json:"code"`
	AmountCents    int64        `json:"amount_cents"`
	PurchaserEmail string       `json:"purchaser"`
	PurchasedAt    time.Time    `json:"purchase_datetime"`
	Lines          []TicketLine `json:"lines"`
}
