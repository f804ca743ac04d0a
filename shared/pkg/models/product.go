package models

type Product struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
	PriceCents  int64  `json:"price_cents"`
	Stock       int    `json:"stock"`
	Status      bool   `json:"status"`
}
