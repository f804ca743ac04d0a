package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	ResultSuccess           = "success"
	ResultEmptyCart         = "empty_cart"
	ResultInsufficientStock = "insufficient_stock"
	ResultError             = "error"
)

var (
	CheckoutsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_checkouts_total",
		Help: "Checkout attempts by result",
	}, []string{"result"})
	CheckoutAmountCents = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shop_checkout_amount_cents",
		Help:    "Ticket totals of successful checkouts",
		Buckets: prometheus.ExponentialBuckets(100, 4, 8),
	})
	UsersSweptTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shop_users_swept_total",
		Help: "Users deleted by the inactivity sweep",
	})
)

func init() {
	prometheus.MustRegister(CheckoutsTotal, CheckoutAmountCents, UsersSweptTotal)
}
