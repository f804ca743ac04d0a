package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	ResultSent      = "sent"
	ResultDuplicate = "duplicate"
	ResultSkipped   = "skipped"
	ResultRetry     = "retry"
	ResultDLQ       = "dlq"
)

var NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "notifications_total",
	Help: "Notification deliveries by event type and result",
}, []string{"event_type", "result"})

func init() {
	prometheus.MustRegister(NotificationsTotal)
}
