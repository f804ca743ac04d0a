package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"ecommerce-shop/services/outbox-worker/internal/metrics"
)

type countFunc func(ctx context.Context) (int, error)

func (f countFunc) CountPending(ctx context.Context) (int, error) { return f(ctx) }

func TestPendingEndpoint(t *testing.T) {
	s := &Server{Outbox: countFunc(func(context.Context) (int, error) { return 7, nil }), Log: zerolog.Nop()}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/outbox/pending", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"pending":7}`, rec.Body.String())
	assert.Equal(t, 7.0, testutil.ToFloat64(metrics.OutboxPending))
}

func TestPendingEndpoint_DBError(t *testing.T) {
	s := &Server{Outbox: countFunc(func(context.Context) (int, error) { return 0, errors.New("conn refused 10.0.0.1") }), Log: zerolog.Nop()}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/outbox/pending", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.1")
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	(&Server{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
