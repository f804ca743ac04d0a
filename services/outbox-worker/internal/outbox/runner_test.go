package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-shop/services/outbox-worker/internal/metrics"
	"ecommerce-shop/shared/pkg/rabbit"
	"ecommerce-shop/shared/pkg/rabbit/rabbittest"
)

type rescheduled struct {
	next    time.Time
	lastErr string
}

type fakeStore struct {
	rows        []EventRow
	sent        []string
	dropped     []string
	rescheduled map[string]rescheduled
	claimErr    error
	committed   bool
	claimLimit  int
}

func (f *fakeStore) WithBatch(ctx context.Context, fn func(ctx context.Context, b Batch) error) error {
	if err := fn(ctx, f); err != nil {
		return err
	}
	f.committed = true
	return nil
}

func (f *fakeStore) CountPending(context.Context) (int, error) { return len(f.rows), nil }

func (f *fakeStore) Claim(_ context.Context, limit int) ([]EventRow, error) {
	f.claimLimit = limit
	return f.rows, f.claimErr
}

func (f *fakeStore) MarkSent(_ context.Context, id string) error {
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeStore) MarkDropped(_ context.Context, id, _ string) error {
	f.dropped = append(f.dropped, id)
	return nil
}

func (f *fakeStore) Reschedule(_ context.Context, id string, next time.Time, lastErr string) error {
	if f.rescheduled == nil {
		f.rescheduled = map[string]rescheduled{}
	}
	f.rescheduled[id] = rescheduled{next: next, lastErr: lastErr}
	return nil
}

var tickNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newRunner(s Store, pub rabbit.EventPublisher) *Runner {
	return &Runner{
		Log: zerolog.Nop(), Store: s, EventsPub: pub,
		PollInterval: time.Millisecond, BatchSize: 25, MaxAttempts: 3, BackoffMax: time.Minute,
		Now: func() time.Time { return tickNow },
	}
}

func TestTick_PublishesAndMarksSent(t *testing.T) {
	s := &fakeStore{rows: []EventRow{
		{ID: "e1", AggregateID: "t1", EventType: "purchase.completed", Payload: []byte(`{"id":"e1"}`)},
		{ID: "e2", AggregateID: "u1", EventType: "user.deleted", Payload: []byte(`{"id":"e2"}`)},
	}}
	pub := &rabbittest.Publisher{}
	before := testutil.ToFloat64(metrics.OutboxSentTotal.WithLabelValues("purchase.completed"))

	require.NoError(t, newRunner(s, pub).Tick(context.Background()))

	assert.True(t, s.committed)
	assert.Equal(t, 25, s.claimLimit)
	assert.Equal(t, []string{"e1", "e2"}, s.sent)
	require.Equal(t, 2, pub.Count())
	assert.Equal(t, "purchase.completed", pub.Msgs[0].RoutingKey)
	assert.Equal(t, `{"id":"e1"}`, string(pub.Msgs[0].Body))
	assert.Equal(t, "e1", pub.Msgs[0].Headers[HeaderOutboxID])
	assert.Equal(t, "t1", pub.Msgs[0].Headers[HeaderAggregateID])
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.OutboxSentTotal.WithLabelValues("purchase.completed")))
}

func TestTick_PublishFailureSchedulesRetry(t *testing.T) {
	s := &fakeStore{rows: []EventRow{{ID: "e1", EventType: "user.deleted", Attempts: 2}}}
	pub := &rabbittest.Publisher{Err: errors.New("channel closed")}

	require.NoError(t, newRunner(s, pub).Tick(context.Background()))

	assert.Empty(t, s.sent)
	require.Contains(t, s.rescheduled, "e1")
	assert.Equal(t, tickNow.Add(8*time.Second), s.rescheduled["e1"].next)
	assert.Equal(t, "channel closed", s.rescheduled["e1"].lastErr)
}

func TestTick_DropsAfterMaxAttempts(t *testing.T) {
	s := &fakeStore{rows: []EventRow{{ID: "e1", EventType: "user.deleted", Attempts: 3}}}
	pub := &rabbittest.Publisher{}

	require.NoError(t, newRunner(s, pub).Tick(context.Background()))

	assert.Equal(t, []string{"e1"}, s.dropped)
	assert.Zero(t, pub.Count())
}

func TestTick_ClaimErrorRollsBack(t *testing.T) {
	s := &fakeStore{claimErr: errors.New("deadlock detected")}

	err := newRunner(s, &rabbittest.Publisher{}).Tick(context.Background())
	assert.EqualError(t, err, "deadlock detected")
	assert.False(t, s.committed)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := &fakeStore{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		newRunner(s, &rabbittest.Publisher{}).Run(ctx)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestBackoff(t *testing.T) {
	cases := map[int]time.Duration{
		0:  time.Second,
		1:  2 * time.Second,
		3:  8 * time.Second,
		5:  32 * time.Second,
		6:  time.Minute,
		20: time.Minute,
	}
	for attempt, want := range cases {
		assert.Equal(t, want, backoff(attempt, time.Minute), "attempt %d", attempt)
	}
}
