package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k1networth/techdesk/internal/shared/events"
)

type failedMark struct {
	id      int64
	retryAt time.Time
	msg     string
}

type fakeSource struct {
	batch    []Event
	sent     []int64
	failed   []failedMark
	claimErr error
}

func (f *fakeSource) ResetStuck(context.Context, time.Duration) (int64, error) { return 0, nil }

func (f *fakeSource) ClaimPending(context.Context, int) ([]Event, error) {
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	b := f.batch
	f.batch = nil
	return b, nil
}

func (f *fakeSource) MarkSent(_ context.Context, id int64) error {
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeSource) MarkFailed(_ context.Context, id int64, at time.Time, msg string) error {
	f.failed = append(f.failed, failedMark{id: id, retryAt: at, msg: msg})
	return nil
}

func (f *fakeSource) LagSeconds(context.Context) (float64, error) { return 0, nil }

type published struct {
	key     string
	value   []byte
	headers map[string]string
}

type fakePublisher struct {
	out    []published
	failOn map[string]bool
}

func (p *fakePublisher) Publish(_ context.Context, key string, value []byte, headers map[string]string) error {
	if p.failOn[key] {
		return errors.New("broker unavailable")
	}
	p.out = append(p.out, published{key: key, value: value, headers: headers})
	return nil
}

func newRelay(src Source, pub Publisher, now time.Time) (*Relay, *Metrics) {
	m := NewMetrics(prometheus.NewRegistry())
	return &Relay{
		Log:        slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Source:     src,
		Publisher:  pub,
		Metrics:    m,
		BatchSize:  10,
		MaxBackoff: time.Minute,
		now:        func() time.Time { return now },
	}, m
}

func TestRelayPublishesAndMarksSent(t *testing.T) {
	src := &fakeSource{batch: []Event{
		{ID: 1, EventID: "e1", Aggregate: "order", AggregateID: "ord-1", EventType: events.OrderCreated, Payload: json.RawMessage(`{"id":"ord-1"}`), Attempts: 1},
		{ID: 2, EventID: "e2", Aggregate: "order", AggregateID: "ord-1", EventType: events.OrderStatusChanged, RequestID: "rid", Payload: json.RawMessage(`{"from":"Aberto","to":"Em Andamento"}`), Attempts: 1},
	}}
	pub := &fakePublisher{}
	r, m := newRelay(src, pub, time.Now())

	assert.Equal(t, 2, r.Tick(context.Background()))
	assert.Equal(t, []int64{1, 2}, src.sent)
	require.Len(t, pub.out, 2)
	assert.Equal(t, "ord-1", pub.out[1].key)
	assert.Equal(t, events.OrderStatusChanged, pub.out[1].headers["event_type"])

	var env events.Envelope
	require.NoError(t, json.Unmarshal(pub.out[1].value, &env))
	assert.Equal(t, "e2", env.EventID)
	assert.Equal(t, "rid", env.RequestID)
	assert.JSONEq(t, `{"from":"Aberto","to":"Em Andamento"}`, string(env.Payload))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ClaimedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishedTotal.WithLabelValues(events.OrderCreated)))
}

func TestRelayBacksOffOnPublishFailure(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{batch: []Event{
		{ID: 7, EventID: "e7", AggregateID: "bad", EventType: events.OrderDeleted, Payload: json.RawMessage(`{}`), Attempts: 3},
		{ID: 8, EventID: "e8", AggregateID: "good", EventType: events.OrderDeleted, Payload: json.RawMessage(`{}`), Attempts: 1},
	}}
	pub := &fakePublisher{failOn: map[string]bool{"bad": true}}
	r, m := newRelay(src, pub, now)

	assert.Equal(t, 1, r.Tick(context.Background()))
	assert.Equal(t, []int64{8}, src.sent)
	require.Len(t, src.failed, 1)
	assert.Equal(t, int64(7), src.failed[0].id)
	assert.Equal(t, now.Add(4*time.Second), src.failed[0].retryAt)
	assert.Equal(t, "broker unavailable", src.failed[0].msg)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FailedTotal.WithLabelValues(events.OrderDeleted)))
}

func TestRelayClaimError(t *testing.T) {
	src := &fakeSource{claimErr: errors.New("db down")}
	r, m := newRelay(src, &fakePublisher{}, time.Now())

	assert.Equal(t, 0, r.Tick(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("claim")))
}
