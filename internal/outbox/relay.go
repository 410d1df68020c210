package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Source is the part of Store the relay needs.
type Source interface {
	ResetStuck(ctx context.Context, processingTimeout time.Duration) (int64, error)
	ClaimPending(ctx context.Context, batchSize int) ([]Event, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, nextRetryAt time.Time, errMsg string) error
	LagSeconds(ctx context.Context) (float64, error)
}

type Publisher interface {
	Publish(ctx context.Context, key string, value []byte, headers map[string]string) error
}

// Relay moves claimed outbox rows to the broker. Rows that fail to publish go
// back to pending with an exponential delay.
type Relay struct {
	Log       *slog.Logger
	Source    Source
	Publisher Publisher
	Metrics   *Metrics

	BatchSize         int
	ProcessingTimeout time.Duration
	MaxBackoff        time.Duration

	now func() time.Time
}

func (r *Relay) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

// Run ticks every interval until ctx is done.
func (r *Relay) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Tick(ctx)
		}
	}
}

// Tick runs one poll cycle and returns how many events were published.
func (r *Relay) Tick(ctx context.Context) int {
	r.inc(func(m *Metrics) { m.PollsTotal.Inc() })

	if n, err := r.Source.ResetStuck(ctx, r.ProcessingTimeout); err != nil {
		r.opError("requeue", err)
	} else if n > 0 {
		r.inc(func(m *Metrics) { m.RequeuedTotal.Add(float64(n)) })
		r.Log.Warn("outbox_requeued_stuck", slog.Int64("count", n))
	}

	batch, err := r.Source.ClaimPending(ctx, r.BatchSize)
	if err != nil {
		r.opError("claim", err)
		return 0
	}
	r.inc(func(m *Metrics) { m.ClaimedTotal.Add(float64(len(batch))) })

	sent := 0
	for _, ev := range batch {
		if r.publish(ctx, ev) {
			sent++
		}
	}

	if lag, err := r.Source.LagSeconds(ctx); err != nil {
		r.opError("lag", err)
	} else {
		r.inc(func(m *Metrics) { m.LagSeconds.Set(lag) })
	}
	return sent
}

func (r *Relay) publish(ctx context.Context, ev Event) bool {
	log := r.Log.With(
		slog.Int64("id", ev.ID),
		slog.String("event_id", ev.EventID),
		slog.String("event_type", ev.EventType),
		slog.String("aggregate_id", ev.AggregateID),
		slog.Int("attempts", ev.Attempts),
	)
	if ev.RequestID != "" {
		log = log.With(slog.String("request_id", ev.RequestID))
	}

	value, err := json.Marshal(ev.Envelope())
	if err == nil {
		err = r.Publisher.Publish(ctx, ev.AggregateID, value, map[string]string{
			"event_type": ev.EventType,
			"event_id":   ev.EventID,
		})
	}
	if err != nil {
		r.inc(func(m *Metrics) { m.FailedTotal.WithLabelValues(ev.EventType).Inc() })
		retryAt := r.clock().Add(NextRetry(ev.Attempts, r.MaxBackoff)).UTC()
		log.Warn("outbox_publish_failed", slog.String("err", err.Error()), slog.Time("next_retry_at", retryAt))
		if mErr := r.Source.MarkFailed(ctx, ev.ID, retryAt, err.Error()); mErr != nil {
			r.opError("mark_failed", mErr)
		}
		return false
	}

	if err := r.Source.MarkSent(ctx, ev.ID); err != nil {
		// The row is requeued by ResetStuck and published again; consumers dedupe by event id.
		r.opError("mark_sent", err)
		return false
	}
	r.inc(func(m *Metrics) { m.PublishedTotal.WithLabelValues(ev.EventType).Inc() })
	log.Info("outbox_published")
	return true
}

func (r *Relay) opError(op string, err error) {
	r.inc(func(m *Metrics) { m.ErrorsTotal.WithLabelValues(op).Inc() })
	r.Log.Error("outbox_"+op+"_failed", slog.String("err", err.Error()))
}

func (r *Relay) inc(f func(m *Metrics)) {
	if r.Metrics != nil {
		f(r.Metrics)
	}
}
