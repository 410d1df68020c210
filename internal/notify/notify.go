// Package notify turns domain events from the broker into user notifications.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/k1networth/techdesk/internal/shared/events"
)

type Deduper interface {
	Begin(ctx context.Context, env events.Envelope) (bool, error)
	Done(ctx context.Context, eventID string) error
	Failed(ctx context.Context, eventID, errMsg string) error
}

// Notification is what a user would be shown for an event.
type Notification struct {
	EventID string
	OrderID string
	Title   string
	Body    string
}

// Build renders the notification for env. ok is false for events users are
// not notified about.
func Build(env events.Envelope) (n Notification, ok bool, err error) {
	n = Notification{EventID: env.EventID, OrderID: env.AggregateID}
	switch env.EventType {
	case events.OrderCreated:
		var o struct {
			Title string `json:"title"`
		}
		if err := json.Unmarshal(env.Payload, &o); err != nil {
			return Notification{}, false, fmt.Errorf("decode %s: %w", env.EventType, err)
		}
		n.Title = "Pedido criado"
		n.Body = fmt.Sprintf("Seu pedido %q foi registrado.", o.Title)
		return n, true, nil

	case events.OrderStatusChanged:
		var sc events.StatusChanged
		if err := json.Unmarshal(env.Payload, &sc); err != nil {
			return Notification{}, false, fmt.Errorf("decode %s: %w", env.EventType, err)
		}
		n.Title = "Status do pedido atualizado"
		n.Body = fmt.Sprintf("Seu pedido mudou de %s para %s.", sc.From, sc.To)
		return n, true, nil
	}
	return Notification{}, false, nil
}

type Metrics struct {
	processed *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		processed: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "notify_processed_total", Help: "Consumed events by type and outcome."},
			[]string{"event_type", "status"},
		),
	}
	reg.MustRegister(m.processed)
	return m
}

func (m *Metrics) observe(eventType, status string) {
	if m == nil {
		return
	}
	m.processed.WithLabelValues(eventType, status).Inc()
}

type Processor struct {
	Log     *slog.Logger
	Dedupe  Deduper
	Metrics *Metrics
}

// Handle processes one broker message. A nil error means the offset can be committed.
func (p *Processor) Handle(ctx context.Context, value []byte) error {
	var env events.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		// Poison message: nothing to retry.
		p.Metrics.observe("unknown", "invalid")
		p.Log.Error("notify_decode_failed", slog.String("err", err.Error()))
		return nil
	}

	status, err := p.handle(ctx, env)
	p.Metrics.observe(env.EventType, status)
	return err
}

func (p *Processor) handle(ctx context.Context, env events.Envelope) (string, error) {
	log := p.Log.With(slog.String("event_id", env.EventID), slog.String("event_type", env.EventType))
	if env.RequestID != "" {
		log = log.With(slog.String("request_id", env.RequestID))
	}

	fresh, err := p.Dedupe.Begin(ctx, env)
	if err != nil {
		log.Error("notify_begin_failed", slog.String("err", err.Error()))
		return "error", err
	}
	if !fresh {
		log.Info("notify_skip_duplicate")
		return "duplicate", nil
	}

	status := "ok"
	n, ok, err := Build(env)
	switch {
	case err != nil:
		// A payload that does not decode will not decode on redelivery either.
		log.Error("notify_build_failed", slog.String("err", err.Error()))
		status = "invalid"
	case !ok:
		status = "ignored"
	default:
		log.Info("notification_sent",
			slog.String("order_id", n.OrderID),
			slog.String("title", n.Title),
			slog.String("body", n.Body),
		)
	}

	if err := p.Dedupe.Done(ctx, env.EventID); err != nil {
		log.Error("notify_mark_done_failed", slog.String("err", err.Error()))
		if fErr := p.Dedupe.Failed(ctx, env.EventID, err.Error()); fErr != nil {
			log.Error("notify_mark_failed_failed", slog.String("err", fErr.Error()))
		}
		return "error", err
	}
	return status, nil
}
