package kafkax

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrProducerClosed = errors.New("kafka producer closed")

type ProducerConfig struct {
	Brokers      []string
	Topic        string
	ClientID     string
	WriteTimeout time.Duration
}

// Producer is a synchronous kafka writer that rebuilds itself once after
// connection or metadata errors.
type Producer struct {
	mu        sync.Mutex
	w         *kafka.Writer
	cfg       ProducerConfig
	lastReset time.Time
}

func NewProducer(cfg ProducerConfig) *Producer {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &Producer{cfg: cfg, w: newWriter(cfg)}
}

func newWriter(cfg ProducerConfig) *kafka.Writer {
	// Short metadata TTL so a broker address change heals without a restart.
	tr := &kafka.Transport{
		ClientID:    cfg.ClientID,
		MetadataTTL: 10 * time.Second,
	}

	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Transport:    tr,
	}
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.w == nil {
		return nil
	}
	err := p.w.Close()
	p.w = nil
	return err
}

// Publish writes one message keyed by key. Headers are attached as-is.
func (p *Producer) Publish(ctx context.Context, key string, value []byte, headers map[string]string) error {
	msg := kafka.Message{Key: []byte(key), Value: value}
	for k, v := range headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	err := p.write(ctx, msg)
	if err != nil && shouldReset(err) {
		p.reset()
		return p.write(ctx, msg)
	}
	return err
}

func (p *Producer) write(ctx context.Context, msg kafka.Message) error {
	p.mu.Lock()
	w := p.w
	p.mu.Unlock()
	if w == nil {
		return ErrProducerClosed
	}
	cctx, cancel := context.WithTimeout(ctx, p.cfg.WriteTimeout)
	defer cancel()
	return w.WriteMessages(cctx, msg)
}

var resetSuspects = []string{
	"dial tcp",
	"connection refused",
	"i/o timeout",
	"eof",
	"broken pipe",
	"transport is closing",
	"not leader",
	"unknown broker",
	"failed to dial",
}

func shouldReset(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	for _, sub := range resetSuspects {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func (p *Producer) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.w == nil || time.Since(p.lastReset) < 2*time.Second {
		return
	}
	_ = p.w.Close()
	p.w = newWriter(p.cfg)
	p.lastReset = time.Now()
}
