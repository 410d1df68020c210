package kafkax

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string

	// StartOffset is where a new consumer group begins: "first" or "last" (default).
	StartOffset string

	MinBytes int
	MaxBytes int
}

type Consumer struct {
	mu  sync.Mutex
	r   *kafka.Reader
	cfg ConsumerConfig
}

func NewConsumer(cfg ConsumerConfig) *Consumer {
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 1
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10e6
	}
	return &Consumer{cfg: cfg, r: newReader(cfg)}
}

func newReader(cfg ConsumerConfig) *kafka.Reader {
	start := kafka.LastOffset
	if strings.EqualFold(cfg.StartOffset, "first") {
		start = kafka.FirstOffset
	}

	// MaxWait and read backoffs keep FetchMessage from hanging on broker/metadata hiccups.
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		StartOffset:    start,
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		MaxWait:        500 * time.Millisecond,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: time.Second,
	})
}

func (c *Consumer) reader() *kafka.Reader {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.r
}

func (c *Consumer) FetchMessage(ctx context.Context) (kafka.Message, error) {
	return c.reader().FetchMessage(ctx)
}

func (c *Consumer) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	return c.reader().CommitMessages(ctx, msgs...)
}

// Reopen replaces the reader, dropping stale broker metadata.
func (c *Consumer) Reopen() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.r != nil {
		_ = c.r.Close()
	}
	c.r = newReader(c.cfg)
}

func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.r == nil {
		return nil
	}
	err := c.r.Close()
	c.r = nil
	return err
}

// Header returns the value of the first header named key.
func Header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
