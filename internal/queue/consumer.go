// Package queue contains the background consumer that listens to the
// readings.appended queue and drops cached readings responses.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/babymonitor-readings/internal/config"
)

// Invalidator drops cached responses.  *middleware.ResponseCache implements it.
type Invalidator interface {
	Invalidate(ctx context.Context) (int64, error)
}

// Consumer keeps a RabbitMQ subscription alive and invalidates the cache for
// every ReadingsAppendedEvent it receives.
type Consumer struct {
	cfg   config.QueueConfig
	cache Invalidator
	dial  func(url string) (*amqp.Connection, error)
}

func NewConsumer(cfg config.QueueConfig, cache Invalidator) *Consumer {
	return &Consumer{cfg: cfg, cache: cache, dial: amqp.Dial}
}

// Run connects, declares the durable queue and consumes until ctx is
// cancelled.  Broker failures are retried with exponential backoff capped at
// 30 seconds.  It returns ctx.Err() on shutdown.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := c.dial(c.cfg.URL)
		if err != nil {
			log.Printf("readings-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("readings-consumer: consume loop ended: %v; reconnecting", err)
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		log.Printf("readings-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(ctx, d.Body); err != nil {
				log.Printf("readings-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, body []byte) error {
	var ev ReadingsAppendedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	n, err := c.cache.Invalidate(ctx)
	if err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}
	log.Printf("readings-consumer: latest_id=%d count=%d appended_at=%s dropped %d cached responses",
		ev.LatestID, ev.Count, ev.AppendedAt, n)
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
