package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/molinet/emberfall/internal/store"
)

// ErrReconnectExhausted is returned when every reconnect attempt of
// the feed consumer has failed.
var ErrReconnectExhausted = errors.New("feed reconnect attempts exhausted")

// DialFunc opens one feed stream. The channel closes when the stream
// drops.
type DialFunc func(ctx context.Context) (<-chan store.Delta, error)

// Consumer pulls change-feed deltas over an unreliable transport with
// bounded retry and exponential backoff. While disconnected no deltas
// flow, so the world stays frozen in its last known state.
type Consumer struct {
	dial        DialFunc
	maxRetries  int
	baseBackoff time.Duration

	deltas    chan store.Delta
	connected atomic.Bool
}

// NewConsumer creates a feed consumer.
func NewConsumer(dial DialFunc, maxRetries int, baseBackoff time.Duration) *Consumer {
	if maxRetries < 1 {
		maxRetries = 5
	}
	if baseBackoff <= 0 {
		baseBackoff = 250 * time.Millisecond
	}
	return &Consumer{
		dial:        dial,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
		deltas:      make(chan store.Delta, 512),
	}
}

// Deltas returns the channel the world drains each frame.
func (c *Consumer) Deltas() <-chan store.Delta {
	return c.deltas
}

// Connected reports whether a stream is currently live.
func (c *Consumer) Connected() bool {
	return c.connected.Load()
}

// Run pumps the feed until the context is cancelled or reconnecting
// fails for good.
func (c *Consumer) Run(ctx context.Context) error {
	defer close(c.deltas)

	retries := 0
	for {
		stream, err := c.dial(ctx)
		if err != nil {
			retries++
			if retries > c.maxRetries {
				return fmt.Errorf("%w: %v", ErrReconnectExhausted, err)
			}
			backoff := c.baseBackoff << (retries - 1)
			slog.Warn("feed dial failed, backing off",
				"attempt", retries, "backoff", backoff, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			continue
		}

		retries = 0
		c.connected.Store(true)
		slog.Info("feed connected")
		c.pump(ctx, stream)
		c.connected.Store(false)

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			slog.Warn("feed stream dropped, reconnecting")
		}
	}
}

// pump copies one stream into the delta queue until it closes.
func (c *Consumer) pump(ctx context.Context, stream <-chan store.Delta) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-stream:
			if !ok {
				return
			}
			select {
			case c.deltas <- d:
			case <-ctx.Done():
				return
			}
		}
	}
}
