// Package tick runs the server's independent periodic triggers. Each
// trigger fires on its own cadence; handlers must be idempotent (a
// tick with no qualifying entities is a no-op) and serialize their
// mutations through the entity store, so triggers never block each
// other on shared state.
package tick

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrFatal marks a handler error that must be surfaced to the
// operator layer instead of being swallowed by the tick loop.
// Wrap with fmt.Errorf("...: %w", tick.ErrFatal) or errors.Join.
var ErrFatal = errors.New("fatal tick error")

// Handler processes one tick. now is the trigger time.
type Handler func(ctx context.Context, now time.Time) error

// Trigger is one named periodic trigger.
type Trigger struct {
	Name     string
	Interval time.Duration
	Handler  Handler
}

// Scheduler drives a set of triggers. Every handler run is gated on
// "are there any connected observers?" — an empty world ticks for
// free.
type Scheduler struct {
	triggers  []Trigger
	observers func() int
	onFatal   func(name string, err error)
}

// New creates a scheduler. observers reports the number of connected
// observers; when it returns 0, all tick work is skipped.
func New(observers func() int) *Scheduler {
	return &Scheduler{
		observers: observers,
		onFatal: func(name string, err error) {
			slog.Error("fatal tick error", "trigger", name, "error", err)
		},
	}
}

// Add registers a trigger. Not safe after Run.
func (s *Scheduler) Add(name string, interval time.Duration, handler Handler) {
	s.triggers = append(s.triggers, Trigger{Name: name, Interval: interval, Handler: handler})
}

// OnFatal replaces the fatal-error hook (operator surface).
func (s *Scheduler) OnFatal(fn func(name string, err error)) {
	s.onFatal = fn
}

// Run starts one goroutine per trigger and blocks until the context
// is canceled. A failing tick is logged and the trigger keeps firing;
// only context cancellation stops the scheduler.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, trig := range s.triggers {
		g.Go(func() error {
			return s.runTrigger(ctx, trig)
		})
	}
	slog.Info("tick scheduler started", "triggers", len(s.triggers))
	return g.Wait()
}

func (s *Scheduler) runTrigger(ctx context.Context, trig Trigger) error {
	ticker := time.NewTicker(trig.Interval)
	defer ticker.Stop()

	slog.Info("trigger started", "trigger", trig.Name, "interval", trig.Interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("trigger stopping", "trigger", trig.Name)
			return ctx.Err()
		case now := <-ticker.C:
			s.fire(ctx, trig, now)
		}
	}
}

// fire runs one tick of one trigger with the observer gate and error
// isolation applied.
func (s *Scheduler) fire(ctx context.Context, trig Trigger, now time.Time) {
	if s.observers != nil && s.observers() == 0 {
		return
	}
	if err := trig.Handler(ctx, now); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		if errors.Is(err, ErrFatal) {
			s.onFatal(trig.Name, err)
			return
		}
		slog.Error("tick failed", "trigger", trig.Name, "error", err)
	}
}
