package store

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/molinet/emberfall/internal/model"
)

// Feed streams entity deltas to subscribed observers. Publication is
// serialized by the store actor; subscribers receive on buffered
// channels and are never allowed to block the publisher — a full
// subscriber buffer drops the delta and counts it.
type Feed struct {
	mu        sync.RWMutex
	subs      map[uint64]*Subscription
	nextSubID atomic.Uint64
	subCount  atomic.Int32 // cached count for O(1) observer checks
}

// NewFeed creates an empty change feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[uint64]*Subscription)}
}

// Subscription is one observer's registration on the feed.
type Subscription struct {
	id uint64
	ch chan Delta

	mu       sync.RWMutex
	filtered bool
	center   model.Position
	radius   float64

	dropped atomic.Int64
}

// Deltas returns the receive channel for this subscription.
func (s *Subscription) Deltas() <-chan Delta {
	return s.ch
}

// SetCenter refreshes the proximity-filter center. Called on an
// interval by the observer as its viewpoint moves. No-op for
// unconditional subscriptions.
func (s *Subscription) SetCenter(center model.Position) {
	s.mu.Lock()
	s.center = center
	s.mu.Unlock()
}

// Dropped returns how many deltas were discarded because the
// subscriber buffer was full.
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// wants reports whether the delta passes the proximity filter.
func (s *Subscription) wants(d Delta) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.filtered {
		return true
	}
	return d.Pos().DistanceSquared(s.center) <= s.radius*s.radius
}

// Subscribe registers an unconditional observer.
func (f *Feed) Subscribe(buffer int) *Subscription {
	return f.register(&Subscription{ch: make(chan Delta, buffer)})
}

// SubscribeNear registers a proximity-filtered observer: only deltas
// whose snapshot position lies within radius of the (refreshable)
// center are delivered.
func (f *Feed) SubscribeNear(center model.Position, radius float64, buffer int) *Subscription {
	return f.register(&Subscription{
		ch:       make(chan Delta, buffer),
		filtered: true,
		center:   center,
		radius:   radius,
	})
}

func (f *Feed) register(sub *Subscription) *Subscription {
	sub.id = f.nextSubID.Add(1)
	f.mu.Lock()
	f.subs[sub.id] = sub
	f.mu.Unlock()
	f.subCount.Add(1)
	slog.Debug("feed subscriber registered", "subID", sub.id, "filtered", sub.filtered)
	return sub
}

// Unsubscribe removes the observer and closes its channel.
func (f *Feed) Unsubscribe(sub *Subscription) {
	f.mu.Lock()
	_, ok := f.subs[sub.id]
	delete(f.subs, sub.id)
	f.mu.Unlock()
	if !ok {
		return
	}
	f.subCount.Add(-1)
	close(sub.ch)
	slog.Debug("feed subscriber removed", "subID", sub.id, "dropped", sub.Dropped())
}

// SubscriberCount returns the number of connected observers. Tick
// handlers consult this to skip all work in an empty world.
func (f *Feed) SubscriberCount() int {
	return int(f.subCount.Load())
}

// Publish fans a delta out to all matching subscribers. Never blocks:
// a slow subscriber loses the delta rather than stalling the store.
func (f *Feed) Publish(d Delta) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, sub := range f.subs {
		if !sub.wants(d) {
			continue
		}
		select {
		case sub.ch <- d:
		default:
			if sub.dropped.Add(1) == 1 {
				slog.Warn("feed subscriber buffer full, dropping deltas", "subID", sub.id)
			}
		}
	}
}
