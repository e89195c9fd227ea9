package combat

import (
	"sync"
	"time"

	"github.com/molinet/emberfall/internal/model"
)

// DamageLog is the append-only per-target damage event history, kept
// transiently for contribution aggregation and pruned after a short
// retention window.
type DamageLog struct {
	mu     sync.Mutex
	events map[uint32][]model.DamageEvent // targetID → history
}

// NewDamageLog creates an empty damage log.
func NewDamageLog() *DamageLog {
	return &DamageLog{events: make(map[uint32][]model.DamageEvent)}
}

// Record appends one damage event. Zero-amount events (immune hits)
// are recorded too; contribution aggregation ignores them.
func (l *DamageLog) Record(ev model.DamageEvent) {
	l.mu.Lock()
	l.events[ev.TargetID] = append(l.events[ev.TargetID], ev)
	l.mu.Unlock()
}

// History returns a copy of the target's damage history.
func (l *DamageLog) History(targetID uint32) []model.DamageEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	events := l.events[targetID]
	out := make([]model.DamageEvent, len(events))
	copy(out, events)
	return out
}

// Forget drops the history of a removed entity.
func (l *DamageLog) Forget(targetID uint32) {
	l.mu.Lock()
	delete(l.events, targetID)
	l.mu.Unlock()
}

// Prune drops events older than the retention window. Targets whose
// whole history expired are removed entirely.
func (l *DamageLog) Prune(retention time.Duration, now time.Time) {
	cutoff := now.Add(-retention)
	l.mu.Lock()
	defer l.mu.Unlock()
	for targetID, events := range l.events {
		kept := events[:0]
		for _, ev := range events {
			if ev.At.After(cutoff) {
				kept = append(kept, ev)
			}
		}
		if len(kept) == 0 {
			delete(l.events, targetID)
			continue
		}
		l.events[targetID] = kept
	}
}

// TargetCount returns how many targets currently have history.
func (l *DamageLog) TargetCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
