package combat

import (
	"sync"
	"time"

	"github.com/molinet/emberfall/internal/model"
)

// CooldownTable holds per-(entity, attack) last-used timestamps.
// Rows are created lazily on first use; availability is always the
// lazy predicate now >= lastUsed + cooldown, never an expiring timer.
type CooldownTable struct {
	mu   sync.Mutex
	rows map[model.CooldownKey]time.Time
}

// NewCooldownTable creates an empty cooldown table.
func NewCooldownTable() *CooldownTable {
	return &CooldownTable{rows: make(map[model.CooldownKey]time.Time)}
}

// Ready reports whether the (entity, slot) attack is off cooldown.
// An attack never used before is always ready.
func (t *CooldownTable) Ready(entityID uint32, slot int32, cooldown time.Duration, now time.Time) bool {
	t.mu.Lock()
	lastUsed, ok := t.rows[model.CooldownKey{EntityID: entityID, Slot: slot}]
	t.mu.Unlock()
	if !ok {
		return true
	}
	return model.CooldownReady(lastUsed, cooldown, now)
}

// Stamp records an attack execution, creating the row if needed.
func (t *CooldownTable) Stamp(entityID uint32, slot int32, now time.Time) {
	t.mu.Lock()
	t.rows[model.CooldownKey{EntityID: entityID, Slot: slot}] = now
	t.mu.Unlock()
}

// Forget drops all cooldown rows of a despawned entity.
func (t *CooldownTable) Forget(entityID uint32) {
	t.mu.Lock()
	for key := range t.rows {
		if key.EntityID == entityID {
			delete(t.rows, key)
		}
	}
	t.mu.Unlock()
}

// Len returns the number of live rows.
func (t *CooldownTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}
