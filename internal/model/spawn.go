package model

import "time"

// Spawn is a hostile entity (regular monster or boss variant) owned by
// a route. Stored by value in the entity store; change-feed snapshots
// are plain copies.
type Spawn struct {
	ID      uint32      `json:"id"`
	RouteID int32       `json:"routeId"`
	Type    string      `json:"type"`
	Pos     Position    `json:"pos"`
	State   EntityState `json:"state"`
	Facing  Facing      `json:"facing"`
	HP      int32       `json:"hp"`
	MaxHP   int32       `json:"maxHp"`
	Level   int32       `json:"level"`

	SpawnedAt time.Time `json:"spawnedAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// TargetID is the aggro target (player object ID), 0 when none.
	TargetID uint32 `json:"targetId,omitempty"`

	// MovingRight is the patrol direction flag.
	MovingRight bool `json:"movingRight"`

	// RecoverAt is when a Damaged spawn auto-recovers back to Idle.
	RecoverAt time.Time `json:"-"`

	// DeadAt is set once when the spawn reaches Dead; cleanup removes
	// the spawn a grace period later.
	DeadAt time.Time `json:"-"`
}

// IsDead reports whether the spawn reached its terminal state.
func (s *Spawn) IsDead() bool {
	return s.State == StateDead
}

// Alive reports whether the spawn can still be targeted or damaged.
func (s *Spawn) Alive() bool {
	return s.State != StateDead
}

// ApplyDamage subtracts damage and derives the resulting state.
// Returns true if this application killed the spawn. Calling it on an
// already dead spawn is a no-op.
func (s *Spawn) ApplyDamage(amount int32, now time.Time) bool {
	if s.IsDead() {
		return false
	}
	s.HP -= amount
	if s.HP <= 0 {
		s.HP = 0
		s.State = StateDead
		s.DeadAt = now
		s.TargetID = 0
		return true
	}
	s.State = StateDamaged
	return false
}
