package model

import "time"

// AttackType tags how an attack selects its victims.
type AttackType string

const (
	// AttackDirectional hits targets in range inside the attacker's
	// forward-facing arc.
	AttackDirectional AttackType = "directional"
	// AttackArea hits every eligible target within radius, facing
	// ignored.
	AttackArea AttackType = "area"
	// AttackSummon deals no damage; it tops off nearby routes instead.
	AttackSummon AttackType = "summon"
)

// AttackDefinition describes one attack slot of an entity type.
type AttackDefinition struct {
	Slot      int32
	Damage    int32
	Cooldown  time.Duration
	Range     float64
	Knockback float64
	Hits      int32
	Type      AttackType
	// Effect is an optional projectile / skill-effect tag forwarded to
	// clients; the simulation core does not interpret it.
	Effect string
}

// CooldownKey uniquely identifies a cooldown row: one per
// (entity, attack slot) pair.
type CooldownKey struct {
	EntityID uint32
	Slot     int32
}

// CooldownReady is the lazy availability predicate: an attack is
// usable iff now >= lastUsed + cooldown. Exactly at the boundary the
// attack becomes available.
func CooldownReady(lastUsed time.Time, cooldown time.Duration, now time.Time) bool {
	return !now.Before(lastUsed.Add(cooldown))
}
