package model

// EntityState is the authoritative finite state of a live entity.
// Serialized into change-feed snapshots, so values are stable strings.
type EntityState string

const (
	StateIdle    EntityState = "idle"
	StateWalk    EntityState = "walk"
	StateAttack1 EntityState = "attack1"
	StateAttack2 EntityState = "attack2"
	StateAttack3 EntityState = "attack3"
	StateDamaged EntityState = "damaged"
	StateDead    EntityState = "dead"
)

// transitions is the declarative table of allowed state changes.
// Dead is terminal: it has no outgoing transitions. Removal from the
// world (cleanup) is not a transition.
var transitions = map[EntityState][]EntityState{
	StateIdle:    {StateWalk, StateAttack1, StateAttack2, StateAttack3, StateDamaged, StateDead},
	StateWalk:    {StateIdle, StateAttack1, StateAttack2, StateAttack3, StateDamaged, StateDead},
	StateAttack1: {StateIdle, StateWalk, StateDamaged, StateDead},
	StateAttack2: {StateIdle, StateWalk, StateDamaged, StateDead},
	StateAttack3: {StateIdle, StateWalk, StateDamaged, StateDead},
	StateDamaged: {StateIdle, StateDamaged, StateDead},
	StateDead:    {},
}

// CanTransition reports whether from → to is an allowed state change.
// A self-transition is allowed only where listed (Damaged can re-enter
// Damaged when hit again during recovery).
func CanTransition(from, to EntityState) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AttackState maps an attack slot (1-3) to its entity state.
// Slots outside 1-3 fall back to Attack1.
func AttackState(slot int32) EntityState {
	switch slot {
	case 2:
		return StateAttack2
	case 3:
		return StateAttack3
	default:
		return StateAttack1
	}
}

// Facing is the horizontal direction an entity is looking at.
type Facing string

const (
	FacingLeft  Facing = "left"
	FacingRight Facing = "right"
)

// FacingTo returns the facing from x toward targetX. Equal coordinates
// keep the current facing.
func FacingTo(x, targetX float64, current Facing) Facing {
	switch {
	case targetX < x:
		return FacingLeft
	case targetX > x:
		return FacingRight
	default:
		return current
	}
}
