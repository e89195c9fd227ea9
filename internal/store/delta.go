package store

import "github.com/molinet/emberfall/internal/model"

// DeltaKind identifies the type of change-feed entry.
type DeltaKind string

const (
	DeltaInsert DeltaKind = "insert"
	DeltaUpdate DeltaKind = "update"
	DeltaDelete DeltaKind = "delete"
)

// EntityKind identifies which entity table a delta belongs to.
type EntityKind string

const (
	EntityPlayer EntityKind = "player"
	EntitySpawn  EntityKind = "spawn"
)

// Delta is one change-feed entry. It always carries a full entity
// snapshot (never a partial patch) so consumers stay stateless
// between deltas. Exactly one of Player/Spawn is set, matching
// EntityKind.
type Delta struct {
	Kind       DeltaKind  `json:"kind"`
	EntityKind EntityKind `json:"entityKind"`

	Player *model.Player `json:"player,omitempty"`
	Spawn  *model.Spawn  `json:"spawn,omitempty"`
}

// EntityID returns the ID of the entity the delta describes.
func (d Delta) EntityID() uint32 {
	if d.Player != nil {
		return d.Player.ID
	}
	if d.Spawn != nil {
		return d.Spawn.ID
	}
	return 0
}

// Pos returns the snapshot position, used by proximity filters.
func (d Delta) Pos() model.Position {
	if d.Player != nil {
		return d.Player.Pos
	}
	if d.Spawn != nil {
		return d.Spawn.Pos
	}
	return model.Position{}
}

func playerDelta(kind DeltaKind, p model.Player) Delta {
	return Delta{Kind: kind, EntityKind: EntityPlayer, Player: &p}
}

func spawnDelta(kind DeltaKind, s model.Spawn) Delta {
	return Delta{Kind: kind, EntityKind: EntitySpawn, Spawn: &s}
}
