package model

import "time"

// Route is a bounded spatial zone governing patrol and respawn for a
// group of hostiles of one enemy type.
type Route struct {
	ID        int32
	EnemyType string

	// Rectangle bounds. Patrol and knockback clamp to [LeftX, RightX].
	LeftX   float64
	RightX  float64
	TopY    float64
	BottomY float64

	MaxCount int32
	Interval time.Duration

	// LastSpawn gates regular respawn batches. Forced (summon) batches
	// bypass the gate and do not touch it.
	LastSpawn time.Time

	// LiveCount caches the number of live spawns owned by the route.
	// Always reconcilable by recount.
	LiveCount int32
}

// Center returns the geometric center of the route rectangle.
func (r *Route) Center() Position {
	return Position{
		X: (r.LeftX + r.RightX) / 2,
		Y: (r.TopY + r.BottomY) / 2,
	}
}

// CanRespawn reports whether a regular respawn batch may run: the
// route must be empty and the spawn interval elapsed.
func (r *Route) CanRespawn(now time.Time) bool {
	return r.LiveCount == 0 && now.Sub(r.LastSpawn) >= r.Interval
}

// Missing returns how many spawns a top-off batch needs to create.
func (r *Route) Missing() int32 {
	missing := r.MaxCount - r.LiveCount
	if missing < 0 {
		return 0
	}
	return missing
}
