package model

import "math"

// Position is a point in the game world. Value type, passed by value.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the Euclidean distance to another point.
func (p Position) DistanceTo(other Position) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// DistanceSquared returns the squared distance (no sqrt, for comparisons).
func (p Position) DistanceSquared(other Position) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return dx*dx + dy*dy
}

// ClampX returns the position with X clamped to [left, right].
func (p Position) ClampX(left, right float64) Position {
	if p.X < left {
		p.X = left
	}
	if p.X > right {
		p.X = right
	}
	return p
}
