package client

import (
	"log/slog"

	"github.com/molinet/emberfall/internal/model"
)

// DefaultCorrectionThreshold is how far the server position may
// diverge from the local prediction before a correction is applied.
const DefaultCorrectionThreshold = 24.0

// Mover is the local movement/prediction subsystem that last wrote
// the avatar position. Corrections are routed back into it so the
// two never fight over the transform.
type Mover interface {
	SetPosition(pos model.Position)
}

// Reconciler applies authoritative corrections to the locally
// predicted avatar. Small divergence is ordinary network noise and is
// ignored; large divergence snaps the mover.
type Reconciler struct {
	threshold float64
	mover     Mover
	predicted model.Position
}

// NewReconciler creates a reconciler. mover may be attached later;
// corrections arriving without one are logged, never dropped
// silently.
func NewReconciler(threshold float64, mover Mover) *Reconciler {
	if threshold <= 0 {
		threshold = DefaultCorrectionThreshold
	}
	return &Reconciler{threshold: threshold, mover: mover}
}

// AttachMover sets the movement subsystem receiving corrections.
func (r *Reconciler) AttachMover(m Mover) {
	r.mover = m
}

// Predict records a local position write.
func (r *Reconciler) Predict(pos model.Position) {
	r.predicted = pos
}

// Predicted returns the last locally written position.
func (r *Reconciler) Predicted() model.Position {
	return r.predicted
}

// Correct reconciles one authoritative position. Returns true when
// the correction was applied to the mover.
func (r *Reconciler) Correct(authoritative model.Position) bool {
	if r.predicted.DistanceTo(authoritative) <= r.threshold {
		return false
	}
	if r.mover == nil {
		slog.Warn("position correction with no mover attached",
			"authoritative", authoritative, "predicted", r.predicted)
		return false
	}
	r.mover.SetPosition(authoritative)
	r.predicted = authoritative
	return true
}
