package client

import "time"

// DefaultInterpolationWindow matches the network send cadence: one
// authoritative update per window.
const DefaultInterpolationWindow = 100 * time.Millisecond

// Interpolator eases the rendered horizontal position toward the
// authoritative one over a fixed window. Vertical motion stays with
// local physics and never passes through here.
type Interpolator struct {
	window    time.Duration
	from      float64
	to        float64
	startedAt time.Time
}

// NewInterpolator creates an interpolator pinned at x.
func NewInterpolator(window time.Duration, x float64) *Interpolator {
	if window <= 0 {
		window = DefaultInterpolationWindow
	}
	return &Interpolator{window: window, from: x, to: x}
}

// SetTarget starts a new easing run from the currently rendered
// position toward x.
func (i *Interpolator) SetTarget(x float64, now time.Time) {
	i.from = i.Value(now)
	i.to = x
	i.startedAt = now
}

// Snap pins the interpolator at x immediately, skipping the easing.
func (i *Interpolator) Snap(x float64) {
	i.from = x
	i.to = x
	i.startedAt = time.Time{}
}

// Value returns the rendered position at the given time. The easing
// is monotonic, so the value converges to the target within the
// window and never overshoots.
func (i *Interpolator) Value(now time.Time) float64 {
	if i.startedAt.IsZero() {
		return i.to
	}
	t := float64(now.Sub(i.startedAt)) / float64(i.window)
	if t >= 1 {
		return i.to
	}
	if t <= 0 {
		return i.from
	}
	// Ease-out: fast start, settling into the target.
	eased := t * (2 - t)
	return i.from + (i.to-i.from)*eased
}

// Done reports whether the current run has converged.
func (i *Interpolator) Done(now time.Time) bool {
	return i.startedAt.IsZero() || now.Sub(i.startedAt) >= i.window
}
