package client

import (
	"log/slog"
	"time"

	"github.com/molinet/emberfall/internal/model"
)

// Presenter mirrors one remote entity's authoritative state into the
// presentation: a state machine driving animation clips plus an eased
// position interpolator.
type Presenter struct {
	id    uint32
	state model.EntityState
	pos   model.Position
	anim  Animation
	lerp  *Interpolator

	// exitHooks run when the named state is left, stopping any
	// state-scoped listeners the renderer attached.
	exitHooks map[model.EntityState][]func()
}

// NewPresenter creates a presenter for an entity first seen in the
// given snapshot state.
func NewPresenter(id uint32, state model.EntityState, pos model.Position, window time.Duration, anim Animation) *Presenter {
	p := &Presenter{
		id:        id,
		state:     state,
		pos:       pos,
		anim:      anim,
		lerp:      NewInterpolator(window, pos.X),
		exitHooks: make(map[model.EntityState][]func()),
	}
	anim.Play(ClipFor(state))
	return p
}

// OnExit registers a listener stopped when the given state is left.
func (p *Presenter) OnExit(state model.EntityState, fn func()) {
	p.exitHooks[state] = append(p.exitHooks[state], fn)
}

// Apply reconciles one authoritative update into the presentation.
func (p *Presenter) Apply(state model.EntityState, pos model.Position, now time.Time) {
	if state != p.state {
		p.exit(p.state)
		p.state = state
		p.anim.Play(ClipFor(state))
	} else if !p.anim.Playing() {
		// The clip was interrupted (a hit, a scene hiccup) while the
		// authoritative state stayed put. Restart rather than leaving
		// the entity visually stuck.
		slog.Debug("restarting stuck animation", "entityID", p.id, "state", state)
		p.anim.Play(ClipFor(state))
	}

	if pos.X != p.pos.X {
		p.lerp.SetTarget(pos.X, now)
	}
	p.pos = pos
}

func (p *Presenter) exit(state model.EntityState) {
	for _, fn := range p.exitHooks[state] {
		fn()
	}
	p.anim.Stop()
}

// State returns the mirrored authoritative state.
func (p *Presenter) State() model.EntityState {
	return p.state
}

// RenderPos returns the position to draw this frame: interpolated
// horizontally, authoritative vertically.
func (p *Presenter) RenderPos(now time.Time) model.Position {
	return model.Position{X: p.lerp.Value(now), Y: p.pos.Y}
}
