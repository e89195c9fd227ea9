package client

import (
	"time"

	"github.com/molinet/emberfall/internal/model"
	"github.com/molinet/emberfall/internal/store"
)

// entityKey distinguishes players from spawns in the presenter table.
type entityKey struct {
	kind store.EntityKind
	id   uint32
}

// AnimationFactory creates the animation player for a newly seen
// entity. Injected by the rendering backend.
type AnimationFactory func(kind store.EntityKind, id uint32) Animation

// World merges the change feed and local prediction once per render
// frame. Reconciliation writes happen synchronously inside Step,
// never deferred across frames.
type World struct {
	consumer  *Consumer
	newAnim   AnimationFactory
	window    time.Duration
	threshold float64

	avatarID uint32
	avatar   *Reconciler

	entities map[entityKey]*Presenter
}

// NewWorld creates a client world around a feed consumer. avatarID
// names the locally controlled player; its deltas go through the
// reconciler instead of a presenter.
func NewWorld(consumer *Consumer, newAnim AnimationFactory, avatarID uint32, window time.Duration, threshold float64) *World {
	return &World{
		consumer:  consumer,
		newAnim:   newAnim,
		window:    window,
		threshold: threshold,
		avatarID:  avatarID,
		avatar:    NewReconciler(threshold, nil),
		entities:  make(map[entityKey]*Presenter),
	}
}

// Avatar returns the own-avatar reconciler for the movement subsystem
// to attach to.
func (w *World) Avatar() *Reconciler {
	return w.avatar
}

// Step drains every pending delta and applies it. Called once per
// render frame. While the consumer is disconnected no deltas arrive
// and every entity stays frozen in its last known state.
func (w *World) Step(now time.Time) {
	for {
		select {
		case d, ok := <-w.consumer.Deltas():
			if !ok {
				return
			}
			w.apply(d, now)
		default:
			return
		}
	}
}

// apply routes one delta: own avatar to reconciliation, everything
// else to its presenter.
func (w *World) apply(d store.Delta, now time.Time) {
	if d.EntityKind == store.EntityPlayer && d.EntityID() == w.avatarID {
		if d.Kind != store.DeltaDelete {
			w.avatar.Correct(d.Pos())
		}
		return
	}

	key := entityKey{kind: d.EntityKind, id: d.EntityID()}
	if d.Kind == store.DeltaDelete {
		delete(w.entities, key)
		return
	}

	state, pos := snapshotOf(d)
	p, ok := w.entities[key]
	if !ok {
		p = NewPresenter(key.id, state, pos, w.window, w.newAnim(key.kind, key.id))
		w.entities[key] = p
		return
	}
	p.Apply(state, pos, now)
}

// Presenter returns the presenter for an entity, if it is in view.
func (w *World) Presenter(kind store.EntityKind, id uint32) (*Presenter, bool) {
	p, ok := w.entities[entityKey{kind: kind, id: id}]
	return p, ok
}

// EntityCount returns how many remote entities are in view.
func (w *World) EntityCount() int {
	return len(w.entities)
}

func snapshotOf(d store.Delta) (model.EntityState, model.Position) {
	if d.Player != nil {
		return d.Player.State, d.Player.Pos
	}
	if d.Spawn != nil {
		return d.Spawn.State, d.Spawn.Pos
	}
	return model.StateIdle, model.Position{}
}
