// Package store implements the authoritative entity table as an actor
// owning all mutable world state. Independently scheduled ticks submit
// batches of mutations which the actor processes serially, so every
// mutation to an entity happens-before the next one without shared
// locks. Change-feed deltas are emitted from inside the commit path,
// in mutation order.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/molinet/emberfall/internal/model"
)

// firstEntityID leaves room below for reserved identifiers.
const firstEntityID = 1000

// Store is the single logical writer for all world entities.
type Store struct {
	cmds   chan command
	feed   *Feed
	nextID atomic.Uint32

	state *state
}

type state struct {
	players map[uint32]model.Player
	spawns  map[uint32]model.Spawn
	routes  map[int32]model.Route
}

type command struct {
	fn    func(tx *Tx) error
	reply chan error
}

// New creates an empty store. Run must be called before Update/View.
func New() *Store {
	s := &Store{
		cmds: make(chan command, 64),
		feed: NewFeed(),
		state: &state{
			players: make(map[uint32]model.Player),
			spawns:  make(map[uint32]model.Spawn),
			routes:  make(map[int32]model.Route),
		},
	}
	s.nextID.Store(firstEntityID)
	return s
}

// Feed returns the change feed fed by this store.
func (s *Store) Feed() *Feed {
	return s.feed
}

// NextID allocates a fresh entity identifier.
func (s *Store) NextID() uint32 {
	return s.nextID.Add(1)
}

// SeedNextID raises the allocator past identifiers persisted by
// earlier runs, so fresh allocations never collide with loaded
// characters. Seeds at or below the current counter are ignored.
func (s *Store) SeedNextID(highest uint32) {
	for {
		cur := s.nextID.Load()
		if highest <= cur {
			return
		}
		if s.nextID.CompareAndSwap(cur, highest) {
			return
		}
	}
}

// Run processes submitted batches until the context is canceled.
// This is the only goroutine that ever touches the state.
func (s *Store) Run(ctx context.Context) error {
	slog.Info("entity store started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("entity store stopping")
			return ctx.Err()
		case cmd := <-s.cmds:
			cmd.reply <- s.execute(cmd.fn)
		}
	}
}

// execute runs one batch against the state, converting panics into
// errors so a broken handler cannot kill the actor.
func (s *Store) execute(fn func(tx *Tx) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("store batch panicked: %v", r)
		}
	}()
	tx := &Tx{state: s.state, store: s, now: time.Now()}
	return fn(tx)
}

// Update submits a mutation batch and waits for it to be processed.
// The returned error is the batch's own error (or the panic it was
// converted from); mutations applied before the failure remain — the
// store is not transactional, failures abort the rest of the batch
// and surface to the caller.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	cmd := command{fn: fn, reply: make(chan error, 1)}
	select {
	case s.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// View submits a read-only batch. It shares the command queue, so
// reads observe a state with no batch in flight.
func (s *Store) View(ctx context.Context, fn func(tx *Tx)) error {
	return s.Update(ctx, func(tx *Tx) error {
		fn(tx)
		return nil
	})
}

// Tx is a view of the state handed to one batch. All accessors return
// copies; mutations become visible (and produce deltas) only through
// the Put/Delete methods, which makes skipping no-op writes natural.
type Tx struct {
	state *state
	store *Store
	now   time.Time
}

// Now is the batch timestamp: one consistent time per batch.
func (tx *Tx) Now() time.Time {
	return tx.now
}

// Player returns a copy of the player, if present.
func (tx *Tx) Player(id uint32) (model.Player, bool) {
	p, ok := tx.state.players[id]
	return p, ok
}

// Players returns copies of all players.
func (tx *Tx) Players() []model.Player {
	out := make([]model.Player, 0, len(tx.state.players))
	for _, p := range tx.state.players {
		out = append(out, p)
	}
	return out
}

// PutPlayer writes the player back and emits an insert or update
// delta, stamping the update time.
func (tx *Tx) PutPlayer(p model.Player) {
	_, existed := tx.state.players[p.ID]
	tx.state.players[p.ID] = p
	kind := DeltaUpdate
	if !existed {
		kind = DeltaInsert
	}
	tx.store.feed.Publish(playerDelta(kind, p))
}

// DeletePlayer removes the player and emits a delete delta carrying
// the final snapshot.
func (tx *Tx) DeletePlayer(id uint32) {
	p, ok := tx.state.players[id]
	if !ok {
		return
	}
	delete(tx.state.players, id)
	tx.store.feed.Publish(playerDelta(DeltaDelete, p))
}

// Spawn returns a copy of the hostile entity, if present.
func (tx *Tx) Spawn(id uint32) (model.Spawn, bool) {
	sp, ok := tx.state.spawns[id]
	return sp, ok
}

// Spawns returns copies of all hostile entities.
func (tx *Tx) Spawns() []model.Spawn {
	out := make([]model.Spawn, 0, len(tx.state.spawns))
	for _, sp := range tx.state.spawns {
		out = append(out, sp)
	}
	return out
}

// PutSpawn writes the spawn back and emits an insert or update delta,
// stamping the update time.
func (tx *Tx) PutSpawn(sp model.Spawn) {
	_, existed := tx.state.spawns[sp.ID]
	sp.UpdatedAt = tx.now
	tx.state.spawns[sp.ID] = sp
	kind := DeltaUpdate
	if !existed {
		kind = DeltaInsert
	}
	tx.store.feed.Publish(spawnDelta(kind, sp))
}

// DeleteSpawn removes the spawn and emits a delete delta carrying the
// final snapshot.
func (tx *Tx) DeleteSpawn(id uint32) {
	sp, ok := tx.state.spawns[id]
	if !ok {
		return
	}
	delete(tx.state.spawns, id)
	tx.store.feed.Publish(spawnDelta(DeltaDelete, sp))
}

// Route returns a copy of the route, if present.
func (tx *Tx) Route(id int32) (model.Route, bool) {
	r, ok := tx.state.routes[id]
	return r, ok
}

// Routes returns copies of all routes.
func (tx *Tx) Routes() []model.Route {
	out := make([]model.Route, 0, len(tx.state.routes))
	for _, r := range tx.state.routes {
		out = append(out, r)
	}
	return out
}

// PutRoute writes the route back. Routes are server-internal; no
// delta is emitted.
func (tx *Tx) PutRoute(r model.Route) {
	tx.state.routes[r.ID] = r
}

// LiveSpawnCount recounts live spawns for a route. The route's cached
// LiveCount must always agree with this.
func (tx *Tx) LiveSpawnCount(routeID int32) int32 {
	var n int32
	for _, sp := range tx.state.spawns {
		if sp.RouteID == routeID && sp.Alive() {
			n++
		}
	}
	return n
}
