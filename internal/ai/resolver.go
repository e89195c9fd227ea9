// Package ai implements the aggro & movement resolver for hostile
// entities. It consumes the fast tick and submits one mutation batch
// per tick; within the batch every eligible spawn gets target
// maintenance, trajectory and state derivation, with per-entity
// failure isolation.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/molinet/emberfall/internal/data"
	"github.com/molinet/emberfall/internal/model"
	"github.com/molinet/emberfall/internal/store"
)

const (
	// moveEpsilon is the minimum displacement that counts as walking.
	moveEpsilon = 0.5
	// adjacencyEpsilon is how close a chaser can get before it counts
	// as blocked and steps back instead of stalling.
	adjacencyEpsilon = 4.0
	// blockedStepMultiplier scales the backward step of a blocked
	// chaser relative to its normal movement.
	blockedStepMultiplier = 2.0
)

// AttackFunc executes an AI-initiated attack attempt for a boss-type
// spawn inside the current batch. Injected by the wiring layer to
// keep combat resolution out of this package. Returns true if the
// spawn turned or fired (its movement step is skipped this tick).
type AttackFunc func(tx *store.Tx, sp model.Spawn, tmpl data.EnemyTemplate, now time.Time) bool

// Resolver computes target acquisition, chase/patrol trajectories and
// boundary clamping for every non-player hostile entity.
type Resolver struct {
	store      *store.Store
	tables     *data.Tables
	recovery   time.Duration // Damaged → Idle auto-recovery delay
	interval   time.Duration // fast tick delta used for speed integration
	attackFunc AttackFunc
}

// NewResolver creates the resolver. attackFunc may be nil, disabling
// AI-initiated attacks.
func NewResolver(st *store.Store, tables *data.Tables, interval, recovery time.Duration, attackFunc AttackFunc) *Resolver {
	return &Resolver{
		store:      st,
		tables:     tables,
		recovery:   recovery,
		interval:   interval,
		attackFunc: attackFunc,
	}
}

// Tick runs one resolver pass. Registered as the fast-tick handler.
func (r *Resolver) Tick(ctx context.Context, now time.Time) error {
	return r.store.Update(ctx, func(tx *store.Tx) error {
		for _, sp := range tx.Spawns() {
			r.resolveOne(tx, sp, now)
		}
		r.recoverPlayers(tx, now)
		return nil
	})
}

// resolveOne processes a single spawn, isolating failures so one bad
// entity never aborts the batch.
func (r *Resolver) resolveOne(tx *store.Tx, sp model.Spawn, now time.Time) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("spawn resolution failed",
				"spawnID", sp.ID,
				"type", sp.Type,
				"error", fmt.Sprint(rec))
		}
	}()

	switch sp.State {
	case model.StateDead:
		return
	case model.StateDamaged, model.StateAttack1, model.StateAttack2, model.StateAttack3:
		// Timed auto-recovery back to Idle; until then the spawn is
		// not eligible for movement or aggro.
		if !sp.RecoverAt.IsZero() && !now.Before(sp.RecoverAt) {
			sp.State = model.StateIdle
			sp.RecoverAt = time.Time{}
			tx.PutSpawn(sp)
		}
		return
	}

	tmpl, ok := r.tables.Enemy(sp.Type)
	if !ok {
		slog.Warn("spawn with unknown enemy type", "spawnID", sp.ID, "type", sp.Type)
		return
	}
	route, ok := tx.Route(sp.RouteID)
	if !ok {
		slog.Warn("spawn with unknown route", "spawnID", sp.ID, "routeID", sp.RouteID)
		return
	}

	prev := sp
	sp = r.resolveAggro(tx, sp, tmpl)

	// Boss attack attempt replaces the movement step when it turns or
	// fires; with every slot on cooldown the spawn moves as usual.
	if sp.TargetID != 0 && len(tmpl.Attacks) > 0 && r.attackFunc != nil {
		if r.attackFunc(tx, sp, tmpl, now) {
			return
		}
	}

	sp = r.step(tx, sp, tmpl, route)

	// Only a net change to position, facing, state or target is worth
	// a store write.
	if sp.Pos != prev.Pos || sp.Facing != prev.Facing || sp.State != prev.State ||
		sp.TargetID != prev.TargetID || sp.MovingRight != prev.MovingRight {
		tx.PutSpawn(sp)
	}
}

// recoverPlayers applies the same timed Damaged → Idle auto-recovery
// to players hit by AI attacks. Movement intents overwrite the state
// anyway for actively playing clients; this covers the idle ones.
func (r *Resolver) recoverPlayers(tx *store.Tx, now time.Time) {
	for _, p := range tx.Players() {
		if p.State != model.StateDamaged || p.RecoverAt.IsZero() || now.Before(p.RecoverAt) {
			continue
		}
		p.State = model.StateIdle
		p.RecoverAt = time.Time{}
		tx.PutPlayer(p)
	}
}

// resolveAggro keeps or clears the current target and acquires a new
// one for aggressive types.
func (r *Resolver) resolveAggro(tx *store.Tx, sp model.Spawn, tmpl data.EnemyTemplate) model.Spawn {
	if sp.TargetID != 0 {
		target, ok := tx.Player(sp.TargetID)
		if !ok || !target.Targetable() || sp.Pos.DistanceTo(target.Pos) > tmpl.LeashRange {
			// Consistency degrade: a vanished or leashed-out target
			// clears aggro rather than raising.
			sp.TargetID = 0
		} else {
			return sp
		}
	}

	if !tmpl.Aggressive {
		return sp
	}

	// First match wins, not nearest match — acquisition is
	// order-dependent by design.
	rangeSq := tmpl.AggroRange * tmpl.AggroRange
	for _, p := range tx.Players() {
		if !p.Targetable() {
			continue
		}
		if sp.Pos.DistanceSquared(p.Pos) <= rangeSq {
			sp.TargetID = p.ID
			slog.Debug("aggro acquired", "spawnID", sp.ID, "targetID", p.ID)
			break
		}
	}
	return sp
}

// step advances the spawn one tick along its chase or patrol
// trajectory and derives Walk/Idle from net movement.
func (r *Resolver) step(tx *store.Tx, sp model.Spawn, tmpl data.EnemyTemplate, route model.Route) model.Spawn {
	stride := tmpl.Speed * r.interval.Seconds()
	oldX := sp.Pos.X

	if sp.TargetID != 0 {
		target, ok := tx.Player(sp.TargetID)
		if !ok {
			sp.TargetID = 0
			return sp
		}
		sp = r.chase(sp, target, stride, route)
	} else {
		sp = r.patrol(sp, stride, route)
	}

	if abs(sp.Pos.X-oldX) > moveEpsilon {
		sp.State = model.StateWalk
	} else {
		sp.State = model.StateIdle
	}
	return sp
}

// chase steps toward the target's x-coordinate. A chaser already
// adjacent within an epsilon steps back by a multiple of its normal
// movement instead of stalling against the target.
func (r *Resolver) chase(sp model.Spawn, target model.Player, stride float64, route model.Route) model.Spawn {
	dx := target.Pos.X - sp.Pos.X
	sp.Facing = model.FacingTo(sp.Pos.X, target.Pos.X, sp.Facing)

	switch {
	case abs(dx) <= adjacencyEpsilon:
		back := stride * blockedStepMultiplier
		if dx >= 0 {
			sp.Pos.X -= back
		} else {
			sp.Pos.X += back
		}
	case dx > 0:
		sp.Pos.X += min(stride, dx)
	default:
		sp.Pos.X -= min(stride, -dx)
	}

	sp.Pos = sp.Pos.ClampX(route.LeftX, route.RightX)
	return sp
}

// patrol bounces between the route bounds, flipping direction at each
// boundary.
func (r *Resolver) patrol(sp model.Spawn, stride float64, route model.Route) model.Spawn {
	if sp.MovingRight {
		sp.Pos.X += stride
		if sp.Pos.X >= route.RightX {
			sp.Pos.X = route.RightX
			sp.MovingRight = false
		}
	} else {
		sp.Pos.X -= stride
		if sp.Pos.X <= route.LeftX {
			sp.Pos.X = route.LeftX
			sp.MovingRight = true
		}
	}
	if sp.MovingRight {
		sp.Facing = model.FacingRight
	} else {
		sp.Facing = model.FacingLeft
	}
	return sp
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
