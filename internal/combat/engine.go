// Package combat validates and applies attacks: player-initiated
// directional/area strikes and AI-initiated boss attacks with
// per-(entity, attack) cooldowns, resistance lookup, knockback and
// multi-hit sequencing. All mutation runs inside store batches.
package combat

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/molinet/emberfall/internal/data"
	"github.com/molinet/emberfall/internal/model"
	"github.com/molinet/emberfall/internal/store"
)

// attackRecovery is how long an attack state lingers before the
// resolver recovers the entity back to Idle.
const attackRecovery = 600 * time.Millisecond

// KillFunc hands a killed spawn and its damage history to the
// progression service, synchronously within the same batch. Injected
// to keep progression out of this package.
type KillFunc func(tx *store.Tx, killed model.Spawn, events []model.DamageEvent, now time.Time)

// ForceSpawnFunc tops a route off to its configured max population,
// bypassing the interval gate. Injected by the spawn-zone manager.
type ForceSpawnFunc func(tx *store.Tx, route model.Route, now time.Time)

// Rules are the combat tunables threaded in from config.
type Rules struct {
	// MaxTargets caps candidates per player attack.
	MaxTargets int
	// DamagedRecovery is the Damaged → Idle delay applied to victims.
	DamagedRecovery time.Duration
	// PlayerRespawnDelay gates player respawn after a lethal hit.
	PlayerRespawnDelay time.Duration
}

// Engine resolves attacks against the entity store.
type Engine struct {
	store     *store.Store
	tables    *data.Tables
	cooldowns *CooldownTable
	damageLog *DamageLog
	rules     Rules

	killFunc       KillFunc
	forceSpawnFunc ForceSpawnFunc
}

// NewEngine creates a combat engine. killFunc and forceSpawnFunc may
// be nil (kills then award nothing, summons spawn nothing).
func NewEngine(st *store.Store, tables *data.Tables, rules Rules) *Engine {
	if rules.MaxTargets <= 0 {
		rules.MaxTargets = 3
	}
	return &Engine{
		store:     st,
		tables:    tables,
		cooldowns: NewCooldownTable(),
		damageLog: NewDamageLog(),
		rules:     rules,
	}
}

// SetKillFunc sets the progression callback invoked on kills.
func (e *Engine) SetKillFunc(fn KillFunc) {
	e.killFunc = fn
}

// SetForceSpawnFunc sets the forced-batch spawner used by summon
// attacks.
func (e *Engine) SetForceSpawnFunc(fn ForceSpawnFunc) {
	e.forceSpawnFunc = fn
}

// Cooldowns exposes the cooldown table for cascade cleanup.
func (e *Engine) Cooldowns() *CooldownTable {
	return e.cooldowns
}

// DamageLog exposes the damage log for cascade cleanup and pruning.
func (e *Engine) DamageLog() *DamageLog {
	return e.damageLog
}

// PlayerAttack validates and applies a player-initiated attack
// against the submitted candidate targets. Invalid requests are
// logged and ignored; they never produce an error to the caller
// beyond store failures.
func (e *Engine) PlayerAttack(ctx context.Context, attackerID uint32, targetIDs []uint32, attackType model.AttackType) error {
	return e.store.Update(ctx, func(tx *store.Tx) error {
		now := tx.Now()

		attacker, ok := tx.Player(attackerID)
		if !ok {
			slog.Warn("attack from unknown attacker", "attackerID", attackerID)
			return nil
		}
		if attacker.IsDead() {
			slog.Debug("attack from dead attacker ignored", "attackerID", attackerID)
			return nil
		}
		defn, ok := e.tables.PlayerAttacks[attackType]
		if !ok {
			slog.Warn("attack with unknown attack type", "attackerID", attackerID, "attackType", attackType)
			return nil
		}

		targets := e.selectTargets(tx, attacker, targetIDs, defn.Range)
		if len(targets) == 0 {
			return nil
		}

		attacker.EnterCombat(now)
		tx.PutPlayer(attacker)

		for _, targetID := range targets {
			e.strikeSpawn(tx, attacker, targetID, attackType, defn.Damage, defn.Knockback, now)
		}
		return nil
	})
}

// selectTargets filters the submitted candidates to alive spawns
// within reach, orders them closest-first and truncates to the cap —
// resource bounding by truncation, not rejection.
func (e *Engine) selectTargets(tx *store.Tx, attacker model.Player, targetIDs []uint32, reach float64) []uint32 {
	type candidate struct {
		id     uint32
		distSq float64
	}
	seen := make(map[uint32]struct{}, len(targetIDs))
	candidates := make([]candidate, 0, len(targetIDs))
	reachSq := reach * reach

	for _, id := range targetIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		sp, ok := tx.Spawn(id)
		if !ok || !sp.Alive() {
			continue
		}
		distSq := attacker.Pos.DistanceSquared(sp.Pos)
		if distSq > reachSq {
			slog.Debug("attack target out of reach", "attackerID", attacker.ID, "targetID", id)
			continue
		}
		candidates = append(candidates, candidate{id: id, distSq: distSq})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].distSq < candidates[j].distSq
	})
	if len(candidates) > e.rules.MaxTargets {
		candidates = candidates[:e.rules.MaxTargets]
	}

	out := make([]uint32, len(candidates))
	for i, c := range candidates {
		out[i] = c.id
	}
	return out
}

// strikeSpawn applies one damage application to a hostile target.
func (e *Engine) strikeSpawn(tx *store.Tx, attacker model.Player, targetID uint32, attackType model.AttackType, damage int32, knockback float64, now time.Time) {
	sp, ok := tx.Spawn(targetID)
	if !ok || !sp.Alive() {
		// Died earlier in the same batch: a no-op, not an error.
		return
	}

	mult := e.tables.DamageMultiplier(attackType, sp.Type)
	if mult == 0 {
		// Immune: record a zero-damage event, no mutation.
		e.damageLog.Record(model.DamageEvent{
			TargetID: targetID, AttackerID: attacker.ID,
			Amount: 0, Type: attackType, At: now,
		})
		return
	}

	dealt := int32(math.Round(float64(damage) * mult))
	killed := sp.ApplyDamage(dealt, now)
	if !killed {
		sp.RecoverAt = now.Add(e.rules.DamagedRecovery)
		sp.Pos = knockbackFrom(sp.Pos, attacker.Pos, knockback)
		if route, ok := tx.Route(sp.RouteID); ok {
			sp.Pos = sp.Pos.ClampX(route.LeftX, route.RightX)
		}
	}
	tx.PutSpawn(sp)

	e.damageLog.Record(model.DamageEvent{
		TargetID: targetID, AttackerID: attacker.ID,
		Amount: dealt, Type: attackType, At: now,
	})

	if killed {
		slog.Info("spawn killed",
			"spawnID", sp.ID, "type", sp.Type, "killerID", attacker.ID)
		if e.killFunc != nil {
			e.killFunc(tx, sp, e.damageLog.History(targetID), now)
		}
	}
}

// knockbackFrom displaces pos away from the attacker along x.
func knockbackFrom(pos, from model.Position, distance float64) model.Position {
	if pos.X >= from.X {
		pos.X += distance
	} else {
		pos.X -= distance
	}
	return pos
}
