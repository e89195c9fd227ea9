package combat

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/molinet/emberfall/internal/data"
	"github.com/molinet/emberfall/internal/model"
	"github.com/molinet/emberfall/internal/store"
)

// verticalArcFactor scales the forward-arc vertical tolerance of
// directional attacks relative to their range. Generous on purpose: a
// side-scroller boss should not whiff over small height differences.
const verticalArcFactor = 0.8

// BossAttack attempts one AI-initiated attack for a spawn that has an
// aggro target. Selection is restricted to slots off cooldown with
// the target in reach (summon slots only need the cooldown); among
// those one is chosen uniformly at random. Returns true when the
// spawn turned or fired, meaning its movement step is skipped this
// tick. Matches the resolver's AttackFunc signature.
func (e *Engine) BossAttack(tx *store.Tx, sp model.Spawn, tmpl data.EnemyTemplate, now time.Time) bool {
	target, ok := tx.Player(sp.TargetID)
	if !ok || !target.Targetable() {
		// Resolver clears stale aggro on its own step.
		return false
	}

	available := make([]model.AttackDefinition, 0, len(tmpl.Attacks))
	for _, slot := range tmpl.Attacks {
		defn := slot.Definition()
		if !e.cooldowns.Ready(sp.ID, defn.Slot, defn.Cooldown, now) {
			continue
		}
		if defn.Type != model.AttackSummon && sp.Pos.DistanceTo(target.Pos) > defn.Range {
			continue
		}
		available = append(available, defn)
	}
	if len(available) == 0 {
		return false
	}

	defn := available[rand.IntN(len(available))]

	// Turn before firing. The turn consumes no time but is a separate
	// logged update; firing happens only once facing is correct.
	if wantFacing := model.FacingTo(sp.Pos.X, target.Pos.X, sp.Facing); wantFacing != sp.Facing {
		sp.Facing = wantFacing
		tx.PutSpawn(sp)
	}

	switch defn.Type {
	case model.AttackDirectional:
		e.bossStrikePlayers(tx, sp, defn, now, true)
	case model.AttackArea:
		e.bossStrikePlayers(tx, sp, defn, now, false)
	case model.AttackSummon:
		e.summon(tx, sp, defn, now)
	default:
		slog.Warn("boss attack with unknown type", "spawnID", sp.ID, "attackType", defn.Type)
		return false
	}

	// Every executed attack (including summon) stamps its cooldown
	// row with the current time.
	e.cooldowns.Stamp(sp.ID, defn.Slot, now)

	sp.State = model.AttackState(defn.Slot)
	sp.RecoverAt = now.Add(attackRecovery)
	tx.PutSpawn(sp)
	return true
}

// bossStrikePlayers damages every eligible player of a directional or
// area attack. Directional attacks additionally require the victim in
// the forward-facing arc: the front half-plane with a generous
// vertical tolerance.
func (e *Engine) bossStrikePlayers(tx *store.Tx, sp model.Spawn, defn model.AttackDefinition, now time.Time, directional bool) {
	rangeSq := defn.Range * defn.Range
	verticalTolerance := defn.Range * verticalArcFactor

	for _, p := range tx.Players() {
		if !p.Alive() || !p.Online {
			continue
		}
		if sp.Pos.DistanceSquared(p.Pos) > rangeSq {
			continue
		}
		if directional && !inForwardArc(sp, p.Pos, verticalTolerance) {
			continue
		}
		e.strikePlayer(tx, sp, p.ID, defn, now)
	}
}

// inForwardArc reports whether pos lies in the attacker's front
// half-plane within the vertical tolerance.
func inForwardArc(sp model.Spawn, pos model.Position, verticalTolerance float64) bool {
	dx := pos.X - sp.Pos.X
	if sp.Facing == model.FacingLeft && dx > 0 {
		return false
	}
	if sp.Facing == model.FacingRight && dx < 0 {
		return false
	}
	dy := pos.Y - sp.Pos.Y
	return dy >= -verticalTolerance && dy <= verticalTolerance
}

// strikePlayer applies a multi-hit sequence to one player, aborting
// early if the victim dies mid-sequence.
func (e *Engine) strikePlayer(tx *store.Tx, sp model.Spawn, playerID uint32, defn model.AttackDefinition, now time.Time) {
	p, ok := tx.Player(playerID)
	if !ok || !p.Alive() {
		return
	}

	for hit := int32(0); hit < defn.Hits; hit++ {
		p.HP -= defn.Damage
		e.damageLog.Record(model.DamageEvent{
			TargetID: playerID, AttackerID: sp.ID,
			Amount: defn.Damage, Type: defn.Type, At: now,
		})
		if p.HP <= 0 {
			p.Die(now, e.rules.PlayerRespawnDelay)
			slog.Info("player killed by spawn",
				"playerID", playerID, "spawnID", sp.ID, "type", sp.Type)
			break
		}
	}

	if p.Alive() {
		p.State = model.StateDamaged
		p.RecoverAt = now.Add(e.rules.DamagedRecovery)
		p.Pos = knockbackFrom(p.Pos, sp.Pos, defn.Knockback)
		p.EnterCombat(now)
	}
	tx.PutPlayer(p)
}

// summon tops off every route whose center lies within the attack's
// range, as a forced batch bypassing the interval gate. The route's
// own timer is left untouched so regular respawn cadence stays in
// sync.
func (e *Engine) summon(tx *store.Tx, sp model.Spawn, defn model.AttackDefinition, now time.Time) {
	if e.forceSpawnFunc == nil {
		return
	}
	rangeSq := defn.Range * defn.Range
	for _, route := range tx.Routes() {
		if route.Center().DistanceSquared(sp.Pos) > rangeSq {
			continue
		}
		e.forceSpawnFunc(tx, route, now)
		slog.Debug("summon topped off route", "spawnID", sp.ID, "routeID", route.ID)
	}
}
