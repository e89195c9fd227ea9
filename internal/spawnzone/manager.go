// Package spawnzone maintains route populations: interval-gated
// respawn batches, forced (summon) top-offs and the dead-entity
// cleanup tick with its cascade deletion of combat bookkeeping.
package spawnzone

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/molinet/emberfall/internal/data"
	"github.com/molinet/emberfall/internal/model"
	"github.com/molinet/emberfall/internal/store"
)

// CascadeFunc removes per-entity bookkeeping (cooldown rows, damage
// history) when a dead entity is deleted. Injected by wiring to keep
// combat out of this package.
type CascadeFunc func(entityID uint32)

// PruneFunc prunes aged damage events. Runs on the cleanup tick.
type PruneFunc func(now time.Time)

// Manager owns route population upkeep.
type Manager struct {
	store  *store.Store
	tables *data.Tables

	// corpseGrace is how long Dead spawns linger before removal.
	corpseGrace time.Duration

	cascadeFunc CascadeFunc
	pruneFunc   PruneFunc
}

// NewManager creates a spawn-zone manager.
func NewManager(st *store.Store, tables *data.Tables, corpseGrace time.Duration) *Manager {
	return &Manager{
		store:       st,
		tables:      tables,
		corpseGrace: corpseGrace,
	}
}

// SetCascadeFunc sets the per-entity cascade cleanup callback.
func (m *Manager) SetCascadeFunc(fn CascadeFunc) {
	m.cascadeFunc = fn
}

// SetPruneFunc sets the damage-log pruning callback.
func (m *Manager) SetPruneFunc(fn PruneFunc) {
	m.pruneFunc = fn
}

// LoadRoutes installs the configured routes into the store and runs
// an initial population batch for each. Called once at startup.
func (m *Manager) LoadRoutes(ctx context.Context) error {
	return m.store.Update(ctx, func(tx *store.Tx) error {
		now := tx.Now()
		count := 0
		for _, def := range m.tables.Routes {
			route := *def.Route()
			m.populate(tx, &route, now)
			route.LastSpawn = now
			tx.PutRoute(route)
			count++
		}
		slog.Info("routes loaded", "count", count)
		return nil
	})
}

// MaintenanceTick reconciles live counts and runs interval-gated
// respawn batches. Registered on the spawn-maintenance trigger.
func (m *Manager) MaintenanceTick(ctx context.Context, now time.Time) error {
	return m.store.Update(ctx, func(tx *store.Tx) error {
		for _, route := range tx.Routes() {
			// The cached live count must always be reconcilable by
			// recount; the recount is authoritative here.
			route.LiveCount = tx.LiveSpawnCount(route.ID)

			if route.CanRespawn(now) {
				m.populate(tx, &route, now)
				route.LastSpawn = now
				slog.Debug("respawn batch", "routeID", route.ID, "count", route.LiveCount)
			}
			tx.PutRoute(route)
		}
		return nil
	})
}

// ForceSpawn tops the route off to its max population, bypassing the
// interval gate. The route's own timer is deliberately not reset so
// regular respawn cadence stays in sync. Matches combat's
// ForceSpawnFunc signature.
func (m *Manager) ForceSpawn(tx *store.Tx, route model.Route, now time.Time) {
	route.LiveCount = tx.LiveSpawnCount(route.ID)
	m.populate(tx, &route, now)
	tx.PutRoute(route)
}

// populate spawns entities until the route reaches its max count.
func (m *Manager) populate(tx *store.Tx, route *model.Route, now time.Time) {
	tmpl, ok := m.tables.Enemy(route.EnemyType)
	if !ok {
		slog.Error("route with unknown enemy type", "routeID", route.ID, "enemyType", route.EnemyType)
		return
	}
	for range route.Missing() {
		sp := m.newSpawn(route, tmpl, now)
		tx.PutSpawn(sp)
		route.LiveCount++
	}
}

// newSpawn creates one hostile at a random point of the route.
func (m *Manager) newSpawn(route *model.Route, tmpl data.EnemyTemplate, now time.Time) model.Spawn {
	facing := model.FacingLeft
	movingRight := rand.IntN(2) == 0
	if movingRight {
		facing = model.FacingRight
	}
	return model.Spawn{
		ID:      m.store.NextID(),
		RouteID: route.ID,
		Type:    tmpl.Type,
		Pos: model.Position{
			X: route.LeftX + rand.Float64()*(route.RightX-route.LeftX),
			Y: route.BottomY,
		},
		State:       model.StateIdle,
		Facing:      facing,
		HP:          tmpl.MaxHP,
		MaxHP:       tmpl.MaxHP,
		Level:       tmpl.Level,
		SpawnedAt:   now,
		MovingRight: movingRight,
	}
}

// CleanupTick removes entities that have been Dead longer than the
// grace period, cascading deletion of their cooldown states and
// damage events, respawns eligible dead players, and prunes the
// damage log. Registered on the cleanup trigger.
func (m *Manager) CleanupTick(ctx context.Context, now time.Time) error {
	err := m.store.Update(ctx, func(tx *store.Tx) error {
		for _, sp := range tx.Spawns() {
			if !sp.IsDead() || now.Sub(sp.DeadAt) < m.corpseGrace {
				continue
			}
			tx.DeleteSpawn(sp.ID)
			if m.cascadeFunc != nil {
				m.cascadeFunc(sp.ID)
			}
			if route, ok := tx.Route(sp.RouteID); ok {
				route.LiveCount = tx.LiveSpawnCount(route.ID)
				tx.PutRoute(route)
			}
			slog.Debug("corpse removed", "spawnID", sp.ID, "type", sp.Type)
		}

		m.respawnPlayers(tx, now)
		return nil
	})
	if err != nil {
		return err
	}

	if m.pruneFunc != nil {
		m.pruneFunc(now)
	}
	return nil
}

// respawnPlayers restores dead players whose respawn delay elapsed.
func (m *Manager) respawnPlayers(tx *store.Tx, now time.Time) {
	for _, p := range tx.Players() {
		if !p.IsDead() || p.RespawnAt.IsZero() || now.Before(p.RespawnAt) {
			continue
		}
		baseline := m.tables.Class(p.Job)
		p.State = model.StateIdle
		p.HP = baseline.MaxHP(p.Level)
		p.MaxHP = p.HP
		p.MP = baseline.MaxMP(p.Level)
		p.MaxMP = p.MP
		p.Pos = p.DeathPos
		p.RespawnAt = time.Time{}
		tx.PutPlayer(p)
		slog.Info("player respawned", "playerID", p.ID, "name", p.Name)
	}
}
