package db

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/molinet/emberfall/internal/model"
	"github.com/molinet/emberfall/internal/store"
)

// SnapshotFunc supplies the current leaderboard snapshot for
// persistence. Wired to the progression leaderboard.
type SnapshotFunc func() []model.LeaderboardEntry

// Persistence flushes live player state and the leaderboard snapshot
// to the database on its own trigger.
type Persistence struct {
	store       *store.Store
	players     *PlayerRepository
	leaderboard *LeaderboardRepository
	snapshotFn  SnapshotFunc

	mu       sync.RWMutex
	accounts map[uint32]string // playerID -> account login
}

// NewPersistence creates the persistence flusher. snapshotFn may be
// nil, disabling leaderboard persistence.
func NewPersistence(st *store.Store, players *PlayerRepository, leaderboard *LeaderboardRepository, snapshotFn SnapshotFunc) *Persistence {
	return &Persistence{
		store:       st,
		players:     players,
		leaderboard: leaderboard,
		snapshotFn:  snapshotFn,
		accounts:    make(map[uint32]string),
	}
}

// BindAccount remembers which account owns a live player. Called on
// login.
func (p *Persistence) BindAccount(playerID uint32, login string) {
	p.mu.Lock()
	p.accounts[playerID] = login
	p.mu.Unlock()
}

// UnbindAccount drops the binding after the final flush of a departed
// player.
func (p *Persistence) UnbindAccount(playerID uint32) {
	p.mu.Lock()
	delete(p.accounts, playerID)
	p.mu.Unlock()
}

// Tick flushes every bound player and the leaderboard snapshot.
// Registered on the persistence trigger.
func (p *Persistence) Tick(ctx context.Context, now time.Time) error {
	var players []model.Player
	err := p.store.View(ctx, func(tx *store.Tx) {
		for _, pl := range tx.Players() {
			players = append(players, pl)
		}
	})
	if err != nil {
		slog.Error("reading players for flush", "error", err)
		return nil
	}

	p.mu.RLock()
	accounts := make(map[uint32]string, len(p.accounts))
	for id, login := range p.accounts {
		accounts[id] = login
	}
	p.mu.RUnlock()

	bound := players[:0]
	for _, pl := range players {
		if _, ok := accounts[pl.ID]; ok {
			bound = append(bound, pl)
		}
	}

	if err := p.players.SaveAll(ctx, accounts, bound); err != nil {
		slog.Error("flushing players", "count", len(bound), "error", err)
		return nil
	}

	if p.snapshotFn != nil {
		if err := p.leaderboard.Replace(ctx, p.snapshotFn()); err != nil {
			slog.Error("flushing leaderboard", "error", err)
			return nil
		}
	}

	slog.Debug("state flushed", "players", len(bound))
	return nil
}

// FlushPlayer saves one player immediately, used on logout.
func (p *Persistence) FlushPlayer(ctx context.Context, player model.Player) {
	p.mu.RLock()
	login, ok := p.accounts[player.ID]
	p.mu.RUnlock()
	if !ok {
		return
	}
	if err := p.players.Upsert(ctx, login, player); err != nil {
		slog.Error("flushing player on logout", "playerID", player.ID, "error", err)
	}
}
