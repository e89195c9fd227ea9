package progression

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/molinet/emberfall/internal/data"
	"github.com/molinet/emberfall/internal/model"
	"github.com/molinet/emberfall/internal/store"
)

// Leaderboard keeps the top-N player snapshot, rebuilt wholesale on
// its own trigger. Reads between rebuilds serve the cached snapshot.
type Leaderboard struct {
	store  *store.Store
	tables *data.Tables
	size   int

	mu      sync.RWMutex
	entries []model.LeaderboardEntry
	members map[uint32]struct{}
}

// NewLeaderboard creates a leaderboard of the given size.
func NewLeaderboard(st *store.Store, tables *data.Tables, size int) *Leaderboard {
	if size < 1 {
		size = 10
	}
	return &Leaderboard{
		store:   st,
		tables:  tables,
		size:    size,
		members: make(map[uint32]struct{}),
	}
}

// Tick rebuilds the snapshot: every non-banned player ranked by level
// then experience, truncated to the configured size. Registered on
// the leaderboard trigger.
func (l *Leaderboard) Tick(ctx context.Context, now time.Time) error {
	var ranked []model.LeaderboardEntry
	err := l.store.View(ctx, func(tx *store.Tx) {
		for _, p := range tx.Players() {
			if p.Banned {
				continue
			}
			ranked = append(ranked, model.LeaderboardEntry{
				PlayerID:   p.ID,
				Name:       p.Name,
				Level:      p.Level,
				Experience: p.Experience,
				JobName:    l.tables.Class(p.Job).DisplayName,
			})
		}
	})
	if err != nil {
		// Keep serving the prior snapshot.
		return fmt.Errorf("ranking players: %w", err)
	}

	slices.SortFunc(ranked, func(a, b model.LeaderboardEntry) int {
		if a.Level != b.Level {
			return int(b.Level - a.Level)
		}
		switch {
		case b.Experience > a.Experience:
			return 1
		case b.Experience < a.Experience:
			return -1
		}
		return 0
	})
	if len(ranked) > l.size {
		ranked = ranked[:l.size]
	}
	for i := range ranked {
		ranked[i].Rank = int32(i + 1)
	}

	members := make(map[uint32]struct{}, len(ranked))
	for _, e := range ranked {
		members[e.PlayerID] = struct{}{}
	}

	l.mu.Lock()
	l.entries = ranked
	l.members = members
	l.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current ranking.
func (l *Leaderboard) Snapshot() []model.LeaderboardEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.entries)
}

// Contains reports whether the player is on the current snapshot.
func (l *Leaderboard) Contains(playerID uint32) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.members[playerID]
	return ok
}
