// Package progression awards experience on kills, runs the level-up
// cascade and maintains the leaderboard snapshot.
package progression

import (
	"log/slog"
	"math"
	"time"

	"github.com/molinet/emberfall/internal/data"
	"github.com/molinet/emberfall/internal/model"
	"github.com/molinet/emberfall/internal/store"
)

// PartyLookup resolves a player's fellow party members for experience
// sharing. Satisfied by the party manager.
type PartyLookup interface {
	Others(playerID uint32) []uint32
}

// AnnounceFunc is called when a player present on the current
// leaderboard snapshot gains a level.
type AnnounceFunc func(entry model.LeaderboardEntry)

// Service turns kill contributions into experience and levels.
type Service struct {
	store   *store.Store
	tables  *data.Tables
	parties PartyLookup
	board   *Leaderboard

	announceFunc AnnounceFunc
}

// NewService creates the progression service. parties and board may be
// nil; sharing and announcements are then disabled.
func NewService(st *store.Store, tables *data.Tables, parties PartyLookup, board *Leaderboard) *Service {
	return &Service{
		store:   st,
		tables:  tables,
		parties: parties,
		board:   board,
	}
}

// SetAnnounceFunc sets the level-up announcement callback.
func (s *Service) SetAnnounceFunc(fn AnnounceFunc) {
	s.announceFunc = fn
}

// OnKill distributes the kill reward across every damage contributor
// in proportion to damage dealt, then mirrors each contributor's
// reward one hop to their party. Matches combat's KillFunc signature
// and runs inside the killing batch.
func (s *Service) OnKill(tx *store.Tx, killed model.Spawn, events []model.DamageEvent, now time.Time) {
	tmpl, ok := s.tables.Enemy(killed.Type)
	if !ok {
		slog.Warn("killed spawn with unknown enemy type", "spawnID", killed.ID, "type", killed.Type)
		return
	}

	shares := model.ContributionShares(events)
	if shares == nil {
		return
	}

	for attackerID, share := range shares {
		award := int64(math.Round(float64(tmpl.BaseExp) * share))
		if award < 1 {
			award = 1
		}
		s.awardExp(tx, attackerID, award, false)

		// One hop only: shared experience never re-propagates.
		if s.parties == nil {
			continue
		}
		for _, memberID := range s.parties.Others(attackerID) {
			s.awardExp(tx, memberID, award, true)
		}
	}
}

// awardExp adds experience to a player and runs the level-up cascade:
// every satisfied threshold consumes its requirement, raises the
// level and restores the recomputed stat pools to full.
func (s *Service) awardExp(tx *store.Tx, playerID uint32, amount int64, shared bool) {
	p, ok := tx.Player(playerID)
	if !ok || !p.Online {
		return
	}

	p.Experience += amount
	leveled := false

	for {
		need, ok := s.tables.Levels.ExpToAdvance(p.Level)
		if !ok || p.Experience < need {
			break
		}
		p.Experience -= need
		p.Level++
		leveled = true

		baseline := s.tables.Class(p.Job)
		p.MaxHP = baseline.MaxHP(p.Level)
		p.MaxMP = baseline.MaxMP(p.Level)
		p.HP = p.MaxHP
		p.MP = p.MaxMP
		slog.Info("level up", "playerID", p.ID, "name", p.Name, "level", p.Level)
	}

	tx.PutPlayer(p)
	slog.Debug("experience awarded",
		"playerID", playerID, "amount", amount, "shared", shared)

	if leveled && s.board != nil && s.announceFunc != nil && s.board.Contains(playerID) {
		s.announceFunc(model.LeaderboardEntry{
			PlayerID:   p.ID,
			Name:       p.Name,
			Level:      p.Level,
			Experience: p.Experience,
			JobName:    s.tables.Class(p.Job).DisplayName,
		})
	}
}
