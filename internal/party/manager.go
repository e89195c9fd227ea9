// Package party tracks player groups. Membership feeds experience
// sharing: a member's kill reward is mirrored one hop to the rest of
// the group.
package party

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/molinet/emberfall/internal/model"
)

// MaxMembers caps group size.
const MaxMembers = 5

// Manager owns all live parties.
type Manager struct {
	mu       sync.RWMutex
	parties  map[uint32]*model.Party
	byMember map[uint32]uint32 // playerID -> partyID
	nextID   atomic.Uint32
}

// NewManager creates an empty party manager.
func NewManager() *Manager {
	return &Manager{
		parties:  make(map[uint32]*model.Party),
		byMember: make(map[uint32]uint32),
	}
}

// Create starts a new party with the given leader.
func (m *Manager) Create(leaderID uint32) (*model.Party, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byMember[leaderID]; ok {
		return nil, fmt.Errorf("player %d already in a party", leaderID)
	}

	p := &model.Party{
		ID:      m.nextID.Add(1),
		Members: []uint32{leaderID},
	}
	m.parties[p.ID] = p
	m.byMember[leaderID] = p.ID
	slog.Info("party created", "partyID", p.ID, "leaderID", leaderID)
	return p, nil
}

// Join adds a player to an existing party.
func (m *Manager) Join(partyID, playerID uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.parties[partyID]
	if !ok {
		return fmt.Errorf("party %d not found", partyID)
	}
	if _, ok := m.byMember[playerID]; ok {
		return fmt.Errorf("player %d already in a party", playerID)
	}
	if len(p.Members) >= MaxMembers {
		return fmt.Errorf("party %d is full", partyID)
	}

	p.Members = append(p.Members, playerID)
	m.byMember[playerID] = partyID
	slog.Info("party joined", "partyID", partyID, "playerID", playerID)
	return nil
}

// Leave removes a player from their party. A party left with no
// members is dissolved.
func (m *Manager) Leave(playerID uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	partyID, ok := m.byMember[playerID]
	if !ok {
		return
	}
	delete(m.byMember, playerID)

	p := m.parties[partyID]
	for i, id := range p.Members {
		if id == playerID {
			p.Members = append(p.Members[:i], p.Members[i+1:]...)
			break
		}
	}
	if len(p.Members) == 0 {
		delete(m.parties, partyID)
		slog.Info("party dissolved", "partyID", partyID)
	}
}

// Party returns a copy of the player's party, if any.
func (m *Manager) Party(playerID uint32) (model.Party, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	partyID, ok := m.byMember[playerID]
	if !ok {
		return model.Party{}, false
	}
	p := m.parties[partyID]
	cp := model.Party{ID: p.ID, Members: make([]uint32, len(p.Members))}
	copy(cp.Members, p.Members)
	return cp, true
}

// Others returns the player's fellow party members, excluding the
// player. Nil when the player is solo.
func (m *Manager) Others(playerID uint32) []uint32 {
	p, ok := m.Party(playerID)
	if !ok {
		return nil
	}
	return p.Others(playerID)
}
