package gateway

import (
	"github.com/molinet/emberfall/internal/model"
	"github.com/molinet/emberfall/internal/store"
)

// clientMessage is the json envelope of every client → server message.
// Type selects which fields matter.
type clientMessage struct {
	Type string `json:"type"` // login | move | attack | leaderboard

	// login
	Login    string `json:"login,omitempty"`
	Password string `json:"password,omitempty"`
	Name     string `json:"name,omitempty"`
	Job      string `json:"job,omitempty"`

	// move
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Facing string  `json:"facing,omitempty"`
	Moving bool    `json:"moving,omitempty"`

	// attack
	TargetIDs  []uint32 `json:"targetIds,omitempty"`
	AttackType string   `json:"attackType,omitempty"`
}

// serverMessage is the json envelope of every server → client message.
type serverMessage struct {
	Type string `json:"type"` // welcome | delta | leaderboard | announce | error

	SessionID string `json:"sessionId,omitempty"`
	PlayerID  uint32 `json:"playerId,omitempty"`

	Delta   *store.Delta             `json:"delta,omitempty"`
	Entries []model.LeaderboardEntry `json:"entries,omitempty"`
	Entry   *model.LeaderboardEntry  `json:"entry,omitempty"`

	Error string `json:"error,omitempty"`
}
