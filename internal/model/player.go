package model

import "time"

// Player is a connected (or recently disconnected) player character.
// Experience counts progress toward the next level, not cumulative.
type Player struct {
	ID    uint32      `json:"id"`
	Name  string      `json:"name"`
	Pos   Position    `json:"pos"`
	State EntityState `json:"state"`
	Face  Facing      `json:"facing"`

	HP    int32 `json:"hp"`
	MaxHP int32 `json:"maxHp"`
	MP    int32 `json:"mp"`
	MaxMP int32 `json:"maxMp"`

	Level      int32  `json:"level"`
	Experience int64  `json:"experience"`
	Job        string `json:"job"`

	InCombat   bool      `json:"inCombat"`
	InCombatAt time.Time `json:"-"`

	// RecoverAt is when a Damaged player auto-recovers back to Idle.
	RecoverAt time.Time `json:"-"`

	Online bool `json:"online"`
	Banned bool `json:"-"`

	// DeathPos is set only on death; zero value otherwise.
	DeathPos Position `json:"-"`
	// RespawnAt is when the dead player becomes eligible to respawn.
	RespawnAt time.Time `json:"-"`
}

// IsDead reports whether the player is in the Dead state.
func (p *Player) IsDead() bool {
	return p.State == StateDead
}

// Alive reports whether the player can act or be targeted.
func (p *Player) Alive() bool {
	return p.State != StateDead
}

// Targetable reports whether a hostile may acquire this player as an
// aggro target.
func (p *Player) Targetable() bool {
	return p.Online && !p.Banned && p.Alive()
}

// Die transitions the player to Dead, remembering the death position
// and when respawn becomes available.
func (p *Player) Die(now time.Time, respawnDelay time.Duration) {
	p.HP = 0
	p.State = StateDead
	p.DeathPos = p.Pos
	p.RespawnAt = now.Add(respawnDelay)
	p.InCombat = false
}

// EnterCombat flags the player as fighting and stamps the time.
func (p *Player) EnterCombat(now time.Time) {
	p.InCombat = true
	p.InCombatAt = now
}
