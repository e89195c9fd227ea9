package model

// Party is a group of players used only for experience propagation.
type Party struct {
	ID      uint32
	Members []uint32
}

// Others returns the member IDs excluding the given player.
func (p *Party) Others(playerID uint32) []uint32 {
	others := make([]uint32, 0, len(p.Members))
	for _, id := range p.Members {
		if id != playerID {
			others = append(others, id)
		}
	}
	return others
}

// Contains reports whether the player belongs to the party.
func (p *Party) Contains(playerID uint32) bool {
	for _, id := range p.Members {
		if id == playerID {
			return true
		}
	}
	return false
}
