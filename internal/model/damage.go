package model

import "time"

// DamageEvent is an append-only record of one damage application.
// Kept transiently for contribution aggregation and pruned after a
// short retention window.
type DamageEvent struct {
	TargetID   uint32
	AttackerID uint32
	Amount     int32
	Type       AttackType
	At         time.Time
}

// ContributionShares aggregates damage per attacker and returns each
// attacker's share of the total. Zero-damage events (immune hits)
// register the attacker with share 0 only if no damage was dealt at
// all; they never dilute real contributions.
func ContributionShares(events []DamageEvent) map[uint32]float64 {
	totals := make(map[uint32]int64)
	var total int64
	for _, ev := range events {
		if ev.Amount <= 0 {
			continue
		}
		totals[ev.AttackerID] += int64(ev.Amount)
		total += int64(ev.Amount)
	}
	if total == 0 {
		return nil
	}
	shares := make(map[uint32]float64, len(totals))
	for id, dealt := range totals {
		shares[id] = float64(dealt) / float64(total)
	}
	return shares
}
