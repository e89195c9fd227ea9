package data

import "github.com/molinet/emberfall/internal/model"

// DefaultJob is the class assigned to players with an unknown job key.
const DefaultJob = "swordsman"

// Default returns the built-in world tables. A world data file
// overrides whole sections, never individual rows.
func Default() *Tables {
	enemies := []EnemyTemplate{
		{
			Type: "ember_wolf", Name: "Ember Wolf",
			Level: 3, MaxHP: 60, Speed: 55,
			Aggressive: true, AggroRange: 180, LeashRange: 420,
			BaseExp: 24,
		},
		{
			Type: "gloom_shroom", Name: "Gloom Shroom",
			Level: 1, MaxHP: 30, Speed: 30,
			Aggressive: false, AggroRange: 0, LeashRange: 300,
			BaseExp: 9,
		},
		{
			Type: "ash_golem", Name: "Ash Golem",
			Level: 8, MaxHP: 240, Speed: 40,
			Aggressive: true, AggroRange: 220, LeashRange: 500,
			BaseExp: 110,
		},
		{
			Type: "cinder_king", Name: "Cinder King",
			Level: 15, MaxHP: 2400, Speed: 70,
			Aggressive: true, AggroRange: 320, LeashRange: 900,
			BaseExp: 1500, Boss: true,
			Attacks: []AttackSlot{
				{Slot: 1, Damage: 22, CooldownS: 4, Range: 140, Knockback: 60, Hits: 1, Type: "directional", Effect: "claw_swipe"},
				{Slot: 2, Damage: 14, CooldownS: 9, Range: 260, Knockback: 90, Hits: 3, Type: "area", Effect: "flame_nova"},
				{Slot: 3, Damage: 0, CooldownS: 25, Range: 600, Hits: 1, Type: "summon", Effect: "ember_call"},
			},
		},
	}

	classes := []ClassBaseline{
		{Job: "swordsman", DisplayName: "Swordsman", HPBase: 100, HPPerLevel: 22, MPBase: 20, MPPerLevel: 4},
		{Job: "archer", DisplayName: "Archer", HPBase: 80, HPPerLevel: 16, MPBase: 35, MPPerLevel: 7},
		{Job: "mage", DisplayName: "Mage", HPBase: 65, HPPerLevel: 12, MPBase: 60, MPPerLevel: 12},
	}

	playerAttacks := []PlayerAttack{
		{Type: "directional", Damage: 10, Range: 110, Knockback: 40},
		{Type: "area", Damage: 7, Range: 170, Knockback: 55},
	}

	routes := []RouteDef{
		{ID: 1, EnemyType: "gloom_shroom", LeftX: 0, RightX: 600, TopY: 0, BottomY: 120, MaxCount: 4, IntervalS: 10},
		{ID: 2, EnemyType: "ember_wolf", LeftX: 700, RightX: 1500, TopY: 0, BottomY: 120, MaxCount: 6, IntervalS: 12},
		{ID: 3, EnemyType: "ash_golem", LeftX: 1600, RightX: 2200, TopY: 0, BottomY: 160, MaxCount: 3, IntervalS: 20},
		{ID: 4, EnemyType: "cinder_king", LeftX: 2400, RightX: 3200, TopY: 0, BottomY: 200, MaxCount: 1, IntervalS: 120},
	}

	tables := &Tables{
		Enemies:       make(map[string]EnemyTemplate, len(enemies)),
		Classes:       make(map[string]ClassBaseline, len(classes)),
		PlayerAttacks: make(map[model.AttackType]PlayerAttack, len(playerAttacks)),
		Resistance: map[model.AttackType]map[string]float64{
			model.AttackDirectional: {
				"ash_golem": 0.5,
			},
			model.AttackArea: {
				"ash_golem":   0, // immune to area attacks
				"cinder_king": 0.5,
			},
		},
		Levels: defaultLevelTable,
		Routes: routes,
	}
	for _, e := range enemies {
		tables.Enemies[e.Type] = e
	}
	for _, c := range classes {
		tables.Classes[c.Job] = c
	}
	for _, a := range playerAttacks {
		tables.PlayerAttacks[model.AttackType(a.Type)] = a
	}
	return tables
}
