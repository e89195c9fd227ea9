// Package data holds the static configuration tables loaded once at
// startup: enemy and boss attributes, attack definitions, route
// geometry, class baselines and the level requirement table. Tables
// are immutable after load and threaded explicitly through
// constructors.
package data

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/molinet/emberfall/internal/model"
)

// EnemyTemplate describes one hostile entity type. Boss variants use
// the same template shape with Boss set and attack slots defined.
type EnemyTemplate struct {
	Type       string  `yaml:"type"`
	Name       string  `yaml:"name"`
	Level      int32   `yaml:"level"`
	MaxHP      int32   `yaml:"max_hp"`
	Speed      float64 `yaml:"speed"` // units per second
	Aggressive bool    `yaml:"aggressive"`
	AggroRange float64 `yaml:"aggro_range"`
	LeashRange float64 `yaml:"leash_range"`
	BaseExp    int64   `yaml:"base_exp"`
	Boss       bool    `yaml:"boss"`

	Attacks []AttackSlot `yaml:"attacks"`
}

// AttackSlot is the yaml shape of one attack definition.
type AttackSlot struct {
	Slot      int32   `yaml:"slot"`
	Damage    int32   `yaml:"damage"`
	CooldownS float64 `yaml:"cooldown_seconds"`
	Range     float64 `yaml:"range"`
	Knockback float64 `yaml:"knockback"`
	Hits      int32   `yaml:"hits"`
	Type      string  `yaml:"type"`
	Effect    string  `yaml:"effect"`
}

// Definition converts the yaml slot into a model attack definition.
func (a AttackSlot) Definition() model.AttackDefinition {
	hits := a.Hits
	if hits < 1 {
		hits = 1
	}
	return model.AttackDefinition{
		Slot:      a.Slot,
		Damage:    a.Damage,
		Cooldown:  time.Duration(a.CooldownS * float64(time.Second)),
		Range:     a.Range,
		Knockback: a.Knockback,
		Hits:      hits,
		Type:      model.AttackType(a.Type),
		Effect:    a.Effect,
	}
}

// ClassBaseline holds per-job stat growth used to recompute max HP/MP
// on level-up.
type ClassBaseline struct {
	Job         string `yaml:"job"`
	DisplayName string `yaml:"display_name"`
	HPBase      int32  `yaml:"hp_base"`
	HPPerLevel  int32  `yaml:"hp_per_level"`
	MPBase      int32  `yaml:"mp_base"`
	MPPerLevel  int32  `yaml:"mp_per_level"`
}

// MaxHP returns max hit points for the given level.
func (c ClassBaseline) MaxHP(level int32) int32 {
	return c.HPBase + c.HPPerLevel*(level-1)
}

// MaxMP returns max mana for the given level.
func (c ClassBaseline) MaxMP(level int32) int32 {
	return c.MPBase + c.MPPerLevel*(level-1)
}

// RouteDef is the yaml shape of a spawn route rectangle.
type RouteDef struct {
	ID        int32   `yaml:"id"`
	EnemyType string  `yaml:"enemy_type"`
	LeftX     float64 `yaml:"left_x"`
	RightX    float64 `yaml:"right_x"`
	TopY      float64 `yaml:"top_y"`
	BottomY   float64 `yaml:"bottom_y"`
	MaxCount  int32   `yaml:"max_count"`
	IntervalS float64 `yaml:"interval_seconds"`
}

// Route converts the definition into a live route.
func (r RouteDef) Route() *model.Route {
	return &model.Route{
		ID:        r.ID,
		EnemyType: r.EnemyType,
		LeftX:     r.LeftX,
		RightX:    r.RightX,
		TopY:      r.TopY,
		BottomY:   r.BottomY,
		MaxCount:  r.MaxCount,
		Interval:  time.Duration(r.IntervalS * float64(time.Second)),
	}
}

// PlayerAttack describes one player attack type.
type PlayerAttack struct {
	Type      string  `yaml:"type"`
	Damage    int32   `yaml:"damage"`
	Range     float64 `yaml:"range"`
	Knockback float64 `yaml:"knockback"`
}

// Tables is the full set of static tables.
type Tables struct {
	Enemies map[string]EnemyTemplate
	Classes map[string]ClassBaseline
	// PlayerAttacks is keyed by attack-type tag.
	PlayerAttacks map[model.AttackType]PlayerAttack
	// Resistance maps (attack type, enemy type) to a damage
	// multiplier. A multiplier of 0 means immune; a missing entry
	// means 1.0 (unresisted).
	Resistance map[model.AttackType]map[string]float64
	Levels     LevelTable
	Routes     []RouteDef
}

// tablesFile is the yaml layout of a world data file.
type tablesFile struct {
	Enemies       []EnemyTemplate               `yaml:"enemies"`
	Classes       []ClassBaseline               `yaml:"classes"`
	PlayerAttacks []PlayerAttack                `yaml:"player_attacks"`
	Resistance    map[string]map[string]float64 `yaml:"resistance"`
	Levels        []int64                       `yaml:"levels"`
	Routes        []RouteDef                    `yaml:"routes"`
}

// Load reads world tables from a yaml file. A missing file returns
// the built-in defaults, matching config loading behavior.
func Load(path string) (*Tables, error) {
	tables := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return tables, nil
		}
		return nil, fmt.Errorf("reading world data %s: %w", path, err)
	}

	var file tablesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing world data %s: %w", path, err)
	}

	if len(file.Enemies) > 0 {
		tables.Enemies = make(map[string]EnemyTemplate, len(file.Enemies))
		for _, e := range file.Enemies {
			tables.Enemies[e.Type] = e
		}
	}
	if len(file.Classes) > 0 {
		tables.Classes = make(map[string]ClassBaseline, len(file.Classes))
		for _, c := range file.Classes {
			tables.Classes[c.Job] = c
		}
	}
	if len(file.PlayerAttacks) > 0 {
		tables.PlayerAttacks = make(map[model.AttackType]PlayerAttack, len(file.PlayerAttacks))
		for _, a := range file.PlayerAttacks {
			tables.PlayerAttacks[model.AttackType(a.Type)] = a
		}
	}
	if len(file.Resistance) > 0 {
		tables.Resistance = make(map[model.AttackType]map[string]float64, len(file.Resistance))
		for attackType, byEnemy := range file.Resistance {
			tables.Resistance[model.AttackType(attackType)] = byEnemy
		}
	}
	if len(file.Levels) > 0 {
		tables.Levels = LevelTable(file.Levels)
	}
	if len(file.Routes) > 0 {
		tables.Routes = file.Routes
	}

	if err := tables.validate(); err != nil {
		return nil, fmt.Errorf("validating world data %s: %w", path, err)
	}
	return tables, nil
}

// validate checks cross-references between tables.
func (t *Tables) validate() error {
	for _, r := range t.Routes {
		if _, ok := t.Enemies[r.EnemyType]; !ok {
			return fmt.Errorf("route %d references unknown enemy type %q", r.ID, r.EnemyType)
		}
		if r.LeftX >= r.RightX {
			return fmt.Errorf("route %d has invalid bounds [%f, %f]", r.ID, r.LeftX, r.RightX)
		}
	}
	for job := range t.Classes {
		if job == "" {
			return fmt.Errorf("class with empty job key")
		}
	}
	return nil
}

// Enemy returns the template for an enemy type.
func (t *Tables) Enemy(enemyType string) (EnemyTemplate, bool) {
	tmpl, ok := t.Enemies[enemyType]
	return tmpl, ok
}

// Class returns the baseline for a job, falling back to the default
// job if unknown.
func (t *Tables) Class(job string) ClassBaseline {
	if c, ok := t.Classes[job]; ok {
		return c
	}
	return t.Classes[DefaultJob]
}

// DamageMultiplier returns the resistance multiplier for an attack
// type against an enemy type. 0 means immune, missing entries are 1.0.
func (t *Tables) DamageMultiplier(attackType model.AttackType, enemyType string) float64 {
	byEnemy, ok := t.Resistance[attackType]
	if !ok {
		return 1.0
	}
	mult, ok := byEnemy[enemyType]
	if !ok {
		return 1.0
	}
	return mult
}
