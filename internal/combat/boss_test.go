package combat

import (
	"context"
	"testing"
	"time"

	"github.com/molinet/emberfall/internal/data"
	"github.com/molinet/emberfall/internal/model"
	"github.com/molinet/emberfall/internal/store"
)

func bossTemplate() data.EnemyTemplate {
	tmpl, ok := data.Default().Enemy("cinder_king")
	if !ok {
		panic("cinder_king missing from default tables")
	}
	return tmpl
}

// singleSlotTemplate narrows the boss to one attack so tests control
// which slot fires.
func singleSlotTemplate(slot data.AttackSlot) data.EnemyTemplate {
	tmpl := bossTemplate()
	tmpl.Attacks = []data.AttackSlot{slot}
	return tmpl
}

func seedBoss(t *testing.T, s *store.Store, ctx context.Context, targetID uint32) model.Spawn {
	t.Helper()
	boss := model.Spawn{
		ID: 1, RouteID: 4, Type: "cinder_king",
		Pos: model.Position{X: 2800}, State: model.StateIdle,
		Facing: model.FacingRight, HP: 2400, MaxHP: 2400, Level: 15,
		TargetID: targetID,
	}
	err := s.Update(ctx, func(tx *store.Tx) error {
		tx.PutRoute(model.Route{ID: 4, EnemyType: "cinder_king", LeftX: 2400, RightX: 3200, MaxCount: 1})
		tx.PutSpawn(boss)
		return nil
	})
	if err != nil {
		t.Fatalf("seeding boss: %v", err)
	}
	return boss
}

func seedVictim(t *testing.T, s *store.Store, ctx context.Context, id uint32, x, y float64, hp int32) {
	t.Helper()
	err := s.Update(ctx, func(tx *store.Tx) error {
		tx.PutPlayer(model.Player{
			ID: id, Pos: model.Position{X: x, Y: y},
			State: model.StateIdle, HP: hp, MaxHP: hp,
			Level: 10, Job: "swordsman", Online: true,
		})
		return nil
	})
	if err != nil {
		t.Fatalf("seeding victim: %v", err)
	}
}

func getPlayer(t *testing.T, s *store.Store, ctx context.Context, id uint32) model.Player {
	t.Helper()
	var p model.Player
	var ok bool
	s.View(ctx, func(tx *store.Tx) {
		p, ok = tx.Player(id)
	})
	if !ok {
		t.Fatalf("player %d missing", id)
	}
	return p
}

func bossAttackOnce(t *testing.T, e *Engine, s *store.Store, ctx context.Context, tmpl data.EnemyTemplate, now time.Time) bool {
	t.Helper()
	var fired bool
	err := s.Update(ctx, func(tx *store.Tx) error {
		sp, ok := tx.Spawn(1)
		if !ok {
			t.Fatal("boss missing")
		}
		fired = e.BossAttack(tx, sp, tmpl, now)
		return nil
	})
	if err != nil {
		t.Fatalf("boss attack batch: %v", err)
	}
	return fired
}

func TestBossAttack_DirectionalHitsForwardArcOnly(t *testing.T) {
	e, s, ctx := newTestEngine(t)
	seedBoss(t, s, ctx, 100)
	seedVictim(t, s, ctx, 100, 2850, 0, 200) // in front (boss faces right)
	seedVictim(t, s, ctx, 101, 2750, 0, 200) // behind
	tmpl := singleSlotTemplate(data.AttackSlot{
		Slot: 1, Damage: 22, CooldownS: 4, Range: 140, Hits: 1, Type: "directional",
	})

	if !bossAttackOnce(t, e, s, ctx, tmpl, time.Now()) {
		t.Fatal("expected boss to fire")
	}

	if p := getPlayer(t, s, ctx, 100); p.HP != 178 {
		t.Errorf("front victim HP = %d, want 178", p.HP)
	}
	if p := getPlayer(t, s, ctx, 101); p.HP != 200 {
		t.Errorf("rear victim HP = %d, want untouched 200", p.HP)
	}
}

func TestBossAttack_DirectionalVerticalTolerance(t *testing.T) {
	e, s, ctx := newTestEngine(t)
	seedBoss(t, s, ctx, 100)
	seedVictim(t, s, ctx, 100, 2850, 60, 200)   // within tolerance (140 × 0.8 = 112)
	seedVictim(t, s, ctx, 101, 2810, -130, 200) // below tolerance band
	tmpl := singleSlotTemplate(data.AttackSlot{
		Slot: 1, Damage: 22, CooldownS: 4, Range: 140, Hits: 1, Type: "directional",
	})

	bossAttackOnce(t, e, s, ctx, tmpl, time.Now())

	if p := getPlayer(t, s, ctx, 100); p.HP != 178 {
		t.Errorf("in-band victim HP = %d, want 178", p.HP)
	}
	if p := getPlayer(t, s, ctx, 101); p.HP != 200 {
		t.Errorf("out-of-band victim HP = %d, want untouched", p.HP)
	}
}

func TestBossAttack_AreaIgnoresFacing(t *testing.T) {
	e, s, ctx := newTestEngine(t)
	seedBoss(t, s, ctx, 100)
	seedVictim(t, s, ctx, 100, 2850, 0, 200) // front
	seedVictim(t, s, ctx, 101, 2700, 0, 200) // behind, within 260 radius
	tmpl := singleSlotTemplate(data.AttackSlot{
		Slot: 2, Damage: 10, CooldownS: 9, Range: 260, Hits: 1, Type: "area",
	})

	bossAttackOnce(t, e, s, ctx, tmpl, time.Now())

	if p := getPlayer(t, s, ctx, 100); p.HP != 190 {
		t.Errorf("front victim HP = %d, want 190", p.HP)
	}
	if p := getPlayer(t, s, ctx, 101); p.HP != 190 {
		t.Errorf("rear victim HP = %d, want 190 (area ignores facing)", p.HP)
	}
}

func TestBossAttack_MultiHitAbortsOnDeath(t *testing.T) {
	e, s, ctx := newTestEngine(t)
	seedBoss(t, s, ctx, 100)
	seedVictim(t, s, ctx, 100, 2850, 0, 25) // dies on the second of three hits
	tmpl := singleSlotTemplate(data.AttackSlot{
		Slot: 2, Damage: 14, CooldownS: 9, Range: 260, Hits: 3, Type: "area",
	})

	bossAttackOnce(t, e, s, ctx, tmpl, time.Now())

	p := getPlayer(t, s, ctx, 100)
	if p.State != model.StateDead {
		t.Fatalf("State = %s, want dead", p.State)
	}
	if got := len(e.DamageLog().History(100)); got != 2 {
		t.Errorf("recorded %d hits, want 2 (sequence aborts mid-way)", got)
	}
}

func TestBossAttack_AllSlotsOnCooldown(t *testing.T) {
	e, s, ctx := newTestEngine(t)
	seedBoss(t, s, ctx, 100)
	seedVictim(t, s, ctx, 100, 2850, 0, 200)
	tmpl := singleSlotTemplate(data.AttackSlot{
		Slot: 1, Damage: 22, CooldownS: 4, Range: 140, Hits: 1, Type: "directional",
	})
	now := time.Now()

	if !bossAttackOnce(t, e, s, ctx, tmpl, now) {
		t.Fatal("first attack should fire")
	}
	if bossAttackOnce(t, e, s, ctx, tmpl, now.Add(time.Second)) {
		t.Error("attack fired while on cooldown; entity must fall through to movement")
	}
	if !bossAttackOnce(t, e, s, ctx, tmpl, now.Add(4*time.Second)) {
		t.Error("attack must be available exactly at the cooldown boundary")
	}
}

func TestBossAttack_TurnsBeforeFiring(t *testing.T) {
	e, s, ctx := newTestEngine(t)
	seedBoss(t, s, ctx, 100)
	seedVictim(t, s, ctx, 100, 2700, 0, 200) // behind the right-facing boss
	tmpl := singleSlotTemplate(data.AttackSlot{
		Slot: 1, Damage: 22, CooldownS: 4, Range: 140, Hits: 1, Type: "directional",
	})

	sub := s.Feed().Subscribe(16)
	bossAttackOnce(t, e, s, ctx, tmpl, time.Now())

	// First spawn update is the turn, before any attack state.
	var spawnUpdates []model.Spawn
	for len(sub.Deltas()) > 0 {
		d := <-sub.Deltas()
		if d.EntityKind == store.EntitySpawn {
			spawnUpdates = append(spawnUpdates, *d.Spawn)
		}
	}
	if len(spawnUpdates) < 2 {
		t.Fatalf("got %d spawn updates, want turn + attack", len(spawnUpdates))
	}
	if spawnUpdates[0].Facing != model.FacingLeft || spawnUpdates[0].State != model.StateIdle {
		t.Errorf("first update = %s/%s, want a pure turn to left", spawnUpdates[0].State, spawnUpdates[0].Facing)
	}
	// Once facing is correct, the victim (now in the forward arc) is hit.
	if p := getPlayer(t, s, ctx, 100); p.HP != 178 {
		t.Errorf("victim HP = %d, want 178 (fired after turning)", p.HP)
	}
}

func TestBossAttack_SummonTopsOffRoutesInRange(t *testing.T) {
	e, s, ctx := newTestEngine(t)
	seedBoss(t, s, ctx, 100)
	seedVictim(t, s, ctx, 100, 2850, 0, 200)

	var forced []int32
	e.SetForceSpawnFunc(func(tx *store.Tx, route model.Route, now time.Time) {
		forced = append(forced, route.ID)
	})

	// Boss route center (2800) is within 600; add a distant route.
	s.Update(ctx, func(tx *store.Tx) error {
		tx.PutRoute(model.Route{ID: 9, EnemyType: "ember_wolf", LeftX: 9000, RightX: 9600, MaxCount: 4})
		return nil
	})

	tmpl := singleSlotTemplate(data.AttackSlot{
		Slot: 3, CooldownS: 25, Range: 600, Hits: 1, Type: "summon",
	})
	bossAttackOnce(t, e, s, ctx, tmpl, time.Now())

	if len(forced) != 1 || forced[0] != 4 {
		t.Errorf("forced routes = %v, want only route 4 in range", forced)
	}
	// Summon deals no damage.
	if p := getPlayer(t, s, ctx, 100); p.HP != 200 {
		t.Errorf("victim HP = %d, want untouched by summon", p.HP)
	}
	// Summon still consumes its cooldown.
	if e.Cooldowns().Ready(1, 3, 25*time.Second, time.Now()) {
		t.Error("summon must stamp its cooldown row")
	}
}

func TestBossAttack_KnockbackPushesVictim(t *testing.T) {
	e, s, ctx := newTestEngine(t)
	seedBoss(t, s, ctx, 100)
	seedVictim(t, s, ctx, 100, 2850, 0, 200)
	tmpl := singleSlotTemplate(data.AttackSlot{
		Slot: 1, Damage: 22, CooldownS: 4, Range: 140, Knockback: 60, Hits: 1, Type: "directional",
	})

	bossAttackOnce(t, e, s, ctx, tmpl, time.Now())

	if p := getPlayer(t, s, ctx, 100); p.Pos.X != 2910 {
		t.Errorf("victim X = %f, want 2910 (pushed away from the boss)", p.Pos.X)
	}
}
