package combat

import (
	"context"
	"testing"
	"time"

	"github.com/molinet/emberfall/internal/data"
	"github.com/molinet/emberfall/internal/model"
	"github.com/molinet/emberfall/internal/store"
)

func startStore(t *testing.T) (*store.Store, context.Context) {
	t.Helper()
	s := store.New()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.Run(ctx)
	return s, ctx
}

func testRules() Rules {
	return Rules{
		MaxTargets:         3,
		DamagedRecovery:    400 * time.Millisecond,
		PlayerRespawnDelay: 3 * time.Second,
	}
}

func newTestEngine(t *testing.T) (*Engine, *store.Store, context.Context) {
	t.Helper()
	s, ctx := startStore(t)
	return NewEngine(s, data.Default(), testRules()), s, ctx
}

func seedAttacker(t *testing.T, s *store.Store, ctx context.Context, x float64) {
	t.Helper()
	err := s.Update(ctx, func(tx *store.Tx) error {
		tx.PutPlayer(model.Player{
			ID: 100, Name: "ana", Pos: model.Position{X: x},
			State: model.StateIdle, HP: 100, MaxHP: 100,
			Level: 5, Job: "swordsman", Online: true,
		})
		return nil
	})
	if err != nil {
		t.Fatalf("seeding attacker: %v", err)
	}
}

func seedWolf(t *testing.T, s *store.Store, ctx context.Context, id uint32, x float64, hp int32) {
	t.Helper()
	err := s.Update(ctx, func(tx *store.Tx) error {
		tx.PutRoute(model.Route{ID: 2, EnemyType: "ember_wolf", LeftX: 0, RightX: 800, MaxCount: 6})
		tx.PutSpawn(model.Spawn{
			ID: id, RouteID: 2, Type: "ember_wolf",
			Pos: model.Position{X: x}, State: model.StateIdle,
			Facing: model.FacingLeft, HP: hp, MaxHP: hp, Level: 3,
		})
		return nil
	})
	if err != nil {
		t.Fatalf("seeding wolf: %v", err)
	}
}

func getSpawn(t *testing.T, s *store.Store, ctx context.Context, id uint32) (model.Spawn, bool) {
	t.Helper()
	var sp model.Spawn
	var ok bool
	s.View(ctx, func(tx *store.Tx) {
		sp, ok = tx.Spawn(id)
	})
	return sp, ok
}

func TestPlayerAttack_DamageAndState(t *testing.T) {
	e, s, ctx := newTestEngine(t)
	seedAttacker(t, s, ctx, 400)
	seedWolf(t, s, ctx, 1, 430, 30)

	if err := e.PlayerAttack(ctx, 100, []uint32{1}, model.AttackDirectional); err != nil {
		t.Fatalf("PlayerAttack: %v", err)
	}

	sp, _ := getSpawn(t, s, ctx, 1)
	if sp.HP != 20 {
		t.Errorf("HP = %d, want 20 after one 10-damage hit on 30", sp.HP)
	}
	if sp.State != model.StateDamaged {
		t.Errorf("State = %s, want damaged", sp.State)
	}
}

func TestPlayerAttack_ThreeHitsKillOnce(t *testing.T) {
	e, s, ctx := newTestEngine(t)
	seedAttacker(t, s, ctx, 400)
	seedWolf(t, s, ctx, 1, 430, 30)

	kills := 0
	e.SetKillFunc(func(tx *store.Tx, killed model.Spawn, events []model.DamageEvent, now time.Time) {
		kills++
	})

	for range 5 {
		e.PlayerAttack(ctx, 100, []uint32{1}, model.AttackDirectional)
	}

	sp, _ := getSpawn(t, s, ctx, 1)
	if sp.HP != 0 {
		t.Errorf("HP = %d, want exactly 0", sp.HP)
	}
	if sp.State != model.StateDead {
		t.Errorf("State = %s, want dead", sp.State)
	}
	if kills != 1 {
		t.Errorf("kill callback fired %d times, want exactly once", kills)
	}
}

func TestPlayerAttack_DeadAttackerIgnored(t *testing.T) {
	e, s, ctx := newTestEngine(t)
	seedAttacker(t, s, ctx, 400)
	seedWolf(t, s, ctx, 1, 430, 30)

	s.Update(ctx, func(tx *store.Tx) error {
		p, _ := tx.Player(100)
		p.Die(tx.Now(), time.Second)
		tx.PutPlayer(p)
		return nil
	})

	if err := e.PlayerAttack(ctx, 100, []uint32{1}, model.AttackDirectional); err != nil {
		t.Fatalf("PlayerAttack: %v", err)
	}

	sp, _ := getSpawn(t, s, ctx, 1)
	if sp.HP != 30 {
		t.Errorf("HP = %d, want 30 (dead attacker must be rejected)", sp.HP)
	}
}

func TestPlayerAttack_UnknownAttackerIgnored(t *testing.T) {
	e, s, ctx := newTestEngine(t)
	seedWolf(t, s, ctx, 1, 430, 30)

	if err := e.PlayerAttack(ctx, 999, []uint32{1}, model.AttackDirectional); err != nil {
		t.Fatalf("PlayerAttack: %v", err)
	}
	sp, _ := getSpawn(t, s, ctx, 1)
	if sp.HP != 30 {
		t.Errorf("HP = %d, want 30", sp.HP)
	}
}

func TestPlayerAttack_CapsToThreeClosest(t *testing.T) {
	e, s, ctx := newTestEngine(t)
	seedAttacker(t, s, ctx, 400)
	for i, x := range []float64{410, 420, 430, 440, 450} {
		seedWolf(t, s, ctx, uint32(i+1), x, 60)
	}

	e.PlayerAttack(ctx, 100, []uint32{5, 4, 3, 2, 1}, model.AttackDirectional)

	hit := 0
	for id := uint32(1); id <= 5; id++ {
		sp, _ := getSpawn(t, s, ctx, id)
		if sp.HP < 60 {
			hit++
		}
	}
	if hit != 3 {
		t.Errorf("%d targets hit, want 3 (cap by proximity)", hit)
	}
	// The two farthest must be untouched.
	for _, id := range []uint32{4, 5} {
		sp, _ := getSpawn(t, s, ctx, id)
		if sp.HP != 60 {
			t.Errorf("spawn %d HP = %d, want untouched 60", id, sp.HP)
		}
	}
}

func TestPlayerAttack_ImmuneRecordsZeroDamageEvent(t *testing.T) {
	e, s, ctx := newTestEngine(t)
	seedAttacker(t, s, ctx, 400)
	// Ash golem is immune to area attacks in the default tables.
	s.Update(ctx, func(tx *store.Tx) error {
		tx.PutRoute(model.Route{ID: 3, EnemyType: "ash_golem", LeftX: 0, RightX: 800, MaxCount: 3})
		tx.PutSpawn(model.Spawn{
			ID: 1, RouteID: 3, Type: "ash_golem",
			Pos: model.Position{X: 430}, State: model.StateIdle,
			HP: 240, MaxHP: 240, Level: 8,
		})
		return nil
	})

	e.PlayerAttack(ctx, 100, []uint32{1}, model.AttackArea)

	sp, _ := getSpawn(t, s, ctx, 1)
	if sp.HP != 240 || sp.State != model.StateIdle {
		t.Error("immune target must not be mutated")
	}
	history := e.DamageLog().History(1)
	if len(history) != 1 || history[0].Amount != 0 {
		t.Errorf("history = %+v, want one zero-damage event", history)
	}
}

func TestPlayerAttack_KnockbackAwayClampedToRoute(t *testing.T) {
	e, s, ctx := newTestEngine(t)
	seedAttacker(t, s, ctx, 750)
	seedWolf(t, s, ctx, 1, 795, 60) // near the right bound

	e.PlayerAttack(ctx, 100, []uint32{1}, model.AttackDirectional)

	sp, _ := getSpawn(t, s, ctx, 1)
	if sp.Pos.X != 800 {
		t.Errorf("X = %f, want knockback clamped to right bound 800", sp.Pos.X)
	}
}

func TestPlayerAttack_KillPassesDamageHistory(t *testing.T) {
	e, s, ctx := newTestEngine(t)
	seedAttacker(t, s, ctx, 400)
	seedWolf(t, s, ctx, 1, 430, 10)

	var gotEvents []model.DamageEvent
	e.SetKillFunc(func(tx *store.Tx, killed model.Spawn, events []model.DamageEvent, now time.Time) {
		gotEvents = events
	})

	e.PlayerAttack(ctx, 100, []uint32{1}, model.AttackDirectional)

	if len(gotEvents) != 1 {
		t.Fatalf("history length = %d, want 1", len(gotEvents))
	}
	if gotEvents[0].AttackerID != 100 || gotEvents[0].Amount != 10 {
		t.Errorf("event = %+v, want attacker 100 amount 10", gotEvents[0])
	}
}

func TestPlayerAttack_ResistanceHalvesDamage(t *testing.T) {
	e, s, ctx := newTestEngine(t)
	seedAttacker(t, s, ctx, 400)
	// Directional vs ash_golem is 0.5 in the default tables.
	s.Update(ctx, func(tx *store.Tx) error {
		tx.PutRoute(model.Route{ID: 3, EnemyType: "ash_golem", LeftX: 0, RightX: 800, MaxCount: 3})
		tx.PutSpawn(model.Spawn{
			ID: 1, RouteID: 3, Type: "ash_golem",
			Pos: model.Position{X: 430}, State: model.StateIdle,
			HP: 240, MaxHP: 240, Level: 8,
		})
		return nil
	})

	e.PlayerAttack(ctx, 100, []uint32{1}, model.AttackDirectional)

	sp, _ := getSpawn(t, s, ctx, 1)
	if sp.HP != 235 {
		t.Errorf("HP = %d, want 235 (10 damage halved to 5)", sp.HP)
	}
}
