package ai

import (
	"context"
	"testing"
	"time"

	"github.com/molinet/emberfall/internal/data"
	"github.com/molinet/emberfall/internal/model"
	"github.com/molinet/emberfall/internal/store"
)

const tickInterval = 100 * time.Millisecond

func startStore(t *testing.T) (*store.Store, context.Context) {
	t.Helper()
	s := store.New()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.Run(ctx)
	return s, ctx
}

func newResolver(s *store.Store, attackFunc AttackFunc) *Resolver {
	return NewResolver(s, data.Default(), tickInterval, 400*time.Millisecond, attackFunc)
}

func seedRoute(t *testing.T, s *store.Store, ctx context.Context, route model.Route, spawns ...model.Spawn) {
	t.Helper()
	err := s.Update(ctx, func(tx *store.Tx) error {
		tx.PutRoute(route)
		for _, sp := range spawns {
			tx.PutSpawn(sp)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seeding: %v", err)
	}
}

func getSpawn(t *testing.T, s *store.Store, ctx context.Context, id uint32) model.Spawn {
	t.Helper()
	var sp model.Spawn
	var ok bool
	s.View(ctx, func(tx *store.Tx) {
		sp, ok = tx.Spawn(id)
	})
	if !ok {
		t.Fatalf("spawn %d missing", id)
	}
	return sp
}

func wolfRoute() model.Route {
	return model.Route{ID: 2, EnemyType: "ember_wolf", LeftX: 0, RightX: 800, MaxCount: 6}
}

func wolf(id uint32, x float64) model.Spawn {
	return model.Spawn{
		ID: id, RouteID: 2, Type: "ember_wolf",
		Pos: model.Position{X: x}, State: model.StateIdle,
		Facing: model.FacingLeft, HP: 60, MaxHP: 60, Level: 3,
	}
}

func TestTick_PatrolBouncesAtBounds(t *testing.T) {
	s, ctx := startStore(t)
	r := newResolver(s, nil)

	sp := wolf(1, 795)
	sp.MovingRight = true
	seedRoute(t, s, ctx, wolfRoute(), sp)

	// Enough ticks to hit the right bound and turn around.
	for range 5 {
		if err := r.Tick(ctx, time.Now()); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}

	got := getSpawn(t, s, ctx, 1)
	if got.Pos.X < 0 || got.Pos.X > 800 {
		t.Errorf("patrol left route bounds: X = %f", got.Pos.X)
	}
	if got.MovingRight {
		t.Error("patrol should have flipped direction at the right bound")
	}
	if got.Facing != model.FacingLeft {
		t.Errorf("facing = %s, want left after flip", got.Facing)
	}
}

func TestTick_PatrolNeverLeavesBounds(t *testing.T) {
	s, ctx := startStore(t)
	r := newResolver(s, nil)
	seedRoute(t, s, ctx, wolfRoute(), wolf(1, 400))

	for range 300 {
		r.Tick(ctx, time.Now())
		got := getSpawn(t, s, ctx, 1)
		if got.Pos.X < 0 || got.Pos.X > 800 {
			t.Fatalf("patrol left [0, 800]: X = %f", got.Pos.X)
		}
	}
}

func TestTick_AggressiveAcquiresPlayerInRange(t *testing.T) {
	s, ctx := startStore(t)
	r := newResolver(s, nil)
	seedRoute(t, s, ctx, wolfRoute(), wolf(1, 400))

	s.Update(ctx, func(tx *store.Tx) error {
		tx.PutPlayer(model.Player{
			ID: 100, Pos: model.Position{X: 480}, State: model.StateIdle,
			HP: 100, MaxHP: 100, Online: true,
		})
		return nil
	})

	r.Tick(ctx, time.Now())

	got := getSpawn(t, s, ctx, 1)
	if got.TargetID != 100 {
		t.Errorf("TargetID = %d, want 100 (player within 180 aggro range)", got.TargetID)
	}
}

func TestTick_IgnoresBannedAndDeadPlayers(t *testing.T) {
	s, ctx := startStore(t)
	r := newResolver(s, nil)
	seedRoute(t, s, ctx, wolfRoute(), wolf(1, 400))

	s.Update(ctx, func(tx *store.Tx) error {
		tx.PutPlayer(model.Player{ID: 100, Pos: model.Position{X: 410}, State: model.StateIdle, Online: true, Banned: true})
		tx.PutPlayer(model.Player{ID: 101, Pos: model.Position{X: 420}, State: model.StateDead, Online: true})
		return nil
	})

	r.Tick(ctx, time.Now())

	if got := getSpawn(t, s, ctx, 1); got.TargetID != 0 {
		t.Errorf("TargetID = %d, want 0 (banned/dead players are not targetable)", got.TargetID)
	}
}

func TestTick_ChaseStepsTowardTarget(t *testing.T) {
	s, ctx := startStore(t)
	r := newResolver(s, nil)

	sp := wolf(1, 400)
	sp.TargetID = 100
	seedRoute(t, s, ctx, wolfRoute(), sp)
	s.Update(ctx, func(tx *store.Tx) error {
		tx.PutPlayer(model.Player{ID: 100, Pos: model.Position{X: 500}, State: model.StateIdle, HP: 100, MaxHP: 100, Online: true})
		return nil
	})

	r.Tick(ctx, time.Now())

	got := getSpawn(t, s, ctx, 1)
	// 55 units/s × 0.1 s = 5.5 units per tick.
	if got.Pos.X <= 400 || got.Pos.X > 406 {
		t.Errorf("X = %f, want one stride toward 500", got.Pos.X)
	}
	if got.State != model.StateWalk {
		t.Errorf("State = %s, want walk while chasing", got.State)
	}
	if got.Facing != model.FacingRight {
		t.Errorf("Facing = %s, want right", got.Facing)
	}
}

func TestTick_BlockedChaserStepsBack(t *testing.T) {
	s, ctx := startStore(t)
	r := newResolver(s, nil)

	sp := wolf(1, 500)
	sp.TargetID = 100
	seedRoute(t, s, ctx, wolfRoute(), sp)
	s.Update(ctx, func(tx *store.Tx) error {
		tx.PutPlayer(model.Player{ID: 100, Pos: model.Position{X: 502}, State: model.StateIdle, HP: 100, MaxHP: 100, Online: true})
		return nil
	})

	r.Tick(ctx, time.Now())

	got := getSpawn(t, s, ctx, 1)
	if got.Pos.X >= 500 {
		t.Errorf("X = %f, want a backward step instead of oscillating in place", got.Pos.X)
	}
}

func TestTick_LeashClearsTarget(t *testing.T) {
	s, ctx := startStore(t)
	r := newResolver(s, nil)

	sp := wolf(1, 400)
	sp.TargetID = 100
	seedRoute(t, s, ctx, wolfRoute(), sp)
	s.Update(ctx, func(tx *store.Tx) error {
		// Beyond the wolf's 420 leash range.
		tx.PutPlayer(model.Player{ID: 100, Pos: model.Position{X: 900}, State: model.StateIdle, HP: 100, MaxHP: 100, Online: true})
		return nil
	})

	r.Tick(ctx, time.Now())

	if got := getSpawn(t, s, ctx, 1); got.TargetID != 0 {
		t.Errorf("TargetID = %d, want 0 (target beyond leash range)", got.TargetID)
	}
}

func TestTick_VanishedTargetClearsAggro(t *testing.T) {
	s, ctx := startStore(t)
	r := newResolver(s, nil)

	sp := wolf(1, 400)
	sp.TargetID = 999 // never existed
	seedRoute(t, s, ctx, wolfRoute(), sp)

	r.Tick(ctx, time.Now())

	if got := getSpawn(t, s, ctx, 1); got.TargetID != 0 {
		t.Errorf("TargetID = %d, want 0 (vanished target degrades to clear)", got.TargetID)
	}
}

func TestTick_DamagedRecoversAfterDelay(t *testing.T) {
	s, ctx := startStore(t)
	r := newResolver(s, nil)

	now := time.Now()
	sp := wolf(1, 400)
	sp.State = model.StateDamaged
	sp.RecoverAt = now.Add(400 * time.Millisecond)
	seedRoute(t, s, ctx, wolfRoute(), sp)

	r.Tick(ctx, now)
	if got := getSpawn(t, s, ctx, 1); got.State != model.StateDamaged {
		t.Fatalf("State = %s, want still damaged before recovery", got.State)
	}

	r.Tick(ctx, now.Add(500*time.Millisecond))
	if got := getSpawn(t, s, ctx, 1); got.State != model.StateIdle {
		t.Errorf("State = %s, want idle after recovery delay", got.State)
	}
}

func TestTick_DeadSpawnsUntouched(t *testing.T) {
	s, ctx := startStore(t)
	r := newResolver(s, nil)

	sp := wolf(1, 400)
	sp.State = model.StateDead
	sp.HP = 0
	seedRoute(t, s, ctx, wolfRoute(), sp)

	r.Tick(ctx, time.Now())

	got := getSpawn(t, s, ctx, 1)
	if got.State != model.StateDead || got.Pos.X != 400 {
		t.Error("dead spawns must not move or change state")
	}
}

func TestTick_BossAttackSkipsMovement(t *testing.T) {
	s, ctx := startStore(t)

	attacked := 0
	attackFunc := func(tx *store.Tx, sp model.Spawn, tmpl data.EnemyTemplate, now time.Time) bool {
		attacked++
		return true
	}
	r := newResolver(s, attackFunc)

	route := model.Route{ID: 4, EnemyType: "cinder_king", LeftX: 2400, RightX: 3200, MaxCount: 1}
	boss := model.Spawn{
		ID: 1, RouteID: 4, Type: "cinder_king",
		Pos: model.Position{X: 2800}, State: model.StateIdle,
		Facing: model.FacingLeft, HP: 2400, MaxHP: 2400, Level: 15,
		TargetID: 100,
	}
	seedRoute(t, s, ctx, route, boss)
	s.Update(ctx, func(tx *store.Tx) error {
		tx.PutPlayer(model.Player{ID: 100, Pos: model.Position{X: 2850}, State: model.StateIdle, HP: 100, MaxHP: 100, Online: true})
		return nil
	})

	r.Tick(ctx, time.Now())

	if attacked != 1 {
		t.Fatalf("attackFunc called %d times, want 1", attacked)
	}
	if got := getSpawn(t, s, ctx, 1); got.Pos.X != 2800 {
		t.Errorf("X = %f, want no movement on the attack tick", got.Pos.X)
	}
}
