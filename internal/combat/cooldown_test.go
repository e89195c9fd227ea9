package combat

import (
	"testing"
	"time"

	"github.com/molinet/emberfall/internal/model"
)

func eventAt(targetID uint32, at time.Time) model.DamageEvent {
	return model.DamageEvent{TargetID: targetID, AttackerID: 100, Amount: 10, At: at}
}

func TestCooldown_LazyPredicate(t *testing.T) {
	table := NewCooldownTable()
	now := time.Now()
	cd := 4 * time.Second

	if !table.Ready(1, 1, cd, now) {
		t.Fatal("never-used attack must be ready")
	}

	table.Stamp(1, 1, now)

	if table.Ready(1, 1, cd, now.Add(cd-time.Millisecond)) {
		t.Error("attack ready before cooldown elapsed")
	}
	// Exactly at the boundary it becomes available.
	if !table.Ready(1, 1, cd, now.Add(cd)) {
		t.Error("attack must be ready exactly at lastUsed + cooldown")
	}
}

func TestCooldown_KeyedPerEntityAndSlot(t *testing.T) {
	table := NewCooldownTable()
	now := time.Now()
	cd := 10 * time.Second

	table.Stamp(1, 1, now)

	if table.Ready(1, 1, cd, now) {
		t.Error("slot 1 of entity 1 should be cooling down")
	}
	if !table.Ready(1, 2, cd, now) {
		t.Error("slot 2 of entity 1 must be unaffected")
	}
	if !table.Ready(2, 1, cd, now) {
		t.Error("slot 1 of entity 2 must be unaffected")
	}
}

func TestCooldown_ForgetCascades(t *testing.T) {
	table := NewCooldownTable()
	now := time.Now()
	table.Stamp(1, 1, now)
	table.Stamp(1, 2, now)
	table.Stamp(2, 1, now)

	table.Forget(1)

	if table.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after forgetting entity 1", table.Len())
	}
	if !table.Ready(1, 1, time.Hour, now) {
		t.Error("forgotten rows must read as never used")
	}
}

func TestDamageLog_PruneRetention(t *testing.T) {
	log := NewDamageLog()
	now := time.Now()

	log.Record(eventAt(1, now.Add(-time.Minute)))
	log.Record(eventAt(1, now.Add(-time.Second)))
	log.Record(eventAt(2, now.Add(-time.Minute)))

	log.Prune(30*time.Second, now)

	if got := len(log.History(1)); got != 1 {
		t.Errorf("history(1) length = %d, want 1 fresh event", got)
	}
	if log.TargetCount() != 1 {
		t.Errorf("TargetCount = %d, want fully-expired target removed", log.TargetCount())
	}
}

func TestDamageLog_HistoryIsCopy(t *testing.T) {
	log := NewDamageLog()
	now := time.Now()
	log.Record(eventAt(1, now))

	h := log.History(1)
	h[0].Amount = 9999

	if log.History(1)[0].Amount == 9999 {
		t.Error("History must return a copy")
	}
}
