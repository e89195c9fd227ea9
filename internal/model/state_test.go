package model

import "testing"

func TestCanTransition_DeadIsTerminal(t *testing.T) {
	targets := []EntityState{
		StateIdle, StateWalk, StateAttack1, StateAttack2,
		StateAttack3, StateDamaged, StateDead,
	}
	for _, to := range targets {
		if CanTransition(StateDead, to) {
			t.Errorf("CanTransition(dead, %s) = true, want false", to)
		}
	}
}

func TestCanTransition_CommonPaths(t *testing.T) {
	cases := []struct {
		from, to EntityState
		want     bool
	}{
		{StateIdle, StateWalk, true},
		{StateWalk, StateIdle, true},
		{StateIdle, StateDamaged, true},
		{StateDamaged, StateIdle, true},
		{StateDamaged, StateDamaged, true}, // re-hit during recovery
		{StateDamaged, StateWalk, false},
		{StateAttack1, StateAttack2, false}, // attacks go through idle/walk
		{StateWalk, StateDead, true},
		{StateIdle, StateIdle, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestAttackState(t *testing.T) {
	if AttackState(1) != StateAttack1 {
		t.Errorf("AttackState(1) = %s", AttackState(1))
	}
	if AttackState(2) != StateAttack2 {
		t.Errorf("AttackState(2) = %s", AttackState(2))
	}
	if AttackState(3) != StateAttack3 {
		t.Errorf("AttackState(3) = %s", AttackState(3))
	}
	if AttackState(7) != StateAttack1 {
		t.Errorf("AttackState(7) = %s, want fallback attack1", AttackState(7))
	}
}

func TestFacingTo(t *testing.T) {
	if got := FacingTo(100, 50, FacingRight); got != FacingLeft {
		t.Errorf("FacingTo(100, 50) = %s, want left", got)
	}
	if got := FacingTo(100, 150, FacingLeft); got != FacingRight {
		t.Errorf("FacingTo(100, 150) = %s, want right", got)
	}
	if got := FacingTo(100, 100, FacingLeft); got != FacingLeft {
		t.Errorf("FacingTo(100, 100) = %s, want current facing kept", got)
	}
}
