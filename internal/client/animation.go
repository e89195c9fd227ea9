// Package client implements the presentation-side reconciliation
// layer: per-entity state machines mirroring authoritative state,
// eased position interpolation, own-avatar prediction corrections and
// the change-feed consumer with reconnect.
package client

import "github.com/molinet/emberfall/internal/model"

// Animation abstracts the rendering backend's animation player. The
// layer only selects, restarts and stops clips.
type Animation interface {
	Play(clip string)
	Stop()
	// Playing reports whether the current clip is still running.
	Playing() bool
	Current() string
}

// animationClips maps authoritative states to clip names.
var animationClips = map[model.EntityState]string{
	model.StateIdle:    "idle",
	model.StateWalk:    "walk",
	model.StateAttack1: "attack1",
	model.StateAttack2: "attack2",
	model.StateAttack3: "attack3",
	model.StateDamaged: "damaged",
	model.StateDead:    "dead",
}

// ClipFor returns the animation clip for a state.
func ClipFor(state model.EntityState) string {
	if clip, ok := animationClips[state]; ok {
		return clip
	}
	return "idle"
}
