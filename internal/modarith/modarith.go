// Package modarith implements the modifier arithmetic: given a desired
// combo and the set of physically-held modifier keys, it computes the
// release/press/main/restore sequence the emitter applies. The
// computation is pure and side-effect free.
package modarith

import "github.com/Danondso/keyrs/internal/keycode"

// Plan is the release/press/main/restore sequence for emitting a combo.
type Plan struct {
	Release []keycode.Key // keys to release before the main key, reverse press order
	Press   []keycode.Key // canonical keys to press for modifiers not already satisfied
	Main    keycode.Key
	Restore []keycode.Key // Release reversed, to re-assert still-held modifiers
}

// Compute builds the Plan for emitting combo (mods, main) given the
// currently-pressed modifier keys held, in press order (oldest first, so
// that reversing yields "most recently pressed released first").
func Compute(mods []*keycode.Modifier, main keycode.Key, held []keycode.Key) Plan {
	ownedByDesired := make(map[keycode.Key]bool)
	for _, m := range mods {
		for _, k := range m.Keys() {
			ownedByDesired[k] = true
		}
	}

	var release []keycode.Key
	for _, h := range held {
		if !ownedByDesired[h] {
			release = append(release, h)
		}
	}
	reverse(release)

	heldSet := make(map[keycode.Key]bool, len(held))
	for _, h := range held {
		heldSet[h] = true
	}
	var press []keycode.Key
	for _, m := range mods {
		satisfied := false
		for _, k := range m.Keys() {
			if heldSet[k] {
				satisfied = true
				break
			}
		}
		if !satisfied {
			press = append(press, m.Key())
		}
	}

	restore := make([]keycode.Key, len(release))
	copy(restore, release)
	reverse(restore)

	return Plan{Release: release, Press: press, Main: main, Restore: restore}
}

// ComputeBind builds the "bind" variant used for Bind sequence steps:
// does not release any currently-held modifier; only presses modifiers not
// already held, and its Restore releases only those self-pressed keys
// (not the full held set).
func ComputeBind(mods []*keycode.Modifier, main keycode.Key, held []keycode.Key) Plan {
	heldSet := make(map[keycode.Key]bool, len(held))
	for _, h := range held {
		heldSet[h] = true
	}
	var press []keycode.Key
	for _, m := range mods {
		satisfied := false
		for _, k := range m.Keys() {
			if heldSet[k] {
				satisfied = true
				break
			}
		}
		if !satisfied {
			press = append(press, m.Key())
		}
	}
	restore := make([]keycode.Key, len(press))
	copy(restore, press)
	reverse(restore)
	return Plan{Main: main, Press: press, Restore: restore}
}

func reverse(s []keycode.Key) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
