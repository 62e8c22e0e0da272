// Package keystore implements an O(1) per-key-code keystate
// table with pressed-modifier snapshots and spent-state queries.
package keystore

import (
	"sort"
	"sync"
	"time"

	"github.com/Danondso/keyrs/internal/keycode"
)

// Action mirrors the raw evdev event value: Release=0, Press=1,
// Repeat=2.
type Action int

const (
	ActionRelease Action = 0
	ActionPress   Action = 1
	ActionRepeat  Action = 2
)

// Keystate is the per-key-code record: inkey (physical),
// key (post-modmap), an optional multi-purpose hold output, action,
// timestamp, flags, and a snapshot of the prior state.
type Keystate struct {
	Inkey    keycode.Key
	Key      *keycode.Key
	MultiKey *keycode.Key
	Action   Action
	At       time.Time

	Suspended                bool
	IsMulti                  bool
	Spent                    bool
	ExertedOnOutput          bool
	OtherKeyPressedWhileHeld bool

	Prior *Keystate
}

// New creates a fresh Keystate for inkey with the given action.
func New(inkey keycode.Key, action Action) Keystate {
	return Keystate{Inkey: inkey, Action: action, At: time.Now()}
}

// WithPrior attaches a snapshot of the previous Keystate for this code.
func (ks Keystate) WithPrior(prior Keystate) Keystate {
	p := prior
	p.Prior = nil
	ks.Prior = &p
	return ks
}

// KeyIsPressed reports whether this state represents a held key (Press or
// Repeat); Release means not pressed.
func (ks Keystate) KeyIsPressed() bool {
	return ks.Action == ActionPress || ks.Action == ActionRepeat
}

// OutputKey returns the key that represents this state on the output side:
// the remapped Key if set, otherwise the physical Inkey.
func (ks Keystate) OutputKey() keycode.Key {
	if ks.Key != nil {
		return *ks.Key
	}
	return ks.Inkey
}

// Keystore maps key code to Keystate. It is guarded by a read/write
// lock, since an external window-context provider thread may read it
// concurrently with the engine's own updates.
type Keystore struct {
	mu     sync.RWMutex
	states map[uint16]*Keystate
}

// NewKeystore creates a new empty keystore.
func NewKeystore() *Keystore {
	return &Keystore{states: make(map[uint16]*Keystate)}
}

// Len reports the number of keystates in the store.
func (s *Keystore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// Get returns a copy of the keystate for the given code, if any.
func (s *Keystore) Get(code uint16) (Keystate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ks, ok := s.states[code]
	if !ok {
		return Keystate{}, false
	}
	return *ks, true
}

// Update replaces the entry for inkey, preserving a snapshot of the prior
// state as Prior. If key is non-nil it becomes the new state's Key.
func (s *Keystore) Update(inkey keycode.Key, action Action, key *keycode.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := uint16(inkey)

	var next Keystate
	if prior, ok := s.states[code]; ok {
		next = New(inkey, action).WithPrior(*prior)
	} else {
		next = New(inkey, action)
	}
	if key != nil {
		k := *key
		next.Key = &k
	}
	s.states[code] = &next
}

// Remove deletes the keystate for code.
func (s *Keystore) Remove(code uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, code)
}

// Clear removes all keystates.
func (s *Keystore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[uint16]*Keystate)
}

// ModifierSnapshot returns a canonical sorted, deduped list of currently
// pressed modifier key codes, used as the repeat-cache discriminator.
func (s *Keystore) ModifierSnapshot() []uint16 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[uint16]struct{})
	for _, ks := range s.states {
		if !ks.KeyIsPressed() {
			continue
		}
		code := uint16(ks.OutputKey())
		if keycode.IsKeyModifier(keycode.Key(code)) {
			seen[code] = struct{}{}
		}
	}
	out := make([]uint16, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PressedModsKeys returns the output-side Keys of all pressed modifiers.
func (s *Keystore) PressedModsKeys() []keycode.Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []keycode.Key
	for _, ks := range s.states {
		if !ks.KeyIsPressed() {
			continue
		}
		k := ks.OutputKey()
		if keycode.IsKeyModifier(k) {
			out = append(out, k)
		}
	}
	return out
}

// PressedMods returns the Modifier objects for all pressed modifier keys.
func (s *Keystore) PressedMods() []*keycode.Modifier {
	keys := s.PressedModsKeys()
	out := make([]*keycode.Modifier, 0, len(keys))
	for _, k := range keys {
		if m, ok := keycode.FromKey(k); ok {
			out = append(out, m)
		}
	}
	return out
}

// PressedModsHasShift reports whether either Shift key is currently held,
// judged by each pressed entry's output key.
func (s *Keystore) PressedModsHasShift() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ks := range s.states {
		if !ks.KeyIsPressed() {
			continue
		}
		k := ks.OutputKey()
		if k == keycode.KeyLeftShift || k == keycode.KeyRightShift {
			return true
		}
	}
	return false
}

// PressedStates returns snapshots of all currently pressed keystates.
func (s *Keystore) PressedStates() []Keystate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Keystate
	for _, ks := range s.states {
		if ks.KeyIsPressed() {
			out = append(out, *ks)
		}
	}
	return out
}

// SpentStateKeys returns the inkey codes of pressed states whose output
// key is NOT in pressedOnOutput, used by combo active-set bookkeeping.
func (s *Keystore) SpentStateKeys(pressedOnOutput []uint16) []uint16 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	onOutput := make(map[uint16]struct{}, len(pressedOnOutput))
	for _, c := range pressedOnOutput {
		onOutput[c] = struct{}{}
	}
	var out []uint16
	for _, ks := range s.states {
		if !ks.KeyIsPressed() || ks.Key == nil {
			continue
		}
		if _, ok := onOutput[uint16(*ks.Key)]; !ok {
			out = append(out, uint16(ks.Inkey))
		}
	}
	return out
}
