package combo

import "github.com/Danondso/keyrs/internal/keycode"

// Keymap is a named, optionally condition-gated Combo -> Value rule set.
type Keymap struct {
	Name      string
	Condition string
	entries   map[string]Value
}

// NewKeymap creates an empty named keymap.
func NewKeymap(name string) *Keymap {
	return &Keymap{Name: name, entries: make(map[string]Value)}
}

// Insert adds or replaces a rule.
func (k *Keymap) Insert(c Combo, v Value) {
	k.entries[c.CacheKey()] = v
}

// Get looks up the value for an exact combo match, if any.
func (k *Keymap) Get(c Combo) (Value, bool) {
	v, ok := k.entries[c.CacheKey()]
	return v, ok
}

// Len reports the number of rules in the keymap.
func (k *Keymap) Len() int { return len(k.entries) }

// ConditionFunc evaluates a keymap's gating condition against the current
// engine context. Keymaps with an empty Condition always match.
type ConditionFunc func(condition string) bool

// Find runs an exact Combo lookup across keymaps in order, skipping those
// whose condition fails, and returns the first hit. The engine layers its
// two-pass physical/logical search and generic-modifier expansion on top
// of repeated calls to Find with different mod lists.
func Find(mods []*keycode.Modifier, key keycode.Key, keymaps []*Keymap, cond ConditionFunc) (Value, bool) {
	c := Combo{Modifiers: mods, Key: key}
	for _, km := range keymaps {
		if km.Condition != "" && cond != nil && !cond(km.Condition) {
			continue
		}
		if v, ok := km.Get(c); ok {
			return v, true
		}
	}
	return Value{}, false
}
