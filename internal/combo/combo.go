// Package combo implements the combo value model: an
// order-independent set of modifiers plus a main key, and the output
// variants a keymap entry may resolve to.
package combo

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Danondso/keyrs/internal/keycode"
)

// Combo is (set-of-Modifier, Key). Equality and hashing are
// order-independent over the modifier set; the key is the "main key".
type Combo struct {
	Modifiers []*keycode.Modifier
	Key       keycode.Key
}

// New builds a Combo from an unordered modifier slice and a main key.
func New(mods []*keycode.Modifier, key keycode.Key) Combo {
	return Combo{Modifiers: mods, Key: key}
}

// FromSingle builds a Combo with exactly one modifier.
func FromSingle(mod *keycode.Modifier, key keycode.Key) Combo {
	return Combo{Modifiers: []*keycode.Modifier{mod}, Key: key}
}

// sortedNames returns the modifier identities sorted for canonical
// comparison and hashing.
func (c Combo) sortedNames() []string {
	names := make([]string, len(c.Modifiers))
	for i, m := range c.Modifiers {
		names[i] = m.Name()
	}
	sort.Strings(names)
	return names
}

// Equal compares two combos as an order-independent modifier set plus key.
func (c Combo) Equal(other Combo) bool {
	if c.Key != other.Key {
		return false
	}
	a, b := c.sortedNames(), other.sortedNames()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CacheKey returns a canonical string usable as a map key for Combo,
// normalizing the modifier set regardless of construction order.
func (c Combo) CacheKey() string {
	parts := append([]string{strconv.Itoa(int(c.Key))}, c.sortedNames()...)
	return strings.Join(parts, "\x00")
}

// HintKind enumerates the pseudo-output signals a keymap entry may emit.
type HintKind int

const (
	HintBind HintKind = iota
	HintEscapeNextKey
	HintIgnore
	HintEscapeNextCombo
)

// ActionStepKind enumerates the step kinds a Sequence may be built from.
type ActionStepKind int

const (
	StepCombo ActionStepKind = iota
	StepText
	StepDelayMs
	StepIgnore
	StepBind
	StepSetSetting
)

// ActionStep is one element of an output Sequence.
type ActionStep struct {
	Kind ActionStepKind

	Combo Combo  // StepCombo
	Text  string // StepText

	DelayMs int // StepDelayMs

	SettingName  string // StepSetSetting
	SettingValue bool   // StepSetSetting
}

// ValueKind enumerates the shapes a KeymapValue may take.
type ValueKind int

const (
	ValueKey ValueKind = iota
	ValueCombo
	ValueSequence
	ValueHint
	ValueUnicode
	ValueText
)

// Value is the output side of a keymap rule.
type Value struct {
	Kind ValueKind

	Key      keycode.Key  // ValueKey
	Combo    Combo        // ValueCombo
	Sequence []ActionStep // ValueSequence
	Hint     HintKind     // ValueHint
	Unicode  rune         // ValueUnicode
	Text     string       // ValueText
}
