package combo

import "github.com/Danondso/keyrs/internal/keycode"

// Modmap is a named, optionally condition-gated Key -> Key remapping.
type Modmap struct {
	Name      string
	Condition string
	entries   map[keycode.Key]keycode.Key
}

// NewModmap creates an empty named modmap.
func NewModmap(name string) *Modmap {
	return &Modmap{Name: name, entries: make(map[keycode.Key]keycode.Key)}
}

// Insert adds or replaces a from -> to remapping.
func (m *Modmap) Insert(from, to keycode.Key) {
	m.entries[from] = to
}

// Get looks up the remapped key for k, if any.
func (m *Modmap) Get(k keycode.Key) (keycode.Key, bool) {
	to, ok := m.entries[k]
	return to, ok
}

// Len reports the number of remappings.
func (m *Modmap) Len() int { return len(m.entries) }

// ResolveModmap applies modmap precedence: the first conditional modmap
// (in order) whose condition matches and which contains key wins;
// otherwise the default modmap (maps[0]) is consulted. Returns key
// unchanged if nothing matches.
func ResolveModmap(key keycode.Key, maps []*Modmap, cond ConditionFunc) keycode.Key {
	for i, m := range maps {
		if i == 0 {
			continue // default modmap is consulted last
		}
		if m.Condition != "" && cond != nil && !cond(m.Condition) {
			continue
		}
		if to, ok := m.Get(key); ok {
			return to
		}
	}
	if len(maps) > 0 {
		if to, ok := maps[0].Get(key); ok {
			return to
		}
	}
	return key
}

// MultiEntry is the tap/hold output pair for a multipurpose trigger.
type MultiEntry struct {
	Tap  keycode.Key
	Hold keycode.Key
}
