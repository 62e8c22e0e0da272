package engine

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Danondso/keyrs/internal/keycode"
)

// repeatCache holds at most one entry, invalidated by any non-repeat
// event.
type repeatCache struct {
	valid      bool
	inkey      keycode.Key
	result     Result
	snapshotID string
}

func snapshotID(snapshot []uint16) string {
	parts := make([]string, len(snapshot))
	for i, c := range snapshot {
		parts[i] = strconv.Itoa(int(c))
	}
	return strings.Join(parts, ",")
}

func (c *repeatCache) lookup(inkey keycode.Key, snapshot []uint16) (Result, bool) {
	if !c.valid || c.inkey != inkey {
		return Result{}, false
	}
	if c.snapshotID != snapshotID(snapshot) {
		return Result{}, false
	}
	return c.result, true
}

func (c *repeatCache) store(inkey keycode.Key, result Result, snapshot []uint16) {
	c.valid = true
	c.inkey = inkey
	c.result = result
	c.snapshotID = snapshotID(snapshot)
}

func (c *repeatCache) invalidate() {
	c.valid = false
}

// activeCombos is the set of (modifier key list, output key) entries
// populated on Press when a combo matches and consumed on Release to
// suppress duplicate emission. It has a different lifetime from the
// repeat cache and must not be merged with it.
type activeCombos struct {
	entries map[string][]keycode.Key // cache key -> the modifier key list, for purge-by-key
}

func newActiveCombos() *activeCombos {
	return &activeCombos{entries: make(map[string][]keycode.Key)}
}

func activeComboKey(modKeys []keycode.Key, output keycode.Key) string {
	sorted := append([]keycode.Key(nil), modKeys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, 0, len(sorted)+1)
	for _, k := range sorted {
		parts = append(parts, strconv.Itoa(int(k)))
	}
	parts = append(parts, "->"+strconv.Itoa(int(output)))
	return strings.Join(parts, ",")
}

func (a *activeCombos) insert(modKeys []keycode.Key, output keycode.Key) {
	a.entries[activeComboKey(modKeys, output)] = modKeys
}

func (a *activeCombos) remove(modKeys []keycode.Key, output keycode.Key) bool {
	key := activeComboKey(modKeys, output)
	if _, ok := a.entries[key]; !ok {
		return false
	}
	delete(a.entries, key)
	return true
}

// purgeContaining removes every entry whose modifier list contains k,
// used when an unmatched Release retires a modifier.
func (a *activeCombos) purgeContaining(k keycode.Key) {
	for key, mods := range a.entries {
		for _, m := range mods {
			if m == k {
				delete(a.entries, key)
				break
			}
		}
	}
}

// nestedFrame is one entry of the nested-keymap stack: keymaps are
// referenced by name, not pointer, so lookups resolve by name at each
// step and no cycle can arise in the data.
type nestedFrame struct {
	name      string
	enteredAt time.Time
}

// nestedStack is the engine's push/pop stack of active nested keymap
// names. A configurable timeout or a window change clears it.
//
// The stack is cleared immediately on window change regardless of the
// timeout; frames expire lazily when consulted past the timeout. The
// timer is only checked on the next lookup, never polled independently.
type nestedStack struct {
	frames  []nestedFrame
	timeout time.Duration
}

func newNestedStack(timeout time.Duration) *nestedStack {
	return &nestedStack{timeout: timeout}
}

func (s *nestedStack) push(name string, now time.Time) {
	s.frames = append(s.frames, nestedFrame{name: name, enteredAt: now})
}

func (s *nestedStack) clear() {
	s.frames = nil
}

// activeNames returns the stack's keymap names, most-recently-pushed
// first, dropping (and popping) any frame whose timeout has elapsed.
func (s *nestedStack) activeNames(now time.Time) []string {
	for len(s.frames) > 0 {
		top := s.frames[len(s.frames)-1]
		if s.timeout > 0 && now.Sub(top.enteredAt) >= s.timeout {
			s.frames = s.frames[:len(s.frames)-1]
			continue
		}
		break
	}
	names := make([]string, len(s.frames))
	for i, f := range s.frames {
		names[len(s.frames)-1-i] = f.name
	}
	return names
}
