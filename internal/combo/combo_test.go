package combo

import (
	"testing"

	"github.com/Danondso/keyrs/internal/keycode"
)

func TestComboEqualOrderIndependent(t *testing.T) {
	ctrl, _ := keycode.FromAlias("Ctrl")
	shift, _ := keycode.FromAlias("Shift")

	a := New([]*keycode.Modifier{ctrl, shift}, keycode.Key(30))
	b := New([]*keycode.Modifier{shift, ctrl}, keycode.Key(30))

	if !a.Equal(b) {
		t.Error("combos with same modifiers in different order should be equal")
	}
	if a.CacheKey() != b.CacheKey() {
		t.Errorf("cache keys differ: %q vs %q", a.CacheKey(), b.CacheKey())
	}
}

func TestComboNotEqualDifferentKey(t *testing.T) {
	ctrl, _ := keycode.FromAlias("Ctrl")
	a := FromSingle(ctrl, keycode.Key(30))
	b := FromSingle(ctrl, keycode.Key(31))
	if a.Equal(b) {
		t.Error("combos with different main keys should not be equal")
	}
}

func TestKeymapFindNotFound(t *testing.T) {
	km := NewKeymap("test")
	_, ok := Find(nil, keycode.Key(30), []*Keymap{km}, nil)
	if ok {
		t.Error("expected no match in empty keymap")
	}
}

func TestKeymapFindFoundKey(t *testing.T) {
	km := NewKeymap("test")
	ctrl, _ := keycode.FromAlias("Ctrl")
	c := FromSingle(ctrl, keycode.Key(30))
	km.Insert(c, Value{Kind: ValueKey, Key: keycode.Key(31)})

	v, ok := Find([]*keycode.Modifier{ctrl}, keycode.Key(30), []*Keymap{km}, nil)
	if !ok {
		t.Fatal("expected match")
	}
	if v.Kind != ValueKey || v.Key != keycode.Key(31) {
		t.Errorf("got %+v", v)
	}
}

func TestKeymapFindSkipsFailingCondition(t *testing.T) {
	km := NewKeymap("test")
	km.Condition = "wm_class == \"foo\""
	ctrl, _ := keycode.FromAlias("Ctrl")
	c := FromSingle(ctrl, keycode.Key(30))
	km.Insert(c, Value{Kind: ValueKey, Key: keycode.Key(31)})

	_, ok := Find([]*keycode.Modifier{ctrl}, keycode.Key(30), []*Keymap{km}, func(string) bool { return false })
	if ok {
		t.Error("expected condition-gated keymap to be skipped")
	}
}
