package keycode

import "testing"

func TestFromAlias(t *testing.T) {
	tests := []struct {
		alias string
		want  string
	}{
		{"Ctrl", "CONTROL"},
		{"C", "CONTROL"},
		{"LCtrl", "L_CONTROL"},
		{"Super", "META"},
		{"RWin", "R_META"},
	}
	for _, tt := range tests {
		m, ok := FromAlias(tt.alias)
		if !ok {
			t.Fatalf("FromAlias(%q): not found", tt.alias)
		}
		if m.Name() != tt.want {
			t.Errorf("FromAlias(%q) = %q, want %q", tt.alias, m.Name(), tt.want)
		}
	}
}

func TestFromKeyResolvesToGeneric(t *testing.T) {
	m, ok := FromKey(KeyLeftCtrl)
	if !ok || m.Name() != "CONTROL" {
		t.Fatalf("FromKey(LEFT_CTRL) = %v, %v; want the generic CONTROL", m, ok)
	}
	r, ok := FromKey(KeyRightCtrl)
	if !ok || !m.Equal(r) {
		t.Fatalf("expected both Ctrl keys to resolve to the same generic modifier")
	}
}

func TestIsKeyModifier(t *testing.T) {
	if !IsKeyModifier(KeyLeftShift) {
		t.Error("LEFT_SHIFT should be a modifier")
	}
	if IsKeyModifier(30) {
		t.Error("code 30 (A) should not be a modifier")
	}
}

func TestLeftRightVariants(t *testing.T) {
	ctrl, _ := FromAlias("Ctrl")
	left, right, ok := LeftRightVariants(ctrl)
	if !ok {
		t.Fatal("expected left/right variants for generic CONTROL")
	}
	if left.Key() != KeyLeftCtrl || right.Key() != KeyRightCtrl {
		t.Errorf("got left=%v right=%v", left.Key(), right.Key())
	}
}

func TestRegisterModifierDuplicateRejected(t *testing.T) {
	if RegisterModifier("CONTROL", nil, []Key{999}) {
		t.Error("expected duplicate name registration to fail")
	}
}

func TestKeyFromName(t *testing.T) {
	tests := []struct {
		name string
		want Key
	}{
		{"esc", KeyEsc},
		{"CAPSLOCK", KeyCapsLock},
		{"enter", KeyEnter},
		{"0", Key(11)},
		{"KEY_0", Key(11)},
	}
	for _, tt := range tests {
		k, ok := KeyFromName(tt.name)
		if !ok {
			t.Fatalf("KeyFromName(%q): not found", tt.name)
		}
		if k != tt.want {
			t.Errorf("KeyFromName(%q) = %v, want %v", tt.name, k, tt.want)
		}
	}
	if _, ok := KeyFromName("not a key"); ok {
		t.Error("expected unknown key name to fail")
	}
}
