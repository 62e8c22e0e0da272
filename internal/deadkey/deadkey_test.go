package deadkey

import (
	"testing"
	"time"
)

func TestIndicatorRecognizesAccents(t *testing.T) {
	cases := map[rune]AccentKind{
		0x00B4: AccentAcute,
		0x0060: AccentGrave,
		0x007E: AccentTilde,
		0x02DC: AccentTilde,
		0x00A8: AccentUmlaut,
		0x005E: AccentCircumflex,
		0x02C6: AccentCircumflex,
	}
	for cp, want := range cases {
		got, ok := Indicator(cp)
		if !ok || got != want {
			t.Errorf("Indicator(%#x) = %v, %v; want %v", cp, got, ok, want)
		}
	}
	if _, ok := Indicator('x'); ok {
		t.Error("expected 'x' to not be a dead-key indicator")
	}
}

func TestComposeAcuteE(t *testing.T) {
	now := time.Now()
	c := NewComposer(2 * time.Second)
	c.Activate(AccentAcute, now)

	cp, ok := c.Compose('e', false, false, now)
	if !ok || cp != 'é' {
		t.Fatalf("Compose(acute, e) = %q, %v; want é", cp, ok)
	}
}

func TestComposeUppercaseWithShift(t *testing.T) {
	now := time.Now()
	c := NewComposer(2 * time.Second)
	c.Activate(AccentAcute, now)

	cp, ok := c.Compose('e', false, true, now)
	if !ok || cp != 'É' {
		t.Fatalf("Compose(acute, E, shift) = %q, %v; want É", cp, ok)
	}
}

func TestComposeSpaceEmitsBareAccent(t *testing.T) {
	now := time.Now()
	c := NewComposer(2 * time.Second)
	c.Activate(AccentGrave, now)

	cp, ok := c.Compose(0, true, false, now)
	if !ok || cp != 0x0060 {
		t.Fatalf("Compose(grave, space) = %q, %v; want grave accent", cp, ok)
	}
}

func TestComposeUnsupportedCombinationFails(t *testing.T) {
	now := time.Now()
	c := NewComposer(2 * time.Second)
	c.Activate(AccentTilde, now)

	_, ok := c.Compose('q', false, false, now)
	if ok {
		t.Error("expected unsupported tilde+q to fail composition")
	}
	if c.Active(now) {
		t.Error("expected slot to be consumed even on failed composition")
	}
}

func TestComposeTimeoutClearsSilently(t *testing.T) {
	start := time.Now()
	c := NewComposer(50 * time.Millisecond)
	c.Activate(AccentAcute, start)

	later := start.Add(100 * time.Millisecond)
	if c.Active(later) {
		t.Error("expected composer to be inactive after timeout")
	}
	_, ok := c.Compose('e', false, false, later)
	if ok {
		t.Error("expected expired composer to produce no output")
	}
}
