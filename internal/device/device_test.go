package device

import (
	evdev "github.com/holoplot/go-evdev"
	"testing"
)

func TestAutodetectCapableCodesMatchesQwertyAndSpace(t *testing.T) {
	want := map[evdev.EvCode]bool{16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 30: true, 44: true, 57: true}
	if len(autodetectCapableCodes) != len(want) {
		t.Fatalf("expected %d codes, got %d", len(want), len(autodetectCapableCodes))
	}
	for _, c := range autodetectCapableCodes {
		if !want[c] {
			t.Errorf("unexpected autodetect code %d", c)
		}
	}
}

func TestResolvePathsPrefersExplicitOverConfigOnly(t *testing.T) {
	// Both lists hold literal /dev/input/ paths, which pass through without
	// being opened; resolvePaths must return the explicit list and ignore
	// configOnly.
	paths, err := resolvePaths([]string{"/dev/input/event-explicit-missing"}, []string{"/dev/input/event-config-missing"})
	if err != nil {
		t.Fatalf("a literal /dev/input/ path should pass through unresolved, got error: %v", err)
	}
	if len(paths) != 1 || paths[0] != "/dev/input/event-explicit-missing" {
		t.Errorf("expected only the explicit path, got %v", paths)
	}
}

func TestResolveNamedOrPathRejectsUnmatchedBareName(t *testing.T) {
	_, err := resolveNamedOrPath([]string{"definitely-not-a-real-device-name"})
	if err == nil {
		t.Error("expected an error for an unmatched bare device name")
	}
}
