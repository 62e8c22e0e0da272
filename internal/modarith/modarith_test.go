package modarith

import (
	"reflect"
	"testing"

	"github.com/Danondso/keyrs/internal/keycode"
)

func TestComputeReleasesUnrelatedHeldModifiers(t *testing.T) {
	ctrl, _ := keycode.FromAlias("Ctrl")

	held := []keycode.Key{keycode.KeyLeftShift, keycode.KeyLeftCtrl}
	plan := Compute([]*keycode.Modifier{ctrl}, keycode.KeyTab, held)

	if !reflect.DeepEqual(plan.Release, []keycode.Key{keycode.KeyLeftShift}) {
		t.Errorf("Release = %v, want [LEFT_SHIFT]", plan.Release)
	}
	if len(plan.Press) != 0 {
		t.Errorf("Press = %v, want empty (ctrl already held)", plan.Press)
	}
	if plan.Main != keycode.KeyTab {
		t.Errorf("Main = %v", plan.Main)
	}
	if !reflect.DeepEqual(plan.Restore, []keycode.Key{keycode.KeyLeftShift}) {
		t.Errorf("Restore = %v, want [LEFT_SHIFT]", plan.Restore)
	}
}

func TestComputePressesUnsatisfiedModifiers(t *testing.T) {
	ctrl, _ := keycode.FromAlias("Ctrl")
	plan := Compute([]*keycode.Modifier{ctrl}, keycode.KeyTab, nil)
	if !reflect.DeepEqual(plan.Press, []keycode.Key{keycode.KeyLeftCtrl}) {
		t.Errorf("Press = %v, want [LEFT_CTRL]", plan.Press)
	}
}

func TestComputeReleaseReverseOrder(t *testing.T) {
	held := []keycode.Key{keycode.KeyLeftShift, keycode.KeyLeftAlt, keycode.KeyLeftCtrl}
	plan := Compute(nil, keycode.KeyTab, held)
	want := []keycode.Key{keycode.KeyLeftCtrl, keycode.KeyLeftAlt, keycode.KeyLeftShift}
	if !reflect.DeepEqual(plan.Release, want) {
		t.Errorf("Release = %v, want %v (reverse press order)", plan.Release, want)
	}
	if !reflect.DeepEqual(plan.Restore, held) {
		t.Errorf("Restore = %v, want %v (release reversed back)", plan.Restore, held)
	}
}

func TestComputeBindDoesNotReleaseHeldModifiers(t *testing.T) {
	ctrl, _ := keycode.FromAlias("Ctrl")
	held := []keycode.Key{keycode.KeyLeftCtrl}
	plan := ComputeBind([]*keycode.Modifier{ctrl}, keycode.KeyTab, held)
	if len(plan.Release) != 0 {
		t.Errorf("bind variant must not release anything, got %v", plan.Release)
	}
	if len(plan.Press) != 0 {
		t.Errorf("ctrl already held, expected no extra press, got %v", plan.Press)
	}
}

func TestComputeBindPressesOnlyMissingModifiers(t *testing.T) {
	ctrl, _ := keycode.FromAlias("Ctrl")
	plan := ComputeBind([]*keycode.Modifier{ctrl}, keycode.KeyTab, nil)
	if !reflect.DeepEqual(plan.Press, []keycode.Key{keycode.KeyLeftCtrl}) {
		t.Errorf("Press = %v, want [LEFT_CTRL]", plan.Press)
	}
	if !reflect.DeepEqual(plan.Restore, []keycode.Key{keycode.KeyLeftCtrl}) {
		t.Errorf("bind Restore should release only self-pressed keys, got %v", plan.Restore)
	}
}
