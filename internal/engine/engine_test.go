package engine

import (
	"testing"
	"time"

	"github.com/Danondso/keyrs/internal/combo"
	"github.com/Danondso/keyrs/internal/keycode"
	"github.com/Danondso/keyrs/internal/keystore"
)

func newTestEngine(cfg Config) *Engine {
	ks := keystore.NewKeystore()
	win := NewWindowContext()
	return New(cfg, ks, win)
}

// A Caps -> Esc modmap round-trips as Remapped on both Press and
// Release.
func TestCapsToEscModmap(t *testing.T) {
	def := combo.NewModmap("default")
	def.Insert(keycode.KeyCapsLock, keycode.KeyEsc)
	eng := newTestEngine(Config{Modmaps: []*combo.Modmap{def}})

	press := eng.ProcessEvent(keycode.KeyCapsLock, keystore.ActionPress)
	if len(press) != 1 || press[0].Result.Kind != ResultRemapped || press[0].Result.Key != keycode.KeyEsc {
		t.Fatalf("expected Remapped(ESC) on press, got %+v", press)
	}
	release := eng.ProcessEvent(keycode.KeyCapsLock, keystore.ActionRelease)
	if len(release) != 1 || release[0].Result.Kind != ResultRemapped || release[0].Result.Key != keycode.KeyEsc {
		t.Fatalf("expected Remapped(ESC) on release, got %+v", release)
	}
}

// A Meta-V keymap rule must not fire its combo on both
// Press and Release of V ("no double paste").
func TestMetaComboDoesNotFireOnRelease(t *testing.T) {
	meta, _ := keycode.FromAlias("Meta")
	km := combo.NewKeymap("default")
	km.Insert(combo.FromSingle(meta, 47 /* V */), combo.Value{Kind: combo.ValueKey, Key: 47})
	eng := newTestEngine(Config{Keymaps: []*combo.Keymap{km}})

	eng.ProcessEvent(keycode.KeyLeftMeta, keystore.ActionPress)
	vPress := eng.ProcessEvent(47, keystore.ActionPress)
	if len(vPress) != 1 || vPress[0].Result.Kind != ResultComboKey {
		t.Fatalf("expected ComboKey on V press, got %+v", vPress)
	}
	vRelease := eng.ProcessEvent(47, keystore.ActionRelease)
	if len(vRelease) != 1 || vRelease[0].Result.Kind == ResultComboKey {
		t.Fatalf("V release must not be ComboKey (would double-fire), got %+v", vRelease)
	}
	eng.ProcessEvent(keycode.KeyLeftMeta, keystore.ActionRelease)
}

// Caps2Esc multipurpose: a tap within the timeout emits the tap output
// on Release.
func TestMultipurposeTapVsHold(t *testing.T) {
	eng := newTestEngine(Config{
		MultipurposeTimeout: 500 * time.Millisecond,
		MultipurposeTriggers: map[keycode.Key]MultipurposeRule{
			keycode.KeyCapsLock: {Entry: combo.MultiEntry{Tap: keycode.KeyEsc, Hold: keycode.KeyLeftCtrl}},
		},
	})

	press := eng.ProcessEvent(keycode.KeyCapsLock, keystore.ActionPress)
	if len(press) != 1 || press[0].Result.Kind != ResultSuppress {
		t.Fatalf("expected Suppress on trigger press, got %+v", press)
	}
	release := eng.ProcessEvent(keycode.KeyCapsLock, keystore.ActionRelease)
	if len(release) != 1 || release[0].Result.Kind != ResultRemapped || release[0].Result.Key != keycode.KeyEsc {
		t.Fatalf("expected Remapped(ESC) tap on quick release, got %+v", release)
	}
}

func TestMultipurposeTimeoutThenInterrupt(t *testing.T) {
	eng := newTestEngine(Config{
		MultipurposeTimeout: 500 * time.Millisecond,
		MultipurposeTriggers: map[keycode.Key]MultipurposeRule{
			keycode.KeyCapsLock: {Entry: combo.MultiEntry{Tap: keycode.KeyEsc, Hold: keycode.KeyLeftCtrl}},
		},
	})

	start := time.Now()
	press := eng.ProcessEvent(keycode.KeyCapsLock, keystore.ActionPress)
	if len(press) != 1 || press[0].Result.Kind != ResultSuppress {
		t.Fatalf("expected Suppress on trigger press, got %+v", press)
	}

	timeoutEvents := eng.CheckMultipurposeTimeouts(start.Add(600 * time.Millisecond))
	if len(timeoutEvents) != 1 || timeoutEvents[0].Result.Kind != ResultRemapped || timeoutEvents[0].Result.Key != keycode.KeyLeftCtrl {
		t.Fatalf("expected hold-output Press from timeout check, got %+v", timeoutEvents)
	}

	interrupting := eng.ProcessEvent(30 /* A */, keystore.ActionPress)
	if len(interrupting) != 1 || interrupting[0].Result.Kind == ResultSuppress {
		t.Fatalf("expected the interrupting key to process normally after hold, got %+v", interrupting)
	}

	release := eng.ProcessEvent(keycode.KeyCapsLock, keystore.ActionRelease)
	if len(release) != 1 || release[0].Result.Kind != ResultRemapped || release[0].Result.Key != keycode.KeyLeftCtrl {
		t.Fatalf("expected HoldRelease(LEFT_CTRL), got %+v", release)
	}
}

// Interrupt while still Pending: Press(hold_out) must come strictly
// before the interrupting key's own result.
func TestMultipurposeInterruptOrdering(t *testing.T) {
	eng := newTestEngine(Config{
		MultipurposeTimeout: 500 * time.Millisecond,
		MultipurposeTriggers: map[keycode.Key]MultipurposeRule{
			keycode.KeyCapsLock: {Entry: combo.MultiEntry{Tap: keycode.KeyEsc, Hold: keycode.KeyLeftCtrl}},
		},
	})

	eng.ProcessEvent(keycode.KeyCapsLock, keystore.ActionPress)
	events := eng.ProcessEvent(30 /* A */, keystore.ActionPress)
	if len(events) != 2 {
		t.Fatalf("expected two events (hold-out press, then interrupting key), got %d: %+v", len(events), events)
	}
	if events[0].Result.Kind != ResultRemapped || events[0].Result.Key != keycode.KeyLeftCtrl || events[0].Action != keystore.ActionPress {
		t.Fatalf("expected hold-output Press first, got %+v", events[0])
	}
}

// Ctrl-E dead key acute, then Ctrl-held e composes é.
func TestDeadKeyAcuteComposition(t *testing.T) {
	ctrl, _ := keycode.FromAlias("Ctrl")
	km := combo.NewKeymap("default")
	km.Insert(combo.FromSingle(ctrl, 18 /* E */), combo.Value{Kind: combo.ValueUnicode, Unicode: 0x00B4})
	eng := newTestEngine(Config{Keymaps: []*combo.Keymap{km}})

	eng.ProcessEvent(keycode.KeyLeftCtrl, keystore.ActionPress)
	armed := eng.ProcessEvent(18 /* E */, keystore.ActionPress)
	if len(armed) != 1 || armed[0].Result.Kind != ResultSuppress {
		t.Fatalf("expected dead-key activation to Suppress, got %+v", armed)
	}
	eng.ProcessEvent(18, keystore.ActionRelease)
	eng.ProcessEvent(keycode.KeyLeftCtrl, keystore.ActionRelease)

	composed := eng.ProcessEvent(18 /* E */, keystore.ActionPress)
	if len(composed) != 1 || composed[0].Result.Kind != ResultUnicode || composed[0].Result.Unicode != 'é' {
		t.Fatalf("expected Unicode('é') on composition, got %+v", composed)
	}
}

// A forced-numpad conditional modmap gated on a settings flag, with the
// default modmap applying otherwise.
func TestForcedNumpadConditionalModmap(t *testing.T) {
	def := combo.NewModmap("default")
	def.Insert(keycode.KeyKP1, keycode.KeyEnd)
	conditional := combo.NewModmap("numpad")
	conditional.Condition = "settings.forced_numpad"
	conditional.Insert(keycode.KeyKP1, 2 /* KEY_1 */)

	eng := newTestEngine(Config{Modmaps: []*combo.Modmap{def, conditional}})

	before := eng.ProcessEvent(keycode.KeyKP1, keystore.ActionPress)
	if len(before) != 1 || before[0].Result.Key != keycode.KeyEnd {
		t.Fatalf("expected default modmap (END) before the setting flips, got %+v", before)
	}
	eng.ProcessEvent(keycode.KeyKP1, keystore.ActionRelease)

	eng.win.SetSetting("forced_numpad", true)
	after := eng.ProcessEvent(keycode.KeyKP1, keystore.ActionPress)
	if len(after) != 1 || after[0].Result.Key != keycode.Key(2) {
		t.Fatalf("expected conditional modmap (KEY_1) after the setting flips, got %+v", after)
	}
}

// A Sequence[Bind, Combo(Ctrl-Tab)] must hand both steps
// through to the emitter untouched and in order; the emitter (tested
// separately in internal/emitter) is what actually honors Bind by not
// releasing Ctrl first.
func TestSequenceWithBindPreservesSteps(t *testing.T) {
	ctrl, _ := keycode.FromAlias("Ctrl")
	km := combo.NewKeymap("default")
	km.Insert(combo.Combo{Key: 87 /* F11 */}, combo.Value{
		Kind: combo.ValueSequence,
		Sequence: []combo.ActionStep{
			{Kind: combo.StepBind},
			{Kind: combo.StepCombo, Combo: combo.FromSingle(ctrl, keycode.KeyTab)},
		},
	})
	eng := newTestEngine(Config{Keymaps: []*combo.Keymap{km}})

	result := eng.ProcessEvent(87, keystore.ActionPress)
	if len(result) != 1 || result[0].Result.Kind != ResultSequence {
		t.Fatalf("expected Sequence result, got %+v", result)
	}
	steps := result[0].Result.Sequence
	if len(steps) != 2 || steps[0].Kind != combo.StepBind || steps[1].Kind != combo.StepCombo {
		t.Fatalf("expected [Bind, Combo] steps preserved, got %+v", steps)
	}
}

// A SetSetting step is applied by the engine itself and
// does not appear in the filtered sequence handed to the emitter.
func TestSequenceSetSettingAppliedAndFiltered(t *testing.T) {
	km := combo.NewKeymap("default")
	km.Insert(combo.Combo{Key: 88}, combo.Value{
		Kind: combo.ValueSequence,
		Sequence: []combo.ActionStep{
			{Kind: combo.StepSetSetting, SettingName: "foo", SettingValue: true},
			{Kind: combo.StepText, Text: "hi"},
		},
	})
	eng := newTestEngine(Config{Keymaps: []*combo.Keymap{km}})

	result := eng.ProcessEvent(88, keystore.ActionPress)
	if len(result) != 1 || result[0].Result.Kind != ResultSequence {
		t.Fatalf("expected Sequence result, got %+v", result)
	}
	steps := result[0].Result.Sequence
	if len(steps) != 1 || steps[0].Kind != combo.StepText {
		t.Fatalf("expected SetSetting filtered out, only Text step left, got %+v", steps)
	}
	if !eng.win.Snapshot().Bool("foo") {
		t.Error("expected SetSetting side effect to be applied to WindowContext")
	}
}

// A Repeat of a key whose Press was cached replays the same result as
// long as the modifier snapshot is unchanged; the emitter ignores
// non-Press ComboKey events, so the replay is write-free downstream.
func TestRepeatCacheReplaysUnchangedSnapshot(t *testing.T) {
	km := combo.NewKeymap("default")
	km.Insert(combo.Combo{Key: 88}, combo.Value{Kind: combo.ValueKey, Key: 1})
	eng := newTestEngine(Config{Keymaps: []*combo.Keymap{km}})

	press := eng.ProcessEvent(88, keystore.ActionPress)
	if press[0].Result.Kind != ResultComboKey {
		t.Fatalf("expected ComboKey on press, got %+v", press)
	}
	repeat := eng.ProcessEvent(88, keystore.ActionRepeat)
	if repeat[0].Result.Kind != ResultComboKey || repeat[0].Result.Key != keycode.Key(1) {
		t.Fatalf("expected Repeat to replay the cached ComboKey result, got %+v", repeat)
	}

	// A changed snapshot misses the cache and resolves fresh.
	eng.ProcessEvent(keycode.KeyLeftShift, keystore.ActionPress)
	miss := eng.ProcessEvent(88, keystore.ActionRepeat)
	if miss[0].Result.Kind == ResultComboKey {
		t.Fatalf("expected a changed modifier snapshot to miss the repeat cache, got %+v", miss)
	}
}

// Suspend suppresses subsequent
// events until the double-tap toggles it back off.
func TestSuspendGateSuppressesUntilDoubleTap(t *testing.T) {
	eng := newTestEngine(Config{SuspendKey: keycode.KeyScrollLock, SuspendTimeout: 1000 * time.Millisecond})

	first := eng.ProcessEvent(keycode.KeyScrollLock, keystore.ActionPress)
	if first[0].Result.Kind != ResultSuppress {
		t.Fatalf("expected first suspend-key press to Suppress pending double-tap, got %+v", first)
	}

	second := eng.ProcessEvent(keycode.KeyScrollLock, keystore.ActionPress)
	if second[0].Result.Kind != ResultSuspend {
		t.Fatalf("expected double-tap within timeout to enter Suspend, got %+v", second)
	}
	if !eng.Suspended() {
		t.Fatal("expected engine to report Suspended() after entering suspend mode")
	}

	other := eng.ProcessEvent(30 /* A */, keystore.ActionPress)
	if other[0].Result.Kind != ResultSuppress {
		t.Fatalf("expected all other events to Suppress while suspended, got %+v", other)
	}

	resumeFirst := eng.ProcessEvent(keycode.KeyScrollLock, keystore.ActionPress)
	if resumeFirst[0].Result.Kind != ResultSuppress {
		t.Fatalf("expected the resume double-tap's first press to Suppress, got %+v", resumeFirst)
	}
	resumeSecond := eng.ProcessEvent(keycode.KeyScrollLock, keystore.ActionPress)
	if resumeSecond[0].Result.Kind != ResultSuspend || eng.Suspended() {
		t.Fatalf("expected the second resume tap to exit suspend mode, got %+v suspended=%v", resumeSecond, eng.Suspended())
	}
}

// A generic-modifier combo rule matches whichever
// left/right physical variant is held.
func TestGenericModifierMatchesEitherSide(t *testing.T) {
	ctrl, _ := keycode.FromAlias("Ctrl")
	km := combo.NewKeymap("default")
	km.Insert(combo.FromSingle(ctrl, 18 /* E */), combo.Value{Kind: combo.ValueKey, Key: 1})
	eng := newTestEngine(Config{Keymaps: []*combo.Keymap{km}})

	eng.ProcessEvent(keycode.KeyRightCtrl, keystore.ActionPress)
	result := eng.ProcessEvent(18, keystore.ActionPress)
	if result[0].Result.Kind != ResultComboKey {
		t.Fatalf("expected right-Ctrl physical variant to satisfy the generic Ctrl rule, got %+v", result)
	}
}

// Modifier identity for combo matching survives a modmap
// that remaps the modifier's emitted key (Super -> Ctrl still matches a
// rule keyed on Super).
func TestModifierIdentityUnaffectedByModmap(t *testing.T) {
	def := combo.NewModmap("default")
	def.Insert(keycode.KeyLeftMeta, keycode.KeyLeftCtrl)
	meta, _ := keycode.FromAlias("Meta")
	km := combo.NewKeymap("default")
	km.Insert(combo.FromSingle(meta, 47 /* V */), combo.Value{Kind: combo.ValueKey, Key: 47})
	eng := newTestEngine(Config{Modmaps: []*combo.Modmap{def}, Keymaps: []*combo.Keymap{km}})

	eng.ProcessEvent(keycode.KeyLeftMeta, keystore.ActionPress)
	result := eng.ProcessEvent(47, keystore.ActionPress)
	if result[0].Result.Kind != ResultComboKey {
		t.Fatalf("expected the Meta-V rule to still match after Meta is modmapped to Ctrl, got %+v", result)
	}
}

// A window change unconditionally clears the nested-keymap stack,
// detected lazily on the next ProcessEvent call.
func TestWindowChangeClearsNestedKeymapStack(t *testing.T) {
	nested := combo.NewKeymap("games")
	nested.Insert(combo.Combo{Key: 30}, combo.Value{Kind: combo.ValueKey, Key: 1})
	top := combo.NewKeymap("default")
	top.Insert(combo.Combo{Key: 88}, combo.Value{Kind: combo.ValueKey, Key: 2})

	eng := newTestEngine(Config{
		Keymaps:         []*combo.Keymap{top},
		KeymapsByName:   map[string]*combo.Keymap{"games": nested},
		NestedKeymapFor: map[keycode.Key]string{2: "games"},
	})

	eng.ProcessEvent(88, keystore.ActionPress)
	eng.ProcessEvent(88, keystore.ActionRelease)
	if names := eng.ActiveKeymapNames(time.Now()); len(names) != 1 || names[0] != "games" {
		t.Fatalf("expected the nested keymap to be pushed, got %+v", names)
	}

	eng.win.SetActiveWindow("SomeOtherApp", "SomeOtherApp")
	// The stack is still reported as active until the next ProcessEvent
	// call observes the new generation.
	eng.ProcessEvent(keycode.KeyReserved, keystore.ActionPress)
	if names := eng.ActiveKeymapNames(time.Now()); len(names) != 0 {
		t.Fatalf("expected the nested keymap stack to clear after a window change, got %+v", names)
	}
}
