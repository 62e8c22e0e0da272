// Package emitter implements the output emitter: it translates an
// engine.Result into writes on the output sink, applying the modifier
// arithmetic of internal/modarith and reconciling desired combos against
// the set of modifiers the emitter itself has pressed on the virtual
// output device.
package emitter

import (
	"fmt"
	"time"

	"github.com/Danondso/keyrs/internal/combo"
	"github.com/Danondso/keyrs/internal/engine"
	"github.com/Danondso/keyrs/internal/keycode"
	"github.com/Danondso/keyrs/internal/keystore"
	"github.com/Danondso/keyrs/internal/modarith"
)

// Sink is the output-sink contract: emit a key event (the sink
// appends its own SYN_REPORT) and, on request, idempotently release every
// key it has asserted, in LIFO order. The uinput virtual keyboard
// (internal/uinput) is the production implementation.
type Sink interface {
	Emit(key keycode.Key, action keystore.Action) error
	ReleaseAll() error
}

// Delays are the configured pre/post pacing around each emitted key,
// from the [delays] config table (bounds 0-150ms each).
type Delays struct {
	KeyPreDelayMs  int
	KeyPostDelayMs int
}

func (d Delays) pre() time.Duration  { return time.Duration(d.KeyPreDelayMs) * time.Millisecond }
func (d Delays) post() time.Duration { return time.Duration(d.KeyPostDelayMs) * time.Millisecond }

// Emitter owns the "pressed on output" bookkeeping exclusively: no other
// goroutine may observe or mutate it, since the engine itself is
// single-threaded and the emitter runs on the same driver goroutine.
type Emitter struct {
	sink   Sink
	delays Delays

	// pressed is the ordered (press-order, oldest first) list of keys the
	// emitter currently believes are held on the output device. This is
	// deliberately separate from the keystore's physical-press bookkeeping:
	// it tracks what WE asserted downstream, used both for modifier
	// arithmetic's "held" input and for Suspend/shutdown release-all.
	pressed []keycode.Key

	// bindNext is the one-shot flag set by a Sequence's Bind step:
	// the next Combo step within that same sequence uses the bind modifier
	// arithmetic variant instead of the normal one.
	bindNext bool
}

// New creates an Emitter writing to sink with the given pacing delays.
func New(sink Sink, delays Delays) *Emitter {
	e := &Emitter{sink: sink}
	e.SetDelays(delays)
	return e
}

// SetDelays updates the configured pre/post pacing, clamping to the
// 0-150ms bounds.
func (e *Emitter) SetDelays(d Delays) {
	d.KeyPreDelayMs = clampDelay(d.KeyPreDelayMs)
	d.KeyPostDelayMs = clampDelay(d.KeyPostDelayMs)
	e.delays = d
}

func clampDelay(ms int) int {
	if ms < 0 {
		return 0
	}
	if ms > 150 {
		return 150
	}
	return ms
}

// Apply translates one engine.Event into sink writes.
func (e *Emitter) Apply(ev engine.Event) error {
	switch ev.Result.Kind {
	case engine.ResultPassthrough, engine.ResultRemapped:
		return e.emitPassthroughOrRemapped(ev.Result.Key, ev.Action)
	case engine.ResultComboKey:
		return e.emitComboKeyTap(ev.Result.Key, ev.Action)
	case engine.ResultCombo:
		if ev.Action != keystore.ActionPress {
			return nil
		}
		return e.emitCombo(ev.Result.Combo, false)
	case engine.ResultSequence:
		if ev.Action != keystore.ActionPress {
			return nil
		}
		return e.emitSequence(ev.Result.Sequence)
	case engine.ResultUnicode:
		if ev.Action != keystore.ActionPress {
			return nil
		}
		return e.emitUnicode(ev.Result.Unicode)
	case engine.ResultText:
		if ev.Action != keystore.ActionPress {
			return nil
		}
		return e.emitText(ev.Result.Text)
	case engine.ResultHint, engine.ResultSuppress:
		return nil
	case engine.ResultSuspend:
		return e.ReleaseAll()
	}
	return nil
}

// track records that the emitter itself asserted a Press of k.
func (e *Emitter) track(k keycode.Key) {
	for _, p := range e.pressed {
		if p == k {
			return
		}
	}
	e.pressed = append(e.pressed, k)
}

// untrack removes k from the pressed list, reporting whether it was present.
func (e *Emitter) untrack(k keycode.Key) bool {
	for i, p := range e.pressed {
		if p == k {
			e.pressed = append(e.pressed[:i], e.pressed[i+1:]...)
			return true
		}
	}
	return false
}

// heldModifierKeys returns the modifier keys currently tracked as pressed
// on output, oldest-press-first, for modarith.Compute's "held" parameter.
func (e *Emitter) heldModifierKeys() []keycode.Key {
	out := make([]keycode.Key, 0, len(e.pressed))
	for _, k := range e.pressed {
		if keycode.IsKeyModifier(k) {
			out = append(out, k)
		}
	}
	return out
}

func (e *Emitter) emitRaw(k keycode.Key, action keystore.Action) error {
	if d := e.delays.pre(); d > 0 {
		time.Sleep(d)
	}
	err := e.sink.Emit(k, action)
	if d := e.delays.post(); d > 0 {
		time.Sleep(d)
	}
	return err
}

// emitPassthroughOrRemapped handles Passthrough(k)/Remapped(k) with any
// action. Every press the emitter asserts downstream is tracked in the
// pressed list, regardless of whether k is a modifier, because modifier
// arithmetic and Suspend/shutdown release-all both need that bookkeeping.
//
// Design decision: a Release of a key the emitter never tracked as pressed
// (e.g. because its Press was consumed earlier by escape-next or a dead-key
// composition) would otherwise be a bare Release with no matching Press on
// the virtual device, which most compositors ignore. A non-modifier in
// that situation gets a synthetic Press immediately before the Release
// instead, covering tap-on-release scenarios.
func (e *Emitter) emitPassthroughOrRemapped(k keycode.Key, action keystore.Action) error {
	switch action {
	case keystore.ActionPress:
		e.track(k)
		return e.emitRaw(k, action)
	case keystore.ActionRelease:
		if e.untrack(k) {
			return e.emitRaw(k, action)
		}
		if keycode.IsKeyModifier(k) {
			return e.emitRaw(k, action)
		}
		if err := e.emitRaw(k, keystore.ActionPress); err != nil {
			return err
		}
		return e.emitRaw(k, keystore.ActionRelease)
	default: // Repeat
		return e.emitRaw(k, action)
	}
}

// emitComboKeyTap handles ComboKey(k): a tap on Press, nothing on
// Repeat or Release (the matching Release was already suppressed by the
// engine's active-combo bookkeeping).
func (e *Emitter) emitComboKeyTap(k keycode.Key, action keystore.Action) error {
	if action != keystore.ActionPress {
		return nil
	}
	if err := e.emitRaw(k, keystore.ActionPress); err != nil {
		return err
	}
	return e.emitRaw(k, keystore.ActionRelease)
}

// emitCombo handles Combo(c): run the modifier arithmetic, then
// release/press/tap-main/release-new/restore in that order. When bind is
// true, ComputeBind is used instead (the Sequence Bind step).
func (e *Emitter) emitCombo(c combo.Combo, bind bool) error {
	held := e.heldModifierKeys()
	var plan modarith.Plan
	if bind {
		plan = modarith.ComputeBind(c.Modifiers, c.Key, held)
	} else {
		plan = modarith.Compute(c.Modifiers, c.Key, held)
	}

	for _, k := range plan.Release {
		if err := e.emitRaw(k, keystore.ActionRelease); err != nil {
			return err
		}
		e.untrack(k)
	}
	for _, k := range plan.Press {
		if err := e.emitRaw(k, keystore.ActionPress); err != nil {
			return err
		}
		e.track(k)
	}
	if err := e.emitRaw(plan.Main, keystore.ActionPress); err != nil {
		return err
	}
	if err := e.emitRaw(plan.Main, keystore.ActionRelease); err != nil {
		return err
	}
	for _, k := range plan.Press {
		if err := e.emitRaw(k, keystore.ActionRelease); err != nil {
			return err
		}
		e.untrack(k)
	}
	if bind {
		// ComputeBind's Restore lists only the self-pressed keys, which the
		// loop above has already released; nothing held was released, so
		// nothing is re-pressed.
		return nil
	}
	for _, k := range plan.Restore {
		if err := e.emitRaw(k, keystore.ActionPress); err != nil {
			return err
		}
		e.track(k)
	}
	return nil
}

// emitSequence runs a Sequence's steps: unless the sequence
// contains a Bind step, the currently-held modifiers are released before
// the steps run and restored after.
func (e *Emitter) emitSequence(steps []combo.ActionStep) error {
	hasBind := false
	for _, s := range steps {
		if s.Kind == combo.StepBind {
			hasBind = true
			break
		}
	}

	var releasedForSequence []keycode.Key
	if !hasBind {
		releasedForSequence = append([]keycode.Key(nil), e.heldModifierKeys()...)
		for i := len(releasedForSequence) - 1; i >= 0; i-- {
			k := releasedForSequence[i]
			if err := e.emitRaw(k, keystore.ActionRelease); err != nil {
				return err
			}
			e.untrack(k)
		}
	}

	e.bindNext = false
	for _, step := range steps {
		if err := e.applyStep(step); err != nil {
			return err
		}
	}
	e.bindNext = false

	for _, k := range releasedForSequence {
		if err := e.emitRaw(k, keystore.ActionPress); err != nil {
			return err
		}
		e.track(k)
	}
	return nil
}

func (e *Emitter) applyStep(step combo.ActionStep) error {
	switch step.Kind {
	case combo.StepCombo:
		bind := e.bindNext
		e.bindNext = false
		return e.emitCombo(step.Combo, bind)
	case combo.StepText:
		return e.emitText(step.Text)
	case combo.StepDelayMs:
		if step.DelayMs > 0 {
			time.Sleep(time.Duration(step.DelayMs) * time.Millisecond)
		}
		return nil
	case combo.StepBind:
		e.bindNext = true
		return nil
	case combo.StepIgnore, combo.StepSetSetting:
		// SetSetting was already applied by the engine; Ignore and
		// Bind (outside the Combo step that consumes it) produce no output.
		return nil
	}
	return nil
}

// emitText types a string: each character via the known
// shift-or-not ASCII tables, falling back to Unicode compose for anything
// unmapped. Characters are paced at least 1ms apart when no post-delay is
// configured, so rapid-fire keystrokes don't get coalesced downstream.
func (e *Emitter) emitText(s string) error {
	for i, r := range s {
		if i > 0 {
			if e.delays.KeyPostDelayMs == 0 {
				time.Sleep(time.Millisecond)
			}
		}
		code, shift, ok := runeToKey(r)
		if !ok {
			if err := e.emitUnicode(r); err != nil {
				return err
			}
			continue
		}
		if shift {
			if err := e.emitRaw(keycode.KeyLeftShift, keystore.ActionPress); err != nil {
				return err
			}
			e.track(keycode.KeyLeftShift)
		}
		if err := e.emitRaw(code, keystore.ActionPress); err != nil {
			return err
		}
		if err := e.emitRaw(code, keystore.ActionRelease); err != nil {
			return err
		}
		if shift {
			if err := e.emitRaw(keycode.KeyLeftShift, keystore.ActionRelease); err != nil {
				return err
			}
			e.untrack(keycode.KeyLeftShift)
		}
	}
	return nil
}

// keyU is KEY_U (22), used by the Ctrl-Shift-U Unicode compose sequence.
const keyU keycode.Key = 22

// emitUnicode handles Unicode(cp) on Press: release held modifiers, send
// the GTK/IBus Ctrl-Shift-U compose sequence with the lowercase hex
// digits of cp, then restore modifiers. An invalid codepoint is an error
// rather than silent suppression.
func (e *Emitter) emitUnicode(cp rune) error {
	if cp <= 0 || cp > 0x10FFFF || (cp >= 0xD800 && cp <= 0xDFFF) {
		return fmt.Errorf("emitter: invalid unicode codepoint U+%X", cp)
	}

	held := append([]keycode.Key(nil), e.heldModifierKeys()...)
	for i := len(held) - 1; i >= 0; i-- {
		if err := e.emitRaw(held[i], keystore.ActionRelease); err != nil {
			return err
		}
		e.untrack(held[i])
	}

	if err := e.tapCombo([]keycode.Key{keycode.KeyLeftCtrl, keycode.KeyLeftShift}, keyU); err != nil {
		return err
	}
	for _, h := range fmt.Sprintf("%x", cp) {
		code, shift, ok := runeToKey(h)
		if !ok {
			continue
		}
		if err := e.tapMaybeShift(code, shift); err != nil {
			return err
		}
	}
	if err := e.emitRaw(keycode.KeyEnter, keystore.ActionPress); err != nil {
		return err
	}
	if err := e.emitRaw(keycode.KeyEnter, keystore.ActionRelease); err != nil {
		return err
	}

	for _, k := range held {
		if err := e.emitRaw(k, keystore.ActionPress); err != nil {
			return err
		}
		e.track(k)
	}
	return nil
}

// tapCombo presses every key in mods then the result of the combo all at
// once (Press in order, Release in reverse), used only by the Unicode
// compose sequence's Ctrl-Shift-U prefix.
func (e *Emitter) tapCombo(mods []keycode.Key, main keycode.Key) error {
	for _, m := range mods {
		if err := e.emitRaw(m, keystore.ActionPress); err != nil {
			return err
		}
	}
	if err := e.emitRaw(main, keystore.ActionPress); err != nil {
		return err
	}
	if err := e.emitRaw(main, keystore.ActionRelease); err != nil {
		return err
	}
	for i := len(mods) - 1; i >= 0; i-- {
		if err := e.emitRaw(mods[i], keystore.ActionRelease); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) tapMaybeShift(code keycode.Key, shift bool) error {
	if shift {
		if err := e.emitRaw(keycode.KeyLeftShift, keystore.ActionPress); err != nil {
			return err
		}
	}
	if err := e.emitRaw(code, keystore.ActionPress); err != nil {
		return err
	}
	if err := e.emitRaw(code, keystore.ActionRelease); err != nil {
		return err
	}
	if shift {
		if err := e.emitRaw(keycode.KeyLeftShift, keystore.ActionRelease); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseAll issues the Suspend/shutdown releases: Release events for
// held keys in reverse-press order, non-modifiers before modifiers. It
// is idempotent.
func (e *Emitter) ReleaseAll() error {
	var mods, nonMods []keycode.Key
	for _, k := range e.pressed {
		if keycode.IsKeyModifier(k) {
			mods = append(mods, k)
		} else {
			nonMods = append(nonMods, k)
		}
	}
	for i := len(nonMods) - 1; i >= 0; i-- {
		if err := e.emitRaw(nonMods[i], keystore.ActionRelease); err != nil {
			return err
		}
	}
	for i := len(mods) - 1; i >= 0; i-- {
		if err := e.emitRaw(mods[i], keystore.ActionRelease); err != nil {
			return err
		}
	}
	e.pressed = nil
	return nil
}

// Pressed returns a snapshot of the keys the emitter currently believes are
// held on output, oldest-press-first. Used by tests and the TUI status view.
func (e *Emitter) Pressed() []keycode.Key {
	return append([]keycode.Key(nil), e.pressed...)
}
