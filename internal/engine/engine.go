package engine

import (
	"time"

	"github.com/Danondso/keyrs/internal/combo"
	"github.com/Danondso/keyrs/internal/deadkey"
	"github.com/Danondso/keyrs/internal/keycode"
	"github.com/Danondso/keyrs/internal/keystore"
	"github.com/Danondso/keyrs/internal/multipurpose"
)

// Event pairs a Result decision with the original triggering action
// (Press/Release/Repeat): the emitter needs both to decide what to
// write. ProcessEvent usually returns a single Event, except when a
// multipurpose interrupt requires the hold output's Press to be emitted
// strictly before the interrupting key's own result.
type Event struct {
	Result Result
	Action keystore.Action
}

// MultipurposeRule is one configured trigger: its tap/hold outputs plus
// an optional gating condition.
type MultipurposeRule struct {
	Entry     combo.MultiEntry
	Condition string
}

// Config is the engine's static, load-time configuration, built from the
// parsed TOML config.
type Config struct {
	SuspendKey           keycode.Key
	SuspendTimeout       time.Duration
	MultipurposeTimeout  time.Duration
	DeadKeyTimeout       time.Duration
	NestedKeymapTimeout  time.Duration

	// Modmaps[0] is the default modmap; the rest are conditional, tried
	// in order.
	Modmaps []*combo.Modmap

	MultipurposeTriggers map[keycode.Key]MultipurposeRule

	// Keymaps are the top-level, un-nested keymap rule sets, tried in
	// order after any active nested keymaps.
	Keymaps []*combo.Keymap

	// KeymapsByName resolves a nested keymap's name at each stack
	// lookup; the stack holds names, not pointers.
	KeymapsByName map[string]*combo.Keymap

	// NestedKeymapFor maps a ComboKey output key to the name of the
	// keymap that should be pushed onto the nested stack when that
	// output fires on Press.
	NestedKeymapFor map[keycode.Key]string
}

// Engine is the transform engine: it resolves each raw event through
// modmap, multipurpose, and keymap lookups and tracks the session state
// those lookups depend on.
type Engine struct {
	cfg Config
	ks  *keystore.Keystore
	win *WindowContext

	mp   *multipurpose.Manager
	dead *deadkey.Composer

	suspendMode      bool
	hasSuspendPress  bool
	lastSuspendPress time.Time

	escapeNext      bool
	escapeNextCombo bool

	repeat repeatCache
	active *activeCombos
	nested *nestedStack

	lastWinGen uint64
}

// New builds an Engine from its static configuration and the shared
// keystore/window-context the driver and window provider also touch.
func New(cfg Config, ks *keystore.Keystore, win *WindowContext) *Engine {
	if cfg.MultipurposeTimeout <= 0 {
		cfg.MultipurposeTimeout = 200 * time.Millisecond
	}
	if cfg.SuspendTimeout <= 0 {
		cfg.SuspendTimeout = 1000 * time.Millisecond
	}
	if cfg.DeadKeyTimeout <= 0 {
		cfg.DeadKeyTimeout = deadkey.DefaultTimeout
	}
	return &Engine{
		cfg:    cfg,
		ks:     ks,
		win:    win,
		mp:     multipurpose.NewManager(cfg.MultipurposeTimeout),
		dead:   deadkey.NewComposer(cfg.DeadKeyTimeout),
		active: newActiveCombos(),
		nested: newNestedStack(cfg.NestedKeymapTimeout),
	}
}

// Suspended reports whether the engine is currently in suspend mode,
// for status display.
func (e *Engine) Suspended() bool { return e.suspendMode }

// ActiveKeymapNames returns the names of the currently nested keymaps,
// most-recently-entered first, for status display.
func (e *Engine) ActiveKeymapNames(now time.Time) []string {
	return e.nested.activeNames(now)
}

// NotifyWindowChanged clears the nested-keymap stack on a focus change.
// The stack is cleared unconditionally on window change, regardless of
// the per-frame timeout, which is only otherwise consulted lazily on the
// next lookup.
func (e *Engine) NotifyWindowChanged() {
	e.nested.clear()
}

// ProcessEvent is the engine's single entry point: given a raw
// (key, action) pair it returns the ordered Events the driver should hand
// to the emitter.
func (e *Engine) ProcessEvent(key keycode.Key, action keystore.Action) []Event {
	now := time.Now()
	modSnapshot := e.ks.ModifierSnapshot()

	// Detect a focus change made by the window-context provider (possibly
	// from another goroutine) since the last event, and clear the
	// nested-keymap stack unconditionally.
	if gen := e.win.Generation(); gen != e.lastWinGen {
		e.lastWinGen = gen
		e.NotifyWindowChanged()
	}

	// Suspend gate.
	if events, handled := e.handleSuspend(key, action, now); handled {
		return events
	}

	// Lock-state side effect.
	if action == keystore.ActionPress {
		switch key {
		case keycode.KeyNumLock:
			e.win.ToggleNumlock()
		case keycode.KeyCapsLock:
			e.win.ToggleCapslock()
		}
	}

	// Repeat-cache short-circuit: an unchanged-snapshot Repeat replays
	// its cached result verbatim.
	if action == keystore.ActionRepeat {
		if cached, ok := e.repeat.lookup(key, modSnapshot); ok {
			return []Event{{Result: cached, Action: action}}
		}
	} else {
		e.repeat.invalidate()
	}

	if events, handled := e.handleMultipurpose(key, action, now); handled {
		return events
	}

	modmappedKey := combo.ResolveModmap(key, e.cfg.Modmaps, e.win.Eval)

	// Update keystore. Modifier identity is preserved for combo
	// matching; only non-modifier keys are stored under their remapped
	// output. Modifier remapping applies when the key is emitted, never
	// when it is interpreted.
	var stored keycode.Key
	if keycode.IsKeyModifier(key) {
		stored = key
	} else {
		stored = modmappedKey
	}
	e.ks.Update(key, action, &stored)

	// Escape-next.
	if e.escapeNext && (action == keystore.ActionPress || action == keystore.ActionRepeat) {
		e.escapeNext = false
		result := passthrough(key)
		e.storeRepeat(action, key, result, modSnapshot)
		return []Event{{Result: result, Action: action}}
	}

	// Dead-key composition.
	if action == keystore.ActionPress && e.dead.Active(now) {
		base, isSpace := deadKeyInput(modmappedKey)
		shift := false
		for _, m := range mapModifiers(e.ks.PressedMods(), e.cfg.Modmaps, e.win.Eval) {
			if k := m.Key(); k == keycode.KeyLeftShift || k == keycode.KeyRightShift {
				shift = true
			}
		}
		if cp, ok := e.dead.Compose(base, isSpace, shift, now); ok {
			result := Result{Kind: ResultUnicode, Unicode: cp}
			e.storeRepeat(action, key, result, modSnapshot)
			return []Event{{Result: result, Action: action}}
		}
		// Composition failed; the slot is still consumed (deadkey.Compose
		// always clears it) and processing falls through normally.
	}

	result := e.resolveCombo(key, modmappedKey, action, now)
	e.storeRepeat(action, key, result, modSnapshot)
	return []Event{{Result: result, Action: action}}
}

func (e *Engine) storeRepeat(action keystore.Action, key keycode.Key, result Result, snapshot []uint16) {
	if action != keystore.ActionRepeat {
		e.repeat.store(key, result, snapshot)
	}
}

// deadKeyInput derives the composer's base-letter/space inputs from a
// modmapped key code.
func deadKeyInput(k keycode.Key) (base rune, isSpace bool) {
	if k == keycode.KeySpace {
		return 0, true
	}
	if name := k.String(); len(name) == 1 {
		c := name[0]
		if c >= 'A' && c <= 'Z' {
			return rune(c), false
		}
	}
	return 0, false
}

// CheckMultipurposeTimeouts is the polled half of the multipurpose
// manager: the driver calls it after each ProcessEvent and on a short
// ticker while no events arrive. A non-empty result means the hold output's
// Press must be emitted now.
func (e *Engine) CheckMultipurposeTimeouts(now time.Time) []Event {
	holdOut, ok := e.mp.CheckTimeout(now)
	if !ok {
		return nil
	}
	return []Event{{Result: remapped(holdOut), Action: keystore.ActionPress}}
}

// handleSuspend implements the suspend gate: a double tap of the suspend
// key within the suspend timeout toggles suspend mode, and every other
// event while suspended is swallowed.
func (e *Engine) handleSuspend(key keycode.Key, action keystore.Action, now time.Time) ([]Event, bool) {
	isSuspendKey := e.cfg.SuspendKey != 0 && key == e.cfg.SuspendKey

	if e.suspendMode {
		if isSuspendKey && action == keystore.ActionPress {
			if e.hasSuspendPress && now.Sub(e.lastSuspendPress) <= e.cfg.SuspendTimeout {
				e.suspendMode = false
				e.hasSuspendPress = false
				return []Event{{Result: suspendResult(), Action: action}}, true
			}
			e.lastSuspendPress = now
			e.hasSuspendPress = true
			return []Event{{Result: suppress(), Action: action}}, true
		}
		return []Event{{Result: suppress(), Action: action}}, true
	}

	if isSuspendKey && action == keystore.ActionPress {
		if e.hasSuspendPress && now.Sub(e.lastSuspendPress) <= e.cfg.SuspendTimeout {
			e.suspendMode = true
			e.hasSuspendPress = false
			return []Event{{Result: suspendResult(), Action: action}}, true
		}
		e.lastSuspendPress = now
		e.hasSuspendPress = true
		return []Event{{Result: suppress(), Action: action}}, true
	}
	return nil, false
}

// handleMultipurpose routes events touching an in-flight multipurpose
// trigger, and starts a new trigger on a matching Press.
func (e *Engine) handleMultipurpose(key keycode.Key, action keystore.Action, now time.Time) ([]Event, bool) {
	if active, ok := e.mp.ActiveTrigger(); ok {
		if key != active {
			if action == keystore.ActionPress {
				if holdOut, interrupted := e.mp.InterruptWithKey(); interrupted {
					interruptEvent := Event{Result: remapped(holdOut), Action: keystore.ActionPress}
					rest := e.ProcessEvent(key, action)
					return append([]Event{interruptEvent}, rest...), true
				}
			}
			return nil, false
		}
		// This event is for the in-flight trigger itself.
		switch action {
		case keystore.ActionPress:
			return []Event{{Result: suppress(), Action: action}}, true
		case keystore.ActionRepeat:
			holdOut, suppressed := e.mp.RepeatSuppressed()
			if suppressed {
				return []Event{{Result: suppress(), Action: action}}, true
			}
			return []Event{{Result: remapped(holdOut), Action: action}}, true
		case keystore.ActionRelease:
			rel := e.mp.Release(now)
			switch rel.Kind {
			case multipurpose.ReleaseTap:
				return []Event{{Result: remapped(rel.Key), Action: action}}, true
			case multipurpose.ReleaseHold:
				return []Event{{Result: remapped(rel.Key), Action: action}}, true
			}
		}
		return []Event{{Result: suppress(), Action: action}}, true
	}

	if action != keystore.ActionPress {
		return nil, false
	}
	rule, ok := e.cfg.MultipurposeTriggers[key]
	if !ok {
		return nil, false
	}
	if rule.Condition != "" && !e.win.Eval(rule.Condition) {
		return nil, false
	}
	// Skip multipurpose entirely if another modifier is already
	// physically held, so e.g. RAlt-Enter still works when Enter is a
	// trigger.
	if len(e.ks.PressedModsKeys()) > 0 {
		return nil, false
	}
	e.mp.Start(key, rule.Entry, now)
	return []Event{{Result: suppress(), Action: action}}, true
}

// resolveCombo runs the keymap search over the physical and then logical
// modifier bases and dispatches the match, falling back to
// remap-or-passthrough.
func (e *Engine) resolveCombo(key, modmappedKey keycode.Key, action keystore.Action, now time.Time) Result {
	if e.escapeNextCombo && (action == keystore.ActionPress || action == keystore.ActionRepeat) {
		e.escapeNextCombo = false
	} else {
		physicalMods := e.ks.PressedMods()
		if m, ok := keycode.FromKey(key); ok {
			physicalMods = appendModifier(physicalMods, m)
		}
		logicalMods := mapModifiers(physicalMods, e.cfg.Modmaps, e.win.Eval)

		keymapList := e.activeKeymaps(now)

		value, matched := searchWithExpansion(physicalMods, modmappedKey, keymapList, e.win.Eval)
		if !matched {
			value, matched = searchWithExpansion(logicalMods, modmappedKey, keymapList, e.win.Eval)
		}
		if matched {
			physicalModKeys := e.ks.PressedModsKeys()
			return e.handleMatch(value, modmappedKey, physicalModKeys, action, now)
		}
	}

	if action == keystore.ActionRelease {
		e.active.purgeContaining(key)
	}
	if modmappedKey != key {
		return remapped(modmappedKey)
	}
	return passthrough(key)
}

func appendModifier(mods []*keycode.Modifier, m *keycode.Modifier) []*keycode.Modifier {
	for _, existing := range mods {
		if existing.Equal(m) {
			return mods
		}
	}
	return append(mods, m)
}

// mapModifiers runs each physical modifier's canonical key through the
// modmap and returns the Modifier for the result, if it remains a
// modifier. This provides the "Super -> Ctrl" fallback substitution while
// still letting an explicit Super rule win the first pass.
func mapModifiers(physical []*keycode.Modifier, maps []*combo.Modmap, cond combo.ConditionFunc) []*keycode.Modifier {
	out := make([]*keycode.Modifier, 0, len(physical))
	for _, m := range physical {
		mapped := combo.ResolveModmap(m.Key(), maps, cond)
		if mm, ok := keycode.FromKey(mapped); ok {
			out = appendModifier(out, mm)
		} else {
			out = appendModifier(out, m)
		}
	}
	return out
}

// activeKeymaps returns the nested-keymap stack's resolved keymaps
// (most-recently-entered first) followed by the top-level keymaps, so a
// just-entered nested keymap is consulted first.
func (e *Engine) activeKeymaps(now time.Time) []*combo.Keymap {
	names := e.nested.activeNames(now)
	if len(names) == 0 {
		return e.cfg.Keymaps
	}
	out := make([]*combo.Keymap, 0, len(names)+len(e.cfg.Keymaps))
	for _, n := range names {
		if km, ok := e.cfg.KeymapsByName[n]; ok {
			out = append(out, km)
		}
	}
	out = append(out, e.cfg.Keymaps...)
	return out
}

// searchWithExpansion runs the two lookup passes for one modifier basis:
// an exact lookup, then (only if that misses) the Cartesian left/right
// expansion of every generic modifier in mods.
func searchWithExpansion(mods []*keycode.Modifier, key keycode.Key, keymaps []*combo.Keymap, cond combo.ConditionFunc) (combo.Value, bool) {
	if v, ok := combo.Find(mods, key, keymaps, cond); ok {
		return v, ok
	}
	for _, expanded := range expandGeneric(mods) {
		if v, ok := combo.Find(expanded, key, keymaps, cond); ok {
			return v, ok
		}
	}
	return combo.Value{}, false
}

// expandGeneric returns every combination obtained by replacing each
// generic modifier in mods with its left or right variant (Cartesian
// product over all generic modifiers present).
func expandGeneric(mods []*keycode.Modifier) [][]*keycode.Modifier {
	genericIdx := make([]int, 0)
	for i, m := range mods {
		if m.IsGeneric() {
			genericIdx = append(genericIdx, i)
		}
	}
	if len(genericIdx) == 0 {
		return nil
	}
	variants := make([][2]*keycode.Modifier, len(genericIdx))
	for i, idx := range genericIdx {
		left, right, ok := keycode.LeftRightVariants(mods[idx])
		if !ok {
			left, right = mods[idx], mods[idx]
		}
		variants[i] = [2]*keycode.Modifier{left, right}
	}

	total := 1 << uint(len(genericIdx))
	out := make([][]*keycode.Modifier, 0, total)
	for bits := 0; bits < total; bits++ {
		candidate := append([]*keycode.Modifier(nil), mods...)
		for i, idx := range genericIdx {
			bit := (bits >> uint(i)) & 1
			candidate[idx] = variants[i][bit]
		}
		out = append(out, candidate)
	}
	return out
}

// handleMatch dispatches a matched keymap value by its kind.
func (e *Engine) handleMatch(value combo.Value, modmappedKey keycode.Key, physicalModKeys []keycode.Key, action keystore.Action, now time.Time) Result {
	switch value.Kind {
	case combo.ValueKey:
		return e.handleKeyOrComboMatch(physicalModKeys, value.Key, action, now)
	case combo.ValueCombo:
		r := e.handleKeyOrComboMatch(physicalModKeys, value.Combo.Key, action, now)
		if r.Kind == ResultComboKey {
			r.Kind = ResultCombo
			r.Combo = value.Combo
		}
		return r
	case combo.ValueSequence:
		if action != keystore.ActionPress {
			return suppress()
		}
		filtered := make([]combo.ActionStep, 0, len(value.Sequence))
		for _, step := range value.Sequence {
			if step.Kind == combo.StepSetSetting {
				e.win.SetSetting(step.SettingName, step.SettingValue)
				continue
			}
			filtered = append(filtered, step)
		}
		if len(filtered) == 0 {
			return suppress()
		}
		return Result{Kind: ResultSequence, Sequence: filtered}
	case combo.ValueHint:
		if action != keystore.ActionPress {
			return suppress()
		}
		switch value.Hint {
		case combo.HintEscapeNextKey:
			e.escapeNext = true
		case combo.HintEscapeNextCombo:
			e.escapeNextCombo = true
		}
		return Result{Kind: ResultHint, Hint: value.Hint}
	case combo.ValueUnicode:
		if action != keystore.ActionPress {
			return suppress()
		}
		if accent, isDead := deadkey.Indicator(value.Unicode); isDead {
			e.dead.Activate(accent, now)
			return suppress()
		}
		return Result{Kind: ResultUnicode, Unicode: value.Unicode}
	case combo.ValueText:
		if action != keystore.ActionPress {
			return suppress()
		}
		return Result{Kind: ResultText, Text: value.Text}
	}
	return suppress()
}

// handleKeyOrComboMatch applies the shared Key/Combo active-combo
// bookkeeping, and the nested-keymap push on a fresh Press.
func (e *Engine) handleKeyOrComboMatch(modKeys []keycode.Key, out keycode.Key, action keystore.Action, now time.Time) Result {
	switch action {
	case keystore.ActionRepeat:
		return suppress()
	case keystore.ActionRelease:
		if e.active.remove(modKeys, out) {
			return suppress()
		}
		return suppress()
	case keystore.ActionPress:
		e.active.insert(modKeys, out)
		if name, ok := e.cfg.NestedKeymapFor[out]; ok {
			e.nested.push(name, now)
		}
		return comboKey(out)
	}
	return suppress()
}
