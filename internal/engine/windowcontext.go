package engine

import (
	"sync"

	"github.com/Danondso/keyrs/internal/condition"
)

// WindowContext is the mutable record of the active window, device, lock
// states, keyboard type, and settings. It is owned by the engine but
// updated by the external window-context provider (possibly from another
// goroutine in the Wayland variant) and by lock-key press events, so it
// is guarded by a read/write lock.
type WindowContext struct {
	mu sync.RWMutex

	wmClass      string
	wmName       string
	deviceName   string
	numlockOn    bool
	capslockOn   bool
	keyboardType string
	settings     map[string]bool

	// generation increments every time SetActiveWindow accepts an actual
	// window-identity change, so the engine can cheaply detect a focus
	// change from its own goroutine without the provider needing to know
	// about nested keymaps.
	generation uint64
}

// NewWindowContext creates an empty WindowContext.
func NewWindowContext() *WindowContext {
	return &WindowContext{settings: make(map[string]bool)}
}

// SetActiveWindow updates the tracked window identity. An info whose
// fields are both empty is ignored (transient during focus switches),
// keeping the last stable context.
func (w *WindowContext) SetActiveWindow(wmClass, wmName string) {
	if wmClass == "" && wmName == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.wmClass == wmClass && w.wmName == wmName {
		return
	}
	w.wmClass = wmClass
	w.wmName = wmName
	w.generation++
}

// Generation returns a counter that advances every time the active window
// identity actually changes, letting the engine detect a focus change by
// polling from its own goroutine instead of the provider calling back into
// engine internals.
func (w *WindowContext) Generation() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.generation
}

// SetDeviceName updates the name of the device the current event
// originated from.
func (w *WindowContext) SetDeviceName(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.deviceName = name
}

// SetKeyboardType updates the configured/overridden keyboard type.
func (w *WindowContext) SetKeyboardType(t string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.keyboardType = t
}

// SetLockStates updates the tracked NumLock/CapsLock LED states.
func (w *WindowContext) SetLockStates(numlock, capslock bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.numlockOn = numlock
	w.capslockOn = capslock
}

// ToggleNumlock flips the tracked NumLock flag on a NumLock press.
func (w *WindowContext) ToggleNumlock() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.numlockOn = !w.numlockOn
}

// ToggleCapslock flips the tracked CapsLock flag on a CapsLock press.
func (w *WindowContext) ToggleCapslock() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.capslockOn = !w.capslockOn
}

// SetSetting applies a SetSetting sequence step into the settings map.
func (w *WindowContext) SetSetting(name string, value bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.settings[name] = value
}

// ReplaceSettings swaps the entire settings map, used by the SIGHUP
// settings-file hot reload.
func (w *WindowContext) ReplaceSettings(settings map[string]bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.settings = settings
}

// Snapshot returns a condition.Context built from the current state, for
// evaluating a keymap/modmap/multipurpose condition string.
func (w *WindowContext) Snapshot() condition.Context {
	w.mu.RLock()
	defer w.mu.RUnlock()
	settings := make(map[string]bool, len(w.settings))
	for k, v := range w.settings {
		settings[k] = v
	}
	return condition.Context{
		WMClass:      w.wmClass,
		WMName:       w.wmName,
		DeviceName:   w.deviceName,
		NumlockOn:    w.numlockOn,
		CapslockOn:   w.capslockOn,
		KeyboardType: w.keyboardType,
		Settings:     settings,
	}
}

// Eval evaluates a condition string against the current snapshot.
func (w *WindowContext) Eval(expr string) bool {
	if expr == "" {
		return true
	}
	return condition.Eval(expr, w.Snapshot())
}
