// Package config implements the TOML configuration format and the
// separate settings file, plus the translation from parsed config into
// the engine's static Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Danondso/keyrs/internal/combo"
	"github.com/Danondso/keyrs/internal/engine"
	"github.com/Danondso/keyrs/internal/keycode"
)

// General holds the top-level [general] table.
type General struct {
	SuspendKey        string `toml:"suspend_key"`
	DiagnosticsKey    string `toml:"diagnostics_key"`
	EmergencyEjectKey string `toml:"emergency_eject_key"`
}

// ModmapTable holds [modmap.default] and [[modmap.conditionals]].
type ModmapTable struct {
	Default      map[string]string   `toml:"default"`
	Conditionals []ModmapConditional `toml:"conditionals"`
}

// ModmapConditional is one [[modmap.conditionals]] entry.
type ModmapConditional struct {
	Name      string            `toml:"name"`
	Condition string            `toml:"condition"`
	Mappings  map[string]string `toml:"mappings"`
}

// MultipurposeEntry is one [[multipurpose]] entry.
type MultipurposeEntry struct {
	Name      string `toml:"name"`
	Trigger   string `toml:"trigger"`
	Tap       string `toml:"tap"`
	Hold      string `toml:"hold"`
	Condition string `toml:"condition"`
}

// KeymapEntry is one [[keymap]] entry. Mapping values are either a string
// or an array; toml decodes both into interface{}.
type KeymapEntry struct {
	Name      string                 `toml:"name"`
	Condition string                 `toml:"condition"`
	Mappings  map[string]interface{} `toml:"mappings"`
}

// Timeouts holds the [timeouts] table. A zero value means "use the
// component's own default".
type Timeouts struct {
	MultipurposeMs int `toml:"multipurpose"`
	SuspendMs      int `toml:"suspend"`
	DeadKeyMs      int `toml:"dead_key"`
	NestedKeymapMs int `toml:"nested_keymap"`
}

// Devices holds the [devices] table.
type Devices struct {
	Only []string `toml:"only"`
}

// Delays holds the [delays] table.
type Delays struct {
	KeyPreDelayMs  int `toml:"key_pre_delay_ms"`
	KeyPostDelayMs int `toml:"key_post_delay_ms"`
}

// Window holds the [window] table governing the window-context poller.
type Window struct {
	PollTimeoutMs    int `toml:"poll_timeout_ms"`
	UpdateIntervalMs int `toml:"update_interval_ms"`
	IdleSleepMs      int `toml:"idle_sleep_ms"`
}

// Config is the root of the TOML configuration format. All tables are
// optional; Default fills in every field a fresh install needs.
type Config struct {
	General      General             `toml:"general"`
	Modmap       ModmapTable         `toml:"modmap"`
	Multipurpose []MultipurposeEntry `toml:"multipurpose"`
	Keymap       []KeymapEntry       `toml:"keymap"`
	Timeouts     Timeouts            `toml:"timeouts"`
	Devices      Devices             `toml:"devices"`
	Delays       Delays              `toml:"delays"`
	Window       Window              `toml:"window"`
}

// Default returns the configuration a fresh install runs with: no
// remappings, generous timeouts, autodetected devices, no pacing delays.
func Default() Config {
	return Config{
		General: General{
			SuspendKey: "SCROLLLOCK",
		},
		Timeouts: Timeouts{
			MultipurposeMs: 200,
			SuspendMs:      1000,
		},
		Window: Window{
			PollTimeoutMs:    250,
			UpdateIntervalMs: 250,
			IdleSleepMs:      50,
		},
	}
}

// DefaultPath is the well-known location for the main config file.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "keyrs", "config.toml")
}

// DefaultSettingsPath is the well-known location for the settings file.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "keyrs", "settings.toml")
}

// Load reads and parses path, returning Default() if the file does not
// exist. Syntax and range errors are returned, and fatal to the caller:
// everything at startup is loud.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Save atomically writes cfg to path (write to a temp file in the same
// directory, then rename), creating the parent directory if needed.
func Save(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return fmt.Errorf("config: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("config: encoding: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("config: syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("config: closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("config: renaming into place: %w", err)
	}
	return nil
}

// Validate enforces the documented range constraints; violations are
// fatal at load.
func (c Config) Validate() error {
	if c.Timeouts.MultipurposeMs != 0 && (c.Timeouts.MultipurposeMs < 100 || c.Timeouts.MultipurposeMs > 5000) {
		return fmt.Errorf("timeouts.multipurpose must be 100-5000ms, got %d", c.Timeouts.MultipurposeMs)
	}
	if c.Timeouts.SuspendMs != 0 && (c.Timeouts.SuspendMs < 100 || c.Timeouts.SuspendMs > 10000) {
		return fmt.Errorf("timeouts.suspend must be 100-10000ms, got %d", c.Timeouts.SuspendMs)
	}
	if c.Delays.KeyPreDelayMs < 0 || c.Delays.KeyPreDelayMs > 150 {
		return fmt.Errorf("delays.key_pre_delay_ms must be 0-150ms, got %d", c.Delays.KeyPreDelayMs)
	}
	if c.Delays.KeyPostDelayMs < 0 || c.Delays.KeyPostDelayMs > 150 {
		return fmt.Errorf("delays.key_post_delay_ms must be 0-150ms, got %d", c.Delays.KeyPostDelayMs)
	}
	if c.Window.PollTimeoutMs != 0 && (c.Window.PollTimeoutMs < 1 || c.Window.PollTimeoutMs > 5000) {
		return fmt.Errorf("window.poll_timeout_ms must be 1-5000ms, got %d", c.Window.PollTimeoutMs)
	}
	if c.Window.UpdateIntervalMs != 0 && (c.Window.UpdateIntervalMs < 10 || c.Window.UpdateIntervalMs > 10000) {
		return fmt.Errorf("window.update_interval_ms must be 10-10000ms, got %d", c.Window.UpdateIntervalMs)
	}
	if c.Window.IdleSleepMs < 0 || c.Window.IdleSleepMs > 1000 {
		return fmt.Errorf("window.idle_sleep_ms must be 0-1000ms, got %d", c.Window.IdleSleepMs)
	}
	return nil
}

// DroppedMapping records a mapping that was skipped while building the
// engine configuration: an unknown key or modifier name drops that one
// mapping with a warning while the rest of the keymap loads.
type DroppedMapping struct {
	Table  string
	Name   string
	Reason string
}

// BuildResult is what BuildEngineConfig returns: the ready-to-run engine
// configuration plus whatever individual mappings were dropped along the way.
type BuildResult struct {
	Engine  engine.Config
	Dropped []DroppedMapping
}

// BuildEngineConfig translates a parsed Config into engine.Config.
// Config-range and TOML-syntax errors were already rejected by
// Validate/Load; a single unparseable key/modifier name inside an
// otherwise-valid mapping is instead dropped here with a recorded reason
// so the rest of the keymap still loads.
func BuildEngineConfig(cfg Config) (BuildResult, error) {
	res := BuildResult{}

	if cfg.General.SuspendKey != "" {
		k, ok := keycode.KeyFromName(cfg.General.SuspendKey)
		if !ok {
			return res, fmt.Errorf("config: unknown general.suspend_key %q", cfg.General.SuspendKey)
		}
		res.Engine.SuspendKey = k
	}

	res.Engine.MultipurposeTimeout = time.Duration(cfg.Timeouts.MultipurposeMs) * time.Millisecond
	res.Engine.SuspendTimeout = time.Duration(cfg.Timeouts.SuspendMs) * time.Millisecond
	res.Engine.DeadKeyTimeout = time.Duration(cfg.Timeouts.DeadKeyMs) * time.Millisecond
	res.Engine.NestedKeymapTimeout = time.Duration(cfg.Timeouts.NestedKeymapMs) * time.Millisecond

	defaultModmap := combo.NewModmap("default")
	for from, to := range cfg.Modmap.Default {
		fk, ok1 := keycode.KeyFromName(from)
		tk, ok2 := keycode.KeyFromName(to)
		if !ok1 || !ok2 {
			res.Dropped = append(res.Dropped, DroppedMapping{"modmap.default", from + "->" + to, "unknown key name"})
			continue
		}
		defaultModmap.Insert(fk, tk)
	}
	res.Engine.Modmaps = []*combo.Modmap{defaultModmap}

	for _, mc := range cfg.Modmap.Conditionals {
		mm := combo.NewModmap(mc.Name)
		mm.Condition = mc.Condition
		for from, to := range mc.Mappings {
			fk, ok1 := keycode.KeyFromName(from)
			tk, ok2 := keycode.KeyFromName(to)
			if !ok1 || !ok2 {
				res.Dropped = append(res.Dropped, DroppedMapping{"modmap.conditionals." + mc.Name, from + "->" + to, "unknown key name"})
				continue
			}
			mm.Insert(fk, tk)
		}
		res.Engine.Modmaps = append(res.Engine.Modmaps, mm)
	}

	res.Engine.MultipurposeTriggers = make(map[keycode.Key]engine.MultipurposeRule)
	for _, mp := range cfg.Multipurpose {
		trigger, ok := keycode.KeyFromName(mp.Trigger)
		if !ok {
			res.Dropped = append(res.Dropped, DroppedMapping{"multipurpose", mp.Name, "unknown trigger key"})
			continue
		}
		tap, ok1 := keycode.KeyFromName(mp.Tap)
		hold, ok2 := keycode.KeyFromName(mp.Hold)
		if !ok1 || !ok2 {
			res.Dropped = append(res.Dropped, DroppedMapping{"multipurpose", mp.Name, "unknown tap/hold key"})
			continue
		}
		res.Engine.MultipurposeTriggers[trigger] = engine.MultipurposeRule{
			Entry:     combo.MultiEntry{Tap: tap, Hold: hold},
			Condition: mp.Condition,
		}
	}

	res.Engine.KeymapsByName = make(map[string]*combo.Keymap)
	res.Engine.NestedKeymapFor = make(map[keycode.Key]string)
	for _, ke := range cfg.Keymap {
		km := combo.NewKeymap(ke.Name)
		km.Condition = ke.Condition
		for comboStr, raw := range ke.Mappings {
			c, err := ParseCombo(comboStr)
			if err != nil {
				res.Dropped = append(res.Dropped, DroppedMapping{"keymap." + ke.Name, comboStr, err.Error()})
				continue
			}
			v, err := ParseValue(raw)
			if err != nil {
				res.Dropped = append(res.Dropped, DroppedMapping{"keymap." + ke.Name, comboStr, err.Error()})
				continue
			}
			km.Insert(c, v)
		}
		res.Engine.Keymaps = append(res.Engine.Keymaps, km)
		if ke.Name != "" {
			res.Engine.KeymapsByName[ke.Name] = km
			// A keymap whose name is itself a key name is the nested
			// keymap entered by a ComboKey output matching that key. The
			// association is by naming convention, since no other config
			// syntax names it.
			if k, ok := keycode.KeyFromName(ke.Name); ok {
				res.Engine.NestedKeymapFor[k] = ke.Name
			}
		}
	}

	return res, nil
}
