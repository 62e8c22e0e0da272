package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Layout holds the [layout] table of the settings file.
type Layout struct {
	OptspecLayout string `toml:"optspec_layout"`
}

// Keyboard holds the [keyboard] table of the settings file.
type Keyboard struct {
	OverrideType string `toml:"override_type"`
}

// Settings is the root of the settings file: boolean feature
// toggles consulted by conditions as settings.<Name>, plus the layout and
// keyboard-type overrides. Unknown top-level keys are also accepted and
// exposed as boolean settings (toml decodes them into the primitive map).
type Settings struct {
	Features map[string]bool        `toml:"features"`
	Layout   Layout                 `toml:"layout"`
	Keyboard Keyboard               `toml:"keyboard"`
	Unknown  map[string]interface{} `toml:"-"`
}

var validLayouts = map[string]bool{"ABC": true, "US": true}
var validKeyboardTypes = map[string]bool{
	"IBM": true, "Chromebook": true, "Windows": true, "Mac": true, "Apple": true,
}

// LoadSettings reads path, returning an empty Settings if it does not
// exist. Invalid layout/keyboard enum values are errors.
func LoadSettings(path string) (Settings, error) {
	s := Settings{Features: map[string]bool{}, Unknown: map[string]interface{}{}}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return Settings{}, fmt.Errorf("settings: reading %s: %w", path, err)
	}

	var raw map[string]interface{}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return Settings{}, fmt.Errorf("settings: parsing %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), &s); err != nil {
		return Settings{}, fmt.Errorf("settings: parsing %s: %w", path, err)
	}

	if s.Layout.OptspecLayout != "" && !validLayouts[s.Layout.OptspecLayout] {
		return Settings{}, fmt.Errorf("settings: layout.optspec_layout must be ABC or US, got %q", s.Layout.OptspecLayout)
	}
	if s.Keyboard.OverrideType != "" && !validKeyboardTypes[s.Keyboard.OverrideType] {
		return Settings{}, fmt.Errorf("settings: keyboard.override_type must be one of IBM/Chromebook/Windows/Mac/Apple, got %q", s.Keyboard.OverrideType)
	}

	known := map[string]bool{"features": true, "layout": true, "keyboard": true}
	for k, v := range raw {
		if known[k] {
			continue
		}
		if b, ok := v.(bool); ok {
			s.Unknown[k] = b
		}
	}
	return s, nil
}

// ToMap flattens the settings into the boolean map used by
// WindowContext.ReplaceSettings/SetSetting, merging [features], any
// unknown top-level boolean keys, and the layout/keyboard enums encoded as
// derived booleans so conditions can test them directly.
func (s Settings) ToMap() map[string]bool {
	out := make(map[string]bool, len(s.Features)+len(s.Unknown)+2)
	for k, v := range s.Features {
		out[k] = v
	}
	for k, v := range s.Unknown {
		if b, ok := v.(bool); ok {
			out[k] = b
		}
	}
	if s.Layout.OptspecLayout != "" {
		out["layout_"+s.Layout.OptspecLayout] = true
	}
	if s.Keyboard.OverrideType != "" {
		out["keyboard_"+s.Keyboard.OverrideType] = true
	}
	return out
}
