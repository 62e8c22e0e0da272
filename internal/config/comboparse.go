package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Danondso/keyrs/internal/combo"
	"github.com/Danondso/keyrs/internal/keycode"
)

// ParseCombo parses the `<Mod1>-<Mod2>-...-<Key>` syntax: hyphen
// separated, modifiers case-sensitive (matched against the registered alias
// set), key name case-insensitive. Duplicate modifiers are deduplicated; a
// trailing hyphen or an unknown modifier/key name is an error.
func ParseCombo(s string) (combo.Combo, error) {
	if s == "" || strings.HasSuffix(s, "-") || strings.HasPrefix(s, "-") {
		return combo.Combo{}, fmt.Errorf("config: malformed combo %q", s)
	}
	parts := strings.Split(s, "-")
	for _, p := range parts {
		if p == "" {
			return combo.Combo{}, fmt.Errorf("config: empty segment in combo %q", s)
		}
	}

	keyName := parts[len(parts)-1]
	key, ok := keycode.KeyFromName(keyName)
	if !ok {
		return combo.Combo{}, fmt.Errorf("config: unknown key %q in combo %q", keyName, s)
	}

	seen := make(map[string]bool)
	var mods []*keycode.Modifier
	for _, name := range parts[:len(parts)-1] {
		m, ok := keycode.FromAlias(name)
		if !ok {
			return combo.Combo{}, fmt.Errorf("config: unknown modifier %q in combo %q", name, s)
		}
		if seen[m.Name()] {
			continue
		}
		seen[m.Name()] = true
		mods = append(mods, m)
	}
	return combo.New(mods, key), nil
}

var (
	textPattern    = regexp.MustCompile(`^Text\((.*)\)$`)
	unicodePattern = regexp.MustCompile(`^(?:U\+|Unicode\()([0-9A-Fa-f]+)\)?$`)
	delayPattern   = regexp.MustCompile(`^Delay\((\d+)\)$`)
	comboPattern   = regexp.MustCompile(`^Combo\((.*)\)$`)
	settingPattern = regexp.MustCompile(`^SetSetting\((\w+)\s*=\s*(true|false)\)$`)
)

var hintKeywords = map[string]combo.HintKind{
	"Bind":             combo.HintBind,
	"EscapeNextKey":    combo.HintEscapeNextKey,
	"Ignore":           combo.HintIgnore,
	"Noop":             combo.HintIgnore,
	"EscapeNextCombo":  combo.HintEscapeNextCombo,
}

// ParseValue parses a keymap mapping value: a single string is tried
// in order as Text(...), U+hex/Unicode(...), parsed combo, combo-hint
// keyword, single key name; an array first tried as a sequence of bare key
// names (producing a Combo output), else per-element sequence steps.
func ParseValue(raw interface{}) (combo.Value, error) {
	switch v := raw.(type) {
	case string:
		return parseScalarValue(v)
	case []interface{}:
		return parseArrayValue(v)
	case []string:
		arr := make([]interface{}, len(v))
		for i, s := range v {
			arr[i] = s
		}
		return parseArrayValue(arr)
	default:
		return combo.Value{}, fmt.Errorf("config: unsupported keymap value type %T", raw)
	}
}

func parseScalarValue(s string) (combo.Value, error) {
	if m := textPattern.FindStringSubmatch(s); m != nil {
		return combo.Value{Kind: combo.ValueText, Text: m[1]}, nil
	}
	if m := unicodePattern.FindStringSubmatch(s); m != nil {
		cp, err := strconv.ParseInt(m[1], 16, 32)
		if err != nil {
			return combo.Value{}, fmt.Errorf("config: bad unicode literal %q: %w", s, err)
		}
		return combo.Value{Kind: combo.ValueUnicode, Unicode: rune(cp)}, nil
	}
	if strings.Contains(s, "-") {
		if c, err := ParseCombo(s); err == nil {
			return combo.Value{Kind: combo.ValueCombo, Combo: c}, nil
		}
	}
	if hint, ok := hintKeywords[s]; ok {
		return combo.Value{Kind: combo.ValueHint, Hint: hint}, nil
	}
	key, ok := keycode.KeyFromName(s)
	if !ok {
		return combo.Value{}, fmt.Errorf("config: %q is not Text(...), U+hex, a combo, a hint keyword, or a key name", s)
	}
	return combo.Value{Kind: combo.ValueKey, Key: key}, nil
}

func parseArrayValue(items []interface{}) (combo.Value, error) {
	if c, ok := tryKeyNameSequence(items); ok {
		return combo.Value{Kind: combo.ValueCombo, Combo: c}, nil
	}

	steps := make([]combo.ActionStep, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return combo.Value{}, fmt.Errorf("config: sequence element %v is not a string", item)
		}
		step, err := parseStep(s)
		if err != nil {
			return combo.Value{}, err
		}
		steps = append(steps, step)
	}
	return combo.Value{Kind: combo.ValueSequence, Sequence: steps}, nil
}

// tryKeyNameSequence interprets items as modifier names followed by a
// single main key name, producing a Combo output. It fails (ok=false) if
// any element isn't a bare
// modifier/key name, falling back to step-by-step sequence parsing.
func tryKeyNameSequence(items []interface{}) (combo.Combo, bool) {
	if len(items) == 0 {
		return combo.Combo{}, false
	}
	strs := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return combo.Combo{}, false
		}
		strs[i] = s
	}
	key, ok := keycode.KeyFromName(strs[len(strs)-1])
	if !ok {
		return combo.Combo{}, false
	}
	var mods []*keycode.Modifier
	for _, name := range strs[:len(strs)-1] {
		m, ok := keycode.FromAlias(name)
		if !ok {
			return combo.Combo{}, false
		}
		mods = append(mods, m)
	}
	return combo.New(mods, key), true
}

func parseStep(s string) (combo.ActionStep, error) {
	if m := delayPattern.FindStringSubmatch(s); m != nil {
		ms, _ := strconv.Atoi(m[1])
		return combo.ActionStep{Kind: combo.StepDelayMs, DelayMs: ms}, nil
	}
	if m := textPattern.FindStringSubmatch(s); m != nil {
		return combo.ActionStep{Kind: combo.StepText, Text: m[1]}, nil
	}
	if s == "Bind" {
		return combo.ActionStep{Kind: combo.StepBind}, nil
	}
	if s == "Ignore" || s == "Noop" {
		return combo.ActionStep{Kind: combo.StepIgnore}, nil
	}
	if m := settingPattern.FindStringSubmatch(s); m != nil {
		return combo.ActionStep{Kind: combo.StepSetSetting, SettingName: m[1], SettingValue: m[2] == "true"}, nil
	}
	inner := s
	if m := comboPattern.FindStringSubmatch(s); m != nil {
		inner = m[1]
	}
	if strings.Contains(inner, "-") {
		c, err := ParseCombo(inner)
		if err != nil {
			return combo.ActionStep{}, err
		}
		return combo.ActionStep{Kind: combo.StepCombo, Combo: c}, nil
	}
	key, ok := keycode.KeyFromName(inner)
	if !ok {
		return combo.ActionStep{}, fmt.Errorf("config: sequence step %q is not Delay/Text/Combo/Bind/Ignore/SetSetting or a key name", s)
	}
	return combo.ActionStep{Kind: combo.StepCombo, Combo: combo.Combo{Key: key}}, nil
}
