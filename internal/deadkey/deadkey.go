// Package deadkey implements the dead-key composer: an
// accent-plus-base-letter to composed-codepoint state machine with a
// timeout.
package deadkey

import "time"

// AccentKind enumerates the recognized dead-key indicators.
type AccentKind int

const (
	AccentAcute AccentKind = iota
	AccentGrave
	AccentTilde
	AccentUmlaut
	AccentCircumflex
)

// Indicator maps a codepoint to its AccentKind if it is a recognized
// dead-key indicator.
func Indicator(cp rune) (AccentKind, bool) {
	switch cp {
	case 0x00B4:
		return AccentAcute, true
	case 0x0060:
		return AccentGrave, true
	case 0x007E, 0x02DC:
		return AccentTilde, true
	case 0x00A8:
		return AccentUmlaut, true
	case 0x005E, 0x02C6:
		return AccentCircumflex, true
	}
	return 0, false
}

// accentChar is the bare accent character emitted when the next key is
// Space.
func accentChar(a AccentKind) rune {
	switch a {
	case AccentAcute:
		return 0x00B4
	case AccentGrave:
		return 0x0060
	case AccentTilde:
		return 0x007E
	case AccentUmlaut:
		return 0x00A8
	case AccentCircumflex:
		return 0x005E
	}
	return 0
}

// composeTable is the finite Latin precomposed-codepoint table: accent x
// uppercase base letter -> composed rune. Lowercase composition derives
// from the uppercase entry plus the caller's shift flag.
var composeTable = map[AccentKind]map[rune]rune{
	AccentAcute: {
		'A': 'Á', 'E': 'É', 'I': 'Í', 'O': 'Ó', 'U': 'Ú', 'Y': 'Ý', 'C': 'Ć', 'N': 'Ń', 'S': 'Ś', 'Z': 'Ź',
	},
	AccentGrave: {
		'A': 'À', 'E': 'È', 'I': 'Ì', 'O': 'Ò', 'U': 'Ù',
	},
	AccentTilde: {
		'A': 'Ã', 'N': 'Ñ', 'O': 'Õ',
	},
	AccentUmlaut: {
		'A': 'Ä', 'E': 'Ë', 'I': 'Ï', 'O': 'Ö', 'U': 'Ü',
	},
	AccentCircumflex: {
		'A': 'Â', 'E': 'Ê', 'I': 'Î', 'O': 'Ô', 'U': 'Û',
	},
}

// lowerOf lowercases the small fixed set of Latin-1/Latin Extended-A
// codepoints produced by composeTable.
func lowerOf(r rune) rune {
	switch r {
	case 'Á':
		return 'á'
	case 'É':
		return 'é'
	case 'Í':
		return 'í'
	case 'Ó':
		return 'ó'
	case 'Ú':
		return 'ú'
	case 'Ý':
		return 'ý'
	case 'Ć':
		return 'ć'
	case 'Ń':
		return 'ń'
	case 'Ś':
		return 'ś'
	case 'Ź':
		return 'ź'
	case 'À':
		return 'à'
	case 'È':
		return 'è'
	case 'Ì':
		return 'ì'
	case 'Ò':
		return 'ò'
	case 'Ù':
		return 'ù'
	case 'Ã':
		return 'ã'
	case 'Ñ':
		return 'ñ'
	case 'Õ':
		return 'õ'
	case 'Ä':
		return 'ä'
	case 'Ë':
		return 'ë'
	case 'Ï':
		return 'ï'
	case 'Ö':
		return 'ö'
	case 'Ü':
		return 'ü'
	case 'Â':
		return 'â'
	case 'Ê':
		return 'ê'
	case 'Î':
		return 'î'
	case 'Ô':
		return 'ô'
	case 'Û':
		return 'û'
	}
	return r
}

// DefaultTimeout is the composer's expiry window.
const DefaultTimeout = 2 * time.Second

// Composer is the engine's single dead-key slot.
type Composer struct {
	timeout     time.Duration
	accent      *AccentKind
	activatedAt time.Time
}

// NewComposer creates a Composer with the given expiry timeout.
func NewComposer(timeout time.Duration) *Composer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Composer{timeout: timeout}
}

// Active reports whether a dead key is currently armed and not expired as
// of now. An expired-but-not-yet-cleared slot reports inactive.
func (c *Composer) Active(now time.Time) bool {
	if c.accent == nil {
		return false
	}
	if now.Sub(c.activatedAt) >= c.timeout {
		c.accent = nil
		return false
	}
	return true
}

// Activate arms the composer with the given accent indicator.
func (c *Composer) Activate(a AccentKind, now time.Time) {
	acc := a
	c.accent = &acc
	c.activatedAt = now
}

// Compose consumes the dead-key slot (whether or not composition
// succeeds) and attempts composition with base, a Press event's
// logical key converted to an uppercase ASCII letter by the caller, Space,
// or anything else. shift controls whether the composed letter is
// produced in upper- or lowercase form; the bare accent emitted for Space
// is the same either way.
//
// Returns (cp, true) on success, (0, false) if nothing is emitted (either
// the combination is unsupported, or the slot had already expired).
func (c *Composer) Compose(base rune, isSpace bool, shift bool, now time.Time) (rune, bool) {
	if !c.Active(now) {
		return 0, false
	}
	accent := *c.accent
	c.accent = nil

	if isSpace {
		cp := accentChar(accent)
		return cp, true
	}

	upper := base
	if upper >= 'a' && upper <= 'z' {
		upper = upper - 'a' + 'A'
	}
	table, ok := composeTable[accent]
	if !ok {
		return 0, false
	}
	composed, ok := table[upper]
	if !ok {
		return 0, false
	}
	if !shift {
		composed = lowerOf(composed)
	}
	return composed, true
}
