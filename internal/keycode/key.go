// Package keycode implements the key/modifier registry:
// numeric code to symbolic name translation and modifier groups with
// left/right/generic variants.
package keycode

import "strings"

// Key is an opaque 16-bit code identifying a physical or logical key.
// Linux input-event-codes values are adopted as the canonical numbering.
type Key uint16

func (k Key) String() string {
	return keyName(uint16(k))
}

// Well-known keys referenced directly by the engine and its tests.
const (
	KeyReserved    Key = 0
	KeyEsc         Key = 1
	KeyMinus       Key = 12
	KeyEqual       Key = 13
	KeyBackspace   Key = 14
	KeyTab         Key = 15
	KeyEnter       Key = 28
	KeyLeftCtrl    Key = 29
	KeySemicolon   Key = 39
	KeyApostrophe  Key = 40
	KeyGrave       Key = 41
	KeyLeftShift   Key = 42
	KeyBackslash   Key = 43
	KeyComma       Key = 51
	KeyDot         Key = 52
	KeySlash       Key = 53
	KeyRightShift  Key = 54
	KeyLeftAlt     Key = 56
	KeySpace       Key = 57
	KeyCapsLock    Key = 58
	KeyNumLock     Key = 69
	KeyScrollLock  Key = 70
	KeyKP1         Key = 79
	KeyRightCtrl   Key = 97
	KeySysrq       Key = 99
	KeyRightAlt    Key = 100
	KeyHome        Key = 102
	KeyUp          Key = 103
	KeyPageUp      Key = 104
	KeyLeft        Key = 105
	KeyRight       Key = 106
	KeyEnd         Key = 107
	KeyDown        Key = 108
	KeyPageDown    Key = 109
	KeyInsert      Key = 110
	KeyDelete      Key = 111
	KeyLeftMeta    Key = 125
	KeyRightMeta   Key = 126
)

var keyNames = buildKeyNames()

func buildKeyNames() map[uint16]string {
	n := map[uint16]string{
		0: "RESERVED", 1: "ESC", 2: "KEY_1", 3: "KEY_2", 4: "KEY_3", 5: "KEY_4",
		6: "KEY_5", 7: "KEY_6", 8: "KEY_7", 9: "KEY_8", 10: "KEY_9", 11: "KEY_0",
		12: "MINUS", 13: "EQUAL", 14: "BACKSPACE", 15: "TAB",
		16: "Q", 17: "W", 18: "E", 19: "R", 20: "T", 21: "Y", 22: "U", 23: "I",
		24: "O", 25: "P", 26: "LEFT_BRACE", 27: "RIGHT_BRACE", 28: "ENTER",
		29: "LEFT_CTRL", 30: "A", 31: "S", 32: "D", 33: "F", 34: "G", 35: "H",
		36: "J", 37: "K", 38: "L", 39: "SEMICOLON", 40: "APOSTROPHE", 41: "GRAVE",
		42: "LEFT_SHIFT", 43: "BACKSLASH", 44: "Z", 45: "X", 46: "C", 47: "V",
		48: "B", 49: "N", 50: "M", 51: "COMMA", 52: "DOT", 53: "SLASH",
		54: "RIGHT_SHIFT", 55: "KPASTERISK", 56: "LEFT_ALT", 57: "SPACE",
		58: "CAPSLOCK", 59: "F1", 60: "F2", 61: "F3", 62: "F4", 63: "F5",
		64: "F6", 65: "F7", 66: "F8", 67: "F9", 68: "F10", 69: "NUMLOCK",
		70: "SCROLLLOCK", 71: "KP7", 72: "KP8", 73: "KP9", 74: "KPMINUS",
		75: "KP4", 76: "KP5", 77: "KP6", 78: "KPPLUS", 79: "KP1", 80: "KP2",
		81: "KP3", 82: "KP0", 83: "KPDOT", 85: "ZENKAKUHANKAKU", 86: "KEY_102ND",
		87: "F11", 88: "F12", 89: "RO", 90: "KATAKANA", 91: "HIRAGANA",
		92: "HENKAN", 93: "KATAKANAHIRAGANA", 94: "MUHENKAN", 95: "KPJPCOMMA",
		96: "KPENTER", 97: "RIGHT_CTRL", 98: "KPSLASH", 99: "SYSRQ",
		100: "RIGHT_ALT", 101: "LINEFEED", 102: "HOME", 103: "UP",
		104: "PAGE_UP", 105: "LEFT", 106: "RIGHT", 107: "END", 108: "DOWN",
		109: "PAGE_DOWN", 110: "INSERT", 111: "DELETE", 112: "MACRO",
		113: "MUTE", 114: "VOLUMEDOWN", 115: "VOLUMEUP", 116: "POWER",
		117: "KPEQUAL", 118: "KPPLUSMINUS", 119: "PAUSE", 120: "SCALE",
		121: "KPCOMMA", 122: "HANGEUL", 123: "HANJA", 124: "YEN",
		125: "LEFT_META", 126: "RIGHT_META", 127: "COMPOSE",
		163: "NEXTSONG", 164: "PLAYPAUSE", 165: "PREVIOUSSONG", 166: "STOPCD",
		183: "F13", 184: "F14", 185: "F15", 186: "F16", 187: "F17", 188: "F18",
		189: "F19", 190: "F20", 191: "F21", 192: "F22", 193: "F23", 194: "F24",
		464: "FN",
	}
	return n
}

func keyName(code uint16) string {
	if name, ok := keyNames[code]; ok {
		return name
	}
	return "UNKNOWN"
}

// aliases maps additional names to the same codes as keyNames:
// "PRINT"/"PRTSCR" for SYSRQ and bare digits "0".."9" for the number row
// ("ENTER" is already the canonical name of KEY_ENTER in keyNames).
var aliases = buildAliases()

func buildAliases() map[string]uint16 {
	a := map[string]uint16{
		"PRINT": 99, "PRTSCR": 99,
		"0": 11, "1": 2, "2": 3, "3": 4, "4": 5, "5": 6, "6": 7, "7": 8,
		"8": 9, "9": 10,
	}
	return a
}

// KeyFromName parses a key name (case-insensitive) to a Key, trying the
// canonical name table first and then the alias table.
func KeyFromName(name string) (Key, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for code, n := range keyNames {
		if n == upper {
			return Key(code), true
		}
	}
	if code, ok := aliases[upper]; ok {
		return Key(code), true
	}
	if strings.HasPrefix(upper, "KEY_") && len(upper) > 4 {
		if code, ok := aliases[upper[4:]]; ok {
			return Key(code), true
		}
	}
	return 0, false
}
