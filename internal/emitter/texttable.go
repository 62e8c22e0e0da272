package emitter

import "github.com/Danondso/keyrs/internal/keycode"

// Letter and digit codes per Linux input-event-codes, matching the numbering
// already used by internal/keycode's well-known constants.
const (
	keyA keycode.Key = 30
	keyB keycode.Key = 48
	keyC keycode.Key = 46
	keyD keycode.Key = 32
	keyE keycode.Key = 18
	keyF keycode.Key = 33
	keyG keycode.Key = 34
	keyH keycode.Key = 35
	keyI keycode.Key = 23
	keyJ keycode.Key = 36
	keyK keycode.Key = 37
	keyL keycode.Key = 38
	keyM keycode.Key = 50
	keyN keycode.Key = 49
	keyO keycode.Key = 24
	keyP keycode.Key = 25
	keyQ keycode.Key = 16
	keyR keycode.Key = 19
	keyS keycode.Key = 31
	keyT keycode.Key = 20
	keyV keycode.Key = 47
	keyW keycode.Key = 17
	keyX keycode.Key = 45
	keyY keycode.Key = 21
	keyZ keycode.Key = 44

	key1 keycode.Key = 2
	key2 keycode.Key = 3
	key3 keycode.Key = 4
	key4 keycode.Key = 5
	key5 keycode.Key = 6
	key6 keycode.Key = 7
	key7 keycode.Key = 8
	key8 keycode.Key = 9
	key9 keycode.Key = 10
	key0 keycode.Key = 11
)

// runeToKey maps a printable ASCII character to its output key code and
// whether Shift must be held for it, assuming a US layout. ok is false
// for anything outside this fixed table, which callers fall back to
// Unicode compose for.
func runeToKey(r rune) (code keycode.Key, shift bool, ok bool) {
	switch r {
	case 'a':
		return keyA, false, true
	case 'b':
		return keyB, false, true
	case 'c':
		return keyC, false, true
	case 'd':
		return keyD, false, true
	case 'e':
		return keyE, false, true
	case 'f':
		return keyF, false, true
	case 'g':
		return keyG, false, true
	case 'h':
		return keyH, false, true
	case 'i':
		return keyI, false, true
	case 'j':
		return keyJ, false, true
	case 'k':
		return keyK, false, true
	case 'l':
		return keyL, false, true
	case 'm':
		return keyM, false, true
	case 'n':
		return keyN, false, true
	case 'o':
		return keyO, false, true
	case 'p':
		return keyP, false, true
	case 'q':
		return keyQ, false, true
	case 'r':
		return keyR, false, true
	case 's':
		return keyS, false, true
	case 't':
		return keyT, false, true
	case 'u':
		return keyU, false, true
	case 'v':
		return keyV, false, true
	case 'w':
		return keyW, false, true
	case 'x':
		return keyX, false, true
	case 'y':
		return keyY, false, true
	case 'z':
		return keyZ, false, true

	case 'A':
		return keyA, true, true
	case 'B':
		return keyB, true, true
	case 'C':
		return keyC, true, true
	case 'D':
		return keyD, true, true
	case 'E':
		return keyE, true, true
	case 'F':
		return keyF, true, true
	case 'G':
		return keyG, true, true
	case 'H':
		return keyH, true, true
	case 'I':
		return keyI, true, true
	case 'J':
		return keyJ, true, true
	case 'K':
		return keyK, true, true
	case 'L':
		return keyL, true, true
	case 'M':
		return keyM, true, true
	case 'N':
		return keyN, true, true
	case 'O':
		return keyO, true, true
	case 'P':
		return keyP, true, true
	case 'Q':
		return keyQ, true, true
	case 'R':
		return keyR, true, true
	case 'S':
		return keyS, true, true
	case 'T':
		return keyT, true, true
	case 'U':
		return keyU, true, true
	case 'V':
		return keyV, true, true
	case 'W':
		return keyW, true, true
	case 'X':
		return keyX, true, true
	case 'Y':
		return keyY, true, true
	case 'Z':
		return keyZ, true, true

	case '0':
		return key0, false, true
	case '1':
		return key1, false, true
	case '2':
		return key2, false, true
	case '3':
		return key3, false, true
	case '4':
		return key4, false, true
	case '5':
		return key5, false, true
	case '6':
		return key6, false, true
	case '7':
		return key7, false, true
	case '8':
		return key8, false, true
	case '9':
		return key9, false, true

	case ')':
		return key0, true, true
	case '!':
		return key1, true, true
	case '@':
		return key2, true, true
	case '#':
		return key3, true, true
	case '$':
		return key4, true, true
	case '%':
		return key5, true, true
	case '^':
		return key6, true, true
	case '&':
		return key7, true, true
	case '*':
		return key8, true, true
	case '(':
		return key9, true, true

	case ' ':
		return keycode.KeySpace, false, true
	case '\t':
		return keycode.KeyTab, false, true
	case '\n':
		return keycode.KeyEnter, false, true
	case '-':
		return keycode.KeyMinus, false, true
	case '_':
		return keycode.KeyMinus, true, true
	case '=':
		return keycode.KeyEqual, false, true
	case '+':
		return keycode.KeyEqual, true, true
	case ';':
		return keycode.KeySemicolon, false, true
	case ':':
		return keycode.KeySemicolon, true, true
	case '\'':
		return keycode.KeyApostrophe, false, true
	case '"':
		return keycode.KeyApostrophe, true, true
	case '`':
		return keycode.KeyGrave, false, true
	case '~':
		return keycode.KeyGrave, true, true
	case ',':
		return keycode.KeyComma, false, true
	case '<':
		return keycode.KeyComma, true, true
	case '.':
		return keycode.KeyDot, false, true
	case '>':
		return keycode.KeyDot, true, true
	case '/':
		return keycode.KeySlash, false, true
	case '?':
		return keycode.KeySlash, true, true
	case '\\':
		return keycode.KeyBackslash, false, true
	case '|':
		return keycode.KeyBackslash, true, true
	}
	return 0, false, false
}
