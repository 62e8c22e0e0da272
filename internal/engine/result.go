// Package engine implements the transform engine: the orchestrator that
// resolves modmap -> multipurpose -> combo -> passthrough, maintaining
// suspend mode, escape-next, nested keymaps, the repeat cache, and the
// active-combo set.
package engine

import (
	"github.com/Danondso/keyrs/internal/combo"
	"github.com/Danondso/keyrs/internal/keycode"
)

// ResultKind enumerates the engine's possible decisions for one event.
type ResultKind int

const (
	ResultPassthrough ResultKind = iota
	ResultRemapped
	ResultComboKey
	ResultCombo
	ResultSequence
	ResultHint
	ResultSuppress
	ResultSuspend
	ResultUnicode
	ResultText
)

// Result is the engine's decision for a single process_event call. Only
// the fields relevant to Kind are populated.
type Result struct {
	Kind ResultKind

	Key      keycode.Key        // Passthrough, Remapped, ComboKey
	Combo    combo.Combo        // Combo
	Sequence []combo.ActionStep // Sequence
	Hint     combo.HintKind     // Hint
	Unicode  rune               // Unicode
	Text     string             // Text
}

func passthrough(k keycode.Key) Result { return Result{Kind: ResultPassthrough, Key: k} }
func remapped(k keycode.Key) Result    { return Result{Kind: ResultRemapped, Key: k} }
func comboKey(k keycode.Key) Result    { return Result{Kind: ResultComboKey, Key: k} }
func suppress() Result                 { return Result{Kind: ResultSuppress} }
func suspendResult() Result            { return Result{Kind: ResultSuspend} }

// String names a ResultKind for status/diagnostic display.
func (k ResultKind) String() string {
	switch k {
	case ResultPassthrough:
		return "passthrough"
	case ResultRemapped:
		return "remapped"
	case ResultComboKey:
		return "combo-key"
	case ResultCombo:
		return "combo"
	case ResultSequence:
		return "sequence"
	case ResultHint:
		return "hint"
	case ResultSuppress:
		return "suppress"
	case ResultSuspend:
		return "suspend"
	case ResultUnicode:
		return "unicode"
	case ResultText:
		return "text"
	default:
		return "unknown"
	}
}
