package duskline

import (
	"strings"
	"unicode/utf8"
)

// Raw key sequences a host reads from stdin, used to classify an input
// event as Interactive (keystrokes, navigation, editing) for
// FlowControlPolicy.ShouldDropInputEvent, which never drops them.
const (
	keySpace   = " "
	keyEnter   = "\r"
	keyEnterLF = "\n"
	keyTab     = "\t"
	keyEscape  = "\x1b"

	keyBackspace     = "\x7f"
	keyBackspaceCtrl = "\b"
	keyDelete        = "\x1b[3~"
	keyInsert        = "\x1b[2~"

	keyLeft     = "\x1b[D"
	keyRight    = "\x1b[C"
	keyUp       = "\x1b[A"
	keyDown     = "\x1b[B"
	keyHome     = "\x1b[H"
	keyHomeAlt  = "\x1b[1~"
	keyEnd      = "\x1b[F"
	keyEndAlt   = "\x1b[4~"
	keyPageUp   = "\x1b[5~"
	keyPageDown = "\x1b[6~"
)

var interactiveKeyPrefixes = []string{
	keySpace, keyEnter, keyEnterLF, keyTab, keyEscape,
	keyBackspace, keyBackspaceCtrl, keyDelete, keyInsert,
	keyLeft, keyRight, keyUp, keyDown, keyHome, keyHomeAlt, keyEnd, keyEndAlt,
	keyPageUp, keyPageDown,
}

// InputEvent is one unit of input read from the host's stdin or a
// bracketed-paste buffer.
type InputEvent struct {
	// Data is the raw bytes read for this event: a single key sequence
	// for a keystroke, or the full pasted payload for a paste event.
	Data string
	// IsPaste marks the event as bracketed-paste content, always
	// Interactive.
	IsPaste bool
	// IsFocus marks a focus-in/focus-out event (DEC 1004), always
	// Interactive.
	IsFocus bool
}

// Classify assigns the event's InputEventClass. A single recognized key
// sequence, a paste, or a focus event is Interactive and must never be
// dropped. Any other input that doesn't match a known single-key
// sequence (e.g. a burst of buffered bytes from a flooded pty) is
// NonInteractive and is eligible for coalescing or dropping under
// pressure.
func (e InputEvent) Classify() InputEventClass {
	if e.IsFocus || e.IsPaste {
		return Interactive
	}
	if isKnownKeySequence(e.Data) {
		return Interactive
	}
	return NonInteractive
}

func isKnownKeySequence(data string) bool {
	if utf8.RuneCountInString(data) == 1 {
		return true // bare printable rune or control byte: always a single keystroke
	}
	for _, k := range interactiveKeyPrefixes {
		if data == k {
			return true
		}
	}
	if strings.HasPrefix(data, "\x1bO") && len(data) == 3 {
		return true // SS3-prefixed function key (F1-F4)
	}
	if strings.HasPrefix(data, "\x1b[") && strings.HasSuffix(data, "~") {
		return true // tilde-terminated function/navigation key
	}
	return false
}
