// Package classify turns a raw change event into an edit category and a
// character delta. It is a pure function of the event's content changes.
package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/keybeat/keybeat/pkg/event"
)

// PasteThreshold is the character-count boundary above which a single
// insertion is treated as a clipboard paste rather than fast typing.
const PasteThreshold = 8

// Kind is the edit category of a classified change event.
type Kind int

const (
	// None means the event is discarded: zero or multiple simultaneous
	// change entries (ambiguous multi-cursor edits), or an empty edit.
	None Kind = iota
	// Typed is a short non-newline insertion.
	Typed
	// Paste is an insertion longer than PasteThreshold characters.
	Paste
	// Delete is a pure deletion.
	Delete
	// NewlineOnly is a short insertion consisting of line breaks. It
	// counts toward keystrokes but not toward the add/delete/paste
	// counters.
	NewlineOnly
)

// Result is the classification outcome. Delta is the signed character count
// of the edit: positive for insertions, negative for deletions, zero when
// the event is discarded. Newline reports whether the inserted text contained
// a line break, independent of the category.
type Result struct {
	Kind    Kind
	Delta   int
	Newline bool
}

// Classify applies the classification rules in order. Only events carrying
// exactly one content-change entry are considered; everything else is
// ambiguous and discarded.
func Classify(changes []event.ContentChange) Result {
	if len(changes) != 1 {
		return Result{Kind: None}
	}

	text := changes[0].Text
	delta := utf8.RuneCountInString(text)
	if delta == 0 && changes[0].RangeLength > 0 {
		delta = -changes[0].RangeLength
	}
	if delta == 0 {
		return Result{Kind: None}
	}

	newline := strings.ContainsAny(text, "\n\r")

	res := Result{Delta: delta, Newline: newline}
	switch {
	case delta > PasteThreshold:
		res.Kind = Paste
	case delta < 0:
		res.Kind = Delete
	case !newline:
		res.Kind = Typed
	default:
		res.Kind = NewlineOnly
	}
	return res
}
