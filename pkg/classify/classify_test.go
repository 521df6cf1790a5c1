package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keybeat/keybeat/pkg/event"
)

func one(text string, rangeLength int) []event.ContentChange {
	return []event.ContentChange{{Text: text, RangeLength: rangeLength}}
}

func TestClassify_TypedAdd(t *testing.T) {
	res := Classify(one("hello", 0))
	assert.Equal(t, Typed, res.Kind)
	assert.Equal(t, 5, res.Delta)
	assert.False(t, res.Newline)
}

func TestClassify_PasteAtNineCharacters(t *testing.T) {
	res := Classify(one("ninechars", 0))
	assert.Equal(t, Paste, res.Kind)
	assert.Equal(t, 9, res.Delta)
}

func TestClassify_EightCharactersIsTyped(t *testing.T) {
	res := Classify(one("12345678", 0))
	assert.Equal(t, Typed, res.Kind)
	assert.Equal(t, 8, res.Delta)
}

func TestClassify_PureDeletion(t *testing.T) {
	res := Classify(one("", 12))
	assert.Equal(t, Delete, res.Kind)
	assert.Equal(t, -12, res.Delta)
}

func TestClassify_NewlineOnly(t *testing.T) {
	res := Classify(one("\n", 0))
	assert.Equal(t, NewlineOnly, res.Kind)
	assert.Equal(t, 1, res.Delta)
	assert.True(t, res.Newline)
}

func TestClassify_LargePasteWithNewlinesIsPaste(t *testing.T) {
	res := Classify(one("line one\nline two\n", 0))
	assert.Equal(t, Paste, res.Kind)
	assert.True(t, res.Newline)
}

func TestClassify_IndentedNewlineIsNewlineOnly(t *testing.T) {
	// Auto-indent inserts a newline plus a few spaces; still under the
	// paste threshold, still not a typed add.
	res := Classify(one("\n    ", 0))
	assert.Equal(t, NewlineOnly, res.Kind)
}

func TestClassify_DiscardsEmptyEvent(t *testing.T) {
	assert.Equal(t, None, Classify(one("", 0)).Kind)
}

func TestClassify_DiscardsZeroEntries(t *testing.T) {
	assert.Equal(t, None, Classify(nil).Kind)
}

func TestClassify_DiscardsMultipleEntries(t *testing.T) {
	changes := []event.ContentChange{{Text: "a"}, {Text: "b"}}
	res := Classify(changes)
	assert.Equal(t, None, res.Kind)
	assert.Equal(t, 0, res.Delta)
}

func TestClassify_DeltaCountsRunesNotBytes(t *testing.T) {
	res := Classify(one(strings.Repeat("é", 4), 0))
	assert.Equal(t, Typed, res.Kind)
	assert.Equal(t, 4, res.Delta)
}
