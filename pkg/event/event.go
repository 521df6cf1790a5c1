// Package event defines the canonical editor notification consumed by the
// aggregation engine and the eligibility rules that decide whether a
// notification is worth tracking at all.
package event

import (
	"regexp"
	"unicode/utf8"
)

// Kind identifies the editor notification type.
type Kind string

const (
	KindOpen   Kind = "open"
	KindClose  Kind = "close"
	KindChange Kind = "change"
)

// Tracked URI schemes. Anything else (liveshare, output panes, diff views)
// is ignored.
const (
	SchemeFile     = "file"
	SchemeUntitled = "untitled"
)

// ContentChange is a single content-change entry within a change event.
type ContentChange struct {
	Text        string `json:"text"`
	RangeLength int    `json:"rangeLength"`
}

// RawEvent is the canonical, normalized editor notification. All engine
// components consume this shape; the dual top-level/document wire layout
// never leaks past Normalize.
type RawEvent struct {
	Kind       Kind
	Filename   string
	LanguageID string
	Length     int
	LineCount  int
	Scheme     string
	Changes    []ContentChange
}

// Document is the nested document object some hosts attach change events to.
type Document struct {
	FileName   string `json:"fileName"`
	LanguageID string `json:"languageId"`
	Text       string `json:"text"`
	LineCount  int    `json:"lineCount"`
	Scheme     string `json:"scheme"`
}

// Envelope is the wire shape of a host notification. Editors deliver the
// document attributes either at the top level (open/close) or nested under
// "document" (change), so both layouts are accepted.
type Envelope struct {
	Kind           string          `json:"kind"`
	FileName       string          `json:"fileName,omitempty"`
	LanguageID     string          `json:"languageId,omitempty"`
	Text           string          `json:"text,omitempty"`
	LineCount      int             `json:"lineCount,omitempty"`
	Scheme         string          `json:"scheme,omitempty"`
	Document       *Document       `json:"document,omitempty"`
	ContentChanges []ContentChange `json:"contentChanges,omitempty"`
}

// Normalize collapses the envelope into a RawEvent. Top-level fields win;
// anything missing is taken from the nested document.
func (e *Envelope) Normalize() RawEvent {
	ev := RawEvent{
		Kind:       Kind(e.Kind),
		Filename:   e.FileName,
		LanguageID: e.LanguageID,
		LineCount:  e.LineCount,
		Scheme:     e.Scheme,
		Changes:    e.ContentChanges,
	}
	text := e.Text

	if d := e.Document; d != nil {
		if ev.Filename == "" {
			ev.Filename = d.FileName
		}
		if ev.LanguageID == "" {
			ev.LanguageID = d.LanguageID
		}
		if ev.LineCount == 0 {
			ev.LineCount = d.LineCount
		}
		if ev.Scheme == "" {
			ev.Scheme = d.Scheme
		}
		if text == "" {
			text = d.Text
		}
	}

	ev.Length = utf8.RuneCountInString(text)
	return ev
}

var (
	// Liveshare writes shared documents through temp workspace files; those
	// change events describe remote activity, not local keystrokes.
	liveshareTmpRe = regexp.MustCompile(`.*\.code-workspace.*vsliveshare.*tmp-.*`)

	// The engine's own report and data files under ~/.keybeat; counting
	// edits to them would feed our output back into our input.
	internalFileRe = regexp.MustCompile(`.*\.keybeat.*(ActivityReport\.txt|KeyBeat\.txt|session\.json|ProjectSummary\.txt|data\.json)`)
)

// Trackable reports whether an event is eligible for aggregation based on
// filename and scheme alone. The caller still has to confirm the file is
// currently open in the host.
func Trackable(ev RawEvent) bool {
	if ev.Filename == "" {
		return false
	}
	if ev.Scheme != SchemeFile && ev.Scheme != SchemeUntitled {
		return false
	}
	if liveshareTmpRe.MatchString(ev.Filename) || internalFileRe.MatchString(ev.Filename) {
		return false
	}
	return true
}
