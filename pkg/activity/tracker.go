// Package activity owns the in-memory aggregation state: one activity bucket
// per project root, one file sub-record per open file, applied from
// classified editor events and drained by the periodic flush.
package activity

import (
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/keybeat/keybeat/pkg/classify"
	"github.com/keybeat/keybeat/pkg/event"
	"github.com/keybeat/keybeat/pkg/fileinfo"
	"github.com/keybeat/keybeat/pkg/metrics"
)

// DefaultWindow is the aggregation window length: the one-shot flush timer
// armed when a project bucket is first created.
const DefaultWindow = 60 * time.Second

// Workspace resolves host editor state for a file.
type Workspace interface {
	// RootForFile returns the project root containing filename, or
	// ok=false when the file is outside any workspace folder.
	RootForFile(filename string) (root string, ok bool)
	// ProjectName returns the human name for a project root.
	ProjectName(root string) string
	// IsFileOpen reports whether the host currently has the file open.
	IsFileOpen(filename string) bool
}

// Store persists emitted records for later batch delivery.
type Store interface {
	Persist(rec Record) error
}

// Options configures a Tracker. The zero value is usable: real clock,
// default window, no-op logger, no metrics, always-on listen gate.
type Options struct {
	Clock   quartz.Clock
	Window  time.Duration
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	// ListenGate is consulted before every event; when it reports false a
	// companion collector owns the event stream and we stay silent.
	ListenGate func() bool
}

// Tracker is the session aggregator. A single mutex serializes event
// application against the flush timer so a flush never observes a
// half-applied event.
type Tracker struct {
	ws    Workspace
	cache *fileinfo.Cache
	store Store

	clock  quartz.Clock
	window time.Duration
	log    zerolog.Logger
	met    *metrics.Metrics
	gate   func() bool

	mu       sync.Mutex
	projects map[string]*ProjectActivity

	// lastRecord is the most recent record handed off, kept so a timer
	// firing shortly after can reuse it instead of recomputing.
	lastRecord *Record
}

// NewTracker creates an aggregator over the given collaborators.
func NewTracker(ws Workspace, cache *fileinfo.Cache, store Store, opts Options) *Tracker {
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Window == 0 {
		opts.Window = DefaultWindow
	}
	if opts.ListenGate == nil {
		opts.ListenGate = func() bool { return true }
	}
	return &Tracker{
		ws:       ws,
		cache:    cache,
		store:    store,
		clock:    opts.Clock,
		window:   opts.Window,
		log:      opts.Logger,
		met:      opts.Metrics,
		gate:     opts.ListenGate,
		projects: make(map[string]*ProjectActivity),
	}
}

// HandleOpen processes a file-open notification.
func (t *Tracker) HandleOpen(ev event.RawEvent) {
	f, proj := t.admit(ev)
	if f == nil {
		return
	}
	defer t.mu.Unlock()
	f.Opened++
	t.met.RecordEvent(string(event.KindOpen), metrics.EventAccepted)
	t.log.Debug().Str("file", ev.Filename).Str("project", proj.Name).Msg("file opened")
}

// HandleClose processes a file-close notification.
func (t *Tracker) HandleClose(ev event.RawEvent) {
	f, proj := t.admit(ev)
	if f == nil {
		return
	}
	defer t.mu.Unlock()
	f.Closed++
	t.met.RecordEvent(string(event.KindClose), metrics.EventAccepted)
	t.log.Debug().Str("file", ev.Filename).Str("project", proj.Name).Msg("file closed")
}

// HandleChange processes a content-change notification: classification,
// counter updates, and line-delta tracking.
func (t *Tracker) HandleChange(ev event.RawEvent) {
	f, proj := t.admit(ev)
	if f == nil {
		return
	}
	defer t.mu.Unlock()

	res := classify.Classify(ev.Changes)
	if res.Kind == classify.None {
		// Ambiguous or empty edit: no counter moves, including the
		// project keystroke count.
		t.met.RecordEvent(string(event.KindChange), metrics.EventDiscarded)
		return
	}

	switch res.Kind {
	case classify.Paste:
		f.Pasted++
		t.log.Debug().Str("file", ev.Filename).Int("delta", res.Delta).Msg("paste incremented")
	case classify.Delete:
		f.Deleted++
		t.log.Debug().Str("file", ev.Filename).Int("delta", res.Delta).Msg("delete incremented")
	case classify.Typed:
		f.Added++
		t.log.Debug().Str("file", ev.Filename).Int("delta", res.Delta).Msg("add incremented")
	case classify.NewlineOnly:
		// Counts toward keystrokes only.
	}
	proj.Keystrokes++
	f.NetKeystrokes = f.Added - f.Deleted

	// Line tracking runs off the live observed line count. The first
	// observation only seeds the baseline.
	diff := 0
	if f.LineCount > 0 {
		diff = ev.LineCount - f.LineCount
	}
	f.LineCount = ev.LineCount
	if diff < 0 {
		f.LinesRemoved += -diff
	} else if diff > 0 {
		f.LinesAdded += diff
	}
	// First-newline catch-up: a line break typed before any line-count
	// delta has been observed still registers one added line.
	if f.LinesAdded == 0 && res.Newline {
		f.LinesAdded = 1
	}

	f.Length = ev.Length
	t.met.RecordEvent(string(event.KindChange), metrics.EventAccepted)
}

// admit runs the shared per-event path: listen gate, eligibility filter,
// static info resolution, root resolution, and bucket/file bookkeeping.
// On success the tracker mutex is held and the file's activity returned;
// callers must unlock. A nil return means the event was dropped.
func (t *Tracker) admit(ev event.RawEvent) (*FileActivity, *ProjectActivity) {
	if !t.gate() {
		return nil, nil
	}
	if !event.Trackable(ev) || !t.ws.IsFileOpen(ev.Filename) {
		t.met.RecordEvent(string(ev.Kind), metrics.EventDropped)
		return nil, nil
	}

	// Static lookups may block on git; they run before taking the
	// tracker lock so a slow lookup never stalls the flush timer.
	info := t.cache.Resolve(ev.Filename, ev.LanguageID, ev.Length, ev.LineCount)

	root, ok := t.ws.RootForFile(ev.Filename)
	if !ok || root == "" {
		root = UntitledRoot
	}

	nowSec, localSec := t.nowTimes()

	t.mu.Lock()
	proj := t.projects[root]
	if proj == nil {
		name := t.ws.ProjectName(root)
		if name == "" {
			name = UnnamedProject
		}
		proj = &ProjectActivity{
			Directory:  root,
			Name:       name,
			Start:      nowSec,
			LocalStart: localSec,
			Files:      make(map[string]*FileActivity),
		}
		t.projects[root] = proj
		// Arm the window timer. The flush operates over all projects,
		// so one live timer at a time is enough; a bucket created
		// after a flush re-arms it.
		t.clock.AfterFunc(t.window, func() { t.Flush() }, "flush")
	}

	f := proj.Files[ev.Filename]
	if f == nil {
		f = &FileActivity{Start: nowSec, LocalStart: localSec}
		proj.Files[ev.Filename] = f
	} else if f.End != 0 {
		// Regained focus before the window flushed.
		f.End = 0
		f.LocalEnd = 0
	}

	// Single-active-file invariant: every other file in this project
	// loses the active slot now.
	for name, other := range proj.Files {
		if name != ev.Filename && other.End == 0 {
			other.End = nowSec
			other.LocalEnd = localSec
		}
	}

	t.applyStatic(proj, f, info)
	return f, proj
}

// applyStatic copies static attributes in, honoring the write-once rule:
// a non-zero value set earlier in the window is never overwritten.
func (t *Tracker) applyStatic(proj *ProjectActivity, f *FileActivity, info fileinfo.Info) {
	if proj.RepoContributorCount == 0 && info.RepoContributorCount > 0 {
		proj.RepoContributorCount = info.RepoContributorCount
	}
	if proj.RepoFileCount == 0 && info.RepoFileCount > 0 {
		proj.RepoFileCount = info.RepoFileCount
	}
	if f.RepoFileContributorCount == 0 {
		f.RepoFileContributorCount = info.FileContributorCount
	}
	if f.Syntax == "" {
		f.Syntax = info.LanguageID
	}
	if f.FileAgeDays == 0 {
		f.FileAgeDays = info.FileAgeDays
	}
}

// nowTimes returns the UTC epoch seconds and local epoch seconds (UTC plus
// zone offset) for the current clock time.
func (t *Tracker) nowTimes() (int64, int64) {
	now := t.clock.Now()
	_, offset := now.Zone()
	return now.Unix(), now.Unix() + int64(offset)
}
