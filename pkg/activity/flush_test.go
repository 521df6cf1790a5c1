package activity

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keybeat/keybeat/pkg/fileinfo"
)

func newMockTracker(t *testing.T, window time.Duration, provider fileinfo.MetadataProvider) (*Tracker, *fakeStore, *quartz.Mock, *fileinfo.Cache) {
	t.Helper()
	mock := quartz.NewMock(t)
	ws := &fakeWorkspace{root: "/work/app", name: "app", allOpen: true}
	store := &fakeStore{}
	cache := fileinfo.NewCache(provider)
	tr := NewTracker(ws, cache, store, Options{Clock: mock, Window: window})
	return tr, store, mock, cache
}

func TestWindowTimerFlushesAndResets(t *testing.T) {
	tr, store, mock, _ := newMockTracker(t, DefaultWindow, nil)
	const file = "/work/app/main.go"

	tr.HandleChange(changeEvent(file, "hello", 0, 10))
	tr.HandleChange(changeEvent(file, "", 3, 10))
	require.Empty(t, store.all())

	mock.Advance(DefaultWindow).MustWait(context.Background())

	records := store.all()
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "/work/app", rec.Directory)
	assert.Equal(t, "app", rec.Name)
	assert.Equal(t, 2, rec.Keystrokes)
	require.Len(t, rec.Files, 1)
	assert.Equal(t, file, rec.Files[0].Filename)
	assert.Equal(t, 1, rec.Files[0].Added)
	assert.Equal(t, 1, rec.Files[0].Deleted)

	// All buckets cleared.
	assert.Empty(t, tr.projects)
}

func TestFlushCompletesActiveFiles(t *testing.T) {
	tr, store, mock, _ := newMockTracker(t, DefaultWindow, nil)

	tr.HandleChange(changeEvent("/work/app/a.go", "x", 0, 10))
	tr.HandleChange(changeEvent("/work/app/b.go", "x", 0, 10))

	mock.Advance(DefaultWindow).MustWait(context.Background())

	records := store.all()
	require.Len(t, records, 1)
	for _, f := range records[0].Files {
		assert.NotZero(t, f.End, "emitted file %s must be closed", f.Filename)
		assert.NotZero(t, f.LocalEnd)
	}
}

func TestFlushSkipsProjectsWithoutData(t *testing.T) {
	tr, store, mock, _ := newMockTracker(t, DefaultWindow, nil)

	// Opens and closes alone are not data.
	tr.HandleOpen(openEvent("/work/app/main.go"))
	tr.HandleClose(closeEvent("/work/app/main.go"))

	mock.Advance(DefaultWindow).MustWait(context.Background())

	assert.Empty(t, store.all())
	assert.Empty(t, tr.projects)
}

func TestFlushClearsStaticCache(t *testing.T) {
	provider := &stubProvider{contributors: 1}
	tr, _, mock, _ := newMockTracker(t, DefaultWindow, provider)
	const file = "/work/app/main.go"

	tr.HandleChange(changeEvent(file, "x", 0, 10))
	require.Equal(t, 1, provider.calls)

	mock.Advance(DefaultWindow).MustWait(context.Background())

	// A previously-tracked file starts a fresh bucket with fresh lookups.
	tr.HandleChange(changeEvent(file, "y", 0, 20))
	assert.Equal(t, 2, provider.calls)

	f := fileState(t, tr, "/work/app", file)
	assert.Equal(t, 1, f.Added)
	assert.Equal(t, 0, f.Deleted)
	assert.Equal(t, 20, f.LineCount)
	assert.Equal(t, 0, f.LinesAdded, "line baseline reseeds after flush")
}

func TestFlushReusesRecentRecord(t *testing.T) {
	const window = 10 * time.Second
	tr, store, mock, _ := newMockTracker(t, window, nil)

	tr.HandleChange(changeEvent("/work/app/a.go", "x", 0, 10))
	mock.Advance(window).MustWait(context.Background())
	require.Len(t, store.all(), 1)

	// New activity lands in a fresh bucket.
	tr.HandleChange(changeEvent("/work/app/b.go", "y", 0, 10))

	// A flush firing while the last record's window opened under 60s ago
	// hands back that record untouched and leaves the buckets alone.
	rec := tr.Flush()
	require.NotNil(t, rec)
	require.Len(t, rec.Files, 1)
	assert.Equal(t, "/work/app/a.go", rec.Files[0].Filename)
	assert.Len(t, store.all(), 1)
	assert.NotEmpty(t, tr.projects, "accumulating buckets survive a reused flush")

	// Past the reuse horizon the fresh bucket is delivered normally. The
	// mock clock can only advance up to the next timer event per call, so
	// step through the pending window timer before covering the rest.
	mock.Advance(window).MustWait(context.Background())
	mock.Advance(45 * time.Second).MustWait(context.Background())
	rec = tr.Flush()
	require.NotNil(t, rec)
	records := store.all()
	require.Len(t, records, 2)
	assert.Equal(t, "/work/app/b.go", records[1].Files[0].Filename)
	assert.Empty(t, tr.projects)
}

func TestFlushWithNothingProducedReturnsNil(t *testing.T) {
	tr, store, _, _ := newMockTracker(t, DefaultWindow, nil)
	assert.Nil(t, tr.Flush())
	assert.Empty(t, store.all())
}

func TestOnDemandFlushReturnsLastRecord(t *testing.T) {
	tr, store, mock, _ := newMockTracker(t, DefaultWindow, nil)

	tr.HandleChange(changeEvent("/work/app/a.go", "x", 0, 10))
	mock.Advance(DefaultWindow).MustWait(context.Background())
	require.Len(t, store.all(), 1)

	// No new data accumulated and the last record is stale: the flush
	// returns the last record produced without persisting anything new.
	mock.Advance(2 * time.Minute).MustWait(context.Background())
	rec := tr.Flush()
	require.NotNil(t, rec)
	assert.Equal(t, "/work/app", rec.Directory)
	assert.Len(t, store.all(), 1)
}
