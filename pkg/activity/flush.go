package activity

// PayloadReuseWindowSec: a record whose window opened less than this many
// seconds ago may be reused verbatim by a firing timer instead of
// recomputing, allowing a companion process to have already produced an
// equivalent record.
const PayloadReuseWindowSec = 60

// Flush is the timer body and the on-demand flush path. It snapshots every
// project bucket with data, persists each snapshot to the offline store,
// clears all buckets and the static-info cache, and returns the last record
// produced (or the reused in-flight record). Returns nil when nothing has
// ever been produced.
//
// The snapshot-and-clear step is a single critical section relative to event
// application: an event arriving during a flush either landed in the
// snapshot or starts a fresh bucket, never both and never neither.
func (t *Tracker) Flush() *Record {
	nowSec, localSec := t.nowTimes()

	t.mu.Lock()

	// Reuse shortcut: a fresh in-flight record with file data stands in
	// for this cycle. Buckets keep accumulating and are delivered by a
	// later flush, so nothing is double-counted or lost.
	if t.lastRecord != nil && len(t.lastRecord.Files) > 0 &&
		localSec-t.lastRecord.LocalStart <= PayloadReuseWindowSec {
		rec := *t.lastRecord
		t.mu.Unlock()
		t.log.Debug().Str("project", rec.Name).Msg("flush reusing in-flight record")
		return &rec
	}

	var snaps []Record
	for _, proj := range t.projects {
		if proj.HasData() {
			snaps = append(snaps, proj.snapshot(nowSec, localSec))
		}
	}
	t.projects = make(map[string]*ProjectActivity)
	t.mu.Unlock()

	t.cache.Clear()
	t.met.RecordFlush()

	// Persistence happens outside the critical section; the records are
	// already off the live maps, so a concurrent event cannot touch them.
	var last *Record
	for i := range snaps {
		if err := t.store.Persist(snaps[i]); err != nil {
			t.log.Warn().Err(err).Str("project", snaps[i].Name).Msg("failed to persist record")
		} else {
			t.met.RecordPersisted()
		}
		last = &snaps[i]
	}

	t.mu.Lock()
	if last != nil {
		t.lastRecord = last
	}
	rec := t.lastRecord
	t.mu.Unlock()

	if last != nil {
		t.log.Info().Int("records", len(snaps)).Msg("flush complete")
	}
	if rec == nil {
		return nil
	}
	out := *rec
	return &out
}
