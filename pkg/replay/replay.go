// Package replay resubmits previously persisted activity records to the
// collector in fixed-size batches.
package replay

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/keybeat/keybeat/pkg/activity"
	"github.com/keybeat/keybeat/pkg/metrics"
)

// BatchLimit is the number of records per submission, chosen to respect the
// collector's request body ceiling.
const BatchLimit = 5

// Store provides the pending records and is cleared once every batch has
// been accepted.
type Store interface {
	Pending() ([]activity.Record, error)
	Clear() error
}

// Sender submits a batch of records to the collector.
type Sender interface {
	SubmitBatch(ctx context.Context, records []activity.Record) error
}

// Replayer drains the offline store through the sender.
type Replayer struct {
	store  Store
	sender Sender
	log    zerolog.Logger
	met    *metrics.Metrics
}

// New creates a replayer.
func New(store Store, sender Sender, log zerolog.Logger, met *metrics.Metrics) *Replayer {
	return &Replayer{store: store, sender: sender, log: log, met: met}
}

// Replay reads everything the store currently holds and submits it in order,
// one full batch at a time, with a final partial batch if any records
// remain. The store is cleared only after the collector has accepted every
// batch; a submission failure stops the replay and leaves all records in
// place for the next attempt.
func (r *Replayer) Replay(ctx context.Context) error {
	records, err := r.store.Pending()
	if err != nil {
		return fmt.Errorf("failed to read pending records: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	for start := 0; start < len(records); start += BatchLimit {
		end := start + BatchLimit
		if end > len(records) {
			end = len(records)
		}
		if err := r.sender.SubmitBatch(ctx, records[start:end]); err != nil {
			return fmt.Errorf("failed to submit batch starting at record %d: %w", start, err)
		}
		r.met.RecordReplayBatch()
		r.log.Debug().Int("batch_size", end-start).Msg("batch submitted")
	}

	if err := r.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear store after replay: %w", err)
	}

	r.log.Info().Int("records", len(records)).Msg("offline replay complete")
	return nil
}
