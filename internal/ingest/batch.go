package ingest

import (
	"context"

	"github.com/csvhub/csvhub/internal/document"
)

// DefaultBatchSize is how many records accumulate before a flush.
const DefaultBatchSize = 1000

// batch is a bounded buffer of records awaiting a single atomic bulk
// insert. The pipeline owns it exclusively; after a successful flush the
// buffer is released and reused for the next batch.
type batch struct {
	store    document.Store
	capacity int

	records []document.Record
	flushed int // total records persisted across all flushes
	flushes int // completed flush count
}

func newBatch(store document.Store, capacity int) *batch {
	if capacity <= 0 {
		capacity = DefaultBatchSize
	}
	return &batch{
		store:    store,
		capacity: capacity,
		records:  make([]document.Record, 0, capacity),
	}
}

// push appends a record and flushes if the batch is now full.
func (b *batch) push(ctx context.Context, r document.Record) error {
	b.records = append(b.records, r)
	if len(b.records) >= b.capacity {
		return b.flush(ctx)
	}
	return nil
}

// flushRemainder persists whatever is buffered at stream end.
func (b *batch) flushRemainder(ctx context.Context) error {
	if len(b.records) == 0 {
		return nil
	}
	return b.flush(ctx)
}

func (b *batch) flush(ctx context.Context) error {
	size := len(b.records)
	if err := b.store.BulkInsert(ctx, b.records); err != nil {
		return &FlushError{Batch: b.flushes + 1, Size: size, Err: err}
	}
	b.flushes++
	b.flushed += size
	b.records = b.records[:0]
	return nil
}
