// Package ingest implements the CSV ingestion pipeline: streaming decode,
// per-cell type inference, per-row document assembly, and batched flushes
// into the document store.
//
// The pipeline is push-driven and synchronous: each decoded row is fully
// processed before the next is pulled, so memory stays bounded to one
// batch regardless of file size. Each Run owns its batch exclusively;
// concurrent ingestions share nothing but the store.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/csvhub/csvhub/internal/document"
)

// DefaultSampleSize is how many records Run retains for the caller's
// summarization step.
const DefaultSampleSize = 10

// contextCheckInterval is how many rows pass between cancellation checks.
const contextCheckInterval = 100

// ColumnHook transforms a raw cell of a specific column in place of plain
// inference. Hooks run inside the per-row recovery boundary: a panicking
// hook drops its row, never the file.
type ColumnHook func(raw string) document.TypedValue

// Config tunes a Pipeline. The zero value uses defaults.
type Config struct {
	// BatchSize is the flush threshold (default DefaultBatchSize).
	BatchSize int

	// SampleSize is how many leading records to keep in Result.Sample
	// (default DefaultSampleSize).
	SampleSize int

	// RepairColumns lists columns holding Python-repr embedded lists,
	// parsed via RepairList instead of inference.
	RepairColumns []string

	// Hooks are custom per-column transforms; they take precedence over
	// RepairColumns for the same column name.
	Hooks map[string]ColumnHook
}

// Result reports what one ingestion run persisted.
type Result struct {
	// RecordCount counts only successfully flushed rows.
	RecordCount int

	// Sample holds up to SampleSize of the first ingested records.
	Sample []document.Record

	// RowsDropped counts rows lost to row-level processing failures.
	RowsDropped int

	// BytesRead is the total consumed from the source stream.
	BytesRead int64
}

// Pipeline ingests CSV byte streams into a document store.
type Pipeline struct {
	store      document.Store
	batchSize  int
	sampleSize int
	hooks      map[string]ColumnHook
}

// New creates a Pipeline over the given store.
func New(store document.Store, cfg Config) *Pipeline {
	p := &Pipeline{
		store:      store,
		batchSize:  cfg.BatchSize,
		sampleSize: cfg.SampleSize,
		hooks:      map[string]ColumnHook{},
	}
	if p.batchSize <= 0 {
		p.batchSize = DefaultBatchSize
	}
	if p.sampleSize <= 0 {
		p.sampleSize = DefaultSampleSize
	}
	for _, col := range cfg.RepairColumns {
		p.hooks[col] = func(raw string) document.TypedValue {
			return document.List(RepairList(raw))
		}
	}
	for col, hook := range cfg.Hooks {
		p.hooks[col] = hook
	}
	return p
}

// Run ingests one CSV stream under the given file identifier.
//
// Any records previously stored under fileID are deleted first, so
// re-ingesting a file replaces its data rather than appending duplicates.
//
// Failure semantics: a row-level error or panic drops that row and the run
// continues. A flush failure is fatal and is returned, but batches flushed
// before it stand. A malformed stream terminates the run early with a
// *DecodeError after preserving the rows decoded so far. In every case the
// returned Result counts only rows actually flushed.
func (p *Pipeline) Run(ctx context.Context, fileID, filename string, r io.Reader) (Result, error) {
	start := time.Now()
	logger := slog.With("file_id", fileID, "filename", filename)

	deleted, err := p.store.DeleteByFileID(ctx, fileID)
	if err != nil {
		return Result{}, fmt.Errorf("clear prior records for %s: %w", fileID, err)
	}
	if deleted > 0 {
		logger.Info("replaced prior ingestion", "deleted", deleted)
	}

	stream := wrapStream(r)
	dec := NewDecoder(stream)
	b := newBatch(p.store, p.batchSize)
	uploadedAt := time.Now().UTC()

	var result Result
	rowNum := 0

	finish := func(runErr error) (Result, error) {
		result.RecordCount = b.flushed
		result.BytesRead = stream.BytesRead()
		logger.Info("ingestion finished",
			"records", result.RecordCount,
			"dropped", result.RowsDropped,
			"bytes", result.BytesRead,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", runErr != nil,
		)
		return result, runErr
	}

	for {
		if rowNum%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return finish(err)
			}
		}

		row, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed stream: keep what decoded cleanly, then surface.
			if ferr := b.flushRemainder(ctx); ferr != nil {
				return finish(ferr)
			}
			return finish(err)
		}
		rowNum++

		fields, rerr := p.buildFields(rowNum, row)
		if rerr != nil {
			result.RowsDropped++
			logger.Warn("row dropped", "row", rowNum, "error", rerr)
			continue
		}
		if len(fields) == 0 {
			continue // fully-blank line the decoder let through
		}

		record := document.Record{
			FileID:     fileID,
			Filename:   filename,
			Fields:     fields,
			UploadedAt: uploadedAt,
		}
		if len(result.Sample) < p.sampleSize {
			result.Sample = append(result.Sample, record)
		}

		if err := b.push(ctx, record); err != nil {
			return finish(err)
		}
	}

	if err := b.flushRemainder(ctx); err != nil {
		return finish(err)
	}
	return finish(nil)
}

// buildFields assembles a FieldMap from a raw row. Cells absent from the
// row (short lines) are omitted; cells present but empty are stored as
// explicit nulls. Panics from inference or hooks are converted to a
// *RowError so one poisoned cell cannot abort the file.
func (p *Pipeline) buildFields(rowNum int, row RawRow) (fields document.FieldMap, err error) {
	defer func() {
		if r := recover(); r != nil {
			fields = nil
			err = &RowError{Row: rowNum, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	fields = make(document.FieldMap, len(row))
	for col, raw := range row {
		if hook, ok := p.hooks[col]; ok && raw != "" {
			fields[col] = hook(raw)
			continue
		}
		fields[col] = Infer(raw)
	}
	return fields, nil
}
