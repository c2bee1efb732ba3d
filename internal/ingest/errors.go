package ingest

import (
	"errors"
	"fmt"
)

// DecodeError reports a malformed CSV stream. Rows emitted before the error
// are valid and remain persisted; the stream terminates early.
type DecodeError struct {
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("decode line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RowError reports a failure while processing a single row. The pipeline
// logs it, drops the row, and continues.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// FlushError reports a failed bulk insert. It is fatal to the ingestion
// call; batches flushed before it stand.
type FlushError struct {
	Batch int
	Size  int
	Err   error
}

func (e *FlushError) Error() string {
	return fmt.Sprintf("flush batch %d (%d records): %v", e.Batch, e.Size, e.Err)
}

func (e *FlushError) Unwrap() error { return e.Err }

// IsFlushError reports whether err is (or wraps) a FlushError.
func IsFlushError(err error) bool {
	var fe *FlushError
	return errors.As(err, &fe)
}
