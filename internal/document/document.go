// Package document defines the record model for ingested CSV rows and the
// document store that persists them.
//
// Every cell of an ingested row is stored as a TypedValue: the value in its
// native representation plus a kind tag. The tag exists to drive type
// inference during ingestion and is stripped again at the query boundary,
// so clients only ever see plain values.
package document

import (
	"context"
	"errors"
	"time"
)

// Kind identifies the inferred type of a stored cell value.
type Kind string

const (
	KindNull    Kind = "null"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindDate    Kind = "date"
	KindString  Kind = "string"

	// KindList is produced only by column repair hooks (embedded list
	// columns such as film crew metadata), never by plain inference.
	KindList Kind = "list"
)

// TypedValue is a tagged cell value. Immutable once produced.
//
// The native representation per kind:
//
//	KindNull    -> nil
//	KindNumber  -> float64
//	KindBoolean -> bool
//	KindDate    -> time.Time
//	KindString  -> string
//	KindList    -> []map[string]any
type TypedValue struct {
	Kind  Kind
	Value any
}

// Null returns the null TypedValue.
func Null() TypedValue { return TypedValue{Kind: KindNull} }

// Number wraps a float64.
func Number(f float64) TypedValue { return TypedValue{Kind: KindNumber, Value: f} }

// Boolean wraps a bool.
func Boolean(b bool) TypedValue { return TypedValue{Kind: KindBoolean, Value: b} }

// Date wraps a time.Time.
func Date(t time.Time) TypedValue { return TypedValue{Kind: KindDate, Value: t} }

// String wraps a string.
func String(s string) TypedValue { return TypedValue{Kind: KindString, Value: s} }

// List wraps a repaired embedded list.
func List(l []map[string]any) TypedValue { return TypedValue{Kind: KindList, Value: l} }

// FieldMap maps column names to their inferred values. Keys are unique per
// row; insertion order is irrelevant.
type FieldMap map[string]TypedValue

// Record is one ingested CSV row. The pipeline never mutates a record after
// it has been flushed to the store.
type Record struct {
	ID         string
	FileID     string
	Filename   string
	Fields     FieldMap
	UploadedAt time.Time
}

// SortOrder is the direction of a single-field sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ErrBadPattern wraps filter patterns that are not valid regular
// expressions, so callers can treat them as client errors.
var ErrBadPattern = errors.New("invalid search pattern")

// Filter restricts a Find or Count. Zero values mean "no restriction".
type Filter struct {
	// FileID matches records by exact file identifier.
	FileID string

	// Field and Pattern together match records whose stored value for
	// Field matches Pattern as a case-insensitive regular expression.
	// Plain search terms behave as substring matches.
	Field   string
	Pattern string
}

// Sort orders results by a single field's stored value. An empty Field
// leaves records in storage order.
type Sort struct {
	Field string
	Order SortOrder
}

// Store is the document store the ingestion pipeline and query layer depend
// on. Implementations must make BulkInsert atomic per call; no transactional
// guarantee spans multiple calls.
type Store interface {
	// BulkInsert persists an ordered batch of records atomically.
	BulkInsert(ctx context.Context, records []Record) error

	// DeleteByFileID removes all records tagged with fileID and reports
	// how many were removed.
	DeleteByFileID(ctx context.Context, fileID string) (int64, error)

	// Find returns matching records, sorted and windowed by skip/limit.
	// A limit <= 0 means no limit.
	Find(ctx context.Context, filter Filter, sort Sort, skip, limit int64) ([]Record, error)

	// Count reports how many records match the filter.
	Count(ctx context.Context, filter Filter) (int64, error)
}
