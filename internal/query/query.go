// Package query reshapes stored type-tagged documents into flat,
// client-facing records with filtering, sorting, and pagination.
//
// Type tags exist only to drive ingestion-time inference; this is the
// boundary where they are dropped, so clients see plain values.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/csvhub/csvhub/internal/document"
)

// DefaultLimit is the page size when the caller does not specify one.
const DefaultLimit = 10

// MaxLimit caps the page size a caller may request.
const MaxLimit = 1000

// Params selects and windows records.
type Params struct {
	// FileID filters by exact file identifier.
	FileID string

	// Field and Term filter by a case-insensitive substring/regex match
	// of Term against that field's stored value. Both must be set for
	// the filter to apply.
	Field string
	Term  string

	// SortBy orders by a single field; empty means storage order.
	SortBy    string
	SortOrder document.SortOrder

	// Page is 1-indexed. Values below 1 are treated as 1.
	Page  int64
	Limit int64
}

// FlatRecord is the client-facing shape of a stored record: every stored
// {type, value} entry flattened to just the value.
type FlatRecord struct {
	ID         string         `json:"id"`
	FileID     string         `json:"fileId"`
	Filename   string         `json:"filename"`
	UploadedAt time.Time      `json:"uploadedAt"`
	Fields     map[string]any `json:"fields"`
}

// Pagination describes the result window.
type Pagination struct {
	CurrentPage  int64 `json:"currentPage"`
	TotalPages   int64 `json:"totalPages"`
	TotalRecords int64 `json:"totalRecords"`
	Limit        int64 `json:"limit"`
}

// Result is one page of flattened records.
type Result struct {
	Records    []FlatRecord `json:"records"`
	Pagination Pagination   `json:"pagination"`
}

// Service queries the document store.
type Service struct {
	store document.Store
}

// NewService creates a query service over the given store.
func NewService(store document.Store) *Service {
	return &Service{store: store}
}

// Search returns one page of records matching the params.
func (s *Service) Search(ctx context.Context, p Params) (Result, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}

	filter := document.Filter{
		FileID:  p.FileID,
		Field:   p.Field,
		Pattern: p.Term,
	}
	sort := document.Sort{Field: p.SortBy, Order: p.SortOrder}
	if sort.Field != "" && sort.Order != document.SortDesc {
		sort.Order = document.SortAsc
	}

	total, err := s.store.Count(ctx, filter)
	if err != nil {
		return Result{}, fmt.Errorf("count: %w", err)
	}

	skip := (p.Page - 1) * p.Limit
	records, err := s.store.Find(ctx, filter, sort, skip, p.Limit)
	if err != nil {
		return Result{}, fmt.Errorf("find: %w", err)
	}

	flat := make([]FlatRecord, len(records))
	for i, r := range records {
		flat[i] = Flatten(r)
	}

	return Result{
		Records: flat,
		Pagination: Pagination{
			CurrentPage:  p.Page,
			TotalPages:   totalPages(total, p.Limit),
			TotalRecords: total,
			Limit:        p.Limit,
		},
	}, nil
}

// Flatten projects a stored record into its client-facing shape, dropping
// type tags.
func Flatten(r document.Record) FlatRecord {
	fields := make(map[string]any, len(r.Fields))
	for name, tv := range r.Fields {
		fields[name] = tv.Value
	}
	return FlatRecord{
		ID:         r.ID,
		FileID:     r.FileID,
		Filename:   r.Filename,
		UploadedAt: r.UploadedAt,
		Fields:     fields,
	}
}

// FlattenAll projects a slice of records.
func FlattenAll(records []document.Record) []FlatRecord {
	out := make([]FlatRecord, len(records))
	for i, r := range records {
		out[i] = Flatten(r)
	}
	return out
}

// totalPages is ceil(total/limit); zero records means zero pages.
func totalPages(total, limit int64) int64 {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
