package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/csvhub/csvhub/internal/document"
)

func seedStore(t *testing.T, n int, fileID string) *document.MemoryStore {
	t.Helper()
	store := document.NewMemoryStore()
	var records []document.Record
	for i := 1; i <= n; i++ {
		records = append(records, document.Record{
			FileID:     fileID,
			Filename:   "seed.csv",
			UploadedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Fields: document.FieldMap{
				"name":   document.String(fmt.Sprintf("user%03d", i)),
				"amount": document.Number(float64(i)),
				"city":   document.String([]string{"Oslo", "Lima", "Kyoto"}[i%3]),
			},
		})
	}
	if err := store.BulkInsert(context.Background(), records); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func TestSearch_RoundTrip(t *testing.T) {
	const n = 9
	svc := NewService(seedStore(t, n, "file-1"))

	res, err := svc.Search(context.Background(), Params{FileID: "file-1", Limit: n + 1, Page: 1})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Records) != n {
		t.Errorf("got %d records, want %d", len(res.Records), n)
	}
	if res.Pagination.TotalRecords != n {
		t.Errorf("TotalRecords = %d, want %d", res.Pagination.TotalRecords, n)
	}
}

func TestSearch_PaginationBoundary(t *testing.T) {
	svc := NewService(seedStore(t, 25, "f"))

	res, err := svc.Search(context.Background(), Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if res.Pagination.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", res.Pagination.TotalPages)
	}
	if len(res.Records) != 10 {
		t.Errorf("page 1 = %d records, want 10", len(res.Records))
	}

	res, err = svc.Search(context.Background(), Params{Page: 3, Limit: 10})
	if err != nil {
		t.Fatalf("Search() page 3 error = %v", err)
	}
	if len(res.Records) != 5 {
		t.Errorf("page 3 = %d records, want 5", len(res.Records))
	}
	if res.Pagination.CurrentPage != 3 {
		t.Errorf("CurrentPage = %d, want 3", res.Pagination.CurrentPage)
	}

	res, err = svc.Search(context.Background(), Params{Page: 4, Limit: 10})
	if err != nil {
		t.Fatalf("Search() page 4 error = %v", err)
	}
	if len(res.Records) != 0 {
		t.Errorf("page past the end = %d records, want 0", len(res.Records))
	}
}

func TestSearch_FieldFilterCaseInsensitive(t *testing.T) {
	svc := NewService(seedStore(t, 9, "f"))

	res, err := svc.Search(context.Background(), Params{Field: "city", Term: "OSLO", Limit: 100})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Records) == 0 {
		t.Fatal("case-insensitive filter matched nothing")
	}
	for _, r := range res.Records {
		if r.Fields["city"] != "Oslo" {
			t.Errorf("unexpected record in filter result: %v", r.Fields)
		}
	}
}

func TestSearch_SubstringMatch(t *testing.T) {
	svc := NewService(seedStore(t, 12, "f"))

	// "ser00" is an interior substring of "user001".."user009".
	res, err := svc.Search(context.Background(), Params{Field: "name", Term: "ser00", Limit: 100})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Records) != 9 {
		t.Errorf("substring match = %d records, want 9", len(res.Records))
	}
}

func TestSearch_InvalidPatternIsAnError(t *testing.T) {
	svc := NewService(seedStore(t, 3, "f"))
	if _, err := svc.Search(context.Background(), Params{Field: "name", Term: "("}); err == nil {
		t.Error("want error for invalid regex pattern")
	}
}

func TestSearch_SortDescending(t *testing.T) {
	svc := NewService(seedStore(t, 6, "f"))

	res, err := svc.Search(context.Background(), Params{SortBy: "amount", SortOrder: document.SortDesc, Limit: 6})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for i := 1; i < len(res.Records); i++ {
		prev := res.Records[i-1].Fields["amount"].(float64)
		cur := res.Records[i].Fields["amount"].(float64)
		if prev < cur {
			t.Fatalf("not descending at %d: %v then %v", i, prev, cur)
		}
	}
}

func TestSearch_DefaultsApplied(t *testing.T) {
	svc := NewService(seedStore(t, 25, "f"))

	res, err := svc.Search(context.Background(), Params{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if res.Pagination.CurrentPage != 1 || res.Pagination.Limit != DefaultLimit {
		t.Errorf("defaults not applied: %+v", res.Pagination)
	}
	if len(res.Records) != DefaultLimit {
		t.Errorf("got %d records, want %d", len(res.Records), DefaultLimit)
	}
}

func TestFlatten_DropsTypeTags(t *testing.T) {
	rec := document.Record{
		ID:       "r1",
		FileID:   "f1",
		Filename: "x.csv",
		Fields: document.FieldMap{
			"n":    document.Number(4),
			"s":    document.String("hi"),
			"null": document.Null(),
		},
	}
	flat := Flatten(rec)
	if flat.Fields["n"] != 4.0 || flat.Fields["s"] != "hi" {
		t.Errorf("Flatten fields = %v", flat.Fields)
	}
	if v, ok := flat.Fields["null"]; !ok || v != nil {
		t.Errorf("null field = %v (present=%v), want present nil", v, ok)
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, limit, want int64
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
	}
	for _, tt := range tests {
		if got := totalPages(tt.total, tt.limit); got != tt.want {
			t.Errorf("totalPages(%d, %d) = %d, want %d", tt.total, tt.limit, got, tt.want)
		}
	}
}
