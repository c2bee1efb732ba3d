package document

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is an in-process Store implementation. It backs tests and
// local development without a MongoDB instance.
//
// Semantics mirror MongoStore where they matter to callers: BulkInsert is
// atomic per call, Find preserves insertion order when no sort is given,
// and field filters are case-insensitive regular expressions against the
// stored value.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	nextID  int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// BulkInsert implements Store.
func (s *MemoryStore) BulkInsert(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if r.ID == "" {
			s.nextID++
			r.ID = "mem-" + strconv.Itoa(s.nextID)
		}
		s.records = append(s.records, r)
	}
	return nil
}

// DeleteByFileID implements Store.
func (s *MemoryStore) DeleteByFileID(_ context.Context, fileID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var deleted int64
	for _, r := range s.records {
		if r.FileID == fileID {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return deleted, nil
}

// Find implements Store.
func (s *MemoryStore) Find(_ context.Context, filter Filter, srt Sort, skip, limit int64) ([]Record, error) {
	matched, err := s.match(filter)
	if err != nil {
		return nil, err
	}

	if srt.Field != "" {
		desc := srt.Order == SortDesc
		sort.SliceStable(matched, func(i, j int) bool {
			less := lessByField(matched[i], matched[j], srt.Field)
			if desc {
				return !less && !equalByField(matched[i], matched[j], srt.Field)
			}
			return less
		})
	}

	if skip >= int64(len(matched)) {
		return nil, nil
	}
	matched = matched[skip:]
	if limit > 0 && int64(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context, filter Filter) (int64, error) {
	matched, err := s.match(filter)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// Len reports the total number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) match(filter Filter) ([]Record, error) {
	var re *regexp.Regexp
	if filter.Field != "" && filter.Pattern != "" {
		var err error
		re, err = regexp.Compile("(?i)" + filter.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrBadPattern, filter.Pattern, err)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Record
	for _, r := range s.records {
		if filter.FileID != "" && r.FileID != filter.FileID {
			continue
		}
		if re != nil {
			tv, ok := r.Fields[filter.Field]
			if !ok || !re.MatchString(renderValue(tv)) {
				continue
			}
		}
		matched = append(matched, r)
	}
	return matched, nil
}

// renderValue renders a stored value the way a regex filter sees it.
func renderValue(tv TypedValue) string {
	switch v := tv.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

func lessByField(a, b Record, field string) bool {
	av, aok := a.Fields[field]
	bv, bok := b.Fields[field]
	if !aok || !bok {
		// Records missing the sort field order before those that have it,
		// matching MongoDB's treatment of absent keys.
		return !aok && bok
	}
	af, aIsNum := av.Value.(float64)
	bf, bIsNum := bv.Value.(float64)
	if aIsNum && bIsNum {
		return af < bf
	}
	return renderValue(av) < renderValue(bv)
}

func equalByField(a, b Record, field string) bool {
	return !lessByField(a, b, field) && !lessByField(b, a, field)
}
