package web

import (
	"net/http"
	"strconv"

	"github.com/csvhub/csvhub/internal/document"
	"github.com/csvhub/csvhub/internal/query"
)

// handleQueryRecords searches ingested records.
//
// Query parameters:
//
//	fileId    exact file filter
//	field     field name to match, paired with term
//	term      case-insensitive substring/regex to match against field
//	sortBy    field to order by
//	sortOrder asc (default) or desc
//	page      1-indexed page number
//	limit     page size, capped server-side
func (s *Server) handleQueryRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := query.Params{
		FileID: q.Get("fileId"),
		Field:  q.Get("field"),
		Term:   q.Get("term"),
		SortBy: q.Get("sortBy"),
	}

	switch q.Get("sortOrder") {
	case "", "asc":
		params.SortOrder = document.SortAsc
	case "desc":
		params.SortOrder = document.SortDesc
	default:
		writeError(w, http.StatusBadRequest, "sortOrder must be asc or desc")
		return
	}

	var err error
	if params.Page, err = parseQueryInt(q.Get("page"), 1); err != nil {
		writeError(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	if params.Limit, err = parseQueryInt(q.Get("limit"), query.DefaultLimit); err != nil {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	result, err := s.query.Search(r.Context(), params)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, result)
}

// parseQueryInt parses a positive integer query value, using def when the
// value is absent.
func parseQueryInt(raw string, def int64) (int64, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 1 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
