package ingest

// repair.go fixes up Python-repr-style embedded list columns (cast/crew
// style metadata) into valid JSON and parses them. It is a best-effort
// string rewrite for loosely-escaped source data, not a general parser:
// anything it cannot salvage degrades to an empty list so a single bad
// cell never aborts ingestion of its row or file.

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
)

var (
	noneToken  = regexp.MustCompile(`\bNone\b`)
	trueToken  = regexp.MustCompile(`\bTrue\b`)
	falseToken = regexp.MustCompile(`\bFalse\b`)

	spaceAfterQuote  = regexp.MustCompile(`"\s+`)
	spaceBeforeQuote = regexp.MustCompile(`\s+"`)
)

// RepairList rewrites a malformed embedded list string into JSON and parses
// it. The rewrite order matters and mirrors the quirks of the source data:
//
//	1. single quotes become double quotes
//	2. None/True/False literals become null/true/false (whole-token only)
//	3. whitespace at quote boundaries is collapsed
//	4. newlines and carriage returns are stripped
//	5. the result is wrapped in [ ] if the brackets are missing
//
// A failed parse returns an empty slice; the offending input is logged at
// debug level and otherwise swallowed.
func RepairList(raw string) []map[string]any {
	s := strings.ReplaceAll(raw, "'", `"`)
	s = noneToken.ReplaceAllString(s, "null")
	s = trueToken.ReplaceAllString(s, "true")
	s = falseToken.ReplaceAllString(s, "false")
	s = spaceAfterQuote.ReplaceAllString(s, `"`)
	s = spaceBeforeQuote.ReplaceAllString(s, `"`)
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSpace(s)

	if !strings.HasPrefix(s, "[") {
		s = "[" + s
	}
	if !strings.HasSuffix(s, "]") {
		s = s + "]"
	}

	var list []map[string]any
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		slog.Debug("list repair failed", "error", err, "input", raw)
		return []map[string]any{}
	}
	if list == nil {
		return []map[string]any{}
	}
	return list
}
