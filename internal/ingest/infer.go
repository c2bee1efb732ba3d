package ingest

// infer.go classifies raw CSV cell strings without a predeclared schema.
//
// The precedence order is a fixed contract, not an accident:
//
//	null > number > boolean > date > string
//
// A value that could match several kinds always takes the earliest match,
// so "2024" is a number, never a date. Inference is total: it never panics
// and never returns an error, an unparseable cell simply lands on string.

import (
	"strconv"
	"strings"
	"time"

	"github.com/csvhub/csvhub/internal/document"
)

// minDateLength guards against short numeric-like tokens misparsing as
// dates. Anything this short is never classified as a date.
const minDateLength = 5

// Date layouts tried in order. Unambiguous ISO forms first, then common
// datetime forms, then US/EU slash and dot forms.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"1/2/2006", "01/02/2006",
	"1-2-2006", "01-02-2006",
	"1.2.2006", "01.02.2006",
	"Jan 2, 2006", "2 Jan 2006",
}

// Infer classifies a raw cell string into a tagged value.
//
// The input is trimmed first. An empty trimmed value is Null. A value that
// fully parses as a decimal number (no partial parses) is a Number. A value
// whose lowercase form is exactly "true" or "false" is a Boolean. A value
// that parses as a calendar date or datetime and is longer than five
// characters is a Date. Everything else is a String holding the trimmed
// input.
func Infer(raw string) document.TypedValue {
	s := strings.TrimSpace(raw)
	if s == "" {
		return document.Null()
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return document.Number(f)
	}

	switch strings.ToLower(s) {
	case "true":
		return document.Boolean(true)
	case "false":
		return document.Boolean(false)
	}

	if len(s) > minDateLength {
		if t, ok := parseDate(s); ok {
			return document.Date(t)
		}
	}

	return document.String(s)
}

// parseDate tries the known layouts in order.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
