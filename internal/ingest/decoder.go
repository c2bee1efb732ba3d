package ingest

// decoder.go turns a byte stream into a lazy sequence of header-keyed rows.
// It wraps encoding/csv rather than reimplementing tokenization; the logic
// here is the tolerant-mode behavior around it: header capture from the
// first line, per-field trimming, blank-line skipping, and absent (not
// empty) treatment of missing trailing fields.

import (
	"encoding/csv"
	"io"
	"strings"
)

// RawRow maps column names to raw cell strings. Ephemeral: produced per
// decoded line and consumed immediately by the pipeline.
type RawRow map[string]string

// Decoder is a single-pass CSV row iterator. It is finite and not
// restartable; open a fresh stream for each decode.
type Decoder struct {
	cr     *csv.Reader
	header []string
	line   int
}

// NewDecoder creates a decoder over r. The first line is the header.
func NewDecoder(r io.Reader) *Decoder {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // rows may be ragged
	cr.ReuseRecord = true
	return &Decoder{cr: cr}
}

// Header returns the column names, reading the header line if it has not
// been read yet.
func (d *Decoder) Header() ([]string, error) {
	if d.header != nil {
		return d.header, nil
	}
	record, err := d.cr.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, &DecodeError{Line: 1, Err: err}
	}
	d.line = 1

	header := make([]string, len(record))
	for i, col := range record {
		header[i] = strings.TrimSpace(col)
	}
	d.header = header
	return d.header, nil
}

// Next returns the next data row. It returns io.EOF at end of stream and a
// *DecodeError on a malformed line; after an error the sequence terminates,
// but rows already emitted stand.
//
// Blank lines are skipped. Fields are trimmed. A row shorter than the
// header leaves the trailing columns absent from the map rather than empty.
func (d *Decoder) Next() (RawRow, error) {
	header, err := d.Header()
	if err != nil {
		return nil, err
	}

	for {
		record, err := d.cr.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, &DecodeError{Line: d.line + 1, Err: err}
		}
		d.line++

		if isBlank(record) {
			continue
		}

		row := make(RawRow, len(header))
		for i, field := range record {
			if i >= len(header) {
				break // extra unnamed trailing fields are dropped
			}
			row[header[i]] = strings.TrimSpace(field)
		}
		return row, nil
	}
}

// Line reports the line number of the most recently decoded record.
func (d *Decoder) Line() int { return d.line }

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
