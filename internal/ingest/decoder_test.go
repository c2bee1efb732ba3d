package ingest

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func collectRows(t *testing.T, d *Decoder) ([]RawRow, error) {
	t.Helper()
	var rows []RawRow
	for {
		row, err := d.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
}

func TestDecoder_Basic(t *testing.T) {
	d := NewDecoder(strings.NewReader("name,age,city\nAlice,30,Oslo\nBob,25,Lima\n"))

	header, err := d.Header()
	if err != nil {
		t.Fatalf("Header() error = %v", err)
	}
	if len(header) != 3 || header[0] != "name" || header[2] != "city" {
		t.Fatalf("Header() = %v", header)
	}

	rows, err := collectRows(t, d)
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0]["name"] != "Alice" || rows[0]["age"] != "30" {
		t.Errorf("row 0 = %v", rows[0])
	}
	if rows[1]["city"] != "Lima" {
		t.Errorf("row 1 = %v", rows[1])
	}
}

func TestDecoder_SkipsBlankLines(t *testing.T) {
	in := "a,b\n1,2\n\n,,\n   ,  \n3,4\n"
	d := NewDecoder(strings.NewReader(in))
	rows, err := collectRows(t, d)
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (blank lines skipped)", len(rows))
	}
}

func TestDecoder_ShortRowLeavesFieldsAbsent(t *testing.T) {
	d := NewDecoder(strings.NewReader("a,b,c\n1,2\n"))
	rows, err := collectRows(t, d)
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if _, present := rows[0]["c"]; present {
		t.Errorf("missing trailing field should be absent, got %q", rows[0]["c"])
	}
	if rows[0]["a"] != "1" || rows[0]["b"] != "2" {
		t.Errorf("row = %v", rows[0])
	}
}

func TestDecoder_TrimsFields(t *testing.T) {
	d := NewDecoder(strings.NewReader(" a , b \n 1 , 2 \n"))
	rows, err := collectRows(t, d)
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if rows[0]["a"] != "1" || rows[0]["b"] != "2" {
		t.Errorf("fields not trimmed: %v", rows[0])
	}
}

func TestDecoder_QuotedCommas(t *testing.T) {
	d := NewDecoder(strings.NewReader("name,title\n\"Doe, Jane\",Director\n"))
	rows, err := collectRows(t, d)
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if rows[0]["name"] != "Doe, Jane" {
		t.Errorf("quoted comma mishandled: %v", rows[0])
	}
}

func TestDecoder_MalformedLinePreservesPriorRows(t *testing.T) {
	// Row 3 has a bare quote inside an unquoted field.
	in := "a,b\n1,2\n3,4\n5,\"6\"x\n7,8\n"
	d := NewDecoder(strings.NewReader(in))
	rows, err := collectRows(t, d)

	if err == nil {
		t.Fatal("want decode error for malformed line, got nil")
	}
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("error = %T(%v), want *DecodeError", err, err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows before error, want 2 preserved", len(rows))
	}
}

func TestDecoder_EmptyStream(t *testing.T) {
	d := NewDecoder(strings.NewReader(""))
	if _, err := d.Next(); err != io.EOF {
		t.Errorf("Next() on empty stream = %v, want io.EOF", err)
	}
}
