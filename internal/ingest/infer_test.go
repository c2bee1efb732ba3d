package ingest

import (
	"testing"
	"time"

	"github.com/csvhub/csvhub/internal/document"
)

func TestInfer(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantKind  document.Kind
		wantValue any
	}{
		// Null
		{
			name:     "empty string",
			input:    "",
			wantKind: document.KindNull,
		},
		{
			name:     "whitespace only",
			input:    "   \t ",
			wantKind: document.KindNull,
		},

		// Numbers
		{
			name:      "integer",
			input:     "42",
			wantKind:  document.KindNumber,
			wantValue: 42.0,
		},
		{
			name:      "integer with surrounding whitespace",
			input:     " 42 ",
			wantKind:  document.KindNumber,
			wantValue: 42.0,
		},
		{
			name:      "decimal",
			input:     "123.45",
			wantKind:  document.KindNumber,
			wantValue: 123.45,
		},
		{
			name:      "negative",
			input:     "-17.5",
			wantKind:  document.KindNumber,
			wantValue: -17.5,
		},
		{
			name:      "scientific notation",
			input:     "1e6",
			wantKind:  document.KindNumber,
			wantValue: 1e6,
		},
		{
			name:      "partial number stays string",
			input:     "42abc",
			wantKind:  document.KindString,
			wantValue: "42abc",
		},

		// Precedence: numeric wins over date
		{
			name:      "bare year is a number, not a date",
			input:     "2024",
			wantKind:  document.KindNumber,
			wantValue: 2024.0,
		},

		// Booleans
		{
			name:      "lowercase true",
			input:     "true",
			wantKind:  document.KindBoolean,
			wantValue: true,
		},
		{
			name:      "capitalized True",
			input:     "True",
			wantKind:  document.KindBoolean,
			wantValue: true,
		},
		{
			name:      "uppercase FALSE",
			input:     "FALSE",
			wantKind:  document.KindBoolean,
			wantValue: false,
		},
		{
			name:      "yes is not a boolean",
			input:     "yes",
			wantKind:  document.KindString,
			wantValue: "yes",
		},

		// Dates
		{
			name:      "ISO date",
			input:     "2024-03-15",
			wantKind:  document.KindDate,
			wantValue: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "US slash date",
			input:     "3/15/2024",
			wantKind:  document.KindDate,
			wantValue: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "datetime",
			input:     "2024-03-15 10:30:00",
			wantKind:  document.KindDate,
			wantValue: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
		},

		// Strings
		{
			name:      "plain string",
			input:     "not-a-number",
			wantKind:  document.KindString,
			wantValue: "not-a-number",
		},
		{
			name:      "string is trimmed",
			input:     "  hello world  ",
			wantKind:  document.KindString,
			wantValue: "hello world",
		},
		{
			name:      "unparseable date falls through to string",
			input:     "13/45/2024",
			wantKind:  document.KindString,
			wantValue: "13/45/2024",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Infer(tt.input)
			if got.Kind != tt.wantKind {
				t.Fatalf("Infer(%q).Kind = %q, want %q", tt.input, got.Kind, tt.wantKind)
			}
			if tt.wantKind == document.KindNull {
				if got.Value != nil {
					t.Errorf("Infer(%q).Value = %v, want nil", tt.input, got.Value)
				}
				return
			}
			if wantTime, ok := tt.wantValue.(time.Time); ok {
				gotTime, ok := got.Value.(time.Time)
				if !ok || !gotTime.Equal(wantTime) {
					t.Errorf("Infer(%q).Value = %v, want %v", tt.input, got.Value, wantTime)
				}
				return
			}
			if got.Value != tt.wantValue {
				t.Errorf("Infer(%q).Value = %v, want %v", tt.input, got.Value, tt.wantValue)
			}
		})
	}
}

func TestInfer_Deterministic(t *testing.T) {
	inputs := []string{"", "42", "True", "2024-03-15", "hello", "2024", "13/45/2024"}
	for _, in := range inputs {
		first := Infer(in)
		for i := 0; i < 3; i++ {
			if got := Infer(in); got.Kind != first.Kind {
				t.Errorf("Infer(%q) not deterministic: %q then %q", in, first.Kind, got.Kind)
			}
		}
	}
}
