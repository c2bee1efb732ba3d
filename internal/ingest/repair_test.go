package ingest

import (
	"reflect"
	"testing"
)

func TestRepairList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []map[string]any
	}{
		{
			name:  "python repr list of records",
			input: `[{'job': 'Director', 'name': 'Jane'}]`,
			want:  []map[string]any{{"job": "Director", "name": "Jane"}},
		},
		{
			name:  "python literals",
			input: `[{'name': 'Sam', 'credited': True, 'award': None, 'cameo': False}]`,
			want:  []map[string]any{{"name": "Sam", "credited": true, "award": nil, "cameo": false}},
		},
		{
			name:  "missing brackets are added",
			input: `{'job': 'Producer', 'name': 'Ada'}`,
			want:  []map[string]any{{"job": "Producer", "name": "Ada"}},
		},
		{
			name:  "embedded newlines stripped",
			input: "[{'job':\n 'Editor',\r\n 'name': 'Kim'}]",
			want:  []map[string]any{{"job": "Editor", "name": "Kim"}},
		},
		{
			name:  "multiple entries",
			input: `[{'id': 1, 'name': 'A'}, {'id': 2, 'name': 'B'}]`,
			want: []map[string]any{
				{"id": 1.0, "name": "A"},
				{"id": 2.0, "name": "B"},
			},
		},
		{
			name:  "garbage degrades to empty list",
			input: "garbage{{{",
			want:  []map[string]any{},
		},
		{
			name:  "empty string degrades to empty list",
			input: "",
			want:  []map[string]any{},
		},
		{
			name:  "non-object elements degrade to empty list",
			input: `[1, 2, 3]`,
			want:  []map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RepairList(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RepairList(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRepairList_NeverPanics(t *testing.T) {
	inputs := []string{
		"", "[", "]", "[[", "{'a':}", "'''", `[{"a": }]`, "None True False",
	}
	for _, in := range inputs {
		got := RepairList(in)
		if got == nil {
			t.Errorf("RepairList(%q) returned nil, want empty slice", in)
		}
	}
}
