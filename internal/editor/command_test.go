package editor

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name    string
		command string
		params  map[string]any
		opts    ParseOptions
		want    Request
	}{
		{
			name:    "view without range",
			command: "view",
			params:  map[string]any{"path": "a.txt"},
			want:    ViewRequest{Path: "a.txt"},
		},
		{
			name:    "view with float range from JSON",
			command: "view",
			params:  map[string]any{"path": "a.txt", "view_range": []any{float64(2), float64(-1)}},
			want:    ViewRequest{Path: "a.txt", Range: &ViewRange{Start: 2, End: -1}},
		},
		{
			name:    "view with json.Number range",
			command: "view",
			params:  map[string]any{"path": "a.txt", "view_range": []any{json.Number("1"), json.Number("3")}},
			want:    ViewRequest{Path: "a.txt", Range: &ViewRange{Start: 1, End: 3}},
		},
		{
			name:    "create allows empty text",
			command: "create",
			params:  map[string]any{"path": "new.txt", "file_text": ""},
			want:    CreateRequest{Path: "new.txt"},
		},
		{
			name:    "str_replace with missing new_str deletes",
			command: "str_replace",
			params:  map[string]any{"path": "a.txt", "old_str": "x"},
			want:    StrReplaceRequest{Path: "a.txt", OldStr: "x"},
		},
		{
			name:    "insert with string line number",
			command: "insert",
			params:  map[string]any{"path": "a.txt", "insert_line": "3", "new_str": "x"},
			want:    InsertRequest{Path: "a.txt", InsertLine: 3, NewStr: "x"},
		},
		{
			name:    "insert without line prepends",
			command: "insert",
			params:  map[string]any{"path": "a.txt", "new_str": "x"},
			want:    InsertRequest{Path: "a.txt", InsertLine: 0, NewStr: "x"},
		},
		{
			name:    "undo",
			command: "undo_edit",
			params:  map[string]any{"path": "a.txt", "ignored": true},
			want:    UndoEditRequest{Path: "a.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRequest(tt.command, tt.params, tt.opts)
			if err != nil {
				t.Fatalf("ParseRequest: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
			if got.Command() != Command(tt.command) {
				t.Errorf("Command() = %q, want %q", got.Command(), tt.command)
			}
		})
	}
}

func TestParseRequest_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		command string
		params  map[string]any
		opts    ParseOptions
		kind    ErrorKind
		message string
	}{
		{"unknown command", "delete", map[string]any{"path": "a"}, ParseOptions{}, KindUnknownCommand, "Error: Unknown command 'delete'"},
		{"empty command", "", nil, ParseOptions{}, KindUnknownCommand, "Error: Unknown command ''"},
		{"missing path", "view", map[string]any{}, ParseOptions{}, KindMalformed, "Error: Invalid parameters for view: path is required"},
		{"path not a string", "view", map[string]any{"path": 7}, ParseOptions{}, KindMalformed, "Error: Invalid parameters for view: path must be a string, got int"},
		{"missing file_text", "create", map[string]any{"path": "a"}, ParseOptions{}, KindMalformed, "Error: Invalid parameters for create: file_text is required"},
		{"empty old_str", "str_replace", map[string]any{"path": "a", "old_str": ""}, ParseOptions{}, KindMalformed, "Error: Invalid parameters for str_replace: old_str must not be empty"},
		{"fractional line", "insert", map[string]any{"path": "a", "insert_line": 1.5, "new_str": "x"}, ParseOptions{}, KindMalformed, "Error: Invalid parameters for insert: insert_line: expected integer, got 1.5"},
		{"line beyond int", "insert", map[string]any{"path": "a", "insert_line": 1e19, "new_str": "x"}, ParseOptions{}, KindMalformed, "Error: Invalid parameters for insert: insert_line: 1e+19 is out of range"},
		{"range beyond int", "view", map[string]any{"path": "a", "view_range": []any{json.Number("1"), json.Number("-1e300")}}, ParseOptions{}, KindMalformed, "Error: Invalid parameters for view: view_range end: -1e+300 is out of range"},
		{"strict insert without line", "insert", map[string]any{"path": "a", "new_str": "x"}, ParseOptions{StrictInsertLine: true}, KindMalformed, "Error: Invalid parameters for insert: insert_line is required"},
		{"insert without text", "insert", map[string]any{"path": "a", "insert_line": 0}, ParseOptions{}, KindMalformed, "Error: Invalid parameters for insert: new_str is required"},
		{"range of one", "view", map[string]any{"path": "a", "view_range": []any{1}}, ParseOptions{}, KindMalformed, "Error: Invalid parameters for view: view_range must have exactly two elements, got 1"},
		{"range not a list", "view", map[string]any{"path": "a", "view_range": "1-3"}, ParseOptions{}, KindMalformed, "Error: Invalid parameters for view: view_range must be a list of two integers, got string"},
		{"range reversed", "view", map[string]any{"path": "a", "view_range": []int{5, 2}}, ParseOptions{}, KindMalformed, "Error: Invalid parameters for view: view_range end must be -1 or >= start, got [5, 2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRequest(tt.command, tt.params, tt.opts)
			expectKind(t, err, tt.kind)
			if err.Error() != tt.message {
				t.Errorf("message = %q, want %q", err.Error(), tt.message)
			}
		})
	}
}
