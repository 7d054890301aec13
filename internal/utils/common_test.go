package utils

import (
	"reflect"
	"testing"
)

func TestSplitKeyValue(t *testing.T) {
	tests := []struct {
		in        string
		wantKey   string
		wantValue string
		wantErr   bool
	}{
		{"event_date=2024-06-01", "event_date", "2024-06-01", false},
		{" kickoff = 2024-01-15 ", "kickoff", "2024-01-15", false},
		{"a=b=c", "a", "b=c", false},
		{"noequals", "", "", true},
		{"=value", "", "", true},
		{"key=", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		key, value, err := SplitKeyValue(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("SplitKeyValue(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("SplitKeyValue(%q): %v", tt.in, err)
			continue
		}
		if key != tt.wantKey || value != tt.wantValue {
			t.Errorf("SplitKeyValue(%q) = %q,%q, want %q,%q", tt.in, key, value, tt.wantKey, tt.wantValue)
		}
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		in   string
		sep  string
		want []string
	}{
		{"a, b, c", ",", []string{"a", "b", "c"}},
		{"a,,c", ",", []string{"a", "c"}},
		{"  ", ",", []string{}},
		{"one", ",", []string{"one"}},
	}

	for _, tt := range tests {
		if got := SplitAndTrim(tt.in, tt.sep); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitAndTrim(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestJSONPointerToPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"#/templates/0/id", "templates[0].id"},
		{"/templates/3/offset_rule/anchor_name", "templates[3].offset_rule.anchor_name"},
		{"#", ""},
		{"", ""},
		{"#/schema_version", "schema_version"},
	}

	for _, tt := range tests {
		if got := JSONPointerToPath(tt.in); got != tt.want {
			t.Errorf("JSONPointerToPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeAgentName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Claude", "claude"},
		{"  CODEX  ", "codex"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeAgentName(tt.in); got != tt.want {
			t.Errorf("NormalizeAgentName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
