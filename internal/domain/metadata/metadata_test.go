package metadata

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/kailas-cloud/careerdex/internal/domain"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		md      Metadata
		wantErr bool
	}{
		{"nil", nil, false},
		{"scalars", Metadata{"company": "Acme", "years": 3, "remote": true, "score": 0.5}, false},
		{"list value", Metadata{"skills": []string{"go"}}, true},
		{"map value", Metadata{"nested": map[string]any{"a": 1}}, true},
		{"nil value", Metadata{"company": nil}, true},
		{"reserved key", Metadata{"__vector": "x"}, true},
		{"empty key", Metadata{"": "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.md.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidMetadata) {
				t.Errorf("expected ErrInvalidMetadata, got %v", err)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"Acme", "Acme"},
		{true, "true"},
		{5, "5"},
		{int64(-7), "-7"},
		{uint8(3), "3"},
		{5.0, "5"},
		{0.5, "0.5"},
		{float32(1.25), "1.25"},
		{json.Number("10"), "10"},
		{json.Number("2.50"), "2.5"},
	}
	for _, tt := range tests {
		got, ok := Format(tt.in)
		if !ok {
			t.Errorf("Format(%v) not ok", tt.in)
			continue
		}
		if got != tt.want {
			t.Errorf("Format(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, ok := Format([]int{1}); ok {
		t.Error("Format(list) should fail")
	}
}

func TestJoinSplitList(t *testing.T) {
	joined := JoinList([]string{"Python", "Go", "SQL"})
	if joined != "Python, Go, SQL" {
		t.Fatalf("JoinList = %q", joined)
	}
	got := SplitList(joined)
	if len(got) != 3 || got[0] != "Python" || got[2] != "SQL" {
		t.Errorf("SplitList = %v", got)
	}
	if SplitList("") != nil {
		t.Error("SplitList(\"\") should be nil")
	}
	if got := SplitList("Go, , Rust "); len(got) != 2 || got[1] != "Rust" {
		t.Errorf("SplitList with blanks = %v", got)
	}
}

func TestString(t *testing.T) {
	md := Metadata{"chunk_index": 2, "type": "project"}
	if md.String("chunk_index") != "2" {
		t.Errorf("String(chunk_index) = %q", md.String("chunk_index"))
	}
	if md.String("missing") != "" {
		t.Error("missing key should be empty")
	}
}

func TestClone(t *testing.T) {
	md := Metadata{"a": "1"}
	c := md.Clone()
	c["b"] = 2
	if _, ok := md["b"]; ok {
		t.Error("Clone shares storage with original")
	}
}
