package record

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/careerdex/internal/domain"
	"github.com/kailas-cloud/careerdex/internal/domain/metadata"
)

func TestZip(t *testing.T) {
	recs, err := Zip(
		[]string{"a", "b"},
		[]string{"doc a", "doc b"},
		[][]float32{{1, 0}, {0, 1}},
		[]metadata.Metadata{{"type": "project"}, nil},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 || recs[1].Document != "doc b" || recs[0].Metadata["type"] != "project" {
		t.Errorf("unexpected records %+v", recs)
	}
}

func TestZip_NilMetadata(t *testing.T) {
	recs, err := Zip([]string{"a"}, []string{"doc"}, [][]float32{{1}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recs[0].Metadata != nil {
		t.Errorf("expected nil metadata, got %v", recs[0].Metadata)
	}
}

func TestZip_Errors(t *testing.T) {
	tests := []struct {
		name  string
		ids   []string
		docs  []string
		embs  [][]float32
		metas []metadata.Metadata
		want  error
	}{
		{"docs short", []string{"a", "b"}, []string{"x"}, [][]float32{{1}, {1}}, nil, domain.ErrLengthMismatch},
		{"metas short", []string{"a"}, []string{"x"}, [][]float32{{1}}, []metadata.Metadata{}, domain.ErrLengthMismatch},
		{"duplicate", []string{"a", "a"}, []string{"x", "y"}, [][]float32{{1}, {1}}, nil, domain.ErrDuplicateID},
		{"bad metadata", []string{"a"}, []string{"x"}, [][]float32{{1}},
			[]metadata.Metadata{{"skills": []string{"go"}}}, domain.ErrInvalidMetadata},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Zip(tt.ids, tt.docs, tt.embs, tt.metas)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCheckDim(t *testing.T) {
	recs := []Record{{ID: "a", Embedding: []float32{1, 2}}, {ID: "b", Embedding: []float32{1}}}
	if err := CheckDim(recs[:1], 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckDim(recs, 2); !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestInclude_Apply(t *testing.T) {
	r := Record{ID: "a", Document: "d", Embedding: []float32{1}, Metadata: metadata.Metadata{"k": "v"}}

	got := IncludeMetadata.Apply(r)
	if got.ID != "a" || got.Document != "" || got.Embedding != nil || got.Metadata["k"] != "v" {
		t.Errorf("IncludeMetadata.Apply = %+v", got)
	}
	if all := IncludeAll.Apply(r); all.Document != "d" || len(all.Embedding) != 1 {
		t.Errorf("IncludeAll.Apply = %+v", all)
	}
}

func TestMatch_Similarity(t *testing.T) {
	m := Match{Distance: 0.25}
	if m.Similarity() != 0.75 {
		t.Errorf("Similarity() = %v", m.Similarity())
	}
}
