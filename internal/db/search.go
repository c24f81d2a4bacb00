package db

import "github.com/kailas-cloud/careerdex/internal/domain/search/filter"

// KNNQuery is the input for a vector similarity search.
type KNNQuery struct {
	IndexName    string
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is one hit. Distance is the raw __vector_score reported by the server.
type SearchEntry struct {
	Key      string
	Distance float64
	Fields   map[string]string
}
