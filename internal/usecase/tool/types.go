package tool

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/kailas-cloud/careerdex/internal/domain/metadata"
	"github.com/kailas-cloud/careerdex/internal/domain/search/result"
	"github.com/kailas-cloud/careerdex/internal/usecase/skills"
)

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SearchInput is the search_experience body. Nil fields take defaults.
type SearchInput struct {
	Query               string         `json:"query"`
	TopK                *int           `json:"top_k,omitempty"`
	Filters             map[string]any `json:"filters,omitempty"`
	Collection          *string        `json:"collection,omitempty"`
	IncludeMetadata     *bool          `json:"include_metadata,omitempty"`
	SimilarityThreshold *float64       `json:"similarity_threshold,omitempty"`
}

// IndexInput is the index_documents body.
type IndexInput struct {
	Documents    []string            `json:"documents"`
	Metadata     []metadata.Metadata `json:"metadata,omitempty"`
	Collection   *string             `json:"collection,omitempty"`
	ChunkSize    *int                `json:"chunk_size,omitempty"`
	ChunkOverlap *int                `json:"chunk_overlap,omitempty"`
}

// SimilarInput is the get_similar_projects body.
type SimilarInput struct {
	ProjectName string `json:"project_name"`
	TopK        *int   `json:"top_k,omitempty"`
}

// ResultView is one result in a response. Metadata is omitted when stripped.
type ResultView struct {
	ID         string            `json:"id"`
	Document   string            `json:"document"`
	Metadata   metadata.Metadata `json:"metadata,omitzero"`
	Similarity float64           `json:"similarity"`
}

func views(rs []result.Result) []ResultView {
	out := make([]ResultView, len(rs))
	for i, r := range rs {
		out[i] = ResultView{ID: r.ID(), Document: r.Document(), Metadata: r.Metadata(), Similarity: r.Similarity()}
	}
	return out
}

// SearchResponse is the search_experience envelope. Errors still carry an empty results list.
type SearchResponse struct {
	Status       string       `json:"status"`
	Message      string       `json:"message,omitempty"`
	Query        string       `json:"query,omitempty"`
	Collection   string       `json:"collection,omitempty"`
	TotalResults *int         `json:"total_results,omitempty"`
	Results      []ResultView `json:"results"`
}

// IndexResponse is the index_documents envelope.
type IndexResponse struct {
	Status            string `json:"status"`
	Message           string `json:"message"`
	Collection        string `json:"collection,omitempty"`
	OriginalDocuments *int   `json:"original_documents,omitempty"`
	ChunksCreated     *int   `json:"chunks_created,omitempty"`
}

// SimilarResponse is the get_similar_projects envelope.
type SimilarResponse struct {
	Status          string
	Message         string
	OriginalProject string
	SimilarProjects []ResultView
}

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// MarshalJSON emits either the success fields or {status, message}.
func (r SimilarResponse) MarshalJSON() ([]byte, error) {
	if r.Status == StatusError {
		return json.Marshal(errorBody{r.Status, r.Message})
	}
	projects := r.SimilarProjects
	if projects == nil {
		projects = []ResultView{}
	}
	return json.Marshal(struct {
		Status          string       `json:"status"`
		OriginalProject string       `json:"original_project"`
		SimilarProjects []ResultView `json:"similar_projects"`
	}{r.Status, r.OriginalProject, projects})
}

// SkillAnalysisView is the analysis block of a skills report.
type SkillAnalysisView struct {
	MostUsed              *string `json:"most_used"`
	SkillDiversity        int     `json:"skill_diversity"`
	AverageSkillFrequency float64 `json:"average_skill_frequency"`
}

// SkillsResponse is the analyze_skills envelope.
type SkillsResponse struct {
	Status            string
	Message           string
	TotalUniqueSkills int
	TopSkills         RankedCounts
	SkillCategories   map[string][]string
	Analysis          SkillAnalysisView
}

// MarshalJSON emits either the report or {status, message}.
func (r SkillsResponse) MarshalJSON() ([]byte, error) {
	if r.Status == StatusError {
		return json.Marshal(errorBody{r.Status, r.Message})
	}
	return json.Marshal(struct {
		Status            string              `json:"status"`
		TotalUniqueSkills int                 `json:"total_unique_skills"`
		TopSkills         RankedCounts        `json:"top_skills"`
		SkillCategories   map[string][]string `json:"skill_categories"`
		Analysis          SkillAnalysisView   `json:"analysis"`
	}{r.Status, r.TotalUniqueSkills, r.TopSkills, r.SkillCategories, r.Analysis})
}

// RankedCounts marshals as a JSON object whose keys keep slice order.
type RankedCounts []skills.SkillCount

// MarshalJSON writes {"skill": count, ...} in rank order.
func (rc RankedCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sc := range rc {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(sc.Skill)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(sc.Count))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
