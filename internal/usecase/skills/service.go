// Package skills aggregates skill mentions across experience and projects.
package skills

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/careerdex/internal/domain/collection"
	"github.com/kailas-cloud/careerdex/internal/domain/metadata"
	"github.com/kailas-cloud/careerdex/internal/domain/record"
)

// TopN is the number of skills reported in Analysis.Top.
const TopN = 20

// Categories are the reserved skill buckets. They are reported empty.
var Categories = []string{"technical", "soft", "tools", "languages"}

// source is a collection and the metadata field listing its skills.
type source struct {
	collection string
	field      string
}

var sources = []source{
	{collection.Experience, "skills"},
	{collection.Projects, "technologies"},
}

// SkillCount is one skill and how many records mention it.
type SkillCount struct {
	Skill string
	Count int
}

// Analysis is the aggregated skill report.
type Analysis struct {
	Top              []SkillCount
	TotalUnique      int
	MostUsed         string
	HasSkills        bool
	AverageFrequency float64
}

// Service computes skill analyses.
type Service struct {
	store Store
}

// New creates a skills service.
func New(store Store) *Service {
	return &Service{store: store}
}

// Analyze counts every skill token. Ties in frequency keep first-seen order.
func (s *Service) Analyze(ctx context.Context) (Analysis, error) {
	counts := map[string]int{}
	var order []string

	for _, src := range sources {
		recs, err := s.store.GetAll(ctx, src.collection, record.IncludeMetadata)
		if err != nil {
			return Analysis{}, fmt.Errorf("read %s: %w", src.collection, err)
		}
		for _, r := range recs {
			for _, skill := range metadata.SplitList(r.Metadata.String(src.field)) {
				if _, seen := counts[skill]; !seen {
					order = append(order, skill)
				}
				counts[skill]++
			}
		}
	}

	return summarize(counts, order), nil
}

func summarize(counts map[string]int, order []string) Analysis {
	ranked := make([]SkillCount, len(order))
	total := 0
	for i, skill := range order {
		ranked[i] = SkillCount{Skill: skill, Count: counts[skill]}
		total += counts[skill]
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })

	a := Analysis{TotalUnique: len(order)}
	if len(ranked) > TopN {
		a.Top = ranked[:TopN]
	} else {
		a.Top = ranked
	}
	if len(ranked) > 0 {
		a.MostUsed = ranked[0].Skill
		a.HasSkills = true
		a.AverageFrequency = float64(total) / float64(len(order))
	}
	return a
}
