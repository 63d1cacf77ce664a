package matching

import (
	"encoding/json"
	"math"

	"github.com/spigell/toolmatch/internal/catalog"
)

// ToolMatch is a scored recommendation.
type ToolMatch struct {
	Tool            *catalog.Tool       `json:"tool"`
	Enrichment      *catalog.Enrichment `json:"-"`
	Score           float64             `json:"matchScore"`
	OverallScore    float64             `json:"overallScore"`
	MatchedUseCases []MatchedUseCase    `json:"matchedUseCases"`
	Reasons         []string            `json:"matchReasons"`
	Limitations     []string            `json:"limitations"`
	Confidence      float64             `json:"confidence"`
	Components      Components          `json:"-"`
}

// MarshalJSON reports the compatibility rounded to the nearest integer.
func (m ToolMatch) MarshalJSON() ([]byte, error) {
	type plain ToolMatch
	out := plain(m)
	out.Score = math.Round(out.Score)
	return json.Marshal(out)
}

func (m *ToolMatch) Name() string {
	return m.Tool.Name
}

// Evaluate scores every entry and keeps those reaching MinimumScore. Entries are not modified.
func Evaluate(req *Requirements, entries *catalog.Entries) []*ToolMatch {
	matches := make([]*ToolMatch, 0, entries.Len())
	for _, entry := range entries.Items {
		if entry == nil || entry.Enrichment == nil {
			continue
		}

		assessment := Assess(req, entry.Enrichment)
		if assessment.Score < MinimumScore {
			continue
		}

		limitations := make([]string, len(entry.Enrichment.Limitations))
		copy(limitations, entry.Enrichment.Limitations)

		matches = append(matches, &ToolMatch{
			Tool:            entry.Tool,
			Enrichment:      entry.Enrichment,
			Score:           assessment.Score,
			OverallScore:    entry.Tool.FinalScore,
			MatchedUseCases: assessment.Matched,
			Reasons:         Reasons(req, assessment.Matched, entry.Enrichment),
			Limitations:     limitations,
			Confidence:      assessment.Confidence,
			Components:      assessment.Components,
		})
	}
	return matches
}
