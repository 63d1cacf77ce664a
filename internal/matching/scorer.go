package matching

import (
	"math"

	"github.com/spigell/toolmatch/internal/catalog"
)

const (
	useCaseWeight    = 60.0
	codingWeight     = 20.0
	budgetWeight     = 10.0
	experienceWeight = 10.0

	// codingDistancePenalty is removed from the coding component per step on the coding scale.
	codingDistancePenalty = 7.0
	// experienceMismatchCredit is awarded when the tool does not declare the requested level.
	experienceMismatchCredit = 5.0

	// MinimumScore is the compatibility a tool needs to be recommended at all.
	MinimumScore = 30.0
)

// MatchedUseCase is a requested use case the tool supports.
type MatchedUseCase struct {
	UseCase  string                    `json:"useCase"`
	Strength float64                   `json:"strength"`
	Type     catalog.CompatibilityType `json:"type"`
}

// Components is the breakdown of a compatibility score.
type Components struct {
	UseCase    float64
	Coding     float64
	Budget     float64
	Experience float64
}

func (c Components) Total() float64 {
	return c.UseCase + c.Coding + c.Budget + c.Experience
}

// Assessment is the outcome of scoring one tool against one set of requirements.
type Assessment struct {
	// Score is the clamped, unrounded total. Rounding happens only when a match is reported.
	Score      float64
	Confidence float64
	Matched    []MatchedUseCase
	Components Components
}

// Assess scores the enrichment against the requirements. It is a pure function of its inputs.
func Assess(req *Requirements, enrichment *catalog.Enrichment) Assessment {
	if req == nil {
		req = &Requirements{}
	}

	useCase, matched := useCaseComponent(req.UseCases, enrichment)
	components := Components{
		UseCase:    useCase,
		Coding:     codingComponent(req.Constraints.CodingLevel, enrichment),
		Budget:     budgetComponent(req.Constraints.Budget, enrichment),
		Experience: experienceComponent(req.Constraints.Experience, enrichment),
	}

	return Assessment{
		Score:      clamp(components.Total(), 0, 100),
		Confidence: confidence(len(matched), req.HasUseCases()),
		Matched:    matched,
		Components: components,
	}
}

// useCaseComponent is the weighted mean strength of the requested use cases the tool knows,
// scaled to useCaseWeight. Requested use cases absent from the tool are ignored.
func useCaseComponent(useCases []string, enrichment *catalog.Enrichment) (float64, []MatchedUseCase) {
	if len(useCases) == 0 {
		return 0, nil
	}

	var (
		weighted float64
		total    float64
		matched  []MatchedUseCase
	)

	for _, uc := range useCases {
		compat, ok := enrichment.Compatibility(uc)
		if !ok {
			continue
		}

		weight := compat.Type.Weight()
		weighted += compat.Strength * weight
		total += weight
		matched = append(matched, MatchedUseCase{UseCase: uc, Strength: compat.Strength, Type: compat.Type})
	}

	if total == 0 {
		return 0, matched
	}

	return (weighted / total) * (useCaseWeight / 100), matched
}

func codingComponent(requested catalog.CodingLevel, enrichment *catalog.Enrichment) float64 {
	if requested == "" {
		return codingWeight
	}

	actual := enrichment.TechnicalProfile.CodingLevel
	if requested == actual {
		return codingWeight
	}

	want, ok := requested.Ordinal()
	if !ok {
		return codingWeight
	}
	have, ok := actual.Ordinal()
	if !ok {
		return 0
	}

	distance := math.Abs(float64(want - have))
	return math.Max(0, codingWeight-codingDistancePenalty*distance)
}

func budgetComponent(requested Budget, enrichment *catalog.Enrichment) float64 {
	if requested != BudgetFree {
		return budgetWeight
	}
	if enrichment.PricingTier.HasFreeTier {
		return budgetWeight
	}
	return 0
}

func experienceComponent(requested catalog.ExperienceLevel, enrichment *catalog.Enrichment) float64 {
	if requested == "" {
		return experienceWeight
	}
	if enrichment.TechnicalProfile.SupportsExperience(requested) {
		return experienceWeight
	}
	return experienceMismatchCredit
}

func confidence(matched int, requested bool) float64 {
	base := 20.0
	if requested {
		base = 40.0
	}
	return math.Min(100, 30*float64(matched)+base)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
