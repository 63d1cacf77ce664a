package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CodingLevel is the amount of programming a tool expects from its user.
type CodingLevel string

const (
	CodingNoCode    CodingLevel = "no-code"
	CodingLowCode   CodingLevel = "low-code"
	CodingDeveloper CodingLevel = "developer"
	CodingExpert    CodingLevel = "expert"
)

var codingLevelOrder = map[CodingLevel]int{
	CodingNoCode:    0,
	CodingLowCode:   1,
	CodingDeveloper: 2,
	CodingExpert:    3,
}

// Ordinal returns the position of the level on the no-code..expert scale.
func (l CodingLevel) Ordinal() (int, bool) {
	idx, ok := codingLevelOrder[l]
	return idx, ok
}

func (l CodingLevel) Valid() bool {
	_, ok := codingLevelOrder[l]
	return ok
}

// ExperienceLevel labels the users a tool is suitable for.
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceExpert       ExperienceLevel = "expert"
)

func (l ExperienceLevel) Valid() bool {
	switch l {
	case ExperienceBeginner, ExperienceIntermediate, ExperienceExpert:
		return true
	default:
		return false
	}
}

// CompatibilityType tells whether a use case is a primary or a secondary fit for a tool.
type CompatibilityType string

const (
	CompatibilityPrimary   CompatibilityType = "primary"
	CompatibilitySecondary CompatibilityType = "secondary"
)

// Weight is the multiplier applied to the strength of a matched use case.
func (t CompatibilityType) Weight() float64 {
	if t == CompatibilityPrimary {
		return 1.0
	}
	return 0.5
}

type UseCaseCompatibility struct {
	Strength    float64           `json:"strength" validate:"gte=0,lte=100"`
	Type        CompatibilityType `json:"type" validate:"required,oneof=primary secondary"`
	Notes       string            `json:"notes,omitempty"`
	Limitations []string          `json:"limitations,omitempty"`
}

type TechnicalProfile struct {
	CodingLevel   CodingLevel       `json:"coding_level" validate:"required,oneof=no-code low-code developer expert"`
	UserLevels    []ExperienceLevel `json:"user_levels,omitempty" validate:"dive,oneof=beginner intermediate expert"`
	Platform      string            `json:"platform,omitempty"`
	Integrations  []string          `json:"integrations,omitempty"`
	LearningCurve string            `json:"learning_curve,omitempty" validate:"omitempty,oneof=easy moderate steep"`
}

// SupportsExperience reports whether the tool declares the given user level.
func (p TechnicalProfile) SupportsExperience(level ExperienceLevel) bool {
	for _, l := range p.UserLevels {
		if l == level {
			return true
		}
	}
	return false
}

type BestFor struct {
	Primary           string `json:"primary,omitempty"`
	IdealUser         string `json:"ideal_user,omitempty"`
	KeyDifferentiator string `json:"key_differentiator,omitempty"`
}

type PricingTier struct {
	HasFreeTier         bool   `json:"has_free_tier"`
	FreeTierLimits      string `json:"free_tier_limits,omitempty"`
	RecommendedTier     string `json:"recommended_tier,omitempty"`
	EnterpriseAvailable bool   `json:"enterprise_available"`
}

type EnrichmentMeta struct {
	Source           string `json:"source,omitempty"`
	Model            string `json:"model,omitempty"`
	Date             string `json:"date,omitempty"`
	Version          string `json:"version,omitempty"`
	ManuallyReviewed bool   `json:"manually_reviewed,omitempty"`
}

// Enrichment is the extended capability profile of a tool.
type Enrichment struct {
	UseCaseCompatibility map[string]UseCaseCompatibility `json:"use_case_compatibility" validate:"dive"`
	TechnicalProfile     TechnicalProfile                `json:"technical_profile"`
	BestFor              BestFor                         `json:"best_for"`
	Limitations          []string                        `json:"limitations,omitempty"`
	PricingTier          PricingTier                     `json:"pricing_tier"`
	Meta                 *EnrichmentMeta                 `json:"enrichment_meta,omitempty"`
}

// Compatibility returns the compatibility entry of the use case. Absent use cases mean zero compatibility.
func (e *Enrichment) Compatibility(useCase string) (UseCaseCompatibility, bool) {
	if e == nil {
		return UseCaseCompatibility{}, false
	}
	c, ok := e.UseCaseCompatibility[useCase]
	return c, ok
}

// Enrichments maps a tool name to its enrichment.
type Enrichments map[string]*Enrichment

// Rejection describes an enrichment record dropped during validation.
type Rejection struct {
	Tool   string
	Reason string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the record. Use-case keys must be non-empty, trimmed and lowercase.
func (e *Enrichment) Validate() error {
	if e == nil {
		return errors.New("enrichment is null")
	}

	for key := range e.UseCaseCompatibility {
		if strings.TrimSpace(key) == "" || strings.TrimSpace(key) != key || strings.ToLower(key) != key {
			return fmt.Errorf("invalid use case key %q", key)
		}
	}

	if err := validate.Struct(e); err != nil {
		return err
	}

	return nil
}

// DecodeEnrichments parses the enrichment mapping. Malformed records are not fatal: they are
// returned as rejections and left out of the result.
func DecodeEnrichments(data []byte) (Enrichments, []Rejection, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode enrichment document: %w", err)
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make(Enrichments, len(raw))
	var rejected []Rejection
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			rejected = append(rejected, Rejection{Tool: name, Reason: "empty tool name"})
			continue
		}

		var e *Enrichment
		if err := json.Unmarshal(raw[name], &e); err != nil {
			rejected = append(rejected, Rejection{Tool: trimmed, Reason: err.Error()})
			continue
		}

		if err := e.normalizeUseCases(); err != nil {
			rejected = append(rejected, Rejection{Tool: trimmed, Reason: err.Error()})
			continue
		}

		if err := e.Validate(); err != nil {
			rejected = append(rejected, Rejection{Tool: trimmed, Reason: err.Error()})
			continue
		}

		result[trimmed] = e
	}

	return result, rejected, nil
}

// normalizeUseCases lowercases use-case keys so they compare with requested tags.
// Keys that collide once lowercased make the record ambiguous.
func (e *Enrichment) normalizeUseCases() error {
	if e == nil || len(e.UseCaseCompatibility) == 0 {
		return nil
	}

	normalized := make(map[string]UseCaseCompatibility, len(e.UseCaseCompatibility))
	for key, compat := range e.UseCaseCompatibility {
		lower := strings.ToLower(key)
		if _, ok := normalized[lower]; ok {
			return fmt.Errorf("duplicate use case key %q", lower)
		}
		normalized[lower] = compat
	}
	e.UseCaseCompatibility = normalized

	return nil
}
