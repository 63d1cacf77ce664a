package matching

import (
	"sort"
	"strings"

	"github.com/spigell/toolmatch/internal/catalog"
)

// Budget is the spending preference of the user.
type Budget string

const (
	BudgetFree Budget = "free"
	BudgetPaid Budget = "paid"
	BudgetAny  Budget = "any"
)

func (b Budget) Valid() bool {
	switch b {
	case BudgetFree, BudgetPaid, BudgetAny:
		return true
	default:
		return false
	}
}

// Constraints are optional preferences. The zero value of each field means no preference.
type Constraints struct {
	CodingLevel catalog.CodingLevel     `json:"codingLevel,omitempty"`
	Budget      Budget                  `json:"budget,omitempty"`
	Experience  catalog.ExperienceLevel `json:"experienceLevel,omitempty"`
}

// Requirements is the normalized request built for one query.
type Requirements struct {
	Raw              string
	UseCases         []string
	Constraints      Constraints
	RequiredFeatures []string
}

// NewRequirements normalizes the intent tags: trimmed, lowercase, deduplicated and sorted.
func NewRequirements(raw string, useCases []string, constraints Constraints, features ...string) *Requirements {
	set := make(map[string]struct{}, len(useCases))
	for _, uc := range useCases {
		uc = strings.ToLower(strings.TrimSpace(uc))
		if uc == "" {
			continue
		}
		set[uc] = struct{}{}
	}

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	var required []string
	for _, f := range features {
		if f = strings.TrimSpace(f); f != "" {
			required = append(required, f)
		}
	}

	return &Requirements{
		Raw:              raw,
		UseCases:         tags,
		Constraints:      constraints,
		RequiredFeatures: required,
	}
}

func (r *Requirements) HasUseCases() bool {
	return r != nil && len(r.UseCases) > 0
}
