package matching

import (
	"fmt"
	"strings"

	"github.com/spigell/toolmatch/internal/catalog"
)

// Reasons explains a match. Each rule adds at most one line and nothing else is ever added,
// so an empty list is a valid result.
func Reasons(req *Requirements, matched []MatchedUseCase, enrichment *catalog.Enrichment) []string {
	reasons := make([]string, 0, 4)

	var primary []string
	for _, m := range matched {
		if m.Type == catalog.CompatibilityPrimary {
			primary = append(primary, m.UseCase)
		}
	}
	if len(primary) > 0 {
		reasons = append(reasons, "Excellent for: "+strings.Join(primary, ", "))
	}

	if differentiator := strings.TrimSpace(enrichment.BestFor.KeyDifferentiator); differentiator != "" {
		reasons = append(reasons, differentiator)
	}

	if req == nil {
		return reasons
	}

	level := req.Constraints.CodingLevel
	if level != "" && level == enrichment.TechnicalProfile.CodingLevel {
		reasons = append(reasons, fmt.Sprintf("Matches your coding level (%s)", level))
	}

	if req.Constraints.Budget == BudgetFree && enrichment.PricingTier.HasFreeTier {
		reasons = append(reasons, "Free tier available")
	}

	return reasons
}
