package ai

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/toolmatch/internal/catalog"
	"github.com/spigell/toolmatch/internal/matching"
)

// anyValue is accepted for coding and experience levels and means no preference.
const anyValue = "any"

type rawConstraints struct {
	CodingLevel     *string `mapstructure:"codingLevel"`
	Budget          *string `mapstructure:"budget"`
	ExperienceLevel *string `mapstructure:"experienceLevel"`
}

type rawCriteria struct {
	UseCases         []string        `mapstructure:"useCases"`
	ExcludeTools     []string        `mapstructure:"excludeTools"`
	RequiredFeatures []string        `mapstructure:"requiredFeatures"`
	Constraints      *rawConstraints `mapstructure:"constraints"`
	Reasoning        string          `mapstructure:"reasoning"`
}

func parseResponse(raw string) (*Criteria, *Failure) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return nil, malformed("empty response")
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, malformed("parse response: %w", err)
	}
	if data == nil {
		return nil, malformed("response is not an object")
	}

	useCases, ok := data["useCases"]
	if !ok || useCases == nil {
		return nil, malformed("useCases is missing")
	}
	if _, ok := useCases.([]any); !ok {
		return nil, malformed("useCases must be a list, got %T", useCases)
	}

	var decoded rawCriteria
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &decoded,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, malformed("create decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return nil, malformed("decode response: %w", err)
	}

	constraints, failure := convertConstraints(decoded.Constraints)
	if failure != nil {
		return nil, failure
	}

	return &Criteria{
		UseCases:         decoded.UseCases,
		ExcludeTools:     trimAll(decoded.ExcludeTools),
		RequiredFeatures: trimAll(decoded.RequiredFeatures),
		Constraints:      constraints,
		Reasoning:        strings.TrimSpace(decoded.Reasoning),
	}, nil
}

func convertConstraints(raw *rawConstraints) (matching.Constraints, *Failure) {
	var c matching.Constraints
	if raw == nil {
		return c, nil
	}

	if v := normalize(raw.CodingLevel); v != "" && v != anyValue {
		level := catalog.CodingLevel(v)
		if !level.Valid() {
			return c, malformed("unknown coding level %q", v)
		}
		c.CodingLevel = level
	}

	if v := normalize(raw.Budget); v != "" {
		budget := matching.Budget(v)
		if !budget.Valid() {
			return c, malformed("unknown budget %q", v)
		}
		c.Budget = budget
	}

	if v := normalize(raw.ExperienceLevel); v != "" && v != anyValue {
		level := catalog.ExperienceLevel(v)
		if !level.Valid() {
			return c, malformed("unknown experience level %q", v)
		}
		c.Experience = level
	}

	return c, nil
}

// extractJSON strips a surrounding markdown code fence, with or without a language tag.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```")
		// Language tag, on its own line or followed by the payload.
		raw = strings.TrimLeftFunc(raw, func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r)
		})
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func normalize(v *string) string {
	if v == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*v))
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
