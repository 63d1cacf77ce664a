package filtering

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/toolmatch/internal/catalog"
)

// MinimumUseCaseStrength is the strength a requested use case needs to keep a tool in the AI path.
const MinimumUseCaseStrength = 30.0

type useCaseFilter struct {
	disabled    bool
	reason      string
	useCases    []string
	minStrength float64
}

// NewUseCaseIntersection creates a filter that keeps only tools supporting at least one requested
// use case with a strength of at least minStrength. It is disabled when nothing was requested.
func NewUseCaseIntersection(useCases []string, minStrength float64) Filter {
	f := &useCaseFilter{useCases: useCases, minStrength: minStrength}
	if len(useCases) == 0 {
		f.disable("no use cases requested")
	}
	return f
}

func (f *useCaseFilter) Name() string { return "use_case_intersection" }

func (f *useCaseFilter) disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *useCaseFilter) IsEnabled() bool { return !f.disabled }

func (f *useCaseFilter) Validate() error {
	if f.minStrength < 0 || f.minStrength > 100 {
		return fmt.Errorf("minimum strength must be within 0..100, got %v", f.minStrength)
	}
	return nil
}

func (f *useCaseFilter) Apply(_ context.Context, v *catalog.Entries) (*catalog.Entries, Step, error) {
	initial := v.Len()

	excluded := v.Exclude(func(e *catalog.Entry) bool {
		for _, uc := range f.useCases {
			compat, ok := e.Enrichment.Compatibility(uc)
			if ok && compat.Strength >= f.minStrength {
				return false
			}
		}
		return true
	})

	return v, Step{Initial: initial, Dropped: len(excluded), Left: v.Len()}, nil
}

func (f *useCaseFilter) Status() Status {
	details := map[string]string{
		"min_strength": strconv.FormatFloat(f.minStrength, 'f', -1, 64),
	}
	if len(f.useCases) > 0 {
		details["use_cases"] = strings.Join(f.useCases, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
