package filtering

import (
	"context"
	"fmt"

	"github.com/spigell/toolmatch/internal/catalog"
)

type codingLevelFilter struct {
	disabled bool
	reason   string
	level    catalog.CodingLevel
}

// NewCodingLevel creates a filter that removes tools clearly outside the requested coding level.
// A no-code request drops developer and expert tools, an expert request drops no-code tools.
// Other levels are left to the scorer.
func NewCodingLevel(level catalog.CodingLevel) Filter {
	f := &codingLevelFilter{level: level}
	if level == "" {
		f.disable("no coding level requested")
	}
	return f
}

func (f *codingLevelFilter) Name() string { return "coding_level" }

func (f *codingLevelFilter) disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *codingLevelFilter) IsEnabled() bool { return !f.disabled }

func (f *codingLevelFilter) Validate() error {
	if !f.level.Valid() {
		return fmt.Errorf("unknown coding level %q", f.level)
	}
	return nil
}

func (f *codingLevelFilter) Apply(_ context.Context, v *catalog.Entries) (*catalog.Entries, Step, error) {
	initial := v.Len()

	var drop func(catalog.CodingLevel) bool
	switch f.level {
	case catalog.CodingNoCode:
		drop = func(l catalog.CodingLevel) bool {
			return l == catalog.CodingDeveloper || l == catalog.CodingExpert
		}
	case catalog.CodingExpert:
		drop = func(l catalog.CodingLevel) bool {
			return l == catalog.CodingNoCode
		}
	default:
		return v, Step{Initial: initial, Dropped: 0, Left: v.Len()}, nil
	}

	excluded := v.Exclude(func(e *catalog.Entry) bool {
		return drop(e.Enrichment.TechnicalProfile.CodingLevel)
	})

	return v, Step{Initial: initial, Dropped: len(excluded), Left: v.Len()}, nil
}

func (f *codingLevelFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"level": string(f.level)},
	}
}
