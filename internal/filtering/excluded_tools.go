package filtering

import (
	"context"
	"strings"

	"github.com/spigell/toolmatch/internal/catalog"
)

type excludedToolsFilter struct {
	tools []string
}

// NewExcludedTools creates a filter that removes the named tools. Names are matched ignoring case.
func NewExcludedTools(tools []string) Filter {
	return &excludedToolsFilter{
		tools: tools,
	}
}

func (f *excludedToolsFilter) Name() string { return "exclude_tools" }

func (f *excludedToolsFilter) IsEnabled() bool { return true }

func (f *excludedToolsFilter) Validate() error { return nil }

func (f *excludedToolsFilter) Apply(_ context.Context, v *catalog.Entries) (*catalog.Entries, Step, error) {
	initial := v.Len()
	if len(f.tools) == 0 {
		return v, Step{Initial: initial, Dropped: 0, Left: v.Len()}, nil
	}

	excluded := v.ExcludeByName(f.tools)

	return v, Step{Initial: initial, Dropped: len(excluded), Left: v.Len()}, nil
}

func (f *excludedToolsFilter) Status() Status {
	details := map[string]string{}
	if len(f.tools) > 0 {
		details["tools"] = strings.Join(f.tools, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
