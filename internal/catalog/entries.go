package catalog

import (
	"encoding/json"
	"os"
	"strings"
)

// Entry pairs a tool with its enrichment. Only tools with an enrichment become entries.
type Entry struct {
	Tool       *Tool
	Enrichment *Enrichment
}

func (e *Entry) Name() string {
	return e.Tool.Name
}

// Entries is the working set of matchable tools.
type Entries struct {
	Items []*Entry
}

// Dataset is what a Source yields for one request.
type Dataset struct {
	Tools       []*Tool
	Enrichments Enrichments
	Rejected    []Rejection
}

// Eligible returns the tools that have an enrichment, in catalog order.
func (d *Dataset) Eligible() *Entries {
	entries := &Entries{Items: make([]*Entry, 0, len(d.Tools))}
	for _, tool := range d.Tools {
		enrichment, ok := d.Enrichments[tool.Name]
		if !ok || enrichment == nil {
			continue
		}
		entries.Items = append(entries.Items, &Entry{Tool: tool, Enrichment: enrichment})
	}
	return entries
}

func (v *Entries) Len() int {
	return len(v.Items)
}

func (v *Entries) Names() []string {
	names := make([]string, 0, len(v.Items))
	for _, entry := range v.Items {
		names = append(names, entry.Name())
	}
	return names
}

// Exclude removes the entries for which drop returns true and returns the removed names.
// Order of the remaining entries is preserved.
func (v *Entries) Exclude(drop func(*Entry) bool) []string {
	var excluded []string
	kept := v.Items[:0]
	for _, entry := range v.Items {
		if drop(entry) {
			excluded = append(excluded, entry.Name())
			continue
		}
		kept = append(kept, entry)
	}
	v.Items = kept
	return excluded
}

// ExcludeByName removes entries whose names match any of the targets, ignoring case.
func (v *Entries) ExcludeByName(targets []string) []string {
	set := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		target = strings.ToLower(strings.TrimSpace(target))
		if target != "" {
			set[target] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}

	return v.Exclude(func(e *Entry) bool {
		_, ok := set[strings.ToLower(e.Name())]
		return ok
	})
}

// DumpToTmpFile writes the value as indented JSON into a new temporary file and returns its name.
func DumpToTmpFile(pattern string, value any) (string, error) {
	file, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return "", err
	}
	return file.Name(), nil
}
