// Package lexicon turns free text into intent tags with a fixed phrase table.
//
// A Lexicon is immutable once built. It is constructed from an explicit table (New),
// a YAML file (Load), or the embedded default table (Default) and passed to its users,
// so alternate taxonomies can be swapped in without touching global state.
package lexicon

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// DefaultMinLength is the shortest text, in runes, that is scanned at all.
const DefaultMinLength = 4

//go:embed lexicon.yaml
var defaultTable []byte

// Entry maps a lowercase phrase to the tags it signals.
type Entry struct {
	Phrase string   `yaml:"phrase"`
	Tags   []string `yaml:"tags"`
}

// Table is the serialized form of a lexicon.
type Table struct {
	MinLength int               `yaml:"min_length"`
	Taxonomy  map[string]string `yaml:"taxonomy"`
	Keywords  []Entry           `yaml:"keywords"`
}

// Tag is a taxonomy entry.
type Tag struct {
	ID          string
	Description string
}

type Lexicon struct {
	minLength int
	entries   []Entry
	taxonomy  []Tag
}

// New validates the table and builds an immutable lexicon from a copy of it.
func New(table Table) (*Lexicon, error) {
	minLength := table.MinLength
	if minLength <= 0 {
		minLength = DefaultMinLength
	}

	taxonomy := make([]Tag, 0, len(table.Taxonomy))
	known := make(map[string]struct{}, len(table.Taxonomy))
	for id, description := range table.Taxonomy {
		id = normalizeTag(id)
		if id == "" {
			return nil, errors.New("taxonomy contains an empty tag")
		}
		known[id] = struct{}{}
		taxonomy = append(taxonomy, Tag{ID: id, Description: strings.TrimSpace(description)})
	}
	sort.Slice(taxonomy, func(i, j int) bool { return taxonomy[i].ID < taxonomy[j].ID })

	if len(table.Keywords) == 0 {
		return nil, errors.New("lexicon has no keywords")
	}

	entries := make([]Entry, 0, len(table.Keywords))
	for i, kw := range table.Keywords {
		phrase := strings.ToLower(strings.TrimSpace(kw.Phrase))
		if phrase == "" {
			return nil, fmt.Errorf("keyword %d: empty phrase", i)
		}
		if len(kw.Tags) == 0 {
			return nil, fmt.Errorf("keyword %q: no tags", phrase)
		}

		tags := make([]string, 0, len(kw.Tags))
		for _, tag := range kw.Tags {
			tag = normalizeTag(tag)
			if _, ok := known[tag]; !ok {
				return nil, fmt.Errorf("keyword %q: tag %q is not in the taxonomy", phrase, tag)
			}
			tags = append(tags, tag)
		}

		entries = append(entries, Entry{Phrase: phrase, Tags: tags})
	}

	return &Lexicon{minLength: minLength, entries: entries, taxonomy: taxonomy}, nil
}

// Parse builds a lexicon from a YAML document.
func Parse(data []byte) (*Lexicon, error) {
	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	return New(table)
}

// Load reads a YAML lexicon from path.
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon file: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in lexicon.
func Default() *Lexicon {
	l, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("built-in lexicon is invalid: %v", err))
	}
	return l
}

// WithMinLength returns a copy using another minimum text length.
func (l *Lexicon) WithMinLength(n int) *Lexicon {
	if n <= 0 {
		n = DefaultMinLength
	}
	clone := *l
	clone.minLength = n
	return &clone
}

func (l *Lexicon) MinLength() int {
	return l.minLength
}

// Extract returns the sorted set of tags whose phrases occur in text, case-insensitively.
// Every matching entry contributes. Text shorter than the minimum length yields no tags.
func (l *Lexicon) Extract(text string) []string {
	text = strings.ToLower(strings.TrimSpace(text))
	if utf8.RuneCountInString(text) < l.minLength {
		return []string{}
	}

	set := make(map[string]struct{})
	for _, entry := range l.entries {
		if !strings.Contains(text, entry.Phrase) {
			continue
		}
		for _, tag := range entry.Tags {
			set[tag] = struct{}{}
		}
	}

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	return tags
}

// Taxonomy returns the known tags with their descriptions, sorted by id.
func (l *Lexicon) Taxonomy() []Tag {
	out := make([]Tag, len(l.taxonomy))
	copy(out, l.taxonomy)
	return out
}

// Known reports whether the tag belongs to the taxonomy.
func (l *Lexicon) Known(tag string) bool {
	tag = normalizeTag(tag)
	for _, t := range l.taxonomy {
		if t.ID == tag {
			return true
		}
	}
	return false
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
