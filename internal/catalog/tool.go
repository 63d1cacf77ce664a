package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Tool is a single catalog listing.
type Tool struct {
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	FinalScore  float64 `json:"final_score"`
	Quadrant    string  `json:"quadrant,omitempty"`
	Pricing     string  `json:"pricing,omitempty"`
	URL         string  `json:"url,omitempty"`
}

type catalogDocument struct {
	Tools []*Tool `json:"tools"`
}

// DecodeTools parses a catalog document. Both {"tools": [...]} and a bare array are accepted.
// Entries without a name are skipped since the name is the only stable identifier.
func DecodeTools(data []byte) ([]*Tool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("catalog document is empty")
	}

	var tools []*Tool
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &tools); err != nil {
			return nil, fmt.Errorf("decode catalog array: %w", err)
		}
	case '{':
		var doc catalogDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode catalog document: %w", err)
		}
		if doc.Tools == nil {
			return nil, errors.New("catalog document has no tools array")
		}
		tools = doc.Tools
	default:
		return nil, fmt.Errorf("catalog document must be an object or an array, got %q", data[0])
	}

	result := make([]*Tool, 0, len(tools))
	for _, tool := range tools {
		if tool == nil || strings.TrimSpace(tool.Name) == "" {
			continue
		}
		tool.Name = strings.TrimSpace(tool.Name)
		result = append(result, tool)
	}

	return result, nil
}
