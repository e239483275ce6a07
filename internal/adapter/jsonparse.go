package adapter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/polyseek/polyseek/internal/domain"
	"github.com/polyseek/polyseek/internal/domain/result"
)

// JSONRules selects fields out of a JSON upstream payload. Paths are
// dot-separated object keys (e.g. "data.results").
type JSONRules struct {
	// Results is the path to the item array. A missing array is an empty
	// response, not an error.
	Results string
	// URL, Title and Content are keys within one item.
	URL     string
	Title   string
	Content string
	// Suggestions is an optional path to a string array.
	Suggestions string
}

// JSONParser extracts standard items from JSON payloads by configured paths.
type JSONParser struct {
	rules JSONRules
}

// NewJSONParser creates a JSON payload parser.
func NewJSONParser(rules JSONRules) (*JSONParser, error) {
	if rules.Results == "" || rules.URL == "" || rules.Title == "" {
		return nil, fmt.Errorf("json rules need results, url and title paths")
	}
	return &JSONParser{rules: rules}, nil
}

// Parse implements Parser.
func (p *JSONParser) Parse(body []byte) ([]result.Partial, error) {
	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	var out []result.Partial

	items, ok := lookupPath(root, p.rules.Results).([]any)
	if ok {
		for _, it := range items {
			obj, ok := it.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: result item is not an object", domain.ErrMalformedResponse)
			}
			u, _ := obj[p.rules.URL].(string)
			title, _ := obj[p.rules.Title].(string)
			if u == "" || title == "" {
				continue
			}
			content := ""
			if p.rules.Content != "" {
				content, _ = obj[p.rules.Content].(string)
			}
			out = append(out, result.Standard(u, title, content))
		}
	}

	if p.rules.Suggestions != "" {
		if sugg, ok := lookupPath(root, p.rules.Suggestions).([]any); ok {
			for _, s := range sugg {
				if text, ok := s.(string); ok && text != "" {
					out = append(out, result.Suggestion(text))
				}
			}
		}
	}

	return out, nil
}

// lookupPath walks a dot-separated key path through nested JSON objects.
func lookupPath(root any, path string) any {
	cur := root
	for _, key := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[key]
	}
	return cur
}
