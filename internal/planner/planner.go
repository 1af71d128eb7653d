// Package planner derives the sub-queries a research run fans out to.
package planner

import (
	"fmt"
	"strings"
)

const maxQueries = 5

// Plan expands a topic into 3-5 search queries using fixed templates,
// deduplicated case-insensitively in first-seen order. It is pure and
// deterministic; an empty topic still yields the templates with an empty
// substring, which is a documented edge case rather than an error.
func Plan(topic string) []string {
	topic = strings.TrimSpace(topic)

	base := []string{
		fmt.Sprintf("%s definition and overview", topic),
		fmt.Sprintf("%s applications and use cases", topic),
		fmt.Sprintf("%s challenges or limitations", topic),
		fmt.Sprintf("%s evaluation metrics or comparisons", topic),
	}

	seen := make(map[string]bool, len(base))
	out := make([]string, 0, len(base))
	for _, q := range base {
		k := strings.ToLower(q)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, q)
	}

	if len(out) > maxQueries {
		out = out[:maxQueries]
	}
	return out
}
