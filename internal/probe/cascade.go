package probe

import (
	"wcprobe/pkg/htmlutil"
)

// heuristic is one structural query in a cascade. `extract` turns the text of one match
// into a candidate value; an empty return means the match carries no usable value.
// `collect` replaces the XPath query for heuristics that need more than one expression.
type heuristic struct {
	name    string
	query   string
	extract func(value string) string
	collect func(doc *htmlutil.Document) []string
}

// candidates evaluates a heuristic and returns its usable values in document order.
func (h heuristic) candidates(doc *htmlutil.Document) []string {
	var matches []string
	if h.collect != nil {
		matches = h.collect(doc)
	} else {
		matches = doc.Values(h.query)
	}

	var out []string
	for _, value := range matches {
		if h.extract != nil {
			value = h.extract(value)
		}
		if value == "" {
			continue
		}
		out = append(out, value)
	}
	return out
}

// firstMatch returns the first usable value of the first heuristic yielding one.
// The rest of the cascade is not evaluated.
func firstMatch(doc *htmlutil.Document, cascade []heuristic) (string, bool) {
	for _, h := range cascade {
		values := h.candidates(doc)
		if len(values) > 0 {
			return values[0], true
		}
	}
	return "", false
}

// aggregate evaluates every heuristic and returns all usable values, deduplicated in
// first-seen order.
func aggregate(doc *htmlutil.Document, cascade []heuristic) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, h := range cascade {
		for _, value := range h.candidates(doc) {
			if _, ok := seen[value]; ok {
				continue
			}
			seen[value] = struct{}{}
			out = append(out, value)
		}
	}
	return out
}

// anyMatch reports whether any of the queries matches a node.
func anyMatch(doc *htmlutil.Document, queries []string) bool {
	for _, q := range queries {
		if doc.Exists(q) {
			return true
		}
	}
	return false
}
