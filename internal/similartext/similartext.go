// Package similartext formats "did you mean" suggestions for an unknown
// name (operator, option, field, function) by nearest edit distance,
// grounded on the teacher's own internal/similartext precedent (its test
// file ships with the pack; this is the adapted implementation behind
// it).
package similartext

import (
	"sort"
	"strings"

	"github.com/tenzir-community/tenzirgo/internal/text_distance"
)

// Find returns a ", maybe you mean X?" (or "X or Y?") suffix naming every
// name in names tied for the closest edit distance to target, or "" if
// target is empty or nothing is close enough to be worth suggesting.
func Find(names []string, target string) string {
	if target == "" || len(names) == 0 {
		return ""
	}
	best := closest(names, target)
	return format(best)
}

// FindFromMap is Find over a map's keys.
func FindFromMap[V any](names map[string]V, target string) string {
	if target == "" || len(names) == 0 {
		return ""
	}
	keys := make([]string, 0, len(names))
	for k := range names {
		keys = append(keys, k)
	}
	return format(closest(keys, target))
}

// closest returns every name achieving the minimum edit distance to
// target, provided that minimum is within a "close enough to suggest"
// threshold scaled to target's length — a heuristic, not a principled
// bound, tuned so a wildly different string yields no suggestion at all.
func closest(names []string, target string) []string {
	threshold := len(target) / 2
	if threshold < 1 {
		threshold = 1
	}
	minDist := -1
	for _, n := range names {
		d := text_distance.Distance(n, target)
		if minDist == -1 || d < minDist {
			minDist = d
		}
	}
	if minDist > threshold {
		return nil
	}
	var out []string
	for _, n := range names {
		if text_distance.Distance(n, target) == minDist {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func format(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	return ", maybe you mean " + strings.Join(candidates, " or ") + "?"
}
