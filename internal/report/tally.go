// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"sort"
	"strings"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// TopInterventions tallies intervention candidates across entries under
// lowercase keys and returns the topN most frequent phrases. Repeats across
// entries accumulate; ties keep first-encountered order.
func TopInterventions(entries []Entry, topN int) []types.InterventionCount {
	counts := make(map[string]int)
	var order []string

	for _, e := range entries {
		for _, candidate := range e.InterventionCandidates() {
			phrase := strings.ToLower(candidate)
			if counts[phrase] == 0 {
				order = append(order, phrase)
			}
			counts[phrase]++
		}
	}

	ranked := make([]types.InterventionCount, 0, len(order))
	for _, phrase := range order {
		ranked = append(ranked, types.InterventionCount{Name: phrase, Count: counts[phrase]})
	}
	sortByCountDesc(ranked)
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// sortByCountDesc orders tallied pairs by descending count. The stable sort
// preserves first-encountered order among equal counts.
func sortByCountDesc(counts []types.InterventionCount) {
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
}
