// internal/matching/pairing/pairing.go
package pairing

import (
	"context"
	"fmt"
	"math"
	"sort"

	"matching-workers/internal/models"
)

// Optimize selects the vertex-disjoint set of eligible pairs with maximum
// total score. Participants are indexed in sorted id order so the result is
// deterministic for a given input set.
func Optimize(ctx context.Context, pairs []models.PairScore) ([]models.Match, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	idSet := make(map[string]bool, 2*len(pairs))
	for _, p := range pairs {
		if p.AID == p.BID {
			return nil, fmt.Errorf("pair %q is matched against itself", p.AID)
		}
		if p.Score < 0 {
			return nil, fmt.Errorf("pair %s-%s has negative score %v", p.AID, p.BID, p.Score)
		}
		idSet[p.AID] = true
		idSet[p.BID] = true
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	edges := make([]Edge, len(pairs))
	scores := make(map[[2]int]float64, len(pairs))
	for i, p := range pairs {
		u, v := index[p.AID], index[p.BID]
		edges[i] = Edge{U: u, V: v, Weight: p.Score}
		scores[pairKey(u, v)] = p.Score
	}

	mate, err := MaxWeightMatching(ctx, len(ids), edges)
	if err != nil {
		return nil, err
	}

	var matches []models.Match
	for v, w := range mate {
		if w > v {
			matches = append(matches, models.Match{
				AID:   ids[v],
				BID:   ids[w],
				Score: scores[pairKey(v, w)],
			})
		}
	}
	return matches, nil
}

func pairKey(u, v int) [2]int {
	if u > v {
		u, v = v, u
	}
	return [2]int{u, v}
}

// Verify checks the structural soundness of a matching against the pair set
// it was selected from: every participant at most once, every selected pair
// drawn from the eligible set with an unchanged score. A failure here is an
// implementation defect, not a data problem, and callers are expected to
// fail loudly on it.
func Verify(pairs []models.PairScore, matches []models.Match) error {
	eligible := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		eligible[edgeKey(p.AID, p.BID)] = p.Score
	}

	seen := make(map[string]bool, 2*len(matches))
	for _, m := range matches {
		if m.AID == m.BID {
			return fmt.Errorf("participant %q matched with itself", m.AID)
		}
		if seen[m.AID] {
			return fmt.Errorf("participant %q appears in more than one match", m.AID)
		}
		if seen[m.BID] {
			return fmt.Errorf("participant %q appears in more than one match", m.BID)
		}
		seen[m.AID] = true
		seen[m.BID] = true

		score, ok := eligible[edgeKey(m.AID, m.BID)]
		if !ok {
			return fmt.Errorf("match %s-%s is not an eligible pair", m.AID, m.BID)
		}
		if math.Abs(score-m.Score) > 1e-6 {
			return fmt.Errorf("match %s-%s carries score %v, eligible pair has %v", m.AID, m.BID, m.Score, score)
		}
		if m.Score < 0 {
			return fmt.Errorf("match %s-%s has negative score %v", m.AID, m.BID, m.Score)
		}
	}
	return nil
}

func edgeKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}
