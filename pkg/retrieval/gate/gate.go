// Package gate enforces the quality floor and the non-empty guarantee.
package gate

import "docquery-be/pkg/retrieval"

const (
	// ScoreFloor drops fused scores at or below this value.
	ScoreFloor = 0.1
	// FallbackCount and FallbackScore shape the low-confidence fallback.
	FallbackCount = 3
	FallbackScore = 0.05
)

// Apply drops every chunk scoring at or below the floor. If that empties a
// non-empty candidate pool, the first FallbackCount candidates come back
// tagged fallback at a nominal score, so a non-empty pool never yields an
// empty result. The second return reports whether the fallback fired.
func Apply(candidates []retrieval.ScoredChunk) ([]retrieval.ScoredChunk, bool) {
	kept := make([]retrieval.ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		if c.Score > ScoreFloor {
			kept = append(kept, c)
		}
	}

	if len(kept) > 0 || len(candidates) == 0 {
		return kept, false
	}

	n := FallbackCount
	if n > len(candidates) {
		n = len(candidates)
	}
	fallback := make([]retrieval.ScoredChunk, n)
	for i := 0; i < n; i++ {
		fallback[i] = candidates[i]
		fallback[i].Score = FallbackScore
		fallback[i].Method = retrieval.MethodFallback
	}
	return fallback, true
}
