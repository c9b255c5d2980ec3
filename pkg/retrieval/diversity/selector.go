// Package diversity re-ranks the fused candidate list with Maximal Marginal
// Relevance to suppress near-duplicate chunks.
package diversity

import (
	"docquery-be/pkg/retrieval"
	"docquery-be/pkg/retrieval/dense"
)

const (
	// TargetResults is the retained ranking size K.
	TargetResults = 12
	// Lambda trades relevance against redundancy.
	Lambda = 0.7
)

// Select greedily picks up to k items maximizing
// lambda*relevance - (1-lambda)*max_similarity(candidate, selected).
// Candidates must arrive sorted best first; when the list already fits in k
// it is returned unchanged. A missing embedding on either side contributes
// 0 similarity.
func Select(candidates []retrieval.ScoredChunk, k int, lambda float64) []retrieval.ScoredChunk {
	if len(candidates) <= k {
		return candidates
	}

	selected := make([]retrieval.ScoredChunk, 0, k)
	remaining := make([]retrieval.ScoredChunk, len(candidates))
	copy(remaining, candidates)

	// Top-scored item is always kept.
	selected = append(selected, remaining[0])
	remaining = remaining[1:]

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := 0
		bestScore := mmrScore(remaining[0], selected, lambda)
		for i := 1; i < len(remaining); i++ {
			if score := mmrScore(remaining[i], selected, lambda); score > bestScore {
				bestIdx = i
				bestScore = score
			}
		}

		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

func mmrScore(candidate retrieval.ScoredChunk, selected []retrieval.ScoredChunk, lambda float64) float64 {
	var maxSim float64
	for _, s := range selected {
		if sim := dense.CosineSimilarity(candidate.Embedding, s.Embedding); sim > maxSim {
			maxSim = sim
		}
	}
	return lambda*candidate.Score - (1-lambda)*maxSim
}
