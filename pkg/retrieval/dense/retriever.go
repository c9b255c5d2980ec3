// Package dense ranks chunks by cosine similarity against the query vector.
package dense

import (
	"math"
	"sort"

	"docquery-be/pkg/retrieval"
)

// CandidateLimit caps the dense result pool.
const CandidateLimit = 50

// CosineSimilarity returns dot(a,b)/(|a|*|b|). Degenerate inputs (empty,
// mismatched length, zero magnitude) score 0 instead of erroring; retrieval
// quality degrades but the request survives.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank scores every chunk that carries an embedding of the query's dimension
// and returns the top candidates, best first. Equal scores order by ascending
// chunk index, then document id, so rankings are deterministic.
func Rank(query []float32, chunks []retrieval.Chunk) []retrieval.ScoredChunk {
	if len(query) == 0 {
		return nil
	}

	scored := make([]retrieval.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) == 0 || len(c.Embedding) != len(query) {
			continue
		}
		scored = append(scored, retrieval.ScoredChunk{
			Chunk:  c,
			Score:  CosineSimilarity(query, c.Embedding),
			Method: retrieval.MethodDense,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].ChunkIndex != scored[j].ChunkIndex {
			return scored[i].ChunkIndex < scored[j].ChunkIndex
		}
		return scored[i].DocumentID.String() < scored[j].DocumentID.String()
	})

	if len(scored) > CandidateLimit {
		scored = scored[:CandidateLimit]
	}
	return scored
}
