// Package fusion merges the dense and sparse result pools into one score
// per chunk.
package fusion

import (
	"sort"

	"docquery-be/pkg/retrieval"
)

const (
	// DenseWeight and SparseWeight bias fusion toward semantic similarity.
	DenseWeight  = 0.65
	SparseWeight = 0.35
)

// Fuse merges by (document_id, chunk_index). A chunk in both pools fuses
// both weighted scores and is tagged hybrid; dense-only and sparse-only
// chunks keep their single weighted score under the fusion / sparse-only
// tags. The merged set is sorted best first with a deterministic tie-break.
func Fuse(dense, sparse []retrieval.ScoredChunk) []retrieval.ScoredChunk {
	merged := make(map[retrieval.ChunkKey]retrieval.ScoredChunk, len(dense)+len(sparse))

	for _, d := range dense {
		merged[d.Key()] = retrieval.ScoredChunk{
			Chunk:  d.Chunk,
			Score:  DenseWeight * d.Score,
			Method: retrieval.MethodFusion,
		}
	}

	for _, s := range sparse {
		key := s.Key()
		if existing, ok := merged[key]; ok {
			existing.Score += SparseWeight * s.Score
			existing.Method = retrieval.MethodHybrid
			merged[key] = existing
			continue
		}
		merged[key] = retrieval.ScoredChunk{
			Chunk:  s.Chunk,
			Score:  SparseWeight * s.Score,
			Method: retrieval.MethodSparseOnly,
		}
	}

	fused := make([]retrieval.ScoredChunk, 0, len(merged))
	for _, sc := range merged {
		fused = append(fused, sc)
	}

	sort.SliceStable(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		if fused[i].ChunkIndex != fused[j].ChunkIndex {
			return fused[i].ChunkIndex < fused[j].ChunkIndex
		}
		return fused[i].DocumentID.String() < fused[j].DocumentID.String()
	})

	return fused
}
