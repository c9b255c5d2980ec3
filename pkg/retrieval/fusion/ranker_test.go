package fusion

import (
	"math"
	"testing"

	"docquery-be/pkg/retrieval"

	"github.com/google/uuid"
)

func TestFuse(t *testing.T) {
	docA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	docB := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	dense := []retrieval.ScoredChunk{
		{Chunk: retrieval.Chunk{DocumentID: docA, ChunkIndex: 0}, Score: 0.9, Method: retrieval.MethodDense},
		{Chunk: retrieval.Chunk{DocumentID: docA, ChunkIndex: 1}, Score: 0.6, Method: retrieval.MethodDense},
	}
	sparse := []retrieval.ScoredChunk{
		{Chunk: retrieval.Chunk{DocumentID: docA, ChunkIndex: 0}, Score: 0.8, Method: retrieval.MethodSparse},
		{Chunk: retrieval.Chunk{DocumentID: docB, ChunkIndex: 5}, Score: 0.8, Method: retrieval.MethodSparse},
	}

	got := Fuse(dense, sparse)

	if len(got) != 3 {
		t.Fatalf("expected 3 fused chunks, got %d", len(got))
	}

	byKey := make(map[retrieval.ChunkKey]retrieval.ScoredChunk, len(got))
	for _, sc := range got {
		byKey[sc.Key()] = sc
	}

	hybrid := byKey[retrieval.ChunkKey{DocumentID: docA, ChunkIndex: 0}]
	if hybrid.Method != retrieval.MethodHybrid {
		t.Errorf("chunk in both pools should be hybrid, got %s", hybrid.Method)
	}
	want := 0.65*0.9 + 0.35*0.8
	if math.Abs(hybrid.Score-want) > 1e-9 {
		t.Errorf("hybrid score = %v, want %v", hybrid.Score, want)
	}

	denseOnly := byKey[retrieval.ChunkKey{DocumentID: docA, ChunkIndex: 1}]
	if denseOnly.Method != retrieval.MethodFusion {
		t.Errorf("dense-only chunk should be fusion, got %s", denseOnly.Method)
	}
	if math.Abs(denseOnly.Score-0.65*0.6) > 1e-9 {
		t.Errorf("dense-only score = %v, want %v", denseOnly.Score, 0.65*0.6)
	}

	sparseOnly := byKey[retrieval.ChunkKey{DocumentID: docB, ChunkIndex: 5}]
	if sparseOnly.Method != retrieval.MethodSparseOnly {
		t.Errorf("sparse-only chunk should be sparse-only, got %s", sparseOnly.Method)
	}
	if math.Abs(sparseOnly.Score-0.35*0.8) > 1e-9 {
		t.Errorf("sparse-only score = %v, want %v", sparseOnly.Score, 0.35*0.8)
	}

	// Best first.
	if got[0].Key() != hybrid.Key() {
		t.Errorf("expected hybrid chunk ranked first")
	}
}

func TestFuseEmptyPools(t *testing.T) {
	if got := Fuse(nil, nil); len(got) != 0 {
		t.Errorf("expected empty result for empty pools, got %d", len(got))
	}
}

func TestFuseDeterministicTieBreak(t *testing.T) {
	docA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	docB := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	sparse := []retrieval.ScoredChunk{
		{Chunk: retrieval.Chunk{DocumentID: docB, ChunkIndex: 2}, Score: 0.8},
		{Chunk: retrieval.Chunk{DocumentID: docA, ChunkIndex: 2}, Score: 0.8},
		{Chunk: retrieval.Chunk{DocumentID: docA, ChunkIndex: 1}, Score: 0.8},
	}

	got := Fuse(nil, sparse)
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(got))
	}
	if got[0].ChunkIndex != 1 {
		t.Errorf("tie should break by chunk index, got %d first", got[0].ChunkIndex)
	}
	if got[1].DocumentID != docA || got[2].DocumentID != docB {
		t.Errorf("equal chunk index should break by document id")
	}
}
