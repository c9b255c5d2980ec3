package dense

import (
	"math"
	"testing"

	"docquery-be/pkg/retrieval"

	"github.com/google/uuid"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{
			name: "identical vectors",
			a:    []float32{1, 2, 3},
			b:    []float32{1, 2, 3},
			want: 1,
		},
		{
			name: "orthogonal vectors",
			a:    []float32{1, 0},
			b:    []float32{0, 1},
			want: 0,
		},
		{
			name: "opposite vectors",
			a:    []float32{1, 0},
			b:    []float32{-1, 0},
			want: -1,
		},
		{
			name: "empty a",
			a:    nil,
			b:    []float32{1, 2},
			want: 0,
		},
		{
			name: "empty b",
			a:    []float32{1, 2},
			b:    nil,
			want: 0,
		},
		{
			name: "dimension mismatch",
			a:    []float32{1, 2, 3},
			b:    []float32{1, 2},
			want: 0,
		},
		{
			name: "zero magnitude",
			a:    []float32{0, 0, 0},
			b:    []float32{1, 2, 3},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRankOrdering(t *testing.T) {
	docA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	docB := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	query := []float32{1, 0}
	chunks := []retrieval.Chunk{
		{DocumentID: docA, ChunkIndex: 0, Embedding: []float32{0, 1}},    // sim 0
		{DocumentID: docA, ChunkIndex: 1, Embedding: []float32{1, 0}},    // sim 1
		{DocumentID: docB, ChunkIndex: 2, Embedding: []float32{1, 1}},    // sim ~0.707
		{DocumentID: docB, ChunkIndex: 3, Embedding: nil},                // skipped
		{DocumentID: docB, ChunkIndex: 4, Embedding: []float32{1, 0, 0}}, // dim mismatch, skipped
	}

	got := Rank(query, chunks)

	if len(got) != 3 {
		t.Fatalf("expected 3 ranked chunks, got %d", len(got))
	}
	if got[0].ChunkIndex != 1 || got[1].ChunkIndex != 2 || got[2].ChunkIndex != 0 {
		t.Errorf("unexpected order: %d, %d, %d", got[0].ChunkIndex, got[1].ChunkIndex, got[2].ChunkIndex)
	}
	for _, sc := range got {
		if sc.Method != retrieval.MethodDense {
			t.Errorf("expected dense method, got %s", sc.Method)
		}
	}
}

func TestRankTieBreak(t *testing.T) {
	doc := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	// Both chunks are identical to the query, so scores tie and the lower
	// chunk index must come first.
	query := []float32{1, 1}
	chunks := []retrieval.Chunk{
		{DocumentID: doc, ChunkIndex: 7, Embedding: []float32{1, 1}},
		{DocumentID: doc, ChunkIndex: 2, Embedding: []float32{2, 2}},
	}

	got := Rank(query, chunks)
	if len(got) != 2 {
		t.Fatalf("expected 2 ranked chunks, got %d", len(got))
	}
	if got[0].ChunkIndex != 2 {
		t.Errorf("tie should break by chunk index, got %d first", got[0].ChunkIndex)
	}
}

func TestRankCandidateLimit(t *testing.T) {
	doc := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	query := []float32{1, 0}
	chunks := make([]retrieval.Chunk, CandidateLimit+10)
	for i := range chunks {
		chunks[i] = retrieval.Chunk{DocumentID: doc, ChunkIndex: i, Embedding: []float32{1, float32(i)}}
	}

	got := Rank(query, chunks)
	if len(got) != CandidateLimit {
		t.Errorf("expected pool capped at %d, got %d", CandidateLimit, len(got))
	}
}

func TestRankNilQuery(t *testing.T) {
	doc := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	chunks := []retrieval.Chunk{{DocumentID: doc, Embedding: []float32{1, 0}}}

	if got := Rank(nil, chunks); got != nil {
		t.Errorf("expected nil for nil query, got %d chunks", len(got))
	}
}
