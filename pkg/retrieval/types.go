// Package retrieval holds the shared types of the hybrid document-retrieval
// pipeline. The stage packages (dense, sparse, fusion, diversity, gate,
// grounding, synthesis, sources) consume these types; the engine package
// orchestrates them.
package retrieval

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// SearchMethod tags how a chunk earned its score. Closed set; free-form
// strings are never used.
type SearchMethod string

const (
	MethodDense      SearchMethod = "dense"
	MethodSparse     SearchMethod = "sparse"
	MethodSparseOnly SearchMethod = "sparse-only"
	MethodHybrid     SearchMethod = "hybrid"
	MethodFusion     SearchMethod = "fusion"
	MethodKeyword    SearchMethod = "keyword"
	MethodFallback   SearchMethod = "fallback"
)

// Chunk is the retrieval unit. PageNumber and Embedding are optional and
// must be presence-checked.
type Chunk struct {
	DocumentID  uuid.UUID
	ChunkIndex  int
	Content     string
	PageNumber  *int
	SectionPath string
	Embedding   []float32 // nil when absent
}

// ChunkKey identifies a chunk across result pools.
type ChunkKey struct {
	DocumentID uuid.UUID
	ChunkIndex int
}

func (c Chunk) Key() ChunkKey {
	return ChunkKey{DocumentID: c.DocumentID, ChunkIndex: c.ChunkIndex}
}

// ScoredChunk is a Chunk plus the score and method assigned by a stage.
type ScoredChunk struct {
	Chunk
	Score  float64
	Method SearchMethod
}

// DocumentMeta is display metadata resolved for citations.
type DocumentMeta struct {
	ID    uuid.UUID
	Title string
	URL   string
}

// Source is one formatted citation entry.
type Source struct {
	DocumentTitle string
	DocumentURL   string
	Excerpt       string
	PageNumber    *int
	SectionPath   string
	Confidence    float64
	SearchMethod  SearchMethod
	Rank          int
}

// Outcome classifies what the pipeline produced.
type Outcome int

const (
	// OutcomeAnswered means chunks were retrieved and an answer synthesized.
	OutcomeAnswered Outcome = iota
	// OutcomeEmptyCorpus means the user has no indexed documents at all.
	OutcomeEmptyCorpus
	// OutcomeNoMatches means documents exist but no candidate chunk matched.
	OutcomeNoMatches
)

// Result is the pipeline output for one request.
type Result struct {
	Outcome                Outcome
	Answer                 string
	Sources                []Source
	TokensUsed             int
	TotalDocumentsSearched int64
	// Degraded is set when the pipeline lost a signal (embedding failed or
	// full-text search fell back to keyword scoring) but still answered.
	Degraded bool
}

// CorpusAccessor resolves the read-only chunk corpus for a user. Implemented
// over the repository layer; substituted with doubles in tests.
type CorpusAccessor interface {
	// EligibleChunks returns every live chunk of the user's documents.
	EligibleChunks(ctx context.Context, userID uuid.UUID) ([]Chunk, error)
	// SearchFullText returns chunks in lexical relevance order. The engine
	// only consumes the order, never a score.
	SearchFullText(ctx context.Context, userID uuid.UUID, query string, limit int) ([]Chunk, error)
	// DocumentCount returns the number of live documents the user owns.
	DocumentCount(ctx context.Context, userID uuid.UUID) (int64, error)
	// Documents resolves display metadata for the given document ids.
	Documents(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]DocumentMeta, error)
}

// CorpusFetchError is fatal: without the corpus nothing useful can be returned.
type CorpusFetchError struct {
	Err error
}

func (e *CorpusFetchError) Error() string {
	return fmt.Sprintf("corpus fetch failed: %v", e.Err)
}

func (e *CorpusFetchError) Unwrap() error { return e.Err }

// SynthesisError is fatal: a missing or ungrounded answer is worse than an
// explicit failure. Retrieval state is not at fault; the caller may retry.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("answer synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
