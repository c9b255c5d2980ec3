package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"docquery-be/pkg/embedding"
	"docquery-be/pkg/llm"
	"docquery-be/pkg/retrieval"
	"docquery-be/pkg/retrieval/sparse"
	"docquery-be/pkg/retrieval/synthesis"

	"github.com/google/uuid"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type fakeCorpus struct {
	docCount    int64
	docCountErr error
	chunks      []retrieval.Chunk
	chunksErr   error
	fullText    []retrieval.Chunk
	fullTextErr error
	docs        map[uuid.UUID]retrieval.DocumentMeta
}

func (f *fakeCorpus) EligibleChunks(ctx context.Context, userID uuid.UUID) ([]retrieval.Chunk, error) {
	return f.chunks, f.chunksErr
}

func (f *fakeCorpus) SearchFullText(ctx context.Context, userID uuid.UUID, query string, limit int) ([]retrieval.Chunk, error) {
	return f.fullText, f.fullTextErr
}

func (f *fakeCorpus) DocumentCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return f.docCount, f.docCountErr
}

func (f *fakeCorpus) Documents(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]retrieval.DocumentMeta, error) {
	if f.docs == nil {
		return map[uuid.UUID]retrieval.DocumentMeta{}, nil
	}
	return f.docs, nil
}

type fakeEmbedding struct {
	vector []float32
	err    error
}

func (f *fakeEmbedding) Generate(ctx context.Context, text, taskType string) (*embedding.EmbeddingResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: f.vector},
	}, nil
}

type fakeLLM struct {
	answer string
	tokens int
	err    error
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Completion, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Completion{Text: f.answer, TokensUsed: f.tokens}, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (*llm.Completion, error) {
	return f.Chat(ctx, nil)
}

func newTestEngine(corpus *fakeCorpus, emb *fakeEmbedding, model *fakeLLM) *Engine {
	log := nopLogger{}
	return New(
		corpus,
		NewQueryEmbedder(emb, time.Second, log),
		sparse.NewRetriever(corpus, log),
		synthesis.NewSynthesizer(model),
		DefaultConfig(),
		log,
		log,
	)
}

var testUser = uuid.MustParse("99999999-9999-9999-9999-999999999999")

func testChunks(doc uuid.UUID) []retrieval.Chunk {
	page := func(p int) *int { return &p }
	return []retrieval.Chunk{
		{DocumentID: doc, ChunkIndex: 0, PageNumber: page(1), Content: "The refund policy allows returns within 30 days.", Embedding: []float32{1, 0}},
		{DocumentID: doc, ChunkIndex: 1, PageNumber: page(2), Content: "Shipping takes 5 business days.", Embedding: []float32{0, 1}},
		{DocumentID: doc, ChunkIndex: 2, PageNumber: page(3), Content: "Refund requests are processed weekly.", Embedding: []float32{0.9, 0.1}},
	}
}

func TestSearchHappyPath(t *testing.T) {
	doc := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	chunks := testChunks(doc)
	corpus := &fakeCorpus{
		docCount: 1,
		chunks:   chunks,
		fullText: chunks[:1],
		docs: map[uuid.UUID]retrieval.DocumentMeta{
			doc: {ID: doc, Title: "Store Policies", URL: "https://files.example.com/policies.pdf"},
		},
	}
	eng := newTestEngine(corpus, &fakeEmbedding{vector: []float32{1, 0}}, &fakeLLM{answer: "Returns are accepted within 30 days (Page 1).", tokens: 42})

	result, err := eng.Search(context.Background(), testUser, "what is the refund policy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Outcome != retrieval.OutcomeAnswered {
		t.Fatalf("expected answered outcome, got %v", result.Outcome)
	}
	if result.Answer == "" || result.TokensUsed != 42 {
		t.Errorf("answer/tokens not propagated: %q, %d", result.Answer, result.TokensUsed)
	}
	if result.TotalDocumentsSearched != 1 {
		t.Errorf("total documents = %d", result.TotalDocumentsSearched)
	}
	if result.Degraded {
		t.Error("happy path should not report degradation")
	}
	if len(result.Sources) == 0 {
		t.Fatal("expected sources")
	}
	// The chunk present in both pools is the best hybrid match.
	if result.Sources[0].DocumentTitle != "Store Policies" {
		t.Errorf("source title = %q", result.Sources[0].DocumentTitle)
	}
	if result.Sources[0].SearchMethod != retrieval.MethodHybrid {
		t.Errorf("top source method = %s, want hybrid", result.Sources[0].SearchMethod)
	}
}

func TestSearchEmptyCorpus(t *testing.T) {
	corpus := &fakeCorpus{docCount: 0}
	eng := newTestEngine(corpus, &fakeEmbedding{vector: []float32{1, 0}}, &fakeLLM{answer: "should not be called"})

	result, err := eng.Search(context.Background(), testUser, "anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != retrieval.OutcomeEmptyCorpus {
		t.Errorf("expected empty corpus outcome, got %v", result.Outcome)
	}
	if len(result.Sources) != 0 || result.TotalDocumentsSearched != 0 {
		t.Error("empty corpus result should carry no sources and zero documents")
	}
}

func TestSearchNoMatches(t *testing.T) {
	// Documents exist but none have chunks (still being processed).
	corpus := &fakeCorpus{docCount: 2}
	eng := newTestEngine(corpus, &fakeEmbedding{vector: []float32{1, 0}}, &fakeLLM{answer: "should not be called"})

	result, err := eng.Search(context.Background(), testUser, "anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != retrieval.OutcomeNoMatches {
		t.Errorf("expected no matches outcome, got %v", result.Outcome)
	}
	if result.TotalDocumentsSearched != 2 {
		t.Errorf("total documents = %d", result.TotalDocumentsSearched)
	}
}

func TestSearchEmbeddingFailureDegrades(t *testing.T) {
	doc := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	chunks := testChunks(doc)
	corpus := &fakeCorpus{docCount: 1, chunks: chunks, fullText: chunks[:2]}
	eng := newTestEngine(corpus, &fakeEmbedding{err: errors.New("provider down")}, &fakeLLM{answer: "sparse-only answer", tokens: 10})

	result, err := eng.Search(context.Background(), testUser, "refund policy")
	if err != nil {
		t.Fatalf("embedding failure must not fail the request: %v", err)
	}
	if result.Outcome != retrieval.OutcomeAnswered {
		t.Fatalf("expected answered outcome, got %v", result.Outcome)
	}
	if !result.Degraded {
		t.Error("embedding failure should mark the result degraded")
	}
	// Every source came through the sparse pool alone.
	for _, src := range result.Sources {
		if src.SearchMethod != retrieval.MethodSparseOnly {
			t.Errorf("expected sparse-only sources, got %s", src.SearchMethod)
		}
	}
}

func TestSearchSparseFailureDegrades(t *testing.T) {
	doc := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	chunks := testChunks(doc)
	corpus := &fakeCorpus{docCount: 1, chunks: chunks, fullTextErr: errors.New("fts offline")}
	eng := newTestEngine(corpus, &fakeEmbedding{vector: []float32{1, 0}}, &fakeLLM{answer: "degraded answer", tokens: 5})

	result, err := eng.Search(context.Background(), testUser, "refund policy")
	if err != nil {
		t.Fatalf("sparse failure must not fail the request: %v", err)
	}
	if result.Outcome != retrieval.OutcomeAnswered {
		t.Fatalf("expected answered outcome, got %v", result.Outcome)
	}
	if !result.Degraded {
		t.Error("keyword fallback should mark the result degraded")
	}
}

func TestSearchCorpusFetchErrorIsFatal(t *testing.T) {
	corpus := &fakeCorpus{docCountErr: errors.New("db down")}
	eng := newTestEngine(corpus, &fakeEmbedding{vector: []float32{1, 0}}, &fakeLLM{})

	_, err := eng.Search(context.Background(), testUser, "anything")
	var fetchErr *retrieval.CorpusFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected CorpusFetchError, got %v", err)
	}
}

func TestSearchSynthesisErrorIsFatal(t *testing.T) {
	doc := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	chunks := testChunks(doc)
	corpus := &fakeCorpus{docCount: 1, chunks: chunks, fullText: chunks[:1]}
	eng := newTestEngine(corpus, &fakeEmbedding{vector: []float32{1, 0}}, &fakeLLM{err: errors.New("model offline")})

	_, err := eng.Search(context.Background(), testUser, "refund policy")
	var synthErr *retrieval.SynthesisError
	if !errors.As(err, &synthErr) {
		t.Fatalf("expected SynthesisError, got %v", err)
	}
}

func TestSearchLowConfidenceFallback(t *testing.T) {
	doc := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	// Query vector is orthogonal to every chunk and the full-text store
	// finds nothing, so fused scores stay under the quality floor and the
	// gate returns the tagged fallback instead of an empty context.
	chunks := []retrieval.Chunk{
		{DocumentID: doc, ChunkIndex: 0, Content: "unrelated alpha text", Embedding: []float32{0, 1}},
		{DocumentID: doc, ChunkIndex: 1, Content: "unrelated bravo text", Embedding: []float32{0, 1}},
		{DocumentID: doc, ChunkIndex: 2, Content: "unrelated charlie text", Embedding: []float32{0, 1}},
		{DocumentID: doc, ChunkIndex: 3, Content: "unrelated delta text", Embedding: []float32{0, 1}},
	}
	corpus := &fakeCorpus{docCount: 1, chunks: chunks}
	eng := newTestEngine(corpus, &fakeEmbedding{vector: []float32{1, 0}}, &fakeLLM{answer: "low confidence answer", tokens: 7})

	result, err := eng.Search(context.Background(), testUser, "quantum flux capacitors")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != retrieval.OutcomeAnswered {
		t.Fatalf("expected answered outcome, got %v", result.Outcome)
	}
	if len(result.Sources) == 0 {
		t.Fatal("fallback must keep the context non-empty")
	}
	for _, src := range result.Sources {
		if src.SearchMethod != retrieval.MethodFallback {
			t.Errorf("expected fallback sources, got %s", src.SearchMethod)
		}
		if src.Confidence != 0.05 {
			t.Errorf("fallback confidence = %v", src.Confidence)
		}
	}
}

func TestSearchNearDuplicateChunks(t *testing.T) {
	doc := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	// Fifteen near-identical chunks plus three distinct ones. MMR keeps the
	// result set at the target size without filling it with duplicates.
	var chunks []retrieval.Chunk
	for i := 0; i < 15; i++ {
		chunks = append(chunks, retrieval.Chunk{
			DocumentID: doc,
			ChunkIndex: i,
			Content:    "the warranty covers manufacturing defects",
			Embedding:  []float32{1, 0, 0},
		})
	}
	chunks = append(chunks,
		retrieval.Chunk{DocumentID: doc, ChunkIndex: 15, Content: "warranty claims need a receipt", Embedding: []float32{0.7, 0.7, 0}},
		retrieval.Chunk{DocumentID: doc, ChunkIndex: 16, Content: "warranty period lasts two years", Embedding: []float32{0.7, 0, 0.7}},
		retrieval.Chunk{DocumentID: doc, ChunkIndex: 17, Content: "warranty excludes accidental damage", Embedding: []float32{0.6, 0.5, 0.5}},
	)

	// Full-text search surfaces the distinct chunks.
	corpus := &fakeCorpus{docCount: 1, chunks: chunks, fullText: chunks[15:]}
	eng := newTestEngine(corpus, &fakeEmbedding{vector: []float32{1, 0, 0}}, &fakeLLM{answer: "warranty answer", tokens: 20})

	result, err := eng.Search(context.Background(), testUser, "what does the warranty cover")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != retrieval.OutcomeAnswered {
		t.Fatalf("expected answered outcome, got %v", result.Outcome)
	}

	// The three distinct chunks should surface among the sources instead of
	// being crowded out by the duplicate block.
	found := 0
	for _, src := range result.Sources {
		if strings.Contains(src.Excerpt, "receipt") ||
			strings.Contains(src.Excerpt, "two years") ||
			strings.Contains(src.Excerpt, "accidental") {
			found++
		}
	}
	if found < 2 {
		t.Errorf("expected distinct chunks to survive diversification, found %d", found)
	}
}
