// Package engine orchestrates the hybrid retrieval pipeline:
// embed -> retrieve (dense in parallel with sparse) -> fuse -> diversify ->
// gate -> synthesize -> format.
package engine

import (
	"context"
	"sync"
	"time"

	"docquery-be/internal/pkg/logger"
	"docquery-be/pkg/retrieval"
	"docquery-be/pkg/retrieval/dense"
	"docquery-be/pkg/retrieval/diversity"
	"docquery-be/pkg/retrieval/fusion"
	"docquery-be/pkg/retrieval/gate"
	"docquery-be/pkg/retrieval/grounding"
	"docquery-be/pkg/retrieval/sources"
	"docquery-be/pkg/retrieval/sparse"
	"docquery-be/pkg/retrieval/synthesis"

	"github.com/google/uuid"
)

// Stage names for the per-request trace log.
type Stage string

const (
	StageReceived     Stage = "RECEIVED"
	StageEmbedding    Stage = "EMBEDDING"
	StageRetrieving   Stage = "RETRIEVING"
	StageFusing       Stage = "FUSING"
	StageDiversifying Stage = "DIVERSIFYING"
	StageGating       Stage = "GATING"
	StageSynthesizing Stage = "SYNTHESIZING"
	StageFormatting   Stage = "FORMATTING"
	StageDone         Stage = "DONE"
	StageError        Stage = "ERROR"
)

// Config encapsulates the tunable pipeline parameters.
type Config struct {
	TargetResults    int
	Lambda           float64
	SparseTimeout    time.Duration
	SynthesisTimeout time.Duration
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		TargetResults:    diversity.TargetResults,
		Lambda:           diversity.Lambda,
		SparseTimeout:    5 * time.Second,
		SynthesisTimeout: 120 * time.Second,
	}
}

// Engine runs the retrieval pipeline. All collaborators are injected so
// tests can substitute deterministic doubles.
type Engine struct {
	corpus      retrieval.CorpusAccessor
	embedder    *QueryEmbedder
	sparse      *sparse.Retriever
	synthesizer *synthesis.Synthesizer
	cfg         Config
	log         logger.ILogger
	trace       logger.ILogger
}

func New(
	corpus retrieval.CorpusAccessor,
	embedder *QueryEmbedder,
	sparseRetriever *sparse.Retriever,
	synthesizer *synthesis.Synthesizer,
	cfg Config,
	log logger.ILogger,
	trace logger.ILogger,
) *Engine {
	if cfg.TargetResults <= 0 {
		cfg.TargetResults = diversity.TargetResults
	}
	if cfg.Lambda <= 0 {
		cfg.Lambda = diversity.Lambda
	}
	return &Engine{
		corpus:      corpus,
		embedder:    embedder,
		sparse:      sparseRetriever,
		synthesizer: synthesizer,
		cfg:         cfg,
		log:         log,
		trace:       trace,
	}
}

// Search executes the full pipeline for one request. Embedding and sparse
// provider faults degrade in place; corpus and synthesis faults abort with
// *retrieval.CorpusFetchError / *retrieval.SynthesisError.
func (e *Engine) Search(ctx context.Context, userID uuid.UUID, query string) (*retrieval.Result, error) {
	e.transition(userID, StageReceived, nil)

	docCount, err := e.corpus.DocumentCount(ctx, userID)
	if err != nil {
		e.transition(userID, StageError, map[string]interface{}{"stage": "corpus", "error": err.Error()})
		return nil, &retrieval.CorpusFetchError{Err: err}
	}
	if docCount == 0 {
		e.transition(userID, StageDone, map[string]interface{}{"outcome": "empty_corpus"})
		return &retrieval.Result{Outcome: retrieval.OutcomeEmptyCorpus}, nil
	}

	corpus, err := e.corpus.EligibleChunks(ctx, userID)
	if err != nil {
		e.transition(userID, StageError, map[string]interface{}{"stage": "corpus", "error": err.Error()})
		return nil, &retrieval.CorpusFetchError{Err: err}
	}
	if len(corpus) == 0 {
		e.transition(userID, StageDone, map[string]interface{}{"outcome": "no_matches"})
		return &retrieval.Result{Outcome: retrieval.OutcomeNoMatches, TotalDocumentsSearched: docCount}, nil
	}

	// Embedding is optional: a nil vector degrades to sparse-only.
	e.transition(userID, StageEmbedding, nil)
	queryVec := e.embedder.Embed(ctx, query)

	// Dense and sparse depend only on the query and the fetched corpus, so
	// they run concurrently.
	e.transition(userID, StageRetrieving, map[string]interface{}{
		"corpus_chunks": len(corpus),
		"dense_enabled": queryVec != nil,
	})

	var (
		denseResults  []retrieval.ScoredChunk
		sparseResults []retrieval.ScoredChunk
		usedKeyword   bool
		wg            sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		denseResults = dense.Rank(queryVec, corpus)
	}()
	go func() {
		defer wg.Done()
		sparseCtx := ctx
		if e.cfg.SparseTimeout > 0 {
			var cancel context.CancelFunc
			sparseCtx, cancel = context.WithTimeout(ctx, e.cfg.SparseTimeout)
			defer cancel()
		}
		sparseResults, usedKeyword = e.sparse.Retrieve(sparseCtx, userID, query, corpus)
	}()
	wg.Wait()

	e.transition(userID, StageFusing, map[string]interface{}{
		"dense":  len(denseResults),
		"sparse": len(sparseResults),
	})
	fused := fusion.Fuse(denseResults, sparseResults)
	if len(fused) == 0 {
		e.transition(userID, StageDone, map[string]interface{}{"outcome": "no_matches"})
		return &retrieval.Result{
			Outcome:                retrieval.OutcomeNoMatches,
			TotalDocumentsSearched: docCount,
			Degraded:               queryVec == nil || usedKeyword,
		}, nil
	}

	e.transition(userID, StageDiversifying, map[string]interface{}{"fused": len(fused)})
	selected := diversity.Select(fused, e.cfg.TargetResults, e.cfg.Lambda)

	e.transition(userID, StageGating, map[string]interface{}{"selected": len(selected)})
	gated, fellBack := gate.Apply(selected)
	if fellBack {
		e.log.Warn("engine", "Quality gate emptied the candidate set, returning low-confidence fallback", map[string]interface{}{
			"user_id":    userID.String(),
			"candidates": len(selected),
		})
	}

	e.transition(userID, StageSynthesizing, map[string]interface{}{"context_chunks": len(gated)})
	groundedContext := grounding.Assemble(gated)

	synthCtx := ctx
	if e.cfg.SynthesisTimeout > 0 {
		var cancel context.CancelFunc
		synthCtx, cancel = context.WithTimeout(ctx, e.cfg.SynthesisTimeout)
		defer cancel()
	}
	completion, err := e.synthesizer.Synthesize(synthCtx, groundedContext, query)
	if err != nil {
		e.transition(userID, StageError, map[string]interface{}{"stage": "synthesis", "error": err.Error()})
		return nil, err
	}

	e.transition(userID, StageFormatting, nil)
	docIDs := make([]uuid.UUID, 0, len(gated))
	seen := make(map[uuid.UUID]bool, len(gated))
	for _, c := range gated {
		if !seen[c.DocumentID] {
			seen[c.DocumentID] = true
			docIDs = append(docIDs, c.DocumentID)
		}
	}
	docs, err := e.corpus.Documents(ctx, docIDs)
	if err != nil {
		// Citations fall back to "Unknown Document"; the answer still stands.
		e.log.Warn("engine", "Document metadata lookup failed", map[string]interface{}{
			"error": err.Error(),
		})
		docs = map[uuid.UUID]retrieval.DocumentMeta{}
	}
	formatted := sources.Format(gated, docs)

	e.transition(userID, StageDone, map[string]interface{}{
		"sources":     len(formatted),
		"tokens_used": completion.TokensUsed,
	})

	return &retrieval.Result{
		Outcome:                retrieval.OutcomeAnswered,
		Answer:                 completion.Text,
		Sources:                formatted,
		TokensUsed:             completion.TokensUsed,
		TotalDocumentsSearched: docCount,
		Degraded:               queryVec == nil || usedKeyword,
	}, nil
}

func (e *Engine) transition(userID uuid.UUID, stage Stage, details map[string]interface{}) {
	if e.trace == nil {
		return
	}
	if details == nil {
		details = map[string]interface{}{}
	}
	details["user_id"] = userID.String()
	e.trace.Info("pipeline", string(stage), details)
}
