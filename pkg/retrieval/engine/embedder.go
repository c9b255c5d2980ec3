package engine

import (
	"context"
	"time"

	"docquery-be/internal/pkg/logger"
	"docquery-be/pkg/embedding"

	"github.com/patrickmn/go-cache"
)

// QueryEmbedder wraps the embedding provider so it can never fail the
// request: any provider error becomes a nil vector and the pipeline
// degrades to sparse-only retrieval.
type QueryEmbedder struct {
	provider embedding.EmbeddingProvider
	cache    *cache.Cache
	timeout  time.Duration
	log      logger.ILogger
}

func NewQueryEmbedder(provider embedding.EmbeddingProvider, timeout time.Duration, log logger.ILogger) *QueryEmbedder {
	// Repeated queries within a session are common; cache vectors briefly
	// to avoid duplicate provider calls.
	c := cache.New(10*time.Minute, 15*time.Minute)
	return &QueryEmbedder{
		provider: provider,
		cache:    c,
		timeout:  timeout,
		log:      log,
	}
}

// Embed returns the query vector or nil. It never returns an error.
func (e *QueryEmbedder) Embed(ctx context.Context, query string) []float32 {
	if x, found := e.cache.Get(query); found {
		return x.([]float32)
	}

	embedCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		embedCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	res, err := e.provider.Generate(embedCtx, query, "RETRIEVAL_QUERY")
	if err != nil {
		e.log.Warn("embedder", "Query embedding failed, degrading to sparse-only retrieval", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	if res == nil || len(res.Embedding.Values) == 0 {
		e.log.Warn("embedder", "Embedding provider returned an empty vector", nil)
		return nil
	}

	vec := res.Embedding.Values
	e.cache.Set(query, vec, cache.DefaultExpiration)
	return vec
}
