// Package sparse implements lexical retrieval: a full-text primary path
// backed by the corpus store, and an in-memory keyword fallback used when
// the store errors or returns nothing.
package sparse

import (
	"context"
	"sort"
	"strings"

	"docquery-be/internal/pkg/logger"
	"docquery-be/pkg/retrieval"

	"github.com/google/uuid"
)

const (
	// FullTextLimit caps the primary result pool.
	FullTextLimit = 30
	// FullTextScore is the uniform score for primary results. The text-search
	// engine yields relevance order but no comparable numeric score.
	FullTextScore = 0.8

	// Keyword fallback parameters.
	minTokenLength = 2    // tokens must be longer than this
	maxTokens      = 15   // only the first tokens count
	phraseBonus    = 0.3  // exact phrase present as substring
	keywordFloor   = 0.15 // keep chunks scoring above this
	keywordLimit   = 25
)

// Retriever runs the sparse path against a corpus accessor.
type Retriever struct {
	corpus retrieval.CorpusAccessor
	log    logger.ILogger
}

func NewRetriever(corpus retrieval.CorpusAccessor, log logger.ILogger) *Retriever {
	return &Retriever{
		corpus: corpus,
		log:    log,
	}
}

// Retrieve returns sparse-scored chunks and whether the keyword fallback was
// used. It never fails: a store error degrades to keyword scoring over the
// already-fetched corpus.
func (r *Retriever) Retrieve(ctx context.Context, userID uuid.UUID, rawQuery string, corpus []retrieval.Chunk) ([]retrieval.ScoredChunk, bool) {
	normalized := NormalizeQuery(rawQuery)

	rows, err := r.corpus.SearchFullText(ctx, userID, normalized, FullTextLimit)
	if err != nil {
		r.log.Warn("sparse", "Full-text search failed, falling back to keyword scoring", map[string]interface{}{
			"error": err.Error(),
		})
		return KeywordScore(normalized, corpus), true
	}
	if len(rows) == 0 {
		r.log.Warn("sparse", "Full-text search returned no rows, falling back to keyword scoring", map[string]interface{}{
			"user_id": userID.String(),
		})
		return KeywordScore(normalized, corpus), true
	}

	results := make([]retrieval.ScoredChunk, len(rows))
	for i, c := range rows {
		results[i] = retrieval.ScoredChunk{
			Chunk:  c,
			Score:  FullTextScore,
			Method: retrieval.MethodSparse,
		}
	}
	return results, false
}

// NormalizeQuery collapses whitespace, normalizes quote and apostrophe
// glyphs, and trims. Smart quotes from pasted text would otherwise defeat
// exact phrase matching.
func NormalizeQuery(query string) string {
	replacer := strings.NewReplacer(
		"‘", "'", // left single quote
		"’", "'", // right single quote
		"“", `"`, // left double quote
		"”", `"`, // right double quote
	)
	normalized := replacer.Replace(query)
	normalized = strings.Join(strings.Fields(normalized), " ")
	return strings.TrimSpace(normalized)
}

// Tokenize splits the normalized query into the scoring tokens: lowercase
// words longer than two characters, capped at the first fifteen.
func Tokenize(normalized string) []string {
	words := strings.Fields(strings.ToLower(normalized))
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) <= minTokenLength {
			continue
		}
		tokens = append(tokens, w)
		if len(tokens) == maxTokens {
			break
		}
	}
	return tokens
}

// KeywordScore is the fallback path: token overlap plus an exact-phrase
// bonus, thresholded and capped.
func KeywordScore(normalized string, corpus []retrieval.Chunk) []retrieval.ScoredChunk {
	tokens := Tokenize(normalized)
	if len(tokens) == 0 {
		return nil
	}
	phrase := strings.ToLower(normalized)

	var results []retrieval.ScoredChunk
	for _, c := range corpus {
		content := strings.ToLower(c.Content)

		matched := 0
		for _, t := range tokens {
			if strings.Contains(content, t) {
				matched++
			}
		}

		score := float64(matched) / float64(len(tokens))
		if strings.Contains(content, phrase) {
			score += phraseBonus
		}

		if score > keywordFloor {
			results = append(results, retrieval.ScoredChunk{
				Chunk:  c,
				Score:  score,
				Method: retrieval.MethodKeyword,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkIndex < results[j].ChunkIndex
	})

	if len(results) > keywordLimit {
		results = results[:keywordLimit]
	}
	return results
}
