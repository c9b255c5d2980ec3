// Package sources formats the surviving chunks into citation entries for
// the API response.
package sources

import (
	"fmt"
	"math"

	"docquery-be/pkg/retrieval"

	"github.com/google/uuid"
)

const (
	// ExcerptLimit truncates citation excerpts.
	ExcerptLimit = 400
	// MaxSources is the presentation cap, distinct from the internal
	// ranking size.
	MaxSources = 8
)

// Format builds the citation list: titles resolved from the document map,
// excerpts truncated, confidence rounded, duplicates (same title, page and
// excerpt) removed, capped at MaxSources.
func Format(chunks []retrieval.ScoredChunk, docs map[uuid.UUID]retrieval.DocumentMeta) []retrieval.Source {
	seen := make(map[string]bool, len(chunks))
	formatted := make([]retrieval.Source, 0, len(chunks))

	for _, c := range chunks {
		title := "Unknown Document"
		url := ""
		if meta, ok := docs[c.DocumentID]; ok {
			title = meta.Title
			url = meta.URL
		}

		excerpt := truncate(c.Content, ExcerptLimit)

		key := dedupeKey(title, c.PageNumber, excerpt)
		if seen[key] {
			continue
		}
		seen[key] = true

		formatted = append(formatted, retrieval.Source{
			DocumentTitle: title,
			DocumentURL:   url,
			Excerpt:       excerpt,
			PageNumber:    c.PageNumber,
			SectionPath:   c.SectionPath,
			Confidence:    math.Round(c.Score*100) / 100,
			SearchMethod:  c.Method,
			Rank:          len(formatted) + 1,
		})

		if len(formatted) == MaxSources {
			break
		}
	}

	return formatted
}

// truncate counts runes, not bytes, so multibyte content is never cut
// mid-character.
func truncate(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "..."
}

func dedupeKey(title string, page *int, excerpt string) string {
	pageStr := "-"
	if page != nil {
		pageStr = fmt.Sprintf("%d", *page)
	}
	return title + "|" + pageStr + "|" + excerpt
}
