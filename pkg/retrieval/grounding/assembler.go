// Package grounding assembles the selected chunks into the context string
// handed to answer synthesis.
package grounding

import (
	"fmt"
	"sort"
	"strings"

	"docquery-be/pkg/retrieval"

	"github.com/google/uuid"
)

// MaxContextChars is a soft cap (~6000 tokens) so the assembled context
// stays inside downstream provider limits. Truncation happens at block
// boundaries, never mid-chunk.
const MaxContextChars = 24000

// Assemble groups chunks by document (first-appearance order), orders each
// group by page number ascending (missing page sorts as 0, chunk index
// breaks ties) and renders annotated blocks joined into one context string.
func Assemble(chunks []retrieval.ScoredChunk) string {
	if len(chunks) == 0 {
		return ""
	}

	var docOrder []uuid.UUID
	groups := make(map[uuid.UUID][]retrieval.ScoredChunk)
	for _, c := range chunks {
		if _, ok := groups[c.DocumentID]; !ok {
			docOrder = append(docOrder, c.DocumentID)
		}
		groups[c.DocumentID] = append(groups[c.DocumentID], c)
	}

	var sb strings.Builder
	for _, docID := range docOrder {
		group := groups[docID]
		sort.SliceStable(group, func(i, j int) bool {
			pi, pj := pageOrZero(group[i].PageNumber), pageOrZero(group[j].PageNumber)
			if pi != pj {
				return pi < pj
			}
			return group[i].ChunkIndex < group[j].ChunkIndex
		})

		for _, c := range group {
			block := renderBlock(c)
			if sb.Len() > 0 && sb.Len()+len(block) > MaxContextChars {
				return sb.String()
			}
			if sb.Len() > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(block)
		}
	}

	return sb.String()
}

func renderBlock(c retrieval.ScoredChunk) string {
	var tags []string
	if c.PageNumber != nil {
		tags = append(tags, fmt.Sprintf("(Page %d)", *c.PageNumber))
	}
	if c.SectionPath != "" {
		tags = append(tags, fmt.Sprintf("[%s]", c.SectionPath))
	}
	tags = append(tags, fmt.Sprintf("[%s, %.2f]", c.Method, c.Score))

	return strings.Join(tags, " ") + "\n" + c.Content
}

func pageOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
