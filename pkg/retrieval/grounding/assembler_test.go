package grounding

import (
	"strings"
	"testing"

	"docquery-be/pkg/retrieval"

	"github.com/google/uuid"
)

func intPtr(v int) *int { return &v }

func TestAssembleEmpty(t *testing.T) {
	if got := Assemble(nil); got != "" {
		t.Errorf("expected empty context, got %q", got)
	}
}

func TestAssembleGroupingAndPageOrder(t *testing.T) {
	docA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	docB := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	chunks := []retrieval.ScoredChunk{
		{Chunk: retrieval.Chunk{DocumentID: docA, ChunkIndex: 5, PageNumber: intPtr(9), Content: "late page"}, Score: 0.9, Method: retrieval.MethodHybrid},
		{Chunk: retrieval.Chunk{DocumentID: docB, ChunkIndex: 0, PageNumber: intPtr(1), Content: "other doc"}, Score: 0.8, Method: retrieval.MethodFusion},
		{Chunk: retrieval.Chunk{DocumentID: docA, ChunkIndex: 1, PageNumber: intPtr(2), Content: "early page"}, Score: 0.7, Method: retrieval.MethodHybrid},
	}

	got := Assemble(chunks)

	// Document A appeared first, so both its blocks come before document B,
	// ordered by page within the group.
	early := strings.Index(got, "early page")
	late := strings.Index(got, "late page")
	other := strings.Index(got, "other doc")
	if early == -1 || late == -1 || other == -1 {
		t.Fatalf("missing content in context: %q", got)
	}
	if !(early < late && late < other) {
		t.Errorf("expected doc A pages in order before doc B, got indexes %d %d %d", early, late, other)
	}
}

func TestAssembleMissingPageSortsFirst(t *testing.T) {
	doc := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	chunks := []retrieval.ScoredChunk{
		{Chunk: retrieval.Chunk{DocumentID: doc, ChunkIndex: 2, PageNumber: intPtr(3), Content: "paged chunk"}, Score: 0.9, Method: retrieval.MethodFusion},
		{Chunk: retrieval.Chunk{DocumentID: doc, ChunkIndex: 7, Content: "unpaged chunk"}, Score: 0.8, Method: retrieval.MethodFusion},
	}

	got := Assemble(chunks)
	if strings.Index(got, "unpaged chunk") > strings.Index(got, "paged chunk") {
		t.Errorf("missing page should sort as 0, got %q", got)
	}
}

func TestAssembleBlockAnnotations(t *testing.T) {
	doc := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	chunks := []retrieval.ScoredChunk{
		{
			Chunk: retrieval.Chunk{
				DocumentID:  doc,
				ChunkIndex:  0,
				PageNumber:  intPtr(4),
				SectionPath: "Returns > Policy",
				Content:     "Returns accepted within 30 days.",
			},
			Score:  0.873,
			Method: retrieval.MethodHybrid,
		},
	}

	got := Assemble(chunks)

	if !strings.Contains(got, "(Page 4)") {
		t.Errorf("missing page annotation: %q", got)
	}
	if !strings.Contains(got, "[Returns > Policy]") {
		t.Errorf("missing section annotation: %q", got)
	}
	if !strings.Contains(got, "[hybrid, 0.87]") {
		t.Errorf("missing method/score annotation: %q", got)
	}
	if !strings.HasSuffix(got, "\nReturns accepted within 30 days.") {
		t.Errorf("content should follow annotations on its own line: %q", got)
	}
}

func TestAssembleContextCap(t *testing.T) {
	doc := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	big := strings.Repeat("x", 9000)
	chunks := []retrieval.ScoredChunk{
		{Chunk: retrieval.Chunk{DocumentID: doc, ChunkIndex: 0, Content: big}, Score: 0.9, Method: retrieval.MethodFusion},
		{Chunk: retrieval.Chunk{DocumentID: doc, ChunkIndex: 1, Content: big}, Score: 0.8, Method: retrieval.MethodFusion},
		{Chunk: retrieval.Chunk{DocumentID: doc, ChunkIndex: 2, Content: big}, Score: 0.7, Method: retrieval.MethodFusion},
	}

	got := Assemble(chunks)

	if len(got) > MaxContextChars {
		t.Errorf("context exceeds cap: %d > %d", len(got), MaxContextChars)
	}
	// The third block would cross the cap, so truncation happens at the
	// block boundary: exactly two blocks survive.
	if n := strings.Count(got, "xxx"); got == "" || strings.Count(got, big) != 2 {
		t.Errorf("expected exactly 2 full blocks, matched %d", n)
	}
}
