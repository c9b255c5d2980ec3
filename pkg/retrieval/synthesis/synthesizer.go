// Package synthesis turns the assembled context and the user query into a
// grounded answer via the LLM provider.
package synthesis

import (
	"context"
	"strings"

	"docquery-be/pkg/llm"
	"docquery-be/pkg/retrieval"
)

// Synthesizer wraps the LLM provider. A provider failure here is fatal for
// the request: fabricating a partial answer would break grounding.
type Synthesizer struct {
	provider llm.LLMProvider
}

func NewSynthesizer(provider llm.LLMProvider) *Synthesizer {
	return &Synthesizer{provider: provider}
}

// Synthesize asks the model to answer strictly from the grounded context.
func (s *Synthesizer) Synthesize(ctx context.Context, groundedContext, query string) (*llm.Completion, error) {
	prompt := buildPrompt(groundedContext, query)

	completion, err := s.provider.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil {
		return nil, &retrieval.SynthesisError{Err: err}
	}
	return completion, nil
}

// buildPrompt creates the strict grounding prompt.
func buildPrompt(groundedContext, query string) string {
	var prompt strings.Builder

	prompt.WriteString("<reference_material>\n")
	prompt.WriteString(groundedContext)
	prompt.WriteString("\n</reference_material>\n\n")

	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a knowledgeable assistant answering questions about the user's documents.\n")
	prompt.WriteString("Answer using ONLY the reference material above.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Base your answer strictly on the reference material provided\n")
	prompt.WriteString("2. Cite page numbers when the material includes them, e.g. (Page 3)\n")
	prompt.WriteString("3. If the material does not contain the answer, say so explicitly instead of inventing facts\n")
	prompt.WriteString("4. Be complete - don't skip relevant information from the material\n")
	prompt.WriteString("5. Be clear and well-organized in your presentation\n")
	prompt.WriteString("</guidelines>\n\n")

	prompt.WriteString("<user_question>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</user_question>\n\n")
	prompt.WriteString("Now provide your complete answer based on the reference material:")

	return prompt.String()
}
