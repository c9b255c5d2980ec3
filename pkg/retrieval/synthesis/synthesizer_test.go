package synthesis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docquery-be/pkg/llm"
	"docquery-be/pkg/retrieval"
)

type captureLLM struct {
	prompt string
	err    error
}

func (c *captureLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Completion, error) {
	return nil, nil
}

func (c *captureLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (*llm.Completion, error) {
	c.prompt = prompt
	if c.err != nil {
		return nil, c.err
	}
	return &llm.Completion{Text: "grounded answer", TokensUsed: 11}, nil
}

func TestSynthesize(t *testing.T) {
	model := &captureLLM{}
	s := NewSynthesizer(model)

	got, err := s.Synthesize(context.Background(), "(Page 1) [hybrid, 0.93]\nRefunds within 30 days.", "what is the refund policy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Text != "grounded answer" || got.TokensUsed != 11 {
		t.Errorf("completion not propagated: %+v", got)
	}

	for _, want := range []string{
		"<reference_material>",
		"Refunds within 30 days.",
		"<user_question>",
		"what is the refund policy",
		"ONLY the reference material",
	} {
		if !strings.Contains(model.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestSynthesizeProviderError(t *testing.T) {
	s := NewSynthesizer(&captureLLM{err: errors.New("model offline")})

	_, err := s.Synthesize(context.Background(), "context", "query")
	var synthErr *retrieval.SynthesisError
	if !errors.As(err, &synthErr) {
		t.Fatalf("expected SynthesisError, got %v", err)
	}
}
