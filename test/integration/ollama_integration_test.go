package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"docquery-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
)

// Exercises the local Ollama backend end to end. Requires a running Ollama
// instance; set OLLAMA_INTEGRATION=true to enable.
func TestOllamaGenerate(t *testing.T) {
	if os.Getenv("OLLAMA_INTEGRATION") != "true" {
		t.Skip("Skipping integration test: OLLAMA_INTEGRATION not set")
	}

	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = "llama3"
	}

	provider := ollama.NewOllamaProvider(baseURL, model)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	completion, err := provider.Generate(ctx, "Reply with the single word: pong")
	assert.NoError(t, err)
	if assert.NotNil(t, completion) {
		assert.NotEmpty(t, completion.Text)
		t.Logf("Ollama replied (%d tokens): %s", completion.TokensUsed, completion.Text)
	}
}
