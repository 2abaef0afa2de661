package providers

import (
	"context"

	"rfpgen/internal/prompt"
)

type ProviderInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

// LLMProvider is one concrete wire protocol. Implementations receive the
// role-tagged message sequence and are responsible for adapting it to their
// own request shape and decoding their own response shape.
type LLMProvider interface {
	Generate(ctx context.Context, messages []prompt.Message) (string, ProviderInfo, error)
}

type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, ProviderInfo, error)
}
