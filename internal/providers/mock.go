package providers

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"

	"rfpgen/internal/prompt"
)

// MockProvider produces deterministic output for tests and keyless
// development environments.
type MockProvider struct {
	dim int
}

func NewMockProvider(dim int) *MockProvider {
	if dim <= 0 {
		dim = 1536
	}
	return &MockProvider{dim: dim}
}

func (m *MockProvider) Generate(ctx context.Context, messages []prompt.Message) (string, ProviderInfo, error) {
	_ = ctx
	info := ProviderInfo{Name: "mock", Model: "mock-llm-v1"}
	for _, msg := range messages {
		if strings.Contains(msg.Content, "synthesize") || strings.Contains(msg.Content, "RESPONSE FROM MODEL") {
			return "Our platform consolidates the strongest elements of each source response into a single submission-ready answer.", info, nil
		}
	}
	return "Our platform addresses this requirement with capabilities drawn from prior responses (Source 1 - 95% similarity).", info, nil
}

func (m *MockProvider) Embed(ctx context.Context, text string) ([]float32, ProviderInfo, error) {
	_ = ctx
	info := ProviderInfo{Name: "mock", Model: fmt.Sprintf("mock-embed-%d", m.dim)}
	return deterministicVector(text, m.dim), info, nil
}

func deterministicVector(input string, dim int) []float32 {
	vec := make([]float32, dim)
	seed := []byte(input)
	if len(seed) == 0 {
		seed = []byte("empty")
	}
	for i := 0; i < dim; i++ {
		h := sha256.Sum256(append(seed, byte(i%251)))
		u := binary.BigEndian.Uint32(h[:4])
		vec[i] = float32(u%2000)/1000.0 - 1.0
	}
	return vec
}
