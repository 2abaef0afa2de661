package providers

import (
	"fmt"
	"strings"

	"rfpgen/internal/config"
)

type namedLLMProvider struct {
	ref      ProviderRef
	provider LLMProvider
}

// Manager owns the configured provider set. Providers are constructed once,
// from explicit settings, and looked up by name at call time.
type Manager struct {
	llmProviders   []namedLLMProvider
	embedProviders []EmbeddingProvider
}

func NewManager(cfg config.Config) (*Manager, error) {
	m := &Manager{}
	for _, ref := range ParseProviderList(cfg.LLMProviders) {
		p, err := buildLLMProvider(ref, cfg)
		if err != nil {
			return nil, err
		}
		m.llmProviders = append(m.llmProviders, namedLLMProvider{ref: ref, provider: p})
	}
	for _, ref := range ParseProviderList(cfg.EmbedProviders) {
		p, err := buildEmbeddingProvider(ref, cfg)
		if err != nil {
			return nil, err
		}
		m.embedProviders = append(m.embedProviders, p)
	}
	if len(m.llmProviders) == 0 {
		m.llmProviders = append(m.llmProviders, namedLLMProvider{ref: ProviderRef{Raw: "mock", Name: "mock"}, provider: NewMockProvider(cfg.EmbedDim)})
	}
	if len(m.embedProviders) == 0 {
		m.embedProviders = append(m.embedProviders, NewMockProvider(cfg.EmbedDim))
	}
	return m, nil
}

// NewManagerWithProviders wires explicit provider implementations, used by
// tests to stub the gateway.
func NewManagerWithProviders(llm map[string]LLMProvider, order []string, embed EmbeddingProvider) *Manager {
	m := &Manager{}
	for _, name := range order {
		m.llmProviders = append(m.llmProviders, namedLLMProvider{ref: ProviderRef{Raw: name, Name: name}, provider: llm[name]})
	}
	if embed != nil {
		m.embedProviders = append(m.embedProviders, embed)
	}
	return m
}

func (m *Manager) LLMProviderByName(name string) (LLMProvider, bool) {
	target := strings.ToLower(strings.TrimSpace(name))
	for i := range m.llmProviders {
		if strings.ToLower(m.llmProviders[i].ref.Name) == target {
			return m.llmProviders[i].provider, true
		}
	}
	return nil, false
}

// ProviderNames returns the configured providers in configuration order,
// which is also the fallback preference order.
func (m *Manager) ProviderNames() []string {
	out := make([]string, 0, len(m.llmProviders))
	for i := range m.llmProviders {
		out = append(out, strings.ToLower(m.llmProviders[i].ref.Name))
	}
	return out
}

func (m *Manager) EmbedProvider() EmbeddingProvider {
	return m.embedProviders[0]
}

func buildLLMProvider(ref ProviderRef, cfg config.Config) (LLMProvider, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(cfg.EmbedDim), nil
	case "openai":
		return NewOpenAIProvider(cfg.ProviderSettingsFor("openai", ref.KeyAlias)), nil
	case "anthropic":
		return NewAnthropicProvider(cfg.ProviderSettingsFor("anthropic", ref.KeyAlias)), nil
	case "deepseek":
		return NewDeepSeekProvider(cfg.ProviderSettingsFor("deepseek", ref.KeyAlias)), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", ref.Name)
	}
}

func buildEmbeddingProvider(ref ProviderRef, cfg config.Config) (EmbeddingProvider, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(cfg.EmbedDim), nil
	case "openai":
		return NewOpenAIEmbeddingProvider(cfg.EmbedSettingsFor("openai", ref.KeyAlias)), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", ref.Name)
	}
}
