package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"rfpgen/internal/config"
	"rfpgen/internal/prompt"
)

// OpenAIProvider speaks the Responses API: the whole prompt goes out as one
// structured input string and the answer comes back as output_text or a
// list of output content blocks.
type OpenAIProvider struct {
	cfg    config.ProviderSettings
	client *http.Client
}

func NewOpenAIProvider(cfg config.ProviderSettings) *OpenAIProvider {
	return &OpenAIProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (o *OpenAIProvider) info() ProviderInfo {
	return ProviderInfo{Name: "openai", Model: o.cfg.Model}
}

func (o *OpenAIProvider) Generate(ctx context.Context, messages []prompt.Message) (string, ProviderInfo, error) {
	if o.cfg.APIKey == "" {
		return "", o.info(), fmt.Errorf("openai: %w", ErrMissingCredential)
	}
	req := prompt.AdaptForProvider("openai", messages)
	payload, _ := json.Marshal(map[string]any{
		"model":             o.cfg.Model,
		"input":             req.Input,
		"temperature":       o.cfg.Temperature,
		"max_output_tokens": o.cfg.MaxTokens,
	})
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/responses", bytes.NewReader(payload))
	httpReq.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", o.info(), fmt.Errorf("openai generate request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return "", o.info(), fmt.Errorf("openai generate error %d: %s", resp.StatusCode, string(body))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return "", o.info(), fmt.Errorf("openai: %w", ErrEmptyResponse)
	}
	return strings.TrimSpace(NormalizeText(body)), o.info(), nil
}

// OpenAIEmbeddingProvider returns fixed-dimensionality vectors from the
// embeddings endpoint.
type OpenAIEmbeddingProvider struct {
	cfg    config.ProviderSettings
	client *http.Client
}

func NewOpenAIEmbeddingProvider(cfg config.ProviderSettings) *OpenAIEmbeddingProvider {
	return &OpenAIEmbeddingProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (o *OpenAIEmbeddingProvider) Embed(ctx context.Context, text string) ([]float32, ProviderInfo, error) {
	info := ProviderInfo{Name: "openai", Model: o.cfg.Model}
	if o.cfg.APIKey == "" {
		return nil, info, fmt.Errorf("openai embeddings: %w", ErrMissingCredential)
	}
	payload, _ := json.Marshal(map[string]any{"model": o.cfg.Model, "input": text})
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/embeddings", bytes.NewReader(payload))
	httpReq.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, info, fmt.Errorf("openai embedding request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, info, fmt.Errorf("openai embedding error %d: %s", resp.StatusCode, string(body))
	}
	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, info, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, info, fmt.Errorf("openai embeddings: %w", ErrEmptyResponse)
	}
	return parsed.Data[0].Embedding, info, nil
}
