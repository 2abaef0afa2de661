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

// AnthropicProvider speaks the Messages API. The system instruction travels
// in its own request field, and the answer is a list of typed content blocks.
type AnthropicProvider struct {
	cfg    config.ProviderSettings
	client *http.Client
}

func NewAnthropicProvider(cfg config.ProviderSettings) *AnthropicProvider {
	return &AnthropicProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (a *AnthropicProvider) info() ProviderInfo {
	return ProviderInfo{Name: "anthropic", Model: a.cfg.Model}
}

func (a *AnthropicProvider) Generate(ctx context.Context, messages []prompt.Message) (string, ProviderInfo, error) {
	if a.cfg.APIKey == "" {
		return "", a.info(), fmt.Errorf("anthropic: %w", ErrMissingCredential)
	}
	req := prompt.AdaptForProvider("anthropic", messages)
	wireMessages := make([]map[string]string, 0, len(req.Messages))
	for _, m := range req.Messages {
		wireMessages = append(wireMessages, map[string]string{"role": m.Role, "content": m.Content})
	}
	payload, _ := json.Marshal(map[string]any{
		"model":       a.cfg.Model,
		"max_tokens":  a.cfg.MaxTokens,
		"temperature": a.cfg.Temperature,
		"system":      req.System,
		"messages":    wireMessages,
	})
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/messages", bytes.NewReader(payload))
	httpReq.Header.Set("x-api-key", a.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", a.info(), fmt.Errorf("anthropic generate request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return "", a.info(), fmt.Errorf("anthropic generate error %d: %s", resp.StatusCode, string(body))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return "", a.info(), fmt.Errorf("anthropic: %w", ErrEmptyResponse)
	}
	return strings.TrimSpace(NormalizeText(body)), a.info(), nil
}
