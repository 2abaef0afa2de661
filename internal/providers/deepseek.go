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

// DeepSeekProvider speaks the OpenAI-compatible chat-completions protocol:
// a flat messages list in, a nested choices/message/content structure out.
type DeepSeekProvider struct {
	cfg    config.ProviderSettings
	client *http.Client
}

func NewDeepSeekProvider(cfg config.ProviderSettings) *DeepSeekProvider {
	return &DeepSeekProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (d *DeepSeekProvider) info() ProviderInfo {
	return ProviderInfo{Name: "deepseek", Model: d.cfg.Model}
}

func (d *DeepSeekProvider) Generate(ctx context.Context, messages []prompt.Message) (string, ProviderInfo, error) {
	if d.cfg.APIKey == "" {
		return "", d.info(), fmt.Errorf("deepseek: %w", ErrMissingCredential)
	}
	req := prompt.AdaptForProvider("deepseek", messages)
	wireMessages := make([]map[string]string, 0, len(req.Messages))
	for _, m := range req.Messages {
		wireMessages = append(wireMessages, map[string]string{"role": m.Role, "content": m.Content})
	}
	payload, _ := json.Marshal(map[string]any{
		"model":       d.cfg.Model,
		"messages":    wireMessages,
		"temperature": d.cfg.Temperature,
		"max_tokens":  d.cfg.MaxTokens,
	})
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	httpReq.Header.Set("Authorization", "Bearer "+d.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return "", d.info(), fmt.Errorf("deepseek generate request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return "", d.info(), fmt.Errorf("deepseek generate error %d: %s", resp.StatusCode, string(body))
	}
	var parsed NestedChoice
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", d.info(), fmt.Errorf("decode deepseek response: %w", err)
	}
	text, ok := parsed.Extract()
	if !ok {
		return "", d.info(), fmt.Errorf("deepseek: %w", ErrEmptyResponse)
	}
	return strings.TrimSpace(text), d.info(), nil
}
