package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rfpgen/internal/models"
	"rfpgen/internal/prompt"
)

// EmptyResponsePlaceholder is returned as the text of a call that succeeded
// on the wire but produced nothing after trimming. It is a non-exceptional
// sentinel: orchestration keeps the call out of synthesis inputs without
// treating the provider as failed.
const EmptyResponsePlaceholder = "No usable response content was produced for this requirement."

// RetryPolicy is the single retry configuration for all provider calls.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Gateway is the uniform invocation layer over the configured LLM
// providers. Per-provider failures are converted to status-tagged
// ModelResponse values; they never escape Invoke as errors.
type Gateway struct {
	manager *Manager
	retry   RetryPolicy
	timeout time.Duration
	sleep   func(time.Duration)
}

func NewGateway(manager *Manager, retry RetryPolicy, perCallTimeout time.Duration) *Gateway {
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 1
	}
	if retry.Backoff <= 0 {
		retry.Backoff = 2 * time.Second
	}
	return &Gateway{
		manager: manager,
		retry:   retry,
		timeout: perCallTimeout,
		sleep:   time.Sleep,
	}
}

func (g *Gateway) Providers() []string {
	return g.manager.ProviderNames()
}

// Invoke runs one generation call against the named provider, recording
// elapsed wall-clock time on every outcome. Missing configuration fails
// fast without a network attempt; transient failures are retried under the
// gateway's single retry policy.
func (g *Gateway) Invoke(ctx context.Context, provider string, messages []prompt.Message) models.ModelResponse {
	provider = strings.ToLower(strings.TrimSpace(provider))
	start := time.Now()

	p, ok := g.manager.LLMProviderByName(provider)
	if !ok {
		return models.ModelResponse{
			Provider:    provider,
			Status:      models.StatusError,
			ErrorDetail: fmt.Sprintf("provider %q not configured", provider),
			ErrorType:   string(ErrorConfiguration),
			Elapsed:     time.Since(start),
		}
	}

	var (
		text string
		info ProviderInfo
		err  error
	)
	for attempt := 1; attempt <= g.retry.MaxAttempts; attempt++ {
		callCtx := ctx
		var cancel context.CancelFunc
		if g.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		}
		text, info, err = p.Generate(callCtx, messages)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			break
		}
		kind := ClassifyError(err)
		if !Retryable(kind) || attempt == g.retry.MaxAttempts || ctx.Err() != nil {
			break
		}
		g.sleep(g.retry.Backoff * time.Duration(attempt))
	}
	elapsed := time.Since(start)

	if err != nil {
		kind := ClassifyError(err)
		status := models.StatusError
		if kind == ErrorTimeout || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			status = models.StatusTimeout
			kind = ErrorTimeout
		}
		return models.ModelResponse{
			Provider:    provider,
			Model:       info.Model,
			Status:      status,
			ErrorDetail: err.Error(),
			ErrorType:   string(kind),
			Elapsed:     elapsed,
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		text = EmptyResponsePlaceholder
	}
	return models.ModelResponse{
		Provider: provider,
		Model:    info.Model,
		Status:   models.StatusSuccess,
		Text:     text,
		Elapsed:  elapsed,
	}
}
