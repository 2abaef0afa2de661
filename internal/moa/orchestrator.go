// Package moa runs the mixture-of-agents generation flow: fan the same
// logical request out to every configured provider, tolerate individual
// failures, and synthesize one response from the survivors.
package moa

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rfpgen/internal/models"
	"rfpgen/internal/prompt"
	"rfpgen/internal/providers"
	"rfpgen/internal/util"
)

// Gateway is the invocation surface the orchestrator needs; satisfied by
// providers.Gateway and by test stubs.
type Gateway interface {
	Invoke(ctx context.Context, provider string, messages []prompt.Message) models.ModelResponse
	Providers() []string
}

type Options struct {
	// SynthesisProvider performs the synthesis call. Defaults to openai.
	SynthesisProvider string
	// FallbackOrder is the preference order when synthesis fails or only
	// one provider succeeded. Defaults to openai, anthropic, deepseek.
	FallbackOrder []string
	// FanoutBudget bounds the whole fan-out phase. Calls still running at
	// the deadline are recorded as timeouts and excluded from synthesis.
	FanoutBudget time.Duration
}

type Orchestrator struct {
	gateway Gateway
	opts    Options
}

func New(gateway Gateway, opts Options) *Orchestrator {
	if opts.SynthesisProvider == "" {
		opts.SynthesisProvider = "openai"
	}
	if len(opts.FallbackOrder) == 0 {
		opts.FallbackOrder = []string{"openai", "anthropic", "deepseek"}
	}
	return &Orchestrator{gateway: gateway, opts: opts}
}

// Generate runs the full fan-out / evaluate / synthesize state machine.
// It returns util.ErrAllProvidersFailed when no provider produced output;
// no fabricated text is ever returned.
func (o *Orchestrator) Generate(ctx context.Context, requirementText, category string, matches []models.SimilarityMatch) (*models.SynthesizedResponse, map[string]models.ModelResponse, error) {
	start := time.Now()
	messages := prompt.BuildGenerationPrompt(requirementText, category, matches)
	names := o.gateway.Providers()

	fanoutCtx := ctx
	var cancel context.CancelFunc
	if o.opts.FanoutBudget > 0 {
		fanoutCtx, cancel = context.WithTimeout(ctx, o.opts.FanoutBudget)
		defer cancel()
	}

	// FANOUT: each provider call is independent; a failure or timeout in
	// one never cancels its siblings.
	var (
		mu      sync.Mutex
		results = make(map[string]models.ModelResponse, len(names))
		wg      sync.WaitGroup
	)
	for _, name := range names {
		wg.Add(1)
		go func(provider string) {
			defer wg.Done()
			res := o.gateway.Invoke(fanoutCtx, provider, messages)
			mu.Lock()
			results[provider] = res
			mu.Unlock()
		}(name)
	}
	wg.Wait()

	// EVALUATE: partition into successes and failures.
	successes := make(map[string]string, len(results))
	for name, res := range results {
		if res.Status == models.StatusSuccess && res.Text != "" && res.Text != providers.EmptyResponsePlaceholder {
			successes[name] = res.Text
		}
	}

	metrics := models.GenerationMetrics{
		ModelsAttempted: len(names),
		ModelsSucceeded: len(successes),
	}

	if len(successes) == 0 {
		metrics.TotalTime = time.Since(start)
		return nil, results, fmt.Errorf("%w: %d providers attempted", util.ErrAllProvidersFailed, len(names))
	}

	out := &models.SynthesizedResponse{
		PerProviderText: perProviderText(names, results),
		Metrics:         metrics,
	}

	if len(successes) == 1 {
		// Single survivor: its text is returned verbatim, no synthesis call.
		for name, text := range successes {
			out.FinalText = text
			out.ContributingProviders = []string{name}
		}
		out.UsedStrategy = models.StrategySingleModel
		out.Metrics.TotalTime = time.Since(start)
		return out, results, nil
	}

	// SYNTHESIZE over the successful outputs only.
	synthesisMessages := prompt.BuildSynthesisPrompt(requirementText, successes)
	synthesis := o.gateway.Invoke(ctx, o.opts.SynthesisProvider, synthesisMessages)
	if synthesis.Status == models.StatusSuccess && synthesis.Text != "" && synthesis.Text != providers.EmptyResponsePlaceholder {
		out.FinalText = synthesis.Text
		out.UsedStrategy = models.StrategySynthesized
		out.ContributingProviders = sortedContributors(successes, o.opts.FallbackOrder)
		out.Metrics.TotalTime = time.Since(start)
		return out, results, nil
	}

	// Synthesis failed: fall back to the best individual output by fixed
	// preference order rather than surfacing the synthesis error.
	for _, name := range o.opts.FallbackOrder {
		if text, ok := successes[name]; ok {
			out.FinalText = text
			out.UsedStrategy = models.StrategySingleModel
			out.ContributingProviders = []string{name}
			out.Metrics.TotalTime = time.Since(start)
			return out, results, nil
		}
	}
	for name, text := range successes {
		out.FinalText = text
		out.UsedStrategy = models.StrategySingleModel
		out.ContributingProviders = []string{name}
		break
	}
	out.Metrics.TotalTime = time.Since(start)
	return out, results, nil
}

func perProviderText(names []string, results map[string]models.ModelResponse) map[string]string {
	out := make(map[string]string, len(names))
	for _, name := range names {
		res, ok := results[name]
		if !ok || res.Status != models.StatusSuccess {
			out[name] = ""
			continue
		}
		out[name] = res.Text
	}
	return out
}

func sortedContributors(successes map[string]string, order []string) []string {
	out := make([]string, 0, len(successes))
	for _, name := range order {
		if _, ok := successes[name]; ok {
			out = append(out, name)
		}
	}
	for name := range successes {
		seen := false
		for _, n := range out {
			if n == name {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, name)
		}
	}
	return out
}
