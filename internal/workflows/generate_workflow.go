package workflows

import (
	"time"

	"rfpgen/internal/activities"
	"rfpgen/internal/models"
	"rfpgen/internal/providers"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const QueryGetGenerateProgress = "GetGenerateProgress"

var fallbackOrder = []string{"openai", "anthropic", "deepseek"}

// RequirementGenerateWorkflow is the durable rendition of the MOA flow:
// retrieve similar matches, fan the draft generation out to every provider,
// synthesize the survivors, and persist the result. Draft activities carry
// their failures inside their outputs, so one provider going down never
// fails the workflow.
func RequirementGenerateWorkflow(ctx workflow.Context, input GenerateInput) (GenerateResult, error) {
	progress := GenerateProgress{
		RequirementID: input.RequirementID,
		Steps:         map[string]string{},
		PerProvider:   map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetGenerateProgress, func() (GenerateProgress, error) {
		return progress, nil
	}); err != nil {
		return GenerateResult{}, err
	}

	providerTimeout := 60 * time.Second
	if input.ProviderTimeout > 0 {
		providerTimeout = time.Duration(input.ProviderTimeout) * time.Second
	}
	providerNames := input.Providers
	if len(providerNames) == 0 {
		providerNames = fallbackOrder
	}
	synthesisProvider := input.SynthesisProvider
	if synthesisProvider == "" {
		synthesisProvider = "openai"
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	progress.CurrentStep = "find_similar"
	progress.Steps[progress.CurrentStep] = "processing"
	var similar activities.FindSimilarOutput
	if err := workflow.ExecuteActivity(ctx, "FindSimilarActivity", activities.FindSimilarInput{RequirementID: input.RequirementID}).Get(ctx, &similar); err != nil {
		progress.Steps[progress.CurrentStep] = "failed"
		return GenerateResult{}, err
	}
	progress.Steps[progress.CurrentStep] = "done"

	// FANOUT: one draft activity per provider, dispatched concurrently.
	// Each carries its own timeout; a timed-out or failed provider is
	// recorded and excluded, never propagated.
	progress.CurrentStep = "fanout"
	progress.Steps[progress.CurrentStep] = "processing"
	draftCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: providerTimeout + 10*time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	futures := make([]workflow.Future, 0, len(providerNames))
	for _, name := range providerNames {
		progress.PerProvider[name] = "processing"
		futures = append(futures, workflow.ExecuteActivity(draftCtx, "GenerateDraftActivity", activities.GenerateDraftInput{
			Provider:        name,
			RequirementText: similar.Requirement.Text,
			Category:        similar.Requirement.Category,
			Matches:         similar.Matches,
		}))
	}

	results := make(map[string]models.ModelResponse, len(providerNames))
	successes := make(map[string]string, len(providerNames))
	for i, f := range futures {
		name := providerNames[i]
		var out activities.GenerateDraftOutput
		if err := f.Get(ctx, &out); err != nil {
			results[name] = models.ModelResponse{Provider: name, Status: models.StatusTimeout, ErrorDetail: err.Error(), ErrorType: "timeout"}
			progress.PerProvider[name] = "timeout"
			logGenerationCall(ctx, input.RequirementID, results[name])
			continue
		}
		results[name] = out.Response
		progress.PerProvider[name] = string(out.Response.Status)
		// Placeholder text is a non-answer: the call succeeded on the wire
		// but produced nothing usable, so it stays out of synthesis.
		if out.Response.Status == models.StatusSuccess && out.Response.Text != "" && out.Response.Text != providers.EmptyResponsePlaceholder {
			successes[name] = out.Response.Text
		}
		logGenerationCall(ctx, input.RequirementID, out.Response)
	}
	progress.Steps[progress.CurrentStep] = "done"

	result := GenerateResult{
		RequirementID:   input.RequirementID,
		PerProviderText: perProviderText(providerNames, results),
		ModelsAttempted: len(providerNames),
		ModelsSucceeded: len(successes),
		Warning:         similar.Warning,
	}

	if len(successes) == 0 {
		result.Status = "failed"
		result.FailReason = "all providers failed to generate a response"
		return result, nil
	}

	if len(successes) == 1 {
		for name, text := range successes {
			result.FinalText = text
			result.ContributingProviders = []string{name}
		}
		result.UsedStrategy = models.StrategySingleModel
	} else {
		progress.CurrentStep = "synthesize"
		progress.Steps[progress.CurrentStep] = "processing"
		var synth activities.SynthesizeOutput
		err := workflow.ExecuteActivity(draftCtx, "SynthesizeActivity", activities.SynthesizeInput{
			Provider:        synthesisProvider,
			RequirementText: similar.Requirement.Text,
			Outputs:         successes,
		}).Get(ctx, &synth)
		if err == nil && synth.Response.Status == models.StatusSuccess && synth.Response.Text != "" {
			result.FinalText = synth.Response.Text
			result.UsedStrategy = models.StrategySynthesized
			result.ContributingProviders = contributorsInOrder(successes, providerNames)
			logGenerationCall(ctx, input.RequirementID, synth.Response)
			progress.Steps[progress.CurrentStep] = "done"
		} else {
			// Synthesis failure falls back to the best individual draft:
			// the fixed preference order first, then any remaining success
			// in configured order.
			for _, name := range append(append([]string{}, fallbackOrder...), providerNames...) {
				if text, ok := successes[name]; ok {
					result.FinalText = text
					result.UsedStrategy = models.StrategySingleModel
					result.ContributingProviders = []string{name}
					break
				}
			}
			progress.Steps[progress.CurrentStep] = "failed"
		}
	}

	progress.CurrentStep = "save"
	progress.Steps[progress.CurrentStep] = "processing"
	provider := ""
	if len(result.ContributingProviders) > 0 {
		provider = result.ContributingProviders[0]
	}
	if err := workflow.ExecuteActivity(ctx, "SaveGenerationActivity", activities.SaveGenerationInput{
		RequirementID:   input.RequirementID,
		PerProviderText: result.PerProviderText,
		FinalText:       result.FinalText,
		Strategy:        result.UsedStrategy,
		ProviderUsed:    provider,
	}).Get(ctx, nil); err != nil {
		progress.Steps[progress.CurrentStep] = "failed"
		return GenerateResult{}, err
	}
	progress.Steps[progress.CurrentStep] = "done"

	result.Status = "completed"
	return result, nil
}

// logGenerationCall records the audit row best-effort; audit failures never
// disturb the generation flow.
func logGenerationCall(ctx workflow.Context, requirementID int, res models.ModelResponse) {
	errType := ""
	if res.Status != models.StatusSuccess {
		errType = res.ErrorType
		if errType == "" {
			errType = string(res.Status)
		}
	}
	_ = workflow.ExecuteActivity(ctx, "LogGenerationCallActivity", activities.LogGenerationCallInput{
		RequirementID: requirementID,
		Provider:      res.Provider,
		Model:         res.Model,
		Status:        string(res.Status),
		ErrorType:     errType,
		ElapsedMillis: res.Elapsed.Milliseconds(),
	}).Get(ctx, nil)
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

// contributorsInOrder lists the successful providers: the fixed preference
// order first, then the rest in configured order. Map iteration never decides
// the order; workflow code must stay deterministic across replays.
func contributorsInOrder(successes map[string]string, providerNames []string) []string {
	out := make([]string, 0, len(successes))
	for _, name := range append(append([]string{}, fallbackOrder...), providerNames...) {
		if _, ok := successes[name]; !ok {
			continue
		}
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
