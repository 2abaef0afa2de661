package workflows

import (
	"context"
	"testing"

	"rfpgen/internal/activities"
	"rfpgen/internal/models"
	"rfpgen/internal/providers"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
)

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

func newGenerateEnv(t *testing.T) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(RequirementGenerateWorkflow)
	registerActivityName(env, "FindSimilarActivity", func(context.Context, activities.FindSimilarInput) (activities.FindSimilarOutput, error) {
		return activities.FindSimilarOutput{}, nil
	})
	registerActivityName(env, "GenerateDraftActivity", func(context.Context, activities.GenerateDraftInput) (activities.GenerateDraftOutput, error) {
		return activities.GenerateDraftOutput{}, nil
	})
	registerActivityName(env, "SynthesizeActivity", func(context.Context, activities.SynthesizeInput) (activities.SynthesizeOutput, error) {
		return activities.SynthesizeOutput{}, nil
	})
	registerActivityName(env, "SaveGenerationActivity", func(context.Context, activities.SaveGenerationInput) error { return nil })
	registerActivityName(env, "LogGenerationCallActivity", func(context.Context, activities.LogGenerationCallInput) error { return nil })
	return env
}

func findSimilarOutput() activities.FindSimilarOutput {
	return activities.FindSimilarOutput{
		Requirement: models.Requirement{ID: 12, Text: "Describe reporting", Category: "Reporting"},
		Matches: []models.SimilarityMatch{
			{SourceID: 1, RequirementText: "report support", ResponseText: "prior answer", SimilarityScore: 0.94},
		},
	}
}

func draftSuccess(provider, text string) activities.GenerateDraftOutput {
	return activities.GenerateDraftOutput{Response: models.ModelResponse{
		Provider: provider, Model: provider + "-model", Status: models.StatusSuccess, Text: text,
	}}
}

func draftFailure(provider string) activities.GenerateDraftOutput {
	return activities.GenerateDraftOutput{Response: models.ModelResponse{
		Provider: provider, Status: models.StatusError, ErrorDetail: "provider down", ErrorType: "permanent",
	}}
}

func TestRequirementGenerateWorkflowSynthesized(t *testing.T) {
	env := newGenerateEnv(t)
	env.OnActivity("FindSimilarActivity", mock.Anything, activities.FindSimilarInput{RequirementID: 12}).Return(findSimilarOutput(), nil)
	env.OnActivity("GenerateDraftActivity", mock.Anything, mock.MatchedBy(func(in activities.GenerateDraftInput) bool { return in.Provider == "openai" })).Return(draftSuccess("openai", "openai draft"), nil)
	env.OnActivity("GenerateDraftActivity", mock.Anything, mock.MatchedBy(func(in activities.GenerateDraftInput) bool { return in.Provider == "anthropic" })).Return(draftSuccess("anthropic", "anthropic draft"), nil)
	env.OnActivity("GenerateDraftActivity", mock.Anything, mock.MatchedBy(func(in activities.GenerateDraftInput) bool { return in.Provider == "deepseek" })).Return(draftSuccess("deepseek", "deepseek draft"), nil)
	env.OnActivity("SynthesizeActivity", mock.Anything, mock.MatchedBy(func(in activities.SynthesizeInput) bool {
		return in.Provider == "openai" && len(in.Outputs) == 3 && in.Outputs["anthropic"] == "anthropic draft"
	})).Return(activities.SynthesizeOutput{Response: models.ModelResponse{Provider: "openai", Status: models.StatusSuccess, Text: "FINAL synthesized"}}, nil)
	env.OnActivity("SaveGenerationActivity", mock.Anything, mock.MatchedBy(func(in activities.SaveGenerationInput) bool {
		return in.FinalText == "FINAL synthesized" && in.Strategy == models.StrategySynthesized && in.PerProviderText["deepseek"] == "deepseek draft"
	})).Return(nil)
	env.OnActivity("LogGenerationCallActivity", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(RequirementGenerateWorkflow, GenerateInput{RequirementID: 12})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out GenerateResult
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "completed", out.Status)
	require.Equal(t, "FINAL synthesized", out.FinalText)
	require.Equal(t, models.StrategySynthesized, out.UsedStrategy)
	require.Equal(t, []string{"openai", "anthropic", "deepseek"}, out.ContributingProviders)
	require.Equal(t, 3, out.ModelsAttempted)
	require.Equal(t, 3, out.ModelsSucceeded)
}

func TestRequirementGenerateWorkflowSingleSurvivor(t *testing.T) {
	env := newGenerateEnv(t)
	env.OnActivity("FindSimilarActivity", mock.Anything, mock.Anything).Return(findSimilarOutput(), nil)
	env.OnActivity("GenerateDraftActivity", mock.Anything, mock.MatchedBy(func(in activities.GenerateDraftInput) bool { return in.Provider == "openai" })).Return(draftFailure("openai"), nil)
	env.OnActivity("GenerateDraftActivity", mock.Anything, mock.MatchedBy(func(in activities.GenerateDraftInput) bool { return in.Provider == "anthropic" })).Return(draftSuccess("anthropic", "lone draft"), nil)
	env.OnActivity("GenerateDraftActivity", mock.Anything, mock.MatchedBy(func(in activities.GenerateDraftInput) bool { return in.Provider == "deepseek" })).Return(draftFailure("deepseek"), nil)
	env.OnActivity("SaveGenerationActivity", mock.Anything, mock.MatchedBy(func(in activities.SaveGenerationInput) bool {
		return in.FinalText == "lone draft" && in.Strategy == models.StrategySingleModel && in.ProviderUsed == "anthropic"
	})).Return(nil)
	env.OnActivity("LogGenerationCallActivity", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(RequirementGenerateWorkflow, GenerateInput{RequirementID: 12})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out GenerateResult
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "completed", out.Status)
	require.Equal(t, "lone draft", out.FinalText)
	require.Equal(t, models.StrategySingleModel, out.UsedStrategy)
	require.Equal(t, []string{"anthropic"}, out.ContributingProviders)
	env.AssertNotCalled(t, "SynthesizeActivity", mock.Anything, mock.Anything)
}

func TestRequirementGenerateWorkflowAllFail(t *testing.T) {
	env := newGenerateEnv(t)
	env.OnActivity("FindSimilarActivity", mock.Anything, mock.Anything).Return(findSimilarOutput(), nil)
	env.OnActivity("GenerateDraftActivity", mock.Anything, mock.Anything).Return(draftFailure("any"), nil)
	env.OnActivity("LogGenerationCallActivity", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(RequirementGenerateWorkflow, GenerateInput{RequirementID: 12})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out GenerateResult
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "failed", out.Status)
	require.Empty(t, out.FinalText)
	require.NotEmpty(t, out.FailReason)
	env.AssertNotCalled(t, "SynthesizeActivity", mock.Anything, mock.Anything)
	env.AssertNotCalled(t, "SaveGenerationActivity", mock.Anything, mock.Anything)
}

func TestRequirementGenerateWorkflowSynthesisFallsBack(t *testing.T) {
	env := newGenerateEnv(t)
	env.OnActivity("FindSimilarActivity", mock.Anything, mock.Anything).Return(findSimilarOutput(), nil)
	env.OnActivity("GenerateDraftActivity", mock.Anything, mock.MatchedBy(func(in activities.GenerateDraftInput) bool { return in.Provider == "openai" })).Return(draftFailure("openai"), nil)
	env.OnActivity("GenerateDraftActivity", mock.Anything, mock.MatchedBy(func(in activities.GenerateDraftInput) bool { return in.Provider == "anthropic" })).Return(draftSuccess("anthropic", "anthropic draft"), nil)
	env.OnActivity("GenerateDraftActivity", mock.Anything, mock.MatchedBy(func(in activities.GenerateDraftInput) bool { return in.Provider == "deepseek" })).Return(draftSuccess("deepseek", "deepseek draft"), nil)
	env.OnActivity("SynthesizeActivity", mock.Anything, mock.Anything).Return(activities.SynthesizeOutput{Response: models.ModelResponse{Provider: "openai", Status: models.StatusError, ErrorDetail: "synthesis down", ErrorType: "transient"}}, nil)
	env.OnActivity("SaveGenerationActivity", mock.Anything, mock.MatchedBy(func(in activities.SaveGenerationInput) bool {
		return in.FinalText == "anthropic draft" && in.Strategy == models.StrategySingleModel
	})).Return(nil)
	env.OnActivity("LogGenerationCallActivity", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(RequirementGenerateWorkflow, GenerateInput{RequirementID: 12})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out GenerateResult
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "completed", out.Status)
	require.Equal(t, "anthropic draft", out.FinalText)
	require.Equal(t, models.StrategySingleModel, out.UsedStrategy)
	require.Equal(t, []string{"anthropic"}, out.ContributingProviders)
}

func TestRequirementGenerateWorkflowPlaceholderOnlyFails(t *testing.T) {
	env := newGenerateEnv(t)
	env.OnActivity("FindSimilarActivity", mock.Anything, mock.Anything).Return(findSimilarOutput(), nil)
	env.OnActivity("GenerateDraftActivity", mock.Anything, mock.MatchedBy(func(in activities.GenerateDraftInput) bool { return in.Provider == "openai" })).Return(draftSuccess("openai", providers.EmptyResponsePlaceholder), nil)
	env.OnActivity("GenerateDraftActivity", mock.Anything, mock.MatchedBy(func(in activities.GenerateDraftInput) bool { return in.Provider == "anthropic" })).Return(draftFailure("anthropic"), nil)
	env.OnActivity("GenerateDraftActivity", mock.Anything, mock.MatchedBy(func(in activities.GenerateDraftInput) bool { return in.Provider == "deepseek" })).Return(draftFailure("deepseek"), nil)
	env.OnActivity("LogGenerationCallActivity", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(RequirementGenerateWorkflow, GenerateInput{RequirementID: 12})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out GenerateResult
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "failed", out.Status)
	require.Empty(t, out.FinalText)
	require.Zero(t, out.ModelsSucceeded)
	env.AssertNotCalled(t, "SynthesizeActivity", mock.Anything, mock.Anything)
	env.AssertNotCalled(t, "SaveGenerationActivity", mock.Anything, mock.Anything)
}

func TestRequirementGenerateWorkflowPlaceholderExcludedFromSynthesis(t *testing.T) {
	env := newGenerateEnv(t)
	env.OnActivity("FindSimilarActivity", mock.Anything, mock.Anything).Return(findSimilarOutput(), nil)
	env.OnActivity("GenerateDraftActivity", mock.Anything, mock.MatchedBy(func(in activities.GenerateDraftInput) bool { return in.Provider == "openai" })).Return(draftSuccess("openai", providers.EmptyResponsePlaceholder), nil)
	env.OnActivity("GenerateDraftActivity", mock.Anything, mock.MatchedBy(func(in activities.GenerateDraftInput) bool { return in.Provider == "anthropic" })).Return(draftSuccess("anthropic", "anthropic draft"), nil)
	env.OnActivity("GenerateDraftActivity", mock.Anything, mock.MatchedBy(func(in activities.GenerateDraftInput) bool { return in.Provider == "deepseek" })).Return(draftSuccess("deepseek", "deepseek draft"), nil)
	env.OnActivity("SynthesizeActivity", mock.Anything, mock.MatchedBy(func(in activities.SynthesizeInput) bool {
		_, hasOpenAI := in.Outputs["openai"]
		return len(in.Outputs) == 2 && !hasOpenAI
	})).Return(activities.SynthesizeOutput{Response: models.ModelResponse{Provider: "openai", Status: models.StatusSuccess, Text: "FINAL"}}, nil)
	env.OnActivity("SaveGenerationActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("LogGenerationCallActivity", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(RequirementGenerateWorkflow, GenerateInput{RequirementID: 12})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out GenerateResult
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "completed", out.Status)
	require.Equal(t, "FINAL", out.FinalText)
	require.Equal(t, []string{"anthropic", "deepseek"}, out.ContributingProviders)
	require.Equal(t, 2, out.ModelsSucceeded)
}

func TestRequirementGenerateWorkflowFallbackOutsideDefaultOrder(t *testing.T) {
	env := newGenerateEnv(t)
	env.OnActivity("FindSimilarActivity", mock.Anything, mock.Anything).Return(findSimilarOutput(), nil)
	env.OnActivity("GenerateDraftActivity", mock.Anything, mock.MatchedBy(func(in activities.GenerateDraftInput) bool { return in.Provider == "alpha" })).Return(draftSuccess("alpha", "alpha draft"), nil)
	env.OnActivity("GenerateDraftActivity", mock.Anything, mock.MatchedBy(func(in activities.GenerateDraftInput) bool { return in.Provider == "beta" })).Return(draftSuccess("beta", "beta draft"), nil)
	env.OnActivity("SynthesizeActivity", mock.Anything, mock.Anything).Return(activities.SynthesizeOutput{Response: models.ModelResponse{Provider: "alpha", Status: models.StatusError, ErrorDetail: "synthesis down", ErrorType: "transient"}}, nil)
	env.OnActivity("SaveGenerationActivity", mock.Anything, mock.MatchedBy(func(in activities.SaveGenerationInput) bool {
		return in.FinalText == "alpha draft" && in.Strategy == models.StrategySingleModel
	})).Return(nil)
	env.OnActivity("LogGenerationCallActivity", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(RequirementGenerateWorkflow, GenerateInput{RequirementID: 12, Providers: []string{"alpha", "beta"}, SynthesisProvider: "alpha"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out GenerateResult
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "completed", out.Status)
	require.Equal(t, "alpha draft", out.FinalText, "fallback must reach successes outside the default preference order")
	require.Equal(t, models.StrategySingleModel, out.UsedStrategy)
	require.Equal(t, []string{"alpha"}, out.ContributingProviders)
}

func TestContributorsInOrder(t *testing.T) {
	got := contributorsInOrder(map[string]string{"deepseek": "d", "openai": "o", "zed": "z"}, []string{"openai", "deepseek", "zed"})
	require.Equal(t, []string{"openai", "deepseek", "zed"}, got)

	custom := contributorsInOrder(map[string]string{"beta": "b", "alpha": "a"}, []string{"alpha", "beta"})
	require.Equal(t, []string{"alpha", "beta"}, custom)
}
