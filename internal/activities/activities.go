package activities

import (
	"context"

	"rfpgen/internal/config"
	"rfpgen/internal/prompt"
	"rfpgen/internal/providers"
	"rfpgen/internal/retriever"
	"rfpgen/internal/storage"
	"rfpgen/internal/vector"

	"github.com/google/uuid"
)

type Activities struct {
	cfg             config.Config
	requirementRepo *storage.RequirementRepo
	auditRepo       *storage.GenerationAuditRepo
	retriever       *retriever.Retriever
	gateway         *providers.Gateway
}

func New(cfg config.Config, db *storage.DB) (*Activities, error) {
	pm, err := providers.NewManager(cfg)
	if err != nil {
		return nil, err
	}
	gateway := providers.NewGateway(pm, providers.RetryPolicy{MaxAttempts: cfg.MaxAttempts}, cfg.ProviderTimeout)
	requirementRepo := storage.NewRequirementRepo(db)
	ret := retriever.New(
		requirementRepo,
		storage.NewEmbeddingRepo(db),
		vector.NewSearcher(db.Pool),
		pm.EmbedProvider(),
		retriever.Options{
			EmbedDim:  cfg.EmbedDim,
			Threshold: cfg.SimilarityThreshold,
			TopK:      cfg.RetrievalTopK,
			MaxTopK:   cfg.RetrievalMaxTopK,
		},
	)
	return &Activities{
		cfg:             cfg,
		requirementRepo: requirementRepo,
		auditRepo:       storage.NewGenerationAuditRepo(db),
		retriever:       ret,
		gateway:         gateway,
	}, nil
}

func (a *Activities) FindSimilarActivity(ctx context.Context, in FindSimilarInput) (FindSimilarOutput, error) {
	result, err := a.retriever.FindSimilar(ctx, in.RequirementID)
	if err != nil {
		return FindSimilarOutput{}, err
	}
	return FindSimilarOutput{
		Requirement: result.Requirement,
		Matches:     result.Matches,
		Warning:     result.Warning,
	}, nil
}

// GenerateDraftActivity never returns an error: provider failures come back
// status-tagged so the workflow can tolerate them and keep its siblings.
func (a *Activities) GenerateDraftActivity(ctx context.Context, in GenerateDraftInput) (GenerateDraftOutput, error) {
	messages := prompt.BuildGenerationPrompt(in.RequirementText, in.Category, in.Matches)
	return GenerateDraftOutput{Response: a.gateway.Invoke(ctx, in.Provider, messages)}, nil
}

func (a *Activities) SynthesizeActivity(ctx context.Context, in SynthesizeInput) (SynthesizeOutput, error) {
	messages := prompt.BuildSynthesisPrompt(in.RequirementText, in.Outputs)
	return SynthesizeOutput{Response: a.gateway.Invoke(ctx, in.Provider, messages)}, nil
}

func (a *Activities) SaveGenerationActivity(ctx context.Context, in SaveGenerationInput) error {
	return a.requirementRepo.SaveGenerationResult(ctx, in.RequirementID, storage.GenerationResult{
		OpenAIResponse:    in.PerProviderText["openai"],
		AnthropicResponse: in.PerProviderText["anthropic"],
		DeepSeekResponse:  in.PerProviderText["deepseek"],
		FinalResponse:     in.FinalText,
		Strategy:          in.Strategy,
		ProviderUsed:      in.ProviderUsed,
	})
}

func (a *Activities) LogGenerationCallActivity(ctx context.Context, in LogGenerationCallInput) error {
	if in.CallID == "" {
		in.CallID = uuid.NewString()
	}
	return a.auditRepo.Insert(ctx, storage.GenerationCallRecord{
		CallID:        in.CallID,
		RequirementID: in.RequirementID,
		Provider:      in.Provider,
		Model:         in.Model,
		Status:        in.Status,
		ErrorType:     in.ErrorType,
		ElapsedMillis: in.ElapsedMillis,
	})
}
