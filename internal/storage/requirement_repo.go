package storage

import (
	"context"
	"errors"
	"fmt"

	"rfpgen/internal/models"
	"rfpgen/internal/util"

	"github.com/jackc/pgx/v5"
)

type RequirementRepo struct {
	db *DB
}

func NewRequirementRepo(db *DB) *RequirementRepo {
	return &RequirementRepo{db: db}
}

func (r *RequirementRepo) GetRequirement(ctx context.Context, id int) (models.Requirement, error) {
	var req models.Requirement
	err := r.db.Pool.QueryRow(ctx, `
SELECT id, requirement, COALESCE(category, ''), COALESCE(rfp_name, ''), COALESCE(uploader, ''), created_at
FROM excel_requirement_responses
WHERE id = $1`, id).Scan(&req.ID, &req.Text, &req.Category, &req.RFPName, &req.Uploader, &req.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Requirement{}, fmt.Errorf("requirement %d: %w", id, util.ErrNotFound)
	}
	if err != nil {
		return models.Requirement{}, fmt.Errorf("get requirement %d: %w", id, err)
	}
	return req, nil
}

// UpdateSimilarQuestions stores the retrieved-match snapshot for audit and
// caching. Callers treat a failure here as non-fatal; the retrieval result is
// already computed.
func (r *RequirementRepo) UpdateSimilarQuestions(ctx context.Context, id int, snapshotJSON string) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE excel_requirement_responses
SET similar_questions = $2
WHERE id = $1`, id, snapshotJSON)
	if err != nil {
		return fmt.Errorf("update similar questions for %d: %w", id, err)
	}
	return nil
}

type GenerationResult struct {
	OpenAIResponse    string
	AnthropicResponse string
	DeepSeekResponse  string
	FinalResponse     string
	Strategy          string
	ProviderUsed      string
}

// GetGenerationResult reads back the stored per-provider and final responses
// for a requirement. Columns are empty strings until generation has run.
func (r *RequirementRepo) GetGenerationResult(ctx context.Context, id int) (GenerationResult, error) {
	var res GenerationResult
	err := r.db.Pool.QueryRow(ctx, `
SELECT COALESCE(openai_response, ''),
       COALESCE(anthropic_response, ''),
       COALESCE(deepseek_response, ''),
       COALESCE(moa_response, ''),
       COALESCE(generation_strategy, ''),
       COALESCE(provider_used, '')
FROM excel_requirement_responses
WHERE id = $1`, id).Scan(&res.OpenAIResponse, &res.AnthropicResponse, &res.DeepSeekResponse, &res.FinalResponse, &res.Strategy, &res.ProviderUsed)
	if errors.Is(err, pgx.ErrNoRows) {
		return GenerationResult{}, fmt.Errorf("requirement %d: %w", id, util.ErrNotFound)
	}
	if err != nil {
		return GenerationResult{}, fmt.Errorf("get generation result for %d: %w", id, err)
	}
	return res, nil
}

// SaveGenerationResult overwrites any prior stored responses for the
// requirement. Re-running generation for the same id is idempotent.
func (r *RequirementRepo) SaveGenerationResult(ctx context.Context, id int, res GenerationResult) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE excel_requirement_responses
SET openai_response = $2,
    anthropic_response = $3,
    deepseek_response = $4,
    moa_response = $5,
    generation_strategy = $6,
    provider_used = $7,
    updated_at = NOW()
WHERE id = $1`, id, res.OpenAIResponse, res.AnthropicResponse, res.DeepSeekResponse, res.FinalResponse, res.Strategy, res.ProviderUsed)
	if err != nil {
		return fmt.Errorf("save generation result for %d: %w", id, err)
	}
	return nil
}
