package activities

import "rfpgen/internal/models"

type FindSimilarInput struct {
	RequirementID int `json:"requirement_id"`
}

type FindSimilarOutput struct {
	Requirement models.Requirement       `json:"requirement"`
	Matches     []models.SimilarityMatch `json:"similar_matches"`
	Warning     string                   `json:"warning,omitempty"`
}

type GenerateDraftInput struct {
	Provider        string                   `json:"provider"`
	RequirementText string                   `json:"requirement"`
	Category        string                   `json:"category"`
	Matches         []models.SimilarityMatch `json:"similar_matches"`
}

type GenerateDraftOutput struct {
	Response models.ModelResponse `json:"response"`
}

type SynthesizeInput struct {
	Provider        string            `json:"provider"`
	RequirementText string            `json:"requirement"`
	Outputs         map[string]string `json:"outputs"`
}

type SynthesizeOutput struct {
	Response models.ModelResponse `json:"response"`
}

type SaveGenerationInput struct {
	RequirementID   int               `json:"requirement_id"`
	PerProviderText map[string]string `json:"model_responses"`
	FinalText       string            `json:"final_response"`
	Strategy        string            `json:"used_strategy"`
	ProviderUsed    string            `json:"provider_used"`
}

type LogGenerationCallInput struct {
	CallID        string `json:"call_id"`
	RequirementID int    `json:"requirement_id"`
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	Status        string `json:"status"`
	ErrorType     string `json:"error_type,omitempty"`
	ElapsedMillis int64  `json:"elapsed_ms"`
}
