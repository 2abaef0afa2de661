package models

import "time"

type Requirement struct {
	ID        int       `json:"id"`
	Text      string    `json:"requirement"`
	Category  string    `json:"category"`
	RFPName   string    `json:"rfp_name,omitempty"`
	Uploader  string    `json:"uploader,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EmbeddingRecord is one entry of the reference corpus. Embedding is either
// absent (not yet computed) or exactly the configured dimensionality; rows
// without an embedding are excluded from similarity search.
type EmbeddingRecord struct {
	ID              int       `json:"id"`
	Category        string    `json:"category"`
	RequirementText string    `json:"requirement"`
	ResponseText    string    `json:"response"`
	Reference       string    `json:"reference,omitempty"`
	Payload         string    `json:"payload,omitempty"`
	Embedding       []float32 `json:"-"`
}

// SimilarityMatch is derived per retrieval call and only surfaced when its
// score passes the similarity threshold.
type SimilarityMatch struct {
	SourceID        int     `json:"id"`
	RequirementText string  `json:"requirement"`
	ResponseText    string  `json:"response"`
	Category        string  `json:"category"`
	Reference       string  `json:"reference"`
	Customer        string  `json:"customer,omitempty"`
	SimilarityScore float64 `json:"similarity_score"`
}

type ModelStatus string

const (
	StatusSuccess ModelStatus = "success"
	StatusError   ModelStatus = "error"
	StatusTimeout ModelStatus = "timeout"
)

// ModelResponse is the outcome of one provider generation attempt. Text is
// set only on success, ErrorDetail only otherwise. Elapsed is recorded
// regardless of outcome.
type ModelResponse struct {
	Provider    string        `json:"provider"`
	Model       string        `json:"model,omitempty"`
	Status      ModelStatus   `json:"status"`
	Text        string        `json:"text,omitempty"`
	ErrorDetail string        `json:"error,omitempty"`
	ErrorType   string        `json:"error_type,omitempty"`
	Elapsed     time.Duration `json:"elapsed_time"`
}

const (
	StrategySingleModel = "single-model"
	StrategySynthesized = "synthesized"
)

// SynthesizedResponse is the final RFP answer. FinalText is never empty when
// at least one provider succeeded; an all-fail run yields an error instead.
type SynthesizedResponse struct {
	FinalText             string            `json:"final_response"`
	ContributingProviders []string          `json:"contributing_providers"`
	UsedStrategy          string            `json:"used_strategy"`
	PerProviderText       map[string]string `json:"model_responses"`
	Metrics               GenerationMetrics `json:"metrics"`
}

type GenerationMetrics struct {
	TotalTime       time.Duration `json:"total_time"`
	ModelsAttempted int           `json:"models_attempted"`
	ModelsSucceeded int           `json:"models_succeeded"`
}
