package workflows

type GenerateInput struct {
	RequirementID     int      `json:"requirement_id"`
	Providers         []string `json:"providers,omitempty"`
	SynthesisProvider string   `json:"synthesis_provider,omitempty"`
	ProviderTimeout   int      `json:"provider_timeout_seconds,omitempty"`
}

type GenerateResult struct {
	RequirementID         int               `json:"requirement_id"`
	Status                string            `json:"status"`
	FinalText             string            `json:"final_response,omitempty"`
	UsedStrategy          string            `json:"used_strategy,omitempty"`
	ContributingProviders []string          `json:"contributing_providers,omitempty"`
	PerProviderText       map[string]string `json:"model_responses,omitempty"`
	ModelsAttempted       int               `json:"models_attempted"`
	ModelsSucceeded       int               `json:"models_succeeded"`
	FailReason            string            `json:"fail_reason,omitempty"`
	Warning               string            `json:"warning,omitempty"`
}

type GenerateProgress struct {
	RequirementID int               `json:"requirement_id"`
	CurrentStep   string            `json:"current_step"`
	Steps         map[string]string `json:"steps"`
	PerProvider   map[string]string `json:"per_provider_status"`
}
