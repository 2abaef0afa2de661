package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"rfpgen/internal/config"
	"rfpgen/internal/moa"
	"rfpgen/internal/providers"
	"rfpgen/internal/retriever"
	"rfpgen/internal/storage"
	"rfpgen/internal/util"
	"rfpgen/internal/vector"
	"rfpgen/internal/workflows"

	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

type Server struct {
	cfg             config.Config
	db              *storage.DB
	requirementRepo *storage.RequirementRepo
	embeddingRepo   *storage.EmbeddingRepo
	retriever       *retriever.Retriever
	orchestrator    *moa.Orchestrator
	temporal        tclient.Client
}

func NewServer(cfg config.Config, db *storage.DB, temporal tclient.Client) (*Server, error) {
	pm, err := providers.NewManager(cfg)
	if err != nil {
		return nil, err
	}
	gateway := providers.NewGateway(pm, providers.RetryPolicy{MaxAttempts: cfg.MaxAttempts}, cfg.ProviderTimeout)
	requirementRepo := storage.NewRequirementRepo(db)
	embeddingRepo := storage.NewEmbeddingRepo(db)
	ret := retriever.New(
		requirementRepo,
		embeddingRepo,
		vector.NewSearcher(db.Pool),
		pm.EmbedProvider(),
		retriever.Options{
			EmbedDim:  cfg.EmbedDim,
			Threshold: cfg.SimilarityThreshold,
			TopK:      cfg.RetrievalTopK,
			MaxTopK:   cfg.RetrievalMaxTopK,
		},
	)
	orchestrator := moa.New(gateway, moa.Options{
		SynthesisProvider: cfg.SynthesisProvider,
		FanoutBudget:      cfg.FanoutBudget,
	})
	return &Server{
		cfg:             cfg,
		db:              db,
		requirementRepo: requirementRepo,
		embeddingRepo:   embeddingRepo,
		retriever:       ret,
		orchestrator:    orchestrator,
		temporal:        temporal,
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/requirements/", s.handleRequirementScoped)
	mux.HandleFunc("/generations/", s.handleGenerationStatus)
	mux.HandleFunc("/embeddings/import", s.handleImportEmbeddings)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		writeErr(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleRequirementScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/requirements/"), "/"), "/")
	if len(parts) != 2 {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid requirement id %q", parts[0]))
		return
	}

	switch parts[1] {
	case "matches":
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		s.handleMatches(w, r, id)
	case "generate":
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		s.handleGenerate(w, r, id)
	case "responses":
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		s.handleStoredResponses(w, r, id)
	default:
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
	}
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request, id int) {
	result, err := s.retriever.FindSimilar(r.Context(), id)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"requirement":     result.Requirement,
		"similar_matches": result.Matches,
		"warning":         result.Warning,
	})
}

// handleStoredResponses reads back whatever generation last persisted for
// the requirement, without triggering any provider calls.
func (s *Server) handleStoredResponses(w http.ResponseWriter, r *http.Request, id int) {
	res, err := s.requirementRepo.GetGenerationResult(r.Context(), id)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"requirement_id": id,
		"model_responses": map[string]string{
			"openai":    res.OpenAIResponse,
			"anthropic": res.AnthropicResponse,
			"deepseek":  res.DeepSeekResponse,
		},
		"final_response": res.FinalResponse,
		"used_strategy":  res.Strategy,
		"provider_used":  res.ProviderUsed,
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request, id int) {
	if r.URL.Query().Get("sync") == "true" {
		s.handleGenerateSync(w, r, id)
		return
	}
	if s.temporal == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("workflow engine unavailable, retry with sync=true"))
		return
	}
	// The workflow id doubles as dedup: concurrent generate requests for
	// the same requirement share one run, while a finished requirement can
	// be regenerated.
	workflowID := fmt.Sprintf("generate-req-%d", id)
	run, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:                    workflowID,
		TaskQueue:             s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}, workflows.RequirementGenerateWorkflow, workflows.GenerateInput{
		RequirementID:     id,
		SynthesisProvider: s.cfg.SynthesisProvider,
	})
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"success":     true,
		"workflow_id": run.GetID(),
		"run_id":      run.GetRunID(),
	})
}

func (s *Server) handleGenerateSync(w http.ResponseWriter, r *http.Request, id int) {
	retrieval, err := s.retriever.FindSimilar(r.Context(), id)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	result, perProvider, err := s.orchestrator.Generate(r.Context(), retrieval.Requirement.Text, retrieval.Requirement.Category, retrieval.Matches)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	provider := ""
	if len(result.ContributingProviders) > 0 {
		provider = result.ContributingProviders[0]
	}
	if err := s.requirementRepo.SaveGenerationResult(r.Context(), id, storage.GenerationResult{
		OpenAIResponse:    result.PerProviderText["openai"],
		AnthropicResponse: result.PerProviderText["anthropic"],
		DeepSeekResponse:  result.PerProviderText["deepseek"],
		FinalResponse:     result.FinalText,
		Strategy:          result.UsedStrategy,
		ProviderUsed:      provider,
	}); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"result":           result,
		"provider_results": perProvider,
		"warning":          retrieval.Warning,
	})
}

func (s *Server) handleGenerationStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if s.temporal == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("workflow engine unavailable"))
		return
	}
	workflowID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/generations/"), "/")
	if workflowID == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	resp, err := s.temporal.QueryWorkflow(r.Context(), workflowID, "", workflows.QueryGetGenerateProgress)
	if err != nil {
		writeErr(w, http.StatusNotFound, fmt.Errorf("generation %s not found: %w", workflowID, err))
		return
	}
	var progress workflows.GenerateProgress
	if err := resp.Get(&progress); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "progress": progress})
}

func (s *Server) handleImportEmbeddings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		Records []struct {
			Category    string    `json:"category"`
			Requirement string    `json:"requirement"`
			Response    string    `json:"response"`
			Reference   string    `json:"reference"`
			Payload     string    `json:"payload"`
			Embedding   []float32 `json:"embedding"`
		} `json:"records"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	if len(req.Records) == 0 {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("records are required"))
		return
	}
	records := make([]storage.EmbeddingInput, 0, len(req.Records))
	for _, rec := range req.Records {
		if strings.TrimSpace(rec.Requirement) == "" {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("requirement text is required on every record"))
			return
		}
		if len(rec.Embedding) > 0 && len(rec.Embedding) != s.cfg.EmbedDim {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("embedding must have %d dimensions, got %d", s.cfg.EmbedDim, len(rec.Embedding)))
			return
		}
		records = append(records, storage.EmbeddingInput{
			Category:        rec.Category,
			RequirementText: rec.Requirement,
			ResponseText:    rec.Response,
			Reference:       rec.Reference,
			Payload:         rec.Payload,
			Embedding:       rec.Embedding,
		})
	}
	if err := s.embeddingRepo.InsertBatch(r.Context(), records); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "inserted": len(records)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, util.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, util.ErrInvalidVector):
		return http.StatusUnprocessableEntity
	case errors.Is(err, util.ErrEmbeddingProvider):
		return http.StatusBadGateway
	case errors.Is(err, util.ErrAllProvidersFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	msg := "request failed"
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, code, map[string]any{"success": false, "error": msg})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
