package retriever

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"rfpgen/internal/models"
	"rfpgen/internal/providers"
	"rfpgen/internal/util"
	"rfpgen/internal/vector"
)

// RequirementStore is the slice of the persistence adapter the retriever
// needs: requirement lookup plus the best-effort match snapshot write.
type RequirementStore interface {
	GetRequirement(ctx context.Context, id int) (models.Requirement, error)
	UpdateSimilarQuestions(ctx context.Context, id int, snapshotJSON string) error
}

// EmbeddingStore is the embedding side: an opportunistic exact-text vector
// cache plus the server-side nearest-neighbor search.
type EmbeddingStore interface {
	LookupEmbeddingByText(ctx context.Context, text string) ([]float32, error)
}

type Searcher interface {
	SearchSimilar(ctx context.Context, queryVec []float32, threshold float64, limit int) ([]models.SimilarityMatch, error)
}

type Options struct {
	EmbedDim  int
	Threshold float64
	TopK      int
	MaxTopK   int
}

type Retriever struct {
	requirements RequirementStore
	embeddings   EmbeddingStore
	searcher     Searcher
	embedder     providers.EmbeddingProvider
	opts         Options
}

func New(requirements RequirementStore, embeddings EmbeddingStore, searcher Searcher, embedder providers.EmbeddingProvider, opts Options) *Retriever {
	if opts.Threshold <= 0 {
		opts.Threshold = 0.90
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.MaxTopK <= 0 {
		opts.MaxTopK = 10
	}
	if opts.TopK > opts.MaxTopK {
		opts.TopK = opts.MaxTopK
	}
	return &Retriever{
		requirements: requirements,
		embeddings:   embeddings,
		searcher:     searcher,
		embedder:     embedder,
		opts:         opts,
	}
}

// Result is a successful retrieval. Warning is set when no match passed the
// threshold; that is a valid outcome for a requirement with no precedent,
// not an error.
type Result struct {
	Requirement models.Requirement       `json:"requirement"`
	Matches     []models.SimilarityMatch `json:"similar_matches"`
	Warning     string                   `json:"warning,omitempty"`
}

// FindSimilar retrieves the top-K reference matches for a requirement.
// An unknown id wraps util.ErrNotFound; an embedding failure wraps
// util.ErrEmbeddingProvider (fatal, nothing can be ranked without a query
// vector). The snapshot write at the end is best-effort and never affects
// the returned result.
func (r *Retriever) FindSimilar(ctx context.Context, requirementID int) (*Result, error) {
	req, err := r.requirements.GetRequirement(ctx, requirementID)
	if err != nil {
		return nil, err
	}

	queryVec, err := r.queryEmbedding(ctx, req.Text)
	if err != nil {
		return nil, err
	}
	queryVec, err = vector.Normalize(queryVec, r.opts.EmbedDim)
	if err != nil {
		return nil, err
	}

	matches, err := r.searcher.SearchSimilar(ctx, queryVec, r.opts.Threshold, r.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("similarity search for requirement %d: %w", requirementID, err)
	}

	result := &Result{Requirement: req, Matches: matches}
	if len(matches) == 0 {
		result.Warning = fmt.Sprintf("no matches at or above %.0f%% similarity", r.opts.Threshold*100)
		return result, nil
	}

	r.persistSnapshot(ctx, requirementID, matches)
	return result, nil
}

// queryEmbedding prefers a fresh embedding of the requirement text; the
// exact-text store lookup is only an opportunistic cache in front of it and
// never changes the ranking a fresh embed would produce.
func (r *Retriever) queryEmbedding(ctx context.Context, text string) ([]float32, error) {
	if cached, err := r.embeddings.LookupEmbeddingByText(ctx, text); err == nil && len(cached) > 0 {
		return cached, nil
	}
	vec, _, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrEmbeddingProvider, err)
	}
	return vec, nil
}

type snapshotEntry struct {
	Question        string `json:"question"`
	Response        string `json:"response"`
	Reference       string `json:"reference"`
	Customer        string `json:"customer"`
	SimilarityScore string `json:"similarity_score"`
}

func (r *Retriever) persistSnapshot(ctx context.Context, requirementID int, matches []models.SimilarityMatch) {
	entries := make([]snapshotEntry, 0, len(matches))
	for _, m := range matches {
		entries = append(entries, snapshotEntry{
			Question:        m.RequirementText,
			Response:        m.ResponseText,
			Reference:       m.Reference,
			Customer:        m.Customer,
			SimilarityScore: fmt.Sprintf("%.4f", m.SimilarityScore),
		})
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		log.Printf("marshal similar questions snapshot for %d: %v", requirementID, err)
		return
	}
	if err := r.requirements.UpdateSimilarQuestions(ctx, requirementID, string(raw)); err != nil {
		log.Printf("persist similar questions snapshot for %d: %v", requirementID, err)
	}
}
