package storage

import (
	"context"
	"errors"
	"fmt"

	"rfpgen/internal/vector"

	"github.com/jackc/pgx/v5"
)

type EmbeddingInput struct {
	Category        string
	RequirementText string
	ResponseText    string
	Reference       string
	Payload         string
	Embedding       []float32
}

type EmbeddingRepo struct {
	db *DB
}

func NewEmbeddingRepo(db *DB) *EmbeddingRepo {
	return &EmbeddingRepo{db: db}
}

// InsertBatch bulk-loads reference corpus rows. Rows without a vector are
// stored with a NULL embedding and stay invisible to similarity search until
// backfilled.
func (r *EmbeddingRepo) InsertBatch(ctx context.Context, records []EmbeddingInput) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx insert embeddings: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, rec := range records {
		var embedding *string
		if len(rec.Embedding) > 0 {
			lit := vector.ToLiteral(rec.Embedding)
			embedding = &lit
		}
		_, err := tx.Exec(ctx, `
INSERT INTO embeddings (category, requirement, response, reference, payload, embedding)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6::vector)`,
			rec.Category, rec.RequirementText, rec.ResponseText, rec.Reference, rec.Payload, embedding,
		)
		if err != nil {
			return fmt.Errorf("insert embedding for %q: %w", rec.RequirementText, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit embeddings tx: %w", err)
	}
	return nil
}

// LookupEmbeddingByText returns the stored vector for an exact requirement
// text match, or nil when no row matches. This is an opportunistic cache in
// front of the embedding provider; it never replaces the fresh-embed path.
func (r *EmbeddingRepo) LookupEmbeddingByText(ctx context.Context, text string) ([]float32, error) {
	var raw []float32
	err := r.db.Pool.QueryRow(ctx, `
SELECT embedding::real[]
FROM embeddings
WHERE requirement = $1 AND embedding IS NOT NULL
LIMIT 1`, text).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup embedding by text: %w", err)
	}
	return raw, nil
}

func (r *EmbeddingRepo) CountEmbedded(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM embeddings WHERE embedding IS NOT NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count embedded rows: %w", err)
	}
	return n, nil
}
