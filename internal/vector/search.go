package vector

import (
	"context"
	"fmt"

	"rfpgen/internal/models"

	"github.com/jackc/pgx/v5"
)

type Searcher struct {
	q Queryer
}

type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func NewSearcher(q Queryer) *Searcher {
	return &Searcher{q: q}
}

// SearchSimilar runs the nearest-neighbor scan server-side: the score is
// cosine similarity (1 - cosine distance), rows without an embedding are
// excluded, sub-threshold rows are filtered in SQL, and ties on score break
// by ascending id so rankings are deterministic.
func (s *Searcher) SearchSimilar(ctx context.Context, queryVec []float32, threshold float64, limit int) ([]models.SimilarityMatch, error) {
	if limit <= 0 {
		limit = 5
	}
	vecLiteral := ToLiteral(queryVec)

	query := `
SELECT e.id,
       e.requirement,
       e.response,
       COALESCE(e.category, '') AS category,
       COALESCE(e.reference, '') AS reference,
       COALESCE(e.payload, '') AS payload,
       1 - (e.embedding <=> $1::vector) AS similarity_score
FROM embeddings e
WHERE e.embedding IS NOT NULL
  AND 1 - (e.embedding <=> $1::vector) >= $2
ORDER BY e.embedding <=> $1::vector, e.id ASC
LIMIT $3`

	rows, err := s.q.Query(ctx, query, vecLiteral, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("query vector search: %w", err)
	}
	defer rows.Close()

	matches := make([]models.SimilarityMatch, 0, limit)
	for rows.Next() {
		var m models.SimilarityMatch
		var payload string
		if err := rows.Scan(&m.SourceID, &m.RequirementText, &m.ResponseText, &m.Category, &m.Reference, &payload, &m.SimilarityScore); err != nil {
			return nil, fmt.Errorf("scan similarity match: %w", err)
		}
		m.Customer = ResolveCustomer(m.Reference, m.Category, payload)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return matches, nil
}
