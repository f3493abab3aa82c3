package vector

import (
	"context"
	"fmt"

	"docrag/internal/models"

	"github.com/jackc/pgx/v5"
)

const DefaultTopK = 4

type Searcher struct {
	q Queryer
}

type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func NewSearcher(q Queryer) *Searcher {
	return &Searcher{q: q}
}

const nearestSQL = `
SELECT c.id::text,
       c.document_id::text,
       c.page_number,
       c.chunk_index,
       c.text,
       d.filename,
       (e.vector <=> $1::vector) AS distance
FROM embeddings e
JOIN chunks c ON c.id = e.chunk_id
JOIN documents d ON d.id = c.document_id
ORDER BY e.vector <=> $1::vector
LIMIT $2`

// Nearest returns up to topK chunks ordered by ascending cosine distance to
// the query vector literal.
func (s *Searcher) Nearest(ctx context.Context, literal string, topK int) ([]models.RetrievalRow, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	rows, err := s.q.Query(ctx, nearestSQL, literal, topK)
	if err != nil {
		return nil, fmt.Errorf("query vector search: %w", err)
	}
	defer rows.Close()

	results := make([]models.RetrievalRow, 0, topK)
	for rows.Next() {
		var r models.RetrievalRow
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.PageNumber, &r.ChunkIndex, &r.Text, &r.Filename, &r.Distance); err != nil {
			return nil, fmt.Errorf("scan chunk result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}
