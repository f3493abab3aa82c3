package storage

import (
	"context"
	"fmt"

	"docrag/internal/models"
	"docrag/internal/util"
)

type ChunkRepo struct {
	db *DB
}

func NewChunkRepo(db *DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// Create inserts c and returns it with its generated id.
func (r *ChunkRepo) Create(ctx context.Context, c models.Chunk) (models.Chunk, error) {
	c.Text = util.SanitizeText(c.Text)
	err := r.db.Pool.QueryRow(ctx, `
INSERT INTO chunks (document_id, page_number, chunk_index, text, token_count, start_offset, end_offset, embedding_model)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8)
RETURNING id::text, created_at`,
		c.DocumentID, c.PageNumber, c.ChunkIndex, c.Text, c.TokenCount, c.StartOffset, c.EndOffset, c.EmbeddingModel,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return models.Chunk{}, fmt.Errorf("insert chunk %d: %w", c.ChunkIndex, err)
	}
	return c, nil
}

func (r *ChunkRepo) ListByDocument(ctx context.Context, documentID string) ([]models.Chunk, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT id::text, document_id::text, page_number, chunk_index, text, token_count, start_offset, end_offset,
       embedding_model, created_at
FROM chunks
WHERE document_id=$1::uuid
ORDER BY chunk_index ASC`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list chunks by document: %w", err)
	}
	defer rows.Close()
	out := make([]models.Chunk, 0, 64)
	for rows.Next() {
		var c models.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.PageNumber, &c.ChunkIndex, &c.Text, &c.TokenCount,
			&c.StartOffset, &c.EndOffset, &c.EmbeddingModel, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chunk by document: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk by document: %w", err)
	}
	return out, nil
}
