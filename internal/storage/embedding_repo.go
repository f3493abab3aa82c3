package storage

import (
	"context"
	"fmt"
)

type EmbeddingRepo struct {
	db *DB
}

func NewEmbeddingRepo(db *DB) *EmbeddingRepo {
	return &EmbeddingRepo{db: db}
}

// Insert stores an already encoded vector literal for chunkID.
func (r *EmbeddingRepo) Insert(ctx context.Context, chunkID, literal string) error {
	_, err := r.db.Pool.Exec(ctx, `INSERT INTO embeddings (chunk_id, vector) VALUES ($1::uuid, $2::vector)`, chunkID, literal)
	if err != nil {
		return fmt.Errorf("insert embedding %s: %w", chunkID, err)
	}
	return nil
}
