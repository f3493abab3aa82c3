package storage

import (
	"context"
	"fmt"

	"docrag/internal/models"
	"docrag/internal/util"
)

// QueryRepo appends to the queries audit log. Rows are never updated.
type QueryRepo struct {
	db *DB
}

func NewQueryRepo(db *DB) *QueryRepo {
	return &QueryRepo{db: db}
}

func (r *QueryRepo) Insert(ctx context.Context, rec models.QueryRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO queries (question, answer, model, top_k, latency_ms, prompt_tokens, completion_tokens)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		util.SanitizeText(rec.Question), util.SanitizeText(rec.Answer), rec.Model, rec.TopK,
		rec.LatencyMS, rec.PromptTokens, rec.CompletionTokens)
	if err != nil {
		return fmt.Errorf("insert query record: %w", err)
	}
	return nil
}
