package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

func schemaStatements(dim int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
		`
CREATE TABLE IF NOT EXISTS documents (
  id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
  filename    text NOT NULL,
  file_type   text NOT NULL,
  file_size   bigint NOT NULL,
  status      text NOT NULL DEFAULT 'uploaded',
  local_path  text NOT NULL,
  checksum    text NOT NULL,
  page_count  integer,
  metadata    jsonb NOT NULL DEFAULT '{}'::jsonb,
  created_at  timestamptz NOT NULL DEFAULT NOW(),
  updated_at  timestamptz NOT NULL DEFAULT NOW()
)`,
		`CREATE INDEX IF NOT EXISTS documents_checksum_idx ON documents (checksum)`,
		`
CREATE TABLE IF NOT EXISTS chunks (
  id              uuid PRIMARY KEY DEFAULT gen_random_uuid(),
  document_id     uuid NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
  page_number     integer,
  chunk_index     integer NOT NULL,
  text            text NOT NULL,
  token_count     integer NOT NULL,
  start_offset    integer,
  end_offset      integer,
  embedding_model text NOT NULL,
  created_at      timestamptz NOT NULL DEFAULT NOW()
)`,
		`CREATE INDEX IF NOT EXISTS chunks_document_id_idx ON chunks (document_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS chunks_document_chunk_index_idx ON chunks (document_id, chunk_index)`,
		`CREATE INDEX IF NOT EXISTS chunks_text_fts_idx ON chunks USING GIN (to_tsvector('english', text))`,
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS embeddings (
  chunk_id uuid PRIMARY KEY REFERENCES chunks(id) ON DELETE CASCADE,
  vector   vector(%d) NOT NULL
)`, dim),
		`
CREATE TABLE IF NOT EXISTS queries (
  id                uuid PRIMARY KEY DEFAULT gen_random_uuid(),
  question          text NOT NULL,
  answer            text NOT NULL,
  model             text NOT NULL,
  top_k             integer NOT NULL,
  latency_ms        integer,
  prompt_tokens     integer,
  completion_tokens integer,
  created_at        timestamptz NOT NULL DEFAULT NOW()
)`,
	}
}

// EnsureSchema creates the tables and indexes in one transaction and
// refuses to continue when an existing embeddings table was created for a
// different vector dimension.
func EnsureSchema(ctx context.Context, db *DB, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("ensure schema: embedding dimension must be positive, got %d", dim)
	}
	return db.WithTx(ctx, "ensure schema", func(tx pgx.Tx) error {
		for _, stmt := range schemaStatements(dim) {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}
		}
		existing, err := vectorDimension(ctx, tx)
		if err != nil {
			return err
		}
		if existing != dim {
			return fmt.Errorf("ensure schema: embeddings.vector has dimension %d but %d is configured", existing, dim)
		}
		return nil
	})
}

// vectorDimension reads the declared dimension of embeddings.vector. For
// the pgvector type the column typmod is the dimension.
func vectorDimension(ctx context.Context, tx pgx.Tx) (int, error) {
	var typmod int
	err := tx.QueryRow(ctx, `
SELECT a.atttypmod
FROM pg_attribute a
JOIN pg_class c ON c.oid = a.attrelid
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE c.relname = 'embeddings' AND a.attname = 'vector' AND NOT a.attisdropped
  AND n.nspname = current_schema()`).Scan(&typmod)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("ensure schema: embeddings.vector column missing")
	}
	if err != nil {
		return 0, fmt.Errorf("read vector dimension: %w", err)
	}
	return typmod, nil
}
