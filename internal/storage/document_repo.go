package storage

import (
	"context"
	"errors"
	"fmt"

	"docrag/internal/models"
	"docrag/internal/util"

	"github.com/jackc/pgx/v5"
)

type DocumentRepo struct {
	db *DB
}

func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

const documentColumns = `id::text, filename, file_type, file_size, status, local_path, checksum,
       page_count, metadata, created_at, updated_at`

func scanDocument(row pgx.Row) (models.Document, error) {
	var d models.Document
	err := row.Scan(&d.ID, &d.Filename, &d.FileType, &d.FileSize, &d.Status, &d.LocalPath, &d.Checksum,
		&d.PageCount, &d.Metadata, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// Create inserts d and returns it with its generated id and timestamps.
func (r *DocumentRepo) Create(ctx context.Context, d models.Document) (models.Document, error) {
	out, err := scanDocument(r.db.Pool.QueryRow(ctx, `
INSERT INTO documents (filename, file_type, file_size, status, local_path, checksum, page_count, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8::jsonb, '{}'::jsonb))
RETURNING `+documentColumns,
		d.Filename, d.FileType, d.FileSize, d.Status, d.LocalPath, d.Checksum, d.PageCount, d.Metadata,
	))
	if err != nil {
		return models.Document{}, fmt.Errorf("insert document: %w", err)
	}
	return out, nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, id string) (models.Document, error) {
	d, err := scanDocument(r.db.Pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id=$1::uuid`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Document{}, ErrNotFound
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

// FindByChecksum returns the newest document with the given checksum.
func (r *DocumentRepo) FindByChecksum(ctx context.Context, checksum string) (models.Document, error) {
	d, err := scanDocument(r.db.Pool.QueryRow(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE checksum=$1
ORDER BY created_at DESC
LIMIT 1`, checksum))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Document{}, ErrNotFound
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("find document by checksum: %w", err)
	}
	return d, nil
}

// UpdateStatus moves the document to status. Moves the lifecycle does not
// allow are validation errors and leave the row unchanged.
func (r *DocumentRepo) UpdateStatus(ctx context.Context, id string, status models.DocumentStatus) error {
	return r.db.WithTx(ctx, "update document status", func(tx pgx.Tx) error {
		var current models.DocumentStatus
		err := tx.QueryRow(ctx, `SELECT status FROM documents WHERE id=$1::uuid FOR UPDATE`, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read document status: %w", err)
		}
		if !current.CanBecome(status) {
			return util.Validation("update document status", "document %s cannot move from %s to %s", id, current, status)
		}
		if _, err := tx.Exec(ctx, `UPDATE documents SET status=$2, updated_at=NOW() WHERE id=$1::uuid`, id, status); err != nil {
			return fmt.Errorf("update document status: %w", err)
		}
		return nil
	})
}

// Delete removes the document; chunks and embeddings go with it by cascade.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM documents WHERE id=$1::uuid`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DocumentRepo) List(ctx context.Context, limit int) ([]models.Document, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Pool.Query(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	out := make([]models.Document, 0, 16)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}
