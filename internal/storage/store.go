package storage

import (
	"context"

	"docrag/internal/models"
	"docrag/internal/vector"
)

// Store bundles the repositories behind the method set the ingestion and
// retrieval components depend on.
type Store struct {
	DB         *DB
	Documents  *DocumentRepo
	Chunks     *ChunkRepo
	Embeddings *EmbeddingRepo
	Queries    *QueryRepo
	Searcher   *vector.Searcher
}

func NewStore(db *DB) *Store {
	return &Store{
		DB:         db,
		Documents:  NewDocumentRepo(db),
		Chunks:     NewChunkRepo(db),
		Embeddings: NewEmbeddingRepo(db),
		Queries:    NewQueryRepo(db),
		Searcher:   vector.NewSearcher(db.Pool),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.Ping(ctx)
}

func (s *Store) FindDocumentByChecksum(ctx context.Context, checksum string) (models.Document, error) {
	return s.Documents.FindByChecksum(ctx, checksum)
}

func (s *Store) GetDocument(ctx context.Context, id string) (models.Document, error) {
	return s.Documents.GetByID(ctx, id)
}

func (s *Store) ListDocuments(ctx context.Context, limit int) ([]models.Document, error) {
	return s.Documents.List(ctx, limit)
}

func (s *Store) CreateDocument(ctx context.Context, d models.Document) (models.Document, error) {
	return s.Documents.Create(ctx, d)
}

func (s *Store) UpdateDocumentStatus(ctx context.Context, id string, status models.DocumentStatus) error {
	return s.Documents.UpdateStatus(ctx, id, status)
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	return s.Documents.Delete(ctx, id)
}

func (s *Store) CreateChunk(ctx context.Context, c models.Chunk) (models.Chunk, error) {
	return s.Chunks.Create(ctx, c)
}

func (s *Store) ListChunks(ctx context.Context, documentID string) ([]models.Chunk, error) {
	return s.Chunks.ListByDocument(ctx, documentID)
}

func (s *Store) InsertEmbedding(ctx context.Context, chunkID, literal string) error {
	return s.Embeddings.Insert(ctx, chunkID, literal)
}

func (s *Store) Nearest(ctx context.Context, literal string, topK int) ([]models.RetrievalRow, error) {
	return s.Searcher.Nearest(ctx, literal, topK)
}

func (s *Store) InsertQuery(ctx context.Context, rec models.QueryRecord) error {
	return s.Queries.Insert(ctx, rec)
}

func (s *Store) Close() {
	s.DB.Close()
}
