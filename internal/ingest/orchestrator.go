package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"docrag/internal/metrics"
	"docrag/internal/models"
	"docrag/internal/parser"
	"docrag/internal/providers"
	"docrag/internal/storage"
	"docrag/internal/util"
	"docrag/internal/vector"

	"go.uber.org/zap"
)

const (
	ReasonAlreadyExists  = "already_exists"
	ReasonExistingFailed = "existing_failed"
)

// Store is the persistence the orchestrator writes through. Lookups return
// storage.ErrNotFound when nothing matches.
type Store interface {
	FindDocumentByChecksum(ctx context.Context, checksum string) (models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	CreateDocument(ctx context.Context, d models.Document) (models.Document, error)
	UpdateDocumentStatus(ctx context.Context, id string, status models.DocumentStatus) error
	CreateChunk(ctx context.Context, c models.Chunk) (models.Chunk, error)
	InsertEmbedding(ctx context.Context, chunkID, literal string) error
}

type Parser interface {
	Parse(ctx context.Context, path string) (parser.ParsedDocument, error)
}

// Options tune one ingestion. Nil sizes fall back to the orchestrator
// defaults.
type Options struct {
	ChunkSize    *int
	ChunkOverlap *int
	OriginalName string
	Force        bool
	// Progress, when set, is called after each chunk is persisted.
	Progress func(done, total int)
}

type Result struct {
	Document    models.Document `json:"document"`
	ChunksAdded int             `json:"chunks_added"`
	Skipped     bool            `json:"skipped"`
	Reason      string          `json:"reason,omitempty"`
}

type Orchestrator struct {
	store        Store
	parser       Parser
	embedder     providers.Embedder
	codec        vector.Codec
	chunkSize    int
	chunkOverlap int
	logger       *zap.Logger
}

type Option func(*Orchestrator)

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func WithChunking(size, overlap int) Option {
	return func(o *Orchestrator) {
		o.chunkSize = size
		o.chunkOverlap = overlap
	}
}

func New(store Store, p Parser, embedder providers.Embedder, codec vector.Codec, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:        store,
		parser:       p,
		embedder:     embedder,
		codec:        codec,
		chunkSize:    util.DefaultChunkSize,
		chunkOverlap: util.DefaultChunkOverlap,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Ingest parses, chunks and embeds the file at path. Identical content is
// skipped unless opts.Force is set, in which case the prior document and its
// chunks are deleted before the new document is created. When embedding or persistence fails midway the
// returned Result still carries the document, now marked failed, and chunks
// stored before the failure remain.
func (o *Orchestrator) Ingest(ctx context.Context, path string, opts Options) (Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Result{}, util.Resource("ingest", err, "resolve %s", path)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Result{}, util.Resource("ingest", err, "stat %s", path)
	}
	if !info.Mode().IsRegular() {
		return Result{}, util.Resource("ingest", nil, "not a file: %s", path)
	}

	model := o.embedder.Model()
	if !providers.IsModelSet(model) {
		return Result{}, util.Validation("ingest", "embedding model is not set")
	}

	checksum, err := util.FileChecksum(abs)
	if err != nil {
		return Result{}, util.Resource("ingest", err, "checksum %s", path)
	}

	// A forced replacement is deleted only after the new content parses and chunks.
	var replace string
	existing, err := o.store.FindDocumentByChecksum(ctx, checksum)
	switch {
	case err == nil && !opts.Force:
		reason := ReasonAlreadyExists
		if existing.Status == models.StatusFailed {
			reason = ReasonExistingFailed
		}
		metrics.IngestionsTotal.WithLabelValues("skipped").Inc()
		o.logger.Info("ingest skipped",
			zap.String("document_id", existing.ID),
			zap.String("checksum", checksum),
			zap.String("reason", reason),
		)
		return Result{Document: existing, Skipped: true, Reason: reason}, nil
	case err == nil:
		replace = existing.ID
	case !errors.Is(err, storage.ErrNotFound):
		return Result{}, fmt.Errorf("lookup document by checksum: %w", err)
	}

	parsed, err := o.parser.Parse(ctx, abs)
	if err != nil {
		return Result{}, err
	}
	if parsed.Text == "" {
		return Result{}, &util.Error{Kind: util.KindValidation, Op: "ingest", Err: util.ErrEmptyText}
	}

	size, overlap := intOr(opts.ChunkSize, o.chunkSize), intOr(opts.ChunkOverlap, o.chunkOverlap)
	chunks, err := util.ChunkText(parsed.Text, size, overlap)
	if err != nil {
		return Result{}, err
	}

	if replace != "" {
		if err := o.store.DeleteDocument(ctx, replace); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return Result{}, fmt.Errorf("delete existing document: %w", err)
		}
		o.logger.Info("ingest force replaced document", zap.String("document_id", replace), zap.String("checksum", checksum))
	}

	name := opts.OriginalName
	if name == "" {
		name = filepath.Base(abs)
	}
	doc, err := o.store.CreateDocument(ctx, models.Document{
		Filename:  name,
		FileType:  parsed.FileType,
		FileSize:  info.Size(),
		Status:    models.StatusIndexing,
		LocalPath: abs,
		Checksum:  checksum,
		PageCount: parsed.PageCount,
		Metadata:  map[string]any{},
	})
	if err != nil {
		return Result{}, fmt.Errorf("create document: %w", err)
	}

	added := 0
	for _, tc := range chunks {
		if err := o.storeChunk(ctx, doc.ID, model, tc); err != nil {
			return o.fail(ctx, doc, added, err)
		}
		added++
		metrics.ChunksEmbeddedTotal.Inc()
		if opts.Progress != nil {
			opts.Progress(added, len(chunks))
		}
	}

	if err := o.store.UpdateDocumentStatus(ctx, doc.ID, models.StatusReady); err != nil {
		return o.fail(ctx, doc, added, fmt.Errorf("mark document ready: %w", err))
	}
	doc.Status = models.StatusReady
	metrics.IngestionsTotal.WithLabelValues("ready").Inc()
	o.logger.Info("ingest complete",
		zap.String("document_id", doc.ID),
		zap.String("filename", doc.Filename),
		zap.Int("chunks", added),
	)
	return Result{Document: doc, ChunksAdded: added}, nil
}

func (o *Orchestrator) storeChunk(ctx context.Context, documentID, model string, tc util.TextChunk) error {
	if err := ctx.Err(); err != nil {
		return util.Dependency("ingest", err, "ingestion interrupted")
	}
	start, end := tc.StartOffset, tc.EndOffset
	c, err := o.store.CreateChunk(ctx, models.Chunk{
		DocumentID:     documentID,
		ChunkIndex:     tc.ChunkIndex,
		Text:           tc.Text,
		TokenCount:     tc.TokenCount,
		StartOffset:    &start,
		EndOffset:      &end,
		EmbeddingModel: model,
	})
	if err != nil {
		return util.Dependency("ingest", err, "persist chunk %d", tc.ChunkIndex)
	}
	vec, err := o.embedder.Embed(ctx, tc.Text)
	if err != nil {
		return err
	}
	literal, err := o.codec.Encode(vec)
	if err != nil {
		return err
	}
	if err := o.store.InsertEmbedding(ctx, c.ID, literal); err != nil {
		return util.Dependency("ingest", err, "persist embedding for chunk %d", tc.ChunkIndex)
	}
	return nil
}

// fail marks doc failed even when ctx is already canceled.
func (o *Orchestrator) fail(ctx context.Context, doc models.Document, added int, cause error) (Result, error) {
	metrics.IngestionsTotal.WithLabelValues("failed").Inc()
	o.logger.Error("ingest failed",
		zap.String("document_id", doc.ID),
		zap.Int("chunks_added", added),
		zap.String("error_type", string(providers.ClassifyError(cause))),
		zap.Error(cause),
	)
	if err := o.store.UpdateDocumentStatus(context.WithoutCancel(ctx), doc.ID, models.StatusFailed); err != nil {
		o.logger.Error("mark document failed", zap.String("document_id", doc.ID), zap.Error(err))
	} else {
		doc.Status = models.StatusFailed
	}
	return Result{Document: doc, ChunksAdded: added}, cause
}

func intOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}
