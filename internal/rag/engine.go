package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docrag/internal/metrics"
	"docrag/internal/models"
	"docrag/internal/providers"
	"docrag/internal/util"
	"docrag/internal/vector"

	"go.uber.org/zap"
)

const (
	DefaultTopK = 4
	MaxTopK     = 100

	NoSourcesAnswer = "No relevant sources found in the documents."

	SystemPrompt = "You are a local RAG assistant. Use only the provided sources to answer. " +
		"If the answer is not in the sources, say you don't know based on the documents."
)

type Store interface {
	Nearest(ctx context.Context, literal string, topK int) ([]models.RetrievalRow, error)
	InsertQuery(ctx context.Context, rec models.QueryRecord) error
}

// QueryOptions selects retrieval size and source shaping. The zero value
// excludes sources and filenames; start from DefaultQueryOptions and override
// fields instead. TopK and SnippetMax at or below zero use the engine defaults.
type QueryOptions struct {
	TopK              int  `json:"top_k"`
	SnippetMax        int  `json:"snippet_max"`
	IncludeSources    bool `json:"include_sources"`
	IncludeDistance   bool `json:"include_distance"`
	IncludeFilename   bool `json:"include_filename"`
	IncludeChunkIndex bool `json:"include_chunk_index"`
}

func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		TopK:            DefaultTopK,
		SnippetMax:      util.DefaultSnippetMax,
		IncludeSources:  true,
		IncludeFilename: true,
	}
}

// Source is one retrieved chunk as shown to the caller. DocumentID, Page and
// Snippet are always present; the rest depend on QueryOptions.
type Source struct {
	DocumentID string   `json:"document_id"`
	Page       *int     `json:"page"`
	Snippet    string   `json:"snippet"`
	Filename   *string  `json:"filename,omitempty"`
	ChunkIndex *int     `json:"chunk_index,omitempty"`
	Distance   *float64 `json:"distance,omitempty"`
}

type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

type Engine struct {
	store    Store
	embedder providers.Embedder
	chat     providers.ChatModel
	codec    vector.Codec
	topK     int
	maxTopK  int
	snippet  int
	logger   *zap.Logger
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithMaxTopK(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxTopK = n
		}
	}
}

// WithDefaults sets the topK and snippet length used when a query leaves
// them unset. Non-positive values keep the package defaults.
func WithDefaults(topK, snippetMax int) Option {
	return func(e *Engine) {
		if topK > 0 {
			e.topK = topK
		}
		if snippetMax > 0 {
			e.snippet = snippetMax
		}
	}
}

func NewEngine(store Store, embedder providers.Embedder, chat providers.ChatModel, codec vector.Codec, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		embedder: embedder,
		chat:     chat,
		codec:    codec,
		topK:     DefaultTopK,
		maxTopK:  MaxTopK,
		snippet:  util.DefaultSnippetMax,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query answers question from the topK nearest chunks. With no stored
// chunks it returns NoSourcesAnswer and never calls the chat backend.
func (e *Engine) Query(ctx context.Context, question string, opts QueryOptions) (Answer, error) {
	ans, err := e.query(ctx, question, opts)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("failed").Inc()
		e.logger.Error("query failed",
			zap.String("error_type", string(providers.ClassifyError(err))),
			zap.Error(err),
		)
	}
	return ans, err
}

func (e *Engine) query(ctx context.Context, question string, opts QueryOptions) (Answer, error) {
	start := time.Now()
	if strings.TrimSpace(question) == "" {
		return Answer{}, util.Validation("query", "question is required")
	}
	requested := opts.TopK
	if requested <= 0 {
		requested = e.topK
	}
	topK := min(requested, e.maxTopK)
	if opts.SnippetMax <= 0 {
		opts.SnippetMax = e.snippet
	}

	vec, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return Answer{}, err
	}
	literal, err := e.codec.Encode(vec)
	if err != nil {
		return Answer{}, err
	}
	rows, err := e.store.Nearest(ctx, literal, topK)
	if err != nil {
		return Answer{}, util.Dependency("query", err, "nearest neighbor search")
	}
	if len(rows) == 0 {
		metrics.QueriesTotal.WithLabelValues("no_sources").Inc()
		e.logger.Info("query found no sources", zap.Int("top_k", topK))
		return Answer{Answer: NoSourcesAnswer, Sources: []Source{}}, nil
	}

	res, err := e.chat.Chat(ctx, BuildMessages(question, rows))
	if err != nil {
		return Answer{}, err
	}
	latency := int(time.Since(start).Milliseconds())

	rec := models.QueryRecord{
		Question:  question,
		Answer:    res.Text,
		Model:     e.chat.Model(),
		TopK:      requested,
		LatencyMS: &latency,
	}
	if res.PromptTokens > 0 {
		rec.PromptTokens = &res.PromptTokens
	}
	if res.CompletionTokens > 0 {
		rec.CompletionTokens = &res.CompletionTokens
	}
	if err := e.store.InsertQuery(ctx, rec); err != nil {
		return Answer{}, fmt.Errorf("record query: %w", err)
	}

	metrics.QueriesTotal.WithLabelValues("answered").Inc()
	e.logger.Info("query answered",
		zap.Int("top_k", topK),
		zap.Int("sources", len(rows)),
		zap.Int("latency_ms", latency),
	)
	return Answer{Answer: res.Text, Sources: ShapeSources(rows, opts)}, nil
}

// BuildContext renders each row as a provenance header line followed by its
// text, with a blank line between rows.
func BuildContext(rows []models.RetrievalRow) string {
	blocks := make([]string, 0, len(rows))
	for i, r := range rows {
		page := "n/a"
		if r.PageNumber != nil {
			page = fmt.Sprintf("%d", *r.PageNumber)
		}
		header := fmt.Sprintf("Source %d | %s | doc=%s | chunk=%d | page=%s", i+1, r.Filename, r.DocumentID, r.ChunkIndex, page)
		blocks = append(blocks, header+"\n"+r.Text)
	}
	return strings.Join(blocks, "\n\n")
}

func BuildMessages(question string, rows []models.RetrievalRow) []providers.Message {
	return []providers.Message{
		{Role: providers.RoleSystem, Content: SystemPrompt},
		{Role: providers.RoleUser, Content: fmt.Sprintf("Question: %s\n\nSources:\n%s", question, BuildContext(rows))},
	}
}

func ShapeSources(rows []models.RetrievalRow, opts QueryOptions) []Source {
	out := []Source{}
	if !opts.IncludeSources {
		return out
	}
	for _, r := range rows {
		s := Source{
			DocumentID: r.DocumentID,
			Page:       r.PageNumber,
			Snippet:    util.Snippet(r.Text, opts.SnippetMax),
		}
		if opts.IncludeFilename {
			name := r.Filename
			s.Filename = &name
		}
		if opts.IncludeChunkIndex {
			idx := r.ChunkIndex
			s.ChunkIndex = &idx
		}
		if opts.IncludeDistance {
			d := r.Distance
			s.Distance = &d
		}
		out = append(out, s)
	}
	return out
}
