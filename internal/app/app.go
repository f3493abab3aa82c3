package app

import (
	"context"
	"fmt"
	"time"

	"docrag/internal/config"
	"docrag/internal/ingest"
	"docrag/internal/logging"
	"docrag/internal/ocr"
	"docrag/internal/parser"
	"docrag/internal/providers"
	"docrag/internal/rag"
	"docrag/internal/storage"
	"docrag/internal/vector"

	"go.uber.org/zap"
)

// App holds the components shared by the api server, the worker and the CLI.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Store    *storage.Store
	Embedder providers.Embedder
	Chat     providers.ChatModel
	Ingester *ingest.Orchestrator
	Engine   *rag.Engine
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg config.Config) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Debug:      cfg.Debug,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
}

// Build connects to Postgres, bootstraps the schema and wires the ingestion
// and retrieval pipelines.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	db, err := storage.NewDB(connectCtx, cfg.PostgresURL)
	if err != nil {
		return nil, err
	}
	if err := storage.EnsureSchema(connectCtx, db, cfg.EmbedDim); err != nil {
		db.Close()
		return nil, err
	}

	ollamaCfg := providers.OllamaConfig{
		BaseURL:    cfg.Ollama.BaseURL,
		EmbedModel: cfg.Ollama.EmbedModel,
		ChatModel:  cfg.Ollama.ChatModel,
		Timeout:    cfg.Ollama.Timeout,
	}
	embedder, err := providers.NewEmbedder(cfg.EmbedProvider, ollamaCfg, cfg.EmbedDim)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("embed backend: %w", err)
	}
	chat, err := providers.NewChatModel(cfg.ChatProvider, ollamaCfg, cfg.EmbedDim)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("chat backend: %w", err)
	}

	pipeline := ocr.New(ocr.Config{
		Lang:       cfg.OCR.Lang,
		DPI:        cfg.OCR.DPI,
		Rasterizer: cfg.OCR.Rasterizer,
		Engine:     cfg.OCR.Engine,
	}, ocr.WithLogger(logger.Named("ocr")))
	if cfg.OCR.Enabled {
		if err := pipeline.CheckTools(); err != nil {
			logger.Warn("ocr enabled but tools are missing", zap.Error(err))
		}
	}
	p := parser.New(parser.Config{
		OCREnabled:      cfg.OCR.Enabled,
		MinCharsPerPage: cfg.OCR.MinCharsPerPage,
	}, pipeline, parser.WithLogger(logger.Named("parser")))

	store := storage.NewStore(db)
	codec := vector.NewCodec(cfg.EmbedDim)

	logger.Info("backends configured",
		zap.String("embed_model", embedder.Model()),
		zap.String("chat_model", chat.Model()),
		zap.Int("embed_dim", cfg.EmbedDim),
		zap.Bool("ocr_enabled", cfg.OCR.Enabled),
	)
	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Embedder: embedder,
		Chat:     chat,
		Ingester: ingest.New(store, p, embedder, codec,
			ingest.WithLogger(logger.Named("ingest")),
			ingest.WithChunking(cfg.ChunkSize, cfg.ChunkOverlap),
		),
		Engine: rag.NewEngine(store, embedder, chat, codec,
			rag.WithLogger(logger.Named("rag")),
			rag.WithMaxTopK(cfg.MaxTopK),
			rag.WithDefaults(cfg.DefaultTopK, cfg.SnippetMax),
		),
	}, nil
}

func (a *App) Close() {
	a.Store.Close()
	_ = a.Logger.Sync()
}
