package main

import (
	"context"
	"encoding/json"
	"io"

	"docrag/internal/app"
	"docrag/internal/config"
	"docrag/internal/ingest"
	"docrag/internal/models"
	"docrag/internal/rag"
	"docrag/internal/util"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// backend is what the commands drive. Tests swap openBackend for a fake.
type backend interface {
	Ingest(ctx context.Context, path string, opts ingest.Options) (ingest.Result, error)
	Query(ctx context.Context, question string, opts rag.QueryOptions) (rag.Answer, error)
	ListDocuments(ctx context.Context, limit int) ([]models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	EmbedDim() int
	Close()
}

var openBackend = func(ctx context.Context) (backend, error) {
	_ = godotenv.Load(".env")
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := app.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return appBackend{a}, nil
}

type appBackend struct {
	*app.App
}

func (b appBackend) Ingest(ctx context.Context, path string, opts ingest.Options) (ingest.Result, error) {
	return b.Ingester.Ingest(ctx, path, opts)
}

func (b appBackend) Query(ctx context.Context, question string, opts rag.QueryOptions) (rag.Answer, error) {
	return b.Engine.Query(ctx, question, opts)
}

func (b appBackend) ListDocuments(ctx context.Context, limit int) ([]models.Document, error) {
	return b.Store.ListDocuments(ctx, limit)
}

func (b appBackend) DeleteDocument(ctx context.Context, id string) error {
	return b.Store.DeleteDocument(ctx, id)
}

func (b appBackend) EmbedDim() int { return b.Config.EmbedDim }

var rootCmd = &cobra.Command{
	Use:           "docragctl",
	Short:         "Operate the docrag document store",
	Long:          `Ingest documents, ask questions over them and manage stored documents. Every command prints JSON.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// withBackend opens a backend for the duration of one command.
func withBackend(cmd *cobra.Command, fn func(ctx context.Context, b backend) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(ctx, b)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type errorOutput struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func printError(w io.Writer, err error) {
	_ = printJSON(w, errorOutput{Error: err.Error(), Kind: string(util.KindOf(err))})
}
