package api

import (
	"context"
	"net/http"
	"time"

	"docrag/internal/activities"
	"docrag/internal/ingest"
	"docrag/internal/models"
	"docrag/internal/rag"
	"docrag/internal/workflows"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Store interface {
	Ping(ctx context.Context) error
	ListDocuments(ctx context.Context, limit int) ([]models.Document, error)
	GetDocument(ctx context.Context, id string) (models.Document, error)
	ListChunks(ctx context.Context, documentID string) ([]models.Chunk, error)
	DeleteDocument(ctx context.Context, id string) error
}

type Ingester interface {
	Ingest(ctx context.Context, path string, opts ingest.Options) (ingest.Result, error)
}

type Querier interface {
	Query(ctx context.Context, question string, opts rag.QueryOptions) (rag.Answer, error)
}

// Jobs starts and inspects asynchronous ingestions. Nil disables the
// /v1/documents/jobs routes.
type Jobs interface {
	StartIngest(ctx context.Context, in activities.IngestDocumentInput) (workflowID, runID string, err error)
	IngestStatus(ctx context.Context, workflowID string) (workflows.IngestStatus, error)
}

type Config struct {
	UploadDir      string
	MaxUploadBytes int64
	ListLimit      int
	RequestTimeout time.Duration
}

type Server struct {
	store    Store
	ingester Ingester
	querier  Querier
	jobs     Jobs
	cfg      Config
	logger   *zap.Logger
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func WithJobs(j Jobs) Option {
	return func(s *Server) { s.jobs = j }
}

func NewServer(store Store, ingester Ingester, querier Querier, cfg Config, opts ...Option) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 25 << 20
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "data/uploads"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Minute
	}
	s := &Server{
		store:    store,
		ingester: ingester,
		querier:  querier,
		cfg:      cfg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	r.Use(withCORS)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeErr(w, http.StatusNotFound, errNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
	})

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/query", s.handleQuery)
		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.handleListDocuments)
			r.Post("/", s.handleIngestPath)
			r.Post("/upload", s.handleUpload)
			r.Post("/jobs", s.handleStartJob)
			r.Get("/jobs/{workflowID}", s.handleJobStatus)
			r.Get("/{id}", s.handleGetDocument)
			r.Get("/{id}/chunks", s.handleListChunks)
			r.Delete("/{id}", s.handleDeleteDocument)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
