package activities

import (
	"context"
	"sync/atomic"
	"time"

	"docrag/internal/ingest"
	"docrag/internal/util"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
)

// DefaultHeartbeatInterval is how often the ingest activity heartbeats while
// Ingest runs. It must stay below the workflow's heartbeat timeout.
const DefaultHeartbeatInterval = 30 * time.Second

type Ingester interface {
	Ingest(ctx context.Context, path string, opts ingest.Options) (ingest.Result, error)
}

type Activities struct {
	ingester  Ingester
	heartbeat time.Duration
	record    func(ctx context.Context, details ...any)
}

type Option func(*Activities)

// WithHeartbeatInterval overrides DefaultHeartbeatInterval.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(a *Activities) {
		if d > 0 {
			a.heartbeat = d
		}
	}
}

func New(ingester Ingester, opts ...Option) *Activities {
	a := &Activities{ingester: ingester, heartbeat: DefaultHeartbeatInterval, record: activity.RecordHeartbeat}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// IngestDocumentActivity runs one ingestion. It heartbeats on a ticker for
// as long as Ingest runs, carrying the chunk progress seen so far. Failures
// are non-retryable and carry the error kind as their application error type.
func (a *Activities) IngestDocumentActivity(ctx context.Context, in IngestDocumentInput) (IngestDocumentOutput, error) {
	var done, total atomic.Int64
	stop := a.keepAlive(ctx, &done, &total)
	res, err := a.ingester.Ingest(ctx, in.Path, ingest.Options{
		ChunkSize:    in.ChunkSize,
		ChunkOverlap: in.ChunkOverlap,
		OriginalName: in.OriginalName,
		Force:        in.Force,
		Progress: func(d, t int) {
			done.Store(int64(d))
			total.Store(int64(t))
			a.record(ctx, d, t)
		},
	})
	stop()
	if err != nil {
		kind := string(util.KindOf(err))
		if kind == "" {
			kind = "internal"
		}
		return IngestDocumentOutput{}, temporal.NewNonRetryableApplicationError(err.Error(), kind, nil)
	}
	return IngestDocumentOutput{
		DocumentID:  res.Document.ID,
		Status:      string(res.Document.Status),
		ChunksAdded: res.ChunksAdded,
		Skipped:     res.Skipped,
		Reason:      res.Reason,
	}, nil
}

// keepAlive heartbeats immediately and then every a.heartbeat until the
// returned stop func is called. stop waits for the goroutine to exit.
func (a *Activities) keepAlive(ctx context.Context, done, total *atomic.Int64) func() {
	quit := make(chan struct{})
	exited := make(chan struct{})
	a.record(ctx, 0, 0)
	go func() {
		defer close(exited)
		ticker := time.NewTicker(a.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.record(ctx, int(done.Load()), int(total.Load()))
			}
		}
	}()
	return func() {
		close(quit)
		<-exited
	}
}
