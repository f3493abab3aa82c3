package activities

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"docrag/internal/ingest"
	"docrag/internal/models"
	"docrag/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
)

type fakeIngester struct {
	res  ingest.Result
	err  error
	path string
	opts ingest.Options
}

func (f *fakeIngester) Ingest(_ context.Context, path string, opts ingest.Options) (ingest.Result, error) {
	f.path, f.opts = path, opts
	if opts.Progress != nil {
		opts.Progress(1, 1)
	}
	return f.res, f.err
}

func TestIngestDocumentActivity(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	fake := &fakeIngester{res: ingest.Result{
		Document:    models.Document{ID: "doc-1", Status: models.StatusReady},
		ChunksAdded: 3,
	}}
	acts := New(fake)
	env.RegisterActivity(acts)

	size := 400
	val, err := env.ExecuteActivity(acts.IngestDocumentActivity, IngestDocumentInput{
		Path:         "/data/uploads/a.pdf",
		OriginalName: "a.pdf",
		ChunkSize:    &size,
		Force:        true,
	})
	require.NoError(t, err)

	var out IngestDocumentOutput
	require.NoError(t, val.Get(&out))
	assert.Equal(t, IngestDocumentOutput{DocumentID: "doc-1", Status: "ready", ChunksAdded: 3}, out)
	assert.Equal(t, "/data/uploads/a.pdf", fake.path)
	assert.True(t, fake.opts.Force)
	require.NotNil(t, fake.opts.ChunkSize)
	assert.Equal(t, 400, *fake.opts.ChunkSize)
}

func TestIngestDocumentActivityFailureIsNonRetryable(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	acts := New(&fakeIngester{err: util.Validation("parse", "unsupported file type: .xlsx")})
	env.RegisterActivity(acts)

	_, err := env.ExecuteActivity(acts.IngestDocumentActivity, IngestDocumentInput{Path: "/x.xlsx"})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, string(util.KindValidation), appErr.Type())
	assert.True(t, appErr.NonRetryable())
	assert.Contains(t, appErr.Error(), "unsupported file type")
}

type slowIngester struct {
	delay time.Duration
}

func (s slowIngester) Ingest(ctx context.Context, _ string, _ ingest.Options) (ingest.Result, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return ingest.Result{}, ctx.Err()
	}
	return ingest.Result{Document: models.Document{ID: "doc-1", Status: models.StatusReady}}, nil
}

func TestIngestDocumentActivityHeartbeatsBeforeAnyChunk(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	acts := New(slowIngester{delay: 150 * time.Millisecond}, WithHeartbeatInterval(10*time.Millisecond))
	var beats atomic.Int32
	acts.record = func(context.Context, ...any) { beats.Add(1) }
	env.RegisterActivity(acts)

	_, err := env.ExecuteActivity(acts.IngestDocumentActivity, IngestDocumentInput{Path: "/data/uploads/scan.pdf"})
	require.NoError(t, err)

	got := beats.Load()
	assert.GreaterOrEqual(t, got, int32(3))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, got, beats.Load(), "heartbeats continued after the activity returned")
}

func TestNewDefaultsHeartbeatInterval(t *testing.T) {
	assert.Equal(t, DefaultHeartbeatInterval, New(&fakeIngester{}).heartbeat)
	assert.Equal(t, DefaultHeartbeatInterval, New(&fakeIngester{}, WithHeartbeatInterval(0)).heartbeat)
	assert.Equal(t, time.Second, New(&fakeIngester{}, WithHeartbeatInterval(time.Second)).heartbeat)
}
