package ingest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"docrag/internal/models"
	"docrag/internal/parser"
	"docrag/internal/providers"
	"docrag/internal/storage"
	"docrag/internal/util"
	"docrag/internal/vector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore keeps rows in maps and cascades document deletes to chunks and
// embeddings.
type memStore struct {
	mu         sync.Mutex
	seq        int
	documents  map[string]models.Document
	chunks     map[string]models.Chunk
	embeddings map[string]string
	statuses   map[string][]models.DocumentStatus
}

func newMemStore() *memStore {
	return &memStore{
		documents:  map[string]models.Document{},
		chunks:     map[string]models.Chunk{},
		embeddings: map[string]string{},
		statuses:   map[string][]models.DocumentStatus{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) FindDocumentByChecksum(_ context.Context, checksum string) (models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *models.Document
	for _, d := range m.documents {
		if d.Checksum == checksum && (found == nil || d.CreatedAt.After(found.CreatedAt)) {
			d := d
			found = &d
		}
	}
	if found == nil {
		return models.Document{}, storage.ErrNotFound
	}
	return *found, nil
}

func (m *memStore) DeleteDocument(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.documents, id)
	for cid, c := range m.chunks {
		if c.DocumentID == id {
			delete(m.chunks, cid)
			delete(m.embeddings, cid)
		}
	}
	return nil
}

func (m *memStore) CreateDocument(_ context.Context, d models.Document) (models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = m.nextID("doc")
	d.CreatedAt = time.Now().Add(time.Duration(m.seq) * time.Millisecond)
	d.UpdatedAt = d.CreatedAt
	m.documents[d.ID] = d
	m.statuses[d.ID] = append(m.statuses[d.ID], d.Status)
	return d, nil
}

func (m *memStore) UpdateDocumentStatus(_ context.Context, id string, status models.DocumentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[id]
	if !ok {
		return storage.ErrNotFound
	}
	if !d.Status.CanBecome(status) {
		return fmt.Errorf("document %s cannot move from %s to %s", id, d.Status, status)
	}
	d.Status = status
	m.documents[id] = d
	m.statuses[id] = append(m.statuses[id], status)
	return nil
}

func (m *memStore) CreateChunk(_ context.Context, c models.Chunk) (models.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[c.DocumentID]; !ok {
		return models.Chunk{}, errors.New("foreign key violation")
	}
	c.ID = m.nextID("chunk")
	m.chunks[c.ID] = c
	return c, nil
}

func (m *memStore) InsertEmbedding(_ context.Context, chunkID, literal string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chunks[chunkID]; !ok {
		return errors.New("foreign key violation")
	}
	m.embeddings[chunkID] = literal
	return nil
}

func (m *memStore) chunksFor(docID string) []models.Chunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Chunk
	for _, c := range m.chunks {
		if c.DocumentID == docID {
			out = append(out, c)
		}
	}
	return out
}

// flakyEmbedder fails on call number failAt (1-based), or returns vec.
type flakyEmbedder struct {
	model  string
	vec    []float32
	failAt int
	calls  int
}

func (f *flakyEmbedder) Model() string { return f.model }

func (f *flakyEmbedder) Embed(context.Context, string) ([]float32, error) {
	f.calls++
	if f.failAt > 0 && f.calls == f.failAt {
		return nil, util.Dependency("embed", nil, "ollama embed failed: 500 boom")
	}
	return f.vec, nil
}

const testDim = 4

func newTestOrchestrator(store Store, embedder providers.Embedder) *Orchestrator {
	return New(store, parser.New(parser.Config{}, nil), embedder, vector.NewCodec(testDim), WithChunking(10, 2))
}

func writeText(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(w, " ")
}

func intp(v int) *int { return &v }

func TestIngestNewDocument(t *testing.T) {
	store := newMemStore()
	o := newTestOrchestrator(store, providers.NewMockProvider(testDim))
	path := writeText(t, t.TempDir(), "notes.txt", words(25))

	res, err := o.Ingest(context.Background(), path, Options{OriginalName: "My Notes.txt"})
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 3, res.ChunksAdded) // windows start at 0, 8, 16
	assert.Equal(t, models.StatusReady, res.Document.Status)
	assert.Equal(t, "My Notes.txt", res.Document.Filename)
	assert.Equal(t, "txt", res.Document.FileType)
	assert.Equal(t, util.Checksum([]byte(words(25))), res.Document.Checksum)

	assert.Equal(t, []models.DocumentStatus{models.StatusIndexing, models.StatusReady}, store.statuses[res.Document.ID])

	chunks := store.chunksFor(res.Document.ID)
	require.Len(t, chunks, 3)
	seen := map[int]bool{}
	for _, c := range chunks {
		seen[c.ChunkIndex] = true
		assert.Equal(t, "mock-4", c.EmbeddingModel)
		assert.Contains(t, store.embeddings, c.ID)
		require.NotNil(t, c.StartOffset)
	}
	assert.Equal(t, map[int]bool{0: true, 1: true, 2: true}, seen)
}

func TestIngestPerCallChunkOptions(t *testing.T) {
	store := newMemStore()
	o := newTestOrchestrator(store, providers.NewMockProvider(testDim))
	path := writeText(t, t.TempDir(), "a.md", words(850))

	res, err := o.Ingest(context.Background(), path, Options{ChunkSize: intp(800), ChunkOverlap: intp(100)})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ChunksAdded)
}

func TestIngestSkipsIdenticalContent(t *testing.T) {
	store := newMemStore()
	o := newTestOrchestrator(store, providers.NewMockProvider(testDim))
	dir := t.TempDir()
	first := writeText(t, dir, "a.txt", "same bytes here")
	second := writeText(t, dir, "b.txt", "same bytes here")

	res1, err := o.Ingest(context.Background(), first, Options{})
	require.NoError(t, err)

	res2, err := o.Ingest(context.Background(), second, Options{})
	require.NoError(t, err)
	assert.True(t, res2.Skipped)
	assert.Equal(t, ReasonAlreadyExists, res2.Reason)
	assert.Zero(t, res2.ChunksAdded)
	assert.Equal(t, res1.Document.ID, res2.Document.ID)
	assert.Len(t, store.documents, 1)
}

func TestIngestSkipReportsPriorFailure(t *testing.T) {
	store := newMemStore()
	path := writeText(t, t.TempDir(), "a.txt", words(30))

	failing := newTestOrchestrator(store, &flakyEmbedder{model: "m", vec: []float32{1, 2, 3, 4}, failAt: 1})
	_, err := failing.Ingest(context.Background(), path, Options{})
	require.Error(t, err)

	o := newTestOrchestrator(store, providers.NewMockProvider(testDim))
	res, err := o.Ingest(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, ReasonExistingFailed, res.Reason)
}

func TestIngestForceReplacesAndCascades(t *testing.T) {
	store := newMemStore()
	o := newTestOrchestrator(store, providers.NewMockProvider(testDim))
	path := writeText(t, t.TempDir(), "a.txt", words(25))

	first, err := o.Ingest(context.Background(), path, Options{})
	require.NoError(t, err)
	oldChunks := store.chunksFor(first.Document.ID)
	require.NotEmpty(t, oldChunks)

	second, err := o.Ingest(context.Background(), path, Options{Force: true})
	require.NoError(t, err)
	assert.False(t, second.Skipped)
	assert.NotEqual(t, first.Document.ID, second.Document.ID)
	assert.Equal(t, 3, second.ChunksAdded)

	assert.NotContains(t, store.documents, first.Document.ID)
	assert.Empty(t, store.chunksFor(first.Document.ID))
	for _, c := range oldChunks {
		assert.NotContains(t, store.embeddings, c.ID)
	}
	assert.Len(t, store.documents, 1)
}

func TestIngestOverlapNotSmallerThanSize(t *testing.T) {
	store := newMemStore()
	o := newTestOrchestrator(store, providers.NewMockProvider(testDim))
	path := writeText(t, t.TempDir(), "a.txt", words(20))

	_, err := o.Ingest(context.Background(), path, Options{ChunkSize: intp(5), ChunkOverlap: intp(5)})
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindValidation))
	assert.Empty(t, store.documents)
}

func TestIngestRejectsDirectory(t *testing.T) {
	store := newMemStore()
	o := newTestOrchestrator(store, providers.NewMockProvider(testDim))

	_, err := o.Ingest(context.Background(), t.TempDir(), Options{})
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindResource))
	assert.Contains(t, err.Error(), "not a file")
	assert.Empty(t, store.documents)
}

func TestIngestMissingFile(t *testing.T) {
	o := newTestOrchestrator(newMemStore(), providers.NewMockProvider(testDim))
	_, err := o.Ingest(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), Options{})
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindResource))
}

func TestIngestEmptyText(t *testing.T) {
	store := newMemStore()
	o := newTestOrchestrator(store, providers.NewMockProvider(testDim))
	path := writeText(t, t.TempDir(), "blank.txt", " \n\t ")

	_, err := o.Ingest(context.Background(), path, Options{})
	require.ErrorIs(t, err, util.ErrEmptyText)
	assert.Empty(t, store.documents)
}

func TestIngestUnsupportedType(t *testing.T) {
	store := newMemStore()
	o := newTestOrchestrator(store, providers.NewMockProvider(testDim))
	path := writeText(t, t.TempDir(), "a.csv", "a,b")

	_, err := o.Ingest(context.Background(), path, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type: .csv")
	assert.Empty(t, store.documents)
}

func TestIngestUnsetModelCreatesNothing(t *testing.T) {
	store := newMemStore()
	o := newTestOrchestrator(store, &flakyEmbedder{model: providers.PlaceholderModel})
	path := writeText(t, t.TempDir(), "a.txt", words(5))

	_, err := o.Ingest(context.Background(), path, Options{})
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindValidation))
	assert.Empty(t, store.documents)
}

func TestIngestForceKeepsPriorDocumentOnValidationError(t *testing.T) {
	store := newMemStore()
	path := writeText(t, t.TempDir(), "a.txt", words(25))
	first, err := newTestOrchestrator(store, providers.NewMockProvider(testDim)).Ingest(context.Background(), path, Options{})
	require.NoError(t, err)

	unset := newTestOrchestrator(store, &flakyEmbedder{model: providers.PlaceholderModel})
	_, err = unset.Ingest(context.Background(), path, Options{Force: true})
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindValidation))

	badOverlap := newTestOrchestrator(store, providers.NewMockProvider(testDim))
	_, err = badOverlap.Ingest(context.Background(), path, Options{Force: true, ChunkSize: intp(4), ChunkOverlap: intp(4)})
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindValidation))

	require.Contains(t, store.documents, first.Document.ID)
	assert.Len(t, store.chunksFor(first.Document.ID), first.ChunksAdded)
}

func TestIngestEmbedFailureMarksFailed(t *testing.T) {
	store := newMemStore()
	embedder := &flakyEmbedder{model: "m", vec: []float32{1, 2, 3, 4}, failAt: 2}
	o := newTestOrchestrator(store, embedder)
	path := writeText(t, t.TempDir(), "a.txt", words(25))

	res, err := o.Ingest(context.Background(), path, Options{})
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindDependency))
	assert.Equal(t, 1, res.ChunksAdded)
	assert.Equal(t, models.StatusFailed, res.Document.Status)
	assert.Equal(t, models.StatusFailed, store.documents[res.Document.ID].Status)

	// chunks persisted before the failure stay
	chunks := store.chunksFor(res.Document.ID)
	assert.Len(t, chunks, 2)
	assert.Len(t, store.embeddings, 1)
	assert.Equal(t, 2, embedder.calls)
}

func TestIngestNonFiniteEmbeddingFails(t *testing.T) {
	store := newMemStore()
	nan := float32(math.NaN())
	o := newTestOrchestrator(store, &flakyEmbedder{model: "m", vec: []float32{1, nan, 3, 4}})
	path := writeText(t, t.TempDir(), "a.txt", words(5))

	res, err := o.Ingest(context.Background(), path, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-finite")
	assert.Equal(t, models.StatusFailed, store.documents[res.Document.ID].Status)
	assert.Empty(t, store.embeddings)
}

func TestIngestDimensionMismatchFails(t *testing.T) {
	store := newMemStore()
	o := newTestOrchestrator(store, &flakyEmbedder{model: "m", vec: []float32{1, 2}})
	path := writeText(t, t.TempDir(), "a.txt", words(5))

	_, err := o.Ingest(context.Background(), path, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension 2 does not match configured dimension 4")
}

func TestIngestReportsProgress(t *testing.T) {
	o := newTestOrchestrator(newMemStore(), providers.NewMockProvider(testDim))
	path := writeText(t, t.TempDir(), "a.txt", words(25))

	var calls [][2]int
	_, err := o.Ingest(context.Background(), path, Options{Progress: func(done, total int) {
		calls = append(calls, [2]int{done, total})
	}})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, calls)
}
