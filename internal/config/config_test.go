package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DOCRAG_CONFIG_FILE", "DOCRAG_CHUNK_SIZE", "DOCRAG_CHUNK_OVERLAP", "DOCRAG_OCR_ENABLED", "DOCRAG_EMBED_DIM", "DOCRAG_OLLAMA_TIMEOUT"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.ChunkSize)
	assert.Equal(t, 100, cfg.ChunkOverlap)
	assert.Equal(t, 768, cfg.EmbedDim)
	assert.Equal(t, "nomic-embed-text", cfg.Ollama.EmbedModel)
	assert.False(t, cfg.OCR.Enabled)
	assert.Equal(t, 50, cfg.OCR.MinCharsPerPage)
	assert.Equal(t, int64(25<<20), cfg.MaxUploadBytes)
	assert.False(t, cfg.TemporalEnabled())
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "docrag.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chunk_size: 400
chunk_overlap: 50
ollama:
  chat_model: mistral
  timeout: 30s
ocr:
  enabled: true
`), 0o644))
	t.Setenv("DOCRAG_CONFIG_FILE", path)
	t.Setenv("DOCRAG_CHUNK_OVERLAP", "20")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.ChunkSize)
	assert.Equal(t, 20, cfg.ChunkOverlap)
	assert.Equal(t, "mistral", cfg.Ollama.ChatModel)
	assert.Equal(t, "nomic-embed-text", cfg.Ollama.EmbedModel)
	assert.Equal(t, 30*time.Second, cfg.Ollama.Timeout)
	assert.True(t, cfg.OCR.Enabled)
	assert.Equal(t, "eng", cfg.OCR.Lang)
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOCRAG_CHUNK_SIZE", "eight hundred")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOCRAG_CHUNK_SIZE")

	t.Setenv("DOCRAG_CHUNK_SIZE", "")
	t.Setenv("DOCRAG_OCR_ENABLED", "maybe")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid boolean")
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	cfg.ChunkOverlap = cfg.ChunkSize
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.EmbedDim = 0
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.OCR.DPI = -1
	assert.Error(t, cfg.Validate())
}
