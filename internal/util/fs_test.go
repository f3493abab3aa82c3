package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(root))
	st, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, st.IsDir())
	require.NoError(t, EnsureDir(root))
}

func TestStoredName(t *testing.T) {
	dir := filepath.Join("data", "uploads")
	assert.Equal(t, filepath.Join(dir, "abc.pdf"), StoredName(dir, "abc", "Report.PDF"))
	assert.Equal(t, filepath.Join(dir, "abc.md"), StoredName(dir, "abc", "../../etc/notes.md"))
	assert.Equal(t, filepath.Join(dir, "abc"), StoredName(dir, "abc", "Makefile"))
}
