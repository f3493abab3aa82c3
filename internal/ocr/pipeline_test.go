package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docrag/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner imitates pdftoppm and tesseract by writing files into the
// working directory the pipeline passes on the command line.
type fakeRunner struct {
	pages    []string
	failTool string
	workDir  string
	calls    []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, name)
	if name == f.failTool {
		return nil, &ExitError{Tool: name, Code: 1}
	}
	switch name {
	case DefaultRasterizer:
		prefix := args[len(args)-1]
		f.workDir = filepath.Dir(prefix)
		for _, p := range f.pages {
			if err := os.WriteFile(filepath.Join(f.workDir, p), []byte("png"), 0o644); err != nil {
				return nil, err
			}
		}
	case DefaultEngine:
		image, outBase := args[0], args[1]
		text := "text of " + strings.TrimSuffix(filepath.Base(image), ".png")
		if err := os.WriteFile(outBase+".txt", []byte(text), 0o644); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func allTools(string) (string, error) { return "/usr/bin/tool", nil }

func newTestPipeline(t *testing.T, r Runner, lookPath func(string) (string, error)) *Pipeline {
	t.Helper()
	return New(Config{TempRoot: t.TempDir()}, WithRunner(r), WithLookPath(lookPath))
}

func TestExtractOrdersPagesNumerically(t *testing.T) {
	r := &fakeRunner{pages: []string{"page-10.png", "page-2.png", "page-x.png", "page-1.png", "notes.txt"}}
	p := newTestPipeline(t, r, allTools)

	text, err := p.Extract(context.Background(), "/docs/scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "text of page-1\ntext of page-2\ntext of page-10\ntext of page-x", text)
	assert.Equal(t, []string{"pdftoppm", "tesseract", "tesseract", "tesseract", "tesseract"}, r.calls)

	_, statErr := os.Stat(r.workDir)
	assert.True(t, os.IsNotExist(statErr), "working directory should be removed")
}

func TestExtractMissingTools(t *testing.T) {
	r := &fakeRunner{}
	p := newTestPipeline(t, r, func(string) (string, error) { return "", errors.New("not found") })

	_, err := p.Extract(context.Background(), "/docs/scan.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OCR requires tesseract and pdftoppm (poppler)")
	assert.True(t, util.IsKind(err, util.KindDependency))
	assert.Empty(t, r.calls)
}

func TestExtractOneToolMissing(t *testing.T) {
	p := newTestPipeline(t, &fakeRunner{}, func(name string) (string, error) {
		if name == DefaultEngine {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + name, nil
	})

	err := p.CheckTools()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OCR requires tesseract")
	assert.NotContains(t, err.Error(), "pdftoppm")
}

func TestExtractRasterizerFailureCleansUp(t *testing.T) {
	root := t.TempDir()
	r := &fakeRunner{failTool: DefaultRasterizer}
	p := New(Config{TempRoot: root}, WithRunner(r), WithLookPath(allTools))

	_, err := p.Extract(context.Background(), "/docs/scan.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftoppm exited with code 1")
	assert.True(t, util.IsKind(err, util.KindDependency))

	entries, readErr := os.ReadDir(root)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestExtractEngineFailureCleansUp(t *testing.T) {
	r := &fakeRunner{pages: []string{"page-1.png"}, failTool: DefaultEngine}
	p := newTestPipeline(t, r, allTools)

	_, err := p.Extract(context.Background(), "/docs/scan.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tesseract exited with code 1")

	_, statErr := os.Stat(r.workDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPageNumber(t *testing.T) {
	n, ok := pageNumber("page-07.png")
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	_, ok = pageNumber("page-final.png")
	assert.False(t, ok)
}
