package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"docrag/internal/metrics"
	"docrag/internal/util"

	"go.uber.org/zap"
)

const (
	DefaultLang       = "eng"
	DefaultDPI        = 300
	DefaultRasterizer = "pdftoppm"
	DefaultEngine     = "tesseract"

	pagePrefix = "page"
)

var pageNumberRe = regexp.MustCompile(`-(\d+)\.png$`)

type Config struct {
	Lang       string
	DPI        int
	Rasterizer string
	Engine     string
	// TempRoot is the parent of the per-run working directory. Empty means
	// os.TempDir().
	TempRoot string
}

func (c Config) withDefaults() Config {
	if c.Lang == "" {
		c.Lang = DefaultLang
	}
	if c.DPI <= 0 {
		c.DPI = DefaultDPI
	}
	if c.Rasterizer == "" {
		c.Rasterizer = DefaultRasterizer
	}
	if c.Engine == "" {
		c.Engine = DefaultEngine
	}
	return c
}

// Pipeline rasterizes a PDF into page images and runs an OCR engine over
// each page.
type Pipeline struct {
	cfg      Config
	runner   Runner
	lookPath func(string) (string, error)
	logger   *zap.Logger
}

type Option func(*Pipeline)

func WithRunner(r Runner) Option {
	return func(p *Pipeline) { p.runner = r }
}

func WithLookPath(fn func(string) (string, error)) Option {
	return func(p *Pipeline) { p.lookPath = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func New(cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg.withDefaults(),
		runner:   ExecRunner{},
		lookPath: exec.LookPath,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckTools fails naming every required tool that is not on PATH.
func (p *Pipeline) CheckTools() error {
	var missing []string
	if _, err := p.lookPath(p.cfg.Engine); err != nil {
		missing = append(missing, p.cfg.Engine)
	}
	if _, err := p.lookPath(p.cfg.Rasterizer); err != nil {
		name := p.cfg.Rasterizer
		if name == DefaultRasterizer {
			name += " (poppler)"
		}
		missing = append(missing, name)
	}
	if len(missing) > 0 {
		return util.Dependency("ocr", nil, "OCR requires %s", strings.Join(missing, " and "))
	}
	return nil
}

// Extract returns the OCR text of every page of pdfPath in page order,
// joined by newlines. The working directory is removed on every return.
func (p *Pipeline) Extract(ctx context.Context, pdfPath string) (string, error) {
	text, err := p.extract(ctx, pdfPath)
	if err != nil {
		metrics.OCRRunsTotal.WithLabelValues("failed").Inc()
		p.logger.Warn("ocr failed", zap.String("path", pdfPath), zap.Error(err))
		return "", err
	}
	metrics.OCRRunsTotal.WithLabelValues("ok").Inc()
	return text, nil
}

func (p *Pipeline) extract(ctx context.Context, pdfPath string) (string, error) {
	if err := p.CheckTools(); err != nil {
		return "", err
	}

	workDir, err := os.MkdirTemp(p.cfg.TempRoot, "rag-ocr-")
	if err != nil {
		return "", util.Resource("ocr", err, "create working directory")
	}
	defer os.RemoveAll(workDir)

	dpi := strconv.Itoa(p.cfg.DPI)
	if err := p.run(ctx, p.cfg.Rasterizer, "-r", dpi, "-png", pdfPath, filepath.Join(workDir, pagePrefix)); err != nil {
		return "", err
	}

	images, err := pageImages(workDir)
	if err != nil {
		return "", err
	}
	p.logger.Debug("ocr rasterized", zap.String("path", pdfPath), zap.Int("pages", len(images)))

	pages := make([]string, 0, len(images))
	for i, name := range images {
		outBase := filepath.Join(workDir, fmt.Sprintf("ocr_%d", i))
		if err := p.run(ctx, p.cfg.Engine, filepath.Join(workDir, name), outBase, "-l", p.cfg.Lang, "--dpi", dpi); err != nil {
			return "", err
		}
		b, err := os.ReadFile(outBase + ".txt")
		if err != nil {
			return "", util.Resource("ocr", err, "read page %d text", i+1)
		}
		pages = append(pages, string(b))
	}
	return strings.Join(pages, "\n"), nil
}

func (p *Pipeline) run(ctx context.Context, tool string, args ...string) error {
	_, err := p.runner.Run(ctx, tool, args...)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return &util.Error{Kind: util.KindDependency, Op: "ocr", Err: err}
	}
	return util.Dependency("ocr", err, "run %s", tool)
}

// pageImages lists the rasterized page images in workDir ordered by page
// number. Names without a parsable number sort after all numbered pages.
func pageImages(workDir string) ([]string, error) {
	entries, err := os.ReadDir(workDir)
	if err != nil {
		return nil, util.Resource("ocr", err, "list page images")
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if !e.IsDir() && strings.HasPrefix(n, pagePrefix+"-") && strings.HasSuffix(n, ".png") {
			names = append(names, n)
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		a, aok := pageNumber(names[i])
		b, bok := pageNumber(names[j])
		if aok != bok {
			return aok
		}
		return aok && a < b
	})
	return names, nil
}

func pageNumber(name string) (int, bool) {
	m := pageNumberRe.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
