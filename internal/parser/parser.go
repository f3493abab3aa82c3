package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"docrag/internal/util"

	"go.uber.org/zap"
)

const DefaultMinCharsPerPage = 50

// ParsedDocument is normalized text: whitespace runs collapsed to one space
// and trimmed. PageCount is set for PDFs only.
type ParsedDocument struct {
	Text      string
	PageCount *int
	FileType  string
}

// OCR re-derives text from a PDF when its text layer is too thin.
type OCR interface {
	Extract(ctx context.Context, pdfPath string) (string, error)
}

type Config struct {
	OCREnabled      bool
	MinCharsPerPage int
}

type Parser struct {
	cfg        Config
	ocr        OCR
	logger     *zap.Logger
	extractPDF func(path string) (string, int, error)
}

type Option func(*Parser)

func WithLogger(l *zap.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// New builds a Parser. ocr may be nil when OCR is disabled.
func New(cfg Config, ocr OCR, opts ...Option) *Parser {
	if cfg.MinCharsPerPage <= 0 {
		cfg.MinCharsPerPage = DefaultMinCharsPerPage
	}
	p := &Parser{
		cfg:        cfg,
		ocr:        ocr,
		logger:     zap.NewNop(),
		extractPDF: extractPDF,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse dispatches on the file extension. It never returns partial text:
// any extraction failure is an error.
func (p *Parser) Parse(ctx context.Context, path string) (ParsedDocument, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", ".md":
		b, err := os.ReadFile(path)
		if err != nil {
			return ParsedDocument{}, util.Resource("parse", err, "read %s", filepath.Base(path))
		}
		return ParsedDocument{Text: normalize(string(b)), FileType: ext[1:]}, nil
	case ".docx":
		b, err := os.ReadFile(path)
		if err != nil {
			return ParsedDocument{}, util.Resource("parse", err, "read %s", filepath.Base(path))
		}
		raw, err := extractDOCX(b)
		if err != nil {
			return ParsedDocument{}, util.Validation("parse", "%v", err)
		}
		return ParsedDocument{Text: normalize(raw), FileType: "docx"}, nil
	case ".pdf":
		return p.parsePDF(ctx, path)
	default:
		return ParsedDocument{}, util.Validation("parse", "unsupported file type: %s", ext)
	}
}

func (p *Parser) parsePDF(ctx context.Context, path string) (ParsedDocument, error) {
	raw, pages, err := p.extractPDF(path)
	if err != nil {
		return ParsedDocument{}, util.Validation("parse", "%v", err)
	}
	doc := ParsedDocument{Text: normalize(raw), FileType: "pdf"}
	if pages > 0 {
		doc.PageCount = &pages
	}

	if !p.cfg.OCREnabled || p.ocr == nil {
		return doc, nil
	}
	minChars := MinChars(p.cfg.MinCharsPerPage, pages)
	got := utf8.RuneCountInString(doc.Text)
	if got >= minChars {
		return doc, nil
	}

	p.logger.Info("pdf text layer below threshold, running ocr",
		zap.String("path", path),
		zap.Int("chars", got),
		zap.Int("min_chars", minChars),
		zap.Int("pages", pages),
	)
	text, err := p.ocr.Extract(ctx, path)
	if err != nil {
		return ParsedDocument{}, err
	}
	doc.Text = normalize(text)
	return doc, nil
}

// MinChars is the character count below which a PDF falls back to OCR. An
// unknown page count uses the per-page figure as a flat threshold.
func MinChars(perPage, pages int) int {
	if pages > 0 {
		return perPage * pages
	}
	return perPage
}

func normalize(s string) string {
	return util.NormalizeText(s)
}
