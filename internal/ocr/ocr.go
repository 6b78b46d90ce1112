package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/contracts-tracker/constants"
	"github.com/joseph-ayodele/contracts-tracker/internal/common"
	"github.com/joseph-ayodele/contracts-tracker/internal/extract"
)

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "kor+eng"
	TessdataDir   string
	DPI           int // rasterization DPI for previews and scanned PDFs, default 150
	PSM           int // tesseract page segmentation mode; 0 leaves the default

	// MergeGap is the horizontal gap, in multiples of the line height, that splits
	// one line of glyphs into separate fragments. Default 1.0.
	MergeGap float64
}

// Reader turns uploaded documents into positioned fragments and preview images.
type Reader struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewReader(cfg Config, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "kor+eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 150
	}
	if cfg.MergeGap <= 0 {
		cfg.MergeGap = 1.0
	}
	return &Reader{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner swaps the command runner, mainly for tests.
func (r *Reader) WithRunner(run Runner) *Reader {
	cp := *r
	cp.runner = run
	return &cp
}

// Fragments returns the fragments of a 1-based page in document order.
// Images are single-page documents; the page number is ignored for them.
func (r *Reader) Fragments(ctx context.Context, doc extract.Document, page int) ([]extract.Fragment, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(doc.Name))
	var (
		frags  []extract.Fragment
		method string
		err    error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		frags, method, err = r.pdfFragments(ctx, doc, page)
	case constants.IMAGE:
		method = "image-ocr"
		frags, err = r.imageFragments(ctx, doc)
	default:
		r.logger.Error("unsupported document extension", "name", doc.Name, "extension", ext)
		return nil, common.NewAppError(common.CodeExtraction,
			fmt.Sprintf("지원하지 않는 파일 형식입니다: %q", ext), common.ErrUnsupportedDocument)
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("ocr.fragments.ok",
		"name", doc.Name,
		"page", page,
		"method", method,
		"fragments", len(frags),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return frags, nil
}

func extractionError(format string, args ...any) error {
	return common.NewAppError(common.CodeExtraction, fmt.Sprintf(format, args...), common.ErrExtraction)
}
