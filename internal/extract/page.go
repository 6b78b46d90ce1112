package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/contracts-tracker/internal/common"
)

// PageExtractor reads one page from a FragmentSource and runs the field extractor on it.
type PageExtractor struct {
	source FragmentSource
	fields FieldExtractor
	page   int
	logger *slog.Logger
}

// NewPageExtractor reads page (1-based); values below 1 mean page 2.
func NewPageExtractor(source FragmentSource, fields FieldExtractor, page int, logger *slog.Logger) *PageExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if page < 1 {
		page = 2
	}
	return &PageExtractor{source: source, fields: fields, page: page, logger: logger}
}

// ExtractDocument returns the extraction result for the configured page of doc.
func (p *PageExtractor) ExtractDocument(ctx context.Context, doc Document) (res Result, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("extract.document.panic", "name", doc.Name, "recovered", r)
			res = Result{}
			err = common.NewAppError(common.CodeExtraction,
				fmt.Sprintf("문서 처리 중 오류 발생: %v", r), common.ErrExtraction)
		}
	}()

	frags, err := p.source.Fragments(ctx, doc, p.page)
	if err != nil {
		p.logger.Error("extract.document.failed", "name", doc.Name, "page", p.page, "error", err)
		return Result{}, err
	}
	res, err = p.fields.Extract(frags)
	if err != nil {
		return Result{}, err
	}
	p.logger.Info("extract.document.ok",
		"name", doc.Name,
		"page", p.page,
		"fragments", len(frags),
		"found", res.FoundCount(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
