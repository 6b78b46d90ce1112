package ocr

import (
	"bytes"
	"context"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/contracts-tracker/internal/extract"
)

// pdfFragments reads the text layer of a page; pages without one are rasterised and OCRed.
func (r *Reader) pdfFragments(ctx context.Context, doc extract.Document, page int) ([]extract.Fragment, string, error) {
	texts, err := pdfPageTexts(doc.Data, page)
	if err != nil {
		return nil, "", err
	}
	if frags := mergeGlyphs(texts, r.cfg.MergeGap); len(frags) > 0 {
		return frags, "pdf-text", nil
	}

	r.logger.Info("pdf page has no text layer; falling back to ocr", "name", doc.Name, "page", page)
	frags, err := r.pdfPageOCR(ctx, doc, page)
	return frags, "pdf-ocr", err
}

// pdfPageTexts returns the glyph runs of a 1-based page. The pdf package panics on
// some malformed files, so panics are turned into extraction errors.
func pdfPageTexts(data []byte, page int) (texts []pdf.Text, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			texts = nil
			err = extractionError("PDF를 읽는 중 오류 발생: %v", rec)
		}
	}()

	rd, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, extractionError("PDF를 열 수 없습니다: %v", err)
	}
	if page < 1 || page > rd.NumPage() {
		return nil, extractionError("PDF에 %d페이지가 없습니다 (총 %d페이지)", page, rd.NumPage())
	}
	p := rd.Page(page)
	if p.V.IsNull() {
		return nil, extractionError("PDF %d페이지를 읽을 수 없습니다", page)
	}
	return p.Content().Text, nil
}

// pdfPageCount returns the number of pages, or 0 when the file cannot be parsed.
func pdfPageCount(data []byte) (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	rd, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	return rd.NumPage()
}

// mergeGlyphs joins consecutive glyph runs sharing a baseline into fragments.
// A gap wider than gap*fontSize, a baseline change or a jump backwards starts a new fragment.
func mergeGlyphs(texts []pdf.Text, gap float64) []extract.Fragment {
	var (
		out  []extract.Fragment
		line glyphLine
		open bool
	)
	flush := func() {
		if open {
			if f, ok := line.fragment(); ok {
				out = append(out, f)
			}
		}
		open = false
	}

	for _, t := range texts {
		if t.S == "" {
			continue
		}
		size := t.FontSize
		if size <= 0 {
			size = 10
		}
		w := t.W
		if w <= 0 {
			w = size * 0.5 * float64(len([]rune(t.S)))
		}
		g := glyph{text: t.S, left: t.X, right: t.X + w, bottom: t.Y, top: t.Y + size, size: size}

		if open && !line.accepts(g, gap) {
			flush()
		}
		if !open {
			line = glyphLine{}
			open = true
		}
		line.add(g)
	}
	flush()
	return out
}
