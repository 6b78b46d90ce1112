package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joseph-ayodele/contracts-tracker/internal/extract"
)

// renderPDFPage rasterises one 1-based page to PNG bytes with pdftoppm.
func (r *Reader) renderPDFPage(ctx context.Context, data []byte, page int) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "ct-pp-*")
	if err != nil {
		return nil, err
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			r.logger.Warn("failed to remove temp dir", "path", path, "error", err)
		}
	}(tmpDir)

	in := filepath.Join(tmpDir, "doc.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, err
	}
	prefix := filepath.Join(tmpDir, "page")
	n := strconv.Itoa(page)

	// pdftoppm -f N -l N -r DPI -png -singlefile <in.pdf> <tmp/page>
	_, errb, err := r.runner.Run(ctx, r.cfg.Pdftoppm,
		"-f", n, "-l", n, "-r", strconv.Itoa(r.cfg.DPI), "-png", "-singlefile", in, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}
	out, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm produced no image: %w", err)
	}
	return out, nil
}

// pdfPageOCR handles scanned PDFs: render the page, then OCR the image.
func (r *Reader) pdfPageOCR(ctx context.Context, doc extract.Document, page int) ([]extract.Fragment, error) {
	png, err := r.renderPDFPage(ctx, doc.Data, page)
	if err != nil {
		return nil, extractionError("PDF 페이지를 이미지로 변환하는 중 오류 발생: %v", err)
	}
	return r.imageFragments(ctx, extract.Document{Name: doc.Name + ".png", Data: png})
}
