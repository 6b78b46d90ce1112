package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"github.com/joseph-ayodele/contracts-tracker/constants"
	"github.com/joseph-ayodele/contracts-tracker/internal/common"
	"github.com/joseph-ayodele/contracts-tracker/internal/extract"
)

// Preview renders a page to PNG scaled to fit maxW x maxH (0 keeps that side unbounded).
// PDFs shorter than page fall back to their first page. It returns the page actually shown.
func (r *Reader) Preview(ctx context.Context, doc extract.Document, page, maxW, maxH int) ([]byte, int, error) {
	start := time.Now()
	var (
		img   image.Image
		shown = 1
		err   error
	)
	switch constants.MapExtToFormat(filepath.Ext(doc.Name)) {
	case constants.PDF:
		if page < 1 || page > pdfPageCount(doc.Data) {
			page = 1
		}
		shown = page
		var png []byte
		png, err = r.renderPDFPage(ctx, doc.Data, page)
		if err != nil {
			r.logger.Error("ocr.preview.failed", "name", doc.Name, "page", page, "error", err)
			return nil, 0, common.NewAppError(common.CodeExtraction,
				fmt.Sprintf("PDF를 이미지로 변환하는 중 오류 발생: %v", err), common.ErrExtraction)
		}
		img, err = imaging.Decode(bytes.NewReader(png))
	case constants.IMAGE:
		img, err = imaging.Decode(bytes.NewReader(doc.Data), imaging.AutoOrientation(true))
	default:
		return nil, 0, common.NewAppError(common.CodeExtraction,
			fmt.Sprintf("지원하지 않는 파일 형식입니다: %q", filepath.Ext(doc.Name)), common.ErrUnsupportedDocument)
	}
	if err != nil {
		return nil, 0, extractionError("이미지를 읽을 수 없습니다: %v", err)
	}

	img = fit(img, maxW, maxH)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, 0, fmt.Errorf("encode preview: %w", err)
	}
	r.logger.Debug("ocr.preview.ok",
		"name", doc.Name,
		"page", shown,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), shown, nil
}

func fit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	switch {
	case maxW <= 0 && maxH <= 0:
		return img
	case maxW <= 0:
		maxW = b.Dx()
	case maxH <= 0:
		maxH = b.Dy()
	}
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return img
	}
	return imaging.Fit(img, maxW, maxH, imaging.Lanczos)
}
