package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/contracts-tracker/internal/extract"
)

// imageFragments OCRs an image and groups word boxes into fragments.
func (r *Reader) imageFragments(ctx context.Context, doc extract.Document) ([]extract.Fragment, error) {
	tmpDir, err := os.MkdirTemp("", "ct-ocr-*")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	in := filepath.Join(tmpDir, "page"+filepath.Ext(doc.Name))
	if err := os.WriteFile(in, doc.Data, 0o600); err != nil {
		return nil, err
	}

	tsv, err := r.tesseractTSV(ctx, in)
	if err != nil {
		return nil, extractionError("이미지 OCR 중 오류 발생: %v", err)
	}
	return parseTSV(tsv, r.cfg.MergeGap), nil
}

// tesseractTSV runs tesseract in TSV mode: one row per page/block/paragraph/line/word.
func (r *Reader) tesseractTSV(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", r.cfg.TesseractLang}
	if r.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", r.cfg.PSM))
	}
	if r.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", r.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, errb, err := r.runner.Run(ctx, r.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract TSV: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

type tsvWord struct {
	block, par, line, word int
	left, top, w, h        float64
	text                   string
}

// parseTSV converts tesseract word boxes (origin top-left) into fragments (origin bottom-left).
func parseTSV(tsv string, gap float64) []extract.Fragment {
	var (
		pageH float64
		words []tsvWord
	)
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || strings.TrimSpace(ln) == "" {
			continue // header
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		level := atoi(cols[0])
		left, top, w, h := atof(cols[6]), atof(cols[7]), atof(cols[8]), atof(cols[9])
		if level == 1 {
			pageH = top + h
			continue
		}
		text := Normalize(strings.Join(cols[11:], "\t"))
		if level != 5 || text == "" {
			continue
		}
		words = append(words, tsvWord{
			block: atoi(cols[2]), par: atoi(cols[3]), line: atoi(cols[4]), word: atoi(cols[5]),
			left: left, top: top, w: w, h: h, text: text,
		})
	}

	sort.SliceStable(words, func(i, j int) bool {
		a, b := words[i], words[j]
		if a.block != b.block {
			return a.block < b.block
		}
		if a.par != b.par {
			return a.par < b.par
		}
		if a.line != b.line {
			return a.line < b.line
		}
		return a.word < b.word
	})

	var (
		out  []extract.Fragment
		line glyphLine
		key  [3]int
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
	for _, w := range words {
		g := glyph{
			text:   w.text,
			left:   w.left,
			right:  w.left + w.w,
			bottom: pageH - (w.top + w.h),
			top:    pageH - w.top,
			size:   w.h,
		}
		k := [3]int{w.block, w.par, w.line}
		if open && (k != key || !line.acceptsWord(g, gap)) {
			flush()
		}
		if !open {
			line = glyphLine{}
			key = k
			open = true
		}
		line.add(g)
	}
	flush()
	return out
}

// acceptsWord only checks the horizontal gap; tesseract already grouped the line.
func (l *glyphLine) acceptsWord(g glyph, gap float64) bool {
	if l.count == 0 {
		return true
	}
	return g.left-l.box.Right <= gap*l.size
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
