package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/contracts-tracker/internal/common"
	"github.com/joseph-ayodele/contracts-tracker/internal/extract"
)

type stubRunner struct {
	stdout string
	err    error
	calls  [][]string
	// files written next to the last argument prefix, for pdftoppm
	png []byte
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, append([]string{name}, args...))
	if s.err != nil {
		return nil, []byte("boom"), s.err
	}
	if s.png != nil && len(args) > 0 {
		if err := os.WriteFile(args[len(args)-1]+".png", s.png, 0o600); err != nil {
			return nil, nil, err
		}
	}
	return []byte(s.stdout), nil, nil
}

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t1000\t1400\t-1\t\n" +
	"4\t1\t1\t1\t1\t0\t100\t200\t500\t20\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t100\t200\t40\t20\t96\t대여\n" +
	"5\t1\t1\t1\t1\t2\t145\t200\t40\t20\t95\t기간\n" +
	"5\t1\t1\t1\t1\t3\t400\t201\t30\t20\t91\t48\n" +
	"5\t1\t1\t1\t1\t4\t435\t201\t40\t20\t90\t개월\n" +
	"5\t1\t2\t1\t1\t1\t100\t300\t60\t20\t88\t고객명\n" +
	"5\t1\t2\t1\t1\t2\t300\t300\t60\t20\t-1\t \n"

func TestParseTSV(t *testing.T) {
	frags := parseTSV(sampleTSV, 1.0)
	require.Len(t, frags, 3)

	assert.Equal(t, "대여 기간", frags[0].Text)
	assert.Equal(t, "48 개월", frags[1].Text)
	assert.Equal(t, "고객명", frags[2].Text)

	// flipped to bottom-left origin
	assert.InDelta(t, 1180, frags[0].Box.Bottom, 0.001)
	assert.InDelta(t, 1200, frags[0].Box.Top, 0.001)
	assert.InDelta(t, 100, frags[0].Box.Left, 0.001)
	assert.InDelta(t, 185, frags[0].Box.Right, 0.001)
	assert.Less(t, frags[0].Box.Right, frags[1].Box.Left)
}

func TestFragments_ImageFeedsExtractor(t *testing.T) {
	run := &stubRunner{stdout: sampleTSV}
	r := NewReader(Config{TesseractLang: "kor"}, nil).WithRunner(run)

	frags, err := r.Fragments(context.Background(), extract.Document{Name: "scan.JPG", Data: []byte("jpeg")}, 2)
	require.NoError(t, err)
	require.Len(t, run.calls, 1)
	assert.Equal(t, "tesseract", run.calls[0][0])
	assert.Contains(t, run.calls[0], "tsv")
	assert.Contains(t, run.calls[0], "kor")

	e, err := extract.NewExtractor([]extract.LabelSpec{
		{Field: "period", Synonyms: []string{"대여 기간"}, Rule: extract.RuleCurrency},
	}, extract.Options{}, nil)
	require.NoError(t, err)
	res, err := e.Extract(frags)
	require.NoError(t, err)
	v, ok := res.Get("period")
	assert.True(t, ok)
	assert.Equal(t, "48", v)
}

func TestFragments_TesseractFailure(t *testing.T) {
	r := NewReader(Config{}, nil).WithRunner(&stubRunner{err: errors.New("exit status 1")})

	_, err := r.Fragments(context.Background(), extract.Document{Name: "scan.png", Data: []byte("x")}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrExtraction)
}

func TestFragments_Unsupported(t *testing.T) {
	r := NewReader(Config{}, nil)
	_, err := r.Fragments(context.Background(), extract.Document{Name: "contract.docx"}, 2)
	assert.ErrorIs(t, err, common.ErrUnsupportedDocument)
}

func TestFragments_CorruptPDF(t *testing.T) {
	r := NewReader(Config{}, nil)
	_, err := r.Fragments(context.Background(), extract.Document{Name: "q.pdf", Data: []byte("%PDF-1.4 garbage")}, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrExtraction)
}

func TestMergeGlyphs(t *testing.T) {
	// per-character runs as produced by the pdf package
	var texts []pdf.Text
	add := func(s string, x, y float64) {
		for _, r := range s {
			texts = append(texts, pdf.Text{FontSize: 10, X: x, Y: y, W: 8, S: string(r)})
			x += 8
		}
	}
	add("고객명", 50, 700)
	add("홍길동", 150, 700)  // far right: separate fragment
	add("대여", 50, 680)
	add("기간", 70, 680.5) // 4pt gap: same fragment with a space
	add("48", 150, 680)

	frags := mergeGlyphs(texts, 1.0)
	require.Len(t, frags, 4)
	assert.Equal(t, "고객명", frags[0].Text)
	assert.Equal(t, "홍길동", frags[1].Text)
	assert.Equal(t, "대여 기간", frags[2].Text)
	assert.Equal(t, "48", frags[3].Text)

	assert.InDelta(t, 50, frags[0].Box.Left, 0.001)
	assert.InDelta(t, 74, frags[0].Box.Right, 0.001)
	assert.InDelta(t, 705, frags[0].Box.CenterY(), 0.001)
}

func TestMergeGlyphs_SkipsBlank(t *testing.T) {
	frags := mergeGlyphs([]pdf.Text{
		{FontSize: 10, X: 0, Y: 0, W: 3, S: " "},
		{FontSize: 10, X: 100, Y: 0, W: 3, S: ""},
	}, 1.0)
	assert.Empty(t, frags)
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.White)
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func decodeSize(t *testing.T, b []byte) image.Point {
	t.Helper()
	img, err := imaging.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	return img.Bounds().Size()
}

func TestPreview_ImageIsScaledToFit(t *testing.T) {
	r := NewReader(Config{}, nil)

	out, page, err := r.Preview(context.Background(), extract.Document{Name: "a.png", Data: testPNG(t, 800, 400)}, 2, 200, 200)
	require.NoError(t, err)
	assert.Equal(t, 1, page)
	assert.Equal(t, image.Pt(200, 100), decodeSize(t, out))

	out, _, err = r.Preview(context.Background(), extract.Document{Name: "a.png", Data: testPNG(t, 50, 40)}, 1, 200, 0)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(50, 40), decodeSize(t, out))
}

func TestRenderPDFPage_Args(t *testing.T) {
	run := &stubRunner{png: testPNG(t, 10, 10)}
	r := NewReader(Config{DPI: 72}, nil).WithRunner(run)

	out, err := r.renderPDFPage(context.Background(), []byte("%PDF"), 2)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	require.Len(t, run.calls, 1)
	args := strings.Join(run.calls[0], " ")
	assert.Contains(t, args, "pdftoppm -f 2 -l 2 -r 72 -png -singlefile")
	assert.Equal(t, "doc.pdf", filepath.Base(run.calls[0][len(run.calls[0])-2]))
}
