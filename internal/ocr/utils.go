package ocr

import (
	"math"
	"strings"

	"github.com/joseph-ayodele/contracts-tracker/internal/extract"
)

// glyph is a positioned run of text with Y growing upwards.
type glyph struct {
	text        string
	left, right float64
	bottom, top float64
	size        float64
}

// glyphLine accumulates glyphs of one fragment.
type glyphLine struct {
	b     strings.Builder
	box   extract.BBox
	size  float64
	count int
}

func (l *glyphLine) accepts(g glyph, gap float64) bool {
	if l.count == 0 {
		return true
	}
	size := math.Max(l.size, g.size)
	if math.Abs(g.bottom-l.box.Bottom) > 0.3*size {
		return false
	}
	dx := g.left - l.box.Right
	return dx >= -0.5*size && dx <= gap*size
}

func (l *glyphLine) add(g glyph) {
	if l.count == 0 {
		l.box = extract.BBox{Left: g.left, Bottom: g.bottom, Right: g.right, Top: g.top}
		l.size = g.size
	} else {
		// word spacing that the producer encoded as a gap instead of a space glyph
		if g.left-l.box.Right > 0.2*l.size && !strings.HasSuffix(l.b.String(), " ") && !strings.HasPrefix(g.text, " ") {
			l.b.WriteByte(' ')
		}
		l.box.Left = math.Min(l.box.Left, g.left)
		l.box.Right = math.Max(l.box.Right, g.right)
		l.box.Bottom = math.Min(l.box.Bottom, g.bottom)
		l.box.Top = math.Max(l.box.Top, g.top)
		l.size = math.Max(l.size, g.size)
	}
	l.b.WriteString(g.text)
	l.count++
}

func (l *glyphLine) fragment() (extract.Fragment, bool) {
	text := Normalize(l.b.String())
	if text == "" {
		return extract.Fragment{}, false
	}
	return extract.Fragment{Text: text, Box: l.box}, true
}
