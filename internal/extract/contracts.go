package extract

import (
	"context"
)

// BBox is a bounding box in page coordinates with Y growing upwards.
type BBox struct {
	Left   float64
	Bottom float64
	Right  float64
	Top    float64
}

// CenterY is the vertical midpoint of the box.
func (b BBox) CenterY() float64 {
	return (b.Bottom + b.Top) / 2
}

// Fragment is one span of text with its bounding box.
type Fragment struct {
	Text string
	Box  BBox
}

// Document is an uploaded file held in memory.
type Document struct {
	Name string
	Data []byte
}

// FragmentSource yields the positioned fragments of one page (1-based) in document order.
type FragmentSource interface {
	Fragments(ctx context.Context, doc Document, page int) ([]Fragment, error)
}

// FieldExtractor turns one page of fragments into field values.
type FieldExtractor interface {
	Extract(fragments []Fragment) (Result, error)
}
