// Package docmodel implements the unified structured document tree that
// every format parser populates and every exporter consumes.
package docmodel

import "fmt"

// Origin identifies which corner of a page a bounding box's coordinates are
// measured from. Conversions between origins require the page height and
// are always explicit — no algorithm may silently assume one.
type Origin int

const (
	OriginTopLeft Origin = iota
	OriginBottomLeft
)

func (o Origin) String() string {
	if o == OriginBottomLeft {
		return "bottom-left"
	}
	return "top-left"
}

// BBox is an axis-aligned bounding box in page points.
type BBox struct {
	L, T, R, B float64
	Origin     Origin
}

// Width returns r-l.
func (b BBox) Width() float64 { return b.R - b.L }

// Height returns the vertical extent, which is b-t in top-left origin and
// t-b in bottom-left origin (top is numerically larger when measured from
// the bottom of the page).
func (b BBox) Height() float64 {
	if b.Origin == OriginBottomLeft {
		return b.T - b.B
	}
	return b.B - b.T
}

// Area returns width*height, or 0 for a degenerate box.
func (b BBox) Area() float64 {
	w, h := b.Width(), b.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// IsDegenerate reports whether the box has zero or negative area. Degenerate
// boxes are permitted only as sentinel values and must never enter a
// spatial index.
func (b BBox) IsDegenerate() bool {
	return b.Width() <= 0 || b.Height() <= 0
}

// OverlapsHorizontally reports whether the two boxes share any horizontal
// extent.
func (b BBox) OverlapsHorizontally(o BBox) bool {
	return b.L < o.R && o.L < b.R
}

// ToOrigin converts the box to the target origin. Conversion requires the
// page height in points; a box already in the target origin is returned
// unchanged.
func (b BBox) ToOrigin(target Origin, pageHeight float64) BBox {
	if b.Origin == target {
		return b
	}
	out := BBox{L: b.L, R: b.R, Origin: target}
	// Mirroring around the page height keeps each edge's own field: the top
	// edge stays the top edge, just renumbered from the opposite corner.
	out.T = pageHeight - b.T
	out.B = pageHeight - b.B
	return out
}

func (b BBox) String() string {
	return fmt.Sprintf("BBox{l:%.2f t:%.2f r:%.2f b:%.2f origin:%s}", b.L, b.T, b.R, b.B, b.Origin)
}
