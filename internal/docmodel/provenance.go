package docmodel

// Size is a page size in points.
type Size struct {
	Width, Height float64
}

// USLetter is the fallback page size used when a parser cannot determine
// the true page dimensions.
var USLetter = Size{Width: 612, Height: 792}

// PageInfo describes one page of the source document.
type PageInfo struct {
	PageNo int // 1-based
	Size   Size
}

// CharSpan identifies a half-open range of characters within an item's text.
type CharSpan struct {
	Start, End int
}

// Provenance associates a document-tree item with the page region it was
// extracted from. CharSpan is nil for items that do not carry inline text
// offsets (pictures, tables).
type Provenance struct {
	PageNo   int // 1-based
	BBox     BBox
	CharSpan *CharSpan
}

// NewProvenance builds a Provenance without a char span.
func NewProvenance(pageNo int, bbox BBox) Provenance {
	return Provenance{PageNo: pageNo, BBox: bbox}
}

// WithCharSpan returns a copy of the provenance with the given span attached.
func (p Provenance) WithCharSpan(start, end int) Provenance {
	p.CharSpan = &CharSpan{Start: start, End: end}
	return p
}
