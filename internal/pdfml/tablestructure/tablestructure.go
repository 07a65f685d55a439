// Package tablestructure decodes a table region into a docmodel.TableData:
// the crop/normalize/resize tensor contract, an inference backend
// interface, OTSL grid decoding, cell emission with rejection rules, and
// OCR strict-overlap text binding.
//
// All boxes handled by this package are top-left origin, per Open
// Question 4 — the opposite invariant from the readingorder package.
package tablestructure

import (
	"math"
	"sort"
	"strings"

	"github.com/docling-go/docling/internal/docerr"
	"github.com/docling-go/docling/internal/docmodel"
)

// Tag is one OTSL vocabulary symbol.
type Tag string

const (
	TagPad   Tag = "<pad>"
	TagUnk   Tag = "<unk>"
	TagStart Tag = "<start>"
	TagEnd   Tag = "<end>"
	TagECel  Tag = "ecel" // empty cell
	TagFCel  Tag = "fcel" // full (non-empty) cell
	TagLCel  Tag = "lcel" // spans left
	TagUCel  Tag = "ucel" // spans up
	TagXCel  Tag = "xcel" // spans both
	TagNL    Tag = "nl"   // row delimiter
	TagCHed  Tag = "ched" // column header
	TagRHed  Tag = "rhed" // row header
	TagSRow  Tag = "srow" // section row
)

var cellTags = map[Tag]bool{
	TagFCel: true, TagECel: true, TagCHed: true, TagRHed: true, TagSRow: true,
}

// TensorSize is the square input resolution the inference contract
// expects, per the crop/normalize/resize step.
const TensorSize = 448

// NormalizeMean and NormalizeStd are the fixed per-channel constants used
// in the `(pixel - 255*mean)/std` normalization step. All three RGB
// channels share the same constant in this contract.
const (
	NormalizeMean = 0.9425
	NormalizeStd  = 0.1793
)

// Tensor is the `[1,3,448,448]` normalized input the inference backend
// consumes: channel-major, height/width already transposed to [C,W,H],
// scaled by 1/255 after normalization.
type Tensor struct {
	Data [1][3][TensorSize][TensorSize]float32
}

// CropAndPrepare crops rgb (one page raster's pixels, row-major RGB
// triples) to the scaled table bbox, normalizes, resizes to 448x448 by
// bilinear interpolation, and transposes to [C,W,H] as the decoder
// expects (not [C,H,W]).
func CropAndPrepare(pageRGB []byte, pageW, pageH int, tableBBox docmodel.BBox, tableScale float64) (*Tensor, error) {
	if pageW <= 0 || pageH <= 0 || len(pageRGB) < pageW*pageH*3 {
		return nil, docerr.New(docerr.KindFormat, "page raster too small for declared dimensions")
	}

	cx0, cy0, cx1, cy1 := scaledCropBounds(tableBBox, tableScale, pageW, pageH)
	cw, ch := cx1-cx0, cy1-cy0
	if cw <= 0 || ch <= 0 {
		return nil, docerr.New(docerr.KindFormat, "degenerate table crop region")
	}

	t := &Tensor{}
	for outY := 0; outY < TensorSize; outY++ {
		for outX := 0; outX < TensorSize; outX++ {
			srcX := cx0 + float64(outX)*float64(cw)/float64(TensorSize)
			srcY := cy0 + float64(outY)*float64(ch)/float64(TensorSize)
			r, g, b := bilinearSample(pageRGB, pageW, pageH, srcX, srcY)
			// Normalize, then transpose H/W by writing into [x][y] instead
			// of [y][x], then scale by 1/255.
			t.Data[0][0][outX][outY] = normalize(r) / 255
			t.Data[0][1][outX][outY] = normalize(g) / 255
			t.Data[0][2][outX][outY] = normalize(b) / 255
		}
	}
	return t, nil
}

func normalize(pixel float64) float32 {
	return float32((pixel - 255*NormalizeMean) / NormalizeStd)
}

func scaledCropBounds(bbox docmodel.BBox, scale float64, pageW, pageH int) (x0, y0, x1, y1 float64) {
	cx, cy := (bbox.L+bbox.R)/2, (bbox.T+bbox.B)/2
	hw, hh := (bbox.Width()*scale)/2, (bbox.Height()*scale)/2
	x0, y0 = math.Max(0, cx-hw), math.Max(0, cy-hh)
	x1, y1 = math.Min(float64(pageW), cx+hw), math.Min(float64(pageH), cy+hh)
	return
}

func bilinearSample(rgb []byte, w, h int, x, y float64) (r, g, b float64) {
	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	x1, y1 := clampInt(x0+1, 0, w-1), clampInt(y0+1, 0, h-1)
	x0, y0 = clampInt(x0, 0, w-1), clampInt(y0, 0, h-1)
	fx, fy := x-float64(x0), y-float64(y0)

	px := func(xi, yi, ch int) float64 { return float64(rgb[(yi*w+xi)*3+ch]) }
	lerp := func(ch int) float64 {
		top := px(x0, y0, ch)*(1-fx) + px(x1, y0, ch)*fx
		bot := px(x0, y1, ch)*(1-fx) + px(x1, y1, ch)*fx
		return top*(1-fy) + bot*fy
	}
	return lerp(0), lerp(1), lerp(2)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// InferenceOutput is the raw result an InferenceBackend returns: the tag
// sequence, class logits, and bbox coordinates, all indexed in lockstep
// by cell_idx for the subset of tags that are cell tags.
type InferenceOutput struct {
	Tags        []Tag
	ClassLogits [][3]float64  // per cell_idx
	BBoxes      [][4]float64  // per cell_idx, cxcywh normalized [0,1]
}

// InferenceBackend is the external ML collaborator. Production backends
// wrap a transformer model; tests use a deterministic OTSL-producing
// stub.
type InferenceBackend interface {
	Name() string
	Infer(t *Tensor) (*InferenceOutput, error)
}

// OCRCell is one OCR-extracted text box used to bind text into decoded
// table cells.
type OCRCell struct {
	BBox     docmodel.BBox
	Text     string
	FromOCR  bool
	Confidence float64
}

// Config holds the decoder's tunables.
type Config struct {
	MinCellConfidence float64
	MinCellSizePoints float64
}

// DefaultConfig matches the values documented for the decoder.
func DefaultConfig() Config {
	return Config{MinCellConfidence: 0.1, MinCellSizePoints: 1.0}
}

// Decode runs the full pipeline steps 4-6: OTSL -> grid, cell emission
// with rejection rules, OCR binding, and the whitespace redistribution
// post-process. clusterBBox is the table's bbox in page coordinates,
// used to scale table-relative cell boxes back into page space.
func Decode(cfg Config, out *InferenceOutput, clusterBBox docmodel.BBox, ocr []OCRCell) (docmodel.TableData, error) {
	tags := stripStartEnd(out.Tags)
	rows := splitRows(tags)
	numRows := len(rows)
	numCols := 0
	for _, row := range rows {
		if len(row) > numCols {
			numCols = len(row)
		}
	}
	if numRows == 0 || numCols == 0 {
		return docmodel.TableData{}, docerr.New(docerr.KindInference, "OTSL sequence decoded to an empty grid")
	}

	table := docmodel.NewTableData(numRows, numCols)

	cellIdx := 0
	for r, row := range rows {
		c := 0
		for colPos := 0; colPos < len(row); colPos++ {
			tag := row[colPos]
			if !cellTags[tag] {
				continue
			}
			if cellIdx >= len(out.BBoxes) || cellIdx >= len(out.ClassLogits) {
				break // coord/tag count mismatch: stop emitting, keep what we have
			}

			colSpan := 1
			for k := colPos + 1; k < len(row) && (row[k] == TagLCel || row[k] == TagXCel); k++ {
				colSpan++
			}
			rowSpan := 1 + countBelow(rows, r, c, numCols)

			cell, pageBBox, ok := emitCell(cfg, out, cellIdx, r, c, rowSpan, colSpan, numRows, numCols, clusterBBox, tag)
			cellIdx++
			if !ok {
				c += colSpan
				continue
			}
			bindOCR(&cell, pageBBox, ocr)
			table.SetCell(cell)
			c += colSpan
		}
	}

	if cfg.MinCellSizePoints >= 0 {
		redistributeWhitespace(&table)
	}
	return table, nil
}

func stripStartEnd(tags []Tag) []Tag {
	out := make([]Tag, 0, len(tags))
	for _, t := range tags {
		if t == TagStart || t == TagEnd {
			continue
		}
		out = append(out, t)
	}
	return out
}

// splitRows breaks the flat tag sequence into rows at `nl` delimiters; the
// trailing row has no nl after it.
func splitRows(tags []Tag) [][]Tag {
	var rows [][]Tag
	var current []Tag
	for _, t := range tags {
		if t == TagNL {
			rows = append(rows, current)
			current = nil
			continue
		}
		current = append(current, t)
	}
	rows = append(rows, current)
	return rows
}

// countBelow counts ucel/xcel tags immediately below (row, col) in
// subsequent rows of the grid, for row_span computation. Conservative:
// stops at the first row that does not have a span-continuation tag at
// that column.
func countBelow(rows [][]Tag, row, col, numCols int) int {
	count := 0
	for r := row + 1; r < len(rows); r++ {
		if col >= len(rows[r]) {
			break
		}
		t := rows[r][col]
		if t == TagUCel || t == TagXCel {
			count++
			continue
		}
		break
	}
	return count
}

func emitCell(cfg Config, out *InferenceOutput, cellIdx, row, col, rowSpan, colSpan, numRows, numCols int, clusterBBox docmodel.BBox, tag Tag) (docmodel.TableCell, docmodel.BBox, bool) {
	bbox := out.BBoxes[cellIdx]
	logits := out.ClassLogits[cellIdx]

	for _, v := range bbox {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return docmodel.TableCell{}, docmodel.BBox{}, false
		}
	}
	maxLogit := math.Max(logits[0], math.Max(logits[1], logits[2]))
	if maxLogit < cfg.MinCellConfidence {
		return docmodel.TableCell{}, docmodel.BBox{}, false
	}

	pageBBox := cxcywhToPageBBox(bbox, clusterBBox)
	if pageBBox.Width() < cfg.MinCellSizePoints || pageBBox.Height() < cfg.MinCellSizePoints {
		return docmodel.TableCell{}, docmodel.BBox{}, false
	}

	endRow := clampInt(row+rowSpan, 0, numRows)
	endCol := clampInt(col+colSpan, 0, numCols)
	rowSpan = endRow - row
	colSpan = endCol - col
	if rowSpan < 1 {
		rowSpan = 1
	}
	if colSpan < 1 {
		colSpan = 1
	}

	return docmodel.TableCell{
		RowIdx: row, ColIdx: col, RowSpan: rowSpan, ColSpan: colSpan,
		IsColumnHeader: tag == TagCHed, IsRowHeader: tag == TagRHed,
		Confidence: maxLogit,
	}, pageBBox, true
}

// cxcywhToPageBBox converts a normalized [0,1] cxcywh box, relative to the
// table crop, into an absolute page-space BBox using the cluster's page
// bbox as the table-relative -> page-relative transform.
func cxcywhToPageBBox(b [4]float64, cluster docmodel.BBox) docmodel.BBox {
	cx, cy, w, h := b[0], b[1], b[2], b[3]
	tw, th := cluster.Width(), cluster.Height()
	l := cluster.L + (cx-w/2)*tw
	r := cluster.L + (cx+w/2)*tw
	t := cluster.T + (cy-h/2)*th
	bo := cluster.T + (cy+h/2)*th
	return docmodel.BBox{L: l, T: t, R: r, B: bo, Origin: docmodel.OriginTopLeft}
}

// bindOCR matches OCR cells whose bbox strictly overlaps (touching edges
// do not count) the cell's page bbox, concatenating matched text
// top-to-bottom then left-to-right. A decoded cell that already carries
// text from the inference backend itself is left untouched: OCR binding
// only fills in cells the backend left empty.
func bindOCR(cell *docmodel.TableCell, pageBBox docmodel.BBox, ocr []OCRCell) {
	if cell.Text != "" {
		return
	}
	var matches []OCRCell
	for _, o := range ocr {
		if strictlyOverlaps(pageBBox, o.BBox) {
			matches = append(matches, o)
		}
	}
	if len(matches) == 0 {
		return
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].BBox.T != matches[j].BBox.T {
			return matches[i].BBox.T < matches[j].BBox.T
		}
		return matches[i].BBox.L < matches[j].BBox.L
	})

	var parts []string
	var confSum float64
	fromOCR := false
	for _, m := range matches {
		parts = append(parts, m.Text)
		confSum += m.Confidence
		fromOCR = fromOCR || m.FromOCR
	}
	cell.Text = strings.Join(parts, " ")
	cell.Confidence = confSum / float64(len(matches))
}

func strictlyOverlaps(a, b docmodel.BBox) bool {
	return a.L < b.R && b.L < a.R && a.T < b.B && b.T < a.B
}

// redistributeWhitespace implements the conservative splitter of step 6,
// gated per Open Question 3 on a row-aggregate signal: only rows that
// already contain at least one other non-empty, non-numeric cell are
// eligible, which avoids false positives on single-column numeric
// tables.
func redistributeWhitespace(table *docmodel.TableData) {
	for r := 0; r < table.NumRows; r++ {
		row := table.Row(r)
		if !rowHasNonNumericSignal(row) {
			continue
		}
		for _, cell := range row {
			tokens := strings.Fields(cell.Text)
			if len(tokens) < 2 {
				continue
			}
			emptyNeighbors := findEmptyNeighbors(table, r, cell.ColIdx, len(tokens)-1)
			if len(emptyNeighbors) == 0 {
				continue
			}
			redistributeTokens(table, r, cell.ColIdx, tokens, emptyNeighbors)
		}
	}
}

func rowHasNonNumericSignal(row []docmodel.TableCell) bool {
	nonEmptyNonNumeric := 0
	for _, c := range row {
		if c.Text == "" {
			continue
		}
		if !looksNumeric(c.Text) {
			nonEmptyNonNumeric++
		}
	}
	return nonEmptyNonNumeric >= 2 // the multi-token cell itself, plus one other
}

func looksNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, ch := range s {
		if (ch < '0' || ch > '9') && ch != '.' && ch != '-' && ch != ',' && ch != '%' {
			return false
		}
	}
	return true
}

func findEmptyNeighbors(table *docmodel.TableData, row, col, count int) []int {
	var cols []int
	for c := col + 1; c < table.NumCols && len(cols) < count; c++ {
		cell, ok := table.CellAt(row, c)
		if !ok || cell.Text != "" {
			break
		}
		cols = append(cols, c)
	}
	return cols
}

func redistributeTokens(table *docmodel.TableData, row, originCol int, tokens []string, emptyCols []int) {
	table.Grid[row][originCol].Text = tokens[0]
	for i, col := range emptyCols {
		if i+1 >= len(tokens) {
			break
		}
		table.Grid[row][col].Text = tokens[i+1]
	}
}
