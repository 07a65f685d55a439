package tablestructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docling-go/docling/internal/docmodel"
)

func tableBBox() docmodel.BBox {
	return docmodel.BBox{L: 0, T: 0, R: 300, B: 200, Origin: docmodel.OriginTopLeft}
}

func TestDecodeOTSLShape(t *testing.T) {
	// fcel lcel fcel nl fcel fcel fcel -- a 2x3 grid where row 0's first
	// cell spans two columns.
	seq := []Tag{TagStart, TagFCel, TagLCel, TagFCel, TagNL, TagFCel, TagFCel, TagFCel, TagEnd}
	backend := NewStubBackend(seq)
	tensor := &Tensor{}
	out, err := backend.Infer(tensor)
	require.NoError(t, err)

	table, err := Decode(DefaultConfig(), out, tableBBox(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, table.NumRows)
	assert.Equal(t, 3, table.NumCols)
}

func TestDecodeSpanCoherence(t *testing.T) {
	// Row 0: fcel(span 2) lcel fcel. The lcel tag to the right of the
	// span-origin cell must not itself become an independent cell.
	seq := []Tag{TagStart, TagFCel, TagLCel, TagFCel, TagNL, TagFCel, TagFCel, TagFCel, TagEnd}
	backend := NewStubBackend(seq)
	out, err := backend.Infer(&Tensor{})
	require.NoError(t, err)

	table, err := Decode(DefaultConfig(), out, tableBBox(), nil)
	require.NoError(t, err)

	origin, ok := table.CellAt(0, 0)
	require.True(t, ok)
	assert.True(t, origin.IsSpanOrigin)
	assert.Equal(t, 2, origin.ColSpan)

	spanned, ok := table.CellAt(0, 1)
	require.True(t, ok)
	assert.False(t, spanned.IsSpanOrigin)
	assert.Equal(t, 0, spanned.SpanOriginCol)
}

func TestDecodeRejectsLowConfidenceCells(t *testing.T) {
	backend := NewStubBackend([]Tag{TagStart, TagFCel, TagEnd})
	out, err := backend.Infer(&Tensor{})
	require.NoError(t, err)
	out.ClassLogits[0] = [3]float64{0.01, 0.01, 0.01}

	cfg := DefaultConfig()
	table, err := Decode(cfg, out, tableBBox(), nil)
	require.NoError(t, err)

	_, ok := table.CellAt(0, 0)
	require.True(t, ok) // grid position exists but carries no span-origin cell
	assert.False(t, table.Grid[0][0].IsSpanOrigin)
}

func TestDecodeEmptyGridFails(t *testing.T) {
	out := &InferenceOutput{Tags: []Tag{TagStart, TagEnd}}
	_, err := Decode(DefaultConfig(), out, tableBBox(), nil)
	assert.Error(t, err)
}

func TestBindOCRStrictOverlapOnly(t *testing.T) {
	// Two cells share an edge but do not overlap: OCR text touching only
	// the boundary must not bleed into the neighboring cell.
	seq := []Tag{TagStart, TagFCel, TagFCel, TagEnd}
	backend := NewStubBackend(seq)
	out, err := backend.Infer(&Tensor{})
	require.NoError(t, err)

	ocr := []OCRCell{
		{BBox: docmodel.BBox{L: 0, T: 0, R: 150, B: 200, Origin: docmodel.OriginTopLeft}, Text: "left", Confidence: 0.9},
		{BBox: docmodel.BBox{L: 150, T: 0, R: 300, B: 200, Origin: docmodel.OriginTopLeft}, Text: "right", Confidence: 0.9},
	}
	table, err := Decode(DefaultConfig(), out, tableBBox(), ocr)
	require.NoError(t, err)

	left, _ := table.CellAt(0, 0)
	right, _ := table.CellAt(0, 1)
	assert.NotEqual(t, left.Text, right.Text)
}

func TestRowHasNonNumericSignalRequiresTwoCells(t *testing.T) {
	row := []docmodel.TableCell{{Text: "123"}}
	assert.False(t, rowHasNonNumericSignal(row))

	row = []docmodel.TableCell{{Text: "foo bar"}, {Text: "baz"}}
	assert.True(t, rowHasNonNumericSignal(row))
}
