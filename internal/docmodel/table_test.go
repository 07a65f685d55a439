package docmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCellMarksSpanOriginAndCoversRegion(t *testing.T) {
	tbl := NewTableData(2, 3)
	tbl.SetCell(TableCell{Text: "merged", RowIdx: 0, ColIdx: 0, RowSpan: 1, ColSpan: 2})

	origin, ok := tbl.CellAt(0, 0)
	require.True(t, ok)
	assert.True(t, origin.IsSpanOrigin)
	assert.Equal(t, "merged", origin.Text)

	covered, ok := tbl.CellAt(0, 1)
	require.True(t, ok)
	assert.False(t, covered.IsSpanOrigin)
	assert.Equal(t, "", covered.Text)
	assert.Equal(t, 0, covered.SpanOriginRow)
	assert.Equal(t, 0, covered.SpanOriginCol)
}

// TestSpanCoherence is the spec.md §8 property: for any emitted cell with
// col_span = k, the k-1 grid positions to its right are covered (non
// origin) positions tracing back to the same origin.
func TestSpanCoherenceAcrossGrid(t *testing.T) {
	tbl := NewTableData(3, 4)
	tbl.SetCell(TableCell{Text: "wide", RowIdx: 1, ColIdx: 1, RowSpan: 2, ColSpan: 3})

	for r := 1; r < 3; r++ {
		for c := 1; c < 4; c++ {
			cell, ok := tbl.CellAt(r, c)
			require.True(t, ok)
			assert.Equal(t, 1, cell.SpanOriginRow)
			assert.Equal(t, 1, cell.SpanOriginCol)
			if r == 1 && c == 1 {
				assert.True(t, cell.IsSpanOrigin)
			} else {
				assert.False(t, cell.IsSpanOrigin)
			}
		}
	}
}

func TestSetCellClampsSpanToGridBounds(t *testing.T) {
	tbl := NewTableData(2, 2)
	tbl.SetCell(TableCell{Text: "overflow", RowIdx: 1, ColIdx: 1, RowSpan: 5, ColSpan: 5})

	cell, ok := tbl.CellAt(1, 1)
	require.True(t, ok)
	assert.True(t, cell.IsSpanOrigin)
	// No panic and no out-of-bounds access: the grid stays 2x2.
	assert.Equal(t, 2, tbl.NumRows)
	assert.Equal(t, 2, tbl.NumCols)
}

func TestRowReturnsOnlySpanOriginCells(t *testing.T) {
	tbl := NewTableData(1, 4)
	tbl.SetCell(TableCell{Text: "a", RowIdx: 0, ColIdx: 0, RowSpan: 1, ColSpan: 2})
	tbl.SetCell(TableCell{Text: "b", RowIdx: 0, ColIdx: 2, RowSpan: 1, ColSpan: 1})
	tbl.SetCell(TableCell{Text: "c", RowIdx: 0, ColIdx: 3, RowSpan: 1, ColSpan: 1})

	row := tbl.Row(0)
	require.Len(t, row, 3)
	assert.Equal(t, "a", row[0].Text)
	assert.Equal(t, "b", row[1].Text)
	assert.Equal(t, "c", row[2].Text)
}

func TestCellAtOutOfBoundsReturnsFalse(t *testing.T) {
	tbl := NewTableData(2, 2)
	_, ok := tbl.CellAt(5, 0)
	assert.False(t, ok)
	_, ok = tbl.CellAt(0, -1)
	assert.False(t, ok)
}

func TestSetCellDefaultsZeroSpansToOne(t *testing.T) {
	tbl := NewTableData(1, 1)
	tbl.SetCell(TableCell{Text: "x", RowIdx: 0, ColIdx: 0})
	cell, _ := tbl.CellAt(0, 0)
	assert.Equal(t, 1, cell.RowSpan)
	assert.Equal(t, 1, cell.ColSpan)
}
