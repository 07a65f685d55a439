package csvparser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTwoRowTable(t *testing.T) {
	p := New()
	doc, err := p.Parse(strings.NewReader("A1,B1\nA2,B2\n"), "sheet")
	require.NoError(t, err)
	require.Len(t, doc.Tables, 1)

	tbl := doc.Tables[0]
	assert.Equal(t, 2, tbl.NumRows)
	assert.Equal(t, 2, tbl.NumCols)
	cell, ok := tbl.CellAt(1, 0)
	require.True(t, ok)
	assert.Equal(t, "A2", cell.Text)
}

func TestParseFirstRowIsColumnHeader(t *testing.T) {
	p := New()
	doc, err := p.Parse(strings.NewReader("Name,Age\nAlice,30\n"), "t")
	require.NoError(t, err)

	header, ok := doc.Tables[0].CellAt(0, 0)
	require.True(t, ok)
	assert.True(t, header.IsColumnHeader)

	body, ok := doc.Tables[0].CellAt(1, 0)
	require.True(t, ok)
	assert.False(t, body.IsColumnHeader)
}

func TestParseRaggedRowsPadWithEmptyCells(t *testing.T) {
	p := New()
	doc, err := p.Parse(strings.NewReader("a,b,c\nx,y\n"), "t")
	require.NoError(t, err)

	tbl := doc.Tables[0]
	assert.Equal(t, 3, tbl.NumCols)
	cell, ok := tbl.CellAt(1, 2)
	require.True(t, ok)
	assert.Equal(t, "", cell.Text)
}

func TestParseEmptyInputProducesEmptyDocument(t *testing.T) {
	p := New()
	doc, err := p.Parse(strings.NewReader(""), "empty")
	require.NoError(t, err)
	assert.Empty(t, doc.Tables)
}

func TestParseCustomDelimiter(t *testing.T) {
	p := &Parser{Comma: ';'}
	doc, err := p.Parse(strings.NewReader("a;b\n"), "t")
	require.NoError(t, err)
	cell, ok := doc.Tables[0].CellAt(0, 1)
	require.True(t, ok)
	assert.Equal(t, "b", cell.Text)
}
