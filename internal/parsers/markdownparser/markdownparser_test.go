package markdownparser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docling-go/docling/internal/docmodel"
)

func TestParseHeadingAndParagraph(t *testing.T) {
	p := New()
	doc, err := p.Parse(strings.NewReader("# Title\n\nSome body text.\n"), "doc")
	require.NoError(t, err)

	require.Len(t, doc.Texts, 2)
	assert.Equal(t, docmodel.KindSectionHeader, doc.Texts[0].Kind)
	assert.Equal(t, "Title", doc.Texts[0].Text)
	assert.Equal(t, 1, doc.Texts[0].Level)
	assert.Equal(t, docmodel.KindParagraph, doc.Texts[1].Kind)
}

func TestParseFencedCodeBlockCarriesLanguage(t *testing.T) {
	p := New()
	doc, err := p.Parse(strings.NewReader("```go\nfmt.Println(1)\n```\n"), "doc")
	require.NoError(t, err)

	require.Len(t, doc.Texts, 1)
	assert.Equal(t, docmodel.KindCode, doc.Texts[0].Kind)
	assert.Equal(t, "go", doc.Texts[0].Language)
	assert.Contains(t, doc.Texts[0].Text, "fmt.Println(1)")
}

func TestParseListItems(t *testing.T) {
	p := New()
	doc, err := p.Parse(strings.NewReader("- one\n- two\n"), "doc")
	require.NoError(t, err)

	var items []string
	for _, tx := range doc.Texts {
		if tx.Kind == docmodel.KindListItem {
			items = append(items, tx.Text)
		}
	}
	assert.Equal(t, []string{"one", "two"}, items)
}

func TestParseGFMTableIntoTableData(t *testing.T) {
	p := New()
	src := "| A | B |\n| --- | --- |\n| 1 | 2 |\n"
	doc, err := p.Parse(strings.NewReader(src), "doc")
	require.NoError(t, err)

	require.Len(t, doc.Tables, 1)
	tbl := doc.Tables[0]
	assert.Equal(t, 2, tbl.NumRows)
	assert.Equal(t, 2, tbl.NumCols)

	header, ok := tbl.CellAt(0, 0)
	require.True(t, ok)
	assert.True(t, header.IsColumnHeader)
	assert.Equal(t, "A", header.Text)

	body, ok := tbl.CellAt(1, 1)
	require.True(t, ok)
	assert.Equal(t, "2", body.Text)
}
