package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docling-go/docling/internal/docmodel"
)

func TestExportTitleAndSectionHeader(t *testing.T) {
	d := docmodel.New("doc")
	d.AddText(docmodel.KindTitle, "Intro", d.Body)
	h2 := d.AddText(docmodel.KindSectionHeader, "Details", d.Body)
	d.Texts[h2.Idx].Level = 2

	out := Export(d)
	assert.Contains(t, out, "# Intro\n")
	assert.Contains(t, out, "## Details\n")
}

func TestExportGenericTextRendersAsParagraph(t *testing.T) {
	d := docmodel.New("doc")
	h1 := d.AddText(docmodel.KindSectionHeader, "Heading1 style", d.Body)
	d.Texts[h1.Idx].Level = 1
	d.AddText(docmodel.KindText, "plain paragraph text", d.Body)

	out := Export(d)
	assert.Contains(t, out, "# Heading1 style\n")
	assert.Contains(t, out, "plain paragraph text\n")
}

func TestExportFormulaWrappedInDoubleDollar(t *testing.T) {
	d := docmodel.New("doc")
	d.AddText(docmodel.KindFormula, "E = mc^2", d.Body)

	out := Export(d)
	assert.Contains(t, out, "$$ E = mc^2 $$")
}

func TestExportIsDeterministic(t *testing.T) {
	build := func() *docmodel.Document {
		d := docmodel.New("doc")
		d.AddText(docmodel.KindParagraph, "hello world", d.Body)
		tbl := docmodel.NewTableData(1, 2)
		tbl.SetCell(docmodel.TableCell{Text: "a", RowIdx: 0, ColIdx: 0, IsColumnHeader: true})
		tbl.SetCell(docmodel.TableCell{Text: "b", RowIdx: 0, ColIdx: 1, IsColumnHeader: true})
		d.AddTable(tbl, d.Body)
		return d
	}
	first := Export(build())
	second := Export(build())
	assert.Equal(t, first, second)
}

func TestExportTableHeaderRowAndMergedCellFlattening(t *testing.T) {
	d := docmodel.New("doc")
	tbl := docmodel.NewTableData(2, 2)
	tbl.SetCell(docmodel.TableCell{Text: "merged", RowIdx: 0, ColIdx: 0, ColSpan: 2, IsColumnHeader: true})
	tbl.SetCell(docmodel.TableCell{Text: "x", RowIdx: 1, ColIdx: 0})
	tbl.SetCell(docmodel.TableCell{Text: "y", RowIdx: 1, ColIdx: 1})
	d.AddTable(tbl, d.Body)

	out := Export(d)
	require.Contains(t, out, "| merged |  |")
	assert.Contains(t, out, "| --- | --- |")
	assert.Contains(t, out, "| x | y |")
}

func TestExportTableWithoutColumnHeaderSkipsSeparatorCheckOnlyWhenAbsent(t *testing.T) {
	d := docmodel.New("doc")
	tbl := docmodel.NewTableData(1, 2)
	tbl.SetCell(docmodel.TableCell{Text: "a", RowIdx: 0, ColIdx: 0})
	tbl.SetCell(docmodel.TableCell{Text: "b", RowIdx: 0, ColIdx: 1})
	d.AddTable(tbl, d.Body)

	out := Export(d)
	assert.NotContains(t, out, "---")
}

func TestExportCodeBlockFenced(t *testing.T) {
	d := docmodel.New("doc")
	ref := d.AddText(docmodel.KindCode, "fmt.Println(1)", d.Body)
	d.Texts[ref.Idx].Language = "go"

	out := Export(d)
	assert.Contains(t, out, "```go\nfmt.Println(1)\n```")
}

func TestExportPictureWithAltText(t *testing.T) {
	d := docmodel.New("doc")
	d.AddPicture("#/pictures/0", d.Body)

	out := Export(d)
	assert.Contains(t, out, "![image](#/pictures/0)")
}

func TestEscapeCellHandlesPipesAndNewlines(t *testing.T) {
	assert.Equal(t, "a\\|b c", escapeCell("a|b\nc"))
}

func TestExportSkipsFurnitureContentLayer(t *testing.T) {
	d := docmodel.New("doc")
	d.AddText(docmodel.KindParagraph, "body text", d.Body)
	header := d.AddText(docmodel.KindParagraph, "running header", d.Body)
	d.SetContentLayer(header, docmodel.ContentLayerFurniture)

	out := Export(d)
	assert.Contains(t, out, "body text")
	assert.NotContains(t, out, "running header")
}
