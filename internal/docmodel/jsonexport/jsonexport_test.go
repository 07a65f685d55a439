package jsonexport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docling-go/docling/internal/docmodel"
)

func buildSample() *docmodel.Document {
	d := docmodel.New("sample")
	d.Pages = append(d.Pages, docmodel.PageInfo{PageNo: 1, Size: docmodel.USLetter})
	d.AddText(docmodel.KindParagraph, "hello", d.Body, docmodel.NewProvenance(1, docmodel.BBox{L: 1, T: 2, R: 3, B: 4}))
	tbl := docmodel.NewTableData(1, 2)
	tbl.SetCell(docmodel.TableCell{Text: "a", RowIdx: 0, ColIdx: 0, IsColumnHeader: true})
	tbl.SetCell(docmodel.TableCell{Text: "b", RowIdx: 0, ColIdx: 1, IsColumnHeader: true})
	d.AddTable(tbl, d.Body)
	d.AddPicture("img-uri", d.Body)
	return d
}

func TestExportWritesCanonicalSchemaVersion(t *testing.T) {
	d := buildSample()
	out, err := Export(d)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"version": "`+docmodel.SchemaVersion+`"`)
	assert.Contains(t, string(out), `"schema_name": "DoclingDocument"`)
}

func TestExportImportRoundTrip(t *testing.T) {
	d := buildSample()
	out, err := Export(d)
	require.NoError(t, err)

	back, err := Import(out)
	require.NoError(t, err)

	assert.Equal(t, d.Name, back.Name)
	assert.Equal(t, d.Body, back.Body)
	require.Len(t, back.Tables, 1)
	assert.Equal(t, 1, back.Tables[0].NumRows)
	assert.Equal(t, 2, back.Tables[0].NumCols)
	a, ok := back.Tables[0].CellAt(0, 0)
	require.True(t, ok)
	assert.Equal(t, "a", a.Text)
	require.Len(t, back.Pictures, 1)
	assert.Equal(t, "img-uri", back.Pictures[0].URI)
}

func TestImportRejectsUnsupportedSchemaVersion(t *testing.T) {
	_, err := Import([]byte(`{"schema_name":"DoclingDocument","version":"0.1.0","body":"#/groups/0","groups":[{"self_ref":"#/groups/0","label":"body"}]}`))
	require.Error(t, err)
}

func TestImportUpgradesSupportedOlderVersion(t *testing.T) {
	back, err := Import([]byte(`{"schema_name":"DoclingDocument","version":"1.7.0","body":"#/groups/0","groups":[{"self_ref":"#/groups/0","label":"body"}]}`))
	require.NoError(t, err)
	assert.Equal(t, docmodel.SchemaVersion, back.Version)
}

func TestExportImportRoundTripPreservesTableCaptionAndContentLayer(t *testing.T) {
	d := docmodel.New("doc")
	caption := d.AddText(docmodel.KindCaption, "Table 1: results", d.Body)
	tbl := docmodel.NewTableData(1, 1)
	tbl.SetCell(docmodel.TableCell{Text: "x", RowIdx: 0, ColIdx: 0})
	tbl.Caption = caption
	tblRef := d.AddTable(tbl, d.Body)
	d.SetContentLayer(tblRef, docmodel.ContentLayerFurniture)

	out, err := Export(d)
	require.NoError(t, err)

	back, err := Import(out)
	require.NoError(t, err)
	require.Len(t, back.Tables, 1)
	assert.Equal(t, caption, back.Tables[0].Caption)
	assert.True(t, back.IsFurniture(back.Tables[0].Self))
}

func TestImportRejectsMalformedRef(t *testing.T) {
	_, err := Import([]byte(`{"schema_name":"DoclingDocument","version":"1.8.0","body":"#/bogus"}`))
	require.Error(t, err)
}
