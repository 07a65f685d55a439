package pageinfo

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/docling-go/docling/internal/docmodel"
	"github.com/docling-go/docling/internal/pdfml/testutil"
)

func TestSplitNonEmptyLinesSkipsBlank(t *testing.T) {
	lines := splitNonEmptyLines([]byte("alpha\n\nbeta\ngamma\n"))
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, lines)
}

func TestBlocksFromContentStreamOneBlockPerLine(t *testing.T) {
	blocks := blocksFromContentStream([]byte("line one\nline two\n"), docmodel.USLetter)
	assert.Len(t, blocks, 2)
	assert.Equal(t, 8, blocks[0].NumRune)
	assert.Equal(t, docmodel.USLetter.Width, blocks[0].BBox.Width())
}

func TestBlocksFromContentStreamEmptyStream(t *testing.T) {
	blocks := blocksFromContentStream(nil, docmodel.USLetter)
	assert.Nil(t, blocks)
}

func TestExtractSyntheticTwoPagePDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.pdf")
	err := testutil.SyntheticPDF(path, [][]string{
		{"first page line one", "first page line two"},
		{"second page only line"},
	})
	require.NoError(t, err)

	extractor := NewExtractor(arbor.NewLogger())
	contents, err := extractor.Extract(path)
	require.NoError(t, err)
	require.Len(t, contents, 2)

	assert.Equal(t, 1, contents[0].Page.PageNo)
	assert.Equal(t, 2, contents[1].Page.PageNo)
}
