package yamlexport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docling-go/docling/internal/docmodel"
)

func TestExportProducesValidYAMLWithSchemaFields(t *testing.T) {
	d := docmodel.New("doc")
	d.AddText(docmodel.KindParagraph, "hello", d.Body)

	out, err := Export(d)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "schema_name: DoclingDocument")
	assert.Contains(t, s, "version: "+docmodel.SchemaVersion)
}
