// Package yamlexport serializes a docmodel.Document to YAML using the same
// DTO shape jsonexport uses, via gopkg.in/yaml.v3, for callers that prefer
// YAML. The media API's /jobs/{id}/result endpoint responds with JSON and
// does not use this package.
package yamlexport

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/docling-go/docling/internal/docerr"
	"github.com/docling-go/docling/internal/docmodel"
	"github.com/docling-go/docling/internal/docmodel/jsonexport"
)

// yamlToJSON re-encodes the generic map decoded from YAML as JSON bytes.
// yaml.v3 decodes mappings into map[string]interface{}, which
// encoding/json can marshal directly.
func yamlToJSON(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, docerr.Wrap(err, docerr.KindInternal, "re-encode yaml as json")
	}
	return b, nil
}

// Export renders doc as YAML by round-tripping through the JSON DTOs so the
// two exporters never drift in field names or ordering.
func Export(doc *docmodel.Document) ([]byte, error) {
	jsonBytes, err := jsonexport.Export(doc)
	if err != nil {
		return nil, err
	}
	var generic map[string]interface{}
	if err := yaml.Unmarshal(jsonBytes, &generic); err != nil {
		return nil, docerr.Wrap(err, docerr.KindInternal, "re-decode json dto for yaml export")
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return nil, docerr.Wrap(err, docerr.KindInternal, "marshal yaml")
	}
	return out, nil
}

// Import parses YAML produced by Export back into a Document, again by
// round-tripping through JSON so decoding logic lives in one place.
func Import(data []byte) (*docmodel.Document, error) {
	var generic map[string]interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, docerr.Wrap(err, docerr.KindParse, "unmarshal document yaml")
	}
	jsonBytes, err := yamlToJSON(generic)
	if err != nil {
		return nil, err
	}
	return jsonexport.Import(jsonBytes)
}
