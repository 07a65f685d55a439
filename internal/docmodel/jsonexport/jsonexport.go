// Package jsonexport serializes a docmodel.Document to the on-disk JSON
// format: stable key order (struct fields, never a map), ItemRefs rendered
// as JSON-pointer strings ("#/texts/3"), and an explicit schema_name/
// version pair on every document per Open Question 1.
package jsonexport

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/docling-go/docling/internal/docerr"
	"github.com/docling-go/docling/internal/docmodel"
)

type docDTO struct {
	SchemaName    string        `json:"schema_name"`
	Version       string        `json:"version"`
	Name          string        `json:"name"`
	Body          string        `json:"body"`
	Pages         []pageDTO     `json:"pages,omitempty"`
	Texts         []textDTO     `json:"texts,omitempty"`
	Tables        []tableDTO    `json:"tables,omitempty"`
	Pictures      []pictureDTO  `json:"pictures,omitempty"`
	KeyValueItems []kvDTO       `json:"key_value_items,omitempty"`
	FormItems     []formDTO     `json:"form_items,omitempty"`
	Groups        []groupDTO    `json:"groups,omitempty"`
}

type pageDTO struct {
	PageNo int     `json:"page_no"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type provDTO struct {
	PageNo     int      `json:"page_no"`
	BBox       [4]float64 `json:"bbox"`
	Origin     string   `json:"origin"`
	CharStart  *int     `json:"char_start,omitempty"`
	CharEnd    *int     `json:"char_end,omitempty"`
}

type textDTO struct {
	Self         string    `json:"self_ref"`
	Kind         string    `json:"label"`
	Text         string    `json:"text"`
	Level        int       `json:"level,omitempty"`
	Language     string    `json:"language,omitempty"`
	Parent       string    `json:"parent"`
	Children     []string  `json:"children,omitempty"`
	Provenance   []provDTO `json:"prov,omitempty"`
	ContentLayer string    `json:"content_layer"`
}

type cellDTO struct {
	Text           string  `json:"text"`
	RowIdx         int     `json:"row_idx"`
	ColIdx         int     `json:"col_idx"`
	RowSpan        int     `json:"row_span"`
	ColSpan        int     `json:"col_span"`
	IsColumnHeader bool    `json:"is_column_header,omitempty"`
	IsRowHeader    bool    `json:"is_row_header,omitempty"`
	IsSpanOrigin   bool    `json:"is_span_origin"`
	Confidence     float64 `json:"confidence,omitempty"`
}

type tableDTO struct {
	Self         string    `json:"self_ref"`
	Parent       string    `json:"parent"`
	NumRows      int       `json:"num_rows"`
	NumCols      int       `json:"num_cols"`
	Cells        []cellDTO `json:"cells"`
	Caption      string    `json:"caption,omitempty"`
	Footnotes    []string  `json:"footnotes,omitempty"`
	References   []string  `json:"references,omitempty"`
	Annotations  []string  `json:"annotations,omitempty"`
	Image        string    `json:"image,omitempty"`
	Provenance   []provDTO `json:"prov,omitempty"`
	ContentLayer string    `json:"content_layer"`
}

type pictureDTO struct {
	Self         string    `json:"self_ref"`
	Parent       string    `json:"parent"`
	URI          string    `json:"uri,omitempty"`
	Children     []string  `json:"children,omitempty"`
	Captions     []string  `json:"captions,omitempty"`
	Footnotes    []string  `json:"footnotes,omitempty"`
	References   []string  `json:"references,omitempty"`
	Annotations  []string  `json:"annotations,omitempty"`
	Provenance   []provDTO `json:"prov,omitempty"`
	ContentLayer string    `json:"content_layer"`
}

type kvDTO struct {
	Self         string    `json:"self_ref"`
	Parent       string    `json:"parent"`
	Key          string    `json:"key"`
	Value        string    `json:"value"`
	Provenance   []provDTO `json:"prov,omitempty"`
	ContentLayer string    `json:"content_layer"`
}

type formDTO struct {
	Self         string   `json:"self_ref"`
	Parent       string   `json:"parent"`
	Children     []string `json:"children,omitempty"`
	ContentLayer string   `json:"content_layer"`
}

type groupDTO struct {
	Self         string   `json:"self_ref"`
	Parent       string   `json:"parent"`
	Label        string   `json:"label"`
	Children     []string `json:"children,omitempty"`
	ContentLayer string   `json:"content_layer"`
}

// contentLayerStr renders a ContentLayer, defaulting the zero value to
// "body" per the schema invariant that every item carries an explicit
// content_layer.
func contentLayerStr(l docmodel.ContentLayer) string {
	if l == docmodel.ContentLayerFurniture {
		return string(docmodel.ContentLayerFurniture)
	}
	return string(docmodel.ContentLayerBody)
}

func parseContentLayer(s string) docmodel.ContentLayer {
	if s == string(docmodel.ContentLayerFurniture) {
		return docmodel.ContentLayerFurniture
	}
	return docmodel.ContentLayerBody
}

func refStr(r docmodel.ItemRef) string {
	if r.IsZero() {
		return ""
	}
	return r.String()
}

func parseRefs(ss []string) []docmodel.ItemRef {
	if len(ss) == 0 {
		return nil
	}
	out := make([]docmodel.ItemRef, 0, len(ss))
	for _, s := range ss {
		if r, err := parseRef(s); err == nil && !r.IsZero() {
			out = append(out, r)
		}
	}
	return out
}

// resolveTextRefKind recovers the precise leaf kind (caption, footnote, ...)
// of a cross-reference into the shared texts array. parseRef only knows the
// generic "texts" array name and defaults to KindParagraph; every other ref
// into that array (a table's Caption, a picture's Footnotes, ...) needs the
// decoded TextItem's own Kind substituted in, the same correction the main
// text-import loop already applies to each text's own Self ref.
func resolveTextRefKind(doc *docmodel.Document, ref docmodel.ItemRef) docmodel.ItemRef {
	if ref.IsZero() || ref.Kind != docmodel.KindParagraph {
		return ref
	}
	if ref.Idx < 0 || ref.Idx >= len(doc.Texts) {
		return ref
	}
	ref.Kind = doc.Texts[ref.Idx].Kind
	return ref
}

func resolveTextRefKinds(doc *docmodel.Document, refs []docmodel.ItemRef) []docmodel.ItemRef {
	for i, r := range refs {
		refs[i] = resolveTextRefKind(doc, r)
	}
	return refs
}

func refsStr(rs []docmodel.ItemRef) []string {
	if len(rs) == 0 {
		return nil
	}
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = refStr(r)
	}
	return out
}

func provDTOs(ps []docmodel.Provenance) []provDTO {
	if len(ps) == 0 {
		return nil
	}
	out := make([]provDTO, len(ps))
	for i, p := range ps {
		d := provDTO{
			PageNo: p.PageNo,
			BBox:   [4]float64{p.BBox.L, p.BBox.T, p.BBox.R, p.BBox.B},
			Origin: p.BBox.Origin.String(),
		}
		if p.CharSpan != nil {
			s, e := p.CharSpan.Start, p.CharSpan.End
			d.CharStart, d.CharEnd = &s, &e
		}
		out[i] = d
	}
	return out
}

// Export renders doc to indented JSON bytes.
func Export(doc *docmodel.Document) ([]byte, error) {
	dto := docDTO{
		SchemaName: doc.SchemaName,
		Version:    doc.Version,
		Name:       doc.Name,
		Body:       refStr(doc.Body),
	}
	for _, p := range doc.Pages {
		dto.Pages = append(dto.Pages, pageDTO{PageNo: p.PageNo, Width: p.Size.Width, Height: p.Size.Height})
	}
	for _, t := range doc.Texts {
		dto.Texts = append(dto.Texts, textDTO{
			Self: refStr(t.Self), Kind: string(t.Kind), Text: t.Text,
			Level: t.Level, Language: t.Language, Parent: refStr(t.Parent),
			Children: refsStr(t.Children), Provenance: provDTOs(t.Provenance),
			ContentLayer: contentLayerStr(t.ContentLayer),
		})
	}
	for _, t := range doc.Tables {
		td := tableDTO{
			Self: refStr(t.Self), Parent: refStr(t.Parent),
			NumRows: t.NumRows, NumCols: t.NumCols,
			Caption: refStr(t.Caption), Provenance: provDTOs(t.Provenance),
			Footnotes: refsStr(t.Footnotes), References: refsStr(t.References),
			Annotations: refsStr(t.Annotations), Image: refStr(t.Image),
			ContentLayer: contentLayerStr(t.ContentLayer),
		}
		for _, c := range t.Cells {
			td.Cells = append(td.Cells, cellDTO{
				Text: c.Text, RowIdx: c.RowIdx, ColIdx: c.ColIdx,
				RowSpan: c.RowSpan, ColSpan: c.ColSpan,
				IsColumnHeader: c.IsColumnHeader, IsRowHeader: c.IsRowHeader,
				IsSpanOrigin: c.IsSpanOrigin, Confidence: c.Confidence,
			})
		}
		dto.Tables = append(dto.Tables, td)
	}
	for _, p := range doc.Pictures {
		dto.Pictures = append(dto.Pictures, pictureDTO{
			Self: refStr(p.Self), Parent: refStr(p.Parent), URI: p.URI,
			Children: refsStr(p.Children), Provenance: provDTOs(p.Provenance),
			Captions: refsStr(p.Captions), Footnotes: refsStr(p.Footnotes),
			References: refsStr(p.References), Annotations: refsStr(p.Annotations),
			ContentLayer: contentLayerStr(p.ContentLayer),
		})
	}
	for _, kv := range doc.KeyValueItems {
		dto.KeyValueItems = append(dto.KeyValueItems, kvDTO{
			Self: refStr(kv.Self), Parent: refStr(kv.Parent),
			Key: kv.Key, Value: kv.Value, Provenance: provDTOs(kv.Provenance),
			ContentLayer: contentLayerStr(kv.ContentLayer),
		})
	}
	for _, f := range doc.FormItems {
		dto.FormItems = append(dto.FormItems, formDTO{
			Self: refStr(f.Self), Parent: refStr(f.Parent), Children: refsStr(f.Children),
			ContentLayer: contentLayerStr(f.ContentLayer),
		})
	}
	for _, g := range doc.Groups {
		dto.Groups = append(dto.Groups, groupDTO{
			Self: refStr(g.Self), Parent: refStr(g.Parent), Label: g.Label, Children: refsStr(g.Children),
			ContentLayer: contentLayerStr(g.ContentLayer),
		})
	}
	return json.MarshalIndent(dto, "", "  ")
}

// Import parses JSON bytes produced by Export (or a compatible producer)
// back into a Document. It accepts schema versions listed in
// docmodel.SupportedSchemaVersions and rejects anything else with a
// docerr.Error(KindFormat).
func Import(data []byte) (*docmodel.Document, error) {
	var dto docDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, docerr.Wrap(err, docerr.KindParse, "unmarshal document json")
	}
	if !docmodel.SupportedSchemaVersions[dto.Version] {
		return nil, docerr.Newf(docerr.KindFormat, "unsupported schema version %q", dto.Version)
	}

	doc := &docmodel.Document{
		SchemaName: dto.SchemaName,
		Version:    docmodel.SchemaVersion, // upgrade in-memory per Open Question 1
		Name:       dto.Name,
	}
	for _, p := range dto.Pages {
		doc.Pages = append(doc.Pages, docmodel.PageInfo{PageNo: p.PageNo, Size: docmodel.Size{Width: p.Width, Height: p.Height}})
	}

	for _, t := range dto.Texts {
		ref, err := parseRef(t.Self)
		if err != nil {
			return nil, err
		}
		ref.Kind = docmodel.ItemKind(t.Kind) // parseRef only recovers array membership; restore the precise leaf kind
		parent, _ := parseRef(t.Parent)
		item := docmodel.TextItem{
			Self: ref, Kind: docmodel.ItemKind(t.Kind), Text: t.Text,
			Level: t.Level, Language: t.Language, Parent: parent,
			Provenance:   fromProvDTOs(t.Provenance),
			ContentLayer: parseContentLayer(t.ContentLayer),
		}
		for _, c := range t.Children {
			cr, err := parseRef(c)
			if err != nil {
				return nil, err
			}
			item.Children = append(item.Children, cr)
		}
		growTexts(doc, ref.Idx)
		doc.Texts[ref.Idx] = item
	}

	for _, t := range dto.Tables {
		ref, err := parseRef(t.Self)
		if err != nil {
			return nil, err
		}
		parent, _ := parseRef(t.Parent)
		table := docmodel.NewTableData(t.NumRows, t.NumCols)
		table.Self = ref
		table.Parent = parent
		table.Provenance = fromProvDTOs(t.Provenance)
		table.ContentLayer = parseContentLayer(t.ContentLayer)
		if capRef, err := parseRef(t.Caption); err == nil {
			table.Caption = resolveTextRefKind(doc, capRef)
		}
		table.Footnotes = resolveTextRefKinds(doc, parseRefs(t.Footnotes))
		table.References = resolveTextRefKinds(doc, parseRefs(t.References))
		table.Annotations = resolveTextRefKinds(doc, parseRefs(t.Annotations))
		if imgRef, err := parseRef(t.Image); err == nil {
			table.Image = imgRef
		}
		for _, c := range t.Cells {
			if !c.IsSpanOrigin {
				continue
			}
			table.SetCell(docmodel.TableCell{
				Text: c.Text, RowIdx: c.RowIdx, ColIdx: c.ColIdx,
				RowSpan: c.RowSpan, ColSpan: c.ColSpan,
				IsColumnHeader: c.IsColumnHeader, IsRowHeader: c.IsRowHeader,
				Confidence: c.Confidence,
			})
		}
		growTables(doc, ref.Idx)
		doc.Tables[ref.Idx] = table
	}

	for _, p := range dto.Pictures {
		ref, err := parseRef(p.Self)
		if err != nil {
			return nil, err
		}
		parent, _ := parseRef(p.Parent)
		pic := docmodel.PictureItem{
			Self: ref, Parent: parent, URI: p.URI, Provenance: fromProvDTOs(p.Provenance),
			ContentLayer: parseContentLayer(p.ContentLayer),
			Captions:     resolveTextRefKinds(doc, parseRefs(p.Captions)),
			Footnotes:    resolveTextRefKinds(doc, parseRefs(p.Footnotes)),
			References:   resolveTextRefKinds(doc, parseRefs(p.References)),
			Annotations:  resolveTextRefKinds(doc, parseRefs(p.Annotations)),
		}
		for _, c := range p.Children {
			cr, err := parseRef(c)
			if err != nil {
				return nil, err
			}
			pic.Children = append(pic.Children, cr)
		}
		growPictures(doc, ref.Idx)
		doc.Pictures[ref.Idx] = pic
	}

	for _, kv := range dto.KeyValueItems {
		ref, err := parseRef(kv.Self)
		if err != nil {
			return nil, err
		}
		parent, _ := parseRef(kv.Parent)
		growKV(doc, ref.Idx)
		doc.KeyValueItems[ref.Idx] = docmodel.KeyValueItem{
			Self: ref, Parent: parent, Key: kv.Key, Value: kv.Value, Provenance: fromProvDTOs(kv.Provenance),
			ContentLayer: parseContentLayer(kv.ContentLayer),
		}
	}

	for _, f := range dto.FormItems {
		ref, err := parseRef(f.Self)
		if err != nil {
			return nil, err
		}
		parent, _ := parseRef(f.Parent)
		item := docmodel.FormItem{Self: ref, Parent: parent, ContentLayer: parseContentLayer(f.ContentLayer)}
		for _, c := range f.Children {
			cr, err := parseRef(c)
			if err != nil {
				return nil, err
			}
			item.Children = append(item.Children, cr)
		}
		growForms(doc, ref.Idx)
		doc.FormItems[ref.Idx] = item
	}

	for _, g := range dto.Groups {
		ref, err := parseRef(g.Self)
		if err != nil {
			return nil, err
		}
		parent, _ := parseRef(g.Parent)
		item := docmodel.Group{Self: ref, Parent: parent, Label: g.Label, ContentLayer: parseContentLayer(g.ContentLayer)}
		for _, c := range g.Children {
			cr, err := parseRef(c)
			if err != nil {
				return nil, err
			}
			item.Children = append(item.Children, cr)
		}
		growGroups(doc, ref.Idx)
		doc.Groups[ref.Idx] = item
	}

	// Child lists carry parseRef's KindParagraph placeholder for refs into
	// the texts array; now that doc.Texts is complete, restore each kind.
	for i := range doc.Texts {
		doc.Texts[i].Children = resolveTextRefKinds(doc, doc.Texts[i].Children)
	}
	for i := range doc.Pictures {
		doc.Pictures[i].Children = resolveTextRefKinds(doc, doc.Pictures[i].Children)
	}
	for i := range doc.FormItems {
		doc.FormItems[i].Children = resolveTextRefKinds(doc, doc.FormItems[i].Children)
	}
	for i := range doc.Groups {
		doc.Groups[i].Children = resolveTextRefKinds(doc, doc.Groups[i].Children)
	}

	body, err := parseRef(dto.Body)
	if err != nil {
		return nil, err
	}
	doc.Body = body
	return doc, nil
}

func parseRef(s string) (docmodel.ItemRef, error) {
	if s == "" {
		return docmodel.ItemRef{}, nil
	}
	s = strings.TrimPrefix(s, "#/")
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return docmodel.ItemRef{}, docerr.Newf(docerr.KindFormat, "malformed item ref %q", s)
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil {
		return docmodel.ItemRef{}, docerr.Wrapf(err, docerr.KindFormat, "malformed item ref index in %q", s)
	}
	kind, ok := kindForArray(parts[0])
	if !ok {
		return docmodel.ItemRef{}, docerr.Newf(docerr.KindFormat, "unknown item ref array %q", parts[0])
	}
	return docmodel.ItemRef{Kind: kind, Idx: idx}, nil
}

// kindForArray recovers an ItemKind from the array name used in an ItemRef
// string. Text-backed kinds (paragraph, section_header, ...) all live in
// the same "texts" array on import, so this defaults to KindParagraph; the
// decoded Kind field on the TextItem itself is authoritative, not this
// placeholder.
func kindForArray(name string) (docmodel.ItemKind, bool) {
	switch name {
	case "groups":
		return docmodel.KindGroup, true
	case "tables":
		return docmodel.KindTable, true
	case "pictures":
		return docmodel.KindPicture, true
	case "key_value_items":
		return docmodel.KindKeyValue, true
	case "form_items":
		return docmodel.KindFormItem, true
	case "texts":
		return docmodel.KindParagraph, true
	}
	return "", false
}

func fromProvDTOs(ds []provDTO) []docmodel.Provenance {
	if len(ds) == 0 {
		return nil
	}
	out := make([]docmodel.Provenance, len(ds))
	for i, d := range ds {
		origin := docmodel.OriginTopLeft
		if d.Origin == docmodel.OriginBottomLeft.String() {
			origin = docmodel.OriginBottomLeft
		}
		p := docmodel.Provenance{
			PageNo: d.PageNo,
			BBox:   docmodel.BBox{L: d.BBox[0], T: d.BBox[1], R: d.BBox[2], B: d.BBox[3], Origin: origin},
		}
		if d.CharStart != nil && d.CharEnd != nil {
			p.CharSpan = &docmodel.CharSpan{Start: *d.CharStart, End: *d.CharEnd}
		}
		out[i] = p
	}
	return out
}

func growTexts(d *docmodel.Document, idx int) {
	for len(d.Texts) <= idx {
		d.Texts = append(d.Texts, docmodel.TextItem{})
	}
}
func growTables(d *docmodel.Document, idx int) {
	for len(d.Tables) <= idx {
		d.Tables = append(d.Tables, docmodel.TableData{})
	}
}
func growPictures(d *docmodel.Document, idx int) {
	for len(d.Pictures) <= idx {
		d.Pictures = append(d.Pictures, docmodel.PictureItem{})
	}
}
func growKV(d *docmodel.Document, idx int) {
	for len(d.KeyValueItems) <= idx {
		d.KeyValueItems = append(d.KeyValueItems, docmodel.KeyValueItem{})
	}
}
func growForms(d *docmodel.Document, idx int) {
	for len(d.FormItems) <= idx {
		d.FormItems = append(d.FormItems, docmodel.FormItem{})
	}
}
func growGroups(d *docmodel.Document, idx int) {
	for len(d.Groups) <= idx {
		d.Groups = append(d.Groups, docmodel.Group{})
	}
}
