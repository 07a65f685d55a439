package docmodel

import "fmt"

// ItemKind discriminates the node types that can live in a Document tree.
type ItemKind string

const (
	KindGroup         ItemKind = "group"
	KindTitle         ItemKind = "title"
	KindSectionHeader ItemKind = "section_header"
	KindText          ItemKind = "text"
	KindParagraph     ItemKind = "paragraph"
	KindListItem      ItemKind = "list_item"
	KindCode          ItemKind = "code"
	KindFormula       ItemKind = "formula"
	KindTable         ItemKind = "table"
	KindPicture       ItemKind = "picture"
	KindKeyValue      ItemKind = "key_value"
	KindFormItem      ItemKind = "form_item"
	KindCaption       ItemKind = "caption"
	KindFootnote      ItemKind = "footnote"
)

// ContentLayer classifies an item as part of the document's narrative body
// or as furniture (running headers/footers, watermarks) that most
// consumers want to skip. Every item defaults to ContentLayerBody; callers
// mark furniture explicitly via Document.SetContentLayer.
type ContentLayer string

const (
	ContentLayerBody      ContentLayer = "body"
	ContentLayerFurniture ContentLayer = "furniture"
)

// ItemRef is a JSON-pointer-style reference into a Document's typed arrays,
// e.g. "#/texts/3" or "#/tables/0". It never owns the referenced item —
// exactly one array slot does — so the tree is a DAG of references, not of
// pointers, and can be serialized without cycles or aliasing surprises.
type ItemRef struct {
	Kind ItemKind
	Idx  int
}

// String renders the JSON-pointer form used in the on-disk JSON export.
func (r ItemRef) String() string {
	return fmt.Sprintf("#/%s/%d", arrayName(r.Kind), r.Idx)
}

func arrayName(k ItemKind) string {
	switch k {
	case KindGroup:
		return "groups"
	case KindTable:
		return "tables"
	case KindPicture:
		return "pictures"
	case KindKeyValue:
		return "key_value_items"
	case KindFormItem:
		return "form_items"
	default:
		return "texts"
	}
}

// IsZero reports whether r is the unset ItemRef.
func (r ItemRef) IsZero() bool { return r.Kind == "" && r.Idx == 0 }

// TextItem is any leaf node whose primary content is a string: paragraphs,
// section headers, list items, code blocks, captions, footnotes.
type TextItem struct {
	Self         ItemRef
	Kind         ItemKind
	Text         string
	Level        int    // section_header nesting depth; 0 for other kinds
	Language     string // code blocks only
	Parent       ItemRef
	Children     []ItemRef
	Provenance   []Provenance
	ContentLayer ContentLayer
}

// PictureItem is an image region with optional OCR/caption children.
type PictureItem struct {
	Self         ItemRef
	Parent       ItemRef
	Children     []ItemRef
	Provenance   []Provenance
	URI          string // empty when the image bytes are not retained
	ContentLayer ContentLayer
	Captions     []ItemRef
	Footnotes    []ItemRef
	References   []ItemRef
	Annotations  []ItemRef
}

// KeyValueItem is one key/value pair extracted from a form-like region.
type KeyValueItem struct {
	Self         ItemRef
	Parent       ItemRef
	Key          string
	Value        string
	Provenance   []Provenance
	ContentLayer ContentLayer
}

// FormItem groups a set of KeyValueItem children representing one form.
type FormItem struct {
	Self         ItemRef
	Parent       ItemRef
	Children     []ItemRef
	ContentLayer ContentLayer
}

// Group is a structural container (list, inline group, chapter) with no
// text of its own.
type Group struct {
	Self         ItemRef
	Parent       ItemRef
	Label        string
	Children     []ItemRef
	ContentLayer ContentLayer
}

// Document is the root of the unified structured-document tree. All
// cross-references between nodes are ItemRef values, never language
// pointers, so the tree can be exported and re-imported without losing
// identity.
type Document struct {
	SchemaName string
	Version    string
	Name       string

	Pages []PageInfo

	Texts         []TextItem
	Tables        []TableData
	Pictures      []PictureItem
	KeyValueItems []KeyValueItem
	FormItems     []FormItem
	Groups        []Group

	Body ItemRef // root group; zero value means an empty document
}

// New creates an empty Document with a synthetic root body group.
func New(name string) *Document {
	d := &Document{
		SchemaName: "DoclingDocument",
		Version:    SchemaVersion,
		Name:       name,
	}
	root := Group{Label: "body", ContentLayer: ContentLayerBody}
	d.Body = d.appendGroup(root)
	return d
}

// SchemaVersion is the canonical on-disk schema version this package writes.
const SchemaVersion = "1.8.0"

// SupportedSchemaVersions lists versions the JSON decoder accepts on read.
var SupportedSchemaVersions = map[string]bool{
	"1.7.0": true,
	"1.8.0": true,
}

func (d *Document) appendGroup(g Group) ItemRef {
	ref := ItemRef{Kind: KindGroup, Idx: len(d.Groups)}
	g.Self = ref
	d.Groups = append(d.Groups, g)
	return ref
}

// AddText appends a text item as a child of parent and returns its ref.
// parent must already exist in the tree (the root Body group, another
// group, a picture, a form, or another text item); a table parent is
// recorded on the item but the table keeps no child list.
func (d *Document) AddText(kind ItemKind, text string, parent ItemRef, prov ...Provenance) ItemRef {
	ref := ItemRef{Kind: kind, Idx: len(d.Texts)}
	d.Texts = append(d.Texts, TextItem{
		Self:         ref,
		Kind:         kind,
		Text:         text,
		Parent:       parent,
		Provenance:   prov,
		ContentLayer: ContentLayerBody,
	})
	d.linkChild(parent, ref)
	return ref
}

// AddGroup appends a structural group as a child of parent.
func (d *Document) AddGroup(label string, parent ItemRef) ItemRef {
	ref := d.appendGroup(Group{Label: label, Parent: parent, ContentLayer: ContentLayerBody})
	d.linkChild(parent, ref)
	return ref
}

// AddTable appends a table as a child of parent.
func (d *Document) AddTable(t TableData, parent ItemRef, prov ...Provenance) ItemRef {
	ref := ItemRef{Kind: KindTable, Idx: len(d.Tables)}
	t.Self = ref
	t.Parent = parent
	t.Provenance = prov
	t.ContentLayer = ContentLayerBody
	d.Tables = append(d.Tables, t)
	d.linkChild(parent, ref)
	return ref
}

// AddPicture appends a picture item as a child of parent.
func (d *Document) AddPicture(uri string, parent ItemRef, prov ...Provenance) ItemRef {
	ref := ItemRef{Kind: KindPicture, Idx: len(d.Pictures)}
	d.Pictures = append(d.Pictures, PictureItem{
		Self:         ref,
		Parent:       parent,
		URI:          uri,
		Provenance:   prov,
		ContentLayer: ContentLayerBody,
	})
	d.linkChild(parent, ref)
	return ref
}

// AddKeyValue appends one key/value pair as a child of a FormItem.
func (d *Document) AddKeyValue(key, value string, parent ItemRef, prov ...Provenance) ItemRef {
	ref := ItemRef{Kind: KindKeyValue, Idx: len(d.KeyValueItems)}
	d.KeyValueItems = append(d.KeyValueItems, KeyValueItem{
		Self:         ref,
		Parent:       parent,
		Key:          key,
		Value:        value,
		Provenance:   prov,
		ContentLayer: ContentLayerBody,
	})
	d.linkChild(parent, ref)
	return ref
}

// AddForm appends an empty form container as a child of parent.
func (d *Document) AddForm(parent ItemRef) ItemRef {
	ref := ItemRef{Kind: KindFormItem, Idx: len(d.FormItems)}
	d.FormItems = append(d.FormItems, FormItem{Self: ref, Parent: parent, ContentLayer: ContentLayerBody})
	d.linkChild(parent, ref)
	return ref
}

// linkChild records ref as a child of parent in whichever array owns parent.
// Groups, pictures, forms and text items hold children; it is a no-op for
// the other kinds (tables, key/value items, the zero ItemRef).
func (d *Document) linkChild(parent, ref ItemRef) {
	switch parent.Kind {
	case KindGroup:
		d.Groups[parent.Idx].Children = append(d.Groups[parent.Idx].Children, ref)
	case KindPicture:
		d.Pictures[parent.Idx].Children = append(d.Pictures[parent.Idx].Children, ref)
	case KindFormItem:
		d.FormItems[parent.Idx].Children = append(d.FormItems[parent.Idx].Children, ref)
	case KindTitle, KindSectionHeader, KindText, KindParagraph, KindListItem, KindCode, KindFormula, KindCaption, KindFootnote:
		d.Texts[parent.Idx].Children = append(d.Texts[parent.Idx].Children, ref)
	}
}

// SetContentLayer marks ref as furniture or body content. It is a no-op for
// ref kinds that carry no ContentLayer (the zero ItemRef, or an unresolved
// reference).
func (d *Document) SetContentLayer(ref ItemRef, layer ContentLayer) {
	switch ref.Kind {
	case KindGroup:
		if ref.Idx >= 0 && ref.Idx < len(d.Groups) {
			d.Groups[ref.Idx].ContentLayer = layer
		}
	case KindTable:
		if ref.Idx >= 0 && ref.Idx < len(d.Tables) {
			d.Tables[ref.Idx].ContentLayer = layer
		}
	case KindPicture:
		if ref.Idx >= 0 && ref.Idx < len(d.Pictures) {
			d.Pictures[ref.Idx].ContentLayer = layer
		}
	case KindKeyValue:
		if ref.Idx >= 0 && ref.Idx < len(d.KeyValueItems) {
			d.KeyValueItems[ref.Idx].ContentLayer = layer
		}
	case KindFormItem:
		if ref.Idx >= 0 && ref.Idx < len(d.FormItems) {
			d.FormItems[ref.Idx].ContentLayer = layer
		}
	default:
		if ref.Idx >= 0 && ref.Idx < len(d.Texts) {
			d.Texts[ref.Idx].ContentLayer = layer
		}
	}
}

// IsFurniture reports whether ref is marked as furniture content. Exporters
// default to rendering only the body layer, per the schema invariant that
// every item's content_layer is either "body" or "furniture".
func (d *Document) IsFurniture(ref ItemRef) bool {
	switch ref.Kind {
	case KindGroup:
		g, ok := d.Group(ref)
		return ok && g.ContentLayer == ContentLayerFurniture
	case KindTable:
		tb, ok := d.Table(ref)
		return ok && tb.ContentLayer == ContentLayerFurniture
	case KindPicture:
		p, ok := d.Picture(ref)
		return ok && p.ContentLayer == ContentLayerFurniture
	case KindKeyValue:
		if ref.Idx < 0 || ref.Idx >= len(d.KeyValueItems) {
			return false
		}
		return d.KeyValueItems[ref.Idx].ContentLayer == ContentLayerFurniture
	case KindFormItem:
		if ref.Idx < 0 || ref.Idx >= len(d.FormItems) {
			return false
		}
		return d.FormItems[ref.Idx].ContentLayer == ContentLayerFurniture
	default:
		t, ok := d.Text(ref)
		return ok && t.ContentLayer == ContentLayerFurniture
	}
}

// Text returns the text item at ref, or ok=false if ref does not point into
// the Texts array.
func (d *Document) Text(ref ItemRef) (TextItem, bool) {
	switch ref.Kind {
	case KindTitle, KindSectionHeader, KindText, KindParagraph, KindListItem, KindCode, KindFormula, KindCaption, KindFootnote:
		if ref.Idx >= 0 && ref.Idx < len(d.Texts) {
			return d.Texts[ref.Idx], true
		}
	}
	return TextItem{}, false
}

// Table returns the table at ref, or ok=false.
func (d *Document) Table(ref ItemRef) (TableData, bool) {
	if ref.Kind == KindTable && ref.Idx >= 0 && ref.Idx < len(d.Tables) {
		return d.Tables[ref.Idx], true
	}
	return TableData{}, false
}

// Picture returns the picture at ref, or ok=false.
func (d *Document) Picture(ref ItemRef) (PictureItem, bool) {
	if ref.Kind == KindPicture && ref.Idx >= 0 && ref.Idx < len(d.Pictures) {
		return d.Pictures[ref.Idx], true
	}
	return PictureItem{}, false
}

// Group returns the group at ref, or ok=false.
func (d *Document) Group(ref ItemRef) (Group, bool) {
	if ref.Kind == KindGroup && ref.Idx >= 0 && ref.Idx < len(d.Groups) {
		return d.Groups[ref.Idx], true
	}
	return Group{}, false
}

// Children returns the ordered child refs of any container-capable ref.
func (d *Document) Children(ref ItemRef) []ItemRef {
	switch ref.Kind {
	case KindGroup:
		if g, ok := d.Group(ref); ok {
			return g.Children
		}
	case KindPicture:
		if p, ok := d.Picture(ref); ok {
			return p.Children
		}
	case KindFormItem:
		if ref.Idx >= 0 && ref.Idx < len(d.FormItems) {
			return d.FormItems[ref.Idx].Children
		}
	default:
		if t, ok := d.Text(ref); ok {
			return t.Children
		}
	}
	return nil
}

// Walk visits every item reachable from the body root in document order,
// calling fn with each ref. Traversal stops early if fn returns false.
func (d *Document) Walk(fn func(ItemRef) bool) {
	var visit func(ItemRef) bool
	visit = func(ref ItemRef) bool {
		if !fn(ref) {
			return false
		}
		for _, child := range d.Children(ref) {
			if !visit(child) {
				return false
			}
		}
		return true
	}
	visit(d.Body)
}

// Find returns the first ref for which predicate returns true, in document
// order, or the zero ItemRef with ok=false.
func (d *Document) Find(predicate func(ItemRef) bool) (ItemRef, bool) {
	var found ItemRef
	ok := false
	d.Walk(func(ref ItemRef) bool {
		if predicate(ref) {
			found, ok = ref, true
			return false
		}
		return true
	})
	return found, ok
}
