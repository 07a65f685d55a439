// Package markdown exports a docmodel.Document to deterministic CommonMark
// + GFM pipe-table text, the inverse of parsers/markdownparser.
package markdown

import (
	"fmt"
	"strings"

	"github.com/docling-go/docling/internal/docmodel"
)

// Export renders doc as markdown, walking the tree from its body root in
// document order. Output is deterministic: identical trees always produce
// byte-identical markdown.
func Export(doc *docmodel.Document) string {
	var b strings.Builder
	w := &writer{doc: doc, b: &b}
	w.writeChildren(doc.Body)
	return strings.TrimRight(b.String(), "\n") + "\n"
}

type writer struct {
	doc *docmodel.Document
	b   *strings.Builder
}

func (w *writer) writeChildren(ref docmodel.ItemRef) {
	w.writeChildrenAt(ref, 0)
}

func (w *writer) writeChildrenAt(ref docmodel.ItemRef, depth int) {
	for _, child := range w.doc.Children(ref) {
		if w.doc.IsFurniture(child) {
			continue
		}
		w.writeItemAt(child, depth)
	}
}

func (w *writer) writeItemAt(ref docmodel.ItemRef, depth int) {
	switch ref.Kind {
	case docmodel.KindGroup:
		g, _ := w.doc.Group(ref)
		switch g.Label {
		case "ordered_list":
			w.writeList(ref, depth, true)
		case "list":
			w.writeList(ref, depth, false)
		default:
			w.writeChildrenAt(ref, depth)
		}
	case docmodel.KindTable:
		w.writeTable(ref)
	case docmodel.KindPicture:
		w.writePicture(ref)
	case docmodel.KindFormItem:
		w.writeForm(ref)
	default:
		w.writeText(ref, depth)
	}
}

func (w *writer) writeText(ref docmodel.ItemRef, depth int) {
	item, ok := w.doc.Text(ref)
	if !ok {
		return
	}
	switch item.Kind {
	case docmodel.KindTitle:
		fmt.Fprintf(w.b, "# %s\n\n", item.Text)
	case docmodel.KindSectionHeader:
		level := item.Level
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		fmt.Fprintf(w.b, "%s %s\n\n", strings.Repeat("#", level), item.Text)
	case docmodel.KindListItem:
		// Reached only for a list item with no enclosing list group
		// (e.g. a tree built directly rather than via the parser).
		fmt.Fprintf(w.b, "%s- %s\n", strings.Repeat("  ", depth), item.Text)
	case docmodel.KindCode:
		fmt.Fprintf(w.b, "```%s\n%s\n```\n\n", item.Language, item.Text)
	case docmodel.KindFormula:
		fmt.Fprintf(w.b, "$$ %s $$\n\n", item.Text)
	case docmodel.KindCaption:
		fmt.Fprintf(w.b, "*%s*\n\n", item.Text)
	case docmodel.KindFootnote:
		fmt.Fprintf(w.b, "[^%d]: %s\n", ref.Idx, item.Text)
	default: // paragraph, generic text
		fmt.Fprintf(w.b, "%s\n\n", item.Text)
	}
	w.writeChildrenAt(ref, depth)
}

// writeList renders a list group's items at depth, indenting 2 spaces per
// level. A nested list lives as a child group of its parent list item;
// writeList recurses into those at depth+1 so nesting tracks the parent
// chain instead of a flat sibling list.
func (w *writer) writeList(ref docmodel.ItemRef, depth int, ordered bool) {
	indent := strings.Repeat("  ", depth)
	n := 1
	for _, child := range w.doc.Children(ref) {
		if w.doc.IsFurniture(child) {
			continue
		}
		if child.Kind == docmodel.KindGroup {
			w.writeItemAt(child, depth+1)
			continue
		}
		item, ok := w.doc.Text(child)
		if !ok {
			continue
		}
		if ordered {
			fmt.Fprintf(w.b, "%s%d. %s\n", indent, n, item.Text)
			n++
		} else {
			fmt.Fprintf(w.b, "%s- %s\n", indent, item.Text)
		}
		for _, nested := range item.Children {
			if nested.Kind == docmodel.KindGroup {
				w.writeItemAt(nested, depth+1)
			}
		}
	}
	if depth == 0 {
		w.b.WriteString("\n")
	}
}

func (w *writer) writePicture(ref docmodel.ItemRef) {
	pic, ok := w.doc.Picture(ref)
	if !ok {
		return
	}
	alt := "image"
	fmt.Fprintf(w.b, "![%s](%s)\n\n", alt, pic.URI)
	w.writeChildren(ref)
}

func (w *writer) writeForm(ref docmodel.ItemRef) {
	for _, child := range w.doc.Children(ref) {
		if child.Kind != docmodel.KindKeyValue {
			continue
		}
		kv := w.doc.KeyValueItems[child.Idx]
		fmt.Fprintf(w.b, "**%s**: %s\n\n", kv.Key, kv.Value)
	}
}

// writeTable renders a GFM pipe table. CommonMark tables have no native
// span syntax, so a merged cell's text is emitted once at its top-left grid
// position; spanned-over positions hold an empty string (SetCell never
// populates their Text field).
func (w *writer) writeTable(ref docmodel.ItemRef) {
	t, ok := w.doc.Table(ref)
	if !ok {
		return
	}
	if t.NumRows == 0 || t.NumCols == 0 {
		return
	}

	writeRow := func(r int) {
		w.b.WriteString("|")
		for c := 0; c < t.NumCols; c++ {
			cell, _ := t.CellAt(r, c)
			fmt.Fprintf(w.b, " %s |", escapeCell(cell.Text))
		}
		w.b.WriteString("\n")
	}

	writeRow(0)
	if rowHasColumnHeader(t, 0) {
		w.b.WriteString("|")
		for c := 0; c < t.NumCols; c++ {
			w.b.WriteString(" --- |")
		}
		w.b.WriteString("\n")
	}
	for r := 1; r < t.NumRows; r++ {
		writeRow(r)
	}
	w.b.WriteString("\n")
}

// rowHasColumnHeader reports whether any cell in row r is marked a column
// header; the separator row is emitted only when this holds for row 0.
func rowHasColumnHeader(t docmodel.TableData, r int) bool {
	for _, cell := range t.Row(r) {
		if cell.IsColumnHeader {
			return true
		}
	}
	return false
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
