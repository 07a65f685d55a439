// Package markdownparser builds a docmodel.Document from CommonMark/GFM
// source by walking the goldmark AST, the same walk-based approach the
// PDF rendering service uses in the other direction (AST -> PDF instead of
// AST -> document tree).
package markdownparser

import (
	"bytes"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/docling-go/docling/internal/docerr"
	"github.com/docling-go/docling/internal/docmodel"
)

// Parser implements parsers.Parser for markdown input.
type Parser struct{}

// New returns a markdown Parser.
func New() *Parser { return &Parser{} }

// Parse reads all of r as markdown and returns the equivalent Document.
func (p *Parser) Parse(r io.Reader, name string) (*docmodel.Document, error) {
	source, err := io.ReadAll(r)
	if err != nil {
		return nil, docerr.Wrap(err, docerr.KindIO, "read markdown source")
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	root := md.Parser().Parse(text.NewReader(source))

	doc := docmodel.New(name)
	b := &builder{doc: doc, source: source, stack: []docmodel.ItemRef{doc.Body}}
	if err := ast.Walk(root, b.walk); err != nil {
		return nil, docerr.Wrap(err, docerr.KindParse, "walk markdown AST")
	}
	return doc, nil
}

// builder tracks the current insertion parent as a stack, mirroring the
// nesting of group/list-item containers the AST walk descends through.
type builder struct {
	doc    *docmodel.Document
	source []byte

	stack      []docmodel.ItemRef
	pendingTxt []byte // accumulates inline text between container events
}

func (b *builder) parent() docmodel.ItemRef { return b.stack[len(b.stack)-1] }
func (b *builder) push(ref docmodel.ItemRef) { b.stack = append(b.stack, ref) }
func (b *builder) pop()                      { b.stack = b.stack[:len(b.stack)-1] }

func (b *builder) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindHeading:
		return b.handleHeading(n.(*ast.Heading), entering)
	case ast.KindParagraph:
		return b.handleParagraph(n.(*ast.Paragraph), entering)
	case ast.KindText:
		return b.handleText(n.(*ast.Text), entering)
	case ast.KindFencedCodeBlock:
		return b.handleFencedCodeBlock(n.(*ast.FencedCodeBlock), entering)
	case ast.KindCodeBlock:
		return b.handleCodeBlock(n.(*ast.CodeBlock), entering)
	case ast.KindList:
		return b.handleList(n.(*ast.List), entering)
	case ast.KindListItem:
		return b.handleListItem(n.(*ast.ListItem), entering)
	case extast.KindTable:
		return b.handleTable(n.(*extast.Table), entering)
	case ast.KindThematicBreak, ast.KindDocument:
		return ast.WalkContinue, nil
	}
	return ast.WalkContinue, nil
}

func (b *builder) handleHeading(n *ast.Heading, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	txt := string(n.Text(b.source))
	ref := b.doc.AddText(docmodel.KindSectionHeader, txt, b.parent())
	b.doc.Texts[ref.Idx].Level = n.Level
	return ast.WalkSkipChildren, nil
}

func (b *builder) handleParagraph(n *ast.Paragraph, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	txt := string(n.Text(b.source))
	b.doc.AddText(docmodel.KindParagraph, txt, b.parent())
	return ast.WalkSkipChildren, nil
}

func (b *builder) handleText(n *ast.Text, entering bool) (ast.WalkStatus, error) {
	return ast.WalkContinue, nil
}

func (b *builder) handleFencedCodeBlock(n *ast.FencedCodeBlock, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(b.source))
	}
	ref := b.doc.AddText(docmodel.KindCode, buf.String(), b.parent())
	b.doc.Texts[ref.Idx].Language = string(n.Language(b.source))
	return ast.WalkSkipChildren, nil
}

func (b *builder) handleCodeBlock(n *ast.CodeBlock, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(b.source))
	}
	b.doc.AddText(docmodel.KindCode, buf.String(), b.parent())
	return ast.WalkSkipChildren, nil
}

func (b *builder) handleList(n *ast.List, entering bool) (ast.WalkStatus, error) {
	if entering {
		label := "list"
		if n.IsOrdered() {
			label = "ordered_list"
		}
		ref := b.doc.AddGroup(label, b.parent())
		b.push(ref)
		return ast.WalkContinue, nil
	}
	b.pop()
	return ast.WalkContinue, nil
}

func (b *builder) handleListItem(n *ast.ListItem, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	txt := string(n.Text(b.source))
	b.doc.AddText(docmodel.KindListItem, txt, b.parent())
	return ast.WalkSkipChildren, nil
}

// handleTable decodes a GFM table directly into a docmodel.TableData,
// exercising the same grid/span representation the PDF table-structure
// decoder populates.
func (b *builder) handleTable(n *extast.Table, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	numCols := 0
	numRows := 0
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		numRows++
		cols := 0
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cols++
		}
		if cols > numCols {
			numCols = cols
		}
	}

	table := docmodel.NewTableData(numRows, numCols)
	rowIdx := 0
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		isHeaderRow := row.Kind() == extast.KindTableHeader
		colIdx := 0
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			txt := string(cell.Text(b.source))
			table.SetCell(docmodel.TableCell{
				Text:           txt,
				RowIdx:         rowIdx,
				ColIdx:         colIdx,
				RowSpan:        1,
				ColSpan:        1,
				IsColumnHeader: isHeaderRow,
				Confidence:     1.0,
			})
			colIdx++
		}
		rowIdx++
	}

	b.doc.AddTable(table, b.parent())
	return ast.WalkSkipChildren, nil
}
