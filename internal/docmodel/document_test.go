package docmodel

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocumentHasRootBodyGroup(t *testing.T) {
	d := New("doc")
	assert.Equal(t, "#/groups/0", d.Body.String())
	g, ok := d.Group(d.Body)
	require.True(t, ok)
	assert.Equal(t, "body", g.Label)
	assert.True(t, g.Parent.IsZero())
}

func TestAppendedChildrenResolveBackToParent(t *testing.T) {
	d := New("doc")
	p1 := d.AddText(KindParagraph, "hello", d.Body)
	tbl := d.AddTable(NewTableData(1, 1), d.Body)

	root, _ := d.Group(d.Body)
	assert.Contains(t, root.Children, p1)
	assert.Contains(t, root.Children, tbl)

	item, ok := d.Text(p1)
	require.True(t, ok)
	assert.Equal(t, d.Body, item.Parent)

	table, ok := d.Table(tbl)
	require.True(t, ok)
	assert.Equal(t, d.Body, table.Parent)
}

// TestInvariantEveryChildRefResolvesBackToHolder is the property test from
// spec.md §8: for every ItemRef in any children list, the referenced item
// exists and its parent resolves back to the holder. Exercised over a
// randomly generated tree of groups, text items, and tables.
func TestInvariantEveryChildRefResolvesBackToHolder(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	d := New("random")

	var containers []ItemRef
	containers = append(containers, d.Body)
	for i := 0; i < 200; i++ {
		parent := containers[r.Intn(len(containers))]
		switch r.Intn(3) {
		case 0:
			ref := d.AddText(KindParagraph, "text", parent)
			_ = ref
		case 1:
			ref := d.AddTable(NewTableData(1, 1), parent)
			_ = ref
		case 2:
			ref := d.AddGroup("group", parent)
			containers = append(containers, ref)
		}
	}

	checked := 0
	d.Walk(func(ref ItemRef) bool {
		for _, child := range d.Children(ref) {
			parentOfChild := parentOf(t, d, child)
			assert.Equal(t, ref, parentOfChild, "child %v under %v must resolve parent back to holder", child, ref)
			checked++
		}
		return true
	})
	assert.Greater(t, checked, 0)
}

func parentOf(t *testing.T, d *Document, ref ItemRef) ItemRef {
	t.Helper()
	switch ref.Kind {
	case KindGroup:
		g, ok := d.Group(ref)
		require.True(t, ok)
		return g.Parent
	case KindTable:
		tb, ok := d.Table(ref)
		require.True(t, ok)
		return tb.Parent
	case KindPicture:
		p, ok := d.Picture(ref)
		require.True(t, ok)
		return p.Parent
	default:
		txt, ok := d.Text(ref)
		require.True(t, ok)
		return txt.Parent
	}
}

func TestBodyGroupSelfRefIsHashAndParentAbsent(t *testing.T) {
	d := New("doc")
	assert.Equal(t, "#/groups/0", d.Body.String())
	g, _ := d.Group(d.Body)
	assert.True(t, g.Parent.IsZero())
}

func TestWalkVisitsInDocumentOrder(t *testing.T) {
	d := New("doc")
	a := d.AddText(KindParagraph, "a", d.Body)
	b := d.AddText(KindParagraph, "b", d.Body)

	var order []ItemRef
	d.Walk(func(ref ItemRef) bool {
		order = append(order, ref)
		return true
	})
	require.Len(t, order, 3) // body, a, b
	assert.Equal(t, d.Body, order[0])
	assert.Equal(t, a, order[1])
	assert.Equal(t, b, order[2])
}

func TestFindReturnsFirstMatch(t *testing.T) {
	d := New("doc")
	d.AddText(KindParagraph, "first", d.Body)
	target := d.AddText(KindSectionHeader, "second", d.Body)
	d.AddText(KindParagraph, "third", d.Body)

	found, ok := d.Find(func(ref ItemRef) bool {
		t, isText := d.Text(ref)
		return isText && t.Kind == KindSectionHeader
	})
	require.True(t, ok)
	assert.Equal(t, target, found)
}

func TestNewItemsDefaultToBodyContentLayer(t *testing.T) {
	d := New("doc")
	p := d.AddText(KindParagraph, "hello", d.Body)
	assert.False(t, d.IsFurniture(p))

	tbl := d.AddTable(NewTableData(1, 1), d.Body)
	assert.False(t, d.IsFurniture(tbl))
}

func TestSetContentLayerMarksFurniture(t *testing.T) {
	d := New("doc")
	p := d.AddText(KindParagraph, "page footer", d.Body)
	assert.False(t, d.IsFurniture(p))

	d.SetContentLayer(p, ContentLayerFurniture)
	assert.True(t, d.IsFurniture(p))

	d.SetContentLayer(p, ContentLayerBody)
	assert.False(t, d.IsFurniture(p))
}

func TestItemRefIsZero(t *testing.T) {
	assert.True(t, ItemRef{}.IsZero())
	assert.False(t, (ItemRef{Kind: KindTable, Idx: 0}).IsZero())
}
