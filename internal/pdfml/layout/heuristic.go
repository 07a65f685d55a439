package layout

import (
	"context"

	"github.com/docling-go/docling/internal/docmodel"
)

// HeuristicBackend is the cheap, always-available backend: it emits one
// cluster per input text block, labeling each block on its own by its text
// shape (at most 24 runes and narrower than 40% of the page width:
// key_value; otherwise at most 60 runes: list item; everything else: a
// paragraph) without any model inference or page-level form check. It is always Loaded and is the base of every
// fallback chain.
type HeuristicBackend struct{}

func (HeuristicBackend) Name() BackendName { return BackendHeuristic }
func (HeuristicBackend) Loaded() bool      { return true }

func (HeuristicBackend) Predict(ctx context.Context, page docmodel.PageInfo, blocks []TextBlock) ([]LayoutCluster, error) {
	clusters := make([]LayoutCluster, 0, len(blocks))
	for i, b := range blocks {
		label := docmodel.KindParagraph
		switch {
		case b.NumRune <= 24 && b.BBox.Width() < page.Size.Width*0.4:
			label = docmodel.KindKeyValue
		case b.NumRune <= 60:
			label = docmodel.KindListItem
		}
		clusters = append(clusters, LayoutCluster{
			ID: i, Label: label, BBox: b.BBox, Confidence: 0.5,
			Cells: []TextBlock{b},
		})
	}
	return clusters, nil
}
