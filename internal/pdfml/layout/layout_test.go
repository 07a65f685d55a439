package layout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docling-go/docling/internal/docmodel"
)

type stubBackend struct {
	name   BackendName
	loaded bool
	err    error
}

func (s stubBackend) Name() BackendName { return s.name }
func (s stubBackend) Loaded() bool      { return s.loaded }
func (s stubBackend) Predict(_ context.Context, _ docmodel.PageInfo, blocks []TextBlock) ([]LayoutCluster, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]LayoutCluster, len(blocks))
	for i, b := range blocks {
		out[i] = LayoutCluster{ID: i, BBox: b.BBox, Label: docmodel.KindParagraph}
	}
	return out, nil
}

func page() docmodel.PageInfo {
	return docmodel.PageInfo{PageNo: 1, Size: docmodel.USLetter}
}

func simpleBlocks(n int) []TextBlock {
	blocks := make([]TextBlock, n)
	for i := range blocks {
		blocks[i] = TextBlock{BBox: docmodel.BBox{L: 10, T: float64(10 * i), R: 100, B: float64(10*i + 8)}, NumRune: 40}
	}
	return blocks
}

func TestEstimateComplexitySimpleOnEmptyOrFewBlocks(t *testing.T) {
	c, _ := EstimateComplexity(nil, 612, 792)
	assert.Equal(t, Simple, c)

	c, feats := EstimateComplexity(simpleBlocks(3), 612, 792)
	assert.Equal(t, Simple, c)
	assert.Equal(t, 3, feats.TextBlockCount)
}

func TestEstimateComplexityFormLikeIsComplex(t *testing.T) {
	blocks := make([]TextBlock, 10)
	for i := range blocks {
		blocks[i] = TextBlock{BBox: docmodel.BBox{L: 10, T: float64(20 * i), R: 60, B: float64(20*i + 10)}, NumRune: 8}
	}
	c, feats := EstimateComplexity(blocks, 612, 792)
	assert.True(t, feats.HasFormElements)
	assert.Equal(t, Complex, c)
}

func TestEstimateComplexityManyBlocksIsComplex(t *testing.T) {
	c, _ := EstimateComplexity(simpleBlocks(61), 612, 792)
	assert.Equal(t, Complex, c)
}

func TestPredictorAlwaysHeuristicRoutesEveryPage(t *testing.T) {
	heuristic := stubBackend{name: BackendHeuristic, loaded: true}
	full := stubBackend{name: BackendFull, loaded: true}
	p := NewPredictor(AlwaysHeuristic, heuristic, nil, full, nil)

	_, err := p.Predict(context.Background(), page(), simpleBlocks(80))
	require.NoError(t, err)

	snap := p.Stats()
	assert.Equal(t, int64(1), snap.PageCountByPath[BackendHeuristic])
	assert.Equal(t, 100.0, snap.FastPathPercentage)
}

func TestPredictorAlwaysFullSpeedupFactorIsBaseline(t *testing.T) {
	full := stubBackend{name: BackendFull, loaded: true}
	heuristic := stubBackend{name: BackendHeuristic, loaded: true}
	p := NewPredictor(AlwaysFull, heuristic, nil, full, nil)

	// Each Predict call reads nowFunc once at start and once at end; advance
	// by the baseline per-page cost on every read so every page measures as
	// exactly baselineFullPageMs, making the speedup factor compare equal to
	// the baseline it is measured against.
	tick := time.Duration(0)
	nowFunc = func() time.Time {
		t := time.Unix(0, 0).Add(tick)
		tick += baselineFullPageMs * time.Millisecond
		return t
	}
	defer func() { nowFunc = time.Now }()

	for i := 0; i < 3; i++ {
		_, err := p.Predict(context.Background(), page(), simpleBlocks(5))
		require.NoError(t, err)
	}
	snap := p.Stats()
	assert.Equal(t, int64(3), snap.TotalPages)
	assert.Equal(t, 0.0, snap.FastPathPercentage)
	assert.Equal(t, 1.0, snap.SpeedupFactor)
}

func TestPredictorFallsBackWhenFastNotLoaded(t *testing.T) {
	heuristic := stubBackend{name: BackendHeuristic, loaded: true}
	fast := stubBackend{name: BackendFast, loaded: false}
	full := stubBackend{name: BackendFull, loaded: true}
	p := NewPredictor(AutoWithFast, heuristic, fast, full, nil)

	_, err := p.Predict(context.Background(), page(), simpleBlocks(30))
	require.NoError(t, err)

	snap := p.Stats()
	assert.Equal(t, int64(1), snap.PageCountByPath[BackendFull])
}

func TestPredictorHardErrorWhenNoBackendAvailable(t *testing.T) {
	heuristic := stubBackend{name: BackendHeuristic, loaded: false}
	full := stubBackend{name: BackendFull, loaded: false}
	p := NewPredictor(AlwaysFull, heuristic, nil, full, nil)

	_, err := p.Predict(context.Background(), page(), simpleBlocks(5))
	require.Error(t, err)
}

func TestPredictorInferenceErrorCarriesBackendName(t *testing.T) {
	heuristic := stubBackend{name: BackendHeuristic, loaded: true, err: assertErr{}}
	full := stubBackend{name: BackendFull, loaded: true}
	p := NewPredictor(AlwaysHeuristic, heuristic, nil, full, nil)

	_, err := p.Predict(context.Background(), page(), simpleBlocks(5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(BackendHeuristic))
}

type assertErr struct{}

func (assertErr) Error() string { return "inference failed" }

func TestHeuristicBackendLabelsFormLikeLines(t *testing.T) {
	backend := HeuristicBackend{}
	blocks := []TextBlock{{BBox: docmodel.BBox{L: 0, T: 0, R: 50, B: 10}, NumRune: 5}}
	clusters, err := backend.Predict(context.Background(), page(), blocks)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, docmodel.KindKeyValue, clusters[0].Label)
}
