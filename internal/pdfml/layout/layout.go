// Package layout implements the cascade layout predictor: a routing policy
// that picks which backend analyzes each page, a cheap complexity
// estimator, and the accumulated statistics that justify the routing.
package layout

import (
	"context"

	"github.com/docling-go/docling/internal/docerr"
	"github.com/docling-go/docling/internal/docmodel"
)

// Mode selects the routing policy used to pick a backend per page.
type Mode string

const (
	AlwaysFull      Mode = "always_full"
	AlwaysHeuristic Mode = "always_heuristic"
	AlwaysFast      Mode = "always_fast"
	Auto            Mode = "auto"
	AutoWithFast    Mode = "auto_with_fast"
	AutoWithAccel   Mode = "auto_with_accel"
	Conservative    Mode = "conservative"
)

// Complexity is the coarse classification the estimator assigns a page.
type Complexity int

const (
	Simple Complexity = iota
	Moderate
	Complex
)

func (c Complexity) String() string {
	switch c {
	case Simple:
		return "simple"
	case Moderate:
		return "moderate"
	default:
		return "complex"
	}
}

// Features are cheap per-page signals the estimator derives alongside the
// complexity classification.
type Features struct {
	HasFormElements bool
	TextBlockCount  int
	ImageCoverage   float64 // summed text-block box area over page area; no raster content is examined
}

// TextBlock is a page text cell as produced by upstream extraction; the
// estimator only needs its box and character count; Text carries the raw
// content through to the reading-order and document-assembly stages,
// which the estimator itself never reads.
type TextBlock struct {
	BBox    docmodel.BBox
	NumRune int
	Text    string
}

// EstimateComplexity is the pure, cheap-by-construction function described
// in the cascade spec: no I/O, no model invocation, target <=2ms/page. It
// classifies on block count, summed block coverage and a form-like-layout
// signal, all computable from already-extracted cells. Per-block text
// density is computed but does not affect the classification.
func EstimateComplexity(textBlocks []TextBlock, pageW, pageH float64) (Complexity, Features) {
	feats := Features{TextBlockCount: len(textBlocks)}
	if pageW <= 0 || pageH <= 0 || len(textBlocks) == 0 {
		return Simple, feats
	}

	pageArea := pageW * pageH
	var covered float64
	denseBlocks := 0
	for _, tb := range textBlocks {
		covered += tb.BBox.Area()
		if tb.NumRune > 0 && tb.BBox.Area() > 0 {
			density := float64(tb.NumRune) / tb.BBox.Area()
			if density > 0.35 {
				denseBlocks++
			}
		}
	}
	feats.ImageCoverage = covered / pageArea
	feats.HasFormElements = detectFormLikeLayout(textBlocks)

	switch {
	case feats.HasFormElements || len(textBlocks) > 60:
		return Complex, feats
	case len(textBlocks) > 20 || feats.ImageCoverage > 0.4:
		return Moderate, feats
	default:
		return Simple, feats
	}
}

// detectFormLikeLayout flags pages where more than 60% of the blocks are
// short (1 to 24 runes), taken as the signature of a form/key-value
// layout, without requiring any ML inference. Block alignment is not
// checked.
func detectFormLikeLayout(blocks []TextBlock) bool {
	shortRows := 0
	for _, tb := range blocks {
		if tb.NumRune > 0 && tb.NumRune <= 24 {
			shortRows++
		}
	}
	return len(blocks) > 0 && float64(shortRows)/float64(len(blocks)) > 0.6
}

// LayoutCluster is one region a backend identified on a page.
type LayoutCluster struct {
	ID         int
	Label      docmodel.ItemKind
	BBox       docmodel.BBox
	Confidence float64
	Cells      []TextBlock
	Children   []int
}

// BackendName identifies which backend produced a page's clusters, used
// both for fallback-chain bookkeeping and for error messages.
type BackendName string

const (
	BackendHeuristic   BackendName = "heuristic"
	BackendFast        BackendName = "fast"
	BackendFull        BackendName = "full"
	BackendAccelerated BackendName = "accelerated"
)

// Backend is an external collaborator that turns a page plus its text
// blocks into layout clusters. Production backends wrap an ML model; tests
// use a deterministic stub.
type Backend interface {
	Name() BackendName
	// Loaded reports whether the backend is currently usable; the
	// predictor consults this before routing and during fallback.
	Loaded() bool
	Predict(ctx context.Context, page docmodel.PageInfo, blocks []TextBlock) ([]LayoutCluster, error)
}

// Predictor routes each page to a backend per its configured Mode, falls
// back along the documented chain when a backend is unavailable, and
// accumulates Stats.
type Predictor struct {
	mode      Mode
	heuristic Backend
	fast      Backend
	full      Backend
	accel     Backend // nil when no accelerated backend is configured

	dilationThreshold float64 // unused here; reading-order consumes this separately

	stats *Stats
}

// NewPredictor builds a Predictor. heuristic and full must be non-nil;
// fast and accel may be nil if those backends are not configured, in
// which case routing decisions that would choose them fall through to the
// next backend in the chain.
func NewPredictor(mode Mode, heuristic, fast, full, accel Backend) *Predictor {
	return &Predictor{
		mode:      mode,
		heuristic: heuristic,
		fast:      fast,
		full:      full,
		accel:     accel,
		stats:     NewStats(),
	}
}

// Predict classifies the page, routes it per Mode, runs the chosen
// backend with fallback, and records statistics. The routing decision
// itself is a pure function of blocks/page/mode; no state from prior
// calls influences it.
func (p *Predictor) Predict(ctx context.Context, page docmodel.PageInfo, blocks []TextBlock) ([]LayoutCluster, error) {
	complexity, feats := EstimateComplexity(blocks, page.Size.Width, page.Size.Height)

	path := p.route(complexity, feats)
	backend, chain := p.resolveChain(path)

	if backend == nil {
		return nil, docerr.New(docerr.KindInference, "no layout backend available")
	}

	start := nowFunc()
	clusters, err := backend.Predict(ctx, page, blocks)
	elapsed := nowFunc().Sub(start)

	p.stats.record(backend.Name(), complexity, elapsed)

	if err != nil {
		return nil, docerr.Wrapf(err, docerr.KindInference, "backend %s failed on page %d (chain %v)", backend.Name(), page.PageNo, chain)
	}
	return clusters, nil
}

// route implements the table in the routing-modes spec: a pure function of
// (complexity, features, mode).
func (p *Predictor) route(c Complexity, f Features) BackendName {
	switch p.mode {
	case AlwaysFull:
		return BackendFull
	case AlwaysHeuristic:
		return BackendHeuristic
	case AlwaysFast:
		return BackendFast
	case Auto:
		if c == Simple {
			return BackendHeuristic
		}
		return BackendFull
	case AutoWithFast:
		switch {
		case c == Simple:
			return BackendHeuristic
		case c == Moderate:
			return BackendFast
		case c == Complex && f.HasFormElements:
			return BackendFull
		default:
			return BackendFast
		}
	case AutoWithAccel:
		if c == Simple {
			return BackendHeuristic
		}
		return BackendAccelerated
	case Conservative:
		if c == Simple && !f.HasFormElements {
			return BackendHeuristic
		}
		return BackendFull
	default:
		return BackendFull
	}
}

// resolveChain walks the documented fallback chain (accelerated -> fast ->
// full) starting at the routed backend, returning the first loaded
// backend and the names it passed through. Heuristic never falls back
// (there is nothing cheaper) except to full if heuristic itself is
// somehow unavailable.
func (p *Predictor) resolveChain(start BackendName) (Backend, []BackendName) {
	order := p.chainFrom(start)
	var tried []BackendName
	for _, name := range order {
		b := p.backendFor(name)
		tried = append(tried, name)
		if b != nil && b.Loaded() {
			return b, tried
		}
	}
	return nil, tried
}

func (p *Predictor) chainFrom(start BackendName) []BackendName {
	switch start {
	case BackendHeuristic:
		return []BackendName{BackendHeuristic, BackendFull}
	case BackendAccelerated:
		return []BackendName{BackendAccelerated, BackendFast, BackendFull}
	case BackendFast:
		return []BackendName{BackendFast, BackendFull}
	default:
		return []BackendName{BackendFull}
	}
}

func (p *Predictor) backendFor(name BackendName) Backend {
	switch name {
	case BackendHeuristic:
		return p.heuristic
	case BackendFast:
		return p.fast
	case BackendFull:
		return p.full
	case BackendAccelerated:
		return p.accel
	default:
		return nil
	}
}

// Stats returns the accumulated statistics snapshot.
func (p *Predictor) Stats() StatsSnapshot { return p.stats.Snapshot() }

// ResetStats clears accumulated statistics, used by the scheduled cron
// reset job wired in cmd/doclingd.
func (p *Predictor) ResetStats() { p.stats.reset() }
