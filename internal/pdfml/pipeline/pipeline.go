// Package pipeline wires the three pdfml subsystems (pageinfo extraction,
// cascade layout prediction, reading-order reconstruction) plus the
// docmodel exporters' parser contract into the single entry point the
// media DAG's ingestion task calls: turn a document-shaped source file
// into a populated docmodel.Document.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/docling-go/docling/internal/common"
	"github.com/docling-go/docling/internal/config"
	"github.com/docling-go/docling/internal/docerr"
	"github.com/docling-go/docling/internal/docmodel"
	"github.com/docling-go/docling/internal/parsers"
	"github.com/docling-go/docling/internal/parsers/csvparser"
	"github.com/docling-go/docling/internal/parsers/markdownparser"
	"github.com/docling-go/docling/internal/pdfml/layout"
	"github.com/docling-go/docling/internal/pdfml/pageinfo"
	"github.com/docling-go/docling/internal/pdfml/readingorder"
)

var registry = buildRegistry()

var (
	predictorMu     sync.Mutex
	sharedPredictor *layout.Predictor
)

// predictorFor returns the process-wide cascade layout predictor, building
// it from cfg on first use. A single shared predictor is what makes
// StatsSnapshot and the scheduled reset job meaningful across requests.
func predictorFor(cfg *config.Config) *layout.Predictor {
	predictorMu.Lock()
	defer predictorMu.Unlock()
	if sharedPredictor == nil {
		heuristic := layout.HeuristicBackend{}
		mode := layout.Mode(cfg.Layout.DefaultMode)
		sharedPredictor = layout.NewPredictor(mode, heuristic, heuristic, heuristic, nil)
	}
	return sharedPredictor
}

// StatsSnapshot exposes the shared predictor's accumulated routing stats.
func StatsSnapshot() layout.StatsSnapshot {
	predictorMu.Lock()
	p := sharedPredictor
	predictorMu.Unlock()
	if p == nil {
		return layout.StatsSnapshot{}
	}
	return p.Stats()
}

func buildRegistry() *parsers.Registry {
	r := parsers.NewRegistry()
	r.Register(".md", markdownparser.New())
	r.Register(".markdown", markdownparser.New())
	r.Register(".csv", csvparser.New())
	return r
}

// Ingest reads the file at location and returns its document tree. Markdown
// and CSV sources go through the parsers registry; PDF sources run the full
// cascade layout / reading-order pipeline page by page.
func Ingest(location string, cfg *config.Config) (*docmodel.Document, error) {
	ext := strings.ToLower(filepath.Ext(location))
	if p, ok := registry.Lookup(ext); ok {
		f, err := os.Open(location)
		if err != nil {
			return nil, docerr.Wrapf(err, docerr.KindIO, "open %s", location)
		}
		defer f.Close()
		return p.Parse(f, filepath.Base(location))
	}
	if ext == ".pdf" {
		return IngestPDF(location, cfg)
	}
	return nil, docerr.Newf(docerr.KindParse, "no ingestion path for extension %q", ext)
}

// IngestPDF extracts page geometry and text via pageinfo, routes each page
// through the cascade layout predictor, reconstructs reading order, and
// assembles the result into one Document. The layout predictor's fast/full/
// accelerated tiers are external ML collaborators; absent real model
// weights, every tier here is the same deterministic heuristic backend, so
// routing and fallback logic run for real while inference itself is a
// stand-in — exactly the posture pdfml/layout's own tests assume.
func IngestPDF(path string, cfg *config.Config) (*docmodel.Document, error) {
	logger := common.GetLogger()
	extractor := pageinfo.NewExtractor(logger)

	pages, err := extractor.Extract(path)
	if err != nil {
		return nil, err
	}

	predictor := predictorFor(cfg)

	roCfg := readingorder.Config{
		RowBucketHeight:    cfg.ReadingOrder.RowBucketTolerance,
		HorizontalPadding:  0.1,
		DilationThreshold:  cfg.ReadingOrder.HorizontalDilation,
		HeaderZoneFraction: cfg.ReadingOrder.HeaderZoneFraction,
		FooterZoneFraction: cfg.ReadingOrder.FooterZoneFraction,
	}

	doc := docmodel.New(filepath.Base(path))
	ctx := context.Background()

	var tableRefs, pictureRefs []docmodel.ItemRef
	for _, pc := range pages {
		doc.Pages = append(doc.Pages, pc.Page)

		clusters, err := predictor.Predict(ctx, pc.Page, pc.Blocks)
		if err != nil {
			logger.Warn().Err(err).Int("page", pc.Page.PageNo).Msg("layout prediction failed, skipping page")
			continue
		}
		if len(clusters) == 0 {
			continue
		}

		byID := make(map[int]layout.LayoutCluster, len(clusters))
		for _, lc := range clusters {
			byID[lc.ID] = lc
		}

		roClusters := readingorder.FromLayoutClusters(clusters, pc.Page.PageNo)
		ordered := readingorder.Order(roCfg, roClusters, pc.Page.Size.Height)

		captionTexts := make(map[int]string)
		for _, rc := range ordered {
			lc := byID[rc.ID]
			prov := docmodel.NewProvenance(pc.Page.PageNo, lc.BBox)

			switch lc.Label {
			case docmodel.KindTable:
				ref := addPlaceholderTable(doc, rc.Text, doc.Body, prov)
				tableRefs = append(tableRefs, ref)
			case docmodel.KindPicture:
				ref := doc.AddPicture("", doc.Body, prov)
				pictureRefs = append(pictureRefs, ref)
			case docmodel.KindCaption:
				ref := doc.AddText(docmodel.KindCaption, rc.Text, doc.Body, prov)
				captionTexts[ref.Idx] = rc.Text
			default:
				doc.AddText(lc.Label, rc.Text, doc.Body, prov)
			}
		}

		resolveCaptions(doc, captionTexts, tableRefs, pictureRefs)
	}

	return doc, nil
}

// addPlaceholderTable builds a single-cell table carrying the cluster's
// raw text. Real cell/row/column decoding needs tablestructure.Decode,
// which requires a rasterized page crop; pageinfo's pdfcpu-backed
// extractor yields text and geometry only, not pixels, so no rasterizer is
// wired here. tablestructure is exercised directly by its own tests
// against synthetic tensors and OCR cells instead.
func addPlaceholderTable(doc *docmodel.Document, text string, parent docmodel.ItemRef, prov docmodel.Provenance) docmodel.ItemRef {
	t := docmodel.NewTableData(1, 1)
	t.SetCell(docmodel.TableCell{Text: text, RowIdx: 0, ColIdx: 0, IsSpanOrigin: true, RowSpan: 1, ColSpan: 1})
	return doc.AddTable(t, parent, prov)
}

// resolveCaptions attaches each page's captions to its tables/pictures
// by ordinal match, leaving numbered-beyond-range captions as orphan body
// text per the caption-mismatch resolution this pipeline follows.
func resolveCaptions(doc *docmodel.Document, captionTexts map[int]string, tableRefs, pictureRefs []docmodel.ItemRef) {
	if len(captionTexts) == 0 {
		return
	}
	matches := readingorder.MatchCaptions(captionTexts, tableRefs, pictureRefs, nil)
	for _, m := range matches {
		if m.TargetRef.Kind != docmodel.KindTable {
			continue
		}
		captionRef := docmodel.ItemRef{Kind: docmodel.KindCaption, Idx: m.CaptionID}
		if t, ok := doc.Table(m.TargetRef); ok {
			t.Caption = captionRef
			doc.Tables[m.TargetRef.Idx] = t
		}
	}
}
