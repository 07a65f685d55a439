// Package pageinfo extracts per-page geometry and raw text cells from a
// PDF using pdfcpu, the page-level input the cascade layout predictor
// and reading-order engine both consume.
package pageinfo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/docling-go/docling/internal/docmodel"
	"github.com/docling-go/docling/internal/docerr"
	"github.com/docling-go/docling/internal/pdfml/layout"
)

// Extractor pulls PageInfo and coarse text blocks out of a PDF file via
// pdfcpu. It keeps a scratch directory for pdfcpu's content-extraction
// step, mirroring the temp-file dance pdfcpu's API requires.
type Extractor struct {
	logger  arbor.ILogger
	tempDir string
}

// NewExtractor builds an Extractor backed by a scratch directory under
// os.TempDir.
func NewExtractor(logger arbor.ILogger) *Extractor {
	dir := filepath.Join(os.TempDir(), "docling-pdf")
	os.MkdirAll(dir, 0o755)
	return &Extractor{logger: logger, tempDir: dir}
}

// PageContent is one page's extracted geometry and coarse text blocks,
// ready to feed layout.EstimateComplexity and, after a layout pass, the
// reading-order engine.
type PageContent struct {
	Page   docmodel.PageInfo
	Blocks []layout.TextBlock
}

// Extract reads every page of the PDF at path and returns its PageContent
// in page order. Pages whose content stream pdfcpu cannot extract still
// appear, with zero text blocks, rather than failing the whole document —
// per-page failures are logged and skipped, not propagated. Every page is
// given docmodel.USLetter as its size; the PDF's media boxes are not read.
func (e *Extractor) Extract(path string) ([]PageContent, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, docerr.Wrapf(err, docerr.KindParse, "read PDF context for %s", path)
	}

	outDir := filepath.Join(e.tempDir, fmt.Sprintf("pages_%d", os.Getpid()))
	os.MkdirAll(outDir, 0o755)
	defer os.RemoveAll(outDir)

	pageCount := pdfCtx.PageCount
	contents := make([]PageContent, pageCount)
	for i := range contents {
		contents[i].Page = docmodel.PageInfo{PageNo: i + 1, Size: docmodel.USLetter}
	}

	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		e.logger.Warn().Err(err).Msg("failed to extract PDF content, falling back to page geometry only")
		return contents, nil
	}

	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err != nil {
			if _, err := fmt.Sscanf(file.Name(), "page_%d", &pageNum); err != nil {
				continue
			}
		}
		if pageNum < 1 || pageNum > pageCount {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			e.logger.Warn().Err(err).Int("page", pageNum).Msg("failed to read extracted page content, skipping")
			continue
		}
		contents[pageNum-1].Blocks = blocksFromContentStream(raw, contents[pageNum-1].Page.Size)
	}

	return contents, nil
}

// blocksFromContentStream derives coarse text blocks from a raw content
// stream. pdfcpu's content extraction gives us the stream text but not
// per-run positioning, so each non-empty line becomes one TextBlock
// spanning the page width at an estimated row position — enough signal
// for the complexity estimator, which uses block count, rune counts and
// summed coverage, not exact geometry.
func blocksFromContentStream(raw []byte, pageSize docmodel.Size) []layout.TextBlock {
	lines := splitNonEmptyLines(raw)
	if len(lines) == 0 {
		return nil
	}
	rowHeight := pageSize.Height / float64(len(lines))
	blocks := make([]layout.TextBlock, 0, len(lines))
	for i, line := range lines {
		top := float64(i) * rowHeight
		blocks = append(blocks, layout.TextBlock{
			BBox: docmodel.BBox{
				L: 0, R: pageSize.Width,
				T: top, B: top + rowHeight,
				Origin: docmodel.OriginTopLeft,
			},
			NumRune: len([]rune(line)),
			Text:    line,
		})
	}
	return blocks
}

func splitNonEmptyLines(raw []byte) []string {
	var lines []string
	var cur []byte
	for _, b := range raw {
		if b == '\n' {
			if len(cur) > 0 {
				lines = append(lines, string(cur))
			}
			cur = cur[:0]
			continue
		}
		cur = append(cur, b)
	}
	if len(cur) > 0 {
		lines = append(lines, string(cur))
	}
	return lines
}
