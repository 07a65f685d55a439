// Package readingorder reconstructs human reading order from a page's
// layout clusters: origin normalization, header/footer partitioning, a
// row-bucket comparator, an R-tree-backed precedence graph, optional
// horizontal dilation, and a non-recursive DFS traversal. It also derives
// caption-to-item assignments and paragraph merge hints; footnote
// clusters are not attached to tables or pictures.
//
// Bottom-left is the sole coordinate origin used inside this package —
// every other package in this module stores top-left boxes, and the
// conversion happens exactly once at this package's boundary.
package readingorder

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/tidwall/rtree"

	"github.com/docling-go/docling/internal/docmodel"
	"github.com/docling-go/docling/internal/pdfml/layout"
)

// Cluster is the subset of layout.LayoutCluster the engine needs, already
// converted to bottom-left origin.
type Cluster struct {
	ID     int
	PageNo int
	BBox   docmodel.BBox
	Label  docmodel.ItemKind
	Text   string
}

// Zone classifies a cluster's position for the header/body/footer split.
type Zone int

const (
	ZoneHeader Zone = iota
	ZoneBody
	ZoneFooter
)

// Config holds the tunables the engine's steps consult.
type Config struct {
	RowBucketHeight     float64 // points; default row height for the comparator
	HorizontalPadding   float64 // default 0.1pt strip padding for precedence queries
	DilationThreshold   float64 // fraction of page width; 0 disables dilation
	HeaderZoneFraction  float64 // fraction of page height treated as header
	FooterZoneFraction  float64
}

// DefaultConfig matches the values documented in the engine's design.
func DefaultConfig() Config {
	return Config{
		RowBucketHeight:    12.0,
		HorizontalPadding:  0.1,
		DilationThreshold:  0,
		HeaderZoneFraction: 0.08,
		FooterZoneFraction: 0.08,
	}
}

// Order returns clusters permuted into reading order: headers, then body
// in DFS precedence order, then footers. Clusters are expected in
// top-left origin; pageHeight converts them to bottom-left internally.
func Order(cfg Config, clusters []Cluster, pageHeight float64) []Cluster {
	clusters = toBottomLeft(clusters, pageHeight)
	clusters = filterDegenerate(clusters)
	if len(clusters) == 0 {
		return nil
	}

	headers, body, footers := partition(cfg, clusters, pageHeight)

	sortByRowBucket(cfg, headers)
	sortByRowBucket(cfg, body)
	sortByRowBucket(cfg, footers)

	upMap, dnMap := buildPrecedenceGraph(cfg, body)
	if cfg.DilationThreshold > 0 {
		dilated := dilate(cfg, body, upMap, dnMap, pageWidthOf(clusters))
		upMap, dnMap = buildPrecedenceGraph(cfg, dilated)
		body = dilated
	}

	ordered := traverse(cfg, body, upMap, dnMap)

	out := make([]Cluster, 0, len(clusters))
	out = append(out, headers...)
	out = append(out, ordered...)
	out = append(out, footers...)
	return out
}

func pageWidthOf(clusters []Cluster) float64 {
	var maxR float64
	for _, c := range clusters {
		if c.BBox.R > maxR {
			maxR = c.BBox.R
		}
	}
	return maxR
}

// toBottomLeft converts every cluster's box to bottom-left origin.
func toBottomLeft(clusters []Cluster, pageHeight float64) []Cluster {
	out := make([]Cluster, len(clusters))
	for i, c := range clusters {
		c.BBox = c.BBox.ToOrigin(docmodel.OriginBottomLeft, pageHeight)
		out[i] = c
	}
	return out
}

// filterDegenerate drops boxes with zero or negative area so they never
// enter the spatial index; every predicate downstream is then total.
func filterDegenerate(clusters []Cluster) []Cluster {
	out := clusters[:0:0]
	for _, c := range clusters {
		if !c.BBox.IsDegenerate() {
			out = append(out, c)
		}
	}
	return out
}

// partition splits clusters into header/body/footer zones by vertical
// position in bottom-left coordinates: header is the topmost band,
// footer the bottommost.
func partition(cfg Config, clusters []Cluster, pageHeight float64) (headers, body, footers []Cluster) {
	if pageHeight <= 0 {
		return nil, clusters, nil
	}
	headerCut := pageHeight * (1 - cfg.HeaderZoneFraction)
	footerCut := pageHeight * cfg.FooterZoneFraction
	for _, c := range clusters {
		switch {
		case c.Label == docmodel.ItemKind("page_header") || c.BBox.B >= headerCut:
			headers = append(headers, c)
		case c.Label == docmodel.ItemKind("page_footer") || c.BBox.T <= footerCut:
			footers = append(footers, c)
		default:
			body = append(body, c)
		}
	}
	return headers, body, footers
}

// sortByRowBucket applies the row-bucket comparator (§4.3.1): a strict
// total order that sorts by page, then by row bucket (higher-on-page
// first), then left-to-right within the bucket, then by ID as a final
// tiebreak so equal keys never compare equal under a strict-weak-ordering
// sort implementation.
func sortByRowBucket(cfg Config, clusters []Cluster) {
	h := cfg.RowBucketHeight
	if h <= 0 {
		h = 12.0
	}
	bucket := func(c Cluster) int64 {
		return int64(math.Floor(-c.BBox.B / h)) // floor(-b/h); larger b sorts first
	}
	sort.SliceStable(clusters, func(i, j int) bool {
		a, b := clusters[i], clusters[j]
		if a.PageNo != b.PageNo {
			return a.PageNo < b.PageNo
		}
		ba, bb := bucket(a), bucket(b)
		if ba != bb {
			return ba < bb
		}
		if a.BBox.L != b.BBox.L {
			return a.BBox.L < b.BBox.L
		}
		return a.ID < b.ID
	})
}

const epsilon = 1e-6

// buildPrecedenceGraph implements §4.3.2: an R-tree over body boxes, a
// padded-vertical-strip query per cluster, and a sequence-interruption
// test that excludes any candidate predecessor with a third cluster
// strictly between it and the query cluster.
func buildPrecedenceGraph(cfg Config, body []Cluster) (upMap, dnMap map[int][]int) {
	upMap = make(map[int][]int, len(body))
	dnMap = make(map[int][]int, len(body))
	if len(body) == 0 {
		return upMap, dnMap
	}

	byID := make(map[int]Cluster, len(body))
	var tr rtree.RTree[int]
	for _, c := range body {
		byID[c.ID] = c
		tr.Insert([2]float64{c.BBox.L, c.BBox.B}, [2]float64{c.BBox.R, c.BBox.T}, c.ID)
		upMap[c.ID] = nil
		dnMap[c.ID] = nil
	}

	pad := cfg.HorizontalPadding

	for _, j := range body {
		var candidates []int
		min := [2]float64{j.BBox.L - pad, j.BBox.T + epsilon}
		max := [2]float64{j.BBox.R + pad, 1e12}
		tr.Search(min, max, func(_, _ [2]float64, id int) bool {
			if id == j.ID {
				return true
			}
			candidates = append(candidates, id)
			return true
		})

		for _, idI := range candidates {
			i := byID[idI]
			if !i.BBox.OverlapsHorizontally(j.BBox) {
				continue
			}
			if i.BBox.T <= j.BBox.T+epsilon {
				continue
			}
			if interrupted(byID, candidates, i, j) {
				continue
			}
			upMap[j.ID] = append(upMap[j.ID], i.ID)
			dnMap[i.ID] = append(dnMap[i.ID], j.ID)
		}
	}

	for id := range upMap {
		sortClusterIDsByBucket(cfg, byID, upMap[id])
		sortClusterIDsByBucket(cfg, byID, dnMap[id])
	}
	return upMap, dnMap
}

// interrupted reports whether some third candidate w (w != i, w != j)
// overlaps either i or j horizontally and lies strictly between them
// vertically — disqualifying i as j's direct predecessor.
func interrupted(byID map[int]Cluster, candidates []int, i, j Cluster) bool {
	lo, hi := j.BBox.T, i.BBox.T
	for _, wid := range candidates {
		if wid == i.ID || wid == j.ID {
			continue
		}
		w := byID[wid]
		if !(w.BBox.OverlapsHorizontally(i.BBox) || w.BBox.OverlapsHorizontally(j.BBox)) {
			continue
		}
		if w.BBox.B > lo+epsilon && w.BBox.T < hi-epsilon {
			return true
		}
	}
	return false
}

func sortClusterIDsByBucket(cfg Config, byID map[int]Cluster, ids []int) {
	sort.SliceStable(ids, func(a, b int) bool {
		ca, cb := byID[ids[a]], byID[ids[b]]
		return lessByRowBucket(cfg, ca, cb)
	})
}

func lessByRowBucket(cfg Config, a, b Cluster) bool {
	h := cfg.RowBucketHeight
	if h <= 0 {
		h = 12.0
	}
	if a.PageNo != b.PageNo {
		return a.PageNo < b.PageNo
	}
	ba := int64(math.Floor(-a.BBox.B / h))
	bb := int64(math.Floor(-b.BBox.B / h))
	if ba != bb {
		return ba < bb
	}
	if a.BBox.L != b.BBox.L {
		return a.BBox.L < b.BBox.L
	}
	return a.ID < b.ID
}

// dilate extends each cluster's l/r to the min/max over its graph
// neighbors, but only when the expansion stays within the configured
// threshold and introduces no new overlap with an unrelated cluster
// (§4.3.3).
func dilate(cfg Config, body []Cluster, upMap, dnMap map[int][]int, pageWidth float64) []Cluster {
	byID := make(map[int]Cluster, len(body))
	for _, c := range body {
		byID[c.ID] = c
	}
	maxExpand := cfg.DilationThreshold * pageWidth

	out := make([]Cluster, len(body))
	for i, c := range body {
		l, r := c.BBox.L, c.BBox.R
		for _, nid := range append(append([]int{}, upMap[c.ID]...), dnMap[c.ID]...) {
			n := byID[nid]
			if n.BBox.L < l {
				l = n.BBox.L
			}
			if n.BBox.R > r {
				r = n.BBox.R
			}
		}
		if (c.BBox.L-l) > maxExpand || (r-c.BBox.R) > maxExpand {
			out[i] = c
			continue
		}
		candidate := c
		candidate.BBox.L, candidate.BBox.R = l, r
		if overlapsAnyOther(byID, c.ID, candidate.BBox) {
			out[i] = c
			continue
		}
		out[i] = candidate
	}
	return out
}

func overlapsAnyOther(byID map[int]Cluster, selfID int, box docmodel.BBox) bool {
	for id, c := range byID {
		if id == selfID {
			continue
		}
		if box.OverlapsHorizontally(c.BBox) && box.T > c.BBox.B+epsilon && c.BBox.T > box.B+epsilon {
			return true
		}
	}
	return false
}

// traverse implements §4.3.4: heads are body clusters with no
// predecessors, sorted by the comparator. A non-recursive DFS visits each
// head; before visiting a successor, it chases the successor's
// predecessor chain to the topmost unvisited ancestor and visits that
// first. Disconnected clusters never reached by the walk are appended at
// the end, sorted by the comparator.
func traverse(cfg Config, body []Cluster, upMap, dnMap map[int][]int) []Cluster {
	byID := make(map[int]Cluster, len(body))
	for _, c := range body {
		byID[c.ID] = c
	}

	var heads []Cluster
	for _, c := range body {
		if len(upMap[c.ID]) == 0 {
			heads = append(heads, c)
		}
	}
	sortByRowBucket(cfg, heads)

	visited := make(map[int]bool, len(body))
	var order []Cluster

	// frame holds one DFS stack entry: the successor list of an already
	// visited node and how far through it we've walked, mirroring a call
	// frame's local state without using the Go call stack.
	type frame struct {
		succs []int
		idx   int
	}
	visitNode := func(id int) {
		visited[id] = true
		order = append(order, byID[id])
	}

	for _, h := range heads {
		if visited[h.ID] {
			continue
		}
		visitNode(h.ID)
		stack := []frame{{succs: dnMap[h.ID]}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.idx >= len(top.succs) {
				stack = stack[:len(stack)-1]
				continue
			}
			succ := top.succs[top.idx]
			top.idx++
			if visited[succ] {
				continue
			}
			target := topmostUnvisitedAncestor(succ, upMap, visited)
			if visited[target] {
				continue
			}
			visitNode(target)
			stack = append(stack, frame{succs: dnMap[target]})
		}
	}

	var rest []Cluster
	for _, c := range body {
		if !visited[c.ID] {
			rest = append(rest, c)
		}
	}
	sortByRowBucket(cfg, rest)
	order = append(order, rest...)
	return order
}

// topmostUnvisitedAncestor chases up_map[id] upward to the topmost
// unvisited ancestor of id, following the first (comparator-sorted)
// predecessor at each step. A visited predecessor means that branch of
// the chain is already satisfied, so the chase stops there.
func topmostUnvisitedAncestor(id int, upMap map[int][]int, visited map[int]bool) int {
	seen := map[int]bool{}
	current := id
	for {
		if seen[current] {
			return current // cycle guard; well-formed graphs never hit this
		}
		seen[current] = true
		preds := upMap[current]
		if len(preds) == 0 {
			return current
		}
		next := preds[0]
		if visited[next] {
			return current
		}
		current = next
	}
}

var (
	tableCaptionRe   = regexp.MustCompile(`^Table\s+(\d+)\s*:`)
	figureCaptionRe  = regexp.MustCompile(`^(?:Figure|Fig\.|Fig)\s+(\d+)\s*:`)
	listingCaptionRe = regexp.MustCompile(`^Listing\s+(\d+)\s*:`)
	mergeEndRe       = regexp.MustCompile(`.+([a-z,\-])\s*$`)
	mergeStartRe     = regexp.MustCompile(`^\s*[a-z]`)
)

// CaptionMatch is one resolved caption-to-item assignment.
type CaptionMatch struct {
	CaptionID int
	TargetRef docmodel.ItemRef
}

// MatchCaptions resolves caption clusters to the n-th table/picture/code
// block in document order, per §4.3.5 and Open Question 2: a caption
// numbered beyond the available count of its target kind becomes an
// orphan (left as body text, not force-attached to the nearest item).
func MatchCaptions(captionTexts map[int]string, tableRefs, pictureRefs, codeRefs []docmodel.ItemRef) []CaptionMatch {
	var out []CaptionMatch
	for id, text := range captionTexts {
		if n, ok := matchIndex(tableCaptionRe, text); ok && n >= 1 && n <= len(tableRefs) {
			out = append(out, CaptionMatch{CaptionID: id, TargetRef: tableRefs[n-1]})
			continue
		}
		if n, ok := matchIndex(figureCaptionRe, text); ok && n >= 1 && n <= len(pictureRefs) {
			out = append(out, CaptionMatch{CaptionID: id, TargetRef: pictureRefs[n-1]})
			continue
		}
		if n, ok := matchIndex(listingCaptionRe, text); ok && n >= 1 && n <= len(codeRefs) {
			out = append(out, CaptionMatch{CaptionID: id, TargetRef: codeRefs[n-1]})
			continue
		}
		// Orphan: numbered beyond the available targets, or unparsed.
	}
	return out
}

func matchIndex(re *regexp.Regexp, text string) (int, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n := 0
	for _, ch := range m[len(m)-1] {
		if ch < '0' || ch > '9' {
			return 0, false
		}
		n = n*10 + int(ch-'0')
	}
	return n, true
}

// MergeHint marks two consecutive TEXT clusters that likely form one
// column-spanning paragraph split across a page or column break.
type MergeHint struct {
	EarlierID, LaterID int
}

// DetectMerges implements the merge-hint half of §4.3.5: an earlier TEXT
// cluster ending mid-sentence followed by a later one starting
// lowercase, where the two are on different pages or the earlier is
// strictly left of the later.
func DetectMerges(ordered []Cluster) []MergeHint {
	var hints []MergeHint
	for i := 0; i+1 < len(ordered); i++ {
		a, b := ordered[i], ordered[i+1]
		if a.Label != docmodel.KindParagraph || b.Label != docmodel.KindParagraph {
			continue
		}
		if !mergeEndRe.MatchString(a.Text) || !mergeStartRe.MatchString(b.Text) {
			continue
		}
		if a.PageNo != b.PageNo || a.BBox.R <= b.BBox.L {
			hints = append(hints, MergeHint{EarlierID: a.ID, LaterID: b.ID})
		}
	}
	return hints
}

// layout.LayoutCluster -> Cluster conversion helper used by callers that
// run the cascade predictor then feed its output straight into Order.
func FromLayoutClusters(lcs []layout.LayoutCluster, pageNo int) []Cluster {
	out := make([]Cluster, len(lcs))
	for i, lc := range lcs {
		out[i] = Cluster{ID: lc.ID, PageNo: pageNo, BBox: lc.BBox, Label: lc.Label, Text: clusterText(lc)}
	}
	return out
}

func clusterText(lc layout.LayoutCluster) string {
	if len(lc.Cells) == 0 {
		return ""
	}
	var b strings.Builder
	for i, cell := range lc.Cells {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(cell.Text)
	}
	return b.String()
}
