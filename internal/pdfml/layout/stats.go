package layout

import (
	"sync"
	"time"
)

// nowFunc is overridable in tests; production code always uses time.Now.
var nowFunc = time.Now

// baselineFullPageMs is the fixed AlwaysFull-backend-per-page cost (in
// milliseconds) the speedup factor is measured against. This is the only
// place a per-backend timing assumption is hardcoded, per the spec's
// requirement that baselines live alongside the predictor.
const baselineFullPageMs = 850.0

// Stats accumulates per-path timing and page counts for a Predictor.
type Stats struct {
	mu sync.Mutex

	pageCount      map[BackendName]int64
	totalDuration  map[BackendName]time.Duration
	complexityCount map[Complexity]int64
}

// NewStats returns an empty accumulator.
func NewStats() *Stats {
	return &Stats{
		pageCount:       make(map[BackendName]int64),
		totalDuration:   make(map[BackendName]time.Duration),
		complexityCount: make(map[Complexity]int64),
	}
}

func (s *Stats) record(name BackendName, c Complexity, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageCount[name]++
	s.totalDuration[name] += d
	s.complexityCount[c]++
}

func (s *Stats) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageCount = make(map[BackendName]int64)
	s.totalDuration = make(map[BackendName]time.Duration)
	s.complexityCount = make(map[Complexity]int64)
}

// StatsSnapshot is an immutable view of accumulated statistics with the
// derived metrics the spec requires: speedup factor vs the AlwaysFull
// baseline, fast-path percentage, and per-path percentage breakdown.
type StatsSnapshot struct {
	TotalPages        int64
	PageCountByPath    map[BackendName]int64
	AvgMsByPath        map[BackendName]float64
	PathPercentage     map[BackendName]float64
	FastPathPercentage float64 // pages routed anywhere but full
	SpeedupFactor      float64 // baseline*totalPages / actualTotalMs
	ComplexityCount    map[Complexity]int64
}

// Snapshot computes a StatsSnapshot from the current accumulated state.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		PageCountByPath: make(map[BackendName]int64, len(s.pageCount)),
		AvgMsByPath:     make(map[BackendName]float64, len(s.pageCount)),
		PathPercentage:  make(map[BackendName]float64, len(s.pageCount)),
		ComplexityCount: make(map[Complexity]int64, len(s.complexityCount)),
	}

	var totalMs float64
	for name, n := range s.pageCount {
		snap.TotalPages += n
		totalMs += float64(s.totalDuration[name]) / float64(time.Millisecond)
	}
	for name, n := range s.pageCount {
		snap.PageCountByPath[name] = n
		if n > 0 {
			snap.AvgMsByPath[name] = (float64(s.totalDuration[name]) / float64(time.Millisecond)) / float64(n)
		}
		if snap.TotalPages > 0 {
			snap.PathPercentage[name] = 100 * float64(n) / float64(snap.TotalPages)
		}
	}
	for c, n := range s.complexityCount {
		snap.ComplexityCount[c] = n
	}

	if snap.TotalPages > 0 {
		nonFull := snap.TotalPages - snap.PageCountByPath[BackendFull]
		snap.FastPathPercentage = 100 * float64(nonFull) / float64(snap.TotalPages)
	}
	if totalMs > 0 {
		baselineMs := baselineFullPageMs * float64(snap.TotalPages)
		snap.SpeedupFactor = baselineMs / totalMs
	}
	return snap
}
