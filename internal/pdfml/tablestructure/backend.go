package tablestructure

import (
	"github.com/docling-go/docling/internal/docerr"
)

// StubBackend is a deterministic InferenceBackend used in tests and as a
// degraded-but-available fallback when no real model is loaded: it
// always emits the same small OTSL sequence and matching geometry,
// regardless of the input tensor. Production wiring replaces this with a
// backend that calls out to a loaded transformer model.
type StubBackend struct {
	// Sequence is the fixed OTSL tag sequence to emit. Defaults to a
	// single 1x1 table if empty.
	Sequence []Tag
}

// NewStubBackend returns a stub that emits the given fixed grid, keyed
// cxcywh boxes laid out evenly across the unit square, one per cell tag
// in order.
func NewStubBackend(sequence []Tag) *StubBackend {
	if len(sequence) == 0 {
		sequence = []Tag{TagStart, TagFCel, TagEnd}
	}
	return &StubBackend{Sequence: sequence}
}

func (s *StubBackend) Name() string { return "table-structure-stub" }

func (s *StubBackend) Infer(t *Tensor) (*InferenceOutput, error) {
	if t == nil {
		return nil, docerr.New(docerr.KindInference, "nil tensor passed to stub backend")
	}

	rows := splitRows(stripStartEnd(s.Sequence))
	numRows := len(rows)
	numCols := 0
	for _, row := range rows {
		if len(row) > numCols {
			numCols = len(row)
		}
	}

	out := &InferenceOutput{Tags: s.Sequence}
	for r, row := range rows {
		for c, tag := range row {
			if !cellTags[tag] {
				continue
			}
			cx := (float64(c) + 0.5) / float64(numCols)
			cy := (float64(r) + 0.5) / float64(numRows)
			out.BBoxes = append(out.BBoxes, [4]float64{cx, cy, 1.0 / float64(numCols), 1.0 / float64(numRows)})
			out.ClassLogits = append(out.ClassLogits, [3]float64{0.9, 0.05, 0.05})
		}
	}
	return out, nil
}
