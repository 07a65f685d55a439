package docmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBBoxIsDegenerateForZeroOrNegativeArea(t *testing.T) {
	assert.True(t, BBox{L: 10, R: 10, T: 0, B: 20}.IsDegenerate())
	assert.True(t, BBox{L: 10, R: 5, T: 0, B: 20}.IsDegenerate())
	assert.False(t, BBox{L: 0, R: 10, T: 0, B: 20}.IsDegenerate())
}

func TestBBoxOverlapsHorizontally(t *testing.T) {
	a := BBox{L: 0, R: 100}
	b := BBox{L: 50, R: 150}
	c := BBox{L: 200, R: 300}
	assert.True(t, a.OverlapsHorizontally(b))
	assert.False(t, a.OverlapsHorizontally(c))
}

func TestBBoxToOriginRoundTrips(t *testing.T) {
	topLeft := BBox{L: 10, T: 20, R: 110, B: 70, Origin: OriginTopLeft}
	pageHeight := 792.0

	bottomLeft := topLeft.ToOrigin(OriginBottomLeft, pageHeight)
	assert.Equal(t, OriginBottomLeft, bottomLeft.Origin)

	back := bottomLeft.ToOrigin(OriginTopLeft, pageHeight)
	assert.Equal(t, topLeft.L, back.L)
	assert.Equal(t, topLeft.R, back.R)
	assert.InDelta(t, topLeft.T, back.T, 1e-9)
	assert.InDelta(t, topLeft.B, back.B, 1e-9)
}

func TestBBoxToOriginNoOpWhenAlreadyTarget(t *testing.T) {
	b := BBox{L: 1, T: 2, R: 3, B: 4, Origin: OriginTopLeft}
	same := b.ToOrigin(OriginTopLeft, 792)
	assert.Equal(t, b, same)
}

func TestBBoxHeightRespectsOrigin(t *testing.T) {
	topLeft := BBox{T: 10, B: 30, Origin: OriginTopLeft}
	assert.Equal(t, 20.0, topLeft.Height())

	bottomLeft := BBox{T: 30, B: 10, Origin: OriginBottomLeft}
	assert.Equal(t, 20.0, bottomLeft.Height())
}
