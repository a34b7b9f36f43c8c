package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAffineTransformApplyCompose(t *testing.T) {
	tr := Translation(10, -5).Compose(Scaling(2, 2))

	got := tr.Apply(NewPoint2D(3, 4))
	assert.InDelta(t, 16, got.X, 1e-9)
	assert.InDelta(t, 3, got.Y, 1e-9)
}

func TestAffineTransformInverseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tr   AffineTransform
	}{
		{"no-op translation", Translation(0, 0)},
		{"translation", Translation(123.5, -77)},
		{"zoom and pan", Translation(40, 60).Compose(Scaling(2.5, 2.5))},
		{"shear", AffineTransform{A: 1, B: 0.4, C: 0.1, D: 1, TX: 5, TY: 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, ok := tt.tr.Inverse()
			require.True(t, ok)

			p := NewPoint2D(17.25, -4.5)
			back := inv.Apply(tt.tr.Apply(p))
			assert.InDelta(t, p.X, back.X, 1e-9)
			assert.InDelta(t, p.Y, back.Y, 1e-9)
		})
	}
}

func TestAffineTransformInverseSingular(t *testing.T) {
	_, ok := Scaling(0, 1).Inverse()
	assert.False(t, ok)
}

func TestPointInPolygon(t *testing.T) {
	square := []Point2D{{0, 0}, {10, 0}, {10, 10}, {0, 10}}

	assert.True(t, PointInPolygon(NewPoint2D(5, 5), square))
	assert.False(t, PointInPolygon(NewPoint2D(15, 5), square))
	assert.False(t, PointInPolygon(NewPoint2D(-1, -1), square))
}

func TestIsSimple(t *testing.T) {
	square := []Point2D{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	bowtie := []Point2D{{0, 0}, {10, 10}, {10, 0}, {0, 10}}

	assert.True(t, IsSimple(square))
	assert.False(t, IsSimple(bowtie))
}

func TestBoundingRect(t *testing.T) {
	r := BoundingRect([]Point2D{{3, 7}, {-2, 4}, {8, -1}})
	assert.Equal(t, NewRect(-2, -1, 10, 8), r)

	assert.Equal(t, Rect{}, BoundingRect(nil))
}

func TestRectCenter(t *testing.T) {
	assert.Equal(t, NewPoint2D(5, 10), NewRect(0, 0, 10, 20).Center())
	assert.Equal(t, NewPoint2D(-1, 3), NewRect(-4, 1, 6, 4).Center())
}
