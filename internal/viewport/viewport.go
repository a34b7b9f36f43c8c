// Package viewport owns the pan/zoom view transform between screen space and
// scene space.
package viewport

import (
	"math"

	"image-annotator/pkg/geometry"
)

const (
	// MinZoom and MaxZoom bound the zoom scalar; requests outside the range
	// saturate at the bound.
	MinZoom = 0.1
	MaxZoom = 20.0

	// zoomBase maps a raw wheel delta to a zoom factor: zoom *= zoomBase^delta.
	zoomBase = 0.999
)

// Viewport holds the current pan offset (screen pixels) and uniform zoom.
// It is not safe for concurrent use; all access happens on the UI thread.
type Viewport struct {
	zoom   float64
	offset geometry.Point2D
}

// New returns a viewport at zoom 1 with no pan offset.
func New() *Viewport {
	return &Viewport{zoom: 1}
}

// Zoom returns the current zoom scalar.
func (v *Viewport) Zoom() float64 {
	return v.zoom
}

// Offset returns the current pan offset in screen pixels.
func (v *Viewport) Offset() geometry.Point2D {
	return v.offset
}

// Transform returns the scene-to-screen affine transform.
func (v *Viewport) Transform() geometry.AffineTransform {
	return geometry.Translation(v.offset.X, v.offset.Y).
		Compose(geometry.Scaling(v.zoom, v.zoom))
}

// ScreenToScene converts a screen point to scene coordinates.
func (v *Viewport) ScreenToScene(p geometry.Point2D) geometry.Point2D {
	inv, ok := v.Transform().Inverse()
	if !ok {
		// zoom is clamped above zero, so the transform is always invertible;
		// fall back to the identity rather than panic.
		return p
	}
	return inv.Apply(p)
}

// SceneToScreen converts a scene point to screen coordinates.
func (v *Viewport) SceneToScreen(p geometry.Point2D) geometry.Point2D {
	return v.Transform().Apply(p)
}

// Pan shifts the view by a screen-space delta. Never fails.
func (v *Viewport) Pan(dx, dy float64) {
	v.offset.X += dx
	v.offset.Y += dy
}

// ZoomAt applies a wheel delta, scaling the zoom by zoomBase^rawDelta clamped
// to [MinZoom, MaxZoom]. The scene point under the screen anchor stays fixed:
// the pan offset is recomputed alongside the zoom change.
func (v *Viewport) ZoomAt(anchor geometry.Point2D, rawDelta float64) {
	next := clampZoom(v.zoom * math.Pow(zoomBase, rawDelta))
	factor := next / v.zoom

	v.offset = anchor.Sub(anchor.Sub(v.offset).Scale(factor))
	v.zoom = next
}

// SetZoom sets the zoom directly (clamped), keeping the given screen anchor
// fixed. Used by explicit zoom controls.
func (v *Viewport) SetZoom(anchor geometry.Point2D, zoom float64) {
	next := clampZoom(zoom)
	factor := next / v.zoom

	v.offset = anchor.Sub(anchor.Sub(v.offset).Scale(factor))
	v.zoom = next
}

// Reset restores zoom 1 and a zero pan offset.
func (v *Viewport) Reset() {
	v.zoom = 1
	v.offset = geometry.Point2D{}
}

func clampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}
