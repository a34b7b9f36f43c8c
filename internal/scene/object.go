// Package scene holds the drawable object set: the background image, labeled
// markers, and directional arrows. It serializes the whole set to opaque
// snapshots for the history stack and rasterizes it for display and export.
package scene

import (
	"image-annotator/pkg/geometry"
)

// Kind identifies the type of a drawable object.
type Kind string

const (
	KindArrow  Kind = "arrow"
	KindMarker Kind = "marker"
)

// MarkerRadius is the disc radius of a marker in scene units.
const MarkerRadius = 14.0

// ArrowStyle is the stroke thickness and fill color an arrow was drawn with.
// It is frozen at gesture start; later style changes never alter placed arrows.
type ArrowStyle struct {
	Thickness float64 `json:"thickness"`
	Fill      string  `json:"fill"`
}

// ArrowData is the geometry and style of a placed arrow. The 7-point outline
// is derived from tail/tip/thickness on demand rather than stored.
type ArrowData struct {
	Tail  geometry.Point2D `json:"tail"`
	Tip   geometry.Point2D `json:"tip"`
	Style ArrowStyle       `json:"style"`
}

// MarkerData is a labeled marker pinned to a scene point.
type MarkerData struct {
	At    geometry.Point2D `json:"at"`
	Label string           `json:"label"`
	Color string           `json:"color"`
}

// Object is a single drawable. Exactly one of Arrow or Marker is set,
// matching Kind.
type Object struct {
	ID     string      `json:"id"`
	Kind   Kind        `json:"kind"`
	Arrow  *ArrowData  `json:"arrow,omitempty"`
	Marker *MarkerData `json:"marker,omitempty"`

	// Runtime-only state, never serialized.
	Selectable bool `json:"-"`
	Preview    bool `json:"-"`
}

// NewArrow creates a selectable arrow object.
func NewArrow(tail, tip geometry.Point2D, style ArrowStyle) *Object {
	return &Object{
		Kind:       KindArrow,
		Arrow:      &ArrowData{Tail: tail, Tip: tip, Style: style},
		Selectable: true,
	}
}

// NewMarker creates a selectable marker object.
func NewMarker(at geometry.Point2D, label, color string) *Object {
	return &Object{
		Kind:       KindMarker,
		Marker:     &MarkerData{At: at, Label: label, Color: color},
		Selectable: true,
	}
}

// Outline returns the arrow's polygon outline, or nil for non-arrows and
// arrows too short to render.
func (o *Object) Outline() []geometry.Point2D {
	if o.Arrow == nil {
		return nil
	}
	return geometry.ArrowOutline(o.Arrow.Tail, o.Arrow.Tip, o.Arrow.Style.Thickness)
}

// Bounds returns the object's axis-aligned bounding box in scene space.
func (o *Object) Bounds() geometry.Rect {
	switch {
	case o.Arrow != nil:
		if outline := o.Outline(); outline != nil {
			return geometry.BoundingRect(outline)
		}
		return geometry.BoundingRect([]geometry.Point2D{o.Arrow.Tail, o.Arrow.Tip})
	case o.Marker != nil:
		at := o.Marker.At
		return geometry.NewRect(at.X-MarkerRadius, at.Y-MarkerRadius, 2*MarkerRadius, 2*MarkerRadius)
	default:
		return geometry.Rect{}
	}
}

// HitBy reports whether a scene-space point lands on the object.
func (o *Object) HitBy(p geometry.Point2D) bool {
	switch {
	case o.Arrow != nil:
		return geometry.PointInPolygon(p, o.Outline())
	case o.Marker != nil:
		return o.Marker.At.Distance(p) <= MarkerRadius
	default:
		return false
	}
}

// Translate moves the object by a scene-space delta.
func (o *Object) Translate(d geometry.Point2D) {
	switch {
	case o.Arrow != nil:
		o.Arrow.Tail = o.Arrow.Tail.Add(d)
		o.Arrow.Tip = o.Arrow.Tip.Add(d)
	case o.Marker != nil:
		o.Marker.At = o.Marker.At.Add(d)
	}
}
