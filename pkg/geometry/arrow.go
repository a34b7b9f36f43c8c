package geometry

// Arrowhead proportions relative to the shaft thickness.
const (
	arrowHeadLengthFactor = 3.5
	arrowHeadWidthFactor  = 3.0
)

// ArrowHeadLength returns the length of the arrowhead for a given shaft
// thickness. Drags shorter than this cannot render a head.
func ArrowHeadLength(thickness float64) float64 {
	return arrowHeadLengthFactor * thickness
}

// ArrowOutline converts a tail/tip pair and a shaft thickness into the closed
// outline of a directional arrow. The result is exactly 7 vertices in order:
// tail-left, shoulder-inner-left, shoulder-outer-left, tip,
// shoulder-outer-right, shoulder-inner-right, tail-right.
//
// Returns nil when the distance between tail and tip is shorter than the
// arrowhead; callers must suppress drawing instead of rendering a degenerate
// shape.
func ArrowOutline(tail, tip Point2D, thickness float64) []Point2D {
	if thickness <= 0 {
		return nil
	}

	length := tail.Distance(tip)
	headLen := ArrowHeadLength(thickness)
	if length < headLen {
		return nil
	}

	dir := tip.Sub(tail).Scale(1 / length)
	normal := Point2D{X: -dir.Y, Y: dir.X}

	shaftHalf := thickness / 2
	headHalf := arrowHeadWidthFactor * thickness / 2

	// Where the shaft meets the arrowhead.
	base := tip.Sub(dir.Scale(headLen))

	return []Point2D{
		tail.Add(normal.Scale(shaftHalf)),
		base.Add(normal.Scale(shaftHalf)),
		base.Add(normal.Scale(headHalf)),
		tip,
		base.Sub(normal.Scale(headHalf)),
		base.Sub(normal.Scale(shaftHalf)),
		tail.Sub(normal.Scale(shaftHalf)),
	}
}
