// Package canvas provides the annotation surface widget: it paints the scene
// through the viewport transform and forwards pointer input to the
// interaction engine.
package canvas

import (
	"image"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"image-annotator/internal/app"
	"image-annotator/internal/engine"
	"image-annotator/pkg/geometry"
)

// wheelStep scales one wheel unit into the engine's raw zoom delta.
const wheelStep = 4.0

// AnnotationCanvas displays the scene and routes mouse input to the engine.
// All widget coordinates are passed through as the engine's screen space.
type AnnotationCanvas struct {
	widget.BaseWidget

	state  *app.State
	raster *fynecanvas.Raster

	// True between MouseDown and MouseUp. Drag positions arrive through
	// Dragged; hover moves are irrelevant to the engine.
	pressed bool
}

var (
	_ fyne.Widget        = (*AnnotationCanvas)(nil)
	_ fyne.Draggable     = (*AnnotationCanvas)(nil)
	_ fyne.Scrollable    = (*AnnotationCanvas)(nil)
	_ desktop.Mouseable  = (*AnnotationCanvas)(nil)
	_ desktop.Cursorable = (*AnnotationCanvas)(nil)
)

// New creates the annotation canvas and hooks the engine's repaint requests
// to widget refreshes.
func New(state *app.State) *AnnotationCanvas {
	c := &AnnotationCanvas{state: state}
	c.raster = fynecanvas.NewRaster(c.draw)
	c.ExtendBaseWidget(c)

	state.Engine.SetRefresh(c.Refresh)
	return c
}

func (c *AnnotationCanvas) draw(w, h int) image.Image {
	return c.state.Scene.Render(w, h, c.state.View.Zoom(), c.state.View.Offset())
}

// CreateRenderer implements fyne.Widget.
func (c *AnnotationCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(c.raster)
}

// MinSize implements fyne.Widget.
func (c *AnnotationCanvas) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Center returns the widget's midpoint in screen coordinates.
func (c *AnnotationCanvas) Center() geometry.Point2D {
	size := c.Size()
	return geometry.NewRect(0, 0, float64(size.Width), float64(size.Height)).Center()
}

// Cursor shows a crosshair while the drawing tool is active.
func (c *AnnotationCanvas) Cursor() desktop.Cursor {
	if c.state.Engine.Mode() == engine.ModeDrawArrow {
		return desktop.CrosshairCursor
	}
	return desktop.DefaultCursor
}

// MouseDown implements desktop.Mouseable.
func (c *AnnotationCanvas) MouseDown(ev *desktop.MouseEvent) {
	c.pressed = true
	c.state.Engine.PointerDown(engine.PointerEvent{
		Pos:    toPoint(ev.Position),
		Button: toButton(ev.Button),
		Alt:    ev.Modifier&fyne.KeyModifierAlt != 0,
	})
}

// MouseUp implements desktop.Mouseable.
func (c *AnnotationCanvas) MouseUp(ev *desktop.MouseEvent) {
	c.pressed = false
	c.state.Engine.PointerUp(toPoint(ev.Position))
}

// Dragged implements fyne.Draggable. Positions are widget-relative, matching
// the press position the gesture started with.
func (c *AnnotationCanvas) Dragged(ev *fyne.DragEvent) {
	if !c.pressed {
		return
	}
	c.state.Engine.PointerMove(toPoint(ev.Position))
}

// DragEnd implements fyne.Draggable. Gesture completion is driven by MouseUp,
// which carries the release position.
func (c *AnnotationCanvas) DragEnd() {}

// Scrolled zooms around the cursor. Wheel-up zooms in.
func (c *AnnotationCanvas) Scrolled(ev *fyne.ScrollEvent) {
	c.state.Engine.Wheel(toPoint(ev.Position), -float64(ev.Scrolled.DY)*wheelStep)
}

func toPoint(p fyne.Position) geometry.Point2D {
	return geometry.Point2D{X: float64(p.X), Y: float64(p.Y)}
}

func toButton(b desktop.MouseButton) engine.Button {
	switch b {
	case desktop.MouseButtonSecondary:
		return engine.ButtonSecondary
	case desktop.MouseButtonTertiary:
		return engine.ButtonMiddle
	default:
		return engine.ButtonPrimary
	}
}
