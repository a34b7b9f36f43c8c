package engine

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-annotator/internal/history"
	"image-annotator/internal/scene"
	"image-annotator/internal/viewport"
	"image-annotator/pkg/geometry"
)

func newEngine(t *testing.T) (*Engine, *scene.Scene, *history.Stack, *viewport.Viewport) {
	t.Helper()

	sc := scene.New(zerolog.Nop())
	base, err := sc.Serialize()
	require.NoError(t, err)

	hist := history.New(base, zerolog.Nop())
	view := viewport.New()
	return New(sc, view, hist, zerolog.Nop()), sc, hist, view
}

func pt(x, y float64) geometry.Point2D {
	return geometry.Point2D{X: x, Y: y}
}

// drag simulates a primary-button press, an intermediate move, and a release.
func drag(e *Engine, from, to geometry.Point2D) {
	e.PointerDown(PointerEvent{Pos: from, Button: ButtonPrimary})
	mid := from.Add(to.Sub(from).Scale(0.5))
	e.PointerMove(mid)
	e.PointerUp(to)
}

func TestDrawArrowGesture(t *testing.T) {
	eng, sc, hist, _ := newEngine(t)
	eng.SetMode(ModeDrawArrow)

	drag(eng, pt(100, 100), pt(200, 100))

	require.Len(t, sc.Objects(), 1)
	obj := sc.Objects()[0]
	assert.Equal(t, scene.KindArrow, obj.Kind)
	assert.False(t, obj.Preview)
	assert.Equal(t, pt(100, 100), obj.Arrow.Tail)
	assert.Equal(t, pt(200, 100), obj.Arrow.Tip)
	assert.Equal(t, DefaultThickness, obj.Arrow.Style.Thickness)
	assert.Len(t, obj.Outline(), 7)

	// Exactly one commit for the whole gesture.
	assert.Equal(t, 2, hist.Len())
}

func TestShortDragProducesNothing(t *testing.T) {
	eng, sc, hist, _ := newEngine(t)
	eng.SetMode(ModeDrawArrow)

	drag(eng, pt(50, 50), pt(51, 50))

	assert.Empty(t, sc.Objects())
	assert.Equal(t, 1, hist.Len())
	assert.Equal(t, ModeDrawArrow, eng.Mode())
}

func TestClickWithoutMoveProducesNothing(t *testing.T) {
	eng, sc, hist, _ := newEngine(t)
	eng.SetMode(ModeDrawArrow)

	eng.PointerDown(PointerEvent{Pos: pt(10, 10), Button: ButtonPrimary})
	eng.PointerUp(pt(10, 10))

	assert.Empty(t, sc.Objects())
	assert.Equal(t, 1, hist.Len())
}

func TestPreviewReplacedNotAccumulated(t *testing.T) {
	eng, sc, _, _ := newEngine(t)
	eng.SetMode(ModeDrawArrow)

	eng.PointerDown(PointerEvent{Pos: pt(0, 0), Button: ButtonPrimary})
	for x := 30.0; x <= 300; x += 7 {
		eng.PointerMove(pt(x, 0))
		require.Len(t, sc.Objects(), 1)
		assert.True(t, sc.Objects()[0].Preview)
	}
	eng.PointerUp(pt(300, 0))

	require.Len(t, sc.Objects(), 1)
	assert.False(t, sc.Objects()[0].Preview)
}

func TestEscapeCancelsDrawingGesture(t *testing.T) {
	eng, sc, hist, _ := newEngine(t)
	eng.SetMode(ModeDrawArrow)

	eng.PointerDown(PointerEvent{Pos: pt(0, 0), Button: ButtonPrimary})
	eng.PointerMove(pt(150, 0))
	require.Len(t, sc.Objects(), 1)

	eng.Escape()

	assert.Empty(t, sc.Objects())
	assert.Equal(t, 1, hist.Len())
	assert.Equal(t, ModeDrawArrow, eng.Mode(), "cancel must not change the tool")

	// The release of the cancelled gesture is inert.
	eng.PointerUp(pt(150, 0))
	assert.Empty(t, sc.Objects())
	assert.Equal(t, 1, hist.Len())
}

func TestEscapeIdleForcesSelectMode(t *testing.T) {
	eng, _, _, _ := newEngine(t)
	eng.SetMode(ModeDrawArrow)

	eng.Escape()

	assert.Equal(t, ModeSelect, eng.Mode())
}

func TestStyleFrozenAtGestureStart(t *testing.T) {
	eng, sc, _, _ := newEngine(t)
	eng.SetMode(ModeDrawArrow)
	eng.SetThickness(10)
	eng.SetColor("#34c759")

	eng.PointerDown(PointerEvent{Pos: pt(0, 0), Button: ButtonPrimary})
	eng.SetThickness(20)
	eng.SetColor("#007aff")
	eng.PointerMove(pt(200, 0))
	eng.PointerUp(pt(200, 0))

	require.Len(t, sc.Objects(), 1)
	style := sc.Objects()[0].Arrow.Style
	assert.Equal(t, 10.0, style.Thickness)
	assert.Equal(t, "#34c759", style.Fill)
}

func TestThicknessClamped(t *testing.T) {
	eng, _, _, _ := newEngine(t)

	eng.SetThickness(0.5)
	assert.Equal(t, MinThickness, eng.Style().Thickness)

	eng.SetThickness(100)
	assert.Equal(t, MaxThickness, eng.Style().Thickness)

	eng.SetThickness(12)
	assert.Equal(t, 12.0, eng.Style().Thickness)
}

func TestColorRejectsMalformedHex(t *testing.T) {
	eng, _, _, _ := newEngine(t)
	before := eng.Style().Fill

	eng.SetColor("red")
	assert.Equal(t, before, eng.Style().Fill)

	eng.SetColor("#00ff00")
	assert.Equal(t, "#00ff00", eng.Style().Fill)
}

func TestPanPreemptsDrawing(t *testing.T) {
	tests := []struct {
		name string
		ev   PointerEvent
	}{
		{"alt drag", PointerEvent{Pos: pt(10, 10), Button: ButtonPrimary, Alt: true}},
		{"middle drag", PointerEvent{Pos: pt(10, 10), Button: ButtonMiddle}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, sc, hist, view := newEngine(t)
			eng.SetMode(ModeDrawArrow)

			eng.PointerDown(tt.ev)
			eng.PointerMove(pt(30, 25))
			eng.PointerUp(pt(35, 40))

			assert.Equal(t, pt(25, 30), view.Offset())
			assert.Empty(t, sc.Objects())
			assert.Equal(t, 1, hist.Len())
		})
	}
}

func TestWheelZoomsAroundAnchor(t *testing.T) {
	eng, _, _, view := newEngine(t)

	anchor := pt(320, 240)
	before := view.ScreenToScene(anchor)
	eng.Wheel(anchor, -500)

	assert.Greater(t, view.Zoom(), 1.0)
	after := view.ScreenToScene(anchor)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
}

func TestSelectAndMoveObject(t *testing.T) {
	eng, sc, hist, _ := newEngine(t)

	obj := scene.NewArrow(pt(0, 0), pt(100, 0), scene.ArrowStyle{Thickness: 10, Fill: "#ff3b30"})
	sc.Add(obj)
	eng.CommitScene()
	require.Equal(t, 2, hist.Len())

	// Press on the shaft, drag by (10, 10).
	eng.PointerDown(PointerEvent{Pos: pt(50, 0), Button: ButtonPrimary})
	assert.True(t, sc.IsSelected(obj))
	eng.PointerMove(pt(55, 5))
	eng.PointerUp(pt(60, 10))

	assert.Equal(t, pt(10, 10), obj.Arrow.Tail)
	assert.Equal(t, pt(110, 10), obj.Arrow.Tip)
	assert.Equal(t, 3, hist.Len(), "one commit per move gesture")
	assert.True(t, sc.IsSelected(obj), "moving keeps the selection")
}

func TestClickEmptySpaceClearsSelection(t *testing.T) {
	eng, sc, hist, _ := newEngine(t)

	obj := scene.NewArrow(pt(0, 0), pt(100, 0), scene.ArrowStyle{Thickness: 10, Fill: "#ff3b30"})
	sc.Add(obj)
	eng.CommitScene()
	sc.Select(obj)

	eng.PointerDown(PointerEvent{Pos: pt(500, 500), Button: ButtonPrimary})
	eng.PointerUp(pt(500, 500))

	assert.False(t, sc.IsSelected(obj))
	assert.Equal(t, 2, hist.Len(), "selection changes are not history events")
}

func TestClickWithoutDragDoesNotCommit(t *testing.T) {
	eng, sc, hist, _ := newEngine(t)

	obj := scene.NewArrow(pt(0, 0), pt(100, 0), scene.ArrowStyle{Thickness: 10, Fill: "#ff3b30"})
	sc.Add(obj)
	eng.CommitScene()
	require.Equal(t, 2, hist.Len())

	eng.PointerDown(PointerEvent{Pos: pt(50, 0), Button: ButtonPrimary})
	eng.PointerUp(pt(50, 0))

	assert.Equal(t, pt(0, 0), obj.Arrow.Tail)
	assert.Equal(t, 2, hist.Len())
}

func TestDeleteSelectionBatch(t *testing.T) {
	eng, sc, hist, _ := newEngine(t)

	a := scene.NewArrow(pt(0, 0), pt(100, 0), scene.ArrowStyle{Thickness: 6, Fill: "#ff3b30"})
	b := scene.NewArrow(pt(0, 50), pt(100, 50), scene.ArrowStyle{Thickness: 6, Fill: "#ff3b30"})
	sc.Add(a)
	sc.Add(b)
	eng.CommitScene()
	sc.Select(a)
	sc.Select(b)
	require.Equal(t, 2, hist.Len())

	eng.DeleteSelection()

	assert.Empty(t, sc.Objects())
	assert.Equal(t, 3, hist.Len(), "batch delete commits once")

	// Nothing selected: a second delete is a no-op.
	eng.DeleteSelection()
	assert.Equal(t, 3, hist.Len())
}

func TestUndoRestoresPreviousState(t *testing.T) {
	eng, sc, _, _ := newEngine(t)
	eng.SetMode(ModeDrawArrow)

	drag(eng, pt(0, 0), pt(100, 0))
	drag(eng, pt(0, 50), pt(100, 50))
	require.Len(t, sc.Objects(), 2)

	require.NoError(t, eng.Undo())
	assert.Len(t, sc.Objects(), 1)

	require.NoError(t, eng.Undo())
	assert.Empty(t, sc.Objects())

	// Bottom of the stack: further undo changes nothing.
	assert.False(t, eng.CanUndo())
	require.NoError(t, eng.Undo())
	assert.Empty(t, sc.Objects())
}

func TestUndoDroppedMidGesture(t *testing.T) {
	eng, sc, hist, _ := newEngine(t)
	eng.SetMode(ModeDrawArrow)
	drag(eng, pt(0, 0), pt(100, 0))
	require.Equal(t, 2, hist.Len())

	eng.PointerDown(PointerEvent{Pos: pt(0, 50), Button: ButtonPrimary})
	eng.PointerMove(pt(100, 50))

	require.NoError(t, eng.Undo())

	assert.Equal(t, 2, hist.Len(), "undo mid-gesture is dropped")
	assert.Len(t, sc.Objects(), 2, "placed arrow and live preview both intact")

	eng.PointerUp(pt(100, 50))
	assert.Equal(t, 3, hist.Len())
}

func TestUndoKeepsDrawModeLock(t *testing.T) {
	eng, sc, _, _ := newEngine(t)
	eng.SetMode(ModeDrawArrow)
	drag(eng, pt(0, 0), pt(100, 0))
	drag(eng, pt(0, 50), pt(100, 50))

	require.NoError(t, eng.Undo())

	// Restore marks everything selectable; draw mode must re-lock it.
	assert.Nil(t, sc.HitTest(pt(50, 0)))

	eng.SetMode(ModeSelect)
	assert.NotNil(t, sc.HitTest(pt(50, 0)))
}

func TestEnterDrawModeLocksObjects(t *testing.T) {
	eng, sc, _, _ := newEngine(t)

	obj := scene.NewArrow(pt(0, 0), pt(100, 0), scene.ArrowStyle{Thickness: 10, Fill: "#ff3b30"})
	sc.Add(obj)
	sc.Select(obj)

	eng.SetMode(ModeDrawArrow)

	assert.Empty(t, sc.Selected())
	assert.Nil(t, sc.HitTest(pt(50, 0)))

	eng.SetMode(ModeSelect)
	assert.NotNil(t, sc.HitTest(pt(50, 0)))
}

func TestArrowPlacedWhileDrawingStaysLocked(t *testing.T) {
	eng, sc, _, _ := newEngine(t)
	eng.SetMode(ModeDrawArrow)

	drag(eng, pt(0, 0), pt(100, 0))

	require.Len(t, sc.Objects(), 1)
	assert.Nil(t, sc.HitTest(pt(50, 0)))

	eng.SetMode(ModeSelect)
	assert.NotNil(t, sc.HitTest(pt(50, 0)))
}

func TestSecondButtonIgnoredMidGesture(t *testing.T) {
	eng, sc, hist, view := newEngine(t)
	eng.SetMode(ModeDrawArrow)

	eng.PointerDown(PointerEvent{Pos: pt(0, 0), Button: ButtonPrimary})
	eng.PointerDown(PointerEvent{Pos: pt(10, 10), Button: ButtonMiddle})
	eng.PointerMove(pt(100, 0))
	eng.PointerUp(pt(100, 0))

	assert.Equal(t, pt(0, 0), view.Offset(), "pan must not hijack the drawing gesture")
	require.Len(t, sc.Objects(), 1)
	assert.Equal(t, pt(100, 0), sc.Objects()[0].Arrow.Tip)
	assert.Equal(t, 2, hist.Len())
}

func TestSecondaryClickIsInert(t *testing.T) {
	eng, sc, hist, _ := newEngine(t)

	obj := scene.NewArrow(pt(0, 0), pt(100, 0), scene.ArrowStyle{Thickness: 10, Fill: "#ff3b30"})
	sc.Add(obj)
	eng.CommitScene()

	eng.PointerDown(PointerEvent{Pos: pt(50, 0), Button: ButtonSecondary})
	eng.PointerMove(pt(80, 30))
	eng.PointerUp(pt(80, 30))

	assert.False(t, sc.IsSelected(obj))
	assert.Equal(t, pt(0, 0), obj.Arrow.Tail)
	assert.Equal(t, 2, hist.Len())
}

func TestDrawingUnderPanAndZoomUsesSceneCoordinates(t *testing.T) {
	eng, sc, _, view := newEngine(t)
	view.Pan(40, -20)
	view.SetZoom(pt(0, 0), 2)
	eng.SetMode(ModeDrawArrow)

	from, to := pt(100, 100), pt(300, 100)
	drag(eng, from, to)

	require.Len(t, sc.Objects(), 1)
	arrow := sc.Objects()[0].Arrow
	wantTail := view.ScreenToScene(from)
	wantTip := view.ScreenToScene(to)
	assert.InDelta(t, wantTail.X, arrow.Tail.X, 1e-9)
	assert.InDelta(t, wantTail.Y, arrow.Tail.Y, 1e-9)
	assert.InDelta(t, wantTip.X, arrow.Tip.X, 1e-9)
	assert.InDelta(t, wantTip.Y, arrow.Tip.Y, 1e-9)
}

func TestRefreshRequestedOnVisualChange(t *testing.T) {
	eng, _, _, _ := newEngine(t)
	var calls int
	eng.SetRefresh(func() { calls++ })

	eng.SetMode(ModeDrawArrow)
	drag(eng, pt(0, 0), pt(100, 0))

	assert.Greater(t, calls, 0)
}
