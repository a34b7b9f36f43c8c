// Package engine implements the tool-mode state machine that arbitrates
// pointer and keyboard input between panning, object selection, and freehand
// arrow drawing. It is the single owned, synchronously-updated interaction
// state: every event is dispatched against the current mode, never against
// state captured at handler registration.
package engine

import (
	"github.com/rs/zerolog"

	"image-annotator/internal/history"
	"image-annotator/internal/scene"
	"image-annotator/internal/viewport"
	"image-annotator/pkg/colorutil"
	"image-annotator/pkg/geometry"
)

// Mode is the active tool.
type Mode int

const (
	ModeSelect Mode = iota
	ModeDrawArrow
)

func (m Mode) String() string {
	switch m {
	case ModeDrawArrow:
		return "draw arrow"
	default:
		return "select"
	}
}

// Button identifies which pointer button an event carries.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
	ButtonMiddle
)

// PointerEvent is a backend-neutral pointer press in screen coordinates.
type PointerEvent struct {
	Pos    geometry.Point2D
	Button Button
	Alt    bool
}

// Arrow thickness bounds (pixels).
const (
	MinThickness     = 2.0
	MaxThickness     = 30.0
	DefaultThickness = 6.0
)

// gestureKind is the transient sub-state while a pointer button is held.
type gestureKind int

const (
	gestureIdle gestureKind = iota
	gesturePan
	gestureDraw
	gestureMove
)

// Scene is the canvas adapter the engine drives.
type Scene interface {
	Add(*scene.Object)
	Remove(*scene.Object)
	Promote(*scene.Object)
	NotifyModified(*scene.Object)
	HitTest(geometry.Point2D) *scene.Object
	Select(*scene.Object)
	ClearSelection()
	Selected() []*scene.Object
	SetAllSelectable(bool)
	Serialize() ([]byte, error)
	Restore([]byte) error
}

// Engine consumes input events and drives the scene, viewport, and history.
// Not safe for concurrent use; all events arrive on the UI thread.
type Engine struct {
	scene Scene
	view  *viewport.Viewport
	hist  *history.Stack
	log   zerolog.Logger

	mode  Mode
	style scene.ArrowStyle

	// Transient gesture state, valid only between pointer-down and -up.
	gesture    gestureKind
	drawStart  geometry.Point2D // scene space
	lastScreen geometry.Point2D
	frozen     scene.ArrowStyle
	preview    *scene.Object
	moveTarget *scene.Object
	moved      bool

	refresh func()
}

// New creates an engine in Select mode with the default arrow style.
func New(sc Scene, view *viewport.Viewport, hist *history.Stack, log zerolog.Logger) *Engine {
	return &Engine{
		scene: sc,
		view:  view,
		hist:  hist,
		log:   log,
		style: scene.ArrowStyle{Thickness: DefaultThickness, Fill: colorutil.Palette[0]},
	}
}

// SetRefresh registers the repaint hook invoked after visual state changes.
func (e *Engine) SetRefresh(fn func()) {
	e.refresh = fn
}

func (e *Engine) requestRefresh() {
	if e.refresh != nil {
		e.refresh()
	}
}

// Mode returns the active tool mode.
func (e *Engine) Mode() Mode {
	return e.mode
}

// SetMode switches the active tool. An in-progress drawing gesture is
// cancelled; switching modes never starts one. Entering DrawArrow locks all
// objects against accidental drags, leaving it restores interactivity.
func (e *Engine) SetMode(m Mode) {
	if m == e.mode {
		return
	}
	e.abortGesture()

	e.mode = m
	switch m {
	case ModeDrawArrow:
		e.scene.ClearSelection()
		e.scene.SetAllSelectable(false)
	default:
		e.scene.SetAllSelectable(true)
	}
	e.log.Debug().Stringer("mode", m).Msg("engine: tool mode changed")
	e.requestRefresh()
}

// Style returns the current arrow style configuration.
func (e *Engine) Style() scene.ArrowStyle {
	return e.style
}

// SetThickness updates the configured stroke thickness, clamped to
// [MinThickness, MaxThickness]. An in-progress gesture keeps the style it was
// started with.
func (e *Engine) SetThickness(t float64) {
	if t < MinThickness {
		t = MinThickness
	}
	if t > MaxThickness {
		t = MaxThickness
	}
	e.style.Thickness = t
}

// SetColor updates the configured fill color. Malformed hex strings are
// ignored.
func (e *Engine) SetColor(hex string) {
	if _, err := colorutil.ParseHex(hex); err != nil {
		e.log.Warn().Err(err).Msg("engine: rejected color")
		return
	}
	e.style.Fill = hex
}

// PointerDown starts a gesture. Alt+drag or the middle button always pans,
// pre-empting the active tool; otherwise the primary button either starts an
// arrow drag (DrawArrow) or picks an object to select and move (Select).
func (e *Engine) PointerDown(ev PointerEvent) {
	if e.gesture != gestureIdle {
		// A second button pressed mid-gesture is ignored.
		return
	}

	if ev.Alt || ev.Button == ButtonMiddle {
		e.gesture = gesturePan
		e.lastScreen = ev.Pos
		return
	}
	if ev.Button != ButtonPrimary {
		return
	}

	switch e.mode {
	case ModeDrawArrow:
		e.gesture = gestureDraw
		e.drawStart = e.view.ScreenToScene(ev.Pos)
		e.frozen = e.style

	case ModeSelect:
		p := e.view.ScreenToScene(ev.Pos)
		if obj := e.scene.HitTest(p); obj != nil {
			e.scene.ClearSelection()
			e.scene.Select(obj)
			e.gesture = gestureMove
			e.moveTarget = obj
			e.lastScreen = ev.Pos
			e.moved = false
		} else {
			e.scene.ClearSelection()
		}
		e.requestRefresh()
	}
}

// PointerMove advances the active gesture with a new screen position.
// High-frequency moves are cheap: panning is incremental, and the arrow
// preview is replaced rather than accumulated, so the scene carries at most
// one transient extra object.
func (e *Engine) PointerMove(pos geometry.Point2D) {
	switch e.gesture {
	case gesturePan:
		d := pos.Sub(e.lastScreen)
		e.view.Pan(d.X, d.Y)
		e.lastScreen = pos
		e.requestRefresh()

	case gestureDraw:
		cur := e.view.ScreenToScene(pos)
		if e.preview != nil {
			e.scene.Remove(e.preview)
			e.preview = nil
		}
		if geometry.ArrowOutline(e.drawStart, cur, e.frozen.Thickness) != nil {
			e.preview = scene.NewArrow(e.drawStart, cur, e.frozen)
			e.preview.Preview = true
			e.preview.Selectable = false
			e.scene.Add(e.preview)
		}
		e.requestRefresh()

	case gestureMove:
		d := e.view.ScreenToScene(pos).Sub(e.view.ScreenToScene(e.lastScreen))
		if d.X != 0 || d.Y != 0 {
			e.moveTarget.Translate(d)
			e.moved = true
		}
		e.lastScreen = pos
		e.requestRefresh()
	}
}

// PointerUp completes the active gesture. Finishing an arrow drag promotes
// the preview to a permanent object and commits exactly once for the whole
// gesture; a drag too short to produce a preview ends silently.
func (e *Engine) PointerUp(pos geometry.Point2D) {
	e.PointerMove(pos)

	switch e.gesture {
	case gestureDraw:
		if e.preview != nil {
			arrow := e.preview
			e.preview = nil
			e.scene.Promote(arrow)
			// Still drawing: the fresh arrow is as locked as everything else.
			arrow.Selectable = false
			e.CommitScene()
			e.log.Debug().Str("id", arrow.ID).Msg("engine: arrow placed")
		}

	case gestureMove:
		if e.moved {
			e.scene.NotifyModified(e.moveTarget)
			e.CommitScene()
		}
		e.moveTarget = nil
	}

	e.gesture = gestureIdle
	e.requestRefresh()
}

// Escape cancels an in-progress gesture without committing or changing the
// tool mode. With no gesture active it forces the tool back to Select.
func (e *Engine) Escape() {
	if e.gesture != gestureIdle {
		e.abortGesture()
		e.requestRefresh()
		return
	}
	e.SetMode(ModeSelect)
}

// DeleteSelection removes every selected object in one batch, followed by a
// single history commit. A no-op when nothing is selected.
func (e *Engine) DeleteSelection() {
	sel := e.scene.Selected()
	if len(sel) == 0 {
		return
	}
	for _, o := range sel {
		e.scene.Remove(o)
	}
	e.CommitScene()
	e.log.Debug().Int("count", len(sel)).Msg("engine: selection deleted")
	e.requestRefresh()
}

// Wheel zooms the viewport around the cursor anchor.
func (e *Engine) Wheel(anchor geometry.Point2D, rawDelta float64) {
	e.view.ZoomAt(anchor, rawDelta)
	e.requestRefresh()
}

// Undo materializes the previous snapshot into the live scene. A request
// arriving mid-gesture is dropped rather than interleaved; undoing past the
// initial state is a no-op. A corrupt snapshot aborts the undo and leaves
// both the stack and the live scene unchanged.
func (e *Engine) Undo() error {
	if e.gesture != gestureIdle {
		return nil
	}

	applied, err := e.hist.Undo(func(snap history.Snapshot) error {
		return e.scene.Restore(snap)
	})
	if err != nil {
		return err
	}
	if applied {
		// Restore resets interactivity; re-apply the current mode's rules.
		if e.mode == ModeDrawArrow {
			e.scene.SetAllSelectable(false)
		}
		e.requestRefresh()
	}
	return nil
}

// CanUndo reports whether an undo would change anything.
func (e *Engine) CanUndo() bool {
	return e.hist.CanUndo()
}

// CommitScene serializes the live scene and pushes it onto the history stack.
// Identical consecutive states and commits issued during undo materialization
// are dropped by the stack itself.
func (e *Engine) CommitScene() {
	snap, err := e.scene.Serialize()
	if err != nil {
		e.log.Error().Err(err).Msg("engine: snapshot failed, state not committed")
		return
	}
	if e.hist.Commit(snap) {
		// The undo affordance depends on stack depth; let the UI resync.
		e.requestRefresh()
	}
}

// abortGesture drops all transient gesture state, removing any preview.
func (e *Engine) abortGesture() {
	if e.preview != nil {
		e.scene.Remove(e.preview)
		e.preview = nil
	}
	e.gesture = gestureIdle
	e.moveTarget = nil
	e.moved = false
}
