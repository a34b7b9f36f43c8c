// Package panels provides UI panels for the application.
package panels

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"image-annotator/internal/app"
	"image-annotator/internal/engine"
	"image-annotator/pkg/colorutil"
	"image-annotator/ui/canvas"
	"image-annotator/ui/prefs"
)

const (
	prefKeyThickness = "arrowThickness"
	prefKeyColor     = "arrowColor"
)

// ToolPanel holds the tool switcher and the arrow style controls. Style
// changes apply to the next arrow drawn; arrows already placed keep theirs.
type ToolPanel struct {
	state  *app.State
	canvas *canvas.AnnotationCanvas
	prefs  *prefs.Prefs

	root *fyne.Container

	selectBtn   *widget.Button
	drawBtn     *widget.Button
	thickness   *widget.Slider
	thickLabel  *widget.Label
	colorSelect *widget.Select
	markerEntry *widget.Entry
}

// NewToolPanel creates the tool panel and applies the persisted style.
func NewToolPanel(state *app.State, cv *canvas.AnnotationCanvas, p *prefs.Prefs) *ToolPanel {
	tp := &ToolPanel{
		state:  state,
		canvas: cv,
		prefs:  p,
	}

	tp.selectBtn = widget.NewButton("Select", func() {
		tp.state.Engine.SetMode(engine.ModeSelect)
		tp.SyncMode()
	})
	tp.drawBtn = widget.NewButton("Draw Arrow", func() {
		tp.state.Engine.SetMode(engine.ModeDrawArrow)
		tp.SyncMode()
	})

	tp.thickLabel = widget.NewLabel("")
	tp.thickness = widget.NewSlider(engine.MinThickness, engine.MaxThickness)
	tp.thickness.Step = 1
	tp.thickness.OnChanged = func(v float64) {
		tp.state.Engine.SetThickness(v)
		tp.prefs.SetFloat(prefKeyThickness, v)
		tp.thickLabel.SetText(fmt.Sprintf("Thickness: %.0f px", v))
	}

	tp.colorSelect = widget.NewSelect(colorutil.Palette, func(hex string) {
		tp.state.Engine.SetColor(hex)
		tp.prefs.SetString(prefKeyColor, hex)
	})

	tp.markerEntry = widget.NewEntry()
	tp.markerEntry.SetPlaceHolder("Marker label")
	addMarkerBtn := widget.NewButton("Add Marker", tp.onAddMarker)

	tp.root = container.NewVBox(
		widget.NewLabel("Tool"),
		container.NewGridWithColumns(2, tp.selectBtn, tp.drawBtn),
		widget.NewSeparator(),
		tp.thickLabel,
		tp.thickness,
		widget.NewLabel("Color"),
		tp.colorSelect,
		widget.NewSeparator(),
		tp.markerEntry,
		addMarkerBtn,
	)

	tp.restoreStyle()
	tp.SyncMode()
	return tp
}

// Container returns the panel's root container.
func (tp *ToolPanel) Container() fyne.CanvasObject {
	return tp.root
}

// SyncMode highlights the button of the active tool. Called after anything
// that can change the mode outside this panel, such as Escape.
func (tp *ToolPanel) SyncMode() {
	if tp.state.Engine.Mode() == engine.ModeDrawArrow {
		tp.drawBtn.Importance = widget.HighImportance
		tp.selectBtn.Importance = widget.MediumImportance
	} else {
		tp.selectBtn.Importance = widget.HighImportance
		tp.drawBtn.Importance = widget.MediumImportance
	}
	tp.drawBtn.Refresh()
	tp.selectBtn.Refresh()
}

// restoreStyle pushes the persisted thickness and color into the engine and
// the controls.
func (tp *ToolPanel) restoreStyle() {
	thickness := tp.prefs.FloatWithFallback(prefKeyThickness, engine.DefaultThickness)
	tp.thickness.SetValue(thickness)
	tp.state.Engine.SetThickness(thickness)
	tp.thickLabel.SetText(fmt.Sprintf("Thickness: %.0f px", thickness))

	hex := tp.prefs.String(prefKeyColor)
	if _, err := colorutil.ParseHex(hex); err != nil {
		hex = colorutil.Palette[0]
	}
	tp.colorSelect.SetSelected(hex)
	tp.state.Engine.SetColor(hex)
}

// onAddMarker drops a labeled marker at the center of the current view.
func (tp *ToolPanel) onAddMarker() {
	center := tp.state.View.ScreenToScene(tp.canvas.Center())
	tp.state.AddMarker(center, tp.markerEntry.Text, tp.colorSelect.Selected)
	tp.markerEntry.SetText("")
	tp.canvas.Refresh()
}
