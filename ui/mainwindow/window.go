// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"image-annotator/internal/app"
	"image-annotator/internal/version"
	"image-annotator/ui/canvas"
	"image-annotator/ui/panels"
	"image-annotator/ui/prefs"
)

const (
	prefKeyLastDir = "lastDirectory"

	// menuZoomDelta is the raw zoom delta applied per Zoom In/Out action,
	// roughly a 1.25x step.
	menuZoomDelta = 225.0
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	prefs     *prefs.Prefs
	canvas    *canvas.AnnotationCanvas
	toolPanel *panels.ToolPanel
	statusBar *widget.Label
	mainMenu  *fyne.MainMenu
	undoItem  *fyne.MenuItem
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("Image Annotator")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupShortcuts()
	mw.setupEventHandlers()

	win.SetCloseIntercept(func() {
		if err := mw.prefs.Save(); err != nil {
			fmt.Println("Failed to save preferences:", err)
		}
		mw.app.Quit()
	})

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.New(mw.state)
	mw.toolPanel = panels.NewToolPanel(mw.state, mw.canvas, mw.prefs)
	mw.statusBar = widget.NewLabel("Ready")

	// The canvas wires the engine's repaint hook to itself; rewire it so the
	// Undo menu entry tracks every history change too.
	mw.state.Engine.SetRefresh(func() {
		mw.canvas.Refresh()
		mw.syncUndoItem()
	})

	split := container.NewHSplit(
		mw.toolPanel.Container(),
		mw.canvas,
	)
	split.SetOffset(0.2)

	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		split,                             // center
	)

	mw.SetContent(content)
	mw.Resize(fyne.NewSize(1100, 750))
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Document...", mw.onOpenDocument),
		fyne.NewMenuItem("Import Image...", mw.onImportImage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Document", mw.onSaveDocument),
		fyne.NewMenuItem("Save Document As...", mw.onSaveDocumentAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export PNG...", mw.onExportPNG),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	mw.undoItem = fyne.NewMenuItem("Undo", mw.onUndo)
	editMenu := fyne.NewMenu("Edit",
		mw.undoItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Delete Selection", mw.onDeleteSelection),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", func() { mw.onZoom(-menuZoomDelta) }),
		fyne.NewMenuItem("Zoom Out", func() { mw.onZoom(menuZoomDelta) }),
		fyne.NewMenuItem("Reset View", mw.onResetView),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.mainMenu = fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu)
	mw.SetMainMenu(mw.mainMenu)
	mw.syncUndoItem()
}

// syncUndoItem enables the Undo menu entry only while the history has
// something above its floor.
func (mw *MainWindow) syncUndoItem() {
	if mw.undoItem == nil {
		return
	}
	disabled := !mw.state.Engine.CanUndo()
	if mw.undoItem.Disabled != disabled {
		mw.undoItem.Disabled = disabled
		mw.mainMenu.Refresh()
	}
}

// setupShortcuts binds keyboard input: Escape cancels or returns to Select,
// Delete removes the selection, Ctrl/Cmd+Z undoes.
func (mw *MainWindow) setupShortcuts() {
	mw.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyEscape:
			mw.state.Engine.Escape()
			mw.toolPanel.SyncMode()
		case fyne.KeyDelete, fyne.KeyBackspace:
			mw.onDeleteSelection()
		}
	})

	undoShortcut := &desktop.CustomShortcut{
		KeyName:  fyne.KeyZ,
		Modifier: fyne.KeyModifierShortcutDefault,
	}
	mw.Canvas().AddShortcut(undoShortcut, func(fyne.Shortcut) {
		mw.onUndo()
	})
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventDocumentLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle("Image Annotator - " + filepath.Base(path))
			mw.updateStatus("Document loaded: " + path)
		}
		mw.canvas.Refresh()
		mw.syncUndoItem()
	})

	mw.state.On(app.EventDocumentSaved, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle("Image Annotator - " + filepath.Base(path))
			mw.updateStatus("Document saved: " + path)
		}
	})

	mw.state.On(app.EventImageLoaded, func(data interface{}) {
		mw.canvas.Refresh()
		mw.updateStatus("Image loaded")
	})

	mw.state.On(app.EventExported, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.updateStatus("Exported: " + path)
		}
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		if modified, ok := data.(bool); ok && modified {
			title := mw.Title()
			if len(title) > 0 && title[len(title)-1] != '*' {
				mw.SetTitle(title + " *")
			}
		}
	})
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefKeyLastDir, filepath.Dir(filePath))
}

// Menu action handlers

func (mw *MainWindow) onOpenDocument() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.state.LoadDocument(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onImportImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)

		size := mw.canvas.Size()
		maxW, maxH := float64(size.Width), float64(size.Height)
		if maxW < 1 || maxH < 1 {
			maxW, maxH = 800, 600
		}

		mw.updateStatus("Loading " + filepath.Base(path) + "...")
		// Decoding a large image stalls the UI loop, so it runs off-thread.
		// The scene and history are single-threaded; only the decode leaves
		// the UI loop, and the result is handed back for the actual swap.
		go func() {
			bg, err := mw.state.DecodeImage(path, maxW, maxH)
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(err, mw.Window)
					mw.updateStatus("Ready")
					return
				}
				mw.state.ApplyBackground(bg, path)
			})
		}()
	}, mw.Window)

	fd.SetFilter(storage.NewExtensionFileFilter(imageExtensions))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveDocument() {
	if mw.state.DocumentPath == "" {
		mw.onSaveDocumentAs()
		return
	}
	if err := mw.state.SaveDocument(mw.state.DocumentPath); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onSaveDocumentAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".json" {
			path += ".json"
		}
		mw.saveLastDir(path)
		if err := mw.state.SaveDocument(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFileName("annotations.json")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onExportPNG() {
	fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		dir := uri.Path()
		mw.saveLastDir(dir)
		if _, err := mw.state.Export(dir); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.canvas.Refresh()
	}, mw.Window)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onUndo() {
	if !mw.state.Engine.CanUndo() {
		mw.updateStatus("Nothing to undo")
		return
	}
	if err := mw.state.Engine.Undo(); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.canvas.Refresh()
}

func (mw *MainWindow) onDeleteSelection() {
	mw.state.Engine.DeleteSelection()
	mw.canvas.Refresh()
}

func (mw *MainWindow) onZoom(rawDelta float64) {
	mw.state.Engine.Wheel(mw.canvas.Center(), rawDelta)
	mw.canvas.Refresh()
}

func (mw *MainWindow) onResetView() {
	mw.state.View.Reset()
	mw.canvas.Refresh()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Image Annotator",
		fmt.Sprintf("Image Annotator v%s\n\n"+
			"Annotate images with arrows and labeled markers.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
