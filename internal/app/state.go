// Package app provides application lifecycle management, document
// persistence, and events.
package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"image-annotator/internal/engine"
	"image-annotator/internal/history"
	"image-annotator/internal/scene"
	"image-annotator/internal/viewport"
	"image-annotator/pkg/colorutil"
	"image-annotator/pkg/geometry"
)

// ExportScale is the oversampling factor applied to exported PNGs.
const ExportScale = 2.0

// EventType identifies application-level events.
type EventType int

const (
	EventDocumentLoaded EventType = iota
	EventDocumentSaved
	EventImageLoaded
	EventExported
	EventModified
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// State wires the scene, viewport, history, and interaction engine together
// and owns document-level operations (open, save, export, image import).
//
// The mutex guards only the listener registry and the document metadata;
// Scene, View, Hist, and Engine are single-threaded UI-side objects.
type State struct {
	mu sync.RWMutex

	DocumentPath string
	Modified     bool

	Scene  *scene.Scene
	View   *viewport.Viewport
	Hist   *history.Stack
	Engine *engine.Engine

	listeners map[EventType][]EventListener
	log       zerolog.Logger
}

// NewState creates an application state with an empty scene.
func NewState(log zerolog.Logger) (*State, error) {
	sc := scene.New(log)
	base, err := sc.Serialize()
	if err != nil {
		return nil, fmt.Errorf("seed history: %w", err)
	}

	s := &State{
		Scene:     sc,
		View:      viewport.New(),
		Hist:      history.New(base, log),
		listeners: make(map[EventType][]EventListener),
		log:       log,
	}
	s.Engine = engine.New(sc, s.View, s.Hist, log)

	// Any scene mutation outside a pointer gesture (marker insertion, image
	// replacement) still has to land in history. Gesture-end commits from the
	// engine overlap with these; the stack's duplicate check makes that safe.
	// Removals are not committed here: the engine batches selection deletes
	// into a single commit, and nothing else removes objects.
	sc.OnChange(func(ev scene.Event) {
		switch ev.Type {
		case scene.EventObjectAdded, scene.EventObjectModified,
			scene.EventBackgroundChanged:
			s.Engine.CommitScene()
			s.SetModified(true)
		case scene.EventObjectRemoved, scene.EventRestored:
			s.SetModified(true)
		}
	})

	return s, nil
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the document as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	changed := s.Modified != modified
	s.Modified = modified
	s.mu.Unlock()
	if changed {
		s.Emit(EventModified, modified)
	}
}

// AddMarker places a labeled marker at a scene point. Falls back to the
// default palette color when hex is malformed.
func (s *State) AddMarker(at geometry.Point2D, label, hex string) *scene.Object {
	if _, err := colorutil.ParseHex(hex); err != nil {
		s.log.Warn().Str("color", hex).Msg("app: bad marker color, using default")
		hex = colorutil.Palette[0]
	}
	m := scene.NewMarker(at, label, hex)
	s.Scene.Add(m)
	return m
}

// DecodeImage reads and decodes an encoded image file, fit to maxW x maxH
// scene units. It touches nothing but the filesystem, so large files can be
// decoded off the UI loop; hand the result to ApplyBackground on the UI
// thread.
func (s *State) DecodeImage(path string, maxW, maxH float64) (*scene.Background, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}
	bg, err := scene.DecodeBackground(data, maxW, maxH)
	if err != nil {
		return nil, fmt.Errorf("load image %s: %w", path, err)
	}
	return bg, nil
}

// ApplyBackground installs a decoded background into the scene. Must run on
// the UI thread: it mutates the scene and, via the change listener, commits
// to history.
func (s *State) ApplyBackground(bg *scene.Background, path string) {
	s.Scene.SetBackground(bg)
	s.Emit(EventImageLoaded, path)
}

// LoadImage is the synchronous form of DecodeImage + ApplyBackground.
func (s *State) LoadImage(path string, maxW, maxH float64) error {
	bg, err := s.DecodeImage(path, maxW, maxH)
	if err != nil {
		return err
	}
	s.ApplyBackground(bg, path)
	return nil
}

// SaveDocument writes the scene to a JSON document at path.
func (s *State) SaveDocument(path string) error {
	snap, err := s.Scene.Serialize()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, snap, "", "  "); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return err
	}

	s.mu.Lock()
	s.DocumentPath = path
	s.Modified = false
	s.mu.Unlock()

	s.log.Info().Str("path", path).Msg("app: document saved")
	s.Emit(EventDocumentSaved, path)
	return nil
}

// LoadDocument replaces the scene with the document at path and re-baselines
// the undo history. On failure the current scene is left untouched.
func (s *State) LoadDocument(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document %s: %w", path, err)
	}
	if err := s.Scene.Restore(data); err != nil {
		return fmt.Errorf("load document %s: %w", path, err)
	}

	// The freshly loaded state is the new undo floor.
	base, err := s.Scene.Serialize()
	if err != nil {
		return err
	}
	s.Hist.Reset(base)
	s.View.Reset()

	s.mu.Lock()
	s.DocumentPath = path
	s.Modified = false
	s.mu.Unlock()

	s.log.Info().Str("path", path).Msg("app: document loaded")
	s.Emit(EventDocumentLoaded, path)
	return nil
}

// Export rasterizes the scene at ExportScale and writes a timestamped PNG
// into dir, returning the written path. Selection markers never appear in
// the output.
func (s *State) Export(dir string) (string, error) {
	s.Scene.ClearSelection()

	img, err := s.Scene.Rasterize(ExportScale)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("annotation-%s.png", time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", err
	}

	s.log.Info().Str("path", path).Msg("app: exported PNG")
	s.Emit(EventExported, path)
	return path, nil
}
