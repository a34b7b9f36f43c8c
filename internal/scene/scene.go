package scene

import (
	"bytes"
	"fmt"
	"image"

	// Decoders for the background image formats accepted by the loader.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/rs/zerolog"

	"image-annotator/pkg/geometry"
)

// EventType identifies scene change events.
type EventType int

const (
	EventObjectAdded EventType = iota
	EventObjectModified
	EventObjectRemoved
	EventBackgroundChanged
	EventSelectionChanged
	EventRestored
)

// Event describes a single scene mutation. Object is nil for events that do
// not concern one object.
type Event struct {
	Type   EventType
	Object *Object
}

// Listener receives scene events.
type Listener func(Event)

// Background is the locked, non-interactive image layer under all objects.
// The original encoded bytes are kept so snapshots embed the image without
// re-encoding it on every serialization.
type Background struct {
	img    image.Image
	data   []byte
	fit    float64
	format string
}

// Image returns the decoded background image.
func (b *Background) Image() image.Image { return b.img }

// Fit returns the display scale applied when the image was inserted.
func (b *Background) Fit() float64 { return b.fit }

// Scene owns the ordered object list, the selection set, and the background.
// It is not safe for concurrent use; all access happens on the UI thread.
type Scene struct {
	objects    []*Object
	selected   map[string]struct{}
	background *Background
	nextID     int
	listeners  []Listener
	log        zerolog.Logger
}

// New creates an empty scene.
func New(log zerolog.Logger) *Scene {
	return &Scene{
		selected: make(map[string]struct{}),
		nextID:   1,
		log:      log,
	}
}

// OnChange registers a listener for scene events.
func (s *Scene) OnChange(fn Listener) {
	s.listeners = append(s.listeners, fn)
}

func (s *Scene) emit(ev Event) {
	for _, fn := range s.listeners {
		fn(ev)
	}
}

// Objects returns the object list in z-order, bottom first.
func (s *Scene) Objects() []*Object {
	return s.objects
}

// Background returns the current background layer, or nil.
func (s *Scene) Background() *Background {
	return s.background
}

// Add inserts an object on top of the stack, assigning an ID if it has none.
// Preview objects are inserted silently: they are transient and must not
// reach listeners or snapshots.
func (s *Scene) Add(obj *Object) {
	if obj.ID == "" {
		obj.ID = fmt.Sprintf("obj-%d", s.nextID)
		s.nextID++
	}
	s.objects = append(s.objects, obj)
	if !obj.Preview {
		s.emit(Event{Type: EventObjectAdded, Object: obj})
	}
}

// Remove deletes an object from the scene and the selection.
func (s *Scene) Remove(obj *Object) {
	for i, o := range s.objects {
		if o == obj {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			delete(s.selected, obj.ID)
			if !obj.Preview {
				s.emit(Event{Type: EventObjectRemoved, Object: obj})
			}
			return
		}
	}
}

// Promote turns a preview object into a permanent, selectable one and
// announces it. The caller still owns committing the result to history.
func (s *Scene) Promote(obj *Object) {
	obj.Preview = false
	obj.Selectable = true
	s.emit(Event{Type: EventObjectAdded, Object: obj})
}

// NotifyModified announces that a direct manipulation of an object finished.
func (s *Scene) NotifyModified(obj *Object) {
	s.emit(Event{Type: EventObjectModified, Object: obj})
}

// HitTest returns the topmost selectable object under a scene point, or nil.
// Preview objects are never hit.
func (s *Scene) HitTest(p geometry.Point2D) *Object {
	for i := len(s.objects) - 1; i >= 0; i-- {
		o := s.objects[i]
		if o.Preview || !o.Selectable {
			continue
		}
		if o.HitBy(p) {
			return o
		}
	}
	return nil
}

// Select adds an object to the selection set.
func (s *Scene) Select(obj *Object) {
	if _, ok := s.selected[obj.ID]; ok {
		return
	}
	s.selected[obj.ID] = struct{}{}
	s.emit(Event{Type: EventSelectionChanged})
}

// ClearSelection empties the selection set.
func (s *Scene) ClearSelection() {
	if len(s.selected) == 0 {
		return
	}
	s.selected = make(map[string]struct{})
	s.emit(Event{Type: EventSelectionChanged})
}

// IsSelected reports whether the object is in the selection set.
func (s *Scene) IsSelected(obj *Object) bool {
	_, ok := s.selected[obj.ID]
	return ok
}

// Selected returns the selected objects in z-order.
func (s *Scene) Selected() []*Object {
	var out []*Object
	for _, o := range s.objects {
		if _, ok := s.selected[o.ID]; ok {
			out = append(out, o)
		}
	}
	return out
}

// SetAllSelectable toggles interactivity of every permanent object. Drawing
// modes disable it so drag gestures cannot move objects by accident.
func (s *Scene) SetAllSelectable(selectable bool) {
	for _, o := range s.objects {
		if !o.Preview {
			o.Selectable = selectable
		}
	}
}

// DecodeBackground decodes encoded image bytes into a background layer,
// scaled down to fit within maxW x maxH scene units (never scaled up). It
// touches no scene state: the expensive decode can run off the UI thread and
// the result handed to SetBackground on it.
func DecodeBackground(data []byte, maxW, maxH float64) (*Background, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode background image: %w", err)
	}

	fit := 1.0
	b := img.Bounds()
	if maxW > 0 && maxH > 0 && b.Dx() > 0 && b.Dy() > 0 {
		sx := maxW / float64(b.Dx())
		sy := maxH / float64(b.Dy())
		if sx < fit {
			fit = sx
		}
		if sy < fit {
			fit = sy
		}
	}

	return &Background{img: img, data: data, fit: fit, format: format}, nil
}

// SetBackground installs a decoded background layer, replacing any previous
// one in a single step.
func (s *Scene) SetBackground(b *Background) {
	s.background = b
	bounds := b.img.Bounds()
	s.log.Info().Str("format", b.format).
		Int("width", bounds.Dx()).Int("height", bounds.Dy()).
		Float64("fit", b.fit).
		Msg("scene: background replaced")
	s.emit(Event{Type: EventBackgroundChanged})
}

// contentBounds returns the scene-space rectangle covering the background and
// every permanent object, for export sizing.
func (s *Scene) contentBounds() geometry.Rect {
	var bounds geometry.Rect
	have := false

	if s.background != nil {
		b := s.background.img.Bounds()
		bounds = geometry.NewRect(0, 0,
			float64(b.Dx())*s.background.fit,
			float64(b.Dy())*s.background.fit)
		have = true
	}

	for _, o := range s.objects {
		if o.Preview {
			continue
		}
		if !have {
			bounds = o.Bounds()
			have = true
		} else {
			bounds = bounds.Union(o.Bounds())
		}
	}

	if !have {
		return geometry.NewRect(0, 0, 1, 1)
	}
	return bounds
}
