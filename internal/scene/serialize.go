package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
)

// documentVersion is bumped when the snapshot shape changes.
const documentVersion = 1

// document is the serialized form of the whole scene. Field order and the
// slice-backed object list keep serialization deterministic, so identical
// scenes always produce byte-identical snapshots.
type document struct {
	Version    int            `json:"version"`
	NextID     int            `json:"next_id"`
	Background *backgroundDoc `json:"background,omitempty"`
	Objects    []*Object      `json:"objects"`
}

type backgroundDoc struct {
	// Data is the original encoded image (PNG, JPEG, ...), base64-wrapped by
	// encoding/json.
	Data []byte  `json:"data"`
	Fit  float64 `json:"fit"`
}

// Serialize captures the full scene as an opaque snapshot. Preview objects
// are transient gesture state and are excluded, so a snapshot never contains
// a half-built object.
func (s *Scene) Serialize() ([]byte, error) {
	doc := document{
		Version: documentVersion,
		NextID:  s.nextID,
		Objects: make([]*Object, 0, len(s.objects)),
	}
	for _, o := range s.objects {
		if !o.Preview {
			doc.Objects = append(doc.Objects, o)
		}
	}
	if s.background != nil {
		doc.Background = &backgroundDoc{Data: s.background.data, Fit: s.background.fit}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize scene: %w", err)
	}
	return data, nil
}

// Restore replaces the live scene with the given snapshot. On error the scene
// is left untouched. The selection is cleared; every restored object is
// selectable until a tool mode says otherwise.
func (s *Scene) Restore(snapshot []byte) error {
	var doc document
	if err := json.Unmarshal(snapshot, &doc); err != nil {
		return fmt.Errorf("restore scene: %w", err)
	}
	if doc.Version != documentVersion {
		return fmt.Errorf("restore scene: unsupported snapshot version %d", doc.Version)
	}
	for i, o := range doc.Objects {
		if o == nil {
			return fmt.Errorf("restore scene: null object at index %d", i)
		}
		switch o.Kind {
		case KindArrow:
			if o.Arrow == nil {
				return fmt.Errorf("restore scene: object %s has no arrow payload", o.ID)
			}
		case KindMarker:
			if o.Marker == nil {
				return fmt.Errorf("restore scene: object %s has no marker payload", o.ID)
			}
		default:
			return fmt.Errorf("restore scene: object %s has unknown kind %q", o.ID, o.Kind)
		}
	}

	var bg *Background
	if doc.Background != nil {
		// Reuse the decoded image when the bytes are unchanged; undo rarely
		// swaps the background.
		if s.background != nil && bytes.Equal(s.background.data, doc.Background.Data) {
			bg = &Background{img: s.background.img, data: doc.Background.Data, fit: doc.Background.Fit, format: s.background.format}
		} else {
			img, format, err := image.Decode(bytes.NewReader(doc.Background.Data))
			if err != nil {
				return fmt.Errorf("restore scene: %w", err)
			}
			bg = &Background{img: img, data: doc.Background.Data, fit: doc.Background.Fit, format: format}
		}
	}

	s.objects = doc.Objects
	for _, o := range s.objects {
		o.Selectable = true
		o.Preview = false
	}
	s.background = bg
	s.selected = make(map[string]struct{})
	if doc.NextID > 0 {
		s.nextID = doc.NextID
	}

	s.emit(Event{Type: EventRestored})
	return nil
}
