package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-annotator/pkg/geometry"
)

func populate(t *testing.T, s *Scene) {
	t.Helper()
	bg, err := DecodeBackground(encodePNG(t, 60, 40), 0, 0)
	require.NoError(t, err)
	s.SetBackground(bg)
	s.Add(NewArrow(geometry.NewPoint2D(5, 5), geometry.NewPoint2D(50, 30), ArrowStyle{Thickness: 6, Fill: "#ff3b30"}))
	s.Add(NewMarker(geometry.NewPoint2D(20, 20), "1", "#007aff"))
}

func TestSerializeRoundTripIsStable(t *testing.T) {
	s := newScene(t)
	populate(t, s)

	first, err := s.Serialize()
	require.NoError(t, err)

	other := newScene(t)
	require.NoError(t, other.Restore(first))

	second, err := other.Serialize()
	require.NoError(t, err)
	assert.Equal(t, first, second, "serialization must be idempotent across a round trip")

	require.Len(t, other.Objects(), 2)
	assert.Equal(t, KindArrow, other.Objects()[0].Kind)
	assert.Equal(t, geometry.NewPoint2D(50, 30), other.Objects()[0].Arrow.Tip)
	require.NotNil(t, other.Background())
	assert.Equal(t, 60, other.Background().Image().Bounds().Dx())
}

func TestSerializeIsDeterministic(t *testing.T) {
	s := newScene(t)
	populate(t, s)

	a, err := s.Serialize()
	require.NoError(t, err)
	b, err := s.Serialize()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRestoreClearsSelectionAndPreviews(t *testing.T) {
	s := newScene(t)
	populate(t, s)
	snap, err := s.Serialize()
	require.NoError(t, err)

	s.Select(s.Objects()[0])
	preview := NewArrow(geometry.NewPoint2D(0, 0), geometry.NewPoint2D(100, 0), ArrowStyle{Thickness: 6, Fill: "#ff3b30"})
	preview.Preview = true
	s.Add(preview)

	require.NoError(t, s.Restore(snap))
	assert.Empty(t, s.Selected())
	assert.Len(t, s.Objects(), 2, "preview replaced along with the rest of the live scene")
}

func TestRestoreContinuesIDSequence(t *testing.T) {
	s := newScene(t)
	s.Add(NewMarker(geometry.NewPoint2D(1, 1), "a", "#007aff"))
	snap, err := s.Serialize()
	require.NoError(t, err)

	other := newScene(t)
	require.NoError(t, other.Restore(snap))
	next := NewMarker(geometry.NewPoint2D(2, 2), "b", "#007aff")
	other.Add(next)
	assert.Equal(t, "obj-2", next.ID, "restored scenes must not reuse IDs")
}

func TestRestoreCorruptSnapshotLeavesSceneUntouched(t *testing.T) {
	s := newScene(t)
	populate(t, s)

	tests := []struct {
		name string
		snap []byte
	}{
		{"not json", []byte("garbage")},
		{"wrong version", []byte(`{"version":99,"objects":[]}`)},
		{"null object", []byte(`{"version":1,"objects":[null]}`)},
		{"kind without payload", []byte(`{"version":1,"objects":[{"id":"obj-1","kind":"arrow"}]}`)},
		{"unknown kind", []byte(`{"version":1,"objects":[{"id":"obj-1","kind":"blob"}]}`)},
		{"bad background", []byte(`{"version":1,"background":{"data":"aGk=","fit":1},"objects":[]}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Restore(tt.snap)
			require.Error(t, err)
			assert.Len(t, s.Objects(), 2)
			assert.NotNil(t, s.Background())
		})
	}
}

func TestRestoreEmitsRestored(t *testing.T) {
	s := newScene(t)
	snap, err := s.Serialize()
	require.NoError(t, err)

	var got []EventType
	s.OnChange(func(ev Event) { got = append(got, ev.Type) })

	require.NoError(t, s.Restore(snap))
	assert.Equal(t, []EventType{EventRestored}, got)
}
