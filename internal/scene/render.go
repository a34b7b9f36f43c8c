package scene

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"image-annotator/pkg/colorutil"
	"image-annotator/pkg/geometry"
)

const previewOpacity = 0.45

var (
	canvasBackdrop = color.RGBA{R: 0x2e, G: 0x2e, B: 0x2e, A: 255}
	selectionColor = color.RGBA{R: 0x00, G: 0xb3, B: 0xff, A: 255}
	labelColor     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	fallbackFill   = color.RGBA{R: 255, G: 59, B: 48, A: 255}
)

// Render draws the scene into a w x h image under the given view transform.
// Preview objects and selection highlights are included; this is the
// interactive canvas path.
func (s *Scene) Render(w, h int, zoom float64, offset geometry.Point2D) image.Image {
	dc := gg.NewContext(w, h)
	dc.SetColor(canvasBackdrop)
	dc.Clear()

	s.renderTo(dc, zoom, offset, true)
	return dc.Image()
}

// Rasterize flattens the permanent scene content to an image at the given
// pixel density. Previews and selection highlights are excluded; callers
// exporting should clear the selection first so handles never leak into the
// artifact.
func (s *Scene) Rasterize(scale float64) (image.Image, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("rasterize: scale must be positive, got %v", scale)
	}

	bounds := s.contentBounds()
	w := int(math.Ceil(bounds.Width * scale))
	h := int(math.Ceil(bounds.Height * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()

	offset := geometry.NewPoint2D(-bounds.X*scale, -bounds.Y*scale)
	s.renderTo(dc, scale, offset, false)
	return dc.Image(), nil
}

func (s *Scene) renderTo(dc *gg.Context, zoom float64, offset geometry.Point2D, interactive bool) {
	dc.Push()
	dc.Translate(offset.X, offset.Y)
	dc.Scale(zoom, zoom)

	if s.background != nil {
		dc.Push()
		dc.Scale(s.background.fit, s.background.fit)
		dc.DrawImage(s.background.img, 0, 0)
		dc.Pop()
	}

	for _, o := range s.objects {
		if o.Preview && !interactive {
			continue
		}
		s.drawObject(dc, o, interactive)
	}

	dc.Pop()
}

func (s *Scene) drawObject(dc *gg.Context, o *Object, interactive bool) {
	switch {
	case o.Arrow != nil:
		s.drawArrow(dc, o, interactive)
	case o.Marker != nil:
		s.drawMarker(dc, o, interactive)
	}
}

func (s *Scene) drawArrow(dc *gg.Context, o *Object, interactive bool) {
	outline := o.Outline()
	if outline == nil {
		return
	}

	fill := colorutil.ParseHexOr(o.Arrow.Style.Fill, fallbackFill)
	if o.Preview {
		fill = colorutil.WithAlpha(fill, previewOpacity)
	}

	dc.NewSubPath()
	dc.MoveTo(outline[0].X, outline[0].Y)
	for _, p := range outline[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.ClosePath()
	dc.SetColor(fill)
	dc.FillPreserve()

	if interactive && s.IsSelected(o) {
		dc.SetColor(selectionColor)
		dc.SetLineWidth(2)
		dc.Stroke()
	} else {
		dc.ClearPath()
	}
}

func (s *Scene) drawMarker(dc *gg.Context, o *Object, interactive bool) {
	m := o.Marker
	fill := colorutil.ParseHexOr(m.Color, fallbackFill)
	if o.Preview {
		fill = colorutil.WithAlpha(fill, previewOpacity)
	}

	dc.DrawCircle(m.At.X, m.At.Y, MarkerRadius)
	dc.SetColor(fill)
	dc.FillPreserve()

	if interactive && s.IsSelected(o) {
		dc.SetColor(selectionColor)
		dc.SetLineWidth(2)
		dc.Stroke()
	} else {
		dc.ClearPath()
	}

	if m.Label != "" {
		dc.SetFontFace(basicfont.Face7x13)
		dc.SetColor(labelColor)
		dc.DrawStringAnchored(m.Label, m.At.X, m.At.Y, 0.5, 0.35)
	}
}
