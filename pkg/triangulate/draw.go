package triangulate

import (
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"
)

// Draw renders t as a PNG of size x size pixels to w: edges in grey,
// boundary edges in black, vertices as red dots. It is a debugging aid.
func Draw(t *Triangulation, w io.Writer, size int) error {
	if size <= 0 {
		return errors.Errorf("triangulate: draw size must be positive, got %d", size)
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, v := range t.verts {
		minX, maxX = math.Min(minX, v.Pos.X), math.Max(maxX, v.Pos.X)
		minY, maxY = math.Min(minY, v.Pos.Y), math.Max(maxY, v.Pos.Y)
	}
	margin := 0.05 * float64(size)
	scale := (float64(size) - 2*margin) / math.Max(maxX-minX, maxY-minY)
	// Image y grows downwards.
	px := func(v int) (float64, float64) {
		p := t.pos(v)
		return margin + (p.X-minX)*scale, float64(size) - margin - (p.Y-minY)*scale
	}

	dc := gg.NewContext(size, size)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetLineWidth(1)

	for _, e := range t.Edges() {
		x1, y1 := px(e.A)
		x2, y2 := px(e.B)
		if e.IsBoundary() {
			dc.SetRGB(0, 0, 0)
		} else {
			dc.SetRGB(0.6, 0.6, 0.6)
		}
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
	}

	dc.SetRGB(0.8, 0.1, 0.1)
	for v := range t.verts {
		x, y := px(v)
		dc.DrawCircle(x, y, 2)
		dc.Fill()
	}

	return errors.Wrap(dc.EncodePNG(w), "triangulate: encode png")
}
