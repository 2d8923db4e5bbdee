package sprite

import (
	"image"
	"image/color"

	"github.com/gogpu/sprite/internal/parallel"
)

// softwareSink rasterizes batches on the CPU into an RGBA image. It
// receives exactly what the GPU sink receives, so flush boundaries,
// vertex data, and projection behave identically on both paths; only
// the sampling quality differs (nearest-neighbor, no filtering).
//
// Each flush is rasterized across CPU cores in row bands. A band walks
// every triangle of the flush in submission order and writes only its
// own rows, so the output is pixel-identical to a serial pass.
//
// The software path serves headless tools and tests, and is the
// fallback when no GPU device is available.
type softwareSink struct {
	dst   *image.RGBA
	w, h  float32
	proj  [16]float32
	clear Color
	pool  *parallel.Pool
}

func newSoftwareSink(width, height int) *softwareSink {
	return &softwareSink{
		dst:  image.NewRGBA(image.Rect(0, 0, width, height)),
		w:    float32(width),
		h:    float32(height),
		pool: parallel.NewPool(0),
	}
}

// retarget points the sink at a different pixmap. Used by render
// target resizes.
func (s *softwareSink) retarget(dst *image.RGBA) {
	s.dst = dst
	b := dst.Bounds()
	s.w = float32(b.Dx())
	s.h = float32(b.Dy())
}

func (s *softwareSink) beginFrame(proj [16]float32) error {
	s.proj = proj
	fillRGBA(s.dst, s.clear)
	return nil
}

func (s *softwareSink) flush(tex *Texture, verts []Vertex) error {
	b := s.dst.Bounds()
	s.pool.Rows(b.Dy(), func(lo, hi int) {
		for i := 0; i+2 < len(verts); i += 3 {
			s.triangle(tex, &verts[i], &verts[i+1], &verts[i+2], b.Min.Y+lo, b.Min.Y+hi)
		}
	})
	return nil
}

func (s *softwareSink) reserve(int) error { return nil }

func (s *softwareSink) endFrame() error { return nil }

// project maps a vertex's world position through the frame projection
// to pixel coordinates.
func (s *softwareSink) project(v *Vertex) (float32, float32) {
	m := &s.proj
	clipX := m[0]*v.X + m[4]*v.Y + m[12]
	clipY := m[1]*v.X + m[5]*v.Y + m[13]
	return (clipX + 1) * 0.5 * s.w, (1 - clipY) * 0.5 * s.h
}

// triangle rasterizes one textured triangle with barycentric
// interpolation of color and UV, blending source-over. Only rows in
// [rowLo, rowHi) are written, which is how bands split a flush.
//
// Pixel centers exactly on an edge follow the top-left rule, so the
// seam shared by a quad's two triangles, and seams between abutting
// quads, blend exactly once.
func (s *softwareSink) triangle(tex *Texture, v0, v1, v2 *Vertex, rowLo, rowHi int) {
	x0, y0 := s.project(v0)
	x1, y1 := s.project(v1)
	x2, y2 := s.project(v2)

	denom := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if denom == 0 {
		return
	}
	// Edge i is opposite vertex i, directed in winding order.
	cw := denom > 0
	inc0 := topLeftEdge(x1, y1, x2, y2, cw)
	inc1 := topLeftEdge(x2, y2, x0, y0, cw)
	inc2 := topLeftEdge(x0, y0, x1, y1, cw)

	b := s.dst.Bounds()
	minX := max(int(min(x0, min(x1, x2))), b.Min.X)
	maxX := min(int(max(x0, max(x1, x2)))+1, b.Max.X)
	minY := max(int(min(y0, min(y1, y2))), rowLo)
	maxY := min(int(max(y0, max(y1, y2)))+1, rowHi)

	var pix *image.RGBA
	var texW, texH int
	if tex != nil && tex.pix != nil {
		pix = tex.pix
		texW, texH = tex.width, tex.height
	}

	for py := minY; py < maxY; py++ {
		cy := float32(py) + 0.5
		for px := minX; px < maxX; px++ {
			cx := float32(px) + 0.5
			w0 := ((y1-y2)*(cx-x2) + (x2-x1)*(cy-y2)) / denom
			w1 := ((y2-y0)*(cx-x2) + (x0-x2)*(cy-y2)) / denom
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			if (w0 == 0 && !inc0) || (w1 == 0 && !inc1) || (w2 == 0 && !inc2) {
				continue
			}

			r := w0*v0.Color[0] + w1*v1.Color[0] + w2*v2.Color[0]
			g := w0*v0.Color[1] + w1*v1.Color[1] + w2*v2.Color[1]
			bl := w0*v0.Color[2] + w1*v1.Color[2] + w2*v2.Color[2]
			a := w0*v0.Color[3] + w1*v1.Color[3] + w2*v2.Color[3]

			if pix != nil {
				u := w0*v0.U + w1*v1.U + w2*v2.U
				v := w0*v0.V + w1*v1.V + w2*v2.V
				tr, tg, tb, ta := sampleNearest(pix, u, v, texW, texH)
				r *= tr
				g *= tg
				bl *= tb
				a *= ta
			}
			blendPixel(s.dst, px, py, r, g, bl, a)
		}
	}
}

// topLeftEdge reports whether pixels exactly on the directed edge
// (ax, ay) -> (bx, by) belong to the triangle on its interior side.
// With clockwise winding the interior sits right of the edge, so top
// and left edges are kept; mirrored winding flips the test.
func topLeftEdge(ax, ay, bx, by float32, cw bool) bool {
	dx, dy := bx-ax, by-ay
	if cw {
		return dy < 0 || (dy == 0 && dx > 0)
	}
	return dy > 0 || (dy == 0 && dx < 0)
}

// sampleNearest reads the texel nearest to normalized (u, v), clamped
// to the texture edge, as premultiplied components in [0, 1].
func sampleNearest(pix *image.RGBA, u, v float32, w, h int) (float32, float32, float32, float32) {
	tx := int(u * float32(w))
	ty := int(v * float32(h))
	if tx < 0 {
		tx = 0
	} else if tx >= w {
		tx = w - 1
	}
	if ty < 0 {
		ty = 0
	} else if ty >= h {
		ty = h - 1
	}
	off := pix.PixOffset(tx, ty)
	p := pix.Pix[off : off+4 : off+4]
	return float32(p[0]) / 255, float32(p[1]) / 255, float32(p[2]) / 255, float32(p[3]) / 255
}

// blendPixel composites a premultiplied source color over dst at
// (x, y).
func blendPixel(dst *image.RGBA, x, y int, r, g, b, a float32) {
	off := dst.PixOffset(x, y)
	p := dst.Pix[off : off+4 : off+4]
	inv := 1 - a
	p[0] = sat8(r*255 + float32(p[0])*inv)
	p[1] = sat8(g*255 + float32(p[1])*inv)
	p[2] = sat8(b*255 + float32(p[2])*inv)
	p[3] = sat8(a*255 + float32(p[3])*inv)
}

func sat8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// fillRGBA floods the image with a color, converted to premultiplied
// bytes once and copied row by row.
func fillRGBA(dst *image.RGBA, c Color) {
	pm := c.premultiplied()
	px := color.RGBA{R: sat8(pm[0] * 255), G: sat8(pm[1] * 255), B: sat8(pm[2] * 255), A: sat8(pm[3] * 255)}
	b := dst.Bounds()
	if b.Empty() {
		return
	}
	row := dst.Pix[dst.PixOffset(b.Min.X, b.Min.Y) : dst.PixOffset(b.Max.X-1, b.Min.Y)+4]
	for i := 0; i < len(row); i += 4 {
		row[i+0] = px.R
		row[i+1] = px.G
		row[i+2] = px.B
		row[i+3] = px.A
	}
	for y := b.Min.Y + 1; y < b.Max.Y; y++ {
		copy(dst.Pix[dst.PixOffset(b.Min.X, y):], row)
	}
}
