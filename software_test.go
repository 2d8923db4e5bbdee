package sprite

import (
	"bytes"
	"image"
	"testing"

	"github.com/gogpu/sprite/internal/parallel"
)

func quadVerts(t *testing.T, dst Rect, col Color, opts QuadOptions) []Vertex {
	t.Helper()
	verts := make([]Vertex, VerticesPerQuad)
	src := dst
	if opts.Texture != nil {
		src = R(0, 0, float32(opts.Texture.Width()), float32(opts.Texture.Height()))
	}
	if err := BuildQuad(verts, dst, src, col, opts); err != nil {
		t.Fatal(err)
	}
	return verts
}

func TestSoftwareSinkClearsOnBegin(t *testing.T) {
	s := newSoftwareSink(4, 4)
	s.clear = RGBA(1, 0, 0, 0.5)
	if err := s.beginFrame(Camera{}.Projection(4, 4)); err != nil {
		t.Fatal(err)
	}
	// Premultiplied half-transparent red.
	want := [4]uint8{128, 0, 0, 128}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			o := s.dst.PixOffset(x, y)
			got := [4]uint8(s.dst.Pix[o : o+4])
			if got != want {
				t.Fatalf("pixel (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestSoftwareSinkFillsQuad(t *testing.T) {
	s := newSoftwareSink(8, 8)
	if err := s.beginFrame(Camera{}.Projection(8, 8)); err != nil {
		t.Fatal(err)
	}
	verts := quadVerts(t, R(2, 2, 4, 4), White, QuadOptions{})
	if err := s.flush(nil, verts); err != nil {
		t.Fatal(err)
	}

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			o := s.dst.PixOffset(x, y)
			inside := x >= 2 && x < 6 && y >= 2 && y < 6
			wantA := uint8(0)
			if inside {
				wantA = 255
			}
			if got := s.dst.Pix[o+3]; got != wantA {
				t.Errorf("pixel (%d, %d) alpha = %d, want %d", x, y, got, wantA)
			}
		}
	}
}

func TestSoftwareSinkBlendsSourceOver(t *testing.T) {
	s := newSoftwareSink(4, 4)
	s.clear = RGB(1, 0, 0)
	if err := s.beginFrame(Camera{}.Projection(4, 4)); err != nil {
		t.Fatal(err)
	}
	verts := quadVerts(t, R(0, 0, 4, 4), RGBA(0, 0, 0, 0.5), QuadOptions{})
	if err := s.flush(nil, verts); err != nil {
		t.Fatal(err)
	}

	o := s.dst.PixOffset(1, 1)
	got := [4]uint8(s.dst.Pix[o : o+4])
	// Half-black over opaque red: red halves, alpha stays opaque.
	want := [4]uint8{128, 0, 0, 255}
	if got != want {
		t.Errorf("pixel = %v, want %v", got, want)
	}
}

func TestSoftwareSinkDiagonalBlendsOnce(t *testing.T) {
	s := newSoftwareSink(4, 4)
	s.clear = RGB(1, 0, 0)
	if err := s.beginFrame(Camera{}.Projection(4, 4)); err != nil {
		t.Fatal(err)
	}
	// A translucent quad covering the whole target. Pixel centers on
	// the diagonal shared by its two triangles must blend exactly once,
	// so the output is uniform.
	verts := quadVerts(t, R(0, 0, 4, 4), RGBA(0, 0, 0, 0.5), QuadOptions{})
	if err := s.flush(nil, verts); err != nil {
		t.Fatal(err)
	}

	want := [4]uint8{128, 0, 0, 255}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			o := s.dst.PixOffset(x, y)
			if got := [4]uint8(s.dst.Pix[o : o+4]); got != want {
				t.Errorf("pixel (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestSoftwareSinkAbuttingQuadsShareSeamOnce(t *testing.T) {
	s := newSoftwareSink(4, 4)
	s.clear = RGB(1, 0, 0)
	if err := s.beginFrame(Camera{}.Projection(4, 4)); err != nil {
		t.Fatal(err)
	}
	// Two translucent quads meeting at x = 2.5, through the centers of
	// pixel column 2. The seam belongs to the right quad's left edge.
	verts := quadVerts(t, R(0, 0, 2.5, 4), RGBA(0, 0, 0, 0.5), QuadOptions{})
	verts = append(verts, quadVerts(t, R(2.5, 0, 1.5, 4), RGBA(0, 0, 0, 0.5), QuadOptions{})...)
	if err := s.flush(nil, verts); err != nil {
		t.Fatal(err)
	}

	want := [4]uint8{128, 0, 0, 255}
	for y := 0; y < 4; y++ {
		o := s.dst.PixOffset(2, y)
		if got := [4]uint8(s.dst.Pix[o : o+4]); got != want {
			t.Errorf("seam pixel (2, %d) = %v, want %v", y, got, want)
		}
	}
}

func TestSoftwareSinkSamplesTexture(t *testing.T) {
	tex := NewTexture(newTestImage(8, 8))
	s := newSoftwareSink(8, 8)
	if err := s.beginFrame(Camera{}.Projection(8, 8)); err != nil {
		t.Fatal(err)
	}
	verts := quadVerts(t, R(0, 0, 8, 8), White, QuadOptions{Texture: tex})
	if err := s.flush(tex, verts); err != nil {
		t.Fatal(err)
	}

	// The gradient image maps 1:1 onto the target, so pixels match the
	// source exactly.
	src := tex.pix
	for _, p := range []image.Point{{0, 0}, {7, 0}, {0, 7}, {4, 4}} {
		so := src.PixOffset(p.X, p.Y)
		do := s.dst.PixOffset(p.X, p.Y)
		if !bytes.Equal(src.Pix[so:so+4], s.dst.Pix[do:do+4]) {
			t.Errorf("pixel %v = %v, want %v", p, s.dst.Pix[do:do+4], src.Pix[so:so+4])
		}
	}
}

func TestSoftwareSinkRetarget(t *testing.T) {
	s := newSoftwareSink(4, 4)
	img := image.NewRGBA(image.Rect(0, 0, 16, 8))
	s.retarget(img)
	if s.dst != img || s.w != 16 || s.h != 8 {
		t.Errorf("retarget: dst %p w %v h %v", s.dst, s.w, s.h)
	}
}

func TestSoftwareParallelMatchesSerial(t *testing.T) {
	tex := NewTexture(newTestImage(16, 16))

	render := func(workers int) *image.RGBA {
		s := newSoftwareSink(64, 256)
		s.pool = parallel.NewPool(workers)
		s.clear = RGB(0.2, 0.2, 0.2)
		if err := s.beginFrame(Camera{}.Projection(64, 256)); err != nil {
			t.Fatal(err)
		}
		// Overlapping translucent quads so blend order matters.
		var verts []Vertex
		for i := 0; i < 12; i++ {
			q := quadVerts(t, R(float32(i), float32(i*19), 40, 80),
				RGBA(float32(i)/12, 0.5, 1-float32(i)/12, 0.6),
				QuadOptions{Texture: tex, Rotation: float32(i) * 0.13})
			verts = append(verts, q...)
		}
		if err := s.flush(tex, verts); err != nil {
			t.Fatal(err)
		}
		return s.dst
	}

	serial := render(1)
	banded := render(8)
	if !bytes.Equal(serial.Pix, banded.Pix) {
		t.Error("banded rasterization differs from serial output")
	}
}
