package sprite

import (
	"fmt"
	"math"
)

// Flip mirrors a quad's source region at draw time.
type Flip uint8

const (
	FlipNone Flip = 0
	// FlipHorizontal mirrors the source region left-right.
	FlipHorizontal Flip = 1 << 0
	// FlipVertical mirrors the source region top-bottom.
	FlipVertical Flip = 1 << 1
)

// texelInset is the sub-texel distance, in texels, that UV coordinates
// are pulled inward when the half-texel correction is enabled. Keeps
// bilinear filtering at region edges from sampling the neighboring
// atlas region.
const texelInset = 0.05

// QuadOptions controls geometry and UV generation for one quad.
// The zero value draws the quad unrotated, unscaled, anchored at its
// top-left corner, with raw source coordinates as UVs.
type QuadOptions struct {
	// Origin is the pivot for rotation and scaling, as a fraction of
	// the destination size: {0, 0} is the top-left corner, {0.5, 0.5}
	// the center, {1, 1} the bottom-right corner.
	Origin Point

	// Scale multiplies the destination size. Zero means {1, 1}.
	Scale Point

	// Rotation is the angle in radians around the origin point.
	Rotation float32

	// Flip mirrors the source region.
	Flip Flip

	// Texture, when set, normalizes source coordinates by its
	// dimensions so UVs land in [0, 1]. When nil the source rectangle
	// is taken as ready-made UVs.
	Texture *Texture

	// TexelInset pulls UVs inward by a sub-texel amount. Only applies
	// when Texture is set.
	TexelInset bool
}

// BuildQuad expands one sprite draw into six vertices (two triangles)
// written to dst, which must hold at least VerticesPerQuad elements.
//
// The destination rectangle is scaled and rotated around the origin
// point, which stays fixed at its position inside dstRect. The source
// rectangle selects the sampled texels; flips swap its UV edges before
// the optional inset is applied, so a flipped quad insets toward its
// own interior.
//
// BuildQuad is pure: it reads no renderer state and writes nothing but
// dst[0:6].
func BuildQuad(dst []Vertex, dstRect, srcRect Rect, col Color, opts QuadOptions) error {
	if len(dst) < VerticesPerQuad {
		return fmt.Errorf("%w: got %d", ErrQuadOutputTooSmall, len(dst))
	}

	scale := opts.Scale
	if scale == (Point{}) {
		scale = Point{X: 1, Y: 1}
	}
	size := Point{X: dstRect.W * scale.X, Y: dstRect.H * scale.Y}
	pivot := Point{X: opts.Origin.X * size.X, Y: opts.Origin.Y * size.Y}

	// Local corners with the pivot at (0, 0): TL, TR, BR, BL.
	corners := [4]Point{
		{X: -pivot.X, Y: -pivot.Y},
		{X: size.X - pivot.X, Y: -pivot.Y},
		{X: size.X - pivot.X, Y: size.Y - pivot.Y},
		{X: -pivot.X, Y: size.Y - pivot.Y},
	}
	base := Point{X: dstRect.X + pivot.X, Y: dstRect.Y + pivot.Y}
	if opts.Rotation != 0 {
		sin, cos := math.Sincos(float64(opts.Rotation))
		s, c := float32(sin), float32(cos)
		for i, p := range corners {
			corners[i] = Point{
				X: p.X*c - p.Y*s + base.X,
				Y: p.X*s + p.Y*c + base.Y,
			}
		}
	} else {
		for i, p := range corners {
			corners[i] = p.Add(base)
		}
	}

	u1, v1 := srcRect.X, srcRect.Y
	u2, v2 := srcRect.Right(), srcRect.Bottom()
	var texW, texH float32
	if t := opts.Texture; t != nil && t.width > 0 && t.height > 0 {
		texW, texH = float32(t.width), float32(t.height)
		u1, v1 = u1/texW, v1/texH
		u2, v2 = u2/texW, v2/texH
	}
	if opts.Flip&FlipHorizontal != 0 {
		u1, u2 = u2, u1
	}
	if opts.Flip&FlipVertical != 0 {
		v1, v2 = v2, v1
	}
	if opts.TexelInset && texW > 0 {
		du, dv := texelInset/texW, texelInset/texH
		if u1 > u2 {
			du = -du
		}
		if v1 > v2 {
			dv = -dv
		}
		u1, u2 = u1+du, u2-du
		v1, v2 = v1+dv, v2-dv
	}

	rgba := col.premultiplied()
	// Two triangles split along the TR-BL diagonal: (TL, TR, BL) and
	// (TR, BR, BL).
	dst[0] = Vertex{X: corners[0].X, Y: corners[0].Y, Color: rgba, U: u1, V: v1}
	dst[1] = Vertex{X: corners[1].X, Y: corners[1].Y, Color: rgba, U: u2, V: v1}
	dst[2] = Vertex{X: corners[3].X, Y: corners[3].Y, Color: rgba, U: u1, V: v2}
	dst[3] = Vertex{X: corners[1].X, Y: corners[1].Y, Color: rgba, U: u2, V: v1}
	dst[4] = Vertex{X: corners[2].X, Y: corners[2].Y, Color: rgba, U: u2, V: v2}
	dst[5] = Vertex{X: corners[3].X, Y: corners[3].Y, Color: rgba, U: u1, V: v2}
	return nil
}
