package text

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// bakedGlyph is one rasterized glyph waiting for a sheet position.
// Advance-only glyphs (space) have a nil mask.
type bakedGlyph struct {
	r       rune
	mask    *image.Alpha
	w, h    int
	offX    int
	offY    int
	advance float32
}

// bake rasterizes each covered charset rune to an alpha mask with its
// metrics. Control runes and duplicates are dropped. Cell offsets are
// relative to the line top: a glyph whose outline starts minY above
// the baseline lands at ascent+minY.
func (s *Source) bake(face font.Face, charset []rune, size float64, ascent int) []bakedGlyph {
	seen := make(map[rune]bool, len(charset))
	baked := make([]bakedGlyph, 0, len(charset))
	for _, r := range charset {
		if r < ' ' || seen[r] {
			continue
		}
		seen[r] = true
		if !s.covers(r, size) {
			continue
		}
		bounds, advance, ok := face.GlyphBounds(r)
		if !ok {
			continue
		}
		minX, minY := bounds.Min.X.Floor(), bounds.Min.Y.Floor()
		maxX, maxY := bounds.Max.X.Ceil(), bounds.Max.Y.Ceil()
		g := bakedGlyph{
			r:       r,
			w:       maxX - minX,
			h:       maxY - minY,
			offX:    minX,
			offY:    ascent + minY,
			advance: float32(advance) / 64,
		}
		if g.w > 0 && g.h > 0 {
			mask := image.NewAlpha(image.Rect(0, 0, g.w, g.h))
			d := font.Drawer{
				Dst:  mask,
				Src:  image.White,
				Face: face,
				Dot:  fixed.Point26_6{X: fixed.I(-minX), Y: fixed.I(-minY)},
			}
			d.DrawString(string(r))
			g.mask = mask
		}
		baked = append(baked, g)
	}
	return baked
}

// blitGlyph writes an alpha mask into the sheet as premultiplied
// white, the form the sprite shader expects: tinting happens per
// vertex at draw time.
func blitGlyph(dst *image.RGBA, mask *image.Alpha, x, y int) {
	w, h := mask.Rect.Dx(), mask.Rect.Dy()
	for row := 0; row < h; row++ {
		di := dst.PixOffset(x, y+row)
		si := row * mask.Stride
		for col := 0; col < w; col++ {
			a := mask.Pix[si+col]
			o := di + col*4
			dst.Pix[o+0] = a
			dst.Pix[o+1] = a
			dst.Pix[o+2] = a
			dst.Pix[o+3] = a
		}
	}
}
