package sprite

import "golang.org/x/text/unicode/norm"

// Glyph describes one character cell in a bitmap font.
type Glyph struct {
	// Cell is the glyph's pixel rectangle in the font texture.
	Cell Rect
	// Offset positions the cell relative to the pen, which sits at the
	// top-left corner of the current line.
	Offset Point
	// Advance is how far the pen moves right after this glyph.
	Advance float32
}

// Font pairs a texture with per-rune glyph metrics. Text drawing is
// sprite drawing: each glyph becomes one quad sampling the font
// texture, so glyph runs batch together with everything else.
//
// Build fonts with the text subpackage or assemble them by hand for
// pre-baked bitmap fonts.
type Font struct {
	tex        *Texture
	glyphs     map[rune]Glyph
	lineHeight float32
}

// NewFont assembles a font from a glyph texture, a rune-to-glyph
// table, and the vertical distance between line tops.
func NewFont(tex *Texture, glyphs map[rune]Glyph, lineHeight float32) *Font {
	return &Font{tex: tex, glyphs: glyphs, lineHeight: lineHeight}
}

// Texture returns the texture the glyph cells live in.
func (f *Font) Texture() *Texture { return f.tex }

// Glyph looks up the glyph for r.
func (f *Font) Glyph(r rune) (Glyph, bool) {
	g, ok := f.glyphs[r]
	return g, ok
}

// LineHeight returns the vertical advance between lines.
func (f *Font) LineHeight() float32 { return f.lineHeight }

// normalizeText puts draw strings in NFC form so composed and
// decomposed input hit the same glyph table entries.
func normalizeText(s string) string {
	if norm.NFC.IsNormalString(s) {
		return s
	}
	return norm.NFC.String(s)
}

// Measure returns the pixel extent of s when drawn with this font:
// the widest line and the summed line heights. The string is
// normalized the same way DrawText normalizes it.
func (f *Font) Measure(s string) Point {
	s = normalizeText(s)
	var width, lineWidth float32
	lines := 1
	for _, r := range s {
		switch r {
		case '\r':
			continue
		case '\n':
			if lineWidth > width {
				width = lineWidth
			}
			lineWidth = 0
			lines++
			continue
		}
		if g, ok := f.glyphs[r]; ok {
			lineWidth += g.Advance
		}
	}
	if lineWidth > width {
		width = lineWidth
	}
	return Point{X: width, Y: float32(lines) * f.lineHeight}
}
