package sprite

import "testing"

func fixedFont(advance, lineHeight float32) *Font {
	glyphs := make(map[rune]Glyph)
	for r := rune(' '); r <= '~'; r++ {
		glyphs[r] = Glyph{
			Cell:    R(0, 0, advance, lineHeight),
			Advance: advance,
		}
	}
	// One composed rune outside ASCII.
	glyphs['é'] = Glyph{Cell: R(0, 0, advance, lineHeight), Advance: advance}
	return NewFont(NewTexture(newTestImage(32, 32)), glyphs, lineHeight)
}

func TestFontGlyphLookup(t *testing.T) {
	f := fixedFont(8, 16)
	if _, ok := f.Glyph('A'); !ok {
		t.Error("Glyph('A') not found")
	}
	if _, ok := f.Glyph('あ'); ok {
		t.Error("Glyph for uncovered rune reported found")
	}
	if f.LineHeight() != 16 {
		t.Errorf("LineHeight = %v, want 16", f.LineHeight())
	}
	if f.Texture() == nil {
		t.Error("Texture() = nil")
	}
}

func TestFontMeasure(t *testing.T) {
	f := fixedFont(8, 16)
	tests := []struct {
		name string
		s    string
		want Point
	}{
		{"empty", "", Pt(0, 16)},
		{"single line", "abcd", Pt(32, 16)},
		{"two lines widest first", "abcd\nab", Pt(32, 32)},
		{"two lines widest last", "ab\nabcd", Pt(32, 32)},
		{"carriage returns ignored", "ab\r\ncd", Pt(16, 32)},
		{"trailing newline counts a line", "ab\n", Pt(16, 32)},
		{"missing glyphs take no space", "aあb", Pt(16, 16)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Measure(tt.s); got != tt.want {
				t.Errorf("Measure(%q) = %v, want %v", tt.s, got, tt.want)
			}
		})
	}
}

func TestFontMeasureNormalizesInput(t *testing.T) {
	f := fixedFont(8, 16)
	// Decomposed e + combining acute measures like the composed form.
	composed := f.Measure("é")
	decomposed := f.Measure("é")
	if composed != decomposed {
		t.Errorf("Measure composed %v != decomposed %v", composed, decomposed)
	}
	if composed.X != 8 {
		t.Errorf("Measure(é).X = %v, want 8", composed.X)
	}
}
