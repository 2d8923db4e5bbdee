package text

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// ErrNoGlyphs is returned by Build when the font covers none of the
// requested charset.
var ErrNoGlyphs = errors.New("text: font covers none of the charset")

// Source is a parsed font file that glyph sheets are baked from. The
// same source can bake fonts at several sizes.
//
// Source is not safe for concurrent use.
type Source struct {
	data []byte

	// raster carries the outlines for rasterization.
	raster *sfnt.Font

	// shaped carries the OpenType tables used for coverage decisions,
	// so missing runes are detected the way a shaper would.
	shaped *font.Face
	shaper shaping.HarfbuzzShaper
}

// NewSource parses font data (TTF or OTF). The data is retained.
func NewSource(data []byte) (*Source, error) {
	raster, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("text: parse font: %w", err)
	}
	shaped, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("text: parse font tables: %w", err)
	}
	return &Source{data: data, raster: raster, shaped: shaped}, nil
}

// NewSourceFromFile reads and parses a font file.
func NewSourceFromFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("text: read font file: %w", err)
	}
	return NewSource(data)
}

// covers reports whether the font shapes r to a real glyph rather
// than .notdef.
func (s *Source) covers(r rune, size float64) bool {
	out := s.shaper.Shape(shaping.Input{
		Text:      []rune{r},
		RunStart:  0,
		RunEnd:    1,
		Direction: di.DirectionLTR,
		Face:      s.shaped,
		Size:      fixed.Int26_6(size * 64),
		Script:    language.LookupScript(r),
		Language:  language.NewLanguage("en"),
	})
	return len(out.Glyphs) > 0 && out.Glyphs[0].GlyphID != 0
}
