package text

import (
	"fmt"
	"image"
	"sort"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"

	"github.com/gogpu/sprite"
	"github.com/gogpu/sprite/atlas"
)

// maxSheetSize caps the glyph sheet's side length.
const maxSheetSize = 4096

// Options selects what Build bakes.
type Options struct {
	// Size is the glyph height in pixels. Default: 16.
	Size float64

	// DPI scales point sizes to pixels. Default: 72, which makes Size
	// a pixel value.
	DPI float64

	// Charset lists the runes to bake. Duplicates are ignored; runes
	// the font does not cover are skipped. Default: DefaultCharset().
	Charset []rune

	// Padding is the pixel gap between glyph cells in the sheet.
	// Default: 1.
	Padding int
}

// DefaultOptions returns the options Build uses for zero fields.
func DefaultOptions() Options {
	return Options{Size: 16, DPI: 72, Padding: 1}
}

// DefaultCharset returns the printable ASCII range, space through
// tilde.
func DefaultCharset() []rune {
	cs := make([]rune, 0, '~'-' '+1)
	for r := rune(' '); r <= '~'; r++ {
		cs = append(cs, r)
	}
	return cs
}

// Build rasterizes the charset at one size into a single glyph sheet
// and returns a font ready for DrawText. The pen convention matches
// the renderer: offsets position cells relative to the top-left of
// the line, with the baseline one ascent below it.
func (s *Source) Build(opts Options) (*sprite.Font, error) {
	if opts.Size <= 0 {
		opts.Size = 16
	}
	if opts.DPI <= 0 {
		opts.DPI = 72
	}
	if opts.Padding < 0 {
		opts.Padding = 0
	}
	charset := opts.Charset
	if len(charset) == 0 {
		charset = DefaultCharset()
	}

	face, err := opentype.NewFace(s.raster, &opentype.FaceOptions{
		Size:    opts.Size,
		DPI:     opts.DPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("text: create face: %w", err)
	}
	defer face.Close()

	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	lineHeight := float32(metrics.Height) / 64

	baked := s.bake(face, charset, opts.Size, ascent)
	if len(baked) == 0 {
		return nil, ErrNoGlyphs
	}

	sheet, placed, err := packGlyphs(baked, opts.Padding)
	if err != nil {
		return nil, err
	}

	glyphs := make(map[rune]sprite.Glyph, len(baked))
	for i := range baked {
		g := &baked[i]
		entry := sprite.Glyph{
			Offset:  sprite.Pt(float32(g.offX), float32(g.offY)),
			Advance: g.advance,
		}
		if g.mask != nil {
			p := placed[i]
			blitGlyph(sheet, g.mask, p[0], p[1])
			entry.Cell = sprite.R(float32(p[0]), float32(p[1]), float32(g.w), float32(g.h))
		}
		glyphs[g.r] = entry
	}

	sprite.Logger().Debug("text: font baked",
		"glyphs", len(glyphs), "size", opts.Size, "sheet", sheet.Rect.Dx())
	return sprite.NewFont(sprite.NewTexture(sheet), glyphs, lineHeight), nil
}

// packGlyphs shelf-packs the masks into the smallest power-of-two
// sheet that fits, trying tallest rows first so shelves stay dense.
func packGlyphs(baked []bakedGlyph, padding int) (*image.RGBA, map[int][2]int, error) {
	order := make([]int, 0, len(baked))
	for i := range baked {
		if baked[i].mask != nil {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		ga, gb := &baked[order[a]], &baked[order[b]]
		if ga.h != gb.h {
			return ga.h > gb.h
		}
		return ga.w > gb.w
	})

	for side := 64; side <= maxSheetSize; side *= 2 {
		shelf := atlas.NewShelf(side, side, padding)
		placed := make(map[int][2]int, len(order))
		ok := true
		for _, i := range order {
			x, y, fit := shelf.Allocate(baked[i].w, baked[i].h)
			if !fit {
				ok = false
				break
			}
			placed[i] = [2]int{x, y}
		}
		if ok {
			return image.NewRGBA(image.Rect(0, 0, side, side)), placed, nil
		}
	}
	return nil, nil, fmt.Errorf("text: charset does not fit a %dx%d sheet", maxSheetSize, maxSheetSize)
}
