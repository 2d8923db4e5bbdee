// Package text bakes TrueType/OpenType glyphs into bitmap fonts for
// the sprite renderer.
//
// A Source parses a font file once; Build rasterizes a charset at one
// pixel size into a single glyph sheet and returns a sprite.Font,
// so text drawing batches like any other sprite drawing. Shaping-grade
// glyph coverage comes from go-text/typesetting; rasterization uses
// golang.org/x/image/font.
package text
