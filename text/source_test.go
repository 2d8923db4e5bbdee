package text

import (
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func testSource(t *testing.T) *Source {
	t.Helper()
	src, err := NewSource(goregular.TTF)
	if err != nil {
		t.Fatalf("NewSource(goregular.TTF) failed: %v", err)
	}
	return src
}

func TestNewSourceRejectsGarbage(t *testing.T) {
	if _, err := NewSource([]byte("definitely not a font")); err == nil {
		t.Error("garbage font data accepted")
	}
}

func TestNewSourceFromFileMissing(t *testing.T) {
	if _, err := NewSourceFromFile("testdata/no-such-font.ttf"); err == nil {
		t.Error("missing file accepted")
	}
}

func TestSourceCoverage(t *testing.T) {
	src := testSource(t)

	if !src.covers('A', 16) {
		t.Error("covers('A') = false")
	}
	// Go Regular has no CJK glyphs.
	if src.covers('中', 16) {
		t.Error("covers(U+4E2D) = true")
	}
}
