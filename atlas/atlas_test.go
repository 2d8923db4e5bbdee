package atlas

import (
	"errors"
	"image"
	"testing"
)

func testAllocator(t *testing.T, pageSize, maxPages, padding int) *Allocator {
	t.Helper()
	a, err := NewAllocator(Config{PageSize: pageSize, MaxPages: maxPages, Padding: padding})
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func solidImage(w, h int, val uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = val
	}
	return img
}

func TestAllocatorConfigValidation(t *testing.T) {
	var ce *ConfigError
	if _, err := NewAllocator(Config{PageSize: 100, MaxPages: 1, Padding: 0}); !errors.As(err, &ce) {
		t.Errorf("NewAllocator(bad page size) = %v, want *ConfigError", err)
	}
	if err := (&Config{PageSize: 128, MaxPages: 0, Padding: 0}).Validate(); err == nil {
		t.Error("Validate accepted zero MaxPages")
	}
	def := DefaultConfig()
	if err := def.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestAllocatorPackAndHit(t *testing.T) {
	a := testAllocator(t, 64, 2, 1)
	src := solidImage(16, 16, 200)
	key := Key{Texture: 1, X: 0, Y: 0, W: 16, H: 16}

	s1, ok := a.TryPack(key, src)
	if !ok {
		t.Fatal("first TryPack failed")
	}
	s2, ok := a.TryPack(key, src)
	if !ok {
		t.Fatal("second TryPack failed")
	}
	if s1 != s2 {
		t.Errorf("repeated pack moved: %+v then %+v", s1, s2)
	}
	if !a.Has(key) {
		t.Error("Has = false for a packed key")
	}

	st := a.Stats()
	if st.Misses != 1 || st.Hits != 1 || st.Pages != 1 {
		t.Errorf("stats = %+v, want 1 miss, 1 hit, 1 page", st)
	}
}

func TestAllocatorBlitsPixels(t *testing.T) {
	a := testAllocator(t, 64, 1, 1)
	src := solidImage(8, 8, 200)
	// A sub-region, not the whole source.
	key := Key{Texture: 7, X: 2, Y: 2, W: 4, H: 4}

	s, ok := a.TryPack(key, src)
	if !ok {
		t.Fatal("TryPack failed")
	}
	page := a.Page(s.Page)
	if page == nil {
		t.Fatal("page missing")
	}
	if !page.Dirty() {
		t.Error("page not dirty after a blit")
	}

	img := page.Image()
	o := img.PixOffset(s.X, s.Y)
	if img.Pix[o] != 200 {
		t.Errorf("packed pixel = %d, want 200", img.Pix[o])
	}
	// One past the region is untouched page background.
	o = img.PixOffset(s.X+key.W, s.Y)
	if img.Pix[o] != 0 {
		t.Errorf("pixel past region = %d, want 0", img.Pix[o])
	}
}

func TestAllocatorDistinctRegionsOfOneTexture(t *testing.T) {
	a := testAllocator(t, 64, 1, 1)
	src := solidImage(16, 16, 9)

	s1, ok := a.TryPack(Key{Texture: 1, X: 0, Y: 0, W: 8, H: 8}, src)
	if !ok {
		t.Fatal("pack region 1 failed")
	}
	s2, ok := a.TryPack(Key{Texture: 1, X: 8, Y: 0, W: 8, H: 8}, src)
	if !ok {
		t.Fatal("pack region 2 failed")
	}
	if s1 == s2 {
		t.Error("different regions resolved to the same slice")
	}
	if st := a.Stats(); st.Misses != 2 {
		t.Errorf("Misses = %d, want 2", st.Misses)
	}
}

func TestAllocatorOpensPagesUpToLimit(t *testing.T) {
	a := testAllocator(t, 64, 2, 0)
	src := solidImage(64, 64, 1)

	// A full-page region per pack: each needs its own page.
	if _, ok := a.TryPack(Key{Texture: 1, W: 64, H: 64}, src); !ok {
		t.Fatal("pack 1 failed")
	}
	if _, ok := a.TryPack(Key{Texture: 2, W: 64, H: 64}, src); !ok {
		t.Fatal("pack 2 failed")
	}
	if got := a.PageCount(); got != 2 {
		t.Fatalf("PageCount = %d, want 2", got)
	}

	// The third has nowhere to go.
	if _, ok := a.TryPack(Key{Texture: 3, W: 64, H: 64}, src); ok {
		t.Error("pack past the page limit succeeded")
	}
	st := a.Stats()
	if st.Failures != 1 {
		t.Errorf("Failures = %d, want 1", st.Failures)
	}
	if st.Pages != 2 {
		t.Errorf("Pages = %d, want 2", st.Pages)
	}
}

func TestAllocatorRejectsOversized(t *testing.T) {
	a := testAllocator(t, 64, 2, 1)
	if _, ok := a.TryPack(Key{Texture: 1, W: 64, H: 8}, solidImage(64, 8, 1)); ok {
		t.Error("region wider than page minus padding packed")
	}
	if _, ok := a.TryPack(Key{Texture: 1, W: 8, H: 0}, nil); ok {
		t.Error("empty region packed")
	}
	if st := a.Stats(); st.Failures != 2 || st.Misses != 0 {
		t.Errorf("stats = %+v, want 2 failures and no misses", st)
	}
}

func TestAllocatorNilSource(t *testing.T) {
	a := testAllocator(t, 64, 1, 0)
	// Callers may reserve space before pixels exist.
	s, ok := a.TryPack(Key{Texture: 1, W: 8, H: 8}, nil)
	if !ok {
		t.Fatal("TryPack with nil source failed")
	}
	if page := a.Page(s.Page); !page.Dirty() {
		t.Error("page not marked dirty")
	}
}

func TestAllocatorReset(t *testing.T) {
	a := testAllocator(t, 64, 1, 0)
	src := solidImage(8, 8, 77)
	key := Key{Texture: 1, W: 8, H: 8}

	s, ok := a.TryPack(key, src)
	if !ok {
		t.Fatal("TryPack failed")
	}
	a.Page(s.Page).MarkClean()

	a.Reset()
	if a.Has(key) {
		t.Error("key survived Reset")
	}
	page := a.Page(0)
	if !page.Dirty() {
		t.Error("page not dirty after Reset")
	}
	o := page.Image().PixOffset(s.X, s.Y)
	if page.Image().Pix[o] != 0 {
		t.Error("page pixels survived Reset")
	}

	// Repacking works and lands at the start again.
	s2, ok := a.TryPack(key, src)
	if !ok {
		t.Fatal("TryPack after Reset failed")
	}
	if s2.X != 0 || s2.Y != 0 {
		t.Errorf("slice after Reset = %+v, want origin", s2)
	}
}

func TestAllocatorPageOutOfRange(t *testing.T) {
	a := testAllocator(t, 64, 1, 0)
	if a.Page(0) != nil {
		t.Error("Page(0) on empty allocator != nil")
	}
	if a.Page(-1) != nil {
		t.Error("Page(-1) != nil")
	}
}

func TestAllocatorPageUtilization(t *testing.T) {
	a := testAllocator(t, 64, 1, 0)
	if _, ok := a.TryPack(Key{Texture: 1, W: 32, H: 32}, solidImage(32, 32, 1)); !ok {
		t.Fatal("TryPack failed")
	}
	want := 0.25
	if got := a.Page(0).Utilization(); got != want {
		t.Errorf("Utilization = %v, want %v", got, want)
	}
}
