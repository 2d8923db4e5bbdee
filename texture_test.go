package sprite

import (
	"errors"
	"image"
	"testing"
)

func TestNewTextureSharesOriginRGBA(t *testing.T) {
	img := newTestImage(4, 4)
	tex := NewTexture(img)
	if tex.Image() != img {
		t.Error("origin-anchored RGBA was copied instead of shared")
	}
	if tex.Width() != 4 || tex.Height() != 4 {
		t.Errorf("size = %dx%d, want 4x4", tex.Width(), tex.Height())
	}
	if !tex.Loaded() {
		t.Error("Loaded() = false")
	}
}

func TestNewTextureCopiesOffsetImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(2, 2, 6, 6))
	tex := NewTexture(img)
	if tex.Image() == img {
		t.Error("offset image shared, want copy at origin")
	}
	if got := tex.Image().Bounds(); got != image.Rect(0, 0, 4, 4) {
		t.Errorf("bounds = %v, want (0,0)-(4,4)", got)
	}
}

func TestTextureIDsUnique(t *testing.T) {
	a := NewTexture(newTestImage(1, 1))
	b := NewTexture(newTestImage(1, 1))
	if a.ID() == b.ID() {
		t.Errorf("both textures got ID %d", a.ID())
	}
}

func TestTextureBounds(t *testing.T) {
	tex := NewTexture(newTestImage(8, 4))
	if got := tex.Bounds(); got != R(0, 0, 8, 4) {
		t.Errorf("Bounds = %v, want (0, 0, 8, 4)", got)
	}
}

func TestLazyTextureLoadsOnce(t *testing.T) {
	calls := 0
	tex := NewLazyTexture(func() (image.Image, error) {
		calls++
		return newTestImage(4, 2), nil
	})
	if tex.Loaded() {
		t.Fatal("lazy texture loaded before first use")
	}
	if tex.Width() != 0 {
		t.Errorf("Width before load = %d, want 0", tex.Width())
	}

	if err := tex.ensureLoaded(); err != nil {
		t.Fatal(err)
	}
	if err := tex.ensureLoaded(); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("load called %d times, want 1", calls)
	}
	if tex.Width() != 4 || tex.Height() != 2 {
		t.Errorf("size = %dx%d, want 4x2", tex.Width(), tex.Height())
	}
}

func TestLazyTextureFailureSticks(t *testing.T) {
	calls := 0
	wantErr := errors.New("asset missing")
	tex := NewLazyTexture(func() (image.Image, error) {
		calls++
		return nil, wantErr
	})
	if err := tex.ensureLoaded(); !errors.Is(err, wantErr) {
		t.Fatalf("first load = %v, want %v", err, wantErr)
	}
	if err := tex.ensureLoaded(); !errors.Is(err, wantErr) {
		t.Fatalf("second load = %v, want %v", err, wantErr)
	}
	if calls != 1 {
		t.Errorf("failing load retried: %d calls", calls)
	}
}

func TestLazyTextureNilResult(t *testing.T) {
	tex := NewLazyTexture(func() (image.Image, error) { return nil, nil })
	if err := tex.ensureLoaded(); !errors.Is(err, ErrTextureNotLoaded) {
		t.Errorf("ensureLoaded = %v, want ErrTextureNotLoaded", err)
	}
}

func TestTextureUpdate(t *testing.T) {
	tex := NewTexture(newTestImage(2, 2))
	tex.markClean()
	tex.Update(newTestImage(6, 3))
	if tex.Width() != 6 || tex.Height() != 3 {
		t.Errorf("size after Update = %dx%d, want 6x3", tex.Width(), tex.Height())
	}
	if !tex.dirty {
		t.Error("Update did not mark the texture dirty")
	}
}

func TestTextureUpdateClearsLoadError(t *testing.T) {
	tex := NewLazyTexture(func() (image.Image, error) { return nil, errors.New("boom") })
	if err := tex.ensureLoaded(); err == nil {
		t.Fatal("want load error")
	}
	tex.Update(newTestImage(2, 2))
	if err := tex.ensureLoaded(); err != nil {
		t.Errorf("ensureLoaded after Update = %v, want nil", err)
	}
}
