//go:build !nogpu

package gpu

import (
	"testing"
)

func TestNewSampledTextureValidates(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	if _, err := NewSampledTexture(nil, queue, 4, 4, "tex"); err == nil {
		t.Error("nil device accepted")
	}
	if _, err := NewSampledTexture(device, queue, 0, 4, "tex"); err == nil {
		t.Error("zero width accepted")
	}
	if _, err := NewSampledTexture(device, queue, 4, 0, "tex"); err == nil {
		t.Error("zero height accepted")
	}
}

func TestTextureDimensions(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	tex, err := NewSampledTexture(device, queue, 8, 4, "tex")
	if err != nil {
		t.Fatalf("NewSampledTexture failed: %v", err)
	}
	defer tex.Destroy()

	if tex.Width() != 8 || tex.Height() != 4 {
		t.Errorf("size = %dx%d, want 8x4", tex.Width(), tex.Height())
	}
	if tex.View() == nil {
		t.Error("View = nil")
	}
	if tex.Raw() == nil {
		t.Error("Raw = nil")
	}
}

func TestTextureUpload(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	tex, err := NewSampledTexture(device, queue, 4, 4, "tex")
	if err != nil {
		t.Fatalf("NewSampledTexture failed: %v", err)
	}
	defer tex.Destroy()

	if err := tex.Upload(make([]byte, 4*4*4)); err != nil {
		t.Errorf("Upload failed: %v", err)
	}
	if err := tex.Upload(make([]byte, 7)); err == nil {
		t.Error("Upload with wrong byte count succeeded")
	}
}

func TestTextureDestroy(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	tex, err := NewSampledTexture(device, queue, 4, 4, "tex")
	if err != nil {
		t.Fatalf("NewSampledTexture failed: %v", err)
	}

	tex.Destroy()
	tex.Destroy()

	if tex.View() != nil {
		t.Error("View != nil after Destroy")
	}
	if tex.Raw() != nil {
		t.Error("Raw != nil after Destroy")
	}
	if err := tex.Upload(make([]byte, 4*4*4)); err == nil {
		t.Error("Upload succeeded after Destroy")
	}
}

func TestTextureCacheSync(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	cache := NewTextureCache(device, queue)
	defer cache.Destroy()

	pix := make([]byte, 4*4*4)
	tex, created, err := cache.Sync(1, 4, 4, pix, false)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if !created {
		t.Error("first Sync reported created = false")
	}
	if cache.Get(1) != tex {
		t.Error("Get does not return the synced texture")
	}

	// Same size syncs reuse the texture.
	again, created, err := cache.Sync(1, 4, 4, pix, true)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if created {
		t.Error("same-size Sync reported created = true")
	}
	if again != tex {
		t.Error("same-size Sync returned a different texture")
	}
}

func TestTextureCacheSyncRecreatesOnResize(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	cache := NewTextureCache(device, queue)
	defer cache.Destroy()

	old, _, err := cache.Sync(1, 4, 4, make([]byte, 4*4*4), true)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	grown, created, err := cache.Sync(1, 8, 8, make([]byte, 8*8*4), true)
	if err != nil {
		t.Fatalf("Sync after resize failed: %v", err)
	}
	if !created {
		t.Error("resize Sync reported created = false")
	}
	if grown == old {
		t.Error("resize Sync reused the old texture")
	}
	if old.Raw() != nil {
		t.Error("old texture not destroyed on resize")
	}
	if grown.Width() != 8 || grown.Height() != 8 {
		t.Errorf("size = %dx%d, want 8x8", grown.Width(), grown.Height())
	}
}

func TestTextureCacheSyncNilPixels(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	cache := NewTextureCache(device, queue)
	defer cache.Destroy()

	tex, created, err := cache.Sync(9, 4, 4, nil, false)
	if err != nil {
		t.Fatalf("Sync with nil pixels failed: %v", err)
	}
	if !created || tex == nil {
		t.Errorf("created = %v, tex = %v, want true and non-nil", created, tex)
	}
}

func TestTextureCacheAdopt(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	cache := NewTextureCache(device, queue)
	defer cache.Destroy()

	owned, _, err := cache.Sync(2, 4, 4, make([]byte, 4*4*4), true)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	rt, err := NewRenderTexture(device, queue, 8, 8, "rt")
	if err != nil {
		t.Fatalf("NewRenderTexture failed: %v", err)
	}
	defer rt.Destroy()

	cache.Adopt(2, rt)
	if cache.Get(2) != rt {
		t.Error("Get does not return the adopted texture")
	}
	// Adoption destroys the owned entry it replaces.
	if owned.Raw() != nil {
		t.Error("replaced owned texture not destroyed")
	}

	// Adopted entries are never resized or uploaded by Sync.
	tex, created, err := cache.Sync(2, 16, 16, make([]byte, 16*16*4), true)
	if err != nil {
		t.Fatalf("Sync on adopted entry failed: %v", err)
	}
	if created || tex != rt {
		t.Errorf("Sync on adopted entry: created = %v, tex == rt %v; want false, true",
			created, tex == rt)
	}
}

func TestTextureCacheRemove(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	cache := NewTextureCache(device, queue)
	defer cache.Destroy()

	owned, _, err := cache.Sync(1, 4, 4, make([]byte, 4*4*4), true)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	rt, err := NewRenderTexture(device, queue, 4, 4, "rt")
	if err != nil {
		t.Fatalf("NewRenderTexture failed: %v", err)
	}
	defer rt.Destroy()
	cache.Adopt(2, rt)

	cache.Remove(1)
	cache.Remove(2)
	cache.Remove(3) // absent ids are fine

	if cache.Get(1) != nil || cache.Get(2) != nil {
		t.Error("entries survive Remove")
	}
	if owned.Raw() != nil {
		t.Error("owned texture not destroyed by Remove")
	}
	if rt.Raw() == nil {
		t.Error("adopted texture destroyed by Remove")
	}
}

func TestTextureCacheDestroy(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	cache := NewTextureCache(device, queue)

	owned, _, err := cache.Sync(1, 4, 4, make([]byte, 4*4*4), true)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	rt, err := NewRenderTexture(device, queue, 4, 4, "rt")
	if err != nil {
		t.Fatalf("NewRenderTexture failed: %v", err)
	}
	defer rt.Destroy()
	cache.Adopt(2, rt)

	cache.Destroy()

	if owned.Raw() != nil {
		t.Error("owned texture not destroyed")
	}
	if rt.Raw() == nil {
		t.Error("adopted texture destroyed")
	}
	if cache.Get(1) != nil || cache.Get(2) != nil {
		t.Error("cache still holds entries after Destroy")
	}
}
