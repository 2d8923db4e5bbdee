package sprite

import (
	"image"
	"image/draw"
	"sync/atomic"
)

// TextureID identifies a texture for the lifetime of the process.
// The batcher keys its draw queues and GPU-side caches by it, so two
// textures never share an ID even after one is released.
type TextureID uint32

var lastTextureID atomic.Uint32

func nextTextureID() TextureID {
	return TextureID(lastTextureID.Add(1))
}

// Texture is a CPU-resident image sprites sample from. Pixels stay on
// the CPU so the atlas can blit regions out of them; the GPU copy is
// created and refreshed by the renderer when the texture is drawn.
//
// A texture is either constructed from pixels that already exist or
// from a load function that runs the first time the texture is drawn.
type Texture struct {
	id  TextureID
	pix *image.RGBA

	width  int
	height int

	load    func() (image.Image, error)
	loaded  bool
	loadErr error

	// dirty marks CPU pixels newer than the GPU copy.
	dirty bool

	// volatile textures change under the renderer between frames
	// (render targets, atlas pages) and are never packed into the
	// atlas themselves.
	volatile bool
}

// NewTexture creates a texture from an image. The pixels are copied
// into RGBA form unless img already is an *image.RGBA anchored at the
// origin, in which case its storage is shared.
func NewTexture(img image.Image) *Texture {
	t := &Texture{id: nextTextureID()}
	t.adopt(img)
	return t
}

// NewLazyTexture creates a texture whose pixels come from load, called
// the first time the texture is needed. A draw that triggers a failing
// load is skipped; the error sticks and the load is not retried.
func NewLazyTexture(load func() (image.Image, error)) *Texture {
	return &Texture{id: nextTextureID(), load: load}
}

func (t *Texture) adopt(img image.Image) {
	t.pix = toRGBA(img)
	b := t.pix.Bounds()
	t.width = b.Dx()
	t.height = b.Dy()
	t.loaded = true
	t.dirty = true
}

// newPixmapTexture wraps an existing RGBA pixmap without copying.
// Used for atlas pages and software render targets, whose storage is
// owned elsewhere.
func newPixmapTexture(pix *image.RGBA) *Texture {
	t := &Texture{id: nextTextureID(), volatile: true}
	t.pix = pix
	b := pix.Bounds()
	t.width = b.Dx()
	t.height = b.Dy()
	t.loaded = true
	t.dirty = true
	return t
}

// newTargetTexture creates a handle for a GPU-resident render target.
// It has no CPU pixels; the renderer adopts the GPU texture under the
// same ID.
func newTargetTexture(width, height int) *Texture {
	return &Texture{
		id:       nextTextureID(),
		width:    width,
		height:   height,
		loaded:   true,
		volatile: true,
	}
}

// ID returns the texture's process-unique identity.
func (t *Texture) ID() TextureID { return t.id }

// Width returns the pixel width, or 0 before a lazy texture loads.
func (t *Texture) Width() int { return t.width }

// Height returns the pixel height, or 0 before a lazy texture loads.
func (t *Texture) Height() int { return t.height }

// Bounds returns the full-texture source rectangle.
func (t *Texture) Bounds() Rect {
	return Rect{W: float32(t.width), H: float32(t.height)}
}

// Loaded reports whether pixels are resident.
func (t *Texture) Loaded() bool { return t.loaded }

// Image returns the CPU pixels, or nil before a lazy texture loads.
// Callers that mutate the returned image must call MarkDirty so the
// GPU copy is refreshed on the next draw.
func (t *Texture) Image() *image.RGBA { return t.pix }

// Update replaces the texture's pixels. The size may change; the GPU
// copy is recreated on the next draw.
func (t *Texture) Update(img image.Image) {
	t.adopt(img)
	t.loadErr = nil
}

// MarkDirty flags the CPU pixels as newer than the GPU copy.
func (t *Texture) MarkDirty() { t.dirty = true }

func (t *Texture) markClean() { t.dirty = false }

// ensureLoaded runs the pending lazy load, if any. The result is
// cached either way: a texture that failed to load stays failed.
func (t *Texture) ensureLoaded() error {
	if t.loaded {
		return nil
	}
	if t.loadErr != nil {
		return t.loadErr
	}
	if t.load == nil {
		t.loadErr = ErrTextureNotLoaded
		return t.loadErr
	}
	img, err := t.load()
	if err != nil {
		t.loadErr = err
		Logger().Warn("sprite: texture load failed", "id", t.id, "error", err)
		return err
	}
	if img == nil {
		t.loadErr = ErrTextureNotLoaded
		return t.loadErr
	}
	t.adopt(img)
	Logger().Debug("sprite: texture loaded", "id", t.id, "width", t.width, "height", t.height)
	return nil
}

// toRGBA returns img as an *image.RGBA anchored at (0, 0), copying
// only when the representation requires it.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
