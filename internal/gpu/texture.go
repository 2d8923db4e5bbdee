// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Texture is a GPU-resident RGBA8 texture with its sampling view.
type Texture struct {
	device hal.Device
	queue  hal.Queue
	tex    hal.Texture
	view   hal.TextureView

	width  uint32
	height uint32

	released atomic.Bool
}

func newTexture(device hal.Device, queue hal.Queue, width, height uint32, usage gputypes.TextureUsage, label string) (*Texture, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("gpu: texture requires device and queue")
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("gpu: texture size %dx%d is empty", width, height)
	}
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create texture %q: %w", label, err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("gpu: create texture view %q: %w", label, err)
	}
	return &Texture{
		device: device,
		queue:  queue,
		tex:    tex,
		view:   view,
		width:  width,
		height: height,
	}, nil
}

// NewSampledTexture creates a texture for sampling in the fragment shader.
func NewSampledTexture(device hal.Device, queue hal.Queue, width, height uint32, label string) (*Texture, error) {
	return newTexture(device, queue, width, height,
		gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst, label)
}

// NewRenderTexture creates an offscreen color target that can also be
// sampled and read back to the CPU.
func NewRenderTexture(device hal.Device, queue hal.Queue, width, height uint32, label string) (*Texture, error) {
	return newTexture(device, queue, width, height,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopySrc, label)
}

// Width returns the texture width in pixels.
func (t *Texture) Width() uint32 { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() uint32 { return t.height }

// View returns the sampling view, or nil after Destroy.
func (t *Texture) View() hal.TextureView {
	if t.released.Load() {
		return nil
	}
	return t.view
}

// Raw returns the underlying HAL texture, or nil after Destroy.
func (t *Texture) Raw() hal.Texture {
	if t.released.Load() {
		return nil
	}
	return t.tex
}

// Upload writes a full image worth of RGBA pixels to the texture.
func (t *Texture) Upload(pix []byte) error {
	if t.released.Load() {
		return fmt.Errorf("gpu: texture released")
	}
	want := int(t.width) * int(t.height) * 4
	if len(pix) != want {
		return fmt.Errorf("gpu: upload of %d bytes, texture wants %d", len(pix), want)
	}
	t.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
		},
		pix,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  t.width * 4,
			RowsPerImage: t.height,
		},
		&hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
	)
	return nil
}

// Destroy releases the texture and its view. Safe to call more than once.
func (t *Texture) Destroy() {
	if !t.released.CompareAndSwap(false, true) {
		return
	}
	if t.view != nil {
		t.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		t.device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// TextureCache maps caller texture IDs to GPU textures.
//
// Entries created by Sync are owned by the cache and destroyed with it.
// Adopted entries (render targets sampled as sprites) stay owned by their
// creator.
type TextureCache struct {
	device hal.Device
	queue  hal.Queue

	entries map[uint32]*cacheEntry
}

type cacheEntry struct {
	tex   *Texture
	owned bool
}

// NewTextureCache creates an empty cache bound to a device and queue.
func NewTextureCache(device hal.Device, queue hal.Queue) *TextureCache {
	return &TextureCache{
		device:  device,
		queue:   queue,
		entries: make(map[uint32]*cacheEntry),
	}
}

// Sync ensures a texture exists for id at the given size and uploads pix
// when dirty. A size change recreates the texture. Returns the texture and
// whether it was (re)created, so callers can drop stale bind groups.
func (c *TextureCache) Sync(id uint32, width, height uint32, pix []byte, dirty bool) (*Texture, bool, error) {
	e := c.entries[id]
	created := false
	if e != nil && e.owned && (e.tex.width != width || e.tex.height != height) {
		e.tex.Destroy()
		delete(c.entries, id)
		e = nil
	}
	if e == nil {
		tex, err := NewSampledTexture(c.device, c.queue, width, height, fmt.Sprintf("sprite_tex_%d", id))
		if err != nil {
			return nil, false, err
		}
		e = &cacheEntry{tex: tex, owned: true}
		c.entries[id] = e
		created = true
		dirty = true
	}
	if dirty && pix != nil && e.owned {
		if err := e.tex.Upload(pix); err != nil {
			return nil, created, err
		}
	}
	return e.tex, created, nil
}

// Adopt registers an externally owned texture (e.g. a render target) under
// id so it can be sampled like any other. Replaces any owned entry.
func (c *TextureCache) Adopt(id uint32, tex *Texture) {
	if e, ok := c.entries[id]; ok && e.owned {
		e.tex.Destroy()
	}
	c.entries[id] = &cacheEntry{tex: tex, owned: false}
}

// Get returns the cached texture for id, or nil.
func (c *TextureCache) Get(id uint32) *Texture {
	if e, ok := c.entries[id]; ok {
		return e.tex
	}
	return nil
}

// Remove destroys the owned texture for id and forgets adopted ones.
func (c *TextureCache) Remove(id uint32) {
	e, ok := c.entries[id]
	if !ok {
		return
	}
	if e.owned {
		e.tex.Destroy()
	}
	delete(c.entries, id)
}

// Destroy releases all owned textures and clears the cache.
func (c *TextureCache) Destroy() {
	for id, e := range c.entries {
		if e.owned {
			e.tex.Destroy()
		}
		delete(c.entries, id)
	}
}
