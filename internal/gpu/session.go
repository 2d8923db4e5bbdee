// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Session owns the per-surface GPU state for one batching front: the
// pipeline, the frame uniform, the growable vertex buffer, and the
// frame encoder. Texture state may be shared between sessions (a
// render target samples the same sprites as its parent renderer), so
// the texture cache is either owned or borrowed.
type Session struct {
	ctx *Context

	pipe    *Pipeline
	uniform *UniformBuffer
	vbuf    *VertexBuffer
	frame   *Frame

	cache     *TextureCache
	ownsCache bool

	// target is set when rendering into an offscreen texture the
	// session owns a reference to; surface targets leave it nil.
	target *Texture

	// sampledTarget marks a target that other sessions sample between
	// frames (a render target drawn as a sprite). EndFrame then parks
	// the texture in sampling layout instead of attachment layout.
	sampledTarget bool
	targetUsage   gputypes.TextureUsage

	uniformScratch [UniformSize]byte
}

// NewSession creates a session rendering to the given color format
// with room for initialVertices. Pass a shared TextureCache to sample
// the same textures as another session, or nil to own a fresh one.
func NewSession(ctx *Context, format gputypes.TextureFormat, initialVertices int, shared *TextureCache) (*Session, error) {
	pipe, err := NewPipeline(ctx.Device(), ctx.Queue(), format)
	if err != nil {
		return nil, err
	}
	uniform, err := NewUniformBuffer(ctx.Device(), ctx.Queue(), UniformSize, "sprite_uniform")
	if err != nil {
		pipe.Destroy()
		return nil, err
	}
	vbuf, err := NewVertexBuffer(ctx.Device(), ctx.Queue(),
		uint64(initialVertices)*VertexStride, "sprite_vertices")
	if err != nil {
		uniform.Destroy()
		pipe.Destroy()
		return nil, err
	}
	s := &Session{
		ctx:     ctx,
		pipe:    pipe,
		uniform: uniform,
		vbuf:    vbuf,
		frame:   NewFrame(ctx.Device(), ctx.Queue()),
		cache:   shared,
	}
	if s.cache == nil {
		s.cache = NewTextureCache(ctx.Device(), ctx.Queue())
		s.ownsCache = true
	}
	return s, nil
}

// Cache returns the session's texture cache for sharing with another
// session.
func (s *Session) Cache() *TextureCache { return s.cache }

// Format returns the color format the session's pipeline renders to.
func (s *Session) Format() gputypes.TextureFormat { return s.pipe.Format() }

// SetTargetTexture points the session at an offscreen render texture.
func (s *Session) SetTargetTexture(t *Texture) {
	s.target = t
	s.targetUsage = gputypes.TextureUsageRenderAttachment
	s.frame.SetTarget(t.View())
}

// SetTargetSampled marks the offscreen target as sampled between
// frames, so frames leave it in sampling layout.
func (s *Session) SetTargetSampled(sampled bool) {
	s.sampledTarget = sampled
}

// SetSurfaceTarget points the session at an externally owned surface
// view. view must be a hal.TextureView; it arrives as any so callers
// outside this package need not name HAL types.
func (s *Session) SetSurfaceTarget(view any) error {
	tv, ok := view.(hal.TextureView)
	if !ok || tv == nil {
		return fmt.Errorf("gpu: surface target is not a hal.TextureView")
	}
	s.target = nil
	s.frame.SetTarget(tv)
	return nil
}

// Target returns the session's offscreen target texture, or nil when
// rendering to a surface.
func (s *Session) Target() *Texture { return s.target }

// BeginFrame uploads the projection matrix and arms the clear.
func (s *Session) BeginFrame(proj [16]float32, clear [4]float32) error {
	buf := s.uniformScratch[:]
	for i, v := range proj {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	if err := s.uniform.Write(buf); err != nil {
		return err
	}
	if s.target != nil && s.targetUsage != gputypes.TextureUsageRenderAttachment {
		err := TransitionTexture(s.ctx.Device(), s.ctx.Queue(), s.target,
			s.targetUsage, gputypes.TextureUsageRenderAttachment)
		if err != nil {
			return err
		}
		s.targetUsage = gputypes.TextureUsageRenderAttachment
	}
	s.frame.Begin(clear)
	return nil
}

// Flush draws one batch: syncs the texture identified by id (uploading
// pix when dirty), resolves its bind group, uploads the vertex bytes,
// and submits a render pass drawing vertexCount vertices.
func (s *Session) Flush(id uint32, width, height uint32, pix []byte, dirty bool, verts []byte, vertexCount uint32) error {
	tex, created, err := s.cache.Sync(id, width, height, pix, dirty)
	if err != nil {
		return err
	}
	if created {
		s.pipe.DropBind(id)
	}
	group, err := s.pipe.Bind(id, s.uniform, tex)
	if err != nil {
		return err
	}
	if err := s.vbuf.Upload(verts); err != nil {
		return err
	}
	return s.frame.Flush(s.pipe, group, s.vbuf, vertexCount)
}

// Reserve grows the vertex buffer to hold at least capacity vertices.
func (s *Session) Reserve(capacity int) error {
	return s.vbuf.Grow(uint64(capacity) * VertexStride)
}

// EndFrame closes the frame. A frame that never flushed still clears
// its target; a sampled target is handed over to sampling layout.
func (s *Session) EndFrame() error {
	if err := s.frame.EnsureCleared(); err != nil {
		return err
	}
	if s.sampledTarget && s.target != nil {
		err := TransitionTexture(s.ctx.Device(), s.ctx.Queue(), s.target,
			s.targetUsage, gputypes.TextureUsageTextureBinding)
		if err != nil {
			return err
		}
		s.targetUsage = gputypes.TextureUsageTextureBinding
	}
	return nil
}

// AdoptTexture registers an externally owned texture under id so
// sprites can sample it, replacing any cached texture for that id.
func (s *Session) AdoptTexture(id uint32, t *Texture) {
	s.pipe.DropBind(id)
	s.cache.Adopt(id, t)
}

// ForgetTexture drops the cache entry and bind group for id.
func (s *Session) ForgetTexture(id uint32) {
	s.pipe.DropBind(id)
	s.cache.Remove(id)
}

// DropBind discards the session's bind group for id without touching
// the cache. Needed when another session sharing the cache removes or
// replaces the texture.
func (s *Session) DropBind(id uint32) {
	s.pipe.DropBind(id)
}

// ReadTarget copies the offscreen target's pixels back to the CPU as
// tightly packed RGBA rows. Only valid for texture targets.
func (s *Session) ReadTarget() ([]byte, error) {
	if s.target == nil {
		return nil, fmt.Errorf("gpu: session has no readable target")
	}
	return ReadTexture(s.ctx.Device(), s.ctx.Queue(), s.target, s.targetUsage)
}

// Destroy releases everything the session owns. Shared caches and the
// context survive.
func (s *Session) Destroy() {
	if s.vbuf != nil {
		s.vbuf.Destroy()
		s.vbuf = nil
	}
	if s.uniform != nil {
		s.uniform.Destroy()
		s.uniform = nil
	}
	if s.pipe != nil {
		s.pipe.Destroy()
		s.pipe = nil
	}
	if s.ownsCache && s.cache != nil {
		s.cache.Destroy()
		s.cache = nil
	}
}
