// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// gpuWaitTimeout bounds how long a submit waits for the GPU.
const gpuWaitTimeout = 5 * time.Second

// Frame encodes one render pass per batch flush against a fixed color
// target. The first flush of a frame clears the target; later flushes
// load it, so batches accumulate like draws within a single pass.
//
// Encoding pass-per-flush instead of draw-per-pass keeps bind group
// and vertex buffer lifetimes trivial: everything a pass references is
// immutable until Submit returns, and Submit waits.
type Frame struct {
	device hal.Device
	queue  hal.Queue

	target hal.TextureView
	clear  gputypes.Color

	// first is true until the frame's first flush.
	first bool
}

// NewFrame creates a frame encoder for the given target view.
func NewFrame(device hal.Device, queue hal.Queue) *Frame {
	return &Frame{device: device, queue: queue}
}

// SetTarget points the frame at a color target view.
func (f *Frame) SetTarget(view hal.TextureView) {
	f.target = view
}

// Begin starts a new frame: the next flush clears the target to the
// given color.
func (f *Frame) Begin(clear [4]float32) {
	f.clear = gputypes.Color{
		R: float64(clear[0]),
		G: float64(clear[1]),
		B: float64(clear[2]),
		A: float64(clear[3]),
	}
	f.first = true
}

// Flush encodes and submits one draw of vertexCount vertices from
// vbuf, bound to group, and waits for completion.
func (f *Frame) Flush(pipe *Pipeline, group hal.BindGroup, vbuf *VertexBuffer, vertexCount uint32) error {
	if f.target == nil {
		return fmt.Errorf("gpu: frame has no target")
	}

	encoder, err := f.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "sprite_encoder",
	})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("sprite_batch"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}

	loadOp := gputypes.LoadOpLoad
	if f.first {
		loadOp = gputypes.LoadOpClear
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "sprite_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       f.target,
			LoadOp:     loadOp,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: f.clear,
		}},
	})
	rp.SetPipeline(pipe.Raw())
	rp.SetBindGroup(0, group, nil)
	rp.SetVertexBuffer(0, vbuf.Raw(), 0)
	rp.Draw(vertexCount, 1, 0, 0)
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer f.device.FreeCommandBuffer(cmdBuf)

	if err := submitAndWait(f.device, f.queue, cmdBuf); err != nil {
		return err
	}
	f.first = false
	return nil
}

// EnsureCleared encodes a clear-only pass when the frame never
// flushed, so an empty frame still leaves the target in its clear
// color rather than holding last frame's pixels.
func (f *Frame) EnsureCleared() error {
	if !f.first {
		return nil
	}
	if f.target == nil {
		return fmt.Errorf("gpu: frame has no target")
	}

	encoder, err := f.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "sprite_encoder",
	})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("sprite_clear"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "sprite_clear_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       f.target,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: f.clear,
		}},
	})
	rp.End()
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer f.device.FreeCommandBuffer(cmdBuf)

	if err := submitAndWait(f.device, f.queue, cmdBuf); err != nil {
		return err
	}
	f.first = false
	return nil
}

// TransitionTexture moves tex between usage layouts with a standalone
// barrier submit. Backends without explicit layouts treat it as a
// no-op barrier.
func TransitionTexture(device hal.Device, queue hal.Queue, tex *Texture, from, to gputypes.TextureUsage) error {
	if tex == nil || tex.Raw() == nil {
		return fmt.Errorf("gpu: transition of released texture")
	}
	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "sprite_transition_encoder",
	})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("sprite_transition"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex.Raw(),
		Usage: hal.TextureUsageTransition{
			OldUsage: from,
			NewUsage: to,
		},
	}})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer device.FreeCommandBuffer(cmdBuf)
	return submitAndWait(device, queue, cmdBuf)
}

func submitAndWait(device hal.Device, queue hal.Queue, cmdBuf hal.CommandBuffer) error {
	fence, err := device.CreateFence()
	if err != nil {
		return fmt.Errorf("gpu: create fence: %w", err)
	}
	defer device.DestroyFence(fence)

	if err := queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("gpu: submit: %w", err)
	}
	ok, err := device.Wait(fence, 1, gpuWaitTimeout)
	if err != nil || !ok {
		return fmt.Errorf("gpu: wait for GPU: ok=%v err=%w", ok, err)
	}
	return nil
}

// ReadTexture copies a render texture's pixels back to the CPU as
// tightly packed RGBA rows. from names the texture's current usage
// layout; the texture is returned to it afterward.
func ReadTexture(device hal.Device, queue hal.Queue, tex *Texture, from gputypes.TextureUsage) ([]byte, error) {
	if tex == nil || tex.Raw() == nil {
		return nil, fmt.Errorf("gpu: read of released texture")
	}
	w, h := tex.Width(), tex.Height()

	// Copy pitch must be 256-byte aligned for buffer-texture copies.
	bytesPerRow := w * 4
	const copyPitchAlignment = 256
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "sprite_readback",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create staging buffer: %w", err)
	}
	defer device.DestroyBuffer(staging)

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "sprite_readback_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("sprite_readback"); err != nil {
		return nil, fmt.Errorf("gpu: begin encoding: %w", err)
	}

	// Move the texture to copy-source for the transfer, then back to
	// where it was. No-op on backends without explicit layouts.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex.Raw(),
		Usage: hal.TextureUsageTransition{
			OldUsage: from,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(tex.Raw(), staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: tex.Raw(), MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex.Raw(),
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: from,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer device.FreeCommandBuffer(cmdBuf)

	if err := submitAndWait(device, queue, cmdBuf); err != nil {
		return nil, err
	}

	readback := make([]byte, stagingSize)
	if err := queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("gpu: readback: %w", err)
	}

	if alignedBytesPerRow == bytesPerRow {
		return readback[:uint64(bytesPerRow)*uint64(h)], nil
	}
	tight := make([]byte, uint64(bytesPerRow)*uint64(h))
	for row := uint32(0); row < h; row++ {
		srcOff := uint64(row) * uint64(alignedBytesPerRow)
		dstOff := uint64(row) * uint64(bytesPerRow)
		copy(tight[dstOff:dstOff+uint64(bytesPerRow)], readback[srcOff:srcOff+uint64(bytesPerRow)])
	}
	return tight, nil
}
