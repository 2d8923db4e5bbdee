// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// copyBufferAlignment is the alignment required for buffer copy operations.
const copyBufferAlignment uint64 = 4

// alignUp rounds size up to the next multiple of copyBufferAlignment.
func alignUp(size uint64) uint64 {
	return (size + copyBufferAlignment - 1) &^ (copyBufferAlignment - 1)
}

// VertexBuffer is a growable GPU vertex buffer.
//
// Capacity only grows, never shrinks. Grow replaces the underlying buffer
// without preserving contents; callers reallocate only between batches, so
// the discarded contents have already been drawn.
type VertexBuffer struct {
	device hal.Device
	queue  hal.Queue
	buf    hal.Buffer

	capacity uint64 // bytes
	label    string

	released atomic.Bool
}

// NewVertexBuffer creates a vertex buffer with the given byte capacity.
func NewVertexBuffer(device hal.Device, queue hal.Queue, capacity uint64, label string) (*VertexBuffer, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("gpu: vertex buffer requires device and queue")
	}
	if capacity == 0 {
		return nil, fmt.Errorf("gpu: vertex buffer capacity is 0")
	}
	capacity = alignUp(capacity)
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  capacity,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create vertex buffer: %w", err)
	}
	return &VertexBuffer{
		device:   device,
		queue:    queue,
		buf:      buf,
		capacity: capacity,
		label:    label,
	}, nil
}

// Capacity returns the buffer capacity in bytes.
func (b *VertexBuffer) Capacity() uint64 { return b.capacity }

// Raw returns the underlying HAL buffer, or nil after Destroy.
func (b *VertexBuffer) Raw() hal.Buffer {
	if b.released.Load() {
		return nil
	}
	return b.buf
}

// Grow replaces the buffer with one of at least the given byte capacity.
// Contents are not preserved. No-op when the buffer is already large enough.
func (b *VertexBuffer) Grow(capacity uint64) error {
	if b.released.Load() {
		return fmt.Errorf("gpu: vertex buffer released")
	}
	capacity = alignUp(capacity)
	if capacity <= b.capacity {
		return nil
	}
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: b.label,
		Size:  capacity,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: grow vertex buffer to %d: %w", capacity, err)
	}
	b.device.DestroyBuffer(b.buf)
	slogger().Debug("gpu: vertex buffer grown", "from", b.capacity, "to", capacity)
	b.buf = buf
	b.capacity = capacity
	return nil
}

// Upload writes data to the start of the buffer. The data must fit.
func (b *VertexBuffer) Upload(data []byte) error {
	if b.released.Load() {
		return fmt.Errorf("gpu: vertex buffer released")
	}
	if uint64(len(data)) > b.capacity {
		return fmt.Errorf("gpu: upload of %d bytes exceeds buffer capacity %d", len(data), b.capacity)
	}
	b.queue.WriteBuffer(b.buf, 0, data)
	return nil
}

// Destroy releases the buffer. Safe to call more than once.
func (b *VertexBuffer) Destroy() {
	if !b.released.CompareAndSwap(false, true) {
		return
	}
	if b.buf != nil {
		b.device.DestroyBuffer(b.buf)
		b.buf = nil
	}
}

// UniformBuffer is a fixed-size GPU buffer for shader uniform data.
type UniformBuffer struct {
	device hal.Device
	queue  hal.Queue
	buf    hal.Buffer

	size uint64

	released atomic.Bool
}

// NewUniformBuffer creates a uniform buffer of the given byte size.
func NewUniformBuffer(device hal.Device, queue hal.Queue, size uint64, label string) (*UniformBuffer, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("gpu: uniform buffer requires device and queue")
	}
	if size == 0 {
		return nil, fmt.Errorf("gpu: uniform buffer size is 0")
	}
	size = alignUp(size)
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create uniform buffer: %w", err)
	}
	return &UniformBuffer{device: device, queue: queue, buf: buf, size: size}, nil
}

// Size returns the buffer size in bytes.
func (b *UniformBuffer) Size() uint64 { return b.size }

// Raw returns the underlying HAL buffer, or nil after Destroy.
func (b *UniformBuffer) Raw() hal.Buffer {
	if b.released.Load() {
		return nil
	}
	return b.buf
}

// Write uploads data to the start of the buffer. The data must fit.
func (b *UniformBuffer) Write(data []byte) error {
	if b.released.Load() {
		return fmt.Errorf("gpu: uniform buffer released")
	}
	if uint64(len(data)) > b.size {
		return fmt.Errorf("gpu: write of %d bytes exceeds uniform buffer size %d", len(data), b.size)
	}
	b.queue.WriteBuffer(b.buf, 0, data)
	return nil
}

// Destroy releases the buffer. Safe to call more than once.
func (b *UniformBuffer) Destroy() {
	if !b.released.CompareAndSwap(false, true) {
		return
	}
	if b.buf != nil {
		b.device.DestroyBuffer(b.buf)
		b.buf = nil
	}
}
