// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// VertexStride is the byte stride per vertex in the sprite pipeline.
// Layout per vertex:
//
//	position  (vec2<f32>) =  8 bytes (location 0)
//	color     (vec4<f32>) = 16 bytes (location 1)
//	tex_coord (vec2<f32>) =  8 bytes (location 2)
//
// Total = 32 bytes per vertex.
const VertexStride = 32

// UniformSize is the byte size of the sprite uniform buffer:
// one projection mat4x4<f32>.
const UniformSize = 64

// Pipeline owns the GPU objects every sprite batch shares: the
// compiled shader, bind group layout, render pipeline, and sampler.
// Per-texture variation happens through bind groups, which the
// pipeline caches by texture ID.
type Pipeline struct {
	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
	sampler    hal.Sampler

	// binds caches one bind group per texture ID. An entry goes stale
	// when the cache hands out a different *Texture for the same ID
	// (recreated after a resize); pointer identity detects that.
	binds map[uint32]pipelineBind
}

type pipelineBind struct {
	group hal.BindGroup
	tex   *Texture
}

// NewPipeline compiles the sprite shader and creates the render
// pipeline targeting the given color format.
func NewPipeline(device hal.Device, queue hal.Queue, format gputypes.TextureFormat) (*Pipeline, error) {
	p := &Pipeline{
		device: device,
		queue:  queue,
		format: format,
		binds:  make(map[uint32]pipelineBind),
	}
	if err := p.create(); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) create() error {
	shader, err := compileShader(p.device, "sprite_shader", spriteShaderSource)
	if err != nil {
		return err
	}
	p.shader = shader

	// Bind group layout:
	//   Binding 0: projection uniform (vertex)
	//   Binding 1: batch texture (fragment)
	//   Binding 2: sampler (fragment)
	bindLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "sprite_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create sprite bind layout: %w", err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "sprite_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create sprite pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	sampler, err := p.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "sprite_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("gpu: create sprite sampler: %w", err)
	}
	p.sampler = sampler

	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "sprite_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
			Buffers:    spriteVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    p.format,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create sprite pipeline: %w", err)
	}
	p.pipeline = pipeline
	return nil
}

// spriteVertexLayout returns the vertex buffer layout for the sprite
// pipeline. Matches VertexInput in sprite.wgsl:
//
//	location 0: position  (vec2<f32>)
//	location 1: color     (vec4<f32>)
//	location 2: tex_coord (vec2<f32>)
func spriteVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},  // position
				{Format: gputypes.VertexFormatFloat32x4, Offset: 8, ShaderLocation: 1},  // color
				{Format: gputypes.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2}, // tex_coord
			},
		},
	}
}

// Format returns the color format the pipeline renders to.
func (p *Pipeline) Format() gputypes.TextureFormat { return p.format }

// Raw returns the underlying render pipeline.
func (p *Pipeline) Raw() hal.RenderPipeline { return p.pipeline }

// Bind returns the bind group joining the frame uniform and tex,
// creating it on first use and recreating it when the cached texture
// for id changed identity.
func (p *Pipeline) Bind(id uint32, uniform *UniformBuffer, tex *Texture) (hal.BindGroup, error) {
	if b, ok := p.binds[id]; ok {
		if b.tex == tex {
			return b.group, nil
		}
		p.device.DestroyBindGroup(b.group)
		delete(p.binds, id)
	}
	group, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  fmt.Sprintf("sprite_bind_%d", id),
		Layout: p.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniform.Raw().NativeHandle(), Offset: 0, Size: uniform.Size(),
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: tex.View().NativeHandle(),
			}},
			{Binding: 2, Resource: gputypes.SamplerBinding{
				Sampler: p.sampler.NativeHandle(),
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create sprite bind group for texture %d: %w", id, err)
	}
	p.binds[id] = pipelineBind{group: group, tex: tex}
	return group, nil
}

// DropBind destroys the cached bind group for id, if any. Call when a
// texture leaves the cache so the bind group does not outlive its view.
func (p *Pipeline) DropBind(id uint32) {
	if b, ok := p.binds[id]; ok {
		p.device.DestroyBindGroup(b.group)
		delete(p.binds, id)
	}
}

// Destroy releases all GPU resources in reverse creation order. Safe
// to call more than once.
func (p *Pipeline) Destroy() {
	if p.device == nil {
		return
	}
	for id, b := range p.binds {
		p.device.DestroyBindGroup(b.group)
		delete(p.binds, id)
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.sampler != nil {
		p.device.DestroySampler(p.sampler)
		p.sampler = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		p.device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
