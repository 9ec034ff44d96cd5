//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/dot"
	"github.com/gogpu/dot/internal/wgsl"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// viewportUniformSize is the byte size of the viewport uniform:
// vec2<f32> size plus vec2<f32> padding.
const viewportUniformSize = 16

// Formats of the offscreen target.
const (
	colorFormat = gputypes.TextureFormatRGBA8Unorm
	depthFormat = gputypes.TextureFormatDepth24PlusStencil8
)

// pipelineKey identifies a render pipeline variant of a program. The
// pipeline depends on the vertex buffer layout, which is only known at
// draw time.
type pipelineKey struct {
	location int
	format   gputypes.VertexFormat
	stride   uint64
}

// vertexFormat maps a float attribute layout to a WebGPU vertex format.
func vertexFormat(l dot.AttribLayout) (gputypes.VertexFormat, error) {
	if l.Type != dot.Float32 {
		return 0, fmt.Errorf("%w: attribute type %d", ErrInvalidValue, l.Type)
	}
	switch l.Size {
	case 1:
		return gputypes.VertexFormatFloat32, nil
	case 2:
		return gputypes.VertexFormatFloat32x2, nil
	case 3:
		return gputypes.VertexFormatFloat32x3, nil
	case 4:
		return gputypes.VertexFormatFloat32x4, nil
	default:
		return 0, fmt.Errorf("%w: attribute size %d", ErrInvalidValue, l.Size)
	}
}

// createLayouts builds the bind group and pipeline layouts of a linked
// program. The only uniform binding supported is the viewport uniform at
// @group(0) @binding(0).
func (d *Device) createLayouts(prog *programObject, linked *wgsl.Program) error {
	var entries []gputypes.BindGroupLayoutEntry
	for _, u := range linked.Uniforms {
		if u.Group != 0 || u.Binding != 0 {
			return fmt.Errorf("uniform %s at @group(%d) @binding(%d) is not supported", u.Name, u.Group, u.Binding)
		}
		if u.Size < 8 || u.Size > viewportUniformSize {
			return fmt.Errorf("uniform %s: type %s does not hold a vec2<f32> viewport size", u.Name, u.Type)
		}
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		})
	}

	var groups []hal.BindGroupLayout
	if len(entries) > 0 {
		layout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   "dot_viewport_bind_layout",
			Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("create bind group layout: %w", err)
		}
		prog.bindLayout = layout
		groups = append(groups, layout)

		bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  "dot_viewport_bind",
			Layout: layout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{Buffer: d.uniform.NativeHandle(), Offset: 0, Size: viewportUniformSize}},
			},
		})
		if err != nil {
			d.releaseProgram(prog)
			return fmt.Errorf("create bind group: %w", err)
		}
		prog.bindGroup = bg
	}

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "dot_pipe_layout",
		BindGroupLayouts: groups,
	})
	if err != nil {
		d.releaseProgram(prog)
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	prog.pipeLayout = pipeLayout
	return nil
}

// pipeline returns the render pipeline of prog for the given vertex
// layout, creating it on first use.
func (d *Device) pipeline(prog *programObject, key pipelineKey) (hal.RenderPipeline, error) {
	if p, ok := prog.pipelines[key]; ok {
		return p, nil
	}

	step := gputypes.VertexStepModeVertex
	topology := gputypes.PrimitiveTopologyPointList
	if prog.linked.Sprite {
		step = gputypes.VertexStepModeInstance
		topology = gputypes.PrimitiveTopologyTriangleStrip
	}

	p, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "dot_point_pipeline",
		Layout: prog.pipeLayout,
		Vertex: hal.VertexState{
			Module:     prog.vs,
			EntryPoint: prog.linked.VertexEntry,
			Buffers: []gputypes.VertexBufferLayout{{
				ArrayStride: key.stride,
				StepMode:    step,
				Attributes: []gputypes.VertexAttribute{
					{Format: key.format, Offset: 0, ShaderLocation: uint32(key.location)}, //nolint:gosec // location < maxVertexAttribs
				},
			}},
		},
		Fragment: &hal.FragmentState{
			Module:     prog.fs,
			EntryPoint: prog.linked.FragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{Format: colorFormat, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: false,
			DepthCompare:      gputypes.CompareFunctionAlways,
			StencilFront: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilBack: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilReadMask:  0x00,
			StencilWriteMask: 0x00,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: topology,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create render pipeline: %w", err)
	}
	prog.pipelines[key] = p
	return p, nil
}

// releaseProgram destroys the GPU objects of a program and marks it
// unlinked.
func (d *Device) releaseProgram(prog *programObject) {
	for key, p := range prog.pipelines {
		d.device.DestroyRenderPipeline(p)
		delete(prog.pipelines, key)
	}
	if prog.pipeLayout != nil {
		d.device.DestroyPipelineLayout(prog.pipeLayout)
		prog.pipeLayout = nil
	}
	if prog.bindGroup != nil {
		d.device.DestroyBindGroup(prog.bindGroup)
		prog.bindGroup = nil
	}
	if prog.bindLayout != nil {
		d.device.DestroyBindGroupLayout(prog.bindLayout)
		prog.bindLayout = nil
	}
	prog.linked = nil
	vs, fs := prog.vs, prog.fs
	prog.vs, prog.fs = nil, nil
	d.dropOrphanModule(vs)
	d.dropOrphanModule(fs)
}

// dropOrphanModule destroys a shader module whose shader object was
// deleted while a program still used it.
func (d *Device) dropOrphanModule(m hal.ShaderModule) {
	if m == nil || d.shaderInUse(m) {
		return
	}
	for _, s := range d.shaders {
		if s.hal == m {
			return
		}
	}
	d.device.DestroyShaderModule(m)
}
