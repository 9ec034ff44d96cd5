//go:build !nogpu

package wgpu

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/gogpu/dot"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// fenceTimeout bounds the wait for a submitted frame.
const fenceTimeout = 5 * time.Second

// copyPitchAlignment is the WebGPU row alignment for texture copies.
const copyPitchAlignment = 256

// target is the offscreen color and depth/stencil attachment pair.
type target struct {
	width, height uint32
	color         hal.Texture
	colorView     hal.TextureView
	depth         hal.Texture
	depthView     hal.TextureView
}

func newTarget(device hal.Device, w, h uint32) (*target, error) {
	t := &target{width: w, height: h}
	var err error
	t.color, err = device.CreateTexture(&hal.TextureDescriptor{
		Label:         "dot_color",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        colorFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create color texture: %w", err)
	}
	t.colorView, err = device.CreateTextureView(t.color, &hal.TextureViewDescriptor{Label: "dot_color_view"})
	if err != nil {
		t.destroy(device)
		return nil, fmt.Errorf("wgpu: create color view: %w", err)
	}
	t.depth, err = device.CreateTexture(&hal.TextureDescriptor{
		Label:         "dot_depth",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        depthFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		t.destroy(device)
		return nil, fmt.Errorf("wgpu: create depth texture: %w", err)
	}
	t.depthView, err = device.CreateTextureView(t.depth, &hal.TextureViewDescriptor{Label: "dot_depth_view"})
	if err != nil {
		t.destroy(device)
		return nil, fmt.Errorf("wgpu: create depth view: %w", err)
	}
	return t, nil
}

func (t *target) destroy(device hal.Device) {
	if t.depthView != nil {
		device.DestroyTextureView(t.depthView)
		t.depthView = nil
	}
	if t.depth != nil {
		device.DestroyTexture(t.depth)
		t.depth = nil
	}
	if t.colorView != nil {
		device.DestroyTextureView(t.colorView)
		t.colorView = nil
	}
	if t.color != nil {
		device.DestroyTexture(t.color)
		t.color = nil
	}
}

// passDescriptor returns the render pass over the target. Pending clears
// become LoadOpClear and are consumed.
func (d *Device) passDescriptor(label string) *hal.RenderPassDescriptor {
	colorLoad, depthLoad := gputypes.LoadOpLoad, gputypes.LoadOpLoad
	if d.pendingClear&dot.ColorBufferBit != 0 {
		colorLoad = gputypes.LoadOpClear
	}
	if d.pendingClear&dot.DepthBufferBit != 0 {
		depthLoad = gputypes.LoadOpClear
	}
	d.pendingClear = 0

	c := d.clearColor
	return &hal.RenderPassDescriptor{
		Label: label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       d.target.colorView,
			LoadOp:     colorLoad,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A)},
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              d.target.depthView,
			DepthLoadOp:       depthLoad,
			DepthStoreOp:      gputypes.StoreOpStore,
			DepthClearValue:   1.0,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpDiscard,
			StencilClearValue: 0,
		},
	}
}

// DrawArrays draws count points starting at vertex first with the current
// program in one render pass, and waits for the GPU to finish.
func (d *Device) DrawArrays(mode dot.Primitive, first, count int) error {
	if mode != dot.Points {
		return fmt.Errorf("%w: primitive mode %d", ErrInvalidValue, mode)
	}
	if first < 0 || count < 0 {
		return fmt.Errorf("%w: first=%d count=%d", ErrInvalidValue, first, count)
	}
	prog, ok := d.programs[d.current]
	if !ok || prog.linked == nil {
		return fmt.Errorf("%w: no program in use", ErrInvalidOperation)
	}
	if count == 0 {
		return nil
	}

	loc := -1
	for _, a := range prog.linked.Attributes {
		if loc < 0 || a.Location < loc {
			loc = a.Location
		}
	}
	if loc < 0 || loc >= maxVertexAttribs {
		return fmt.Errorf("%w: program has no usable vertex input", ErrInvalidOperation)
	}
	a := d.attribs[loc]
	if !a.enabled || !a.set {
		return fmt.Errorf("%w: attribute %d is not enabled and bound", ErrInvalidOperation, loc)
	}
	buf, ok := d.buffers[a.buffer]
	if !ok || buf.hal == nil {
		return fmt.Errorf("%w: attribute %d has no buffer data", ErrInvalidOperation, loc)
	}
	stride := a.layout.EffectiveStride()
	if last := a.layout.Offset + (first+count-1)*stride + a.layout.Size*4; last > len(buf.shadow) {
		return fmt.Errorf("%w: %d vertices read past the end of a %d byte buffer", ErrInvalidOperation, count, len(buf.shadow))
	}

	format, _ := vertexFormat(a.layout)
	pipeline, err := d.pipeline(prog, pipelineKey{location: loc, format: format, stride: uint64(stride)}) //nolint:gosec // stride is positive
	if err != nil {
		return err
	}

	vp := d.viewport.Intersect(image.Rect(0, 0, int(d.width), int(d.height)))
	if vp.Empty() {
		return nil
	}
	d.writeViewport()

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "dot_draw_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("dot_draw"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(d.passDescriptor("dot_draw_pass"))
	rp.SetPipeline(pipeline)
	if prog.bindGroup != nil {
		rp.SetBindGroup(0, prog.bindGroup, nil)
	}
	rp.SetVertexBuffer(0, buf.hal, uint64(a.layout.Offset)) //nolint:gosec // offset checked non-negative
	rp.SetViewport(float32(vp.Min.X), float32(vp.Min.Y), float32(vp.Dx()), float32(vp.Dy()), 0, 1)
	if prog.linked.Sprite {
		rp.Draw(4, uint32(count), 0, uint32(first)) //nolint:gosec // checked non-negative
	} else {
		rp.Draw(uint32(count), 1, uint32(first), 0) //nolint:gosec // checked non-negative
	}
	rp.End()

	if err := d.submit(encoder); err != nil {
		return err
	}
	d.draws++
	dot.Logger().Debug("wgpu: draw", "points", count, "sprite", prog.linked.Sprite)
	return nil
}

// writeViewport uploads the viewport size for sprite shaders.
func (d *Device) writeViewport() {
	var data [viewportUniformSize]byte
	binary.LittleEndian.PutUint32(data[0:], math.Float32bits(float32(d.viewport.Dx())))
	binary.LittleEndian.PutUint32(data[4:], math.Float32bits(float32(d.viewport.Dy())))
	d.queue.WriteBuffer(d.uniform, 0, data[:])
}

// ReadPixels copies the color target to a staging buffer and returns it as
// an RGBA image. A pending clear is applied first.
func (d *Device) ReadPixels() (*image.RGBA, error) {
	w, h := d.width, d.height

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "dot_readback_encoder"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("dot_readback"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	if d.pendingClear != 0 {
		rp := encoder.BeginRenderPass(d.passDescriptor("dot_clear_pass"))
		rp.End()
	}

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: d.target.color,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "dot_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	encoder.CopyTextureToBuffer(d.target.color, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: d.target.color, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: d.target.color,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	if err := d.submit(encoder); err != nil {
		return nil, err
	}

	readback := make([]byte, stagingSize)
	if err := d.queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	for row := 0; row < int(h); row++ {
		src := row * int(alignedBytesPerRow)
		copy(img.Pix[row*img.Stride:row*img.Stride+int(bytesPerRow)], readback[src:src+int(bytesPerRow)])
	}
	return img, nil
}

// submit ends encoding, submits the command buffer and waits on a fence.
func (d *Device) submit(encoder hal.CommandEncoder) error {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return waitResult(d.device.Wait(fence, 1, fenceTimeout))
}

// waitResult converts the outcome of a fence wait into an error.
func waitResult(signaled bool, err error) error {
	switch {
	case err != nil:
		return fmt.Errorf("wait for GPU: %w", err)
	case !signaled:
		return fmt.Errorf("%w after %v", ErrTimeout, fenceTimeout)
	}
	return nil
}
