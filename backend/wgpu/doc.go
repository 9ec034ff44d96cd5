// Package wgpu provides the hardware-accelerated dot.Device, built on the
// gogpu/wgpu HAL.
//
// Shaders are WGSL. They are validated and translated to SPIR-V by naga and
// handed to the HAL as shader modules; linking checks the stage interfaces
// by reflection before any pipeline is built.
//
// # Points
//
// WebGPU rasterizes point-list primitives one pixel wide and WGSL has no
// point-size output. A vertex entry point that reads
// @builtin(vertex_index) is therefore treated as a sprite shader: every
// point becomes an instance of a 4-vertex triangle strip, the per-point
// attributes step per instance, and the shader offsets the corner selected
// by vertex_index. A vertex shader without vertex_index is drawn as a plain
// point list.
//
// A uniform at @group(0) @binding(0) receives the viewport size in pixels
// as two f32 values so sprite shaders can size points in device pixels.
//
// # Target
//
// Rendering goes to an offscreen RGBA8 texture plus a depth/stencil
// texture. Every DrawArrays is one render pass followed by a submit and a
// fence wait; ReadPixels copies the color texture to a staging buffer.
//
// # Registration
//
// Importing the package registers the "wgpu" backend, which opens the first
// Vulkan adapter. The HAL backend itself must be linked in:
//
//	import (
//		_ "github.com/gogpu/dot/backend/wgpu"
//		_ "github.com/gogpu/wgpu/hal/vulkan"
//	)
//
// Build with -tags nogpu to exclude the package contents entirely.
package wgpu
