// Package dot draws points with a programmable graphics pipeline.
//
// # Overview
//
// dot acquires a graphics context from a display surface, compiles a
// vertex/fragment shader pair into a program and draws a vertex list as
// independent points. The default scene is one opaque black 5x5 pixel point
// at the center of an 800x600 white viewport.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/dot"
//		_ "github.com/gogpu/dot/backend/software"
//	)
//
//	canvas, _ := dot.NewCanvas(800, 600)
//	ctx, err := dot.Run(canvas, dot.Config{}, dot.LogAlerter{})
//	if err != nil {
//		return err
//	}
//	defer ctx.Close()
//	img, _ := ctx.ReadPixels()
//
// # Pipeline
//
// Run performs four steps, each also usable on its own:
//   - InitContext acquires a Device from a Surface
//   - InitShaders compiles, links and activates the point program
//   - DrawScene uploads a VertexList and issues one point draw
//   - Context.ReadPixels reads back the color target
//
// Failures are terminal. Each one is raised once through an Alerter and
// returned as an error; nothing is retried.
//
// # Backends
//
// A Device is opened through the backend registry. Backends register
// themselves on import:
//   - backend/wgpu: gogpu/wgpu HAL (Vulkan), points drawn as sprites
//   - backend/software: CPU reference rasterizer
//
// BackendAuto tries wgpu first and falls back to software.
//
// # Shaders
//
// Shaders are WGSL. The vertex stage reads a vec2<f32> attribute named
// aPosition at @location(0) and may declare a POINT_SIZE constant in pixels.
// The fragment stage may declare a POINT_COLOR constant.
//
// # Coordinate System
//
// Vertices are in clip space:
//   - (-1, -1) is the bottom-left corner of the viewport
//   - (1, 1) is the top-right corner
//   - points whose center lies outside [-1, 1] are not drawn
//
// # Logging
//
// dot is silent by default. See SetLogger.
package dot
