// Package recording captures the calls made to a dot.Device.
//
// A recording Device wraps any dot.Device, forwards every call and stores it
// as a typed command. The command list can be printed as a trace or played
// back onto another device.
//
// # Architecture
//
// Commands are typed structs, one per device call. Each carries its
// arguments plus the object ID the device returned, if any.
//
//   - Device: wraps a dot.Device and records calls
//   - Command: the recorded call (CreateShaderCommand, DrawArraysCommand, ...)
//   - Playback: replays commands onto a device, remapping object IDs
//
// # Basic Usage
//
//	inner, _ := software.New(800, 600)
//	rec := recording.NewDevice(inner)
//
//	ctx := dot.NewContext(rec, 800, 600)
//	prog, _ := dot.InitShaders(ctx, dot.VertexShaderSource, dot.FragmentShaderSource, nil)
//	dot.DrawScene(ctx, prog, dot.DefaultVertices)
//
//	rec.WriteTrace(os.Stderr)
//
// # Recording a Surface
//
// Surface wraps a dot.Surface so that every context it hands out records:
//
//	surface := recording.NewSurface(canvas)
//	ctx, err := dot.Run(surface, dot.Config{}, alert)
//	surface.Devices()[0].WriteTrace(os.Stderr)
package recording
