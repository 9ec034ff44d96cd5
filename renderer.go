package dot

import "fmt"

// Frame describes one DrawScene call.
type Frame struct {
	// Buffer is the vertex buffer allocated for the call. It is not freed.
	Buffer BufferID
	// Points is the number of point primitives drawn.
	Points int
	// Bytes is the number of bytes uploaded to Buffer.
	Bytes int
}

// DrawScene clears the color and depth buffers to the context clear color
// and draws every vertex of vertices as an independent point with prog.
//
// Each call allocates a new vertex buffer that is never freed, which is
// fine for a single draw; callers drawing repeatedly should DeleteBuffer
// the returned Frame.Buffer.
func DrawScene(ctx *Context, prog *Program, vertices VertexList) (Frame, error) {
	if prog == nil {
		return Frame{}, ErrNilProgram
	}
	loc := prog.Position()
	if loc < 0 {
		return Frame{}, fmt.Errorf("%w: %q", ErrAttributeNotFound, PositionAttribute)
	}
	if err := vertices.Validate(); err != nil {
		return Frame{}, err
	}
	dev := ctx.Device()

	if err := dev.Clear(ColorBufferBit | DepthBufferBit); err != nil {
		return Frame{}, fmt.Errorf("clear: %w", err)
	}

	buf, err := dev.CreateBuffer()
	if err != nil {
		return Frame{}, fmt.Errorf("create buffer: %w", err)
	}
	if err := dev.BindBuffer(buf); err != nil {
		return Frame{}, fmt.Errorf("bind buffer: %w", err)
	}
	data := vertices.Bytes()
	if err := dev.BufferData(data, UsageStatic); err != nil {
		return Frame{}, fmt.Errorf("upload vertices: %w", err)
	}

	if err := dev.VertexAttribPointer(loc, PositionLayout); err != nil {
		return Frame{}, fmt.Errorf("bind attribute %d: %w", loc, err)
	}
	if err := dev.EnableVertexAttribArray(loc); err != nil {
		return Frame{}, fmt.Errorf("enable attribute %d: %w", loc, err)
	}

	n := vertices.Len()
	if err := dev.DrawArrays(Points, 0, n); err != nil {
		return Frame{}, fmt.Errorf("draw %d points: %w", n, err)
	}
	Logger().Debug("scene drawn", "points", n, "bytes", len(data), "buffer", buf)
	return Frame{Buffer: buf, Points: n, Bytes: len(data)}, nil
}
