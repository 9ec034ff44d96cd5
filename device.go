package dot

import "image"

// ShaderID identifies a shader object owned by a Device. Zero is invalid.
type ShaderID uint32

// ProgramID identifies a program object owned by a Device. Zero is invalid.
type ProgramID uint32

// BufferID identifies a buffer object owned by a Device. Zero is invalid.
type BufferID uint32

// ShaderStage selects the pipeline stage a shader runs in.
type ShaderStage uint8

const (
	// VertexStage runs once per vertex.
	VertexStage ShaderStage = iota + 1
	// FragmentStage runs once per rasterized fragment.
	FragmentStage
)

func (s ShaderStage) String() string {
	switch s {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	default:
		return "unknown"
	}
}

// BufferUsage is a hint describing how buffer contents will be used.
type BufferUsage uint8

const (
	// UsageStatic marks data written once and drawn many times.
	UsageStatic BufferUsage = iota
	// UsageDynamic marks data rewritten often.
	UsageDynamic
)

// DataType is the component type of a vertex attribute.
type DataType uint8

const (
	// Float32 is a 32-bit IEEE float component.
	Float32 DataType = iota + 1
)

// Primitive selects how vertices are assembled by DrawArrays.
type Primitive uint8

const (
	// Points rasterizes every vertex as an independent point.
	Points Primitive = iota + 1
)

// ClearMask selects which buffers Clear resets.
type ClearMask uint8

const (
	// ColorBufferBit clears the color target to the clear color.
	ColorBufferBit ClearMask = 1 << iota
	// DepthBufferBit clears the depth buffer to 1.0.
	DepthBufferBit
)

// AttribLayout describes how an attribute reads from the bound buffer.
// A zero Stride means tightly packed (Size * component size).
type AttribLayout struct {
	Size       int
	Type       DataType
	Normalized bool
	Stride     int
	Offset     int
}

// PositionLayout is the layout of a VertexList: two packed float32 values.
var PositionLayout = AttribLayout{Size: 2, Type: Float32}

// EffectiveStride returns the byte stride between consecutive vertices.
func (l AttribLayout) EffectiveStride() int {
	if l.Stride != 0 {
		return l.Stride
	}
	return l.Size * floatSize
}

// Device is the graphics device API surface dot consumes.
//
// Implementations live in backend packages and are registered with
// RegisterBackend. Object IDs are only meaningful to the device that
// created them. Failures that GL would report through status queries are
// returned as errors: CompileShader and LinkProgram return an error whose
// text is the device's diagnostic log.
//
// A Device is not safe for concurrent use.
type Device interface {
	// Name returns the backend identifier (e.g. "software", "wgpu").
	Name() string

	// Viewport sets the drawable area in pixels.
	Viewport(x, y, width, height int)

	// CreateShader allocates an empty shader object for the given stage.
	CreateShader(stage ShaderStage) (ShaderID, error)
	// CompileShader sets the shader source and compiles it.
	CompileShader(id ShaderID, source string) error
	// DeleteShader releases a shader object. Unknown IDs are ignored.
	DeleteShader(id ShaderID)

	// CreateProgram allocates an empty program object.
	CreateProgram() (ProgramID, error)
	// AttachShader attaches a compiled shader to a program.
	AttachShader(p ProgramID, s ShaderID) error
	// LinkProgram links the attached stages.
	LinkProgram(p ProgramID) error
	// UseProgram makes p the program used by DrawArrays.
	UseProgram(p ProgramID) error
	// DeleteProgram releases a program object. Unknown IDs are ignored.
	DeleteProgram(p ProgramID)

	// AttribLocation returns the location of a named vertex input of a
	// linked program, or -1 if the program has no such input.
	AttribLocation(p ProgramID, name string) int
	// EnableVertexAttribArray enables fetching the attribute at index.
	// Enabling an already enabled index has no effect.
	EnableVertexAttribArray(index int) error
	// VertexAttribPointer binds the attribute at index to the currently
	// bound buffer with the given layout.
	VertexAttribPointer(index int, layout AttribLayout) error

	// CreateBuffer allocates an empty buffer object.
	CreateBuffer() (BufferID, error)
	// BindBuffer makes id the current vertex buffer.
	BindBuffer(id BufferID) error
	// BufferData replaces the contents of the bound buffer.
	BufferData(data []byte, usage BufferUsage) error
	// ReadBuffer returns a copy of a buffer's contents.
	ReadBuffer(id BufferID) ([]byte, error)
	// DeleteBuffer releases a buffer object. Unknown IDs are ignored.
	DeleteBuffer(id BufferID)

	// ClearColor sets the color used by Clear.
	ClearColor(c Color)
	// Clear resets the selected buffers.
	Clear(mask ClearMask) error
	// DrawArrays draws count vertices starting at first from the enabled
	// attribute arrays with the current program.
	DrawArrays(mode Primitive, first, count int) error

	// ReadPixels returns the color target as an RGBA image.
	ReadPixels() (*image.RGBA, error)

	// Destroy releases every object owned by the device.
	Destroy()
}
