package dot

import (
	"errors"
	"fmt"
)

// Common errors returned by dot.
var (
	// ErrUnsupportedPlatform is returned when no graphics context can be
	// acquired for a surface. It is fatal: nothing may be rendered after it.
	ErrUnsupportedPlatform = errors.New("dot: graphics context not supported on this platform")

	// ErrUnknownBackend is returned when a surface asks for a backend name
	// that was never registered.
	ErrUnknownBackend = errors.New("dot: unknown backend")

	// ErrAttributeNotFound is returned when a linked program does not expose
	// the position attribute.
	ErrAttributeNotFound = errors.New("dot: vertex attribute not found")

	// ErrInvalidVertexList is returned for vertex lists that are not a
	// whole number of finite (x, y) pairs.
	ErrInvalidVertexList = errors.New("dot: invalid vertex list")

	// ErrNilProgram is returned when drawing without a linked program.
	ErrNilProgram = errors.New("dot: nil program")

	// ErrInvalidDimensions is returned when a surface size is not positive.
	ErrInvalidDimensions = errors.New("dot: invalid dimensions")
)

// ShaderCompileError reports a shader stage that failed to compile.
// Log holds the compiler diagnostic.
type ShaderCompileError struct {
	Stage ShaderStage
	Log   string
}

func (e *ShaderCompileError) Error() string {
	return fmt.Sprintf("dot: %s shader compile failed: %s", e.Stage, e.Log)
}

// ProgramLinkError reports a vertex/fragment pair that failed to link.
type ProgramLinkError struct {
	Log string
}

func (e *ProgramLinkError) Error() string {
	return "dot: program link failed: " + e.Log
}
