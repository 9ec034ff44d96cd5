package dot

import (
	_ "embed"
	"fmt"
)

// PositionAttribute is the vertex input the point shaders read positions from.
const PositionAttribute = "aPosition"

// VertexShaderSource accepts one vec2<f32> attribute (aPosition), places it
// at (x, y, 0, 1) and gives every point a size of POINT_SIZE = 5 pixels.
//
//go:embed shaders/point_vertex.wgsl
var VertexShaderSource string

// FragmentShaderSource ignores its inputs and emits opaque black.
//
//go:embed shaders/point_fragment.wgsl
var FragmentShaderSource string

// Alert message prefixes shown on shader failures.
const (
	compileAlertPrefix = "An error occurred compiling the shaders: "
	linkAlertMessage   = "Unable to initialize the shader program."
)

// Shader is a compiled shader stage. The zero Shader is invalid.
type Shader struct {
	ID    ShaderID
	Stage ShaderStage
}

// Valid reports whether s refers to a compiled shader.
func (s Shader) Valid() bool { return s.ID != 0 }

// LoadShader creates and compiles one shader stage. If compilation fails
// the partially built shader is deleted and a *ShaderCompileError holding
// the device diagnostic is returned with the zero Shader.
func LoadShader(dev Device, stage ShaderStage, source string) (Shader, error) {
	id, err := dev.CreateShader(stage)
	if err != nil {
		return Shader{}, fmt.Errorf("create %s shader: %w", stage, err)
	}
	if err := dev.CompileShader(id, source); err != nil {
		dev.DeleteShader(id)
		return Shader{}, &ShaderCompileError{Stage: stage, Log: err.Error()}
	}
	Logger().Debug("shader compiled", "stage", stage.String(), "id", id)
	return Shader{ID: id, Stage: stage}, nil
}
