package recording

import (
	"fmt"

	"github.com/gogpu/dot"
)

// CommandType identifies the type of a command.
// Each command type corresponds to one dot.Device call.
type CommandType uint8

const (
	// Target commands
	CmdViewport   CommandType = iota // Set the viewport
	CmdClearColor                    // Set the clear color
	CmdClear                         // Clear buffers

	// Shader and program commands
	CmdCreateShader            // Allocate a shader
	CmdCompileShader           // Compile shader source
	CmdDeleteShader            // Release a shader
	CmdCreateProgram           // Allocate a program
	CmdAttachShader            // Attach a shader to a program
	CmdLinkProgram             // Link a program
	CmdUseProgram              // Make a program current
	CmdDeleteProgram           // Release a program
	CmdAttribLocation          // Query an attribute location
	CmdEnableVertexAttribArray // Enable an attribute array
	CmdVertexAttribPointer     // Bind an attribute to the bound buffer

	// Buffer commands
	CmdCreateBuffer // Allocate a buffer
	CmdBindBuffer   // Bind a buffer
	CmdBufferData   // Upload buffer contents
	CmdDeleteBuffer // Release a buffer

	// Draw commands
	CmdDrawArrays // Draw vertices
)

// commandTypeNames maps CommandType values to their string representation.
var commandTypeNames = [...]string{
	CmdViewport:                "Viewport",
	CmdClearColor:              "ClearColor",
	CmdClear:                   "Clear",
	CmdCreateShader:            "CreateShader",
	CmdCompileShader:           "CompileShader",
	CmdDeleteShader:            "DeleteShader",
	CmdCreateProgram:           "CreateProgram",
	CmdAttachShader:            "AttachShader",
	CmdLinkProgram:             "LinkProgram",
	CmdUseProgram:              "UseProgram",
	CmdDeleteProgram:           "DeleteProgram",
	CmdAttribLocation:          "AttribLocation",
	CmdEnableVertexAttribArray: "EnableVertexAttribArray",
	CmdVertexAttribPointer:     "VertexAttribPointer",
	CmdCreateBuffer:            "CreateBuffer",
	CmdBindBuffer:              "BindBuffer",
	CmdBufferData:              "BufferData",
	CmdDeleteBuffer:            "DeleteBuffer",
	CmdDrawArrays:              "DrawArrays",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is the interface implemented by all command types.
// A command stores the arguments of one device call and, for calls that
// create objects, the ID the device returned.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType
}

// --------------------------------------------------------------------------
// Target Commands
// --------------------------------------------------------------------------

// ViewportCommand sets the area clip space is mapped to.
type ViewportCommand struct {
	X, Y, Width, Height int
}

// Type implements Command.
func (ViewportCommand) Type() CommandType { return CmdViewport }

// ClearColorCommand sets the color used by Clear.
type ClearColorCommand struct {
	Color dot.Color
}

// Type implements Command.
func (ClearColorCommand) Type() CommandType { return CmdClearColor }

// ClearCommand resets the selected buffers.
type ClearCommand struct {
	Mask dot.ClearMask
}

// Type implements Command.
func (ClearCommand) Type() CommandType { return CmdClear }

// --------------------------------------------------------------------------
// Shader and Program Commands
// --------------------------------------------------------------------------

// CreateShaderCommand allocates a shader.
type CreateShaderCommand struct {
	Stage dot.ShaderStage
	// Shader is the ID returned by the device.
	Shader dot.ShaderID
}

// Type implements Command.
func (CreateShaderCommand) Type() CommandType { return CmdCreateShader }

// CompileShaderCommand compiles shader source.
type CompileShaderCommand struct {
	Shader dot.ShaderID
	Source string
}

// Type implements Command.
func (CompileShaderCommand) Type() CommandType { return CmdCompileShader }

// DeleteShaderCommand releases a shader.
type DeleteShaderCommand struct {
	Shader dot.ShaderID
}

// Type implements Command.
func (DeleteShaderCommand) Type() CommandType { return CmdDeleteShader }

// CreateProgramCommand allocates a program.
type CreateProgramCommand struct {
	// Program is the ID returned by the device.
	Program dot.ProgramID
}

// Type implements Command.
func (CreateProgramCommand) Type() CommandType { return CmdCreateProgram }

// AttachShaderCommand attaches a shader to a program.
type AttachShaderCommand struct {
	Program dot.ProgramID
	Shader  dot.ShaderID
}

// Type implements Command.
func (AttachShaderCommand) Type() CommandType { return CmdAttachShader }

// LinkProgramCommand links a program.
type LinkProgramCommand struct {
	Program dot.ProgramID
}

// Type implements Command.
func (LinkProgramCommand) Type() CommandType { return CmdLinkProgram }

// UseProgramCommand makes a program current.
type UseProgramCommand struct {
	Program dot.ProgramID
}

// Type implements Command.
func (UseProgramCommand) Type() CommandType { return CmdUseProgram }

// DeleteProgramCommand releases a program.
type DeleteProgramCommand struct {
	Program dot.ProgramID
}

// Type implements Command.
func (DeleteProgramCommand) Type() CommandType { return CmdDeleteProgram }

// AttribLocationCommand queries the location of a vertex input.
type AttribLocationCommand struct {
	Program dot.ProgramID
	Name    string
	// Location is the value returned by the device.
	Location int
}

// Type implements Command.
func (AttribLocationCommand) Type() CommandType { return CmdAttribLocation }

// EnableVertexAttribArrayCommand enables an attribute array.
type EnableVertexAttribArrayCommand struct {
	Index int
}

// Type implements Command.
func (EnableVertexAttribArrayCommand) Type() CommandType { return CmdEnableVertexAttribArray }

// VertexAttribPointerCommand binds an attribute to the bound buffer.
type VertexAttribPointerCommand struct {
	Index  int
	Layout dot.AttribLayout
}

// Type implements Command.
func (VertexAttribPointerCommand) Type() CommandType { return CmdVertexAttribPointer }

// --------------------------------------------------------------------------
// Buffer Commands
// --------------------------------------------------------------------------

// CreateBufferCommand allocates a buffer.
type CreateBufferCommand struct {
	// Buffer is the ID returned by the device.
	Buffer dot.BufferID
}

// Type implements Command.
func (CreateBufferCommand) Type() CommandType { return CmdCreateBuffer }

// BindBufferCommand binds a buffer.
type BindBufferCommand struct {
	Buffer dot.BufferID
}

// Type implements Command.
func (BindBufferCommand) Type() CommandType { return CmdBindBuffer }

// BufferDataCommand uploads the contents of the bound buffer.
type BufferDataCommand struct {
	// Data is a copy of the uploaded bytes.
	Data  []byte
	Usage dot.BufferUsage
}

// Type implements Command.
func (BufferDataCommand) Type() CommandType { return CmdBufferData }

// DeleteBufferCommand releases a buffer.
type DeleteBufferCommand struct {
	Buffer dot.BufferID
}

// Type implements Command.
func (DeleteBufferCommand) Type() CommandType { return CmdDeleteBuffer }

// --------------------------------------------------------------------------
// Draw Commands
// --------------------------------------------------------------------------

// DrawArraysCommand draws vertices with the current program.
type DrawArraysCommand struct {
	Mode  dot.Primitive
	First int
	Count int
}

// Type implements Command.
func (DrawArraysCommand) Type() CommandType { return CmdDrawArrays }

// Describe returns a one-line, human-readable form of a command.
func Describe(c Command) string {
	switch c := c.(type) {
	case ViewportCommand:
		return fmt.Sprintf("Viewport(%d, %d, %d, %d)", c.X, c.Y, c.Width, c.Height)
	case ClearColorCommand:
		return fmt.Sprintf("ClearColor(%g, %g, %g, %g)", c.Color.R, c.Color.G, c.Color.B, c.Color.A)
	case ClearCommand:
		return fmt.Sprintf("Clear(%#x)", uint8(c.Mask))
	case CreateShaderCommand:
		return fmt.Sprintf("CreateShader(%s) = %d", c.Stage, c.Shader)
	case CompileShaderCommand:
		return fmt.Sprintf("CompileShader(%d, %d bytes)", c.Shader, len(c.Source))
	case DeleteShaderCommand:
		return fmt.Sprintf("DeleteShader(%d)", c.Shader)
	case CreateProgramCommand:
		return fmt.Sprintf("CreateProgram() = %d", c.Program)
	case AttachShaderCommand:
		return fmt.Sprintf("AttachShader(%d, %d)", c.Program, c.Shader)
	case LinkProgramCommand:
		return fmt.Sprintf("LinkProgram(%d)", c.Program)
	case UseProgramCommand:
		return fmt.Sprintf("UseProgram(%d)", c.Program)
	case DeleteProgramCommand:
		return fmt.Sprintf("DeleteProgram(%d)", c.Program)
	case AttribLocationCommand:
		return fmt.Sprintf("AttribLocation(%d, %q) = %d", c.Program, c.Name, c.Location)
	case EnableVertexAttribArrayCommand:
		return fmt.Sprintf("EnableVertexAttribArray(%d)", c.Index)
	case VertexAttribPointerCommand:
		return fmt.Sprintf("VertexAttribPointer(%d, size=%d stride=%d offset=%d)",
			c.Index, c.Layout.Size, c.Layout.Stride, c.Layout.Offset)
	case CreateBufferCommand:
		return fmt.Sprintf("CreateBuffer() = %d", c.Buffer)
	case BindBufferCommand:
		return fmt.Sprintf("BindBuffer(%d)", c.Buffer)
	case BufferDataCommand:
		return fmt.Sprintf("BufferData(%d bytes)", len(c.Data))
	case DeleteBufferCommand:
		return fmt.Sprintf("DeleteBuffer(%d)", c.Buffer)
	case DrawArraysCommand:
		return fmt.Sprintf("DrawArrays(points, %d, %d)", c.First, c.Count)
	default:
		return c.Type().String()
	}
}
