package recording

import (
	"fmt"

	"github.com/gogpu/dot"
)

// Playback replays commands onto dev. Object IDs recorded from the
// recorded device are remapped to the IDs dev returns, so a trace taken on
// one backend can be replayed on another. AttribLocation results are
// checked against the recorded value.
//
// Playback stops at the first failing command and returns its index.
func Playback(dev dot.Device, commands []Command) error {
	p := player{
		dev:      dev,
		shaders:  make(map[dot.ShaderID]dot.ShaderID),
		programs: make(map[dot.ProgramID]dot.ProgramID),
		buffers:  make(map[dot.BufferID]dot.BufferID),
	}
	for i, c := range commands {
		if err := p.play(c); err != nil {
			return fmt.Errorf("recording: command %d (%s): %w", i, c.Type(), err)
		}
	}
	return nil
}

type player struct {
	dev      dot.Device
	shaders  map[dot.ShaderID]dot.ShaderID
	programs map[dot.ProgramID]dot.ProgramID
	buffers  map[dot.BufferID]dot.BufferID
}

func (p *player) play(c Command) error {
	switch c := c.(type) {
	case ViewportCommand:
		p.dev.Viewport(c.X, c.Y, c.Width, c.Height)
	case ClearColorCommand:
		p.dev.ClearColor(c.Color)
	case ClearCommand:
		return p.dev.Clear(c.Mask)

	case CreateShaderCommand:
		id, err := p.dev.CreateShader(c.Stage)
		if err != nil {
			return err
		}
		p.shaders[c.Shader] = id
	case CompileShaderCommand:
		return p.dev.CompileShader(p.shaders[c.Shader], c.Source)
	case DeleteShaderCommand:
		p.dev.DeleteShader(p.shaders[c.Shader])
		delete(p.shaders, c.Shader)

	case CreateProgramCommand:
		id, err := p.dev.CreateProgram()
		if err != nil {
			return err
		}
		p.programs[c.Program] = id
	case AttachShaderCommand:
		return p.dev.AttachShader(p.programs[c.Program], p.shaders[c.Shader])
	case LinkProgramCommand:
		return p.dev.LinkProgram(p.programs[c.Program])
	case UseProgramCommand:
		return p.dev.UseProgram(p.programs[c.Program])
	case DeleteProgramCommand:
		p.dev.DeleteProgram(p.programs[c.Program])
		delete(p.programs, c.Program)
	case AttribLocationCommand:
		if loc := p.dev.AttribLocation(p.programs[c.Program], c.Name); loc != c.Location {
			return fmt.Errorf("attribute %q at location %d, recorded %d", c.Name, loc, c.Location)
		}
	case EnableVertexAttribArrayCommand:
		return p.dev.EnableVertexAttribArray(c.Index)
	case VertexAttribPointerCommand:
		return p.dev.VertexAttribPointer(c.Index, c.Layout)

	case CreateBufferCommand:
		id, err := p.dev.CreateBuffer()
		if err != nil {
			return err
		}
		p.buffers[c.Buffer] = id
	case BindBufferCommand:
		return p.dev.BindBuffer(p.buffers[c.Buffer])
	case BufferDataCommand:
		return p.dev.BufferData(c.Data, c.Usage)
	case DeleteBufferCommand:
		p.dev.DeleteBuffer(p.buffers[c.Buffer])
		delete(p.buffers, c.Buffer)

	case DrawArraysCommand:
		return p.dev.DrawArrays(c.Mode, c.First, c.Count)

	default:
		return fmt.Errorf("unknown command type %s", c.Type())
	}
	return nil
}
