package dot

import (
	"errors"
	"fmt"
)

// Program is a linked vertex/fragment pair plus the attribute locations
// resolved for it.
type Program struct {
	ID ProgramID

	// Attributes caches resolved attribute locations by name.
	Attributes map[string]int
}

// Position returns the cached location of the position attribute, or -1.
func (p *Program) Position() int {
	if p == nil {
		return -1
	}
	loc, ok := p.Attributes[PositionAttribute]
	if !ok {
		return -1
	}
	return loc
}

// InitShaders compiles vsSource and fsSource, links them into a program,
// makes it current, and resolves and enables the position attribute.
//
// Compile and link failures are raised through alert. Every failure is
// returned:
//   - a stage that fails to compile yields *ShaderCompileError; program
//     construction stops and no shader is attached
//   - a failed link yields *ProgramLinkError; the program is never made
//     current
//   - a program without aPosition yields ErrAttributeNotFound
//
// On any failure the program and every shader built so far are deleted.
func InitShaders(ctx *Context, vsSource, fsSource string, alert Alerter) (*Program, error) {
	dev := ctx.Device()

	var (
		vs, fs Shader
		id     ProgramID
		ok     bool
	)
	defer func() {
		if ok {
			return
		}
		if id != 0 {
			dev.DeleteProgram(id)
		}
		for _, s := range []Shader{vs, fs} {
			if s.Valid() {
				dev.DeleteShader(s.ID)
			}
		}
	}()

	var err error
	if vs, err = LoadShader(dev, VertexStage, vsSource); err != nil {
		return nil, compileFailed(alert, err)
	}
	if fs, err = LoadShader(dev, FragmentStage, fsSource); err != nil {
		return nil, compileFailed(alert, err)
	}

	if id, err = dev.CreateProgram(); err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}
	for _, s := range []Shader{vs, fs} {
		if err := dev.AttachShader(id, s.ID); err != nil {
			return nil, fmt.Errorf("attach %s shader: %w", s.Stage, err)
		}
	}

	if err := dev.LinkProgram(id); err != nil {
		raise(alert, linkAlertMessage)
		return nil, &ProgramLinkError{Log: err.Error()}
	}
	if err := dev.UseProgram(id); err != nil {
		return nil, fmt.Errorf("use program: %w", err)
	}

	loc := dev.AttribLocation(id, PositionAttribute)
	if loc < 0 {
		return nil, fmt.Errorf("%w: %q", ErrAttributeNotFound, PositionAttribute)
	}
	if err := dev.EnableVertexAttribArray(loc); err != nil {
		return nil, fmt.Errorf("enable attribute %d: %w", loc, err)
	}

	ok = true
	Logger().Debug("program linked", "id", id, "position", loc)
	return &Program{
		ID:         id,
		Attributes: map[string]int{PositionAttribute: loc},
	}, nil
}

func compileFailed(alert Alerter, err error) error {
	var ce *ShaderCompileError
	if errors.As(err, &ce) {
		raise(alert, compileAlertPrefix+ce.Log)
	}
	return err
}
