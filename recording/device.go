package recording

import (
	"fmt"
	"image"
	"io"

	"github.com/gogpu/dot"
)

// Entry is one recorded call: the command plus the error the wrapped
// device returned for it.
type Entry struct {
	Command Command
	Err     error
}

// Device wraps a dot.Device, forwards every call and records it. Name,
// ReadBuffer and ReadPixels are forwarded without being recorded.
//
// Device is not safe for concurrent use, like the devices it wraps.
type Device struct {
	inner   dot.Device
	entries []Entry
}

// NewDevice wraps inner.
func NewDevice(inner dot.Device) *Device {
	return &Device{inner: inner, entries: make([]Entry, 0, 32)}
}

// Unwrap returns the wrapped device.
func (d *Device) Unwrap() dot.Device { return d.inner }

// Entries returns a copy of the recorded calls in order.
func (d *Device) Entries() []Entry {
	return append([]Entry(nil), d.entries...)
}

// Commands returns the recorded commands in order.
func (d *Device) Commands() []Command {
	cmds := make([]Command, len(d.entries))
	for i, e := range d.entries {
		cmds[i] = e.Command
	}
	return cmds
}

// Count returns the number of recorded commands of type t.
func (d *Device) Count(t CommandType) int {
	n := 0
	for _, e := range d.entries {
		if e.Command.Type() == t {
			n++
		}
	}
	return n
}

// Reset discards the recorded calls.
func (d *Device) Reset() {
	d.entries = d.entries[:0]
}

// WriteTrace writes one line per recorded call.
func (d *Device) WriteTrace(w io.Writer) error {
	for i, e := range d.entries {
		line := Describe(e.Command)
		if e.Err != nil {
			line += " -> " + e.Err.Error()
		}
		if _, err := fmt.Fprintf(w, "%4d %s\n", i, line); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) record(c Command, err error) error {
	d.entries = append(d.entries, Entry{Command: c, Err: err})
	return err
}

func (d *Device) note(c Command) {
	d.entries = append(d.entries, Entry{Command: c})
}

// Name returns the wrapped device name.
func (d *Device) Name() string { return d.inner.Name() }

// Viewport implements dot.Device.
func (d *Device) Viewport(x, y, width, height int) {
	d.inner.Viewport(x, y, width, height)
	d.note(ViewportCommand{X: x, Y: y, Width: width, Height: height})
}

// CreateShader implements dot.Device.
func (d *Device) CreateShader(stage dot.ShaderStage) (dot.ShaderID, error) {
	id, err := d.inner.CreateShader(stage)
	return id, d.record(CreateShaderCommand{Stage: stage, Shader: id}, err)
}

// CompileShader implements dot.Device.
func (d *Device) CompileShader(id dot.ShaderID, source string) error {
	return d.record(CompileShaderCommand{Shader: id, Source: source}, d.inner.CompileShader(id, source))
}

// DeleteShader implements dot.Device.
func (d *Device) DeleteShader(id dot.ShaderID) {
	d.inner.DeleteShader(id)
	d.note(DeleteShaderCommand{Shader: id})
}

// CreateProgram implements dot.Device.
func (d *Device) CreateProgram() (dot.ProgramID, error) {
	id, err := d.inner.CreateProgram()
	return id, d.record(CreateProgramCommand{Program: id}, err)
}

// AttachShader implements dot.Device.
func (d *Device) AttachShader(p dot.ProgramID, s dot.ShaderID) error {
	return d.record(AttachShaderCommand{Program: p, Shader: s}, d.inner.AttachShader(p, s))
}

// LinkProgram implements dot.Device.
func (d *Device) LinkProgram(p dot.ProgramID) error {
	return d.record(LinkProgramCommand{Program: p}, d.inner.LinkProgram(p))
}

// UseProgram implements dot.Device.
func (d *Device) UseProgram(p dot.ProgramID) error {
	return d.record(UseProgramCommand{Program: p}, d.inner.UseProgram(p))
}

// DeleteProgram implements dot.Device.
func (d *Device) DeleteProgram(p dot.ProgramID) {
	d.inner.DeleteProgram(p)
	d.note(DeleteProgramCommand{Program: p})
}

// AttribLocation implements dot.Device.
func (d *Device) AttribLocation(p dot.ProgramID, name string) int {
	loc := d.inner.AttribLocation(p, name)
	d.note(AttribLocationCommand{Program: p, Name: name, Location: loc})
	return loc
}

// EnableVertexAttribArray implements dot.Device.
func (d *Device) EnableVertexAttribArray(index int) error {
	return d.record(EnableVertexAttribArrayCommand{Index: index}, d.inner.EnableVertexAttribArray(index))
}

// VertexAttribPointer implements dot.Device.
func (d *Device) VertexAttribPointer(index int, layout dot.AttribLayout) error {
	return d.record(VertexAttribPointerCommand{Index: index, Layout: layout}, d.inner.VertexAttribPointer(index, layout))
}

// CreateBuffer implements dot.Device.
func (d *Device) CreateBuffer() (dot.BufferID, error) {
	id, err := d.inner.CreateBuffer()
	return id, d.record(CreateBufferCommand{Buffer: id}, err)
}

// BindBuffer implements dot.Device.
func (d *Device) BindBuffer(id dot.BufferID) error {
	return d.record(BindBufferCommand{Buffer: id}, d.inner.BindBuffer(id))
}

// BufferData implements dot.Device.
func (d *Device) BufferData(data []byte, usage dot.BufferUsage) error {
	cmd := BufferDataCommand{Data: append([]byte(nil), data...), Usage: usage}
	return d.record(cmd, d.inner.BufferData(data, usage))
}

// ReadBuffer implements dot.Device.
func (d *Device) ReadBuffer(id dot.BufferID) ([]byte, error) {
	return d.inner.ReadBuffer(id)
}

// DeleteBuffer implements dot.Device.
func (d *Device) DeleteBuffer(id dot.BufferID) {
	d.inner.DeleteBuffer(id)
	d.note(DeleteBufferCommand{Buffer: id})
}

// ClearColor implements dot.Device.
func (d *Device) ClearColor(c dot.Color) {
	d.inner.ClearColor(c)
	d.note(ClearColorCommand{Color: c})
}

// Clear implements dot.Device.
func (d *Device) Clear(mask dot.ClearMask) error {
	return d.record(ClearCommand{Mask: mask}, d.inner.Clear(mask))
}

// DrawArrays implements dot.Device.
func (d *Device) DrawArrays(mode dot.Primitive, first, count int) error {
	return d.record(DrawArraysCommand{Mode: mode, First: first, Count: count}, d.inner.DrawArrays(mode, first, count))
}

// ReadPixels implements dot.Device.
func (d *Device) ReadPixels() (*image.RGBA, error) {
	return d.inner.ReadPixels()
}

// Destroy destroys the wrapped device. The recorded calls are kept.
func (d *Device) Destroy() {
	d.inner.Destroy()
}

var _ dot.Device = (*Device)(nil)
