// Package software provides the CPU reference implementation of dot.Device.
//
// Shaders are validated by naga exactly as on the GPU backend, but they are
// not executed: the rasterizer implements the point-program contract
// directly. Each vertex reads its position from the lowest-located vertex
// input of the current program and becomes a square of POINT_SIZE pixels
// (a const in the vertex module, default 1) filled with POINT_COLOR (a
// const in the fragment module, default opaque black).
//
// The backend registers itself on import:
//
//	import _ "github.com/gogpu/dot/backend/software"
package software

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/gogpu/dot"
	"github.com/gogpu/dot/internal/wgsl"
)

// maxVertexAttribs is the number of attribute slots a device exposes.
const maxVertexAttribs = 16

// Errors returned by the software device.
var (
	ErrInvalidObject    = errors.New("software: invalid object")
	ErrInvalidOperation = errors.New("software: invalid operation")
	ErrInvalidValue     = errors.New("software: invalid value")
)

func init() {
	dot.RegisterBackend(dot.BackendSoftware, func(width, height int) (dot.Device, error) {
		return New(width, height)
	})
}

type shader struct {
	stage  dot.ShaderStage
	module *wgsl.Module
}

type program struct {
	attached  []dot.ShaderID
	linked    *wgsl.Program
	pointSize float32
	color     dot.Color
	position  int
}

type attrib struct {
	enabled bool
	buffer  dot.BufferID
	layout  dot.AttribLayout
	set     bool
}

// Stats counts rasterization work since the device was created.
type Stats struct {
	DrawCalls int
	Points    int // points that survived clipping
	Fragments int // pixels written
}

// Device is a CPU rasterizer implementing dot.Device.
//
// Device is NOT safe for concurrent use.
type Device struct {
	width, height int
	viewport      image.Rectangle

	color      *image.RGBA
	depth      []float32
	clearColor dot.Color

	nextID   uint32
	shaders  map[dot.ShaderID]*shader
	programs map[dot.ProgramID]*program
	buffers  map[dot.BufferID][]byte

	bound   dot.BufferID
	current dot.ProgramID
	attribs [maxVertexAttribs]attrib

	stats Stats
}

// New creates a software device with a width x height color target.
func New(width, height int) (*Device, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", dot.ErrInvalidDimensions, width, height)
	}
	return &Device{
		width:    width,
		height:   height,
		viewport: image.Rect(0, 0, width, height),
		color:    image.NewRGBA(image.Rect(0, 0, width, height)),
		depth:    make([]float32, width*height),
		shaders:  make(map[dot.ShaderID]*shader),
		programs: make(map[dot.ProgramID]*program),
		buffers:  make(map[dot.BufferID][]byte),
	}, nil
}

func (d *Device) newID() uint32 {
	d.nextID++
	return d.nextID
}

// Name returns dot.BackendSoftware.
func (d *Device) Name() string { return dot.BackendSoftware }

// Stats returns the rasterization counters.
func (d *Device) Stats() Stats { return d.stats }

// Viewport sets the area clip space is mapped to.
func (d *Device) Viewport(x, y, width, height int) {
	d.viewport = image.Rect(x, y, x+width, y+height)
}

// CreateShader allocates a shader object.
func (d *Device) CreateShader(stage dot.ShaderStage) (dot.ShaderID, error) {
	if stage != dot.VertexStage && stage != dot.FragmentStage {
		return 0, fmt.Errorf("%w: shader stage %d", ErrInvalidValue, stage)
	}
	id := dot.ShaderID(d.newID())
	d.shaders[id] = &shader{stage: stage}
	return id, nil
}

// CompileShader validates source with naga. The error text is the
// compiler diagnostic.
func (d *Device) CompileShader(id dot.ShaderID, source string) error {
	s, ok := d.shaders[id]
	if !ok {
		return fmt.Errorf("%w: shader %d", ErrInvalidObject, id)
	}
	s.module = nil
	m, err := wgsl.Compile(source)
	if err != nil {
		return err
	}
	s.module = m
	return nil
}

// DeleteShader releases a shader.
func (d *Device) DeleteShader(id dot.ShaderID) {
	delete(d.shaders, id)
}

// CreateProgram allocates a program object.
func (d *Device) CreateProgram() (dot.ProgramID, error) {
	id := dot.ProgramID(d.newID())
	d.programs[id] = &program{position: -1}
	return id, nil
}

// AttachShader attaches s to p.
func (d *Device) AttachShader(p dot.ProgramID, s dot.ShaderID) error {
	prog, ok := d.programs[p]
	if !ok {
		return fmt.Errorf("%w: program %d", ErrInvalidObject, p)
	}
	if _, ok := d.shaders[s]; !ok {
		return fmt.Errorf("%w: shader %d", ErrInvalidObject, s)
	}
	for _, id := range prog.attached {
		if id == s {
			return fmt.Errorf("%w: shader %d already attached", ErrInvalidOperation, s)
		}
	}
	prog.attached = append(prog.attached, s)
	return nil
}

// LinkProgram links the attached stages. The error text is the link log.
func (d *Device) LinkProgram(p dot.ProgramID) error {
	prog, ok := d.programs[p]
	if !ok {
		return fmt.Errorf("%w: program %d", ErrInvalidObject, p)
	}
	prog.linked = nil

	vs, fs, err := d.stages(prog)
	if err != nil {
		return err
	}
	linked, err := wgsl.Link(vs, fs)
	if err != nil {
		return err
	}

	prog.linked = linked
	prog.pointSize = 1
	if size, ok := vs.FloatConst("POINT_SIZE"); ok && size > 0 {
		prog.pointSize = size
	}
	prog.color = dot.Black
	if c, ok := fs.VecConst("POINT_COLOR"); ok && len(c) == 4 {
		prog.color = dot.Color{R: c[0], G: c[1], B: c[2], A: c[3]}
	}
	prog.position = -1
	for _, a := range linked.Attributes {
		if prog.position < 0 || a.Location < prog.position {
			prog.position = a.Location
		}
	}
	return nil
}

// stages returns the compiled vertex and fragment modules attached to prog.
func (d *Device) stages(prog *program) (vs, fs *wgsl.Module, err error) {
	for _, id := range prog.attached {
		s, ok := d.shaders[id]
		if !ok {
			return nil, nil, fmt.Errorf("attached shader %d was deleted", id)
		}
		if s.module == nil {
			return nil, nil, fmt.Errorf("%s shader %d is not compiled", s.stage, id)
		}
		switch s.stage {
		case dot.VertexStage:
			if vs != nil {
				return nil, nil, errors.New("more than one vertex shader attached")
			}
			vs = s.module
		case dot.FragmentStage:
			if fs != nil {
				return nil, nil, errors.New("more than one fragment shader attached")
			}
			fs = s.module
		}
	}
	return vs, fs, nil
}

// UseProgram makes p current. p must be linked.
func (d *Device) UseProgram(p dot.ProgramID) error {
	prog, ok := d.programs[p]
	if !ok {
		return fmt.Errorf("%w: program %d", ErrInvalidObject, p)
	}
	if prog.linked == nil {
		return fmt.Errorf("%w: program %d is not linked", ErrInvalidOperation, p)
	}
	d.current = p
	return nil
}

// DeleteProgram releases a program.
func (d *Device) DeleteProgram(p dot.ProgramID) {
	delete(d.programs, p)
	if d.current == p {
		d.current = 0
	}
}

// AttribLocation returns the location of a vertex input of a linked
// program, or -1.
func (d *Device) AttribLocation(p dot.ProgramID, name string) int {
	prog, ok := d.programs[p]
	if !ok || prog.linked == nil {
		return -1
	}
	return prog.linked.AttribLocation(name)
}

// EnableVertexAttribArray enables the attribute at index.
func (d *Device) EnableVertexAttribArray(index int) error {
	if index < 0 || index >= maxVertexAttribs {
		return fmt.Errorf("%w: attribute index %d", ErrInvalidValue, index)
	}
	d.attribs[index].enabled = true
	return nil
}

// VertexAttribPointer binds the attribute at index to the bound buffer.
func (d *Device) VertexAttribPointer(index int, layout dot.AttribLayout) error {
	if index < 0 || index >= maxVertexAttribs {
		return fmt.Errorf("%w: attribute index %d", ErrInvalidValue, index)
	}
	if layout.Size < 1 || layout.Size > 4 || layout.Type != dot.Float32 || layout.Stride < 0 || layout.Offset < 0 {
		return fmt.Errorf("%w: attribute layout %+v", ErrInvalidValue, layout)
	}
	if d.bound == 0 {
		return fmt.Errorf("%w: no buffer bound", ErrInvalidOperation)
	}
	a := &d.attribs[index]
	a.buffer = d.bound
	a.layout = layout
	a.set = true
	return nil
}

// CreateBuffer allocates an empty buffer.
func (d *Device) CreateBuffer() (dot.BufferID, error) {
	id := dot.BufferID(d.newID())
	d.buffers[id] = nil
	return id, nil
}

// BindBuffer makes id the current vertex buffer. Zero unbinds.
func (d *Device) BindBuffer(id dot.BufferID) error {
	if id != 0 {
		if _, ok := d.buffers[id]; !ok {
			return fmt.Errorf("%w: buffer %d", ErrInvalidObject, id)
		}
	}
	d.bound = id
	return nil
}

// BufferData replaces the contents of the bound buffer.
func (d *Device) BufferData(data []byte, _ dot.BufferUsage) error {
	if d.bound == 0 {
		return fmt.Errorf("%w: no buffer bound", ErrInvalidOperation)
	}
	d.buffers[d.bound] = append([]byte(nil), data...)
	return nil
}

// ReadBuffer returns a copy of a buffer's contents.
func (d *Device) ReadBuffer(id dot.BufferID) ([]byte, error) {
	data, ok := d.buffers[id]
	if !ok {
		return nil, fmt.Errorf("%w: buffer %d", ErrInvalidObject, id)
	}
	return append([]byte(nil), data...), nil
}

// DeleteBuffer releases a buffer.
func (d *Device) DeleteBuffer(id dot.BufferID) {
	delete(d.buffers, id)
	if d.bound == id {
		d.bound = 0
	}
}

// ClearColor sets the color used by Clear.
func (d *Device) ClearColor(c dot.Color) {
	d.clearColor = c
}

// Clear resets the selected buffers over the whole target.
func (d *Device) Clear(mask dot.ClearMask) error {
	if mask&^(dot.ColorBufferBit|dot.DepthBufferBit) != 0 {
		return fmt.Errorf("%w: clear mask %#x", ErrInvalidValue, mask)
	}
	if mask&dot.ColorBufferBit != 0 {
		c := d.clearColor.NRGBA()
		px := premultiply(c.R, c.G, c.B, c.A)
		for i := 0; i < len(d.color.Pix); i += 4 {
			copy(d.color.Pix[i:i+4], px[:])
		}
	}
	if mask&dot.DepthBufferBit != 0 {
		for i := range d.depth {
			d.depth[i] = 1
		}
	}
	return nil
}

// DrawArrays rasterizes count points starting at vertex first.
func (d *Device) DrawArrays(mode dot.Primitive, first, count int) error {
	if mode != dot.Points {
		return fmt.Errorf("%w: primitive mode %d", ErrInvalidValue, mode)
	}
	if first < 0 || count < 0 {
		return fmt.Errorf("%w: first=%d count=%d", ErrInvalidValue, first, count)
	}
	prog, ok := d.programs[d.current]
	if !ok || prog.linked == nil {
		return fmt.Errorf("%w: no program in use", ErrInvalidOperation)
	}
	if count == 0 {
		d.stats.DrawCalls++
		return nil
	}
	if prog.position < 0 {
		return fmt.Errorf("%w: program has no vertex inputs", ErrInvalidOperation)
	}
	a := d.attribs[prog.position]
	if !a.enabled || !a.set {
		return fmt.Errorf("%w: attribute %d is not enabled and bound", ErrInvalidOperation, prog.position)
	}
	data, ok := d.buffers[a.buffer]
	if !ok {
		return fmt.Errorf("%w: attribute %d buffer was deleted", ErrInvalidOperation, prog.position)
	}

	stride := a.layout.EffectiveStride()
	last := a.layout.Offset + (first+count-1)*stride + a.layout.Size*4
	if last > len(data) {
		return fmt.Errorf("%w: %d vertices read past the end of a %d byte buffer", ErrInvalidOperation, count, len(data))
	}

	d.stats.DrawCalls++
	for i := first; i < first+count; i++ {
		off := a.layout.Offset + i*stride
		x := readFloat(data[off:])
		var y float32
		if a.layout.Size > 1 {
			y = readFloat(data[off+4:])
		}
		d.rasterizePoint(x, y, prog.pointSize, prog.color)
	}
	dot.Logger().Debug("software draw", "points", count, "size", prog.pointSize)
	return nil
}

// rasterizePoint fills the pixels whose centers lie in the half-open
// square of side size centered on the window position of (x, y). Points
// whose center is outside clip space are discarded.
func (d *Device) rasterizePoint(x, y, size float32, c dot.Color) {
	if x < -1 || x > 1 || y < -1 || y > 1 || math.IsNaN(float64(x)) || math.IsNaN(float64(y)) {
		return
	}
	vp := d.viewport
	px := float64(vp.Min.X) + (float64(x)+1)/2*float64(vp.Dx())
	py := float64(vp.Min.Y) + (1-float64(y))/2*float64(vp.Dy())
	r := float64(size) / 2

	bounds := vp.Intersect(d.color.Rect)
	x0 := max(int(math.Ceil(px-r-0.5)), bounds.Min.X)
	x1 := min(int(math.Ceil(px+r-0.5)), bounds.Max.X)
	y0 := max(int(math.Ceil(py-r-0.5)), bounds.Min.Y)
	y1 := min(int(math.Ceil(py+r-0.5)), bounds.Max.Y)

	n := c.NRGBA()
	src := premultiply(n.R, n.G, n.B, n.A)
	for j := y0; j < y1; j++ {
		for i := x0; i < x1; i++ {
			o := d.color.PixOffset(i, j)
			copy(d.color.Pix[o:o+4], src[:])
			d.stats.Fragments++
		}
	}
	d.stats.Points++
}

// ReadPixels returns a copy of the color target.
func (d *Device) ReadPixels() (*image.RGBA, error) {
	img := image.NewRGBA(d.color.Rect)
	copy(img.Pix, d.color.Pix)
	return img, nil
}

// Destroy releases every object.
func (d *Device) Destroy() {
	clear(d.shaders)
	clear(d.programs)
	clear(d.buffers)
	d.bound, d.current = 0, 0
	d.attribs = [maxVertexAttribs]attrib{}
}

func readFloat(b []byte) float32 {
	return math.Float32frombits(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
}

func premultiply(r, g, b, a uint8) [4]uint8 {
	mul := func(c uint8) uint8 { return uint8((uint32(c)*uint32(a) + 127) / 255) }
	return [4]uint8{mul(r), mul(g), mul(b), a}
}
