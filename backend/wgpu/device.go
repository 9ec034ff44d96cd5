//go:build !nogpu

package wgpu

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/dot"
	"github.com/gogpu/dot/internal/wgsl"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// maxVertexAttribs is the number of attribute slots a device exposes.
const maxVertexAttribs = 16

// Errors returned by the wgpu device.
var (
	ErrNoAdapter        = errors.New("wgpu: no GPU adapter found")
	ErrInvalidObject    = errors.New("wgpu: invalid object")
	ErrInvalidOperation = errors.New("wgpu: invalid operation")
	ErrInvalidValue     = errors.New("wgpu: invalid value")
	ErrNotHALProvider   = errors.New("wgpu: provider does not expose HAL types")
	ErrTimeout          = errors.New("wgpu: timed out waiting for the GPU")
)

func init() {
	dot.RegisterBackend(dot.BackendWGPU, func(width, height int) (dot.Device, error) {
		return New(width, height)
	})
}

type shaderObject struct {
	stage  dot.ShaderStage
	module *wgsl.Module
	hal    hal.ShaderModule
}

type programObject struct {
	attached []dot.ShaderID
	linked   *wgsl.Program
	vs, fs   hal.ShaderModule

	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	bindGroup  hal.BindGroup
	pipelines  map[pipelineKey]hal.RenderPipeline
}

type bufferObject struct {
	hal    hal.Buffer
	size   uint64
	shadow []byte
}

type attrib struct {
	enabled bool
	buffer  dot.BufferID
	layout  dot.AttribLayout
	set     bool
}

// Device is a dot.Device rendering through a HAL device.
//
// Device is NOT safe for concurrent use.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool
	adapter  string

	width, height uint32
	viewport      image.Rectangle
	target        *target
	uniform       hal.Buffer

	clearColor   dot.Color
	pendingClear dot.ClearMask

	nextID   uint32
	shaders  map[dot.ShaderID]*shaderObject
	programs map[dot.ProgramID]*programObject
	buffers  map[dot.BufferID]*bufferObject

	bound   dot.BufferID
	current dot.ProgramID
	attribs [maxVertexAttribs]attrib

	draws int
}

// New opens the first Vulkan adapter, preferring discrete and integrated
// GPUs, and creates a width x height offscreen target on it.
func New(width, height int) (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, errors.New("wgpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}

	d, err := newDevice(openDev.Device, openDev.Queue, width, height)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	d.instance = instance
	d.adapter = selected.Info.Name
	dot.Logger().Info("wgpu: adapter selected", "name", selected.Info.Name, "type", selected.Info.DeviceType)
	return d, nil
}

// NewWithHAL creates a device on an already opened HAL device and queue.
// The caller keeps ownership of both; Destroy releases only the objects
// this Device created.
func NewWithHAL(device hal.Device, queue hal.Queue, width, height int) (*Device, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("%w: nil HAL device or queue", ErrInvalidValue)
	}
	d, err := newDevice(device, queue, width, height)
	if err != nil {
		return nil, err
	}
	d.external = true
	return d, nil
}

// NewFromProvider shares the GPU device of a host application. The provider
// must also implement HalDevice() any and HalQueue() any returning a
// hal.Device and a hal.Queue.
func NewFromProvider(provider gpucontext.DeviceProvider, width, height int) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNotHALProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNotHALProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNotHALProvider)
	}
	return NewWithHAL(device, queue, width, height)
}

func newDevice(device hal.Device, queue hal.Queue, width, height int) (*Device, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", dot.ErrInvalidDimensions, width, height)
	}
	d := &Device{
		device:   device,
		queue:    queue,
		width:    uint32(width),  //nolint:gosec // checked positive above
		height:   uint32(height), //nolint:gosec // checked positive above
		viewport: image.Rect(0, 0, width, height),
		shaders:  make(map[dot.ShaderID]*shaderObject),
		programs: make(map[dot.ProgramID]*programObject),
		buffers:  make(map[dot.BufferID]*bufferObject),
	}
	t, err := newTarget(device, d.width, d.height)
	if err != nil {
		return nil, err
	}
	d.target = t

	uniform, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "dot_viewport",
		Size:  viewportUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		t.destroy(device)
		return nil, fmt.Errorf("wgpu: create viewport uniform: %w", err)
	}
	d.uniform = uniform
	return d, nil
}

func (d *Device) newID() uint32 {
	d.nextID++
	return d.nextID
}

// Name returns dot.BackendWGPU.
func (d *Device) Name() string { return dot.BackendWGPU }

// Adapter returns the name of the adapter opened by New, or "" for a
// device created on an external HAL device.
func (d *Device) Adapter() string { return d.adapter }

// Draws returns the number of render passes submitted by DrawArrays.
func (d *Device) Draws() int { return d.draws }

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
	d.shaders[id] = &shaderObject{stage: stage}
	return id, nil
}

// CompileShader translates source with naga and creates the HAL shader
// module. The error text is the naga diagnostic.
func (d *Device) CompileShader(id dot.ShaderID, source string) error {
	s, ok := d.shaders[id]
	if !ok {
		return fmt.Errorf("%w: shader %d", ErrInvalidObject, id)
	}
	d.releaseShader(s)

	m, err := wgsl.Compile(source)
	if err != nil {
		return err
	}
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  fmt.Sprintf("dot_%s_shader_%d", s.stage, id),
		Source: hal.ShaderSource{SPIRV: m.SPIRV},
	})
	if err != nil {
		return fmt.Errorf("create shader module: %w", err)
	}
	s.module = m
	s.hal = module
	return nil
}

// releaseShader detaches the module from s, destroying it unless a linked
// program still uses it.
func (d *Device) releaseShader(s *shaderObject) {
	if s.hal != nil && !d.shaderInUse(s.hal) {
		d.device.DestroyShaderModule(s.hal)
	}
	s.hal = nil
	s.module = nil
}

// DeleteShader releases a shader. Programs linked with it keep working.
func (d *Device) DeleteShader(id dot.ShaderID) {
	s, ok := d.shaders[id]
	if !ok {
		return
	}
	d.releaseShader(s)
	delete(d.shaders, id)
}

func (d *Device) shaderInUse(m hal.ShaderModule) bool {
	if m == nil {
		return false
	}
	for _, p := range d.programs {
		if p.vs == m || p.fs == m {
			return true
		}
	}
	return false
}

// CreateProgram allocates a program object.
func (d *Device) CreateProgram() (dot.ProgramID, error) {
	id := dot.ProgramID(d.newID())
	d.programs[id] = &programObject{pipelines: make(map[pipelineKey]hal.RenderPipeline)}
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

// LinkProgram checks the stage interfaces and creates the bind group and
// pipeline layouts. Render pipelines are built lazily per vertex layout.
// The error text is the link log.
func (d *Device) LinkProgram(p dot.ProgramID) error {
	prog, ok := d.programs[p]
	if !ok {
		return fmt.Errorf("%w: program %d", ErrInvalidObject, p)
	}
	d.releaseProgram(prog)

	var vs, fs *shaderObject
	for _, id := range prog.attached {
		s, ok := d.shaders[id]
		if !ok {
			return fmt.Errorf("attached shader %d was deleted", id)
		}
		if s.module == nil {
			return fmt.Errorf("%s shader %d is not compiled", s.stage, id)
		}
		switch {
		case s.stage == dot.VertexStage && vs == nil:
			vs = s
		case s.stage == dot.FragmentStage && fs == nil:
			fs = s
		default:
			return fmt.Errorf("more than one %s shader attached", s.stage)
		}
	}

	var vm, fm *wgsl.Module
	if vs != nil {
		vm = vs.module
	}
	if fs != nil {
		fm = fs.module
	}
	linked, err := wgsl.Link(vm, fm)
	if err != nil {
		return err
	}
	if err := d.createLayouts(prog, linked); err != nil {
		return err
	}
	prog.linked = linked
	prog.vs = vs.hal
	prog.fs = fs.hal
	return nil
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

// DeleteProgram releases a program and its pipelines.
func (d *Device) DeleteProgram(p dot.ProgramID) {
	prog, ok := d.programs[p]
	if !ok {
		return
	}
	d.releaseProgram(prog)
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
	if _, err := vertexFormat(layout); err != nil {
		return err
	}
	if layout.Stride < 0 || layout.Offset < 0 || layout.Offset%4 != 0 {
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

// CreateBuffer allocates a buffer object. GPU memory is allocated by
// BufferData.
func (d *Device) CreateBuffer() (dot.BufferID, error) {
	id := dot.BufferID(d.newID())
	d.buffers[id] = &bufferObject{}
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

// BufferData replaces the contents of the bound buffer. The GPU buffer is
// reallocated to the new size, padded to a multiple of 4 bytes.
func (d *Device) BufferData(data []byte, usage dot.BufferUsage) error {
	if d.bound == 0 {
		return fmt.Errorf("%w: no buffer bound", ErrInvalidOperation)
	}
	b := d.buffers[d.bound]
	if b.hal != nil {
		d.device.DestroyBuffer(b.hal)
		b.hal = nil
	}

	size := uint64(max((len(data)+3)&^3, 4)) //nolint:gosec // len is non-negative
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: fmt.Sprintf("dot_vertex_%d", d.bound),
		Size:  size,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create vertex buffer: %w", err)
	}
	padded := make([]byte, size)
	copy(padded, data)
	d.queue.WriteBuffer(buf, 0, padded)

	b.hal = buf
	b.size = size
	b.shadow = append(b.shadow[:0], data...)
	dot.Logger().Debug("wgpu: buffer data", "buffer", d.bound, "bytes", len(data), "dynamic", usage == dot.UsageDynamic)
	return nil
}

// ReadBuffer returns the contents last uploaded with BufferData. Vertex
// buffers are not mappable, so this reads the copy kept at upload time.
func (d *Device) ReadBuffer(id dot.BufferID) ([]byte, error) {
	b, ok := d.buffers[id]
	if !ok {
		return nil, fmt.Errorf("%w: buffer %d", ErrInvalidObject, id)
	}
	return append([]byte(nil), b.shadow...), nil
}

// DeleteBuffer releases a buffer.
func (d *Device) DeleteBuffer(id dot.BufferID) {
	b, ok := d.buffers[id]
	if !ok {
		return
	}
	if b.hal != nil {
		d.device.DestroyBuffer(b.hal)
	}
	delete(d.buffers, id)
	if d.bound == id {
		d.bound = 0
	}
}

// ClearColor sets the color used by Clear.
func (d *Device) ClearColor(c dot.Color) {
	d.clearColor = c
}

// Clear schedules the selected buffers to be cleared by the next render
// pass. ReadPixels flushes a pending clear.
func (d *Device) Clear(mask dot.ClearMask) error {
	if mask&^(dot.ColorBufferBit|dot.DepthBufferBit) != 0 {
		return fmt.Errorf("%w: clear mask %#x", ErrInvalidValue, mask)
	}
	d.pendingClear |= mask
	return nil
}

// Destroy releases every object this device created. HAL devices passed to
// NewWithHAL are left open.
func (d *Device) Destroy() {
	if d.device == nil {
		return
	}
	for _, p := range d.programs {
		d.releaseProgram(p)
	}
	for _, s := range d.shaders {
		d.releaseShader(s)
	}
	for _, b := range d.buffers {
		if b.hal != nil {
			d.device.DestroyBuffer(b.hal)
		}
	}
	clear(d.programs)
	clear(d.shaders)
	clear(d.buffers)
	d.bound, d.current = 0, 0
	d.attribs = [maxVertexAttribs]attrib{}

	if d.uniform != nil {
		d.device.DestroyBuffer(d.uniform)
		d.uniform = nil
	}
	if d.target != nil {
		d.target.destroy(d.device)
		d.target = nil
	}
	if !d.external {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
			d.instance = nil
		}
	}
	d.device = nil
	d.queue = nil
}
