package dot

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

// fakeDevice is a scriptable Device that logs every call by method name.
type fakeDevice struct {
	calls []string

	// fail maps a method name to the error it returns.
	fail map[string]error
	// compileFail maps a stage to the compiler log returned for it.
	compileFail map[ShaderStage]string
	// location is returned by AttribLocation.
	location int

	nextID   uint32
	stages   map[ShaderID]ShaderStage
	deleted  []string
	uploaded []byte
	drawn    [3]int
	clear    Color
	viewport [4]int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		fail:        make(map[string]error),
		compileFail: make(map[ShaderStage]string),
		stages:      make(map[ShaderID]ShaderStage),
	}
}

func (f *fakeDevice) call(name string) error {
	f.calls = append(f.calls, name)
	return f.fail[name]
}

func (f *fakeDevice) id() uint32 {
	f.nextID++
	return f.nextID
}

func (f *fakeDevice) count(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeDevice) Name() string { return "fake" }

func (f *fakeDevice) Viewport(x, y, w, h int) {
	_ = f.call("Viewport")
	f.viewport = [4]int{x, y, w, h}
}

func (f *fakeDevice) CreateShader(stage ShaderStage) (ShaderID, error) {
	if err := f.call("CreateShader"); err != nil {
		return 0, err
	}
	id := ShaderID(f.id())
	f.stages[id] = stage
	return id, nil
}

func (f *fakeDevice) CompileShader(id ShaderID, _ string) error {
	if err := f.call("CompileShader"); err != nil {
		return err
	}
	if log, ok := f.compileFail[f.stages[id]]; ok {
		return errors.New(log)
	}
	return nil
}

func (f *fakeDevice) DeleteShader(id ShaderID) {
	_ = f.call("DeleteShader")
	f.deleted = append(f.deleted, fmt.Sprintf("shader %d", id))
}

func (f *fakeDevice) CreateProgram() (ProgramID, error) {
	if err := f.call("CreateProgram"); err != nil {
		return 0, err
	}
	return ProgramID(f.id()), nil
}

func (f *fakeDevice) AttachShader(_ ProgramID, s ShaderID) error {
	if s == 0 {
		return errors.New("null shader attached")
	}
	return f.call("AttachShader")
}

func (f *fakeDevice) LinkProgram(ProgramID) error { return f.call("LinkProgram") }
func (f *fakeDevice) UseProgram(ProgramID) error  { return f.call("UseProgram") }

func (f *fakeDevice) DeleteProgram(p ProgramID) {
	_ = f.call("DeleteProgram")
	f.deleted = append(f.deleted, fmt.Sprintf("program %d", p))
}

func (f *fakeDevice) AttribLocation(ProgramID, string) int {
	_ = f.call("AttribLocation")
	return f.location
}

func (f *fakeDevice) EnableVertexAttribArray(int) error {
	return f.call("EnableVertexAttribArray")
}

func (f *fakeDevice) VertexAttribPointer(int, AttribLayout) error {
	return f.call("VertexAttribPointer")
}

func (f *fakeDevice) CreateBuffer() (BufferID, error) {
	if err := f.call("CreateBuffer"); err != nil {
		return 0, err
	}
	return BufferID(f.id()), nil
}

func (f *fakeDevice) BindBuffer(BufferID) error { return f.call("BindBuffer") }

func (f *fakeDevice) BufferData(data []byte, _ BufferUsage) error {
	if err := f.call("BufferData"); err != nil {
		return err
	}
	f.uploaded = append([]byte(nil), data...)
	return nil
}

func (f *fakeDevice) ReadBuffer(BufferID) ([]byte, error) {
	return append([]byte(nil), f.uploaded...), f.call("ReadBuffer")
}

func (f *fakeDevice) DeleteBuffer(BufferID) { _ = f.call("DeleteBuffer") }

func (f *fakeDevice) ClearColor(c Color) {
	_ = f.call("ClearColor")
	f.clear = c
}

func (f *fakeDevice) Clear(ClearMask) error { return f.call("Clear") }

func (f *fakeDevice) DrawArrays(mode Primitive, first, count int) error {
	if err := f.call("DrawArrays"); err != nil {
		return err
	}
	f.drawn = [3]int{int(mode), first, count}
	return nil
}

func (f *fakeDevice) ReadPixels() (*image.RGBA, error) {
	if err := f.call("ReadPixels"); err != nil {
		return nil, err
	}
	return image.NewRGBA(image.Rect(0, 0, f.viewport[2], f.viewport[3])), nil
}

func (f *fakeDevice) Destroy() { _ = f.call("Destroy") }

// fakeSurface hands out a fixed device or error.
type fakeSurface struct {
	w, h int
	dev  Device
	err  error
	apis []string
}

func (s *fakeSurface) Width() int  { return s.w }
func (s *fakeSurface) Height() int { return s.h }

func (s *fakeSurface) GetContext(api string) (Device, error) {
	s.apis = append(s.apis, api)
	return s.dev, s.err
}

func (s *fakeSurface) Resize(w, h int) error {
	s.w, s.h = w, h
	return nil
}

// alertLog collects alerts.
type alertLog struct {
	msgs []string
}

func (a *alertLog) Alert(msg string) { a.msgs = append(a.msgs, msg) }

func (a *alertLog) String() string { return strings.Join(a.msgs, "\n") }

// newFakeContext returns a context over a fresh fakeDevice with the call
// log cleared.
func newFakeContext() (*Context, *fakeDevice) {
	dev := newFakeDevice()
	ctx := NewContext(dev, 800, 600)
	dev.calls = nil
	return ctx, dev
}
