package software

import (
	"errors"
	"image/color"
	"strings"
	"testing"

	"github.com/gogpu/dot"
)

// newLinked returns a device with the default point program linked, in
// use, and its position attribute bound to a buffer holding vertices.
func newLinked(t *testing.T, w, h int, vertices dot.VertexList) *Device {
	t.Helper()
	d, err := New(w, h)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p := linkDefault(t, d)
	if err := d.UseProgram(p); err != nil {
		t.Fatalf("UseProgram: %v", err)
	}
	loc := d.AttribLocation(p, dot.PositionAttribute)
	if loc < 0 {
		t.Fatalf("AttribLocation = %d", loc)
	}
	buf, _ := d.CreateBuffer()
	if err := d.BindBuffer(buf); err != nil {
		t.Fatalf("BindBuffer: %v", err)
	}
	if err := d.BufferData(vertices.Bytes(), dot.UsageStatic); err != nil {
		t.Fatalf("BufferData: %v", err)
	}
	if err := d.VertexAttribPointer(loc, dot.PositionLayout); err != nil {
		t.Fatalf("VertexAttribPointer: %v", err)
	}
	if err := d.EnableVertexAttribArray(loc); err != nil {
		t.Fatalf("EnableVertexAttribArray: %v", err)
	}
	d.ClearColor(dot.White)
	if err := d.Clear(dot.ColorBufferBit | dot.DepthBufferBit); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	return d
}

func linkDefault(t *testing.T, d *Device) dot.ProgramID {
	t.Helper()
	vs, _ := d.CreateShader(dot.VertexStage)
	if err := d.CompileShader(vs, dot.VertexShaderSource); err != nil {
		t.Fatalf("compile vertex: %v", err)
	}
	fs, _ := d.CreateShader(dot.FragmentStage)
	if err := d.CompileShader(fs, dot.FragmentShaderSource); err != nil {
		t.Fatalf("compile fragment: %v", err)
	}
	p, _ := d.CreateProgram()
	if err := d.AttachShader(p, vs); err != nil {
		t.Fatalf("attach vertex: %v", err)
	}
	if err := d.AttachShader(p, fs); err != nil {
		t.Fatalf("attach fragment: %v", err)
	}
	if err := d.LinkProgram(p); err != nil {
		t.Fatalf("LinkProgram: %v", err)
	}
	return p
}

func TestNew_InvalidDimensions(t *testing.T) {
	for _, size := range [][2]int{{0, 10}, {10, 0}, {-1, -1}} {
		if _, err := New(size[0], size[1]); !errors.Is(err, dot.ErrInvalidDimensions) {
			t.Errorf("New(%d, %d) error = %v, want ErrInvalidDimensions", size[0], size[1], err)
		}
	}
}

func TestRegistered(t *testing.T) {
	if !dot.IsRegistered(dot.BackendSoftware) {
		t.Fatal("software backend not registered")
	}
}

func TestClear(t *testing.T) {
	d, _ := New(4, 3)
	d.ClearColor(dot.Color{R: 1, G: 0, B: 0, A: 1})
	if err := d.Clear(dot.ColorBufferBit); err != nil {
		t.Fatal(err)
	}
	img, _ := d.ReadPixels()
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			if got := img.RGBAAt(x, y); got != (color.RGBA{255, 0, 0, 255}) {
				t.Fatalf("pixel (%d,%d) = %v, want red", x, y, got)
			}
		}
	}
	if err := d.Clear(1 << 5); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Clear(bad mask) error = %v, want ErrInvalidValue", err)
	}
}

func TestDrawCenterPoint(t *testing.T) {
	d := newLinked(t, 800, 600, dot.VertexList{0, 0})
	if err := d.DrawArrays(dot.Points, 0, 1); err != nil {
		t.Fatalf("DrawArrays: %v", err)
	}
	img, _ := d.ReadPixels()

	black := color.RGBA{0, 0, 0, 255}
	white := color.RGBA{255, 255, 255, 255}
	for y := 290; y < 310; y++ {
		for x := 390; x < 410; x++ {
			want := white
			if x >= 397 && x <= 401 && y >= 297 && y <= 301 {
				want = black
			}
			if got := img.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
	if got := img.RGBAAt(0, 0); got != white {
		t.Errorf("corner pixel = %v, want white", got)
	}

	st := d.Stats()
	if st.DrawCalls != 1 || st.Points != 1 || st.Fragments != 25 {
		t.Errorf("Stats = %+v, want 1 draw, 1 point, 25 fragments", st)
	}
}

func TestDrawCorners(t *testing.T) {
	d := newLinked(t, 800, 600, dot.VertexList{-1, -1, 1, 1})
	if err := d.DrawArrays(dot.Points, 0, 2); err != nil {
		t.Fatalf("DrawArrays: %v", err)
	}
	img, _ := d.ReadPixels()

	black := color.RGBA{0, 0, 0, 255}
	if got := img.RGBAAt(0, 599); got != black {
		t.Errorf("bottom-left pixel = %v, want black", got)
	}
	if got := img.RGBAAt(799, 0); got != black {
		t.Errorf("top-right pixel = %v, want black", got)
	}
	if got := img.RGBAAt(400, 300); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("center pixel = %v, want white", got)
	}
	// Each corner point keeps a 3x2 (or 2x3) pixel quarter.
	if st := d.Stats(); st.Points != 2 || st.Fragments != 12 {
		t.Errorf("Stats = %+v, want 2 points, 12 fragments", st)
	}
}

func TestDrawClipsOutsidePoints(t *testing.T) {
	d := newLinked(t, 64, 64, dot.VertexList{1.5, 0, 0, -2})
	if err := d.DrawArrays(dot.Points, 0, 2); err != nil {
		t.Fatalf("DrawArrays: %v", err)
	}
	if st := d.Stats(); st.Points != 0 || st.Fragments != 0 {
		t.Errorf("Stats = %+v, want nothing rasterized", st)
	}
}

func TestDrawViewport(t *testing.T) {
	d := newLinked(t, 100, 100, dot.VertexList{0, 0})
	d.Viewport(0, 0, 50, 50)
	if err := d.DrawArrays(dot.Points, 0, 1); err != nil {
		t.Fatal(err)
	}
	img, _ := d.ReadPixels()
	if got := img.RGBAAt(25, 25); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("viewport center = %v, want black", got)
	}
	if got := img.RGBAAt(50, 50); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("target center = %v, want white", got)
	}
}

func TestDrawArrays_Errors(t *testing.T) {
	t.Run("no program", func(t *testing.T) {
		d, _ := New(8, 8)
		if err := d.DrawArrays(dot.Points, 0, 1); !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("error = %v, want ErrInvalidOperation", err)
		}
	})
	t.Run("bad mode", func(t *testing.T) {
		d := newLinked(t, 8, 8, dot.VertexList{0, 0})
		if err := d.DrawArrays(0, 0, 1); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("error = %v, want ErrInvalidValue", err)
		}
	})
	t.Run("past end", func(t *testing.T) {
		d := newLinked(t, 8, 8, dot.VertexList{0, 0})
		if err := d.DrawArrays(dot.Points, 0, 2); !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("error = %v, want ErrInvalidOperation", err)
		}
	})
	t.Run("negative count", func(t *testing.T) {
		d := newLinked(t, 8, 8, dot.VertexList{0, 0})
		if err := d.DrawArrays(dot.Points, 0, -1); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("error = %v, want ErrInvalidValue", err)
		}
	})
	t.Run("zero count", func(t *testing.T) {
		d := newLinked(t, 8, 8, dot.VertexList{0, 0})
		if err := d.DrawArrays(dot.Points, 0, 0); err != nil {
			t.Errorf("error = %v, want nil", err)
		}
	})
}

func TestCompileShader_Error(t *testing.T) {
	d, _ := New(8, 8)
	id, _ := d.CreateShader(dot.VertexStage)
	err := d.CompileShader(id, "this is not wgsl")
	if err == nil {
		t.Fatal("CompileShader accepted invalid source")
	}
	if err.Error() == "" {
		t.Error("compile error has no diagnostic")
	}

	if err := d.CompileShader(999, dot.VertexShaderSource); !errors.Is(err, ErrInvalidObject) {
		t.Errorf("unknown shader error = %v, want ErrInvalidObject", err)
	}
}

func TestLinkProgram_Errors(t *testing.T) {
	t.Run("missing fragment stage", func(t *testing.T) {
		d, _ := New(8, 8)
		vs, _ := d.CreateShader(dot.VertexStage)
		_ = d.CompileShader(vs, dot.VertexShaderSource)
		p, _ := d.CreateProgram()
		_ = d.AttachShader(p, vs)
		if err := d.LinkProgram(p); err == nil {
			t.Fatal("LinkProgram succeeded without a fragment stage")
		}
		if err := d.UseProgram(p); !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("UseProgram(unlinked) error = %v, want ErrInvalidOperation", err)
		}
		if loc := d.AttribLocation(p, dot.PositionAttribute); loc != -1 {
			t.Errorf("AttribLocation(unlinked) = %d, want -1", loc)
		}
	})

	t.Run("uncompiled shader", func(t *testing.T) {
		d, _ := New(8, 8)
		vs, _ := d.CreateShader(dot.VertexStage)
		fs, _ := d.CreateShader(dot.FragmentStage)
		_ = d.CompileShader(fs, dot.FragmentShaderSource)
		p, _ := d.CreateProgram()
		_ = d.AttachShader(p, vs)
		_ = d.AttachShader(p, fs)
		err := d.LinkProgram(p)
		if err == nil || !strings.Contains(err.Error(), "not compiled") {
			t.Errorf("LinkProgram error = %v, want not compiled", err)
		}
	})

	t.Run("double attach", func(t *testing.T) {
		d, _ := New(8, 8)
		vs, _ := d.CreateShader(dot.VertexStage)
		p, _ := d.CreateProgram()
		_ = d.AttachShader(p, vs)
		if err := d.AttachShader(p, vs); !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("second AttachShader error = %v, want ErrInvalidOperation", err)
		}
	})
}

func TestLinkProgram_Constants(t *testing.T) {
	d, _ := New(32, 32)
	vsSrc := strings.Replace(dot.VertexShaderSource, "POINT_SIZE: f32 = 5.0", "POINT_SIZE: f32 = 3.0", 1)
	fsSrc := strings.Replace(dot.FragmentShaderSource, "vec4<f32>(0.0, 0.0, 0.0, 1.0)", "vec4<f32>(1.0, 0.0, 0.0, 1.0)", 1)

	vs, _ := d.CreateShader(dot.VertexStage)
	if err := d.CompileShader(vs, vsSrc); err != nil {
		t.Fatal(err)
	}
	fs, _ := d.CreateShader(dot.FragmentStage)
	if err := d.CompileShader(fs, fsSrc); err != nil {
		t.Fatal(err)
	}
	p, _ := d.CreateProgram()
	_ = d.AttachShader(p, vs)
	_ = d.AttachShader(p, fs)
	if err := d.LinkProgram(p); err != nil {
		t.Fatal(err)
	}

	prog := d.programs[p]
	if prog.pointSize != 3 {
		t.Errorf("pointSize = %v, want 3", prog.pointSize)
	}
	if prog.color != (dot.Color{R: 1, A: 1}) {
		t.Errorf("color = %+v, want opaque red", prog.color)
	}
}

func TestBuffers(t *testing.T) {
	d, _ := New(8, 8)
	if err := d.BufferData([]byte{1}, dot.UsageStatic); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("BufferData without binding error = %v", err)
	}
	if err := d.VertexAttribPointer(0, dot.PositionLayout); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("VertexAttribPointer without binding error = %v", err)
	}

	id, _ := d.CreateBuffer()
	if err := d.BindBuffer(id); err != nil {
		t.Fatal(err)
	}
	want := dot.VertexList{0.25, -0.5}.Bytes()
	if err := d.BufferData(want, dot.UsageStatic); err != nil {
		t.Fatal(err)
	}
	got, err := d.ReadBuffer(id)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(want) {
		t.Errorf("ReadBuffer = %v, want %v", got, want)
	}

	d.DeleteBuffer(id)
	if _, err := d.ReadBuffer(id); !errors.Is(err, ErrInvalidObject) {
		t.Errorf("ReadBuffer(deleted) error = %v, want ErrInvalidObject", err)
	}
	if err := d.BindBuffer(id); !errors.Is(err, ErrInvalidObject) {
		t.Errorf("BindBuffer(deleted) error = %v, want ErrInvalidObject", err)
	}
}

func TestVertexAttribPointer_Validation(t *testing.T) {
	d, _ := New(8, 8)
	id, _ := d.CreateBuffer()
	_ = d.BindBuffer(id)

	tests := []struct {
		name   string
		index  int
		layout dot.AttribLayout
	}{
		{"negative index", -1, dot.PositionLayout},
		{"index too large", maxVertexAttribs, dot.PositionLayout},
		{"size zero", 0, dot.AttribLayout{Size: 0, Type: dot.Float32}},
		{"size five", 0, dot.AttribLayout{Size: 5, Type: dot.Float32}},
		{"no type", 0, dot.AttribLayout{Size: 2}},
		{"negative stride", 0, dot.AttribLayout{Size: 2, Type: dot.Float32, Stride: -4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := d.VertexAttribPointer(tt.index, tt.layout); !errors.Is(err, ErrInvalidValue) {
				t.Errorf("error = %v, want ErrInvalidValue", err)
			}
		})
	}
}

func TestDestroy(t *testing.T) {
	d := newLinked(t, 8, 8, dot.VertexList{0, 0})
	d.Destroy()
	if len(d.shaders)+len(d.programs)+len(d.buffers) != 0 {
		t.Error("Destroy left objects behind")
	}
	if err := d.DrawArrays(dot.Points, 0, 1); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("DrawArrays after Destroy error = %v, want ErrInvalidOperation", err)
	}
}
