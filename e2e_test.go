package dot_test

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/gogpu/dot"
	"github.com/gogpu/dot/backend/software"
)

var (
	black = color.RGBA{0, 0, 0, 255}
	white = color.RGBA{255, 255, 255, 255}
)

func render(t *testing.T, vertices dot.VertexList) *image.RGBA {
	t.Helper()
	canvas, err := dot.NewCanvas(1, 1, dot.WithBackend(dot.BackendSoftware))
	if err != nil {
		t.Fatal(err)
	}
	ctx, err := dot.Run(canvas, dot.Config{Vertices: vertices}, dot.AlertFunc(func(msg string) {
		t.Errorf("alert: %s", msg)
	}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer ctx.Close()

	img, err := ctx.ReadPixels()
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func countBlack(img *image.RGBA) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y) == black {
				n++
			}
		}
	}
	return n
}

func TestRun_CenterPoint(t *testing.T) {
	img := render(t, nil)
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 600 {
		t.Fatalf("bounds = %v, want 800x600", b)
	}

	box := image.Rect(397, 297, 402, 302)
	for y := 290; y < 310; y++ {
		for x := 390; x < 410; x++ {
			want := white
			if (image.Point{X: x, Y: y}).In(box) {
				want = black
			}
			if got := img.RGBAAt(x, y); got != want {
				t.Errorf("pixel (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
	if n := countBlack(img); n != 25 {
		t.Errorf("black pixels = %d, want 25", n)
	}
}

func TestRun_CornerPoints(t *testing.T) {
	img := render(t, dot.VertexList{-1, -1, 1, 1})

	// Each corner keeps the quarter of its 5x5 square that lies inside.
	if got := img.RGBAAt(0, 599); got != black {
		t.Errorf("bottom-left pixel = %v, want black", got)
	}
	if got := img.RGBAAt(799, 0); got != black {
		t.Errorf("top-right pixel = %v, want black", got)
	}
	if got := img.RGBAAt(0, 0); got != white {
		t.Errorf("top-left pixel = %v, want white", got)
	}
	if got := img.RGBAAt(400, 300); got != white {
		t.Errorf("center pixel = %v, want white", got)
	}
}

func TestRun_OutsidePointsDrawNothing(t *testing.T) {
	img := render(t, dot.VertexList{1.5, 0, 0, -2})
	if n := countBlack(img); n != 0 {
		t.Errorf("black pixels = %d, want 0", n)
	}
}

func TestRun_ManualPipeline(t *testing.T) {
	dev, err := software.New(64, 64)
	if err != nil {
		t.Fatal(err)
	}
	ctx := dot.NewContext(dev, 64, 64)
	defer ctx.Close()

	prog, err := dot.InitShaders(ctx, dot.VertexShaderSource, dot.FragmentShaderSource, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		frame, err := dot.DrawScene(ctx, prog, dot.DefaultVertices)
		if err != nil {
			t.Fatal(err)
		}
		dev.DeleteBuffer(frame.Buffer)
	}
	if s := dev.Stats(); s.DrawCalls != 3 || s.Fragments != 75 {
		t.Errorf("stats = %+v, want 3 draws and 75 fragments", s)
	}

	img, _ := ctx.ReadPixels()
	if n := countBlack(img); n != 25 {
		t.Errorf("black pixels = %d, want 25", n)
	}
}

func runFailing(t *testing.T, cfg dot.Config) (*alerts, error) {
	t.Helper()
	canvas, err := dot.NewCanvas(1, 1, dot.WithBackend(dot.BackendSoftware))
	if err != nil {
		t.Fatal(err)
	}
	a := &alerts{}
	ctx, err := dot.Run(canvas, cfg, a)
	if ctx != nil {
		dev := ctx.Device().(*software.Device)
		if n := dev.Stats().DrawCalls; n != 0 {
			t.Errorf("draw calls = %d after a failure, want 0", n)
		}
		ctx.Close()
	}
	return a, err
}

type alerts struct{ msgs []string }

func (a *alerts) Alert(msg string) { a.msgs = append(a.msgs, msg) }

func TestRun_InvalidVertexShader(t *testing.T) {
	a, err := runFailing(t, dot.Config{VertexShader: "@vertex fn vs_main( {"})
	var ce *dot.ShaderCompileError
	if !errors.As(err, &ce) || ce.Stage != dot.VertexStage {
		t.Fatalf("error = %v, want vertex compile error", err)
	}
	if len(a.msgs) != 1 || !strings.HasPrefix(a.msgs[0], "An error occurred compiling the shaders: ") {
		t.Errorf("alerts = %q", a.msgs)
	}
}

const tintFragment = `
@fragment
fn fs_main(@location(0) tint: vec4<f32>) -> @location(0) vec4<f32> {
    return tint;
}`

func TestInitShaders_AliasedVarying(t *testing.T) {
	dev, err := software.New(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	ctx := dot.NewContext(dev, 8, 8)
	defer ctx.Close()

	const vs = `
alias Tint = vec4<f32>;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) tint: Tint,
}

@vertex
fn vs_main(@location(0) aPosition: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(aPosition, 0.0, 1.0);
    out.tint = vec4<f32>(0.0, 0.0, 0.0, 1.0);
    return out;
}`
	prog, err := dot.InitShaders(ctx, vs, tintFragment, dot.AlertFunc(func(msg string) {
		t.Errorf("alert: %s", msg)
	}))
	if err != nil {
		t.Fatalf("InitShaders: %v", err)
	}
	if got := prog.Position(); got != 0 {
		t.Errorf("Position() = %d, want 0", got)
	}
}

func TestRun_LinkFailure(t *testing.T) {
	a, err := runFailing(t, dot.Config{FragmentShader: tintFragment})
	var le *dot.ProgramLinkError
	if !errors.As(err, &le) {
		t.Fatalf("error = %v, want link error", err)
	}
	if len(a.msgs) != 1 || a.msgs[0] != "Unable to initialize the shader program." {
		t.Errorf("alerts = %q", a.msgs)
	}
}

func TestRun_UnsupportedPlatform(t *testing.T) {
	canvas, _ := dot.NewCanvas(1, 1, dot.WithBackend("webgl"))
	a := &alerts{}
	ctx, err := dot.Run(canvas, dot.Config{}, a)
	if ctx != nil || !errors.Is(err, dot.ErrUnsupportedPlatform) {
		t.Errorf("Run = %v, %v; want nil, ErrUnsupportedPlatform", ctx, err)
	}
	if len(a.msgs) != 1 {
		t.Errorf("alerts = %q, want one", a.msgs)
	}
}
