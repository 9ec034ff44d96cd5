package recording

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gogpu/dot"
	"github.com/gogpu/dot/backend/software"
)

func runRecorded(t *testing.T, vertices dot.VertexList) (*Surface, *dot.Context) {
	t.Helper()
	canvas, err := dot.NewCanvas(1, 1, dot.WithBackend(dot.BackendSoftware))
	if err != nil {
		t.Fatal(err)
	}
	surface := NewSurface(canvas)
	ctx, err := dot.Run(surface, dot.Config{Width: 80, Height: 60, Vertices: vertices}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	t.Cleanup(ctx.Close)
	return surface, ctx
}

func TestDevice_RecordsRunSequence(t *testing.T) {
	surface, _ := runRecorded(t, dot.DefaultVertices)
	if len(surface.Devices()) != 1 {
		t.Fatalf("Devices = %d, want 1", len(surface.Devices()))
	}
	rec := surface.Last()

	want := []CommandType{
		CmdViewport, CmdClearColor, CmdClearColor,
		CmdCreateShader, CmdCompileShader,
		CmdCreateShader, CmdCompileShader,
		CmdCreateProgram, CmdAttachShader, CmdAttachShader, CmdLinkProgram,
		CmdUseProgram, CmdAttribLocation, CmdEnableVertexAttribArray,
		CmdClear, CmdCreateBuffer, CmdBindBuffer, CmdBufferData,
		CmdVertexAttribPointer, CmdEnableVertexAttribArray, CmdDrawArrays,
	}
	cmds := rec.Commands()
	if len(cmds) != len(want) {
		t.Fatalf("recorded %d commands, want %d:\n%s", len(cmds), len(want), trace(t, rec))
	}
	for i, c := range cmds {
		if c.Type() != want[i] {
			t.Errorf("command %d = %s, want %s", i, c.Type(), want[i])
		}
	}

	if got := rec.Count(CmdDrawArrays); got != 1 {
		t.Errorf("DrawArrays count = %d, want 1", got)
	}
	draw := cmds[len(cmds)-1].(DrawArraysCommand)
	if draw.Mode != dot.Points || draw.First != 0 || draw.Count != 1 {
		t.Errorf("DrawArrays = %+v, want points 0..1", draw)
	}
	data := cmds[17].(BufferDataCommand)
	if len(data.Data) != 8 || data.Usage != dot.UsageStatic {
		t.Errorf("BufferData = %d bytes usage %d, want 8 bytes static", len(data.Data), data.Usage)
	}
	clearCmd := cmds[14].(ClearCommand)
	if clearCmd.Mask != dot.ColorBufferBit|dot.DepthBufferBit {
		t.Errorf("Clear mask = %#x", clearCmd.Mask)
	}
	vp := cmds[0].(ViewportCommand)
	if vp.Width != 80 || vp.Height != 60 {
		t.Errorf("Viewport = %+v, want 80x60", vp)
	}
}

func TestDevice_DrawCountMatchesVertices(t *testing.T) {
	surface, _ := runRecorded(t, dot.VertexList{-1, -1, 1, 1, 0, 0})
	cmds := surface.Last().Commands()
	draw := cmds[len(cmds)-1].(DrawArraysCommand)
	if draw.Count != 3 {
		t.Errorf("DrawArrays count = %d, want 3", draw.Count)
	}
}

func TestDevice_RecordsErrors(t *testing.T) {
	inner, err := software.New(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	rec := NewDevice(inner)
	id, _ := rec.CreateShader(dot.VertexStage)
	if err := rec.CompileShader(id, "not wgsl"); err == nil {
		t.Fatal("CompileShader accepted invalid source")
	}

	entries := rec.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Err != nil || entries[1].Err == nil {
		t.Errorf("entry errors = %v, %v; want nil, non-nil", entries[0].Err, entries[1].Err)
	}
	if out := trace(t, rec); !strings.Contains(out, "CompileShader(") || !strings.Contains(out, " -> ") {
		t.Errorf("trace missing failed compile:\n%s", out)
	}

	rec.Reset()
	if len(rec.Entries()) != 0 {
		t.Error("Reset kept entries")
	}
	if rec.Unwrap() != dot.Device(inner) {
		t.Error("Unwrap returned a different device")
	}
}

func TestPlayback(t *testing.T) {
	surface, ctx := runRecorded(t, dot.VertexList{0, 0, 0.5, 0.5})
	want, err := ctx.ReadPixels()
	if err != nil {
		t.Fatal(err)
	}

	replay, err := software.New(80, 60)
	if err != nil {
		t.Fatal(err)
	}
	defer replay.Destroy()
	// Burn some IDs so the replayed device hands out different ones.
	for i := 0; i < 5; i++ {
		_, _ = replay.CreateBuffer()
	}

	if err := Playback(replay, surface.Last().Commands()); err != nil {
		t.Fatalf("Playback: %v", err)
	}
	got, err := replay.ReadPixels()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Pix, want.Pix) {
		t.Error("replayed frame differs from the recorded one")
	}
	if replay.Stats().Points != 2 {
		t.Errorf("replayed points = %d, want 2", replay.Stats().Points)
	}
}

func TestPlayback_AttribLocationMismatch(t *testing.T) {
	dev, _ := software.New(8, 8)
	cmds := []Command{
		CreateProgramCommand{Program: 7},
		AttribLocationCommand{Program: 7, Name: "aPosition", Location: 0},
	}
	err := Playback(dev, cmds)
	if err == nil || !strings.Contains(err.Error(), "command 1") {
		t.Errorf("Playback error = %v, want failure at command 1", err)
	}
}

func TestCommandType_String(t *testing.T) {
	if CmdDrawArrays.String() != "DrawArrays" {
		t.Errorf("CmdDrawArrays = %q", CmdDrawArrays.String())
	}
	if CommandType(200).String() != "Unknown" {
		t.Errorf("CommandType(200) = %q", CommandType(200).String())
	}
	for i := CmdViewport; i <= CmdDrawArrays; i++ {
		if commandTypeNames[i] == "" {
			t.Errorf("CommandType %d has no name", i)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{ViewportCommand{Width: 800, Height: 600}, "Viewport(0, 0, 800, 600)"},
		{CreateShaderCommand{Stage: dot.FragmentStage, Shader: 2}, "CreateShader(fragment) = 2"},
		{AttribLocationCommand{Program: 3, Name: "aPosition", Location: 0}, `AttribLocation(3, "aPosition") = 0`},
		{BufferDataCommand{Data: make([]byte, 8)}, "BufferData(8 bytes)"},
		{DrawArraysCommand{Mode: dot.Points, Count: 1}, "DrawArrays(points, 0, 1)"},
	}
	for _, tt := range tests {
		if got := Describe(tt.cmd); got != tt.want {
			t.Errorf("Describe(%T) = %q, want %q", tt.cmd, got, tt.want)
		}
	}
}

func TestSurface_ForwardsFailure(t *testing.T) {
	canvas, _ := dot.NewCanvas(4, 4, dot.WithBackend("no-such-backend"))
	surface := NewSurface(canvas)
	if _, err := surface.GetContext(""); err == nil {
		t.Fatal("GetContext succeeded for an unknown backend")
	}
	if surface.Last() != nil || len(surface.Devices()) != 0 {
		t.Error("failed GetContext recorded a device")
	}
	if err := surface.Resize(10, 10); err != nil || canvas.Width() != 10 {
		t.Errorf("Resize: err=%v width=%d", err, canvas.Width())
	}
}

func trace(t *testing.T, d *Device) string {
	t.Helper()
	var buf bytes.Buffer
	if err := d.WriteTrace(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}
