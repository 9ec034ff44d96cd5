// Command dotdemo draws points with the dot renderer and saves a PNG.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/gogpu/dot"
	"github.com/gogpu/dot/recording"

	_ "github.com/gogpu/dot/backend/software"
	_ "github.com/gogpu/dot/backend/wgpu"
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

func main() {
	var (
		width   = flag.Int("width", dot.DefaultWidth, "viewport width")
		height  = flag.Int("height", dot.DefaultHeight, "viewport height")
		backend = flag.String("backend", dot.BackendAuto, "backend: auto, wgpu or software")
		points  = flag.String("points", "0,0", `space separated "x,y" points in clip space`)
		output  = flag.String("output", "dot.png", "output file")
		trace   = flag.Bool("trace", false, "print the device calls to stderr")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	dot.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	vertices, err := parsePoints(*points)
	if err != nil {
		log.Fatalf("Invalid -points: %v", err)
	}

	canvas, err := dot.NewCanvas(*width, *height, dot.WithBackend(*backend))
	if err != nil {
		log.Fatalf("Failed to create canvas: %v", err)
	}
	var surface dot.Surface = canvas
	rec := recording.NewSurface(canvas)
	if *trace {
		surface = rec
	}

	alerts := &alertCollector{out: &dot.WriterAlerter{W: os.Stderr}}
	ctx, err := dot.Run(surface, dot.Config{
		Width:    *width,
		Height:   *height,
		Vertices: vertices,
	}, alerts)
	if ctx != nil {
		defer ctx.Close()
	}

	if *trace {
		if d := rec.Last(); d != nil {
			if werr := d.WriteTrace(os.Stderr); werr != nil {
				log.Printf("Failed to write trace: %v", werr)
			}
		}
	}

	runErr := err
	var img image.Image
	if runErr != nil {
		img, err = dot.RenderAlert(*width, *height, alertMessage(runErr, alerts.last))
		if err != nil {
			log.Fatalf("Failed to render alert: %v", err)
		}
	} else {
		img, err = ctx.ReadPixels()
		if err != nil {
			log.Fatalf("Failed to read pixels: %v", err)
		}
	}

	if err := savePNG(*output, img); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	if runErr != nil {
		log.Printf("Saved alert to %s\n", *output)
		if ctx != nil {
			ctx.Close()
		}
		os.Exit(1)
	}
	log.Printf("Saved %s (%dx%d, %d points)\n", *output, *width, *height, vertices.Len())
}

// alertMessage logs a failed run and returns the text to render in place
// of the frame: the last alert, or the error itself when nothing was
// alerted.
func alertMessage(runErr error, last string) string {
	log.Printf("Render failed: %v", runErr)
	if last == "" {
		return runErr.Error()
	}
	return last
}

// alertCollector forwards alerts and remembers the last one.
type alertCollector struct {
	out  dot.Alerter
	last string
}

func (a *alertCollector) Alert(msg string) {
	a.last = msg
	a.out.Alert(msg)
}

// parsePoints parses "x,y x,y ..." into a vertex list.
func parsePoints(s string) (dot.VertexList, error) {
	fields := strings.Fields(s)
	v := make(dot.VertexList, 0, 2*len(fields))
	for _, f := range fields {
		xs, ys, ok := strings.Cut(f, ",")
		if !ok {
			return nil, fmt.Errorf("point %q: want x,y", f)
		}
		x, err := strconv.ParseFloat(xs, 32)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", f, err)
		}
		y, err := strconv.ParseFloat(ys, 32)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", f, err)
		}
		v = append(v, float32(x), float32(y))
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
