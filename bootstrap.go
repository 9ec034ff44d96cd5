package dot

import "fmt"

// Default viewport size used when a Config leaves it unset.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// Config configures Run. Zero fields take defaults.
type Config struct {
	// Width and Height are the viewport the surface is sized to.
	Width, Height int

	// Backend names the graphics API requested from the surface.
	// Empty lets the surface choose.
	Backend string

	// Vertices is the scene. Nil means DefaultVertices.
	Vertices VertexList

	// VertexShader and FragmentShader override the built-in sources.
	VertexShader, FragmentShader string

	// Background is the clear color. Nil means opaque white.
	Background *Color
}

func (c Config) withDefaults() Config {
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.Vertices == nil {
		c.Vertices = DefaultVertices
	}
	if c.VertexShader == "" {
		c.VertexShader = VertexShaderSource
	}
	if c.FragmentShader == "" {
		c.FragmentShader = FragmentShaderSource
	}
	if c.Background == nil {
		bg := White
		c.Background = &bg
	}
	return c
}

// resizer is implemented by surfaces whose size can be changed.
type resizer interface {
	Resize(width, height int) error
}

// Run sizes the surface to the viewport, initializes a context, compiles
// the shaders and draws the scene once. The context is returned so the
// caller can read back pixels; it is nil if context acquisition failed.
//
// Run never loops and every failure is terminal. Only context, compile and
// link failures are raised through alert; the rest (surface resize, other
// device errors, an invalid vertex list) are only returned, so callers
// that show alerts must report the error themselves.
func Run(s Surface, cfg Config, alert Alerter) (*Context, error) {
	cfg = cfg.withDefaults()

	if r, ok := s.(resizer); ok {
		if err := r.Resize(cfg.Width, cfg.Height); err != nil {
			return nil, fmt.Errorf("size surface: %w", err)
		}
	}

	ctx, err := InitContext(s, cfg.Backend, alert)
	if err != nil {
		return nil, err
	}
	ctx.SetClearColor(*cfg.Background)

	prog, err := InitShaders(ctx, cfg.VertexShader, cfg.FragmentShader, alert)
	if err != nil {
		return ctx, err
	}

	if _, err := DrawScene(ctx, prog, cfg.Vertices); err != nil {
		return ctx, err
	}
	return ctx, nil
}
