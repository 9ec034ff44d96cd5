package dot

import "fmt"

// Surface is a display surface: pixel dimensions plus the ability to hand
// out a graphics context for a named API.
type Surface interface {
	Width() int
	Height() int
	GetContext(api string) (Device, error)
}

// CanvasOption configures a Canvas during creation.
type CanvasOption func(*Canvas)

// WithBackend sets the backend used when GetContext is called with an
// empty API name. The default is BackendAuto.
func WithBackend(name string) CanvasOption {
	return func(c *Canvas) {
		c.backend = name
	}
}

// Canvas is an offscreen display surface backed by the backend registry.
//
// Canvas is NOT safe for concurrent use.
type Canvas struct {
	width   int
	height  int
	backend string
}

// NewCanvas creates a canvas of the given size.
func NewCanvas(width, height int, opts ...CanvasOption) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	c := &Canvas{width: width, height: height, backend: BackendAuto}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int { return c.width }

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int { return c.height }

// Backend returns the default backend name of the canvas.
func (c *Canvas) Backend() string { return c.backend }

// Resize changes the canvas size. It affects contexts acquired afterwards.
func (c *Canvas) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	c.width, c.height = width, height
	return nil
}

// GetContext opens a device sized to the canvas. An empty api uses the
// canvas backend. Every failure wraps ErrUnsupportedPlatform.
func (c *Canvas) GetContext(api string) (Device, error) {
	if api == "" {
		api = c.backend
	}
	dev, err := openBackend(api, c.width, c.height)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedPlatform, err)
	}
	return dev, nil
}
