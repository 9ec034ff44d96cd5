package dot

import (
	"errors"
	"fmt"
	"image"
)

// unsupportedMessage is the alert raised when no context can be acquired.
const unsupportedMessage = "Unable to initialize the graphics context. Your platform may not support it."

// Context is an initialized drawing context: a device bound to a surface
// of a fixed size. It is passed explicitly to the shader compiler and the
// scene renderer.
type Context struct {
	device Device
	width  int
	height int
	clear  Color
}

// NewContext wraps an already opened device. The viewport is set to the
// full width x height area and the clear color to opaque white.
func NewContext(dev Device, width, height int) *Context {
	c := &Context{device: dev, width: width, height: height}
	dev.Viewport(0, 0, width, height)
	c.SetClearColor(White)
	return c
}

// InitContext acquires a context for api from the surface. An empty api
// lets the surface choose. On failure the alert is raised and the returned
// error wraps ErrUnsupportedPlatform; the caller must not go on to compile
// shaders.
func InitContext(s Surface, api string, alert Alerter) (*Context, error) {
	dev, err := s.GetContext(api)
	if err == nil && dev == nil {
		err = errors.New("surface returned no device")
	}
	if err != nil {
		raise(alert, unsupportedMessage)
		if !errors.Is(err, ErrUnsupportedPlatform) {
			err = fmt.Errorf("%w: %w", ErrUnsupportedPlatform, err)
		}
		return nil, err
	}
	Logger().Info("context initialized", "backend", dev.Name(), "width", s.Width(), "height", s.Height())
	return NewContext(dev, s.Width(), s.Height()), nil
}

// Device returns the underlying device.
func (c *Context) Device() Device { return c.device }

// Size returns the drawable size in pixels.
func (c *Context) Size() (width, height int) { return c.width, c.height }

// ClearColor returns the background color used by DrawScene.
func (c *Context) ClearColor() Color { return c.clear }

// SetClearColor sets the background color used by DrawScene.
func (c *Context) SetClearColor(col Color) {
	c.clear = col
	c.device.ClearColor(col)
}

// ReadPixels returns the current color target.
func (c *Context) ReadPixels() (*image.RGBA, error) {
	return c.device.ReadPixels()
}

// Close destroys the device and everything it owns.
func (c *Context) Close() {
	if c.device != nil {
		c.device.Destroy()
		c.device = nil
	}
}
