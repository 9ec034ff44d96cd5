package recording

import "github.com/gogpu/dot"

// Surface wraps a dot.Surface and records every device it hands out.
type Surface struct {
	dot.Surface
	devices []*Device
}

// NewSurface wraps s.
func NewSurface(s dot.Surface) *Surface {
	return &Surface{Surface: s}
}

// GetContext opens a device from the wrapped surface and wraps it in a
// recording Device.
func (s *Surface) GetContext(api string) (dot.Device, error) {
	inner, err := s.Surface.GetContext(api)
	if err != nil {
		return nil, err
	}
	d := NewDevice(inner)
	s.devices = append(s.devices, d)
	return d, nil
}

// Resize forwards to the wrapped surface when it can be resized.
func (s *Surface) Resize(width, height int) error {
	if r, ok := s.Surface.(interface{ Resize(width, height int) error }); ok {
		return r.Resize(width, height)
	}
	return nil
}

// Devices returns the recording devices opened so far, oldest first.
func (s *Surface) Devices() []*Device {
	return append([]*Device(nil), s.devices...)
}

// Last returns the most recently opened recording device, or nil.
func (s *Surface) Last() *Device {
	if len(s.devices) == 0 {
		return nil
	}
	return s.devices[len(s.devices)-1]
}
