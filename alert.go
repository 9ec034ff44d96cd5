package dot

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Alerter is the user-visible failure channel. Alert blocks until the
// message has been delivered.
type Alerter interface {
	Alert(msg string)
}

// AlertFunc adapts a function to the Alerter interface.
type AlertFunc func(msg string)

// Alert calls f(msg).
func (f AlertFunc) Alert(msg string) { f(msg) }

// LogAlerter raises alerts as error records on the dot logger.
type LogAlerter struct{}

// Alert logs msg at error level.
func (LogAlerter) Alert(msg string) {
	Logger().Error("alert", "msg", msg)
}

// WriterAlerter writes every alert as one line to W.
type WriterAlerter struct {
	mu sync.Mutex
	W  io.Writer
}

// Alert writes msg followed by a newline.
func (a *WriterAlerter) Alert(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, _ = fmt.Fprintln(a.W, msg)
}

// raise delivers msg through alert, or the logger when alert is nil.
func raise(alert Alerter, msg string) {
	if alert == nil {
		LogAlerter{}.Alert(msg)
		return
	}
	alert.Alert(msg)
}

// Alert box geometry in pixels.
const (
	alertFontSize = 16
	alertPadding  = 12
	alertBorder   = 2
)

var (
	alertFaceOnce sync.Once
	alertFace     font.Face
	alertFaceErr  error
)

func loadAlertFace() (font.Face, error) {
	alertFaceOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			alertFaceErr = fmt.Errorf("parse alert font: %w", err)
			return
		}
		alertFace, alertFaceErr = opentype.NewFace(f, &opentype.FaceOptions{
			Size:    alertFontSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	})
	return alertFace, alertFaceErr
}

// RenderAlert renders msg as a modal message box centered on a white
// width x height image. Lines wider than the image are wrapped at word
// boundaries.
func RenderAlert(width, height int, msg string) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	face, err := loadAlertFace()
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(White), image.Point{}, draw.Src)

	d := &font.Drawer{Dst: img, Src: image.NewUniform(Black), Face: face}
	maxText := fixed.I(width - 2*(alertPadding+alertBorder))
	lines := wrapText(d, msg, maxText)

	metrics := face.Metrics()
	lineH := metrics.Height.Ceil()
	var textW fixed.Int26_6
	for _, line := range lines {
		if w := d.MeasureString(line); w > textW {
			textW = w
		}
	}

	boxW := min(textW.Ceil()+2*alertPadding, width-2*alertBorder)
	boxH := min(lineH*len(lines)+2*alertPadding, height-2*alertBorder)
	box := image.Rect(0, 0, boxW, boxH).Add(image.Pt((width-boxW)/2, (height-boxH)/2))

	frame := box.Inset(-alertBorder)
	draw.Draw(img, frame, image.NewUniform(color.Gray{Y: 64}), image.Point{}, draw.Src)
	draw.Draw(img, box, image.NewUniform(color.Gray{Y: 240}), image.Point{}, draw.Src)

	y := box.Min.Y + alertPadding + metrics.Ascent.Ceil()
	for _, line := range lines {
		d.Dot = fixed.P(box.Min.X+alertPadding, y)
		d.DrawString(line)
		y += lineH
	}
	return img, nil
}

// wrapText splits s into lines no wider than maxWidth, breaking at spaces.
// A single word wider than maxWidth gets a line of its own.
func wrapText(d *font.Drawer, s string, maxWidth fixed.Int26_6) []string {
	var lines []string
	var line []byte
	word := 0
	flush := func() {
		if len(line) > 0 {
			lines = append(lines, string(line))
			line = line[:0]
		}
	}
	for word < len(s) {
		end := word
		for end < len(s) && s[end] != ' ' && s[end] != '\n' {
			end++
		}
		w := s[word:end]
		if len(line) > 0 && d.MeasureString(string(line)+" "+w) > maxWidth {
			flush()
		}
		if len(line) > 0 {
			line = append(line, ' ')
		}
		line = append(line, w...)
		if end < len(s) && s[end] == '\n' {
			flush()
		}
		word = end + 1
	}
	flush()
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}
