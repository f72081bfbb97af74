// Package capture serializes a laid-out calendar grid into a PNG raster.
//
// Backends are interchangeable behind Rasterizer: Painter draws directly
// with image/draw, Chromium renders the HTML view in headless Chromium and
// screenshots it.
package capture

import (
	"context"
	"fmt"
	"math"

	"fridgecal/internal/grid"
)

// Options describes the output canvas. Width and Height are in CSS pixels;
// the raster is Width*Scale x Height*Scale device pixels.
type Options struct {
	Width  int
	Height int
	Scale  float64
}

// PixelSize returns the expected raster dimensions for o.
func (o Options) PixelSize() (int, int) {
	s := o.Scale
	if s <= 0 {
		s = 1
	}
	return int(math.Round(float64(o.Width) * s)), int(math.Round(float64(o.Height) * s))
}

func (o Options) validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("capture: invalid canvas %dx%d", o.Width, o.Height)
	}
	if o.Scale < 0 {
		return fmt.Errorf("capture: negative scale %v", o.Scale)
	}
	return nil
}

// Rasterizer turns a grid layout into encoded PNG bytes.
type Rasterizer interface {
	Rasterize(ctx context.Context, l grid.Layout, opts Options) ([]byte, error)
}

// New returns the backend named by name ("painter" or "chromium").
func New(name string, chromium ChromiumOptions, painter PainterOptions) (Rasterizer, error) {
	switch name {
	case "", "painter":
		if painter.FontPath != "" {
			return NewPainterWithFont(painter.FontPath)
		}
		return NewPainter()
	case "chromium":
		return NewChromium(chromium), nil
	default:
		return nil, fmt.Errorf("capture: unknown backend %q", name)
	}
}
