package convert

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// Fit makes a captured PNG exactly w x h pixels.
//
// Behavior:
//
//   - already w x h: the input bytes are returned untouched.
//   - otherwise the image is scaled to cover w x h while keeping its aspect
//     ratio, then center-cropped on the overflowing axis.
//
// Browser screenshots can be off by a pixel or two after device scaling;
// Fit keeps the published raster pixel-exact regardless of backend.
func Fit(data []byte, w, h int) ([]byte, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("convert: invalid target %dx%d", w, h)
	}
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("convert: decode png: %w", err)
	}
	b := src.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return data, nil
	}
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("convert: empty source image")
	}

	dst := Cover(src, w, h)

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("convert: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Cover scales src so that it fully covers w x h and crops the center.
func Cover(src image.Image, w, h int) *image.NRGBA {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()

	// Pick the crop window in source space with the target aspect ratio:
	// full width if the source is relatively taller, full height otherwise.
	cropW, cropH := sw, sw*h/w
	if cropH > sh {
		cropW, cropH = sh*w/h, sh
	}
	if cropW < 1 {
		cropW = 1
	}
	if cropH < 1 {
		cropH = 1
	}
	startX := b.Min.X + (sw-cropW)/2
	startY := b.Min.Y + (sh-cropH)/2
	crop := image.Rect(startX, startY, startX+cropW, startY+cropH)

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, xdraw.Src, nil)
	return dst
}
