package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"fridgecal/internal/grid"
	"fridgecal/internal/model"
)

// latinWeekdays replaces the Hangul header when no Hangul font is loaded.
// Holiday names are then shown by color only.
var latinWeekdays = [7]string{"SUN", "MON", "TUE", "WED", "THU", "FRI", "SAT"}

// ErrNoHangul reports a font file without the glyphs for Korean labels.
var ErrNoHangul = errors.New("capture: font has no Hangul glyphs")

// hangulSample is the text every Korean label is built from.
const hangulSample = "일월화수목금토년"

// Painter draws the grid with image/draw and the Go fonts. It needs no
// external process, which makes it the default backend.
type Painter struct {
	regular *opentype.Font
	bold    *opentype.Font
	// hangul draws the title, weekday header and holiday names. Nil means
	// Latin labels.
	hangul *opentype.Font
}

// PainterOptions configures the pure Go backend.
type PainterOptions struct {
	// FontPath is a TrueType/OpenType font or collection with Hangul
	// coverage, e.g. NanumGothic.ttf or NotoSansCJK-Regular.ttc.
	FontPath string
}

func NewPainter() (*Painter, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("capture: parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("capture: parse bold font: %w", err)
	}
	return &Painter{regular: regular, bold: bold}, nil
}

// NewPainterWithFont is NewPainter plus the Korean labels drawn with the
// font at path.
func NewPainterWithFont(path string) (*Painter, error) {
	p, err := NewPainter()
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("capture: read font: %w", err)
	}
	f, err := parseFont(raw)
	if err != nil {
		return nil, fmt.Errorf("capture: parse font %s: %w", path, err)
	}
	if !covers(f, hangulSample) {
		return nil, fmt.Errorf("%w: %s", ErrNoHangul, path)
	}
	p.hangul = f
	return p, nil
}

// parseFont accepts a single font or the first face of a collection.
func parseFont(raw []byte) (*opentype.Font, error) {
	if f, err := opentype.Parse(raw); err == nil {
		return f, nil
	}
	c, err := opentype.ParseCollection(raw)
	if err != nil {
		return nil, err
	}
	return c.Font(0)
}

// covers reports whether f has a glyph for every rune of s.
func covers(f *opentype.Font, s string) bool {
	var buf sfnt.Buffer
	for _, r := range s {
		if r == ' ' {
			continue
		}
		if gi, err := f.GlyphIndex(&buf, r); err != nil || gi == 0 {
			return false
		}
	}
	return true
}

// labels is the text drawn around the day numbers.
type labels struct {
	title    string
	weekdays [7]string
	holidays bool
}

func (p *Painter) labels(l grid.Layout) labels {
	if p.hangul == nil {
		return labels{title: fmt.Sprintf("%d.%02d", l.Year, l.Month), weekdays: latinWeekdays}
	}
	title := l.Title
	if title == "" {
		title = grid.Title(l.Year, l.Month)
	}
	return labels{title: title, weekdays: l.Weekdays, holidays: true}
}

// labelFont is the font for Korean capable text, bold otherwise.
func (p *Painter) labelFont() *opentype.Font {
	if p.hangul != nil {
		return p.hangul
	}
	return p.bold
}

// canvas bundles the destination image with the scale factor so that
// layout constants can be written in CSS pixels.
type canvas struct {
	img   *image.NRGBA
	scale float64
	faces []font.Face
}

func (c *canvas) px(v float64) int { return int(v * c.scale) }

func (c *canvas) face(f *opentype.Font, sizeCSS float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizeCSS * c.scale,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	c.faces = append(c.faces, face)
	return face, nil
}

func (c *canvas) close() {
	for _, f := range c.faces {
		_ = f.Close()
	}
}

func (p *Painter) Rasterize(ctx context.Context, l grid.Layout, opts Options) ([]byte, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	w, h := opts.PixelSize()
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	c := &canvas{img: image.NewNRGBA(image.Rect(0, 0, w, h)), scale: scale}
	defer c.close()

	st := l.Style
	fs := st.FontScale
	if fs <= 0 {
		fs = 1
	}

	fill(c.img, c.img.Bounds(), parseHex(st.Background))

	lb := p.labels(l)
	titleFace, err := c.face(p.labelFont(), 84*fs)
	if err != nil {
		return nil, err
	}
	headFace, err := c.face(p.labelFont(), 28*fs)
	if err != nil {
		return nil, err
	}
	numFace, err := c.face(p.bold, 40*fs)
	if err != nil {
		return nil, err
	}
	smallFace, err := c.face(p.regular, 24*fs)
	if err != nil {
		return nil, err
	}
	var nameFace font.Face
	if lb.holidays {
		if nameFace, err = c.face(p.hangul, 20*fs); err != nil {
			return nil, err
		}
	}

	padX, padY := c.px(48), c.px(64)
	drawText(c.img, titleFace, lb.title, padX, padY+c.px(84*fs), parseHex(st.Text))

	gap := c.px(8)
	headTop := padY + c.px(84*fs) + c.px(48)
	headH := c.px(56)
	gridTop := headTop + headH + gap
	gridW := w - 2*padX
	gridH := h - padY - gridTop
	cellW := (gridW - 6*gap) / 7
	cellH := (gridH - 5*gap) / grid.Weeks

	for i, label := range lb.weekdays {
		col := parseHex(st.Muted)
		switch i {
		case 0:
			col = parseHex(st.Sunday)
		case 6:
			col = parseHex(st.Saturday)
		}
		x := padX + i*(cellW+gap)
		tw := font.MeasureString(headFace, label).Round()
		drawText(c.img, headFace, label, x+(cellW-tw)/2, headTop+c.px(38), col)
	}

	for i, cell := range l.Cells {
		if i%7 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if cell.Empty {
			continue
		}
		row, col := i/7, i%7
		r := image.Rect(0, 0, cellW, cellH).Add(image.Pt(padX+col*(cellW+gap), gridTop+row*(cellH+gap)))
		p.drawCell(c, r, cell, st, numFace, smallFace, nameFace)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, c.img); err != nil {
		return nil, fmt.Errorf("capture: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// drawCell paints one day. nameFace is nil when holiday names are not drawn.
func (p *Painter) drawCell(c *canvas, r image.Rectangle, cell grid.Cell, st grid.Style, numFace, smallFace, nameFace font.Face) {
	if bw := c.px(float64(st.BorderWidth)); bw > 0 {
		fill(c.img, r, parseHex(st.Border))
		r = r.Inset(bw)
	}
	fill(c.img, r, parseHex(st.Surface))

	numColor := parseHex(st.Text)
	switch {
	case cell.Holiday != nil || cell.Weekday == 0:
		numColor = parseHex(st.Sunday)
	case cell.Weekday == 6:
		numColor = parseHex(st.Saturday)
	}
	inset := c.px(12)
	drawText(c.img, numFace, strconv.Itoa(cell.Day), r.Min.X+inset, r.Min.Y+inset+c.px(36), numColor)

	if cell.Holiday != nil && cell.Holiday.Lunar != "" {
		tw := font.MeasureString(smallFace, cell.Holiday.Lunar).Round()
		drawText(c.img, smallFace, cell.Holiday.Lunar, r.Max.X-inset-tw, r.Min.Y+inset+c.px(22), parseHex(st.Muted))
	}
	if cell.Holiday != nil && nameFace != nil {
		drawText(c.img, nameFace, cell.Holiday.Name, r.Min.X+inset, r.Min.Y+inset+c.px(66), parseHex(st.Sunday))
	}

	radius := c.px(9)
	x := r.Min.X + inset + radius
	y := r.Max.Y - inset - radius
	for _, ev := range cell.Markers() {
		fillCircle(c.img, x, y, radius, parseHex(ev.Color))
		x += 2*radius + c.px(6)
	}
	if n := cell.Overflow(); n > 0 {
		drawText(c.img, smallFace, "+"+strconv.Itoa(n), x, y+c.px(8), parseHex(st.Muted))
	}
}

func fill(dst draw.Image, r image.Rectangle, col color.Color) {
	draw.Draw(dst, r, image.NewUniform(col), image.Point{}, draw.Src)
}

func fillCircle(img *image.NRGBA, cx, cy, r int, col color.NRGBA) {
	rr := r * r
	b := img.Bounds()
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy > rr || !image.Pt(x, y).In(b) {
				continue
			}
			img.SetNRGBA(x, y, col)
		}
	}
}

func drawText(dst draw.Image, face font.Face, s string, x, baseline int, col color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}

// parseHex decodes #rrggbb. Malformed input yields the default marker color.
func parseHex(s string) color.NRGBA {
	s, _ = model.NormalizeColor(s)
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 16, 32)
	if err != nil {
		return color.NRGBA{A: 0xff}
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
