package capture

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"fridgecal/internal/caldate"
	"fridgecal/internal/grid"
	"fridgecal/internal/holiday"
	"fridgecal/internal/model"
)

func sampleLayout(styleID string, n int) grid.Layout {
	day := caldate.Date{Year: 2025, Month: 5, Day: 5}
	var events []model.CalendarEvent
	for i := 0; i < n; i++ {
		events = append(events, model.CalendarEvent{ID: int64(i + 1), Date: day, EndDate: day, Content: "소풍", Color: "#ef4444"})
	}
	return grid.Render(2025, 5, events, styleID, holiday.Default())
}

func TestPixelSize(t *testing.T) {
	w, h := Options{Width: 1080, Height: 1920, Scale: 2}.PixelSize()
	if w != 2160 || h != 3840 {
		t.Errorf("PixelSize = %dx%d", w, h)
	}
	w, h = Options{Width: 1080, Height: 1920}.PixelSize()
	if w != 1080 || h != 1920 {
		t.Errorf("zero scale should mean 1x, got %dx%d", w, h)
	}
}

func TestPainterRasterize(t *testing.T) {
	p, err := NewPainter()
	if err != nil {
		t.Fatal(err)
	}
	l := sampleLayout("dark", 1)
	out, err := p.Rasterize(context.Background(), l, Options{Width: 1080, Height: 1920, Scale: 0.25})
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 270 || b.Dy() != 480 {
		t.Fatalf("size = %v", b)
	}

	bg := color.NRGBAModel.Convert(img.At(0, 0)).(color.NRGBA)
	if bg != parseHex(l.Style.Background) {
		t.Errorf("background = %v, want %v", bg, parseHex(l.Style.Background))
	}

	marker := parseHex("#ef4444")
	found := false
	for y := 0; y < 480 && !found; y++ {
		for x := 0; x < 270; x++ {
			if color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA) == marker {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("event marker color not found in raster")
	}
}

func TestPainterHonorsCancel(t *testing.T) {
	p, _ := NewPainter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Rasterize(ctx, sampleLayout("modern", 0), Options{Width: 1080, Height: 1920, Scale: 0.1}); err == nil {
		t.Error("cancelled context should abort")
	}
}

func TestRasterizeRejectsBadCanvas(t *testing.T) {
	p, _ := NewPainter()
	if _, err := p.Rasterize(context.Background(), sampleLayout("modern", 0), Options{}); err == nil {
		t.Error("zero canvas accepted")
	}
}

func TestPainterFontNeedsHangul(t *testing.T) {
	dir := t.TempDir()
	latin := filepath.Join(dir, "Go-Regular.ttf")
	if err := os.WriteFile(latin, goregular.TTF, 0o600); err != nil {
		t.Fatal(err)
	}
	junk := filepath.Join(dir, "junk.ttf")
	if err := os.WriteFile(junk, []byte("not a font"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewPainterWithFont(latin); !errors.Is(err, ErrNoHangul) {
		t.Errorf("latin font err = %v, want ErrNoHangul", err)
	}
	if _, err := New("painter", ChromiumOptions{}, PainterOptions{FontPath: latin}); !errors.Is(err, ErrNoHangul) {
		t.Errorf("New with latin font err = %v", err)
	}
	if _, err := NewPainterWithFont(junk); err == nil {
		t.Error("unparsable font accepted")
	}
	if _, err := NewPainterWithFont(filepath.Join(dir, "missing.ttf")); err == nil {
		t.Error("missing font accepted")
	}

	p, _ := NewPainter()
	if !covers(p.regular, "SUN 2025") || covers(p.regular, "일") {
		t.Error("coverage check disagrees with the Go fonts")
	}
}

func TestPainterLabels(t *testing.T) {
	p, _ := NewPainter()
	l := sampleLayout("modern", 0)

	lb := p.labels(l)
	if lb.title != "2025.05" || lb.weekdays != latinWeekdays || lb.holidays {
		t.Errorf("latin labels = %+v", lb)
	}

	// Any parsed font stands in for a Hangul one; missing glyphs draw as
	// the notdef box.
	p.hangul = p.regular
	lb = p.labels(l)
	if lb.title != "2025년 5월" || lb.weekdays[0] != "일" || !lb.holidays {
		t.Errorf("hangul labels = %+v", lb)
	}
	if _, err := p.Rasterize(context.Background(), l, Options{Width: 1080, Height: 1920, Scale: 0.25}); err != nil {
		t.Errorf("Rasterize with holiday names: %v", err)
	}
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, sampleLayout("colorful", 5), Options{Width: 1080, Height: 1920}); err != nil {
		t.Fatal(err)
	}
	html := buf.String()
	for _, want := range []string{
		"2025년 5월",
		`data-ready="false"`,
		"calendar-style-colorful",
		"어린이날",
		"background-color: #ef4444",
		"+2",
		"width: 1080px; height: 1920px",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
	if n := strings.Count(html, `class="dot"`); n != 3 {
		t.Errorf("dots = %d, want 3", n)
	}
}

func TestNewBackend(t *testing.T) {
	if r, err := New("painter", ChromiumOptions{}, PainterOptions{}); err != nil || r == nil {
		t.Errorf("painter backend: %v", err)
	}
	if r, err := New("chromium", ChromiumOptions{}, PainterOptions{}); err != nil || r == nil {
		t.Errorf("chromium backend: %v", err)
	}
	if _, err := New("gpu", ChromiumOptions{}, PainterOptions{}); err == nil {
		t.Error("unknown backend accepted")
	}
}
