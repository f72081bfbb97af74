package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"fridgecal/internal/grid"
	appLog "fridgecal/internal/log"
)

const DefaultChromiumTimeout = 30 * time.Second

// ChromiumOptions configures the headless browser backend.
type ChromiumOptions struct {
	// ExecPath overrides the Chromium binary. Empty uses chromedp's lookup.
	ExecPath string
	// Timeout bounds one capture. Zero means DefaultChromiumTimeout.
	Timeout time.Duration
}

// Chromium renders the calendar HTML view in headless Chromium and
// screenshots the export root.
type Chromium struct {
	opts ChromiumOptions
}

func NewChromium(opts ChromiumOptions) *Chromium {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultChromiumTimeout
	}
	return &Chromium{opts: opts}
}

// Rasterize loads the rendered HTML as a data URL, waits until the page
// reports data-ready="true" (fonts loaded and first paint done), and takes
// an element screenshot of #calendar-export at the requested scale.
func (c *Chromium) Rasterize(parentCtx context.Context, l grid.Layout, opts Options) ([]byte, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	var page bytes.Buffer
	if err := RenderHTML(&page, l, opts); err != nil {
		return nil, err
	}
	dataURL := "data:text/html;charset=utf-8;base64," + base64.StdEncoding.EncodeToString(page.Bytes())

	allocCtx := parentCtx
	if c.opts.ExecPath != "" {
		execOpts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.ExecPath(c.opts.ExecPath))
		var allocCancel context.CancelFunc
		allocCtx, allocCancel = chromedp.NewExecAllocator(parentCtx, execOpts...)
		defer allocCancel()
	}

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer timeoutCancel()

	started := time.Now()
	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height), chromedp.EmulateScale(scale)),
		chromedp.Navigate(dataURL),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		chromedp.Screenshot(`#calendar-export`, &png, chromedp.ByQuery),
	}
	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	appLog.Debug("chromium capture done",
		"year", l.Year,
		"month", l.Month,
		"bytes", len(png),
		"elapsed", time.Since(started),
	)
	return png, nil
}
