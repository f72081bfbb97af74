package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"fridgecal/internal/caldate"
	"fridgecal/internal/config"
	"fridgecal/internal/ics"
	appLog "fridgecal/internal/log"
)

var (
	renderYear    int
	renderMonth   int
	renderStyle   string
	renderRatio   string
	renderBackend string
	renderOut     string
	renderICS     []string
	renderSubs    bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render one month to a PNG file",
	Long: `Render lays out one month, optionally filled from local ICS files
and the configured subscriptions, and writes it as a PNG at the desktop
export scale.`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().IntVar(&renderYear, "year", 0, "Year (defaults to the current year)")
	renderCmd.Flags().IntVar(&renderMonth, "month", 0, "Month 1-12 (defaults to the current month)")
	renderCmd.Flags().StringVar(&renderStyle, "style", "", "Style id (defaults to config)")
	renderCmd.Flags().StringVar(&renderRatio, "ratio", "", "Ratio id: 1_1, 4_5, 9_16 (defaults to config)")
	renderCmd.Flags().StringVar(&renderBackend, "backend", "", "Rasterizer: painter or chromium (defaults to config)")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "Output path (defaults to calendar-YYYY-MM.png)")
	renderCmd.Flags().StringSliceVar(&renderICS, "ics", nil, "ICS file to import (repeatable)")
	renderCmd.Flags().BoolVar(&renderSubs, "subscriptions", false, "Also import the configured ICS subscriptions")
}

func runRender(cmd *cobra.Command, _ []string) error {
	cfg := conf
	a, err := newApp(cfg, renderBackend)
	if err != nil {
		return err
	}
	defer a.sched.Close()

	today := caldate.Today(a.loc)
	y, m := today.Year, today.Month
	if renderYear != 0 {
		y = renderYear
	}
	if renderMonth != 0 {
		m = renderMonth
	}
	if err := a.page.GoTo(y, m); err != nil {
		return err
	}
	if renderStyle != "" {
		if err := a.page.SetStyle(renderStyle); err != nil {
			return err
		}
	}
	if renderRatio != "" {
		if err := a.page.SetRatio(renderRatio); err != nil {
			return err
		}
	}

	if err := importICSFiles(a, renderICS, ics.YearWindow(y, a.loc)); err != nil {
		return err
	}
	if renderSubs && len(cfg.Subscriptions) > 0 {
		syncSubscriptions(cmd.Context(), a, filepath.Join(cfg.DataDir, "ics-cache"))
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), renderTimeout(cfg))
	defer cancel()
	name, img, err := a.page.Download(ctx)
	if err != nil {
		return err
	}
	out := renderOut
	if out == "" {
		out = name
	}
	if err := os.WriteFile(out, img.PNG, 0o644); err != nil {
		return err
	}
	appLog.Info("calendar rendered", "out", out, "width", img.Width, "height", img.Height, "events", len(a.page.State().Events))
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func importICSFiles(a *app, paths []string, w ics.Window) error {
	for _, p := range paths {
		body, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		src := ics.Source{ID: p, Name: p}
		events, err := ics.Parse(src, body)
		if err != nil {
			return err
		}
		res, err := ics.Expand(events, src, w)
		if err != nil {
			return err
		}
		n := a.page.ImportEvents(res.Inputs)
		appLog.Info("ics file imported", "path", p, "events", n, "skipped", res.Skipped)
	}
	return nil
}

// renderTimeout leaves room for layout and PNG encoding on top of the
// browser timeout.
func renderTimeout(cfg *config.Config) time.Duration {
	return cfg.Export.ChromiumTimeout() + 10*time.Second
}
