package main

import (
	"time"

	"fridgecal/internal/capture"
	"fridgecal/internal/config"
	"fridgecal/internal/export"
	"fridgecal/internal/holiday"
	"fridgecal/internal/ics"
	appLog "fridgecal/internal/log"
	"fridgecal/internal/page"
	"fridgecal/internal/store"
)

// app is the calendar pipeline shared by serve and render.
type app struct {
	loc      *time.Location
	holidays holiday.Lookuper
	store    *store.Store
	page     *page.Controller
	sched    *export.Scheduler
}

func location(cfg *config.Config) *time.Location {
	loc, err := cfg.Location()
	if err != nil {
		appLog.Warn("unknown timezone, using UTC", "timezone", cfg.Timezone, "err", err)
	}
	return loc
}

func loadHolidays(cfg *config.Config) holiday.Lookuper {
	if cfg.HolidaysFile == "" {
		return holiday.Default()
	}
	t, err := holiday.Load(cfg.HolidaysFile)
	if err != nil {
		appLog.Error("failed to load holidays file; using embedded table", err, "path", cfg.HolidaysFile)
		return holiday.Default()
	}
	return t
}

// policyFor builds the export policy for a viewport class from config.
func policyFor(cfg *config.Config, viewport string) export.Policy {
	p := export.DesktopPolicy
	pc := cfg.Export.Desktop
	if viewport == "mobile" {
		p = export.MobilePolicy
		pc = cfg.Export.Mobile
	}
	p.Debounce = pc.Debounce()
	p.Scale = pc.Scale
	p.IdleMaxWait = cfg.Export.IdleMaxWait()
	return p
}

// viewportPolicies classifies a viewport width the way
// export.PolicyForViewport does, with the configured policy per class.
func viewportPolicies(cfg *config.Config) func(width int) export.Policy {
	desktop, mobile := policyFor(cfg, "desktop"), policyFor(cfg, "mobile")
	return func(width int) export.Policy {
		if export.PolicyForViewport(width).Name == export.MobilePolicy.Name {
			return mobile
		}
		return desktop
	}
}

func newApp(cfg *config.Config, backend string) (*app, error) {
	if backend == "" {
		backend = cfg.Export.Backend
	}
	chromium := capture.ChromiumOptions{
		ExecPath: cfg.Export.ChromiumPath,
		Timeout:  cfg.Export.ChromiumTimeout(),
	}
	raster, err := capture.New(backend, chromium, capture.PainterOptions{FontPath: cfg.Export.FontPath})
	if err != nil && cfg.Export.FontPath != "" && backend != "chromium" {
		appLog.Error("failed to load painter font; using Latin labels", err, "path", cfg.Export.FontPath)
		raster, err = capture.New(backend, chromium, capture.PainterOptions{})
	}
	if err != nil {
		return nil, err
	}

	a := &app{
		loc:      location(cfg),
		holidays: loadHolidays(cfg),
		store:    store.New(),
	}
	a.page = page.New(a.store, page.Options{
		Location:      a.loc,
		StyleID:       cfg.Calendar.DefaultStyle,
		RatioID:       cfg.Calendar.DefaultRatio,
		Palette:       cfg.Calendar.Palette,
		Holidays:      a.holidays,
		DownloadScale: cfg.Export.Desktop.Scale,
		Policies:      viewportPolicies(cfg),
	})

	viewport := cfg.Export.Viewport
	if viewport == "auto" {
		viewport = "desktop"
	}
	a.sched = export.New(a.page, raster, export.Options{
		Policy:   policyFor(cfg, viewport),
		Holidays: a.holidays,
	})
	a.page.Attach(a.sched)

	appLog.Info("calendar pipeline ready",
		"backend", backend,
		"viewport", cfg.Export.Viewport,
		"style", cfg.Calendar.DefaultStyle,
		"ratio", cfg.Calendar.DefaultRatio,
	)
	return a, nil
}

func subscriptionSources(cfg *config.Config) []ics.Source {
	out := make([]ics.Source, 0, len(cfg.Subscriptions))
	for _, s := range cfg.Subscriptions {
		out = append(out, ics.Source{ID: s.ID, Name: s.Name, URL: s.URL, Color: s.Color})
	}
	return out
}
