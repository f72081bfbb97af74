package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"fridgecal/internal/ics"
	appLog "fridgecal/internal/log"
	"fridgecal/internal/model"
	"fridgecal/internal/recipes"
	"fridgecal/internal/settings"
	"fridgecal/internal/web"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web UI and API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address (overrides config if set)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := conf
	if serveListen != "" {
		cfg.Listen = serveListen
	}

	appLog.Info("fridgecal starting", "version", version)
	appLog.Info("effective config",
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"data_dir", cfg.DataDir,
		"backend", cfg.Export.Backend,
		"viewport", cfg.Export.Viewport,
		"api_base", cfg.API.BaseURL,
		"subscriptions", len(cfg.Subscriptions),
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, "")
	if err != nil {
		appLog.Error("failed to initialize calendar pipeline", err)
		return err
	}
	a.sched.OnPublish(func(img model.ExportedImage) {
		appLog.Info("calendar image published",
			"year", img.Snapshot.Year,
			"month", img.Snapshot.Month,
			"width", img.Width,
			"height", img.Height,
			"bytes", len(img.PNG),
		)
	})
	a.sched.Start()
	defer a.sched.Close()

	set, err := settings.Open(filepath.Join(cfg.DataDir, "settings.yaml"))
	if err != nil {
		appLog.Warn("settings file unreadable; using defaults", "err", err)
	}

	client := recipes.NewClient(cfg.API.BaseURL, cfg.API.Timeout())
	var quota *recipes.QuotaWatcher
	if cfg.API.QuotaRefresh != "" {
		quota, err = recipes.NewQuotaWatcher(client, cfg.API.QuotaRefresh)
		if err != nil {
			appLog.Error("invalid quota_refresh schedule; polling disabled", err, "schedule", cfg.API.QuotaRefresh)
		} else {
			quota.Start()
			defer quota.Stop()
		}
	}

	if len(cfg.Subscriptions) > 0 {
		go syncSubscriptions(ctx, a, filepath.Join(cfg.DataDir, "ics-cache"))
	}

	srv := web.NewServer(web.Deps{
		Config:   cfg,
		Page:     a.page,
		Exporter: a.sched,
		Settings: set,
		Recipes:  client,
		Quota:    quota,
	})
	if err := srv.ListenAndServe(ctx); err != nil {
		appLog.Error("HTTP server error", err)
		return err
	}
	appLog.Info("fridgecal exiting")
	return nil
}

// syncSubscriptions imports every configured feed once, around the year on
// screen.
func syncSubscriptions(ctx context.Context, a *app, cacheDir string) {
	f := ics.NewFetcher(cacheDir, conf.API.Timeout())
	w := ics.YearWindow(a.page.State().Year, a.loc)
	inputs, errs := f.Sync(ctx, subscriptionSources(conf), w)
	n := a.page.ImportEvents(inputs)
	appLog.Info("subscriptions imported", "events", n, "failed_sources", len(errs))
}
