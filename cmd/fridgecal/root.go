package main

import (
	"github.com/spf13/cobra"

	"fridgecal/internal/config"
	appLog "fridgecal/internal/log"
)

const version = "0.1.0"

var (
	configPath string
	logLevel   string

	// conf is loaded once before any subcommand runs.
	conf *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "fridgecal",
	Short: "Fridge calendar with PNG export and recipe suggestions",
	Long: `fridgecal serves a monthly calendar page whose state is exported
to a PNG after every change, plus a small client for the recipe
recommendation backend.

  serve     Run the web UI and API
  render    Render one month to a PNG file
  recipes   Query the recipe backend`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			if cfg == nil {
				appLog.Error("failed to load config", err, "config_path", configPath)
				return err
			}
			appLog.Warn("config not saved; using defaults", "config_path", configPath, "err", err)
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
			cfg.Normalize()
		}
		appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
		conf = cfg
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./config.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(recipesCmd)
}
