package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/regions/internal/config"
	"github.com/aretw0/regions/internal/logging"
	"github.com/aretw0/regions/pkg/adapters/restcountries"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "regions",
	Short: "Browse the countries of Asia and Europe",
	Long: `Regions fetches the countries of a world region from the REST Countries API
and keeps the selection, loading flag and error in a single state container.
Without a subcommand it starts an interactive terminal session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path, ".env")
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("api-url") {
			loaded.API.BaseURL, _ = cmd.Flags().GetString("api-url")
		}
		debug, _ := cmd.Flags().GetBool("debug")
		if debug {
			loaded.Log.Level = "debug"
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		cfg = loaded
		logger = logging.NewWithWriter(os.Stderr, logging.ParseLevel(cfg.Log.Level), cfg.Log.Format == "json")
		return nil
	},
	RunE: runInteractive,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("api-url", "", "Base URL of the countries API (overrides config)")
}

// newFetcher builds the API client from the loaded configuration.
func newFetcher() *restcountries.Client {
	return restcountries.New(
		restcountries.WithBaseURL(cfg.API.BaseURL),
		restcountries.WithTimeout(cfg.API.Timeout),
		restcountries.WithRateLimit(cfg.API.RatePerSecond, cfg.API.Burst),
		restcountries.WithLogger(logger),
	)
}
