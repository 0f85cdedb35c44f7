package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bike-viewer/internal/asset"
	"bike-viewer/internal/config"
	"bike-viewer/internal/logging"
)

var (
	// Global flags
	configFile string
	verbose    bool

	// Shared overrides
	assetDir     string
	assetBaseURL string
	workers      int

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bikeview",
	Short: "Headless bike model viewer",
	Long: `bikeview renders the bike model catalog with a software rasteriser.

"serve" mounts one viewer session per page and streams its frames and state;
"snapshot" writes a WebP still of every model plus a manifest.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a .json, .yaml or .toml config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&assetDir, "assets", "", "Directory holding the model files (default: auto-detect)")
	rootCmd.PersistentFlags().StringVar(&assetBaseURL, "asset-url", "", "Fetch models from this base URL instead of the asset directory")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Number of worker goroutines (default: NumCPU)")

	rootCmd.AddCommand(serveCmd, snapshotCmd)
}

// loadConfig reads --config, if any, and applies flag overrides.
func loadConfig(flags config.Flags) (config.Config, error) {
	var cfg config.Config
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return cfg, err
		}
	}
	flags.AssetDir = assetDir
	flags.AssetBaseURL = assetBaseURL
	flags.Workers = workers
	cfg.Resolve(flags)
	return cfg, nil
}

// newLoader fetches over HTTP when a base URL is configured and from the
// asset directory otherwise.
func newLoader(cfg config.Config) *asset.Loader {
	var f asset.Fetcher
	if cfg.AssetBaseURL != "" {
		f = &asset.HTTPFetcher{BaseURL: cfg.AssetBaseURL}
		logger.Info("Fetching models over HTTP", zap.String("base_url", cfg.AssetBaseURL))
	} else {
		f = &asset.DirFetcher{Root: cfg.AssetDir}
		logger.Info("Reading models from disk", zap.String("dir", cfg.AssetDir))
	}
	return asset.NewLoader(f, cfg.LoadTimeout.Duration, logger)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
