package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bike-viewer/internal/batch"
	"bike-viewer/internal/catalog"
	"bike-viewer/internal/config"
)

var (
	outputDir string
	onlyIDs   []string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Render a WebP still of every catalog model and write manifest.json",
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: snapshots)")
	snapshotCmd.Flags().StringSliceVar(&onlyIDs, "model", nil, "Render only these models (repeatable)")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(config.Flags{OutputDir: outputDir})
	if err != nil {
		return err
	}

	models := catalog.All()
	if len(onlyIDs) > 0 {
		var picked []catalog.Descriptor
		for _, s := range onlyIDs {
			d, err := catalog.Lookup(catalog.ModelID(s))
			if err != nil {
				return err
			}
			picked = append(picked, d)
		}
		models = picked
	}

	logger.Info("Rendering snapshots",
		zap.Int("models", len(models)),
		zap.Int("workers", cfg.Workers),
		zap.String("output", cfg.OutputDir))

	start := time.Now()
	results := batch.Run(cmd.Context(), batch.Config{
		OutputDir:   cfg.OutputDir,
		Loader:      newLoader(cfg),
		Width:       cfg.RenderWidth,
		Height:      cfg.RenderHeight,
		Supersample: cfg.Supersample,
		Workers:     cfg.Workers,
		Logger:      logger,
	}, models)

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
			logger.Error("Model not rendered", zap.String("model", string(r.Model.ID)), zap.String("error", r.Error))
		}
	}
	logger.Info("Snapshots done",
		zap.Int("rendered", len(results)-failed),
		zap.Int("total", len(results)),
		zap.Duration("elapsed", time.Since(start)))

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return err
	}
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		logger.Warn("Manifest write failed", zap.Error(err))
	} else {
		logger.Info("Manifest written", zap.String("path", manifestPath))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d models failed", failed, len(results))
	}
	return nil
}
