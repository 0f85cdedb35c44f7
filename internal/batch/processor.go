// Package batch renders a still of every catalog model the way a fresh
// viewer session would show it.
package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"go.uber.org/zap"

	"bike-viewer/internal/catalog"
	"bike-viewer/internal/viewer"
)

// Config holds all shared resources for a batch run.
type Config struct {
	OutputDir   string
	Loader      viewer.Loader
	Width       int
	Height      int
	Supersample int
	Workers     int
	Logger      *zap.Logger
}

// Result holds the outcome of processing one model.
type Result struct {
	Model   catalog.Descriptor
	Image   string // relative to OutputDir
	Success bool
	Error   string
}

// Run snapshots all models using a worker pool. Cancelling ctx fails the
// models not yet finished.
func Run(ctx context.Context, cfg Config, models []catalog.Descriptor) []Result {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	total := len(models)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					cfg.Logger.Info("Snapshot progress",
						zap.Int64("done", p),
						zap.Int("total", total),
						zap.Float64("models_per_sec", float64(p)/elapsed))
				}
			}
		}
	}()

	// Worker pool
	modelChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range modelChan {
				results[idx] = processModel(ctx, cfg, models[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range models {
		modelChan <- i
	}
	close(modelChan)

	wg.Wait()
	close(done)

	return results
}

func processModel(ctx context.Context, cfg Config, d catalog.Descriptor) Result {
	fail := func(err error) Result {
		cfg.Logger.Warn("Snapshot failed", zap.String("model", string(d.ID)), zap.Error(err))
		return Result{Model: d, Error: err.Error()}
	}

	v := viewer.New(cfg.Loader, viewer.Options{
		Width:       cfg.Width,
		Height:      cfg.Height,
		Supersample: cfg.Supersample,
		Logger:      cfg.Logger,
	})
	defer v.Close()

	if _, _, err := v.Select(d.ID); err != nil {
		return fail(err)
	}
	st, err := v.Settled(ctx)
	if err != nil {
		return fail(err)
	}
	if st.Phase != viewer.PhaseDisplayed {
		return fail(errors.New(st.Error))
	}

	img := v.RenderNow()

	// Save as WebP
	name := string(d.ID) + ".webp"
	outPath := filepath.Join(cfg.OutputDir, name)
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fail(err)
	}

	if err := writeWebP(outPath, img); err != nil {
		return fail(err)
	}

	return Result{Model: d, Image: name, Success: true}
}

// createFile opens snapshot outputs; swapped in tests.
var createFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

func writeWebP(path string, img image.Image) (err error) {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if err := nativewebp.Encode(f, img, nil); err != nil {
		return fmt.Errorf("WebP encode: %w", err)
	}
	return nil
}
