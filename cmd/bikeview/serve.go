package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bike-viewer/internal/config"
	"bike-viewer/internal/mathutil"
	"bike-viewer/internal/server"
	"bike-viewer/internal/viewer"
)

var (
	listenAddr string
	frameRate  int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the viewer page and its session API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address (default :8080)")
	serveCmd.Flags().IntVar(&frameRate, "fps", 0, "Frames rendered per second per session (default 10)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(config.Flags{ListenAddr: listenAddr, FrameRate: frameRate})
	if err != nil {
		return err
	}
	// Sessions fetch models from this server's own /models/ route unless
	// another origin is configured.
	if cfg.AssetBaseURL == "" {
		cfg.AssetBaseURL = cfg.LocalURL()
	}

	srv := server.New(newLoader(cfg), server.Options{
		AssetDir: cfg.AssetDir,
		Logger:   logger,
		Viewer: viewer.Options{
			Width:       cfg.RenderWidth,
			Height:      cfg.RenderHeight,
			Supersample: cfg.Supersample,
			FrameRate:   cfg.FrameRate,
			RotateStep:  mathutil.Deg2Rad(cfg.RotateStepDeg),
			ZoomFactor:  cfg.ZoomFactor,
		},
	})
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Listening",
			zap.String("addr", cfg.ListenAddr),
			zap.Int("fps", cfg.FrameRate),
			zap.Int("width", cfg.RenderWidth),
			zap.Int("height", cfg.RenderHeight))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
