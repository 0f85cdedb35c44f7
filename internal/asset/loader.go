package asset

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Loader fetches and decodes assets. A nil Cache disables caching;
// a zero Timeout leaves the fetch unbounded.
type Loader struct {
	Fetcher Fetcher
	Cache   *Cache
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewLoader returns a loader with a fresh cache.
func NewLoader(f Fetcher, timeout time.Duration, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{Fetcher: f, Cache: NewCache(), Timeout: timeout, Logger: logger}
}

// Load fetches assetPath and decodes it. progress receives whole percentages
// when the body length is known; it may be nil. Every error is a *LoadError.
func (l *Loader) Load(ctx context.Context, assetPath string, progress func(float64)) (*Model, error) {
	load := func() (*Model, error) {
		return l.fetchAndDecode(ctx, assetPath, progress)
	}

	var (
		m   *Model
		err error
	)
	if l.Cache != nil {
		if cached, ok := l.Cache.Get(assetPath); ok {
			if progress != nil {
				progress(100)
			}
			return cached, nil
		}
		m, err = l.Cache.Resolve(assetPath, load)
	} else {
		m, err = load()
	}
	if err != nil {
		return nil, &LoadError{Path: assetPath, Err: err}
	}
	return m, nil
}

func (l *Loader) fetchAndDecode(ctx context.Context, assetPath string, progress func(float64)) (*Model, error) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	start := time.Now()
	body, size, err := l.Fetcher.Fetch(ctx, assetPath)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	m, err := Decode(assetPath, newProgressReader(body, size, progress))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if progress != nil {
		progress(100)
	}

	l.logger().Debug("Asset decoded",
		zap.String("path", assetPath),
		zap.Int64("bytes", size),
		zap.Int("meshes", len(m.Meshes)),
		zap.Int("triangles", m.TriangleCount()),
		zap.Duration("elapsed", time.Since(start)))
	return m, nil
}

func (l *Loader) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}
