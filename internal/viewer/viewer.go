// Package viewer implements the model viewer session: one scene showing at
// most one bike model, an orbit camera, and the select/load state machine.
//
// Every Select issues a new request token. A load completion or progress
// report is applied only while its token is still the latest, so a slow
// load for an earlier selection can never overwrite a newer one.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"bike-viewer/internal/asset"
	"bike-viewer/internal/camera"
	"bike-viewer/internal/catalog"
	"bike-viewer/internal/mathutil"
	"bike-viewer/internal/postprocess"
	"bike-viewer/internal/raster"
	"bike-viewer/internal/scene"
)

const maxViewport = 4096

// Loader fetches and decodes a model asset. *asset.Loader satisfies it.
type Loader interface {
	Load(ctx context.Context, assetPath string, progress func(float64)) (*asset.Model, error)
}

// Options configures a viewer. Zero fields take defaults.
type Options struct {
	Width       int
	Height      int
	Supersample int
	FrameRate   int
	RotateStep  float64 // radians per rotate action
	ZoomFactor  float64 // distance multiplier for zoom-in; zoom-out uses the inverse
	Lighting    raster.Lighting
	Logger      *zap.Logger
}

func (o *Options) applyDefaults() {
	if o.Width <= 0 {
		o.Width = 640
	}
	if o.Height <= 0 {
		o.Height = 480
	}
	if o.Supersample <= 0 {
		o.Supersample = 1
	}
	if o.FrameRate <= 0 {
		o.FrameRate = 10
	}
	if o.RotateStep <= 0 {
		o.RotateStep = math.Pi / 12
	}
	if o.ZoomFactor <= 0 || o.ZoomFactor >= 1 {
		o.ZoomFactor = 0.9
	}
	if len(o.Lighting.Rigs) == 0 {
		o.Lighting = raster.DefaultLighting()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Viewer owns one session's scene, camera and selection state.
type Viewer struct {
	loader Loader
	opts   Options
	log    *zap.Logger

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup // in-flight loads

	mu         sync.Mutex
	scene      *scene.Scene
	cam        camera.Camera
	object     *scene.Object
	selected   catalog.ModelID
	lastLoaded catalog.ModelID
	phase      Phase
	progress   float64
	errMsg     string
	token      uint64
	cancelLoad context.CancelFunc
	tint       *[4]float64
	tintName   string
	width      int
	height     int
	closed     bool
	subs       map[int]chan State
	nextSub    int

	frameMu sync.RWMutex
	frame   *image.NRGBA
	frames  atomic.Uint64
}

// New mounts a viewer session. The camera starts at the first catalog
// model's configured position with nothing in the scene.
func New(loader Loader, opts Options) *Viewer {
	opts.applyDefaults()
	ctx, stop := context.WithCancel(context.Background())

	first := catalog.All()[0]
	cam := camera.New(first.Camera.Position)
	cam.SetLimits(first.Camera.MinDistance, first.Camera.MaxDistance)

	return &Viewer{
		loader: loader,
		opts:   opts,
		log:    opts.Logger,
		ctx:    ctx,
		stop:   stop,
		scene:  scene.New(),
		cam:    *cam,
		phase:  PhaseIdle,
		width:  opts.Width,
		height: opts.Height,
		subs:   make(map[int]chan State),
	}
}

// Select switches the displayed model. Re-selecting the model whose load was
// last started is a no-op and reports started=false.
func (v *Viewer) Select(id catalog.ModelID) (token uint64, started bool, err error) {
	d, err := catalog.Lookup(id)
	if err != nil {
		return 0, false, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return 0, false, ErrClosed
	}
	if id == v.lastLoaded {
		return v.token, false, nil
	}

	if v.object != nil {
		v.scene.Remove(v.object)
		v.object = nil
	}
	if v.cancelLoad != nil {
		v.cancelLoad()
	}

	v.token++
	tok := v.token
	ctx, cancel := context.WithCancel(v.ctx)
	v.cancelLoad = cancel

	v.selected = id
	v.lastLoaded = id
	v.phase = PhaseLoading
	v.progress = 0
	v.errMsg = ""
	v.publishLocked()

	v.log.Info("Model load started",
		zap.String("model", string(id)),
		zap.String("asset", d.AssetPath),
		zap.Uint64("token", tok))

	v.wg.Add(1)
	go v.load(ctx, cancel, tok, d)

	return tok, true, nil
}

func (v *Viewer) load(ctx context.Context, cancel context.CancelFunc, tok uint64, d catalog.Descriptor) {
	defer v.wg.Done()
	defer cancel()

	m, err := v.loader.Load(ctx, d.AssetPath, func(p float64) {
		v.reportProgress(tok, p)
	})
	v.complete(tok, d, m, err)
}

func (v *Viewer) reportProgress(tok uint64, p float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if tok != v.token || v.closed || v.phase != PhaseLoading {
		return
	}
	if p < 0 {
		p = 0
	} else if p > 100 {
		p = 100
	}
	v.progress = p
	v.publishLocked()
}

func (v *Viewer) complete(tok uint64, d catalog.Descriptor, m *asset.Model, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if tok != v.token || v.closed {
		v.log.Debug("Discarding stale load",
			zap.String("model", string(d.ID)),
			zap.Uint64("token", tok),
			zap.Uint64("latest", v.token))
		return
	}
	v.cancelLoad = nil

	if err == nil && m == nil {
		err = errors.New("loader returned no model")
	}
	if err != nil {
		if !errors.Is(err, asset.ErrLoad) {
			err = &asset.LoadError{Path: d.AssetPath, Err: err}
		}
		v.phase = PhaseFailed
		v.errMsg = err.Error()
		v.log.Warn("Model load failed",
			zap.String("model", string(d.ID)),
			zap.Uint64("token", tok),
			zap.Error(err))
		v.publishLocked()
		return
	}

	obj := scene.Place(d.ID, m, d.Camera, d.Grounding)
	v.scene.Add(obj)
	v.object = obj
	v.cam.Reset(d.Camera.Position)
	v.cam.SetLimits(d.Camera.MinDistance, d.Camera.MaxDistance)
	v.phase = PhaseDisplayed
	v.progress = 100

	v.log.Info("Model displayed",
		zap.String("model", string(d.ID)),
		zap.Uint64("token", tok),
		zap.Int("triangles", m.TriangleCount()))
	v.publishLocked()
}

// Adjust applies one camera nudge immediately.
func (v *Viewer) Adjust(a Action) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}

	switch a {
	case RotateLeft:
		v.cam.Yaw(-v.opts.RotateStep)
	case RotateRight:
		v.cam.Yaw(v.opts.RotateStep)
	case RotateUp:
		v.cam.Pitch(v.opts.RotateStep)
	case RotateDown:
		v.cam.Pitch(-v.opts.RotateStep)
	case ZoomIn:
		v.cam.Zoom(v.opts.ZoomFactor)
	case ZoomOut:
		v.cam.Zoom(1 / v.opts.ZoomFactor)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, string(a))
	}
	v.publishLocked()
	return nil
}

// Recolor overrides the base colour of the displayed model at render time.
// An empty string restores the asset's own materials.
func (v *Viewer) Recolor(color string) error {
	var tint *[4]float64
	name := strings.TrimSpace(color)
	if name != "" {
		c, err := parseColor(name)
		if err != nil {
			return err
		}
		tint = &c
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	v.tint = tint
	v.tintName = name
	v.publishLocked()
	return nil
}

// Resize sets the frame size used by the render loop.
func (v *Viewer) Resize(width, height int) error {
	if width <= 0 || height <= 0 || width > maxViewport || height > maxViewport {
		return fmt.Errorf("%w: %dx%d", ErrInvalidViewport, width, height)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	v.width, v.height = width, height
	v.publishLocked()
	return nil
}

// State returns a snapshot of the session.
func (v *Viewer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// sceneObjects snapshots the objects currently in the scene.
func (v *Viewer) sceneObjects() []*scene.Object {
	return v.scene.Objects()
}

func (v *Viewer) snapshotLocked() State {
	return State{
		Selected:   v.selected,
		LastLoaded: v.lastLoaded,
		Phase:      v.phase,
		Loading:    v.phase == PhaseLoading,
		Progress:   v.progress,
		Error:      v.errMsg,
		Token:      v.token,
		Objects:    v.scene.Len(),
		Camera:     v.cam,
		Tint:       v.tintName,
		Width:      v.width,
		Height:     v.height,
	}
}

// Subscribe returns a channel that receives the current state and then every
// change. Slow readers only see the latest state. The channel is closed by
// the returned cancel func or by Close.
func (v *Viewer) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		close(ch)
		return ch, func() {}
	}
	id := v.nextSub
	v.nextSub++
	v.subs[id] = ch
	ch <- v.snapshotLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			if c, ok := v.subs[id]; ok {
				delete(v.subs, id)
				close(c)
			}
		})
	}
}

func (v *Viewer) publishLocked() {
	if len(v.subs) == 0 {
		return
	}
	st := v.snapshotLocked()
	for _, ch := range v.subs {
		select {
		case ch <- st:
		default:
			// Replace the unread state with the newer one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}

// Settled blocks until no load is in flight and returns that state. It
// returns ErrClosed if the viewer is closed first.
func (v *Viewer) Settled(ctx context.Context) (State, error) {
	states, cancel := v.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return State{}, ctx.Err()
		case st, ok := <-states:
			if !ok {
				return State{}, ErrClosed
			}
			if st.Phase != PhaseLoading {
				return st, nil
			}
		}
	}
}

// Run renders one frame per tick until ctx is cancelled or the viewer is
// closed. It never waits for loads.
func (v *Viewer) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(v.opts.FrameRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-v.ctx.Done():
			return nil
		case <-ticker.C:
			v.RenderNow()
		}
	}
}

// RenderNow renders the current scene synchronously and stores the frame.
func (v *Viewer) RenderNow() *image.NRGBA {
	v.mu.Lock()
	objects := v.scene.Objects()
	cam := v.cam
	w, h := v.width, v.height
	tint := v.tint
	v.mu.Unlock()

	img := raster.RenderScene(objects, cam, raster.Options{
		Width:       w,
		Height:      h,
		Supersample: v.opts.Supersample,
		Lighting:    v.opts.Lighting,
		Tint:        tint,
	})
	if v.opts.Supersample > 1 {
		img = postprocess.Downsample(img, w, h)
	}

	v.frameMu.Lock()
	v.frame = img
	v.frameMu.Unlock()
	v.frames.Add(1)
	return img
}

// Frame returns the latest rendered frame, rendering one if none exists yet.
func (v *Viewer) Frame() *image.NRGBA {
	v.frameMu.RLock()
	f := v.frame
	v.frameMu.RUnlock()
	if f != nil {
		return f
	}
	return v.RenderNow()
}

// FrameCount is the number of frames rendered so far.
func (v *Viewer) FrameCount() uint64 {
	return v.frames.Load()
}

// Close unmounts the session: in-flight loads are cancelled and awaited,
// subscribers are released and the scene is emptied.
func (v *Viewer) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	if v.cancelLoad != nil {
		v.cancelLoad()
		v.cancelLoad = nil
	}
	for id, ch := range v.subs {
		delete(v.subs, id)
		close(ch)
	}
	v.object = nil
	v.scene.Clear()
	v.mu.Unlock()

	v.stop()
	v.wg.Wait()
}

// Distance is a convenience for the camera's current orbit radius.
func (s State) Distance() float64 {
	return s.Camera.Position.Sub(mathutil.Origin).Len()
}
