// Package engine ties plugins, the renderer, windows, the scene and the
// system runner into a frame loop driven by an Application.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/qurb/engine/internal/config"
	"github.com/qurb/engine/internal/core/event"
	coresys "github.com/qurb/engine/internal/core/system"
	"github.com/qurb/engine/internal/data"
	"github.com/qurb/engine/internal/input"
	"github.com/qurb/engine/internal/platform"
	"github.com/qurb/engine/internal/plugin"
	"github.com/qurb/engine/internal/renderer"
	"github.com/qurb/engine/internal/rhi"
	"github.com/qurb/engine/internal/scene"
	"github.com/qurb/engine/internal/scripting"
	"github.com/qurb/engine/internal/system"
)

// suspendedWait is how long an unthrottled loop sleeps between polls while
// suspended.
const suspendedWait = 10 * time.Millisecond

var (
	ErrUnknownClearColor = errors.New("engine: unknown clear color")
	ErrShutdown          = errors.New("engine: shut down")
)

// Application is the game or tool the engine runs. Initialize is called once
// every engine service is up; Update runs in the update phase of each frame;
// Shutdown runs before any engine service is torn down.
type Application interface {
	Name() string
	Initialize(e *Engine) error
	Update(dt time.Duration)
	Shutdown()
}

// WindowFactory opens a platform window.
type WindowFactory func(desc platform.WindowDescriptor) platform.Window

type Option func(*Engine)

// WithWindowFactory replaces the headless window factory.
func WithWindowFactory(f WindowFactory) Option {
	return func(e *Engine) { e.newWindow = f }
}

// window is an open platform window with its render context and the render
// system drawing into it.
type window struct {
	platform.Window
	ctx    rhi.Ref[rhi.RenderContext]
	render *system.RenderSystem
	subs   []event.Subscription
}

// Engine is single-threaded: every method must be called from the goroutine
// running the frame loop.
type Engine struct {
	cfg       *config.Config
	app       Application
	log       *zap.Logger
	newWindow WindowFactory

	plugins  *plugin.Manager
	renderer *renderer.Renderer
	windows  []*window

	scene         *scene.Scene
	sceneRenderer *scene.SceneRenderer
	scripts       *scripting.Engine
	runner        *coresys.Runner
	input         *input.State

	suspended  bool
	frames     int
	iterations int
	appReady   bool
	closed     bool
}

// New starts every engine service and initializes app. Services are brought
// up in order: plugins, render backend, window and render context, plugin
// initialization, scene and scripting, then the application. On failure
// everything already started is shut down again.
func New(cfg *config.Config, app Application, log *zap.Logger, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	clearColor, ok := rhi.ColorByName(cfg.Renderer.ClearColor)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClearColor, cfg.Renderer.ClearColor)
	}
	e := &Engine{
		cfg: cfg,
		app: app,
		log: log,
		newWindow: func(desc platform.WindowDescriptor) platform.Window {
			return platform.NewHeadlessWindow(desc)
		},
		runner:        coresys.NewRunner(),
		input:         input.New(),
		sceneRenderer: scene.NewSceneRenderer(clearColor, log.Named("scene")),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.start(); err != nil {
		e.Shutdown()
		return nil, err
	}
	return e, nil
}

func (e *Engine) start() error {
	e.plugins = plugin.NewManager(e.cfg.Plugins.SearchPath, e.log.Named("plugin"))
	if err := e.plugins.LoadPlugins(e.cfg.Plugins.Load); err != nil {
		return err
	}

	e.renderer = renderer.New(renderer.Options{
		TextureDir:       e.cfg.Assets.TextureDir,
		SwapChainBuffers: e.cfg.Renderer.SwapChainBuffers,
	}, e.log.Named("renderer"))
	if err := e.renderer.LoadBackend(e.plugins, e.cfg.Renderer.Backend); err != nil {
		return err
	}

	e.scene = scene.New(e.cfg.Engine.Name, e.log.Named("scene"))
	if _, err := e.CreateWindow(platform.WindowDescriptor{
		Title:  e.cfg.WindowTitle(),
		Width:  e.cfg.Window.Width,
		Height: e.cfg.Window.Height,
	}); err != nil {
		return err
	}

	if err := e.plugins.InitializePlugins(); err != nil {
		return err
	}

	if path := e.cfg.Scene.Path; path != "" {
		desc, err := data.LoadSceneDescription(path)
		if err != nil {
			return err
		}
		if err := scene.Populate(e.scene, desc, scene.Resources{
			Device:   e.renderer.Device(),
			Textures: e.renderer.TextureManager(),
		}); err != nil {
			return err
		}
	}

	e.runner.Register(system.NewInputSystem(e.input))
	e.runner.Register(system.NewEventSystem(e.scene.Events()))
	if e.cfg.Scripting.Enabled {
		scripts, err := scripting.NewEngine(e.cfg.Scripting.Dir, e.log.Named("lua"))
		if err != nil {
			return err
		}
		scripts.Bind(e.scene)
		scripts.BindInput(e.input)
		e.scripts = scripts
		e.runner.Register(system.NewScriptSystem(scripts))
	}
	e.runner.Register(appSystem{app: e.app})
	e.runner.Register(system.NewCleanupSystem(e.scene, e.log.Named("scene")))

	if err := e.app.Initialize(e); err != nil {
		return fmt.Errorf("initialize %s: %w", e.app.Name(), err)
	}
	e.appReady = true
	if w := e.ActiveWindow(); w != nil {
		e.scene.SetViewportSize(w.Size())
	}
	e.log.Info("engine started",
		zap.String("application", e.app.Name()),
		zap.Int("entities", e.scene.Len()),
		zap.Int("plugins", len(e.plugins.Plugins())),
	)
	return nil
}

// CreateWindow opens a window, creates its render context and registers a
// render system drawing the engine scene into it.
func (e *Engine) CreateWindow(desc platform.WindowDescriptor) (platform.Window, error) {
	pw := e.newWindow(desc)
	ctx, err := e.renderer.OnWindowCreate(pw)
	if err != nil {
		return nil, err
	}
	w := &window{
		Window: pw,
		ctx:    ctx,
		render: system.NewRenderSystem(ctx.Get(), e.sceneRenderer, e.scene, e.log.Named("render")),
	}
	w.subs = append(w.subs,
		event.Subscribe(pw.Events(), func(ev platform.WindowResizeEvent) bool {
			e.onWindowResize(ev)
			return false
		}),
		event.Subscribe(pw.Events(), func(ev platform.WindowCloseEvent) bool {
			e.log.Info("window close requested", zap.String("window", ev.Window.Title()))
			return false
		}),
	)
	w.subs = append(w.subs, e.input.Subscribe(pw.Events())...)
	e.windows = append(e.windows, w)
	e.runner.Register(w.render)

	width, height := pw.Size()
	e.scene.SetViewportSize(width, height)
	e.updateSuspended()
	e.log.Debug("window created", zap.String("title", desc.Title), zap.Uint32("width", width), zap.Uint32("height", height))
	return pw, nil
}

func (e *Engine) onWindowResize(ev platform.WindowResizeEvent) {
	e.scene.SetViewportSize(ev.Width, ev.Height)
	e.updateSuspended()
}

// updateSuspended suspends the engine while any window has a zero area.
func (e *Engine) updateSuspended() {
	suspended := false
	for _, w := range e.windows {
		if width, height := w.Size(); width == 0 || height == 0 {
			suspended = true
			break
		}
	}
	if suspended != e.suspended {
		e.log.Info("engine suspension changed", zap.Bool("suspended", suspended))
	}
	e.suspended = suspended
}

func (e *Engine) destroyWindow(w *window) {
	e.runner.Unregister(w.render)
	for _, sub := range w.subs {
		w.Events().Unsubscribe(sub)
	}
	e.renderer.OnWindowDestroy(w.Window)
	w.ctx.Release()
	e.log.Debug("window destroyed", zap.String("title", w.Title()), zap.Int("frames", w.render.Frames()))
}

func (e *Engine) destroyClosedWindows() {
	kept := e.windows[:0]
	for _, w := range e.windows {
		if w.ShouldClose() {
			e.destroyWindow(w)
			continue
		}
		kept = append(kept, w)
	}
	clear(e.windows[len(kept):])
	e.windows = kept
	e.updateSuspended()
}

// Run drives the frame loop until every window is closed, the configured
// frame limit is reached, or ctx is cancelled. With a target frame rate the
// loop waits on a ticker between frames; otherwise it runs unthrottled,
// except while suspended. The frame limit counts loop iterations, suspended
// ones included, so a minimized window cannot keep a limited run alive.
func (e *Engine) Run(ctx context.Context) error {
	if e.closed {
		return ErrShutdown
	}
	var tick <-chan time.Time
	if fps := e.cfg.Engine.TargetFPS; fps > 0 {
		ticker := time.NewTicker(max(time.Second/time.Duration(fps), time.Millisecond))
		defer ticker.Stop()
		tick = ticker.C
	}

	last := time.Now()
	for {
		e.wait(ctx, tick)
		if ctx.Err() != nil {
			e.log.Info("frame loop cancelled", zap.Int("frames", e.frames))
			return nil
		}

		for _, w := range e.windows {
			w.PollEvents()
		}

		now := time.Now()
		if e.suspended {
			last = now
		} else {
			e.runner.Tick(now.Sub(last))
			last = now
			e.frames++
		}
		e.iterations++

		e.destroyClosedWindows()
		if len(e.windows) == 0 {
			e.log.Info("all windows closed", zap.Int("frames", e.frames))
			return nil
		}
		if limit := e.cfg.Engine.MaxFrames; limit > 0 && e.iterations >= limit {
			e.log.Info("frame limit reached", zap.Int("frames", e.frames), zap.Int("iterations", e.iterations))
			return nil
		}
	}
}

// wait blocks until the next iteration is due or ctx is done.
func (e *Engine) wait(ctx context.Context, tick <-chan time.Time) {
	if ctx.Err() != nil {
		return
	}
	switch {
	case tick != nil:
		select {
		case <-ctx.Done():
		case <-tick:
		}
	case e.suspended:
		t := time.NewTimer(suspendedWait)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case <-t.C:
		}
	}
}

// Shutdown tears the engine down: application, scripts and scene, windows
// and their render contexts, renderer, then plugins. It is safe to call more
// than once.
func (e *Engine) Shutdown() {
	if e.closed {
		return
	}
	e.closed = true
	if e.appReady {
		e.app.Shutdown()
		e.appReady = false
	}
	if e.scripts != nil {
		e.scripts.Close()
	}
	if e.scene != nil {
		e.scene.Close()
	}
	for i := len(e.windows) - 1; i >= 0; i-- {
		e.destroyWindow(e.windows[i])
	}
	e.windows = nil
	if e.renderer != nil {
		e.renderer.Close()
	}
	if e.plugins != nil {
		if err := e.plugins.Close(); err != nil {
			e.log.Warn("plugin shutdown failed", zap.Error(err))
		}
	}
	e.log.Info("engine stopped", zap.Int("frames", e.frames))
}

func (e *Engine) Config() *config.Config              { return e.cfg }
func (e *Engine) Logger() *zap.Logger                 { return e.log }
func (e *Engine) Renderer() *renderer.Renderer        { return e.renderer }
func (e *Engine) Plugins() *plugin.Manager            { return e.plugins }
func (e *Engine) Scene() *scene.Scene                 { return e.scene }
func (e *Engine) SceneRenderer() *scene.SceneRenderer { return e.sceneRenderer }
func (e *Engine) Runner() *coresys.Runner             { return e.runner }
func (e *Engine) Scripts() *scripting.Engine          { return e.scripts }
func (e *Engine) Input() *input.State                 { return e.input }
func (e *Engine) Suspended() bool                     { return e.suspended }
func (e *Engine) Frames() int                         { return e.frames }

// Windows lists the open windows in creation order.
func (e *Engine) Windows() []platform.Window {
	out := make([]platform.Window, len(e.windows))
	for i, w := range e.windows {
		out[i] = w.Window
	}
	return out
}

// ActiveWindow is the first open window, or nil once all are closed.
func (e *Engine) ActiveWindow() platform.Window {
	if len(e.windows) == 0 {
		return nil
	}
	return e.windows[0].Window
}

// RenderContext returns the context presenting to w. The engine keeps
// ownership; the context is released when w is destroyed.
func (e *Engine) RenderContext(w platform.Window) (rhi.RenderContext, bool) {
	for _, ow := range e.windows {
		if ow.Window == w {
			return ow.ctx.Get(), true
		}
	}
	return nil, false
}

// RenderStats reports how many frames were submitted to w and the
// statistics of the latest one.
func (e *Engine) RenderStats(w platform.Window) (frames int, stats scene.Stats, ok bool) {
	for _, ow := range e.windows {
		if ow.Window == w {
			return ow.render.Frames(), ow.render.LastStats(), true
		}
	}
	return 0, scene.Stats{}, false
}

// appSystem runs the application update.
// Phase 1 (Update), after scripts.
type appSystem struct {
	app Application
}

func (s appSystem) Phase() coresys.Phase    { return coresys.PhaseUpdate }
func (s appSystem) Update(dt time.Duration) { s.app.Update(dt) }
