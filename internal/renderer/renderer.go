// Package renderer owns the render backend, its device and the GPU assets
// shared by every window.
package renderer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/qurb/engine/internal/assets"
	"github.com/qurb/engine/internal/core/event"
	"github.com/qurb/engine/internal/platform"
	"github.com/qurb/engine/internal/plugin"
	"github.com/qurb/engine/internal/rhi"
)

var (
	ErrNotRHIPlugin = errors.New("renderer: plugin does not provide a render backend")
	ErrNoBackend    = errors.New("renderer: no backend loaded")
)

// loggerSetter is implemented by plugins that accept the engine logger.
type loggerSetter interface {
	SetLogger(log *zap.Logger)
}

type Options struct {
	TextureDir       string
	SwapChainBuffers int
}

type Renderer struct {
	opts     Options
	log      *zap.Logger
	plugin   rhi.Plugin
	backend  rhi.RenderBackend
	device   rhi.Ref[rhi.Device]
	textures *assets.TextureManager
	resizes  map[platform.Window]event.Subscription
}

func New(opts Options, log *zap.Logger) *Renderer {
	return &Renderer{opts: opts, log: log, resizes: make(map[platform.Window]event.Subscription)}
}

// LoadBackend finds the named plugin, creates its backend and device, and
// builds the texture manager on that device.
func (r *Renderer) LoadBackend(pm *plugin.Manager, name string) error {
	p, err := pm.GetPlugin(name)
	if err != nil {
		return fmt.Errorf("load backend %s: %w", name, err)
	}
	rp, ok := p.(rhi.Plugin)
	if !ok {
		return fmt.Errorf("load backend %s: %w", name, ErrNotRHIPlugin)
	}
	if ls, ok := p.(loggerSetter); ok {
		ls.SetLogger(r.log.Named("rhi"))
	}

	backend, err := rp.CreateRenderBackend()
	if err != nil {
		return fmt.Errorf("create render backend %s: %w", name, err)
	}
	device, err := rhi.Adopt(backend.CreateDevice())
	if err != nil {
		return fmt.Errorf("create %s device: %w", backend.Type(), err)
	}
	textures, err := assets.NewTextureManager(device.Get(), r.opts.TextureDir, r.log.Named("assets"))
	if err != nil {
		device.Release()
		return err
	}

	r.plugin, r.backend, r.device, r.textures = rp, backend, device, textures
	r.log.Info("loaded render backend",
		zap.String("plugin", rp.Name()),
		zap.String("version", rp.Version()),
		zap.Stringer("type", backend.Type()),
	)
	return nil
}

// Device is borrowed; it stays valid until Close.
func (r *Renderer) Device() rhi.Device { return r.device.Get() }

func (r *Renderer) Backend() rhi.RenderBackend { return r.backend }

func (r *Renderer) TextureManager() *assets.TextureManager { return r.textures }

// OnWindowCreate creates the render context presenting to w. The swap chain
// follows the window's resize events. The caller owns the returned context.
func (r *Renderer) OnWindowCreate(w platform.Window) (rhi.Ref[rhi.RenderContext], error) {
	if !r.device.Valid() {
		return rhi.Ref[rhi.RenderContext]{}, ErrNoBackend
	}
	ctx, err := rhi.Adopt(r.device.Get().CreateRenderContext(rhi.RenderContextDescriptor{
		SwapChain: rhi.SwapChainDescriptor{Surface: w, BufferCount: r.opts.SwapChainBuffers},
	}))
	if err != nil {
		return rhi.Ref[rhi.RenderContext]{}, fmt.Errorf("create render context for %q: %w", w.Title(), err)
	}

	sc := ctx.Get().SwapChain()
	r.resizes[w] = event.Subscribe(w.Events(), func(ev platform.WindowResizeEvent) bool {
		if err := sc.Resize(ev.Width, ev.Height); err != nil {
			r.log.Error("swap chain resize failed", zap.String("window", w.Title()), zap.Error(err))
		}
		return false
	})
	r.log.Debug("render context created", zap.String("window", w.Title()))
	return ctx, nil
}

// OnWindowDestroy stops forwarding w's resizes. Call it before releasing the
// window's render context.
func (r *Renderer) OnWindowDestroy(w platform.Window) {
	if sub, ok := r.resizes[w]; ok {
		w.Events().Unsubscribe(sub)
		delete(r.resizes, w)
	}
}

// Close releases the texture cache and the device.
func (r *Renderer) Close() {
	if r.textures != nil {
		r.textures.Close()
		r.textures = nil
	}
	r.device.Release()
}
