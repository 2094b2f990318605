package headless

import (
	"go.uber.org/zap"

	"github.com/qurb/engine/internal/plugin"
	"github.com/qurb/engine/internal/rhi"
)

// LibraryName is the name the backend registers under.
const LibraryName = "QurbHeadlessRHI"

func init() {
	plugin.Register(LibraryName, func(lib *plugin.Library) plugin.Plugin {
		return NewPlugin(lib)
	})
}

// Plugin exposes the headless backend through the plugin manager.
type Plugin struct {
	plugin.Base
	log *zap.Logger
}

func NewPlugin(lib *plugin.Library) *Plugin {
	return &Plugin{Base: plugin.NewBase(lib), log: zap.NewNop()}
}

func (p *Plugin) Name() string        { return "Headless RHI" }
func (p *Plugin) Description() string { return "CPU render hardware interface that records frames" }
func (p *Plugin) Version() string     { return "0.1.0" }

// SetLogger replaces the no-op logger handed to backends created afterwards.
func (p *Plugin) SetLogger(log *zap.Logger) { p.log = log }

func (p *Plugin) CreateRenderBackend() (rhi.RenderBackend, error) {
	return &Backend{log: p.log}, nil
}

type Backend struct {
	log *zap.Logger
}

func NewBackend(log *zap.Logger) *Backend { return &Backend{log: log} }

func (b *Backend) Type() rhi.BackendType { return rhi.BackendHeadless }

func (b *Backend) CreateDevice() (rhi.Device, error) {
	return NewDevice(b.log), nil
}
