package headless

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/qurb/engine/internal/rhi"
)

const defaultBufferCount = 2

// SwapChain rotates through a fixed ring of render targets sized to its surface.
type SwapChain struct {
	resource
	device  *Device
	surface rhi.Surface
	format  rhi.TextureFormat
	targets []rhi.Ref[rhi.RenderTarget]
	next    int
}

func (d *Device) NewSwapChain(desc rhi.SwapChainDescriptor) (*SwapChain, error) {
	if desc.Surface == nil {
		return nil, fmt.Errorf("%w: swap chain has no surface", ErrInvalidDescriptor)
	}
	format := desc.Format
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatBGRA8Unorm
	}
	count := desc.BufferCount
	if count <= 0 {
		count = defaultBufferCount
	}
	sc := &SwapChain{
		device:  d,
		surface: desc.Surface,
		format:  format,
		targets: make([]rhi.Ref[rhi.RenderTarget], count),
	}
	d.track(&sc.resource, "swap-chain", desc.Surface.Title(), sc.releaseTargets)

	// A minimized window yields a swap chain without drawables until Resize.
	if w, h := desc.Surface.Size(); w > 0 && h > 0 {
		if err := sc.Resize(w, h); err != nil {
			sc.Release()
			return nil, err
		}
	}
	return sc, nil
}

func (sc *SwapChain) Surface() rhi.Surface { return sc.surface }

// BufferCount is the number of render targets in the ring.
func (sc *SwapChain) BufferCount() int { return len(sc.targets) }

func (sc *SwapChain) NextRenderTarget() (rhi.RenderTarget, error) {
	t := sc.targets[sc.next]
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrZeroSizedSurface, sc.label)
	}
	sc.next = (sc.next + 1) % len(sc.targets)
	return t.Get(), nil
}

// Resize replaces every render target with one of the new size. A zero
// dimension drops the targets until the next non-zero resize.
func (sc *SwapChain) Resize(width, height uint32) error {
	sc.releaseTargets()
	sc.next = 0
	if width == 0 || height == 0 {
		return nil
	}
	for i := range sc.targets {
		rt, err := rhi.Adopt(sc.device.CreateRenderTarget(rhi.RenderTargetDescriptor{
			Label:  fmt.Sprintf("%s/%d", sc.label, i),
			Width:  width,
			Height: height,
			Format: sc.format,
		}))
		if err != nil {
			sc.releaseTargets()
			return fmt.Errorf("resize swap chain %s: %w", sc.label, err)
		}
		sc.targets[i] = rt
	}
	return nil
}

func (sc *SwapChain) releaseTargets() {
	for i := range sc.targets {
		sc.targets[i].Release()
	}
}
