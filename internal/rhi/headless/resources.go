package headless

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/qurb/engine/internal/rhi"
)

type Buffer struct {
	resource
	rhi.BufferInfo
	data   []byte
	mapped bool
}

func (d *Device) NewBuffer(desc rhi.BufferDescriptor) (*Buffer, error) {
	size := max(desc.Size, len(desc.InitialData))
	if size <= 0 {
		return nil, fmt.Errorf("%w: buffer %q has zero size", ErrInvalidDescriptor, desc.Label)
	}
	if desc.Type == rhi.BufferTypeNone {
		return nil, fmt.Errorf("%w: buffer %q has no type", ErrInvalidDescriptor, desc.Label)
	}
	desc.Size = size
	b := &Buffer{BufferInfo: rhi.NewBufferInfo(desc), data: make([]byte, size)}
	copy(b.data, desc.InitialData)
	d.track(&b.resource, "buffer", desc.Label, func() { b.data = nil })
	return b, nil
}

// Map returns the backing bytes. Immutable buffers cannot be mapped.
func (b *Buffer) Map() ([]byte, error) {
	if b.Usage() == rhi.BufferUsageImmutable {
		return nil, fmt.Errorf("%w: %s", rhi.ErrImmutableBuffer, b.label)
	}
	b.mapped = true
	return b.data, nil
}

func (b *Buffer) Unmap()        { b.mapped = false }
func (b *Buffer) Mapped() bool  { return b.mapped }
func (b *Buffer) Bytes() []byte { return append([]byte(nil), b.data...) }

func (b *Buffer) GPUUsage() gputypes.BufferUsage {
	return rhi.GPUUsage(b.Type(), b.Usage())
}

type Texture struct {
	resource
	width, height uint32
	format        rhi.TextureFormat
	pixels        []byte
}

func (d *Device) NewTexture(desc rhi.TextureDescriptor) (*Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: texture %q is %dx%d", ErrInvalidDescriptor, desc.Label, desc.Width, desc.Height)
	}
	bpp := rhi.BytesPerPixel(desc.Format)
	if bpp == 0 {
		return nil, fmt.Errorf("%w: texture %q has unsupported format %v", ErrInvalidDescriptor, desc.Label, desc.Format)
	}
	want := int(desc.Width) * int(desc.Height) * bpp
	if desc.Data != nil && len(desc.Data) != want {
		return nil, fmt.Errorf("%w: texture %q needs %d bytes, got %d", ErrInvalidDescriptor, desc.Label, want, len(desc.Data))
	}
	t := &Texture{width: desc.Width, height: desc.Height, format: desc.Format, pixels: make([]byte, want)}
	copy(t.pixels, desc.Data)
	d.track(&t.resource, "texture", desc.Label, func() { t.pixels = nil })
	return t, nil
}

func (t *Texture) Width() uint32             { return t.width }
func (t *Texture) Height() uint32            { return t.height }
func (t *Texture) Format() rhi.TextureFormat { return t.format }

func (t *Texture) Extent() gputypes.Extent3D {
	return gputypes.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1}
}

// Pixel returns the texel bytes at (x, y), with y counted from the bottom row,
// or nil outside the texture.
func (t *Texture) Pixel(x, y uint32) []byte {
	if x >= t.width || y >= t.height || t.pixels == nil {
		return nil
	}
	bpp := rhi.BytesPerPixel(t.format)
	i := (int(y)*int(t.width) + int(x)) * bpp
	return t.pixels[i : i+bpp]
}

type ShaderProgram struct {
	resource
	desc  rhi.ShaderProgramDescriptor
	spirv []byte
}

func (d *Device) NewShaderProgram(desc rhi.ShaderProgramDescriptor) (*ShaderProgram, error) {
	if strings.TrimSpace(desc.Source) == "" {
		return nil, fmt.Errorf("%w: shader %q has no source", ErrInvalidDescriptor, desc.Name)
	}
	for _, fn := range []string{desc.VertexFunctionName, desc.FragmentFunctionName} {
		if fn == "" || !strings.Contains(desc.Source, "fn "+fn) {
			return nil, fmt.Errorf("%w: shader %q has no entry point %q", ErrInvalidDescriptor, desc.Name, fn)
		}
	}
	spirv, err := d.compile(desc.Source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", desc.Name, err)
	}
	s := &ShaderProgram{desc: desc, spirv: spirv}
	d.track(&s.resource, "shader", desc.Name, nil)
	return s, nil
}

func (s *ShaderProgram) Name() string                            { return s.desc.Name }
func (s *ShaderProgram) Descriptor() rhi.ShaderProgramDescriptor { return s.desc }

// SPIRV is the compiled module, or nil when naga could not lower the source.
func (s *ShaderProgram) SPIRV() []byte { return s.spirv }

type PipelineState struct {
	resource
	desc    rhi.PipelineStateDescriptor
	program rhi.Ref[rhi.ShaderProgram]
}

func (d *Device) NewPipelineState(desc rhi.PipelineStateDescriptor) (*PipelineState, error) {
	program := rhi.Retained(desc.ShaderProgram)
	if !program.Valid() {
		return nil, fmt.Errorf("%w: pipeline %q has no shader program", ErrInvalidDescriptor, desc.Label)
	}
	p := &PipelineState{desc: desc, program: program}
	label := desc.Label
	if label == "" {
		label = program.Get().Name()
	}
	d.track(&p.resource, "pipeline", label, func() { p.program.Release() })
	return p, nil
}

func (p *PipelineState) Descriptor() rhi.PipelineStateDescriptor { return p.desc }
func (p *PipelineState) ShaderProgram() rhi.ShaderProgram        { return p.program.Get() }

type RenderTarget struct {
	resource
	width, height uint32
	format        rhi.TextureFormat
}

func (d *Device) NewRenderTarget(desc rhi.RenderTargetDescriptor) (*RenderTarget, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: render target %q is %dx%d", ErrInvalidDescriptor, desc.Label, desc.Width, desc.Height)
	}
	format := desc.Format
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatBGRA8Unorm
	}
	rt := &RenderTarget{width: desc.Width, height: desc.Height, format: format}
	d.track(&rt.resource, "render-target", desc.Label, nil)
	return rt, nil
}

func (rt *RenderTarget) Width() uint32             { return rt.width }
func (rt *RenderTarget) Height() uint32            { return rt.height }
func (rt *RenderTarget) Format() rhi.TextureFormat { return rt.format }
