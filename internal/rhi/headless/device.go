// Package headless implements the RHI on the CPU. It validates descriptors and
// the frame protocol, compiles shaders, and records what each frame would draw,
// which makes it usable for tests, tooling and servers without a GPU.
package headless

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/naga"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/qurb/engine/internal/rhi"
)

var (
	ErrInvalidDescriptor = errors.New("headless: invalid descriptor")
	ErrZeroSizedSurface  = errors.New("headless: surface has zero area")
	ErrShaderCompile     = errors.New("headless: shader compilation failed")
)

// LiveObject describes a resource that has not been destroyed yet.
type LiveObject struct {
	ID    uuid.UUID
	Kind  string
	Label string
}

// Device creates headless resources and tracks which of them are still alive.
type Device struct {
	rhi.Object

	id   uuid.UUID
	log  *zap.Logger
	live map[uuid.UUID]LiveObject

	// SPIR-V by blake2b-256 of the WGSL source. Nil entries mark sources naga
	// could not lower; those programs are accepted unvalidated.
	modules  map[[blake2b.Size256]byte][]byte
	compiles int
	strict   bool
}

// Option configures a Device.
type Option func(*Device)

// WithStrictShaders makes shader programs fail on any naga error other than
// an unimplemented feature. By default every compile error is logged and the
// program is accepted without SPIR-V.
func WithStrictShaders() Option {
	return func(d *Device) { d.strict = true }
}

func NewDevice(log *zap.Logger, opts ...Option) *Device {
	d := &Device{
		id:      uuid.New(),
		log:     log,
		live:    make(map[uuid.UUID]LiveObject),
		modules: make(map[[blake2b.Size256]byte][]byte),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.OnDestroy(d.destroy)
	log.Debug("headless device created", zap.Stringer("id", d.id))
	return d
}

func (d *Device) destroy() {
	if len(d.live) > 0 {
		objs := d.LiveObjects()
		labels := make([]string, 0, len(objs))
		for _, o := range objs {
			labels = append(labels, o.Kind+":"+o.Label)
		}
		d.log.Warn("device destroyed with live objects",
			zap.Int("count", len(objs)),
			zap.Strings("objects", labels),
		)
	}
	d.log.Debug("headless device destroyed", zap.Stringer("id", d.id))
}

func (d *Device) ID() uuid.UUID { return d.id }

// LiveObjects lists undestroyed resources ordered by kind then label.
func (d *Device) LiveObjects() []LiveObject {
	out := make([]LiveObject, 0, len(d.live))
	for _, o := range d.live {
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b LiveObject) int {
		if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return out
}

// ShaderCompiles is the number of times naga was invoked, i.e. cache misses.
func (d *Device) ShaderCompiles() int { return d.compiles }

// resource is the common part of every headless object.
type resource struct {
	rhi.Object
	id    uuid.UUID
	label string
}

func (r *resource) ID() uuid.UUID  { return r.id }
func (r *resource) Label() string  { return r.label }
func (r *resource) String() string { return r.label }

// track registers res as live and arranges for teardown and untracking when
// its last reference goes away.
func (d *Device) track(res *resource, kind, label string, teardown func()) {
	res.id = uuid.New()
	if label == "" {
		label = kind + "-" + res.id.String()[:8]
	}
	res.label = label
	d.live[res.id] = LiveObject{ID: res.id, Kind: kind, Label: label}
	res.OnDestroy(func() {
		if teardown != nil {
			teardown()
		}
		delete(d.live, res.id)
		d.log.Debug("destroyed", zap.String("kind", kind), zap.String("label", label))
	})
	d.log.Debug("created", zap.String("kind", kind), zap.String("label", label))
}

// compile returns SPIR-V for source, compiling through naga on a cache miss.
// A nil slice with a nil error means the source was accepted unvalidated.
// Rejected sources are not cached.
func (d *Device) compile(source string) ([]byte, error) {
	key := blake2b.Sum256([]byte(source))
	if spirv, ok := d.modules[key]; ok {
		return spirv, nil
	}
	d.compiles++
	spirv, err := naga.Compile(source)
	if err != nil {
		if d.strict && !unsupported(err) {
			return nil, fmt.Errorf("%w: %w", ErrShaderCompile, err)
		}
		d.log.Warn("shader accepted without validation", zap.Error(err))
		spirv = nil
	}
	d.modules[key] = spirv
	return spirv, nil
}

func unsupported(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported")
}

func (d *Device) CreateBuffer(desc rhi.BufferDescriptor) (rhi.Buffer, error) {
	obj, err := d.NewBuffer(desc)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (d *Device) CreateTexture(desc rhi.TextureDescriptor) (rhi.Texture, error) {
	obj, err := d.NewTexture(desc)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (d *Device) CreateShaderProgram(desc rhi.ShaderProgramDescriptor) (rhi.ShaderProgram, error) {
	obj, err := d.NewShaderProgram(desc)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (d *Device) CreatePipelineState(desc rhi.PipelineStateDescriptor) (rhi.PipelineState, error) {
	obj, err := d.NewPipelineState(desc)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (d *Device) CreateRenderTarget(desc rhi.RenderTargetDescriptor) (rhi.RenderTarget, error) {
	obj, err := d.NewRenderTarget(desc)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (d *Device) CreateSwapChain(desc rhi.SwapChainDescriptor) (rhi.SwapChain, error) {
	obj, err := d.NewSwapChain(desc)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (d *Device) CreateRenderContext(desc rhi.RenderContextDescriptor) (rhi.RenderContext, error) {
	obj, err := d.NewRenderContext(desc)
	if err != nil {
		return nil, err
	}
	return obj, nil
}
