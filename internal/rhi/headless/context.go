package headless

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/qurb/engine/internal/rhi"
)

// ErrFrameProtocol wraps every command-ordering violation reported by EndFrame.
var ErrFrameProtocol = errors.New("headless: frame protocol violation")

// MaxPushConstantSize matches the guaranteed minimum of Vulkan and Metal.
const MaxPushConstantSize = 128

// DrawRecord is one recorded draw call with the state bound at the time.
type DrawRecord struct {
	Pipeline      string
	VertexBuffers map[uint32]string
	Textures      map[uint32]string
	PushConstants []byte
	VertexCount   uint32
	FirstVertex   uint32
}

type PassRecord struct {
	Target     string
	ClearColor gputypes.Color
	Draws      []DrawRecord
}

// FrameRecord is everything submitted between BeginFrame and EndFrame.
type FrameRecord struct {
	Index     uint64
	Passes    []PassRecord
	Presented bool
}

// DrawCount is the number of draw calls across all passes.
func (f FrameRecord) DrawCount() int {
	n := 0
	for _, p := range f.Passes {
		n += len(p.Draws)
	}
	return n
}

// VertexCount is the number of vertices submitted across all passes.
func (f FrameRecord) VertexCount() uint32 {
	var n uint32
	for _, p := range f.Passes {
		for _, d := range p.Draws {
			n += d.VertexCount
		}
	}
	return n
}

// RenderContext records frames instead of executing them. Bound resources are
// retained until they are rebound or the frame ends.
type RenderContext struct {
	resource
	swapChain rhi.Ref[rhi.SwapChain]

	frames  uint64
	inFrame bool
	inPass  bool
	current FrameRecord
	last    FrameRecord
	errs    []error

	pipeline      rhi.Ref[rhi.PipelineState]
	vertexBuffers map[uint32]rhi.Ref[rhi.Buffer]
	textures      map[uint32]rhi.Ref[rhi.Texture]
	push          []byte
}

func (d *Device) NewRenderContext(desc rhi.RenderContextDescriptor) (*RenderContext, error) {
	sc, err := rhi.Adopt(d.CreateSwapChain(desc.SwapChain))
	if err != nil {
		return nil, fmt.Errorf("render context: %w", err)
	}
	c := &RenderContext{
		swapChain:     sc,
		vertexBuffers: make(map[uint32]rhi.Ref[rhi.Buffer]),
		textures:      make(map[uint32]rhi.Ref[rhi.Texture]),
	}
	d.track(&c.resource, "render-context", desc.SwapChain.Surface.Title(), func() {
		c.unbindAll()
		c.swapChain.Release()
	})
	return c, nil
}

func (c *RenderContext) Surface() rhi.Surface     { return c.swapChain.Get().Surface() }
func (c *RenderContext) SwapChain() rhi.SwapChain { return c.swapChain.Get() }

// LastFrame returns the record of the most recently ended frame.
func (c *RenderContext) LastFrame() FrameRecord { return c.last }

// FrameCount is the number of frames ended so far.
func (c *RenderContext) FrameCount() uint64 { return c.frames }

func (c *RenderContext) fail(format string, args ...any) {
	c.errs = append(c.errs, fmt.Errorf("%w: "+format, append([]any{ErrFrameProtocol}, args...)...))
}

func (c *RenderContext) BeginFrame() {
	if c.inFrame {
		c.fail("BeginFrame inside frame %d", c.current.Index)
		return
	}
	c.inFrame = true
	c.current = FrameRecord{Index: c.frames}
}

// EndFrame closes the frame and returns every violation recorded since
// BeginFrame, joined.
func (c *RenderContext) EndFrame() error {
	if !c.inFrame {
		c.fail("EndFrame without BeginFrame")
	} else {
		if c.inPass {
			c.fail("EndFrame with render pass still open")
			c.inPass = false
		}
		c.last = c.current
		c.frames++
	}
	c.inFrame = false
	c.current = FrameRecord{}
	c.unbindAll()

	err := errors.Join(c.errs...)
	c.errs = nil
	return err
}

func (c *RenderContext) Present() {
	switch {
	case !c.inFrame:
		c.fail("Present outside frame")
	case c.inPass:
		c.fail("Present inside render pass")
	case c.current.Presented:
		c.fail("Present called twice in frame %d", c.current.Index)
	default:
		c.current.Presented = true
	}
}

func (c *RenderContext) BeginRenderPass(target rhi.RenderTarget, desc rhi.RenderPassDescriptor) {
	switch {
	case !c.inFrame:
		c.fail("BeginRenderPass outside frame")
		return
	case c.inPass:
		c.fail("BeginRenderPass inside render pass")
		return
	case target == nil:
		c.fail("BeginRenderPass with nil target")
		return
	}
	c.inPass = true
	c.current.Passes = append(c.current.Passes, PassRecord{
		Target:     labelOf(target),
		ClearColor: desc.ClearColor,
	})
}

func (c *RenderContext) EndRenderPass() {
	if !c.inPass {
		c.fail("EndRenderPass without BeginRenderPass")
		return
	}
	c.inPass = false
}

func (c *RenderContext) PushConstants(data []byte) {
	if !c.requirePass("PushConstants") {
		return
	}
	if len(data) > MaxPushConstantSize {
		c.fail("push constants of %d bytes exceed %d", len(data), MaxPushConstantSize)
		return
	}
	c.push = append(c.push[:0], data...)
}

func (c *RenderContext) BindPipelineState(state rhi.PipelineState) {
	if !c.requirePass("BindPipelineState") {
		return
	}
	if state == nil {
		c.fail("BindPipelineState with nil state")
		return
	}
	c.pipeline.Release()
	c.pipeline = rhi.Retained(state)
}

func (c *RenderContext) BindVertexBuffer(buf rhi.Buffer, slot, offset uint32) {
	if !c.requirePass("BindVertexBuffer") {
		return
	}
	switch {
	case buf == nil:
		c.fail("BindVertexBuffer with nil buffer at slot %d", slot)
		return
	case buf.Type() != rhi.BufferTypeVertex:
		c.fail("BindVertexBuffer with %s buffer at slot %d", buf.Type(), slot)
		return
	case int(offset) >= buf.Size():
		c.fail("BindVertexBuffer offset %d past buffer size %d", offset, buf.Size())
		return
	}
	old := c.vertexBuffers[slot]
	c.vertexBuffers[slot] = rhi.Retained(buf)
	old.Release()
}

func (c *RenderContext) BindFragmentTexture(tex rhi.Texture, slot uint32) {
	if !c.requirePass("BindFragmentTexture") {
		return
	}
	if tex == nil {
		c.fail("BindFragmentTexture with nil texture at slot %d", slot)
		return
	}
	old := c.textures[slot]
	c.textures[slot] = rhi.Retained(tex)
	old.Release()
}

func (c *RenderContext) Draw(vertexCount, firstVertex uint32) {
	if !c.requirePass("Draw") {
		return
	}
	if !c.pipeline.Valid() {
		c.fail("Draw without a bound pipeline state")
		return
	}
	if len(c.vertexBuffers) == 0 {
		c.fail("Draw without a bound vertex buffer")
		return
	}
	rec := DrawRecord{
		Pipeline:      labelOf(c.pipeline.Get()),
		VertexBuffers: make(map[uint32]string, len(c.vertexBuffers)),
		Textures:      make(map[uint32]string, len(c.textures)),
		PushConstants: append([]byte(nil), c.push...),
		VertexCount:   vertexCount,
		FirstVertex:   firstVertex,
	}
	for slot, b := range c.vertexBuffers {
		rec.VertexBuffers[slot] = labelOf(b.Get())
	}
	for slot, t := range c.textures {
		rec.Textures[slot] = labelOf(t.Get())
	}
	pass := &c.current.Passes[len(c.current.Passes)-1]
	pass.Draws = append(pass.Draws, rec)
}

func (c *RenderContext) requirePass(op string) bool {
	if !c.inPass {
		c.fail("%s outside render pass", op)
		return false
	}
	return true
}

func (c *RenderContext) unbindAll() {
	c.pipeline.Release()
	for slot, b := range c.vertexBuffers {
		b.Release()
		delete(c.vertexBuffers, slot)
	}
	for slot, t := range c.textures {
		t.Release()
		delete(c.textures, slot)
	}
	c.push = c.push[:0]
}

func labelOf(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", v)
}
