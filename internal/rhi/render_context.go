package rhi

import (
	"strings"

	"github.com/gogpu/gputypes"
)

// Surface is what a swap chain presents to. Platform windows implement it.
type Surface interface {
	Title() string
	Size() (width, height uint32)
}

type RenderTargetDescriptor struct {
	Label  string
	Width  uint32
	Height uint32
	Format TextureFormat
}

type RenderTarget interface {
	Retainable
	Width() uint32
	Height() uint32
	Format() TextureFormat
}

type SwapChainDescriptor struct {
	Surface     Surface
	Format      TextureFormat
	BufferCount int
}

type SwapChain interface {
	Retainable
	Surface() Surface
	// NextRenderTarget returns the drawable for the coming frame. The swap
	// chain keeps ownership; callers retain it if they hold it past the frame.
	NextRenderTarget() (RenderTarget, error)
	Resize(width, height uint32) error
}

type RenderContextDescriptor struct {
	SwapChain SwapChainDescriptor
}

type RenderPassDescriptor struct {
	ClearColor gputypes.Color
	Label      string
}

// RenderContext records the commands of one frame:
//
//	BeginFrame
//	  BeginRenderPass ... bind/push/draw ... EndRenderPass   (any number)
//	  Present
//	EndFrame
//
// Protocol violations are collected and returned by EndFrame rather than
// from each call.
type RenderContext interface {
	Retainable
	Surface() Surface
	SwapChain() SwapChain

	BeginFrame()
	EndFrame() error
	Present()

	BeginRenderPass(target RenderTarget, desc RenderPassDescriptor)
	EndRenderPass()

	PushConstants(data []byte)
	BindPipelineState(state PipelineState)
	BindVertexBuffer(buf Buffer, slot, offset uint32)
	BindFragmentTexture(tex Texture, slot uint32)
	Draw(vertexCount, firstVertex uint32)
}

var (
	ColorBlack  = gputypes.Color{R: 0, G: 0, B: 0, A: 1}
	ColorWhite  = gputypes.Color{R: 1, G: 1, B: 1, A: 1}
	ColorRed    = gputypes.Color{R: 1, G: 0, B: 0, A: 1}
	ColorGreen  = gputypes.Color{R: 0, G: 1, B: 0, A: 1}
	ColorBlue   = gputypes.Color{R: 0, G: 0, B: 1, A: 1}
	ColorOrange = gputypes.Color{R: 1, G: 0.5, B: 0, A: 1}
	ColorPurple = gputypes.Color{R: 0.6, G: 0.125, B: 0.95, A: 1}
	ColorYellow = gputypes.Color{R: 1, G: 1, B: 0, A: 1}
)

var namedColors = map[string]gputypes.Color{
	"black":  ColorBlack,
	"white":  ColorWhite,
	"red":    ColorRed,
	"green":  ColorGreen,
	"blue":   ColorBlue,
	"orange": ColorOrange,
	"purple": ColorPurple,
	"yellow": ColorYellow,
}

// ColorByName looks up one of the named engine colors, ignoring case.
func ColorByName(name string) (gputypes.Color, bool) {
	c, ok := namedColors[strings.ToLower(name)]
	return c, ok
}
