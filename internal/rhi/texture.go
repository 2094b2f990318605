package rhi

import "github.com/gogpu/gputypes"

// TextureFormat uses the WebGPU format enumeration directly.
type TextureFormat = gputypes.TextureFormat

// BytesPerPixel returns the texel size of the formats the engine uploads, or
// zero for formats it does not handle.
func BytesPerPixel(f TextureFormat) int {
	switch f {
	case gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatDepth24PlusStencil8:
		return 4
	default:
		return 0
	}
}

type TextureDescriptor struct {
	Label  string
	Width  uint32
	Height uint32
	Format TextureFormat
	// Data holds Width*Height texels, rows bottom to top; nil leaves the texture cleared.
	Data []byte
}

// Extent returns the descriptor size as a single-layer WebGPU extent.
func (d TextureDescriptor) Extent() gputypes.Extent3D {
	return gputypes.Extent3D{Width: d.Width, Height: d.Height, DepthOrArrayLayers: 1}
}

type Texture interface {
	Retainable
	Width() uint32
	Height() uint32
	Format() TextureFormat
}
