package rhi

import (
	"github.com/qurb/engine/internal/plugin"
)

// Device creates GPU resources. Every factory returns an object holding one
// reference that the caller owns; wrap it with Adopt or NewRef.
type Device interface {
	Retainable
	CreateBuffer(desc BufferDescriptor) (Buffer, error)
	CreateTexture(desc TextureDescriptor) (Texture, error)
	CreateShaderProgram(desc ShaderProgramDescriptor) (ShaderProgram, error)
	CreatePipelineState(desc PipelineStateDescriptor) (PipelineState, error)
	CreateRenderTarget(desc RenderTargetDescriptor) (RenderTarget, error)
	CreateSwapChain(desc SwapChainDescriptor) (SwapChain, error)
	CreateRenderContext(desc RenderContextDescriptor) (RenderContext, error)
}

type BackendType uint8

const (
	BackendNone BackendType = iota
	BackendMetal
	BackendVulkan
	BackendD3D12
	BackendHeadless
)

func (t BackendType) String() string {
	switch t {
	case BackendMetal:
		return "Metal"
	case BackendVulkan:
		return "Vulkan"
	case BackendD3D12:
		return "D3D12"
	case BackendHeadless:
		return "Headless"
	default:
		return "None"
	}
}

// RenderBackend is the entry point of one graphics API implementation.
type RenderBackend interface {
	Type() BackendType
	CreateDevice() (Device, error)
}

// Plugin is a plugin that provides a render backend.
type Plugin interface {
	plugin.Plugin
	CreateRenderBackend() (RenderBackend, error)
}
