package rhi

import "github.com/gogpu/gputypes"

type TriangleFillMode uint8

const (
	TriangleFillNone TriangleFillMode = iota
	TriangleFillSolid
	TriangleFillWireFrame
)

type DepthStencilDescriptor struct {
	DepthTestEnabled  bool
	DepthWriteEnabled bool
	DepthCompare      gputypes.CompareFunction
}

type RasterizerDescriptor struct {
	FillMode         TriangleFillMode
	CullMode         gputypes.CullMode
	FrontFace        gputypes.FrontFace
	DepthBias        int32
	DepthClipEnabled bool
}

type BlendComponent struct {
	SrcFactor gputypes.BlendFactor
	DstFactor gputypes.BlendFactor
	Operation gputypes.BlendOperation
}

type RenderTargetBlendDescriptor struct {
	Enabled bool
	Color   BlendComponent
	Alpha   BlendComponent
}

// AlphaBlending is straight (non-premultiplied) source-over blending.
var AlphaBlending = RenderTargetBlendDescriptor{
	Enabled: true,
	Color: BlendComponent{
		SrcFactor: gputypes.BlendFactorSrcAlpha,
		DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
		Operation: gputypes.BlendOperationAdd,
	},
	Alpha: BlendComponent{
		SrcFactor: gputypes.BlendFactorOne,
		DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
		Operation: gputypes.BlendOperationAdd,
	},
}

type PipelineStateDescriptor struct {
	Label        string
	Topology     gputypes.PrimitiveTopology
	DepthStencil DepthStencilDescriptor
	Rasterizer   RasterizerDescriptor
	Blend        []RenderTargetBlendDescriptor
	// ShaderProgram is retained by the pipeline for its whole lifetime.
	ShaderProgram ShaderProgram
}

// DefaultPipelineStateDescriptor returns solid, back-face culled triangle
// rendering with depth testing and alpha blending on one target.
func DefaultPipelineStateDescriptor(program ShaderProgram) PipelineStateDescriptor {
	return PipelineStateDescriptor{
		Topology: gputypes.PrimitiveTopologyTriangleList,
		DepthStencil: DepthStencilDescriptor{
			DepthTestEnabled:  true,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionLess,
		},
		Rasterizer: RasterizerDescriptor{
			FillMode:         TriangleFillSolid,
			CullMode:         gputypes.CullModeBack,
			FrontFace:        gputypes.FrontFaceCCW,
			DepthClipEnabled: true,
		},
		Blend:         []RenderTargetBlendDescriptor{AlphaBlending},
		ShaderProgram: program,
	}
}

type PipelineState interface {
	Retainable
	Descriptor() PipelineStateDescriptor
	ShaderProgram() ShaderProgram
}
