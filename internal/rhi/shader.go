package rhi

import "github.com/gogpu/gputypes"

type ShaderType uint8

const (
	ShaderTypeVertex ShaderType = iota
	ShaderTypeFragment
)

// ShaderDataType is the type of one vertex attribute.
type ShaderDataType uint8

const (
	ShaderDataFloat ShaderDataType = iota
	ShaderDataFloat2
	ShaderDataFloat3
	ShaderDataFloat4
	ShaderDataInt
	ShaderDataInt2
	ShaderDataInt3
	ShaderDataInt4
)

// Size returns the attribute size in bytes.
func (t ShaderDataType) Size() uint64 {
	switch t {
	case ShaderDataFloat, ShaderDataInt:
		return 4
	case ShaderDataFloat2, ShaderDataInt2:
		return 8
	case ShaderDataFloat3, ShaderDataInt3:
		return 12
	case ShaderDataFloat4, ShaderDataInt4:
		return 16
	default:
		return 0
	}
}

func (t ShaderDataType) VertexFormat() gputypes.VertexFormat {
	switch t {
	case ShaderDataFloat:
		return gputypes.VertexFormatFloat32
	case ShaderDataFloat2:
		return gputypes.VertexFormatFloat32x2
	case ShaderDataFloat3:
		return gputypes.VertexFormatFloat32x3
	case ShaderDataFloat4:
		return gputypes.VertexFormatFloat32x4
	case ShaderDataInt:
		return gputypes.VertexFormatSint32
	case ShaderDataInt2:
		return gputypes.VertexFormatSint32x2
	case ShaderDataInt3:
		return gputypes.VertexFormatSint32x3
	default:
		return gputypes.VertexFormatSint32x4
	}
}

type BufferLayoutElement struct {
	DataType ShaderDataType
	Name     string
}

// BufferLayout describes one interleaved vertex buffer.
type BufferLayout []BufferLayoutElement

// Stride is the sum of the element sizes.
func (l BufferLayout) Stride() uint64 {
	var n uint64
	for _, e := range l {
		n += e.DataType.Size()
	}
	return n
}

// Attributes returns the WebGPU vertex attributes of l with packed offsets and
// shader locations in declaration order.
func (l BufferLayout) Attributes() []gputypes.VertexAttribute {
	attrs := make([]gputypes.VertexAttribute, 0, len(l))
	var offset uint64
	for i, e := range l {
		attrs = append(attrs, gputypes.VertexAttribute{
			Format:         e.DataType.VertexFormat(),
			Offset:         offset,
			ShaderLocation: uint32(i),
		})
		offset += e.DataType.Size()
	}
	return attrs
}

type ShaderProgramDescriptor struct {
	Name                 string
	VertexFunctionName   string
	FragmentFunctionName string
	BufferLayout         BufferLayout
	// Source is WGSL text holding both entry points.
	Source string
}

type ShaderProgram interface {
	Retainable
	Name() string
	Descriptor() ShaderProgramDescriptor
}
