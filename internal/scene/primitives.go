package scene

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/qurb/engine/internal/rhi"
)

//go:embed shaders/object.wgsl
var objectShaderSource string

const (
	ObjectShaderName    = "Object.Builtin"
	ObjectVertexEntry   = "vertex_main"
	ObjectFragmentEntry = "fragment_main"
	vertexStride        = 5 * 4
)

// Vertex is the layout every built-in mesh uses.
type Vertex struct {
	Position mgl32.Vec3
	UV       mgl32.Vec2
}

// VertexLayout describes Vertex to the shader.
var VertexLayout = rhi.BufferLayout{
	{DataType: rhi.ShaderDataFloat3, Name: "position"},
	{DataType: rhi.ShaderDataFloat2, Name: "uv"},
}

var primitives = map[string][]Vertex{
	"quad": {
		{mgl32.Vec3{-1, -1, 0}, mgl32.Vec2{0, 0}},
		{mgl32.Vec3{1, -1, 0}, mgl32.Vec2{1, 0}},
		{mgl32.Vec3{1, 1, 0}, mgl32.Vec2{1, 1}},
		{mgl32.Vec3{-1, -1, 0}, mgl32.Vec2{0, 0}},
		{mgl32.Vec3{1, 1, 0}, mgl32.Vec2{1, 1}},
		{mgl32.Vec3{-1, 1, 0}, mgl32.Vec2{0, 1}},
	},
	"triangle": {
		{mgl32.Vec3{-1, -1, 0}, mgl32.Vec2{0, 0}},
		{mgl32.Vec3{1, -1, 0}, mgl32.Vec2{1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec2{0.5, 1}},
	},
}

// Primitive returns a copy of the named built-in mesh.
func Primitive(name string) ([]Vertex, bool) {
	v, ok := primitives[name]
	if !ok {
		return nil, false
	}
	return append([]Vertex(nil), v...), true
}

// PrimitiveNames lists the built-in meshes in sorted order.
func PrimitiveNames() []string {
	names := make([]string, 0, len(primitives))
	for name := range primitives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EncodeVertices packs vertices little-endian in VertexLayout order.
func EncodeVertices(vertices []Vertex) []byte {
	out := make([]byte, 0, len(vertices)*vertexStride)
	for _, v := range vertices {
		for _, f := range [5]float32{v.Position[0], v.Position[1], v.Position[2], v.UV[0], v.UV[1]} {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
	}
	return out
}

// encodeMat4 packs m column-major, matching WGSL mat4x4<f32>.
func encodeMat4(m mgl32.Mat4) []byte {
	out := make([]byte, 0, 64)
	for _, f := range m {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
	}
	return out
}

// NewMesh uploads the named primitive into an immutable vertex buffer.
func NewMesh(device rhi.Device, name string) (MeshComponent, error) {
	vertices, ok := Primitive(name)
	if !ok {
		return MeshComponent{}, fmt.Errorf("unknown primitive %q", name)
	}
	buf, err := rhi.Adopt(device.CreateBuffer(rhi.BufferDescriptor{
		Label:       name,
		InitialData: EncodeVertices(vertices),
		Type:        rhi.BufferTypeVertex,
		Usage:       rhi.BufferUsageImmutable,
	}))
	if err != nil {
		return MeshComponent{}, fmt.Errorf("create %s vertex buffer: %w", name, err)
	}
	return MeshComponent{VertexBuffer: buf, VertexCount: uint32(len(vertices))}, nil
}

// ObjectShaderDescriptor describes the built-in textured object shader.
func ObjectShaderDescriptor() rhi.ShaderProgramDescriptor {
	return rhi.ShaderProgramDescriptor{
		Name:                 ObjectShaderName,
		VertexFunctionName:   ObjectVertexEntry,
		FragmentFunctionName: ObjectFragmentEntry,
		BufferLayout:         VertexLayout,
		Source:               objectShaderSource,
	}
}

// NewObjectPipeline builds the pipeline state for the built-in object shader.
// The pipeline keeps its program alive; the caller owns the returned Ref.
func NewObjectPipeline(device rhi.Device) (rhi.Ref[rhi.PipelineState], error) {
	program, err := rhi.Adopt(device.CreateShaderProgram(ObjectShaderDescriptor()))
	if err != nil {
		return rhi.Ref[rhi.PipelineState]{}, fmt.Errorf("create object shader: %w", err)
	}
	defer program.Release()

	pso, err := rhi.Adopt(device.CreatePipelineState(rhi.DefaultPipelineStateDescriptor(program.Get())))
	if err != nil {
		return rhi.Ref[rhi.PipelineState]{}, fmt.Errorf("create object pipeline: %w", err)
	}
	return pso, nil
}
