package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/qurb/engine/internal/rhi"
)

// TagComponent names an entity.
type TagComponent struct {
	Name string
}

// TransformComponent places an entity in world space.
// Rotation holds Euler angles in degrees, applied about X, then Y, then Z.
type TransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
}

// NewTransform returns an identity transform. The zero TransformComponent has
// a zero scale and collapses everything it touches to a point.
func NewTransform() TransformComponent {
	return TransformComponent{Scale: mgl32.Vec3{1, 1, 1}}
}

// Matrix returns translate * scale * rotate.
func (t *TransformComponent) Matrix() mgl32.Mat4 {
	rot := mgl32.AnglesToQuat(
		mgl32.DegToRad(t.Rotation[0]),
		mgl32.DegToRad(t.Rotation[1]),
		mgl32.DegToRad(t.Rotation[2]),
		mgl32.XYZ,
	).Mat4()
	return mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2]).
		Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2])).
		Mul4(rot)
}

// MeshComponent owns references to the geometry buffers of an entity. The
// references are released when the component is removed or the entity dies.
type MeshComponent struct {
	VertexBuffer rhi.Ref[rhi.Buffer]
	IndexBuffer  rhi.Ref[rhi.Buffer]
	VertexCount  uint32
}

func (m *MeshComponent) Detach() {
	m.VertexBuffer.Release()
	m.IndexBuffer.Release()
}

// MaterialComponent owns the pipeline state and fragment texture of an entity.
type MaterialComponent struct {
	Pipeline rhi.Ref[rhi.PipelineState]
	Texture  rhi.Ref[rhi.Texture]
}

func (m *MaterialComponent) Detach() {
	m.Pipeline.Release()
	m.Texture.Release()
}

// CameraComponent makes an entity a viewpoint. The renderer draws through the
// primary camera; FixedAspect cameras ignore viewport resizes.
type CameraComponent struct {
	Camera      Camera
	Primary     bool
	FixedAspect bool
}

// ScriptComponent attaches a Lua script, resolved relative to the scripting
// directory.
type ScriptComponent struct {
	Path string
}
