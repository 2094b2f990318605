package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"go.uber.org/zap"

	"github.com/qurb/engine/internal/core/ecs"
	"github.com/qurb/engine/internal/rhi"
)

// Stats summarises one Render call.
type Stats struct {
	Draws    int
	Vertices int
	Skipped  int // renderable entities missing a buffer or pipeline
}

// SceneRenderer draws every entity holding a transform, a mesh and a
// material through the scene's primary camera.
type SceneRenderer struct {
	clear gputypes.Color
	log   *zap.Logger
}

func NewSceneRenderer(clear gputypes.Color, log *zap.Logger) *SceneRenderer {
	return &SceneRenderer{clear: clear, log: log}
}

func (r *SceneRenderer) SetClearColor(c gputypes.Color) { r.clear = c }

// Render records one render pass into ctx. The caller owns the frame:
// BeginFrame before, Present and EndFrame after. Without a camera the pass
// only clears the target.
func (r *SceneRenderer) Render(ctx rhi.RenderContext, s *Scene) (Stats, error) {
	var stats Stats
	target, err := ctx.SwapChain().NextRenderTarget()
	if err != nil {
		return stats, fmt.Errorf("acquire render target: %w", err)
	}

	ctx.BeginRenderPass(target, rhi.RenderPassDescriptor{ClearColor: r.clear, Label: s.Name()})
	defer ctx.EndRenderPass()

	viewProjection, ok := r.viewProjection(s)
	if !ok {
		r.log.Debug("no camera in scene, clearing only")
		return stats, nil
	}

	ecs.Each3(s.Registry(), func(id ecs.EntityID, tr *TransformComponent, mesh *MeshComponent, mat *MaterialComponent) {
		if !mesh.VertexBuffer.Valid() || !mat.Pipeline.Valid() || mesh.VertexCount == 0 {
			stats.Skipped++
			return
		}
		ctx.BindPipelineState(mat.Pipeline.Get())
		ctx.BindVertexBuffer(mesh.VertexBuffer.Get(), 0, 0)
		if mat.Texture.Valid() {
			ctx.BindFragmentTexture(mat.Texture.Get(), 0)
		}
		ctx.PushConstants(encodeMat4(viewProjection.Mul4(tr.Matrix())))
		ctx.Draw(mesh.VertexCount, 0)

		stats.Draws++
		stats.Vertices += int(mesh.VertexCount)
	})
	return stats, nil
}

// viewProjection is the camera projection times the inverse of the camera
// entity's transform. A camera without a transform sits at the origin.
func (r *SceneRenderer) viewProjection(s *Scene) (mgl32.Mat4, bool) {
	e, cam, ok := s.PrimaryCamera()
	if !ok {
		return mgl32.Mat4{}, false
	}
	view := mgl32.Ident4()
	if tr, err := ecs.Get[TransformComponent](e); err == nil {
		view = tr.Matrix().Inv()
	}
	return cam.Camera.Matrix().Mul4(view), true
}
