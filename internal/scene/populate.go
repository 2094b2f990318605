package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/qurb/engine/internal/core/ecs"
	"github.com/qurb/engine/internal/core/event"
	"github.com/qurb/engine/internal/data"
	"github.com/qurb/engine/internal/rhi"
)

// DefaultTexture names the texture used by meshes that do not pick one.
const DefaultTexture = "default"

// TextureSource hands out textures by name. The caller owns the returned Ref.
type TextureSource interface {
	Texture(name string) (rhi.Ref[rhi.Texture], error)
}

// Resources are the GPU services Populate draws on.
type Resources struct {
	Device   rhi.Device
	Textures TextureSource
}

// Populate instantiates desc into s. Meshes share one vertex buffer per
// primitive and one object pipeline. On error the entities created so far
// stay in the scene; closing the scene releases them.
func Populate(s *Scene, desc *data.SceneDescription, res Resources) error {
	p := populator{scene: s, res: res, meshes: make(map[string]MeshComponent)}
	defer p.release()

	for i := range desc.Entities {
		if err := p.entity(&desc.Entities[i]); err != nil {
			return fmt.Errorf("populate %s: entity %q: %w", desc.Name, desc.Entities[i].Name, err)
		}
	}
	event.Dispatch(s.Events(), event.SceneLoaded{Name: desc.Name, Entities: len(desc.Entities)})
	return nil
}

type populator struct {
	scene    *Scene
	res      Resources
	pipeline rhi.Ref[rhi.PipelineState]
	meshes   map[string]MeshComponent
}

func (p *populator) entity(d *data.EntityDesc) error {
	e := p.scene.CreateNamedEntity(d.Name)
	tr, err := ecs.Get[TransformComponent](e)
	if err != nil {
		return err
	}
	tr.Position = mgl32.Vec3(d.Position)
	tr.Rotation = mgl32.Vec3(d.Rotation)
	tr.Scale = mgl32.Vec3(d.ScaleOrOne())

	if c := d.Camera; c != nil {
		cam := CameraComponent{Primary: c.Primary}
		if c.Projection == "orthographic" {
			cam.Camera = NewOrthographicCamera(c.Size, c.Near, c.Far)
		} else {
			cam.Camera = NewPerspectiveCamera(c.FOV, c.Near, c.Far)
		}
		if _, err := ecs.Add(e, cam); err != nil {
			return err
		}
	}

	if d.Mesh != "" {
		if err := p.renderable(e, d); err != nil {
			return err
		}
	}

	if d.Script != "" {
		if _, err := ecs.Add(e, ScriptComponent{Path: d.Script}); err != nil {
			return err
		}
	}
	return nil
}

func (p *populator) renderable(e ecs.Entity, d *data.EntityDesc) error {
	if p.res.Device == nil {
		return fmt.Errorf("mesh %q needs a device", d.Mesh)
	}
	shared, ok := p.meshes[d.Mesh]
	if !ok {
		var err error
		if shared, err = NewMesh(p.res.Device, d.Mesh); err != nil {
			return err
		}
		p.meshes[d.Mesh] = shared
	}
	if !p.pipeline.Valid() {
		pso, err := NewObjectPipeline(p.res.Device)
		if err != nil {
			return err
		}
		p.pipeline = pso
	}

	mat := MaterialComponent{Pipeline: p.pipeline.Clone()}
	if p.res.Textures != nil {
		name := d.Texture
		if name == "" {
			name = DefaultTexture
		}
		tex, err := p.res.Textures.Texture(name)
		if err != nil {
			mat.Detach()
			return fmt.Errorf("texture %q: %w", name, err)
		}
		mat.Texture = tex
	}
	if _, err := ecs.Add(e, mat); err != nil {
		mat.Detach()
		return err
	}

	mesh := MeshComponent{VertexBuffer: shared.VertexBuffer.Clone(), VertexCount: shared.VertexCount}
	if _, err := ecs.Add(e, mesh); err != nil {
		mesh.Detach()
		return err
	}
	return nil
}

// release drops the populator's own references; entities keep theirs.
func (p *populator) release() {
	p.pipeline.Release()
	for name, m := range p.meshes {
		m.Detach()
		delete(p.meshes, name)
	}
}
