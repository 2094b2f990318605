package main

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/qurb/engine/internal/core/ecs"
	"github.com/qurb/engine/internal/engine"
	"github.com/qurb/engine/internal/platform"
	"github.com/qurb/engine/internal/scene"
)

// spinSpeed is how fast unscripted objects turn, in degrees per second.
const spinSpeed = 50

// sandbox shows a row of textured quads in front of a perspective camera.
// When the configuration names a scene file the engine populates the scene
// and the sandbox only animates it.
type sandbox struct {
	name string
	log  *zap.Logger
	e    *engine.Engine
}

func newSandbox(name string, log *zap.Logger) *sandbox {
	return &sandbox{name: name, log: log}
}

func (a *sandbox) Name() string { return a.name }

func (a *sandbox) Initialize(e *engine.Engine) error {
	a.e = e
	if e.Scene().Len() == 0 {
		if err := a.createCamera(); err != nil {
			return err
		}
		for i, x := range []float32{-2.5, 0, 2.5} {
			if err := a.createQuad(fmt.Sprintf("quad-%d", i), mgl32.Vec3{x, 0, 0}); err != nil {
				return err
			}
		}
	}
	a.log.Info("sandbox initialized", zap.String("name", a.name), zap.Int("entities", e.Scene().Len()))
	return nil
}

func (a *sandbox) createCamera() error {
	cam := a.e.Scene().CreateNamedEntity("camera")
	tr, err := ecs.Get[scene.TransformComponent](cam)
	if err != nil {
		return err
	}
	tr.Position = mgl32.Vec3{0, 0, -6}
	_, err = ecs.Add(cam, scene.CameraComponent{Camera: scene.NewPerspectiveCamera(60, 0.1, 100), Primary: true})
	return err
}

func (a *sandbox) createQuad(name string, pos mgl32.Vec3) error {
	dev := a.e.Renderer().Device()
	mesh, err := scene.NewMesh(dev, "quad")
	if err != nil {
		return err
	}
	pso, err := scene.NewObjectPipeline(dev)
	if err != nil {
		mesh.Detach()
		return err
	}
	tex := a.e.Renderer().TextureManager().Default()

	mat := scene.MaterialComponent{Pipeline: pso, Texture: tex}

	quad := a.e.Scene().CreateNamedEntity(name)
	tr, err := ecs.Get[scene.TransformComponent](quad)
	if err != nil {
		mesh.Detach()
		mat.Detach()
		return err
	}
	tr.Position = pos
	if _, err := ecs.Add(quad, mat); err != nil {
		mesh.Detach()
		mat.Detach()
		return err
	}
	if _, err := ecs.Add(quad, mesh); err != nil {
		mesh.Detach()
		return err
	}
	return nil
}

// Update spins every object that has no camera and no script of its own.
// Holding space pauses the spin.
func (a *sandbox) Update(dt time.Duration) {
	if a.e.Input().IsKeyPressed(platform.KeySpace) {
		return
	}
	step := float32(dt.Seconds()) * spinSpeed
	for _, ent := range a.e.Scene().Entities() {
		if ecs.Has[scene.CameraComponent](ent) || ecs.Has[scene.ScriptComponent](ent) {
			continue
		}
		if tr, err := ecs.Get[scene.TransformComponent](ent); err == nil {
			tr.Rotation[2] += step
		}
	}
}

func (a *sandbox) Shutdown() {
	a.log.Info("sandbox shutdown", zap.String("name", a.name))
}
