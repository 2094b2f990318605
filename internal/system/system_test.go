package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/qurb/engine/internal/core/ecs"
	"github.com/qurb/engine/internal/core/event"
	coresys "github.com/qurb/engine/internal/core/system"
	"github.com/qurb/engine/internal/input"
	"github.com/qurb/engine/internal/platform"
	"github.com/qurb/engine/internal/rhi"
	"github.com/qurb/engine/internal/rhi/headless"
	"github.com/qurb/engine/internal/scene"
	"github.com/qurb/engine/internal/scripting"
)

type surface struct{ w, h uint32 }

func (s *surface) Title() string                { return "systems" }
func (s *surface) Size() (width, height uint32) { return s.w, s.h }

type phaseFunc struct {
	phase coresys.Phase
	fn    func()
}

func (p *phaseFunc) Phase() coresys.Phase   { return p.phase }
func (p *phaseFunc) Update(_ time.Duration) { p.fn() }

func TestFrameThroughRunner(t *testing.T) {
	log := zaptest.NewLogger(t)
	dir := t.TempDir()
	script := "return { update = function(self, dt) self.rotation.z = self.rotation.z + 90 end }"
	if err := os.WriteFile(filepath.Join(dir, "turn.lua"), []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}

	device := headless.NewDevice(log)
	defer device.Release()
	ctx, err := device.NewRenderContext(rhi.RenderContextDescriptor{
		SwapChain: rhi.SwapChainDescriptor{Surface: &surface{w: 64, h: 64}},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Release()

	s := scene.New("systems", log)
	defer s.Close()
	cam := s.CreateNamedEntity("camera")
	ecs.Add(cam, scene.CameraComponent{Camera: scene.NewPerspectiveCamera(60, 0.1, 100), Primary: true})
	quad := s.CreateNamedEntity("quad")
	mesh, err := scene.NewMesh(device, "quad")
	if err != nil {
		t.Fatal(err)
	}
	ecs.Add(quad, mesh)
	pso, err := scene.NewObjectPipeline(device)
	if err != nil {
		t.Fatal(err)
	}
	ecs.Add(quad, scene.MaterialComponent{Pipeline: pso})
	ecs.Add(quad, scene.ScriptComponent{Path: "turn.lua"})
	doomed := s.CreateNamedEntity("doomed")

	engine, err := scripting.NewEngine(dir, log)
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()
	engine.Bind(s)

	loaded := 0
	event.Subscribe(s.Events(), func(event.SceneLoaded) bool {
		loaded++
		return false
	})
	event.Emit(s.Events(), event.SceneLoaded{Name: "systems"})

	render := NewRenderSystem(ctx, scene.NewSceneRenderer(rhi.ColorBlue, log), s, log)
	runner := coresys.NewRunner()
	runner.Register(NewCleanupSystem(s, log))
	runner.Register(render)
	runner.Register(NewScriptSystem(engine))
	runner.Register(NewEventSystem(s.Events()))

	s.MarkForDestruction(doomed)
	runner.Tick(16 * time.Millisecond)

	if loaded != 1 {
		t.Errorf("emitted event should be delivered in the input phase, got %d", loaded)
	}
	tr, _ := ecs.Get[scene.TransformComponent](quad)
	if tr.Rotation[2] != 90 {
		t.Errorf("script should run before render, rotation %v", tr.Rotation[2])
	}
	if render.Frames() != 1 || render.FailedFrames() != 0 || render.LastStats().Draws != 1 {
		t.Errorf("frames=%d failed=%d stats=%+v", render.Frames(), render.FailedFrames(), render.LastStats())
	}
	if f := ctx.LastFrame(); !f.Presented || f.DrawCount() != 1 {
		t.Errorf("unexpected frame %+v", f)
	}
	if doomed.Valid() {
		t.Error("cleanup phase should destroy marked entities")
	}
}

func TestRenderSystemSkipsPresentOnZeroSurface(t *testing.T) {
	log := zaptest.NewLogger(t)
	device := headless.NewDevice(log)
	defer device.Release()
	ctx, err := device.NewRenderContext(rhi.RenderContextDescriptor{
		SwapChain: rhi.SwapChainDescriptor{Surface: &surface{w: 0, h: 0}},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Release()
	s := scene.New("empty", log)
	defer s.Close()

	render := NewRenderSystem(ctx, scene.NewSceneRenderer(rhi.ColorBlack, log), s, log)
	render.Update(0)
	if render.FailedFrames() != 0 {
		t.Error("a skipped render is not a protocol error")
	}
	if ctx.LastFrame().Presented {
		t.Error("nothing should be presented without a target")
	}
}

func TestInputSystemStartsFrameBeforeUpdate(t *testing.T) {
	w := platform.NewHeadlessWindow(platform.WindowDescriptor{Title: "t", Width: 8, Height: 8})
	state := input.New()
	state.Subscribe(w.Events())

	var seen []float32
	r := coresys.NewRunner()
	r.Register(&phaseFunc{phase: coresys.PhaseUpdate, fn: func() { seen = append(seen, state.MouseDelta().X()) }})
	r.Register(NewInputSystem(state))

	w.MoveMouse(4, 0)
	w.PollEvents()
	r.Tick(time.Millisecond)
	r.Tick(time.Millisecond)
	if len(seen) != 2 || seen[0] != 4 || seen[1] != 0 {
		t.Errorf("update phase saw deltas %v, want [4 0]", seen)
	}
}
