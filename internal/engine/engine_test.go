package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap/zaptest"

	"github.com/qurb/engine/internal/config"
	"github.com/qurb/engine/internal/core/ecs"
	"github.com/qurb/engine/internal/core/event"
	"github.com/qurb/engine/internal/platform"
	"github.com/qurb/engine/internal/plugin"
	"github.com/qurb/engine/internal/rhi/headless"
	"github.com/qurb/engine/internal/scene"
)

type testApp struct {
	t         *testing.T
	engine    *Engine
	initErr   error
	updates   int
	elapsed   time.Duration
	shutdowns int
	quad      ecs.Entity
}

func (a *testApp) Name() string { return "test app" }

func (a *testApp) Initialize(e *Engine) error {
	if a.initErr != nil {
		return a.initErr
	}
	a.engine = e
	s := e.Scene()
	if s.Len() > 0 {
		return nil
	}
	cam := s.CreateNamedEntity("camera")
	ecs.Add(cam, scene.CameraComponent{Camera: scene.NewPerspectiveCamera(60, 0.1, 100), Primary: true})

	a.quad = s.CreateNamedEntity("quad")
	mesh, err := scene.NewMesh(e.Renderer().Device(), "quad")
	if err != nil {
		return err
	}
	ecs.Add(a.quad, mesh)
	pso, err := scene.NewObjectPipeline(e.Renderer().Device())
	if err != nil {
		return err
	}
	tex, err := e.Renderer().TextureManager().Texture("default")
	if err != nil {
		return err
	}
	ecs.Add(a.quad, scene.MaterialComponent{Pipeline: pso, Texture: tex})
	return nil
}

func (a *testApp) Update(dt time.Duration) {
	a.updates++
	a.elapsed += dt
}

func (a *testApp) Shutdown() {
	a.shutdowns++
	if dev := a.engine.Renderer().Device().(*headless.Device); dev.Destroyed() {
		a.t.Error("application must shut down before the device")
	}
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Engine.TargetFPS = 0
	cfg.Engine.MaxFrames = 0
	cfg.Window.Width, cfg.Window.Height = 160, 90
	cfg.Plugins.SearchPath = t.TempDir()
	cfg.Assets.TextureDir = t.TempDir()
	cfg.Scripting.Enabled = false
	return cfg
}

type windows struct {
	opened []*platform.HeadlessWindow
}

func (w *windows) factory(desc platform.WindowDescriptor) platform.Window {
	hw := platform.NewHeadlessWindow(desc)
	w.opened = append(w.opened, hw)
	return hw
}

func newEngine(t *testing.T, cfg *config.Config, app *testApp) (*Engine, *windows) {
	t.Helper()
	app.t = t
	ws := &windows{}
	e, err := New(cfg, app, zaptest.NewLogger(t), WithWindowFactory(ws.factory))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, ws
}

func TestRunStopsAtMaxFrames(t *testing.T) {
	cfg := testConfig(t)
	cfg.Engine.MaxFrames = 3
	app := &testApp{}
	e, ws := newEngine(t, cfg, app)
	dev := e.Renderer().Device().(*headless.Device)

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if e.Frames() != 3 || app.updates != 3 {
		t.Errorf("frames=%d updates=%d", e.Frames(), app.updates)
	}
	frames, stats, ok := e.RenderStats(ws.opened[0])
	if !ok || frames != 3 || stats.Draws != 1 || stats.Vertices != 6 {
		t.Errorf("frames=%d stats=%+v", frames, stats)
	}
	ctx, _ := e.RenderContext(ws.opened[0])
	if f := ctx.(*headless.RenderContext).LastFrame(); !f.Presented || f.Passes[0].Target == "" {
		t.Errorf("unexpected last frame %+v", f)
	}

	e.Shutdown()
	e.Shutdown()
	if app.shutdowns != 1 {
		t.Errorf("application shut down %d times", app.shutdowns)
	}
	if !dev.Destroyed() {
		t.Errorf("device still alive, live objects %v", dev.LiveObjects())
	}
	if err := e.Run(context.Background()); !errors.Is(err, ErrShutdown) {
		t.Errorf("Run after Shutdown: %v", err)
	}
}

func TestClosingLastWindowStopsLoop(t *testing.T) {
	app := &testApp{}
	e, ws := newEngine(t, testConfig(t), app)
	defer e.Shutdown()

	ws.opened[0].CloseAfter(2)
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e.Frames() != 2 {
		t.Errorf("the frame of the close request still renders, got %d frames", e.Frames())
	}
	if e.ActiveWindow() != nil || len(e.Windows()) != 0 {
		t.Error("closed window should be destroyed")
	}
	if _, ok := e.RenderContext(ws.opened[0]); ok {
		t.Error("render context should go with its window")
	}
}

func TestMinimizedWindowSuspends(t *testing.T) {
	app := &testApp{}
	e, ws := newEngine(t, testConfig(t), app)
	defer e.Shutdown()
	hw := ws.opened[0]

	hw.Resize(0, 0)
	hw.PollEvents()
	if !e.Suspended() {
		t.Fatal("zero-area window should suspend the engine")
	}
	hw.CloseAfter(3)
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e.Frames() != 0 || app.updates != 0 {
		t.Errorf("suspended engine ran %d frames", e.Frames())
	}
	if hw.Polls() != 4 {
		t.Errorf("events must still be polled while suspended, polls=%d", hw.Polls())
	}
}

func TestMinimizedRunStopsAtMaxFrames(t *testing.T) {
	cfg := testConfig(t)
	cfg.Engine.MaxFrames = 3
	app := &testApp{}
	e, ws := newEngine(t, cfg, app)
	defer e.Shutdown()
	hw := ws.opened[0]

	hw.Resize(0, 0)
	hw.PollEvents()
	start := time.Now()
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e.Frames() != 0 || hw.Polls() != 4 {
		t.Errorf("frames=%d polls=%d", e.Frames(), hw.Polls())
	}
	if elapsed := time.Since(start); elapsed < 3*suspendedWait {
		t.Errorf("an unthrottled suspended loop must wait between polls, took %v", elapsed)
	}
}

func TestResizeUpdatesCameraAndResumes(t *testing.T) {
	app := &testApp{}
	e, ws := newEngine(t, testConfig(t), app)
	defer e.Shutdown()
	hw := ws.opened[0]

	_, cam, ok := e.Scene().PrimaryCamera()
	if !ok || cam.Camera.Aspect() != 160.0/90.0 {
		t.Fatalf("camera should match the window, got %v", cam.Camera.Aspect())
	}
	hw.Resize(0, 90)
	hw.PollEvents()
	hw.Resize(100, 50)
	hw.PollEvents()
	if e.Suspended() {
		t.Error("engine should resume with a non-empty window")
	}
	if cam.Camera.Aspect() != 2 {
		t.Errorf("aspect %v, want 2", cam.Camera.Aspect())
	}
}

func TestCancelledContext(t *testing.T) {
	cfg := testConfig(t)
	cfg.Engine.TargetFPS = 500
	e, _ := newEngine(t, cfg, &testApp{})
	defer e.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if e.Frames() != 0 {
		t.Errorf("cancelled loop ran %d frames", e.Frames())
	}
}

func TestStartupFailures(t *testing.T) {
	boom := errors.New("boom")
	app := &testApp{initErr: boom, t: t}
	if _, err := New(testConfig(t), app, zaptest.NewLogger(t)); !errors.Is(err, boom) {
		t.Errorf("expected init error, got %v", err)
	}
	if app.shutdowns != 0 {
		t.Error("an application that failed to initialize is not shut down")
	}

	cfg := testConfig(t)
	cfg.Renderer.ClearColor = "mauve"
	if _, err := New(cfg, &testApp{t: t}, zaptest.NewLogger(t)); !errors.Is(err, ErrUnknownClearColor) {
		t.Errorf("expected ErrUnknownClearColor, got %v", err)
	}

	cfg = testConfig(t)
	cfg.Engine.TargetFPS = 2_000_000_000
	if _, err := New(cfg, &testApp{t: t}, zaptest.NewLogger(t)); err == nil || !strings.Contains(err.Error(), "target_fps") {
		t.Errorf("expected target_fps error, got %v", err)
	}

	cfg = testConfig(t)
	cfg.Renderer.Backend = "QurbMetalRHI"
	if _, err := New(cfg, &testApp{t: t}, zaptest.NewLogger(t)); !errors.Is(err, plugin.ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestSceneFileAndScripts(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"scene.yaml": `
name: from-file
entities:
  - name: camera
    position: [0, 0, -5]
    camera: {projection: perspective, fov: 60, near: 0.1, far: 100, primary: true}
  - name: spinner
    mesh: quad
    script: spin.lua
  - name: tri
    mesh: triangle
`,
		"scripts/spin.lua": "return { update = function(self, dt) self.rotation.z = self.rotation.z + 10 end }",
	}
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := testConfig(t)
	cfg.Engine.MaxFrames = 2
	cfg.Scene.Path = filepath.Join(dir, "scene.yaml")
	cfg.Scripting.Enabled = true
	cfg.Scripting.Dir = filepath.Join(dir, "scripts")
	e, ws := newEngine(t, cfg, &testApp{})
	defer e.Shutdown()

	if e.Scene().Len() != 3 {
		t.Fatalf("expected the scene file entities, got %d", e.Scene().Len())
	}
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	spinner, _ := e.Scene().FindByName("spinner")
	tr, _ := ecs.Get[scene.TransformComponent](spinner)
	if tr.Rotation[2] != 20 {
		t.Errorf("script should run once per frame, rotation %v", tr.Rotation[2])
	}
	if _, stats, _ := e.RenderStats(ws.opened[0]); stats.Draws != 2 || stats.Vertices != 9 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if e.Scripts().Instances() != 1 {
		t.Errorf("instances=%d", e.Scripts().Instances())
	}
}

func TestBackendResolvedByPluginName(t *testing.T) {
	cfg := testConfig(t)
	cfg.Renderer.Backend = "headless rhi"
	e, _ := newEngine(t, cfg, &testApp{})
	defer e.Shutdown()
	if e.Renderer().Backend() == nil {
		t.Fatal("backend should resolve by plugin name")
	}
}

func TestInputReachesScripts(t *testing.T) {
	dir := t.TempDir()
	script := `return { update = function(self, dt)
    if is_key_pressed("d") then self.position.x = self.position.x + 1 end
    local dx, dy = mouse_delta()
    self.position.y = self.position.y + dy
end }`
	if err := os.WriteFile(filepath.Join(dir, "walk.lua"), []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(t)
	cfg.Scripting.Enabled = true
	cfg.Scripting.Dir = dir
	app := &testApp{}
	e, ws := newEngine(t, cfg, app)
	hw := ws.opened[0]
	if _, err := ecs.Add(app.quad, scene.ScriptComponent{Path: "walk.lua"}); err != nil {
		t.Fatal(err)
	}

	hw.PressKey(platform.KeyD)
	hw.MoveMouse(0, 5)
	cfg.Engine.MaxFrames = 2
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	tr, _ := ecs.Get[scene.TransformComponent](app.quad)
	if tr.Position != (mgl32.Vec3{2, 5, 0}) {
		t.Errorf("held key moves every frame, motion only once: got %v", tr.Position)
	}
	if !e.Input().IsKeyPressed(platform.KeyD) || e.Input().MouseDelta() != (mgl32.Vec2{}) {
		t.Errorf("unexpected input state delta=%v", e.Input().MouseDelta())
	}

	e.Shutdown()
	if n := event.HandlerCount[platform.KeyEvent](hw.Events()); n != 0 {
		t.Errorf("input handlers left on a destroyed window: %d", n)
	}
}
