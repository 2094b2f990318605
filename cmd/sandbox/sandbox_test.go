package main

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/qurb/engine/internal/config"
	"github.com/qurb/engine/internal/core/ecs"
	"github.com/qurb/engine/internal/engine"
	"github.com/qurb/engine/internal/platform"
	"github.com/qurb/engine/internal/scene"
)

func loadShippedConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir("../..")
	cfg, err := config.Load("config/engine.toml")
	if err != nil {
		t.Fatalf("shipped config: %v", err)
	}
	cfg.Engine.TargetFPS = 0
	cfg.Engine.MaxFrames = 10
	return cfg
}

func TestShippedSceneRuns(t *testing.T) {
	cfg := loadShippedConfig(t)
	log := zaptest.NewLogger(t)
	eng, err := engine.New(cfg, newSandbox(cfg.Engine.Name, log), log)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	defer eng.Shutdown()

	if eng.Scene().Len() != 5 {
		t.Errorf("expected the shipped scene, got %d entities", eng.Scene().Len())
	}
	if err := eng.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if eng.Scripts().Instances() != 2 {
		t.Errorf("expected spin and pulse scripts, got %d", eng.Scripts().Instances())
	}
	spinner, ok := eng.Scene().FindByName("Spinner")
	if !ok {
		t.Fatal("Spinner missing")
	}
	if tr, _ := ecs.Get[scene.TransformComponent](spinner); tr.Rotation[2] == 0 {
		t.Error("spin.lua should rotate the spinner")
	}
	_, stats, _ := eng.RenderStats(eng.ActiveWindow())
	if stats.Draws != 3 {
		t.Errorf("expected three drawables, got %+v", stats)
	}
}

func TestDefaultSceneWithoutFile(t *testing.T) {
	cfg := loadShippedConfig(t)
	cfg.Scene.Path = ""
	cfg.Scripting.Enabled = false
	log := zaptest.NewLogger(t)
	app := newSandbox("bare", log)
	eng, err := engine.New(cfg, app, log)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	defer eng.Shutdown()

	if eng.Scene().Len() != 4 {
		t.Fatalf("expected camera and three quads, got %d", eng.Scene().Len())
	}
	if err := eng.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	quad, _ := eng.Scene().FindByName("quad-1")
	if tr, _ := ecs.Get[scene.TransformComponent](quad); tr.Rotation[2] <= 0 {
		t.Errorf("sandbox update should spin quads, rotation %v", tr.Rotation[2])
	}
	cam, _ := eng.Scene().FindByName("camera")
	if tr, _ := ecs.Get[scene.TransformComponent](cam); tr.Rotation != (scene.NewTransform().Rotation) {
		t.Error("the camera must not spin")
	}
}

func TestSpaceHoldsTheSpin(t *testing.T) {
	cfg := loadShippedConfig(t)
	cfg.Scene.Path = ""
	cfg.Scripting.Enabled = false
	log := zaptest.NewLogger(t)
	eng, err := engine.New(cfg, newSandbox("paused", log), log)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	defer eng.Shutdown()

	eng.ActiveWindow().(*platform.HeadlessWindow).PressKey(platform.KeySpace)
	if err := eng.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	quad, _ := eng.Scene().FindByName("quad-0")
	if tr, _ := ecs.Get[scene.TransformComponent](quad); tr.Rotation[2] != 0 {
		t.Errorf("quads must hold still while space is down, rotation %v", tr.Rotation[2])
	}
}
