package scripting

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap/zaptest"

	"github.com/qurb/engine/internal/core/ecs"
	"github.com/qurb/engine/internal/input"
	"github.com/qurb/engine/internal/platform"
	"github.com/qurb/engine/internal/scene"
)

const spinScript = `
local M = {}

function M.start(self)
    self.ticks = 0
    calls[#calls + 1] = "start:" .. self.name
end

function M.update(self, dt)
    self.ticks = self.ticks + 1
    self.rotation.z = self.rotation.z + dt * 50
    self.position.x = helper_offset()
    if self.ticks == 3 then
        self.destroy_entity()
    end
end

function M.destroy(self)
    calls[#calls + 1] = "destroy:" .. self.name .. ":" .. self.ticks
end

return M
`

func writeScripts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newEngine(t *testing.T, files map[string]string) (*Engine, *scene.Scene) {
	t.Helper()
	files["lib/helpers.lua"] = "calls = {}\nfunction helper_offset() return 7 end\n"
	e, err := NewEngine(writeScripts(t, files), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	s := scene.New("scripted", zaptest.NewLogger(t))
	e.Bind(s)
	t.Cleanup(func() {
		e.Close()
		s.Close()
	})
	return e, s
}

func calls(e *Engine) []string {
	tbl, ok := e.vm.GetGlobal("calls").(*lua.LTable)
	if !ok {
		return nil
	}
	var out []string
	for i := 1; i <= tbl.Len(); i++ {
		out = append(out, tbl.RawGetInt(i).String())
	}
	return out
}

func TestScriptLifecycle(t *testing.T) {
	e, s := newEngine(t, map[string]string{"spin.lua": spinScript})
	ent := s.CreateNamedEntity("quad")
	ecs.Add(ent, scene.ScriptComponent{Path: "spin.lua"})

	e.Update(100 * time.Millisecond)
	if e.Instances() != 1 {
		t.Fatalf("expected one instance, got %d", e.Instances())
	}
	tr, _ := ecs.Get[scene.TransformComponent](ent)
	if !mgl32.FloatEqualThreshold(tr.Rotation[2], 5, 1e-4) || tr.Position[0] != 7 {
		t.Errorf("transform not written back: %+v", tr)
	}

	e.Update(100 * time.Millisecond)
	e.Update(100 * time.Millisecond)
	if !ent.Valid() || s.PendingDestruction() != 1 {
		t.Fatal("destroy_entity should defer destruction")
	}
	if !mgl32.FloatEqualThreshold(tr.Rotation[2], 15, 1e-4) {
		t.Errorf("expected rotation 15, got %v", tr.Rotation[2])
	}

	s.FlushDestroyQueue()
	if e.Instances() != 0 {
		t.Error("instance should stop with its entity")
	}
	got := strings.Join(calls(e), ",")
	if got != "start:quad,destroy:quad:3" {
		t.Errorf("unexpected hook calls %q", got)
	}
}

func TestModuleIsSharedBetweenEntities(t *testing.T) {
	e, s := newEngine(t, map[string]string{"spin.lua": spinScript})
	for _, name := range []string{"a", "b"} {
		ent := s.CreateNamedEntity(name)
		ecs.Add(ent, scene.ScriptComponent{Path: "spin.lua"})
	}
	e.Update(time.Second / 60)
	if len(e.modules) != 1 || e.Instances() != 2 {
		t.Errorf("modules=%d instances=%d", len(e.modules), e.Instances())
	}
	if got := strings.Join(calls(e), ","); got != "start:a,start:b" {
		t.Errorf("unexpected start order %q", got)
	}
}

func TestRemovingScriptComponentStopsInstance(t *testing.T) {
	e, s := newEngine(t, map[string]string{"spin.lua": spinScript})
	ent := s.CreateNamedEntity("q")
	ecs.Add(ent, scene.ScriptComponent{Path: "spin.lua"})
	e.Update(0)

	ecs.Remove[scene.ScriptComponent](ent)
	e.Update(0)
	if e.Instances() != 0 {
		t.Error("instance should stop when its component is removed")
	}
	if got := calls(e); len(got) != 2 || got[1] != "destroy:q:1" {
		t.Errorf("unexpected calls %v", got)
	}
}

func TestBrokenScripts(t *testing.T) {
	e, s := newEngine(t, map[string]string{
		"syntax.lua":  "return {",
		"number.lua":  "return 42",
		"runtime.lua": "return { update = function(self) error('boom') end }",
	})
	for _, path := range []string{"syntax.lua", "number.lua", "runtime.lua", "absent.lua"} {
		ent := s.CreateNamedEntity(path)
		ecs.Add(ent, scene.ScriptComponent{Path: path})
	}

	e.Update(0)
	e.Update(0)
	for _, inst := range e.instances {
		if !inst.failed {
			t.Errorf("%s should be disabled", inst.path)
		}
	}
	if len(e.modules) != 1 {
		t.Errorf("only runtime.lua loads as a module, got %d", len(e.modules))
	}
}

func TestUnbindCallsDestroy(t *testing.T) {
	e, s := newEngine(t, map[string]string{"spin.lua": spinScript})
	ent := s.CreateNamedEntity("q")
	ecs.Add(ent, scene.ScriptComponent{Path: "spin.lua"})
	e.Update(0)

	e.Unbind()
	if e.Instances() != 0 {
		t.Error("unbind should stop every instance")
	}
	if got := calls(e); len(got) != 2 || got[1] != "destroy:q:1" {
		t.Errorf("unexpected calls %v", got)
	}
	e.Update(0)
	if e.Instances() != 0 {
		t.Error("an unbound engine does nothing")
	}
}

func TestAPIVersionGlobal(t *testing.T) {
	e, _ := newEngine(t, map[string]string{})
	if v := e.vm.GetGlobal("API_VERSION").String(); v != "1" {
		t.Errorf("unexpected API_VERSION %s", v)
	}
}

const controlScript = `
return {
    update = function(self, dt)
        if is_key_pressed("w") then
            self.position.y = self.position.y + 1
        end
        local dx, dy = mouse_delta()
        self.position.x = self.position.x + dx
        local mx, my = mouse_position()
        self.scale.z = my
        if is_mouse_button_pressed("left") then
            self.rotation.z = 90
        end
    end,
}
`

func TestInputBindings(t *testing.T) {
	e, s := newEngine(t, map[string]string{
		"control.lua": controlScript,
		"typo.lua":    `return { update = function(self) is_key_pressed("Hyper") end }`,
	})
	in := input.New()
	e.BindInput(in)

	ent := s.CreateNamedEntity("player")
	ecs.Add(ent, scene.ScriptComponent{Path: "control.lua"})
	typo := s.CreateNamedEntity("typo")
	ecs.Add(typo, scene.ScriptComponent{Path: "typo.lua"})

	in.SetKey(platform.KeyW, true)
	in.SetMouseButton(platform.MouseLeft, true)
	in.SetMousePosition(mgl32.Vec2{3, 4})
	in.Update()
	e.Update(0)

	tr, _ := ecs.Get[scene.TransformComponent](ent)
	if tr.Position[1] != 1 || tr.Position[0] != 3 || tr.Scale[2] != 4 || tr.Rotation[2] != 90 {
		t.Errorf("script did not see the input state: %+v", tr)
	}

	in.SetKey(platform.KeyW, false)
	in.Update()
	e.Update(0)
	if tr.Position[1] != 1 || tr.Position[0] != 3 {
		t.Errorf("released key and still mouse must not move the entity: %+v", tr)
	}
	if !e.instances[typo.ID()].failed {
		t.Error("an unknown key name should fail the script")
	}
}
