package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/qurb/engine/internal/core/ecs"
	"github.com/qurb/engine/internal/core/event"
	"github.com/qurb/engine/internal/input"
	"github.com/qurb/engine/internal/platform"
	"github.com/qurb/engine/internal/scene"
)

// APIVersion is exposed to scripts as the API_VERSION global.
const APIVersion = 1

var ErrNotModule = errors.New("scripting: script did not return a table")

// Engine wraps a single gopher-lua VM running entity behaviour scripts.
// Single-goroutine access only (game loop).
//
// A script file returns a module table with optional start(self),
// update(self, dt) and destroy(self) functions. self is a per-entity table
// holding id, name, position, rotation and scale; transform changes made by
// a hook are written back to the entity when the hook returns.
type Engine struct {
	vm  *lua.LState
	dir string
	log *zap.Logger

	modules   map[string]*lua.LTable
	instances map[ecs.EntityID]*instance
	order     []ecs.EntityID

	scene *scene.Scene
	sub   event.Subscription
}

type instance struct {
	entity ecs.Entity
	path   string
	module *lua.LTable
	self   *lua.LTable
	failed bool
}

// NewEngine creates a Lua VM and loads the shared helpers in <dir>/lib.
func NewEngine(dir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))

	e := &Engine{
		vm:        vm,
		dir:       dir,
		log:       log,
		modules:   make(map[string]*lua.LTable),
		instances: make(map[ecs.EntityID]*instance),
	}
	vm.SetGlobal("log", vm.NewFunction(e.luaLog))

	if err := e.loadDir(filepath.Join(dir, "lib")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load lib scripts: %w", err)
	}
	return e, nil
}

// loadDir runs all .lua files in a directory in the global environment.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Bind attaches the engine to s. Entities leaving s get their destroy hook
// called while their components are still readable.
func (e *Engine) Bind(s *scene.Scene) {
	e.Unbind()
	e.scene = s
	e.sub = event.Subscribe(s.Events(), func(ev event.EntityDestroyed) bool {
		if inst, ok := e.instances[ev.Entity]; ok {
			e.call(inst, "destroy")
			e.drop(ev.Entity)
		}
		return false
	})
}

// Unbind calls destroy on every running instance and detaches from the scene.
func (e *Engine) Unbind() {
	if e.scene == nil {
		return
	}
	for _, id := range append([]ecs.EntityID(nil), e.order...) {
		if inst, ok := e.instances[id]; ok && inst.entity.Valid() {
			e.call(inst, "destroy")
		}
		e.drop(id)
	}
	e.scene.Events().Unsubscribe(e.sub)
	e.scene = nil
}

// Instances is the number of running script instances.
func (e *Engine) Instances() int { return len(e.instances) }

// Update starts scripts for newly scripted entities, stops scripts whose
// component was removed, then calls update on every instance in start order.
func (e *Engine) Update(dt time.Duration) {
	if e.scene == nil {
		return
	}
	for _, ent := range e.scene.Entities() {
		sc, err := ecs.Get[scene.ScriptComponent](ent)
		if err != nil {
			continue
		}
		if inst, ok := e.instances[ent.ID()]; ok && inst.path == sc.Path {
			continue
		} else if ok {
			e.call(inst, "destroy")
			e.drop(ent.ID())
		}
		e.start(ent, sc.Path)
	}

	for _, id := range append([]ecs.EntityID(nil), e.order...) {
		inst, ok := e.instances[id]
		if !ok {
			continue
		}
		if !ecs.Has[scene.ScriptComponent](inst.entity) {
			e.call(inst, "destroy")
			e.drop(id)
			continue
		}
		e.call(inst, "update", lua.LNumber(dt.Seconds()))
	}
}

func (e *Engine) start(ent ecs.Entity, path string) {
	mod, err := e.module(path)
	if err != nil {
		e.log.Error("lua script load failed", zap.String("script", path), zap.Error(err))
		// Remember the failure so the load is not retried every frame.
		e.instances[ent.ID()] = &instance{entity: ent, path: path, failed: true}
		e.order = append(e.order, ent.ID())
		return
	}
	inst := &instance{entity: ent, path: path, module: mod, self: e.newSelf(ent)}
	e.instances[ent.ID()] = inst
	e.order = append(e.order, ent.ID())
	e.call(inst, "start")
}

func (e *Engine) drop(id ecs.EntityID) {
	delete(e.instances, id)
	for i, x := range e.order {
		if x == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// module loads and caches the table returned by a script file.
func (e *Engine) module(path string) (*lua.LTable, error) {
	if mod, ok := e.modules[path]; ok {
		return mod, nil
	}
	fn, err := e.vm.LoadFile(filepath.Join(e.dir, path))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	e.vm.Push(fn)
	if err := e.vm.PCall(0, 1, nil); err != nil {
		return nil, fmt.Errorf("run %s: %w", path, err)
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)

	mod, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotModule)
	}
	e.modules[path] = mod
	e.log.Debug("loaded lua module", zap.String("script", path))
	return mod, nil
}

// call runs hook on inst if the module defines it. A failing hook disables
// the instance.
func (e *Engine) call(inst *instance, hook string, args ...lua.LValue) {
	if inst.failed {
		return
	}
	fn, ok := inst.module.RawGetString(hook).(*lua.LFunction)
	if !ok {
		return
	}
	e.pushTransform(inst)
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, append([]lua.LValue{inst.self}, args...)...); err != nil {
		e.log.Error("lua hook error",
			zap.String("script", inst.path),
			zap.String("hook", hook),
			zap.Uint64("entity", uint64(inst.entity.ID())),
			zap.Error(err),
		)
		inst.failed = true
		return
	}
	e.pullTransform(inst)
}

func (e *Engine) newSelf(ent ecs.Entity) *lua.LTable {
	self := e.vm.NewTable()
	self.RawSetString("id", lua.LNumber(ent.ID()))
	self.RawSetString("name", lua.LString(scene.NameOf(ent)))
	self.RawSetString("destroy_entity", e.vm.NewFunction(func(L *lua.LState) int {
		if e.scene != nil {
			e.scene.MarkForDestruction(ent)
		}
		return 0
	}))
	return self
}

func (e *Engine) pushTransform(inst *instance) {
	tr, err := ecs.Get[scene.TransformComponent](inst.entity)
	if err != nil {
		return
	}
	inst.self.RawSetString("position", e.vecTable(tr.Position))
	inst.self.RawSetString("rotation", e.vecTable(tr.Rotation))
	inst.self.RawSetString("scale", e.vecTable(tr.Scale))
}

func (e *Engine) pullTransform(inst *instance) {
	tr, err := ecs.Get[scene.TransformComponent](inst.entity)
	if err != nil {
		return
	}
	tr.Position = readVec(inst.self.RawGetString("position"), tr.Position)
	tr.Rotation = readVec(inst.self.RawGetString("rotation"), tr.Rotation)
	tr.Scale = readVec(inst.self.RawGetString("scale"), tr.Scale)
}

func (e *Engine) vecTable(v mgl32.Vec3) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("x", lua.LNumber(v[0]))
	t.RawSetString("y", lua.LNumber(v[1]))
	t.RawSetString("z", lua.LNumber(v[2]))
	return t
}

// readVec reads {x, y, z} from v, keeping fallback components that are
// missing or not numbers.
func readVec(v lua.LValue, fallback mgl32.Vec3) mgl32.Vec3 {
	t, ok := v.(*lua.LTable)
	if !ok {
		return fallback
	}
	out := fallback
	for i, key := range [3]string{"x", "y", "z"} {
		if n, ok := t.RawGetString(key).(lua.LNumber); ok {
			out[i] = float32(n)
		}
	}
	return out
}

// BindInput exposes in to scripts as the globals is_key_pressed(name),
// is_mouse_button_pressed(name), mouse_position() and mouse_delta(). Key and
// button names are matched ignoring case; an unknown name raises an error.
func (e *Engine) BindInput(in *input.State) {
	e.vm.SetGlobal("is_key_pressed", e.vm.NewFunction(func(L *lua.LState) int {
		k, ok := platform.ParseKeyCode(L.CheckString(1))
		if !ok {
			L.ArgError(1, "unknown key "+L.CheckString(1))
			return 0
		}
		L.Push(lua.LBool(in.IsKeyPressed(k)))
		return 1
	}))
	e.vm.SetGlobal("is_mouse_button_pressed", e.vm.NewFunction(func(L *lua.LState) int {
		b, ok := platform.ParseMouseButton(L.CheckString(1))
		if !ok {
			L.ArgError(1, "unknown mouse button "+L.CheckString(1))
			return 0
		}
		L.Push(lua.LBool(in.IsMouseButtonPressed(b)))
		return 1
	}))
	e.vm.SetGlobal("mouse_position", e.vm.NewFunction(func(L *lua.LState) int {
		return pushVec2(L, in.MousePosition())
	}))
	e.vm.SetGlobal("mouse_delta", e.vm.NewFunction(func(L *lua.LState) int {
		return pushVec2(L, in.MouseDelta())
	}))
}

func pushVec2(L *lua.LState, v mgl32.Vec2) int {
	L.Push(lua.LNumber(v.X()))
	L.Push(lua.LNumber(v.Y()))
	return 2
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}

// Close calls destroy on running instances and shuts down the VM.
func (e *Engine) Close() {
	e.Unbind()
	e.vm.Close()
}
