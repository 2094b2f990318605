package plugin

import (
	"errors"
	"slices"
	"testing"

	"go.uber.org/zap"
)

type testPlugin struct {
	Base
	name    string
	initErr error
	inits   *[]string
	closes  *[]string
}

func (p *testPlugin) Name() string        { return p.name }
func (p *testPlugin) Description() string { return "test plugin" }
func (p *testPlugin) Version() string     { return "1.0.0" }

func (p *testPlugin) Initialize() error {
	if p.inits != nil {
		*p.inits = append(*p.inits, p.name)
	}
	return p.initErr
}

func (p *testPlugin) Close() error {
	if p.closes != nil {
		*p.closes = append(*p.closes, p.name)
	}
	return nil
}

func register(t *testing.T, lib string, create CreateFunc) {
	t.Helper()
	Register(lib, create)
	t.Cleanup(func() { Unregister(lib) })
}

func TestLoadRegisteredPlugin(t *testing.T) {
	register(t, "TestLib", func(lib *Library) Plugin {
		return &testPlugin{Base: NewBase(lib), name: "Test"}
	})

	m := NewManager(t.TempDir(), zap.NewNop())
	if err := m.LoadPlugins([]string{"TestLib"}); err != nil {
		t.Fatalf("LoadPlugins: %v", err)
	}

	for _, name := range []string{"TestLib", "Test", "testlib", "TEST"} {
		p, err := m.GetPlugin(name)
		if err != nil {
			t.Errorf("GetPlugin(%q): %v", name, err)
			continue
		}
		if p.LibraryName() != "TestLib" {
			t.Errorf("expected library TestLib, got %q", p.LibraryName())
		}
	}
}

func TestGetPluginNotFound(t *testing.T) {
	m := NewManager(t.TempDir(), zap.NewNop())
	if _, err := m.GetPlugin("Missing"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestLoadNilPlugin(t *testing.T) {
	register(t, "NilLib", func(*Library) Plugin { return nil })

	m := NewManager(t.TempDir(), zap.NewNop())
	if err := m.LoadPlugins([]string{"NilLib"}); !errors.Is(err, ErrNilPlugin) {
		t.Errorf("expected ErrNilPlugin, got %v", err)
	}
}

func TestLoadMissingSharedObject(t *testing.T) {
	m := NewManager(t.TempDir(), zap.NewNop())
	if err := m.LoadPlugins([]string{"DoesNotExist"}); err == nil {
		t.Error("expected error for missing shared object")
	}
}

func TestInitializeAndCloseOrder(t *testing.T) {
	var inits, closes []string
	for _, name := range []string{"A", "B"} {
		register(t, name, func(lib *Library) Plugin {
			return &testPlugin{Base: NewBase(lib), name: name, inits: &inits, closes: &closes}
		})
	}

	m := NewManager(t.TempDir(), zap.NewNop())
	if err := m.LoadPlugins([]string{"A", "B"}); err != nil {
		t.Fatal(err)
	}
	if err := m.InitializePlugins(); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(inits, []string{"A", "B"}) {
		t.Errorf("expected init order [A B], got %v", inits)
	}
	if !slices.Equal(closes, []string{"B", "A"}) {
		t.Errorf("expected close order [B A], got %v", closes)
	}
	if len(m.Plugins()) != 0 {
		t.Error("Close should drop loaded plugins")
	}
}

func TestInitializeError(t *testing.T) {
	boom := errors.New("boom")
	register(t, "Broken", func(lib *Library) Plugin {
		return &testPlugin{Base: NewBase(lib), name: "Broken", initErr: boom}
	})

	m := NewManager(t.TempDir(), zap.NewNop())
	if err := m.LoadPlugins([]string{"Broken"}); err != nil {
		t.Fatal(err)
	}
	if err := m.InitializePlugins(); !errors.Is(err, boom) {
		t.Errorf("expected wrapped init error, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	register(t, "zeta", func(*Library) Plugin { return nil })
	register(t, "alpha", func(*Library) Plugin { return nil })

	if !IsRegistered("alpha") || IsRegistered("beta") {
		t.Error("unexpected registration state")
	}
	names := Available()
	ia, iz := slices.Index(names, "alpha"), slices.Index(names, "zeta")
	if ia < 0 || iz < 0 || ia > iz {
		t.Errorf("expected sorted names containing alpha and zeta, got %v", names)
	}
}

func TestRegisteredLibraryIsNotOpen(t *testing.T) {
	lib := &Library{name: "x"}
	if lib.IsOpen() || lib.Path() != "" {
		t.Error("registered library should not be backed by a shared object")
	}
	if _, err := lib.Lookup(CreateSymbol); !errors.Is(err, ErrLibraryNotOpen) {
		t.Errorf("expected ErrLibraryNotOpen, got %v", err)
	}
}
