package plugin

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	goplugin "plugin"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

var (
	ErrPluginNotFound = errors.New("plugin not found")
	ErrNilPlugin      = errors.New("plugin factory returned nil")
	ErrLibraryNotOpen = errors.New("library is not open")
	ErrBadSymbol      = errors.New("plugin symbol has wrong type")
)

// Manager owns the loaded plugins. It is not safe for concurrent use.
type Manager struct {
	searchPath string
	plugins    []Plugin
	fold       cases.Caser
	log        *zap.Logger
}

// NewManager returns a manager that opens shared objects from searchPath.
func NewManager(searchPath string, log *zap.Logger) *Manager {
	return &Manager{
		searchPath: searchPath,
		fold:       cases.Fold(),
		log:        log,
	}
}

// LoadPlugins replaces the loaded set with one plugin per name. Registered
// plugins take precedence; otherwise <searchPath>/<name>.so is opened and its
// CreatePlugin symbol called. Loading stops at the first failure.
func (m *Manager) LoadPlugins(names []string) error {
	m.plugins = make([]Plugin, 0, len(names))
	for _, name := range names {
		p, err := m.load(name)
		if err != nil {
			return fmt.Errorf("load plugin %s: %w", name, err)
		}
		m.plugins = append(m.plugins, p)
		m.log.Info("plugin loaded",
			zap.String("library", name),
			zap.String("name", p.Name()),
			zap.String("version", p.Version()),
		)
	}
	return nil
}

func (m *Manager) load(name string) (Plugin, error) {
	lib := &Library{name: name}
	create, ok := lookupFactory(name)
	if !ok {
		path := filepath.Join(m.searchPath, name+".so")
		so, err := goplugin.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		lib.path = path
		lib.so = so
		sym, err := lib.Lookup(CreateSymbol)
		if err != nil {
			return nil, err
		}
		switch fn := sym.(type) {
		case func(*Library) Plugin:
			create = fn
		case *CreateFunc:
			create = *fn
		default:
			return nil, fmt.Errorf("%w: %s is %T", ErrBadSymbol, CreateSymbol, sym)
		}
	}
	p := create(lib)
	if p == nil {
		return nil, ErrNilPlugin
	}
	return p, nil
}

// GetPlugin finds a loaded plugin by library or plugin name, ignoring case.
func (m *Manager) GetPlugin(name string) (Plugin, error) {
	key := m.fold.String(name)
	for _, p := range m.plugins {
		if m.fold.String(p.LibraryName()) == key || m.fold.String(p.Name()) == key {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
}

// Plugins returns the loaded plugins in load order.
func (m *Manager) Plugins() []Plugin { return m.plugins }

// InitializePlugins initializes every loaded plugin in load order.
func (m *Manager) InitializePlugins() error {
	for _, p := range m.plugins {
		if err := p.Initialize(); err != nil {
			return fmt.Errorf("initialize plugin %s: %w", p.Name(), err)
		}
	}
	return nil
}

// Close shuts down plugins implementing io.Closer in reverse load order.
// Shared objects stay mapped; the Go runtime cannot unload them.
func (m *Manager) Close() error {
	var errs []error
	for i := len(m.plugins) - 1; i >= 0; i-- {
		if c, ok := m.plugins[i].(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close plugin %s: %w", m.plugins[i].Name(), err))
			}
		}
	}
	m.plugins = nil
	return errors.Join(errs...)
}
