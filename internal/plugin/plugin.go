// Package plugin loads engine extensions, either compiled into the binary and
// registered by name, or opened from Go plugin shared objects.
package plugin

import (
	goplugin "plugin"
)

// Plugin is an engine extension.
type Plugin interface {
	Name() string
	Description() string
	Version() string
	// LibraryName is the name the plugin was loaded under.
	LibraryName() string
	Initialize() error
}

// Library is the module a plugin came from. For registered plugins it holds
// only the name.
type Library struct {
	name string
	path string
	so   *goplugin.Plugin
}

func (l *Library) Name() string { return l.name }

// Path is the shared object path, or "" for registered plugins.
func (l *Library) Path() string { return l.path }

// IsOpen reports whether the library is backed by a shared object.
func (l *Library) IsOpen() bool { return l.so != nil }

// Lookup resolves an exported symbol of a shared object library.
func (l *Library) Lookup(symbol string) (goplugin.Symbol, error) {
	if l.so == nil {
		return nil, ErrLibraryNotOpen
	}
	return l.so.Lookup(symbol)
}

// Base provides LibraryName and a no-op Initialize for plugin implementations.
type Base struct {
	Library *Library
}

func NewBase(lib *Library) Base { return Base{Library: lib} }

func (b Base) LibraryName() string {
	if b.Library == nil {
		return ""
	}
	return b.Library.name
}

func (Base) Initialize() error { return nil }
