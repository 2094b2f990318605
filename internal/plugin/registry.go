package plugin

import (
	"slices"
	"sync"
)

// CreateFunc builds a plugin for lib. Shared objects export one under the
// symbol name CreateSymbol.
type CreateFunc func(lib *Library) Plugin

// CreateSymbol is the symbol looked up in plugin shared objects.
const CreateSymbol = "CreatePlugin"

var (
	registryMu sync.RWMutex
	factories  = make(map[string]CreateFunc)
)

// Register makes a compiled-in plugin available under name. It is typically
// called from an init function; registering a name twice replaces the factory.
func Register(name string, create CreateFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = create
}

// Unregister removes name from the registry.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Available returns the registered plugin names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func lookupFactory(name string) (CreateFunc, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := factories[name]
	return f, ok
}
