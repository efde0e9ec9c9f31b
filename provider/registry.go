package provider

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

var (
	mu       sync.RWMutex
	registry = make(map[string]Factory)
)

// Register installs a factory under name, replacing any factory already
// registered there. Provider packages call this from init, so a blank
// import is enough to make a provider available.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = factory
}

// Get builds a provider from its registered factory. The factory runs
// on every call, so configuration problems surface at call time.
func Get(name string) (Provider, error) {
	mu.RLock()
	factory, ok := registry[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider: %q (available: %s)", name, strings.Join(Available(), ", "))
	}
	return factory()
}

// Available lists the registered provider names, sorted.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered reports whether a factory is registered under name.
func IsRegistered(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := registry[name]
	return ok
}
