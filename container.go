// container.go: Host service container boundary
//
// The orchestrator consumes a key-value service locator owned by the host
// application and passes it into every lifecycle and event hook so plugins
// can resolve collaborators. The orchestrator never inspects container
// internals beyond this surface.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package golifecycle

import (
	"sort"
	"sync"
)

// ServiceContainer is the consumed capability contract for the host's
// dependency injection container.
//
// Get and Has are the minimum surface. RegisterSingleton, Remove, and
// RegisteredServices support the legacy install-hook flavor where plugins
// still register services directly during install; the orchestrator diffs
// RegisteredServices around OnInstall to derive each plugin's service
// footprint.
type ServiceContainer interface {
	// Get resolves a service by key. The second return reports presence.
	Get(key string) (any, bool)

	// Has reports whether a service is registered under key.
	Has(key string) bool

	// RegisterSingleton registers a lazily constructed singleton service.
	RegisterSingleton(key string, factory func() any)

	// Remove drops a registered service.
	Remove(key string)

	// RegisteredServices returns the keys of all registered services.
	RegisteredServices() []string
}

// MemoryContainer is an in-memory ServiceContainer implementation.
//
// It is suitable for hosts without an existing DI container and for tests.
// Singleton factories run at most once, on first Get.
type MemoryContainer struct {
	mu        sync.RWMutex
	factories map[string]func() any
	instances map[string]any
}

// NewMemoryContainer creates an empty in-memory service container.
func NewMemoryContainer() *MemoryContainer {
	return &MemoryContainer{
		factories: make(map[string]func() any),
		instances: make(map[string]any),
	}
}

// Get implements ServiceContainer. The singleton instance is constructed
// on first resolution and cached.
func (c *MemoryContainer) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if inst, ok := c.instances[key]; ok {
		return inst, true
	}
	factory, ok := c.factories[key]
	if !ok {
		return nil, false
	}
	inst := factory()
	c.instances[key] = inst
	return inst, true
}

// Has implements ServiceContainer.
func (c *MemoryContainer) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.factories[key]
	if !ok {
		_, ok = c.instances[key]
	}
	return ok
}

// RegisterSingleton implements ServiceContainer. Registering an existing
// key replaces the factory and discards any cached instance.
func (c *MemoryContainer) RegisterSingleton(key string, factory func() any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.factories[key] = factory
	delete(c.instances, key)
}

// Remove implements ServiceContainer.
func (c *MemoryContainer) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.factories, key)
	delete(c.instances, key)
}

// RegisteredServices implements ServiceContainer. Keys are returned
// sorted for deterministic footprint diffing.
func (c *MemoryContainer) RegisteredServices() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{}, len(c.factories)+len(c.instances))
	for k := range c.factories {
		seen[k] = struct{}{}
	}
	for k := range c.instances {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
