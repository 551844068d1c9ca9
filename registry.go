// registry.go: Plugin registry state store
//
// Holds the parallel per-plugin maps (descriptor, state, runtime config,
// last error, service footprint) plus insertion and activation ordering.
// The store is not safe for concurrent use on its own; the orchestrator
// serializes access behind its own mutex so every mutation is atomic from
// the caller's perspective.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package golifecycle

// stateStore owns all per-plugin registry state.
type stateStore[Req, Resp any] struct {
	descriptors map[string]*Plugin[Req, Resp]
	states      map[string]PluginState
	configs     map[string]map[string]any // runtime overrides, full-shadow
	lastErrors  map[string]error
	footprints  map[string][]string // service keys owned per plugin

	// insertion preserves registration order for GetRegisteredPlugins
	// and bootstrap; activation preserves first-activation order for
	// fan-out and reverse-order shutdown.
	insertion  []string
	activation []string
}

func newStateStore[Req, Resp any]() *stateStore[Req, Resp] {
	return &stateStore[Req, Resp]{
		descriptors: make(map[string]*Plugin[Req, Resp]),
		states:      make(map[string]PluginState),
		configs:     make(map[string]map[string]any),
		lastErrors:  make(map[string]error),
		footprints:  make(map[string][]string),
	}
}

// insert records a fresh registration. The caller has already handled
// replace semantics; state always starts at registered.
func (s *stateStore[Req, Resp]) insert(p *Plugin[Req, Resp]) {
	name := p.Name
	if _, exists := s.descriptors[name]; !exists {
		s.insertion = append(s.insertion, name)
	}
	s.descriptors[name] = p
	s.states[name] = StateRegistered
}

// wipe clears every trace of the named plugin except its insertion slot,
// preparing a replace re-registration.
func (s *stateStore[Req, Resp]) wipe(name string) {
	delete(s.states, name)
	delete(s.configs, name)
	delete(s.lastErrors, name)
	delete(s.footprints, name)
	s.dropActivation(name)
}

// markActivated appends the plugin to the activation order on its first
// activation. Re-activation after deactivate keeps the original slot so
// ordering stays stable across active/inactive cycles.
func (s *stateStore[Req, Resp]) markActivated(name string) {
	for _, n := range s.activation {
		if n == name {
			return
		}
	}
	s.activation = append(s.activation, name)
}

func (s *stateStore[Req, Resp]) dropActivation(name string) {
	for i, n := range s.activation {
		if n == name {
			s.activation = append(s.activation[:i], s.activation[i+1:]...)
			return
		}
	}
}

// state returns the lifecycle state, StateUnknown for never-registered
// names.
func (s *stateStore[Req, Resp]) state(name string) PluginState {
	return s.states[name]
}

// effectiveConfig returns the runtime override when present, else the
// descriptor's default config. The override fully shadows the default;
// no deep merge happens on read.
func (s *stateStore[Req, Resp]) effectiveConfig(name string) map[string]any {
	if cfg, ok := s.configs[name]; ok {
		return cfg
	}
	if p, ok := s.descriptors[name]; ok {
		return p.Config
	}
	return nil
}

// registeredNames returns plugin names in insertion order.
func (s *stateStore[Req, Resp]) registeredNames() []string {
	names := make([]string, len(s.insertion))
	copy(names, s.insertion)
	return names
}

// activeNames returns the currently active plugins in activation order.
// Read fresh on every trigger call; never cached.
func (s *stateStore[Req, Resp]) activeNames() []string {
	names := make([]string, 0, len(s.activation))
	for _, n := range s.activation {
		if s.states[n] == StateActive {
			names = append(names, n)
		}
	}
	return names
}

// dependencyGraph derives the name -> dependency-list view consumed by
// the resolver. Plugins without declared dependencies map to an empty
// list.
func (s *stateStore[Req, Resp]) dependencyGraph() map[string][]string {
	graph := make(map[string][]string, len(s.descriptors))
	for name, p := range s.descriptors {
		deps := make([]string, len(p.Dependencies))
		copy(deps, p.Dependencies)
		graph[name] = deps
	}
	return graph
}

// closure collects the transitive dependency closure reachable from name
// via breadth-first traversal, including name itself, in discovery order.
// Edges to unregistered names are kept out of the result; the resolver
// diagnoses them.
func (s *stateStore[Req, Resp]) closure(name string) []string {
	seen := map[string]bool{name: true}
	queue := []string{name}
	order := []string{name}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		p, ok := s.descriptors[current]
		if !ok {
			continue
		}
		for _, dep := range p.Dependencies {
			if !seen[dep] {
				seen[dep] = true
				if _, registered := s.descriptors[dep]; registered {
					order = append(order, dep)
					queue = append(queue, dep)
				}
			}
		}
	}
	return order
}

// debugInfo builds the introspection snapshot for one plugin.
func (s *stateStore[Req, Resp]) debugInfo(name string) (DebugInfo, bool) {
	p, ok := s.descriptors[name]
	if !ok {
		return DebugInfo{}, false
	}
	deps := make([]string, len(p.Dependencies))
	copy(deps, p.Dependencies)
	services := make([]string, len(s.footprints[name]))
	copy(services, s.footprints[name])
	return DebugInfo{
		Name:         p.Name,
		Version:      p.Version,
		State:        s.states[name],
		Dependencies: deps,
		Config:       cloneConfig(s.effectiveConfig(name)),
		Services:     services,
		Error:        s.lastErrors[name],
	}, true
}

// cloneConfig shallow-copies a config map so callers cannot mutate
// registry state through returned snapshots.
func cloneConfig(cfg map[string]any) map[string]any {
	if cfg == nil {
		return nil
	}
	out := make(map[string]any, len(cfg))
	for k, v := range cfg {
		out[k] = v
	}
	return out
}
