// manager.go: Lifecycle orchestrator and state machine
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package golifecycle

import (
	"context"
	"sync"

	"github.com/agilira/argus"
)

// Orchestrator manages the full plugin lifecycle: registration, the
// install/activate/deactivate/uninstall state machine, dependency-ordered
// installation, hook fan-out, manifest loading, and hot reload.
//
// Req and Resp are the host application's request and response types
// flowing through the request middleware hooks.
//
// Concurrency model: every operation, lifecycle mutation and trigger
// fan-out alike, is serialized behind a single non-reentrant mutex. The
// host is expected to drive the orchestrator from one control flow; the
// mutex exists so asynchronously arriving hot-reload events can never
// interleave with an in-flight manual lifecycle call. Hooks must not call
// back into the orchestrator.
//
// Example usage:
//
//	orch := NewOrchestrator[Request, Response](logger)
//	_ = orch.Register(&Plugin[Request, Response]{Name: "db", Version: "1.0.0"}, false)
//	_ = orch.Register(&Plugin[Request, Response]{Name: "auth", Version: "1.0.0",
//		Dependencies: []string{"db"}}, false)
//	if err := orch.Bootstrap(ctx); err != nil {
//		log.Fatal(err)
//	}
type Orchestrator[Req, Resp any] struct {
	mu        sync.Mutex
	store     *stateStore[Req, Resp]
	bus       *EventBus
	container ServiceContainer
	logger    Logger

	// continueOnError decides whether plugin-hook failures are swallowed
	// (true, the default) or propagated to the caller. Structural and
	// dependency-graph errors always propagate regardless.
	continueOnError bool

	disposed bool

	// Manifest loading (loader.go).
	factories map[string]HookFactory[Req, Resp]

	// Hot reload (hot_reload.go).
	watcher      *argus.Watcher
	watchedPaths map[string]watchedManifest
}

// NewOrchestrator creates an orchestrator with an in-memory service
// container. The logger may be nil for silent operation, or any value
// implementing the Logger interface.
func NewOrchestrator[Req, Resp any](logger any) *Orchestrator[Req, Resp] {
	return NewOrchestratorWithContainer[Req, Resp](logger, NewMemoryContainer())
}

// NewOrchestratorWithContainer creates an orchestrator bound to the
// host's own service container. The container is passed into every hook
// so plugins can resolve collaborators.
func NewOrchestratorWithContainer[Req, Resp any](logger any, container ServiceContainer) *Orchestrator[Req, Resp] {
	l := NewLogger(logger)
	return &Orchestrator[Req, Resp]{
		store:           newStateStore[Req, Resp](),
		bus:             NewEventBus(l),
		container:       container,
		logger:          l,
		continueOnError: true,
		factories:       make(map[string]HookFactory[Req, Resp]),
		watchedPaths:    make(map[string]watchedManifest),
	}
}

// SetContinueOnError sets the hook-failure policy. When false, the first
// hook failure aborts the surrounding lifecycle chain or fan-out and
// propagates to the caller. Shutdown-phase and hot-reload-phase hooks are
// always swallowed regardless.
func (o *Orchestrator[Req, Resp]) SetContinueOnError(continueOnError bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.continueOnError = continueOnError
}

// On subscribes a listener to a lifecycle or custom event.
func (o *Orchestrator[Req, Resp]) On(event EventType, listener EventListener) Subscription {
	return o.bus.On(event, listener)
}

// Off removes a previously subscribed listener.
func (o *Orchestrator[Req, Resp]) Off(event EventType, sub Subscription) {
	o.bus.Off(event, sub)
}

// Emit publishes a caller-defined custom event on the orchestrator's bus.
func (o *Orchestrator[Req, Resp]) Emit(event Event) {
	o.bus.Emit(event)
}

// Register inserts a descriptor into the registry in state registered.
//
// Registering a name that already exists fails unless replace is true, in
// which case the existing entry's state, runtime config, error record,
// and service footprint are wiped, a replaced event is emitted, and the
// registration proceeds as fresh. Registration always ends in state
// registered and emits a registered event.
func (o *Orchestrator[Req, Resp]) Register(p *Plugin[Req, Resp], replace bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.register(p, replace)
}

func (o *Orchestrator[Req, Resp]) register(p *Plugin[Req, Resp], replace bool) error {
	if o.disposed {
		return NewDisposedError()
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if _, exists := o.store.descriptors[p.Name]; exists {
		if !replace {
			return NewAlreadyRegisteredError(p.Name)
		}
		o.store.wipe(p.Name)
		o.bus.Emit(Event{Type: EventPluginReplaced, Plugin: p.Name})
	}
	o.store.insert(p)
	o.bus.Emit(Event{Type: EventPluginRegistered, Plugin: p.Name})
	o.logger.Debug("Plugin registered", "plugin", p.Name, "version", p.Version)
	return nil
}

// Install transitions the named plugin from registered to installed.
//
// The full transitive dependency closure is resolved first (breadth-first
// over declared dependencies), validated and ordered by TopologicalSort,
// and every closure member still in state registered is installed in
// that order before the plugin itself. Members already past registered
// are skipped.
//
// A failure in a plugin's install hook is recorded against that plugin
// and emitted as an error event; under ContinueOnError (the default) the
// chain continues, otherwise the failure propagates immediately.
func (o *Orchestrator[Req, Resp]) Install(ctx context.Context, name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.install(ctx, name)
}

func (o *Orchestrator[Req, Resp]) install(ctx context.Context, name string) error {
	if o.disposed {
		return NewDisposedError()
	}
	if _, ok := o.store.descriptors[name]; !ok {
		return NewNotRegisteredError(name)
	}
	if state := o.store.state(name); state != StateRegistered {
		return NewInvalidTransitionError(name, state, "install")
	}

	closure := o.store.closure(name)
	order, err := TopologicalSort(o.store.dependencyGraph(), closure)
	if err != nil {
		return err
	}

	for _, member := range order {
		if o.store.state(member) != StateRegistered {
			continue
		}
		if err := o.installOne(ctx, member); err != nil {
			if o.continueOnError {
				continue
			}
			return err
		}
	}
	return nil
}

// installOne runs the single-plugin install step: legacy install hook
// with service footprint diffing, then the state transition.
func (o *Orchestrator[Req, Resp]) installOne(ctx context.Context, name string) error {
	p := o.store.descriptors[name]

	footprint := []string{}
	if p.OnInstall != nil {
		before := o.container.RegisteredServices()
		if err := o.safeHook(ctx, name, "install", p.OnInstall); err != nil {
			return err
		}
		footprint = diffServices(before, o.container.RegisteredServices())
	}

	o.store.footprints[name] = footprint
	o.store.states[name] = StateInstalled
	o.bus.Emit(Event{Type: EventPluginInstalled, Plugin: name})
	o.logger.Debug("Plugin installed", "plugin", name, "services", len(footprint))
	return nil
}

// Activate transitions the named plugin from installed or inactive to
// active.
//
// Activation never cascades: every declared dependency must already be
// exactly active, or activation fails naming the offending dependency and
// its actual state ("undefined" when never registered). This forces
// explicit ordering visibility at the call site, deliberately distinct
// from install's auto-cascade.
//
// A successful activation clears the plugin's stored error record.
func (o *Orchestrator[Req, Resp]) Activate(ctx context.Context, name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activate(ctx, name)
}

func (o *Orchestrator[Req, Resp]) activate(_ context.Context, name string) error {
	if o.disposed {
		return NewDisposedError()
	}
	p, ok := o.store.descriptors[name]
	if !ok {
		return NewNotRegisteredError(name)
	}
	state := o.store.state(name)
	if state != StateInstalled && state != StateInactive {
		return NewInvalidTransitionError(name, state, "activate")
	}
	for _, dep := range p.Dependencies {
		if depState := o.store.state(dep); depState != StateActive {
			return NewDependencyInactiveError(name, dep, depState)
		}
	}

	o.store.states[name] = StateActive
	o.store.markActivated(name)
	delete(o.store.lastErrors, name)
	o.bus.Emit(Event{Type: EventPluginActivated, Plugin: name})
	o.logger.Debug("Plugin activated", "plugin", name)
	return nil
}

// Deactivate transitions the named plugin from active to inactive and
// clears its stored error record.
func (o *Orchestrator[Req, Resp]) Deactivate(ctx context.Context, name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.deactivate(ctx, name)
}

func (o *Orchestrator[Req, Resp]) deactivate(_ context.Context, name string) error {
	if o.disposed {
		return NewDisposedError()
	}
	if _, ok := o.store.descriptors[name]; !ok {
		return NewNotRegisteredError(name)
	}
	if state := o.store.state(name); state != StateActive {
		return NewInvalidTransitionError(name, state, "deactivate")
	}

	o.store.states[name] = StateInactive
	delete(o.store.lastErrors, name)
	o.bus.Emit(Event{Type: EventPluginDeactivated, Plugin: name})
	o.logger.Debug("Plugin deactivated", "plugin", name)
	return nil
}

// Uninstall moves the named plugin to the terminal uninstalled state,
// auto-deactivating it first when currently active. Uninstalling an
// already-uninstalled plugin is a no-op: no error, no duplicate event.
// The plugin's error record and runtime config are cleared.
func (o *Orchestrator[Req, Resp]) Uninstall(ctx context.Context, name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.uninstall(ctx, name)
}

func (o *Orchestrator[Req, Resp]) uninstall(ctx context.Context, name string) error {
	if o.disposed {
		return NewDisposedError()
	}
	if _, ok := o.store.descriptors[name]; !ok {
		return NewNotRegisteredError(name)
	}
	state := o.store.state(name)
	if state == StateUninstalled {
		return nil
	}
	if state == StateActive {
		if err := o.deactivate(ctx, name); err != nil {
			return err
		}
	}

	o.store.states[name] = StateUninstalled
	delete(o.store.lastErrors, name)
	delete(o.store.configs, name)
	delete(o.store.footprints, name)
	o.store.dropActivation(name)
	o.bus.Emit(Event{Type: EventPluginUninstalled, Plugin: name})
	o.logger.Debug("Plugin uninstalled", "plugin", name)
	return nil
}

// Use is the idempotent convenience composition: register the descriptor
// if its name is absent, install it if registered, and activate it if
// installed or inactive. Calling Use repeatedly on an already-active
// plugin is a no-op.
func (o *Orchestrator[Req, Resp]) Use(ctx context.Context, p *Plugin[Req, Resp]) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.use(ctx, p)
}

func (o *Orchestrator[Req, Resp]) use(ctx context.Context, p *Plugin[Req, Resp]) error {
	if o.disposed {
		return NewDisposedError()
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if _, exists := o.store.descriptors[p.Name]; !exists {
		if err := o.register(p, false); err != nil {
			return err
		}
	}
	if o.store.state(p.Name) == StateRegistered {
		if err := o.install(ctx, p.Name); err != nil {
			return err
		}
	}
	if state := o.store.state(p.Name); state == StateInstalled || state == StateInactive {
		if err := o.activate(ctx, p.Name); err != nil {
			return err
		}
	}
	return nil
}

// Bootstrap installs then activates every currently registered plugin,
// skipping plugins already past each phase, then fans out the init
// trigger to the freshly active set. Activation follows topological
// order so dependencies come up before their dependents.
func (o *Orchestrator[Req, Resp]) Bootstrap(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.disposed {
		return NewDisposedError()
	}

	names := o.store.registeredNames()
	order, err := TopologicalSort(o.store.dependencyGraph(), names)
	if err != nil {
		return err
	}

	for _, name := range order {
		if o.store.state(name) != StateRegistered {
			continue
		}
		if err := o.installOne(ctx, name); err != nil {
			if o.continueOnError {
				continue
			}
			return err
		}
	}

	for _, name := range order {
		state := o.store.state(name)
		if state != StateInstalled && state != StateInactive {
			continue
		}
		if err := o.activate(ctx, name); err != nil {
			if o.continueOnError {
				continue
			}
			return err
		}
	}

	return o.triggerLifecycle(ctx, "init", false)
}

// Shutdown tears the system down: the stop and shutdown triggers run
// first (in reverse activation order, errors always swallowed), then
// every active plugin is deactivated in reverse activation order, and
// finally every plugin not already uninstalled or merely registered is
// uninstalled. Errors during the deactivate and uninstall sweeps are
// swallowed unconditionally so shutdown never aborts partway.
func (o *Orchestrator[Req, Resp]) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.disposed {
		return NewDisposedError()
	}
	o.logger.Info("Shutting down plugin orchestrator")

	// Stop/shutdown hooks observe the still-active world.
	_ = o.triggerLifecycle(ctx, "stop", true)
	_ = o.triggerLifecycle(ctx, "shutdown", true)

	active := o.store.activeNames()
	for i := len(active) - 1; i >= 0; i-- {
		if err := o.deactivate(ctx, active[i]); err != nil {
			o.logger.Warn("Deactivate failed during shutdown", "plugin", active[i], "error", err)
		}
	}

	for _, name := range o.store.registeredNames() {
		state := o.store.state(name)
		if state == StateUninstalled || state == StateRegistered {
			continue
		}
		if err := o.uninstall(ctx, name); err != nil {
			o.logger.Warn("Uninstall failed during shutdown", "plugin", name, "error", err)
		}
	}

	o.logger.Info("Plugin orchestrator shutdown complete")
	return nil
}

// ValidateDependencies checks the dependency graph for cycles and missing
// dependencies. With an empty name the whole registry is checked; with a
// name, checks are restricted to the transitive closure reachable from
// it. The raised errors carry the full cycle path or the per-plugin
// missing-dependency map, matching what install surfaces.
func (o *Orchestrator[Req, Resp]) ValidateDependencies(name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.disposed {
		return NewDisposedError()
	}

	graph := o.store.dependencyGraph()
	if name != "" {
		if _, ok := o.store.descriptors[name]; !ok {
			return NewNotRegisteredError(name)
		}
		sub := make(map[string][]string)
		for _, member := range o.store.closure(name) {
			sub[member] = graph[member]
		}
		graph = sub
	}

	if cycle := DetectCycle(graph); cycle != nil {
		return NewCircularDependencyError(cycle)
	}
	if missing := DetectMissing(graph); len(missing) > 0 {
		return NewMissingDependencyError(missing)
	}
	return nil
}

// GetPlugin returns the registered descriptor for name.
func (o *Orchestrator[Req, Resp]) GetPlugin(name string) (*Plugin[Req, Resp], bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.store.descriptors[name]
	return p, ok
}

// GetState returns the lifecycle state for name, StateUnknown when the
// name was never registered.
func (o *Orchestrator[Req, Resp]) GetState(name string) PluginState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.store.state(name)
}

// GetRegisteredPlugins returns every registered descriptor in insertion
// order.
func (o *Orchestrator[Req, Resp]) GetRegisteredPlugins() []*Plugin[Req, Resp] {
	o.mu.Lock()
	defer o.mu.Unlock()

	names := o.store.registeredNames()
	plugins := make([]*Plugin[Req, Resp], 0, len(names))
	for _, name := range names {
		plugins = append(plugins, o.store.descriptors[name])
	}
	return plugins
}

// GetConfig returns the plugin's effective configuration: the runtime
// override when one was set, else the descriptor's default. The override
// shadows the default in full; no merging happens on read.
func (o *Orchestrator[Req, Resp]) GetConfig(name string) map[string]any {
	o.mu.Lock()
	defer o.mu.Unlock()
	return cloneConfig(o.store.effectiveConfig(name))
}

// SetConfig replaces the plugin's runtime configuration wholesale. The
// proposed map is passed through the descriptor's ValidateConfig first;
// rejection leaves the prior configuration untouched. On success a
// config-updated event is emitted and the descriptor's OnConfigUpdate
// callback is notified.
func (o *Orchestrator[Req, Resp]) SetConfig(name string, config map[string]any) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.setConfig(name, config)
}

func (o *Orchestrator[Req, Resp]) setConfig(name string, config map[string]any) error {
	if o.disposed {
		return NewDisposedError()
	}
	p, ok := o.store.descriptors[name]
	if !ok {
		return NewNotRegisteredError(name)
	}
	if p.ValidateConfig != nil {
		if err := p.ValidateConfig(config); err != nil {
			return NewConfigValidationError(name, err)
		}
	}

	stored := cloneConfig(config)
	o.store.configs[name] = stored
	o.bus.Emit(Event{Type: EventPluginConfigUpdated, Plugin: name,
		Data: map[string]any{"config": cloneConfig(stored)}})
	if p.OnConfigUpdate != nil {
		p.OnConfigUpdate(cloneConfig(stored))
	}
	o.logger.Debug("Plugin config updated", "plugin", name)
	return nil
}

// UpdateConfig shallow-merges the patch over the plugin's effective
// configuration and writes the result through the same validation path as
// SetConfig.
func (o *Orchestrator[Req, Resp]) UpdateConfig(name string, patch map[string]any) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.disposed {
		return NewDisposedError()
	}
	if _, ok := o.store.descriptors[name]; !ok {
		return NewNotRegisteredError(name)
	}

	merged := cloneConfig(o.store.effectiveConfig(name))
	if merged == nil {
		merged = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		merged[k] = v
	}
	return o.setConfig(name, merged)
}

// GetDependencyGraph returns the name -> dependency-list view of the
// registry. Plugins without dependencies map to an empty list.
func (o *Orchestrator[Req, Resp]) GetDependencyGraph() map[string][]string {
	o.mu.Lock()
	defer o.mu.Unlock()

	graph := o.store.dependencyGraph()
	for name, deps := range graph {
		if deps == nil {
			graph[name] = []string{}
		}
	}
	return graph
}

// GetDebugInfo returns the introspection snapshot for one plugin,
// including its last captured error even when the failure was swallowed
// by the ContinueOnError policy.
func (o *Orchestrator[Req, Resp]) GetDebugInfo(name string) (DebugInfo, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	info, ok := o.store.debugInfo(name)
	if !ok {
		return DebugInfo{}, NewNotRegisteredError(name)
	}
	return info, nil
}

// GetAllDebugInfo returns snapshots for every registered plugin in
// insertion order.
func (o *Orchestrator[Req, Resp]) GetAllDebugInfo() []DebugInfo {
	o.mu.Lock()
	defer o.mu.Unlock()

	names := o.store.registeredNames()
	infos := make([]DebugInfo, 0, len(names))
	for _, name := range names {
		if info, ok := o.store.debugInfo(name); ok {
			infos = append(infos, info)
		}
	}
	return infos
}

// Dispose clears every registry map, detaches all event listeners, and
// stops the hot-reload watcher. The orchestrator is unusable afterwards;
// construct a new one to start over.
func (o *Orchestrator[Req, Resp]) Dispose() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.disposed {
		return
	}
	o.stopWatcherLocked()
	o.store = newStateStore[Req, Resp]()
	o.factories = make(map[string]HookFactory[Req, Resp])
	o.watchedPaths = make(map[string]watchedManifest)
	o.bus.Clear()
	o.disposed = true
	o.logger.Info("Plugin orchestrator disposed")
}

// recordHookError stores the failure against the plugin and emits an
// error event. Used by every hook invocation site.
func (o *Orchestrator[Req, Resp]) recordHookError(name, hook string, err error) error {
	wrapped := NewHookFailedError(name, hook, err)
	o.store.lastErrors[name] = wrapped
	o.bus.Emit(Event{Type: EventPluginError, Plugin: name, Error: wrapped,
		Data: map[string]any{"hook": hook}})
	o.logger.Error("Plugin hook failed", "plugin", name, "hook", hook, "error", err)
	return wrapped
}

// safeHook invokes a simple lifecycle hook, converting panics into
// recorded hook errors so a panicking plugin cannot take down the
// orchestrator.
func (o *Orchestrator[Req, Resp]) safeHook(ctx context.Context, name, hook string, fn func(context.Context, ServiceContainer) error) error {
	err := invokeGuarded(func() error { return fn(ctx, o.container) })
	if err != nil {
		return o.recordHookError(name, hook, err)
	}
	return nil
}

// diffServices returns the keys present in after but not in before, in
// after's order. Used to derive a plugin's service footprint around its
// install hook.
func diffServices(before, after []string) []string {
	prior := make(map[string]struct{}, len(before))
	for _, key := range before {
		prior[key] = struct{}{}
	}
	var added []string
	for _, key := range after {
		if _, ok := prior[key]; !ok {
			added = append(added, key)
		}
	}
	if added == nil {
		added = []string{}
	}
	return added
}
