// dispatcher.go: Hook fan-out across the active plugin set
//
// Every trigger reads the active set fresh from the registry at call time
// (state can change between calls) and invokes hooks strictly one at a
// time, awaiting each to completion before the next. Ordering,
// short-circuit, pipeline, and always-swallow rules vary per hook group;
// the generic pattern records failures against the plugin, emits an error
// event, and continues or aborts per the ContinueOnError policy.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package golifecycle

import (
	"context"
)

// TriggerInit fans the init hook out to every active plugin in
// activation order.
func (o *Orchestrator[Req, Resp]) TriggerInit(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.triggerLifecycle(ctx, "init", false)
}

// TriggerStart fans the start hook out to every active plugin in
// activation order.
func (o *Orchestrator[Req, Resp]) TriggerStart(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.triggerLifecycle(ctx, "start", false)
}

// TriggerStop fans the stop hook out in reverse activation order. Errors
// are always swallowed so every plugin gets a stop attempt, regardless of
// the ContinueOnError policy.
func (o *Orchestrator[Req, Resp]) TriggerStop(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.triggerLifecycle(ctx, "stop", true)
}

// TriggerShutdown fans the shutdown hook out in reverse activation order.
// Errors are always swallowed, as with TriggerStop.
func (o *Orchestrator[Req, Resp]) TriggerShutdown(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.triggerLifecycle(ctx, "shutdown", true)
}

// triggerLifecycle drives the init/start/stop/shutdown hook groups.
// Reverse implies always-swallow: the teardown phases must reach every
// plugin.
func (o *Orchestrator[Req, Resp]) triggerLifecycle(ctx context.Context, phase string, reverse bool) error {
	if o.disposed {
		return NewDisposedError()
	}

	names := o.store.activeNames()
	if reverse {
		for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
			names[i], names[j] = names[j], names[i]
		}
	}

	for _, name := range names {
		p := o.store.descriptors[name]
		var hook func(context.Context, ServiceContainer) error
		switch phase {
		case "init":
			hook = p.OnInit
		case "start":
			hook = p.OnStart
		case "stop":
			hook = p.OnStop
		case "shutdown":
			hook = p.OnShutdown
		}
		if hook == nil {
			continue
		}
		if err := invokeGuarded(func() error { return hook(ctx, o.container) }); err != nil {
			recorded := o.recordHookError(name, phase, err)
			if !reverse && !o.continueOnError {
				return recorded
			}
		}
	}
	return nil
}

// TriggerRequest fans the request out to active plugins in activation
// order. The first plugin whose hook returns a non-nil response
// short-circuits the chain: remaining plugins are skipped and that
// response is the overall result. A nil response with no error passes
// control to the next plugin.
func (o *Orchestrator[Req, Resp]) TriggerRequest(ctx context.Context, req Req) (*Resp, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.disposed {
		return nil, NewDisposedError()
	}

	for _, name := range o.store.activeNames() {
		p := o.store.descriptors[name]
		if p.OnRequest == nil {
			continue
		}
		var resp *Resp
		err := invokeGuarded(func() error {
			var hookErr error
			resp, hookErr = p.OnRequest(ctx, o.container, req)
			return hookErr
		})
		if err != nil {
			recorded := o.recordHookError(name, "request", err)
			if !o.continueOnError {
				return nil, recorded
			}
			continue
		}
		if resp != nil {
			return resp, nil
		}
	}
	return nil, nil
}

// TriggerResponse fans the response out to active plugins in activation
// order. Purely observational: there is no short-circuit.
func (o *Orchestrator[Req, Resp]) TriggerResponse(ctx context.Context, req Req, resp Resp) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.disposed {
		return NewDisposedError()
	}

	for _, name := range o.store.activeNames() {
		p := o.store.descriptors[name]
		if p.OnResponse == nil {
			continue
		}
		if err := invokeGuarded(func() error { return p.OnResponse(ctx, o.container, req, resp) }); err != nil {
			recorded := o.recordHookError(name, "response", err)
			if !o.continueOnError {
				return recorded
			}
		}
	}
	return nil
}

// TriggerError offers the error to active plugins in activation order.
// The first plugin returning a non-nil response short-circuits and that
// response is returned. Failures inside error handlers are recorded but
// never propagated: an error handler erroring must not crash error
// handling.
func (o *Orchestrator[Req, Resp]) TriggerError(ctx context.Context, cause error) (*Resp, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.disposed {
		return nil, NewDisposedError()
	}

	for _, name := range o.store.activeNames() {
		p := o.store.descriptors[name]
		if p.OnError == nil {
			continue
		}
		var resp *Resp
		err := invokeGuarded(func() error {
			var hookErr error
			resp, hookErr = p.OnError(ctx, o.container, cause)
			return hookErr
		})
		if err != nil {
			o.recordHookError(name, "error", err)
			continue
		}
		if resp != nil {
			return resp, nil
		}
	}
	return nil, nil
}

// TriggerRoute runs the route pipeline: each active plugin receives the
// route list as transformed by all prior plugins and returns the
// (possibly modified) list that feeds the next. The final accumulated
// list is returned. A failing plugin leaves the list as its predecessor
// produced it.
func (o *Orchestrator[Req, Resp]) TriggerRoute(ctx context.Context, routes []Route) ([]Route, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.disposed {
		return nil, NewDisposedError()
	}

	current := routes
	for _, name := range o.store.activeNames() {
		p := o.store.descriptors[name]
		if p.OnRoute == nil {
			continue
		}
		var next []Route
		err := invokeGuarded(func() error {
			var hookErr error
			next, hookErr = p.OnRoute(ctx, o.container, current)
			return hookErr
		})
		if err != nil {
			recorded := o.recordHookError(name, "route", err)
			if !o.continueOnError {
				return current, recorded
			}
			continue
		}
		current = next
	}
	return current, nil
}

// TriggerBuild fans the build hook out in activation order.
func (o *Orchestrator[Req, Resp]) TriggerBuild(ctx context.Context, build BuildContext) error {
	return o.triggerBuildPhase(ctx, "build", build)
}

// TriggerBuildComplete fans the build-complete hook out in activation
// order.
func (o *Orchestrator[Req, Resp]) TriggerBuildComplete(ctx context.Context, build BuildContext) error {
	return o.triggerBuildPhase(ctx, "buildComplete", build)
}

func (o *Orchestrator[Req, Resp]) triggerBuildPhase(ctx context.Context, phase string, build BuildContext) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.disposed {
		return NewDisposedError()
	}

	for _, name := range o.store.activeNames() {
		p := o.store.descriptors[name]
		hook := p.OnBuild
		if phase == "buildComplete" {
			hook = p.OnBuildComplete
		}
		if hook == nil {
			continue
		}
		if err := invokeGuarded(func() error { return hook(ctx, o.container, build) }); err != nil {
			recorded := o.recordHookError(name, phase, err)
			if !o.continueOnError {
				return recorded
			}
		}
	}
	return nil
}

// TriggerSocket fans a connection event out in activation order. The
// event's Kind discriminator lets one hook serve both transport flavors.
func (o *Orchestrator[Req, Resp]) TriggerSocket(ctx context.Context, ev SocketEvent) error {
	return o.triggerSocketPhase(ctx, "socket", ev)
}

// TriggerSocketClose fans a connection-close event out in activation
// order.
func (o *Orchestrator[Req, Resp]) TriggerSocketClose(ctx context.Context, ev SocketEvent) error {
	return o.triggerSocketPhase(ctx, "socketClose", ev)
}

func (o *Orchestrator[Req, Resp]) triggerSocketPhase(ctx context.Context, phase string, ev SocketEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.disposed {
		return NewDisposedError()
	}

	for _, name := range o.store.activeNames() {
		p := o.store.descriptors[name]
		hook := p.OnSocket
		if phase == "socketClose" {
			hook = p.OnSocketClose
		}
		if hook == nil {
			continue
		}
		if err := invokeGuarded(func() error { return hook(ctx, o.container, ev) }); err != nil {
			recorded := o.recordHookError(name, phase, err)
			if !o.continueOnError {
				return recorded
			}
		}
	}
	return nil
}

// TriggerSchedule notifies active plugins that a scheduled task fired, in
// activation order.
func (o *Orchestrator[Req, Resp]) TriggerSchedule(ctx context.Context, ev ScheduleEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.disposed {
		return NewDisposedError()
	}

	for _, name := range o.store.activeNames() {
		p := o.store.descriptors[name]
		if p.OnSchedule == nil {
			continue
		}
		if err := invokeGuarded(func() error { return p.OnSchedule(ctx, o.container, ev) }); err != nil {
			recorded := o.recordHookError(name, "schedule", err)
			if !o.continueOnError {
				return recorded
			}
		}
	}
	return nil
}

// TriggerHotReload notifies active plugins that a definition reloaded
// from path. Errors are always swallowed: hot reload is a development
// feature and must not crash the watch loop.
func (o *Orchestrator[Req, Resp]) TriggerHotReload(ctx context.Context, path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.triggerHotReload(ctx, path)
}

func (o *Orchestrator[Req, Resp]) triggerHotReload(ctx context.Context, path string) error {
	if o.disposed {
		return NewDisposedError()
	}

	for _, name := range o.store.activeNames() {
		p := o.store.descriptors[name]
		if p.OnHotReload == nil {
			continue
		}
		if err := invokeGuarded(func() error { return p.OnHotReload(ctx, o.container, path) }); err != nil {
			o.recordHookError(name, "hotReload", err)
		}
	}
	return nil
}
