// plugin.go: Plugin descriptor and optional hook contract
//
// Every hook is an independently nil-able function field; dispatch is
// capability-checked (nil hooks are skipped), so a plugin with zero hooks
// is valid and simply never does anything when triggered.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package golifecycle

import (
	"context"
	"strings"
)

// Plugin is the static descriptor supplied by the integrator.
//
// Identity is the Name field: the registry holds at most one descriptor
// per name at a time. Descriptors are immutable by convention once
// registered; runtime configuration changes go through SetConfig and
// UpdateConfig on the orchestrator, never by mutating the descriptor.
//
// Req and Resp are the host application's request and response types
// flowing through the request/response/error hooks.
//
// Fields:
//   - Name: unique plugin identity (required)
//   - Version: plugin version string (required)
//   - Dependencies: names of plugins that must be installed first and
//     active before this plugin activates
//   - Config: default configuration, shadowed in full by any runtime
//     override set through the orchestrator
//   - Limits: accepted resource ceilings (never enforced)
//   - ValidateConfig: predicate invoked before any config write
//   - OnConfigUpdate: notification after a successful config write
//
// Example:
//
//	plugin := &Plugin[Req, Resp]{
//		Name:         "auth",
//		Version:      "1.2.0",
//		Dependencies: []string{"db"},
//		OnRequest: func(ctx context.Context, c ServiceContainer, req Req) (*Resp, error) {
//			// return a non-nil response to short-circuit the chain
//			return nil, nil
//		},
//	}
type Plugin[Req, Resp any] struct {
	Name         string
	Version      string
	Dependencies []string
	Config       map[string]any
	Limits       ResourceLimits

	// ValidateConfig, when set, gates every config write. Returning an
	// error rejects the write and leaves the prior config untouched.
	ValidateConfig func(config map[string]any) error

	// OnConfigUpdate is invoked after a config write passes validation.
	OnConfigUpdate func(config map[string]any)

	// OnInstall supports the legacy flavor where a plugin registers
	// services into the host container during install. The orchestrator
	// diffs the container's registered services around this call to
	// derive the plugin's service footprint.
	OnInstall func(ctx context.Context, c ServiceContainer) error

	// Lifecycle hooks.
	OnInit     func(ctx context.Context, c ServiceContainer) error
	OnStart    func(ctx context.Context, c ServiceContainer) error
	OnStop     func(ctx context.Context, c ServiceContainer) error
	OnShutdown func(ctx context.Context, c ServiceContainer) error

	// Request middleware hooks. OnRequest returning a non-nil response
	// short-circuits the remaining fan-out; OnResponse is observational.
	// OnError may return a non-nil response to resolve the error.
	OnRequest  func(ctx context.Context, c ServiceContainer, req Req) (*Resp, error)
	OnResponse func(ctx context.Context, c ServiceContainer, req Req, resp Resp) error
	OnError    func(ctx context.Context, c ServiceContainer, cause error) (*Resp, error)

	// OnRoute transforms the route list; each plugin receives the list as
	// produced by all prior plugins in activation order.
	OnRoute func(ctx context.Context, c ServiceContainer, routes []Route) ([]Route, error)

	// Build pipeline hooks.
	OnBuild         func(ctx context.Context, c ServiceContainer, build BuildContext) error
	OnBuildComplete func(ctx context.Context, c ServiceContainer, build BuildContext) error

	// Bidirectional connection hooks, unified across transport kinds via
	// the SocketEvent Kind discriminator.
	OnSocket      func(ctx context.Context, c ServiceContainer, ev SocketEvent) error
	OnSocketClose func(ctx context.Context, c ServiceContainer, ev SocketEvent) error

	// OnSchedule notifies the plugin that a scheduled task fired.
	OnSchedule func(ctx context.Context, c ServiceContainer, ev ScheduleEvent) error

	// OnHealthCheck reports the plugin's health for aggregation.
	OnHealthCheck func(ctx context.Context, c ServiceContainer) (HealthReport, error)

	// OnHotReload notifies the plugin that its definition was reloaded
	// from the given path. Errors here are always swallowed.
	OnHotReload func(ctx context.Context, c ServiceContainer, path string) error
}

// Validate checks the structural requirements of the descriptor: a
// non-empty name and version, and no blank dependency entries.
func (p *Plugin[Req, Resp]) Validate() error {
	if p == nil {
		return NewInvalidDescriptorError("descriptor is nil")
	}
	if strings.TrimSpace(p.Name) == "" {
		return NewInvalidDescriptorError("name is empty")
	}
	if strings.TrimSpace(p.Version) == "" {
		return NewInvalidDescriptorError("version is empty")
	}
	for _, dep := range p.Dependencies {
		if strings.TrimSpace(dep) == "" {
			return NewInvalidDescriptorError("dependency name is empty")
		}
	}
	return nil
}
