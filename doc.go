// Package golifecycle provides a hook-based plugin lifecycle orchestrator
// for Go applications. It manages a registry of pluggable extension objects,
// enforces a strict install/activate/deactivate/uninstall state machine per
// plugin, resolves inter-plugin dependency ordering, and fans out
// application-level event hooks (init, request/response, build, socket,
// health check, ...) to all currently active plugins while isolating
// failures.
//
// Key Features:
//   - Type-safe hook contracts using Go generics
//   - Validated lifecycle state machine with replace semantics
//   - Deterministic dependency resolution with cycle and
//     missing-dependency diagnostics
//   - Sequential hook fan-out with short-circuit, pipeline, and
//     health aggregation semantics
//   - Per-plugin error capture with non-throwing introspection
//   - Manifest loading and hot reload of plugin definitions
//   - Comprehensive lifecycle events and structured logging
//
// Basic Usage:
//
//	// Define your request/response types
//	type Request struct {
//		Path string `json:"path"`
//	}
//
//	type Response struct {
//		Body string `json:"body"`
//	}
//
//	// Create an orchestrator
//	orch := golifecycle.NewOrchestrator[Request, Response](nil)
//
//	// Register a plugin with the hooks it cares about
//	err := orch.Use(ctx, &golifecycle.Plugin[Request, Response]{
//		Name:    "auth",
//		Version: "1.0.0",
//		OnRequest: func(ctx context.Context, c golifecycle.ServiceContainer, req Request) (*Response, error) {
//			return nil, nil // pass through
//		},
//	})
//
//	// Fan out a request to every active plugin
//	resp, err := orch.TriggerRequest(ctx, Request{Path: "/health"})
//
// Lifecycle:
// Every plugin moves along registered -> installed -> active and may cycle
// between active and inactive before reaching the terminal uninstalled
// state. Install resolves the transitive dependency closure and installs
// it in topological order; activation requires every declared dependency
// to already be active, making ordering explicit at the call site.
//
// Error Policy:
// Structural misuse (duplicate names, invalid transitions, inactive
// dependencies) always raises immediately. Failures inside plugin hooks
// are captured per plugin, emitted as error events, and either swallowed
// or propagated according to the ContinueOnError policy. Shutdown and hot
// reload hooks are always swallowed so every plugin gets its turn.
//
// Copyright (c) 2025 AGILira - A. Giordano
// SPDX-License-Identifier: MPL-2.0
package golifecycle
