// types.go: Common data types and structures for the lifecycle orchestrator
//
// This file contains all shared data type definitions used throughout the
// orchestrator. These types represent the common data models and enumerations
// used by plugins, the lifecycle manager, the dispatcher, and the loader.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package golifecycle

import (
	"time"
)

// PluginState represents the current lifecycle state of a registered plugin.
//
// States advance along a strict path:
//
//	registered -> installed -> active <-> inactive -> uninstalled
//
// The uninstalled state is terminal except that re-registering the same
// name with replace semantics resets the plugin to registered.
//
// Only plugins in StateActive receive trigger fan-out.
type PluginState int

const (
	// StateUnknown is the zero value for names that were never registered.
	StateUnknown PluginState = iota
	// StateRegistered indicates the descriptor is known but not installed.
	StateRegistered
	// StateInstalled indicates install completed; the plugin is dormant.
	StateInstalled
	// StateActive indicates the plugin receives hook fan-out.
	StateActive
	// StateInactive indicates a previously active plugin was deactivated.
	StateInactive
	// StateUninstalled is terminal; only replace re-registration leaves it.
	StateUninstalled
)

// String returns a human-readable representation of the plugin state.
func (s PluginState) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateInstalled:
		return "installed"
	case StateActive:
		return "active"
	case StateInactive:
		return "inactive"
	case StateUninstalled:
		return "uninstalled"
	default:
		return "unknown"
	}
}

// HealthLevel represents the overall health assessment reported by a plugin
// or aggregated across the active plugin set.
type HealthLevel int

const (
	// HealthHealthy indicates full operational capability.
	HealthHealthy HealthLevel = iota
	// HealthDegraded indicates reduced but functional capability.
	HealthDegraded
	// HealthUnhealthy indicates the plugin cannot perform its function.
	HealthUnhealthy
)

// String returns a human-readable representation of the health level.
func (h HealthLevel) String() string {
	switch h {
	case HealthHealthy:
		return "healthy"
	case HealthDegraded:
		return "degraded"
	case HealthUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// CheckStatus is the status of a single named health check entry.
type CheckStatus string

const (
	CheckPass CheckStatus = "pass"
	CheckWarn CheckStatus = "warn"
	CheckFail CheckStatus = "fail"
)

// checkStatusFor maps a plugin-level health assessment onto the status of a
// synthesized single check entry.
func checkStatusFor(level HealthLevel) CheckStatus {
	switch level {
	case HealthDegraded:
		return CheckWarn
	case HealthUnhealthy:
		return CheckFail
	default:
		return CheckPass
	}
}

// CheckResult is one entry in a health report's detailed check map.
type CheckResult struct {
	Status  CheckStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}

// HealthReport is returned by a plugin's OnHealthCheck hook.
//
// A plugin may return only Level, in which case the aggregator synthesizes
// a single check entry keyed by the plugin name; or it may populate Checks
// with named sub-checks that are merged into the aggregate under keys
// prefixed with the plugin name to avoid collisions.
type HealthReport struct {
	Level   HealthLevel            `json:"level"`
	Message string                 `json:"message,omitempty"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// AggregatedHealth is the combined health view across all active plugins.
//
// Status is sticky on unhealthy: once any plugin reports unhealthy (or its
// hook fails outright), nothing downgrades the aggregate back. A degraded
// report upgrades the aggregate from healthy to degraded only.
type AggregatedHealth struct {
	Status    HealthLevel            `json:"status"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp time.Time              `json:"timestamp"`
}

// Route describes a single routable entry flowing through the OnRoute
// pipeline. Plugins may add, remove, or rewrite routes; the list each
// plugin receives is the output of the previous plugin in activation order.
type Route struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Handler string            `json:"handler,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// SocketKind discriminates the underlying transport of a socket event so a
// single OnSocket hook can branch on the connection flavor.
type SocketKind string

const (
	// SocketKindStream identifies persistent bidirectional stream
	// connections (WebSocket-style).
	SocketKindStream SocketKind = "stream"
	// SocketKindDatagram identifies message-oriented connections.
	SocketKindDatagram SocketKind = "datagram"
)

// SocketEvent carries connection metadata to OnSocket and OnSocketClose.
type SocketEvent struct {
	Kind     SocketKind        `json:"kind"`
	ConnID   string            `json:"conn_id"`
	RemoteAt string            `json:"remote_at,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`
}

// BuildContext carries build pipeline metadata to OnBuild and
// OnBuildComplete.
type BuildContext struct {
	Target   string            `json:"target"`
	OutDir   string            `json:"out_dir,omitempty"`
	Artifact string            `json:"artifact,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`
}

// ScheduleEvent notifies plugins that a named scheduled task fired.
type ScheduleEvent struct {
	Task     string    `json:"task"`
	FiredAt  time.Time `json:"fired_at"`
	Schedule string    `json:"schedule,omitempty"`
}

// ResourceLimits carries per-plugin resource ceilings accepted from
// configuration. The orchestrator records these but does not enforce them:
// MaxMemory, MaxCPU, and Timeout are never consulted by the dispatcher or
// the lifecycle manager. They exist so manifests written for enforcing
// hosts round-trip without loss.
type ResourceLimits struct {
	MaxMemory int64         `json:"max_memory,omitempty" yaml:"max_memory,omitempty"`
	MaxCPU    float64       `json:"max_cpu,omitempty" yaml:"max_cpu,omitempty"`
	Timeout   time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// DebugInfo is a point-in-time snapshot of a single plugin's registry
// entry, providing a non-throwing introspection path alongside the
// error-raising API.
type DebugInfo struct {
	Name         string         `json:"name"`
	Version      string         `json:"version"`
	State        PluginState    `json:"state"`
	Dependencies []string       `json:"dependencies,omitempty"`
	Config       map[string]any `json:"config,omitempty"`
	Services     []string       `json:"services,omitempty"`
	Error        error          `json:"error,omitempty"`
}
