// errors.go: structured error definitions for the lifecycle orchestrator
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package golifecycle

import (
	"sort"
	"strings"

	"github.com/agilira/go-errors"
)

// Error codes for the lifecycle orchestrator
const (
	// Registration errors (1100-1199)
	ErrCodeInvalidDescriptor  = "LIFECYCLE_1101"
	ErrCodeAlreadyRegistered  = "LIFECYCLE_1102"
	ErrCodeNotRegistered      = "LIFECYCLE_1103"
	ErrCodeInvalidTransition  = "LIFECYCLE_1104"
	ErrCodeDependencyInactive = "LIFECYCLE_1105"
	ErrCodeDisposed           = "LIFECYCLE_1106"

	// Dependency graph errors (1200-1299)
	ErrCodeCircularDependency = "DEPENDENCY_1201"
	ErrCodeMissingDependency  = "DEPENDENCY_1202"

	// Hook errors (1300-1399)
	ErrCodeHookFailed = "HOOK_1301"

	// Configuration errors (1400-1499)
	ErrCodeConfigValidation = "CONFIG_1401"

	// Loader errors (1500-1599)
	ErrCodeLoaderFailed      = "LOADER_1501"
	ErrCodeManifestInvalid   = "LOADER_1502"
	ErrCodeFactoryNotFound   = "LOADER_1503"
	ErrCodeDirectoryScanning = "LOADER_1504"

	// Watcher errors (1600-1699)
	ErrCodeWatcherFailed = "WATCHER_1601"
)

// Registration error constructors

func NewInvalidDescriptorError(reason string) *errors.Error {
	return errors.New(ErrCodeInvalidDescriptor, "Invalid plugin descriptor").
		WithUserMessage("Plugin descriptors require a non-empty name and version").
		WithContext("reason", reason).
		WithSeverity("error")
}

func NewAlreadyRegisteredError(name string) *errors.Error {
	return errors.New(ErrCodeAlreadyRegistered, "Plugin already registered: "+name).
		WithUserMessage("A plugin with this name is already registered; pass replace to supersede it").
		WithContext("plugin_name", name).
		WithSeverity("error")
}

func NewNotRegisteredError(name string) *errors.Error {
	return errors.New(ErrCodeNotRegistered, "Plugin not registered: "+name).
		WithUserMessage("The requested plugin is not present in the registry").
		WithContext("plugin_name", name).
		WithSeverity("error")
}

func NewInvalidTransitionError(name string, from PluginState, op string) *errors.Error {
	return errors.New(ErrCodeInvalidTransition,
		"Cannot "+op+" plugin "+name+" while "+from.String()).
		WithUserMessage("The plugin is not in a state that permits the requested operation").
		WithContext("plugin_name", name).
		WithContext("current_state", from.String()).
		WithContext("operation", op).
		WithSeverity("error")
}

func NewDependencyInactiveError(name, dependency string, depState PluginState) *errors.Error {
	state := "undefined"
	if depState != StateUnknown {
		state = depState.String()
	}
	return errors.New(ErrCodeDependencyInactive,
		"Cannot activate "+name+": dependency "+dependency+" is "+state).
		WithUserMessage("Every declared dependency must be active before activation").
		WithContext("plugin_name", name).
		WithContext("dependency", dependency).
		WithContext("dependency_state", state).
		WithSeverity("error")
}

func NewDisposedError() *errors.Error {
	return errors.New(ErrCodeDisposed, "Orchestrator disposed").
		WithUserMessage("This orchestrator has been disposed and can no longer be used").
		WithSeverity("error")
}

// Dependency graph error constructors

// NewCircularDependencyError carries the full cycle path so callers can
// report the exact dependency loop. The path lists each member once; the
// first element conceptually repeats at the end.
func NewCircularDependencyError(cycle []string) *errors.Error {
	return errors.New(ErrCodeCircularDependency,
		"Circular dependency detected: "+strings.Join(cycle, " -> ")).
		WithUserMessage("Plugin dependencies form a cycle").
		WithContext("cycle", cycle).
		WithSeverity("error")
}

// NewMissingDependencyError carries the per-plugin map of declared
// dependency names absent from the registry.
func NewMissingDependencyError(missing map[string][]string) *errors.Error {
	var parts []string
	for name, deps := range missing {
		parts = append(parts, name+" requires "+strings.Join(deps, ", "))
	}
	sort.Strings(parts)
	return errors.New(ErrCodeMissingDependency,
		"Missing dependencies: "+strings.Join(parts, "; ")).
		WithUserMessage("Declared dependencies are not registered").
		WithContext("missing", missing).
		WithSeverity("error")
}

// Hook error constructors

func NewHookFailedError(name, hook string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeHookFailed, "Plugin hook failed").
		WithUserMessage("A plugin-supplied hook returned an error").
		WithContext("plugin_name", name).
		WithContext("hook", hook).
		WithSeverity("error")
}

// Configuration error constructors

func NewConfigValidationError(name string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigValidation, "Config validation failed").
		WithUserMessage("The plugin rejected the proposed configuration").
		WithContext("plugin_name", name).
		WithSeverity("error")
}

// Loader error constructors

func NewLoaderError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeLoaderFailed, "Plugin load failed").
		WithUserMessage("The file could not be loaded as a plugin manifest").
		WithContext("path", path).
		WithSeverity("error")
}

func NewManifestInvalidError(path, reason string) *errors.Error {
	return errors.New(ErrCodeManifestInvalid, "Invalid plugin manifest "+path+": "+reason).
		WithUserMessage("The manifest is missing required fields or is malformed").
		WithContext("path", path).
		WithContext("reason", reason).
		WithSeverity("error")
}

func NewFactoryNotFoundError(path, handler string) *errors.Error {
	return errors.New(ErrCodeFactoryNotFound, "Hook factory not found").
		WithUserMessage("No hook factory is registered for the manifest handler").
		WithContext("path", path).
		WithContext("handler", handler).
		WithSeverity("error")
}

func NewDirectoryScanError(dir string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeDirectoryScanning, "Directory scan failed").
		WithUserMessage("The plugin directory could not be enumerated").
		WithContext("directory", dir).
		WithSeverity("error")
}

// Watcher error constructors

func NewWatcherError(msg string, cause error) *errors.Error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeWatcherFailed, msg).
			WithSeverity("error")
	}
	return errors.New(ErrCodeWatcherFailed, msg).
		WithSeverity("error")
}

// errorCode extracts the orchestrator error code from err, or "" when err
// is not a coded error.
func errorCode(err error) string {
	if coded, ok := err.(*errors.Error); ok {
		return string(coded.ErrorCode())
	}
	return ""
}
