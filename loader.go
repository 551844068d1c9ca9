// loader.go: Manifest-based plugin loading
//
// Plugins can be described by YAML or JSON manifest files carrying name,
// version, dependencies, and configuration. Hook implementations cannot
// live in a manifest; a manifest's handler field names a registered
// HookFactory that binds the loaded definition to compiled hooks. A
// manifest without a handler produces a hookless plugin, which is valid
// and simply inert under fan-out.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package golifecycle

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest is the on-disk plugin definition. YAML and JSON are both
// accepted (JSON is a YAML subset).
type Manifest struct {
	Name         string         `yaml:"name" json:"name"`
	Version      string         `yaml:"version" json:"version"`
	Handler      string         `yaml:"handler,omitempty" json:"handler,omitempty"`
	Dependencies []string       `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	Config       map[string]any `yaml:"config,omitempty" json:"config,omitempty"`
	Limits       ResourceLimits `yaml:"limits,omitempty" json:"limits,omitempty"`
}

// HookFactory builds a full plugin descriptor from a loaded manifest,
// attaching whatever hooks the handler implements. The factory must carry
// the manifest's identity fields into the returned descriptor.
type HookFactory[Req, Resp any] func(manifest Manifest) (*Plugin[Req, Resp], error)

// RegisterHookFactory binds a manifest handler name to a factory. Loaded
// manifests whose handler field matches are materialized through it.
func (o *Orchestrator[Req, Resp]) RegisterHookFactory(handler string, factory HookFactory[Req, Resp]) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.factories[handler] = factory
}

// LoadFromFile loads one manifest and registers the resulting plugin in
// state registered. The error carries the offending path when the file
// cannot be read, parsed, or lacks the required name and version fields.
func (o *Orchestrator[Req, Resp]) LoadFromFile(ctx context.Context, path string) (*Plugin[Req, Resp], error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loadFromFile(ctx, path, false)
}

func (o *Orchestrator[Req, Resp]) loadFromFile(_ context.Context, path string, replace bool) (*Plugin[Req, Resp], error) {
	if o.disposed {
		return nil, NewDisposedError()
	}

	p, err := o.materializeManifest(path)
	if err != nil {
		return nil, err
	}
	if err := o.register(p, replace); err != nil {
		return nil, err
	}
	return p, nil
}

// materializeManifest reads, parses, validates, and binds a manifest
// without touching the registry.
func (o *Orchestrator[Req, Resp]) materializeManifest(path string) (*Plugin[Req, Resp], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewLoaderError(path, err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, NewLoaderError(path, err)
	}
	if strings.TrimSpace(manifest.Name) == "" {
		return nil, NewManifestInvalidError(path, "name is required")
	}
	if strings.TrimSpace(manifest.Version) == "" {
		return nil, NewManifestInvalidError(path, "version is required")
	}

	if manifest.Handler != "" {
		factory, ok := o.factories[manifest.Handler]
		if !ok {
			return nil, NewFactoryNotFoundError(path, manifest.Handler)
		}
		p, err := factory(manifest)
		if err != nil {
			return nil, NewLoaderError(path, err)
		}
		return p, nil
	}

	return &Plugin[Req, Resp]{
		Name:         manifest.Name,
		Version:      manifest.Version,
		Dependencies: manifest.Dependencies,
		Config:       manifest.Config,
		Limits:       manifest.Limits,
	}, nil
}

// LoadFromDirectory enumerates dir, loading every file whose extension is
// in extensions (e.g. ".yaml", ".json"; empty means all files). Per-file
// loader failures follow the ContinueOnError policy: under the default
// they are logged and skipped, otherwise the first failure aborts the
// scan. Returns the plugins registered by this call.
func (o *Orchestrator[Req, Resp]) LoadFromDirectory(ctx context.Context, dir string, extensions []string) ([]*Plugin[Req, Resp], error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.disposed {
		return nil, NewDisposedError()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, NewDirectoryScanError(dir, err)
	}

	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}

	var loaded []*Plugin[Req, Resp]
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if len(allowed) > 0 && !allowed[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		p, err := o.loadFromFile(ctx, path, false)
		if err != nil {
			if o.continueOnError {
				o.logger.Warn("Skipping unloadable plugin file", "path", path, "error", err)
				continue
			}
			return loaded, err
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}
