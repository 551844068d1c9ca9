// hot_reload.go: Manifest hot reload backed by Argus file watching
//
// Watched manifest files are reloaded whenever the filesystem reports a
// modification strictly newer than the last observed timestamp for that
// path (guarding against duplicate-event storms). The reload sequence
// (deactivate, uninstall, re-register with replace, install, activate,
// notify) runs fully serialized behind the orchestrator mutex, so a
// reload can never interleave with an in-flight manual lifecycle call.
// Reload failures are always swallowed: they are logged, recorded against
// the plugin, and emitted as error events, but never crash the watch
// loop.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package golifecycle

import (
	"context"
	"os"
	"time"

	"github.com/agilira/argus"
)

// watchedManifest tracks per-path reload bookkeeping.
type watchedManifest struct {
	plugin      string
	lastModTime time.Time
}

// hotReloadPollInterval is the Argus polling cadence for watched
// manifests. Manifests change rarely; low latency matters more than
// poll cost during development.
const hotReloadPollInterval = 500 * time.Millisecond

// WatchFile starts hot reload for a manifest previously loaded with
// LoadFromFile. The file is loaded once immediately if its plugin is not
// yet registered, then watched for changes.
func (o *Orchestrator[Req, Resp]) WatchFile(ctx context.Context, path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.disposed {
		return NewDisposedError()
	}

	info, err := os.Stat(path)
	if err != nil {
		return NewWatcherError("cannot watch missing manifest", err)
	}

	p, err := o.materializeManifest(path)
	if err != nil {
		return err
	}
	if _, registered := o.store.descriptors[p.Name]; !registered {
		if err := o.register(p, false); err != nil {
			return err
		}
	}

	if o.watcher == nil {
		watcher, err := o.newArgusWatcher()
		if err != nil {
			return err
		}
		o.watcher = watcher
	}

	o.watchedPaths[path] = watchedManifest{plugin: p.Name, lastModTime: info.ModTime()}

	if err := o.watcher.Watch(path, func(event argus.ChangeEvent) {
		o.handleManifestChange(context.Background(), event)
	}); err != nil {
		delete(o.watchedPaths, path)
		return NewWatcherError("failed to watch manifest", err)
	}
	if err := o.watcher.Start(); err != nil {
		// Already-running watchers are fine; a second Start is a no-op
		// failure we only log.
		o.logger.Debug("Argus watcher start", "error", err)
	}

	o.logger.Info("Watching plugin manifest", "path", path, "plugin", p.Name)
	return nil
}

// newArgusWatcher builds the shared Argus watcher for all manifest paths.
func (o *Orchestrator[Req, Resp]) newArgusWatcher() (*argus.Watcher, error) {
	logger := o.logger
	return argus.New(argus.Config{
		PollInterval:         hotReloadPollInterval,
		OptimizationStrategy: argus.OptimizationSingleEvent,
		ErrorHandler: func(err error, filepath string) {
			logger.Error("Manifest watching error", "error", err, "file", filepath)
		},
	}), nil
}

// handleManifestChange is the Argus callback. It serializes through the
// orchestrator mutex and swallows every failure.
func (o *Orchestrator[Req, Resp]) handleManifestChange(ctx context.Context, event argus.ChangeEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.disposed {
		return
	}
	watched, ok := o.watchedPaths[event.Path]
	if !ok {
		return
	}
	if event.IsDelete {
		o.logger.Warn("Watched manifest deleted, skipping reload", "path", event.Path)
		return
	}

	info, err := os.Stat(event.Path)
	if err != nil {
		o.logger.Error("Cannot stat changed manifest", "path", event.Path, "error", err)
		return
	}
	// Strictly-newer guard against duplicate change events for the same
	// write.
	if !info.ModTime().After(watched.lastModTime) {
		return
	}
	watched.lastModTime = info.ModTime()
	o.watchedPaths[event.Path] = watched

	o.reloadManifest(ctx, event.Path, watched.plugin)
}

// reloadManifest replaces a plugin definition in place:
// deactivate (when active) -> uninstall -> re-register with replace ->
// install -> re-activate (when it was active before). Every step failure
// is swallowed after logging and recording.
func (o *Orchestrator[Req, Resp]) reloadManifest(ctx context.Context, path, name string) {
	wasActive := o.store.state(name) == StateActive

	p, err := o.materializeManifest(path)
	if err != nil {
		o.logger.Error("Manifest reload failed to load", "path", path, "error", err)
		o.recordHookError(name, "hotReload", err)
		return
	}

	if wasActive {
		if err := o.deactivate(ctx, name); err != nil {
			o.logger.Warn("Reload deactivate failed", "plugin", name, "error", err)
		}
	}
	if _, registered := o.store.descriptors[name]; registered {
		if err := o.uninstall(ctx, name); err != nil {
			o.logger.Warn("Reload uninstall failed", "plugin", name, "error", err)
		}
	}
	if err := o.register(p, true); err != nil {
		o.logger.Error("Reload re-register failed", "plugin", p.Name, "error", err)
		return
	}
	if watched, ok := o.watchedPaths[path]; ok {
		watched.plugin = p.Name
		o.watchedPaths[path] = watched
	}
	if err := o.install(ctx, p.Name); err != nil {
		o.logger.Error("Reload install failed", "plugin", p.Name, "error", err)
		return
	}
	if wasActive {
		if err := o.activate(ctx, p.Name); err != nil {
			o.logger.Error("Reload activate failed", "plugin", p.Name, "error", err)
			return
		}
	}

	o.bus.Emit(Event{Type: EventPluginReloaded, Plugin: p.Name,
		Data: map[string]any{"path": path}})
	_ = o.triggerHotReload(ctx, path)
	o.logger.Info("Plugin reloaded", "plugin", p.Name, "path", path)
}

// StopHotReload stops watching every manifest and releases the watcher.
// Loaded plugins keep their current state.
func (o *Orchestrator[Req, Resp]) StopHotReload() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopWatcherLocked()
}

func (o *Orchestrator[Req, Resp]) stopWatcherLocked() {
	if o.watcher == nil {
		return
	}
	if err := o.watcher.Stop(); err != nil {
		o.logger.Warn("Failed to stop manifest watcher", "error", err)
	}
	o.watcher = nil
	o.watchedPaths = make(map[string]watchedManifest)
}
