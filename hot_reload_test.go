// hot_reload_test.go: Test suite for manifest hot reload
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package golifecycle

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/agilira/argus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// touchFuture bumps the file modification time well past any previously
// observed timestamp so the strictly-newer reload guard passes.
func touchFuture(t *testing.T, path string, offset time.Duration) {
	t.Helper()
	future := time.Now().Add(offset)
	require.NoError(t, os.Chtimes(path, future, future))
}

// watchManually seeds the reload bookkeeping for path without starting a
// real watcher, so tests can drive handleManifestChange deterministically.
func watchManually(t *testing.T, o *testOrchestrator, path string) {
	t.Helper()
	ctx := context.Background()
	p, err := o.LoadFromFile(ctx, path)
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	o.mu.Lock()
	o.watchedPaths[path] = watchedManifest{plugin: p.Name, lastModTime: info.ModTime()}
	o.mu.Unlock()
}

func TestWatchFile_MissingManifest(t *testing.T) {
	ctx := context.Background()
	o := newTestOrchestrator()

	err := o.WatchFile(ctx, "/nonexistent/plugin.yaml")
	require.Error(t, err)
	assert.Equal(t, ErrCodeWatcherFailed, errorCode(err))
}

func TestWatchFile_RegistersUnknownPlugin(t *testing.T) {
	ctx := context.Background()
	o := newTestOrchestrator()
	t.Cleanup(o.StopHotReload)

	path := writeManifest(t, t.TempDir(), "fresh.yaml", "name: fresh\nversion: 1.0.0\n")
	require.NoError(t, o.WatchFile(ctx, path))
	assert.Equal(t, StateRegistered, o.GetState("fresh"))
}

func TestStopHotReload_SafeWithoutWatcher(t *testing.T) {
	o := newTestOrchestrator()
	o.StopHotReload()
	o.StopHotReload()
}

func TestHotReload_ReplacesActivePlugin(t *testing.T) {
	ctx := context.Background()
	o := newTestOrchestrator()

	path := writeManifest(t, t.TempDir(), "cache.yaml", "name: cache\nversion: 1.0.0\n")
	watchManually(t, o, path)
	require.NoError(t, o.Install(ctx, "cache"))
	require.NoError(t, o.Activate(ctx, "cache"))

	var reloadedPath string
	require.NoError(t, o.Use(ctx, &testPlugin{Name: "observer", Version: "1.0.0",
		OnHotReload: func(ctx context.Context, c ServiceContainer, p string) error {
			reloadedPath = p
			return nil
		}}))

	events := recordEvents(o, EventPluginReloaded)

	require.NoError(t, os.WriteFile(path, []byte("name: cache\nversion: 2.0.0\n"), 0o600))
	touchFuture(t, path, 2*time.Second)
	o.handleManifestChange(ctx, argus.ChangeEvent{Path: path})

	p, ok := o.GetPlugin("cache")
	require.True(t, ok)
	assert.Equal(t, "2.0.0", p.Version)
	assert.Equal(t, StateActive, o.GetState("cache"),
		"a plugin that was active before the reload comes back active")
	require.Len(t, *events, 1)
	assert.Equal(t, "cache", (*events)[0].Plugin)
	assert.Equal(t, path, reloadedPath)
}

func TestHotReload_InactivePluginStaysInactive(t *testing.T) {
	ctx := context.Background()
	o := newTestOrchestrator()

	path := writeManifest(t, t.TempDir(), "idle.yaml", "name: idle\nversion: 1.0.0\n")
	watchManually(t, o, path)
	require.NoError(t, o.Install(ctx, "idle"))

	require.NoError(t, os.WriteFile(path, []byte("name: idle\nversion: 1.1.0\n"), 0o600))
	touchFuture(t, path, 2*time.Second)
	o.handleManifestChange(ctx, argus.ChangeEvent{Path: path})

	p, ok := o.GetPlugin("idle")
	require.True(t, ok)
	assert.Equal(t, "1.1.0", p.Version)
	assert.Equal(t, StateInstalled, o.GetState("idle"))
}

func TestHotReload_StaleTimestampIgnored(t *testing.T) {
	ctx := context.Background()
	o := newTestOrchestrator()

	path := writeManifest(t, t.TempDir(), "stable.yaml", "name: stable\nversion: 1.0.0\n")
	watchManually(t, o, path)

	events := recordEvents(o, EventPluginReloaded)

	// Same modification time as already observed: duplicate event.
	o.handleManifestChange(ctx, argus.ChangeEvent{Path: path})
	assert.Empty(t, *events, "events with a non-newer mtime must not trigger a reload")
}

func TestHotReload_DeleteEventSkipped(t *testing.T) {
	ctx := context.Background()
	o := newTestOrchestrator()

	path := writeManifest(t, t.TempDir(), "doomed.yaml", "name: doomed\nversion: 1.0.0\n")
	watchManually(t, o, path)

	events := recordEvents(o, EventPluginReloaded)
	o.handleManifestChange(ctx, argus.ChangeEvent{Path: path, IsDelete: true})

	assert.Empty(t, *events)
	assert.Equal(t, StateRegistered, o.GetState("doomed"))
}

func TestHotReload_UnwatchedPathIgnored(t *testing.T) {
	ctx := context.Background()
	o := newTestOrchestrator()

	events := recordEvents(o, EventPluginReloaded)
	o.handleManifestChange(ctx, argus.ChangeEvent{Path: "/never/watched.yaml"})
	assert.Empty(t, *events)
}

func TestHotReload_BrokenManifestSwallowedAndRecorded(t *testing.T) {
	ctx := context.Background()
	o := newTestOrchestrator()

	path := writeManifest(t, t.TempDir(), "breaks.yaml", "name: breaks\nversion: 1.0.0\n")
	watchManually(t, o, path)
	require.NoError(t, o.Install(ctx, "breaks"))
	require.NoError(t, o.Activate(ctx, "breaks"))

	require.NoError(t, os.WriteFile(path, []byte("version: 1.1.0\n"), 0o600))
	touchFuture(t, path, 2*time.Second)
	o.handleManifestChange(ctx, argus.ChangeEvent{Path: path})

	assert.Equal(t, StateActive, o.GetState("breaks"),
		"a reload that cannot even load the new manifest leaves the plugin untouched")
	info, err := o.GetDebugInfo("breaks")
	require.NoError(t, err)
	require.Error(t, info.Error)
}
